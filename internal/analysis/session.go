package analysis

// neutralSEI is returned when a respondent has no scored questions yet:
// no evidence either way.
const neutralSEI = 50.0

// Engagement thresholds over per-question scores.
const (
	highEngagementUEI = 60.0
	lowEngagementUEI  = 30.0
	conflictSCI       = 50.0
)

var seiWeights = struct {
	meanUEI     float64
	meanSCI     float64
	consistency float64
	highRatio   float64
	balance     float64
	lowPenalty  float64
}{
	meanUEI:     0.40,
	meanSCI:     0.20,
	consistency: 0.15,
	highRatio:   0.10,
	balance:     0.10,
	lowPenalty:  0.05,
}

// SessionQuality computes the cumulative session engagement index (SEI)
// over the ordered history of one respondent. It recomputes from the full
// filtered history on every call; sessions are bounded by question count,
// and full recomputation cannot drift the way incremental statistics can.
func SessionQuality(entries []HistoryEntry) float64 {
	if len(entries) == 0 {
		return neutralSEI
	}

	sciValues := make([]float64, len(entries))
	ueiValues := make([]float64, len(entries))
	for i, e := range entries {
		sciValues[i] = e.SCI
		ueiValues[i] = e.UEI
	}

	meanUEI := mean(ueiValues)
	meanSCI := mean(sciValues)

	// Coefficient of variation of UEI, sample standard deviation. Zero for
	// a single entry or a zero mean.
	cv := 0.0
	if len(ueiValues) > 1 && meanUEI > 0 {
		cv = sampleStdDev(ueiValues) / meanUEI
	}
	consistency := 1 / (1 + cv)

	n := float64(len(entries))
	high, low, balanced := 0, 0, 0
	for i := range entries {
		if ueiValues[i] > highEngagementUEI {
			high++
		}
		if ueiValues[i] < lowEngagementUEI {
			low++
		}
		// Engaged despite conflict.
		if sciValues[i] > conflictSCI && ueiValues[i] > highEngagementUEI {
			balanced++
		}
	}

	raw := seiWeights.meanUEI*(meanUEI/100) +
		seiWeights.meanSCI*(meanSCI/100) +
		seiWeights.consistency*consistency +
		seiWeights.highRatio*(float64(high)/n) +
		seiWeights.balance*(float64(balanced)/n) +
		seiWeights.lowPenalty*(1-float64(low)/n)

	return raw * 100
}
