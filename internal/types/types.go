package types

// TrajectoryPoint is one sample of the pointer path. Coordinates are
// normalized screen coordinates but are not guaranteed to lie in [0,1].
type TrajectoryPoint struct {
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	Step           int     `json:"step"`
	NormalizedTime float64 `json:"normalizedTime"`
}

// DeviationMetrics describes pixel-scale deviation from the ideal path.
// The negative components are signed (<= 0).
type DeviationMetrics struct {
	MaxDeviationPositive float64 `json:"maxDeviationPositive"`
	MaxDeviationNegative float64 `json:"maxDeviationNegative"`
	AUCPositive          float64 `json:"aucPositive"`
	AUCNegative          float64 `json:"aucNegative"`
}

// VelocityMetrics holds velocity aggregates reported by the tracking client.
type VelocityMetrics struct {
	AverageVelocityPxPerSec float64 `json:"averageVelocityPxPerSec"`
	MaximalVelocityPxPerSec float64 `json:"maximalVelocityPxPerSec"`
	AverageVelocity         float64 `json:"averageVelocity"`
	MaximalVelocity         float64 `json:"maximalVelocity"`
}

// ComplexityMetrics holds path-complexity aggregates.
type ComplexityMetrics struct {
	AngleEntropy     float64 `json:"angleEntropy"`
	InitiationTimeMs float64 `json:"initiationTimeMs"`
}

// HoverMetrics counts dwells over candidate response options prior to the
// final selection, keyed by response label.
type HoverMetrics struct {
	HoverCounts map[string]int `json:"hoverCounts"`
	TotalHovers int            `json:"totalHovers"`
}

// MetricsBundle groups the precomputed metrics supplied alongside the raw
// trajectory. Absent leaf fields decode to their zero values, which are the
// documented defaults for every scoring formula; only the section-level
// presence of the bundle itself is enforced.
type MetricsBundle struct {
	Deviation  DeviationMetrics  `json:"deviation"`
	Velocity   VelocityMetrics   `json:"velocity"`
	Complexity ComplexityMetrics `json:"complexity"`
	Hover      HoverMetrics      `json:"hover"`
}

// Metadata identifies the respondent and the answered question.
// SelectedResponse must be usable as a key into HoverCounts.
type Metadata struct {
	UserID           string `json:"userId"`
	SurveyID         string `json:"surveyId"`
	QuestionID       string `json:"questionId"`
	Timestamp        string `json:"timestamp"`
	SelectedResponse string `json:"selectedResponse"`
}

// TelemetryRecord is one telemetry submission for a single answered
// question. The three sections are pointers (and a nil-able slice) so that
// an absent section is distinguishable from a present-but-empty one.
type TelemetryRecord struct {
	Metadata   *Metadata         `json:"metadata"`
	Trajectory []TrajectoryPoint `json:"trajectory"`
	Metrics    *MetricsBundle    `json:"metrics"`
}

// ScoreTriple is the result of scoring one record, each component rounded
// to two decimal places and bounded to [0,100].
type ScoreTriple struct {
	SCI float64 `json:"SCI"`
	UEI float64 `json:"UEI"`
	SEI float64 `json:"SEI"`
}

// BatchRequest is the wire shape of a multi-question scoring request.
type BatchRequest struct {
	Questions []TelemetryRecord `json:"questions"`
}
