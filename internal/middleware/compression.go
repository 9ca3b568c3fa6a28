package middleware

import (
	"compress/gzip"
	"io"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// Compression gzips responses for clients that accept it. History and batch
// payloads grow linearly with session length, so the read endpoints are the
// main beneficiaries. Writers are pooled to avoid per-request allocation.
type Compression struct {
	level int
	pool  sync.Pool
	stats CompressionStats
}

// CompressionStats tracks byte counts before and after compression.
type CompressionStats struct {
	mu              sync.RWMutex
	TotalRequests   int64
	GzippedRequests int64
	BytesIn         int64
	BytesOut        int64
}

// NewCompression creates a compression middleware at the given gzip level.
func NewCompression(level int) *Compression {
	cm := &Compression{level: level}
	cm.pool.New = func() interface{} {
		gz, _ := gzip.NewWriterLevel(io.Discard, level)
		return gz
	}
	return cm
}

// Handler returns the Gin middleware.
func (cm *Compression) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		cm.stats.record(0, 0, false)

		if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") {
			c.Next()
			return
		}

		gz := cm.pool.Get().(*gzip.Writer)
		counter := &countingWriter{ResponseWriter: c.Writer}
		gz.Reset(counter)

		c.Header("Content-Encoding", "gzip")
		c.Header("Vary", "Accept-Encoding")

		wrapped := &gzipWriter{ResponseWriter: c.Writer, gz: gz}
		c.Writer = wrapped

		defer func() {
			gz.Close()
			cm.pool.Put(gz)
			c.Writer = wrapped.ResponseWriter
			cm.stats.record(wrapped.bytesIn, counter.bytesOut, true)
		}()

		c.Next()
	}
}

// GetStats returns compression statistics for the metrics endpoint.
func (cm *Compression) GetStats() map[string]interface{} {
	return cm.stats.snapshot()
}

func (cs *CompressionStats) record(in, out int64, gzipped bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if gzipped {
		cs.GzippedRequests++
		cs.BytesIn += in
		cs.BytesOut += out
	} else {
		cs.TotalRequests++
	}
}

func (cs *CompressionStats) snapshot() map[string]interface{} {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	ratio := 0.0
	if cs.BytesIn > 0 {
		ratio = float64(cs.BytesOut) / float64(cs.BytesIn)
	}

	return map[string]interface{}{
		"total_requests":   cs.TotalRequests,
		"gzipped_requests": cs.GzippedRequests,
		"bytes_in":         cs.BytesIn,
		"bytes_out":        cs.BytesOut,
		"ratio":            ratio,
	}
}

// gzipWriter routes body writes through the gzip stream while headers and
// status go straight to the underlying writer.
type gzipWriter struct {
	gin.ResponseWriter
	gz      *gzip.Writer
	bytesIn int64
}

func (w *gzipWriter) Write(data []byte) (int, error) {
	w.bytesIn += int64(len(data))
	return w.gz.Write(data)
}

func (w *gzipWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// WriteHeader drops Content-Length; the compressed size is unknown until
// the stream closes.
func (w *gzipWriter) WriteHeader(code int) {
	w.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(code)
}

type countingWriter struct {
	gin.ResponseWriter
	bytesOut int64
}

func (w *countingWriter) Write(data []byte) (int, error) {
	n, err := w.ResponseWriter.Write(data)
	w.bytesOut += int64(n)
	return n, err
}
