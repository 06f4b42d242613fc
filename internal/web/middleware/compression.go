package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// CompressionConfig holds configuration for the compression middleware
type CompressionConfig struct {
	// Level is the gzip compression level (1-9, default 6)
	Level int
	// MinSize is the smallest first write that gets compressed
	MinSize int
}

// DefaultCompressionConfig returns the default compression configuration
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		Level:   gzip.DefaultCompression,
		MinSize: 1024,
	}
}

// Compression gzips large responses (table metadata) for clients that accept it
func Compression() Middleware {
	return CompressionWithConfig(DefaultCompressionConfig())
}

// CompressionWithConfig creates a compression middleware with custom configuration.
// The decision is taken on the first write, so the status line is held
// back until then.
func CompressionWithConfig(config CompressionConfig) Middleware {
	if config.Level == 0 {
		config.Level = gzip.DefaultCompression
	}
	pool := &sync.Pool{
		New: func() any {
			writer, _ := gzip.NewWriterLevel(io.Discard, config.Level)
			return writer
		},
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead || !acceptsGzip(r) {
				next.ServeHTTP(w, r)
				return
			}

			gzw := &gzipResponseWriter{ResponseWriter: w, pool: pool, minSize: config.MinSize}
			defer gzw.Close()

			next.ServeHTTP(gzw, r)
		})
	}
}

func acceptsGzip(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		name, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.EqualFold(name, "gzip") {
			return true
		}
	}
	return false
}

type gzipResponseWriter struct {
	http.ResponseWriter
	pool    *sync.Pool
	minSize int
	status  int
	decided bool
	gz      *gzip.Writer
}

func (gzw *gzipResponseWriter) WriteHeader(statusCode int) {
	if gzw.status == 0 {
		gzw.status = statusCode
	}
}

func (gzw *gzipResponseWriter) Write(b []byte) (int, error) {
	if !gzw.decided {
		gzw.decide(len(b))
	}
	if gzw.gz != nil {
		return gzw.gz.Write(b)
	}
	return gzw.ResponseWriter.Write(b)
}

func (gzw *gzipResponseWriter) decide(size int) {
	gzw.decided = true
	if gzw.status == 0 {
		gzw.status = http.StatusOK
	}

	h := gzw.ResponseWriter.Header()
	compress := size >= gzw.minSize &&
		gzw.status != http.StatusNoContent &&
		gzw.status != http.StatusNotModified &&
		h.Get("Content-Encoding") == ""
	if compress {
		h.Set("Content-Encoding", "gzip")
		h.Add("Vary", "Accept-Encoding")
		h.Del("Content-Length")
		gzw.gz = gzw.pool.Get().(*gzip.Writer)
		gzw.gz.Reset(gzw.ResponseWriter)
	}
	gzw.ResponseWriter.WriteHeader(gzw.status)
}

// Close flushes the gzip stream, or the held status when nothing was written
func (gzw *gzipResponseWriter) Close() error {
	if !gzw.decided {
		gzw.decided = true
		if gzw.status != 0 {
			gzw.ResponseWriter.WriteHeader(gzw.status)
		}
		return nil
	}
	if gzw.gz == nil {
		return nil
	}
	err := gzw.gz.Close()
	gzw.pool.Put(gzw.gz)
	gzw.gz = nil
	return err
}

// Unwrap exposes the underlying writer to http.ResponseController
func (gzw *gzipResponseWriter) Unwrap() http.ResponseWriter {
	return gzw.ResponseWriter
}
