package signature

import (
	"bytes"
	"io"
	"net/http"

	"github.com/deepnoodle-ai/taskdesk/log"
)

// MaxBodySize caps the request body read for verification. Slack payloads
// are a few kilobytes.
const MaxBodySize = 1 << 20

// Middleware rejects requests whose signature does not verify. It reads the
// raw body before anything parses it and restores r.Body so downstream
// handlers can parse it normally.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.Ctx(r.Context())
		body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodySize))
		if err != nil {
			logger.Error("failed to read request body", "path", r.URL.Path, "error", err)
			http.Error(w, "", http.StatusInternalServerError)
			return
		}
		if err := v.Verify(body, r.Header.Get(HeaderSignature), r.Header.Get(HeaderTimestamp)); err != nil {
			logger.Warn("rejected unsigned or stale request",
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			writeUnauthorized(w)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = io.WriteString(w, `{"error":"Unauthorized"}`)
}
