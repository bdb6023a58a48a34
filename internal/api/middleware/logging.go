// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/adscan/internal/log"
)

// Logging attaches a request-scoped logger to the context and writes one
// access line per request.
func Logging(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			logger := xglog.WithContext(r.Context(), base)
			if traceID, _ := ExtractTraceContext(r); traceID != "" {
				logger = logger.With().Str("trace_id", traceID).Logger()
			}
			ctx := logger.WithContext(r.Context())

			sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(sw, r.WithContext(ctx))

			ev := logger.Info()
			if sw.statusCode >= http.StatusInternalServerError {
				ev = logger.Warn()
			}
			ev.Str(xglog.FieldEvent, "http.request").
				Str("method", r.Method).
				Str("route", routePattern(r)).
				Int("status", sw.statusCode).
				Int("bytes", sw.bytesWritten).
				Dur("duration", time.Since(start)).
				Msg("request served")
		})
	}
}
