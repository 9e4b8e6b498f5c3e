package appMiddleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

const (
	defaultLimit  = 5
	defaultWindow = time.Minute
)

// RateLimit limits requests per client IP within a sliding window. It is
// meant for credential endpoints (login, register). RealIP must run earlier
// so RemoteAddr carries the client address. A nil onLimit falls back to a
// plain 429 response.
func RateLimit(limit int, window time.Duration, onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	if limit <= 0 {
		limit = defaultLimit
	}
	if window <= 0 {
		window = defaultWindow
	}

	opts := []httprate.Option{httprate.WithKeyFuncs(httprate.KeyByIP)}
	if onLimit != nil {
		opts = append(opts, httprate.WithLimitHandler(onLimit))
	}
	return httprate.Limit(limit, window, opts...)
}
