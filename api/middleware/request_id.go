package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/koor-works/koor-backend/pkg/logger"
)

const (
	requestIDHeader = "X-Request-Id"
	// Incoming ids longer than this are replaced, not truncated; an
	// oversized value is likely garbage rather than a gateway id.
	maxRequestIDLen = 128
)

// RequestID tags each request with an id, honoring one supplied by the
// caller so a gateway-assigned id survives into our logs. The id is
// echoed back in the response header and attached to the log context.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if id == "" || len(id) > maxRequestIDLen {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}
