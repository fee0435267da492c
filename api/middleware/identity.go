package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/paygmeter-backend/pkg/logger"
)

const (
	actorIDHeader       = "X-Actor-Id"
	distributorIDHeader = "X-Distributor-Id"
)

// Identity copies the caller identity forwarded by the upstream gateway into
// the request context. Authentication itself happens upstream; this service
// only scopes queries by what it is handed.
func Identity(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if actor := strings.TrimSpace(r.Header.Get(actorIDHeader)); actor != "" {
				ctx = WithActorID(ctx, actor)
				if logg != nil {
					ctx = logg.WithField(ctx, "actor_id", actor)
				}
			}
			if distributor := strings.TrimSpace(r.Header.Get(distributorIDHeader)); distributor != "" {
				ctx = WithDistributorID(ctx, distributor)
				if logg != nil {
					ctx = logg.WithDistributorID(ctx, distributor)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
