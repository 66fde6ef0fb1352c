package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"fleetpulse/backend/internal/auth"
)

const scoreLinkKey contextKey = "score_link"

// AdminTokenMiddleware guards the management endpoints. The caller sends
// the shared token either as a bearer header or a ?token= query parameter
// (the latter for cron-style triggers that cannot set headers).
func AdminTokenMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			expected := os.Getenv("ADMIN_API_TOKEN")
			if expected == "" {
				http.Error(w, "Service misconfigured", http.StatusServiceUnavailable)
				return
			}

			presented := r.URL.Query().Get("token")
			if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
				presented = strings.TrimPrefix(header, "Bearer ")
			}

			if subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) != 1 {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ScoreLinkMiddleware validates a signed single-use score-report link and
// stores the granted driver id in the request context
func ScoreLinkMiddleware(signer *auth.LinkSigner) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := r.URL.Query().Get("token")
			if tokenString == "" {
				http.Error(w, "Unauthorized. Missing link token", http.StatusUnauthorized)
				return
			}

			link, err := signer.Validate(r.Context(), tokenString)
			if err != nil {
				http.Error(w, "Unauthorized. "+err.Error(), http.StatusUnauthorized)
				return
			}
			signer.MarkUsed(r.Context(), link.TokenID)

			ctx := context.WithValue(r.Context(), scoreLinkKey, link)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ScoreLinkFromContext returns the validated link, or nil when the request
// did not pass ScoreLinkMiddleware
func ScoreLinkFromContext(ctx context.Context) *auth.ScoreLink {
	if link, ok := ctx.Value(scoreLinkKey).(*auth.ScoreLink); ok {
		return link
	}
	return nil
}
