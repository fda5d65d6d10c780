package rest

import (
	"context"
	"net/http"

	"github.com/Junhyukkkk/anondocs-server/internal/server/auth"
	"github.com/Junhyukkkk/anondocs-server/internal/server/models"
)

type ctxKey string

const principalKey ctxKey = "principal"

// AuthMiddleware validates the Bearer token and stores the principal in the
// request context. Rejection is uniform for missing, malformed and expired
// tokens.
func AuthMiddleware(jwtSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := auth.PrincipalFromBearer(r.Header.Get("Authorization"), jwtSecret)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func principalFrom(r *http.Request) (*models.Principal, bool) {
	p, ok := r.Context().Value(principalKey).(*models.Principal)
	return p, ok
}
