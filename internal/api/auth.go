package api

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey int

const accountIDKey ctxKey = iota

// requireAuth rejects requests without a valid bearer token and stores
// the authenticated account id in the request context.
func (h *HandlerProvider) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		accountID, err := h.identity.VerifyToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), accountIDKey, accountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")

	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}

	return strings.TrimSpace(auth[len(prefix):])
}

// accountIDFromCtx returns the account id stored by requireAuth. Zero
// means the middleware did not run, which is a routing bug.
func accountIDFromCtx(ctx context.Context) int64 {
	id, _ := ctx.Value(accountIDKey).(int64)

	return id
}
