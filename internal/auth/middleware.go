package auth

import (
	"net/http"

	"github.com/MrJamesThe3rd/icpledger/internal/access"
)

// Middleware resolves the caller principal from the bearer token. Requests without
// an Authorization header continue as the anonymous caller; a malformed or
// unverifiable token is rejected with 401.
func Middleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token := ExtractBearer(header)
			if token == "" {
				http.Error(w, "malformed authorization header", http.StatusUnauthorized)
				return
			}

			claims, err := Parse(token, secret)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := access.WithCaller(r.Context(), access.Principal(claims.Subject))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
