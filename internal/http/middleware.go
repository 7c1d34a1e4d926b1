package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/aliabbasi2000/ezelectronics/internal/auth"
	"github.com/aliabbasi2000/ezelectronics/internal/user"
)

// Principal is the authenticated caller, resolved before any handler runs.
type Principal struct {
	Username string
	Role     user.Role
}

type contextKey string

const principalContextKey contextKey = "principal"

const sessionCookieName = "access_token"

// extractToken reads the session token from the cookie (browsers) or the
// Authorization header (API clients).
func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// RequireAuth validates the session token and stores the principal in the
// request context.
func RequireAuth(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractToken(r)
			if tokenString == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			claims, err := jwtService.ValidateToken(tokenString)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			role, ok := user.ParseRole(claims.Role)
			if !ok {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			p := Principal{Username: claims.Username, Role: role}
			ctx := context.WithValue(r.Context(), principalContextKey, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole allows the request through only when the principal holds one
// of the given roles.
func RequireRole(roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			for _, role := range roles {
				if p.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeError(w, http.StatusForbidden, "forbidden")
		})
	}
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(Principal)
	return p, ok
}
