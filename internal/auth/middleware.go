package auth

import (
	"net/http"
	"strings"
)

// Middleware authenticates portal requests and enforces the role ladder
// (viewer < resident < admin) resolved from the policy. Health, metrics
// and feed ingest endpoints are exempted by the policy, not here; the
// ingest path carries its own HMAC middleware.
type Middleware struct {
	Secret []byte
	Policy Policy
}

// NewMiddleware constructs the portal auth middleware.
func NewMiddleware(secret []byte, policy Policy) *Middleware {
	return &Middleware{Secret: secret, Policy: policy}
}

// Wrap returns a handler that verifies the bearer token, stores the
// tenant identity on the request context, and rejects callers below the
// role the policy requires for the route.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Policy.IsExempt(r) {
			next.ServeHTTP(w, r)
			return
		}
		required, ok := m.Policy.RequiredRole(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := ParseJWT(bearerToken(r.Header.Get("Authorization")), m.Secret)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		role, _ := NormalizeRole(claims.Role)
		if !RoleAtLeast(role, required) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		ctx := WithIdentity(r.Context(), claims.TenantID, role, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from an Authorization header, returning
// "" when the header is absent or not a bearer scheme.
func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
