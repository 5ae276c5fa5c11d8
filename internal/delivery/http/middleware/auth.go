package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Pesokrava/jewelry_catalog/internal/delivery/http/response"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/logger"
)

type identityKey struct{}

// Identity is the verified caller asserted by the identity service
type Identity struct {
	UserID    string
	Email     string
	FirstName string
	LastName  string
	Role      string
}

// DisplayName joins first and last name, falling back to the email
func (i Identity) DisplayName() string {
	name := strings.TrimSpace(i.FirstName + " " + i.LastName)
	if name == "" {
		return i.Email
	}
	return name
}

// Claims are the token claims issued by the identity service
type Claims struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// WithIdentity stores id in ctx
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the verified caller, if any
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// Auth verifies bearer tokens against keys supplied by keyFunc
type Auth struct {
	keyFunc   jwt.Keyfunc
	methods   []string
	adminRole string
	logger    *logger.Logger
}

// NewAuth creates the authentication middleware. keyFunc is normally backed by the identity service JWKS.
// Tokens signed with an algorithm outside methods are rejected before keyFunc runs.
func NewAuth(keyFunc jwt.Keyfunc, methods []string, adminRole string, log *logger.Logger) *Auth {
	return &Auth{
		keyFunc:   keyFunc,
		methods:   methods,
		adminRole: adminRole,
		logger:    log,
	}
}

// Authenticate rejects requests without a valid bearer token
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			response.Error(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		id, err := a.verify(token)
		if err != nil {
			a.logger.Debugf("Rejected token: %v", err)
			response.Error(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireAdmin rejects authenticated callers that lack the administrator role.
// It must run after Authenticate.
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		if !ok {
			response.Error(w, http.StatusUnauthorized, "Authorization header required")
			return
		}
		if id.Role != a.adminRole {
			response.Error(w, http.StatusForbidden, "Administrator role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Auth) verify(raw string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, a.keyFunc, jwt.WithValidMethods(a.methods), jwt.WithExpirationRequired())
	if err != nil {
		return Identity{}, err
	}
	if !token.Valid || claims.Subject == "" {
		return Identity{}, jwt.ErrTokenInvalidClaims
	}

	return Identity{
		UserID:    claims.Subject,
		Email:     claims.Email,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		Role:      claims.Role,
	}, nil
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	parts := strings.SplitN(h, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
