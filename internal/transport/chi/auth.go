package chi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/scopeq/internal/domain/principal"
	"github.com/kailas-cloud/scopeq/internal/logger"
)

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// Claims are the JWT claims a principal is built from.
type Claims struct {
	Role           string `json:"role"`
	OrganizationID string `json:"org_id,omitempty"`
	TenantID       string `json:"tenant_id,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 bearer tokens.
type Authenticator struct {
	secret []byte
	issuer string
}

// NewAuthenticator creates an Authenticator. issuer is checked when non-empty.
func NewAuthenticator(secret, issuer string) (*Authenticator, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	return &Authenticator{secret: []byte(secret), issuer: issuer}, nil
}

// Principal verifies token and returns the principal it names.
func (a *Authenticator) Principal(token string) (principal.Principal, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	var claims Claims
	if _, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...); err != nil {
		return principal.Principal{}, fmt.Errorf("token verification failed: %w", err)
	}

	p, err := principal.New(claims.Subject, principal.Role(claims.Role), claims.OrganizationID, claims.TenantID)
	if err != nil {
		return principal.Principal{}, fmt.Errorf("invalid claims: %w", err)
	}
	return p, nil
}

// Sign issues a token for p. Used by tests and local tooling.
func (a *Authenticator) Sign(p principal.Principal, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = p.ID()
	if claims.Issuer == "" {
		claims.Issuer = a.issuer
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             string(p.Role()),
		OrganizationID:   p.OrganizationID(),
		TenantID:         p.TenantID(),
		RegisteredClaims: claims,
	})
	return tok.SignedString(a.secret)
}

// BearerAuthMiddleware returns a middleware that verifies Bearer JWTs and
// stores the resulting principal in the request context.
func BearerAuthMiddleware(auth *Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, http.StatusUnauthorized, CodeUnauthenticated, "missing authorization header", "")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(header, bearerPrefix) {
				writeError(w, http.StatusUnauthorized,
					CodeUnauthenticated, "authorization header must use Bearer scheme", "")
				return
			}

			p, err := auth.Principal(strings.TrimSpace(header[len(bearerPrefix):]))
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					msg = "token expired"
				}
				logger.FromContext(r.Context()).Info("authentication failed", zap.Error(err))
				writeError(w, http.StatusUnauthorized, CodeUnauthenticated, msg, "")
				return
			}

			ctx := principal.WithContext(r.Context(), p)
			ctx = logger.With(ctx,
				zap.String("principal_id", p.ID()),
				zap.String("role", string(p.Role())),
			)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
