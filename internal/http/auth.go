package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/conference-agenda/internal/application"
)

// TokenValidator resolves a bearer token into the calling attendee.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (application.Principal, error)
}

// JWTAuthenticator validates HS256 session tokens. The subject claim carries
// the attendee's user ID.
type JWTAuthenticator struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWTAuthenticator returns an authenticator for tokens signed with secret.
// A non-empty issuer is both required on incoming tokens and set on issued ones.
func NewJWTAuthenticator(secret, issuer string, now func() time.Time) (*JWTAuthenticator, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("http: jwt secret is required")
	}
	if now == nil {
		now = time.Now
	}
	return &JWTAuthenticator{secret: []byte(secret), issuer: issuer, now: now}, nil
}

// ValidateToken implements TokenValidator.
func (a *JWTAuthenticator) ValidateToken(_ context.Context, token string) (application.Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return application.Principal{}, fmt.Errorf("%w: %w", application.ErrUnauthorized, err)
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return application.Principal{}, fmt.Errorf("%w: invalid token claims", application.ErrUnauthorized)
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return application.Principal{}, fmt.Errorf("%w: token has no subject", application.ErrUnauthorized)
	}
	return application.Principal{UserID: subject}, nil
}

// IssueToken signs a session token for userID valid for ttl.
func (a *JWTAuthenticator) IssueToken(userID string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("http: user id is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("http: token ttl must be positive")
	}
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    a.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// RequireSession rejects requests without a valid bearer token and stores the
// resolved principal in the request context.
func RequireSession(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingToken)
				return
			}

			principal, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, application.ErrUnauthorized) {
					responder.loggerFor(r.Context()).InfoContext(r.Context(), "rejected session token", "error", err)
					responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{
						ErrorCode: "UNAUTHORIZED",
						Message:   errInvalidToken.Error(),
					})
					return
				}
				responder.writeError(r.Context(), w, http.StatusInternalServerError, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
