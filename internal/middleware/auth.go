package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/forgo/mediacms/api/internal/model"
	"github.com/forgo/mediacms/api/pkg/jwt"
)

// TokenValidator verifies bearer tokens
type TokenValidator interface {
	Validate(token string) (*jwt.Claims, error)
}

const (
	// PrincipalKey is the context key for the authenticated principal
	PrincipalKey contextKey = "principal"

	// ClaimsKey is the context key for JWT claims
	ClaimsKey contextKey = "claims"
)

// Auth returns a middleware that rejects requests without a valid bearer
// token and stores the caller as a *model.Principal in the context
func Auth(validator TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				model.NewUnauthorizedError("missing authorization header").WriteJSON(w)
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				model.NewUnauthorizedError("invalid authorization header format").WriteJSON(w)
				return
			}

			claims, err := validator.Validate(strings.TrimSpace(token))
			if err != nil {
				switch {
				case errors.Is(err, jwt.ErrTokenExpired):
					model.NewUnauthorizedError("token expired").WriteJSON(w)
				case errors.Is(err, jwt.ErrInvalidSignature):
					model.NewUnauthorizedError("invalid token signature").WriteJSON(w)
				default:
					model.NewUnauthorizedError("invalid token").WriteJSON(w)
				}
				return
			}

			principal := PrincipalFromClaims(claims)
			if principal.UserID == "" {
				model.NewUnauthorizedError("token has no subject").WriteJSON(w)
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalKey, principal)
			ctx = context.WithValue(ctx, ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromClaims builds the request principal. The user id falls back to
// the sub claim and a missing role means an ordinary user.
func PrincipalFromClaims(claims *jwt.Claims) *model.Principal {
	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	role := model.UserRole(claims.Role)
	if role == "" {
		role = model.UserRoleUser
	}
	return &model.Principal{
		UserID:   userID,
		Username: claims.Username,
		Role:     role,
	}
}

// GetPrincipal extracts the authenticated principal from context
func GetPrincipal(ctx context.Context) *model.Principal {
	if p, ok := ctx.Value(PrincipalKey).(*model.Principal); ok {
		return p
	}
	return nil
}

// GetUserID extracts the authenticated user ID from context
func GetUserID(ctx context.Context) string {
	if p := GetPrincipal(ctx); p != nil {
		return p.UserID
	}
	return ""
}

// GetClaims extracts the JWT claims from context
func GetClaims(ctx context.Context) *jwt.Claims {
	if claims, ok := ctx.Value(ClaimsKey).(*jwt.Claims); ok {
		return claims
	}
	return nil
}
