package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	dErrors "bidrag/pkg/domain-errors"
	"bidrag/pkg/platform/httputil"
	"bidrag/pkg/requestcontext"
)

// JWTValidator defines the interface for validating JWT tokens
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator
type JWTClaims struct {
	// Caseworker is the saksbehandler's NAV ident.
	Caseworker string
	Unit       string
	JTI        string
}

// RequireAuth rejects requests without a valid caseworker bearer token and
// puts the caseworker ident and unit on the request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}
			if claims.Caseworker == "" {
				logger.WarnContext(ctx, "unauthorized access - token has no caseworker",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			ctx = requestcontext.WithCaseworker(ctx, claims.Caseworker)
			if claims.Unit != "" {
				ctx = requestcontext.WithUnit(ctx, claims.Unit)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
