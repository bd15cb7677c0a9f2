package httptransport

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"melodix-server-go/internal/domain/auth"
	"melodix-server-go/internal/domain/auth/model"
)

// Context keys populated by the auth middleware.
const (
	ContextClaims    = "claims"
	ContextToken     = "token"
	ContextSessionID = "session_id"
)

// AuthMiddleware authenticates each request via the credential core. Every
// verification failure collapses to one generic message so clients cannot
// distinguish expired, malformed and revoked tokens; the precise cause is
// logged server side.
func AuthMiddleware(svc *auth.Service, sessions *auth.SessionRegistry, logger model.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			RespondError(c, http.StatusUnauthorized, "authentication required")
			c.Abort()
			return
		}

		claims, err := svc.VerifyAccess(c.Request.Context(), token)
		if err != nil {
			logger.Debug("token rejected: %v", err)
			RespondError(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		if sessionID := c.GetHeader("X-Session-ID"); sessionID != "" {
			if err := sessions.Touch(c.Request.Context(), sessionID); err != nil {
				if !errors.Is(err, auth.ErrSessionNotFound) {
					logger.Warn("session touch failed: %v", err)
				}
			} else {
				c.Set(ContextSessionID, sessionID)
			}
		}

		c.Set(ContextClaims, claims)
		c.Set(ContextToken, token)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}

// ClaimsFromContext retrieves the verified claims set by AuthMiddleware.
func ClaimsFromContext(c *gin.Context) (*auth.Claims, bool) {
	value, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*auth.Claims)
	return claims, ok
}
