package api

//go:generate mockgen -source=auth_middleware.go -destination=mocks/mock_auth_middleware.go -package=mocks

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hanksha/meeting-room-booking-backend/identity"
)

// PrincipalKey is the gin context key holding the identity.Principal of an
// authenticated request.
const PrincipalKey = "principal"

type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (identity.Principal, error)
}

func Auth(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		accessToken = strings.TrimSpace(accessToken)

		if !found || len(accessToken) == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authentication"})
			c.Abort()
			return
		}

		principal, err := authenticator.Authenticate(c.Request.Context(), accessToken)

		if err != nil {
			c.Error(err)
			if errors.Is(err, identity.ErrInvalidToken) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authentication"})
			} else {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to authenticate"})
			}
			c.Abort()
			return
		}

		c.Set(PrincipalKey, principal)
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentPrincipal(c).IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
			c.Abort()
			return
		}
	}
}

func currentPrincipal(c *gin.Context) identity.Principal {
	return c.MustGet(PrincipalKey).(identity.Principal)
}
