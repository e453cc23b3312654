package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/scribemart/internal/domain/model"
	pkgAuth "github.com/polkiloo/scribemart/internal/pkg/auth"
	"github.com/polkiloo/scribemart/internal/server/http/dto"
)

const (
	// ActorContextKey is a gin context key for the authenticated model.Actor.
	ActorContextKey = "actor"
	authCookieName  = "scribemart_token"
)

// TokenParser resolves an auth token to the calling actor.
type TokenParser interface {
	ParseToken(token string) (model.Actor, error)
}

// AuthRequired ensures user is authenticated before accessing handler.
func AuthRequired(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Error{Error: "authentication required"})
			return
		}

		actor, err := parser.ParseToken(token)
		if err != nil {
			if errors.Is(err, pkgAuth.ErrInvalidToken) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Error{Error: "invalid token"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.Error{Error: "internal error"})
			return
		}

		c.Set(ActorContextKey, actor)
		c.Next()
	}
}

// RequireRole lets through only actors holding one of the roles. It must run after AuthRequired.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		val, _ := c.Get(ActorContextKey)
		actor, ok := val.(model.Actor)
		if !ok || !slices.Contains(roles, actor.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.Error{Error: "forbidden"})
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}

	if cookie, err := c.Cookie(authCookieName); err == nil {
		return cookie
	}
	return ""
}

// SetAuthCookie writes auth token cookie to response.
func SetAuthCookie(c *gin.Context, token string) {
	c.SetCookie(authCookieName, token, 0, "/", "", false, true)
	c.Header("Authorization", "Bearer "+token)
}
