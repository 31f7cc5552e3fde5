package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/prestamos-sa/prestamos/database/model"
	"github.com/prestamos-sa/prestamos/logger"
	"github.com/prestamos-sa/prestamos/web/entity"
	"github.com/prestamos-sa/prestamos/web/locale"
	"github.com/prestamos-sa/prestamos/web/session"

	"github.com/gin-gonic/gin"
)

// TokenVerifier resolves a bearer token to its user; rejected tokens yield
// the error passed to BearerAuth as unauthorized.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*model.User, error)
}

// BearerAuth guards a route group: it reads "Authorization: Bearer <token>",
// resolves it to a live user and stores that user in the request. Every
// rejection is the same 401 response.
func BearerAuth(verifier TokenVerifier, unauthorized error) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c)
			return
		}

		user, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, unauthorized) {
				logger.Error("verify token:", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, entity.Msg{
					Msg: locale.I18n(c, "server.error"),
				})
				return
			}
			abortUnauthorized(c)
			return
		}

		session.SetLoginUser(c, user)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortUnauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, entity.Msg{
		Msg: locale.I18n(c, "auth.unauthorized"),
	})
}
