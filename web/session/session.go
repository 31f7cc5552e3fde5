// Package session carries the authenticated user of a request through the
// gin context. Nothing is persisted between requests.
package session

import (
	"github.com/prestamos-sa/prestamos/database/model"

	"github.com/gin-gonic/gin"
)

const loginUser = "LOGIN_USER"

// SetLoginUser records user as the authenticated principal of the request.
func SetLoginUser(c *gin.Context, user *model.User) {
	c.Set(loginUser, user)
}

// GetLoginUser returns the authenticated user, or nil on public routes.
func GetLoginUser(c *gin.Context) *model.User {
	if obj, ok := c.Get(loginUser); ok {
		if user, ok := obj.(*model.User); ok {
			return user
		}
	}
	return nil
}
