// Package controller provides the HTTP handlers of the lending API: login,
// the protected profile route and CRUD for users, materials and loans.
package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/prestamos-sa/prestamos/logger"
	"github.com/prestamos-sa/prestamos/web/locale"
	"github.com/prestamos-sa/prestamos/web/service"

	"github.com/gin-gonic/gin"
)

// BaseController maps service outcomes onto HTTP responses. Resource
// controllers embed it and set notFoundKey to their own message.
type BaseController struct {
	notFoundKey string
	conflictKey string
}

// handleError writes the response for err. Domain outcomes are surfaced
// with a translated message only; anything else is logged and reported as 500.
func (a *BaseController) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		c.Header("WWW-Authenticate", "Bearer")
		pureJsonMsg(c, http.StatusUnauthorized, false, I18nWeb(c, "auth.invalidCredentials"))
	case errors.Is(err, service.ErrNotFound):
		key := a.notFoundKey
		if key == "" {
			key = "request.notFound"
		}
		pureJsonMsg(c, http.StatusNotFound, false, withDetail(I18nWeb(c, key), err, service.ErrNotFound))
	case errors.Is(err, service.ErrConflict):
		if a.conflictKey != "" {
			pureJsonMsg(c, http.StatusConflict, false, I18nWeb(c, a.conflictKey))
			return
		}
		pureJsonMsg(c, http.StatusConflict, false, withDetail(I18nWeb(c, "request.conflict"), err, service.ErrConflict))
	case errors.Is(err, service.ErrInvalid):
		pureJsonMsg(c, http.StatusBadRequest, false, withDetail(I18nWeb(c, "request.invalid"), err, service.ErrInvalid))
	default:
		logger.Errorf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		pureJsonMsg(c, http.StatusInternalServerError, false, I18nWeb(c, "server.error"))
	}
}

// withDetail appends the text a service wrapped around sentinel, if any.
func withDetail(msg string, err, sentinel error) string {
	detail := strings.TrimPrefix(err.Error(), sentinel.Error())
	detail = strings.TrimPrefix(detail, ": ")
	if detail == "" {
		return msg
	}
	return msg + ": " + detail
}

// I18nWeb retrieves an internationalized message for the current request.
func I18nWeb(c *gin.Context, name string, params ...string) string {
	return locale.I18n(c, name, params...)
}
