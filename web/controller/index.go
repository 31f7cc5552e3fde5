package controller

import (
	"errors"
	"net/http"

	"github.com/prestamos-sa/prestamos/config"
	"github.com/prestamos-sa/prestamos/logger"
	"github.com/prestamos-sa/prestamos/web/entity"
	"github.com/prestamos-sa/prestamos/web/service"
	"github.com/prestamos-sa/prestamos/web/session"

	"github.com/gin-gonic/gin"
)

var availableRoutes = []string{
	"/login (POST)",
	"/protected (GET)",
	"/users (GET, POST)",
	"/users/{id} (GET, PUT, DELETE)",
	"/materials (GET, POST)",
	"/materials/{id} (GET, PUT, DELETE)",
	"/loans (GET, POST)",
	"/loans/{id} (GET, PUT, DELETE)",
	"/loans/{id}/return (POST)",
}

// IndexController handles the welcome route, login and the authenticated
// profile route.
type IndexController struct {
	BaseController

	authService *service.AuthService
}

// NewIndexController registers the public routes on g and the profile route on
// the protected group.
func NewIndexController(g, protected *gin.RouterGroup, authService *service.AuthService) *IndexController {
	a := &IndexController{authService: authService}
	a.initRouter(g, protected)
	return a
}

func (a *IndexController) initRouter(g, protected *gin.RouterGroup) {
	g.GET("/", a.index)
	g.POST("/login", a.login)

	protected.GET("/protected", a.protected)
}

func (a *IndexController) index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":          I18nWeb(c, "welcome.message"),
		"docs":             I18nWeb(c, "welcome.docs"),
		"version":          config.GetVersion(),
		"available_routes": availableRoutes,
	})
}

// login authenticates the credentials and returns a bearer token. A missing
// user and a wrong password produce the same 401.
func (a *IndexController) login(c *gin.Context) {
	var form entity.LoginForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, err)
		return
	}
	form.Normalize()
	if !form.HasIdentifier() {
		pureJsonMsg(c, http.StatusBadRequest, false, I18nWeb(c, "auth.identifierRequired"))
		return
	}

	token, user, err := a.authService.Login(c.Request.Context(), form)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			logger.Warningf("failed login for username=%q email=%q phone=%q, IP: %s",
				form.Username, form.Email, form.Phone, getRemoteIp(c))
		}
		a.handleError(c, err)
		return
	}

	logger.Infof("%s logged in successfully, IP: %s", user.Username, getRemoteIp(c))
	c.JSON(http.StatusOK, token)
}

// protected returns the authenticated user.
func (a *IndexController) protected(c *gin.Context) {
	c.JSON(http.StatusOK, session.GetLoginUser(c))
}
