package controller

import (
	"net/http"

	"github.com/prestamos-sa/prestamos/logger"
	"github.com/prestamos-sa/prestamos/web/entity"
	"github.com/prestamos-sa/prestamos/web/service"
	"github.com/prestamos-sa/prestamos/web/session"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	BaseController

	userService *service.UserService
}

// NewUserController registers registration on the public group and the rest
// of the user CRUD on the protected group.
func NewUserController(g, protected *gin.RouterGroup, userService *service.UserService) *UserController {
	a := &UserController{
		BaseController: BaseController{notFoundKey: "user.notFound", conflictKey: "user.conflict"},
		userService:    userService,
	}
	a.initRouter(g, protected)
	return a
}

func (a *UserController) initRouter(g, protected *gin.RouterGroup) {
	g.POST("/users", a.create)

	users := protected.Group("/users")
	users.GET("", a.list)
	users.GET("/:id", a.get)
	users.PUT("/:id", a.update)
	users.DELETE("/:id", a.delete)
}

func (a *UserController) list(c *gin.Context) {
	var page entity.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		badRequest(c, err)
		return
	}
	users, err := a.userService.ListUsers(c.Request.Context(), page)
	if err != nil {
		a.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (a *UserController) get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		a.handleError(c, service.ErrNotFound)
		return
	}
	user, err := a.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		a.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (a *UserController) create(c *gin.Context) {
	var req entity.UserCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := a.userService.CreateUser(c.Request.Context(), req)
	if err != nil {
		a.handleError(c, err)
		return
	}
	logger.Infof("user %d (%s) registered", user.Id, user.Username)
	c.JSON(http.StatusOK, user)
}

func (a *UserController) update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		a.handleError(c, service.ErrNotFound)
		return
	}
	var req entity.UserUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := a.userService.UpdateUser(c.Request.Context(), id, req)
	if err != nil {
		a.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (a *UserController) delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		a.handleError(c, service.ErrNotFound)
		return
	}
	if err := a.userService.DeleteUser(c.Request.Context(), id); err != nil {
		a.handleError(c, err)
		return
	}
	logger.Infof("user %d deleted by %s", id, session.GetLoginUser(c).Username)
	pureJsonMsg(c, http.StatusOK, true, I18nWeb(c, "user.deleted"))
}
