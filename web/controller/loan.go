package controller

import (
	"net/http"

	"github.com/prestamos-sa/prestamos/logger"
	"github.com/prestamos-sa/prestamos/web/entity"
	"github.com/prestamos-sa/prestamos/web/service"
	"github.com/prestamos-sa/prestamos/web/session"

	"github.com/gin-gonic/gin"
)

type LoanController struct {
	BaseController

	createErrors BaseController
	loanService  *service.LoanService
}

func NewLoanController(protected *gin.RouterGroup, loanService *service.LoanService) *LoanController {
	a := &LoanController{
		BaseController: BaseController{notFoundKey: "loan.notFound"},
		createErrors:   BaseController{notFoundKey: "request.notFound"},
		loanService:    loanService,
	}
	a.initRouter(protected)
	return a
}

func (a *LoanController) initRouter(protected *gin.RouterGroup) {
	g := protected.Group("/loans")
	g.GET("", a.list)
	g.POST("", a.create)
	g.GET("/:id", a.get)
	g.PUT("/:id", a.update)
	g.DELETE("/:id", a.delete)
	g.POST("/:id/return", a.giveBack)
}

func (a *LoanController) list(c *gin.Context) {
	var filter entity.LoanFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, err)
		return
	}
	loans, err := a.loanService.ListLoans(c.Request.Context(), filter)
	if err != nil {
		a.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, loans)
}

func (a *LoanController) get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		a.handleError(c, service.ErrNotFound)
		return
	}
	loan, err := a.loanService.GetLoan(c.Request.Context(), id)
	if err != nil {
		a.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, loan)
}

// create answers 404 when the referenced user or material does not exist.
func (a *LoanController) create(c *gin.Context) {
	var req entity.LoanCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	loan, err := a.loanService.CreateLoan(c.Request.Context(), req)
	if err != nil {
		a.createErrors.handleError(c, err)
		return
	}
	logger.Infof("loan %d: material %d lent to user %d by %s",
		loan.Id, loan.MaterialId, loan.UserId, session.GetLoginUser(c).Username)
	c.JSON(http.StatusOK, loan)
}

func (a *LoanController) update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		a.handleError(c, service.ErrNotFound)
		return
	}
	var req entity.LoanUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	loan, err := a.loanService.UpdateLoan(c.Request.Context(), id, req)
	if err != nil {
		a.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, loan)
}

func (a *LoanController) giveBack(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		a.handleError(c, service.ErrNotFound)
		return
	}
	loan, err := a.loanService.ReturnLoan(c.Request.Context(), id)
	if err != nil {
		a.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, loan)
}

func (a *LoanController) delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		a.handleError(c, service.ErrNotFound)
		return
	}
	if err := a.loanService.DeleteLoan(c.Request.Context(), id); err != nil {
		a.handleError(c, err)
		return
	}
	pureJsonMsg(c, http.StatusOK, true, I18nWeb(c, "loan.deleted"))
}
