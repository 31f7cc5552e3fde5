package controller

import (
	"net/http"

	"github.com/prestamos-sa/prestamos/web/entity"
	"github.com/prestamos-sa/prestamos/web/service"

	"github.com/gin-gonic/gin"
)

type MaterialController struct {
	BaseController

	materialService *service.MaterialService
}

func NewMaterialController(protected *gin.RouterGroup, materialService *service.MaterialService) *MaterialController {
	a := &MaterialController{
		BaseController:  BaseController{notFoundKey: "material.notFound"},
		materialService: materialService,
	}
	a.initRouter(protected)
	return a
}

func (a *MaterialController) initRouter(protected *gin.RouterGroup) {
	g := protected.Group("/materials")
	g.GET("", a.list)
	g.POST("", a.create)
	g.GET("/:id", a.get)
	g.PUT("/:id", a.update)
	g.DELETE("/:id", a.delete)
}

func (a *MaterialController) list(c *gin.Context) {
	var page entity.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		badRequest(c, err)
		return
	}
	materials, err := a.materialService.ListMaterials(c.Request.Context(), page)
	if err != nil {
		a.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, materials)
}

func (a *MaterialController) get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		a.handleError(c, service.ErrNotFound)
		return
	}
	material, err := a.materialService.GetMaterial(c.Request.Context(), id)
	if err != nil {
		a.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, material)
}

func (a *MaterialController) create(c *gin.Context) {
	var req entity.MaterialCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	material, err := a.materialService.CreateMaterial(c.Request.Context(), req)
	if err != nil {
		a.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, material)
}

func (a *MaterialController) update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		a.handleError(c, service.ErrNotFound)
		return
	}
	var req entity.MaterialUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	material, err := a.materialService.UpdateMaterial(c.Request.Context(), id, req)
	if err != nil {
		a.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, material)
}

func (a *MaterialController) delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		a.handleError(c, service.ErrNotFound)
		return
	}
	if err := a.materialService.DeleteMaterial(c.Request.Context(), id); err != nil {
		a.handleError(c, err)
		return
	}
	pureJsonMsg(c, http.StatusOK, true, I18nWeb(c, "material.deleted"))
}
