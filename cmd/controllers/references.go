package controllers

import (
	"context"
	"errors"
	"net/http"

	"woolreport/internal/report"

	"github.com/gin-gonic/gin"
)

type ReferenceCatalog interface {
	List(ctx context.Context, kind string) ([]report.Reference, error)
	Create(ctx context.Context, kind string, name string) (report.Reference, error)
}

type ReferencesController struct {
	service ReferenceCatalog
}

type CreateReferenceRequest struct {
	Name string `json:"name"`
}

func NewReferencesController(service ReferenceCatalog) (*ReferencesController, error) {
	if service == nil {
		return nil, errors.New("reference service is nil")
	}

	return &ReferencesController{service: service}, nil
}

func (c *ReferencesController) RegisterRoutes(router *gin.Engine) error {
	if c == nil {
		return errors.New("references controller is nil")
	}
	if router == nil {
		return errors.New("router is nil")
	}

	router.GET("/references/:kind", c.listReferences)
	router.POST("/references/:kind", RequireRole(ActionCreateReference), c.createReference)
	return nil
}

func (c *ReferencesController) listReferences(ctx *gin.Context) {
	refs, err := c.service.List(ctx.Request.Context(), ctx.Param("kind"))
	if err != nil {
		respondFailure(ctx, err, "failed to load references")
		return
	}

	respondOK(ctx, http.StatusOK, refs)
}

func (c *ReferencesController) createReference(ctx *gin.Context) {
	var req CreateReferenceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, http.StatusBadRequest, "invalid reference body")
		return
	}

	ref, err := c.service.Create(ctx.Request.Context(), ctx.Param("kind"), req.Name)
	if err != nil {
		respondFailure(ctx, err, "failed to create reference")
		return
	}

	respondOK(ctx, http.StatusCreated, ref)
}
