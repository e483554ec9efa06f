package controllers

import (
	"context"
	"errors"
	"net/http"

	"woolreport/internal/report"

	"github.com/gin-gonic/gin"
)

type InsightWriter interface {
	Compose(ctx context.Context, text string, summary report.MarketSummary) (string, error)
}

type InsightsController struct {
	composer InsightWriter
}

type ComposeRequest struct {
	Text   string        `json:"text"`
	Report report.Report `json:"report"`
}

type ComposeResponse struct {
	Insight string               `json:"insight"`
	Summary report.MarketSummary `json:"summary"`
}

func NewInsightsController(composer InsightWriter) (*InsightsController, error) {
	if composer == nil {
		return nil, errors.New("insight composer is nil")
	}

	return &InsightsController{composer: composer}, nil
}

func (c *InsightsController) RegisterRoutes(router *gin.Engine) error {
	if c == nil {
		return errors.New("insights controller is nil")
	}
	if router == nil {
		return errors.New("router is nil")
	}

	router.POST("/insights/compose", RequireRole(ActionCompose), c.compose)
	return nil
}

func (c *InsightsController) compose(ctx *gin.Context) {
	var req ComposeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, http.StatusBadRequest, "invalid compose body")
		return
	}

	summary := report.Summarize(req.Report)
	insight, err := c.composer.Compose(ctx.Request.Context(), req.Text, summary)
	if err != nil {
		_ = ctx.Error(err)
		respondError(ctx, http.StatusBadGateway, "failed to compose insight: "+err.Error())
		return
	}

	respondOK(ctx, http.StatusOK, ComposeResponse{Insight: insight, Summary: summary})
}
