package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"woolreport/internal/report"
	"woolreport/internal/services"

	"github.com/gin-gonic/gin"
)

type ReportManager interface {
	SaveDraft(ctx context.Context, r report.Report) (services.SaveResult, error)
	Load(ctx context.Context, id string) (report.Report, error)
	List(ctx context.Context, filter services.ListFilter) ([]services.ReportSummary, error)
	Publish(ctx context.Context, id string) (report.Report, error)
	Archive(ctx context.Context, id string) (report.Report, error)
	Recalculate(ctx context.Context, r report.Report, edit *services.BrokerEdit) (report.Report, error)
}

type ReportDeleter interface {
	Preview(ctx context.Context, id string) (services.DeletionPreview, error)
	Delete(ctx context.Context, id string) (services.DeletionPreview, error)
}

type ReportsController struct {
	reports ReportManager
	deleter ReportDeleter
}

type RecalculateRequest struct {
	Report report.Report         `json:"report"`
	Edit   *services.BrokerEdit `json:"edit,omitempty"`
}

func NewReportsController(reports ReportManager, deleter ReportDeleter) (*ReportsController, error) {
	if reports == nil {
		return nil, errors.New("report service is nil")
	}
	if deleter == nil {
		return nil, errors.New("deletion service is nil")
	}

	return &ReportsController{reports: reports, deleter: deleter}, nil
}

func (c *ReportsController) RegisterRoutes(router *gin.Engine) error {
	if c == nil {
		return errors.New("reports controller is nil")
	}
	if router == nil {
		return errors.New("router is nil")
	}

	router.GET("/reports", c.listReports)
	router.GET("/reports/:id", c.getReport)
	router.POST("/reports", RequireRole(ActionSave), c.saveReport)
	router.PUT("/reports/:id", RequireRole(ActionSave), c.updateReport)
	router.POST("/reports/recalculate", c.recalculate)
	router.POST("/reports/:id/publish", RequireRole(ActionPublish), c.publishReport)
	router.POST("/reports/:id/archive", RequireRole(ActionArchive), c.archiveReport)
	router.GET("/reports/:id/deletion-preview", c.previewDeletion)
	router.DELETE("/reports/:id", RequireRole(ActionDelete), c.deleteReport)
	return nil
}

func (c *ReportsController) listReports(ctx *gin.Context) {
	filter := services.ListFilter{
		Status:   ctx.Query("status"),
		SeasonID: ctx.Query("season_id"),
	}
	if value := ctx.Query("limit"); value != "" {
		limit, err := strconv.Atoi(value)
		if err != nil || limit <= 0 {
			respondError(ctx, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}

	summaries, err := c.reports.List(ctx.Request.Context(), filter)
	if err != nil {
		respondFailure(ctx, err, "failed to list reports")
		return
	}

	respondOK(ctx, http.StatusOK, summaries)
}

func (c *ReportsController) getReport(ctx *gin.Context) {
	r, err := c.reports.Load(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondFailure(ctx, err, "failed to load report")
		return
	}

	respondOK(ctx, http.StatusOK, r)
}

func (c *ReportsController) saveReport(ctx *gin.Context) {
	var r report.Report
	if err := ctx.ShouldBindJSON(&r); err != nil {
		respondError(ctx, http.StatusBadRequest, "invalid report body")
		return
	}

	c.save(ctx, r)
}

func (c *ReportsController) updateReport(ctx *gin.Context) {
	var r report.Report
	if err := ctx.ShouldBindJSON(&r); err != nil {
		respondError(ctx, http.StatusBadRequest, "invalid report body")
		return
	}

	id := ctx.Param("id")
	if r.Auction.ID != "" && r.Auction.ID != id {
		respondError(ctx, http.StatusBadRequest, "report id does not match path")
		return
	}
	r.Auction.ID = id

	c.save(ctx, r)
}

func (c *ReportsController) save(ctx *gin.Context, r report.Report) {
	result, err := c.reports.SaveDraft(ctx.Request.Context(), r)
	if err != nil {
		respondFailure(ctx, err, "failed to save report")
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	respondOK(ctx, status, result)
}

func (c *ReportsController) recalculate(ctx *gin.Context) {
	var req RecalculateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, http.StatusBadRequest, "invalid recalculate body")
		return
	}

	r, err := c.reports.Recalculate(ctx.Request.Context(), req.Report, req.Edit)
	if err != nil {
		respondFailure(ctx, err, "failed to recalculate report")
		return
	}

	respondOK(ctx, http.StatusOK, r)
}

func (c *ReportsController) publishReport(ctx *gin.Context) {
	r, err := c.reports.Publish(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondFailure(ctx, err, "failed to publish report")
		return
	}

	respondOK(ctx, http.StatusOK, r)
}

func (c *ReportsController) archiveReport(ctx *gin.Context) {
	r, err := c.reports.Archive(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondFailure(ctx, err, "failed to archive report")
		return
	}

	respondOK(ctx, http.StatusOK, r)
}

func (c *ReportsController) previewDeletion(ctx *gin.Context) {
	preview, err := c.deleter.Preview(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondFailure(ctx, err, "failed to preview deletion")
		return
	}

	respondOK(ctx, http.StatusOK, preview)
}

func (c *ReportsController) deleteReport(ctx *gin.Context) {
	deleted, err := c.deleter.Delete(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		var cascade *services.CascadeError
		if errors.As(err, &cascade) {
			_ = ctx.Error(err)
			respondError(ctx, http.StatusInternalServerError, "report left intact: "+cascade.Error())
			return
		}
		respondFailure(ctx, err, "failed to delete report")
		return
	}

	respondOK(ctx, http.StatusOK, deleted)
}
