package controllers

import (
	"errors"
	"net/http"

	"woolreport/internal/report"
	"woolreport/internal/services"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
	Issues  []report.Issue `json:"issues,omitempty"`
}

func respondOK(ctx *gin.Context, status int, data any) {
	ctx.JSON(status, Response{Success: true, Data: data})
}

func respondError(ctx *gin.Context, status int, message string) {
	ctx.AbortWithStatusJSON(status, Response{Success: false, Error: message})
}

// respondFailure maps a service error to a status. Errors without a known
// mapping answer 500 with fallback followed by the underlying error text.
func respondFailure(ctx *gin.Context, err error, fallback string) {
	var validation *report.ValidationError
	if errors.As(err, &validation) {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, Response{Success: false, Error: validation.Error(), Issues: validation.Issues})
		return
	}

	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		_ = ctx.Error(err)
		respondError(ctx, status, fallback+": "+err.Error())
		return
	}
	respondError(ctx, status, err.Error())
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrReportNotFound), errors.Is(err, services.ErrUnknownKind):
		return http.StatusNotFound
	case errors.Is(err, services.ErrNotSaved), errors.Is(err, services.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, services.ErrEmptyName), errors.Is(err, services.ErrUnsupportedFile):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
