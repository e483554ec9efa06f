package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"woolreport/internal/report"

	"github.com/gin-gonic/gin"
)

const maxImportBytes = 10 << 20

type ProducerImporter interface {
	Import(ctx context.Context, filename string, data []byte) ([]report.ProvinceGroup, error)
}

type ImportsController struct {
	service ProducerImporter
}

func NewImportsController(service ProducerImporter) (*ImportsController, error) {
	if service == nil {
		return nil, errors.New("producer import service is nil")
	}

	return &ImportsController{service: service}, nil
}

func (c *ImportsController) RegisterRoutes(router *gin.Engine) error {
	if c == nil {
		return errors.New("imports controller is nil")
	}
	if router == nil {
		return errors.New("router is nil")
	}

	router.POST("/imports/producers", RequireRole(ActionImport), c.importProducers)
	return nil
}

func (c *ImportsController) importProducers(ctx *gin.Context) {
	header, err := ctx.FormFile("file")
	if err != nil {
		respondError(ctx, http.StatusBadRequest, "file is required")
		return
	}
	if header.Size > maxImportBytes {
		respondError(ctx, http.StatusRequestEntityTooLarge, "file is too large")
		return
	}

	data, err := readUpload(header)
	if err != nil {
		respondError(ctx, http.StatusBadRequest, "failed to read file")
		return
	}

	groups, err := c.service.Import(ctx.Request.Context(), header.Filename, data)
	if err != nil {
		if errorStatus(err) == http.StatusInternalServerError {
			// Anything else the parser rejects is a problem with the file.
			respondError(ctx, http.StatusBadRequest, err.Error())
			return
		}
		respondFailure(ctx, err, "failed to import producers")
		return
	}

	respondOK(ctx, http.StatusOK, groups)
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(file, maxImportBytes))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}
