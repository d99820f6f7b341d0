package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/digital-egiz/sensorhub/internal/api/middleware"
	"github.com/digital-egiz/sensorhub/internal/export"
	"github.com/digital-egiz/sensorhub/internal/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ExportRequest defines the request body of an export. Since defaults to
// one day ago.
type ExportRequest struct {
	DeviceID string    `json:"device_id"`
	Since    time.Time `json:"since"`
}

// ExportController triggers Parquet exports to object storage
type ExportController struct {
	exportService *export.Service
	logger        *utils.Logger
}

// NewExportController creates a new export controller. exportService is nil
// when export is disabled.
func NewExportController(exportService *export.Service, logger *utils.Logger) *ExportController {
	return &ExportController{
		exportService: exportService,
		logger:        logger.Named("export_controller"),
	}
}

// RegisterRoutes registers the export routes
func (c *ExportController) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/exports", c.CreateExport)
}

// CreateExport exports stored samples and returns the uploaded object
func (c *ExportController) CreateExport(ctx *gin.Context) {
	if c.exportService == nil {
		utils.HandleError(ctx, fmt.Errorf("%w: export is disabled", utils.ErrServiceUnavailable), c.logger)
		return
	}

	var req ExportRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			utils.HandleValidationErrors(ctx, err)
			return
		}
	}
	if req.Since.IsZero() {
		req.Since = time.Now().UTC().Add(-defaultWindow)
	}

	result, err := c.exportService.Export(ctx.Request.Context(), req.DeviceID, req.Since)
	if err != nil {
		if errors.Is(err, export.ErrNoData) {
			err = fmt.Errorf("%w: %v", utils.ErrNotFound, err)
		}
		utils.HandleError(ctx, err, c.logger)
		return
	}

	c.logger.Info("Export created",
		zap.String("operator", middleware.CurrentOperator(ctx)),
		zap.String("object", result.Object),
		zap.Int("rows", result.Rows))
	ctx.JSON(http.StatusCreated, result)
}
