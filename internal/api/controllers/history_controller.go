package controllers

import (
	"net/http"
	"time"

	"github.com/digital-egiz/sensorhub/internal/api/middleware"
	"github.com/digital-egiz/sensorhub/internal/db/repository"
	"github.com/digital-egiz/sensorhub/internal/services"
	"github.com/digital-egiz/sensorhub/internal/utils"
	"github.com/gin-gonic/gin"
)

const (
	defaultWindow = 24 * time.Hour
	defaultLimit  = 100
	maxLimit      = 1000
)

// SnapshotsRequest defines the query parameters for stored snapshots
type SnapshotsRequest struct {
	Kind string `form:"kind" binding:"omitempty,oneof=device hub"`
}

// SeriesRequest defines the query parameters for time-series data
type SeriesRequest struct {
	Start    time.Time `form:"start" time_format:"2006-01-02T15:04:05Z07:00"`
	End      time.Time `form:"end" time_format:"2006-01-02T15:04:05Z07:00"`
	DeviceID string    `form:"device"`
	Metric   string    `form:"metric" binding:"required"`
	Limit    int       `form:"limit"`
}

// AggregatedRequest defines the query parameters for aggregated data
type AggregatedRequest struct {
	Start    time.Time `form:"start" time_format:"2006-01-02T15:04:05Z07:00"`
	End      time.Time `form:"end" time_format:"2006-01-02T15:04:05Z07:00"`
	DeviceID string    `form:"device"`
	Metric   string    `form:"metric" binding:"required"`
	Interval string    `form:"interval" binding:"required"`
}

// AlertsRequest defines the query parameters for alert data
type AlertsRequest struct {
	Start        time.Time `form:"start" time_format:"2006-01-02T15:04:05Z07:00"`
	End          time.Time `form:"end" time_format:"2006-01-02T15:04:05Z07:00"`
	DeviceID     string    `form:"device"`
	Source       string    `form:"source" binding:"omitempty,oneof=device hub"`
	Kind         string    `form:"kind"`
	Severity     string    `form:"severity"`
	Acknowledged *bool     `form:"acknowledged"`
	Limit        int       `form:"limit"`
}

// AcknowledgeAlertRequest defines the request body for acknowledging an alert
type AcknowledgeAlertRequest struct {
	AlertID string `json:"alert_id" binding:"required"`
}

// HistoryController handles history data requests
type HistoryController struct {
	historyService *services.HistoryService
	logger         *utils.Logger
}

// NewHistoryController creates a new history controller
func NewHistoryController(historyService *services.HistoryService, logger *utils.Logger) *HistoryController {
	return &HistoryController{
		historyService: historyService,
		logger:         logger.Named("history_controller"),
	}
}

// RegisterRoutes registers the read-only history routes
func (c *HistoryController) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/snapshots", c.ListSnapshots)
	router.GET("/snapshots/:id", c.GetSnapshot)
	router.GET("/series", c.GetSeries)
	router.GET("/aggregated", c.GetAggregated)
	router.GET("/metrics", c.ListMetrics)
	router.GET("/alerts", c.GetAlerts)
}

// RegisterControlRoutes registers the history routes that change state
func (c *HistoryController) RegisterControlRoutes(router *gin.RouterGroup) {
	router.POST("/alerts/acknowledge", c.AcknowledgeAlert)
}

// ListSnapshots returns stored snapshot records, newest first
func (c *HistoryController) ListSnapshots(ctx *gin.Context) {
	var req SnapshotsRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		utils.HandleValidationErrors(ctx, err)
		return
	}

	pagination := utils.GetPaginationFromContext(ctx)
	records, total, err := c.historyService.ListSnapshots(req.Kind, pagination)
	if err != nil {
		utils.HandleError(ctx, err, c.logger)
		return
	}

	ctx.JSON(http.StatusOK, utils.NewPaginatedResponse(records, pagination, int(total)))
}

// GetSnapshot returns one stored snapshot record
func (c *HistoryController) GetSnapshot(ctx *gin.Context) {
	record, err := c.historyService.GetSnapshot(ctx.Param("id"))
	if err != nil {
		utils.HandleError(ctx, err, c.logger)
		return
	}

	ctx.JSON(http.StatusOK, record)
}

// GetSeries returns stored samples of one metric
func (c *HistoryController) GetSeries(ctx *gin.Context) {
	var req SeriesRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		utils.HandleValidationErrors(ctx, err)
		return
	}

	req.Start, req.End = window(req.Start, req.End)
	if req.Limit <= 0 || req.Limit > maxLimit {
		req.Limit = defaultLimit
	}

	data, err := c.historyService.GetSeries(req.DeviceID, req.Metric, req.Start, req.End, req.Limit)
	if err != nil {
		utils.HandleError(ctx, err, c.logger)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data": data,
		"meta": gin.H{
			"device_id": req.DeviceID,
			"metric":    req.Metric,
			"start":     req.Start,
			"end":       req.End,
			"count":     len(data),
		},
	})
}

// GetAggregated returns stored samples of one metric folded into buckets
func (c *HistoryController) GetAggregated(ctx *gin.Context) {
	var req AggregatedRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		utils.HandleValidationErrors(ctx, err)
		return
	}

	req.Start, req.End = window(req.Start, req.End)

	data, err := c.historyService.GetAggregated(req.DeviceID, req.Metric, req.Start, req.End, req.Interval)
	if err != nil {
		utils.HandleError(ctx, err, c.logger)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data": data,
		"meta": gin.H{
			"device_id": req.DeviceID,
			"metric":    req.Metric,
			"start":     req.Start,
			"end":       req.End,
			"interval":  req.Interval,
			"count":     len(data),
		},
	})
}

// ListMetrics returns the stored metric names
func (c *HistoryController) ListMetrics(ctx *gin.Context) {
	deviceID := ctx.Query("device")

	metrics, err := c.historyService.ListMetrics(deviceID)
	if err != nil {
		utils.HandleError(ctx, err, c.logger)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data": metrics,
		"meta": gin.H{
			"device_id": deviceID,
			"count":     len(metrics),
		},
	})
}

// GetAlerts returns stored alerts
func (c *HistoryController) GetAlerts(ctx *gin.Context) {
	var req AlertsRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		utils.HandleValidationErrors(ctx, err)
		return
	}

	req.Start, req.End = window(req.Start, req.End)
	if req.Limit <= 0 || req.Limit > maxLimit {
		req.Limit = defaultLimit
	}

	data, err := c.historyService.GetAlerts(repository.AlertFilter{
		DeviceID:     req.DeviceID,
		Source:       req.Source,
		Severity:     req.Severity,
		Kind:         req.Kind,
		Start:        req.Start,
		End:          req.End,
		Acknowledged: req.Acknowledged,
		Limit:        req.Limit,
	})
	if err != nil {
		utils.HandleError(ctx, err, c.logger)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data": data,
		"meta": gin.H{
			"start":    req.Start,
			"end":      req.End,
			"severity": req.Severity,
			"count":    len(data),
		},
	})
}

// AcknowledgeAlert acknowledges an alert on behalf of the calling operator
func (c *HistoryController) AcknowledgeAlert(ctx *gin.Context) {
	var req AcknowledgeAlertRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.HandleValidationErrors(ctx, err)
		return
	}

	alert, err := c.historyService.AcknowledgeAlert(req.AlertID, middleware.CurrentOperator(ctx))
	if err != nil {
		utils.HandleError(ctx, err, c.logger)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Alert acknowledged",
		"data":    alert,
	})
}

// window fills an open query range: end defaults to now and start to one
// day before end
func window(start, end time.Time) (time.Time, time.Time) {
	if end.IsZero() {
		end = time.Now().UTC()
	}
	if start.IsZero() {
		start = end.Add(-defaultWindow)
	}
	return start, end
}
