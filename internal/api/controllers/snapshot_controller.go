package controllers

import (
	"net/http"

	"github.com/digital-egiz/sensorhub/internal/telemetry"
	"github.com/digital-egiz/sensorhub/internal/utils"
	"github.com/gin-gonic/gin"
)

// SnapshotRequest defines the query parameters of the snapshot routes
type SnapshotRequest struct {
	Seed *int64 `form:"seed"`
}

// SnapshotController serves freshly generated snapshots
type SnapshotController struct {
	thresholds telemetry.Thresholds
	generator  *telemetry.Generator
	logger     *utils.Logger
}

// NewSnapshotController creates a new snapshot controller. Unseeded requests
// share one clock-seeded generator.
func NewSnapshotController(thresholds telemetry.Thresholds, logger *utils.Logger) *SnapshotController {
	return &SnapshotController{
		thresholds: thresholds,
		generator:  telemetry.New(telemetry.WithThresholds(thresholds)),
		logger:     logger.Named("snapshot_controller"),
	}
}

// RegisterRoutes registers the snapshot routes
func (c *SnapshotController) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("", c.GetSnapshot)
	router.GET("/hub", c.GetHubSnapshot)
	router.GET("/alerts", c.GetAlerts)
}

// GetSnapshot returns a freshly generated device snapshot
func (c *SnapshotController) GetSnapshot(ctx *gin.Context) {
	gen, ok := c.generatorFor(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, gen.Generate())
}

// GetHubSnapshot returns a freshly generated hub snapshot
func (c *SnapshotController) GetHubSnapshot(ctx *gin.Context) {
	gen, ok := c.generatorFor(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, gen.GenerateHub())
}

// GetAlerts returns the alert list of a freshly generated device snapshot
func (c *SnapshotController) GetAlerts(ctx *gin.Context) {
	gen, ok := c.generatorFor(ctx)
	if !ok {
		return
	}

	snapshot := gen.Generate()
	ctx.JSON(http.StatusOK, gin.H{
		"data": snapshot.Alerts,
		"meta": gin.H{
			"device_id":    snapshot.DeviceID,
			"generated_at": snapshot.GeneratedAt,
			"count":        len(snapshot.Alerts),
		},
	})
}

// generatorFor returns a generator seeded from the request, or the shared one
func (c *SnapshotController) generatorFor(ctx *gin.Context) (*telemetry.Generator, bool) {
	var req SnapshotRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "seed must be an integer"})
		return nil, false
	}

	if req.Seed == nil {
		return c.generator, true
	}
	return telemetry.New(telemetry.WithSeed(*req.Seed), telemetry.WithThresholds(c.thresholds)), true
}
