package controllers

import (
	"net/http"

	"github.com/digital-egiz/sensorhub/internal/api/middleware"
	"github.com/digital-egiz/sensorhub/internal/services"
	"github.com/digital-egiz/sensorhub/internal/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FramesRequest defines the query parameters for recent frames
type FramesRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// LiveController exposes the running simulator
type LiveController struct {
	liveService *services.LiveService
	logger      *utils.Logger
}

// NewLiveController creates a new live controller
func NewLiveController(liveService *services.LiveService, logger *utils.Logger) *LiveController {
	return &LiveController{
		liveService: liveService,
		logger:      logger.Named("live_controller"),
	}
}

// RegisterRoutes registers the read-only live routes
func (c *LiveController) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("", c.GetCurrent)
	router.GET("/frames", c.GetFrames)
	router.GET("/stats", c.GetStats)
}

// RegisterControlRoutes registers the routes that change simulator state
func (c *LiveController) RegisterControlRoutes(router *gin.RouterGroup) {
	router.POST("/start", c.Start)
	router.POST("/stop", c.Stop)
	router.POST("/refresh", c.Refresh)
}

// GetCurrent returns the current frame
func (c *LiveController) GetCurrent(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.liveService.Current(ctx.Request.Context()))
}

// GetFrames returns recent frames, newest first
func (c *LiveController) GetFrames(ctx *gin.Context) {
	var req FramesRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		utils.HandleValidationErrors(ctx, err)
		return
	}

	frames, err := c.liveService.Frames(ctx.Request.Context(), req.Limit)
	if err != nil {
		utils.HandleError(ctx, err, c.logger)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data": frames,
		"meta": gin.H{
			"limit": req.Limit,
			"count": len(frames),
		},
	})
}

// GetStats returns simulator counters
func (c *LiveController) GetStats(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.liveService.Stats())
}

// Start starts the tick loop
func (c *LiveController) Start(ctx *gin.Context) {
	if err := c.liveService.Start(); err != nil {
		utils.HandleError(ctx, err, c.logger)
		return
	}

	c.logger.Info("Simulator started", zap.String("operator", middleware.CurrentOperator(ctx)))
	ctx.JSON(http.StatusOK, gin.H{"message": "Simulator started"})
}

// Stop stops the tick loop
func (c *LiveController) Stop(ctx *gin.Context) {
	if err := c.liveService.Stop(); err != nil {
		utils.HandleError(ctx, err, c.logger)
		return
	}

	c.logger.Info("Simulator stopped", zap.String("operator", middleware.CurrentOperator(ctx)))
	ctx.JSON(http.StatusOK, gin.H{"message": "Simulator stopped"})
}

// Refresh regenerates both snapshots and returns the new frame
func (c *LiveController) Refresh(ctx *gin.Context) {
	frame := c.liveService.Refresh(ctx.Request.Context())

	c.logger.Info("Snapshots refreshed",
		zap.String("operator", middleware.CurrentOperator(ctx)),
		zap.Uint64("sequence", frame.Sequence))
	ctx.JSON(http.StatusOK, frame)
}
