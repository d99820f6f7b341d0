package api

import (
	"context"
	"net/http"
	"time"

	"github.com/digital-egiz/sensorhub/internal/api/controllers"
	"github.com/digital-egiz/sensorhub/internal/api/middleware"
	"github.com/digital-egiz/sensorhub/internal/config"
	"github.com/digital-egiz/sensorhub/internal/db"
	"github.com/digital-egiz/sensorhub/internal/services"
	"github.com/digital-egiz/sensorhub/internal/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Router manages the API routes and controllers
type Router struct {
	engine             *gin.Engine
	logger             *utils.Logger
	config             *config.Config
	authMiddleware     *middleware.AuthMiddleware
	serviceProvider    *services.ServiceProvider
	db                 *db.Database
	apiV1              *gin.RouterGroup
	snapshotController *controllers.SnapshotController
	liveController     *controllers.LiveController
	wsController       *controllers.WebSocketController
	historyController  *controllers.HistoryController
	exportController   *controllers.ExportController
}

// NewRouter creates a new Router instance
func NewRouter(
	config *config.Config,
	logger *utils.Logger,
	db *db.Database,
	serviceProvider *services.ServiceProvider,
) *Router {
	// Set Gin mode based on environment
	if config.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Use the logger and recovery middleware
	engine.Use(gin.Recovery())
	engine.Use(middleware.LoggingMiddleware(logger))

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Authorization", "Content-Type", "Origin"}
	engine.Use(cors.New(corsConfig))

	// Create JWT auth middleware
	authMiddleware := middleware.NewAuthMiddleware(&config.JWT)

	return &Router{
		engine:          engine,
		logger:          logger.Named("router"),
		config:          config,
		authMiddleware:  authMiddleware,
		serviceProvider: serviceProvider,
		db:              db,
	}
}

// SetupRoutes configures all API routes
func (r *Router) SetupRoutes() {
	// Health check endpoint (no auth required)
	r.engine.GET("/health", r.health)

	// API version group - all main API routes are under /api/v1
	r.apiV1 = r.engine.Group("/api/v1")

	// Setup controllers
	r.snapshotController = controllers.NewSnapshotController(services.Thresholds(&r.config.Thresholds), r.logger)
	r.liveController = controllers.NewLiveController(r.serviceProvider.GetLiveService(), r.logger)
	r.wsController = controllers.NewWebSocketController(r.serviceProvider.GetNotificationService(), r.logger)
	r.historyController = controllers.NewHistoryController(r.serviceProvider.GetHistoryService(), r.logger)
	r.exportController = controllers.NewExportController(r.serviceProvider.GetExportService(), r.logger)

	// Read-only routes
	r.snapshotController.RegisterRoutes(r.apiV1.Group("/snapshot"))
	r.liveController.RegisterRoutes(r.apiV1.Group("/live"))
	r.wsController.RegisterRoutes(r.apiV1)
	r.historyController.RegisterRoutes(r.apiV1.Group("/history"))

	// Routes that require an operator token
	operatorRoutes := r.apiV1.Group("")
	operatorRoutes.Use(r.authMiddleware.RequireAuth(), r.authMiddleware.RequireOperator())

	r.liveController.RegisterControlRoutes(operatorRoutes.Group("/live"))
	r.historyController.RegisterControlRoutes(operatorRoutes.Group("/history"))
	r.exportController.RegisterRoutes(operatorRoutes)

	r.logger.Info("API routes setup completed")
}

// health reports the simulator state and database reachability
func (r *Router) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{
		"status":    "healthy",
		"simulator": r.serviceProvider.GetLiveService().Stats(),
	}

	if r.db != nil {
		if err := r.db.Ping(ctx); err != nil {
			r.logger.Warn("Database health check failed", zap.Error(err))
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["database"] = "unreachable"
		} else {
			body["database"] = "ok"
		}
	}

	c.JSON(status, body)
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
