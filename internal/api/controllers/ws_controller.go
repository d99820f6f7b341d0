package controllers

import (
	"net/http"
	"strings"

	"github.com/digital-egiz/sensorhub/internal/services"
	"github.com/digital-egiz/sensorhub/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are governed by the CORS configuration of the router
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketController upgrades connections to the notification stream
type WebSocketController struct {
	notificationService *services.NotificationService
	logger              *utils.Logger
}

// NewWebSocketController creates a new websocket controller
func NewWebSocketController(notificationService *services.NotificationService, logger *utils.Logger) *WebSocketController {
	return &WebSocketController{
		notificationService: notificationService,
		logger:              logger.Named("ws_controller"),
	}
}

// RegisterRoutes registers the websocket route
func (c *WebSocketController) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ws", c.Connect)
}

// Connect upgrades the request. ?topics=device,alerts limits the initial
// subscription; by default every topic is subscribed.
func (c *WebSocketController) Connect(ctx *gin.Context) {
	topics, err := parseTopics(ctx.Query("topics"))
	if err != nil {
		utils.HandleError(ctx, err, c.logger)
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	c.notificationService.RegisterClient(conn, ctx.ClientIP(), topics)
}

func parseTopics(raw string) ([]string, error) {
	if raw == "" {
		return services.AllTopics, nil
	}

	var topics []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		switch t {
		case services.TopicDevice, services.TopicHub, services.TopicAlerts:
			topics = append(topics, t)
		case "":
		default:
			return nil, utils.NewErrorWithCode(utils.ErrBadRequest, "unknown_topic")
		}
	}
	return topics, nil
}
