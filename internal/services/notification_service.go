package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/digital-egiz/sensorhub/internal/simulator"
	"github.com/digital-egiz/sensorhub/internal/utils"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Notification topics a client can subscribe to
const (
	TopicDevice = "device"
	TopicHub    = "hub"
	TopicAlerts = "alerts"
)

// AllTopics is the default subscription of a new client
var AllTopics = []string{TopicDevice, TopicHub, TopicAlerts}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Client represents a websocket client connection
type Client struct {
	conn     *websocket.Conn
	operator string
	send     chan []byte

	mu     sync.RWMutex
	topics map[string]bool
}

func (c *Client) subscribed(topic string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topics[topic]
}

func (c *Client) setTopic(topic string, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if on {
		c.topics[topic] = true
	} else {
		delete(c.topics, topic)
	}
}

// NotificationType defines types of notification messages
type NotificationType string

const (
	// NotificationTypeDevice carries a device snapshot
	NotificationTypeDevice NotificationType = "device_snapshot"
	// NotificationTypeHub carries a hub snapshot
	NotificationTypeHub NotificationType = "hub_snapshot"
	// NotificationTypeAlert carries the alert lists of a frame
	NotificationTypeAlert NotificationType = "alert"
)

// NotificationMessage represents a message sent to clients
type NotificationMessage struct {
	Type      NotificationType `json:"type"`
	Sequence  uint64           `json:"sequence"`
	Timestamp time.Time        `json:"timestamp"`
	Topic     string           `json:"topic"`
	Payload   interface{}      `json:"payload"`
}

// NotificationService fans simulator frames out to websocket clients. The
// client set is owned by the run loop.
type NotificationService struct {
	logger     *utils.Logger
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *NotificationMessage
	count      chan chan int
	done       chan struct{}
	closeOnce  sync.Once
}

var _ simulator.Sink = (*NotificationService)(nil)

// NewNotificationService creates a new notification service
func NewNotificationService(logger *utils.Logger) *NotificationService {
	service := &NotificationService{
		logger:     logger.Named("notification_service"),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *NotificationMessage, 64),
		count:      make(chan chan int),
		done:       make(chan struct{}),
	}

	go service.run()
	return service
}

// RegisterClient adds a websocket client subscribed to topics
func (s *NotificationService) RegisterClient(conn *websocket.Conn, operator string, topics []string) *Client {
	client := &Client{
		conn:     conn,
		operator: operator,
		send:     make(chan []byte, sendBuffer),
		topics:   make(map[string]bool),
	}
	for _, t := range topics {
		client.topics[t] = true
	}

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return client
	}

	go s.readPump(client)
	go s.writePump(client)

	return client
}

// ClientCount returns the number of connected clients
func (s *NotificationService) ClientCount() int {
	reply := make(chan int, 1)
	select {
	case s.count <- reply:
		return <-reply
	case <-s.done:
		return 0
	}
}

// Name implements simulator.Sink
func (s *NotificationService) Name() string {
	return "websocket"
}

// Publish implements simulator.Sink
func (s *NotificationService) Publish(ctx context.Context, frame *simulator.Frame) error {
	messages := []*NotificationMessage{
		{Type: NotificationTypeDevice, Topic: TopicDevice, Payload: frame.Device},
		{Type: NotificationTypeHub, Topic: TopicHub, Payload: frame.Hub},
	}

	alerts := map[string]interface{}{}
	if frame.Device != nil {
		alerts["device"] = frame.Device.Alerts
	}
	if frame.Hub != nil {
		alerts["hub"] = frame.Hub.Alerts.Active
	}
	messages = append(messages, &NotificationMessage{Type: NotificationTypeAlert, Topic: TopicAlerts, Payload: alerts})

	for _, m := range messages {
		m.Sequence = frame.Sequence
		m.Timestamp = frame.At
		select {
		case s.broadcast <- m:
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		}
	}
	return nil
}

// Close disconnects every client and stops the run loop
func (s *NotificationService) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// run processes messages in the main loop
func (s *NotificationService) run() {
	for {
		select {
		case client := <-s.register:
			s.clients[client] = true
			s.logger.Debug("Client registered", zap.String("operator", client.operator))

		case client := <-s.unregister:
			s.drop(client)
			s.logger.Debug("Client unregistered", zap.String("operator", client.operator))

		case message := <-s.broadcast:
			s.dispatch(message)

		case reply := <-s.count:
			reply <- len(s.clients)

		case <-s.done:
			for client := range s.clients {
				s.drop(client)
			}
			return
		}
	}
}

func (s *NotificationService) drop(client *Client) {
	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		close(client.send)
	}
}

// dispatch sends a message to every client subscribed to its topic
func (s *NotificationService) dispatch(message *NotificationMessage) {
	jsonMessage, err := json.Marshal(message)
	if err != nil {
		s.logger.Error("Failed to marshal notification message",
			zap.Error(err),
			zap.String("type", string(message.Type)),
			zap.String("topic", message.Topic))
		return
	}

	for client := range s.clients {
		if !client.subscribed(message.Topic) {
			continue
		}
		select {
		case client.send <- jsonMessage:
		default:
			s.drop(client)
			s.logger.Warn("Client buffer full, connection closed", zap.String("operator", client.operator))
		}
	}
}

// readPump handles subscribe and unsubscribe requests from the client
func (s *NotificationService) readPump(client *Client) {
	defer func() {
		select {
		case s.unregister <- client:
		case <-s.done:
		}
		client.conn.Close()
	}()

	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Warn("Unexpected websocket close", zap.Error(err), zap.String("operator", client.operator))
			}
			return
		}

		var clientMsg struct {
			Action string `json:"action"`
			Topic  string `json:"topic"`
		}
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			s.logger.Warn("Invalid client message", zap.Error(err), zap.ByteString("message", message))
			continue
		}

		switch clientMsg.Action {
		case "subscribe":
			if clientMsg.Topic != "" {
				client.setTopic(clientMsg.Topic, true)
			}
		case "unsubscribe":
			if clientMsg.Topic != "" {
				client.setTopic(clientMsg.Topic, false)
			}
		}
	}
}

// writePump writes messages to the client, one frame per message
func (s *NotificationService) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
