package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/fitpulse/insights/internal/events"
	"github.com/fitpulse/insights/internal/models"
	"github.com/fitpulse/insights/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Restrict to the admin dashboard origin in production
		return true
	},
}

// EventStream pushes recorded events to connected admin dashboards.
type EventStream struct {
	clients      map[*websocket.Conn]bool
	clientsMutex sync.RWMutex
	broadcast    chan streamMessage
	register     chan *websocket.Conn
	unregister   chan *websocket.Conn
	shutdownChan chan struct{}
}

type streamMessage struct {
	Type      string             `json:"type"`
	Timestamp time.Time          `json:"timestamp"`
	Event     models.SystemEvent `json:"event"`
}

func NewEventStream() *EventStream {
	return &EventStream{
		clients:      make(map[*websocket.Conn]bool),
		broadcast:    make(chan streamMessage, 256),
		register:     make(chan *websocket.Conn),
		unregister:   make(chan *websocket.Conn),
		shutdownChan: make(chan struct{}),
	}
}

// Attach subscribes the stream to every event on the bus.
func (s *EventStream) Attach(bus *events.Bus) {
	bus.SubscribeAll(func(event models.SystemEvent) {
		select {
		case s.broadcast <- streamMessage{Type: "event", Timestamp: time.Now(), Event: event}:
		default:
			// Feed is lossy under backpressure; the log remains complete.
		}
	})
}

// Run starts the stream manager (run in goroutine)
func (s *EventStream) Run() {
	for {
		select {
		case client := <-s.register:
			s.clientsMutex.Lock()
			s.clients[client] = true
			total := len(s.clients)
			s.clientsMutex.Unlock()

			logger.Info("EventStream: Client connected", map[string]interface{}{
				"total_clients": total,
			})

		case client := <-s.unregister:
			s.clientsMutex.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				client.Close()
			}
			total := len(s.clients)
			s.clientsMutex.Unlock()

			logger.Info("EventStream: Client disconnected", map[string]interface{}{
				"total_clients": total,
			})

		case msg := <-s.broadcast:
			s.clientsMutex.RLock()
			for client := range s.clients {
				if err := client.WriteJSON(msg); err != nil {
					go func(c *websocket.Conn) { s.unregister <- c }(client)
				}
			}
			s.clientsMutex.RUnlock()

		case <-s.shutdownChan:
			logger.Info("EventStream: Shutting down", nil)
			return
		}
	}
}

// Shutdown stops the stream manager
func (s *EventStream) Shutdown() {
	close(s.shutdownChan)
}

// HandleConnection handles GET /api/admin/events/stream
func (s *EventStream) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("EventStream: Failed to upgrade connection", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	s.register <- conn

	// Drain client messages; the feed is one-directional.
	go func() {
		defer func() { s.unregister <- conn }()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
