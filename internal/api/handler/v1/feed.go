package v1

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/api/handler/v1/response"
	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Adjust this for production!
	},
}

type feedClient struct {
	conn    *websocket.Conn
	send    chan []byte
	eventID string
}

// FeedHandler pushes every check-in outcome for an event to subscribed
// dashboards over a websocket, so the front desk sees admissions live.
type FeedHandler struct {
	uSvc UserService

	clientsMutex sync.RWMutex
	clients      map[*feedClient]struct{}
}

func NewFeedHandler(uSvc UserService) *FeedHandler {
	return &FeedHandler{
		uSvc:    uSvc,
		clients: make(map[*feedClient]struct{}),
	}
}

// Publish fans an outcome out to every subscriber of the event. Slow
// subscribers are dropped rather than allowed to block the check-in path.
func (h *FeedHandler) Publish(eventID string, outcome domain.CheckInOutcome) {
	message, err := json.Marshal(outcome)
	if err != nil {
		zap.L().Error("failed to marshal feed message", zap.Error(err))
		return
	}

	h.clientsMutex.Lock()
	defer h.clientsMutex.Unlock()

	for client := range h.clients {
		if client.eventID != eventID {
			continue
		}

		select {
		case client.send <- message:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
}

// HandleFeed godoc
// @Summary      Subscribe to the live check-in feed
// @Description  Establishes a websocket pushing each check-in outcome for the event as it happens.
// @Tags         checkin
// @Produce      json
// @Param        eventID  path  string  true  "Event ID"
// @Success      101  {string}  string "Switching Protocols to WebSocket"
// @Failure      401  {object}  response.Err
// @Router       /events/{eventID}/feed [get]
// @Security BearerAuth
func (h *FeedHandler) HandleFeed(ctx *gin.Context) {
	if _, respErr := getUserFromContext(ctx, h.uSvc); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &feedClient{
		conn:    conn,
		send:    make(chan []byte, 16),
		eventID: ctx.Param("eventID"),
	}

	h.clientsMutex.Lock()
	h.clients[client] = struct{}{}
	h.clientsMutex.Unlock()

	go h.writePump(client)
	go h.readPump(client)
}

func (h *FeedHandler) writePump(client *feedClient) {
	for message := range client.send {
		if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			break
		}
	}

	client.conn.Close()
}

// readPump discards inbound messages; the feed is one-way. It exists to
// notice the peer going away.
func (h *FeedHandler) readPump(client *feedClient) {
	defer func() {
		h.clientsMutex.Lock()
		if _, ok := h.clients[client]; ok {
			delete(h.clients, client)
			close(client.send)
		}
		h.clientsMutex.Unlock()
		client.conn.Close()
	}()

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}
