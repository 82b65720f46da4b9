// Package devbackend is an in-memory stand-in for the managed backend, the
// push gateway, and the analytics collector. It exists so the client can run
// and be integration-tested without the real vendor services. Nothing here is
// durable; restart and it's gone, like the real backend owns durability.
package devbackend

import (
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/LukeHalby/pushchat/internal/proto"
)

// Server implements every collaborator contract the client consumes.
type Server struct {
	log *zerolog.Logger
	hub *hub

	mu        sync.Mutex
	messages  map[string][]proto.Message
	tokens    map[string]string
	channels  map[string]proto.ChannelConfig
	endpoints []proto.EndpointUpdate
	events    []string

	engine *gin.Engine
}

// New builds a server with empty state.
func New(logger *zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		log:      logger,
		hub:      newHub(),
		messages: make(map[string][]proto.Message),
		tokens:   make(map[string]string),
		channels: make(map[string]proto.ChannelConfig),
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/rooms/:room/messages", s.listMessages)
	engine.POST("/messages", s.createMessage)
	engine.GET("/subscribe", s.subscribe)

	engine.POST("/v1/tokens", s.issueToken)
	engine.PUT("/v1/channels/:name", s.setChannel)

	engine.POST("/analytics/endpoints", s.updateEndpoint)
	engine.POST("/analytics/events", s.recordEvent)

	s.engine = engine
	return s
}

// Handler exposes the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// GET /rooms/:room/messages
func (s *Server) listMessages(c *gin.Context) {
	room := c.Param("room")

	s.mu.Lock()
	items := make([]proto.Message, len(s.messages[room]))
	copy(items, s.messages[room])
	s.mu.Unlock()

	c.JSON(http.StatusOK, proto.ListMessagesResponse{Items: items})
}

// CreateMessageRequest represents the create message request body.
type CreateMessageRequest struct {
	Body   string `json:"body" binding:"required"`
	From   string `json:"from" binding:"required"`
	RoomID string `json:"roomId" binding:"required"`
}

// POST /messages
func (s *Server) createMessage(c *gin.Context) {
	var req CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.log.Debug().Err(err).Msg("invalid create message request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	now := time.Now().UTC()
	msg := proto.Message{
		ID:            uuid.NewString(),
		Body:          req.Body,
		From:          req.From,
		RoomID:        req.RoomID,
		CreatedAt:     now.Format(time.RFC3339Nano),
		UpdatedAt:     now.Format(time.RFC3339Nano),
		Version:       1,
		LastChangedAt: now.UnixMilli(),
	}

	s.mu.Lock()
	s.messages[req.RoomID] = append(s.messages[req.RoomID], msg)
	s.mu.Unlock()

	s.hub.broadcast(req.RoomID, proto.SubscriptionEvent{
		Event: proto.EventMutateMessage,
		Data:  &msg,
	})

	s.log.Info().Str("room", req.RoomID).Str("id", msg.ID).Msg("message created")
	c.JSON(http.StatusCreated, msg)
}

// GET /subscribe?room=
func (s *Server) subscribe(c *gin.Context) {
	room := c.Query("room")
	if room == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "room is required"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("ws accept error")
		return
	}

	sub := s.hub.add(room)
	defer s.hub.remove(room, sub)

	// The feed is write-only; CloseRead pumps control frames and cancels the
	// context when the subscriber goes away.
	ctx := conn.CloseRead(c.Request.Context())
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusGoingAway, "server closing")
			return
		case event := <-sub.events:
			if err := wsjson.Write(ctx, conn, event); err != nil {
				s.log.Debug().Err(err).Str("room", room).Msg("subscriber went away")
				conn.Close(websocket.StatusNormalClosure, "write failed")
				return
			}
		}
	}
}

// POST /v1/tokens
func (s *Server) issueToken(c *gin.Context) {
	var req proto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.InstallID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "installId is required"})
		return
	}

	s.mu.Lock()
	token, ok := s.tokens[req.InstallID]
	if !ok {
		token = "PushToken[" + uuid.NewString() + "]"
		s.tokens[req.InstallID] = token
	}
	s.mu.Unlock()

	c.JSON(http.StatusOK, proto.TokenResponse{Token: token})
}

// PUT /v1/channels/:name
func (s *Server) setChannel(c *gin.Context) {
	var cfg proto.ChannelConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid channel config"})
		return
	}
	cfg.Name = c.Param("name")

	s.mu.Lock()
	s.channels[cfg.Name] = cfg
	s.mu.Unlock()

	c.Status(http.StatusNoContent)
}

// POST /analytics/endpoints
func (s *Server) updateEndpoint(c *gin.Context) {
	var update proto.EndpointUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid endpoint update"})
		return
	}

	s.mu.Lock()
	s.endpoints = append(s.endpoints, update)
	s.mu.Unlock()

	c.Status(http.StatusAccepted)
}

// POST /analytics/events
func (s *Server) recordEvent(c *gin.Context) {
	var record proto.EventRecord
	if err := c.ShouldBindJSON(&record); err != nil || record.Name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "name is required"})
		return
	}

	s.mu.Lock()
	s.events = append(s.events, record.Name)
	s.mu.Unlock()

	c.Status(http.StatusAccepted)
}

// Endpoints returns the registered analytics endpoints, for tests.
func (s *Server) Endpoints() []proto.EndpointUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]proto.EndpointUpdate, len(s.endpoints))
	copy(out, s.endpoints)
	return out
}

// Events returns the recorded analytics event names, for tests.
func (s *Server) Events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	copy(out, s.events)
	return out
}

// Channels returns the configured notification channels, for tests.
func (s *Server) Channels() map[string]proto.ChannelConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]proto.ChannelConfig, len(s.channels))
	for k, v := range s.channels {
		out[k] = v
	}
	return out
}
