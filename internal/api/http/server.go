// Package httpapi exposes the versus engine over HTTP and websockets.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	apperrors "github.com/gridduel/gridduel/internal/platform/errors"
	"github.com/gridduel/gridduel/internal/storage"
	"github.com/gridduel/gridduel/internal/versus/service"
)

// sessionHeader carries the opaque session identifier resolved out-of-band.
const sessionHeader = "X-Session-Id"

// feedPollInterval is how often the feed poller drains the change outbox.
const feedPollInterval = 250 * time.Millisecond

// Server routes player requests to the action service.
type Server struct {
	svc      *service.Service
	outbox   storage.ChangeOutbox
	engine   *gin.Engine
	upgrader websocket.Upgrader
}

// New builds the HTTP server over the action service and the change outbox.
func New(svc *service.Service, outbox storage.ChangeOutbox) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		svc:    svc,
		outbox: outbox,
		engine: gin.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	s.engine.Use(gin.Recovery())

	v1 := s.engine.Group("/v1")
	v1.POST("/rooms", s.createRoom)
	v1.POST("/rooms/:id/join", s.joinRoom)
	v1.GET("/rooms/:id", s.getRoom)
	v1.POST("/rooms/:id/actions", s.dispatchAction)
	v1.GET("/rooms/:id/feed", s.feed)
	return s
}

// Handler returns the router for mounting on an http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func sessionID(c *gin.Context) (string, bool) {
	session := c.GetHeader(sessionHeader)
	if session == "" {
		respondErr(c, apperrors.New(apperrors.CodePlayerNotFound, "missing session header"))
		return "", false
	}
	return session, true
}

type createRoomRequest struct {
	Name       string `json:"name"`
	Difficulty string `json:"difficulty"`
}

type roomResponse struct {
	Success bool             `json:"success"`
	Room    service.RoomView `json:"room"`
}

func (s *Server) createRoom(c *gin.Context) {
	session, ok := sessionID(c)
	if !ok {
		return
	}
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperrors.Wrap(apperrors.CodeInvalidMove, "parse request body", err))
		return
	}

	view, err := s.svc.CreateRoom(c.Request.Context(), service.CreateRoomInput{
		SessionID:  session,
		Name:       req.Name,
		Difficulty: req.Difficulty,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, roomResponse{Success: true, Room: view})
}

type joinRoomRequest struct {
	Name string `json:"name"`
}

func (s *Server) joinRoom(c *gin.Context) {
	session, ok := sessionID(c)
	if !ok {
		return
	}
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperrors.Wrap(apperrors.CodeInvalidMove, "parse request body", err))
		return
	}

	view, err := s.svc.JoinRoom(c.Request.Context(), service.JoinRoomInput{
		RoomID:    c.Param("id"),
		SessionID: session,
		Name:      req.Name,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, roomResponse{Success: true, Room: view})
}

func (s *Server) getRoom(c *gin.Context) {
	session, ok := sessionID(c)
	if !ok {
		return
	}
	view, err := s.svc.GetState(c.Request.Context(), c.Param("id"), session)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, roomResponse{Success: true, Room: view})
}
