package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gridduel/gridduel/internal/versus/domain"
	"github.com/gridduel/gridduel/internal/versus/service"
)

// feedEvent is one change notification delivered over the feed socket.
type feedEvent struct {
	Seq       int64           `json:"seq"`
	Type      string          `json:"type"`
	Actor     domain.Slot     `json:"actor,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"createdAt"`
}

// feed streams the room's change records over a websocket, polling the
// outbox. Clients resume from a known sequence with ?after=<seq>.
func (s *Server) feed(c *gin.Context) {
	session, ok := sessionID(c)
	if !ok {
		return
	}
	roomID := c.Param("id")

	// Authorize before upgrading: only seated sessions may subscribe.
	if _, err := s.svc.GetState(c.Request.Context(), roomID, session); err != nil {
		respondErr(c, err)
		return
	}

	after, _ := strconv.ParseInt(c.Query("after"), 10, 64)

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("upgrade feed for room %s: %v", roomID, err)
		return
	}
	defer conn.Close()

	// The subscriber going away flips the connection flag so the opponent
	// sees the disconnect.
	if _, err := s.svc.SetConnected(c.Request.Context(), service.SetConnectedInput{
		RoomID: roomID, SessionID: session, Connected: true,
	}); err != nil {
		log.Printf("mark connected for room %s: %v", roomID, err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 5*time.Second)
		defer cancel()
		if _, err := s.svc.SetConnected(ctx, service.SetConnectedInput{
			RoomID: roomID, SessionID: session, Connected: false,
		}); err != nil {
			log.Printf("mark disconnected for room %s: %v", roomID, err)
		}
	}()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Read pump: the client sends nothing meaningful; reading surfaces close.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(feedPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		records, err := s.outbox.ListChangesSince(ctx, roomID, after, 100)
		if err != nil {
			log.Printf("poll changes for room %s: %v", roomID, err)
			continue
		}
		for _, record := range records {
			event := feedEvent{
				Seq:       record.Seq,
				Type:      string(record.Type),
				Actor:     record.Actor,
				Version:   record.RoomVersion,
				CreatedAt: record.CreatedAt,
			}
			if record.PayloadJSON != "" {
				event.Payload = json.RawMessage(record.PayloadJSON)
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
			after = record.Seq
		}
	}
}
