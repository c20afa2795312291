// Package notify appends change notifications to the room outbox so the
// realtime delivery layer can fan them out to connected clients.
package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gridduel/gridduel/internal/storage"
	"github.com/gridduel/gridduel/internal/versus/domain"
)

// Notifier appends change records after successful mutations. Append failures
// are logged and swallowed: delivery is best-effort and must never fail the
// mutation that already committed.
type Notifier struct {
	outbox storage.ChangeOutbox
	clock  func() time.Time
}

// New creates a notifier over the given outbox. A nil outbox yields a no-op
// notifier.
func New(outbox storage.ChangeOutbox) *Notifier {
	return &Notifier{outbox: outbox, clock: time.Now}
}

// WithClock overrides the notifier clock for tests.
func (n *Notifier) WithClock(clock func() time.Time) *Notifier {
	n.clock = clock
	return n
}

func (n *Notifier) append(ctx context.Context, record storage.ChangeRecord) {
	if n == nil || n.outbox == nil {
		return
	}
	record.CreatedAt = n.clock().UTC()
	if err := n.outbox.AppendChange(ctx, record); err != nil {
		log.Printf("append %s change for room %s: %v", record.Type, record.RoomID, err)
	}
}

// StateUpdated signals that the room's shared state changed at version.
func (n *Notifier) StateUpdated(ctx context.Context, roomID string, actor domain.Slot, version int64) {
	n.append(ctx, storage.ChangeRecord{
		RoomID:      roomID,
		Type:        storage.ChangeStateUpdate,
		Actor:       actor,
		RoomVersion: version,
	})
}

type cellSelectedPayload struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// CellSelected signals that a player moved their cursor.
func (n *Notifier) CellSelected(ctx context.Context, roomID string, actor domain.Slot, cell domain.Cell, version int64) {
	payload, err := json.Marshal(cellSelectedPayload{Row: cell.Row, Col: cell.Col})
	if err != nil {
		log.Printf("marshal cell_selected payload for room %s: %v", roomID, err)
		return
	}
	n.append(ctx, storage.ChangeRecord{
		RoomID:      roomID,
		Type:        storage.ChangeCellSelected,
		Actor:       actor,
		PayloadJSON: string(payload),
		RoomVersion: version,
	})
}

type notificationPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
}

// Notify signals a player-facing event such as a purchase prompt or an
// opponent disconnect.
func (n *Notifier) Notify(ctx context.Context, roomID string, actor domain.Slot, kind, message string, version int64) {
	payload, err := json.Marshal(notificationPayload{Kind: kind, Message: message})
	if err != nil {
		log.Printf("marshal notification payload for room %s: %v", roomID, err)
		return
	}
	n.append(ctx, storage.ChangeRecord{
		RoomID:      roomID,
		Type:        storage.ChangeNotification,
		Actor:       actor,
		PayloadJSON: string(payload),
		RoomVersion: version,
	})
}

type readyCheckPayload struct {
	BothReady bool `json:"bothReady"`
}

// ReadyCheck signals a ready-state change, flagging when both players are in.
func (n *Notifier) ReadyCheck(ctx context.Context, roomID string, actor domain.Slot, bothReady bool, version int64) {
	payload, err := json.Marshal(readyCheckPayload{BothReady: bothReady})
	if err != nil {
		log.Printf("marshal ready_check payload for room %s: %v", roomID, err)
		return
	}
	n.append(ctx, storage.ChangeRecord{
		RoomID:      roomID,
		Type:        storage.ChangeReadyCheck,
		Actor:       actor,
		PayloadJSON: string(payload),
		RoomVersion: version,
	})
}
