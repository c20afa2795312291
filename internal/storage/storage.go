// Package storage defines the persistence contracts for the versus engine.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gridduel/gridduel/internal/versus/domain"
)

// ErrNotFound indicates a requested persistence record is missing or expired.
var ErrNotFound = errors.New("record not found")

// ErrGameNotStarted indicates a board write was attempted before the room's
// start time was armed and reached.
var ErrGameNotStarted = errors.New("game has not started")

// ErrVersionConflict is the sentinel matched by errors.Is for conditional
// writes that lost to a concurrent writer.
var ErrVersionConflict = errors.New("version conflict")

// VersionConflictError reports a conditional write that lost the race.
// Version carries the authoritative stored version so the caller can re-read
// and retry against fresh state.
type VersionConflictError struct {
	Version int64
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict: stored version is %d", e.Version)
}

// Is matches the ErrVersionConflict sentinel.
func (e *VersionConflictError) Is(target error) bool {
	return target == ErrVersionConflict
}

// RoomStore owns room/board persistence and the optimistic-concurrency
// contract. Every mutating operation is conditioned on the version the caller
// read; a mismatch returns *VersionConflictError, never a partial write.
type RoomStore interface {
	// CreateRoom persists the room and its board atomically: both records
	// appear together or not at all.
	CreateRoom(ctx context.Context, room domain.Room) error

	// GetRoom returns ErrNotFound for missing or expired rooms. It never
	// returns a partially constructed room.
	GetRoom(ctx context.Context, roomID string) (domain.Room, error)

	// UpdateMetadata conditionally writes the room's metadata (players,
	// status, winner, timestamps) guarded by expectedVersion, leaving board
	// data untouched. On success the stored version becomes
	// expectedVersion+1 and is returned.
	UpdateMetadata(ctx context.Context, room domain.Room, expectedVersion int64) (int64, error)

	// SetSelectedCell patches one seat's ephemeral selection in place,
	// without a version guard and without bumping the version. It touches
	// nothing but the selection, so a stale caller can never revert a
	// concurrent guarded write. Returns the current stored version.
	SetSelectedCell(ctx context.Context, roomID string, slot domain.Slot, cell domain.Cell) (int64, error)

	// ApplyMove writes board and metadata together as one atomic unit,
	// guarded by expectedVersion. Returns ErrGameNotStarted when the room's
	// start time is unset or in the future.
	ApplyMove(ctx context.Context, room domain.Room, expectedVersion int64) (int64, error)

	// SetStartAtIfNull arms the room start time first-writer-wins and moves
	// the room to active. It reports whether this call won the write.
	SetStartAtIfNull(ctx context.Context, roomID string, startAt time.Time) (bool, error)

	// DeleteRoom removes the room and its board.
	DeleteRoom(ctx context.Context, roomID string) error

	// CleanupExpired reclaims rooms past their expiry and returns how many
	// were deleted.
	CleanupExpired(ctx context.Context, now time.Time) (int, error)
}

// ChangeType tags an outbox record with what kind of change occurred.
type ChangeType string

const (
	ChangeStateUpdate  ChangeType = "state_update"
	ChangeCellSelected ChangeType = "cell_selected"
	ChangeNotification ChangeType = "notification"
	ChangeReadyCheck   ChangeType = "ready_check"
)

// ChangeRecord is one appended change notification. Seq is assigned by the
// store and totally orders records within a room.
type ChangeRecord struct {
	Seq         int64
	RoomID      string
	Type        ChangeType
	Actor       domain.Slot
	PayloadJSON string
	RoomVersion int64
	CreatedAt   time.Time
}

// ChangeOutbox is the append-only stream the realtime delivery layer reads.
type ChangeOutbox interface {
	AppendChange(ctx context.Context, record ChangeRecord) error
	// ListChangesSince returns up to limit records for the room with
	// Seq > afterSeq, in ascending Seq order.
	ListChangesSince(ctx context.Context, roomID string, afterSeq int64, limit int) ([]ChangeRecord, error)
}

// PurchaseRecord marks one consumed life-purchase checkout token.
type PurchaseRecord struct {
	CheckoutID  string
	RoomID      string
	SessionID   string
	ProcessedAt time.Time
}

// PurchaseLedger is the idempotency ledger preventing a checkout token from
// being credited more than once.
type PurchaseLedger interface {
	// GetPurchase returns ErrNotFound when the token has not been consumed.
	GetPurchase(ctx context.Context, checkoutID string) (PurchaseRecord, error)
	PutPurchase(ctx context.Context, record PurchaseRecord) error
}
