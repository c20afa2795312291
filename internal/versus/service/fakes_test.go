package service

import (
	"context"
	"sync"
	"time"

	"github.com/gridduel/gridduel/internal/storage"
	"github.com/gridduel/gridduel/internal/versus/domain"
	"github.com/gridduel/gridduel/internal/versus/puzzle"
)

// cloneRoom deep-copies a room so fake persistence behaves like a real store:
// callers never share pointers with the stored state.
func cloneRoom(room domain.Room) domain.Room {
	out := room
	out.Player1 = clonePlayer(room.Player1)
	out.Player2 = clonePlayer(room.Player2)
	if room.StartAt != nil {
		at := *room.StartAt
		out.StartAt = &at
	}
	if room.FinishedAt != nil {
		at := *room.FinishedAt
		out.FinishedAt = &at
	}
	return out
}

func clonePlayer(player *domain.Player) *domain.Player {
	if player == nil {
		return nil
	}
	out := *player
	if player.SelectedCell != nil {
		cell := *player.SelectedCell
		out.SelectedCell = &cell
	}
	if player.LastDisconnectedAt != nil {
		at := *player.LastDisconnectedAt
		out.LastDisconnectedAt = &at
	}
	if player.ClearedMistakes != nil {
		out.ClearedMistakes = make(map[string]bool, len(player.ClearedMistakes))
		for k, v := range player.ClearedMistakes {
			out.ClearedMistakes[k] = v
		}
	}
	return &out
}

type fakeRoomStore struct {
	mu    sync.Mutex
	rooms map[string]domain.Room
	now   func() time.Time

	// conflictGuarded makes the next n guarded writes fail with a version
	// conflict without touching state.
	conflictGuarded int
	failWith        error
}

func newFakeRoomStore(now func() time.Time) *fakeRoomStore {
	return &fakeRoomStore{rooms: make(map[string]domain.Room), now: now}
}

func (f *fakeRoomStore) CreateRoom(_ context.Context, room domain.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms[room.ID] = cloneRoom(room)
	return nil
}

func (f *fakeRoomStore) GetRoom(_ context.Context, roomID string) (domain.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[roomID]
	if !ok || room.Expired(f.now()) {
		return domain.Room{}, storage.ErrNotFound
	}
	return cloneRoom(room), nil
}

func (f *fakeRoomStore) UpdateMetadata(_ context.Context, room domain.Room, expectedVersion int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return 0, f.failWith
	}
	stored, ok := f.rooms[room.ID]
	if !ok {
		return 0, storage.ErrNotFound
	}

	if f.conflictGuarded > 0 {
		f.conflictGuarded--
		return 0, &storage.VersionConflictError{Version: stored.Version}
	}
	if stored.Version != expectedVersion {
		return 0, &storage.VersionConflictError{Version: stored.Version}
	}

	next := cloneRoom(room)
	next.StartAt = stored.StartAt
	next.Board = stored.Board
	next.Version = stored.Version + 1
	f.rooms[room.ID] = next
	return next.Version, nil
}

// SetSelectedCell patches only the one seat's selection, like the sqlite
// store's json_set path.
func (f *fakeRoomStore) SetSelectedCell(_ context.Context, roomID string, slot domain.Slot, cell domain.Cell) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return 0, f.failWith
	}
	stored, ok := f.rooms[roomID]
	if !ok {
		return 0, storage.ErrNotFound
	}
	player := stored.PlayerAt(slot)
	if player == nil {
		return 0, storage.ErrNotFound
	}
	selected := cell
	player.SelectedCell = &selected
	stored.UpdatedAt = f.now()
	f.rooms[roomID] = stored
	return stored.Version, nil
}

func (f *fakeRoomStore) ApplyMove(_ context.Context, room domain.Room, expectedVersion int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return 0, f.failWith
	}
	stored, ok := f.rooms[room.ID]
	if !ok {
		return 0, storage.ErrNotFound
	}
	if stored.StartAt == nil || stored.StartAt.After(f.now()) {
		return 0, storage.ErrGameNotStarted
	}
	if f.conflictGuarded > 0 {
		f.conflictGuarded--
		return 0, &storage.VersionConflictError{Version: stored.Version}
	}
	if stored.Version != expectedVersion {
		return 0, &storage.VersionConflictError{Version: stored.Version}
	}

	next := cloneRoom(room)
	next.StartAt = stored.StartAt
	next.Version = stored.Version + 1
	f.rooms[room.ID] = next
	return next.Version, nil
}

func (f *fakeRoomStore) SetStartAtIfNull(_ context.Context, roomID string, startAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.rooms[roomID]
	if !ok {
		return false, storage.ErrNotFound
	}
	if stored.StartAt != nil {
		return false, nil
	}
	at := startAt
	stored.StartAt = &at
	stored.Status = domain.StatusActive
	stored.Version++
	f.rooms[roomID] = stored
	return true, nil
}

func (f *fakeRoomStore) DeleteRoom(_ context.Context, roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rooms, roomID)
	return nil
}

func (f *fakeRoomStore) CleanupExpired(_ context.Context, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	deleted := 0
	for id, room := range f.rooms {
		if room.Expired(now) {
			delete(f.rooms, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeLedger struct {
	mu      sync.Mutex
	records map[string]storage.PurchaseRecord
	putErr  error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{records: make(map[string]storage.PurchaseRecord)}
}

func (f *fakeLedger) GetPurchase(_ context.Context, checkoutID string) (storage.PurchaseRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[checkoutID]
	if !ok {
		return storage.PurchaseRecord{}, storage.ErrNotFound
	}
	return record, nil
}

func (f *fakeLedger) PutPurchase(_ context.Context, record storage.PurchaseRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.records[record.CheckoutID] = record
	return nil
}

type fakeOutbox struct {
	mu      sync.Mutex
	records []storage.ChangeRecord
}

func (f *fakeOutbox) AppendChange(_ context.Context, record storage.ChangeRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	record.Seq = int64(len(f.records) + 1)
	f.records = append(f.records, record)
	return nil
}

func (f *fakeOutbox) ListChangesSince(_ context.Context, roomID string, afterSeq int64, limit int) ([]storage.ChangeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.ChangeRecord
	for _, record := range f.records {
		if record.RoomID == roomID && record.Seq > afterSeq {
			out = append(out, record)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeOutbox) byType(changeType storage.ChangeType) []storage.ChangeRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.ChangeRecord
	for _, record := range f.records {
		if record.Type == changeType {
			out = append(out, record)
		}
	}
	return out
}

type fakeRecorder struct {
	results chan GameResult
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{results: make(chan GameResult, 1)}
}

func (f *fakeRecorder) RecordResult(_ context.Context, result GameResult) error {
	f.results <- result
	return nil
}

// stubGenerator returns a fixed puzzle so tests control the board exactly.
type stubGenerator struct {
	generated puzzle.Puzzle
}

func (g stubGenerator) Generate(domain.Difficulty) (puzzle.Puzzle, error) {
	return g.generated, nil
}
