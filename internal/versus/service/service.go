// Package service implements the per-action state-transition handlers for
// versus rooms. Handlers hold no state between requests: every action
// re-reads the room, computes the transition, and commits it with a
// version-guarded write.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/gridduel/gridduel/internal/platform/errors"
	"github.com/gridduel/gridduel/internal/platform/id"
	"github.com/gridduel/gridduel/internal/storage"
	"github.com/gridduel/gridduel/internal/versus/domain"
	"github.com/gridduel/gridduel/internal/versus/notify"
	"github.com/gridduel/gridduel/internal/versus/puzzle"
	"github.com/gridduel/gridduel/internal/versus/scoring"
)

// CountdownDelay is how far in the future the start time is armed once both
// players are ready.
const CountdownDelay = 3 * time.Second

// Stores groups the persistence dependencies of the service.
type Stores struct {
	Rooms     storage.RoomStore
	Purchases storage.PurchaseLedger
}

// Service coordinates room actions over the stores, the scorer, and the
// change notifier.
type Service struct {
	stores      Stores
	notifier    *notify.Notifier
	puzzles     puzzle.Generator
	scorer      scoring.Scorer
	results     ResultRecorder
	clock       func() time.Time
	idGenerator func() (string, error)
	sleep       func(time.Duration)
	tracer      trace.Tracer
}

// Option customizes service construction.
type Option func(*Service)

// WithClock overrides the service clock for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithIDGenerator overrides room id generation for tests.
func WithIDGenerator(generator func() (string, error)) Option {
	return func(s *Service) { s.idGenerator = generator }
}

// WithSleep overrides the backoff sleep used by the connection-flag retry.
func WithSleep(sleep func(time.Duration)) Option {
	return func(s *Service) { s.sleep = sleep }
}

// WithScorer overrides the placement scorer.
func WithScorer(scorer scoring.Scorer) Option {
	return func(s *Service) { s.scorer = scorer }
}

// WithResultRecorder sets the fire-and-forget completion bookkeeping sink.
func WithResultRecorder(recorder ResultRecorder) Option {
	return func(s *Service) { s.results = recorder }
}

// New creates the action service.
func New(stores Stores, notifier *notify.Notifier, puzzles puzzle.Generator, opts ...Option) *Service {
	s := &Service{
		stores:      stores,
		notifier:    notifier,
		puzzles:     puzzles,
		scorer:      scoring.NewStandardScorer(),
		clock:       time.Now,
		idGenerator: id.NewID,
		sleep:       time.Sleep,
		tracer:      otel.Tracer("gridduel/versus"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}

// mapStoreErr translates persistence failures into the boundary error
// taxonomy. Version conflicts keep the store error as cause so callers can
// recover the authoritative version with errors.As.
func mapStoreErr(action string, err error) error {
	var conflict *storage.VersionConflictError
	switch {
	case errors.As(err, &conflict):
		wrapped := apperrors.Wrap(apperrors.CodeVersionConflict,
			fmt.Sprintf("%s: lost to a concurrent update", action), err)
		wrapped.Metadata = map[string]string{"version": strconv.FormatInt(conflict.Version, 10)}
		return wrapped
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.Wrap(apperrors.CodeRoomNotFound,
			fmt.Sprintf("%s: room not found", action), err)
	case errors.Is(err, storage.ErrGameNotStarted):
		return apperrors.Wrap(apperrors.CodeGameNotStarted,
			fmt.Sprintf("%s: game has not started", action), err)
	default:
		return apperrors.Wrap(apperrors.CodeNetworkError,
			fmt.Sprintf("%s: store failure", action), err)
	}
}

// loadRoomForSession resolves the room and the acting player's seat without
// any game-phase check. Join-phase actions (ready, connect, state reads) use
// this reduced gate.
func (s *Service) loadRoomForSession(ctx context.Context, roomID, sessionID string) (domain.Room, domain.Slot, error) {
	room, err := s.stores.Rooms.GetRoom(ctx, roomID)
	if err != nil {
		return domain.Room{}, domain.SlotNone, mapStoreErr("load room", err)
	}
	player, slot := room.PlayerBySession(sessionID)
	if player == nil {
		return domain.Room{}, domain.SlotNone, apperrors.New(apperrors.CodePlayerNotFound,
			fmt.Sprintf("session is not seated in room %s", roomID))
	}
	return room, slot, nil
}

// loadActingRoom applies the full in-game gate: the room exists, the session
// is seated, the countdown has elapsed, and the game is still running.
func (s *Service) loadActingRoom(ctx context.Context, roomID, sessionID string) (domain.Room, domain.Slot, error) {
	room, slot, err := s.loadRoomForSession(ctx, roomID, sessionID)
	if err != nil {
		return domain.Room{}, domain.SlotNone, err
	}
	if !room.Started(s.now()) {
		return domain.Room{}, domain.SlotNone, apperrors.New(apperrors.CodeGameNotStarted,
			fmt.Sprintf("room %s has not started", roomID))
	}
	// A finished room never resumes; the gate reports it the same way as a
	// game that has not begun.
	if room.Status == domain.StatusFinished {
		return domain.Room{}, domain.SlotNone, apperrors.New(apperrors.CodeGameNotStarted,
			fmt.Sprintf("room %s is already finished", roomID))
	}
	return room, slot, nil
}

// CleanupExpired reclaims expired rooms. The caller runs it on a ticker.
func (s *Service) CleanupExpired(ctx context.Context) (int, error) {
	deleted, err := s.stores.Rooms.CleanupExpired(ctx, s.now())
	if err != nil {
		return 0, mapStoreErr("cleanup expired rooms", err)
	}
	return deleted, nil
}
