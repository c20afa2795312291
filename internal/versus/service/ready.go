package service

import (
	"context"
	"errors"
	"time"

	"github.com/gridduel/gridduel/internal/storage"
	"github.com/gridduel/gridduel/internal/versus/domain"
)

// SetReadyInput toggles the acting player's ready flag.
type SetReadyInput struct {
	RoomID    string
	SessionID string
	Ready     bool
}

// SetReadyResult reports the new ready state. BothReady signals the caller to
// arm the countdown; the handler itself performs no cross-player side effects.
type SetReadyResult struct {
	Ready     bool  `json:"ready"`
	BothReady bool  `json:"bothReady"`
	Version   int64 `json:"version"`
}

// SetReady updates the acting player's ready flag.
func (s *Service) SetReady(ctx context.Context, input SetReadyInput) (SetReadyResult, error) {
	ctx, span := s.tracer.Start(ctx, "versus.SetReady")
	defer span.End()

	room, slot, err := s.loadRoomForSession(ctx, input.RoomID, input.SessionID)
	if err != nil {
		return SetReadyResult{}, err
	}

	player := room.PlayerAt(slot)
	player.Ready = input.Ready
	room.UpdatedAt = s.now()

	version, err := s.stores.Rooms.UpdateMetadata(ctx, room, room.Version)
	if err != nil {
		return SetReadyResult{}, mapStoreErr("set ready", err)
	}

	bothReady := room.BothReady()
	s.notifier.ReadyCheck(ctx, room.ID, slot, bothReady, version)
	return SetReadyResult{Ready: input.Ready, BothReady: bothReady, Version: version}, nil
}

// StartCountdownResult reports the armed start time.
type StartCountdownResult struct {
	StartAt time.Time `json:"startAt"`
	// Armed reports whether this call won the first-writer-wins assignment.
	// When false, StartAt is the zero time and the previously armed start
	// stands.
	Armed bool `json:"armed"`
}

// StartCountdown arms the room start time at now plus the countdown delay.
// The assignment is first-writer-wins: concurrent triggers cannot race to set
// different timestamps.
func (s *Service) StartCountdown(ctx context.Context, roomID string) (StartCountdownResult, error) {
	ctx, span := s.tracer.Start(ctx, "versus.StartCountdown")
	defer span.End()

	startAt := s.now().Add(CountdownDelay)
	armed, err := s.stores.Rooms.SetStartAtIfNull(ctx, roomID, startAt)
	if err != nil {
		return StartCountdownResult{}, mapStoreErr("start countdown", err)
	}
	if !armed {
		return StartCountdownResult{}, nil
	}

	s.notifier.Notify(ctx, roomID, domain.SlotNone, "countdown_started", "", 0)
	return StartCountdownResult{StartAt: startAt, Armed: true}, nil
}

// connectRetryBackoff is the capped backoff between connection-flag retries.
var connectRetryBackoff = []time.Duration{
	50 * time.Millisecond,
	100 * time.Millisecond,
	200 * time.Millisecond,
}

// SetConnectedInput toggles the acting player's connection flag.
type SetConnectedInput struct {
	RoomID    string
	SessionID string
	Connected bool
}

// SetConnected updates the acting player's connection flag, stamping
// lastDisconnectedAt on disconnect and clearing it on reconnect. The flag is
// low-value and high-contention, so version conflicts are retried internally
// up to three times with capped backoff before surfacing.
func (s *Service) SetConnected(ctx context.Context, input SetConnectedInput) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "versus.SetConnected")
	defer span.End()

	for attempt := 0; ; attempt++ {
		room, slot, err := s.loadRoomForSession(ctx, input.RoomID, input.SessionID)
		if err != nil {
			return 0, err
		}

		player := room.PlayerAt(slot)
		player.Connected = input.Connected
		if input.Connected {
			player.LastDisconnectedAt = nil
		} else {
			at := s.now()
			player.LastDisconnectedAt = &at
		}
		room.UpdatedAt = s.now()

		version, err := s.stores.Rooms.UpdateMetadata(ctx, room, room.Version)
		if err == nil {
			s.notifier.StateUpdated(ctx, room.ID, slot, version)
			return version, nil
		}

		var conflict *storage.VersionConflictError
		if !errors.As(err, &conflict) || attempt >= len(connectRetryBackoff) {
			return 0, mapStoreErr("set connected", err)
		}
		s.sleep(connectRetryBackoff[attempt])
	}
}
