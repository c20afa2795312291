package service

import (
	"context"
	"log"
	"time"

	"github.com/gridduel/gridduel/internal/versus/domain"
)

// PlayerResult is one seat's final line in a finished game.
type PlayerResult struct {
	Slot     domain.Slot
	Name     string
	Score    int
	Mistakes int
	Won      bool
}

// GameResult is the completion record handed to the ResultRecorder.
type GameResult struct {
	RoomID     string
	Difficulty domain.Difficulty
	Winner     domain.Slot
	FinishedAt time.Time
	Players    []PlayerResult
}

// ResultRecorder persists per-player result records after a game finishes.
// Recording is fire-and-forget: failures are logged, never surfaced to the
// player whose placement finished the game.
type ResultRecorder interface {
	RecordResult(ctx context.Context, result GameResult) error
}

// recordResult dispatches completion bookkeeping detached from the request:
// the caller's result never depends on its outcome.
func (s *Service) recordResult(ctx context.Context, room domain.Room) {
	if s.results == nil {
		return
	}

	result := GameResult{
		RoomID:     room.ID,
		Difficulty: room.Difficulty,
		Winner:     room.Winner,
	}
	if room.FinishedAt != nil {
		result.FinishedAt = *room.FinishedAt
	}
	for _, seat := range []struct {
		slot   domain.Slot
		player *domain.Player
	}{
		{domain.SlotPlayer1, room.Player1},
		{domain.SlotPlayer2, room.Player2},
	} {
		if seat.player == nil {
			continue
		}
		result.Players = append(result.Players, PlayerResult{
			Slot:     seat.slot,
			Name:     seat.player.Name,
			Score:    seat.player.Score,
			Mistakes: seat.player.Mistakes,
			Won:      seat.slot == room.Winner,
		})
	}

	detached := context.WithoutCancel(ctx)
	go func() {
		if err := s.results.RecordResult(detached, result); err != nil {
			log.Printf("record result for room %s: %v", room.ID, err)
		}
	}()
}
