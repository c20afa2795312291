package service

import (
	"context"

	"github.com/gridduel/gridduel/internal/versus/domain"
)

// ClearCellResult reports what clearing a cell actually did.
type ClearCellResult struct {
	// Erased reports that the shared board value was removed. Only correct
	// values can be erased.
	Erased bool `json:"erased"`
	// ClearedMistake reports that an incorrect value was hidden for the
	// acting player while staying on the shared board.
	ClearedMistake bool  `json:"clearedMistake"`
	Version        int64 `json:"version"`
}

// ClearCell clears a cell for the acting player. An incorrect value stays on
// the shared board (the opponent must still see the mistake) and is only
// marked cleared in the actor's own state; a correct value is erased from the
// board; an empty cell loses only the actor's notes.
func (s *Service) ClearCell(ctx context.Context, input CellInput) (ClearCellResult, error) {
	ctx, span := s.tracer.Start(ctx, "versus.ClearCell")
	defer span.End()

	room, slot, err := s.loadActingRoom(ctx, input.RoomID, input.SessionID)
	if err != nil {
		return ClearCellResult{}, err
	}
	if err := domain.ValidateEditableCell(room.Board, input.Row, input.Col); err != nil {
		return ClearCellResult{}, err
	}

	player := room.PlayerAt(slot)
	cell := domain.Cell{Row: input.Row, Col: input.Col}
	player.Notes[input.Row][input.Col] = 0
	room.UpdatedAt = s.now()

	current := room.Board.Current[input.Row][input.Col]
	solution := room.Board.Solution[input.Row][input.Col]

	var result ClearCellResult
	switch {
	case current == 0:
		// Notes only; metadata write.
	case current == solution:
		room.Board.Current[input.Row][input.Col] = 0
		player.UnclearMistake(cell)
		result.Erased = true
	default:
		player.ClearMistake(cell)
		result.ClearedMistake = true
	}

	var version int64
	if result.Erased {
		version, err = s.stores.Rooms.ApplyMove(ctx, room, room.Version)
	} else {
		version, err = s.stores.Rooms.UpdateMetadata(ctx, room, room.Version)
	}
	if err != nil {
		return ClearCellResult{}, mapStoreErr("clear cell", err)
	}
	result.Version = version

	s.notifier.StateUpdated(ctx, room.ID, slot, version)
	return result, nil
}
