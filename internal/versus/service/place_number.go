package service

import (
	"context"
	"fmt"

	apperrors "github.com/gridduel/gridduel/internal/platform/errors"
	"github.com/gridduel/gridduel/internal/versus/domain"
)

// PlaceNumberInput is one placement attempt.
type PlaceNumberInput struct {
	RoomID    string
	SessionID string
	Row       int
	Col       int
	Value     int
}

// PlaceNumberResult reports the outcome of a committed placement.
type PlaceNumberResult struct {
	Correct        bool        `json:"correct"`
	ScoreDelta     int         `json:"scoreDelta"`
	CompletedRows  []int       `json:"completedRows,omitempty"`
	CompletedCols  []int       `json:"completedCols,omitempty"`
	CompletedBoxes []int       `json:"completedBoxes,omitempty"`
	Lives          int         `json:"lives"`
	Mistakes       int         `json:"mistakes"`
	PromptPurchase bool        `json:"promptPurchase,omitempty"`
	Completed      bool        `json:"completed,omitempty"`
	Winner         domain.Slot `json:"winner,omitempty"`
	Version        int64       `json:"version"`
}

// PlaceNumber writes a value into the shared board. Incorrect values land on
// the board too, visible to both players, and cost the actor a life. A cell
// holding an incorrect value may be overwritten by either player; prefilled
// cells and correctly solved cells are immutable.
func (s *Service) PlaceNumber(ctx context.Context, input PlaceNumberInput) (PlaceNumberResult, error) {
	ctx, span := s.tracer.Start(ctx, "versus.PlaceNumber")
	defer span.End()

	if err := domain.ValidatePlacement(input.Row, input.Col, input.Value); err != nil {
		return PlaceNumberResult{}, err
	}

	room, slot, err := s.loadActingRoom(ctx, input.RoomID, input.SessionID)
	if err != nil {
		return PlaceNumberResult{}, err
	}
	player := room.PlayerAt(slot)

	if player.Lives <= 0 {
		return PlaceNumberResult{}, apperrors.New(apperrors.CodeNoLives,
			"no lives remaining; purchase a life to keep playing")
	}
	if room.Board.Prefilled(input.Row, input.Col) ||
		room.Board.Current[input.Row][input.Col] == room.Board.Solution[input.Row][input.Col] {
		return PlaceNumberResult{}, apperrors.New(apperrors.CodeCellAlreadyFilled,
			fmt.Sprintf("cell (%d,%d) is already solved", input.Row, input.Col))
	}

	cell := domain.Cell{Row: input.Row, Col: input.Col}
	room.Board.Current[input.Row][input.Col] = input.Value
	if room.Player1 != nil {
		room.Player1.UnclearMistake(cell)
	}
	if room.Player2 != nil {
		room.Player2.UnclearMistake(cell)
	}

	result := PlaceNumberResult{
		Correct: input.Value == room.Board.Solution[input.Row][input.Col],
	}
	if result.Correct {
		player.Notes[input.Row][input.Col] = 0

		score := s.scorer.Score(room.Board, input.Row, input.Col)
		for _, r := range score.Rows {
			room.Board.CompletedRows.Add(r)
		}
		for _, c := range score.Cols {
			room.Board.CompletedCols.Add(c)
		}
		for _, b := range score.Boxes {
			room.Board.CompletedBoxes.Add(b)
		}
		player.Score += score.Points
		result.ScoreDelta = score.Points
		result.CompletedRows = score.Rows
		result.CompletedCols = score.Cols
		result.CompletedBoxes = score.Boxes

		if room.Board.Full() {
			winner := slot
			if opponent := room.Opponent(slot); opponent != nil && opponent.Score > player.Score {
				winner = opponentSlot(slot)
			}
			if err := room.Finish(winner, s.now()); err != nil {
				return PlaceNumberResult{}, apperrors.Wrap(apperrors.CodeUnknown, "finish room", err)
			}
			result.Completed = true
			result.Winner = winner
		}
	} else {
		player.Mistakes++
		if player.Lives > 0 {
			player.Lives--
		}
		result.PromptPurchase = player.Lives == 0
	}
	result.Lives = player.Lives
	result.Mistakes = player.Mistakes
	room.UpdatedAt = s.now()

	version, err := s.stores.Rooms.ApplyMove(ctx, room, room.Version)
	if err != nil {
		return PlaceNumberResult{}, mapStoreErr("place number", err)
	}
	result.Version = version
	room.Version = version

	s.notifier.StateUpdated(ctx, room.ID, slot, version)
	if result.PromptPurchase {
		s.notifier.Notify(ctx, room.ID, slot, "purchase_prompt", "out of lives", version)
	}
	if result.Completed {
		s.notifier.Notify(ctx, room.ID, slot, "game_over", fmt.Sprintf("%s wins", result.Winner), version)
		s.recordResult(ctx, room)
	}
	return result, nil
}

func opponentSlot(slot domain.Slot) domain.Slot {
	if slot == domain.SlotPlayer1 {
		return domain.SlotPlayer2
	}
	return domain.SlotPlayer1
}
