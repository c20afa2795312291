package service

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/gridduel/gridduel/internal/platform/errors"
	"github.com/gridduel/gridduel/internal/storage"
	"github.com/gridduel/gridduel/internal/versus/domain"
)

func TestPlaceNumberIncorrectThenCorrect(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	roomID := env.startedRoom(t, domain.Cell{Row: 0, Col: 0}, domain.Cell{Row: 8, Col: 8})
	sol := solvedGrid()
	correct := sol[0][0]
	wrong := correct%domain.Size + 1

	if _, err := env.svc.ToggleNote(ctx, NoteInput{RoomID: roomID, SessionID: "s1", Row: 0, Col: 0, Value: 9}); err != nil {
		t.Fatalf("ToggleNote: %v", err)
	}

	result, err := env.svc.PlaceNumber(ctx, PlaceNumberInput{RoomID: roomID, SessionID: "s1", Row: 0, Col: 0, Value: wrong})
	if err != nil {
		t.Fatalf("PlaceNumber wrong: %v", err)
	}
	if result.Correct {
		t.Error("placement should be incorrect")
	}
	if result.Mistakes != 1 || result.Lives != domain.DefaultLives-1 {
		t.Errorf("mistakes = %d, lives = %d", result.Mistakes, result.Lives)
	}
	if result.ScoreDelta != 0 {
		t.Errorf("scoreDelta = %d, want 0", result.ScoreDelta)
	}

	room, err := env.store.GetRoom(ctx, roomID)
	if err != nil {
		t.Fatalf("GetRoom: %v", err)
	}
	if room.Board.Current[0][0] != wrong {
		t.Errorf("board[0][0] = %d, want the wrong value %d on the shared board", room.Board.Current[0][0], wrong)
	}
	if !room.Player1.Notes[0][0].Has(9) {
		t.Error("incorrect placement should not clear notes")
	}

	result, err = env.svc.PlaceNumber(ctx, PlaceNumberInput{RoomID: roomID, SessionID: "s1", Row: 0, Col: 0, Value: correct})
	if err != nil {
		t.Fatalf("PlaceNumber correct: %v", err)
	}
	if !result.Correct {
		t.Error("placement should be correct")
	}
	// Placement plus row 0, column 0, and box 0 completing.
	if result.ScoreDelta != 10+3*50 {
		t.Errorf("scoreDelta = %d, want 160", result.ScoreDelta)
	}
	if result.Completed {
		t.Error("board still has an empty cell")
	}

	room, err = env.store.GetRoom(ctx, roomID)
	if err != nil {
		t.Fatalf("GetRoom: %v", err)
	}
	if room.Board.Current[0][0] != correct {
		t.Errorf("board[0][0] = %d, want %d", room.Board.Current[0][0], correct)
	}
	if room.Player1.Notes[0][0] != 0 {
		t.Error("correct placement should clear the actor's notes at the cell")
	}
	if room.Player1.Score != 160 {
		t.Errorf("score = %d, want 160", room.Player1.Score)
	}
	if room.Version != result.Version {
		t.Errorf("stored version = %d, result version = %d", room.Version, result.Version)
	}
}

func TestPlaceNumberOverwriteByOpponent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	roomID := env.startedRoom(t, domain.Cell{Row: 0, Col: 0}, domain.Cell{Row: 8, Col: 8})
	sol := solvedGrid()
	wrong := sol[0][0]%domain.Size + 1

	if _, err := env.svc.PlaceNumber(ctx, PlaceNumberInput{RoomID: roomID, SessionID: "s1", Row: 0, Col: 0, Value: wrong}); err != nil {
		t.Fatalf("PlaceNumber wrong: %v", err)
	}
	if _, err := env.svc.ClearCell(ctx, CellInput{RoomID: roomID, SessionID: "s2", Row: 0, Col: 0}); err != nil {
		t.Fatalf("ClearCell: %v", err)
	}

	result, err := env.svc.PlaceNumber(ctx, PlaceNumberInput{RoomID: roomID, SessionID: "s2", Row: 0, Col: 0, Value: sol[0][0]})
	if err != nil {
		t.Fatalf("opponent overwrite: %v", err)
	}
	if !result.Correct {
		t.Error("overwrite with the solution value should score")
	}

	room, _ := env.store.GetRoom(ctx, roomID)
	if room.Player2.Score == 0 {
		t.Error("overwriting player should receive the points")
	}
	if room.Player2.ClearedMistakes[domain.Cell{Row: 0, Col: 0}.Key()] {
		t.Error("placement should drop the stale cleared-mistake marker")
	}
}

func TestPlaceNumberCellAlreadyFilled(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	roomID := env.startedRoom(t, domain.Cell{Row: 0, Col: 0}, domain.Cell{Row: 8, Col: 8})
	sol := solvedGrid()

	// Prefilled cell.
	_, err := env.svc.PlaceNumber(ctx, PlaceNumberInput{RoomID: roomID, SessionID: "s1", Row: 1, Col: 1, Value: 5})
	if code := codeOf(t, err); code != apperrors.CodeCellAlreadyFilled {
		t.Errorf("code = %s, want CELL_ALREADY_FILLED for prefilled cell", code)
	}

	// Correctly solved cell.
	if _, err := env.svc.PlaceNumber(ctx, PlaceNumberInput{RoomID: roomID, SessionID: "s1", Row: 0, Col: 0, Value: sol[0][0]}); err != nil {
		t.Fatalf("PlaceNumber: %v", err)
	}
	_, err = env.svc.PlaceNumber(ctx, PlaceNumberInput{RoomID: roomID, SessionID: "s2", Row: 0, Col: 0, Value: sol[0][0]})
	if code := codeOf(t, err); code != apperrors.CodeCellAlreadyFilled {
		t.Errorf("code = %s, want CELL_ALREADY_FILLED for solved cell", code)
	}
}

func TestPlaceNumberNoLives(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	roomID := env.startedRoom(t, domain.Cell{Row: 0, Col: 0})

	stored := env.store.rooms[roomID]
	stored.Player1.Lives = 0
	env.store.rooms[roomID] = stored
	before := stored.Version

	_, err := env.svc.PlaceNumber(ctx, PlaceNumberInput{RoomID: roomID, SessionID: "s1", Row: 0, Col: 0, Value: 5})
	if code := codeOf(t, err); code != apperrors.CodeNoLives {
		t.Errorf("code = %s, want NO_LIVES", code)
	}
	if env.store.rooms[roomID].Version != before {
		t.Error("rejected placement must not mutate the room")
	}
}

func TestPlaceNumberPurchasePrompt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	roomID := env.startedRoom(t, domain.Cell{Row: 0, Col: 0}, domain.Cell{Row: 8, Col: 8})
	sol := solvedGrid()
	wrong := sol[0][0]%domain.Size + 1

	stored := env.store.rooms[roomID]
	stored.Player1.Lives = 1
	env.store.rooms[roomID] = stored

	result, err := env.svc.PlaceNumber(ctx, PlaceNumberInput{RoomID: roomID, SessionID: "s1", Row: 0, Col: 0, Value: wrong})
	if err != nil {
		t.Fatalf("PlaceNumber: %v", err)
	}
	if !result.PromptPurchase || result.Lives != 0 {
		t.Errorf("result = %+v, want purchase prompt at zero lives", result)
	}
	if len(env.outbox.byType(storage.ChangeNotification)) != 1 {
		t.Error("purchase prompt should append a notification change")
	}
}

func TestPlaceNumberWinTieBreak(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	roomID := env.startedRoom(t, domain.Cell{Row: 0, Col: 0})
	sol := solvedGrid()

	// A single correct placement completes the board and awards 160 points.
	// Seed the opponent to the same total so the scores tie exactly.
	stored := env.store.rooms[roomID]
	stored.Player1.Score = 160
	env.store.rooms[roomID] = stored

	result, err := env.svc.PlaceNumber(ctx, PlaceNumberInput{RoomID: roomID, SessionID: "s2", Row: 0, Col: 0, Value: sol[0][0]})
	if err != nil {
		t.Fatalf("PlaceNumber: %v", err)
	}
	if !result.Completed {
		t.Fatal("board should be complete")
	}
	if result.Winner != domain.SlotPlayer2 {
		t.Errorf("winner = %s, want the player whose placement completed the board", result.Winner)
	}

	room, _ := env.store.GetRoom(ctx, roomID)
	if room.Status != domain.StatusFinished || room.Winner != domain.SlotPlayer2 {
		t.Errorf("room = status %s, winner %s", room.Status, room.Winner)
	}
	if room.FinishedAt == nil {
		t.Error("finishedAt should be set")
	}

	select {
	case recorded := <-env.recorder.results:
		if recorded.Winner != domain.SlotPlayer2 || len(recorded.Players) != 2 {
			t.Errorf("recorded = %+v", recorded)
		}
	case <-time.After(time.Second):
		t.Error("completion bookkeeping was not dispatched")
	}
}

func TestPlaceNumberWinHigherScore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	roomID := env.startedRoom(t, domain.Cell{Row: 0, Col: 0})
	sol := solvedGrid()

	stored := env.store.rooms[roomID]
	stored.Player1.Score = 10000
	env.store.rooms[roomID] = stored

	result, err := env.svc.PlaceNumber(ctx, PlaceNumberInput{RoomID: roomID, SessionID: "s2", Row: 0, Col: 0, Value: sol[0][0]})
	if err != nil {
		t.Fatalf("PlaceNumber: %v", err)
	}
	if result.Winner != domain.SlotPlayer1 {
		t.Errorf("winner = %s, want the higher-scored player", result.Winner)
	}
}

func TestPlaceNumberVersionConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	roomID := env.startedRoom(t, domain.Cell{Row: 0, Col: 0})
	env.store.conflictGuarded = 1

	_, err := env.svc.PlaceNumber(ctx, PlaceNumberInput{RoomID: roomID, SessionID: "s1", Row: 0, Col: 0, Value: 5})
	if code := codeOf(t, err); code != apperrors.CodeVersionConflict {
		t.Fatalf("code = %s, want VERSION_CONFLICT", code)
	}

	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || appErr.Metadata["version"] == "" {
		t.Error("conflict should carry the authoritative version in metadata")
	}
	var conflict *storage.VersionConflictError
	if !errors.As(err, &conflict) {
		t.Error("conflict cause should remain reachable via errors.As")
	}
}

func TestPlaceNumberAfterFinish(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	roomID := env.startedRoom(t, domain.Cell{Row: 0, Col: 0})
	sol := solvedGrid()

	if _, err := env.svc.PlaceNumber(ctx, PlaceNumberInput{RoomID: roomID, SessionID: "s1", Row: 0, Col: 0, Value: sol[0][0]}); err != nil {
		t.Fatalf("winning placement: %v", err)
	}

	_, err := env.svc.PlaceNumber(ctx, PlaceNumberInput{RoomID: roomID, SessionID: "s2", Row: 0, Col: 0, Value: sol[0][0]})
	if code := codeOf(t, err); code != apperrors.CodeGameNotStarted {
		t.Errorf("code = %s, want GAME_NOT_STARTED after finish", code)
	}
}

func TestPlaceNumberValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	roomID := env.startedRoom(t, domain.Cell{Row: 0, Col: 0})

	for _, input := range []PlaceNumberInput{
		{RoomID: roomID, SessionID: "s1", Row: -1, Col: 0, Value: 5},
		{RoomID: roomID, SessionID: "s1", Row: 0, Col: 9, Value: 5},
		{RoomID: roomID, SessionID: "s1", Row: 0, Col: 0, Value: 0},
		{RoomID: roomID, SessionID: "s1", Row: 0, Col: 0, Value: 10},
	} {
		_, err := env.svc.PlaceNumber(ctx, input)
		if code := codeOf(t, err); code != apperrors.CodeInvalidMove {
			t.Errorf("input %+v: code = %s, want INVALID_MOVE", input, code)
		}
	}
}
