package service

import (
	"time"

	"github.com/gridduel/gridduel/internal/versus/domain"
)

// BoardView is the client-visible board. The solution grid never leaves the
// server.
type BoardView struct {
	Current        domain.Grid `json:"current"`
	Puzzle         domain.Grid `json:"puzzle"`
	CompletedRows  []int       `json:"completedRows"`
	CompletedCols  []int       `json:"completedCols"`
	CompletedBoxes []int       `json:"completedBoxes"`
}

// RoomView is the client-visible room state.
type RoomView struct {
	ID         string         `json:"id"`
	Version    int64          `json:"version"`
	Difficulty string         `json:"difficulty"`
	Status     string         `json:"status"`
	StartAt    *time.Time     `json:"startAt,omitempty"`
	Winner     domain.Slot    `json:"winner,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	FinishedAt *time.Time     `json:"finishedAt,omitempty"`
	Player1    *domain.Player `json:"player1,omitempty"`
	Player2    *domain.Player `json:"player2,omitempty"`
	Board      BoardView      `json:"board"`
}

// NewRoomView projects a room into the shape visible to one viewer. The
// opponent's seat is stripped of per-player fields (notes, selection,
// cleared-mistake markers) before it leaves the server.
func NewRoomView(room domain.Room, viewer domain.Slot) RoomView {
	return RoomView{
		ID:         room.ID,
		Version:    room.Version,
		Difficulty: string(room.Difficulty),
		Status:     room.Status.String(),
		StartAt:    room.StartAt,
		Winner:     room.Winner,
		CreatedAt:  room.CreatedAt,
		FinishedAt: room.FinishedAt,
		Player1:    viewPlayer(room.Player1, viewer == domain.SlotPlayer1),
		Player2:    viewPlayer(room.Player2, viewer == domain.SlotPlayer2),
		Board: BoardView{
			Current:        room.Board.Current,
			Puzzle:         room.Board.Puzzle,
			CompletedRows:  room.Board.CompletedRows.Indices(),
			CompletedCols:  room.Board.CompletedCols.Indices(),
			CompletedBoxes: room.Board.CompletedBoxes.Indices(),
		},
	}
}

func viewPlayer(player *domain.Player, own bool) *domain.Player {
	if player == nil {
		return nil
	}
	out := *player
	if !own {
		out.Notes = domain.NoteGrid{}
		out.SelectedCell = nil
		out.ClearedMistakes = nil
	}
	return &out
}
