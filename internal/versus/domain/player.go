package domain

import (
	"fmt"
	"time"
)

// Slot identifies which seat a player occupies in a room.
type Slot string

const (
	SlotNone    Slot = ""
	SlotPlayer1 Slot = "player1"
	SlotPlayer2 Slot = "player2"
)

// Cell addresses one board position.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Key returns the canonical map key for the cell.
func (c Cell) Key() string {
	return fmt.Sprintf("%d-%d", c.Row, c.Col)
}

// NoteSet is a set of candidate digits 1-9 stored as a bitmask.
type NoteSet uint16

// Has reports whether digit v is noted.
func (n NoteSet) Has(v int) bool {
	if v < 1 || v > Size {
		return false
	}
	return n&(1<<uint(v)) != 0
}

// Toggle returns the set with digit v flipped.
func (n NoteSet) Toggle(v int) NoteSet {
	if v < 1 || v > Size {
		return n
	}
	return n ^ (1 << uint(v))
}

// Digits returns the noted digits in ascending order.
func (n NoteSet) Digits() []int {
	var out []int
	for v := 1; v <= Size; v++ {
		if n.Has(v) {
			out = append(out, v)
		}
	}
	return out
}

// NoteGrid holds per-cell candidate notes for one player.
type NoteGrid [Size][Size]NoteSet

// Player is one seat's state within a room.
type Player struct {
	SessionID          string          `json:"sessionId"`
	Name               string          `json:"name"`
	Score              int             `json:"score"`
	Lives              int             `json:"lives"`
	Mistakes           int             `json:"mistakes"`
	Ready              bool            `json:"ready"`
	Connected          bool            `json:"connected"`
	SelectedCell       *Cell           `json:"selectedCell,omitempty"`
	Notes              NoteGrid        `json:"notes"`
	ClearedMistakes    map[string]bool `json:"clearedMistakes,omitempty"`
	LastDisconnectedAt *time.Time      `json:"lastDisconnectedAt,omitempty"`
}

// ClearMistake marks the cell as visually cleared for this player only. The
// shared board value is untouched so the opponent still sees the mistake.
func (p *Player) ClearMistake(cell Cell) {
	if p.ClearedMistakes == nil {
		p.ClearedMistakes = make(map[string]bool)
	}
	p.ClearedMistakes[cell.Key()] = true
}

// UnclearMistake drops a stale cleared-mistake marker after the cell changes.
func (p *Player) UnclearMistake(cell Cell) {
	delete(p.ClearedMistakes, cell.Key())
}
