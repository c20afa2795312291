package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Difficulty selects how many clues the generated puzzle keeps.
type Difficulty string

const (
	DifficultyBeginner Difficulty = "beginner"
	DifficultyMedium   Difficulty = "medium"
	DifficultyHard     Difficulty = "hard"
)

// ParseDifficulty validates a client-supplied difficulty string.
func ParseDifficulty(value string) (Difficulty, error) {
	switch Difficulty(strings.ToLower(strings.TrimSpace(value))) {
	case DifficultyBeginner:
		return DifficultyBeginner, nil
	case DifficultyMedium:
		return DifficultyMedium, nil
	case DifficultyHard:
		return DifficultyHard, nil
	default:
		return "", fmt.Errorf("unknown difficulty %q", value)
	}
}

// Status describes the lifecycle phase of a room.
type Status int

const (
	// StatusUnspecified represents an invalid status value.
	StatusUnspecified Status = iota
	// StatusWaiting indicates the room is waiting for both players to ready up.
	StatusWaiting
	// StatusActive indicates the game countdown has been armed or play is underway.
	StatusActive
	// StatusFinished indicates a player completed the board or the room was abandoned.
	StatusFinished
)

// String returns the persisted representation of the status.
func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusActive:
		return "active"
	case StatusFinished:
		return "finished"
	default:
		return "unspecified"
	}
}

// ParseStatus reverses String for persisted status values.
func ParseStatus(value string) (Status, error) {
	switch value {
	case "waiting":
		return StatusWaiting, nil
	case "active":
		return StatusActive, nil
	case "finished":
		return StatusFinished, nil
	default:
		return StatusUnspecified, fmt.Errorf("unknown room status %q", value)
	}
}

// CanTransitionTo reports whether the status may legally move to next.
// Legal transitions: waiting -> active (start armed), waiting|active -> finished.
// Finished is terminal.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusWaiting:
		return next == StatusActive || next == StatusFinished
	case StatusActive:
		return next == StatusFinished
	default:
		return false
	}
}

var (
	// ErrEmptySessionID indicates a missing session identifier.
	ErrEmptySessionID = errors.New("session id is required")
	// ErrEmptyPlayerName indicates a missing player name.
	ErrEmptyPlayerName = errors.New("player name is required")
)

// DefaultLives is the number of lives each player starts with.
const DefaultLives = 3

// RoomTTL bounds how long an abandoned room survives before lazy expiry.
const RoomTTL = 24 * time.Hour

// Room is one two-player game aggregate. Every persisted mutation bumps
// Version by exactly one; readers compare against the version they observed
// before writing.
type Room struct {
	ID         string
	Version    int64
	Difficulty Difficulty
	Status     Status
	StartAt    *time.Time
	Winner     Slot
	CreatedAt  time.Time
	UpdatedAt  time.Time
	FinishedAt *time.Time
	ExpiresAt  time.Time

	Player1 *Player
	Player2 *Player

	Board Board
}

// CreateRoomInput describes the metadata needed to create a room.
type CreateRoomInput struct {
	SessionID  string
	Name       string
	Difficulty Difficulty
	Board      Board
}

// CreateRoom creates a new waiting room with player1 seated.
func CreateRoom(input CreateRoomInput, now func() time.Time, idGenerator func() (string, error)) (Room, error) {
	if now == nil {
		now = time.Now
	}

	normalized, err := NormalizeCreateRoomInput(input)
	if err != nil {
		return Room{}, err
	}

	roomID, err := idGenerator()
	if err != nil {
		return Room{}, fmt.Errorf("generate room id: %w", err)
	}

	createdAt := now().UTC()
	return Room{
		ID:         roomID,
		Version:    0,
		Difficulty: normalized.Difficulty,
		Status:     StatusWaiting,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
		ExpiresAt:  createdAt.Add(RoomTTL),
		Player1:    newPlayer(normalized.SessionID, normalized.Name),
		Board:      normalized.Board,
	}, nil
}

// NormalizeCreateRoomInput trims and validates room creation metadata.
func NormalizeCreateRoomInput(input CreateRoomInput) (CreateRoomInput, error) {
	input.SessionID = strings.TrimSpace(input.SessionID)
	input.Name = strings.TrimSpace(input.Name)
	if input.SessionID == "" {
		return CreateRoomInput{}, ErrEmptySessionID
	}
	if input.Name == "" {
		return CreateRoomInput{}, ErrEmptyPlayerName
	}
	if _, err := ParseDifficulty(string(input.Difficulty)); err != nil {
		return CreateRoomInput{}, err
	}
	return input, nil
}

func newPlayer(sessionID, name string) *Player {
	return &Player{
		SessionID: sessionID,
		Name:      name,
		Lives:     DefaultLives,
		Connected: true,
	}
}

// SeatPlayer2 seats the second player. The caller checks room phase first.
func (r *Room) SeatPlayer2(sessionID, name string) (*Player, error) {
	sessionID = strings.TrimSpace(sessionID)
	name = strings.TrimSpace(name)
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}
	if name == "" {
		return nil, ErrEmptyPlayerName
	}
	if r.Player2 != nil {
		return nil, fmt.Errorf("player2 seat is taken")
	}
	r.Player2 = newPlayer(sessionID, name)
	return r.Player2, nil
}

// PlayerBySession resolves an acting session to its seat.
func (r *Room) PlayerBySession(sessionID string) (*Player, Slot) {
	if r.Player1 != nil && r.Player1.SessionID == sessionID {
		return r.Player1, SlotPlayer1
	}
	if r.Player2 != nil && r.Player2.SessionID == sessionID {
		return r.Player2, SlotPlayer2
	}
	return nil, SlotNone
}

// PlayerAt returns the player in the given seat, nil when unseated.
func (r *Room) PlayerAt(slot Slot) *Player {
	switch slot {
	case SlotPlayer1:
		return r.Player1
	case SlotPlayer2:
		return r.Player2
	default:
		return nil
	}
}

// Opponent returns the other seat's player, nil when unseated.
func (r *Room) Opponent(slot Slot) *Player {
	switch slot {
	case SlotPlayer1:
		return r.Player2
	case SlotPlayer2:
		return r.Player1
	default:
		return nil
	}
}

// Started reports whether the game countdown has elapsed.
func (r *Room) Started(now time.Time) bool {
	return r.StartAt != nil && !r.StartAt.After(now)
}

// Expired reports whether the room is past its expiry and should be treated
// as deleted by readers.
func (r *Room) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !r.ExpiresAt.After(now)
}

// BothReady reports whether both seats are filled, ready, and connected.
func (r *Room) BothReady() bool {
	return r.Player1 != nil && r.Player2 != nil &&
		r.Player1.Ready && r.Player2.Ready &&
		r.Player1.Connected && r.Player2.Connected
}

// Finish transitions the room to finished with the given winner.
func (r *Room) Finish(winner Slot, finishedAt time.Time) error {
	if !r.Status.CanTransitionTo(StatusFinished) {
		return fmt.Errorf("cannot finish room in status %s", r.Status)
	}
	r.Status = StatusFinished
	r.Winner = winner
	at := finishedAt.UTC()
	r.FinishedAt = &at
	return nil
}
