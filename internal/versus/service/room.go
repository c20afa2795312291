package service

import (
	"context"
	"fmt"

	apperrors "github.com/gridduel/gridduel/internal/platform/errors"
	"github.com/gridduel/gridduel/internal/versus/domain"
)

// CreateRoomInput carries the metadata for a new room.
type CreateRoomInput struct {
	SessionID  string
	Name       string
	Difficulty string
}

// CreateRoom generates a puzzle and creates a waiting room with the caller
// seated as player1.
func (s *Service) CreateRoom(ctx context.Context, input CreateRoomInput) (RoomView, error) {
	ctx, span := s.tracer.Start(ctx, "versus.CreateRoom")
	defer span.End()

	difficulty, err := domain.ParseDifficulty(input.Difficulty)
	if err != nil {
		return RoomView{}, apperrors.Wrap(apperrors.CodeInvalidMove, "parse difficulty", err)
	}

	generated, err := s.puzzles.Generate(difficulty)
	if err != nil {
		return RoomView{}, apperrors.Wrap(apperrors.CodeRoomCreation, "generate puzzle", err)
	}

	room, err := domain.CreateRoom(domain.CreateRoomInput{
		SessionID:  input.SessionID,
		Name:       input.Name,
		Difficulty: difficulty,
		Board: domain.Board{
			Current:  generated.Clues,
			Puzzle:   generated.Clues,
			Solution: generated.Solution,
		},
	}, s.clock, s.idGenerator)
	if err != nil {
		return RoomView{}, apperrors.Wrap(apperrors.CodeRoomCreation, "create room", err)
	}

	if err := s.stores.Rooms.CreateRoom(ctx, room); err != nil {
		return RoomView{}, apperrors.Wrap(apperrors.CodeRoomCreation, "persist room", err)
	}
	return NewRoomView(room, domain.SlotPlayer1), nil
}

// JoinRoomInput identifies the room and the joining player.
type JoinRoomInput struct {
	RoomID    string
	SessionID string
	Name      string
}

// JoinRoom seats the caller as player2. Rejoining a room the session already
// occupies returns the current state without mutating anything.
func (s *Service) JoinRoom(ctx context.Context, input JoinRoomInput) (RoomView, error) {
	ctx, span := s.tracer.Start(ctx, "versus.JoinRoom")
	defer span.End()

	room, err := s.stores.Rooms.GetRoom(ctx, input.RoomID)
	if err != nil {
		return RoomView{}, mapStoreErr("join room", err)
	}

	if player, slot := room.PlayerBySession(input.SessionID); player != nil {
		return NewRoomView(room, slot), nil
	}
	if room.Status != domain.StatusWaiting {
		return RoomView{}, apperrors.New(apperrors.CodeRoomNotWaiting,
			fmt.Sprintf("room %s is %s, not waiting", room.ID, room.Status))
	}
	if room.Player2 != nil {
		return RoomView{}, apperrors.New(apperrors.CodeRoomFull,
			fmt.Sprintf("room %s already has two players", room.ID))
	}

	if _, err := room.SeatPlayer2(input.SessionID, input.Name); err != nil {
		return RoomView{}, apperrors.Wrap(apperrors.CodeInvalidMove, "seat player", err)
	}
	room.UpdatedAt = s.now()

	version, err := s.stores.Rooms.UpdateMetadata(ctx, room, room.Version)
	if err != nil {
		return RoomView{}, mapStoreErr("join room", err)
	}
	room.Version = version

	s.notifier.StateUpdated(ctx, room.ID, domain.SlotPlayer2, version)
	return NewRoomView(room, domain.SlotPlayer2), nil
}

// GetState returns the caller's view of the room.
func (s *Service) GetState(ctx context.Context, roomID, sessionID string) (RoomView, error) {
	ctx, span := s.tracer.Start(ctx, "versus.GetState")
	defer span.End()

	room, slot, err := s.loadRoomForSession(ctx, roomID, sessionID)
	if err != nil {
		return RoomView{}, err
	}
	return NewRoomView(room, slot), nil
}
