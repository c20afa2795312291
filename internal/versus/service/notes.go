package service

import (
	"context"

	"github.com/gridduel/gridduel/internal/versus/domain"
)

// NoteInput is one note toggle.
type NoteInput struct {
	RoomID    string
	SessionID string
	Row       int
	Col       int
	Value     int
}

// ToggleNote flips a candidate digit in the acting player's note set for one
// cell. Notes are per-player, never shared.
func (s *Service) ToggleNote(ctx context.Context, input NoteInput) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "versus.ToggleNote")
	defer span.End()

	if err := domain.ValidateValue(input.Value); err != nil {
		return 0, err
	}

	room, slot, err := s.loadActingRoom(ctx, input.RoomID, input.SessionID)
	if err != nil {
		return 0, err
	}
	if err := domain.ValidateEditableCell(room.Board, input.Row, input.Col); err != nil {
		return 0, err
	}

	player := room.PlayerAt(slot)
	player.Notes[input.Row][input.Col] = player.Notes[input.Row][input.Col].Toggle(input.Value)
	room.UpdatedAt = s.now()

	version, err := s.stores.Rooms.UpdateMetadata(ctx, room, room.Version)
	if err != nil {
		return 0, mapStoreErr("toggle note", err)
	}
	s.notifier.StateUpdated(ctx, room.ID, slot, version)
	return version, nil
}

// CellInput addresses one cell for the acting player.
type CellInput struct {
	RoomID    string
	SessionID string
	Row       int
	Col       int
}

// ClearCellNotes empties the acting player's note set for one cell.
func (s *Service) ClearCellNotes(ctx context.Context, input CellInput) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "versus.ClearCellNotes")
	defer span.End()

	if err := domain.ValidateCell(input.Row, input.Col); err != nil {
		return 0, err
	}

	room, slot, err := s.loadActingRoom(ctx, input.RoomID, input.SessionID)
	if err != nil {
		return 0, err
	}

	player := room.PlayerAt(slot)
	player.Notes[input.Row][input.Col] = 0
	room.UpdatedAt = s.now()

	version, err := s.stores.Rooms.UpdateMetadata(ctx, room, room.Version)
	if err != nil {
		return 0, mapStoreErr("clear cell notes", err)
	}
	s.notifier.StateUpdated(ctx, room.ID, slot, version)
	return version, nil
}

// ClearNotes empties the acting player's entire note grid.
func (s *Service) ClearNotes(ctx context.Context, roomID, sessionID string) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "versus.ClearNotes")
	defer span.End()

	room, slot, err := s.loadActingRoom(ctx, roomID, sessionID)
	if err != nil {
		return 0, err
	}

	player := room.PlayerAt(slot)
	player.Notes = domain.NoteGrid{}
	room.UpdatedAt = s.now()

	version, err := s.stores.Rooms.UpdateMetadata(ctx, room, room.Version)
	if err != nil {
		return 0, mapStoreErr("clear notes", err)
	}
	s.notifier.StateUpdated(ctx, room.ID, slot, version)
	return version, nil
}
