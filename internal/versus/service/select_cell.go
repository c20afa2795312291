package service

import (
	"context"

	"github.com/gridduel/gridduel/internal/versus/domain"
)

// SelectCell records the acting player's cursor position. The write is
// unguarded and does not bump the room version: selection is a transient UI
// hint where last-write-wins is acceptable. The store patches the selection
// in place rather than writing seat state from this handler's snapshot.
func (s *Service) SelectCell(ctx context.Context, input CellInput) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "versus.SelectCell")
	defer span.End()

	if err := domain.ValidateCell(input.Row, input.Col); err != nil {
		return 0, err
	}

	room, slot, err := s.loadActingRoom(ctx, input.RoomID, input.SessionID)
	if err != nil {
		return 0, err
	}

	cell := domain.Cell{Row: input.Row, Col: input.Col}
	version, err := s.stores.Rooms.SetSelectedCell(ctx, room.ID, slot, cell)
	if err != nil {
		return 0, mapStoreErr("select cell", err)
	}

	s.notifier.CellSelected(ctx, room.ID, slot, cell, version)
	return version, nil
}
