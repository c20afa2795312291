package sqlite

import (
	"context"
	"fmt"

	"github.com/gridduel/gridduel/internal/storage"
	"github.com/gridduel/gridduel/internal/versus/domain"
)

// AppendChange appends one change record; Seq is assigned by the database.
func (s *Store) AppendChange(ctx context.Context, record storage.ChangeRecord) error {
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.clock().UTC()
	}
	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO room_changes (room_id, change_type, actor, payload_json, room_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		record.RoomID,
		string(record.Type),
		string(record.Actor),
		record.PayloadJSON,
		record.RoomVersion,
		toMillis(createdAt),
	)
	if err != nil {
		return fmt.Errorf("append change: %w", err)
	}
	return nil
}

// ListChangesSince returns up to limit records with Seq > afterSeq in
// ascending Seq order.
func (s *Store) ListChangesSince(ctx context.Context, roomID string, afterSeq int64, limit int) ([]storage.ChangeRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT seq, room_id, change_type, actor, payload_json, room_version, created_at
		FROM room_changes
		WHERE room_id = ? AND seq > ?
		ORDER BY seq ASC
		LIMIT ?`, roomID, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("list changes: %w", err)
	}
	defer rows.Close()

	var records []storage.ChangeRecord
	for rows.Next() {
		var (
			record     storage.ChangeRecord
			changeType string
			actor      string
			createdAt  int64
		)
		err := rows.Scan(&record.Seq, &record.RoomID, &changeType, &actor, &record.PayloadJSON, &record.RoomVersion, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		record.Type = storage.ChangeType(changeType)
		record.Actor = domain.Slot(actor)
		record.CreatedAt = fromMillis(createdAt)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate changes: %w", err)
	}
	return records, nil
}
