package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gridduel/gridduel/internal/storage"
)

// GetPurchase returns storage.ErrNotFound when the checkout token has not
// been consumed yet.
func (s *Store) GetPurchase(ctx context.Context, checkoutID string) (storage.PurchaseRecord, error) {
	var (
		record      storage.PurchaseRecord
		processedAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx, `
		SELECT checkout_id, room_id, session_id, processed_at
		FROM life_purchases
		WHERE checkout_id = ?`, checkoutID).
		Scan(&record.CheckoutID, &record.RoomID, &record.SessionID, &processedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.PurchaseRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.PurchaseRecord{}, fmt.Errorf("get purchase: %w", err)
	}
	record.ProcessedAt = fromMillis(processedAt)
	return record, nil
}

// PutPurchase records a consumed checkout token. Re-recording the same token
// is a no-op so a retried credit never errors after the first write landed.
func (s *Store) PutPurchase(ctx context.Context, record storage.PurchaseRecord) error {
	processedAt := record.ProcessedAt
	if processedAt.IsZero() {
		processedAt = s.clock().UTC()
	}
	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO life_purchases (checkout_id, room_id, session_id, processed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(checkout_id) DO NOTHING`,
		record.CheckoutID, record.RoomID, record.SessionID, toMillis(processedAt))
	if err != nil {
		return fmt.Errorf("put purchase: %w", err)
	}
	return nil
}
