package service

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/gridduel/gridduel/internal/platform/errors"
	"github.com/gridduel/gridduel/internal/storage"
)

// PurchaseLifeInput carries the idempotency token for one life purchase.
type PurchaseLifeInput struct {
	RoomID     string
	SessionID  string
	CheckoutID string
}

// PurchaseLifeResult reports the credited life.
type PurchaseLifeResult struct {
	Lives   int   `json:"lives"`
	Version int64 `json:"version"`
}

// PurchaseLife credits one life against a checkout token. The ledger is
// checked before the credit and written after it, so a consumed token is
// rejected on every later attempt. A ledger write failure after a successful
// credit is reported as retryable with the same token.
func (s *Service) PurchaseLife(ctx context.Context, input PurchaseLifeInput) (PurchaseLifeResult, error) {
	ctx, span := s.tracer.Start(ctx, "versus.PurchaseLife")
	defer span.End()

	checkoutID := strings.TrimSpace(input.CheckoutID)
	if checkoutID == "" {
		return PurchaseLifeResult{}, apperrors.New(apperrors.CodeMissingCheckoutID,
			"checkout id is required")
	}

	if _, err := s.stores.Purchases.GetPurchase(ctx, checkoutID); err == nil {
		return PurchaseLifeResult{}, apperrors.New(apperrors.CodeAlreadyProcessed,
			"checkout token was already consumed")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return PurchaseLifeResult{}, apperrors.Wrap(apperrors.CodeNetworkError,
			"check purchase ledger", err)
	}

	room, slot, err := s.loadActingRoom(ctx, input.RoomID, input.SessionID)
	if err != nil {
		return PurchaseLifeResult{}, err
	}

	player := room.PlayerAt(slot)
	player.Lives++
	room.UpdatedAt = s.now()

	version, err := s.stores.Rooms.UpdateMetadata(ctx, room, room.Version)
	if err != nil {
		return PurchaseLifeResult{}, mapStoreErr("purchase life", err)
	}

	err = s.stores.Purchases.PutPurchase(ctx, storage.PurchaseRecord{
		CheckoutID:  checkoutID,
		RoomID:      room.ID,
		SessionID:   input.SessionID,
		ProcessedAt: s.now(),
	})
	if err != nil {
		// The credit committed but the token is not recorded yet. Resubmitting
		// with the same token is safe: the ledger check runs before the credit.
		return PurchaseLifeResult{}, apperrors.Wrap(apperrors.CodeNetworkError,
			"record purchase; resubmit with the same checkout id", err)
	}

	s.notifier.StateUpdated(ctx, room.ID, slot, version)
	return PurchaseLifeResult{Lives: player.Lives, Version: version}, nil
}
