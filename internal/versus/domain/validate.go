package domain

import (
	"fmt"

	apperrors "github.com/gridduel/gridduel/internal/platform/errors"
)

// ValidateCell checks that the coordinates address a board cell.
func ValidateCell(row, col int) error {
	if row < 0 || row >= Size || col < 0 || col >= Size {
		return apperrors.New(apperrors.CodeInvalidMove,
			fmt.Sprintf("cell (%d,%d) is out of bounds", row, col))
	}
	return nil
}

// ValidateValue checks that the value is a playable digit.
func ValidateValue(value int) error {
	if value < 1 || value > Size {
		return apperrors.New(apperrors.CodeInvalidMove,
			fmt.Sprintf("value %d is outside 1-9", value))
	}
	return nil
}

// ValidatePlacement checks coordinates and value together.
func ValidatePlacement(row, col, value int) error {
	if err := ValidateCell(row, col); err != nil {
		return err
	}
	return ValidateValue(value)
}

// ValidateEditableCell checks coordinates and rejects prefilled cells, which
// are never editable by either player.
func ValidateEditableCell(board Board, row, col int) error {
	if err := ValidateCell(row, col); err != nil {
		return err
	}
	if board.Prefilled(row, col) {
		return apperrors.New(apperrors.CodeInvalidMove,
			fmt.Sprintf("cell (%d,%d) is prefilled", row, col))
	}
	return nil
}
