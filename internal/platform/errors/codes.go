// Package errors provides structured error handling with machine-readable codes.
package errors

import "net/http"

// Code is a machine-readable error code surfaced at the dispatch boundary.
type Code string

const (
	// CodeUnknown represents an unexpected internal failure.
	CodeUnknown Code = "UNKNOWN"

	// Room errors
	CodeRoomNotFound   Code = "ROOM_NOT_FOUND"
	CodeRoomCreation   Code = "ROOM_CREATION_FAILED"
	CodeRoomFull       Code = "ROOM_FULL"
	CodeRoomNotWaiting Code = "ROOM_NOT_WAITING"

	// Player errors
	CodePlayerNotFound Code = "PLAYER_NOT_FOUND"

	// Game phase errors
	CodeGameNotStarted Code = "GAME_NOT_STARTED"

	// Move errors
	CodeInvalidMove       Code = "INVALID_MOVE"
	CodeCellAlreadyFilled Code = "CELL_ALREADY_FILLED"
	CodeNoLives           Code = "NO_LIVES"

	// Concurrency errors
	CodeVersionConflict Code = "VERSION_CONFLICT"

	// Purchase errors
	CodeAlreadyProcessed  Code = "ALREADY_PROCESSED"
	CodeMissingCheckoutID Code = "MISSING_CHECKOUT_ID"

	// Infrastructure errors
	CodeNetworkError Code = "NETWORK_ERROR"
)

// HTTPStatus maps the code to the transport status used by the dispatch boundary.
// Codes without an explicit mapping are client errors.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeVersionConflict:
		return http.StatusConflict
	case CodeRoomNotFound:
		return http.StatusNotFound
	case CodePlayerNotFound:
		return http.StatusForbidden
	case CodeUnknown:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
