package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := New(CodeNoLives, "player has no lives")
	if !errors.Is(err, New(CodeNoLives, "different message")) {
		t.Fatal("expected errors with the same code to match")
	}
	if errors.Is(err, New(CodeInvalidMove, "player has no lives")) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(CodeNetworkError, "persist room", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable via errors.Is")
	}
	if err.Error() != "persist room" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(New(CodeVersionConflict, "conflict")); got != CodeVersionConflict {
		t.Fatalf("expected VERSION_CONFLICT, got %s", got)
	}
	wrapped := fmt.Errorf("handler: %w", New(CodeRoomNotFound, "missing"))
	if got := CodeOf(wrapped); got != CodeRoomNotFound {
		t.Fatalf("expected ROOM_NOT_FOUND through wrapping, got %s", got)
	}
	if got := CodeOf(errors.New("plain")); got != CodeUnknown {
		t.Fatalf("expected UNKNOWN for plain errors, got %s", got)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{CodeVersionConflict, http.StatusConflict},
		{CodeRoomNotFound, http.StatusNotFound},
		{CodePlayerNotFound, http.StatusForbidden},
		{CodeNoLives, http.StatusBadRequest},
		{CodeCellAlreadyFilled, http.StatusBadRequest},
		{CodeAlreadyProcessed, http.StatusBadRequest},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := tc.code.HTTPStatus(); got != tc.want {
			t.Fatalf("code %s: expected status %d, got %d", tc.code, tc.want, got)
		}
	}
}
