package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/gridduel/gridduel/internal/platform/errors"
	"github.com/gridduel/gridduel/internal/versus/service"
)

// actionRequest is the uniform action envelope: one action name plus the
// superset of per-action parameters.
type actionRequest struct {
	Action     string `json:"action"`
	Row        int    `json:"row"`
	Col        int    `json:"col"`
	Value      int    `json:"value"`
	Ready      bool   `json:"ready"`
	Connected  bool   `json:"connected"`
	CheckoutID string `json:"checkoutId"`
}

type versionResponse struct {
	Success bool  `json:"success"`
	Version int64 `json:"version"`
}

type placeNumberResponse struct {
	Success bool `json:"success"`
	service.PlaceNumberResult
}

type clearCellResponse struct {
	Success bool `json:"success"`
	service.ClearCellResult
}

type purchaseLifeResponse struct {
	Success bool `json:"success"`
	service.PurchaseLifeResult
}

type setReadyResponse struct {
	Success bool `json:"success"`
	service.SetReadyResult
	StartAt *time.Time `json:"startAt,omitempty"`
}

func (s *Server) dispatchAction(c *gin.Context) {
	session, ok := sessionID(c)
	if !ok {
		return
	}
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperrors.Wrap(apperrors.CodeInvalidMove, "parse request body", err))
		return
	}

	ctx := c.Request.Context()
	roomID := c.Param("id")

	switch req.Action {
	case "place_number":
		result, err := s.svc.PlaceNumber(ctx, service.PlaceNumberInput{
			RoomID: roomID, SessionID: session,
			Row: req.Row, Col: req.Col, Value: req.Value,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, placeNumberResponse{Success: true, PlaceNumberResult: result})

	case "toggle_note":
		version, err := s.svc.ToggleNote(ctx, service.NoteInput{
			RoomID: roomID, SessionID: session,
			Row: req.Row, Col: req.Col, Value: req.Value,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, versionResponse{Success: true, Version: version})

	case "clear_cell_notes":
		version, err := s.svc.ClearCellNotes(ctx, service.CellInput{
			RoomID: roomID, SessionID: session, Row: req.Row, Col: req.Col,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, versionResponse{Success: true, Version: version})

	case "clear_notes":
		version, err := s.svc.ClearNotes(ctx, roomID, session)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, versionResponse{Success: true, Version: version})

	case "clear_cell":
		result, err := s.svc.ClearCell(ctx, service.CellInput{
			RoomID: roomID, SessionID: session, Row: req.Row, Col: req.Col,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, clearCellResponse{Success: true, ClearCellResult: result})

	case "select_cell":
		version, err := s.svc.SelectCell(ctx, service.CellInput{
			RoomID: roomID, SessionID: session, Row: req.Row, Col: req.Col,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, versionResponse{Success: true, Version: version})

	case "purchase_life":
		result, err := s.svc.PurchaseLife(ctx, service.PurchaseLifeInput{
			RoomID: roomID, SessionID: session, CheckoutID: req.CheckoutID,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, purchaseLifeResponse{Success: true, PurchaseLifeResult: result})

	case "set_ready":
		s.setReady(c, roomID, session, req.Ready)

	case "set_connected":
		version, err := s.svc.SetConnected(ctx, service.SetConnectedInput{
			RoomID: roomID, SessionID: session, Connected: req.Connected,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, versionResponse{Success: true, Version: version})

	default:
		respondErr(c, apperrors.New(apperrors.CodeInvalidMove,
			fmt.Sprintf("unknown action %q", req.Action)))
	}
}

// setReady writes the flag, then arms the countdown when both players are in.
// The handler itself is free of cross-player side effects; the trigger lives
// here at the dispatch boundary.
func (s *Server) setReady(c *gin.Context, roomID, session string, ready bool) {
	ctx := c.Request.Context()
	result, err := s.svc.SetReady(ctx, service.SetReadyInput{
		RoomID: roomID, SessionID: session, Ready: ready,
	})
	if err != nil {
		respondErr(c, err)
		return
	}

	resp := setReadyResponse{Success: true, SetReadyResult: result}
	if result.BothReady {
		countdown, err := s.svc.StartCountdown(ctx, roomID)
		if err != nil {
			respondErr(c, err)
			return
		}
		if countdown.Armed {
			resp.StartAt = &countdown.StartAt
		}
	}
	c.JSON(http.StatusOK, resp)
}
