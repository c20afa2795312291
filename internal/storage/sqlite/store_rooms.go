package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gridduel/gridduel/internal/storage"
	"github.com/gridduel/gridduel/internal/versus/domain"
)

// playersDoc is the stored shape of both seats. Seats are pointers so the
// second seat round-trips as null until someone joins.
type playersDoc struct {
	Player1 *domain.Player `json:"player1"`
	Player2 *domain.Player `json:"player2"`
}

func rollbackWith(tx *sql.Tx, err error) error {
	if rbErr := tx.Rollback(); rbErr != nil {
		return errors.Join(err, rbErr)
	}
	return err
}

// CreateRoom persists the room row and its board row in one transaction.
func (s *Store) CreateRoom(ctx context.Context, room domain.Room) error {
	playersJSON, err := marshalJSON(playersDoc{Player1: room.Player1, Player2: room.Player2})
	if err != nil {
		return err
	}
	boardJSON, err := marshalBoard(room.Board)
	if err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO rooms (id, version, difficulty, status, start_at, winner, players_json, created_at, updated_at, finished_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		room.ID,
		room.Version,
		string(room.Difficulty),
		room.Status.String(),
		toNullMillis(room.StartAt),
		string(room.Winner),
		playersJSON,
		toMillis(room.CreatedAt),
		toMillis(room.UpdatedAt),
		toNullMillis(room.FinishedAt),
		toMillis(room.ExpiresAt),
	)
	if err != nil {
		return rollbackWith(tx, fmt.Errorf("insert room: %w", err))
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO boards (room_id, current_json, puzzle_json, solution_json, completed_rows_json, completed_cols_json, completed_boxes_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		room.ID,
		boardJSON.current,
		boardJSON.puzzle,
		boardJSON.solution,
		boardJSON.completedRows,
		boardJSON.completedCols,
		boardJSON.completedBoxes,
	)
	if err != nil {
		return rollbackWith(tx, fmt.Errorf("insert board: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type boardColumns struct {
	current        string
	puzzle         string
	solution       string
	completedRows  string
	completedCols  string
	completedBoxes string
}

func marshalBoard(board domain.Board) (boardColumns, error) {
	var cols boardColumns
	var err error
	if cols.current, err = marshalJSON(board.Current); err != nil {
		return cols, err
	}
	if cols.puzzle, err = marshalJSON(board.Puzzle); err != nil {
		return cols, err
	}
	if cols.solution, err = marshalJSON(board.Solution); err != nil {
		return cols, err
	}
	if cols.completedRows, err = marshalJSON(board.CompletedRows); err != nil {
		return cols, err
	}
	if cols.completedCols, err = marshalJSON(board.CompletedCols); err != nil {
		return cols, err
	}
	if cols.completedBoxes, err = marshalJSON(board.CompletedBoxes); err != nil {
		return cols, err
	}
	return cols, nil
}

func unmarshalBoard(cols boardColumns) (domain.Board, error) {
	var board domain.Board
	if err := unmarshalJSON(cols.current, &board.Current); err != nil {
		return board, err
	}
	if err := unmarshalJSON(cols.puzzle, &board.Puzzle); err != nil {
		return board, err
	}
	if err := unmarshalJSON(cols.solution, &board.Solution); err != nil {
		return board, err
	}
	if err := unmarshalJSON(cols.completedRows, &board.CompletedRows); err != nil {
		return board, err
	}
	if err := unmarshalJSON(cols.completedCols, &board.CompletedCols); err != nil {
		return board, err
	}
	if err := unmarshalJSON(cols.completedBoxes, &board.CompletedBoxes); err != nil {
		return board, err
	}
	return board, nil
}

// GetRoom returns storage.ErrNotFound for missing rooms and, lazily, for rooms
// past their expiry.
func (s *Store) GetRoom(ctx context.Context, roomID string) (domain.Room, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
		SELECT r.id, r.version, r.difficulty, r.status, r.start_at, r.winner, r.players_json,
		       r.created_at, r.updated_at, r.finished_at, r.expires_at,
		       b.current_json, b.puzzle_json, b.solution_json,
		       b.completed_rows_json, b.completed_cols_json, b.completed_boxes_json
		FROM rooms r
		JOIN boards b ON b.room_id = r.id
		WHERE r.id = ?`, roomID)

	room, err := scanRoom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Room{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.Room{}, err
	}
	if room.Expired(s.clock().UTC()) {
		return domain.Room{}, storage.ErrNotFound
	}
	return room, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (domain.Room, error) {
	var (
		room       domain.Room
		difficulty string
		status     string
		winner     string
		startAt    sql.NullInt64
		players    string
		createdAt  int64
		updatedAt  int64
		finishedAt sql.NullInt64
		expiresAt  int64
		cols       boardColumns
	)

	err := row.Scan(
		&room.ID, &room.Version, &difficulty, &status, &startAt, &winner, &players,
		&createdAt, &updatedAt, &finishedAt, &expiresAt,
		&cols.current, &cols.puzzle, &cols.solution,
		&cols.completedRows, &cols.completedCols, &cols.completedBoxes,
	)
	if err != nil {
		return domain.Room{}, err
	}

	room.Difficulty = domain.Difficulty(difficulty)
	parsedStatus, err := domain.ParseStatus(status)
	if err != nil {
		return domain.Room{}, fmt.Errorf("room %s: %w", room.ID, err)
	}
	room.Status = parsedStatus
	room.Winner = domain.Slot(winner)
	room.StartAt = fromNullMillis(startAt)
	room.CreatedAt = fromMillis(createdAt)
	room.UpdatedAt = fromMillis(updatedAt)
	room.FinishedAt = fromNullMillis(finishedAt)
	room.ExpiresAt = fromMillis(expiresAt)

	var seats playersDoc
	if err := unmarshalJSON(players, &seats); err != nil {
		return domain.Room{}, fmt.Errorf("room %s players: %w", room.ID, err)
	}
	room.Player1 = seats.Player1
	room.Player2 = seats.Player2

	board, err := unmarshalBoard(cols)
	if err != nil {
		return domain.Room{}, fmt.Errorf("room %s board: %w", room.ID, err)
	}
	room.Board = board
	return room, nil
}

// UpdateMetadata writes room metadata guarded by expectedVersion.
func (s *Store) UpdateMetadata(ctx context.Context, room domain.Room, expectedVersion int64) (int64, error) {
	playersJSON, err := marshalJSON(playersDoc{Player1: room.Player1, Player2: room.Player2})
	if err != nil {
		return 0, err
	}

	result, err := s.sqlDB.ExecContext(ctx, `
		UPDATE rooms
		SET status = ?, winner = ?, players_json = ?, updated_at = ?, finished_at = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		room.Status.String(),
		string(room.Winner),
		playersJSON,
		toMillis(room.UpdatedAt),
		toNullMillis(room.FinishedAt),
		room.ID,
		expectedVersion,
	)
	if err != nil {
		return 0, fmt.Errorf("update room metadata: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update room metadata: %w", err)
	}
	if affected == 0 {
		return 0, s.conflictFor(ctx, room.ID)
	}
	return expectedVersion + 1, nil
}

// SetSelectedCell patches one seat's selection inside players_json without a
// version guard. Only the selection path is touched, so a caller holding a
// stale snapshot cannot revert guarded writes to the rest of the seat.
func (s *Store) SetSelectedCell(ctx context.Context, roomID string, slot domain.Slot, cell domain.Cell) (int64, error) {
	var path string
	switch slot {
	case domain.SlotPlayer1:
		path = "$.player1.selectedCell"
	case domain.SlotPlayer2:
		path = "$.player2.selectedCell"
	default:
		return 0, fmt.Errorf("unknown slot %q", slot)
	}

	cellJSON, err := marshalJSON(cell)
	if err != nil {
		return 0, err
	}

	result, err := s.sqlDB.ExecContext(ctx, `
		UPDATE rooms
		SET players_json = json_set(players_json, ?, json(?)), updated_at = ?
		WHERE id = ?`,
		path, cellJSON, toMillis(s.clock().UTC()), roomID)
	if err != nil {
		return 0, fmt.Errorf("update selected cell: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update selected cell: %w", err)
	}
	if affected == 0 {
		return 0, storage.ErrNotFound
	}
	return s.storedVersion(ctx, roomID)
}

// ApplyMove writes board and metadata in one transaction guarded by
// expectedVersion. The start check happens inside the transaction so a
// concurrent countdown arm cannot race past it.
func (s *Store) ApplyMove(ctx context.Context, room domain.Room, expectedVersion int64) (int64, error) {
	playersJSON, err := marshalJSON(playersDoc{Player1: room.Player1, Player2: room.Player2})
	if err != nil {
		return 0, err
	}
	boardJSON, err := marshalBoard(room.Board)
	if err != nil {
		return 0, err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}

	var startAt sql.NullInt64
	err = tx.QueryRowContext(ctx, `SELECT start_at FROM rooms WHERE id = ?`, room.ID).Scan(&startAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, rollbackWith(tx, storage.ErrNotFound)
	}
	if err != nil {
		return 0, rollbackWith(tx, fmt.Errorf("read start_at: %w", err))
	}
	if !startAt.Valid || fromMillis(startAt.Int64).After(s.clock().UTC()) {
		return 0, rollbackWith(tx, storage.ErrGameNotStarted)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE rooms
		SET status = ?, winner = ?, players_json = ?, updated_at = ?, finished_at = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		room.Status.String(),
		string(room.Winner),
		playersJSON,
		toMillis(room.UpdatedAt),
		toNullMillis(room.FinishedAt),
		room.ID,
		expectedVersion,
	)
	if err != nil {
		return 0, rollbackWith(tx, fmt.Errorf("update room: %w", err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, rollbackWith(tx, fmt.Errorf("update room: %w", err))
	}
	if affected == 0 {
		var stored int64
		err = tx.QueryRowContext(ctx, `SELECT version FROM rooms WHERE id = ?`, room.ID).Scan(&stored)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, rollbackWith(tx, storage.ErrNotFound)
		}
		if err != nil {
			return 0, rollbackWith(tx, fmt.Errorf("read stored version: %w", err))
		}
		return 0, rollbackWith(tx, &storage.VersionConflictError{Version: stored})
	}

	// Puzzle and solution are immutable once created; only live cells and
	// completion tracking change.
	_, err = tx.ExecContext(ctx, `
		UPDATE boards
		SET current_json = ?, completed_rows_json = ?, completed_cols_json = ?, completed_boxes_json = ?
		WHERE room_id = ?`,
		boardJSON.current,
		boardJSON.completedRows,
		boardJSON.completedCols,
		boardJSON.completedBoxes,
		room.ID,
	)
	if err != nil {
		return 0, rollbackWith(tx, fmt.Errorf("update board: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return expectedVersion + 1, nil
}

// SetStartAtIfNull arms the start time first-writer-wins and activates the
// room. The version bump makes stale metadata snapshots conflict instead of
// clobbering the armed start.
func (s *Store) SetStartAtIfNull(ctx context.Context, roomID string, startAt time.Time) (bool, error) {
	result, err := s.sqlDB.ExecContext(ctx, `
		UPDATE rooms
		SET start_at = ?, status = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND start_at IS NULL`,
		toMillis(startAt),
		domain.StatusActive.String(),
		toMillis(s.clock().UTC()),
		roomID,
	)
	if err != nil {
		return false, fmt.Errorf("arm start time: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("arm start time: %w", err)
	}
	if affected > 0 {
		return true, nil
	}

	var exists int
	err = s.sqlDB.QueryRowContext(ctx, `SELECT 1 FROM rooms WHERE id = ?`, roomID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, storage.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("check room: %w", err)
	}
	return false, nil
}

// DeleteRoom removes the room; the board row follows via cascade and the
// room's outbox records are reclaimed alongside.
func (s *Store) DeleteRoom(ctx context.Context, roomID string) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM room_changes WHERE room_id = ?`, roomID); err != nil {
		return rollbackWith(tx, fmt.Errorf("delete room changes: %w", err))
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, roomID); err != nil {
		return rollbackWith(tx, fmt.Errorf("delete room: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// CleanupExpired deletes rooms whose expiry has passed, along with their
// boards and outbox records, and returns how many rooms were reclaimed.
func (s *Store) CleanupExpired(ctx context.Context, now time.Time) (int, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}

	cutoff := toMillis(now)
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM room_changes
		WHERE room_id IN (SELECT id FROM rooms WHERE expires_at <= ?)`, cutoff); err != nil {
		return 0, rollbackWith(tx, fmt.Errorf("delete expired changes: %w", err))
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE expires_at <= ?`, cutoff)
	if err != nil {
		return 0, rollbackWith(tx, fmt.Errorf("delete expired rooms: %w", err))
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, rollbackWith(tx, fmt.Errorf("delete expired rooms: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return int(deleted), nil
}

func (s *Store) storedVersion(ctx context.Context, roomID string) (int64, error) {
	var stored int64
	err := s.sqlDB.QueryRowContext(ctx, `SELECT version FROM rooms WHERE id = ?`, roomID).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, storage.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("read stored version: %w", err)
	}
	return stored, nil
}

func (s *Store) conflictFor(ctx context.Context, roomID string) error {
	stored, err := s.storedVersion(ctx, roomID)
	if err != nil {
		return err
	}
	return &storage.VersionConflictError{Version: stored}
}
