// Package scoring computes points for correct placements and detects newly
// completed rows, columns, and boxes.
package scoring

import "github.com/gridduel/gridduel/internal/versus/domain"

// Result reports the outcome of scoring one correct placement.
type Result struct {
	Points int
	// Newly completed line indices. A line appears here at most once over the
	// lifetime of a board: lines already in the board's completion sets are
	// never reported again.
	Rows  []int
	Cols  []int
	Boxes []int
}

// Scorer prices a correct placement that has already been written to the
// board's current grid.
type Scorer interface {
	Score(board domain.Board, row, col int) Result
}

// Default point values.
const (
	PlacementPoints  = 10
	CompletionPoints = 50
)

// StandardScorer awards flat points per correct cell plus a bonus per newly
// completed row, column, and box.
type StandardScorer struct {
	Placement  int
	Completion int
}

// NewStandardScorer returns a scorer with the default point values.
func NewStandardScorer() *StandardScorer {
	return &StandardScorer{
		Placement:  PlacementPoints,
		Completion: CompletionPoints,
	}
}

// Score prices the placement at (row, col). The board's current grid must
// already hold the placed value.
func (s *StandardScorer) Score(board domain.Board, row, col int) Result {
	result := Result{Points: s.Placement}

	if !board.CompletedRows.Has(row) && rowSolved(board, row) {
		result.Rows = append(result.Rows, row)
		result.Points += s.Completion
	}
	if !board.CompletedCols.Has(col) && colSolved(board, col) {
		result.Cols = append(result.Cols, col)
		result.Points += s.Completion
	}
	box := domain.BoxIndex(row, col)
	if !board.CompletedBoxes.Has(box) && boxSolved(board, box) {
		result.Boxes = append(result.Boxes, box)
		result.Points += s.Completion
	}

	return result
}

func rowSolved(board domain.Board, row int) bool {
	for c := 0; c < domain.Size; c++ {
		if board.Current[row][c] != board.Solution[row][c] {
			return false
		}
	}
	return true
}

func colSolved(board domain.Board, col int) bool {
	for r := 0; r < domain.Size; r++ {
		if board.Current[r][col] != board.Solution[r][col] {
			return false
		}
	}
	return true
}

func boxSolved(board domain.Board, box int) bool {
	baseRow := (box / 3) * 3
	baseCol := (box % 3) * 3
	for dr := 0; dr < 3; dr++ {
		for dc := 0; dc < 3; dc++ {
			r, c := baseRow+dr, baseCol+dc
			if board.Current[r][c] != board.Solution[r][c] {
				return false
			}
		}
	}
	return true
}
