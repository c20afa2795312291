package scoring

import (
	"testing"

	"github.com/gridduel/gridduel/internal/versus/domain"
)

// solvedBoard returns a board whose solution is a fixed valid grid and whose
// current grid matches it everywhere.
func solvedBoard() domain.Board {
	base := [domain.Size]int{1, 2, 3, 4, 5, 6, 7, 8, 9}
	var b domain.Board
	for r := 0; r < domain.Size; r++ {
		shift := (r%3)*3 + r/3
		for c := 0; c < domain.Size; c++ {
			v := base[(c+shift)%domain.Size]
			b.Solution[r][c] = v
			b.Current[r][c] = v
		}
	}
	return b
}

func TestScorePlacementOnly(t *testing.T) {
	b := solvedBoard()
	// Leave another cell in row 0, col 0 and box 0 unsolved so no line completes.
	b.Current[0][1] = 0
	b.Current[1][0] = 0

	got := NewStandardScorer().Score(b, 0, 0)
	if got.Points != PlacementPoints {
		t.Fatalf("expected %d points, got %d", PlacementPoints, got.Points)
	}
	if len(got.Rows)+len(got.Cols)+len(got.Boxes) != 0 {
		t.Fatalf("expected no completed lines, got %+v", got)
	}
}

func TestScoreCompletesRowColAndBox(t *testing.T) {
	b := solvedBoard()

	got := NewStandardScorer().Score(b, 0, 0)
	want := PlacementPoints + 3*CompletionPoints
	if got.Points != want {
		t.Fatalf("expected %d points, got %d", want, got.Points)
	}
	if len(got.Rows) != 1 || got.Rows[0] != 0 {
		t.Fatalf("expected row 0 completed, got %v", got.Rows)
	}
	if len(got.Cols) != 1 || got.Cols[0] != 0 {
		t.Fatalf("expected col 0 completed, got %v", got.Cols)
	}
	if len(got.Boxes) != 1 || got.Boxes[0] != 0 {
		t.Fatalf("expected box 0 completed, got %v", got.Boxes)
	}
}

func TestScoreIsIdempotentPerLine(t *testing.T) {
	b := solvedBoard()
	b.CompletedRows.Add(0)
	b.CompletedCols.Add(0)
	b.CompletedBoxes.Add(0)

	got := NewStandardScorer().Score(b, 0, 0)
	if got.Points != PlacementPoints {
		t.Fatalf("expected already-scored lines to be skipped, got %d points", got.Points)
	}
	if len(got.Rows)+len(got.Cols)+len(got.Boxes) != 0 {
		t.Fatalf("expected no newly completed lines, got %+v", got)
	}
}

func TestScoreIgnoresIncorrectCells(t *testing.T) {
	b := solvedBoard()
	// An incorrect value elsewhere in the row must block row completion.
	b.Current[0][5] = b.Solution[0][5]%9 + 1

	got := NewStandardScorer().Score(b, 0, 0)
	for _, row := range got.Rows {
		if row == 0 {
			t.Fatal("row with an incorrect cell must not complete")
		}
	}
}
