package domain

// Size is the board edge length.
const Size = 9

// Grid is a 9x9 value grid. Cells hold 1-9; 0 means empty.
type Grid [Size][Size]int

// IndexSet tracks which of the nine row/column/box indices have been scored.
// Indices are only ever added, never removed.
type IndexSet [Size]bool

// Has reports whether index i is in the set.
func (s IndexSet) Has(i int) bool {
	if i < 0 || i >= Size {
		return false
	}
	return s[i]
}

// Add inserts index i into the set.
func (s *IndexSet) Add(i int) {
	if i < 0 || i >= Size {
		return
	}
	s[i] = true
}

// Indices returns the members of the set in ascending order.
func (s IndexSet) Indices() []int {
	var out []int
	for i, member := range s {
		if member {
			out = append(out, i)
		}
	}
	return out
}

// Board is the shared play state of one room. Puzzle and Solution are fixed at
// creation; Current and the completion sets mutate as the game progresses.
type Board struct {
	Current  Grid `json:"current"`
	Puzzle   Grid `json:"puzzle"`
	Solution Grid `json:"solution"`

	CompletedRows  IndexSet `json:"completedRows"`
	CompletedCols  IndexSet `json:"completedCols"`
	CompletedBoxes IndexSet `json:"completedBoxes"`
}

// Prefilled reports whether the cell value is fixed by the puzzle.
func (b Board) Prefilled(row, col int) bool {
	return b.Puzzle[row][col] != 0
}

// Full reports whether every cell holds a non-zero value.
func (b Board) Full() bool {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b.Current[r][c] == 0 {
				return false
			}
		}
	}
	return true
}

// BoxIndex returns the 0-8 index of the 3x3 box containing the cell.
func BoxIndex(row, col int) int {
	return (row/3)*3 + col/3
}
