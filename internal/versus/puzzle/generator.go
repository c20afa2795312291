// Package puzzle produces board/solution/clue triples for new rooms.
package puzzle

import (
	"fmt"
	"math/rand/v2"

	"github.com/gridduel/gridduel/internal/versus/domain"
)

// Puzzle is one generated board triple. Clues holds the prefilled values
// (0 = not prefilled); Solution is the full ground truth.
type Puzzle struct {
	Solution domain.Grid
	Clues    domain.Grid
}

// Generator supplies puzzles for new rooms.
type Generator interface {
	Generate(difficulty domain.Difficulty) (Puzzle, error)
}

func targetClues(d domain.Difficulty) int {
	switch d {
	case domain.DifficultyBeginner:
		return 38
	case domain.DifficultyMedium:
		return 30
	default:
		return 24
	}
}

// BacktrackGenerator builds a full random solution with a randomized
// backtracking fill, then carves clues out while the puzzle keeps a unique
// solution.
type BacktrackGenerator struct {
	rng *rand.Rand
}

// NewBacktrackGenerator returns a generator seeded from the default source.
func NewBacktrackGenerator() *BacktrackGenerator {
	return &BacktrackGenerator{}
}

// NewSeededGenerator returns a deterministic generator for tests.
func NewSeededGenerator(seed uint64) *BacktrackGenerator {
	return &BacktrackGenerator{rng: rand.New(rand.NewPCG(seed, seed))}
}

func (g *BacktrackGenerator) intn(n int) int {
	if g.rng != nil {
		return g.rng.IntN(n)
	}
	return rand.IntN(n)
}

// Generate produces a puzzle for the difficulty's clue target. Carving stops
// early rather than break uniqueness, so easy difficulties may keep a few
// extra clues.
func (g *BacktrackGenerator) Generate(difficulty domain.Difficulty) (Puzzle, error) {
	if _, err := domain.ParseDifficulty(string(difficulty)); err != nil {
		return Puzzle{}, err
	}

	var solution domain.Grid
	if !g.fill(&solution, 0, 0) {
		return Puzzle{}, fmt.Errorf("fill solution grid")
	}

	clues := solution
	positions := make([]int, domain.Size*domain.Size)
	for i := range positions {
		positions[i] = i
	}
	g.shuffle(positions)

	target := targetClues(difficulty)
	remaining := len(positions)
	for _, pos := range positions {
		if remaining <= target {
			break
		}
		r, c := pos/domain.Size, pos%domain.Size
		removed := clues[r][c]
		clues[r][c] = 0
		if countSolutions(clues, 2) != 1 {
			clues[r][c] = removed
			continue
		}
		remaining--
	}

	return Puzzle{Solution: solution, Clues: clues}, nil
}

func (g *BacktrackGenerator) shuffle(values []int) {
	for i := len(values) - 1; i > 0; i-- {
		j := g.intn(i + 1)
		values[i], values[j] = values[j], values[i]
	}
}

// fill solves the empty grid into a full valid solution in random value order.
func (g *BacktrackGenerator) fill(grid *domain.Grid, row, col int) bool {
	if row == domain.Size {
		return true
	}
	nextRow, nextCol := row, col+1
	if nextCol == domain.Size {
		nextRow, nextCol = row+1, 0
	}

	order := [domain.Size]int{1, 2, 3, 4, 5, 6, 7, 8, 9}
	for i := len(order) - 1; i > 0; i-- {
		j := g.intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}

	for _, v := range order {
		if allowed(grid, row, col, v) {
			grid[row][col] = v
			if g.fill(grid, nextRow, nextCol) {
				return true
			}
			grid[row][col] = 0
		}
	}
	return false
}

// countSolutions counts completions of the grid up to the given limit.
func countSolutions(grid domain.Grid, limit int) int {
	row, col := -1, -1
	for r := 0; r < domain.Size && row == -1; r++ {
		for c := 0; c < domain.Size; c++ {
			if grid[r][c] == 0 {
				row, col = r, c
				break
			}
		}
	}
	if row == -1 {
		return 1
	}

	count := 0
	for v := 1; v <= domain.Size; v++ {
		if !allowed(&grid, row, col, v) {
			continue
		}
		grid[row][col] = v
		count += countSolutions(grid, limit-count)
		grid[row][col] = 0
		if count >= limit {
			return count
		}
	}
	return count
}

func allowed(grid *domain.Grid, row, col, value int) bool {
	for i := 0; i < domain.Size; i++ {
		if grid[row][i] == value || grid[i][col] == value {
			return false
		}
	}
	baseRow, baseCol := (row/3)*3, (col/3)*3
	for dr := 0; dr < 3; dr++ {
		for dc := 0; dc < 3; dc++ {
			if grid[baseRow+dr][baseCol+dc] == value {
				return false
			}
		}
	}
	return true
}
