package sweep

import (
	"fmt"
	"strconv"
)

// Cell is one (benchmark, L2 size, associativity) combination of the grid.
type Cell struct {
	Benchmark string
	L2Size    string
	Assoc     int
}

// OutputName returns the result file name for this cell,
// e.g. "astar_256kB_2.txt".
func (c Cell) OutputName() string {
	return c.Benchmark + "_" + c.L2Size + "_" + strconv.Itoa(c.Assoc) + ".txt"
}

// String implements fmt.Stringer for log and report output.
func (c Cell) String() string {
	return fmt.Sprintf("%s/%s/%d", c.Benchmark, c.L2Size, c.Assoc)
}

// Grid defines the three axes of the parameter sweep.
type Grid struct {
	Benchmarks []string
	L2Sizes    []string
	Assocs     []int
}

// Size returns the number of cells in the grid.
func (g Grid) Size() int {
	return len(g.Benchmarks) * len(g.L2Sizes) * len(g.Assocs)
}

// Cells returns every combination in deterministic order:
// benchmark outermost, then L2 size, associativity innermost.
func (g Grid) Cells() []Cell {
	cells := make([]Cell, 0, g.Size())

	for _, bench := range g.Benchmarks {
		for _, size := range g.L2Sizes {
			for _, assoc := range g.Assocs {
				cells = append(cells, Cell{
					Benchmark: bench,
					L2Size:    size,
					Assoc:     assoc,
				})
			}
		}
	}

	return cells
}
