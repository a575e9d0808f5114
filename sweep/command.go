package sweep

import "strconv"

// Invocation holds the fixed parts of a gem5 command line. The
// per-cell flags are filled in by Args.
type Invocation struct {
	Simulator     string
	ConfigScript  string
	CPUType       string
	MaxInsts      int64
	CachelineSize int
}

// Args builds the argument vector for one cell, not including the
// simulator binary itself. Grid values are passed through verbatim.
func (inv Invocation) Args(cell Cell) []string {
	return []string{
		inv.ConfigScript,
		"--cpu-type=" + inv.CPUType,
		"--maxinsts=" + strconv.FormatInt(inv.MaxInsts, 10),
		"--caches",
		"--l2cache",
		"--l2_size=" + cell.L2Size,
		"--l2_assoc=" + strconv.Itoa(cell.Assoc),
		"--cacheline_size", strconv.Itoa(inv.CachelineSize),
		"-b", cell.Benchmark,
	}
}
