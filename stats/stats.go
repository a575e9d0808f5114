// Package stats parses the plain-text statistics dump gem5 writes to
// m5out/stats.txt: one `name value [# description]` line per metric,
// framed by Begin/End Simulation Statistics markers.
package stats

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Stats maps metric names to their scalar values. Non-numeric and
// multi-column (distribution) entries keep only their first column.
type Stats map[string]float64

// Parse reads a gem5 statistics dump from r. Lines that do not parse
// as `name value` are skipped; an empty dump is an error.
func Parse(r io.Reader) (Stats, error) {
	s := make(Stats)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "----------") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		value, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}

		s[fields[0]] = value
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stats: %w", err)
	}

	if len(s) == 0 {
		return nil, fmt.Errorf("no statistics found")
	}

	return s, nil
}

// Summary holds the headline metrics reported per sweep cell.
type Summary struct {
	SimSeconds  float64 `json:"sim_seconds"`
	SimInsts    int64   `json:"sim_insts"`
	HostSeconds float64 `json:"host_seconds"`
	L2MissRate  float64 `json:"l2_miss_rate"`
}

// Summary extracts the headline metrics. Both the classic snake_case
// stat names and the camelCase names of newer gem5 releases are
// recognized; absent metrics stay zero.
func (s Stats) Summary() *Summary {
	return &Summary{
		SimSeconds:  s.first("sim_seconds", "simSeconds"),
		SimInsts:    int64(s.first("sim_insts", "simInsts")),
		HostSeconds: s.first("host_seconds", "hostSeconds"),
		L2MissRate: s.first(
			"system.l2.overall_miss_rate::total",
			"system.l2.overallMissRate::total",
		),
	}
}

func (s Stats) first(names ...string) float64 {
	for _, name := range names {
		if v, ok := s[name]; ok {
			return v
		}
	}

	return 0
}
