package solver

import (
	"fmt"

	"github.com/banshee-data/markerpose/internal/mocap/markers"
	"github.com/banshee-data/markerpose/internal/mocap/skeleton"
)

// Result is one subject's skeleton for a frame.
type Result struct {
	Prefix   string
	Skeleton *skeleton.Skeleton
}

// Group solves several subjects that share one marker stream, told apart
// by their marker prefixes. Subjects are solved one after another on the
// calling goroutine.
type Group struct {
	solvers []*Solver
	results []Result
}

// NewGroup creates one solver per prefix with otherwise identical settings.
func NewGroup(cfg Config, prefixes []string) (*Group, error) {
	if len(prefixes) == 0 {
		prefixes = []string{cfg.Prefix}
	}
	g := &Group{results: make([]Result, len(prefixes))}
	seen := make(map[string]bool, len(prefixes))
	for i, p := range prefixes {
		if seen[p] {
			return nil, fmt.Errorf("duplicate subject prefix %q", p)
		}
		seen[p] = true
		c := cfg
		c.Prefix = p
		s, err := New(c)
		if err != nil {
			return nil, fmt.Errorf("subject %q: %w", p, err)
		}
		g.solvers = append(g.solvers, s)
		g.results[i].Prefix = p
	}
	return g, nil
}

// Solvers returns the per-subject solvers in prefix order.
func (g *Group) Solvers() []*Solver {
	return g.solvers
}

// Solve runs every subject on the same frame. The returned slice is reused
// by the next call.
func (g *Group) Solve(raw []markers.Marker) []Result {
	for i, s := range g.solvers {
		g.results[i].Skeleton = s.Solve(raw)
	}
	return g.results
}
