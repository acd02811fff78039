package dom

// This file computes dominator sets by iteration to a fixed point.
//
// D[n] is the set of nodes that dominate n, represented as a bit-set
// of node ids. The entry is dominated only by itself; every other node
// reachable from the entry starts out dominated by every node. Each
// step replaces D[n] by
//
//	{n} ∪ ⋂ { D[p] : p ∈ preds(n) }
//
// which can only remove elements, so the iteration terminates once a
// full pass leaves every set unchanged. The greatest fixed point
// reached this way does not depend on the order in which nodes are
// visited.
//
// Nodes that cannot be reached from the entry have no dominators but
// themselves. Their sets are fixed at {n} and never recomputed: left
// to the iteration, a cycle of unreachable nodes would keep the full
// initial set, and its members would appear to dominate each other.

import (
	"fmt"

	"honnef.co/go/domfront/bitset"
)

// A Schedule determines which nodes the solver re-examines.
type Schedule int

const (
	// RoundRobin visits every node in every pass.
	RoundRobin Schedule = iota
	// Worklist visits only nodes with a predecessor whose set
	// changed since the node was last visited.
	Worklist
)

func (s Schedule) String() string {
	switch s {
	case RoundRobin:
		return "round-robin"
	case Worklist:
		return "worklist"
	default:
		return fmt.Sprintf("Schedule(%d)", int(s))
	}
}

// ParseSchedule parses the names returned by Schedule.String.
func ParseSchedule(s string) (Schedule, error) {
	switch s {
	case "round-robin", "roundrobin":
		return RoundRobin, nil
	case "worklist":
		return Worklist, nil
	default:
		return 0, fmt.Errorf("unknown schedule %q (valid choices are 'round-robin' and 'worklist')", s)
	}
}

// Stats describes the work done by a solver run.
type Stats struct {
	Passes  int // passes over the node order, including the final one that changed nothing
	Updates int // number of times a dominator set was replaced
}

// A Solver computes dominator sets. The zero value visits all nodes in
// ascending order in every pass and bounds the number of passes
// automatically.
type Solver struct {
	// Schedule selects between visiting every node in every pass and
	// visiting only nodes whose inputs changed.
	Schedule Schedule

	// Order, if non-nil, is the order in which nodes are visited
	// within a pass. It must be a permutation of the graph's nodes.
	Order []Node

	// MaxPasses bounds the number of passes. If zero or negative,
	// n*n+1 is used for a graph of n nodes: every pass but the last
	// removes at least one of the at most n*n elements of the initial
	// sets.
	MaxPasses int

	// Logf, if non-nil, receives a line of progress information after
	// every pass.
	Logf func(format string, args ...any)
}

// Solve computes the dominator set of every node of g, which is
// entered at entry. It fails with an *InvalidGraphError if entry or
// any predecessor is out of range, before doing any other work.
//
// The dominator set of a node that cannot be reached from entry
// contains only the node itself.
func Solve(g Graph, entry Node) (Sets, error) {
	var s Solver
	sets, _, err := s.Solve(g, entry)
	return sets, err
}

// Solve computes the dominator set of every node of g, which is
// entered at entry.
func (s *Solver) Solve(g Graph, entry Node) (Sets, Stats, error) {
	if err := g.Validate(entry); err != nil {
		return nil, Stats{}, err
	}
	n := len(g)
	reach := g.Reachable(entry)
	sets := make(Sets, n)
	for v := range sets {
		if Node(v) == entry || !reach.Has(v) {
			sets[v] = bitset.Of(n, v)
		} else {
			sets[v] = bitset.Full(n)
		}
	}
	return s.iterate(g, entry, reach, sets)
}

// Resume continues the iteration from init instead of from the
// initial state. init is not modified. The sets of nodes that cannot
// be reached from entry are reset to contain only the node itself.
// Resuming from a fixed point completes in a single pass without
// updates.
func (s *Solver) Resume(g Graph, entry Node, init Sets) (Sets, Stats, error) {
	if err := g.Validate(entry); err != nil {
		return nil, Stats{}, err
	}
	n := len(g)
	if len(init) != n {
		return nil, Stats{}, fmt.Errorf("%w: %d initial sets for %d nodes", ErrInvalidGraph, len(init), n)
	}
	reach := g.Reachable(entry)
	sets := make(Sets, n)
	for v, set := range init {
		if set.Len() != n {
			return nil, Stats{}, fmt.Errorf("%w: initial set of node %d has universe %d, want %d", ErrInvalidGraph, v, set.Len(), n)
		}
		if reach.Has(v) {
			sets[v] = set.Clone()
		} else {
			sets[v] = bitset.Of(n, v)
		}
	}
	return s.iterate(g, entry, reach, sets)
}

func (s *Solver) order(n int) ([]Node, error) {
	if s.Order == nil {
		order := make([]Node, n)
		for i := range order {
			order[i] = Node(i)
		}
		return order, nil
	}
	if len(s.Order) != n {
		return nil, fmt.Errorf("visiting order has %d nodes, graph has %d", len(s.Order), n)
	}
	seen := bitset.New(n)
	for _, v := range s.Order {
		if v < 0 || int(v) >= n || !seen.Add(int(v)) {
			return nil, fmt.Errorf("visiting order is not a permutation of [0, %d)", n)
		}
	}
	return s.Order, nil
}

func (s *Solver) logf(format string, args ...any) {
	if s.Logf != nil {
		s.Logf(format, args...)
	}
}

// iterate recomputes the sets of the nodes in reach, other than the
// entry, until none of them changes.
func (s *Solver) iterate(g Graph, entry Node, reach bitset.Set, sets Sets) (Sets, Stats, error) {
	n := len(g)
	order, err := s.order(n)
	if err != nil {
		return nil, Stats{}, err
	}
	maxPasses := s.MaxPasses
	if maxPasses <= 0 {
		maxPasses = n*n + 1
	}

	var st Stats
	x := bitset.New(n)
	switch s.Schedule {
	case RoundRobin:
		for changed := true; changed; {
			if st.Passes == maxPasses {
				return nil, st, &NonConvergenceError{Passes: st.Passes}
			}
			st.Passes++
			changed = false
			for _, v := range order {
				if v == entry || !reach.Has(int(v)) {
					continue
				}
				if relax(g, v, sets, x) {
					st.Updates++
					changed = true
				}
			}
			s.logf("pass %d: %d updates in total", st.Passes, st.Updates)
		}

	case Worklist:
		succs := g.Succs()
		dirty := reach.Clone()
		dirty.Remove(int(entry))
		for !dirty.Empty() {
			if st.Passes == maxPasses {
				return nil, st, &NonConvergenceError{Passes: st.Passes}
			}
			st.Passes++
			for _, v := range order {
				// Nodes dirtied by a change are picked up later in the
				// same pass if they come after v in the order.
				if !dirty.Remove(int(v)) {
					continue
				}
				if relax(g, v, sets, x) {
					st.Updates++
					for _, w := range succs[v] {
						if w != entry {
							dirty.Add(int(w))
						}
					}
				}
			}
			s.logf("pass %d: %d updates in total, %d nodes pending", st.Passes, st.Updates, dirty.Count())
		}

	default:
		return nil, Stats{}, fmt.Errorf("unknown schedule %v", s.Schedule)
	}
	return sets, st, nil
}

// relax recomputes the dominator set of v into x and stores it if it
// differs from the current one. It reports whether the set changed.
func relax(g Graph, v Node, sets Sets, x bitset.Set) bool {
	preds := g[v]
	if len(preds) == 0 {
		x.Clear()
	} else {
		x.Copy(sets[preds[0]])
		for _, p := range preds[1:] {
			x.Intersect(sets[p])
		}
	}
	x.Add(int(v)) // a node always dominates itself.
	if x.Equal(sets[v]) {
		return false
	}
	sets[v].Copy(x)
	return true
}
