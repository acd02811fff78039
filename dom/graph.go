// Package dom computes dominance information for control flow graphs.
//
// A control flow graph is supplied as a Graph, the list of
// predecessors of each node, together with a distinguished entry
// node. Analysis proceeds in three stages, each consuming the output
// of the previous one:
//
//   - Solve computes the set of dominators of every node using the
//     iterative data-flow formulation (Algorithm 10.16 of the "Dragon"
//     book; Allen and Cocke).
//   - ImmediateDominators picks, for every node, the closest of its
//     strict dominators.
//   - BuildFrontier computes dominance frontiers from the immediate
//     dominators, using the algorithm of Cytron et al. as presented in
//     Cooper, Harvey and Kennedy, "A Simple, Fast Dominance Algorithm",
//     Figure 5.
//
// Analyze runs all three. Every stage is a pure function of its
// inputs; none of them retains or mutates its arguments.
package dom

import (
	"fmt"

	"honnef.co/go/domfront/bitset"
)

// A Node identifies a node of a Graph. Nodes are dense: a graph with
// n nodes uses exactly the ids 0 through n-1, which double as slice
// indices.
type Node int

// None is the sentinel used where a node has no immediate dominator.
const None Node = -1

// A Graph is a control flow graph in predecessor form: g[n] lists the
// nodes that have an edge into n. The order of each list is
// preserved but not significant.
//
// Graphs given as successor lists must be converted with Transpose
// first; the algorithms in this package are only correct for
// predecessor lists.
type Graph [][]Node

// Validate checks that entry and every predecessor id are in range.
// The returned error, if any, is an *InvalidGraphError.
func (g Graph) Validate(entry Node) error {
	n := len(g)
	if entry < 0 || int(entry) >= n {
		return &InvalidGraphError{Node: entry, Pred: None, Len: n, Entry: true}
	}
	for v, preds := range g {
		for _, p := range preds {
			if p < 0 || int(p) >= n {
				return &InvalidGraphError{Node: Node(v), Pred: p, Len: n}
			}
		}
	}
	return nil
}

// Succs returns the successor lists of g. g must be valid.
func (g Graph) Succs() [][]Node {
	succs := make([][]Node, len(g))
	for v, preds := range g {
		for _, p := range preds {
			succs[p] = append(succs[p], Node(v))
		}
	}
	return succs
}

// Reachable returns the set of nodes that can be reached from entry
// by following edges forward. g must be valid.
func (g Graph) Reachable(entry Node) bitset.Set {
	succs := g.Succs()
	seen := bitset.Of(len(g), entry)
	stack := []Node{entry}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, w := range succs[v] {
			if seen.Add(int(w)) {
				stack = append(stack, w)
			}
		}
	}
	return seen
}

// Transpose converts a graph given as successor lists into a Graph.
// Predecessor lists are ordered by ascending predecessor id.
func Transpose(succs [][]Node) (Graph, error) {
	n := len(succs)
	g := make(Graph, n)
	for v, ss := range succs {
		for _, w := range ss {
			if w < 0 || int(w) >= n {
				return nil, fmt.Errorf("%w: successor %d of node %d out of range [0, %d)", ErrInvalidGraph, w, v, n)
			}
			g[w] = append(g[w], Node(v))
		}
	}
	return g, nil
}

// Sets holds the dominator set of every node, indexed by node.
type Sets []bitset.Set

// Dominates reports whether a dominates b. Every node dominates
// itself.
func (s Sets) Dominates(a, b Node) bool { return s[b].Has(int(a)) }

// StrictlyDominates reports whether a dominates b and a != b.
func (s Sets) StrictlyDominates(a, b Node) bool { return a != b && s.Dominates(a, b) }

// Of returns the dominators of n in ascending order.
func (s Sets) Of(n Node) []Node { return nodes(s[n]) }

// Idoms maps every node to its immediate dominator. Nodes without a
// strict dominator map to None. The entry node maps to itself, which
// is what terminates walks up the dominator tree; use Parent to treat
// it like any other root.
type Idoms []Node

// Parent returns the immediate dominator of n, or None if n is the
// entry or has no strict dominator.
func (idom Idoms) Parent(n Node) Node {
	if d := idom[n]; d != n {
		return d
	}
	return None
}

// Frontier holds the dominance frontier of every node, indexed by
// node.
type Frontier []bitset.Set

// Of returns the dominance frontier of n in ascending order.
func (df Frontier) Of(n Node) []Node { return nodes(df[n]) }

func nodes(s bitset.Set) []Node {
	out := make([]Node, 0, s.Count())
	for i := s.Next(0); i != -1; i = s.Next(i + 1) {
		out = append(out, Node(i))
	}
	return out
}
