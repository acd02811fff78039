// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dom

// Cited papers and resources:
//
// Ron Cytron et al. 1991. Efficiently computing SSA form...
// http://doi.acm.org/10.1145/115372.115320
//
// Cooper, Harvey, Kennedy.  2001.  A Simple, Fast Dominance Algorithm.
// Software Practice and Experience 2001, 4:1-10.
// http://www.hipersoft.rice.edu/grads/publications/dom14.pdf

import (
	"fmt"

	"honnef.co/go/domfront/bitset"
)

// BuildFrontier computes the dominance frontier of every node of g
// from the immediate dominators idom, using the algorithm found in A
// Simple, Fast Dominance Algorithm, Figure 5.
//
// Only merge nodes, those with two or more predecessors, are ever
// added to a frontier. For each predecessor p of a merge node n, the
// walk from p up the dominator tree adds n to the frontier of every
// node it passes, stopping at the immediate dominator of n or at the
// entry, which idom maps to itself.
//
// A walk that reaches a node without an immediate dominator, or that
// takes more steps than there are nodes, fails with an
// *UnreachablePredecessorError.
func BuildFrontier(g Graph, idom Idoms) (Frontier, error) {
	n := len(g)
	if len(idom) != n {
		return nil, fmt.Errorf("%w: %d immediate dominators for %d nodes", ErrInvalidGraph, len(idom), n)
	}
	for v, d := range idom {
		if d != None && (d < 0 || int(d) >= n) {
			return nil, fmt.Errorf("%w: immediate dominator %d of node %d out of range [0, %d)", ErrInvalidGraph, d, v, n)
		}
	}
	if err := validPreds(g); err != nil {
		return nil, err
	}

	df := make(Frontier, n)
	for v := range df {
		df[v] = bitset.New(n)
	}
	for v, preds := range g {
		if len(preds) < 2 {
			continue
		}
		b := Node(v)
		for _, p := range preds {
			runner := p
			for steps := 0; runner != idom[b]; steps++ {
				if steps == n {
					return nil, &UnreachablePredecessorError{Merge: b, Runner: runner}
				}
				df[runner].Add(v)
				next := idom[runner]
				if next == runner {
					// The entry terminates every walk.
					break
				}
				if next == None {
					return nil, &UnreachablePredecessorError{Merge: b, Runner: runner}
				}
				runner = next
			}
		}
	}
	return df, nil
}

func validPreds(g Graph) error {
	for v, preds := range g {
		for _, p := range preds {
			if p < 0 || int(p) >= len(g) {
				return &InvalidGraphError{Node: Node(v), Pred: p, Len: len(g)}
			}
		}
	}
	return nil
}

// IteratedFrontier returns DF⁺(defs), the limit of DF(defs),
// DF(defs ∪ DF(defs)), and so on. For a variable assigned in the
// nodes defs, these are the nodes that need a φ-node.
//
// This is the body of the main loop of the insert-φ function described
// by Cytron et al, with the 'hasAlready' and 'work' counters replaced
// by bit sets.
func IteratedFrontier(df Frontier, defs bitset.Set) bitset.Set {
	n := len(df)
	phis := bitset.New(n)
	seen := defs.Clone()
	work := defs.Clone()
	for x := work.Take(); x != -1; x = work.Take() {
		for y := df[x].Next(0); y != -1; y = df[x].Next(y + 1) {
			if phis.Add(y) && seen.Add(y) {
				work.Add(y)
			}
		}
	}
	return phis
}
