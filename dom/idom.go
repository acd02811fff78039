package dom

import (
	"fmt"

	"honnef.co/go/domfront/bitset"
)

// ImmediateDominators derives the immediate dominator of every node
// from its dominator set.
//
// For a node n, let S be its strict dominators. If S is empty, n has
// no immediate dominator and maps to None; Solve produces such sets
// for every node that cannot be reached from the entry. Otherwise the immediate
// dominator is the element d of S that no other element of S
// strictly dominates. Candidates are examined in ascending order and
// the first match is used. If S is not totally ordered by dominance,
// ImmediateDominators fails with a *ChainViolationError; sets produced
// by Solve for nodes reachable from the entry never do.
//
// The entry maps to itself.
func ImmediateDominators(sets Sets, entry Node) (Idoms, error) {
	n := len(sets)
	if entry < 0 || int(entry) >= n {
		return nil, &InvalidGraphError{Node: entry, Pred: None, Len: n, Entry: true}
	}
	for v, set := range sets {
		if set.Len() != n {
			return nil, fmt.Errorf("%w: dominator set of node %d has universe %d, want %d", ErrInvalidGraph, v, set.Len(), n)
		}
	}

	idom := make(Idoms, n)
	strict := bitset.New(n)
	for v := range sets {
		if Node(v) == entry {
			idom[v] = entry
			continue
		}
		strict.Copy(sets[v])
		strict.Remove(v)
		if strict.Empty() {
			idom[v] = None
			continue
		}
		d := closest(sets, strict)
		if d == None || !chainBelow(sets, strict, d) {
			return nil, &ChainViolationError{Node: Node(v), Strict: nodes(strict)}
		}
		idom[v] = d
	}
	return idom, nil
}

// closest returns the first element of strict, in ascending order,
// that is not a dominator of any other element of strict.
func closest(sets Sets, strict bitset.Set) Node {
	for d := strict.Next(0); d != -1; d = strict.Next(d + 1) {
		ok := true
		for o := strict.Next(0); o != -1; o = strict.Next(o + 1) {
			if o != d && sets[o].Has(d) {
				ok = false
				break
			}
		}
		if ok {
			return Node(d)
		}
	}
	return None
}

// chainBelow reports whether every element of strict other than d
// dominates d. Together with the choice of d by closest this makes
// strict a chain with d at its bottom.
func chainBelow(sets Sets, strict bitset.Set, d Node) bool {
	// d dominates itself, so strict ⊆ dom(d) covers d as well.
	return strict.SubsetOf(sets[d])
}
