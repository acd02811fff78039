// Package ssacfg runs dominance analysis on the control flow graphs of
// functions in SSA form.
//
// Basic block i of a function becomes node i of its graph, and the
// function's entry block, node 0, is the entry. The recover block, if
// present, has no predecessors and thus no immediate dominator.
package ssacfg

import (
	"fmt"
	"go/types"
	"sort"

	"golang.org/x/tools/go/ssa"

	"honnef.co/go/domfront/dom"
)

// Graph returns the predecessor graph of fn's basic blocks.
func Graph(fn *ssa.Function) dom.Graph {
	g := make(dom.Graph, len(fn.Blocks))
	for i, b := range fn.Blocks {
		preds := make([]dom.Node, len(b.Preds))
		for j, p := range b.Preds {
			preds[j] = dom.Node(p.Index)
		}
		g[i] = preds
	}
	return g
}

// Analyze computes the dominance information of fn using s, or the
// default solver if s is nil. Functions without a body cannot be
// analyzed.
func Analyze(fn *ssa.Function, s *dom.Solver) (*dom.Analysis, error) {
	if len(fn.Blocks) == 0 {
		return nil, fmt.Errorf("function %s has no body", fn)
	}
	if s == nil {
		s = new(dom.Solver)
	}
	return s.Analyze(Graph(fn), 0)
}

// Verify compares idom, the immediate dominators of fn's blocks, with
// the dominator tree that the SSA builder computed with the
// Lengauer-Tarjan algorithm.
func Verify(fn *ssa.Function, idom dom.Idoms) error {
	if len(idom) != len(fn.Blocks) {
		return fmt.Errorf("%s: %d immediate dominators for %d blocks", fn, len(idom), len(fn.Blocks))
	}
	for i, b := range fn.Blocks {
		want := dom.None
		if d := b.Idom(); d != nil {
			want = dom.Node(d.Index)
		}
		if got := idom.Parent(dom.Node(i)); got != want {
			return fmt.Errorf("%s: block %d (%s): immediate dominator is %d, SSA builder computed %d", fn, i, b.Comment, got, want)
		}
	}
	return nil
}

// Functions returns the source functions of pkg: its package-level
// functions, the methods of its named types and all anonymous
// functions nested within them, ordered by position. pkg must have
// been built.
func Functions(pkg *ssa.Package) []*ssa.Function {
	seen := map[*ssa.Function]bool{}
	var out []*ssa.Function
	var add func(fn *ssa.Function)
	add = func(fn *ssa.Function) {
		if fn == nil || seen[fn] || fn.Pkg != pkg {
			return
		}
		seen[fn] = true
		// The package initializer is synthetic, but the function
		// literals of package-level variables are nested in it.
		if fn.Synthetic == "" {
			out = append(out, fn)
		}
		for _, anon := range fn.AnonFuncs {
			add(anon)
		}
	}

	for _, mem := range pkg.Members {
		switch mem := mem.(type) {
		case *ssa.Function:
			add(mem)
		case *ssa.Type:
			T := mem.Type()
			for _, T := range []types.Type{T, types.NewPointer(T)} {
				mset := pkg.Prog.MethodSets.MethodSet(T)
				for i := 0; i < mset.Len(); i++ {
					add(pkg.Prog.MethodValue(mset.At(i)))
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pos() != out[j].Pos() {
			return out[i].Pos() < out[j].Pos()
		}
		return out[i].String() < out[j].String()
	})
	return out
}
