// Package domfront defines an Analyzer that computes dominator sets,
// immediate dominators and dominance frontiers of the basic blocks of
// every source function in a package.
//
// The analysis does not report diagnostics unless it fails. Exported
// functions are annotated with a fact summarizing their control flow.
package domfront

import (
	"fmt"
	"go/ast"
	"reflect"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/buildssa"
	"golang.org/x/tools/go/ssa"

	"honnef.co/go/domfront/dom"
	"honnef.co/go/domfront/ssacfg"
)

// flowFact summarizes the control flow graph of a function.
type flowFact struct {
	// Merges is the number of blocks with more than one predecessor.
	Merges int
	// Loops is the number of blocks in their own dominance frontier,
	// that is loop headers.
	Loops int
}

func (*flowFact) AFact() {}
func (fact *flowFact) String() string {
	return fmt.Sprintf("merges=%d loops=%d", fact.Merges, fact.Loops)
}

// Result maps functions to their dominance information.
type Result struct {
	m     map[*ssa.Function]*dom.Analysis
	funcs []*ssa.Function
}

// Of returns the dominance information of fn, or nil if fn is not a
// source function of the package or could not be analyzed.
func (r *Result) Of(fn *ssa.Function) *dom.Analysis { return r.m[fn] }

// Functions returns the analyzed functions in source order.
func (r *Result) Functions() []*ssa.Function { return r.funcs }

var Analyzer = &analysis.Analyzer{
	Name:       "domfront",
	Doc:        "compute dominators and dominance frontiers of all source functions",
	Run:        run,
	Requires:   []*analysis.Analyzer{buildssa.Analyzer},
	FactTypes:  []analysis.Fact{(*flowFact)(nil)},
	ResultType: reflect.TypeOf((*Result)(nil)),
}

var (
	schedule = "round-robin"
	verify   bool
)

func init() {
	Analyzer.Flags.StringVar(&schedule, "schedule", schedule, "solver schedule, 'round-robin' or 'worklist'")
	Analyzer.Flags.BoolVar(&verify, "verify", false, "compare immediate dominators with those computed by the SSA builder")
}

func run(pass *analysis.Pass) (interface{}, error) {
	sched, err := dom.ParseSchedule(schedule)
	if err != nil {
		return nil, err
	}
	s := &dom.Solver{Schedule: sched}

	out := &Result{m: map[*ssa.Function]*dom.Analysis{}}
	for _, fn := range pass.ResultOf[buildssa.Analyzer].(*buildssa.SSA).SrcFuncs {
		if len(fn.Blocks) == 0 {
			continue
		}
		a, err := ssacfg.Analyze(fn, s)
		if err != nil {
			pass.Reportf(fn.Pos(), "dominance analysis of %s failed: %s", fn.Name(), err)
			continue
		}
		if verify {
			if err := ssacfg.Verify(fn, a.Idom); err != nil {
				pass.Reportf(fn.Pos(), "%s", err)
			}
		}
		out.m[fn] = a
		out.funcs = append(out.funcs, fn)

		if obj := fn.Object(); obj != nil && ast.IsExported(obj.Name()) {
			pass.ExportObjectFact(obj, summarize(a))
		}
	}
	return out, nil
}

func summarize(a *dom.Analysis) *flowFact {
	fact := new(flowFact)
	for v, preds := range a.Graph {
		if len(preds) > 1 {
			fact.Merges++
		}
		if a.Frontier[v].Has(v) {
			fact.Loops++
		}
	}
	return fact
}
