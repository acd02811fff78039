package dom

import (
	"errors"
	"reflect"
	"testing"

	"honnef.co/go/domfront/bitset"
)

// diamond is the graph
//
//	0 → 1 → 2 → 4
//	      ↘ 3 ↗
var diamond = Graph{
	0: {},
	1: {0},
	2: {1},
	3: {1},
	4: {2, 3},
}

// withUnreachable is diamond plus node 5, which has no predecessors.
var withUnreachable = Graph{
	0: {},
	1: {0},
	2: {1},
	3: {1},
	4: {2, 3},
	5: {},
}

// extend returns a copy of g with nodes appended; preds are the
// predecessor lists of the new nodes.
func extend(g Graph, preds ...[]Node) Graph {
	out := make(Graph, 0, len(g)+len(preds))
	out = append(out, g...)
	return append(out, preds...)
}

func frontierMap(df Frontier) map[Node][]Node {
	m := map[Node][]Node{}
	for v := range df {
		if s := df.Of(Node(v)); len(s) > 0 {
			m[Node(v)] = s
		}
	}
	return m
}

func TestDiamond(t *testing.T) {
	a, err := Analyze(diamond, 0)
	if err != nil {
		t.Fatal(err)
	}

	wantDom := [][]Node{
		0: {0},
		1: {0, 1},
		2: {0, 1, 2},
		3: {0, 1, 3},
		4: {0, 1, 4},
	}
	for v, want := range wantDom {
		if got := a.Dom.Of(Node(v)); !reflect.DeepEqual(got, want) {
			t.Errorf("dom(%d) = %v, want %v", v, got, want)
		}
	}

	wantIdom := map[Node]Node{1: 0, 2: 1, 3: 1, 4: 1}
	for v, want := range wantIdom {
		if got := a.Idom[v]; got != want {
			t.Errorf("idom(%d) = %d, want %d", v, got, want)
		}
	}
	if got := a.Idom.Parent(0); got != None {
		t.Errorf("Parent(entry) = %d, want None", got)
	}

	wantDF := map[Node][]Node{2: {4}, 3: {4}}
	if got := frontierMap(a.Frontier); !reflect.DeepEqual(got, wantDF) {
		t.Errorf("frontier = %v, want %v", got, wantDF)
	}
}

func TestUnreachableNode(t *testing.T) {
	a, err := Analyze(withUnreachable, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := a.Dom.Of(5); !reflect.DeepEqual(got, []Node{5}) {
		t.Errorf("dom(5) = %v, want [5]", got)
	}
	if got := a.Idom[5]; got != None {
		t.Errorf("idom(5) = %d, want None", got)
	}
	if got := a.Frontier.Of(5); len(got) != 0 {
		t.Errorf("frontier(5) = %v, want {}", got)
	}

	// Node 5 must not disturb the rest of the analysis.
	ref, err := Analyze(diamond, 0)
	if err != nil {
		t.Fatal(err)
	}
	for v := Node(0); v < 5; v++ {
		if a.Idom[v] != ref.Idom[v] {
			t.Errorf("idom(%d) = %d, want %d", v, a.Idom[v], ref.Idom[v])
		}
		got, want := a.Frontier.Of(v), ref.Frontier.Of(v)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("frontier(%d) = %v, want %v", v, got, want)
		}
	}
}

func TestInvalidGraph(t *testing.T) {
	tests := []struct {
		name  string
		g     Graph
		entry Node
		want  InvalidGraphError
	}{
		{"entry out of range", diamond, 99, InvalidGraphError{Node: 99, Pred: None, Len: 5, Entry: true}},
		{"negative entry", diamond, -1, InvalidGraphError{Node: -1, Pred: None, Len: 5, Entry: true}},
		{"empty graph", Graph{}, 0, InvalidGraphError{Node: 0, Pred: None, Len: 0, Entry: true}},
		{"predecessor out of range", Graph{{}, {7}}, 0, InvalidGraphError{Node: 1, Pred: 7, Len: 2}},
		{"negative predecessor", Graph{{}, {0}, {-1}}, 0, InvalidGraphError{Node: 2, Pred: -1, Len: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Solver
			sets, st, err := s.Solve(tt.g, tt.entry)
			if !errors.Is(err, ErrInvalidGraph) {
				t.Fatalf("got error %v, want ErrInvalidGraph", err)
			}
			var ierr *InvalidGraphError
			if !errors.As(err, &ierr) || *ierr != tt.want {
				t.Fatalf("got %#v, want %#v", err, tt.want)
			}
			if sets != nil || st != (Stats{}) {
				t.Errorf("solver did work on an invalid graph: sets=%v stats=%+v", sets, st)
			}
		})
	}
}

func TestLoop(t *testing.T) {
	// 0 → 1 → 2 → 3 → 4
	//     ↑       ↓
	//     └───────┘
	g := Graph{
		0: {},
		1: {0, 3},
		2: {1},
		3: {2},
		4: {3},
	}
	a, err := Analyze(g, 0)
	if err != nil {
		t.Fatal(err)
	}
	if want := (Idoms{0, 0, 1, 2, 3}); !reflect.DeepEqual(a.Idom, want) {
		t.Errorf("idom = %v, want %v", a.Idom, want)
	}
	want := map[Node][]Node{1: {1}, 2: {1}, 3: {1}}
	if got := frontierMap(a.Frontier); !reflect.DeepEqual(got, want) {
		t.Errorf("frontier = %v, want %v", got, want)
	}
}

func TestSelfLoop(t *testing.T) {
	g := Graph{
		0: {},
		1: {0, 1},
		2: {1},
	}
	a, err := Analyze(g, 0)
	if err != nil {
		t.Fatal(err)
	}
	if want := (Idoms{0, 0, 1}); !reflect.DeepEqual(a.Idom, want) {
		t.Errorf("idom = %v, want %v", a.Idom, want)
	}
	if got := a.Frontier.Of(1); !reflect.DeepEqual(got, []Node{1}) {
		t.Errorf("frontier(1) = %v, want [1]", got)
	}
}

func TestUnreachableSubgraph(t *testing.T) {
	// Nodes 3 through 6 form a diamond that cannot be reached from
	// the entry. Being unreachable, none of them has a dominator
	// besides itself, and the merge at 6 has predecessors without an
	// immediate dominator.
	g := Graph{
		0: {},
		1: {0},
		2: {1},
		3: {},
		4: {3},
		5: {3},
		6: {4, 5},
	}
	a, err := Analyze(g, 0)
	var uerr *UnreachablePredecessorError
	if !errors.As(err, &uerr) {
		t.Fatalf("got error %v, want an *UnreachablePredecessorError", err)
	}
	if uerr.Merge != 6 || uerr.Runner != 4 {
		t.Errorf("got merge %d, runner %d; want merge 6, runner 4", uerr.Merge, uerr.Runner)
	}
	for v := Node(3); v <= 6; v++ {
		if got := a.Dom.Of(v); !reflect.DeepEqual(got, []Node{v}) {
			t.Errorf("dom(%d) = %v, want [%d]", v, got, v)
		}
	}
	if want := (Idoms{0, 0, 1, None, None, None, None}); !reflect.DeepEqual(a.Idom, want) {
		t.Errorf("idom = %v, want %v", a.Idom, want)
	}
}

func TestUnreachableCycle(t *testing.T) {
	// 5 and 6 form a cycle that cannot be reached from the entry.
	g := extend(diamond,
		[]Node{6}, // 5
		[]Node{5}, // 6
	)
	for _, sched := range []Schedule{RoundRobin, Worklist} {
		s := Solver{Schedule: sched}
		a, err := s.Analyze(g, 0)
		if err != nil {
			t.Fatalf("%v: %v", sched, err)
		}
		for _, v := range []Node{5, 6} {
			if got := a.Dom.Of(v); !reflect.DeepEqual(got, []Node{v}) {
				t.Errorf("%v: dom(%d) = %v, want [%d]", sched, v, got, v)
			}
			if got := a.Idom[v]; got != None {
				t.Errorf("%v: idom(%d) = %d, want None", sched, v, got)
			}
		}
		if a.Dom.Dominates(5, 6) || a.Dom.Dominates(6, 5) {
			t.Errorf("%v: nodes of the unreachable cycle dominate each other", sched)
		}
		want := map[Node][]Node{2: {4}, 3: {4}}
		if got := frontierMap(a.Frontier); !reflect.DeepEqual(got, want) {
			t.Errorf("%v: frontier = %v, want %v", sched, got, want)
		}
	}
}

func TestUnreachableMergeCycle(t *testing.T) {
	// 5, 6 and 7 cannot be reached from the entry; 5 merges the back
	// edges from 6 and 7.
	g := extend(diamond,
		[]Node{6, 7}, // 5
		[]Node{5},    // 6
		[]Node{5},    // 7
	)
	sets, err := Solve(g, 0)
	if err != nil {
		t.Fatal(err)
	}
	idom, err := ImmediateDominators(sets, 0)
	if err != nil {
		t.Fatalf("extracting immediate dominators failed: %v", err)
	}
	if want := (Idoms{0, 0, 1, 1, 1, None, None, None}); !reflect.DeepEqual(idom, want) {
		t.Errorf("idom = %v, want %v", idom, want)
	}

	_, err = Analyze(g, 0)
	if errors.Is(err, ErrChainViolation) {
		t.Fatalf("unreachable nodes caused a chain violation: %v", err)
	}
	var uerr *UnreachablePredecessorError
	if !errors.As(err, &uerr) {
		t.Fatalf("got error %v, want an *UnreachablePredecessorError", err)
	}
	if uerr.Merge != 5 || uerr.Runner != 6 {
		t.Errorf("got merge %d, runner %d; want merge 5, runner 6", uerr.Merge, uerr.Runner)
	}
}

func TestResumeResetsUnreachable(t *testing.T) {
	g := extend(diamond,
		[]Node{6}, // 5
		[]Node{5}, // 6
	)
	init := make(Sets, len(g))
	for v := range init {
		init[v] = bitset.Full(len(g))
	}
	init[0] = bitset.Of(len(g), 0)
	var s Solver
	sets, _, err := s.Resume(g, 0, init)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range []Node{5, 6} {
		if got := sets.Of(v); !reflect.DeepEqual(got, []Node{v}) {
			t.Errorf("dom(%d) = %v, want [%d]", v, got, v)
		}
	}
}

func TestUnreachablePredecessor(t *testing.T) {
	// 3 merges a reachable path through 1 with node 2, which
	// cannot be reached from the entry.
	g := Graph{
		0: {},
		1: {0},
		2: {},
		3: {1, 2},
	}
	a, err := Analyze(g, 0)
	if !errors.Is(err, ErrUnreachablePredecessor) {
		t.Fatalf("got error %v, want ErrUnreachablePredecessor", err)
	}
	var uerr *UnreachablePredecessorError
	if !errors.As(err, &uerr) {
		t.Fatalf("error %T is not an *UnreachablePredecessorError", err)
	}
	if uerr.Merge != 3 || uerr.Runner != 2 {
		t.Errorf("got merge %d, runner %d; want merge 3, runner 2", uerr.Merge, uerr.Runner)
	}
	if a.Dom == nil || a.Idom == nil {
		t.Error("results of the completed stages were not retained")
	}
	if a.Frontier != nil {
		t.Error("frontier of a failed stage was published")
	}
}

func TestBuildFrontierCyclicIdoms(t *testing.T) {
	// Immediate dominators that form a cycle never reach the bound
	// of the walk. The walk must fail instead of looping.
	g := Graph{
		0: {},
		1: {0},
		2: {3},
		3: {2},
		4: {1, 2},
	}
	idom := Idoms{0, 0, 3, 2, 0}
	_, err := BuildFrontier(g, idom)
	if !errors.Is(err, ErrUnreachablePredecessor) {
		t.Fatalf("got error %v, want ErrUnreachablePredecessor", err)
	}
}

func TestChainViolation(t *testing.T) {
	// Nodes 1 and 2 claim to dominate each other, so the strict
	// dominators of 3 have no closest element.
	sets := Sets{
		0: bitset.Of(4, 0),
		1: bitset.Of(4, 0, 1, 2),
		2: bitset.Of(4, 0, 1, 2),
		3: bitset.Of(4, 1, 2, 3),
	}
	_, err := ImmediateDominators(sets, 0)
	var cerr *ChainViolationError
	if !errors.As(err, &cerr) {
		t.Fatalf("got error %v, want a *ChainViolationError", err)
	}
	if cerr.Node != 3 || !reflect.DeepEqual(cerr.Strict, []Node{1, 2}) {
		t.Errorf("got %+v, want node 3 with strict dominators [1 2]", cerr)
	}
	if !errors.Is(err, ErrChainViolation) {
		t.Error("error does not wrap ErrChainViolation")
	}
}

func TestChainViolationUnorderedCandidate(t *testing.T) {
	// No other strict dominator of 3 contains 1, so it is picked as
	// the closest one, but 2 does not dominate 1.
	sets := Sets{
		0: bitset.Of(4, 0),
		1: bitset.Of(4, 0, 1),
		2: bitset.Of(4, 0, 2),
		3: bitset.Of(4, 1, 2, 3),
	}
	_, err := ImmediateDominators(sets, 0)
	if !errors.Is(err, ErrChainViolation) {
		t.Fatalf("got error %v, want ErrChainViolation", err)
	}
}

func TestNonConvergence(t *testing.T) {
	s := Solver{MaxPasses: 1}
	_, st, err := s.Solve(diamond, 0)
	if !errors.Is(err, ErrNonConvergence) {
		t.Fatalf("got error %v, want ErrNonConvergence", err)
	}
	if st.Passes != 1 {
		t.Errorf("solver stopped after %d passes, want 1", st.Passes)
	}
}

func TestSolverOrderValidation(t *testing.T) {
	tests := [][]Node{
		{0, 1, 2},
		{0, 1, 2, 3, 3},
		{0, 1, 2, 3, 5},
	}
	for _, order := range tests {
		s := Solver{Order: order}
		if _, _, err := s.Solve(diamond, 0); err == nil {
			t.Errorf("order %v: expected an error", order)
		}
	}
}

func TestResumeFromFixedPoint(t *testing.T) {
	for _, sched := range []Schedule{RoundRobin, Worklist} {
		s := Solver{Schedule: sched}
		sets, _, err := s.Solve(withUnreachable, 0)
		if err != nil {
			t.Fatal(err)
		}
		again, st, err := s.Resume(withUnreachable, 0, sets)
		if err != nil {
			t.Fatal(err)
		}
		if st.Updates != 0 || st.Passes != 1 {
			t.Errorf("%v: resuming from the fixed point took %+v", sched, st)
		}
		for v := range sets {
			if !sets[v].Equal(again[v]) {
				t.Errorf("%v: dom(%d) changed from %v to %v", sched, v, sets[v], again[v])
			}
		}
	}
}

func TestResumeDoesNotModifyInput(t *testing.T) {
	init := make(Sets, len(diamond))
	for v := range init {
		init[v] = bitset.Full(len(diamond))
	}
	init[0] = bitset.Of(len(diamond), 0)
	var s Solver
	if _, _, err := s.Resume(diamond, 0, init); err != nil {
		t.Fatal(err)
	}
	if init[4].Count() != len(diamond) {
		t.Errorf("Resume modified its initial state: %v", init[4])
	}
}

func TestTranspose(t *testing.T) {
	succs := [][]Node{
		0: {1},
		1: {2, 3},
		2: {4},
		3: {4},
		4: {},
	}
	g, err := Transpose(succs)
	if err != nil {
		t.Fatal(err)
	}
	want := Graph{0: nil, 1: {0}, 2: {1}, 3: {1}, 4: {2, 3}}
	if !reflect.DeepEqual(g, want) {
		t.Errorf("Transpose = %v, want %v", g, want)
	}
	if !reflect.DeepEqual(g.Succs(), [][]Node{0: {1}, 1: {2, 3}, 2: {4}, 3: {4}, 4: nil}) {
		t.Errorf("Succs does not invert Transpose: %v", g.Succs())
	}

	if _, err := Transpose([][]Node{{5}}); !errors.Is(err, ErrInvalidGraph) {
		t.Errorf("got error %v, want ErrInvalidGraph", err)
	}
}

func TestIteratedFrontier(t *testing.T) {
	// A loop containing a diamond:
	//
	//	0 → 1 → 2 → 4 → 5 → 6
	//	    ↑   ↘ 3 ↗   |
	//	    └───────────┘
	g := Graph{
		0: {},
		1: {0, 5},
		2: {1},
		3: {1},
		4: {2, 3},
		5: {4},
		6: {5},
	}
	a, err := Analyze(g, 0)
	if err != nil {
		t.Fatal(err)
	}
	// A definition in 2 needs a φ at the diamond's merge 4 and,
	// because 4 then defines the variable, at the loop header 1.
	phis := IteratedFrontier(a.Frontier, bitset.Of(len(g), 2))
	if got, want := phis.Elems(), []int{1, 4}; !reflect.DeepEqual(got, want) {
		t.Errorf("DF+({2}) = %v, want %v", got, want)
	}
	// A definition in the entry needs no φ at all.
	if phis := IteratedFrontier(a.Frontier, bitset.Of(len(g), 0)); !phis.Empty() {
		t.Errorf("DF+({0}) = %v, want {}", phis)
	}
}

func TestScheduleParsing(t *testing.T) {
	for _, sched := range []Schedule{RoundRobin, Worklist} {
		got, err := ParseSchedule(sched.String())
		if err != nil || got != sched {
			t.Errorf("ParseSchedule(%q) = %v, %v", sched.String(), got, err)
		}
	}
	if _, err := ParseSchedule("random"); err == nil {
		t.Error("expected an error for an unknown schedule")
	}
}
