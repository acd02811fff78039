package dom

// Analysis holds the complete dominance information of a graph.
type Analysis struct {
	Graph    Graph
	Entry    Node
	Dom      Sets
	Idom     Idoms
	Frontier Frontier
	Stats    Stats
}

// Analyze runs Solve, ImmediateDominators and BuildFrontier on g using
// the default Solver.
func Analyze(g Graph, entry Node) (*Analysis, error) {
	var s Solver
	return s.Analyze(g, entry)
}

// Analyze runs Solve, ImmediateDominators and BuildFrontier on g.
//
// If a stage fails, Analyze returns the error together with an
// Analysis holding the results of the stages that completed; the
// fields of the failed and later stages are nil.
func (s *Solver) Analyze(g Graph, entry Node) (*Analysis, error) {
	a := &Analysis{Graph: g, Entry: entry}
	sets, st, err := s.Solve(g, entry)
	a.Stats = st
	if err != nil {
		return a, err
	}
	a.Dom = sets

	idom, err := ImmediateDominators(sets, entry)
	if err != nil {
		return a, err
	}
	a.Idom = idom

	df, err := BuildFrontier(g, idom)
	if err != nil {
		return a, err
	}
	a.Frontier = df
	return a, nil
}
