// Package gonumcfg converts between dominance analysis graphs and
// gonum directed graphs, and cross-checks immediate dominators against
// gonum's implementation of the Lengauer-Tarjan algorithm.
package gonumcfg

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/flow"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"

	"honnef.co/go/domfront/dom"
)

// A Mapping is a dom.Graph built from a gonum graph, together with
// the correspondence between node ids of the two.
type Mapping struct {
	Graph dom.Graph
	Entry dom.Node

	ids   []int64
	nodes map[int64]dom.Node
}

// FromDirected converts g, entered at entry, into a predecessor
// graph. gonum ids are mapped onto dense nodes in ascending order.
func FromDirected(g graph.Directed, entry graph.Node) (*Mapping, error) {
	gnodes := graph.NodesOf(g.Nodes())
	sort.Slice(gnodes, func(i, j int) bool { return gnodes[i].ID() < gnodes[j].ID() })

	m := &Mapping{
		Graph: make(dom.Graph, len(gnodes)),
		ids:   make([]int64, len(gnodes)),
		nodes: make(map[int64]dom.Node, len(gnodes)),
	}
	for i, n := range gnodes {
		m.ids[i] = n.ID()
		m.nodes[n.ID()] = dom.Node(i)
	}
	var ok bool
	if m.Entry, ok = m.nodes[entry.ID()]; !ok {
		return nil, fmt.Errorf("entry node %d is not in the graph", entry.ID())
	}

	for i, id := range m.ids {
		preds := graph.NodesOf(g.To(id))
		sort.Slice(preds, func(i, j int) bool { return preds[i].ID() < preds[j].ID() })
		list := make([]dom.Node, len(preds))
		for j, p := range preds {
			list[j] = m.nodes[p.ID()]
		}
		m.Graph[i] = list
	}
	return m, nil
}

// Node returns the node that the gonum id maps to, or dom.None.
func (m *Mapping) Node(id int64) dom.Node {
	if n, ok := m.nodes[id]; ok {
		return n
	}
	return dom.None
}

// ID returns the gonum id of n.
func (m *Mapping) ID(n dom.Node) int64 { return m.ids[n] }

// ToDirected converts g into a gonum graph in which node n has id n.
// Self-loops cannot be represented and are dropped; they have no
// bearing on dominance.
func ToDirected(g dom.Graph) *simple.DirectedGraph {
	dg := simple.NewDirectedGraph()
	for v := range g {
		dg.AddNode(simple.Node(v))
	}
	for v, preds := range g {
		for _, p := range preds {
			if int(p) == v {
				continue
			}
			dg.SetEdge(dg.NewEdge(simple.Node(p), simple.Node(v)))
		}
	}
	return dg
}

// Reachable returns the nodes of g reachable from entry, in ascending
// order.
func Reachable(g dom.Graph, entry dom.Node) []dom.Node {
	dg := ToDirected(g)
	var df traverse.DepthFirst
	df.Walk(dg, simple.Node(entry), nil)
	var out []dom.Node
	for v := range g {
		if df.Visited(simple.Node(v)) {
			out = append(out, dom.Node(v))
		}
	}
	return out
}

// Verify compares the immediate dominators of all nodes of g that are
// reachable from entry with those computed by gonum's flow.Dominators.
// Nodes that cannot be reached from entry are not checked.
func Verify(g dom.Graph, entry dom.Node, idom dom.Idoms) error {
	if err := g.Validate(entry); err != nil {
		return err
	}
	if len(idom) != len(g) {
		return fmt.Errorf("%d immediate dominators for %d nodes", len(idom), len(g))
	}
	tree := flow.Dominators(simple.Node(entry), ToDirected(g))
	for _, v := range Reachable(g, entry) {
		want := dom.None
		if d := tree.DominatorOf(int64(v)); d != nil {
			want = dom.Node(d.ID())
		}
		if got := idom.Parent(v); got != want {
			return fmt.Errorf("node %d: immediate dominator is %d, Lengauer-Tarjan computed %d", v, got, want)
		}
	}
	return nil
}
