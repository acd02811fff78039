package cfgtext

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"honnef.co/go/domfront/dom"
)

// A Result is the analysis of a single named graph.
type Result struct {
	// Name identifies the graph, for example the file it was read
	// from or the function it was built from. It may be empty.
	Name     string
	Analysis *dom.Analysis
}

// A Formatter writes analysis results.
type Formatter interface {
	Format(res Result) error
}

// NewFormatter returns the formatter called name, writing to w.
func NewFormatter(name string, w io.Writer) (Formatter, error) {
	switch name {
	case "text":
		return &TextFormatter{W: w}, nil
	case "json":
		return JSONFormatter{W: w}, nil
	case "dot":
		return DotFormatter{W: w}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q (valid choices are 'text', 'json' and 'dot')", name)
	}
}

// TextFormatter writes a table of immediate dominators, listing every
// node but the entry, and a table of dominance frontiers, listing
// every node. Results are separated by blank lines and, if named,
// preceded by their name.
type TextFormatter struct {
	W io.Writer

	n int
}

func (o *TextFormatter) Format(res Result) error {
	bw := bufio.NewWriter(o.W)
	if o.n > 0 {
		bw.WriteByte('\n')
	}
	o.n++
	if res.Name != "" {
		fmt.Fprintln(bw, res.Name)
	}

	a := res.Analysis
	fmt.Fprintln(bw, "idom:")
	for v, d := range a.Idom {
		if dom.Node(v) == a.Entry {
			continue
		}
		if d == dom.None {
			fmt.Fprintf(bw, "  %d -> none\n", v)
		} else {
			fmt.Fprintf(bw, "  %d -> %d\n", v, d)
		}
	}
	fmt.Fprintln(bw, "frontier:")
	for v, df := range a.Frontier {
		fmt.Fprintf(bw, "  %d -> %s\n", v, df)
	}
	return bw.Flush()
}

// JSONFormatter writes one JSON object per result. Immediate
// dominators are keyed by node, with null standing in for none; empty
// frontiers are omitted.
type JSONFormatter struct {
	W io.Writer
}

func (o JSONFormatter) Format(res Result) error {
	a := res.Analysis
	jr := struct {
		Name     string                `json:"name"`
		Entry    dom.Node              `json:"entry"`
		Idom     map[string]*dom.Node  `json:"idom"`
		Frontier map[string][]dom.Node `json:"frontier"`
	}{
		Name:     res.Name,
		Entry:    a.Entry,
		Idom:     map[string]*dom.Node{},
		Frontier: map[string][]dom.Node{},
	}
	for v, d := range a.Idom {
		if dom.Node(v) == a.Entry {
			continue
		}
		key := strconv.Itoa(v)
		if d == dom.None {
			jr.Idom[key] = nil
		} else {
			jr.Idom[key] = &d
		}
	}
	for v := range a.Frontier {
		if df := a.Frontier.Of(dom.Node(v)); len(df) > 0 {
			jr.Frontier[strconv.Itoa(v)] = df
		}
	}
	return json.NewEncoder(o.W).Encode(jr)
}

// DotFormatter writes the control flow graph and dominator tree of
// each result in AT&T GraphViz (.dot) format. Dominator tree edges are
// solid, CFG edges dotted.
type DotFormatter struct {
	W io.Writer
}

func (o DotFormatter) Format(res Result) error {
	a := res.Analysis
	bw := bufio.NewWriter(o.W)
	if res.Name != "" {
		fmt.Fprintln(bw, "//", res.Name)
	}
	fmt.Fprintln(bw, "digraph domtree {")
	for v := range a.Graph {
		n := dom.Node(v)
		label := strconv.Itoa(v)
		if df := a.Frontier.Of(n); len(df) > 0 {
			label += fmt.Sprintf(" DF=%v", df)
		}
		shape := "rectangle"
		if n == a.Entry {
			shape = "doublecircle"
		}
		fmt.Fprintf(bw, "\tn%d [label=%q,shape=%q];\n", v, label, shape)

		// Dominator tree edge.
		if d := a.Idom.Parent(n); d != dom.None {
			fmt.Fprintf(bw, "\tn%d -> n%d [style=\"solid\",weight=100];\n", d, v)
		}
		// CFG edges.
		for _, p := range a.Graph[v] {
			fmt.Fprintf(bw, "\tn%d -> n%d [style=\"dotted\",weight=0];\n", p, v)
		}
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}
