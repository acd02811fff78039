// Package cfgtext reads control flow graphs written in a simple
// line-oriented format and writes the results of dominance analysis.
//
// A graph is written as one line per node, giving the node's id,
// a colon and a comma-separated list of adjacent node ids:
//
//	# if-then-else
//	0:
//	1: 0
//	2: 1
//	3: 1
//	4: 2, 3
//
// Blank lines and everything following a '#' are ignored. The ids of
// a graph with n nodes must be exactly 0 through n-1, in any order.
// Whether the lists name predecessors or successors is chosen by the
// caller.
package cfgtext

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"honnef.co/go/domfront/dom"
)

// Orientation says whether adjacency lists name predecessors or
// successors.
type Orientation int

const (
	Predecessors Orientation = iota
	Successors
)

func (o Orientation) String() string {
	switch o {
	case Predecessors:
		return "predecessors"
	case Successors:
		return "successors"
	default:
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
}

// ParseOrientation parses the names returned by Orientation.String,
// as well as the abbreviations "preds" and "succs".
func ParseOrientation(s string) (Orientation, error) {
	switch s {
	case "predecessors", "preds":
		return Predecessors, nil
	case "successors", "succs":
		return Successors, nil
	default:
		return 0, fmt.Errorf("unknown orientation %q (valid choices are 'predecessors' and 'successors')", s)
	}
}

// A SyntaxError describes malformed input.
type SyntaxError struct {
	Line int // 1-based line number
	Col  int // 1-based byte offset into the line
	Msg  string
}

func (err *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", err.Line, err.Col, err.Msg)
}

type ref struct {
	id   dom.Node
	line int
	col  int
}

// Parse reads a graph from r. If orient is Successors, the lists are
// transposed into predecessor lists.
func Parse(r io.Reader, orient Orientation) (dom.Graph, error) {
	var (
		adj     = map[dom.Node][]dom.Node{}
		defLine = map[dom.Node]int{}
		refs    []ref
	)
	br := bufio.NewReader(r)
	for lineno := 1; ; lineno++ {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		if line == "" && err == io.EOF {
			break
		}
		if i := strings.IndexByte(line, '#'); i != -1 {
			line = line[:i]
		}
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) != "" {
			id, lrefs, perr := parseLine(line)
			if perr != nil {
				perr.Line = lineno
				return nil, perr
			}
			if prev, ok := defLine[id]; ok {
				return nil, &SyntaxError{lineno, 1, fmt.Sprintf("node %d already defined on line %d", id, prev)}
			}
			defLine[id] = lineno
			list := make([]dom.Node, 0, len(lrefs))
			for _, rf := range lrefs {
				rf.line = lineno
				refs = append(refs, rf)
				list = append(list, rf.id)
			}
			adj[id] = list
		}
		if err == io.EOF {
			break
		}
	}

	n := len(adj)
	if n == 0 {
		return nil, errors.New("graph has no nodes")
	}
	// Report the first offending line, not a random one.
	bad := dom.None
	for id, line := range defLine {
		if int(id) >= n && (bad == dom.None || line < defLine[bad]) {
			bad = id
		}
	}
	if bad != dom.None {
		return nil, &SyntaxError{defLine[bad], 1, fmt.Sprintf("node %d out of range: graph has %d nodes, ids must be 0 through %d", bad, n, n-1)}
	}
	for _, rf := range refs {
		if int(rf.id) >= n {
			return nil, &SyntaxError{rf.line, rf.col, fmt.Sprintf("reference to undefined node %d", rf.id)}
		}
	}

	lists := make([][]dom.Node, n)
	for id, list := range adj {
		lists[id] = list
	}
	if orient == Successors {
		return dom.Transpose(lists)
	}
	return dom.Graph(lists), nil
}

// parseLine parses a single non-empty line. The returned error has
// its Line field unset.
func parseLine(line string) (dom.Node, []ref, *SyntaxError) {
	colon := strings.IndexByte(line, ':')
	if colon == -1 {
		return 0, nil, &SyntaxError{Col: len(line) + 1, Msg: "missing ':' after node id"}
	}
	id, err := parseID(line[:colon], 0)
	if err != nil {
		return 0, nil, err
	}

	rest := line[colon+1:]
	if strings.TrimSpace(rest) == "" {
		return id, nil, nil
	}
	var refs []ref
	off := colon + 1
	for _, field := range strings.Split(rest, ",") {
		v, err := parseID(field, off)
		if err != nil {
			return 0, nil, err
		}
		refs = append(refs, ref{id: v, col: off + leadingSpace(field) + 1})
		off += len(field) + 1
	}
	return id, refs, nil
}

func leadingSpace(s string) int {
	return len(s) - len(strings.TrimLeft(s, " \t"))
}

// parseID parses a node id that starts at byte offset off of its line.
func parseID(field string, off int) (dom.Node, *SyntaxError) {
	col := off + leadingSpace(field) + 1
	s := strings.TrimSpace(field)
	if s == "" {
		return 0, &SyntaxError{Col: col, Msg: "expected node id"}
	}
	v, err := strconv.ParseUint(s, 10, 31)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, &SyntaxError{Col: col, Msg: fmt.Sprintf("node id %s out of range", s)}
		}
		return 0, &SyntaxError{Col: col, Msg: fmt.Sprintf("invalid node id %q", s)}
	}
	return dom.Node(v), nil
}

// Write writes g in the format read by Parse, using predecessor
// lists.
func Write(w io.Writer, g dom.Graph) error {
	bw := bufio.NewWriter(w)
	for v, preds := range g {
		fmt.Fprintf(bw, "%d:", v)
		for i, p := range preds {
			if i == 0 {
				fmt.Fprintf(bw, " %d", p)
			} else {
				fmt.Fprintf(bw, ", %d", p)
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
