package dom

import (
	"errors"
	"fmt"
)

// Every error returned by this package wraps one of these, so callers
// can classify failures with errors.Is.
var (
	ErrInvalidGraph           = errors.New("invalid graph")
	ErrChainViolation         = errors.New("strict dominators do not form a chain")
	ErrUnreachablePredecessor = errors.New("unreachable predecessor in frontier walk")
	ErrNonConvergence         = errors.New("dominator sets did not converge")
)

// InvalidGraphError reports an entry or predecessor id outside [0, Len).
type InvalidGraphError struct {
	Node  Node // node whose predecessor list is invalid, or the entry
	Pred  Node // offending predecessor; None if Entry is set
	Len   int  // number of nodes in the graph
	Entry bool // the entry itself is out of range
}

func (err *InvalidGraphError) Error() string {
	if err.Entry {
		return fmt.Sprintf("invalid graph: entry %d out of range [0, %d)", err.Node, err.Len)
	}
	return fmt.Sprintf("invalid graph: predecessor %d of node %d out of range [0, %d)", err.Pred, err.Node, err.Len)
}

func (err *InvalidGraphError) Unwrap() error { return ErrInvalidGraph }

// ChainViolationError reports a node whose strict dominators are not
// totally ordered by dominance. It indicates malformed dominator sets,
// never a property of the input graph alone.
type ChainViolationError struct {
	Node   Node
	Strict []Node // the strict dominators of Node
}

func (err *ChainViolationError) Error() string {
	return fmt.Sprintf("strict dominators %v of node %d do not form a chain", err.Strict, err.Node)
}

func (err *ChainViolationError) Unwrap() error { return ErrChainViolation }

// UnreachablePredecessorError reports a frontier walk, started at a
// predecessor of Merge, that reached Runner, a node with no immediate
// dominator, before reaching the immediate dominator of Merge.
type UnreachablePredecessorError struct {
	Merge  Node
	Runner Node
}

func (err *UnreachablePredecessorError) Error() string {
	return fmt.Sprintf("frontier walk for merge node %d reached node %d, which has no immediate dominator", err.Merge, err.Runner)
}

func (err *UnreachablePredecessorError) Unwrap() error { return ErrUnreachablePredecessor }

// NonConvergenceError reports that the solver hit its pass limit.
type NonConvergenceError struct {
	Passes int
}

func (err *NonConvergenceError) Error() string {
	return fmt.Sprintf("dominator sets did not converge after %d passes", err.Passes)
}

func (err *NonConvergenceError) Unwrap() error { return ErrNonConvergence }
