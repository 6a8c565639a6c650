package graph

import (
	"fmt"
	"strings"
)

// DuplicateNodeError reports an AddNode call with a name already registered.
type DuplicateNodeError struct {
	Node string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("node %q already present in graph", e.Node)
}

// UnknownNodeError reports an edge referencing a name never added via
// AddNode (and not a sentinel).
type UnknownNodeError struct {
	Node string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("unknown node %q: add it with AddNode before wiring edges", e.Node)
}

// SelfEdgeError reports an edge whose source and target are the same node.
type SelfEdgeError struct {
	Node string
}

func (e *SelfEdgeError) Error() string {
	return fmt.Sprintf("self-edge on node %q is not allowed", e.Node)
}

// NoStartEdgeError reports a traversal on a graph whose START sentinel has no
// outgoing edge.
type NoStartEdgeError struct{}

func (e *NoStartEdgeError) Error() string {
	return "START has no outgoing edge"
}

// AmbiguousStartError reports a START sentinel with more than one outgoing
// edge; the entry point must be deterministic.
type AmbiguousStartError struct {
	Edges int
}

func (e *AmbiguousStartError) Error() string {
	return fmt.Sprintf("START has %d outgoing edges, expected exactly one", e.Edges)
}

// DeadEndError reports traversal reaching a non-END node with no outgoing
// edges.
type DeadEndError struct {
	Node string
}

func (e *DeadEndError) Error() string {
	return fmt.Sprintf("node %q is a dead end: no outgoing edges", e.Node)
}

// RoutingAmbiguityError reports a routing selection that matches none of the
// node's legal targets. The model's choice is never trusted blindly; an
// unmatched selection fails the invocation instead of picking a fallback.
type RoutingAmbiguityError struct {
	Node       string
	Selection  string
	Candidates []string
}

func (e *RoutingAmbiguityError) Error() string {
	return fmt.Sprintf("node %q: routing selection %q matches none of [%s]",
		e.Node, e.Selection, strings.Join(e.Candidates, ", "))
}

// MaxHopsExceededError reports a traversal that exceeded the configured hop
// ceiling, usually a symptom of an unintended cycle.
type MaxHopsExceededError struct {
	Hops int
}

func (e *MaxHopsExceededError) Error() string {
	return fmt.Sprintf("traversal exceeded %d hops", e.Hops)
}
