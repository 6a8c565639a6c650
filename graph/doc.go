// Package graph connects agents into a directed execution graph with START
// and END sentinels. Traversal is synchronous and sequential; routing at
// branch points is delegated to the current agent's own reasoning over the
// target descriptions, with the selection validated strictly against the
// enumerated legal targets.
//
// The engine does not detect cycles. Callers wanting a hard guarantee bound
// traversal with WithMaxHops or a context deadline.
package graph
