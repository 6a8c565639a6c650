package graph

import (
	"context"

	"github.com/imengine/imengine/agent"
	"github.com/imengine/imengine/logging"
	"github.com/imengine/imengine/memory"
)

// Sentinel node names. Every graph has exactly one START and one END; agents
// cannot be registered under these names.
const (
	Start = "START"
	End   = "END"
)

// endDescription is what routing prompts show for the END sentinel.
const endDescription = "The end of the graph, returning the final response to the user."

// Options configure a Graph.
type Options struct {
	// MaxHops bounds the number of node-to-node moves in one invocation.
	// Zero means unlimited: the engine does not detect cycles, so an agent
	// that keeps routing backwards will loop until the caller's context or
	// this ceiling intervenes.
	MaxHops int
	// Logger receives structured traversal logs.
	Logger logging.Logger
}

// Graph is a directed graph of agents plus the START/END sentinels,
// describing the possible execution paths of a multi-agent run.
//
// Topology is mutable during construction (AddNode, AddEdge) and fixed
// during Invoke; invocations mutate only agent memories.
type Graph struct {
	nodes   map[string]*agent.Agent
	edges   map[string][]string
	maxHops int
	logger  logging.Logger
}

// New constructs an empty graph.
func New(optFns ...func(o *Options)) *Graph {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Graph{
		nodes:   make(map[string]*agent.Agent),
		edges:   make(map[string][]string),
		maxHops: opts.MaxHops,
		logger:  opts.Logger,
	}
}

// WithMaxHops caps node-to-node moves per invocation.
func WithMaxHops(n int) func(o *Options) {
	return func(o *Options) { o.MaxHops = n }
}

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// AddNode registers one or more agents as nodes. Names must be unique within
// the graph and distinct from the sentinels; a collision fails with
// DuplicateNodeError.
func (g *Graph) AddNode(agents ...*agent.Agent) error {
	for _, a := range agents {
		name := a.Name()
		if name == Start || name == End {
			return &DuplicateNodeError{Node: name}
		}
		if _, exists := g.nodes[name]; exists {
			return &DuplicateNodeError{Node: name}
		}
		g.nodes[name] = a
	}
	return nil
}

// AddEdge registers a directed edge from source to target, routing the
// output of source into target. Both endpoints must be previously added
// nodes or the sentinels; otherwise the call fails with UnknownNodeError.
// Self-edges fail with SelfEdgeError: cycles are legal, but only through at
// least one other node.
func (g *Graph) AddEdge(source, target string) error {
	if source == target {
		return &SelfEdgeError{Node: source}
	}
	if err := g.checkEndpoint(source); err != nil {
		return err
	}
	if err := g.checkEndpoint(target); err != nil {
		return err
	}
	g.edges[source] = append(g.edges[source], target)
	return nil
}

func (g *Graph) checkEndpoint(name string) error {
	if name == Start || name == End {
		return nil
	}
	if _, ok := g.nodes[name]; !ok {
		return &UnknownNodeError{Node: name}
	}
	return nil
}

// Nodes returns the registered agent names (sentinels excluded).
func (g *Graph) Nodes() []string {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	return names
}

// Edges returns a copy of the outgoing edge list for a node.
func (g *Graph) Edges(node string) []string {
	out := make([]string, len(g.edges[node]))
	copy(out, g.edges[node])
	return out
}

// Invoke executes the graph from START with input as the initial user
// message, returning the text produced at END.
//
// At each node the agent is invoked with the inbound payload. A node with one
// outgoing edge moves deterministically; a branch node delegates the choice
// to its own agent via a routing call, validated strictly against the legal
// targets (RoutingAmbiguityError on mismatch). A non-END node without
// outgoing edges fails with DeadEndError. Errors are never swallowed and no
// partial result is returned.
func (g *Graph) Invoke(ctx context.Context, input string) (string, error) {
	startEdges := g.edges[Start]
	if len(startEdges) == 0 {
		return "", &NoStartEdgeError{}
	}
	if len(startEdges) > 1 {
		return "", &AmbiguousStartError{Edges: len(startEdges)}
	}

	current := startEdges[0]
	payload := input
	hops := 0

	for current != End {
		hops++
		if g.maxHops > 0 && hops > g.maxHops {
			return "", &MaxHopsExceededError{Hops: g.maxHops}
		}

		node := g.nodes[current]
		output, err := node.Invoke(ctx, memory.RoleUser, payload)
		if err != nil {
			return "", err
		}

		next, err := g.nextNode(ctx, current, node)
		if err != nil {
			return "", err
		}

		g.logger.Debug("graph.step", "node", current, "next", next, "hop", hops)
		current = next
		payload = output
	}

	return payload, nil
}

// nextNode determines the successor of the current node: deterministic for a
// single outgoing edge, model-delegated for a branch point.
func (g *Graph) nextNode(ctx context.Context, current string, node *agent.Agent) (string, error) {
	targets := g.edges[current]
	switch len(targets) {
	case 0:
		return "", &DeadEndError{Node: current}
	case 1:
		return targets[0], nil
	}

	candidates := make([]agent.RouteCandidate, len(targets))
	for i, target := range targets {
		candidates[i] = agent.RouteCandidate{Name: target, Description: endDescription}
		if target != End {
			candidates[i].Description = g.nodes[target].Description()
		}
	}

	selection, err := node.Route(ctx, candidates)
	if err != nil {
		return "", err
	}

	for _, target := range targets {
		if selection == target {
			g.logger.Info("graph.route", "node", current, "selection", selection)
			return target, nil
		}
	}
	return "", &RoutingAmbiguityError{Node: current, Selection: selection, Candidates: targets}
}
