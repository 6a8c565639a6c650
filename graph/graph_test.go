package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imengine/imengine/agent"
	"github.com/imengine/imengine/model"
)

func mockAgent(name, description string) (*agent.Agent, *model.MockModel) {
	llm := model.NewMockModel("mock-model", "mock")
	a := agent.New(name, llm, agent.WithDescription(description))
	return a, llm
}

// -------------------- Construction Tests --------------------

func TestGraph_AddNode_Duplicate(t *testing.T) {
	g := New()
	first, _ := mockAgent("writer", "Writes prose")
	second, _ := mockAgent("writer", "Also writes prose")

	require.NoError(t, g.AddNode(first))
	err := g.AddNode(second)

	var dupErr *DuplicateNodeError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "writer", dupErr.Node)
}

func TestGraph_AddNode_SentinelNameRejected(t *testing.T) {
	g := New()
	imposter, _ := mockAgent("END", "Pretends to be the end")

	err := g.AddNode(imposter)

	var dupErr *DuplicateNodeError
	require.ErrorAs(t, err, &dupErr)
}

func TestGraph_AddEdge_UnknownNode(t *testing.T) {
	g := New()
	writer, _ := mockAgent("writer", "Writes prose")
	require.NoError(t, g.AddNode(writer))

	err := g.AddEdge("writer", "ghost")

	var unknownErr *UnknownNodeError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "ghost", unknownErr.Node)
}

func TestGraph_AddEdge_SelfEdgeRejected(t *testing.T) {
	g := New()
	looper, _ := mockAgent("looper", "Feeds its output back to itself")
	require.NoError(t, g.AddNode(looper))

	err := g.AddEdge("looper", "looper")

	var selfErr *SelfEdgeError
	require.ErrorAs(t, err, &selfErr)
	assert.Equal(t, "looper", selfErr.Node)
	assert.Empty(t, g.Edges("looper"))
}

func TestGraph_AddEdge_Sentinels(t *testing.T) {
	g := New()
	writer, _ := mockAgent("writer", "Writes prose")
	require.NoError(t, g.AddNode(writer))

	assert.NoError(t, g.AddEdge(Start, "writer"))
	assert.NoError(t, g.AddEdge("writer", End))
	assert.Equal(t, []string{"writer"}, g.Edges(Start))
}

// -------------------- Traversal Tests --------------------

func TestGraph_Invoke_SingleAgent(t *testing.T) {
	g := New()
	writer, llm := mockAgent("writer", "Writes prose")
	llm.AddResponse("write a haiku", "haiku about autumn")

	require.NoError(t, g.AddNode(writer))
	require.NoError(t, g.AddEdge(Start, "writer"))
	require.NoError(t, g.AddEdge("writer", End))

	out, err := g.Invoke(context.Background(), "write a haiku")

	require.NoError(t, err)
	assert.Equal(t, "haiku about autumn", out)
	assert.Equal(t, 2, writer.Memory().Len())
}

func TestGraph_Invoke_Chain(t *testing.T) {
	g := New()
	writer, writerLLM := mockAgent("writer", "Writes prose")
	critic, criticLLM := mockAgent("critic", "Reviews prose")
	writerLLM.AddResponse("topic", "draft")
	criticLLM.AddResponse("draft", "review of draft")

	require.NoError(t, g.AddNode(writer, critic))
	require.NoError(t, g.AddEdge(Start, "writer"))
	require.NoError(t, g.AddEdge("writer", "critic"))
	require.NoError(t, g.AddEdge("critic", End))

	out, err := g.Invoke(context.Background(), "topic")

	require.NoError(t, err)
	assert.Equal(t, "review of draft", out)
}

func TestGraph_Invoke_StartDirectlyToEnd(t *testing.T) {
	g := New()
	require.NoError(t, g.AddEdge(Start, End))

	out, err := g.Invoke(context.Background(), "pass through")

	require.NoError(t, err)
	assert.Equal(t, "pass through", out)
}

func TestGraph_Invoke_NoStartEdge(t *testing.T) {
	g := New()
	writer, _ := mockAgent("writer", "Writes prose")
	require.NoError(t, g.AddNode(writer))

	_, err := g.Invoke(context.Background(), "input")

	var startErr *NoStartEdgeError
	require.ErrorAs(t, err, &startErr)
}

func TestGraph_Invoke_AmbiguousStart(t *testing.T) {
	g := New()
	writer, _ := mockAgent("writer", "Writes prose")
	critic, _ := mockAgent("critic", "Reviews prose")
	require.NoError(t, g.AddNode(writer, critic))
	require.NoError(t, g.AddEdge(Start, "writer"))
	require.NoError(t, g.AddEdge(Start, "critic"))

	_, err := g.Invoke(context.Background(), "input")

	var ambErr *AmbiguousStartError
	require.ErrorAs(t, err, &ambErr)
	assert.Equal(t, 2, ambErr.Edges)
}

func TestGraph_Invoke_DeadEnd(t *testing.T) {
	g := New()
	writer, _ := mockAgent("writer", "Writes prose")
	require.NoError(t, g.AddNode(writer))
	require.NoError(t, g.AddEdge(Start, "writer"))

	_, err := g.Invoke(context.Background(), "input")

	var deadErr *DeadEndError
	require.ErrorAs(t, err, &deadErr)
	assert.Equal(t, "writer", deadErr.Node)
}

// -------------------- Branch Routing Tests --------------------

func branchGraph(t *testing.T) (*Graph, *model.MockModel, *model.MockModel, *model.MockModel) {
	t.Helper()
	g := New()
	router, routerLLM := mockAgent("router", "Dispatches work")
	writer, writerLLM := mockAgent("writer", "Writes prose")
	critic, criticLLM := mockAgent("critic", "Reviews prose")

	require.NoError(t, g.AddNode(router, writer, critic))
	require.NoError(t, g.AddEdge(Start, "router"))
	require.NoError(t, g.AddEdge("router", "writer"))
	require.NoError(t, g.AddEdge("router", "critic"))
	require.NoError(t, g.AddEdge("writer", End))
	require.NoError(t, g.AddEdge("critic", End))
	return g, routerLLM, writerLLM, criticLLM
}

func TestGraph_Invoke_BranchFollowsSelection(t *testing.T) {
	g, routerLLM, writerLLM, criticLLM := branchGraph(t)

	routerLLM.EnqueueResponse(&model.Response{Text: "routed work", FinishReason: "stop"})
	routerLLM.EnqueueResponse(&model.Response{Text: "writer", FinishReason: "stop"}) // routing call
	writerLLM.AddResponse("routed work", "written piece")

	out, err := g.Invoke(context.Background(), "do something")

	require.NoError(t, err)
	assert.Equal(t, "written piece", out)
	// The unchosen branch is never invoked.
	assert.Empty(t, criticLLM.Requests())
}

func TestGraph_Invoke_RoutingAmbiguity(t *testing.T) {
	g, routerLLM, _, _ := branchGraph(t)

	routerLLM.EnqueueResponse(&model.Response{Text: "routed work", FinishReason: "stop"})
	routerLLM.EnqueueResponse(&model.Response{Text: "editor", FinishReason: "stop"}) // not a legal target

	_, err := g.Invoke(context.Background(), "do something")

	var routeErr *RoutingAmbiguityError
	require.ErrorAs(t, err, &routeErr)
	assert.Equal(t, "router", routeErr.Node)
	assert.Equal(t, "editor", routeErr.Selection)
	assert.ElementsMatch(t, []string{"writer", "critic"}, routeErr.Candidates)
}

func TestGraph_Invoke_BranchToEnd(t *testing.T) {
	g := New()
	router, routerLLM := mockAgent("router", "Dispatches work")
	writer, _ := mockAgent("writer", "Writes prose")

	require.NoError(t, g.AddNode(router, writer))
	require.NoError(t, g.AddEdge(Start, "router"))
	require.NoError(t, g.AddEdge("router", "writer"))
	require.NoError(t, g.AddEdge("router", End))

	routerLLM.EnqueueResponse(&model.Response{Text: "final answer", FinishReason: "stop"})
	routerLLM.EnqueueResponse(&model.Response{Text: "END", FinishReason: "stop"})

	out, err := g.Invoke(context.Background(), "question")

	require.NoError(t, err)
	assert.Equal(t, "final answer", out)
}

// -------------------- Hop Ceiling Tests --------------------

func TestGraph_Invoke_MaxHopsOnCycle(t *testing.T) {
	g := New(WithMaxHops(4))
	pingAgent, pingLLM := mockAgent("ping", "Bounces")
	pongAgent, pongLLM := mockAgent("pong", "Bounces back")

	// ping -> pong -> ping -> ... forever.
	require.NoError(t, g.AddNode(pingAgent, pongAgent))
	require.NoError(t, g.AddEdge(Start, "ping"))
	require.NoError(t, g.AddEdge("ping", "pong"))
	require.NoError(t, g.AddEdge("pong", "ping"))

	_ = pingLLM
	_ = pongLLM

	_, err := g.Invoke(context.Background(), "serve")

	var hopsErr *MaxHopsExceededError
	require.ErrorAs(t, err, &hopsErr)
	assert.Equal(t, 4, hopsErr.Hops)
}
