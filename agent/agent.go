package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/imengine/imengine/logging"
	"github.com/imengine/imengine/memory"
	"github.com/imengine/imengine/model"
	"github.com/imengine/imengine/tool"
)

// Retriever supplies relevant passages for a query. The knowledge package
// provides a chromem-go backed implementation; any retrieval source
// satisfying this interface can be plugged in.
type Retriever interface {
	Retrieve(ctx context.Context, query string, limit int) ([]string, error)
}

// Options configure an Agent instance.
type Options struct {
	// Description is used by peers to decide whether to route to this agent.
	Description string
	// Instructions is the system prompt configuring the agent's behavior.
	Instructions string
	// Memory overrides the agent's owned history, e.g. to share one history
	// across several agents. Writers to a shared memory are serialized by the
	// memory itself; ordering is insertion order.
	Memory *memory.Memory
	// Tools is the agent's capability set.
	Tools []*tool.Tool
	// MaxToolRounds bounds provider round-trips triggered by tool calls
	// within a single Invoke.
	MaxToolRounds int
	// Knowledge retrieves passages folded into the instructions per request.
	Knowledge     Retriever
	KnowledgeTopK int
	// Logger receives structured invocation logs.
	Logger logging.Logger
}

// Agent wraps one model with identity, instructions, tools and memory. It is
// the unit of execution inside a graph: each Invoke appends to the agent's
// history, drives the model (including tool call round-trips) and returns the
// final text completion.
type Agent struct {
	name          string
	description   string
	instructions  string
	llm           model.Model
	mem           *memory.Memory
	dispatcher    *tool.Dispatcher
	maxToolRounds int
	knowledge     Retriever
	knowledgeTopK int
	logger        logging.Logger
}

// New constructs an Agent around the given model.
//
// Defaults: a generic helpful-assistant instruction, an owned unbounded
// memory, no tools, five tool round-trips per invocation and a no-op logger.
func New(name string, llm model.Model, optFns ...func(o *Options)) *Agent {
	opts := Options{
		Description:   fmt.Sprintf("Agent %s", name),
		Instructions:  "You are a helpful assistant.",
		MaxToolRounds: 5,
		KnowledgeTopK: 3,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	mem := opts.Memory
	if mem == nil {
		mem = memory.New()
	}

	return &Agent{
		name:          name,
		description:   opts.Description,
		instructions:  opts.Instructions,
		llm:           llm,
		mem:           mem,
		dispatcher:    tool.NewDispatcher(opts.Tools, func(o *tool.DispatcherOptions) { o.Logger = opts.Logger }),
		maxToolRounds: opts.MaxToolRounds,
		knowledge:     opts.Knowledge,
		knowledgeTopK: opts.KnowledgeTopK,
		logger:        opts.Logger,
	}
}

// WithDescription sets the routing description.
func WithDescription(desc string) func(o *Options) {
	return func(o *Options) { o.Description = desc }
}

// WithInstructions sets the system prompt.
func WithInstructions(instructions string) func(o *Options) {
	return func(o *Options) { o.Instructions = instructions }
}

// WithMemory shares an existing memory instance with this agent.
func WithMemory(m *memory.Memory) func(o *Options) {
	return func(o *Options) { o.Memory = m }
}

// WithTools registers the agent's capability set.
func WithTools(tools ...*tool.Tool) func(o *Options) {
	return func(o *Options) { o.Tools = append(o.Tools, tools...) }
}

// WithMaxToolRounds bounds tool call round-trips per invocation.
func WithMaxToolRounds(n int) func(o *Options) {
	return func(o *Options) { o.MaxToolRounds = n }
}

// WithKnowledge attaches a retrieval source whose top-k passages are folded
// into the instructions for each invocation.
func WithKnowledge(r Retriever, topK int) func(o *Options) {
	return func(o *Options) {
		o.Knowledge = r
		if topK > 0 {
			o.KnowledgeTopK = topK
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// Name returns the agent's identity, unique within a graph.
func (a *Agent) Name() string { return a.name }

// Description returns the natural language description peers use for routing.
func (a *Agent) Description() string { return a.description }

// Memory returns the agent's conversation history.
func (a *Agent) Memory() *memory.Memory { return a.mem }

// Model returns the underlying model implementation.
func (a *Agent) Model() model.Model { return a.llm }

// Tools returns the agent's registered tools ordered by name.
func (a *Agent) Tools() []*tool.Tool { return a.dispatcher.Tools() }

// Invoke appends (role, content) to memory, drives the model over the full
// history and returns the final text completion.
//
// Tool call round-trips are handled internally: each requested call is
// dispatched synchronously, its result appended as a tool-role turn, and the
// model re-invoked with the updated history until it produces a direct text
// completion or the round ceiling is hit (ToolLoopExceededError).
//
// Image attachments require a vision-capable model; otherwise the call fails
// with UnsupportedModalityError before any memory mutation. Provider errors
// surface wrapped, never retried.
func (a *Agent) Invoke(ctx context.Context, role, content string, images ...memory.Image) (string, error) {
	switch role {
	case memory.RoleSystem, memory.RoleUser, memory.RoleAssistant, memory.RoleTool:
	default:
		return "", &InvalidRoleError{Role: role}
	}

	info := a.llm.Info()
	if len(images) > 0 && !info.SupportsVision {
		return "", &UnsupportedModalityError{Agent: a.name, Provider: info.Provider, Model: info.Name}
	}

	invocationID := uuid.NewString()
	log := a.logger

	instructions, err := a.buildInstructions(ctx, content)
	if err != nil {
		return "", err
	}

	a.mem.Append(memory.Turn{Role: role, Content: content, Images: images})

	for round := 0; round <= a.maxToolRounds; round++ {
		req := model.Request{
			Instructions: instructions,
			Turns:        a.mem.Turns(),
			Tools:        a.toolDefinitions(),
		}

		start := time.Now()
		resp, err := a.llm.Generate(ctx, req)
		if err != nil {
			log.Error("agent.model_call_failed", "agent", a.name, "invocation_id", invocationID, "error", err.Error())
			return "", fmt.Errorf("agent %q: model call failed: %w", a.name, err)
		}
		log.Debug("agent.model_call", "agent", a.name, "invocation_id", invocationID,
			"model", info.Name, "duration_ms", time.Since(start).Milliseconds(), "finish_reason", resp.FinishReason)

		if len(resp.ToolCalls) == 0 {
			a.mem.Append(memory.Turn{Role: memory.RoleAssistant, Content: resp.Text})
			return resp.Text, nil
		}

		if err := a.runToolCalls(ctx, invocationID, resp); err != nil {
			return "", err
		}
	}

	return "", &ToolLoopExceededError{Agent: a.name, Rounds: a.maxToolRounds}
}

// runToolCalls records the assistant's tool call turn, dispatches every
// requested call in order and appends each result as a tool-role turn. A
// dispatch failure aborts the invocation without fabricating a result turn.
func (a *Agent) runToolCalls(ctx context.Context, invocationID string, resp *model.Response) error {
	calls := make([]memory.ToolCall, len(resp.ToolCalls))
	for i, call := range resp.ToolCalls {
		if call.ID == "" {
			call.ID = uuid.NewString()
		}
		calls[i] = call
	}

	a.mem.Append(memory.Turn{Role: memory.RoleAssistant, Content: resp.Text, ToolCalls: calls})

	for _, call := range calls {
		start := time.Now()
		result, err := a.dispatcher.Execute(ctx, call)
		if err != nil {
			a.logger.Error("agent.tool_call_failed", "agent", a.name, "invocation_id", invocationID,
				"tool", call.Name, "error", err.Error())
			return fmt.Errorf("agent %q: %w", a.name, err)
		}
		a.logger.Debug("agent.tool_call", "agent", a.name, "invocation_id", invocationID,
			"tool", call.Name, "duration_ms", time.Since(start).Milliseconds())

		a.mem.Append(memory.Turn{
			Role:       memory.RoleTool,
			Content:    result,
			ToolCallID: call.ID,
			ToolName:   call.Name,
		})
	}
	return nil
}

// buildInstructions folds retrieved knowledge passages into the system
// prompt when a retriever is attached.
func (a *Agent) buildInstructions(ctx context.Context, query string) (string, error) {
	if a.knowledge == nil {
		return a.instructions, nil
	}
	passages, err := a.knowledge.Retrieve(ctx, query, a.knowledgeTopK)
	if err != nil {
		return "", fmt.Errorf("agent %q: knowledge retrieval failed: %w", a.name, err)
	}
	if len(passages) == 0 {
		return a.instructions, nil
	}
	var b strings.Builder
	b.WriteString(a.instructions)
	b.WriteString("\n\nRelevant context:\n")
	for _, p := range passages {
		b.WriteString("- ")
		b.WriteString(p)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (a *Agent) toolDefinitions() []model.ToolDefinition {
	tools := a.dispatcher.Tools()
	if len(tools) == 0 {
		return nil
	}
	defs := make([]model.ToolDefinition, len(tools))
	for i, t := range tools {
		defs[i] = model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Schema(),
		}
	}
	return defs
}
