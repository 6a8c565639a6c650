package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/imengine/imengine/memory"
)

// ToolDefinition declaratively exposes a callable capability to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input produced by agents.
type Request struct {
	Instructions string           `json:"instructions"` // System prompt for the model
	Turns        []memory.Turn    `json:"turns"`        // Conversation history converted to provider messages
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the completed output of one model call. Either Text is set, or
// ToolCalls is non-empty (the model wants function results before answering),
// or both when the model interleaves commentary with calls.
type Response struct {
	Text         string            `json:"text"`
	ToolCalls    []memory.ToolCall `json:"tool_calls,omitempty"`
	FinishReason string            `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage       `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name           string `json:"name"`
	Provider       string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools  bool   `json:"supports_tools"`
	SupportsVision bool   `json:"supports_vision"`
}

// Model is the minimal interface agents use to drive generation. Calls are
// synchronous: Generate blocks until the provider returns a full completion.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Responses can be canned per input prompt or scripted as an ordered queue
// (e.g. a tool call response followed by the post-dispatch completion).
type MockModel struct {
	mu        sync.Mutex
	info      Info
	responses map[string]string
	queue     []*Response
	requests  []Request
}

// NewMockModel constructs a MockModel with tool support enabled and vision
// disabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
		responses: make(map[string]string),
	}
}

// SetSupportsVision toggles the advertised vision capability.
func (m *MockModel) SetSupportsVision(v bool) { m.info.SupportsVision = v }

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// EnqueueResponse appends a scripted response consumed before any canned
// completions. Use it to simulate tool call round-trips.
func (m *MockModel) EnqueueResponse(resp *Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, resp)
}

// Requests returns every request seen by the mock, in call order.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)

	if len(m.queue) > 0 {
		resp := m.queue[0]
		m.queue = m.queue[1:]
		return resp, nil
	}

	var inputText string
	for i := len(req.Turns) - 1; i >= 0; i-- {
		if req.Turns[i].Role == memory.RoleUser {
			inputText = req.Turns[i].Content
			break
		}
	}
	text, ok := m.responses[inputText]
	if !ok {
		text = fmt.Sprintf("Mock response to: %s", inputText)
	}
	return &Response{Text: text, FinishReason: "stop"}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
