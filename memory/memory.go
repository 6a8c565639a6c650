package memory

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/pkoukk/tiktoken-go"
)

// Conversation roles. Every turn carries exactly one of these.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Image is an image attachment on a user turn. Either Data (base64 encoded
// bytes plus MIME type) or URL is set, never both.
type Image struct {
	Data     string `json:"data,omitempty"`      // Base64 encoded contents
	MimeType string `json:"mime_type,omitempty"` // e.g. "image/png"
	URL      string `json:"url,omitempty"`       // External retrieval URL
}

// ToolCall is a normalized function call request surfaced by a model
// provider. Unified across vendors so downstream dispatch does not need
// per-provider branching.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"` // JSON argument payload
}

// Turn is one entry of an agent's conversation history.
//
// Assistant turns that requested tool calls carry them in ToolCalls; the
// matching results follow as tool-role turns referencing the call via
// ToolCallID. Index and Timestamp are assigned on append.
type Turn struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	Images     []Image    `json:"images,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // Set on tool-role turns
	ToolName   string     `json:"tool_name,omitempty"`    // Set on tool-role turns
	Index      int        `json:"index"`
	Timestamp  time.Time  `json:"timestamp"`
}

// Options configure a Memory instance.
type Options struct {
	// MaxTurns bounds the number of retained turns. Zero means unbounded.
	MaxTurns int
	// TokenBudget bounds the total token count of retained turns. Zero means
	// unbounded. Oldest turns are evicted first.
	TokenBudget int
	// TokenModel selects the tokenizer used for TokenBudget accounting.
	TokenModel string
}

// Memory is an append-only ordered conversation history.
//
// A Memory is owned by a single agent unless the caller explicitly hands the
// same instance to several agents (shared memory). Access is guarded by a
// RWMutex; ordering of shared appends is insertion order.
type Memory struct {
	mu     sync.RWMutex
	turns  []Turn
	nextID int
	opts   Options

	encOnce sync.Once
	enc     *tiktoken.Tiktoken
}

// New constructs an empty Memory. By default history is unbounded; use
// WithMaxTurns or WithTokenBudget to cap it.
func New(optFns ...func(o *Options)) *Memory {
	opts := Options{
		TokenModel: "gpt-4o",
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Memory{opts: opts}
}

// WithMaxTurns caps the number of retained turns.
func WithMaxTurns(n int) func(o *Options) {
	return func(o *Options) { o.MaxTurns = n }
}

// WithTokenBudget caps retained history to roughly n tokens, counted with the
// tokenizer for the given model.
func WithTokenBudget(model string, n int) func(o *Options) {
	return func(o *Options) {
		o.TokenModel = model
		o.TokenBudget = n
	}
}

// Append adds a turn to the history, assigning its order index and timestamp,
// and evicts the oldest turns if a cap is configured.
func (m *Memory) Append(t Turn) Turn {
	m.mu.Lock()
	defer m.mu.Unlock()

	t.Index = m.nextID
	m.nextID++
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}
	m.turns = append(m.turns, t)
	m.trimLocked()
	return t
}

// Turns returns a copy of the current history for safe iteration.
func (m *Memory) Turns() []Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// History returns a copy of the most recent max turns, oldest first. A max of
// zero or less, or one exceeding the retained length, returns the full
// history.
func (m *Memory) History(max int) []Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	start := 0
	if max > 0 && max < len(m.turns) {
		start = len(m.turns) - max
	}
	out := make([]Turn, len(m.turns)-start)
	copy(out, m.turns[start:])
	return out
}

// Len returns the number of retained turns.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.turns)
}

// Last returns the most recent turn, or false if the history is empty.
func (m *Memory) Last() (Turn, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.turns) == 0 {
		return Turn{}, false
	}
	return m.turns[len(m.turns)-1], true
}

// Clear removes all turns. Order indexes keep increasing across a clear so
// that turns remain globally ordered per memory instance.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = nil
}

// TokenCount returns the token count of the retained history under the
// configured tokenizer.
func (m *Memory) TokenCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, t := range m.turns {
		total += m.countTokens(t.Content)
	}
	return total
}

// trimLocked evicts oldest turns until both caps are satisfied. Caller holds
// the write lock.
func (m *Memory) trimLocked() {
	if m.opts.MaxTurns > 0 {
		for len(m.turns) > m.opts.MaxTurns {
			m.turns = m.turns[1:]
		}
	}
	if m.opts.TokenBudget > 0 {
		total := 0
		for _, t := range m.turns {
			total += m.countTokens(t.Content)
		}
		for total > m.opts.TokenBudget && len(m.turns) > 1 {
			total -= m.countTokens(m.turns[0].Content)
			m.turns = m.turns[1:]
		}
	}
}

// countTokens counts tokens in text with the configured encoding, falling
// back to a bytes/4 estimate when the encoding cannot be loaded (e.g. the
// BPE files are unavailable offline).
func (m *Memory) countTokens(text string) int {
	m.encOnce.Do(func() {
		if enc, err := tiktoken.EncodingForModel(m.opts.TokenModel); err == nil {
			m.enc = enc
		}
	})
	if m.enc == nil {
		return (len(text) + 3) / 4
	}
	return len(m.enc.Encode(text, nil, nil))
}
