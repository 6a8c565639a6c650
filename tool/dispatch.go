package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"github.com/imengine/imengine/logging"
	"github.com/imengine/imengine/memory"
)

// Dispatcher translates normalized tool call requests into validated,
// executed results. It is provider agnostic: adapters parse provider
// responses into memory.ToolCall values before dispatch.
type Dispatcher struct {
	tools  map[string]*Tool
	logger logging.Logger
}

// DispatcherOptions configure a Dispatcher.
type DispatcherOptions struct {
	Logger logging.Logger
}

// NewDispatcher constructs a Dispatcher over the given tools. Later tools
// with duplicate names replace earlier ones.
func NewDispatcher(tools []*Tool, optFns ...func(o *DispatcherOptions)) *Dispatcher {
	opts := DispatcherOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	d := &Dispatcher{tools: make(map[string]*Tool, len(tools)), logger: opts.Logger}
	for _, t := range tools {
		d.tools[t.Name()] = t
	}
	return d
}

// Register adds a tool to the dispatch table, replacing any previous tool of
// the same name.
func (d *Dispatcher) Register(t *Tool) { d.tools[t.Name()] = t }

// Get returns a registered tool by name.
func (d *Dispatcher) Get(name string) (*Tool, bool) {
	t, ok := d.tools[name]
	return t, ok
}

// Len returns the number of registered tools.
func (d *Dispatcher) Len() int { return len(d.tools) }

// Names returns the registered tool names in sorted order.
func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.tools))
	for name := range d.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tools returns the registered tools ordered by name.
func (d *Dispatcher) Tools() []*Tool {
	out := make([]*Tool, 0, len(d.tools))
	for _, name := range d.Names() {
		out = append(out, d.tools[name])
	}
	return out
}

// Execute resolves, validates and synchronously runs one tool call, returning
// the result serialized as text for the tool-role turn.
//
// Failure modes:
//
//	*UnknownToolError  -> no tool with the requested name is registered
//	*ValidationError   -> undecodable arguments, missing required parameter,
//	                      or a type mismatch that coercion could not bridge
//	*ExecutionError    -> the bound callable returned an error
func (d *Dispatcher) Execute(ctx context.Context, call memory.ToolCall) (string, error) {
	t, ok := d.tools[call.Name]
	if !ok {
		return "", &UnknownToolError{Tool: call.Name}
	}

	args, err := decodeArguments(call.Name, call.Arguments)
	if err != nil {
		return "", err
	}
	coerced, err := coerceArguments(t, args)
	if err != nil {
		return "", err
	}

	start := time.Now()
	result, err := t.fn(ctx, coerced)
	d.logger.Debug("tool.call", "tool", t.name, "fc_id", call.ID, "duration_ms", time.Since(start).Milliseconds())
	if err != nil {
		return "", &ExecutionError{Tool: t.name, Err: err}
	}
	return stringifyResult(result)
}

// decodeArguments parses the raw JSON argument payload. Model emitted JSON is
// occasionally malformed (single quotes, trailing commas, unquoted keys), so
// a repair pass runs before giving up.
func decodeArguments(toolName string, raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(string(raw))
		if repairErr != nil || json.Unmarshal([]byte(repaired), &args) != nil {
			return nil, &ValidationError{
				Tool:    toolName,
				Value:   string(raw),
				Message: fmt.Sprintf("arguments are not a JSON object: %v", err),
			}
		}
	}
	return args, nil
}

// coerceArguments checks required parameters and types, applying best-effort
// coercion (numeric string -> number, integral float -> integer) before
// failing. Unknown extra arguments are dropped; missing optional parameters
// stay absent so the callable supplies its own default.
func coerceArguments(t *Tool, args map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for _, p := range t.params {
		value, present := args[p.Name]
		if !present {
			if p.Required {
				return nil, &ValidationError{Tool: t.name, Param: p.Name, Message: "required parameter is missing"}
			}
			continue
		}
		coerced, ok := coerceValue(value, p.Type)
		if !ok {
			return nil, &ValidationError{
				Tool:    t.name,
				Param:   p.Name,
				Value:   value,
				Message: fmt.Sprintf("expected %s, got %T", p.Type, value),
			}
		}
		out[p.Name] = coerced
	}
	return out, nil
}

// coerceValue converts value to the declared parameter type where a lossless
// conversion exists. nil passes for any type.
func coerceValue(value any, typ ParamType) (any, bool) {
	if value == nil {
		return nil, true
	}
	switch typ {
	case TypeString:
		if s, ok := value.(string); ok {
			return s, true
		}
	case TypeInteger:
		switch v := value.(type) {
		case float64:
			// JSON numbers decode as float64; accept only whole values.
			if v == float64(int64(v)) {
				return int64(v), true
			}
		case int, int64:
			return v, true
		case string:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n, true
			}
		}
	case TypeNumber:
		switch v := value.(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f, true
			}
		}
	case TypeBoolean:
		switch v := value.(type) {
		case bool:
			return v, true
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				return b, true
			}
		}
	case TypeArray:
		if v, ok := value.([]any); ok {
			return v, true
		}
	case TypeObject:
		if v, ok := value.(map[string]any); ok {
			return v, true
		}
	default:
		return value, true
	}
	return nil, false
}

// stringifyResult serializes a tool result for the tool-role turn. Strings
// pass through untouched; everything else is JSON encoded.
func stringifyResult(result any) (string, error) {
	switch v := result.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("serialize tool result: %w", err)
		}
		return string(data), nil
	}
}
