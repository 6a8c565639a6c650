package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imengine/imengine/memory"
)

// -------------------- Schema Tests --------------------

func TestTool_Schema(t *testing.T) {
	add := New("add", "Add two numbers",
		[]Param{
			{Name: "a", Type: TypeNumber, Description: "First addend", Required: true},
			{Name: "b", Type: TypeNumber, Required: true},
			{Name: "round", Type: TypeBoolean, Required: false},
		},
		func(_ context.Context, args map[string]any) (any, error) {
			return args["a"].(float64) + args["b"].(float64), nil
		},
	)

	schema := add.Schema()
	assert.Equal(t, "object", schema["type"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "a")
	assert.Contains(t, props, "b")
	assert.Contains(t, props, "round")

	a, _ := props["a"].(map[string]any)
	assert.Equal(t, "number", a["type"])
	assert.Equal(t, "First addend", a["description"])

	req, _ := schema["required"].([]string)
	assert.ElementsMatch(t, []string{"a", "b"}, req)
}

type weatherArgs struct {
	Location string `json:"location" jsonschema:"required,description=City name"`
	Units    string `json:"units,omitempty" jsonschema:"description=celsius or fahrenheit"`
}

func TestNewFromStruct(t *testing.T) {
	weather, err := NewFromStruct("get_weather", "Get current weather", weatherArgs{},
		func(_ context.Context, args map[string]any) (any, error) {
			return "sunny in " + args["location"].(string), nil
		},
	)
	require.NoError(t, err)

	schema := weather.Schema()
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "location")
	assert.Contains(t, props, "units")

	var location *Param
	for i, p := range weather.Params() {
		if p.Name == "location" {
			location = &weather.Params()[i]
		}
	}
	require.NotNil(t, location)
	assert.True(t, location.Required)
	assert.Equal(t, TypeString, location.Type)
}

// -------------------- Dispatch Tests --------------------

func addTool() *Tool {
	return New("add", "Add two numbers",
		[]Param{
			{Name: "a", Type: TypeNumber, Required: true},
			{Name: "b", Type: TypeNumber, Required: true},
		},
		func(_ context.Context, args map[string]any) (any, error) {
			return args["a"].(float64) + args["b"].(float64), nil
		},
	)
}

func TestDispatcher_Execute(t *testing.T) {
	d := NewDispatcher([]*Tool{addTool()})

	result, err := d.Execute(context.Background(), memory.ToolCall{
		ID:        "fc1",
		Name:      "add",
		Arguments: []byte(`{"a": 2, "b": 3}`),
	})

	require.NoError(t, err)
	assert.Equal(t, "5", result)
}

func TestDispatcher_UnknownTool(t *testing.T) {
	d := NewDispatcher([]*Tool{addTool()})

	_, err := d.Execute(context.Background(), memory.ToolCall{Name: "subtract"})

	var unknownErr *UnknownToolError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "subtract", unknownErr.Tool)
}

func TestDispatcher_MissingRequiredParam(t *testing.T) {
	d := NewDispatcher([]*Tool{addTool()})

	_, err := d.Execute(context.Background(), memory.ToolCall{
		Name:      "add",
		Arguments: []byte(`{"a": 2}`),
	})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "b", valErr.Param)
}

func TestDispatcher_TypeMismatch(t *testing.T) {
	echo := New("echo", "Echo a flag",
		[]Param{{Name: "flag", Type: TypeBoolean, Required: true}},
		func(_ context.Context, args map[string]any) (any, error) {
			return args["flag"], nil
		},
	)
	d := NewDispatcher([]*Tool{echo})

	_, err := d.Execute(context.Background(), memory.ToolCall{
		Name:      "echo",
		Arguments: []byte(`{"flag": 42}`),
	})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "flag", valErr.Param)
}

func TestDispatcher_NumericStringCoercion(t *testing.T) {
	d := NewDispatcher([]*Tool{addTool()})

	result, err := d.Execute(context.Background(), memory.ToolCall{
		Name:      "add",
		Arguments: []byte(`{"a": "2.5", "b": 3}`),
	})

	require.NoError(t, err)
	assert.Equal(t, "5.5", result)
}

func TestDispatcher_RepairsMalformedArguments(t *testing.T) {
	d := NewDispatcher([]*Tool{addTool()})

	// Single-quoted keys, as some models emit them.
	result, err := d.Execute(context.Background(), memory.ToolCall{
		Name:      "add",
		Arguments: []byte(`{'a': 2, 'b': 3}`),
	})

	require.NoError(t, err)
	assert.Equal(t, "5", result)
}

func TestDispatcher_OptionalParamOmitted(t *testing.T) {
	greet := New("greet", "Greet someone",
		[]Param{
			{Name: "name", Type: TypeString, Required: true},
			{Name: "salutation", Type: TypeString, Required: false},
		},
		func(_ context.Context, args map[string]any) (any, error) {
			salutation, ok := args["salutation"].(string)
			if !ok {
				salutation = "Hello"
			}
			return salutation + ", " + args["name"].(string), nil
		},
	)
	d := NewDispatcher([]*Tool{greet})

	result, err := d.Execute(context.Background(), memory.ToolCall{
		Name:      "greet",
		Arguments: []byte(`{"name": "Ada"}`),
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello, Ada", result)
}

func TestDispatcher_ExecutionError(t *testing.T) {
	boom := New("boom", "Always fails", nil,
		func(_ context.Context, _ map[string]any) (any, error) {
			return nil, errors.New("kaboom")
		},
	)
	d := NewDispatcher([]*Tool{boom})

	_, err := d.Execute(context.Background(), memory.ToolCall{Name: "boom"})

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "boom", execErr.Tool)
}

func TestDispatcher_StructuredResultSerialized(t *testing.T) {
	lookup := New("lookup", "Look up a record", nil,
		func(_ context.Context, _ map[string]any) (any, error) {
			return map[string]any{"id": 7, "name": "widget"}, nil
		},
	)
	d := NewDispatcher([]*Tool{lookup})

	result, err := d.Execute(context.Background(), memory.ToolCall{Name: "lookup"})

	require.NoError(t, err)
	assert.JSONEq(t, `{"id": 7, "name": "widget"}`, result)
}
