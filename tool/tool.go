// Package tool implements the function calling subsystem that lets agents
// invoke structured capabilities (APIs, computations, side effects) with
// schema validated arguments and consistent error handling.
package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// ParamType enumerates the semantic types a tool parameter may declare.
// Values follow JSON Schema naming so schemas can be emitted directly.
type ParamType string

const (
	// TypeString declares a text parameter.
	TypeString ParamType = "string"
	// TypeInteger declares a whole number parameter.
	TypeInteger ParamType = "integer"
	// TypeNumber declares a floating point parameter.
	TypeNumber ParamType = "number"
	// TypeBoolean declares a true/false parameter.
	TypeBoolean ParamType = "boolean"
	// TypeArray declares a list parameter.
	TypeArray ParamType = "array"
	// TypeObject declares a mapping parameter.
	TypeObject ParamType = "object"
)

// Param declares one named argument of a tool.
type Param struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description,omitempty"`
	Required    bool      `json:"required"`
}

// Func is the signature of a bound tool callable. Arguments arrive already
// validated and coerced against the tool's declared parameters; missing
// optional parameters are absent from the map.
type Func func(ctx context.Context, args map[string]any) (any, error)

// Tool is a declared, callable capability an agent may invoke through the
// model's function calling mechanism. A Tool has no internal mutable state
// after construction and is safe for concurrent use.
type Tool struct {
	name        string
	description string
	params      []Param
	schema      map[string]any // Set when derived from a struct
	fn          Func
}

// New constructs a Tool from an explicit ordered parameter list.
//
// Example:
//
//	add := tool.New("add", "Add two numbers",
//	  []tool.Param{
//	    {Name: "a", Type: tool.TypeNumber, Required: true},
//	    {Name: "b", Type: tool.TypeNumber, Required: true},
//	  },
//	  func(_ context.Context, args map[string]any) (any, error) {
//	    return args["a"].(float64) + args["b"].(float64), nil
//	  },
//	)
func New(name, description string, params []Param, fn Func) *Tool {
	return &Tool{
		name:        name,
		description: description,
		params:      params,
		fn:          fn,
	}
}

// NewFromStruct derives the parameter schema from a struct type using
// invopop/jsonschema tags.
//
// Example:
//
//	type AddArgs struct {
//	  A float64 `json:"a" jsonschema:"required,description=First addend"`
//	  B float64 `json:"b" jsonschema:"required,description=Second addend"`
//	}
//
//	add := tool.NewFromStruct("add", "Add two numbers", AddArgs{}, addFn)
func NewFromStruct(name, description string, argsType any, fn Func) (*Tool, error) {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	schema, err := schemaToMap(reflector.Reflect(argsType))
	if err != nil {
		return nil, fmt.Errorf("reflect %q argument schema: %w", name, err)
	}
	return &Tool{
		name:        name,
		description: description,
		params:      paramsFromSchema(schema),
		schema:      schema,
		fn:          fn,
	}, nil
}

// Name returns the unique tool name used in function call declarations.
func (t *Tool) Name() string { return t.name }

// Description returns the natural language description exposed to models.
func (t *Tool) Description() string { return t.description }

// Params returns the declared parameter list.
func (t *Tool) Params() []Param { return t.params }

// Schema returns the JSON Schema object describing the accepted arguments,
// in the shape provider adapters attach to requests.
func (t *Tool) Schema() map[string]any {
	if t.schema != nil {
		return t.schema
	}
	properties := make(map[string]any, len(t.params))
	required := make([]string, 0, len(t.params))
	for _, p := range t.params {
		prop := map[string]any{"type": string(p.Type)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// schemaToMap converts a jsonschema.Schema into a plain map by round-tripping
// through JSON, stripping the $schema/$id noise models do not need.
func schemaToMap(schema *jsonschema.Schema) (map[string]any, error) {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	delete(result, "$schema")
	delete(result, "$id")
	return result, nil
}

// paramsFromSchema rebuilds a Param list from a JSON Schema object map so
// struct-derived tools validate through the same path as explicit ones.
func paramsFromSchema(schema map[string]any) []Param {
	properties, _ := schema["properties"].(map[string]any)
	requiredSet := map[string]bool{}
	switch req := schema["required"].(type) {
	case []string:
		for _, r := range req {
			requiredSet[r] = true
		}
	case []any:
		for _, r := range req {
			if s, ok := r.(string); ok {
				requiredSet[s] = true
			}
		}
	}
	params := make([]Param, 0, len(properties))
	for name, prop := range properties {
		p := Param{Name: name, Type: TypeString, Required: requiredSet[name]}
		if propMap, ok := prop.(map[string]any); ok {
			if typ, ok := propMap["type"].(string); ok {
				p.Type = ParamType(typ)
			}
			if desc, ok := propMap["description"].(string); ok {
				p.Description = desc
			}
		}
		params = append(params, p)
	}
	return params
}
