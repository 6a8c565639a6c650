package tool

import "fmt"

// UnknownToolError reports a model-requested tool that is not registered in
// the agent's capability set.
type UnknownToolError struct {
	Tool string // Requested tool name
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q requested", e.Tool)
}

// ValidationError reports an argument that failed validation against the
// tool's declared parameters.
type ValidationError struct {
	Tool    string `json:"tool"`            // Tool whose arguments failed
	Param   string `json:"param,omitempty"` // Offending parameter, if known
	Value   any    `json:"value,omitempty"` // Value that was provided
	Message string `json:"message"`         // Human-readable error message
}

func (e *ValidationError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("tool %q: invalid argument %q: %s", e.Tool, e.Param, e.Message)
	}
	return fmt.Sprintf("tool %q: invalid arguments: %s", e.Tool, e.Message)
}

// ExecutionError wraps a failure returned by the bound callable itself.
type ExecutionError struct {
	Tool string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool %q execution failed: %v", e.Tool, e.Err)
}

// Unwrap exposes the underlying callable error.
func (e *ExecutionError) Unwrap() error { return e.Err }
