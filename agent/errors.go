package agent

import "fmt"

// UnsupportedModalityError reports image content sent to a model that does
// not advertise vision support.
type UnsupportedModalityError struct {
	Agent    string
	Provider string
	Model    string
}

func (e *UnsupportedModalityError) Error() string {
	return fmt.Sprintf("agent %q: model %s/%s does not support image input", e.Agent, e.Provider, e.Model)
}

// ToolLoopExceededError reports an invocation that hit the tool round-trip
// ceiling without the model producing a direct text completion.
type ToolLoopExceededError struct {
	Agent  string
	Rounds int
}

func (e *ToolLoopExceededError) Error() string {
	return fmt.Sprintf("agent %q: exceeded %d tool call round-trips without a final response", e.Agent, e.Rounds)
}

// InvalidRoleError reports an Invoke call with a role outside the supported
// set (system, user, assistant, tool).
type InvalidRoleError struct {
	Role string
}

func (e *InvalidRoleError) Error() string {
	return fmt.Sprintf("invalid role %q: supported roles are system, user, assistant, tool", e.Role)
}
