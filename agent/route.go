package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/imengine/imengine/memory"
	"github.com/imengine/imengine/model"
)

// RouteCandidate is one legal routing target presented to the agent: the
// target node's name and its description, never its full prompt.
type RouteCandidate struct {
	Name        string
	Description string
}

// Route asks the agent's model to select exactly one of the given candidates,
// reasoning over the agent's current history plus the candidate descriptions.
//
// The returned string is the model's raw selection after whitespace and quote
// trimming; the caller validates it against the legal target set. The routing
// exchange is ephemeral: it is not persisted to the agent's memory.
func (a *Agent) Route(ctx context.Context, candidates []RouteCandidate) (string, error) {
	if len(candidates) == 0 {
		return "", fmt.Errorf("agent %q: no routing candidates", a.name)
	}

	req := model.Request{
		Instructions: a.instructions,
		Turns: append(a.mem.Turns(), memory.Turn{
			Role:    memory.RoleUser,
			Content: buildRoutingPrompt(candidates),
		}),
	}

	resp, err := a.llm.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("agent %q: routing call failed: %w", a.name, err)
	}

	selection := normalizeSelection(resp.Text)
	a.logger.Debug("agent.route", "agent", a.name, "selection", selection)
	return selection, nil
}

// buildRoutingPrompt enumerates the reachable targets by name and
// description and demands exactly one name back.
func buildRoutingPrompt(candidates []RouteCandidate) string {
	var b strings.Builder
	b.WriteString("Your response must now be routed to one of the following agents. ")
	b.WriteString("Reply with the name of exactly one agent and nothing else.\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "- %s: %s\n", c.Name, c.Description)
	}
	return b.String()
}

// normalizeSelection strips the noise models wrap around a bare name:
// whitespace, quotes, backticks, backslash delimiters and a trailing period.
// It keeps only the first line of a multi-line reply.
func normalizeSelection(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.Trim(s, "\\`'\" \t")
	s = strings.TrimSuffix(s, ".")
	return strings.TrimSpace(s)
}
