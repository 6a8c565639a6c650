// Package imengine provides a high-level façade for building multi-agent
// LLM systems: provider-backed agents wired into directed graphs with
// model-delegated routing.
//
// Most applications interact with this package by:
//  1. Creating an Engine via New() (loading configuration from the environment)
//  2. Constructing provider-backed agents (NewOpenAIAgent, NewAnthropicAgent)
//  3. Wiring them into a graph (NewGraph, AddNode, AddEdge) and invoking it
//
// The façade keeps setup concise while delegating orchestration to the graph
// package. Callers who need finer control construct agents and graphs from
// the underlying packages directly.
package imengine

import (
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/imengine/imengine/agent"
	"github.com/imengine/imengine/config"
	"github.com/imengine/imengine/graph"
	"github.com/imengine/imengine/logging"
	"github.com/imengine/imengine/model/anthropic"
	"github.com/imengine/imengine/model/openai"
)

// Options configure the Engine façade.
type Options struct {
	// Config overrides environment-loaded configuration.
	Config *config.Config
	// Logger defaults to a structured slog logger built from the
	// configuration's level and format.
	Logger logging.Logger
	// MaxHops is applied to graphs built through NewGraph. Zero means no
	// ceiling.
	MaxHops int
}

// Engine aggregates configuration and logging for convenient agent and graph
// construction.
type Engine struct {
	cfg     *config.Config
	logger  logging.Logger
	maxHops int
}

// New creates an Engine, reading configuration from the environment (and a
// .env file when present) unless overridden via Options.Config.
func New(optFns ...func(o *Options)) (*Engine, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load configuration: %w", err)
		}
		cfg = loaded
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogger(cfg.LoggerConfig())
	}

	return &Engine{cfg: cfg, logger: logger, maxHops: opts.MaxHops}, nil
}

// WithConfig overrides the environment-loaded configuration.
func WithConfig(cfg *config.Config) func(o *Options) {
	return func(o *Options) { o.Config = cfg }
}

// WithLogger sets the logger used by agents and graphs built through the
// engine.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithMaxHops caps traversal length for graphs built through NewGraph.
func WithMaxHops(n int) func(o *Options) {
	return func(o *Options) { o.MaxHops = n }
}

// Config returns the engine's configuration.
func (e *Engine) Config() *config.Config { return e.cfg }

// Logger returns the engine's logger.
func (e *Engine) Logger() logging.Logger { return e.logger }

// NewGraph constructs an empty graph wired to the engine's logger and hop
// ceiling. Add agents with AddNode and connect them with AddEdge before
// invoking.
func (e *Engine) NewGraph() *graph.Graph {
	maxHops := e.maxHops
	return graph.New(func(o *graph.Options) {
		o.Logger = e.logger
		o.MaxHops = maxHops
	})
}

// NewOpenAIAgent constructs an agent backed by the configured OpenAI chat
// model. Additional agent options (instructions, tools, memory) are applied
// after the engine's logger.
func (e *Engine) NewOpenAIAgent(name string, optFns ...func(o *agent.Options)) *agent.Agent {
	llm := openai.NewModel(func(o *openai.Options) {
		o.Model = e.cfg.OpenAIModel
		o.APIKey = e.cfg.OpenAIAPIKey
	})
	return agent.New(name, llm, e.agentOptions(optFns)...)
}

// NewAnthropicAgent constructs an agent backed by the configured Anthropic
// model.
func (e *Engine) NewAnthropicAgent(name string, optFns ...func(o *agent.Options)) *agent.Agent {
	llm := anthropic.NewModel(func(o *anthropic.Options) {
		o.Model = anthropicsdk.Model(e.cfg.AnthropicModel)
		o.APIKey = e.cfg.AnthropicAPIKey
	})
	return agent.New(name, llm, e.agentOptions(optFns)...)
}

func (e *Engine) agentOptions(optFns []func(o *agent.Options)) []func(o *agent.Options) {
	return append([]func(o *agent.Options){agent.WithLogger(e.logger)}, optFns...)
}
