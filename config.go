package agentscope

import (
	"os"
	"strconv"
	"time"

	"github.com/zjf2671/agentscope-go/llm"
)

// AgentOption configures an Agent at construction (mirrors the
// teacher's options.go idiom: func(*Agent) closures over unexported
// fields).
type AgentOption func(*Agent)

// WithMaxIterations overrides DefaultMaxIterations for one Agent.
func WithMaxIterations(n int) AgentOption {
	return func(a *Agent) { a.MaxIterations = n }
}

// WithHub wires agent into hub at construction time, equivalent to
// calling hub.Add(agent) immediately after NewAgent.
func WithHub(hub *Hub) AgentOption {
	return func(a *Agent) { hub.Add(a) }
}

// WithExecutionConfig overrides DefaultExecutionConfig for one Agent's
// model-call retry/timeout policy (§4.10).
func WithExecutionConfig(cfg ExecutionConfig) AgentOption {
	return func(a *Agent) { a.Execution = cfg }
}

// NewAgentWithOptions builds an Agent the way NewAgent does, then
// applies opts in order.
func NewAgentWithOptions(name string, dialect *Dialect, tools *ToolRegistry, hooks *HookPipeline, opts ...AgentOption) *Agent {
	a := NewAgent(name, dialect, tools, hooks)
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// HookOption configures a HookPipeline at construction.
type HookOption func(*HookPipeline)

// HookSpec is one (priority, handler) pair for WithHooks.
type HookSpec struct {
	Priority int
	Handler  HookFunc
}

// WithHooks registers each spec in order.
func WithHooks(specs ...HookSpec) HookOption {
	return func(p *HookPipeline) {
		for _, spec := range specs {
			p.AddHook(spec.Priority, spec.Handler)
		}
	}
}

// NewHookPipelineWithOptions builds a HookPipeline and applies opts.
func NewHookPipelineWithOptions(opts ...HookOption) *HookPipeline {
	p := NewHookPipeline()
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DialectOption configures a Dialect at construction.
type DialectOption func(*Dialect)

// WithFormatMode overrides NewDialectWithOptions' default FormatMode
// (FormatSingleAgent).
func WithFormatMode(mode FormatMode) DialectOption {
	return func(d *Dialect) { d.mode = mode }
}

// NewDialectWithOptions builds a Dialect and applies opts.
func NewDialectWithOptions(model llm.ChatModel, agentName string, opts ...DialectOption) *Dialect {
	d := NewDialect(model, FormatSingleAgent, agentName)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// HubOption configures a Hub at construction.
type HubOption func(*Hub)

// WithAutoBroadcast sets the hub's initial auto-broadcast flag.
func WithAutoBroadcast(enabled bool) HubOption {
	return func(h *Hub) { h.autoBroadcast = enabled }
}

// NewHubWithOptions builds a Hub and applies opts.
func NewHubWithOptions(announcement *Msg, opts ...HubOption) *Hub {
	h := NewHub(announcement)
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// StoreOption configures nothing on Store itself (Store is an
// interface); it exists for symmetry with the other Option families
// and to configure store-specific setup helpers like EnsureSchema
// timeouts in a future backend.
type StoreOption func(*Config)

// Config carries process-wide defaults read once from the environment
// (§10.3): max iterations, the default ExecutionConfig, and the
// logging level. No config-file layer is used; a front-end wanting one
// is out of scope.
type Config struct {
	MaxIterations  int
	Execution      ExecutionConfig
	LogLevelString string
}

// LoadConfigFromEnv reads AGENTSCOPE_MAX_ITERATIONS, AGENTSCOPE_TIMEOUT,
// AGENTSCOPE_MAX_ATTEMPTS, AGENTSCOPE_INITIAL_BACKOFF, and
// AGENTSCOPE_LOG_LEVEL, falling back to DefaultMaxIterations and
// DefaultExecutionConfig for anything unset or unparsable.
func LoadConfigFromEnv() Config {
	cfg := Config{
		MaxIterations:  DefaultMaxIterations,
		Execution:      DefaultExecutionConfig,
		LogLevelString: "info",
	}

	if v := os.Getenv("AGENTSCOPE_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxIterations = n
		}
	}
	if v := os.Getenv("AGENTSCOPE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Execution.Timeout = d
		}
	}
	if v := os.Getenv("AGENTSCOPE_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.Execution.MaxAttempts = uint(n)
		}
	}
	if v := os.Getenv("AGENTSCOPE_INITIAL_BACKOFF"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Execution.InitialBackoff = d
		}
	}
	if v := os.Getenv("AGENTSCOPE_LOG_LEVEL"); v != "" {
		cfg.LogLevelString = v
	}
	return cfg
}
