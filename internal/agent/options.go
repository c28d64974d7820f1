package agent

import (
	"log/slog"
	"time"

	"github.com/andreasronge/ptc-runner-sub003/internal/backoff"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/value"
)

// TraceMode controls whether the full message/turn trace is attached to a
// Step: off, on, or only when the run fails.
type TraceMode int

const (
	TraceOff TraceMode = iota
	TraceOn
	TraceOnError
)

// ReturnValidator validates a terminated program's returned value against
// the agent's configured return signature. A nil validator accepts
// anything.
type ReturnValidator func(v value.Value) error

// RunOptions configures one agent.run invocation.
type RunOptions struct {
	// LLM is the required callable used to talk to the model.
	LLM LLMCaller

	// LLMRetryPolicy configures the backoff applied between LLM transport
	// retries.
	LLMRetryPolicy backoff.BackoffPolicy
	// LLMMaxAttempts bounds how many times the LLM is called per turn
	// before the run terminates with :llm_error.
	LLMMaxAttempts int

	// Trace selects whether the full turn/message trace is attached to
	// the returned Step.
	Trace TraceMode
	// CollectMessages additionally records the exact [system, user]
	// message pairs built for each turn.
	CollectMessages bool

	// MaxTurns bounds the total turns allowed in this run.
	MaxTurns int
	// ReturnRetries grants extra turns solely to retry a value-validation
	// failure; it does not consume MaxTurns budget.
	ReturnRetries int

	// MaxDepth bounds nesting when this agent is itself invoked as a tool
	// by a parent run.
	MaxDepth int
	// RemainingParentTurns, when this run is nested, is the parent's
	// remaining turn budget; exceeding MaxDepth terminates the child
	// without consuming it.
	RemainingParentTurns int
	// NestingDepth is this run's depth below the root (0 at the root).
	NestingDepth int

	// MemoryLimit is the sandbox's per-turn memory ceiling in bytes.
	MemoryLimit int
	// TimeoutMs is the sandbox's per-turn wall-clock budget.
	TimeoutMs int

	// MissionDeadline, when non-zero, is checked at each turn boundary;
	// exceeding it terminates the run with :mission_timeout.
	MissionDeadline time.Time

	// ReturnValidator validates the value passed to `(return ...)`.
	ReturnValidator ReturnValidator

	// Mission is the mission string shown in the compressed prompt.
	Mission string
	// System is the system prompt, emitted unchanged each turn.
	System string

	// Logger receives structured per-turn diagnostics (run id, nesting depth,
	// turn number, turn kind, turns left, tool name, LLM error), defaulting
	// to slog.Default().
	Logger *slog.Logger
}

// DefaultRunOptions returns the default budgets.
func DefaultRunOptions() RunOptions {
	return RunOptions{
		LLMRetryPolicy: backoff.DefaultPolicy(),
		LLMMaxAttempts: 3,
		MaxTurns:       5,
		ReturnRetries:  0,
		MaxDepth:       5,
		MemoryLimit:    10 << 20,
		TimeoutMs:      1000,
		Logger:         slog.Default(),
	}
}

func mergeRunOptions(base, override RunOptions) RunOptions {
	merged := base
	if override.LLM != nil {
		merged.LLM = override.LLM
	}
	if override.LLMMaxAttempts > 0 {
		merged.LLMMaxAttempts = override.LLMMaxAttempts
	}
	if (override.LLMRetryPolicy != backoff.BackoffPolicy{}) {
		merged.LLMRetryPolicy = override.LLMRetryPolicy
	}
	merged.Trace = override.Trace
	if override.CollectMessages {
		merged.CollectMessages = true
	}
	if override.MaxTurns > 0 {
		merged.MaxTurns = override.MaxTurns
	}
	if override.ReturnRetries > 0 {
		merged.ReturnRetries = override.ReturnRetries
	}
	if override.MaxDepth > 0 {
		merged.MaxDepth = override.MaxDepth
	}
	if override.RemainingParentTurns > 0 {
		merged.RemainingParentTurns = override.RemainingParentTurns
	}
	if override.NestingDepth > 0 {
		merged.NestingDepth = override.NestingDepth
	}
	if override.MemoryLimit > 0 {
		merged.MemoryLimit = override.MemoryLimit
	}
	if override.TimeoutMs > 0 {
		merged.TimeoutMs = override.TimeoutMs
	}
	if !override.MissionDeadline.IsZero() {
		merged.MissionDeadline = override.MissionDeadline
	}
	if override.ReturnValidator != nil {
		merged.ReturnValidator = override.ReturnValidator
	}
	if override.Mission != "" {
		merged.Mission = override.Mission
	}
	if override.System != "" {
		merged.System = override.System
	}
	if override.Logger != nil {
		merged.Logger = override.Logger
	}
	return merged
}
