package agent

import (
	"errors"
	"fmt"
	"strings"
)

// State is one of the agentic loop's five states.
type State string

const (
	StateReadyForLLM   State = "ready_for_llm"
	StateAwaitingLLM   State = "awaiting_llm"
	StateExecuting     State = "executing"
	StateCompletedOK   State = "completed_ok"
	StateCompletedFail State = "completed_fail"
)

// FailureReason tags why a run terminated unsuccessfully.
type FailureReason string

const (
	ReasonMaxTurnsExceeded    FailureReason = "max_turns_exceeded"
	ReasonMaxDepthExceeded    FailureReason = "max_depth_exceeded"
	ReasonTurnBudgetExhausted FailureReason = "turn_budget_exhausted"
	ReasonMissionTimeout      FailureReason = "mission_timeout"
	ReasonLLMError            FailureReason = "llm_error"
	ReasonMemoryLimitExceeded FailureReason = "memory_limit_exceeded"
	ReasonBudgetExhausted     FailureReason = "budget_exhausted"
	ReasonFailed              FailureReason = "failed"
)

// RunError is the fatal, run-terminating error a Run returns.
type RunError struct {
	Reason  FailureReason
	Message string
	Cause   error
}

func (e *RunError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Cause)
	}
	return string(e.Reason)
}

func (e *RunError) Unwrap() error { return e.Cause }

func failWith(reason FailureReason, msg string, cause error) *RunError {
	return &RunError{Reason: reason, Message: msg, Cause: cause}
}

// LLMErrorKind categorizes a failed LLM callable invocation for the retry
// layer: rate_limit, timeout, and server_error are retryable.
type LLMErrorKind string

const (
	LLMErrorRateLimit LLMErrorKind = "rate_limit"
	LLMErrorTimeout   LLMErrorKind = "timeout"
	LLMErrorServer    LLMErrorKind = "server_error"
	LLMErrorUnknown   LLMErrorKind = "unknown"
)

// IsRetryable reports whether the retry layer should attempt this kind
// again.
func (k LLMErrorKind) IsRetryable() bool {
	switch k {
	case LLMErrorRateLimit, LLMErrorTimeout, LLMErrorServer:
		return true
	default:
		return false
	}
}

// LLMError is the structured error an LLMCaller returns on failure.
type LLMError struct {
	Kind    LLMErrorKind
	Message string
	Cause   error
}

func (e *LLMError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("llm %s: %s", e.Kind, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("llm %s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("llm %s", e.Kind)
}

func (e *LLMError) Unwrap() error { return e.Cause }

// classifyLLMError infers a kind from an opaque transport error when the
// caller didn't already return a structured *LLMError.
func classifyLLMError(err error) LLMErrorKind {
	var llmErr *LLMError
	if errors.As(err, &llmErr) {
		return llmErr.Kind
	}
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "rate limit") || strings.Contains(s, "429") || strings.Contains(s, "too many requests"):
		return LLMErrorRateLimit
	case strings.Contains(s, "timeout") || strings.Contains(s, "deadline"):
		return LLMErrorTimeout
	case strings.Contains(s, "server error") || strings.Contains(s, "5") && strings.Contains(s, "internal"):
		return LLMErrorServer
	default:
		return LLMErrorUnknown
	}
}

// IsToolError reports whether err is (or wraps) a tool callable failure
// that the evaluator already converted into a tool_error EvalError; tool
// callables may raise arbitrary errors and the interpreter is responsible
// for the conversion, so this helper only exists for callers inspecting
// errors returned up through the loop.
func IsToolError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "tool_error:")
}
