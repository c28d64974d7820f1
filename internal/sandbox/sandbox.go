// Package sandbox runs one parse-analyze-eval-memcontract cycle under a
// wall-clock timeout and a memory ceiling, isolating a turn's program from
// the host process.
package sandbox

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/analyzer"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/env"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/eval"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/memcontract"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/parser"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/value"
)

// Limits bounds one turn's execution.
type Limits struct {
	// Timeout is the wall-clock budget for the whole parse+analyze+eval
	// cycle. Zero means DefaultTimeout.
	Timeout time.Duration
	// MemoryCeiling bounds the serialised size, in bytes, of memory after
	// the contract is applied. Zero means DefaultMemoryCeiling.
	MemoryCeiling int
}

const (
	// DefaultTimeout is the per-turn wall-clock budget.
	DefaultTimeout = 1 * time.Second
	// DefaultMemoryCeiling is the per-turn memory footprint budget in bytes.
	DefaultMemoryCeiling = 10 << 20
)

func (l Limits) sanitize() Limits {
	if l.Timeout <= 0 {
		l.Timeout = DefaultTimeout
	}
	if l.MemoryCeiling <= 0 {
		l.MemoryCeiling = DefaultMemoryCeiling
	}
	return l
}

// Error is a typed sandbox failure (kind one of "timeout",
// "memory_limit_exceeded", or "tool_error" for a recovered panic) carrying
// the observed measurement where there is one.
type Error struct {
	Kind     string
	Message  string
	Observed int64
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

func errTimeout(d time.Duration) error {
	return &Error{Kind: "timeout", Message: fmt.Sprintf("execution exceeded %s", d), Observed: d.Milliseconds()}
}

func errMemoryExceeded(observed, ceiling int) error {
	return &Error{
		Kind:     "memory_limit_exceeded",
		Message:  fmt.Sprintf("memory %d bytes exceeds ceiling %d bytes", observed, ceiling),
		Observed: int64(observed),
	}
}

// Run parses and analyzes source, evaluates it against (ctx, memory, env)
// through ev, applies the memory contract, and returns the outcome. The
// whole cycle runs on a worker goroutine; Run returns a typed *Error if the
// timeout or memory ceiling is exceeded.
func Run(ctx context.Context, ev *eval.Evaluator, source string, callCtx, memory *value.Map, en *env.Env, limits Limits) (memcontract.Outcome, error) {
	limits = limits.sanitize()

	runCtx, cancel := context.WithTimeout(ctx, limits.Timeout)
	defer cancel()

	type outcome struct {
		out memcontract.Outcome
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				// The evaluator itself never panics; a panic here can only
				// come from a host tool callable, so it is converted at the
				// boundary like any other raised tool error.
				done <- outcome{err: &Error{Kind: "tool_error", Message: fmt.Sprintf("panic during evaluation: %v\n%s", r, debug.Stack())}}
			}
		}()
		out, err := runOnce(ev, source, callCtx, memory, en, limits)
		done <- outcome{out: out, err: err}
	}()

	select {
	case res := <-done:
		return res.out, res.err
	case <-runCtx.Done():
		return memcontract.Outcome{}, errTimeout(limits.Timeout)
	}
}

func runOnce(ev *eval.Evaluator, source string, callCtx, memory *value.Map, en *env.Env, limits Limits) (memcontract.Outcome, error) {
	forms, err := parser.ParseProgram(source)
	if err != nil {
		return memcontract.Outcome{}, err
	}
	node, err := analyzer.AnalyzeProgram(forms)
	if err != nil {
		return memcontract.Outcome{}, err
	}
	ev.Ctx, ev.Mem = callCtx, memory
	result, err := ev.Eval(node, callCtx, memory, en)
	if err != nil {
		return memcontract.Outcome{}, err
	}
	out := memcontract.Apply(result, memory)
	if size := approxSize(out.NewMemory); size > limits.MemoryCeiling {
		return memcontract.Outcome{}, errMemoryExceeded(size, limits.MemoryCeiling)
	}
	return out, nil
}

// approxSize estimates the serialised footprint of m in bytes by walking
// its printed representation; good enough to enforce a ceiling without
// pulling in a full reflection-based size estimator.
func approxSize(m *value.Map) int {
	if m == nil {
		return 0
	}
	return len(m.String())
}
