package agent

import (
	"context"
	"fmt"

	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/env"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/eval"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/value"
	"github.com/andreasronge/ptc-runner-sub003/internal/sandbox"
)

// ProgramResult is the bare `run(program_source, options)` entry point's
// successful result.
type ProgramResult struct {
	Value       value.Value
	MemoryDelta *value.Map
	NewMemory   *value.Map
}

// RunProgram executes one PTC-Lisp program in the sandbox and applies the
// memory contract, independent of any agentic loop. It is the program
// entry point `run(program_source, options) -> {:ok, ...} | {:error, ...}`.
func RunProgram(ctx context.Context, ev *eval.Evaluator, source string, callCtx, memory *value.Map, en *env.Env, limits sandbox.Limits) (ProgramResult, error) {
	outcome, err := sandbox.Run(ctx, ev, source, callCtx, memory, en, limits)
	if err != nil {
		return ProgramResult{}, err
	}
	if outcome.Failed {
		return ProgramResult{}, fmt.Errorf("failed: %s", outcome.Result)
	}
	return ProgramResult{Value: outcome.Result, MemoryDelta: outcome.Delta, NewMemory: outcome.NewMemory}, nil
}
