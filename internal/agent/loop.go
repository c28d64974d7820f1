// Package agent implements the agentic loop: the turn-bounded state
// machine that drives the LLM <-> PTC-Lisp interpreter cycle, owns the
// turn history, memory, and budgets, and decides termination.
package agent

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/andreasronge/ptc-runner-sub003/internal/compression"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/builtins"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/env"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/eval"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/value"
	"github.com/andreasronge/ptc-runner-sub003/internal/sandbox"
	"github.com/andreasronge/ptc-runner-sub003/internal/turn"
)

// Inputs bundles the per-run, caller-supplied state: the read-only
// context map, the starting memory, and the tool table.
type Inputs struct {
	Context *value.Map
	Memory  *value.Map
	Tools   *ToolRegistry
}

// UsageStats aggregates counters across every turn of a run.
type UsageStats struct {
	DurationMs          int64
	TurnCount           int
	PrintlnLines        int
	InputTokens         int
	OutputTokens        int
	CacheCreationTokens int
	CacheReadTokens     int
}

// Step is the structured result of one agent.run invocation, on both
// success and failure.
type Step struct {
	// Return is set on a successful terminal `(return v)`.
	Return value.Value
	// Fail is set when the program explicitly called `(fail v)`.
	Fail value.Value
	// Memory is the final memory state.
	Memory *value.Map
	// Trace is the full turn list, present when TraceOn or (TraceOnError
	// and the run failed).
	Trace []turn.Turn
	// Messages holds the exact [system, user] pair built for each turn,
	// present only when RunOptions.CollectMessages is set.
	Messages [][]compression.Message
	Usage    UsageStats
	// State is the terminal state the loop reached: StateCompletedOK or
	// StateCompletedFail.
	State State
	// RunID uniquely identifies this invocation, for correlating a Step
	// across logs independent of the caller's own request tracing.
	RunID string
}

// Run drives one agentic loop invocation to completion. On success it
// returns a Step with Return set; on failure it returns a Step (carrying
// Fail/Memory/Trace/Usage so far) alongside a *RunError naming the reason.
//
// The run owns its own evaluator and builtin environment: higher-order
// builtins capture the evaluator's apply hook at construction, so sharing
// an environment across runs would route one run's println/tool callbacks
// into another's. Two concurrent runs therefore share no state at all.
func Run(ctx context.Context, inputs Inputs, opts RunOptions) (Step, error) {
	opts = mergeRunOptions(DefaultRunOptions(), opts)
	runID := uuid.NewString()
	if opts.LLM == nil {
		return Step{State: StateCompletedFail, RunID: runID}, failWith(ReasonLLMError, "no LLM callable configured", nil)
	}
	if opts.MaxDepth > 0 && opts.NestingDepth >= opts.MaxDepth {
		// A nested agent (invoked as another agent's tool) that already
		// sits at or past the configured depth terminates immediately
		// without touching the parent's turn budget.
		return Step{State: StateCompletedFail, RunID: runID}, failWith(ReasonMaxDepthExceeded, "nesting depth exceeds max_depth", nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("run_id", runID, "depth", opts.NestingDepth)
	start := time.Now()

	history := &turn.History{}
	memory := inputs.Memory
	if memory == nil {
		memory = value.NewMap()
	}

	runEval := &eval.Evaluator{}
	rootEnv := builtins.InitialEnv(runEval.Apply)

	var messagesCollected [][]compression.Message
	usage := UsageStats{}

	workTurnsUsed := 0
	retryBudget := opts.ReturnRetries
	forceRetry := false

	for {
		if !opts.MissionDeadline.IsZero() && time.Now().After(opts.MissionDeadline) {
			return finish(Step{Memory: memory, Messages: messagesCollected, Usage: finalizeUsage(usage, start, history)}, opts, history, runID,
				failWith(ReasonMissionTimeout, "mission deadline exceeded", nil))
		}

		kind := turn.KindNormal
		toolsForTurn := inputs.Tools
		if toolsForTurn == nil {
			toolsForTurn = empty()
		}
		if forceRetry {
			kind = turn.KindRetry
			toolsForTurn = empty()
		} else if workTurnsUsed == opts.MaxTurns-1 {
			kind = turn.KindMustReturn
		}

		turnNumber := history.Len() + 1
		turnsLeft := opts.MaxTurns - workTurnsUsed
		if forceRetry {
			turnsLeft = 1
		}
		logger.Info("turn starting", "turn", turnNumber, "kind", kind.String(), "turns_left", turnsLeft)

		messages := compression.SingleUserCoalesced(history.All(), memory, compression.Options{
			Mission:       opts.Mission,
			Tools:         toolsForTurn.Specs(),
			Data:          inputs.Context,
			ToolCallLimit: 20,
			PrintlnLimit:  15,
			TurnsLeft:     turnsLeft,
		}, opts.System)
		if opts.CollectMessages {
			messagesCollected = append(messagesCollected, messages)
		}

		llmResp, err := callLLMWithRetry(ctx, opts, LLMRequest{
			System:    messages[0].Content,
			Messages:  []Message{Message(messages[1])},
			Turn:      turnNumber,
			ToolNames: toolsForTurn.Names(),
		})
		if err != nil {
			logger.Warn("llm call failed", "turn", turnNumber, "error", err)
			return finish(Step{Memory: memory, Messages: messagesCollected, Usage: finalizeUsage(usage, start, history)}, opts, history, runID,
				failWith(ReasonLLMError, err.Error(), err))
		}
		if llmResp.Tokens != nil {
			usage.InputTokens += llmResp.Tokens.Input
			usage.OutputTokens += llmResp.Tokens.Output
			usage.CacheCreationTokens += llmResp.Tokens.CacheCreation
			usage.CacheReadTokens += llmResp.Tokens.CacheRead
		}

		program, ok := extractProgram(llmResp.Content)
		if !ok {
			failed := newFailedTurn(turnNumber, "", llmResp.Content, "parse_error", "no PTC-Lisp program found in the response", memory, kind)
			history.Append(failed)
			if done, step, runErr := consumeFailedTurn(opts, history, memory, messagesCollected, usage, start, runID, &workTurnsUsed, &retryBudget, &forceRetry); done {
				return step, runErr
			}
			continue
		}

		limits := sandbox.Limits{
			Timeout:       time.Duration(opts.TimeoutMs) * time.Millisecond,
			MemoryCeiling: opts.MemoryLimit,
		}

		var prints []string
		var calls []turn.ToolCall
		runEval.Tools = toolsForTurn.ToolFunc(ctx)
		runEval.Print = func(line string) { prints = append(prints, line) }
		runEval.Record = func(name string, args, result value.Value, callErr error) {
			calls = append(calls, turn.NewToolCall(name, args, result))
			logger.Debug("tool call", "turn", turnNumber, "tool", name)
		}

		outcome, err := sandbox.Run(ctx, runEval, program, inputs.Context, memory, turnEnv(rootEnv, history), limits)
		if err != nil {
			kind2, msg := splitErrorKind(err)
			failed := newFailedTurn(turnNumber, program, llmResp.Content, kind2, msg, memory, kind)
			failed.Prints = prints
			failed.ToolCalls = calls
			history.Append(failed)
			usage.PrintlnLines += len(prints)
			if done, step, runErr := consumeFailedTurn(opts, history, memory, messagesCollected, usage, start, runID, &workTurnsUsed, &retryBudget, &forceRetry); done {
				return step, runErr
			}
			continue
		}

		if outcome.Failed {
			succ := newSuccessTurn(turnNumber, program, llmResp.Content, outcome.Result, prints, calls, memory, kind)
			succ.Success = false
			history.Append(succ)
			usage.PrintlnLines += len(prints)
			step := Step{Fail: outcome.Result, Memory: memory, Messages: messagesCollected, Usage: finalizeUsage(usage, start, history)}
			return finish(step, opts, history, runID, failWith(ReasonFailed, "program called (fail ...)", nil))
		}

		if outcome.Returned {
			if opts.ReturnValidator != nil {
				if verr := opts.ReturnValidator(outcome.Result); verr != nil {
					failed := newFailedTurn(turnNumber, program, llmResp.Content, "type_error", "return value failed validation: "+verr.Error(), outcome.NewMemory, kind)
					failed.Prints = prints
					failed.ToolCalls = calls
					failed.Success = false
					history.Append(failed)
					memory = outcome.NewMemory
					usage.PrintlnLines += len(prints)

					// The retry budget is only spent once the program has
					// already reached its last normal turn. An invalid
					// (return ...) on an earlier turn is just an ordinary
					// recoverable turn failure: it consumes a normal work
					// turn, not the retry budget, and the next turn stays
					// :normal with tools still available.
					if kind == turn.KindNormal {
						forceRetry = false
						workTurnsUsed++
						if workTurnsUsed >= opts.MaxTurns {
							step := Step{Memory: memory, Messages: messagesCollected, Usage: finalizeUsage(usage, start, history)}
							return finish(step, opts, history, runID, failWith(ReasonMaxTurnsExceeded, "max_turns exhausted without a (return ...) or (fail ...)", nil))
						}
						continue
					}

					if retryBudget > 0 {
						retryBudget--
						forceRetry = true
						continue
					}
					step := Step{Memory: memory, Messages: messagesCollected, Usage: finalizeUsage(usage, start, history)}
					return finish(step, opts, history, runID, failWith(ReasonBudgetExhausted, "return value failed validation and no retry budget remains", verr))
				}
			}
			succ := newSuccessTurn(turnNumber, program, llmResp.Content, outcome.Result, prints, calls, outcome.NewMemory, kind)
			history.Append(succ)
			usage.PrintlnLines += len(prints)
			memory = outcome.NewMemory
			step := Step{Return: outcome.Result, Memory: memory, Messages: messagesCollected, Usage: finalizeUsage(usage, start, history)}
			return finish(step, opts, history, runID, nil)
		}

		succ := newSuccessTurn(turnNumber, program, llmResp.Content, outcome.Result, prints, calls, outcome.NewMemory, kind)
		history.Append(succ)
		usage.PrintlnLines += len(prints)
		memory = outcome.NewMemory
		forceRetry = false
		if kind != turn.KindRetry {
			workTurnsUsed++
		}
		if workTurnsUsed >= opts.MaxTurns {
			step := Step{Memory: memory, Messages: messagesCollected, Usage: finalizeUsage(usage, start, history)}
			return finish(step, opts, history, runID, failWith(ReasonMaxTurnsExceeded, "max_turns exhausted without a (return ...) or (fail ...)", nil))
		}
	}
}

// consumeFailedTurn applies a failed turn's effect on the budgets and
// reports whether the run must terminate. A failed normal turn spends a
// work turn; a failed retry turn spends another unit of the retry budget
// (it has no work turns left to spend) and terminates the run with
// :budget_exhausted once that budget is gone.
func consumeFailedTurn(opts RunOptions, history *turn.History, memory *value.Map, messages [][]compression.Message, usage UsageStats, start time.Time, runID string, workTurnsUsed, retryBudget *int, forceRetry *bool) (bool, Step, error) {
	if *forceRetry {
		if *retryBudget > 0 {
			*retryBudget--
			return false, Step{}, nil
		}
		step := Step{Memory: memory, Messages: messages, Usage: finalizeUsage(usage, start, history)}
		finishedStep, err := finish(step, opts, history, runID, failWith(ReasonBudgetExhausted, "retry turn failed and no retry budget remains", nil))
		return true, finishedStep, err
	}
	*workTurnsUsed++
	if *workTurnsUsed >= opts.MaxTurns {
		step := Step{Memory: memory, Messages: messages, Usage: finalizeUsage(usage, start, history)}
		finishedStep, err := finish(step, opts, history, runID, failWith(ReasonMaxTurnsExceeded, "max_turns exhausted without a (return ...) or (fail ...)", nil))
		return true, finishedStep, err
	}
	return false, Step{}, nil
}

// turnEnv extends the builtin environment with the rolling *1/*2/*3
// bindings: the values of the last three successful turns, most recent
// first. They are ordinary top-level bindings of the current turn only; a
// closure saved in memory sees them solely if it closed over them at
// definition time.
func turnEnv(root *env.Env, history *turn.History) *env.Env {
	recent := history.Recent(3)
	if len(recent) == 0 {
		return root
	}
	child := root.Child()
	names := []string{"*1", "*2", "*3"}
	for i := 0; i < len(recent) && i < len(names); i++ {
		t := recent[len(recent)-1-i]
		if v, ok := t.Result.(value.Value); ok {
			child.Bind(names[i], v)
		}
	}
	return child
}

func finalizeUsage(usage UsageStats, start time.Time, history *turn.History) UsageStats {
	usage.DurationMs = time.Since(start).Milliseconds()
	usage.TurnCount = history.Len()
	return usage
}

// finish attaches the turn trace when the caller asked for it (always, or
// only on error) and returns the Step paired with the terminal error.
func finish(step Step, opts RunOptions, history *turn.History, runID string, runErr error) (Step, error) {
	step.RunID = runID
	if opts.Trace == TraceOn || (opts.Trace == TraceOnError && runErr != nil) {
		step.Trace = history.All()
	}
	if runErr != nil {
		step.State = StateCompletedFail
	} else {
		step.State = StateCompletedOK
	}
	return step, runErr
}

func newFailedTurn(number int, program, raw, kind, message string, memory *value.Map, typ turn.Kind) turn.Turn {
	return turn.Turn{
		ID:          uuid.NewString(),
		Number:      number,
		Program:     program,
		RawResponse: raw,
		Result:      &turn.Failure{Kind: kind, Message: message},
		Memory:      memory,
		Success:     false,
		Type:        typ,
	}
}

func newSuccessTurn(number int, program, raw string, result value.Value, prints []string, calls []turn.ToolCall, memory *value.Map, typ turn.Kind) turn.Turn {
	return turn.Turn{
		ID:          uuid.NewString(),
		Number:      number,
		Program:     program,
		RawResponse: raw,
		Result:      result,
		Prints:      prints,
		ToolCalls:   calls,
		Memory:      memory,
		Success:     true,
		Type:        typ,
	}
}

func splitErrorKind(err error) (kind, message string) {
	s := err.Error()
	if idx := strings.IndexByte(s, ':'); idx >= 0 {
		return s[:idx], strings.TrimSpace(s[idx+1:])
	}
	return "error", s
}
