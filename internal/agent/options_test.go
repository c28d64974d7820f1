package agent

import (
	"log/slog"
	"testing"
	"time"

	"github.com/andreasronge/ptc-runner-sub003/internal/backoff"
)

func TestDefaultRunOptions(t *testing.T) {
	d := DefaultRunOptions()
	if d.MaxTurns != 5 {
		t.Errorf("MaxTurns = %d, want 5", d.MaxTurns)
	}
	if d.MaxDepth != 5 {
		t.Errorf("MaxDepth = %d, want 5", d.MaxDepth)
	}
	if d.LLMMaxAttempts != 3 {
		t.Errorf("LLMMaxAttempts = %d, want 3", d.LLMMaxAttempts)
	}
	if d.MemoryLimit != 10<<20 {
		t.Errorf("MemoryLimit = %d, want %d", d.MemoryLimit, 10<<20)
	}
	if d.TimeoutMs != 1000 {
		t.Errorf("TimeoutMs = %d, want 1000", d.TimeoutMs)
	}
	if d.Logger == nil {
		t.Error("Logger = nil, want slog.Default()")
	}
}

func TestMergeRunOptionsZeroOverrideKeepsBase(t *testing.T) {
	base := DefaultRunOptions()
	merged := mergeRunOptions(base, RunOptions{})
	if merged.MaxTurns != base.MaxTurns {
		t.Errorf("MaxTurns = %d, want unchanged %d", merged.MaxTurns, base.MaxTurns)
	}
	if merged.MaxDepth != base.MaxDepth {
		t.Errorf("MaxDepth = %d, want unchanged %d", merged.MaxDepth, base.MaxDepth)
	}
}

func TestMergeRunOptionsPositiveOverrideWins(t *testing.T) {
	base := DefaultRunOptions()
	merged := mergeRunOptions(base, RunOptions{MaxTurns: 10, MaxDepth: 2})
	if merged.MaxTurns != 10 {
		t.Errorf("MaxTurns = %d, want 10", merged.MaxTurns)
	}
	if merged.MaxDepth != 2 {
		t.Errorf("MaxDepth = %d, want 2", merged.MaxDepth)
	}
}

func TestMergeRunOptionsTraceAlwaysOverwritten(t *testing.T) {
	base := RunOptions{Trace: TraceOn}
	merged := mergeRunOptions(base, RunOptions{Trace: TraceOff})
	if merged.Trace != TraceOff {
		t.Errorf("Trace = %v, want TraceOff (Trace has no zero-value guard)", merged.Trace)
	}
}

func TestMergeRunOptionsMissionDeadlineOnlyOverwrittenWhenSet(t *testing.T) {
	deadline := time.Now().Add(time.Hour)
	base := RunOptions{MissionDeadline: deadline}
	merged := mergeRunOptions(base, RunOptions{})
	if !merged.MissionDeadline.Equal(deadline) {
		t.Errorf("MissionDeadline = %v, want unchanged %v", merged.MissionDeadline, deadline)
	}

	newDeadline := time.Now().Add(2 * time.Hour)
	merged = mergeRunOptions(base, RunOptions{MissionDeadline: newDeadline})
	if !merged.MissionDeadline.Equal(newDeadline) {
		t.Errorf("MissionDeadline = %v, want overridden %v", merged.MissionDeadline, newDeadline)
	}
}

func TestMergeRunOptionsStringAndLoggerFields(t *testing.T) {
	base := RunOptions{Mission: "base mission", System: "base system", Logger: slog.Default()}
	merged := mergeRunOptions(base, RunOptions{Mission: "override mission"})
	if merged.Mission != "override mission" {
		t.Errorf("Mission = %q, want overridden", merged.Mission)
	}
	if merged.System != "base system" {
		t.Errorf("System = %q, want unchanged base value", merged.System)
	}
}

func TestMergeRunOptionsRetryPolicyOverride(t *testing.T) {
	base := RunOptions{LLMRetryPolicy: backoff.DefaultPolicy()}
	override := backoff.BackoffPolicy{InitialMs: 500, MaxMs: 9000, Factor: 3, Jitter: 0.2}
	merged := mergeRunOptions(base, RunOptions{LLMRetryPolicy: override})
	if merged.LLMRetryPolicy.InitialMs != 500 {
		t.Errorf("LLMRetryPolicy.InitialMs = %v, want 500", merged.LLMRetryPolicy.InitialMs)
	}
}
