package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/builtins"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/eval"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/value"
)

func newEvaluator(tools eval.ToolFunc) *eval.Evaluator {
	ev := &eval.Evaluator{Tools: tools, Print: func(string) {}}
	return ev
}

func TestRunSuccessfulEndToEnd(t *testing.T) {
	ev := newEvaluator(nil)
	root := builtins.InitialEnv(ev.Apply)
	out, err := Run(context.Background(), ev, `{:result (+ 1 2) :seen true}`, value.NewMap(), value.NewMap(), root, Limits{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !value.Equal(out.Result, value.Int(3)) {
		t.Errorf("Result = %v, want 3", out.Result)
	}
	seen, found := out.NewMemory.Get(value.Intern("seen"))
	if !found || !value.Equal(seen, value.Bool(true)) {
		t.Errorf("NewMemory seen = %v, %v, want true, true", seen, found)
	}
}

func TestRunTimeoutEnforced(t *testing.T) {
	blocking := make(chan struct{})
	defer close(blocking)
	ev := newEvaluator(func(name string, args value.Value) (value.Value, error) {
		<-blocking
		return value.NilVal, nil
	})
	root := builtins.InitialEnv(ev.Apply)
	_, err := Run(context.Background(), ev, `tool/slow`, value.NewMap(), value.NewMap(), root, Limits{Timeout: 10 * time.Millisecond})
	if err == nil {
		t.Fatal("Run() error = nil, want timeout error")
	}
	sandboxErr, ok := err.(*Error)
	if !ok || sandboxErr.Kind != "timeout" {
		t.Errorf("err = %#v, want *Error{Kind: timeout}", err)
	}
}

func TestRunMemoryCeilingEnforced(t *testing.T) {
	ev := newEvaluator(nil)
	root := builtins.InitialEnv(ev.Apply)
	// A tiny ceiling that any non-empty memory delta will exceed.
	_, err := Run(context.Background(), ev, `{:big "01234567890123456789"}`, value.NewMap(), value.NewMap(), root, Limits{MemoryCeiling: 4})
	if err == nil {
		t.Fatal("Run() error = nil, want memory_limit_exceeded error")
	}
	sandboxErr, ok := err.(*Error)
	if !ok || sandboxErr.Kind != "memory_limit_exceeded" {
		t.Errorf("err = %#v, want *Error{Kind: memory_limit_exceeded}", err)
	}
}

func TestRunParseErrorPropagates(t *testing.T) {
	ev := newEvaluator(nil)
	root := builtins.InitialEnv(ev.Apply)
	if _, err := Run(context.Background(), ev, `(+ 1`, value.NewMap(), value.NewMap(), root, Limits{}); err == nil {
		t.Fatal("Run() error = nil, want parse error")
	}
}

func TestRunFailSignalReturnsFailedOutcome(t *testing.T) {
	ev := newEvaluator(nil)
	root := builtins.InitialEnv(ev.Apply)
	out, err := Run(context.Background(), ev, `(fail "boom")`, value.NewMap(), value.NewMap(), root, Limits{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !out.Failed {
		t.Error("Failed = false, want true")
	}
}

func TestRunMaterializesResultKeyIntoMemory(t *testing.T) {
	order := func(amount int64) value.Value {
		return value.NewMap().Assoc(value.Intern("amount"), value.Int(amount))
	}
	ev := newEvaluator(func(name string, args value.Value) (value.Value, error) {
		return value.NewVector(order(500), order(1500), order(2500), order(900)), nil
	})
	root := builtins.InitialEnv(ev.Apply)
	src := `(let [hp (->> (call "get-orders" {}) (filter (where :amount > 1000)))]
  {:result (count hp) :high_value_orders hp})`
	out, err := Run(context.Background(), ev, src, value.NewMap(), value.NewMap(), root, Limits{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !value.Equal(out.Result, value.Int(2)) {
		t.Errorf("Result = %v, want 2", out.Result)
	}
	if _, found := out.Delta.Get(value.Intern("result")); found {
		t.Error("Delta contains :result, want it stripped by the contract")
	}
	hv, found := out.NewMemory.Get(value.Intern("high_value_orders"))
	if !found {
		t.Fatal("NewMemory missing high_value_orders")
	}
	if vec, ok := hv.(*value.Vector); !ok || len(vec.Items) != 2 {
		t.Errorf("high_value_orders = %v, want the 2 orders above 1000", hv)
	}
}

func TestLimitsSanitizeDefaults(t *testing.T) {
	l := Limits{}.sanitize()
	if l.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", l.Timeout, DefaultTimeout)
	}
	if l.MemoryCeiling != DefaultMemoryCeiling {
		t.Errorf("MemoryCeiling = %d, want %d", l.MemoryCeiling, DefaultMemoryCeiling)
	}
}
