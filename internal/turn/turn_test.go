package turn

import (
	"testing"

	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/value"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		k    Kind
		want string
	}{
		{KindNormal, "normal"},
		{KindMustReturn, "must_return"},
		{KindRetry, "retry"},
	}
	for _, tt := range tests {
		if got := tt.k.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.k, got, tt.want)
		}
	}
}

func TestNewToolCallGeneratesID(t *testing.T) {
	a := NewToolCall("search", value.Str("q"), value.Int(1))
	b := NewToolCall("search", value.Str("q"), value.Int(1))
	if a.ID == "" {
		t.Fatal("ID is empty")
	}
	if a.ID == b.ID {
		t.Error("two calls minted the same ID")
	}
	if a.Name != "search" || !value.Equal(a.Args, value.Str("q")) || !value.Equal(a.Result, value.Int(1)) {
		t.Errorf("ToolCall = %+v, fields not preserved", a)
	}
}

func TestHistoryAppendAllLen(t *testing.T) {
	var h History
	h.Append(Turn{Number: 1, Success: true})
	h.Append(Turn{Number: 2, Success: false})
	if h.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", h.Len())
	}
	all := h.All()
	if len(all) != 2 || all[0].Number != 1 || all[1].Number != 2 {
		t.Errorf("All() = %+v, want turns in append order", all)
	}
}

func TestHistoryLast(t *testing.T) {
	var h History
	if _, ok := h.Last(); ok {
		t.Error("Last() on empty history ok = true, want false")
	}
	h.Append(Turn{Number: 1})
	h.Append(Turn{Number: 2})
	last, ok := h.Last()
	if !ok || last.Number != 2 {
		t.Errorf("Last() = %+v, %v, want turn 2, true", last, ok)
	}
}

func TestHistoryRecentSuccessfulOnlyMostRecentLast(t *testing.T) {
	var h History
	h.Append(Turn{Number: 1, Success: true})
	h.Append(Turn{Number: 2, Success: false})
	h.Append(Turn{Number: 3, Success: true})
	h.Append(Turn{Number: 4, Success: true})

	recent := h.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("Recent(2) len = %d, want 2", len(recent))
	}
	if recent[0].Number != 3 || recent[1].Number != 4 {
		t.Errorf("Recent(2) = %+v, want turns [3, 4] (successful, most-recent-last)", recent)
	}
}

func TestHistoryRecentFewerThanNReturnsAll(t *testing.T) {
	var h History
	h.Append(Turn{Number: 1, Success: true})
	recent := h.Recent(3)
	if len(recent) != 1 {
		t.Errorf("Recent(3) len = %d, want 1", len(recent))
	}
}

func TestHistorySuccessfulAndFailed(t *testing.T) {
	var h History
	h.Append(Turn{Number: 1, Success: true})
	h.Append(Turn{Number: 2, Success: false})
	h.Append(Turn{Number: 3, Success: true})

	succ := h.Successful()
	if len(succ) != 2 || succ[0].Number != 1 || succ[1].Number != 3 {
		t.Errorf("Successful() = %+v, want turns [1, 3]", succ)
	}
	failed := h.Failed()
	if len(failed) != 1 || failed[0].Number != 2 {
		t.Errorf("Failed() = %+v, want turn [2]", failed)
	}
}

func TestFailureError(t *testing.T) {
	f := &Failure{Kind: "type_error", Message: "expected a number"}
	want := "type_error: expected a number"
	if f.Error() != want {
		t.Errorf("Error() = %q, want %q", f.Error(), want)
	}
}
