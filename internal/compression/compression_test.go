package compression

import (
	"strings"
	"testing"

	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/value"
	"github.com/andreasronge/ptc-runner-sub003/internal/turn"
)

func messageByRole(msgs []Message, role string) string {
	for _, m := range msgs {
		if m.Role == role {
			return m.Content
		}
	}
	return ""
}

func TestSingleUserCoalescedSystemMessageIsVerbatim(t *testing.T) {
	msgs := SingleUserCoalesced(nil, value.NewMap(), DefaultOptions(), "be helpful")
	if len(msgs) != 2 {
		t.Fatalf("len(msgs) = %d, want 2", len(msgs))
	}
	if msgs[0].Role != "system" || msgs[0].Content != "be helpful" {
		t.Errorf("msgs[0] = %+v, want system/be helpful", msgs[0])
	}
	if msgs[1].Role != "user" {
		t.Errorf("msgs[1].Role = %q, want user", msgs[1].Role)
	}
}

func TestWriteToolNamespace(t *testing.T) {
	opts := DefaultOptions()
	opts.Tools = []ToolSpec{{Name: "search", ParamShape: "{:q string}", Description: "full text search"}}
	msgs := SingleUserCoalesced(nil, value.NewMap(), opts, "sys")
	body := messageByRole(msgs, "user")
	if !strings.Contains(body, "tool/\n") || !strings.Contains(body, "tool/search({:q string}) ; full text search") {
		t.Errorf("body = %q, want tool/ section with search entry", body)
	}
}

func TestWriteDataNamespaceOmittedWhenEmpty(t *testing.T) {
	msgs := SingleUserCoalesced(nil, value.NewMap(), DefaultOptions(), "sys")
	body := messageByRole(msgs, "user")
	if strings.Contains(body, "data/") {
		t.Errorf("body contains data/ section when Data is empty: %q", body)
	}
}

func TestWriteDataNamespaceIncludesTypeAndSample(t *testing.T) {
	opts := DefaultOptions()
	opts.Data = value.NewMap().Assoc(value.Intern("orders"), value.NewVector(value.Int(1), value.Int(2)))
	msgs := SingleUserCoalesced(nil, value.NewMap(), opts, "sys")
	body := messageByRole(msgs, "user")
	if !strings.Contains(body, "data/orders ; vector, sample:") {
		t.Errorf("body = %q, want data/orders entry with type+sample", body)
	}
}

// A name whose defining turn had no prints renders in exploration mode
// (with a truncated sample); a name whose defining turn printed renders in
// explicit mode (just the type, no sample).
func TestUserPreludeExplicitVsExplorationMode(t *testing.T) {
	memWithPrint := value.NewMap().Assoc(value.Intern("a"), value.Int(1))
	memNoPrint := value.NewMap().Assoc(value.Intern("b"), value.Str("hello"))

	turns := []turn.Turn{
		{Number: 1, Success: true, Prints: []string{"did something"}, Memory: memWithPrint},
		{Number: 2, Success: true, Memory: memNoPrint.Merge(memWithPrint)},
	}
	memory := memNoPrint.Merge(memWithPrint)
	msgs := SingleUserCoalesced(turns, memory, DefaultOptions(), "sys")
	body := messageByRole(msgs, "user")

	if !strings.Contains(body, "user/a ; = integer\n") {
		t.Errorf("body = %q, want explicit-mode rendering for user/a (no sample)", body)
	}
	if !strings.Contains(body, "user/b ; = string, sample:") {
		t.Errorf("body = %q, want exploration-mode rendering for user/b (with sample)", body)
	}
}

func TestWriteToolCallsReverseChronologicalTruncated(t *testing.T) {
	var calls []turn.ToolCall
	for i := 0; i < 25; i++ {
		calls = append(calls, turn.NewToolCall("t", value.Int(int64(i)), value.NilVal))
	}
	turns := []turn.Turn{{Number: 1, Success: true, ToolCalls: calls}}
	opts := DefaultOptions()
	opts.ToolCallLimit = 20
	msgs := SingleUserCoalesced(turns, value.NewMap(), opts, "sys")
	body := messageByRole(msgs, "user")

	lines := strings.Split(body, "\n")
	var toolCallLines []string
	for _, l := range lines {
		if strings.HasPrefix(l, "  (t ") {
			toolCallLines = append(toolCallLines, l)
		}
	}
	if len(toolCallLines) != 20 {
		t.Fatalf("tool call lines = %d, want 20 (truncated)", len(toolCallLines))
	}
	// Most recent call (index 24) must appear first.
	if !strings.Contains(toolCallLines[0], "24") {
		t.Errorf("first tool call line = %q, want the most recent call (24) first", toolCallLines[0])
	}
}

func TestWriteOutputTruncatesToLastNLines(t *testing.T) {
	var prints []string
	for i := 0; i < 20; i++ {
		prints = append(prints, strings.Repeat("x", 1)+string(rune('a'+i)))
	}
	turns := []turn.Turn{{Number: 1, Success: true, Prints: prints}}
	opts := DefaultOptions()
	opts.PrintlnLimit = 15
	msgs := SingleUserCoalesced(turns, value.NewMap(), opts, "sys")
	body := messageByRole(msgs, "user")

	if strings.Contains(body, prints[0]) {
		t.Errorf("body contains the earliest print line %q, want it truncated away", prints[0])
	}
	if !strings.Contains(body, prints[len(prints)-1]) {
		t.Errorf("body missing the latest print line %q", prints[len(prints)-1])
	}
}

func TestWriteFailedTurnsVerbatimNeverSummarized(t *testing.T) {
	turns := []turn.Turn{
		{Number: 1, Success: false, Program: "(+ 1 \"x\")", Result: &turn.Failure{Kind: "type_error", Message: "expected a number"}},
	}
	msgs := SingleUserCoalesced(turns, value.NewMap(), DefaultOptions(), "sys")
	body := messageByRole(msgs, "user")

	if !strings.Contains(body, "Turn 1 failed:") {
		t.Errorf("body = %q, want failed-turn header", body)
	}
	if !strings.Contains(body, "(+ 1 \"x\")") {
		t.Errorf("body = %q, want verbatim failed program", body)
	}
	if !strings.Contains(body, "Error: type_error: expected a number") {
		t.Errorf("body = %q, want error line", body)
	}
}

func TestWriteTurnsLeftFinalTurnWording(t *testing.T) {
	opts := DefaultOptions()
	opts.TurnsLeft = 1
	msgs := SingleUserCoalesced(nil, value.NewMap(), opts, "sys")
	body := messageByRole(msgs, "user")
	if !strings.Contains(body, "FINAL TURN") {
		t.Errorf("body = %q, want FINAL TURN notice at 1 turn left", body)
	}
}

func TestWriteTurnsLeftOmittedAtZero(t *testing.T) {
	msgs := SingleUserCoalesced(nil, value.NewMap(), DefaultOptions(), "sys")
	body := messageByRole(msgs, "user")
	if strings.Contains(body, "Turns left") || strings.Contains(body, "FINAL TURN") {
		t.Errorf("body = %q, want no turns-left section when TurnsLeft is 0", body)
	}
}

func TestWriteTurnsLeftCountsDownAboveOne(t *testing.T) {
	opts := DefaultOptions()
	opts.TurnsLeft = 4
	msgs := SingleUserCoalesced(nil, value.NewMap(), opts, "sys")
	body := messageByRole(msgs, "user")
	if !strings.Contains(body, "Turns left: 4") {
		t.Errorf("body = %q, want \"Turns left: 4\"", body)
	}
}
