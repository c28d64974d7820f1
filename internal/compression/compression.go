// Package compression renders a turn history and the current memory into
// the short [system, user] message pair the loop sends to the LLM each
// turn, modelled on a REPL with a prelude.
package compression

import (
	"fmt"
	"strings"

	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/env"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/value"
	"github.com/andreasronge/ptc-runner-sub003/internal/turn"
)

// Message is one entry of the ordered [system, user] pair every strategy
// emits.
type Message struct {
	Role    string
	Content string
}

// ToolSpec describes one host tool for the tool/ namespace section.
type ToolSpec struct {
	Name        string
	ParamShape  string
	Description string
}

const (
	defaultToolCallLimit = 20
	defaultPrintlnLimit  = 15
)

// Options carries everything SingleUserCoalesced needs that isn't already
// captured by turns/memory, so the strategy stays a pure function of its
// three arguments (turns, memory, options) plus the caller-supplied system
// prompt.
type Options struct {
	Mission       string
	Tools         []ToolSpec
	Data          *value.Map
	ToolCallLimit int
	PrintlnLimit  int
	// TurnsLeft is the number of turns remaining including the current
	// one; 0 omits the section entirely.
	TurnsLeft int
}

// DefaultOptions returns the baseline section limits: 20 tool calls, 15
// println lines.
func DefaultOptions() Options {
	return Options{ToolCallLimit: defaultToolCallLimit, PrintlnLimit: defaultPrintlnLimit}
}

func sanitize(o Options) Options {
	if o.ToolCallLimit <= 0 {
		o.ToolCallLimit = defaultToolCallLimit
	}
	if o.PrintlnLimit <= 0 {
		o.PrintlnLimit = defaultPrintlnLimit
	}
	return o
}

// SingleUserCoalesced is the default compression strategy. It is a pure,
// total function: identical arguments always produce an identical result.
func SingleUserCoalesced(turns []turn.Turn, memory *value.Map, opts Options, system string) []Message {
	opts = sanitize(opts)
	var b strings.Builder

	if strings.TrimSpace(opts.Mission) != "" {
		b.WriteString(opts.Mission)
		b.WriteString("\n\n")
	}

	writeToolNamespace(&b, opts.Tools)
	writeDataNamespace(&b, opts.Data)
	writeUserPrelude(&b, turns, memory)
	writeToolCalls(&b, turns, opts.ToolCallLimit)
	writeOutput(&b, turns, opts.PrintlnLimit)
	writeFailedTurns(&b, turns)
	writeTurnsLeft(&b, opts.TurnsLeft)

	return []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: strings.TrimRight(b.String(), "\n")},
	}
}

func keyName(k value.Value) string {
	switch kk := k.(type) {
	case *value.Keyword:
		return kk.Name()
	case value.Str:
		return string(kk)
	default:
		return k.String()
	}
}

func sample(v value.Value) string {
	s := v.String()
	const max = 60
	if len(s) > max {
		return s[:max] + "…"
	}
	return s
}

// typeLabel prefers a closure's inferred return-type hint, falling back to
// the value's runtime type name.
func typeLabel(v value.Value) string {
	if c, ok := v.(*env.Closure); ok && c.ReturnHint != "" {
		return c.ReturnHint
	}
	return value.TypeName(v)
}

func docSuffix(v value.Value) string {
	if c, ok := v.(*env.Closure); ok && c.Doc != "" {
		return ", doc: " + c.Doc
	}
	return ""
}

func writeToolNamespace(b *strings.Builder, tools []ToolSpec) {
	if len(tools) == 0 {
		return
	}
	b.WriteString("tool/\n")
	for _, t := range tools {
		fmt.Fprintf(b, "  tool/%s(%s) ; %s\n", t.Name, t.ParamShape, t.Description)
	}
	b.WriteString("\n")
}

func writeDataNamespace(b *strings.Builder, data *value.Map) {
	if data == nil || data.Len() == 0 {
		return
	}
	b.WriteString("data/\n")
	for _, k := range value.SortedMapKeysForDisplay(data) {
		v, _ := data.Get(k)
		fmt.Fprintf(b, "  data/%s ; %s, sample: %s\n", keyName(k), value.TypeName(v), sample(v))
	}
	b.WriteString("\n")
}

// preludeModes decides, for each name ever bound in memory across the run,
// whether its most recent definition happened in a turn that printed
// (explicit mode) or not (exploration mode). A name redefined in a later
// turn always reflects that later turn's mode; only the latest
// definition wins.
func preludeModes(turns []turn.Turn) map[string]bool {
	modes := map[string]bool{}
	var prev *value.Map
	for _, t := range turns {
		if !t.Success || t.Memory == nil {
			continue
		}
		explicit := len(t.Prints) > 0
		for _, e := range t.Memory.Entries() {
			var prevVal value.Value
			found := false
			if prev != nil {
				prevVal, found = prev.Get(e.Key)
			}
			if !found || !value.Equal(prevVal, e.Val) {
				modes[keyName(e.Key)] = explicit
			}
		}
		prev = t.Memory
	}
	return modes
}

func writeUserPrelude(b *strings.Builder, turns []turn.Turn, memory *value.Map) {
	if memory == nil || memory.Len() == 0 {
		return
	}
	modes := preludeModes(turns)
	b.WriteString("user/\n")
	for _, e := range memory.Entries() {
		name := keyName(e.Key)
		label := typeLabel(e.Val)
		doc := docSuffix(e.Val)
		if modes[name] {
			fmt.Fprintf(b, "  user/%s ; = %s%s\n", name, label, doc)
		} else {
			fmt.Fprintf(b, "  user/%s ; = %s, sample: %s%s\n", name, label, sample(e.Val), doc)
		}
	}
	b.WriteString("\n")
}

func writeToolCalls(b *strings.Builder, turns []turn.Turn, limit int) {
	var calls []turn.ToolCall
	for _, t := range turns {
		calls = append(calls, t.ToolCalls...)
	}
	if len(calls) == 0 {
		return
	}
	recent := make([]turn.ToolCall, len(calls))
	for i, c := range calls {
		recent[len(calls)-1-i] = c
	}
	if len(recent) > limit {
		recent = recent[:limit]
	}
	b.WriteString("Tool calls made:\n")
	for _, c := range recent {
		fmt.Fprintf(b, "  (%s %s) => %s\n", c.Name, sample(c.Args), sample(c.Result))
	}
	b.WriteString("\n")
}

func writeOutput(b *strings.Builder, turns []turn.Turn, limit int) {
	var lines []string
	for _, t := range turns {
		lines = append(lines, t.Prints...)
	}
	if len(lines) == 0 {
		return
	}
	if len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	b.WriteString("Output:\n")
	for _, l := range lines {
		b.WriteString("  ")
		b.WriteString(l)
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

// writeFailedTurns reproduces every failed turn verbatim with its full
// program and error; failed turns are never compressed or summarised.
func writeFailedTurns(b *strings.Builder, turns []turn.Turn) {
	for _, t := range turns {
		if t.Success {
			continue
		}
		fmt.Fprintf(b, "Turn %d failed:\n", t.Number)
		if t.Program != "" {
			b.WriteString("```clojure\n")
			b.WriteString(t.Program)
			b.WriteString("\n```\n")
		}
		if f, ok := t.Result.(*turn.Failure); ok {
			fmt.Fprintf(b, "Error: %s: %s\n", f.Kind, f.Message)
		}
		b.WriteString("\n")
	}
}

func writeTurnsLeft(b *strings.Builder, turnsLeft int) {
	switch {
	case turnsLeft <= 0:
		return
	case turnsLeft == 1:
		b.WriteString("FINAL TURN - you must call (return ...) or (fail ...) now\n")
	default:
		fmt.Fprintf(b, "Turns left: %d\n", turnsLeft)
	}
}
