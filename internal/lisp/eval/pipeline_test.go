package eval

import (
	"testing"

	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/value"
)

// row builds a keyword-keyed map from name/value pairs.
func row(pairs ...any) *value.Map {
	m := value.NewMap()
	for i := 0; i < len(pairs); i += 2 {
		m = m.Assoc(value.Intern(pairs[i].(string)), pairs[i+1].(value.Value))
	}
	return m
}

func TestEvalFilterSumPipeline(t *testing.T) {
	r := newRig()
	r.ev.Tools = func(name string, args value.Value) (value.Value, error) {
		return value.NewVector(
			row("category", value.Str("travel"), "amount", value.Int(500)),
			row("category", value.Str("food"), "amount", value.Int(50)),
			row("category", value.Str("travel"), "amount", value.Int(200)),
		), nil
	}
	v := r.run(t, `(->> (call "get-expenses" {}) (filter (where :category = "travel")) (sum-by :amount))`).Val
	if !value.Equal(v, value.Int(700)) {
		t.Errorf("filtered sum = %v, want 700", v)
	}
}

func TestEvalGroupByCountPipeline(t *testing.T) {
	r := newRig()
	r.ctx = value.NewMap().Assoc(value.Intern("orders"), value.NewVector(
		row("id", value.Int(1), "status", value.Str("p")),
		row("id", value.Int(2), "status", value.Str("d")),
		row("id", value.Int(3), "status", value.Str("p")),
		row("id", value.Int(4), "status", value.Str("d")),
		row("id", value.Int(5), "status", value.Str("c")),
	))
	v := r.run(t, `(-> (group-by :status ctx/orders) (update-vals count))`).Val
	m, ok := v.(*value.Map)
	if !ok {
		t.Fatalf("result type = %T, want *Map", v)
	}
	for status, want := range map[string]int64{"p": 2, "d": 2, "c": 1} {
		got, found := m.Get(value.Str(status))
		if !found || !value.Equal(got, value.Int(want)) {
			t.Errorf("count for %q = %v (found=%v), want %d", status, got, found, want)
		}
	}
}

func TestEvalTopNSortTakeMapPipeline(t *testing.T) {
	r := newRig()
	r.ctx = value.NewMap().Assoc(value.Intern("employees"), value.NewVector(
		row("name", value.Str("A"), "salary", value.Int(70)),
		row("name", value.Str("B"), "salary", value.Int(95)),
		row("name", value.Str("C"), "salary", value.Int(85)),
		row("name", value.Str("D"), "salary", value.Int(60)),
		row("name", value.Str("E"), "salary", value.Int(120)),
	))
	v := r.run(t, `(->> ctx/employees (sort-by :salary >) (take 3) (map :name))`).Val
	want := value.NewVector(value.Str("E"), value.Str("B"), value.Str("C"))
	if !value.Equal(v, want) {
		t.Errorf("top 3 by salary = %v, want %v", v, want)
	}
}
