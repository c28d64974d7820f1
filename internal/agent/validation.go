package agent

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/value"
)

// schemaCache memoises compiled schemas by their source text.
var schemaCache sync.Map

func compileSchema(schemaJSON string) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(schemaJSON); ok {
		return cached.(*jsonschema.Schema), nil
	}
	compiled, err := jsonschema.CompileString("return.schema.json", schemaJSON)
	if err != nil {
		return nil, err
	}
	schemaCache.Store(schemaJSON, compiled)
	return compiled, nil
}

// NewJSONSchemaValidator compiles schemaJSON once and returns a
// ReturnValidator that checks the value an agent passes to `(return v)`
// against it.
// The PTC-Lisp value is first lowered to plain Go data (the same shape a
// JSON decoder would produce) since jsonschema validates against that
// domain, not against value.Value directly.
func NewJSONSchemaValidator(schemaJSON string) (ReturnValidator, error) {
	schema, err := compileSchema(schemaJSON)
	if err != nil {
		return nil, fmt.Errorf("compile return schema: %w", err)
	}
	return func(v value.Value) error {
		decoded, err := roundTripThroughJSON(toGoValue(v))
		if err != nil {
			return fmt.Errorf("encode return value: %w", err)
		}
		if err := schema.Validate(decoded); err != nil {
			return fmt.Errorf("return value does not match schema: %w", err)
		}
		return nil
	}, nil
}

func roundTripThroughJSON(v any) (any, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}

// toGoValue lowers a PTC-Lisp Value into the map[string]any/[]any/scalar
// shape encoding/json and jsonschema both expect. Keywords render as their
// bare name (without the leading `:`) since a schema written against
// JSON-sourced data never sees PTC-Lisp's atom/string key distinction.
func toGoValue(v value.Value) any {
	switch x := v.(type) {
	case value.Nil:
		return nil
	case value.Bool:
		return bool(x)
	case value.Int:
		return int64(x)
	case value.Float:
		return float64(x)
	case value.Str:
		return string(x)
	case *value.Keyword:
		return x.Name()
	case *value.Vector:
		out := make([]any, len(x.Items))
		for i, item := range x.Items {
			out[i] = toGoValue(item)
		}
		return out
	case *value.Set:
		items := x.Items()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = toGoValue(item)
		}
		return out
	case *value.Map:
		out := make(map[string]any, x.Len())
		for _, e := range x.Entries() {
			out[keyName(e.Key)] = toGoValue(e.Val)
		}
		return out
	default:
		return v.String()
	}
}

func keyName(k value.Value) string {
	switch x := k.(type) {
	case *value.Keyword:
		return x.Name()
	case value.Str:
		return string(x)
	default:
		return k.String()
	}
}
