package script

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Variables converts a render context to HCL variables. Keys that are not
// valid identifiers are skipped at the top level; they stay reachable by
// index inside nested objects.
func Variables(data map[string]any) (map[string]cty.Value, error) {
	vars := make(map[string]cty.Value, len(data))
	for k, v := range data {
		if !hclsyntax.ValidIdentifier(k) {
			continue
		}
		cv, err := ToValue(v)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", k, err)
		}
		vars[k] = cv
	}
	return vars, nil
}

// ToValue converts a decoded YAML/JSON value to cty through its JSON form.
func ToValue(v any) (cty.Value, error) {
	buf, err := json.Marshal(normalize(v))
	if err != nil {
		return cty.NilVal, err
	}
	ty, err := ctyjson.ImpliedType(buf)
	if err != nil {
		return cty.NilVal, err
	}
	return ctyjson.Unmarshal(buf, ty)
}

// normalize rewrites map[any]any, which encoding/json rejects, into
// map[string]any.
func normalize(v any) any {
	switch t := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}
