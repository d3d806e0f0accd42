package script

import (
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"golang.org/x/net/html"
)

// EscapeHTMLFunc escapes HTML special characters in a string.
var EscapeHTMLFunc = function.New(&function.Spec{
	Description: "Escapes special HTML characters.",
	Params: []function.Parameter{
		{Name: "str", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		return cty.StringVal(html.EscapeString(args[0].AsString())), nil
	},
})

// Functions returns the function table available to templates.
func Functions() map[string]function.Function {
	return map[string]function.Function{
		"upper":       stdlib.UpperFunc,
		"lower":       stdlib.LowerFunc,
		"title":       stdlib.TitleFunc,
		"trimspace":   stdlib.TrimSpaceFunc,
		"join":        stdlib.JoinFunc,
		"split":       stdlib.SplitFunc,
		"format":      stdlib.FormatFunc,
		"length":      stdlib.LengthFunc,
		"concat":      stdlib.ConcatFunc,
		"keys":        stdlib.KeysFunc,
		"contains":    stdlib.ContainsFunc,
		"jsonencode":  stdlib.JSONEncodeFunc,
		"coalesce":    stdlib.CoalesceFunc,
		"min":         stdlib.MinFunc,
		"max":         stdlib.MaxFunc,
		"replace":     stdlib.ReplaceFunc,
		"sort":        stdlib.SortFunc,
		"escape_html": EscapeHTMLFunc,
	}
}
