package prompts

import (
	"fmt"
	"strings"
)

// Render substitutes every {{key}} token with the string form of vars[key].
// The template is scanned in a single left-to-right pass and substituted
// values are never rescanned, so candidate-supplied text containing {{...}}
// passes through untouched. Absent or nil values render as the empty string.
func Render(template string, vars map[string]any) string {
	var out strings.Builder
	out.Grow(len(template))
	rest := template
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			out.WriteString(rest)
			return out.String()
		}
		end := strings.Index(rest[start+2:], "}}")
		if end < 0 {
			out.WriteString(rest)
			return out.String()
		}
		out.WriteString(rest[:start])
		key := rest[start+2 : start+2+end]
		if value, ok := vars[key]; ok {
			out.WriteString(stringify(value))
		}
		rest = rest[start+2+end+2:]
	}
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
