package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     map[string]any
		expected string
	}{
		{
			name:     "two placeholders, one unset",
			template: "Hi {{name}}, q{{n}}",
			vars:     map[string]any{"name": "Ann"},
			expected: "Hi Ann, q",
		},
		{
			name:     "both set",
			template: "Hi {{name}}, q{{n}}",
			vars:     map[string]any{"name": "Ann", "n": 3},
			expected: "Hi Ann, q3",
		},
		{
			name:     "nil value is empty",
			template: "x{{a}}y",
			vars:     map[string]any{"a": nil},
			expected: "xy",
		},
		{
			name:     "regex special characters stay literal",
			template: "score (.*) is {{score}} [ok]?",
			vars:     map[string]any{"score": "85"},
			expected: "score (.*) is 85 [ok]?",
		},
		{
			name:     "value with special characters",
			template: "answer: {{text}}",
			vars:     map[string]any{"text": "$1 \\ (see above)"},
			expected: "answer: $1 \\ (see above)",
		},
		{
			name:     "repeated placeholder",
			template: "{{w}} and {{w}}",
			vars:     map[string]any{"w": "again"},
			expected: "again and again",
		},
		{
			name:     "no placeholders",
			template: "plain text",
			vars:     map[string]any{"unused": "x"},
			expected: "plain text",
		},
		{
			name:     "no vars at all",
			template: "Hello {{name}}!",
			vars:     nil,
			expected: "Hello !",
		},
		{
			name:     "placeholder syntax inside a value survives",
			template: "answer: {{text}}",
			vars:     map[string]any{"text": "use {{curly}} braces"},
			expected: "answer: use {{curly}} braces",
		},
		{
			name:     "value naming another key is not expanded",
			template: "history: {{history}}",
			vars:     map[string]any{"history": "Candidate: {{vacancy_title}}", "vacancy_title": "Go Developer"},
			expected: "history: Candidate: {{vacancy_title}}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Render(tt.template, tt.vars))
		})
	}
}
