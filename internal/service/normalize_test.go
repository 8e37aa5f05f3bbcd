package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "whitespace only",
			input:    "   \n\t  ",
			expected: "",
		},
		{
			name:     "lowercases and trims",
			input:    "  Hello World  ",
			expected: "hello world",
		},
		{
			name:     "strips fenced code block",
			input:    "before ```func main() {}``` after",
			expected: "before after",
		},
		{
			name:     "strips inline code",
			input:    "use `Normalize()` here",
			expected: "use here",
		},
		{
			name:     "heading keeps its text",
			input:    "# Getting Started",
			expected: "getting started",
		},
		{
			name:     "image keeps alt text",
			input:    "![diagram](assets/arch.png)",
			expected: "diagram",
		},
		{
			name:     "link keeps label",
			input:    "read [the docs](https://example.com/docs)",
			expected: "read the docs",
		},
		{
			name:     "url reduced to domain and path",
			input:    "visit https://www.example.com/docs now",
			expected: "visit example.com/docs now",
		},
		{
			name:     "chat mention removed",
			input:    "hey <@12345> hello",
			expected: "hey hello",
		},
		{
			name:     "html tags removed",
			input:    "<b>bold</b> and <i>italic</i>",
			expected: "bold and italic",
		},
		{
			name:     "horizontal rule removed",
			input:    "above\n---\nbelow",
			expected: "above below",
		},
		{
			name:     "block comment removed",
			input:    "keep /* drop this */ keep",
			expected: "keep keep",
		},
		{
			name:     "line comment removed",
			input:    "code // trailing note",
			expected: "code",
		},
		{
			name:     "whitespace runs collapse",
			input:    "a  \t b\n\n\n\nc",
			expected: "a b c",
		},
		{
			name:     "disallowed characters removed",
			input:    "héllo, wörld!",
			expected: "hllo wrld",
		},
		{
			name:     "allowed punctuation survives",
			input:    "GET /v1/items?page=2&sort=asc",
			expected: "get /v1/items?page=2&sort=asc",
		},
		{
			name:     "mixed markdown",
			input:    "# Title\n\nSee [docs](https://example.com/docs) and `code`.\n",
			expected: "title see docs and .",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"  Hello World  ",
		"# Title\n\nSee [docs](https://example.com/docs) and `code`.\n",
		"visit https://www.example.com/docs now",
		"<b>bold</b> with <@99> and /* comments */",
		"GET /v1/items?page=2&sort=asc",
	}

	for _, input := range inputs {
		once := Normalize(input)
		assert.Equal(t, once, Normalize(once), "input: %q", input)
	}
}
