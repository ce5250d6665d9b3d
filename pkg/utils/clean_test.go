package utils

import (
	"testing"
)

func TestMatchBrace(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		open   int
		end    int
		wantOK bool
	}{
		{name: "flat object", input: `{"a":1}`, open: 0, end: 6, wantOK: true},
		{name: "nested object", input: `x {"a":{"b":{}}} y`, open: 2, end: 15, wantOK: true},
		{name: "brace inside string", input: `{"a":"}"}`, open: 0, end: 8, wantOK: true},
		{name: "escaped quote inside string", input: `{"a":"\"}"}`, open: 0, end: 10, wantOK: true},
		{name: "unclosed", input: `{"a":{"b":1}`, open: 0, end: -1, wantOK: false},
		{name: "not a brace", input: `abc`, open: 1, end: -1, wantOK: false},
		{name: "out of range", input: `{}`, open: 5, end: -1, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end, ok := MatchBrace(tt.input, tt.open)
			if ok != tt.wantOK || end != tt.end {
				t.Errorf("MatchBrace() = (%d, %v), want (%d, %v)", end, ok, tt.end, tt.wantOK)
			}
		})
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		width    int
		expected string
	}{
		{
			name:     "simple wrap",
			input:    "hello world",
			width:    5,
			expected: "hello\nworld",
		},
		{
			name:     "preserves existing newlines",
			input:    "a\nb\nc",
			width:    10,
			expected: "a\nb\nc",
		},
		{
			name:     "empty string",
			input:    "",
			width:    10,
			expected: "",
		},
		{
			name:     "width less than 1 returns original",
			input:    "hello world",
			width:    0,
			expected: "hello world",
		},
		{
			name:     "preserves empty lines",
			input:    "line1\n\nline2",
			width:    10,
			expected: "line1\n\nline2",
		},
		{
			name:     "long word stays intact",
			input:    "supercalifragilisticexpialidocious",
			width:    10,
			expected: "supercalifragilisticexpialidocious",
		},
		{
			name:     "multiline with long lines",
			input:    "first line is very long and should wrap\nsecond line also very long",
			width:    15,
			expected: "first line is\nvery long and\nshould wrap\nsecond line\nalso very long",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := WrapText(tt.input, tt.width)
			if result != tt.expected {
				t.Errorf("WrapText() = %q, want %q", result, tt.expected)
			}
		})
	}
}
