package utils

import (
	"strings"
	"testing"
)

// TestPlaintext tests flattening markdown into readable words.
func TestPlaintext(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "headings and paragraphs",
			input:    "# Title\n\nFirst paragraph here.\n\nSecond one.\n",
			contains: []string{"Title", "First paragraph here.", "Second one."},
		},
		{
			name:     "emphasis unwrapped",
			input:    "Read *this* and **that** now.\n",
			contains: []string{"Read this and that now."},
		},
		{
			name:     "inline code kept",
			input:    "Run `flit` to start.\n",
			contains: []string{"Run flit to start."},
		},
		{
			name:     "fenced code dropped",
			input:    "Before.\n\n```go\npackage main\n```\n\nAfter.\n",
			contains: []string{"Before.", "After."},
			excludes: []string{"package main"},
		},
		{
			name:     "list items",
			input:    "- one\n- two\n- three\n",
			contains: []string{"one", "two", "three"},
		},
		{
			name:     "link label kept, destination dropped",
			input:    "See [the docs](https://example.com/docs) for more.\n",
			contains: []string{"the docs"},
			excludes: []string{"example.com"},
		},
		{
			name:     "html dropped",
			input:    "<div class=\"x\">\nraw\n</div>\n\nVisible words.\n",
			contains: []string{"Visible words."},
			excludes: []string{"class="},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Plaintext([]byte(tt.input))
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Plaintext() = %q, missing %q", got, want)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("Plaintext() = %q, should not contain %q", got, bad)
				}
			}
		})
	}
}

// TestPlaintextBlockBreaks tests that separate blocks never concatenate
// into one word.
func TestPlaintextBlockBreaks(t *testing.T) {
	got := Plaintext([]byte("# One\n\nTwo\nThree\n"))
	words := strings.Fields(got)

	expected := []string{"One", "Two", "Three"}
	if len(words) != len(expected) {
		t.Fatalf("Fields(Plaintext()) = %v, want %v", words, expected)
	}
	for i, want := range expected {
		if words[i] != want {
			t.Errorf("word %d = %q, want %q", i, words[i], want)
		}
	}
}
