package segment

import (
	"testing"

	"github.com/flitreader/flit/rsvp"
)

// TestWordsCount tests whitespace normalization and token counting.
func TestWordsCount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"simple sentence", "one two three", 3},
		{"padded input", "  padded  ", 1},
		{"mixed whitespace", "a\tb\nc\r\nd", 4},
		{"collapsed runs", "gaps   between     words", 3},
		{"empty input", "", 0},
		{"all whitespace", " \t\n  ", 0},
		{"single word", "solitary", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := Words(tt.input)
			if len(seq) != tt.expected {
				t.Errorf("len(Words(%q)) = %d, want %d", tt.input, len(seq), tt.expected)
			}
		})
	}
}

// TestWordsOrder tests that token order is preserved.
func TestWordsOrder(t *testing.T) {
	seq := Words("first  second\nthird")
	expected := []string{"first", "second", "third"}

	if len(seq) != len(expected) {
		t.Fatalf("len = %d, want %d", len(seq), len(expected))
	}
	for i, want := range expected {
		if seq[i].Text != want {
			t.Errorf("word %d = %q, want %q", i, seq[i].Text, want)
		}
	}
}

// TestFocusBanding tests the length-banded fixation point rule across its
// boundaries.
func TestFocusBanding(t *testing.T) {
	input := "a ab abcde abcdefghi abcdefghijklmn abcdefghijklmnop"
	expected := []int{0, 1, 1, 2, 3, 4}

	seq := Words(input)
	if len(seq) != len(expected) {
		t.Fatalf("len = %d, want %d", len(seq), len(expected))
	}
	for i, want := range expected {
		if seq[i].Focus != want {
			t.Errorf("focus of %q = %d, want %d", seq[i].Text, seq[i].Focus, want)
		}
	}
}

// TestFocusBounds tests that every fixation point lands inside its word.
func TestFocusBounds(t *testing.T) {
	seq := Words("i am testing focus positions for several different word lengths, including extraordinarily incomprehensibilities")
	if len(seq) == 0 {
		t.Fatal("no words produced")
	}
	for _, w := range seq {
		n := len([]rune(w.Text))
		if w.Focus < 0 || w.Focus >= n {
			t.Errorf("focus of %q = %d, out of range [0,%d)", w.Text, w.Focus, n)
		}
	}
}

// TestClauseDetection tests the trailing-punctuation flag.
func TestClauseDetection(t *testing.T) {
	tests := []struct {
		token    string
		expected bool
	}{
		{"end.", true},
		{"wait,", true},
		{"really?", true},
		{"now!", true},
		{"end.)", false},
		{"hello", false},
		{"don't", false},
		{"mid.dle", false},
		{",", true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			seq := Words(tt.token)
			if len(seq) != 1 {
				t.Fatalf("len = %d, want 1", len(seq))
			}
			if seq[0].EndsClause != tt.expected {
				t.Errorf("EndsClause(%q) = %v, want %v", tt.token, seq[0].EndsClause, tt.expected)
			}
		})
	}
}

// TestUnicodeWords tests rune-based lengths and composed normalization.
func TestUnicodeWords(t *testing.T) {
	// "héllo" is five runes, so its focus sits in the 2 to 5 band.
	seq := Words("héllo wörld.")
	if len(seq) != 2 {
		t.Fatalf("len = %d, want 2", len(seq))
	}
	if seq[0].Focus != 1 {
		t.Errorf("focus of %q = %d, want 1", seq[0].Text, seq[0].Focus)
	}
	if !seq[1].EndsClause {
		t.Errorf("EndsClause(%q) = false, want true", seq[1].Text)
	}

	// A decomposed accent normalizes to one rune before measuring.
	decomposed := "héllo"
	seq = Words(decomposed)
	if len(seq) != 1 {
		t.Fatalf("len = %d, want 1", len(seq))
	}
	if n := len([]rune(seq[0].Text)); n != 5 {
		t.Errorf("rune count after normalization = %d, want 5", n)
	}
	if seq[0].Focus != 1 {
		t.Errorf("focus = %d, want 1", seq[0].Focus)
	}
}

// TestWordsMatchPacer tests that segmenter output plays back directly.
func TestWordsMatchPacer(t *testing.T) {
	seq := Words("Go fast, win big.")
	if len(seq) != 4 {
		t.Fatalf("len = %d, want 4", len(seq))
	}

	flags := []bool{false, true, false, true}
	for i, want := range flags {
		if seq[i].EndsClause != want {
			t.Errorf("EndsClause(%q) = %v, want %v", seq[i].Text, seq[i].EndsClause, want)
		}
	}

	var _ rsvp.Sequence = seq
}
