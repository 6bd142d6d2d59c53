package rsvp

import "time"

// Word is one displayable unit of a segmented text, immutable once built.
type Word struct {
	// Text is the literal token: non-empty, with no interior whitespace.
	Text string
	// Focus is the rune index of the fixation point within Text.
	Focus int
	// EndsClause is true when the final character of Text is one of
	// . ! ? , and the word therefore closes a sentence or clause.
	EndsClause bool
}

// Split cuts Text around the fixation point for rendering: the runes
// before the focus rune, the focus rune itself, and the runes after it.
func (w Word) Split() (before, focus, after string) {
	runes := []rune(w.Text)
	if len(runes) == 0 {
		return "", "", ""
	}
	i := w.Focus
	if i < 0 || i >= len(runes) {
		i = 0
	}
	return string(runes[:i]), string(runes[i]), string(runes[i+1:])
}

// Sequence is the ordered list of words produced from one input text. It
// is rebuilt wholesale on every segmentation pass, never edited in place.
type Sequence []Word

// Duration estimates how long the sequence takes to read at rate words
// per minute, clause-ending dwells included. Zero for a non-positive
// rate.
func (s Sequence) Duration(rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	var d time.Duration
	for _, w := range s {
		d += dwell(w, rate)
	}
	return d
}
