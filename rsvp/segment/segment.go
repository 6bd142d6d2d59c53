// Package segment converts raw text into the word sequence the pacer
// plays back. Splitting is purely whitespace based, with no language
// awareness beyond a fixed focus-point heuristic and a small set of
// clause-ending punctuation characters.
package segment

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/flitreader/flit/rsvp"
)

// clauseEnders close a sentence or clause when one of them is a token's
// final character. Punctuation elsewhere in the token does not count.
const clauseEnders = ".!?,"

// Words segments raw text into displayable word units. Leading and
// trailing whitespace is trimmed, runs of whitespace collapse to a single
// break, and empty tokens are dropped, so any input that is empty or all
// whitespace yields an empty sequence. The result replaces any prior
// sequence wholesale.
func Words(text string) rsvp.Sequence {
	fields := strings.Fields(norm.NFC.String(text))
	seq := make(rsvp.Sequence, 0, len(fields))
	for _, tok := range fields {
		runes := []rune(tok)
		seq = append(seq, rsvp.Word{
			Text:       tok,
			Focus:      focusIndex(len(runes)),
			EndsClause: strings.ContainsRune(clauseEnders, runes[len(runes)-1]),
		})
	}
	return seq
}

// focusIndex maps a token's rune count to its fixation point, shifting
// the point rightward for longer words to approximate the optimal
// recognition position.
func focusIndex(n int) int {
	switch {
	case n <= 1:
		return 0
	case n <= 5:
		return 1
	case n <= 9:
		return 2
	case n <= 14:
		return 3
	default:
		return 4
	}
}
