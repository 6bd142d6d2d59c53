package rsvp

import "errors"

// Errors reported by the Pacer. All are local, recoverable conditions
// signaled synchronously from the offending call; a call that returns one
// leaves the Pacer unchanged.
var (
	// ErrEmptySequence is returned by Load when the sequence holds no words.
	ErrEmptySequence = errors.New("sequence contains no words")
	// ErrNoSequence is returned by Start before any sequence was loaded.
	ErrNoSequence = errors.New("no sequence loaded")
	// ErrInvalidRate is returned for a rate that is not a positive number
	// of words per minute.
	ErrInvalidRate = errors.New("rate must be a positive number of words per minute")
)
