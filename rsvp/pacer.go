// Package rsvp implements the word-pacing engine behind flit. A segmented
// Sequence of words plays back one word at a time, each dwelling on screen
// for a delay derived from a words-per-minute rate, with words that close a
// sentence or clause holding twice as long.
package rsvp

import "time"

// Mode identifies the playback state of a Pacer.
type Mode int

const (
	// ModeIdle indicates no active playback.
	ModeIdle Mode = iota
	// ModeRunning indicates playback is active and an advance is pending.
	ModeRunning
	// ModePaused indicates playback was paused mid-sequence.
	ModePaused
	// ModeFinished indicates the sequence ran to its natural end.
	ModeFinished
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeRunning:
		return "running"
	case ModePaused:
		return "paused"
	case ModeFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Frame is the render payload exposed after every state change. The pacer
// knows nothing about styling or layout; a presentation layer draws frames
// however it likes.
type Frame struct {
	Word     Word
	Progress float64 // percent, 0-100
	Mode     Mode
	Position int
	Total    int
}

// Pacer is the playback state machine: it holds the current position in a
// word sequence, the play mode, and the rate, and it schedules word
// advances through the Scheduler it was built with. At most one advance
// timer is ever outstanding. All methods are synchronous and a rejected
// call leaves the state untouched.
//
// A Pacer serves a single reading session and is not safe for concurrent
// use; drive it from one goroutine or event loop.
type Pacer struct {
	sched Scheduler
	seq   Sequence
	pos   int
	mode  Mode
	rate  int
}

// NewPacer returns a Pacer scheduling against sched at rate words per
// minute. No sequence is loaded yet.
func NewPacer(sched Scheduler, rate int) (*Pacer, error) {
	if rate <= 0 {
		return nil, ErrInvalidRate
	}
	return &Pacer{sched: sched, rate: rate}, nil
}

// Load replaces the word sequence, cancelling any pending advance and
// rewinding to the first word in ModeIdle. Loading an empty sequence fails
// with ErrEmptySequence and changes nothing.
func (p *Pacer) Load(seq Sequence) error {
	if len(seq) == 0 {
		return ErrEmptySequence
	}
	p.sched.Cancel()
	p.seq = seq
	p.pos = 0
	p.mode = ModeIdle
	return nil
}

// Start begins or resumes playback, scheduling the first advance from the
// word on display. Starting from ModeFinished rewinds to the beginning
// first. Without a loaded sequence it fails with ErrNoSequence; starting
// while already running does nothing.
func (p *Pacer) Start() error {
	if len(p.seq) == 0 {
		return ErrNoSequence
	}
	if p.mode == ModeRunning {
		return nil
	}
	if p.mode == ModeFinished {
		p.pos = 0
	}
	p.mode = ModeRunning
	p.schedule()
	return nil
}

// Pause stops playback mid-sequence, cancelling the pending advance. Not
// an error when nothing is running; that is a no-op.
func (p *Pacer) Pause() {
	if p.mode != ModeRunning {
		return
	}
	p.sched.Cancel()
	p.mode = ModePaused
}

// Reset rewinds to the first word in ModeIdle, cancelling any pending
// advance. The loaded sequence is kept; Load is the call that replaces it.
func (p *Pacer) Reset() {
	p.sched.Cancel()
	p.pos = 0
	p.mode = ModeIdle
}

// Tick advances to the next word. It is meant to be called when the
// scheduled timer fires; a stale fire arriving after a pause or reset is
// ignored. Reaching the end of the sequence parks the pacer on the last
// word in ModeFinished without rescheduling; otherwise the next advance is
// scheduled from the new current word's delay.
func (p *Pacer) Tick() {
	if p.mode != ModeRunning {
		return
	}
	next := p.pos + 1
	if next >= len(p.seq) {
		p.pos = len(p.seq) - 1
		p.mode = ModeFinished
		return
	}
	p.pos = next
	p.schedule()
}

// Step moves the position by delta words, clamped to the sequence bounds,
// cancelling any pending advance. Stepping out of ModeRunning or
// ModeFinished lands in ModePaused. A no-op without a sequence.
func (p *Pacer) Step(delta int) {
	if len(p.seq) == 0 {
		return
	}
	p.sched.Cancel()
	p.pos = min(max(p.pos+delta, 0), len(p.seq)-1)
	if p.mode == ModeRunning || p.mode == ModeFinished {
		p.mode = ModePaused
	}
}

// SetRate changes the rate in words per minute. It never touches a pending
// timer: the new rate applies from the next scheduling decision on.
// Non-positive rates fail with ErrInvalidRate and change nothing.
func (p *Pacer) SetRate(wpm int) error {
	if wpm <= 0 {
		return ErrInvalidRate
	}
	p.rate = wpm
	return nil
}

// Rate returns the current rate in words per minute.
func (p *Pacer) Rate() int { return p.rate }

// Mode returns the current playback mode.
func (p *Pacer) Mode() Mode { return p.mode }

// Position returns the index of the word on display.
func (p *Pacer) Position() int { return p.pos }

// Len returns the number of words in the loaded sequence.
func (p *Pacer) Len() int { return len(p.seq) }

// Current returns the word on display. ok is false until a sequence is
// loaded.
func (p *Pacer) Current() (Word, bool) {
	if len(p.seq) == 0 {
		return Word{}, false
	}
	return p.seq[p.pos], true
}

// Delay returns the dwell time for the word on display at the current
// rate. Words that close a sentence or clause dwell twice the base delay.
func (p *Pacer) Delay() time.Duration {
	w, ok := p.Current()
	if !ok {
		return 0
	}
	return dwell(w, p.rate)
}

// Progress returns how far playback has advanced, in percent. The last
// word reads exactly 100.
func (p *Pacer) Progress() float64 {
	if len(p.seq) == 0 {
		return 0
	}
	return float64(p.pos+1) / float64(len(p.seq)) * 100
}

// Remaining estimates the time to the end of the sequence as the sum of
// the remaining dwell times at the current rate.
func (p *Pacer) Remaining() time.Duration {
	return p.seq[p.pos:].Duration(p.rate)
}

// Frame returns the render payload for the current state.
func (p *Pacer) Frame() Frame {
	w, _ := p.Current()
	return Frame{
		Word:     w,
		Progress: p.Progress(),
		Mode:     p.mode,
		Position: p.pos,
		Total:    len(p.seq),
	}
}

// schedule arms the advance timer for the word on display, cancelling
// whatever was pending first so at most one timer is ever outstanding.
func (p *Pacer) schedule() {
	p.sched.Cancel()
	p.sched.Schedule(p.Delay())
}

// dwell returns the effective dwell time for w at rate words per minute.
func dwell(w Word, rate int) time.Duration {
	base := time.Minute / time.Duration(rate)
	if w.EndsClause {
		return 2 * base
	}
	return base
}
