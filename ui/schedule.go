package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// paceTickMsg is delivered when a scheduled word advance comes due. The
// tag identifies which arming produced it.
type paceTickMsg struct {
	tag int
}

// tickScheduler adapts the pacer's timer contract to bubbletea's message
// loop. A tea.Tick cannot be revoked once issued, so cancellation works by
// tag: every arm or cancel bumps the tag, and a delivered tick whose tag
// no longer matches is dropped by the reader.
type tickScheduler struct {
	tag     int
	delay   time.Duration
	pending bool
}

func newTickScheduler() *tickScheduler {
	return &tickScheduler{}
}

// Schedule records a one-shot advance after d, superseding anything armed
// earlier.
func (s *tickScheduler) Schedule(d time.Duration) {
	s.tag++
	s.delay = d
	s.pending = true
}

// Cancel invalidates any outstanding tick.
func (s *tickScheduler) Cancel() {
	s.tag++
	s.pending = false
}

// next hands out the command for the most recent Schedule call, once. It
// returns nil when nothing is waiting to be armed.
func (s *tickScheduler) next() tea.Cmd {
	if !s.pending {
		return nil
	}
	s.pending = false
	tag := s.tag
	return tea.Tick(s.delay, func(time.Time) tea.Msg {
		return paceTickMsg{tag: tag}
	})
}

// stale reports whether a delivered tick was superseded by a later arm or
// cancel.
func (s *tickScheduler) stale(msg paceTickMsg) bool {
	return msg.tag != s.tag
}
