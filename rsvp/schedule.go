package rsvp

import "time"

// Scheduler owns the advance timer on behalf of a Pacer. The Pacer cancels
// before every arm and treats a fired timer as disarmed, so implementations
// never see a second Schedule while one is pending.
type Scheduler interface {
	// Schedule arms the advance timer to fire after d.
	Schedule(d time.Duration)
	// Cancel disarms the advance timer. Safe to call when nothing is
	// pending.
	Cancel()
}

// TimerScheduler drives a Pacer from a real time.Timer. The owner receives
// fires from C and calls Tick on the Pacer; the paced output mode is its
// main consumer.
type TimerScheduler struct {
	timer *time.Timer
}

// NewTimerScheduler returns a TimerScheduler with no fire pending.
func NewTimerScheduler() *TimerScheduler {
	t := time.NewTimer(time.Hour)
	t.Stop()
	return &TimerScheduler{timer: t}
}

// Schedule implements Scheduler.
func (s *TimerScheduler) Schedule(d time.Duration) {
	s.timer.Reset(d)
}

// Cancel implements Scheduler. A fire that already happened but was never
// received is drained so a later Schedule starts clean.
func (s *TimerScheduler) Cancel() {
	if !s.timer.Stop() {
		select {
		case <-s.timer.C:
		default:
		}
	}
}

// C is the fire channel. Receiving from it consumes the pending advance.
func (s *TimerScheduler) C() <-chan time.Time {
	return s.timer.C
}
