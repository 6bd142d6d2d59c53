package rsvp

import (
	"testing"
	"time"
)

// TestTimerSchedulerFires tests that a scheduled timer delivers on C.
func TestTimerSchedulerFires(t *testing.T) {
	s := NewTimerScheduler()
	s.Schedule(5 * time.Millisecond)

	select {
	case <-s.C():
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
}

// TestTimerSchedulerCancel tests that cancelling suppresses delivery.
func TestTimerSchedulerCancel(t *testing.T) {
	s := NewTimerScheduler()
	s.Schedule(10 * time.Millisecond)
	s.Cancel()

	select {
	case <-s.C():
		t.Fatal("cancelled timer fired")
	case <-time.After(100 * time.Millisecond):
	}
}

// TestTimerSchedulerReuse tests rearming after a fire and after a cancel.
func TestTimerSchedulerReuse(t *testing.T) {
	s := NewTimerScheduler()

	s.Schedule(5 * time.Millisecond)
	select {
	case <-s.C():
	case <-time.After(2 * time.Second):
		t.Fatal("first timer never fired")
	}

	s.Cancel()
	s.Schedule(5 * time.Millisecond)
	select {
	case <-s.C():
	case <-time.After(2 * time.Second):
		t.Fatal("rearmed timer never fired")
	}
}

// TestTimerSchedulerCancelIdle tests that cancelling with nothing armed is
// safe, including right after construction.
func TestTimerSchedulerCancelIdle(t *testing.T) {
	s := NewTimerScheduler()
	s.Cancel()
	s.Cancel()

	s.Schedule(5 * time.Millisecond)
	select {
	case <-s.C():
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired after idle cancels")
	}
}
