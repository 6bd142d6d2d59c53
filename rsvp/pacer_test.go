package rsvp

import (
	"errors"
	"testing"
	"time"
)

// mockScheduler records scheduling calls and fails the test if a second
// timer is armed while one is still outstanding.
type mockScheduler struct {
	t       *testing.T
	armed   bool
	delays  []time.Duration
	cancels int
}

func newMockScheduler(t *testing.T) *mockScheduler {
	return &mockScheduler{t: t}
}

func (m *mockScheduler) Schedule(d time.Duration) {
	if m.armed {
		m.t.Error("Schedule called while a timer was already armed")
	}
	m.armed = true
	m.delays = append(m.delays, d)
}

func (m *mockScheduler) Cancel() {
	m.armed = false
	m.cancels++
}

// fire simulates the armed timer going off and delivers the tick.
func (m *mockScheduler) fire(p *Pacer) {
	if !m.armed {
		m.t.Fatal("fire called with no timer armed")
	}
	m.armed = false
	p.Tick()
}

func (m *mockScheduler) lastDelay() time.Duration {
	if len(m.delays) == 0 {
		m.t.Fatal("no delays were scheduled")
	}
	return m.delays[len(m.delays)-1]
}

// makeWords builds a test sequence from tokens, marking clause enders the
// same way the segmenter does.
func makeWords(tokens ...string) Sequence {
	seq := make(Sequence, 0, len(tokens))
	for _, tok := range tokens {
		runes := []rune(tok)
		last := runes[len(runes)-1]
		seq = append(seq, Word{
			Text:       tok,
			EndsClause: last == '.' || last == '!' || last == '?' || last == ',',
		})
	}
	return seq
}

// TestModeString tests the String() method for Mode.
func TestModeString(t *testing.T) {
	tests := []struct {
		mode     Mode
		expected string
	}{
		{ModeIdle, "idle"},
		{ModeRunning, "running"},
		{ModePaused, "paused"},
		{ModeFinished, "finished"},
		{Mode(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if result := tt.mode.String(); result != tt.expected {
				t.Errorf("Mode.String() = %v, want %v", result, tt.expected)
			}
		})
	}
}

// TestNewPacer tests pacer construction and rate validation.
func TestNewPacer(t *testing.T) {
	tests := []struct {
		name    string
		rate    int
		wantErr error
	}{
		{"valid rate", 300, nil},
		{"minimum rate", 1, nil},
		{"zero rate", 0, ErrInvalidRate},
		{"negative rate", -5, ErrInvalidRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPacer(newMockScheduler(t), tt.rate)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewPacer(%d) error = %v, want %v", tt.rate, err, tt.wantErr)
			}
			if tt.wantErr == nil {
				if p.Mode() != ModeIdle {
					t.Errorf("initial mode = %v, want %v", p.Mode(), ModeIdle)
				}
				if p.Rate() != tt.rate {
					t.Errorf("Rate() = %d, want %d", p.Rate(), tt.rate)
				}
				if _, ok := p.Current(); ok {
					t.Error("Current() reported a word before any sequence was loaded")
				}
			}
		})
	}
}

// TestLoadEmptySequence tests that loading zero words is rejected and
// leaves the pacer untouched.
func TestLoadEmptySequence(t *testing.T) {
	sched := newMockScheduler(t)
	p, _ := NewPacer(sched, 300)

	if err := p.Load(Sequence{}); !errors.Is(err, ErrEmptySequence) {
		t.Fatalf("Load(empty) error = %v, want %v", err, ErrEmptySequence)
	}
	if err := p.Load(nil); !errors.Is(err, ErrEmptySequence) {
		t.Fatalf("Load(nil) error = %v, want %v", err, ErrEmptySequence)
	}

	if p.Mode() != ModeIdle {
		t.Errorf("mode after rejected load = %v, want %v", p.Mode(), ModeIdle)
	}
	if err := p.Start(); !errors.Is(err, ErrNoSequence) {
		t.Errorf("Start() after rejected load error = %v, want %v", err, ErrNoSequence)
	}
}

// TestLoadReplacesSequence tests that a fresh load cancels the pending
// advance and rewinds to the first word.
func TestLoadReplacesSequence(t *testing.T) {
	sched := newMockScheduler(t)
	p, _ := NewPacer(sched, 300)

	if err := p.Load(makeWords("one", "two", "three")); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	sched.fire(p)

	if err := p.Load(makeWords("alpha", "beta")); err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if sched.armed {
		t.Error("timer still armed after load")
	}
	if p.Mode() != ModeIdle {
		t.Errorf("mode = %v, want %v", p.Mode(), ModeIdle)
	}
	if p.Position() != 0 {
		t.Errorf("position = %d, want 0", p.Position())
	}
	if w, _ := p.Current(); w.Text != "alpha" {
		t.Errorf("current word = %q, want %q", w.Text, "alpha")
	}
}

// TestStartWithoutSequence tests that start fails before any load.
func TestStartWithoutSequence(t *testing.T) {
	p, _ := NewPacer(newMockScheduler(t), 300)
	if err := p.Start(); !errors.Is(err, ErrNoSequence) {
		t.Errorf("Start() error = %v, want %v", err, ErrNoSequence)
	}
}

// TestStartSchedulesFirstAdvance tests that start arms one timer with the
// current word's delay.
func TestStartSchedulesFirstAdvance(t *testing.T) {
	sched := newMockScheduler(t)
	p, _ := NewPacer(sched, 300)
	p.Load(makeWords("hello", "world"))

	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if p.Mode() != ModeRunning {
		t.Errorf("mode = %v, want %v", p.Mode(), ModeRunning)
	}
	if !sched.armed {
		t.Error("no timer armed after start")
	}
	if got := sched.lastDelay(); got != 200*time.Millisecond {
		t.Errorf("scheduled delay = %v, want %v", got, 200*time.Millisecond)
	}

	// Starting again while running changes nothing.
	if err := p.Start(); err != nil {
		t.Errorf("Start() while running error = %v, want nil", err)
	}
	if len(sched.delays) != 1 {
		t.Errorf("schedule calls = %d, want 1", len(sched.delays))
	}
}

// TestDelayDoubling tests that clause-ending words dwell twice the base
// delay.
func TestDelayDoubling(t *testing.T) {
	tests := []struct {
		name     string
		rate     int
		token    string
		expected time.Duration
	}{
		{"plain word at 300", 300, "hello", 200 * time.Millisecond},
		{"sentence end at 300", 300, "end.", 400 * time.Millisecond},
		{"comma at 300", 300, "wait,", 400 * time.Millisecond},
		{"question at 300", 300, "really?", 400 * time.Millisecond},
		{"exclamation at 300", 300, "now!", 400 * time.Millisecond},
		{"plain word at 600", 600, "Go", 100 * time.Millisecond},
		{"comma at 600", 600, "fast,", 200 * time.Millisecond},
		{"punctuation not last", 300, "end.)", 200 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched := newMockScheduler(t)
			p, _ := NewPacer(sched, tt.rate)
			p.Load(makeWords(tt.token, "next"))

			if got := p.Delay(); got != tt.expected {
				t.Errorf("Delay() = %v, want %v", got, tt.expected)
			}

			p.Start()
			if got := sched.lastDelay(); got != tt.expected {
				t.Errorf("scheduled delay = %v, want %v", got, tt.expected)
			}
		})
	}
}

// TestPause tests that pause cancels the pending advance and that pausing
// anything but a running pacer is a harmless no-op.
func TestPause(t *testing.T) {
	sched := newMockScheduler(t)
	p, _ := NewPacer(sched, 300)
	p.Load(makeWords("one", "two", "three"))

	// Pause before starting does nothing.
	p.Pause()
	if p.Mode() != ModeIdle {
		t.Errorf("mode after idle pause = %v, want %v", p.Mode(), ModeIdle)
	}

	p.Start()
	p.Pause()
	if p.Mode() != ModePaused {
		t.Errorf("mode = %v, want %v", p.Mode(), ModePaused)
	}
	if sched.armed {
		t.Error("timer still armed after pause")
	}

	// Resume keeps the position.
	p.Start()
	if p.Position() != 0 {
		t.Errorf("position after resume = %d, want 0", p.Position())
	}
	if p.Mode() != ModeRunning {
		t.Errorf("mode after resume = %v, want %v", p.Mode(), ModeRunning)
	}
}

// TestTickIgnoredWhenNotRunning tests that a stale tick after a pause or
// reset does not move the position.
func TestTickIgnoredWhenNotRunning(t *testing.T) {
	sched := newMockScheduler(t)
	p, _ := NewPacer(sched, 300)
	p.Load(makeWords("one", "two", "three"))

	p.Tick()
	if p.Position() != 0 {
		t.Errorf("position after idle tick = %d, want 0", p.Position())
	}

	p.Start()
	p.Pause()
	p.Tick()
	if p.Position() != 0 {
		t.Errorf("position after paused tick = %d, want 0", p.Position())
	}
	if sched.armed {
		t.Error("stale tick armed a timer")
	}
}

// TestSetRate tests rate validation and that a rate change never touches
// the timer already pending.
func TestSetRate(t *testing.T) {
	sched := newMockScheduler(t)
	p, _ := NewPacer(sched, 300)
	p.Load(makeWords("one", "two", "three"))
	p.Start()

	if got := sched.lastDelay(); got != 200*time.Millisecond {
		t.Fatalf("initial delay = %v, want %v", got, 200*time.Millisecond)
	}

	if err := p.SetRate(600); err != nil {
		t.Fatalf("SetRate(600) error = %v", err)
	}
	if len(sched.delays) != 1 {
		t.Errorf("schedule calls after rate change = %d, want 1", len(sched.delays))
	}
	if !sched.armed {
		t.Error("pending timer lost on rate change")
	}

	// The new rate shows up on the next advance.
	sched.fire(p)
	if got := sched.lastDelay(); got != 100*time.Millisecond {
		t.Errorf("delay after rate change = %v, want %v", got, 100*time.Millisecond)
	}

	for _, bad := range []int{0, -10} {
		if err := p.SetRate(bad); !errors.Is(err, ErrInvalidRate) {
			t.Errorf("SetRate(%d) error = %v, want %v", bad, err, ErrInvalidRate)
		}
	}
	if p.Rate() != 600 {
		t.Errorf("rate after rejected SetRate = %d, want 600", p.Rate())
	}
}

// TestProgress tests the percent computation across a full run, including
// monotonicity and the exact 100 at the finish.
func TestProgress(t *testing.T) {
	sched := newMockScheduler(t)
	p, _ := NewPacer(sched, 300)
	p.Load(makeWords("one", "two", "three", "four"))

	if got := p.Progress(); got != 25 {
		t.Errorf("initial progress = %v, want 25", got)
	}

	p.Start()
	prev := p.Progress()
	for p.Mode() == ModeRunning {
		sched.fire(p)
		if got := p.Progress(); got < prev {
			t.Errorf("progress went backwards: %v after %v", got, prev)
		} else {
			prev = got
		}
	}

	if p.Mode() != ModeFinished {
		t.Fatalf("mode = %v, want %v", p.Mode(), ModeFinished)
	}
	if got := p.Progress(); got != 100 {
		t.Errorf("progress at finish = %v, want 100", got)
	}
	if sched.armed {
		t.Error("timer armed after natural finish")
	}
}

// TestReset tests that reset rewinds without discarding the sequence.
func TestReset(t *testing.T) {
	sched := newMockScheduler(t)
	p, _ := NewPacer(sched, 300)
	p.Load(makeWords("one", "two", "three"))
	p.Start()
	sched.fire(p)

	p.Reset()
	if p.Mode() != ModeIdle {
		t.Errorf("mode = %v, want %v", p.Mode(), ModeIdle)
	}
	if p.Position() != 0 {
		t.Errorf("position = %d, want 0", p.Position())
	}
	if sched.armed {
		t.Error("timer still armed after reset")
	}

	// The sequence survives; playback restarts without a reload.
	if err := p.Start(); err != nil {
		t.Errorf("Start() after reset error = %v", err)
	}
	if w, _ := p.Current(); w.Text != "one" {
		t.Errorf("current word = %q, want %q", w.Text, "one")
	}
}

// TestRestartAfterFinished tests the replay semantics: starting from the
// finished state rewinds to the first word.
func TestRestartAfterFinished(t *testing.T) {
	sched := newMockScheduler(t)
	p, _ := NewPacer(sched, 300)
	p.Load(makeWords("one", "two"))
	p.Start()
	sched.fire(p)
	sched.fire(p)

	if p.Mode() != ModeFinished {
		t.Fatalf("mode = %v, want %v", p.Mode(), ModeFinished)
	}

	if err := p.Start(); err != nil {
		t.Fatalf("Start() from finished error = %v", err)
	}
	if p.Position() != 0 {
		t.Errorf("position after replay start = %d, want 0", p.Position())
	}
	if p.Mode() != ModeRunning {
		t.Errorf("mode = %v, want %v", p.Mode(), ModeRunning)
	}
	if !sched.armed {
		t.Error("no timer armed after replay start")
	}
}

// TestStep tests manual seeking: clamping at both ends and the demotion of
// running or finished playback to paused.
func TestStep(t *testing.T) {
	tests := []struct {
		name     string
		from     int
		delta    int
		expected int
	}{
		{"forward one", 0, 1, 1},
		{"back from start clamps", 0, -3, 0},
		{"past end clamps", 1, 10, 3},
		{"back one", 2, -1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched := newMockScheduler(t)
			p, _ := NewPacer(sched, 300)
			p.Load(makeWords("one", "two", "three", "four"))
			p.Step(tt.from)

			p.Step(tt.delta)
			if got := p.Position(); got != tt.expected {
				t.Errorf("position = %d, want %d", got, tt.expected)
			}
		})
	}

	sched := newMockScheduler(t)
	p, _ := NewPacer(sched, 300)
	p.Load(makeWords("one", "two", "three"))

	// Stepping with nothing running stays idle.
	p.Step(1)
	if p.Mode() != ModeIdle {
		t.Errorf("mode after idle step = %v, want %v", p.Mode(), ModeIdle)
	}

	// Stepping through running playback pauses it and disarms the timer.
	p.Start()
	p.Step(1)
	if p.Mode() != ModePaused {
		t.Errorf("mode after running step = %v, want %v", p.Mode(), ModePaused)
	}
	if sched.armed {
		t.Error("timer still armed after step")
	}

	// Stepping back from the finish leaves a paused pacer, not a replay.
	p.Start()
	for p.Mode() == ModeRunning {
		sched.fire(p)
	}
	p.Step(-1)
	if p.Mode() != ModePaused {
		t.Errorf("mode after finished step = %v, want %v", p.Mode(), ModePaused)
	}
	if p.Position() != 1 {
		t.Errorf("position = %d, want 1", p.Position())
	}
}

// TestRemaining tests the time estimate over the rest of the sequence.
func TestRemaining(t *testing.T) {
	sched := newMockScheduler(t)
	p, _ := NewPacer(sched, 300)
	p.Load(makeWords("one", "two.", "three"))

	if got := p.Remaining(); got != 800*time.Millisecond {
		t.Errorf("Remaining() = %v, want %v", got, 800*time.Millisecond)
	}

	p.Start()
	sched.fire(p)
	if got := p.Remaining(); got != 600*time.Millisecond {
		t.Errorf("Remaining() after one advance = %v, want %v", got, 600*time.Millisecond)
	}
}

// TestFrame tests the render payload.
func TestFrame(t *testing.T) {
	sched := newMockScheduler(t)
	p, _ := NewPacer(sched, 300)
	p.Load(makeWords("one", "two"))
	p.Start()
	sched.fire(p)
	sched.fire(p)

	f := p.Frame()
	if f.Word.Text != "two" {
		t.Errorf("Frame.Word.Text = %q, want %q", f.Word.Text, "two")
	}
	if f.Progress != 100 {
		t.Errorf("Frame.Progress = %v, want 100", f.Progress)
	}
	if f.Mode != ModeFinished {
		t.Errorf("Frame.Mode = %v, want %v", f.Mode, ModeFinished)
	}
	if f.Position != 1 || f.Total != 2 {
		t.Errorf("Frame position/total = %d/%d, want 1/2", f.Position, f.Total)
	}
}

// TestSingleTimerInvariant drives the pacer through a long mixed call
// sequence; the mock fails the test on any double arming.
func TestSingleTimerInvariant(t *testing.T) {
	sched := newMockScheduler(t)
	p, _ := NewPacer(sched, 300)
	p.Load(makeWords("one", "two,", "three", "four."))

	p.Start()
	sched.fire(p)
	p.Pause()
	p.Start()
	p.Start()
	sched.fire(p)
	p.Reset()
	p.Start()
	p.Step(2)
	p.Start()
	sched.fire(p)
	p.Load(makeWords("fresh", "words"))
	p.Start()
	for p.Mode() == ModeRunning {
		sched.fire(p)
	}

	if p.Mode() != ModeFinished {
		t.Errorf("mode = %v, want %v", p.Mode(), ModeFinished)
	}
	if sched.armed {
		t.Error("timer armed after finish")
	}
}

// TestFullRun walks "Go fast, win big." at 600 words per minute and checks
// every scheduled delay along the way.
func TestFullRun(t *testing.T) {
	sched := newMockScheduler(t)
	p, err := NewPacer(sched, 600)
	if err != nil {
		t.Fatalf("NewPacer() error = %v", err)
	}

	seq := makeWords("Go", "fast,", "win", "big.")
	if len(seq) != 4 {
		t.Fatalf("word count = %d, want 4", len(seq))
	}
	if err := p.Load(seq); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	steps := []struct {
		word  string
		delay time.Duration
	}{
		{"Go", 100 * time.Millisecond},
		{"fast,", 200 * time.Millisecond},
		{"win", 100 * time.Millisecond},
		{"big.", 200 * time.Millisecond},
	}

	for i, step := range steps {
		w, ok := p.Current()
		if !ok || w.Text != step.word {
			t.Fatalf("word %d = %q, want %q", i, w.Text, step.word)
		}
		if got := sched.lastDelay(); got != step.delay {
			t.Errorf("delay while on %q = %v, want %v", step.word, got, step.delay)
		}
		sched.fire(p)
	}

	if p.Mode() != ModeFinished {
		t.Errorf("mode = %v, want %v", p.Mode(), ModeFinished)
	}
	if got := p.Progress(); got != 100 {
		t.Errorf("progress = %v, want 100", got)
	}
	if w, _ := p.Current(); w.Text != "big." {
		t.Errorf("final word = %q, want %q", w.Text, "big.")
	}
	if len(sched.delays) != 4 {
		t.Errorf("schedule calls = %d, want 4", len(sched.delays))
	}
	if sched.armed {
		t.Error("timer armed after the run finished")
	}
}
