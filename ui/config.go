package ui

// DefaultRate is the reading rate used when none is configured.
const DefaultRate = 300

// Config contains TUI-specific configuration.
type Config struct {
	ShowLineNumbers  bool
	HomeDir          string `env:"HOME"`
	GlamourMaxWidth  uint
	GlamourStyle     string `env:"GLAMOUR_STYLE"`
	EnableMouse      bool
	PreserveNewLines bool

	// Raw skips markdown text extraction and segments the source as is.
	Raw bool

	// Reading rate in words per minute at session start.
	Rate int

	// RateStore, when set, receives the rate every time the user adjusts
	// it from the reader.
	RateStore RateStore

	// For debugging the UI
	HighPerformancePager bool `env:"FLIT_HIGH_PERFORMANCE_PAGER" envDefault:"true"`
	GlamourEnabled       bool `env:"FLIT_ENABLE_GLAMOUR"         envDefault:"true"`
}

// RateStore persists the words-per-minute preference across sessions.
type RateStore interface {
	SetRate(wpm int) error
}
