// Package ui provides the main UI for the flit application.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	te "github.com/muesli/termenv"
)

const (
	statusMessageTimeout = time.Second * 2 // how long to show status messages like "reloaded!"
	ellipsis             = "…"
)

var config Config

// NewProgram returns a new Tea program. A nil doc starts the app on the
// text input screen.
func NewProgram(cfg Config, doc *Document) *tea.Program {
	log.Debug(
		"Starting flit",
		"rate",
		cfg.Rate,
		"high_perf_pager",
		cfg.HighPerformancePager,
		"glamour",
		cfg.GlamourEnabled,
	)

	config = cfg
	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	m := newModel(cfg, doc)
	return tea.NewProgram(m, opts...)
}

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

type statusMessageTimeoutMsg applicationContext

// applicationContext indicates the area of the application something applies
// to. Occasionally used as an argument to commands and messages.
type applicationContext int

const (
	readerContext applicationContext = iota
	previewContext
)

// state is the top-level application state.
type state int

const (
	stateShowInput state = iota
	stateShowReader
	stateShowPreview
)

func (s state) String() string {
	return map[state]string{
		stateShowInput:   "showing text input",
		stateShowReader:  "reading document",
		stateShowPreview: "previewing document",
	}[s]
}

// Common stuff we'll need to access in all models.
type commonModel struct {
	cfg    Config
	width  int
	height int
}

type model struct {
	common   *commonModel
	state    state
	fatalErr error

	// Sub-models
	input   inputModel
	reader  readerModel
	preview previewModel
}

func newModel(cfg Config, doc *Document) tea.Model {
	if cfg.GlamourStyle == styles.AutoStyle {
		if te.HasDarkBackground() {
			cfg.GlamourStyle = styles.DarkStyle
		} else {
			cfg.GlamourStyle = styles.LightStyle
		}
	}

	common := commonModel{
		cfg: cfg,
	}

	m := model{
		common:  &common,
		state:   stateShowInput,
		input:   newInputModel(&common),
		reader:  newReaderModel(&common),
		preview: newPreviewModel(&common),
	}

	if doc != nil {
		if err := m.reader.setDocument(doc); err != nil {
			log.Error("nothing to read", "note", doc.Note, "error", err)
			m.fatalErr = err
			return m
		}
		m.state = stateShowReader
	}

	return m
}

func (m model) Init() tea.Cmd {
	log.Debug("Init() called", "state", m.state)

	switch m.state {
	case stateShowReader:
		return m.reader.watchFile
	default:
		return m.input.focus()
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// If there's been an error, any key exits
	if m.fatalErr != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			return m, tea.Quit
		}
	}

	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q":
			// Pass the key through where it could be part of the text
			// being typed.
			if m.state == stateShowInput || (m.state == stateShowReader && m.reader.searching) {
				break
			}
			return m, tea.Quit

		case "esc":
			switch m.state { //nolint:exhaustive
			case stateShowPreview:
				m.state = stateShowReader
				m.preview.unload()
				return m, nil
			case stateShowReader:
				if m.reader.searching {
					break
				}
				m.state = stateShowInput
				m.reader.unload()
				return m, m.input.focus()
			default:
				return m, tea.Quit
			}

		case "v":
			if m.state == stateShowReader && !m.reader.searching {
				m.reader.pause()
				m.state = stateShowPreview
				m.preview.setDocument(m.reader.doc)
				return m, renderPreview(m.preview, m.reader.doc.Body)
			}
			// "v" in the preview flips back to the reader.
			if m.state == stateShowPreview {
				m.state = stateShowReader
				m.preview.unload()
				return m, nil
			}

		case "e":
			if m.state == stateShowReader && !m.reader.searching && m.reader.doc != nil {
				doc := m.reader.doc
				if doc.Path != "" {
					m.reader.pause()
					return m, openEditor(doc.Path)
				}
				// Text that never lived on disk is edited back on the
				// input screen.
				m.state = stateShowInput
				m.input.setValue(doc.Body)
				m.reader.unload()
				return m, m.input.focus()
			}

		case "ctrl+z":
			return m, tea.Suspend

		// Ctrl+C always quits no matter where in the application you are.
		case "ctrl+c":
			return m, tea.Quit
		}

	// Window size is received when starting up and on every resize
	case tea.WindowSizeMsg:
		m.common.width = msg.Width
		m.common.height = msg.Height
		m.input.setSize(msg.Width, msg.Height)
		m.reader.setSize(msg.Width, msg.Height)
		m.preview.setSize(msg.Width, msg.Height)

	// The user submitted text to read from the input screen
	case textSubmittedMsg:
		doc := &Document{
			Body: string(msg),
			Note: "typed text",
		}
		if err := m.reader.setDocument(doc); err != nil {
			m.input.hint = "Nothing to read yet"
			return m, nil
		}
		m.state = stateShowReader
		return m, nil

	case contentRenderedMsg:
		// Always let the preview store the render, even if the user has
		// already flipped back to the reader.
		newPreviewModel, cmd := m.preview.update(msg)
		m.preview = newPreviewModel
		return m, cmd

	// Status message timers fire for a sub-model regardless of which one
	// is on screen, so both get a look at them.
	case statusMessageTimeoutMsg:
		reader, cmd := m.reader.update(msg)
		m.reader = reader
		cmds = append(cmds, cmd)
		preview, previewCmd := m.preview.update(msg)
		m.preview = preview
		cmds = append(cmds, previewCmd)
		return m, tea.Batch(cmds...)

	case errMsg:
		m.fatalErr = msg.err
		return m, nil
	}

	// Process children
	switch m.state {
	case stateShowInput:
		newInputModel, cmd := m.input.update(msg)
		m.input = newInputModel
		cmds = append(cmds, cmd)

	case stateShowReader:
		newReaderModel, cmd := m.reader.update(msg)
		m.reader = newReaderModel
		cmds = append(cmds, cmd)

	case stateShowPreview:
		newPreviewModel, cmd := m.preview.update(msg)
		m.preview = newPreviewModel
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	if m.fatalErr != nil {
		return errorView(m.fatalErr, true)
	}

	switch m.state { //nolint:exhaustive
	case stateShowReader:
		return m.reader.view()
	case stateShowPreview:
		return m.preview.view()
	default:
		return m.input.view()
	}
}

func errorView(err error, fatal bool) string {
	exitMsg := "press any key to "
	if fatal {
		exitMsg += "exit"
	} else {
		exitMsg += "return"
	}
	s := fmt.Sprintf("%s\n\n%v\n\n%s",
		errorTitleStyle("ERROR"),
		err,
		subtleStyle(exitMsg),
	)
	return "\n" + indent(s, 3)
}

// COMMANDS

func waitForStatusMessageTimeout(appCtx applicationContext, t *time.Timer) tea.Cmd {
	return func() tea.Msg {
		<-t.C
		return statusMessageTimeoutMsg(appCtx)
	}
}

// ETC

// Lightweight version of reflow's indent function.
func indent(s string, n int) string {
	if n <= 0 || s == "" {
		return s
	}
	l := strings.Split(s, "\n")
	b := strings.Builder{}
	i := strings.Repeat(" ", n)
	for _, v := range l {
		fmt.Fprintf(&b, "%s%s\n", i, v)
	}
	return b.String()
}
