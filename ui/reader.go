package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/termenv"
	"github.com/sahilm/fuzzy"
	"golang.org/x/time/rate"

	"github.com/flitreader/flit/rsvp"
	"github.com/flitreader/flit/rsvp/segment"
	"github.com/flitreader/flit/utils"
)

const (
	rateStep = 25
	minRate  = 100
	maxRate  = 1000

	guideMaxWidth = 64
)

var readerHelpHeight int

type (
	reloadMsg           struct{}
	documentReloadedMsg struct {
		body    string
		modtime time.Time
		err     error
	}
	rateSavedMsg struct{ err error }
)

type readerState int

const (
	readerStateBrowse readerState = iota
	readerStateStatusMessage
)

// readerModel is the word-at-a-time reading surface. Each word is drawn
// centered on its fixation letter between two guide rules, and the pacer
// decides when to advance to the next one.
type readerModel struct {
	common    *commonModel
	state     readerState
	searching bool

	doc   *Document
	words rsvp.Sequence

	pacer *rsvp.Pacer
	sched *tickScheduler

	progress progress.Model
	search   textinput.Model
	showHelp bool

	statusMessage      string
	statusMessageTimer *time.Timer

	watcher *fsnotify.Watcher

	// reloads coalesces the event bursts editors emit for a single save.
	reloads *rate.Limiter
}

func newReaderModel(common *commonModel) readerModel {
	sched := newTickScheduler()
	pacer, err := rsvp.NewPacer(sched, common.cfg.Rate)
	if err != nil {
		// The command line validates the rate before we get here.
		pacer, _ = rsvp.NewPacer(sched, DefaultRate)
	}

	prog := progress.New(progress.WithDefaultGradient())
	prog.ShowPercentage = false

	search := textinput.New()
	search.Placeholder = "jump to a word"
	search.Prompt = "/"

	m := readerModel{
		common:   common,
		state:    readerStateBrowse,
		pacer:    pacer,
		sched:    sched,
		progress: prog,
		search:   search,
		reloads:  rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
	}
	m.initWatcher()
	return m
}

func (m *readerModel) setSize(w, _ int) {
	m.progress.Width = m.zoneWidth()
	m.search.Width = max(w-4, 10)
}

func (m readerModel) zoneWidth() int {
	return min(max(m.common.width-4, 20), guideMaxWidth)
}

// setDocument replaces the text being read, segmenting it fresh and
// rewinding to the first word. Markdown is flattened to prose first,
// unless raw mode or a code file wants the bytes as they are.
func (m *readerModel) setDocument(doc *Document) error {
	text := doc.Body
	if !doc.isCode() && !m.common.cfg.Raw {
		text = utils.Plaintext([]byte(doc.Body))
	}
	words := segment.Words(text)
	if err := m.pacer.Load(words); err != nil {
		return err
	}
	m.doc = doc
	m.words = words
	return nil
}

func (m *readerModel) toggleHelp() {
	m.showHelp = !m.showHelp
}

// pause stops playback, keeping the position.
func (m *readerModel) pause() {
	m.pacer.Pause()
}

func (m *readerModel) showStatusMessage(message string) tea.Cmd {
	m.state = readerStateStatusMessage
	m.statusMessage = message
	if m.statusMessageTimer != nil {
		m.statusMessageTimer.Stop()
	}
	m.statusMessageTimer = time.NewTimer(statusMessageTimeout)

	return waitForStatusMessageTimeout(readerContext, m.statusMessageTimer)
}

func (m *readerModel) closeSearch() {
	m.searching = false
	m.search.Blur()
}

// jumpToMatch moves the position to the word best matching the query.
func (m *readerModel) jumpToMatch(query string) tea.Cmd {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	targets := make([]string, len(m.words))
	for i, w := range m.words {
		targets[i] = w.Text
	}
	matches := fuzzy.Find(query, targets)
	if len(matches) == 0 {
		return m.showStatusMessage(fmt.Sprintf("No match for %q", query))
	}
	m.pacer.Step(matches[0].Index - m.pacer.Position())
	return nil
}

// adjustRate bumps the reading rate by delta, clamped to sane bounds, and
// persists the result.
func (m *readerModel) adjustRate(delta int) tea.Cmd {
	wpm := min(max(m.pacer.Rate()+delta, minRate), maxRate)
	if wpm == m.pacer.Rate() {
		return nil
	}
	if err := m.pacer.SetRate(wpm); err != nil {
		return nil
	}
	return tea.Batch(
		m.showStatusMessage(fmt.Sprintf("%d words/min", wpm)),
		saveRate(m.common.cfg.RateStore, wpm),
	)
}

func (m *readerModel) unload() {
	if m.showHelp {
		m.toggleHelp()
	}
	if m.statusMessageTimer != nil {
		m.statusMessageTimer.Stop()
	}
	m.pacer.Reset()
	m.closeSearch()
	m.unwatchFile()
}

func (m readerModel) update(msg tea.Msg) (readerModel, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// The search input swallows keys while it is open.
		if m.searching {
			switch msg.String() {
			case "enter":
				cmds = append(cmds, m.jumpToMatch(m.search.Value()))
				m.closeSearch()
			case "esc":
				m.closeSearch()
			default:
				m.search, cmd = m.search.Update(msg)
				cmds = append(cmds, cmd)
			}
			return m, tea.Batch(cmds...)
		}

		switch msg.String() {
		case " ":
			if m.pacer.Mode() == rsvp.ModeRunning {
				m.pacer.Pause()
			} else if err := m.pacer.Start(); err != nil {
				log.Error("error starting playback", "error", err)
			}
			cmds = append(cmds, m.sched.next())

		case "r":
			m.pacer.Reset()

		case "right", "l":
			m.pacer.Step(1)

		case "left", "h":
			m.pacer.Step(-1)

		case "+", "=":
			cmds = append(cmds, m.adjustRate(rateStep))

		case "-", "_":
			cmds = append(cmds, m.adjustRate(-rateStep))

		case "/":
			m.pacer.Pause()
			m.searching = true
			m.search.SetValue("")
			cmds = append(cmds, m.search.Focus())

		case "c":
			// Copy using OSC 52
			termenv.Copy(m.doc.Body)
			// Copy using native system clipboard
			_ = clipboard.WriteAll(m.doc.Body)
			cmds = append(cmds, m.showStatusMessage("Copied contents"))

		case "?":
			m.toggleHelp()
		}

	case paceTickMsg:
		// A tick superseded by a pause, reset, or reload is dropped.
		if m.sched.stale(msg) {
			break
		}
		m.pacer.Tick()
		cmds = append(cmds, m.sched.next())

	// The file was changed on disk and we're reloading it
	case reloadMsg:
		if m.doc == nil || m.doc.Path == "" {
			break
		}
		if m.reloads.Allow() {
			cmds = append(cmds, loadDocument(m.doc))
		}
		cmds = append(cmds, m.watchFile)

	// We've finished editing the document, potentially making changes.
	case editorFinishedMsg:
		if msg.err != nil {
			log.Error("error running editor", "error", msg.err)
			cmds = append(cmds, m.showStatusMessage("Editor failed"))
			break
		}
		if m.doc != nil && m.doc.Path != "" {
			cmds = append(cmds, loadDocument(m.doc))
		}

	case documentReloadedMsg:
		if msg.err != nil {
			log.Error("error reloading document", "error", msg.err)
			cmds = append(cmds, m.showStatusMessage("Reload failed"))
			break
		}
		pos := m.pacer.Position()
		doc := *m.doc
		doc.Body = msg.body
		doc.Modtime = msg.modtime
		if err := m.setDocument(&doc); err != nil {
			cmds = append(cmds, m.showStatusMessage("Nothing left to read in this file"))
			break
		}
		m.pacer.Step(pos)
		cmds = append(cmds, m.showStatusMessage("Reloaded, saved "+humanize.Time(msg.modtime)))

	case rateSavedMsg:
		if msg.err != nil {
			log.Error("error saving rate", "error", msg.err)
			cmds = append(cmds, m.showStatusMessage("Couldn't save the rate"))
		}

	case statusMessageTimeoutMsg:
		if applicationContext(msg) == readerContext {
			m.state = readerStateBrowse
		}
	}

	return m, tea.Batch(cmds...)
}

func (m readerModel) view() string {
	var b strings.Builder

	zoneHeight := m.common.height - statusBarHeight
	if m.searching {
		zoneHeight--
	}
	if m.showHelp {
		if readerHelpHeight == 0 {
			readerHelpHeight = strings.Count(m.helpView(), "\n")
		}
		zoneHeight -= statusBarHeight + readerHelpHeight
	}

	fmt.Fprint(&b, m.wordZoneView(max(zoneHeight, 0))+"\n")

	if m.searching {
		fmt.Fprint(&b, m.search.View()+"\n")
	}

	m.statusBarView(&b)

	if m.showHelp {
		fmt.Fprint(&b, "\n"+m.helpView())
	}

	return b.String()
}

// wordZoneView draws the current word between two guide rules, its
// fixation letter held at a fixed column so the eye never travels.
func (m readerModel) wordZoneView(height int) string {
	word, ok := m.pacer.Current()
	if !ok {
		return lipgloss.Place(m.common.width, height,
			lipgloss.Center, lipgloss.Center,
			subtleStyle("nothing loaded"))
	}

	zone := m.zoneWidth()
	focusCol := zone / 3

	before, focus, after := word.Split()
	after = truncate.StringWithTail(after, uint(max(zone-focusCol-1, 1)), ellipsis) //nolint:gosec

	rule := strings.Repeat("─", focusCol)
	tail := strings.Repeat("─", max(zone-focusCol-1, 0))
	top := guideStyle(rule + "┬" + tail)
	bottom := guideStyle(rule + "┴" + tail)

	pad := strings.Repeat(" ", max(focusCol-runewidth.StringWidth(before), 0))
	line := pad + wordStyle(before) + focusStyle(focus) + wordStyle(after)

	bar := m.progress.ViewAs(m.pacer.Progress() / 100)

	display := top + "\n\n" + line + "\n\n" + bottom + "\n\n" + bar
	return lipgloss.Place(m.common.width, height,
		lipgloss.Center, lipgloss.Center,
		display)
}

func (m readerModel) statusBarView(b *strings.Builder) {
	showStatusMessage := m.state == readerStateStatusMessage

	// Logo
	logo := flitLogoView()

	// Progress percent and rate
	stats := fmt.Sprintf(" %3.0f%% | %d wpm ", m.pacer.Progress(), m.pacer.Rate())
	if showStatusMessage {
		stats = statusBarMessageStatsStyle(stats)
	} else {
		stats = statusBarStatsStyle(stats)
	}

	// "Help" note
	var helpNote string
	if showStatusMessage {
		helpNote = statusBarMessageHelpStyle(" ? Help ")
	} else {
		helpNote = statusBarHelpStyle(" ? Help ")
	}

	// Note
	var note string
	if showStatusMessage {
		note = m.statusMessage
	} else {
		note = fmt.Sprintf("%s | %s", m.doc.Note, m.playbackNote())
	}
	note = truncate.StringWithTail(" "+note+" ", uint(max(0, //nolint:gosec
		m.common.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(stats)-
			ansi.PrintableRuneWidth(helpNote),
	)), ellipsis)
	if showStatusMessage {
		note = statusBarMessageStyle(note)
	} else {
		note = statusBarNoteStyle(note)
	}

	// Empty space
	padding := max(0,
		m.common.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(note)-
			ansi.PrintableRuneWidth(stats)-
			ansi.PrintableRuneWidth(helpNote),
	)
	emptySpace := strings.Repeat(" ", padding)
	if showStatusMessage {
		emptySpace = statusBarMessageStyle(emptySpace)
	} else {
		emptySpace = statusBarNoteStyle(emptySpace)
	}

	fmt.Fprintf(b, "%s%s%s%s%s",
		logo,
		note,
		emptySpace,
		stats,
		helpNote,
	)
}

// playbackNote describes the playback state for the status bar.
func (m readerModel) playbackNote() string {
	switch m.pacer.Mode() {
	case rsvp.ModeRunning:
		return fmt.Sprintf("reading, about %s left", formatDuration(m.pacer.Remaining()))
	case rsvp.ModePaused:
		return fmt.Sprintf("paused at word %d of %d", m.pacer.Position()+1, m.pacer.Len())
	case rsvp.ModeFinished:
		return "done, space to replay"
	default:
		return "space to start"
	}
}

func (m readerModel) helpView() (s string) {
	col1 := []string{
		"+/=     read faster",
		"-/_     read slower",
		"/       jump to a word",
		"c       copy contents",
		"e       edit this document",
		"q       quit",
	}

	s += "\n"
	s += "space    play/pause           " + col1[0] + "\n"
	s += "r        restart              " + col1[1] + "\n"
	s += "←/h      previous word        " + col1[2] + "\n"
	s += "→/l      next word            " + col1[3] + "\n"
	s += "v        preview document     " + col1[4] + "\n"
	s += "?        close help           "

	if len(col1) > 5 {
		s += col1[5]
	}

	s = indent(s, 2)

	// Fill up empty cells with spaces for background coloring
	if m.common.width > 0 {
		lines := strings.Split(s, "\n")
		for i := 0; i < len(lines); i++ {
			l := runewidth.StringWidth(lines[i])
			n := max(m.common.width-l, 0)
			lines[i] += strings.Repeat(" ", n)
		}

		s = strings.Join(lines, "\n")
	}

	return helpViewStyle(s)
}

// formatDuration renders a duration as m:ss.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func (m *readerModel) initWatcher() {
	var err error
	m.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		log.Error("error creating fsnotify watcher", "error", err)
	}
}

// watchFile blocks until the open document changes on disk, then asks for
// a reload. The update loop re-issues it after every delivery.
func (m readerModel) watchFile() tea.Msg {
	if m.doc == nil || m.doc.Path == "" || m.watcher == nil {
		return nil
	}

	dir := filepath.Dir(m.doc.Path)
	if err := m.watcher.Add(dir); err != nil {
		log.Error("error adding dir to fsnotify watcher", "error", err)
		return nil
	}

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok || event.Name != m.doc.Path {
				continue
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
			return reloadMsg{}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				continue
			}
			log.Debug("fsnotify error", "dir", dir, "error", err)
		}
	}
}

func (m *readerModel) unwatchFile() {
	if m.doc == nil || m.doc.Path == "" || m.watcher == nil {
		return
	}

	dir := filepath.Dir(m.doc.Path)
	if err := m.watcher.Remove(dir); err != nil {
		log.Debug("fsnotify fail to unwatch dir", "dir", dir, "error", err)
	}
}

// COMMANDS

func loadDocument(doc *Document) tea.Cmd {
	return func() tea.Msg {
		b, err := os.ReadFile(doc.Path)
		if err != nil {
			return documentReloadedMsg{err: err}
		}
		modtime := time.Now()
		if info, err := os.Stat(doc.Path); err == nil {
			modtime = info.ModTime()
		}
		return documentReloadedMsg{
			body:    string(utils.RemoveFrontmatter(b)),
			modtime: modtime,
		}
	}
}

func saveRate(store RateStore, wpm int) tea.Cmd {
	return func() tea.Msg {
		if store == nil {
			return nil
		}
		return rateSavedMsg{err: store.SetRate(wpm)}
	}
}
