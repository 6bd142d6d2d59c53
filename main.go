// Package main provides the entry point for the Flit CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/gitcha"
	gap "github.com/muesli/go-app-paths"
	"github.com/muesli/reflow/ansi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/flitreader/flit/rsvp"
	"github.com/flitreader/flit/rsvp/segment"
	"github.com/flitreader/flit/ui"
	"github.com/flitreader/flit/utils"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	readmeNames        = []string{"README.md", "README", "Readme.md", "Readme", "readme.md", "readme"}
	markdownExtensions = []string{"*.md", "*.mdown", "*.mkdn", "*.mkd", "*.markdown"}

	configFile       string
	pace             bool
	plain            bool
	raw              bool
	style            string
	width            uint
	wpm              int
	showLineNumbers  bool
	preserveNewLines bool
	mouse            bool
	isTerminal       bool

	rootCmd = &cobra.Command{
		Use:   "flit [SOURCE|DIR]",
		Short: "Speed-read markdown on the CLI, one word at a time",
		Long: paragraph(
			fmt.Sprintf("\nSpeed-read markdown on the CLI, %s!", keyword("one word at a time")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveDefault
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

// source provides a readable markdown source.
type source struct {
	reader io.ReadCloser
	URL    string
}

// sourceFromArg parses an argument and creates a readable source for it.
func sourceFromArg(arg string) (*source, error) {
	// from stdin
	if arg == "-" {
		return &source{reader: os.Stdin}, nil
	}

	// a GitHub or GitLab URL (even without the protocol):
	src, err := readmeURL(arg)
	if src != nil && err == nil {
		// if there's an error, try next methods...
		return src, nil
	}

	// HTTP(S) URLs:
	if src, err := fetchURL(arg); src != nil || err != nil {
		return src, err
	}

	// a directory:
	if len(arg) == 0 {
		// use the current working dir if no argument was supplied
		arg = "."
	}
	st, err := os.Stat(arg)
	if err == nil && st.IsDir() {
		if src := findInDir(arg); src != nil {
			return src, nil
		}
		return nil, errors.New("missing markdown source")
	}

	r, err := os.Open(arg)
	if err != nil {
		return nil, fmt.Errorf("unable to open file: %w", err)
	}
	u, err := filepath.Abs(arg)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path: %w", err)
	}
	return &source{r, u}, nil
}

// findInDir looks for something readable in a directory: a readme first,
// then any markdown file in the tree.
func findInDir(dir string) *source {
	var src *source
	_ = filepath.Walk(dir, func(path string, _ os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		for _, v := range readmeNames {
			if strings.EqualFold(filepath.Base(path), v) {
				r, err := os.Open(path)
				if err != nil {
					continue
				}

				u, _ := filepath.Abs(path)
				src = &source{r, u}

				// abort filepath.Walk
				return errors.New("source found")
			}
		}
		return nil
	})
	if src != nil {
		return src
	}

	// No readme. Take the first markdown file the tree offers, honoring
	// .gitignore rules.
	ch, err := gitcha.FindFilesExcept(dir, markdownExtensions, nil)
	if err != nil {
		return nil
	}
	for res := range ch {
		r, err := os.Open(res.Path)
		if err != nil {
			continue
		}
		u, _ := filepath.Abs(res.Path)
		return &source{r, u}
	}
	return nil
}

// validateStyle checks if the style is a default style, if not, checks that
// the custom style exists.
func validateStyle(style string) error {
	if style != "auto" && styles.DefaultStyles[style] == nil {
		style = utils.ExpandPath(style)
		if _, err := os.Stat(style); errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("specified style does not exist: %s", style)
		} else if err != nil {
			return fmt.Errorf("unable to stat file: %w", err)
		}
	}
	return nil
}

func validateOptions(cmd *cobra.Command) error {
	// grab config values from Viper
	width = viper.GetUint("width")
	wpm = viper.GetInt("wpm")
	mouse = viper.GetBool("mouse")
	pace = viper.GetBool("pace")
	plain = viper.GetBool("plain")
	raw = viper.GetBool("raw")
	preserveNewLines = viper.GetBool("preserveNewLines")
	showLineNumbers = viper.GetBool("showLineNumbers")

	if wpm < 1 {
		return fmt.Errorf("words per minute must be a positive number, got %d", wpm)
	}
	if pace && plain {
		return errors.New("cannot use both pace and plain")
	}

	// validate the glamour style
	style = viper.GetString("style")
	if err := validateStyle(style); err != nil {
		return err
	}

	isTerminal = term.IsTerminal(int(os.Stdout.Fd()))
	// We want to use a special no-TTY style, when stdout is not a terminal
	// and there was no specific style passed by arg
	if !isTerminal && !cmd.Flags().Changed("style") {
		style = "notty"
	}

	// Detect terminal width
	if !cmd.Flags().Changed("width") { //nolint:nestif
		if isTerminal && width == 0 {
			w, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err == nil {
				width = uint(w) //nolint:gosec
			}

			if width > 120 {
				width = 120
			}
		}
		if width == 0 {
			width = 80
		}
	}
	return nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

func execute(cmd *cobra.Command, args []string) error {
	// if stdin is a pipe then use stdin for input. note that you can also
	// explicitly use a - to read from stdin. piped input can't drive the
	// TUI, so it gets the CLI treatment.
	if yes, err := stdinIsPipe(); err != nil {
		return err
	} else if yes {
		src := &source{reader: os.Stdin}
		defer src.reader.Close() //nolint:errcheck
		return executeCLI(cmd, src, os.Stdout)
	}

	switch len(args) {
	// TUI starting on the text input screen
	case 0:
		if !isTerminal {
			return errors.New("missing markdown source")
		}
		return runTUI(nil)

	default:
		for _, arg := range args {
			if err := executeArg(cmd, arg, os.Stdout); err != nil {
				return err
			}
		}
	}

	return nil
}

func executeArg(cmd *cobra.Command, arg string, w io.Writer) error {
	// create an io.Reader from the markdown source in cli-args
	src, err := sourceFromArg(arg)
	if err != nil {
		return err
	}
	defer src.reader.Close() //nolint:errcheck

	// A terminal gets the reader unless a CLI output mode was asked for.
	if isTerminal && !pace && !plain {
		doc, err := documentFromSource(src)
		if err != nil {
			return err
		}
		return runTUI(doc)
	}
	return executeCLI(cmd, src, w)
}

func executeCLI(cmd *cobra.Command, src *source, w io.Writer) error {
	b, err := io.ReadAll(src.reader)
	if err != nil {
		return fmt.Errorf("unable to read from reader: %w", err)
	}

	b = utils.RemoveFrontmatter(b)

	switch {
	case plain || cmd.Flags().Changed("plain"):
		return executePlain(src, b, w)
	case pace || cmd.Flags().Changed("pace"):
		return executePaced(src, b, w)
	default:
		return executeRender(src, b, w)
	}
}

// executePlain prints the segmented words one per line, the focus rune
// bracketed, plus a reading estimate when stdout is a terminal.
func executePlain(src *source, b []byte, w io.Writer) error {
	words := segment.Words(flattenSource(src, b))
	for _, word := range words {
		before, focus, after := word.Split()
		if _, err := fmt.Fprintf(w, "%s[%s]%s\n", before, focus, after); err != nil {
			return fmt.Errorf("unable to write to writer: %w", err)
		}
	}

	if isTerminal && len(words) > 0 {
		d := words.Duration(wpm).Round(time.Second)
		if _, err := fmt.Fprintf(w, "\n%s words, about %d:%02d at %d wpm\n",
			humanize.Comma(int64(len(words))),
			int(d.Minutes()), int(d.Seconds())%60, wpm,
		); err != nil {
			return fmt.Errorf("unable to write to writer: %w", err)
		}
	}
	return nil
}

const pacedFocusColumn = 12

var (
	pacedFocusStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#EE6FF8"))
	pacedStatsStyle = lipgloss.NewStyle().Faint(true)
)

// executePaced plays the document word by word on the terminal at the
// configured rate, without entering the TUI. Ctrl-C stops playback.
func executePaced(src *source, b []byte, w io.Writer) error {
	words := segment.Words(flattenSource(src, b))

	sched := rsvp.NewTimerScheduler()
	defer sched.Cancel()
	pacer, err := rsvp.NewPacer(sched, wpm)
	if err != nil {
		return err
	}
	if err := pacer.Load(words); err != nil {
		return fmt.Errorf("nothing to read: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := pacer.Start(); err != nil {
		return err
	}

	var lastWidth int
	printFrame := func(f rsvp.Frame) {
		before, focus, after := f.Word.Split()
		pad := strings.Repeat(" ", max(pacedFocusColumn-runewidth.StringWidth(before), 0))
		line := pad + before + pacedFocusStyle.Render(focus) + after +
			pacedStatsStyle.Render(fmt.Sprintf("  %3.0f%%", f.Progress))
		lineWidth := ansi.PrintableRuneWidth(line)
		clear := strings.Repeat(" ", max(lastWidth-lineWidth, 0))
		fmt.Fprintf(w, "\r%s%s", line, clear)
		lastWidth = lineWidth
	}

	printFrame(pacer.Frame())

	for pacer.Mode() == rsvp.ModeRunning {
		select {
		case <-ctx.Done():
			fmt.Fprintln(w)
			return nil
		case <-sched.C():
			pacer.Tick()
			if pacer.Mode() == rsvp.ModeRunning {
				printFrame(pacer.Frame())
			}
		}
	}

	fmt.Fprintln(w)
	return nil
}

// executeRender renders the document the pretty way and prints it.
func executeRender(src *source, b []byte, w io.Writer) error {
	// render
	baseURL := sourceBaseURL(src.URL)
	isCode := src.URL != "" && !utils.IsMarkdownFile(src.URL)

	// initialize glamour
	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		utils.GlamourStyle(style, isCode),
		glamour.WithWordWrap(int(width)), //nolint:gosec
		glamour.WithBaseURL(baseURL),
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		return fmt.Errorf("unable to create renderer: %w", err)
	}

	content := string(b)
	if isCode {
		content = utils.WrapCodeBlock(content, filepath.Ext(src.URL))
	}

	out, err := r.Render(content)
	if err != nil {
		return fmt.Errorf("unable to render markdown: %w", err)
	}

	if _, err = fmt.Fprint(w, out); err != nil {
		return fmt.Errorf("unable to write to writer: %w", err)
	}
	return nil
}

// flattenSource reduces a source's contents to plain prose. Markdown is
// flattened through its syntax tree; source code and raw mode leave the
// bytes alone.
func flattenSource(src *source, b []byte) string {
	if raw {
		return string(b)
	}
	if src.URL != "" && !utils.IsMarkdownFile(src.URL) && !isURL(src.URL) {
		return string(b)
	}
	return utils.Plaintext(b)
}

// documentFromSource reads a source into the document the reader plays.
func documentFromSource(src *source) (*ui.Document, error) {
	b, err := io.ReadAll(src.reader)
	if err != nil {
		return nil, fmt.Errorf("unable to read from reader: %w", err)
	}

	doc := &ui.Document{
		Body: string(utils.RemoveFrontmatter(b)),
	}

	switch {
	case src.URL == "":
		doc.Note = "stdin"
	case isURL(src.URL):
		doc.Note = src.URL
	default:
		doc.Path = src.URL
		cwd, _ := os.Getwd()
		doc.Note = stripAbsolutePath(src.URL, cwd)
		if info, err := os.Stat(src.URL); err == nil {
			doc.Modtime = info.ModTime()
		}
	}

	return doc, nil
}

func stripAbsolutePath(fullPath, cwd string) string {
	fp, _ := filepath.EvalSymlinks(fullPath)
	cp, _ := filepath.EvalSymlinks(cwd)
	return strings.ReplaceAll(fp, cp+string(os.PathSeparator), "")
}

func runTUI(doc *ui.Document) error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	// use style set in env, or auto if unset
	if err := validateStyle(cfg.GlamourStyle); err != nil {
		cfg.GlamourStyle = style
	}

	cfg.ShowLineNumbers = showLineNumbers
	cfg.GlamourMaxWidth = width
	cfg.EnableMouse = mouse
	cfg.PreserveNewLines = preserveNewLines
	cfg.Raw = raw
	cfg.Rate = wpm
	cfg.RateStore = viperRateStore{}

	// Run Bubble Tea program
	if _, err := ui.NewProgram(cfg, doc).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}

	return nil
}

// viperRateStore persists rate changes made inside the reader back to the
// config file.
type viperRateStore struct{}

func (viperRateStore) SetRate(wpm int) error {
	viper.Set("wpm", wpm)
	if err := ensureConfigFile(); err != nil {
		return err
	}
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("unable to write config: %w", err)
	}
	return nil
}

func setupLog() (func() error, error) {
	// Log to file, if set
	if logFile := os.Getenv("FLIT_LOGFILE"); logFile != "" {
		f, err := tea.LogToFile(logFile, "flit")
		if err != nil {
			return nil, fmt.Errorf("error setting up logging: %w", err)
		}
		log.SetOutput(f)
		log.SetLevel(log.DebugLevel)
		return f.Close, nil
	}
	log.SetOutput(io.Discard)
	return func() error { return nil }, nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.Flags().BoolVarP(&pace, "pace", "p", false, "pace words on the terminal without the TUI")
	rootCmd.Flags().BoolVar(&plain, "plain", false, "print the segmented words and exit")
	rootCmd.Flags().BoolVar(&raw, "raw", false, "skip markdown extraction and read the source as is")
	rootCmd.Flags().StringVarP(&style, "style", "s", styles.AutoStyle, "style name or JSON path")
	rootCmd.Flags().UintVar(&width, "width", 0, "word-wrap at width (set to 0 to disable)")
	rootCmd.Flags().IntVarP(&wpm, "wpm", "w", 0, "reading rate in words per minute")
	rootCmd.Flags().BoolVarP(&showLineNumbers, "line-numbers", "l", false, "show line numbers in code previews (TUI-mode only)")
	rootCmd.Flags().BoolVarP(&preserveNewLines, "preserve-new-lines", "n", false, "preserve newlines in the output")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse wheel (TUI-mode only)")
	_ = rootCmd.Flags().MarkHidden("mouse")

	// Config bindings
	_ = viper.BindPFlag("pace", rootCmd.Flags().Lookup("pace"))
	_ = viper.BindPFlag("plain", rootCmd.Flags().Lookup("plain"))
	_ = viper.BindPFlag("raw", rootCmd.Flags().Lookup("raw"))
	_ = viper.BindPFlag("style", rootCmd.Flags().Lookup("style"))
	_ = viper.BindPFlag("width", rootCmd.Flags().Lookup("width"))
	_ = viper.BindPFlag("wpm", rootCmd.Flags().Lookup("wpm"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))
	_ = viper.BindPFlag("preserveNewLines", rootCmd.Flags().Lookup("preserve-new-lines"))
	_ = viper.BindPFlag("showLineNumbers", rootCmd.Flags().Lookup("line-numbers"))

	viper.SetDefault("style", styles.AutoStyle)
	viper.SetDefault("width", 0)
	viper.SetDefault("wpm", ui.DefaultRate)

	rootCmd.AddCommand(configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "flit")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "flit")}, dirs...)
	}

	if c := os.Getenv("FLIT_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("flit")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("flit")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "flit.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
