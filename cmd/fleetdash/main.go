package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"gopkg.in/yaml.v3"

	"fleetdash/internal/config"
	"fleetdash/internal/fleet"
	"fleetdash/internal/instrument"
	"fleetdash/internal/logger"
	"fleetdash/internal/site"
	"fleetdash/internal/validate"
)

// command describes a CLI subcommand.
type command struct {
	name  string
	short string
	usage string
	long  string
	run   func(args []string) error
}

var commands = []command{
	{
		name:  "init",
		short: "Create a fleetdash.yaml config interactively",
		usage: "fleetdash init [root]",
		long: `Create fleetdash.yaml at the fleet root (default ".").

Prompts for the site name and site URL; every other setting starts at
its default and can be edited in the file afterwards.

Errors if fleetdash.yaml already exists.
`,
		run: runInit,
	},
	{
		name:  "validate",
		short: "Validate instrument and event ledgers",
		usage: "fleetdash validate [root]",
		long: `Validate every YAML ledger under the configured instrument, QC, and
maintenance trees.

Prints a numbered failure report to stderr and exits non-zero when any
ledger is malformed, misplaced, or colliding.
`,
		run: runValidate,
	},
	{
		name:  "build",
		short: "Generate the dashboard document tree",
		usage: "fleetdash build [root]",
		long: `Build the full dashboard from the ledgers at the fleet root.

Validates first: in strict mode any validation failure aborts the build,
otherwise failures are reported and the build continues. Writes the page
tree to the configured output directory, copies static assets, and
rewrites mkdocs.yml at the root.
`,
		run: runBuild,
	},
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "fleetdash — microscopy fleet dashboard generator\n\n")
	fmt.Fprintf(w, "Usage:\n  fleetdash <command> [arguments]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.short)
	}
	fmt.Fprintf(w, "\nRun 'fleetdash help <command>' for details on a specific command.\n")
}

func printCommandHelp(w io.Writer, name string) {
	for _, cmd := range commands {
		if cmd.name == name {
			fmt.Fprintf(w, "Usage: %s\n\n%s", cmd.usage, cmd.long)
			return
		}
	}
	fmt.Fprintf(w, "fleetdash: unknown command %q\n\nRun 'fleetdash help' for usage.\n", name)
}

func dispatch(args []string) error {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		printUsage(os.Stdout)
		return nil
	}
	if args[0] == "help" {
		if len(args) >= 2 {
			printCommandHelp(os.Stdout, args[1])
		} else {
			printUsage(os.Stdout)
		}
		return nil
	}
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(args[1:])
		}
	}
	return fmt.Errorf("unknown command %q\n\nRun 'fleetdash help' for usage.", args[0])
}

// rootArg resolves the optional fleet-root argument.
func rootArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// ---------------------------------------------------------------------------
// init
// ---------------------------------------------------------------------------

func runInit(args []string) error {
	root := rootArg(args)
	path := filepath.Join(root, config.ConfigFilename)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	answers, err := promptQuestions([]question{
		{key: "site_name", prompt: "Site name"},
		{key: "site_url", prompt: "Site URL (optional)"},
	})
	if err != nil {
		return fmt.Errorf("prompt: %w", err)
	}

	cfg := config.Default()
	if answers["site_name"] != "" {
		cfg.SiteName = answers["site_name"]
	}
	cfg.SiteURL = answers["site_url"]

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("created %s\n", path)
	return nil
}

// ---------------------------------------------------------------------------
// validate
// ---------------------------------------------------------------------------

func runValidate(args []string) error {
	root := rootArg(args)
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	issues := validate.Run(
		cfg.Resolve(root, cfg.InstrumentsDir),
		cfg.Resolve(root, cfg.QCDir),
		cfg.Resolve(root, cfg.MaintenanceDir),
	)
	if len(issues) > 0 {
		validate.PrintReport(os.Stderr, issues)
		return fmt.Errorf("%d validation failure(s)", len(issues))
	}
	fmt.Println("Validation passed.")
	return nil
}

// ---------------------------------------------------------------------------
// build
// ---------------------------------------------------------------------------

func runBuild(args []string) error {
	root := rootArg(args)
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	instrumentsDir := cfg.Resolve(root, cfg.InstrumentsDir)
	qcDir := cfg.Resolve(root, cfg.QCDir)
	maintDir := cfg.Resolve(root, cfg.MaintenanceDir)
	outputDir := cfg.Resolve(root, cfg.OutputDir)

	issues := validate.Run(instrumentsDir, qcDir, maintDir)
	if len(issues) > 0 {
		validate.PrintReport(os.Stderr, issues)
		if cfg.Strict {
			return fmt.Errorf("strict mode: aborting build after %d validation failure(s)", len(issues))
		}
		logger.Warn().Int("issues", len(issues)).Msg("continuing build despite validation failures")
	}

	f := fleet.Assemble(instrumentsDir, fleet.Options{
		Instrument: instrument.Options{
			Strict:    cfg.Strict,
			ImagesDir: cfg.Resolve(root, cfg.ImagesDir),
		},
		QCDir:       qcDir,
		MaintDir:    maintDir,
		Now:         time.Now().UTC(),
		OverdueDays: cfg.QCOverdueDays,
	})

	// The output tree is fully regenerated on every build.
	if err := os.RemoveAll(outputDir); err != nil {
		return fmt.Errorf("clean %s: %w", outputDir, err)
	}

	bundle := site.Generate(f, cfg)
	if err := site.Write(bundle, outputDir); err != nil {
		return err
	}
	if err := site.CopyAssets(cfg.Resolve(root, cfg.AssetsDir), outputDir); err != nil {
		return fmt.Errorf("copy assets: %w", err)
	}
	if err := site.WriteMkDocsConfig(site.BuildMkDocsConfig(f, cfg), filepath.Join(root, "mkdocs.yml")); err != nil {
		return err
	}

	logger.Info().
		Int("instruments", len(f.Instruments)).
		Int("pages", len(bundle.Pages())).
		Int("load_errors", len(f.LoadErrors)).
		Str("output", outputDir).
		Msg("dashboard built")
	return nil
}

// ---------------------------------------------------------------------------
// TUI prompt helpers
// ---------------------------------------------------------------------------

// question is one prompt asked during init.
type question struct {
	key    string
	prompt string
}

// promptModel is a bubbletea model that asks one question at a time.
type promptModel struct {
	questions []question
	idx       int
	inputs    []textinput.Model
	done      bool
}

func newPromptModel(questions []question) promptModel {
	inputs := make([]textinput.Model, len(questions))
	for i, q := range questions {
		ti := textinput.New()
		ti.Placeholder = q.prompt
		ti.CharLimit = 512
		inputs[i] = ti
	}
	m := promptModel{
		questions: questions,
		inputs:    inputs,
	}
	if len(inputs) > 0 {
		m.inputs[0].Focus()
	}
	return m
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.idx < len(m.inputs)-1 {
				m.inputs[m.idx].Blur()
				m.idx++
				m.inputs[m.idx].Focus()
				return m, textinput.Blink
			}
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.inputs[m.idx], cmd = m.inputs[m.idx].Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.done || len(m.questions) == 0 {
		return ""
	}
	q := m.questions[m.idx]
	return fmt.Sprintf("%s: %s\n", q.prompt, m.inputs[m.idx].View())
}

// promptQuestions runs the TUI and returns answers keyed by question.key.
func promptQuestions(questions []question) (map[string]string, error) {
	if len(questions) == 0 {
		return map[string]string{}, nil
	}
	m := newPromptModel(questions)
	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return nil, err
	}
	final, ok := result.(promptModel)
	if !ok || !final.done {
		return nil, fmt.Errorf("prompt cancelled")
	}
	answers := make(map[string]string, len(questions))
	for i, q := range questions {
		answers[q.key] = final.inputs[i].Value()
	}
	return answers, nil
}

func main() {
	var logCfg logger.Config
	if err := env.Parse(&logCfg); err != nil {
		fmt.Fprintln(os.Stderr, "fleetdash:", err)
		os.Exit(1)
	}
	if err := logger.Init(logCfg); err != nil {
		fmt.Fprintln(os.Stderr, "fleetdash:", err)
		os.Exit(1)
	}
	if err := dispatch(os.Args[1:]); err != nil {
		logger.Fatal().Msg(err.Error())
	}
}
