// Package main provides the formpilot CLI. It scans a form from a local
// HTML file or a live page, matches answers to the detected fields and
// writes them in with the events page scripts expect.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/entrhq/formpilot/pkg/answers"
	"github.com/entrhq/formpilot/pkg/browser"
	appconfig "github.com/entrhq/formpilot/pkg/config"
	"github.com/entrhq/formpilot/pkg/dom"
	"github.com/entrhq/formpilot/pkg/formpilot"
	"github.com/entrhq/formpilot/pkg/inject"
	"github.com/entrhq/formpilot/pkg/llm/openai"
	"github.com/entrhq/formpilot/pkg/llm/tokenizer"
	"github.com/entrhq/formpilot/pkg/logging"
	"github.com/entrhq/formpilot/pkg/scanner"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	HTML        string
	URL         string
	Answers     string
	Suggest     bool
	Profile     string
	RunFile     string
	Output      string
	ScanOnly    bool
	ConfigFile  string
	Model       string
	BaseURL     string
	APIKey      string
	Headless    bool
	Timeout     time.Duration
	ShowVersion bool
}

func main() {
	// .env is optional; missing files are not an error.
	_ = godotenv.Load()

	cli, set := parseFlags()
	if cli.ShowVersion {
		fmt.Printf("formpilot v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nShutting down...")
		cancel()
	}()

	if err := run(ctx, cli, set); err != nil {
		cancel()
		log.Printf("formpilot: %v", err)
		os.Exit(1)
	}
	cancel()
}

func parseFlags() (*CLIConfig, map[string]bool) {
	cli := &CLIConfig{}

	flag.StringVar(&cli.HTML, "html", "", "Path to an HTML file containing the form")
	flag.StringVar(&cli.URL, "url", "", "URL of a live page to fill in a browser")
	flag.StringVar(&cli.Answers, "answers", "", "Answers file (.json, .yaml or .yml)")
	flag.BoolVar(&cli.Suggest, "suggest", false, "Ask the LLM to suggest answers from -profile")
	flag.StringVar(&cli.Profile, "profile", "", "Profile text file used with -suggest")
	flag.StringVar(&cli.RunFile, "run", "", "Run file (YAML) with the options above")
	flag.StringVar(&cli.Output, "out", "", "Write the filled HTML here instead of stdout")
	flag.BoolVar(&cli.ScanOnly, "scan-only", false, "Print the detected field catalog and exit")
	flag.StringVar(&cli.ConfigFile, "config", "", "Config file (default ~/.formpilot/config.json)")
	flag.StringVar(&cli.Model, "model", openai.DefaultModel, "LLM model used with -suggest")
	flag.StringVar(&cli.BaseURL, "base-url", "", "OpenAI-compatible API base URL (or set OPENAI_BASE_URL)")
	flag.StringVar(&cli.APIKey, "api-key", "", "API key (or set OPENAI_API_KEY)")
	flag.BoolVar(&cli.Headless, "headless", true, "Run the browser without a window for -url")
	flag.DurationVar(&cli.Timeout, "timeout", 0, "Overall run timeout (0 keeps the run file value)")
	flag.BoolVar(&cli.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "formpilot - detect and fill web forms\n\n")
		fmt.Fprintf(os.Stderr, "Usage: formpilot [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  formpilot -html signup.html -scan-only\n")
		fmt.Fprintf(os.Stderr, "  formpilot -html signup.html -answers answers.yaml -out filled.html\n")
		fmt.Fprintf(os.Stderr, "  formpilot -url https://example.com/apply -suggest -profile me.txt -headless=false\n")
		fmt.Fprintf(os.Stderr, "  formpilot -run contact.yaml\n")
	}

	flag.Parse()

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return cli, set
}

func resolveRun(cli *CLIConfig, set map[string]bool) (*RunFile, error) {
	runFile := DefaultRunFile()
	if cli.RunFile != "" {
		loaded, err := loadRunFile(cli.RunFile)
		if err != nil {
			return nil, err
		}
		runFile = loaded
	}
	runFile.merge(cli, set)
	if err := runFile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run configuration: %w", err)
	}
	return runFile, nil
}

func run(ctx context.Context, cli *CLIConfig, set map[string]bool) error {
	runFile, err := resolveRun(cli, set)
	if err != nil {
		return err
	}
	if runFile.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runFile.Timeout)
		defer cancel()
	}

	if err := appconfig.Initialize(cli.ConfigFile); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	// NewLogger falls back to stderr when the log directory is unusable.
	logger, err := logging.NewLogger("formpilot")
	if err != nil {
		log.Printf("logging to stderr: %v", err)
	}
	defer logger.Close()

	opts, err := engineOptions(logger)
	if err != nil {
		return err
	}

	if runFile.URL != "" {
		return runLive(ctx, cli, runFile, opts)
	}

	doc, err := loadHTML(runFile.HTML)
	if err != nil {
		return err
	}
	engine := formpilot.New(doc, opts)
	fields := engine.Scan()
	logger.Infof("scanned %s: %d fields", runFile.HTML, len(fields))

	if runFile.ScanOnly {
		return printCatalog(os.Stdout, fields)
	}

	result, err := fill(ctx, cli, runFile, engine, logger)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, renderSummary(result))

	out := io.Writer(os.Stdout)
	if runFile.Output != "" {
		f, err := os.Create(runFile.Output)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	return doc.Render(out)
}

func runLive(ctx context.Context, cli *CLIConfig, runFile *RunFile, opts formpilot.Options) error {
	mgr := browser.NewSessionManager()
	if err := mgr.Initialize(); err != nil {
		return err
	}
	defer mgr.Shutdown()

	session, err := mgr.StartSession("formpilot", browser.SessionOptions{Headless: runFile.Headless})
	if err != nil {
		return err
	}
	if err := session.Navigate(runFile.URL, browser.NavigateOptions{WaitUntil: "load"}); err != nil {
		return err
	}

	doc, err := session.Snapshot()
	if err != nil {
		return err
	}
	engine := formpilot.New(doc, opts)
	fields := engine.Scan()
	opts.Logger.Infof("scanned %s: %d fields", session.CurrentURL, len(fields))

	if runFile.ScanOnly {
		return printCatalog(os.Stdout, fields)
	}

	result, err := fill(ctx, cli, runFile, engine, opts.Logger)
	if err != nil {
		return err
	}

	applied, err := session.Apply(doc, engine.Session().Entries())
	if err != nil {
		return err
	}
	for _, r := range browser.Failed(applied) {
		opts.Logger.Warnf("live page write failed: %s", r)
	}
	fmt.Fprintln(os.Stderr, renderSummary(result))
	return nil
}

// engineOptions maps the global config sections onto engine options.
func engineOptions(logger *logging.Logger) (formpilot.Options, error) {
	opts := formpilot.Options{Logger: logger}

	if det := appconfig.GetDetection(); det != nil {
		deny, err := det.Denylist()
		if err != nil {
			return opts, fmt.Errorf("detection config: %w", err)
		}
		opts.Denylist = deny
		opts.Labels = det.LabelResolver()
	}
	if inj := appconfig.GetInjection(); inj != nil {
		settings := inj.Snapshot()
		opts.SettleDelay = settings.SettleDelay
		opts.DisableHighlight = !settings.Highlight
		opts.HighlightDuration = settings.HighlightDuration
		opts.MinConfidence = settings.MinConfidence
	}
	opts.Notifier = inject.NotifierFunc(func(s inject.Summary) {
		logger.Infof("%s", s.Message)
	})
	return opts, nil
}

func fill(ctx context.Context, cli *CLIConfig, runFile *RunFile, engine *formpilot.Engine, logger *logging.Logger) (inject.Result, error) {
	list, err := loadAnswers(ctx, cli, runFile, engine.Fields(), logger)
	if err != nil {
		return inject.Result{}, err
	}

	result, err := engine.InjectAnswers(ctx, list, nil)
	if err != nil {
		return result, err
	}
	// Let highlight reverts run so the rendered output is clean.
	if err := engine.Settle(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return result, err
	}
	return result, nil
}

func loadAnswers(ctx context.Context, cli *CLIConfig, runFile *RunFile, fields []scanner.FieldRecord, logger *logging.Logger) ([]answers.Answer, error) {
	if runFile.Answers != "" {
		format, err := answers.FormatFromPath(runFile.Answers)
		if err != nil {
			return nil, err
		}
		f, err := os.Open(runFile.Answers)
		if err != nil {
			return nil, fmt.Errorf("failed to open answers: %w", err)
		}
		defer f.Close()
		return answers.Load(f, format)
	}

	profile, err := os.ReadFile(runFile.Profile)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	provider, err := appconfig.BuildProvider(cli.Model, cli.BaseURL, cli.APIKey, openai.DefaultModel)
	if err != nil {
		return nil, err
	}

	suggestOpts := []answers.SuggesterOption{
		answers.WithLogger(logger.Named("suggest")),
		answers.WithInstructions(runFile.Instructions),
	}
	if tok, err := tokenizer.New(); err == nil {
		suggestOpts = append(suggestOpts, answers.WithTokenizer(tok))
	} else {
		logger.Warnf("tokenizer unavailable, using estimates: %v", err)
	}
	return answers.NewSuggester(provider, suggestOpts...).Suggest(ctx, fields, string(profile))
}

func loadHTML(path string) (*dom.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open html: %w", err)
	}
	defer f.Close()
	return dom.Parse(f)
}

// printCatalog writes the detected fields as YAML.
func printCatalog(w io.Writer, fields []scanner.FieldRecord) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(answers.PromptFields(fields)); err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return enc.Close()
}
