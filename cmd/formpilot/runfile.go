package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RunFile describes one fill run. Flags given on the command line override it.
type RunFile struct {
	// Exactly one source: a local HTML file or a live URL.
	HTML string `yaml:"html" json:"html"`
	URL  string `yaml:"url" json:"url"`

	// Answers is a JSON or YAML answers file. Suggest asks the LLM instead,
	// using the profile text in Profile.
	Answers string `yaml:"answers" json:"answers"`
	Suggest bool   `yaml:"suggest" json:"suggest"`
	Profile string `yaml:"profile" json:"profile"`

	// Instructions are passed to the model ahead of its system prompt.
	Instructions string `yaml:"instructions" json:"instructions"`

	// Output receives the filled HTML. Empty means stdout.
	Output   string `yaml:"output" json:"output"`
	ScanOnly bool   `yaml:"scan_only" json:"scan_only"`
	Headless bool   `yaml:"headless" json:"headless"`

	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// DefaultRunFile returns the settings used when no run file is given.
func DefaultRunFile() *RunFile {
	return &RunFile{
		Headless: true,
		Timeout:  2 * time.Minute,
	}
}

// Validate validates the run settings.
func (r *RunFile) Validate() error {
	switch {
	case r.HTML == "" && r.URL == "":
		return fmt.Errorf("a form source is required (html or url)")
	case r.HTML != "" && r.URL != "":
		return fmt.Errorf("html and url are mutually exclusive")
	}

	if r.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}

	if r.ScanOnly {
		return nil
	}
	if r.Answers == "" && !r.Suggest {
		return fmt.Errorf("answers file or suggest is required unless scan_only is set")
	}
	if r.Answers != "" && r.Suggest {
		return fmt.Errorf("answers and suggest are mutually exclusive")
	}
	if r.Suggest && r.Profile == "" {
		return fmt.Errorf("suggest requires a profile file")
	}
	if r.URL != "" && r.Output != "" {
		return fmt.Errorf("output only applies to html sources; url runs fill the live page")
	}
	return nil
}

// loadRunFile reads a YAML run file over the defaults.
func loadRunFile(path string) (*RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run file: %w", err)
	}

	run := DefaultRunFile()
	if err := yaml.Unmarshal(data, run); err != nil {
		return nil, fmt.Errorf("failed to parse run file: %w", err)
	}
	return run, nil
}

// merge applies non-zero CLI values on top of r.
func (r *RunFile) merge(cli *CLIConfig, set map[string]bool) {
	if cli.HTML != "" {
		r.HTML = cli.HTML
	}
	if cli.URL != "" {
		r.URL = cli.URL
	}
	if cli.Answers != "" {
		r.Answers = cli.Answers
	}
	if cli.Profile != "" {
		r.Profile = cli.Profile
	}
	if cli.Output != "" {
		r.Output = cli.Output
	}
	if set["suggest"] {
		r.Suggest = cli.Suggest
	}
	if set["scan-only"] {
		r.ScanOnly = cli.ScanOnly
	}
	if set["headless"] {
		r.Headless = cli.Headless
	}
	if set["timeout"] {
		r.Timeout = cli.Timeout
	}
}
