package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/formpilot/pkg/inject"
)

// SectionIDInjection is the identifier for the injection section
const SectionIDInjection = "injection"

// InjectionSection controls how answers are written into fields.
type InjectionSection struct {
	SettleDelay       time.Duration
	Highlight         bool
	HighlightDuration time.Duration

	// MinConfidence skips answers below it. Zero disables the check.
	MinConfidence float64

	mu sync.RWMutex
}

// NewInjectionSection creates an injection section with default settings.
func NewInjectionSection() *InjectionSection {
	s := &InjectionSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *InjectionSection) ID() string {
	return SectionIDInjection
}

// Title returns the section title.
func (s *InjectionSection) Title() string {
	return "Injection"
}

// Description returns the section description.
func (s *InjectionSection) Description() string {
	return "Settle delay, highlighting and confidence cut-off"
}

// Data returns the current configuration data. Durations are stored as strings.
func (s *InjectionSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{
		"settle_delay":       s.SettleDelay.String(),
		"highlight":          s.Highlight,
		"highlight_duration": s.HighlightDuration.String(),
		"min_confidence":     s.MinConfidence,
	}
}

// SetData updates the configuration from the provided data.
func (s *InjectionSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := data["settle_delay"]; ok {
		d, err := durationValue(v)
		if err != nil {
			return fmt.Errorf("settle_delay: %w", err)
		}
		s.SettleDelay = d
	}
	if v, ok := data["highlight"].(bool); ok {
		s.Highlight = v
	}
	if v, ok := data["highlight_duration"]; ok {
		d, err := durationValue(v)
		if err != nil {
			return fmt.Errorf("highlight_duration: %w", err)
		}
		s.HighlightDuration = d
	}
	if v, ok := data["min_confidence"]; ok {
		f, ok := floatValue(v)
		if !ok {
			return fmt.Errorf("min_confidence must be a number")
		}
		s.MinConfidence = f
	}
	return nil
}

// Validate validates the current configuration.
func (s *InjectionSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.SettleDelay < 0 {
		return fmt.Errorf("settle_delay cannot be negative")
	}
	if s.HighlightDuration < 0 {
		return fmt.Errorf("highlight_duration cannot be negative")
	}
	if s.MinConfidence < 0 || s.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be between 0 and 1, got %g", s.MinConfidence)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *InjectionSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SettleDelay = inject.DefaultSettleDelay
	s.Highlight = true
	s.HighlightDuration = inject.DefaultHighlightDuration
	s.MinConfidence = 0
}

// Snapshot returns a copy of the settings safe to read without locking.
func (s *InjectionSection) Snapshot() InjectionSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return InjectionSettings{
		SettleDelay:       s.SettleDelay,
		Highlight:         s.Highlight,
		HighlightDuration: s.HighlightDuration,
		MinConfidence:     s.MinConfidence,
	}
}

// InjectionSettings is a lock-free copy of InjectionSection.
type InjectionSettings struct {
	SettleDelay       time.Duration
	Highlight         bool
	HighlightDuration time.Duration
	MinConfidence     float64
}
