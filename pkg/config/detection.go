package config

import (
	"fmt"
	"sync"

	"github.com/entrhq/formpilot/pkg/scanner"
)

// SectionIDDetection is the identifier for the field detection section
const SectionIDDetection = "detection"

// DetectionSection tunes which controls are scanned and how labels are found.
type DetectionSection struct {
	// ExtraDenylist holds glob patterns excluded on top of the system tokens.
	ExtraDenylist      []string
	NearbyTextMaxChars int
	ParentTextMaxWords int
	mu                 sync.RWMutex
}

// NewDetectionSection creates a detection section with the scanner defaults.
func NewDetectionSection() *DetectionSection {
	s := &DetectionSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *DetectionSection) ID() string {
	return SectionIDDetection
}

// Title returns the section title.
func (s *DetectionSection) Title() string {
	return "Field Detection"
}

// Description returns the section description.
func (s *DetectionSection) Description() string {
	return "Denylist patterns and label search bounds"
}

// Data returns the current configuration data.
func (s *DetectionSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{
		"extra_denylist":        append([]string{}, s.ExtraDenylist...),
		"nearby_text_max_chars": s.NearbyTextMaxChars,
		"parent_text_max_words": s.ParentTextMaxWords,
	}
}

// SetData updates the configuration from the provided data.
func (s *DetectionSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := data["extra_denylist"]; ok {
		patterns, ok := stringsValue(v)
		if !ok {
			return fmt.Errorf("extra_denylist must be a list of strings")
		}
		s.ExtraDenylist = patterns
	}
	if v, ok := data["nearby_text_max_chars"]; ok {
		n, ok := intValue(v)
		if !ok {
			return fmt.Errorf("nearby_text_max_chars must be a number")
		}
		s.NearbyTextMaxChars = n
	}
	if v, ok := data["parent_text_max_words"]; ok {
		n, ok := intValue(v)
		if !ok {
			return fmt.Errorf("parent_text_max_words must be a number")
		}
		s.ParentTextMaxWords = n
	}
	return nil
}

// Validate checks the bounds and compiles every pattern.
func (s *DetectionSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.NearbyTextMaxChars <= 0 {
		return fmt.Errorf("nearby_text_max_chars must be positive, got %d", s.NearbyTextMaxChars)
	}
	if s.ParentTextMaxWords <= 0 {
		return fmt.Errorf("parent_text_max_words must be positive, got %d", s.ParentTextMaxWords)
	}
	if _, err := scanner.NewDenylist(s.ExtraDenylist...); err != nil {
		return err
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *DetectionSection) Reset() {
	defaults := scanner.NewLabelResolver()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ExtraDenylist = nil
	s.NearbyTextMaxChars = defaults.NearbyMaxChars
	s.ParentTextMaxWords = defaults.ParentMaxWords
}

// Denylist compiles the configured patterns.
func (s *DetectionSection) Denylist() (*scanner.Denylist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanner.NewDenylist(s.ExtraDenylist...)
}

// LabelResolver returns a resolver using the configured bounds.
func (s *DetectionSection) LabelResolver() *scanner.LabelResolver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r := scanner.NewLabelResolver()
	if s.NearbyTextMaxChars > 0 {
		r.NearbyMaxChars = s.NearbyTextMaxChars
	}
	if s.ParentTextMaxWords > 0 {
		r.ParentMaxWords = s.ParentTextMaxWords
	}
	return r
}
