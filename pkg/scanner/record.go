package scanner

import "github.com/entrhq/formpilot/pkg/dom"

// FieldRecord is one detected form control.
type FieldRecord struct {
	// Handle identifies the element in the scanned document. The scanner
	// never holds the element itself.
	Handle dom.Handle `json:"-" yaml:"-"`

	Label       string    `json:"label" yaml:"label"`
	Type        FieldType `json:"type" yaml:"type"`
	Required    bool      `json:"required" yaml:"required"`
	Placeholder string    `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`

	// MaxLength is 0 when the control declares no limit.
	MaxLength int `json:"maxLength,omitempty" yaml:"max_length,omitempty"`

	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`

	// Group is the legend of the enclosing fieldset. Radio buttons without
	// one carry their humanized name.
	Group string `json:"group,omitempty" yaml:"group,omitempty"`

	// Options lists the visible choices of a select or radio group.
	Options []string `json:"options,omitempty" yaml:"options,omitempty"`
}

// HasMaxLength reports whether a length limit was detected.
func (r FieldRecord) HasMaxLength() bool {
	return r.MaxLength > 0
}
