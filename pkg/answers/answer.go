// Package answers loads, parses and suggests the answers the engine writes
// into form fields.
package answers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Answer is one suggested value for a field. FieldLabel is free text that
// only loosely resembles the catalog label it is meant for.
type Answer struct {
	FieldLabel string  `json:"fieldLabel" yaml:"field_label"`
	FieldType  string  `json:"fieldType,omitempty" yaml:"field_type,omitempty"`
	Answer     string  `json:"answer" yaml:"answer"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// Format is an answers file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned for file extensions Load does not handle.
var ErrUnknownFormat = errors.New("unknown answers format")

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Load decodes a list of answers. Both a bare list and an object with an
// "answers" key are accepted.
func Load(r io.Reader, format Format) ([]Answer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read answers: %w", err)
	}

	var list []Answer
	switch format {
	case FormatJSON:
		list, err = decodeJSON(data)
	case FormatYAML:
		list, err = decodeYAML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, err
	}
	return clean(list), nil
}

func decodeJSON(data []byte) ([]Answer, error) {
	var list []Answer
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var doc struct {
		Answers []Answer `json:"answers"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse answers JSON: %w", err)
	}
	return doc.Answers, nil
}

func decodeYAML(data []byte) ([]Answer, error) {
	var list []Answer
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var doc struct {
		Answers []Answer `yaml:"answers"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse answers YAML: %w", err)
	}
	return doc.Answers, nil
}

// clean trims labels, drops answers without a label and clamps confidence
// into [0,1].
func clean(list []Answer) []Answer {
	out := list[:0]
	for _, a := range list {
		a.FieldLabel = strings.TrimSpace(a.FieldLabel)
		if a.FieldLabel == "" {
			continue
		}
		a.Confidence = min(max(a.Confidence, 0), 1)
		out = append(out, a)
	}
	return out
}
