package browser

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/entrhq/formpilot/pkg/dom"
	"github.com/entrhq/formpilot/pkg/inject"
	"github.com/entrhq/formpilot/pkg/synth"
)

// WriteKind tells the in-page applier which property to set.
type WriteKind string

const (
	KindValue   WriteKind = "value"
	KindChecked WriteKind = "checked"
	KindSelect  WriteKind = "select"
)

// Write is one change replayed into the live page.
type Write struct {
	Selector string    `json:"selector"`
	Label    string    `json:"label"`
	Kind     WriteKind `json:"kind"`
	Value    string    `json:"value,omitempty"`
	Checked  bool      `json:"checked,omitempty"`
	Indices  []int     `json:"indices,omitempty"`
}

// ApplyResult reports one replayed write.
type ApplyResult struct {
	Selector string `json:"selector"`
	Label    string `json:"label"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
}

type applyPayload struct {
	Events []string `json:"events"`
	Writes []Write  `json:"writes"`
}

// BuildWrites converts session entries into page writes. Entries whose
// element is no longer in doc are skipped.
func BuildWrites(doc *dom.Document, entries []inject.Entry) []Write {
	writes := make([]Write, 0, len(entries))
	for _, e := range entries {
		el := doc.Element(e.Handle)
		if el == nil {
			continue
		}
		w := Write{Selector: dom.Selector(el), Label: e.Label}
		switch v := e.Value.(type) {
		case inject.CheckValue:
			w.Kind, w.Checked = KindChecked, v.Checked
		case inject.RadioValue:
			radio := doc.Element(v.Handle)
			if radio == nil {
				continue
			}
			w.Selector = dom.Selector(radio)
			w.Kind, w.Checked = KindChecked, true
		case inject.SelectValue:
			w.Kind, w.Indices = KindSelect, append([]int(nil), v.Indices...)
		default:
			w.Kind, w.Value = KindValue, v.String()
		}
		writes = append(writes, w)
	}
	return writes
}

// encodePayload is the single string argument handed to applyScript.
func encodePayload(writes []Write) (string, error) {
	raw, err := json.Marshal(applyPayload{Events: synth.Sequence, Writes: writes})
	if err != nil {
		return "", fmt.Errorf("failed to encode writes: %w", err)
	}
	return string(raw), nil
}

func decodeResults(v any) ([]ApplyResult, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected applier result %T", v)
	}
	var results []ApplyResult
	if err := json.Unmarshal([]byte(s), &results); err != nil {
		return nil, fmt.Errorf("failed to decode applier result: %w", err)
	}
	return results, nil
}

// Apply replays the entries recorded against doc into the live page.
func (s *Session) Apply(doc *dom.Document, entries []inject.Entry) ([]ApplyResult, error) {
	s.UpdateLastUsed()

	writes := BuildWrites(doc, entries)
	if len(writes) == 0 {
		return nil, nil
	}
	payload, err := encodePayload(writes)
	if err != nil {
		return nil, err
	}
	out, err := s.Page.Evaluate(applyScript, payload)
	if err != nil {
		return nil, fmt.Errorf("applier failed: %w", err)
	}
	return decodeResults(out)
}

// Failed returns the results that did not apply.
func Failed(results []ApplyResult) []ApplyResult {
	var failed []ApplyResult
	for _, r := range results {
		if !r.OK {
			failed = append(failed, r)
		}
	}
	return failed
}

func (r ApplyResult) String() string {
	if r.OK {
		return r.Label + ": ok"
	}
	return r.Label + ": " + strconv.Quote(r.Error)
}
