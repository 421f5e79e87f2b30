package inject

import (
	"context"
	"fmt"

	"github.com/entrhq/formpilot/pkg/answers"
	"github.com/entrhq/formpilot/pkg/logging"
	"github.com/entrhq/formpilot/pkg/matcher"
	"github.com/entrhq/formpilot/pkg/scanner"
)

// Outcome is what happened to one answer in a batch.
type Outcome struct {
	Answer answers.Answer
	// Field is the catalog index the answer matched, or -1.
	Field    int
	Label    string
	Strategy matcher.Strategy
	Err      error
}

// Attempted reports whether the answer was matched and a write was tried.
func (o Outcome) Attempted() bool { return o.Field >= 0 }

// Written reports whether the write succeeded.
func (o Outcome) Written() bool { return o.Attempted() && o.Err == nil }

// Result aggregates a batch.
type Result struct {
	Attempts  int
	Successes int
	Outcomes  []Outcome
}

// OK reports whether at least one field was written.
func (r Result) OK() bool { return r.Successes > 0 }

// Complete reports whether every attempted write succeeded.
func (r Result) Complete() bool { return r.Attempts > 0 && r.Successes == r.Attempts }

// Summary is the user-facing digest of a batch.
type Summary struct {
	Successes int
	Attempts  int
	Complete  bool
	Message   string
}

// Summary builds the notification text for r.
func (r Result) Summary() Summary {
	s := Summary{Successes: r.Successes, Attempts: r.Attempts, Complete: r.Complete()}
	switch {
	case r.Attempts == 0:
		s.Message = "No matching fields found"
	case s.Complete:
		s.Message = fmt.Sprintf("Filled all %d fields", r.Successes)
	case r.Successes == 0:
		s.Message = fmt.Sprintf("Could not fill any of %d fields", r.Attempts)
	default:
		s.Message = fmt.Sprintf("Filled %d of %d fields", r.Successes, r.Attempts)
	}
	return s
}

// Notifier receives the summary of each batch.
type Notifier interface {
	Notify(Summary)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Summary)

// Notify calls f.
func (f NotifierFunc) Notify(s Summary) { f(s) }

// Injector binds answers to catalog fields and writes them.
type Injector struct {
	writer  *Writer
	matcher *matcher.Matcher
	logger  *logging.Logger

	// MinConfidence skips answers below this confidence. Zero disables
	// the gate.
	MinConfidence float64
	Notifier      Notifier
}

// NewInjector creates an Injector around w.
func NewInjector(w *Writer, m *matcher.Matcher, logger *logging.Logger) *Injector {
	if m == nil {
		m = matcher.New()
	}
	if logger == nil {
		logger = logging.Discard("inject")
	}
	return &Injector{writer: w, matcher: m, logger: logger}
}

// Writer returns the underlying writer.
func (in *Injector) Writer() *Writer { return in.writer }

// InjectAnswers matches each answer to a field and writes it. Unmatched
// answers are dropped without counting as attempts. Failed writes count as
// attempts and never stop the batch. The returned context error is set
// only if ctx ends mid-batch; the partial result is still valid.
func (in *Injector) InjectAnswers(ctx context.Context, list []answers.Answer, fields []scanner.FieldRecord) (Result, error) {
	var res Result
	for _, a := range list {
		if err := ctx.Err(); err != nil {
			in.notify(res)
			return res, err
		}

		out := Outcome{Answer: a, Field: -1}
		if in.MinConfidence > 0 && a.Confidence < in.MinConfidence {
			out.Err = ErrLowConfidence
			in.logger.Infof("answer %q skipped: confidence %.2f below %.2f", a.FieldLabel, a.Confidence, in.MinConfidence)
			res.Outcomes = append(res.Outcomes, out)
			continue
		}

		m, ok := in.matcher.Match(a.FieldLabel, fields)
		if !ok {
			out.Err = ErrMatchNotFound
			in.logger.Infof("answer %q matched no field", a.FieldLabel)
			res.Outcomes = append(res.Outcomes, out)
			continue
		}

		field := fields[m.Index]
		out.Field, out.Label, out.Strategy = m.Index, field.Label, m.Strategy
		res.Attempts++
		if out.Err = in.writer.Inject(ctx, field, a.Answer); out.Err == nil {
			res.Successes++
		}
		res.Outcomes = append(res.Outcomes, out)
	}

	in.logger.Infof("batch finished: %d/%d written", res.Successes, res.Attempts)
	in.notify(res)
	return res, nil
}

func (in *Injector) notify(res Result) {
	if in.Notifier != nil {
		in.Notifier.Notify(res.Summary())
	}
}
