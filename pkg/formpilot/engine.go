// Package formpilot ties scanning, matching and injection together for
// one document.
package formpilot

import (
	"context"
	"time"

	"github.com/entrhq/formpilot/pkg/answers"
	"github.com/entrhq/formpilot/pkg/dom"
	"github.com/entrhq/formpilot/pkg/inject"
	"github.com/entrhq/formpilot/pkg/logging"
	"github.com/entrhq/formpilot/pkg/matcher"
	"github.com/entrhq/formpilot/pkg/scanner"
	"github.com/entrhq/formpilot/pkg/synth"
)

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	Logger            *logging.Logger
	Denylist          *scanner.Denylist
	Labels            *scanner.LabelResolver
	MatchThreshold    float64
	SettleDelay       time.Duration
	DisableHighlight  bool
	HighlightDuration time.Duration
	MinConfidence     float64
	Notifier          inject.Notifier
}

// Engine fills the forms of one document.
type Engine struct {
	doc      *dom.Document
	scanner  *scanner.Scanner
	writer   *inject.Writer
	injector *inject.Injector
	logger   *logging.Logger
	fields   []scanner.FieldRecord
}

// New creates an Engine bound to doc.
func New(doc *dom.Document, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard("formpilot")
	}

	scanOpts := []scanner.Option{scanner.WithLogger(logger.Named("scanner"))}
	if opts.Denylist != nil {
		scanOpts = append(scanOpts, scanner.WithDenylist(opts.Denylist))
	}
	if opts.Labels != nil {
		scanOpts = append(scanOpts, scanner.WithLabelResolver(opts.Labels))
	}

	settle := inject.DefaultSettleDelay
	if opts.SettleDelay > 0 {
		settle = opts.SettleDelay
	}
	var hl *inject.Highlighter
	if !opts.DisableHighlight {
		hl = inject.NewHighlighter(doc.Scheduler(), opts.HighlightDuration)
	}
	writer := inject.NewWriter(doc,
		inject.WithSettleDelay(settle),
		inject.WithHighlighter(hl),
		inject.WithSynthesizer(synth.New(logger.Named("synth"))),
		inject.WithWriterLogger(logger.Named("inject")),
	)

	m := matcher.New()
	if opts.MatchThreshold > 0 {
		m.Threshold = opts.MatchThreshold
	}
	injector := inject.NewInjector(writer, m, logger.Named("batch"))
	injector.MinConfidence = opts.MinConfidence
	injector.Notifier = opts.Notifier

	return &Engine{
		doc:      doc,
		scanner:  scanner.New(scanOpts...),
		writer:   writer,
		injector: injector,
		logger:   logger,
	}
}

// Document returns the engine's document.
func (e *Engine) Document() *dom.Document { return e.doc }

// Scan builds a fresh field catalog. The injection registry is cleared
// because its handles may refer to replaced content.
func (e *Engine) Scan() []scanner.FieldRecord {
	e.writer.Session().Reset()
	e.fields = e.scanner.Scan(e.doc)
	return e.fields
}

// Fields returns the catalog from the last Scan.
func (e *Engine) Fields() []scanner.FieldRecord { return e.fields }

// InjectAnswers writes answers into fields. A nil fields slice uses the
// catalog from the last Scan, scanning first if there is none.
func (e *Engine) InjectAnswers(ctx context.Context, list []answers.Answer, fields []scanner.FieldRecord) (inject.Result, error) {
	if fields == nil {
		if e.fields == nil {
			e.Scan()
		}
		fields = e.fields
	}
	return e.injector.InjectAnswers(ctx, list, fields)
}

// ClearInjections rolls back every write of the current session and
// removes pending highlights.
func (e *Engine) ClearInjections(ctx context.Context) (int, error) {
	if hl := e.writer.Highlighter(); hl != nil {
		hl.Clear()
	}
	n, err := e.writer.Session().Rollback(ctx)
	if err != nil {
		return n, err
	}
	e.logger.Infof("rolled back %d fields", n)
	return n, nil
}

// Session returns the injection registry.
func (e *Engine) Session() *inject.Session { return e.writer.Session() }

// Settle runs pending timers such as highlight reverts to completion.
func (e *Engine) Settle(ctx context.Context) error {
	return e.doc.Scheduler().Drain(ctx)
}
