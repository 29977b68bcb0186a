// Package hhconfig reads, merges and rewrites Hardhat user configuration
// files (hardhat.config.js / hardhat.config.ts).
//
// Config files are source code, not data, so the document is recovered on a
// best-effort basis by a pipeline of strategies: sandboxed evaluation of the
// whole file, data-only decoding of the exported object literal, and finally
// decoding of the well-known sections one at a time. What each fallback loses
// is reported in an ExtractReport instead of being dropped silently.
package hhconfig

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// ExtractReport describes how a document was recovered.
type ExtractReport struct {
	// Strategy is the name of the strategy that succeeded, or "" if none did.
	Strategy string
	// Warnings collects the failures of earlier strategies and the
	// non-fatal problems of the winning one.
	Warnings []string
	// Dropped lists top-level keys present in the file but absent from the
	// recovered document.
	Dropped []string
}

// Lossy reports whether any top-level field of the file was not recovered.
func (r *ExtractReport) Lossy() bool { return len(r.Dropped) > 0 }

// Extractor recovers a Document from configuration file text.
type Extractor struct {
	strategies []Strategy
	env        map[string]string
	timeout    time.Duration
	logger     *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithEnv sets the environment visible to evaluated config files as
// process.env. The default is the process environment.
func WithEnv(env map[string]string) Option {
	return func(e *Extractor) {
		e.env = env
	}
}

// WithEvalTimeout bounds how long the evaluation strategy may run.
func WithEvalTimeout(d time.Duration) Option {
	return func(e *Extractor) {
		e.timeout = d
	}
}

// WithStrategies restricts the pipeline to the named strategies, in order.
// Known names are "evaluate", "pattern" and "sections".
func WithStrategies(names ...string) Option {
	return func(e *Extractor) {
		e.strategies = nil
		for _, n := range names {
			switch n {
			case "evaluate":
				e.strategies = append(e.strategies, evaluateStrategy{})
			case "pattern":
				e.strategies = append(e.strategies, patternStrategy{})
			case "sections":
				e.strategies = append(e.strategies, sectionStrategy{})
			}
		}
	}
}

// NewExtractor creates an extractor running evaluate, pattern and sections
// in that order.
func NewExtractor(logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Extractor{
		strategies: []Strategy{evaluateStrategy{}, patternStrategy{}, sectionStrategy{}},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.env == nil {
		e.env = environ()
	}
	for i, s := range e.strategies {
		if ev, ok := s.(evaluateStrategy); ok {
			ev.env, ev.timeout = e.env, e.timeout
			e.strategies[i] = ev
		}
	}
	return e
}

// Extract recovers the configuration document from text. It never fails:
// when no strategy succeeds the document is empty and the report says so.
func (e *Extractor) Extract(text string, dialect Dialect) (Document, *ExtractReport) {
	doc, report, _ := e.extract(newSource(text, dialect))
	return doc, report
}

func (e *Extractor) extract(src *source) (Document, *ExtractReport, SourceForm) {
	report := &ExtractReport{}
	doc := Document{}
	for _, s := range e.strategies {
		got, warnings, err := e.attempt(s, src)
		for _, w := range warnings {
			report.Warnings = append(report.Warnings, s.Name()+": "+w)
		}
		if err != nil {
			msg := fmt.Sprintf("%s: %v", s.Name(), err)
			report.Warnings = append(report.Warnings, msg)
			e.logger.Warn("config extraction strategy failed",
				slog.String("strategy", s.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}
		doc = got
		report.Strategy = s.Name()
		break
	}

	report.Dropped = droppedKeys(src, doc)
	if report.Strategy == "" {
		e.logger.Warn("no extraction strategy succeeded, starting from an empty configuration",
			slog.Any("dropped", report.Dropped),
		)
	} else {
		e.logger.Debug("configuration extracted",
			slog.String("strategy", report.Strategy),
			slog.Int("keys", len(doc)),
		)
		if report.Lossy() {
			e.logger.Warn("configuration fields could not be recovered and will be lost",
				slog.String("strategy", report.Strategy),
				slog.Any("dropped", report.Dropped),
			)
		}
	}
	return doc, report, src.form
}

// attempt runs one strategy, turning a panic into an error.
func (e *Extractor) attempt(s Strategy, src *source) (doc Document, warnings []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, warnings, err = nil, nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return s.Attempt(src)
}

// droppedKeys lists the literal's top-level keys missing from doc.
func droppedKeys(src *source, doc Document) []string {
	if !src.form.Located() {
		return nil
	}
	var dropped []string
	seen := map[string]bool{}
	for _, k := range topLevelKeys(src.text, src.masked, src.form.Start, src.form.End) {
		if seen[k.name] {
			continue
		}
		seen[k.name] = true
		if _, ok := doc[k.name]; !ok {
			dropped = append(dropped, k.name)
		}
	}
	return dropped
}

func environ() map[string]string {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}
