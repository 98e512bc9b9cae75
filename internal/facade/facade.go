// Package facade is the single entry point that turns a query string into
// a traversal: parse, translate, encode, and optionally execute.
//
// Each call takes its own procedure snapshot and builds its own
// translation context, so one Translator serves concurrent requests.
// Text and bytecode translations go through the cache when one is
// configured.
package facade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/cyphergremlin/internal/cache"
	"github.com/roach88/cyphergremlin/internal/extension"
	"github.com/roach88/cyphergremlin/internal/flavor"
	"github.com/roach88/cyphergremlin/internal/parser"
	"github.com/roach88/cyphergremlin/internal/procedures"
	"github.com/roach88/cyphergremlin/internal/result"
	"github.com/roach88/cyphergremlin/internal/steps"
	"github.com/roach88/cyphergremlin/internal/steps/bytecode"
	"github.com/roach88/cyphergremlin/internal/steps/groovy"
	"github.com/roach88/cyphergremlin/internal/steps/native"
	"github.com/roach88/cyphergremlin/internal/translate"
)

// Encodings.
const (
	EncodingText     = "text"
	EncodingBytecode = "bytecode"
)

// Request is one query to translate.
type Request struct {
	Query    string         `json:"query"`
	Params   map[string]any `json:"params,omitempty"`
	Flavor   string         `json:"flavor,omitempty"`   // empty selects the default flavor
	Encoding string         `json:"encoding,omitempty"` // empty selects text
}

// Response is a finished translation.
type Response struct {
	RequestID   string                `json:"request_id"`
	Translation string                `json:"translation"`
	Columns     translate.ReturnTable `json:"columns"`
	Options     []string              `json:"options"`
	Cached      bool                  `json:"cached"`
}

// Explain reports whether the query carried the EXPLAIN option.
func (r *Response) Explain() bool {
	for _, o := range r.Options {
		if o == "EXPLAIN" {
			return true
		}
	}
	return false
}

// Explanation is what an explain-only query returns instead of rows.
type Explanation struct {
	Translation string   `json:"translation"`
	Options     []string `json:"options"`
}

// Execution is the outcome of Execute. Exactly one of Rows and
// Explanation is set.
type Execution struct {
	RequestID   string                `json:"request_id"`
	Columns     translate.ReturnTable `json:"columns"`
	Rows        []map[string]any      `json:"rows,omitempty"`
	Explanation *Explanation          `json:"explanation,omitempty"`
}

// Translator translates queries against a procedure registry.
type Translator struct {
	procs     *procedures.Registry
	cache     cache.Cache
	functions *extension.Registry
	logger    *slog.Logger
	newID     func() string
}

// Option configures a Translator.
type Option func(*Translator)

// WithCache enables the translation cache. A nil cache disables it.
func WithCache(c cache.Cache) Option {
	return func(t *Translator) { t.cache = c }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(t *Translator) { t.logger = l }
}

// WithFunctions sets the runtime functions bound into native traversals.
// Defaults to extension.Default().
func WithFunctions(r *extension.Registry) Option {
	return func(t *Translator) { t.functions = r }
}

// WithRequestIDs replaces the UUIDv7 request ID generator.
func WithRequestIDs(next func() string) Option {
	return func(t *Translator) { t.newID = next }
}

// New creates a Translator. A nil registry means builtins only.
func New(procs *procedures.Registry, opts ...Option) (*Translator, error) {
	if procs == nil {
		var err error
		if procs, err = procedures.NewRegistry(); err != nil {
			return nil, err
		}
	}
	t := &Translator{
		procs:     procs,
		functions: extension.Default(),
		logger:    slog.Default(),
		newID:     newRequestID,
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// Translate parses and translates req into its text or bytecode form.
func (t *Translator) Translate(ctx context.Context, req Request) (*Response, error) {
	id := t.newID()
	logger := t.logger.With("request_id", id)

	encoding := req.Encoding
	if encoding == "" {
		encoding = EncodingText
	}
	fl, err := flavor.Lookup(req.Flavor)
	if err != nil {
		return nil, err
	}

	snap := t.procs.Snapshot()
	var key uint64
	if t.cache != nil {
		key, err = cache.Key{
			Query:      req.Query,
			Flavor:     fl.Name,
			Encoding:   encoding,
			Params:     req.Params,
			Procedures: snap.Digest(),
		}.Sum()
		if err != nil {
			return nil, err
		}
		entry, ok, err := t.cache.Get(ctx, key)
		if err != nil {
			logger.Warn("cache read failed", "error", err)
		} else if ok {
			logger.Debug("translation cache hit")
			return &Response{
				RequestID:   id,
				Translation: entry.Translation,
				Columns:     entry.Columns,
				Options:     entry.Options,
				Cached:      true,
			}, nil
		}
	}

	var (
		root   steps.Steps
		render func() (string, error)
	)
	switch encoding {
	case EncodingText:
		b := groovy.New()
		root, render = b, func() (string, error) { return b.String(), nil }
	case EncodingBytecode:
		b := bytecode.New()
		root, render = b, func() (string, error) {
			data, err := bytecode.MarshalCanonical(b.Bytecode())
			return string(data), err
		}
	default:
		return nil, fmt.Errorf("unknown encoding %q", encoding)
	}

	plan, err := t.translate(req, fl, snap, root, logger)
	if err != nil {
		return nil, err
	}
	text, err := render()
	if err != nil {
		return nil, fmt.Errorf("encode translation: %w", err)
	}
	resp := &Response{RequestID: id, Translation: text, Columns: plan.Columns, Options: plan.Options}

	if t.cache != nil {
		entry := &cache.Entry{Translation: text, Columns: plan.Columns, Options: plan.Options}
		if err := t.cache.Put(ctx, key, entry); err != nil {
			logger.Warn("cache write failed", "error", err)
		}
	}
	logger.Debug("translated", "encoding", encoding, "flavor", fl.Name, "bytes", len(text))
	return resp, nil
}

// Explain translates req and returns its text form with the option list,
// whether or not the query carries EXPLAIN.
func (t *Translator) Explain(ctx context.Context, req Request) (*Explanation, error) {
	req.Encoding = EncodingText
	resp, err := t.Translate(ctx, req)
	if err != nil {
		return nil, err
	}
	return &Explanation{Translation: resp.Translation, Options: resp.Options}, nil
}

// Execute translates req into a native traversal, runs it and coerces
// the rows. An EXPLAIN query is described instead and exec is never
// called.
func (t *Translator) Execute(ctx context.Context, req Request, exec native.Executor) (*Execution, error) {
	if exec == nil {
		return nil, errors.New("execute: no executor")
	}
	id := t.newID()
	logger := t.logger.With("request_id", id)
	fl, err := flavor.Lookup(req.Flavor)
	if err != nil {
		return nil, err
	}

	b := native.New(t.functions)
	plan, err := t.translate(req, fl, t.procs.Snapshot(), b, logger)
	if err != nil {
		return nil, err
	}
	out := &Execution{RequestID: id, Columns: plan.Columns}
	for _, o := range plan.Options {
		if o == "EXPLAIN" {
			exp, err := t.Explain(ctx, req)
			if err != nil {
				return nil, err
			}
			out.Explanation = exp
			return out, nil
		}
	}

	rows, err := exec.Execute(ctx, b.Traversal())
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	out.Rows, err = result.Coerce(rows, plan.Columns)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	logger.Debug("executed", "rows", len(out.Rows))
	return out, nil
}

func (t *Translator) translate(req Request, fl flavor.Flavor, snap *procedures.Snapshot, root steps.Steps, logger *slog.Logger) (*translate.Plan, error) {
	stmt, err := parser.Parse(req.Query)
	if err != nil {
		return nil, err
	}
	tctx := &translate.Context{
		Flavor:     fl,
		Procedures: snap,
		Params:     req.Params,
		Logger:     logger,
	}
	return translate.Translate(tctx, stmt, root)
}

func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
