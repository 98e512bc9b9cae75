// Package translate lowers a query tree into a Gremlin traversal.
//
// Translate normalizes the statement, then walks its clauses in order and
// emits steps through a steps.Steps builder wrapped in the flavor's
// decorators. Every clause continues from the traversal position the
// previous clause left; variables live as path labels and are read back
// with select().
//
// Expressions lower to anonymous traversals that yield exactly one value
// per row, with steps.Null standing in for null. Boolean operators follow
// three-valued logic by projecting their operands and deciding on the
// projected values.
//
// A translator is created per call and never shared. The procedure
// snapshot in the Context is taken by the caller before translation starts.
package translate

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/cyphergremlin/internal/alias"
	"github.com/roach88/cyphergremlin/internal/ast"
	"github.com/roach88/cyphergremlin/internal/flavor"
	"github.com/roach88/cyphergremlin/internal/normalize"
	"github.com/roach88/cyphergremlin/internal/procedures"
	"github.com/roach88/cyphergremlin/internal/steps"
)

// Context carries the per-call translation inputs. It is read-only during
// translation.
type Context struct {
	Flavor     flavor.Flavor
	Procedures *procedures.Snapshot
	Params     map[string]any
	Logger     *slog.Logger
}

// Plan is the result of a translation.
type Plan struct {
	// Columns is the return table of the final projection. Empty for
	// queries without RETURN.
	Columns ReturnTable

	// Options lists the statement options, e.g. ["EXPLAIN"].
	Options []string

	// Steps is the root builder the traversal was emitted into.
	Steps steps.Steps
}

// Error is a translation-time semantic error.
type Error struct {
	Code    ErrorCode
	Message string
}

// ErrorCode categorizes translation errors.
type ErrorCode string

const (
	ErrCodeUnknownProcedure          ErrorCode = "UNKNOWN_PROCEDURE"
	ErrCodeProcedureArguments        ErrorCode = "PROCEDURE_ARGUMENTS"
	ErrCodeUnknownYield              ErrorCode = "UNKNOWN_YIELD"
	ErrCodeAmbiguousRebinding        ErrorCode = "AMBIGUOUS_REBINDING"
	ErrCodeNestedAggregation         ErrorCode = "NESTED_AGGREGATION"
	ErrCodeNondeterministicAggregate ErrorCode = "NONDETERMINISTIC_AGGREGATE"
	ErrCodeUnknownFunction           ErrorCode = "UNKNOWN_FUNCTION"
	ErrCodeUndefinedVariable         ErrorCode = "UNDEFINED_VARIABLE"
	ErrCodeUnsupported               ErrorCode = "UNSUPPORTED"
	ErrCodeInvalidRange              ErrorCode = "INVALID_RANGE"
	ErrCodeMultipleLabels            ErrorCode = "MULTIPLE_LABELS"
	ErrCodeEmptyProjection           ErrorCode = "EMPTY_PROJECTION"
)

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsError returns true if err is a translation error with the given code.
func IsError(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// Translate lowers stmt into b. The flavor's decorators are applied to b
// here; b itself receives the decorated output.
func Translate(ctx *Context, stmt *ast.Statement, b steps.Steps) (*Plan, error) {
	logger := ctx.Logger
	if logger == nil {
		logger = slog.Default()
	}

	canonical, err := normalize.Normalize(stmt)
	if err != nil {
		var nerr *normalize.Error
		if errors.As(err, &nerr) {
			return nil, &Error{Code: ErrorCode(nerr.Code), Message: nerr.Message}
		}
		return nil, err
	}

	env := alias.New()
	env.Reserve(normalize.StatementNames(canonical)...)

	t := &translator{
		ctx:    ctx,
		env:    env,
		b:      ctx.Flavor.Decorate(b),
		logger: logger,
	}

	var columns ReturnTable
	switch q := canonical.Query.(type) {
	case *ast.SingleQuery:
		columns = t.query(q)
	case *ast.Union:
		columns = t.union(q)
	default:
		return nil, fmt.Errorf("translate: unsupported query type %T", canonical.Query)
	}

	if t.err != nil {
		return nil, t.err
	}
	if err := t.b.Err(); err != nil {
		return nil, err
	}
	logger.Debug("translated query", "flavor", ctx.Flavor.Name, "columns", len(columns))
	return &Plan{Columns: columns, Options: canonical.Options(), Steps: b}, nil
}

// binding is what a variable in scope resolves to.
type binding struct {
	label    string   // path label holding the value
	typ      ast.Type // static type, TypeAny when unknown
	nullable bool     // may hold the null sentinel
	deleted  bool     // element deleted by an earlier DELETE
	varPath  bool     // variable-length relationship, read back as a list
}

type translator struct {
	ctx    *Context
	env    *alias.Env
	b      steps.Steps // decorated root
	logger *slog.Logger

	// main is the traversal clauses append to. It is b for single queries
	// and the current branch for unions.
	main    steps.Steps
	started bool
	scope   map[string]*binding
	err     error
}

func (t *translator) fail(code ErrorCode, format string, args ...any) {
	if t.err == nil {
		t.err = &Error{Code: code, Message: fmt.Sprintf(format, args...)}
	}
}

// anon starts an anonymous traversal.
func (t *translator) anon() steps.Steps {
	return t.b.Start()
}

// source makes sure the main traversal has a current position. A query
// that does not start with a graph scan starts from one injected value.
func (t *translator) source() {
	if !t.started {
		t.main.Inject(steps.Start)
		t.started = true
	}
}

func (t *translator) bind(name string, b *binding) {
	t.scope[name] = b
}

func (t *translator) lookup(name string) (*binding, bool) {
	b, ok := t.scope[name]
	return b, ok
}

// query translates one clause sequence into t.main and returns its
// return table.
func (t *translator) query(q *ast.SingleQuery) ReturnTable {
	if t.main == nil {
		t.main = t.b
	}
	if t.scope == nil {
		t.scope = map[string]*binding{}
	}
	var columns ReturnTable
	for i, c := range q.Clauses {
		if t.err != nil {
			return nil
		}
		last := i == len(q.Clauses)-1
		switch x := c.(type) {
		case *ast.Match:
			t.match(x)
		case *ast.Create:
			t.create(x)
		case *ast.Merge:
			t.merge(x)
		case *ast.Delete:
			t.delete(x)
		case *ast.Set:
			t.set(x)
		case *ast.Remove:
			t.remove(x)
		case *ast.Unwind:
			t.unwind(x)
		case *ast.Call:
			cols := t.call(x)
			if last {
				columns = t.returnBindings(cols)
			}
		case *ast.Projection:
			if x.Kind == ast.Return {
				columns = t.ret(x)
			} else {
				t.with(x)
			}
		default:
			t.fail(ErrCodeUnsupported, "unsupported clause %T", c)
		}
	}
	if columns == nil && t.err == nil {
		t.source()
		t.main.Barrier().Limit(0)
	}
	return columns
}

// union translates every branch as an anonymous traversal and concatenates
// them. Branch columns are renamed to the first branch's names.
func (t *translator) union(u *ast.Union) ReturnTable {
	var columns ReturnTable
	branches := make([]steps.Steps, len(u.Branches))
	for i, q := range u.Branches {
		t.main = t.anon()
		t.started = true
		t.scope = map[string]*binding{}
		cols := t.query(q)
		if t.err != nil {
			return nil
		}
		if i == 0 {
			columns = cols
		} else {
			if len(cols) != len(columns) {
				t.fail(ErrCodeUnsupported, "All sub queries in an UNION must have the same column names")
				return nil
			}
			t.renameColumns(t.main, cols, columns)
			columns = columns.Join(cols)
		}
		branches[i] = t.main
	}

	t.main = t.b
	t.main.Inject(steps.Start).Union(branches...)
	if !u.All {
		t.main.Dedup()
	}
	return columns
}

// renameColumns appends a projection renaming have to want when they
// differ.
func (t *translator) renameColumns(s steps.Steps, have, want ReturnTable) {
	same := true
	for i := range have {
		if have[i].Name != want[i].Name {
			same = false
		}
	}
	if same {
		return
	}
	names := make([]string, len(want))
	for i, c := range want {
		names[i] = c.Name
	}
	s.Project(names...)
	for _, c := range have {
		s.By(t.anon().Select(c.Name))
	}
}
