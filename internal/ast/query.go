package ast

// Statement is one submitted query.
type Statement struct {
	Explain bool  // EXPLAIN prefix: translate, describe, never execute
	Query   Query // SingleQuery or Union
}

// Options returns the statement options in display form, e.g. ["EXPLAIN"].
func (s *Statement) Options() []string {
	if s.Explain {
		return []string{"EXPLAIN"}
	}
	return []string{}
}

// Query is either a single clause sequence or a union of sequences.
//
// This is a sealed interface - only types in this package implement it.
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// SingleQuery is an ordered clause sequence ending in an optional RETURN.
type SingleQuery struct {
	Clauses []Clause
}

func (*SingleQuery) queryNode() {}

// Union concatenates branches that all end in a RETURN.
//
// Semantics:
//
//	<branch1> UNION [ALL] <branch2> UNION [ALL] ...
//
// Plain UNION removes duplicate rows; UNION ALL keeps them. The output
// column names are those of the first branch.
type Union struct {
	Branches []*SingleQuery
	All      bool
}

func (*Union) queryNode() {}

// Clause is one top-level operation of a SingleQuery.
//
// This is a sealed interface - only types in this package implement it.
type Clause interface {
	clauseNode() // Marker method - seals interface to this package
}

// Match binds pattern variables to graph elements.
//
// Semantics:
//
//	[OPTIONAL] MATCH <patterns> [WHERE <expr>]
//
// An optional match produces exactly one row with every introduced
// variable bound to null when the pattern does not match.
type Match struct {
	Optional bool
	Patterns []*PatternPart
	Where    Expr // nil = no filter
}

func (*Match) clauseNode() {}

// Create adds the nodes and relationships of its patterns to the graph.
// Variables already bound by earlier clauses are reused, not recreated.
type Create struct {
	Patterns []*PatternPart
}

func (*Create) clauseNode() {}

// Merge matches its single pattern or creates it when nothing matches.
//
// Semantics:
//
//	MERGE <pattern> [ON CREATE SET ...] [ON MATCH SET ...]
type Merge struct {
	Pattern  *PatternPart
	OnCreate []SetItem
	OnMatch  []SetItem
}

func (*Merge) clauseNode() {}

// Delete removes elements from the graph. Detach also removes every
// relationship incident to a deleted node.
type Delete struct {
	Detach  bool
	Targets []Expr
}

func (*Delete) clauseNode() {}

// Set updates properties of bound elements.
type Set struct {
	Items []SetItem
}

func (*Set) clauseNode() {}

// Remove deletes properties or labels of bound elements.
type Remove struct {
	Items []RemoveItem
}

func (*Remove) clauseNode() {}

// ProjectionKind distinguishes WITH from RETURN.
type ProjectionKind int

const (
	// With projects rows for the following clauses.
	With ProjectionKind = iota
	// Return projects the final result rows.
	Return
)

func (k ProjectionKind) String() string {
	if k == Return {
		return "RETURN"
	}
	return "WITH"
}

// Projection is a WITH or RETURN clause.
//
// Semantics:
//
//	WITH|RETURN [DISTINCT] <items> [ORDER BY ...] [SKIP n] [LIMIT n] [WHERE expr]
//
// Only the listed item aliases remain bound after the projection. WHERE is
// only valid on WITH and filters the projected rows.
type Projection struct {
	Kind     ProjectionKind
	Distinct bool
	Star     bool // "*": project every bound variable (expanded by the normalizer)
	Items    []*ProjectionItem
	OrderBy  []*SortItem
	Skip     Expr // nil = no skip
	Limit    Expr // nil = no limit
	Where    Expr // nil = no filter (WITH only)
}

func (*Projection) clauseNode() {}

// ProjectionItem is one projected column.
type ProjectionItem struct {
	Expr  Expr
	Alias string // empty until assigned by the parser (AS) or the normalizer
}

// SortItem is one ORDER BY key.
type SortItem struct {
	Expr       Expr
	Descending bool
}

// Unwind expands a list into one row per element.
type Unwind struct {
	Source Expr
	Alias  string
}

func (*Unwind) clauseNode() {}

// Call invokes an external procedure.
//
// Semantics:
//
//	CALL ns.name(args) [YIELD a [AS b], ...]
//
// Implicit is set for a standalone call without YIELD: every result
// field is yielded under its own name.
type Call struct {
	Procedure string
	Args      []Expr
	Yields    []*YieldItem
	Implicit  bool
}

func (*Call) clauseNode() {}

// YieldItem selects one procedure result field.
type YieldItem struct {
	Field string
	Alias string
}

// Name returns the name the field is bound to.
func (y *YieldItem) Name() string {
	if y.Alias != "" {
		return y.Alias
	}
	return y.Field
}

// SetItem is one assignment of a SET clause (or ON CREATE / ON MATCH).
//
// This is a sealed interface - only types in this package implement it.
type SetItem interface {
	setItemNode() // Marker method - seals interface to this package
}

// SetProperty assigns one property: n.p = v.
type SetProperty struct {
	Property *Property
	Value    Expr
}

func (*SetProperty) setItemNode() {}

// SetVariable assigns a map to an element: n = {..} or n += {..}.
// Merge selects += (keep existing properties) over = (replace all).
type SetVariable struct {
	Variable string
	Value    Expr
	Merge    bool
}

func (*SetVariable) setItemNode() {}

// SetLabels adds labels to a node: n:A:B.
type SetLabels struct {
	Variable string
	Labels   []string
}

func (*SetLabels) setItemNode() {}

// RemoveItem is one item of a REMOVE clause.
//
// This is a sealed interface - only types in this package implement it.
type RemoveItem interface {
	removeItemNode() // Marker method - seals interface to this package
}

// RemoveProperty removes one property: REMOVE n.p.
type RemoveProperty struct {
	Property *Property
}

func (*RemoveProperty) removeItemNode() {}

// RemoveLabels removes labels from a node: REMOVE n:A.
type RemoveLabels struct {
	Variable string
	Labels   []string
}

func (*RemoveLabels) removeItemNode() {}
