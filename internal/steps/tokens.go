package steps

// Sentinel values shared by the translator, the encodings and the runtime
// extension. The two-space prefix keeps them out of the user name space:
// no parsed identifier or string the translator generates for users starts
// with two spaces.
const (
	// Start is the single value injected when a query does not begin with
	// a graph scan.
	Start = "  cypher.start"

	// Null represents an absent value inside a traversal. Gremlin drops
	// traversers that carry a real null, so every value fragment yields
	// this sentinel instead.
	Null = "  cypher.null"

	// Generated prefixes fresh aliases bound for reused pattern variables
	// and hoisted projection columns.
	Generated = "  GENERATED"

	// Unnamed prefixes aliases given to anonymous pattern elements.
	Unnamed = "  UNNAMED"

	// FreshID prefixes scratch labels local to one lowering.
	FreshID = "  FRESHID"
)

// Scope selects whether a reducing step works across traversers (global)
// or within the collection held by each traverser (local).
type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeLocal  Scope = "local"
)

// Column selects the keys or the values of a map.
type Column string

const (
	ColumnKeys   Column = "keys"
	ColumnValues Column = "values"
)

// Order is a sort direction.
type Order string

const (
	OrderAsc     Order = "asc"
	OrderDesc    Order = "desc"
	OrderShuffle Order = "shuffle"
)

// Pop selects which of several values stored under one label is returned.
type Pop string

const (
	PopFirst Pop = "first"
	PopLast  Pop = "last"
	PopAll   Pop = "all"
)

// Cardinality is the vertex property cardinality of a property write.
type Cardinality string

const (
	CardinalitySingle Cardinality = "single"
	CardinalityList   Cardinality = "list"
	CardinalitySet    Cardinality = "set"
)

// IsSentinel reports whether v is one of the string sentinels above.
func IsSentinel(v any) bool {
	s, ok := v.(string)
	return ok && len(s) > 1 && s[0] == ' ' && s[1] == ' '
}
