package ast

// PatternPart is one comma-separated pattern path.
//
// Nodes and Rels alternate: Nodes[0] Rels[0] Nodes[1] Rels[1] ... so
// len(Nodes) == len(Rels)+1 always holds.
//
// Example:
//
//	p = (a:Person)-[r:KNOWS]->(b)
//
// becomes:
//
//	PatternPart{
//	  PathVariable: "p",
//	  Nodes: []*NodePattern{{Variable: "a", Labels: []string{"Person"}}, {Variable: "b"}},
//	  Rels:  []*RelPattern{{Variable: "r", Types: []string{"KNOWS"}, Direction: Outgoing}},
//	}
type PatternPart struct {
	PathVariable string // empty = no path binding
	Nodes        []*NodePattern
	Rels         []*RelPattern
}

// NodePattern is "(v:Label {k: v})".
//
// Labels and Properties hold the inline shorthand as parsed. For MATCH
// patterns the normalizer moves both into Predicates, the canonical
// attached-guard list; CREATE and MERGE keep them inline because they
// describe what to write.
type NodePattern struct {
	Variable   string // empty = anonymous
	Labels     []string
	Properties Expr // *MapLiteral, *Parameter or nil
	Predicates []Expr
}

// Direction of a relationship pattern relative to its left node.
type Direction int

const (
	// Outgoing is (a)-->(b).
	Outgoing Direction = iota
	// Incoming is (a)<--(b).
	Incoming
	// Both is (a)--(b).
	Both
)

// Range is the hop bound of a variable-length relationship.
// A nil Min or Max is unbounded on that side.
//
//	*       -> {nil, nil}
//	*2      -> {2, 2}
//	*2..    -> {2, nil}
//	*..3    -> {nil, 3}
//	*2..3   -> {2, 3}
type Range struct {
	Min *int64
	Max *int64
}

// Fixed reports whether the range is an exact hop count.
func (r *Range) Fixed() bool {
	return r.Min != nil && r.Max != nil && *r.Min == *r.Max
}

// RelPattern is "-[v:TYPE|OTHER *min..max {k: v}]->".
type RelPattern struct {
	Variable   string
	Types      []string // alternatives, any may match
	Direction  Direction
	Length     *Range // nil = single hop
	Properties Expr
	Predicates []Expr
}

// VariableLength reports whether the relationship spans a hop range.
func (r *RelPattern) VariableLength() bool {
	return r.Length != nil
}

// Variables returns the named variables of the pattern in binding order:
// nodes and relationships left to right, then the path variable.
func (p *PatternPart) Variables() []string {
	var names []string
	for i, n := range p.Nodes {
		if n.Variable != "" {
			names = append(names, n.Variable)
		}
		if i < len(p.Rels) && p.Rels[i].Variable != "" {
			names = append(names, p.Rels[i].Variable)
		}
	}
	if p.PathVariable != "" {
		names = append(names, p.PathVariable)
	}
	return names
}
