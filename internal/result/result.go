// Package result post-processes rows returned by an execution engine using
// the return table of the translation that produced them.
//
// Engines return the null sentinel where the query produced null, numbers
// widened to floating point by math(), and graph elements in the
// engine's own map form. Coerce turns these back into query values:
//
//	"  cypher.null"                      -> nil
//	3.0 in an INTEGER column             -> int64(3)
//	{"id": 1, "label": "person", ...}    -> Node
//	{"id": 9, "label": "knows", "outV"…} -> Relationship
package result

import (
	"fmt"
	"math"
	"sort"

	"github.com/roach88/cyphergremlin/internal/ast"
	"github.com/roach88/cyphergremlin/internal/steps"
	"github.com/roach88/cyphergremlin/internal/translate"
)

// Node is a vertex in a result row.
type Node struct {
	ID         any            `json:"id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
}

// Relationship is an edge in a result row.
type Relationship struct {
	ID         any            `json:"id"`
	Type       string         `json:"type"`
	StartID    any            `json:"start"`
	EndID      any            `json:"end"`
	Properties map[string]any `json:"properties"`
}

// Error reports a row that does not match its return table.
type Error struct {
	Row    int
	Column string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("row %d column %q: %s", e.Row, e.Column, e.Reason)
}

// Coerce converts engine rows to query values. Every returned row holds
// exactly the columns of table; a column missing from an engine row is an
// error.
func Coerce(rows []map[string]any, table translate.ReturnTable) ([]map[string]any, error) {
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		coerced := make(map[string]any, len(table))
		for _, col := range table {
			v, ok := row[col.Name]
			if !ok {
				return nil, &Error{Row: i, Column: col.Name, Reason: "missing from engine row"}
			}
			c, err := Value(v, col.Type)
			if err != nil {
				return nil, &Error{Row: i, Column: col.Name, Reason: err.Error()}
			}
			coerced[col.Name] = c
		}
		out[i] = coerced
	}
	return out, nil
}

// Value coerces one value to typ. TypeAny converts nulls and elements but
// leaves numbers as they are.
func Value(v any, typ ast.Type) (any, error) {
	if v == nil || v == steps.Null {
		return nil, nil
	}
	switch typ {
	case ast.TypeInteger:
		return integer(v)
	case ast.TypeNode, ast.TypeRelationship:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected a graph element, got %T", v)
		}
		if typ == ast.TypeNode {
			return node(m), nil
		}
		return relationship(m), nil
	}
	return generic(v), nil
}

func integer(v any) (any, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("expected an integer, got %v", x)
		}
		return int64(x), nil
	}
	return nil, fmt.Errorf("expected an integer, got %T", v)
}

// generic converts nulls and elements found at any depth.
func generic(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = generic(e)
		}
		return out
	case map[string]any:
		if isElement(x) {
			if _, edge := x["outV"]; edge {
				return relationship(x)
			}
			return node(x)
		}
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = generic(e)
		}
		return out
	}
	if v == steps.Null {
		return nil
	}
	return v
}

// isElement reports whether m has the shape engines use for elements.
func isElement(m map[string]any) bool {
	_, id := m["id"]
	_, label := m["label"]
	_, props := m["properties"]
	return id && label && props
}

func node(m map[string]any) Node {
	n := Node{ID: m["id"], Properties: properties(m["properties"])}
	switch l := m["label"].(type) {
	case string:
		if l != "" && l != "vertex" {
			n.Labels = []string{l}
		}
	case []any:
		for _, e := range l {
			if s, ok := e.(string); ok {
				n.Labels = append(n.Labels, s)
			}
		}
		sort.Strings(n.Labels)
	}
	if n.Labels == nil {
		n.Labels = []string{}
	}
	return n
}

func relationship(m map[string]any) Relationship {
	r := Relationship{
		ID:         m["id"],
		StartID:    m["outV"],
		EndID:      m["inV"],
		Properties: properties(m["properties"]),
	}
	r.Type, _ = m["label"].(string)
	return r
}

// properties flattens engine property maps. Vertex properties may arrive
// as lists of {value: ...} maps; single-element lists are unwrapped.
func properties(v any) map[string]any {
	out := map[string]any{}
	m, ok := v.(map[string]any)
	if !ok {
		return out
	}
	for k, p := range m {
		out[k] = propertyValue(p)
	}
	return out
}

func propertyValue(p any) any {
	switch x := p.(type) {
	case map[string]any:
		if v, ok := x["value"]; ok {
			return generic(v)
		}
	case []any:
		vals := make([]any, len(x))
		for i, e := range x {
			vals[i] = propertyValue(e)
		}
		if len(vals) == 1 {
			return vals[0]
		}
		return vals
	}
	return generic(p)
}
