package translate

import (
	"strings"

	"github.com/roach88/cyphergremlin/internal/ast"
)

// Column is one output column of a query.
type Column struct {
	Name string   `json:"name"`
	Type ast.Type `json:"type"`
}

// ReturnTable is the ordered column list of a query result.
type ReturnTable []Column

// Names returns the column names in order.
func (r ReturnTable) Names() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.Name
	}
	return out
}

// Lookup returns the column named name.
func (r ReturnTable) Lookup(name string) (Column, bool) {
	for _, c := range r {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Join widens every column type to cover the positional column of o.
// Names are kept from r.
func (r ReturnTable) Join(o ReturnTable) ReturnTable {
	out := make(ReturnTable, len(r))
	for i, c := range r {
		out[i] = c
		if i < len(o) {
			out[i].Type = c.Type.Join(o[i].Type)
		}
	}
	return out
}

// typeOf infers the static type of e in the current scope.
func (t *translator) typeOf(e ast.Expr) ast.Type {
	switch x := e.(type) {
	case *ast.Literal:
		return valueType(x.Value)
	case *ast.ListLiteral, *ast.ListComprehension, *ast.Slice:
		return ast.TypeList
	case *ast.MapLiteral:
		return ast.TypeMap
	case *ast.Parameter:
		v, ok := t.ctx.Params[x.Name]
		if !ok {
			return ast.TypeAny
		}
		return valueType(v)
	case *ast.Variable:
		if b, ok := t.lookup(x.Name); ok {
			return b.typ
		}
		return ast.TypeAny
	case *ast.Binary:
		return t.binaryType(x)
	case *ast.Unary:
		if x.Op == ast.OpNot {
			return ast.TypeBoolean
		}
		return t.typeOf(x.Operand)
	case *ast.IsNull, *ast.HasLabels:
		return ast.TypeBoolean
	case *ast.CountStar:
		return ast.TypeInteger
	case *ast.FunctionCall:
		return t.functionType(x)
	case *ast.Case:
		var out ast.Type
		for _, w := range x.Whens {
			out = out.Join(t.typeOf(w.Then))
		}
		if x.Else != nil {
			out = out.Join(t.typeOf(x.Else))
		} else {
			out = out.Join(ast.TypeNull)
		}
		return out
	}
	return ast.TypeAny
}

func (t *translator) binaryType(x *ast.Binary) ast.Type {
	if !x.Op.IsArithmetic() {
		return ast.TypeBoolean
	}
	l, r := t.typeOf(x.Left), t.typeOf(x.Right)
	if l == ast.TypeNull || r == ast.TypeNull {
		return ast.TypeNull
	}
	if x.Op == ast.OpAdd {
		switch {
		case l == ast.TypeList || r == ast.TypeList:
			return ast.TypeList
		case l == ast.TypeString || r == ast.TypeString:
			return ast.TypeString
		}
	}
	switch {
	case x.Op == ast.OpPow:
		return ast.TypeFloat
	case l == ast.TypeInteger && r == ast.TypeInteger:
		return ast.TypeInteger
	case l == ast.TypeFloat && r.Numeric(), r == ast.TypeFloat && l.Numeric():
		return ast.TypeFloat
	case l.Numeric() && r.Numeric():
		return ast.TypeNumber
	}
	return ast.TypeAny
}

// valueType maps a Go value to its query type.
func valueType(v any) ast.Type {
	switch v.(type) {
	case nil:
		return ast.TypeNull
	case bool:
		return ast.TypeBoolean
	case int, int32, int64:
		return ast.TypeInteger
	case float32, float64:
		return ast.TypeFloat
	case string:
		return ast.TypeString
	case []any:
		return ast.TypeList
	case map[string]any:
		return ast.TypeMap
	}
	return ast.TypeAny
}

func (t *translator) functionType(f *ast.FunctionCall) ast.Type {
	name := strings.ToLower(f.Name)
	if fn, ok := functions[name]; ok && fn.result != "" {
		return fn.result
	}
	switch name {
	case "count":
		return ast.TypeInteger
	case "collect":
		return ast.TypeList
	case "avg", "percentilecont", "stdev", "stdevp":
		return ast.TypeFloat
	case "sum", "min", "max", "percentiledisc":
		if len(f.Args) == 1 {
			if a := t.typeOf(f.Args[0]); a.Numeric() || name != "sum" {
				return a
			}
		}
		return ast.TypeNumber
	case "coalesce":
		var out ast.Type
		for _, a := range f.Args {
			out = out.Join(t.typeOf(a))
		}
		return out
	case "abs":
		if len(f.Args) == 1 && t.typeOf(f.Args[0]).Numeric() {
			return t.typeOf(f.Args[0])
		}
		return ast.TypeNumber
	}
	return ast.TypeAny
}
