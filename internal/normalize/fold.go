package normalize

import (
	"github.com/roach88/cyphergremlin/internal/ast"
	"github.com/roach88/cyphergremlin/internal/extension"
)

// foldConstants simplifies literal boolean subtrees in WHERE filters and
// projection items. A filter that folds to true is dropped; one that folds
// to false or null becomes a literal false so the clause still binds its
// variables.
//
// Once a DELETE has run, reading a property or label may hit a deleted
// element and raise, so such reads are never discarded after one.
func foldConstants(clauses []ast.Clause) []ast.Clause {
	out := make([]ast.Clause, len(clauses))
	f := folder{}
	for i, c := range clauses {
		out[i] = c
		switch x := c.(type) {
		case *ast.Delete:
			f.afterDelete = true
		case *ast.Match:
			m := *x
			m.Where = f.filter(x.Where)
			out[i] = &m
		case *ast.Projection:
			p := *x
			p.Items = make([]*ast.ProjectionItem, len(x.Items))
			for j, item := range x.Items {
				p.Items[j] = &ast.ProjectionItem{Expr: f.fold(item.Expr), Alias: item.Alias}
			}
			p.Where = f.filter(x.Where)
			out[i] = &p
		}
	}
	return out
}

type folder struct {
	afterDelete bool
}

func (f folder) fold(e ast.Expr) ast.Expr {
	return ast.Rewrite(e, f.node)
}

func (f folder) filter(e ast.Expr) ast.Expr {
	if e == nil {
		return nil
	}
	folded := f.fold(e)
	if lit, ok := folded.(*ast.Literal); ok {
		if lit.Value == true {
			return nil
		}
		if lit.Value == false || lit.Value == nil {
			return ast.False()
		}
	}
	return folded
}

// Fold applies three-valued constant folding to e. An operand is only
// discarded when evaluating it cannot raise an error.
func Fold(e ast.Expr) ast.Expr {
	return folder{}.fold(e)
}

func (f folder) node(e ast.Expr) ast.Expr {
	switch x := e.(type) {
	case *ast.Unary:
		if x.Op == ast.OpNot {
			if v, ok := ternaryLiteral(x.Operand); ok {
				return literal(extension.Not(v))
			}
		}
	case *ast.IsNull:
		if lit, ok := x.Operand.(*ast.Literal); ok {
			return literal((lit.Value == nil) != x.Negated)
		}
	case *ast.Binary:
		switch {
		case x.Op.IsBoolean():
			return f.boolean(x)
		case x.Op.IsComparison():
			return foldComparison(x)
		}
	}
	return e
}

func (f folder) boolean(x *ast.Binary) ast.Expr {
	lv, lok := ternaryLiteral(x.Left)
	rv, rok := ternaryLiteral(x.Right)
	if lok && rok {
		switch x.Op {
		case ast.OpAnd:
			return literal(extension.And(lv, rv))
		case ast.OpOr:
			return literal(extension.Or(lv, rv))
		}
		return literal(extension.Xor(lv, rv))
	}
	if !lok && !rok {
		return x
	}
	// exactly one side is a literal
	known, other := lv, x.Right
	if rok {
		known, other = rv, x.Left
	}
	switch x.Op {
	case ast.OpAnd:
		if known == true {
			return other
		}
		if known == false && f.errorFree(other) {
			return ast.False()
		}
	case ast.OpOr:
		if known == false {
			return other
		}
		if known == true && f.errorFree(other) {
			return ast.True()
		}
	case ast.OpXor:
		if known == false {
			return other
		}
		if known == true {
			return &ast.Unary{Op: ast.OpNot, Operand: other}
		}
		if known == nil && f.errorFree(other) {
			return ast.Null()
		}
	}
	return x
}

func foldComparison(x *ast.Binary) ast.Expr {
	l, lok := scalarLiteral(x.Left)
	r, rok := scalarLiteral(x.Right)
	if !lok || !rok {
		return x
	}
	switch x.Op {
	case ast.OpEq:
		return literal(extension.Equal(l, r))
	case ast.OpNeq:
		return literal(extension.Not(extension.Equal(l, r)))
	}
	c, ok := extension.Compare(l, r)
	if !ok {
		return ast.Null()
	}
	switch x.Op {
	case ast.OpLt:
		return literal(c < 0)
	case ast.OpLte:
		return literal(c <= 0)
	case ast.OpGt:
		return literal(c > 0)
	}
	return literal(c >= 0)
}

// ternaryLiteral matches a true, false or null literal.
func ternaryLiteral(e ast.Expr) (any, bool) {
	lit, ok := e.(*ast.Literal)
	if !ok {
		return nil, false
	}
	switch lit.Value.(type) {
	case nil, bool:
		return lit.Value, true
	}
	return nil, false
}

// scalarLiteral matches a literal that is not a list or map.
func scalarLiteral(e ast.Expr) (any, bool) {
	lit, ok := e.(*ast.Literal)
	if !ok {
		return nil, false
	}
	return lit.Value, true
}

func literal(v any) *ast.Literal {
	switch v {
	case true:
		return ast.True()
	case false:
		return ast.False()
	}
	return ast.Null()
}

// errorFree reports whether evaluating e can never raise: no function
// calls, arithmetic, indexing or slicing, and no element reads after a
// DELETE.
func (f folder) errorFree(e ast.Expr) bool {
	safe := true
	ast.Inspect(e, func(n ast.Expr) bool {
		switch x := n.(type) {
		case *ast.FunctionCall, *ast.CountStar, *ast.Index, *ast.Slice, *ast.ListComprehension:
			safe = false
		case *ast.Property, *ast.HasLabels:
			if f.afterDelete {
				safe = false
			}
		case *ast.Binary:
			if x.Op.IsArithmetic() {
				safe = false
			}
		case *ast.Unary:
			if x.Op != ast.OpNot {
				safe = false
			}
		}
		return safe
	})
	return safe
}
