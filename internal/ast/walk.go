package ast

import "strings"

// Inspect visits e and its sub-expressions in depth-first pre-order.
// Returning false from fn skips the children of the current node.
func Inspect(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, c := range children(e) {
		Inspect(c, fn)
	}
}

func children(e Expr) []Expr {
	switch x := e.(type) {
	case *ListLiteral:
		return x.Items
	case *MapLiteral:
		return x.Values
	case *Property:
		return []Expr{x.Subject}
	case *Binary:
		return []Expr{x.Left, x.Right}
	case *Unary:
		return []Expr{x.Operand}
	case *IsNull:
		return []Expr{x.Operand}
	case *HasLabels:
		return []Expr{x.Subject}
	case *FunctionCall:
		return x.Args
	case *Index:
		return []Expr{x.Subject, x.Index}
	case *Slice:
		return nonNil(x.Subject, x.From, x.To)
	case *Case:
		out := nonNil(x.Subject)
		for _, w := range x.Whens {
			out = append(out, w.When, w.Then)
		}
		return append(out, nonNil(x.Else)...)
	case *ListComprehension:
		return nonNil(x.Source, x.Where, x.Projection)
	}
	return nil
}

func nonNil(es ...Expr) []Expr {
	out := make([]Expr, 0, len(es))
	for _, e := range es {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Rewrite rebuilds e bottom-up, replacing every node with fn(node) after
// its children have been rewritten. The input tree is never modified.
func Rewrite(e Expr, fn func(Expr) Expr) Expr {
	if e == nil {
		return nil
	}
	switch x := e.(type) {
	case *ListLiteral:
		items := rewriteAll(x.Items, fn)
		e = &ListLiteral{Items: items}
	case *MapLiteral:
		e = &MapLiteral{Keys: x.Keys, Values: rewriteAll(x.Values, fn)}
	case *Property:
		e = &Property{Subject: Rewrite(x.Subject, fn), Key: x.Key}
	case *Binary:
		e = &Binary{Op: x.Op, Left: Rewrite(x.Left, fn), Right: Rewrite(x.Right, fn)}
	case *Unary:
		e = &Unary{Op: x.Op, Operand: Rewrite(x.Operand, fn)}
	case *IsNull:
		e = &IsNull{Operand: Rewrite(x.Operand, fn), Negated: x.Negated}
	case *HasLabels:
		e = &HasLabels{Subject: Rewrite(x.Subject, fn), Labels: x.Labels}
	case *FunctionCall:
		e = &FunctionCall{Name: x.Name, Distinct: x.Distinct, Args: rewriteAll(x.Args, fn)}
	case *Index:
		e = &Index{Subject: Rewrite(x.Subject, fn), Index: Rewrite(x.Index, fn)}
	case *Slice:
		e = &Slice{Subject: Rewrite(x.Subject, fn), From: Rewrite(x.From, fn), To: Rewrite(x.To, fn)}
	case *Case:
		whens := make([]*CaseWhen, len(x.Whens))
		for i, w := range x.Whens {
			whens[i] = &CaseWhen{When: Rewrite(w.When, fn), Then: Rewrite(w.Then, fn)}
		}
		e = &Case{Subject: Rewrite(x.Subject, fn), Whens: whens, Else: Rewrite(x.Else, fn)}
	case *ListComprehension:
		e = &ListComprehension{
			Variable:   x.Variable,
			Source:     Rewrite(x.Source, fn),
			Where:      Rewrite(x.Where, fn),
			Projection: Rewrite(x.Projection, fn),
		}
	}
	return fn(e)
}

func rewriteAll(es []Expr, fn func(Expr) Expr) []Expr {
	if es == nil {
		return nil
	}
	out := make([]Expr, len(es))
	for i, e := range es {
		out[i] = Rewrite(e, fn)
	}
	return out
}

// Conjuncts splits a tree of ANDs into its operands, left to right.
func Conjuncts(e Expr) []Expr {
	if e == nil {
		return nil
	}
	if b, ok := e.(*Binary); ok && b.Op == OpAnd {
		return append(Conjuncts(b.Left), Conjuncts(b.Right)...)
	}
	return []Expr{e}
}

// AndAll joins terms with left-nested ANDs. It returns nil for no terms.
func AndAll(terms []Expr) Expr {
	var out Expr
	for _, t := range terms {
		if out == nil {
			out = t
			continue
		}
		out = &Binary{Op: OpAnd, Left: out, Right: t}
	}
	return out
}

// FreeVariables returns the variables e references, in first-use order,
// excluding names bound by list comprehensions inside e.
func FreeVariables(e Expr) []string {
	var out []string
	seen := map[string]bool{}
	var walk func(Expr, map[string]bool)
	walk = func(e Expr, bound map[string]bool) {
		Inspect(e, func(n Expr) bool {
			switch x := n.(type) {
			case *Variable:
				if !bound[x.Name] && !seen[x.Name] {
					seen[x.Name] = true
					out = append(out, x.Name)
				}
			case *ListComprehension:
				walk(x.Source, bound)
				inner := make(map[string]bool, len(bound)+1)
				for k := range bound {
					inner[k] = true
				}
				inner[x.Variable] = true
				walk(x.Where, inner)
				walk(x.Projection, inner)
				return false
			}
			return true
		})
	}
	walk(e, map[string]bool{})
	return out
}

var aggregates = map[string]bool{
	"count":          true,
	"sum":            true,
	"avg":            true,
	"min":            true,
	"max":            true,
	"collect":        true,
	"percentilecont": true,
	"percentiledisc": true,
	"stdev":          true,
	"stdevp":         true,
}

// IsAggregateFunction reports whether name is an aggregating function.
func IsAggregateFunction(name string) bool {
	return aggregates[strings.ToLower(name)]
}

// IsAggregate reports whether e itself is an aggregation.
func IsAggregate(e Expr) bool {
	switch x := e.(type) {
	case *CountStar:
		return true
	case *FunctionCall:
		return IsAggregateFunction(x.Name)
	}
	return false
}

// ContainsAggregate reports whether any node of e is an aggregation.
func ContainsAggregate(e Expr) bool {
	found := false
	Inspect(e, func(n Expr) bool {
		if IsAggregate(n) {
			found = true
			return false
		}
		return !found
	})
	return found
}

var nondeterministic = map[string]bool{
	"rand":       true,
	"randomuuid": true,
	"timestamp":  true,
}

// IsNondeterministicFunction reports whether name yields a different value
// on each call.
func IsNondeterministicFunction(name string) bool {
	return nondeterministic[strings.ToLower(name)]
}

// IsConstant reports whether e is built only from literals and parameters.
func IsConstant(e Expr) bool {
	constant := true
	Inspect(e, func(n Expr) bool {
		switch n.(type) {
		case *Literal, *Parameter, *ListLiteral, *MapLiteral:
			return true
		}
		constant = false
		return false
	})
	return constant
}
