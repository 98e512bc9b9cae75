package ast

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Format renders an expression in canonical source form.
//
// The output is used as the display name of unaliased projection items
// (RETURN a.name displays as "a.name") and as the identity of an
// expression when the normalizer matches ORDER BY keys against items.
func Format(e Expr) string {
	var sb strings.Builder
	writeExpr(&sb, e, 0)
	return sb.String()
}

// precedence levels, loosest first
const (
	precOr = iota + 1
	precXor
	precAnd
	precNot
	precCompare
	precPredicate
	precAdd
	precMul
	precPow
	precUnary
	precPostfix
)

func binaryPrecedence(op Operator) int {
	switch op {
	case OpOr:
		return precOr
	case OpXor:
		return precXor
	case OpAnd:
		return precAnd
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte, OpRegex:
		return precCompare
	case OpStartsWith, OpEndsWith, OpContains, OpIn:
		return precPredicate
	case OpAdd, OpSub:
		return precAdd
	case OpMul, OpDiv, OpMod:
		return precMul
	case OpPow:
		return precPow
	}
	return precPostfix
}

func writeExpr(sb *strings.Builder, e Expr, parent int) {
	switch x := e.(type) {
	case nil:
		sb.WriteString("null")
	case *Literal:
		sb.WriteString(FormatValue(x.Value))
	case *ListLiteral:
		sb.WriteByte('[')
		for i, item := range x.Items {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeExpr(sb, item, 0)
		}
		sb.WriteByte(']')
	case *MapLiteral:
		sb.WriteByte('{')
		for i, k := range x.Keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(FormatName(k))
			sb.WriteString(": ")
			writeExpr(sb, x.Values[i], 0)
		}
		sb.WriteByte('}')
	case *Parameter:
		sb.WriteByte('$')
		sb.WriteString(FormatName(x.Name))
	case *Variable:
		sb.WriteString(FormatName(x.Name))
	case *Property:
		writeExpr(sb, x.Subject, precPostfix)
		sb.WriteByte('.')
		sb.WriteString(FormatName(x.Key))
	case *Binary:
		prec := binaryPrecedence(x.Op)
		open := prec < parent
		if open {
			sb.WriteByte('(')
		}
		writeExpr(sb, x.Left, prec)
		sb.WriteByte(' ')
		sb.WriteString(string(x.Op))
		sb.WriteByte(' ')
		// Right operand binds tighter so "a - (b - c)" keeps its parentheses.
		writeExpr(sb, x.Right, prec+1)
		if open {
			sb.WriteByte(')')
		}
	case *Unary:
		switch x.Op {
		case OpNot:
			open := precNot < parent
			if open {
				sb.WriteByte('(')
			}
			sb.WriteString("NOT ")
			writeExpr(sb, x.Operand, precNot)
			if open {
				sb.WriteByte(')')
			}
		case OpNeg:
			sb.WriteByte('-')
			writeExpr(sb, x.Operand, precUnary)
		default:
			sb.WriteByte('+')
			writeExpr(sb, x.Operand, precUnary)
		}
	case *IsNull:
		open := precPredicate < parent
		if open {
			sb.WriteByte('(')
		}
		writeExpr(sb, x.Operand, precPredicate+1)
		if x.Negated {
			sb.WriteString(" IS NOT NULL")
		} else {
			sb.WriteString(" IS NULL")
		}
		if open {
			sb.WriteByte(')')
		}
	case *HasLabels:
		writeExpr(sb, x.Subject, precPostfix)
		for _, l := range x.Labels {
			sb.WriteByte(':')
			sb.WriteString(FormatName(l))
		}
	case *FunctionCall:
		sb.WriteString(x.Name)
		sb.WriteByte('(')
		if x.Distinct {
			sb.WriteString("DISTINCT ")
		}
		for i, a := range x.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeExpr(sb, a, 0)
		}
		sb.WriteByte(')')
	case *CountStar:
		sb.WriteString("count(*)")
	case *Index:
		writeExpr(sb, x.Subject, precPostfix)
		sb.WriteByte('[')
		writeExpr(sb, x.Index, 0)
		sb.WriteByte(']')
	case *Slice:
		writeExpr(sb, x.Subject, precPostfix)
		sb.WriteByte('[')
		if x.From != nil {
			writeExpr(sb, x.From, 0)
		}
		sb.WriteString("..")
		if x.To != nil {
			writeExpr(sb, x.To, 0)
		}
		sb.WriteByte(']')
	case *Case:
		sb.WriteString("CASE")
		if x.Subject != nil {
			sb.WriteByte(' ')
			writeExpr(sb, x.Subject, 0)
		}
		for _, w := range x.Whens {
			sb.WriteString(" WHEN ")
			writeExpr(sb, w.When, 0)
			sb.WriteString(" THEN ")
			writeExpr(sb, w.Then, 0)
		}
		if x.Else != nil {
			sb.WriteString(" ELSE ")
			writeExpr(sb, x.Else, 0)
		}
		sb.WriteString(" END")
	case *ListComprehension:
		sb.WriteByte('[')
		sb.WriteString(FormatName(x.Variable))
		sb.WriteString(" IN ")
		writeExpr(sb, x.Source, 0)
		if x.Where != nil {
			sb.WriteString(" WHERE ")
			writeExpr(sb, x.Where, 0)
		}
		if x.Projection != nil {
			sb.WriteString(" | ")
			writeExpr(sb, x.Projection, 0)
		}
		sb.WriteByte(']')
	default:
		fmt.Fprintf(sb, "<%T>", e)
	}
}

// FormatValue renders a literal value.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return FormatFloat(val)
	case string:
		return QuoteString(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// FormatFloat renders a float so that it always reads back as a float:
// 1 renders as "1.0", not "1".
func FormatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	if math.IsNaN(f) {
		return "NaN"
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// QuoteString renders s as a single-quoted literal.
func QuoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			sb.WriteString(`\'`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}

// FormatName renders an identifier, quoting it with backticks when it is
// not a plain identifier.
func FormatName(name string) string {
	if IsPlainIdentifier(name) {
		return name
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// IsPlainIdentifier reports whether name needs no quoting.
func IsPlainIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
