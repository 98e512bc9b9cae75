package ast

// Expr is a scalar expression.
//
// This is a sealed interface - only types in this package implement it.
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// Literal is a constant scalar.
// Value is one of: nil, bool, int64, float64, string.
type Literal struct {
	Value any
}

func (*Literal) exprNode() {}

// Null, True and False build the literals used by rewrites.
func Null() *Literal  { return &Literal{Value: nil} }
func True() *Literal  { return &Literal{Value: true} }
func False() *Literal { return &Literal{Value: false} }

// ListLiteral is "[a, b, c]".
type ListLiteral struct {
	Items []Expr
}

func (*ListLiteral) exprNode() {}

// MapLiteral is "{k: v, ...}". Keys keep source order.
type MapLiteral struct {
	Keys   []string
	Values []Expr
}

func (*MapLiteral) exprNode() {}

// Parameter is "$name".
type Parameter struct {
	Name string
}

func (*Parameter) exprNode() {}

// Variable references a bound alias.
type Variable struct {
	Name string
}

func (*Variable) exprNode() {}

// Property is "subject.key".
type Property struct {
	Subject Expr
	Key     string
}

func (*Property) exprNode() {}

// Operator names a binary or unary operator.
type Operator string

const (
	OpAdd Operator = "+"
	OpSub Operator = "-"
	OpMul Operator = "*"
	OpDiv Operator = "/"
	OpMod Operator = "%"
	OpPow Operator = "^"

	OpEq  Operator = "="
	OpNeq Operator = "<>"
	OpLt  Operator = "<"
	OpLte Operator = "<="
	OpGt  Operator = ">"
	OpGte Operator = ">="

	OpAnd Operator = "AND"
	OpOr  Operator = "OR"
	OpXor Operator = "XOR"
	OpNot Operator = "NOT"

	OpStartsWith Operator = "STARTS WITH"
	OpEndsWith   Operator = "ENDS WITH"
	OpContains   Operator = "CONTAINS"
	OpIn         Operator = "IN"
	OpRegex      Operator = "=~"

	OpNeg Operator = "-u"
	OpPos Operator = "+u"
)

// IsComparison reports whether op is one of = <> < <= > >=.
func (op Operator) IsComparison() bool {
	switch op {
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte:
		return true
	}
	return false
}

// IsArithmetic reports whether op is one of + - * / % ^.
func (op Operator) IsArithmetic() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpPow:
		return true
	}
	return false
}

// IsBoolean reports whether op is one of AND OR XOR.
func (op Operator) IsBoolean() bool {
	return op == OpAnd || op == OpOr || op == OpXor
}

// IsStringPredicate reports whether op is STARTS WITH, ENDS WITH or CONTAINS.
func (op Operator) IsStringPredicate() bool {
	return op == OpStartsWith || op == OpEndsWith || op == OpContains
}

// Binary is "left op right".
type Binary struct {
	Op    Operator
	Left  Expr
	Right Expr
}

func (*Binary) exprNode() {}

// Unary is "NOT x", "-x" or "+x".
type Unary struct {
	Op      Operator // OpNot, OpNeg, OpPos
	Operand Expr
}

func (*Unary) exprNode() {}

// IsNull is "x IS NULL" or, when Negated, "x IS NOT NULL".
type IsNull struct {
	Operand Expr
	Negated bool
}

func (*IsNull) exprNode() {}

// HasLabels is "n:A:B". True when the node carries every label.
type HasLabels struct {
	Subject Expr
	Labels  []string
}

func (*HasLabels) exprNode() {}

// FunctionCall is "name(args)" or "name(DISTINCT args)".
// Name keeps its namespace ("db.labels") and source spelling.
type FunctionCall struct {
	Name     string
	Distinct bool
	Args     []Expr
}

func (*FunctionCall) exprNode() {}

// CountStar is "count(*)".
type CountStar struct{}

func (*CountStar) exprNode() {}

// Index is "subject[index]" on lists and maps.
type Index struct {
	Subject Expr
	Index   Expr
}

func (*Index) exprNode() {}

// Slice is "subject[from..to]". Either bound may be nil.
type Slice struct {
	Subject Expr
	From    Expr
	To      Expr
}

func (*Slice) exprNode() {}

// Case is either the simple form (Subject != nil, CASE x WHEN v THEN ...)
// or the generic form (Subject == nil, CASE WHEN cond THEN ...).
type Case struct {
	Subject Expr
	Whens   []*CaseWhen
	Else    Expr // nil = null
}

func (*Case) exprNode() {}

// CaseWhen is one WHEN ... THEN ... arm.
type CaseWhen struct {
	When Expr
	Then Expr
}

// ListComprehension is "[v IN source WHERE pred | projection]".
type ListComprehension struct {
	Variable   string
	Source     Expr
	Where      Expr // nil = keep all
	Projection Expr // nil = the element itself
}

func (*ListComprehension) exprNode() {}
