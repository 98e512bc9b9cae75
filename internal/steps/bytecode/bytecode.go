// Package bytecode builds the portable instruction form of a traversal.
//
// A Bytecode is an ordered list of instructions, each an operator name and
// its arguments. Nested traversals are nested *Bytecode values, so the form
// survives serialization to GraphSON-style JSON for out-of-process
// submission (see MarshalCanonical).
package bytecode

// Instruction is one step: the Gremlin operator and its arguments.
type Instruction struct {
	Operator string
	Args     []any
}

// Bytecode is a traversal in instruction form. Anonymous traversals (the
// "__" children of branching steps) have Anonymous set.
type Bytecode struct {
	Instructions []Instruction
	Anonymous    bool
}

// Operators returns the operator names in order. Handy in tests.
func (b *Bytecode) Operators() []string {
	out := make([]string, len(b.Instructions))
	for i, in := range b.Instructions {
		out[i] = in.Operator
	}
	return out
}

// Binding is a named parameter. The executor resolves Key against the
// submitted parameter map; Value is the value known at translation time.
type Binding struct {
	Key   string
	Value any
}

// Predicate is a P argument.
type Predicate struct {
	Operator string
	Args     []any
	Custom   bool
}

// Enum is a Gremlin token such as Order.desc or Scope.local.
type Enum struct {
	Type  string
	Value string
}

// Lambda references a runtime extension function by name.
type Lambda struct {
	Name string
	Args []any
}
