package steps

import "fmt"

// Param is a reference to a query parameter. Encodings render it as a
// binding rather than inlining Value, so one translation can be submitted
// with different parameter maps of the same shape.
type Param struct {
	Name  string
	Value any
}

// Function names a runtime extension function applied by map().
//
// Args are constant arguments rendered into the call, for example the
// error code of cypherException('DIVISION_BY_ZERO'). Traverser-dependent
// arguments are gathered into the traverser value before the call.
type Function struct {
	Name string
	Args []any
}

func (f Function) String() string {
	return fmt.Sprintf("%s%v", f.Name, f.Args)
}

// Runtime extension functions referenced by the translator.
func ToString() Function             { return Function{Name: "cypherToString"} }
func ToBoolean() Function            { return Function{Name: "cypherToBoolean"} }
func ToInteger() Function            { return Function{Name: "cypherToInteger"} }
func ToFloat() Function              { return Function{Name: "cypherToFloat"} }
func Properties() Function           { return Function{Name: "cypherProperties"} }
func ContainerIndex() Function       { return Function{Name: "cypherContainerIndex"} }
func ListSlice() Function            { return Function{Name: "cypherListSlice"} }
func PercentileCont() Function       { return Function{Name: "cypherPercentileCont"} }
func PercentileDisc() Function       { return Function{Name: "cypherPercentileDisc"} }
func Size() Function                 { return Function{Name: "cypherSize"} }
func Plus() Function                 { return Function{Name: "cypherPlus"} }
func Range() Function                { return Function{Name: "cypherRange"} }
func Exception(code string) Function { return Function{Name: "cypherException", Args: []any{code}} }

// ProcedureCall invokes a registered procedure with the traverser value as
// its argument list.
func ProcedureCall(name string) Function {
	return Function{Name: "cypherProcedureCall", Args: []any{name}}
}
