package ast

import "strings"

// Type is the static type of a query value.
type Type string

const (
	TypeAny          Type = "ANY"
	TypeNull         Type = "NULL"
	TypeBoolean      Type = "BOOLEAN"
	TypeInteger      Type = "INTEGER"
	TypeFloat        Type = "FLOAT"
	TypeNumber       Type = "NUMBER"
	TypeString       Type = "STRING"
	TypeList         Type = "LIST"
	TypeMap          Type = "MAP"
	TypeNode         Type = "NODE"
	TypeRelationship Type = "RELATIONSHIP"
	TypePath         Type = "PATH"
)

var typeNames = map[string]Type{
	"ANY":          TypeAny,
	"NULL":         TypeNull,
	"BOOLEAN":      TypeBoolean,
	"BOOL":         TypeBoolean,
	"INTEGER":      TypeInteger,
	"INT":          TypeInteger,
	"FLOAT":        TypeFloat,
	"NUMBER":       TypeNumber,
	"STRING":       TypeString,
	"LIST":         TypeList,
	"MAP":          TypeMap,
	"NODE":         TypeNode,
	"RELATIONSHIP": TypeRelationship,
	"PATH":         TypePath,
}

// ParseType reads a type name such as "INTEGER" or "LIST OF STRING".
// Element types of lists are not tracked.
func ParseType(s string) (Type, bool) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if strings.HasPrefix(name, "LIST") {
		return TypeList, true
	}
	t, ok := typeNames[name]
	return t, ok
}

// Numeric reports whether t is a number type.
func (t Type) Numeric() bool {
	return t == TypeInteger || t == TypeFloat || t == TypeNumber
}

// Element reports whether t is a graph element type.
func (t Type) Element() bool {
	return t == TypeNode || t == TypeRelationship
}

// AssignableTo reports whether a value of type t may be passed where want
// is expected. Unknown and null values are always accepted; the check is
// repeated at run time by the engine.
func (t Type) AssignableTo(want Type) bool {
	switch {
	case t == want, want == TypeAny, t == TypeAny, t == TypeNull:
		return true
	case want == TypeNumber:
		return t.Numeric()
	case want == TypeFloat:
		return t == TypeInteger || t == TypeNumber
	case want == TypeInteger:
		return t == TypeNumber
	}
	return false
}

// Join returns the narrowest type covering both t and u.
func (t Type) Join(u Type) Type {
	switch {
	case t == u:
		return t
	case t == TypeNull || t == "":
		return u
	case u == TypeNull || u == "":
		return t
	case t.Numeric() && u.Numeric():
		return TypeNumber
	}
	return TypeAny
}
