// Package ctypes defines the closed C type model of generated code: every
// scalar is the wide floating type and loop counters are 64-bit integers.
package ctypes

import "strings"

// Type is the interface for all C types
type Type interface {
	implType()
	String() string
}

// Tlong represents the signed 64-bit 'long long' integer type
type Tlong struct{}

// Tfloat represents 'long double'
type Tfloat struct{}

// Tfunction represents function types
type Tfunction struct {
	Params []Type
	Return Type
}

// Marker methods for Type interface
func (Tlong) implType()     {}
func (Tfloat) implType()    {}
func (Tfunction) implType() {}

func (Tlong) String() string  { return "long long" }
func (Tfloat) String() string { return "long double" }

func (t Tfunction) String() string {
	params := make([]string, len(t.Params))
	for i, p := range t.Params {
		params[i] = p.String()
	}
	return t.Return.String() + " (" + strings.Join(params, ", ") + ")"
}

// Float returns the wide floating type used for every generated scalar
func Float() Type {
	return Tfloat{}
}

// Counter returns the type of loop induction variables
func Counter() Type {
	return Tlong{}
}

// Function returns the type of a generated function of the given arity:
// every parameter and the result are the wide floating type.
func Function(arity int) Tfunction {
	params := make([]Type, arity)
	for i := range params {
		params[i] = Float()
	}
	return Tfunction{Params: params, Return: Float()}
}

// Declare renders a declaration of name with type t, e.g. "long double x"
func Declare(t Type, name string) string {
	return t.String() + " " + name
}

// Cast renders a conversion of the operand x to t. x must already bind as
// tightly as a unary expression.
func Cast(t Type, x string) string {
	return "(" + t.String() + ")" + x
}

// LiteralSuffix returns the suffix that gives a numeric literal the width of t
func LiteralSuffix(t Type) string {
	if _, ok := t.(Tfloat); ok {
		return "L"
	}
	return ""
}

// PrintfVerb returns the printf conversion that prints t at full precision
func PrintfVerb(t Type) string {
	if _, ok := t.(Tfloat); ok {
		return "%.20Lf"
	}
	return "%lld"
}
