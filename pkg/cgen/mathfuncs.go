package cgen

import "sort"

type mathFunc struct {
	name  string // C name in <math.h>
	arity int
}

// mathFuncs lists the math module functions with a C equivalent
var mathFuncs = map[string]mathFunc{
	"sin":   {"sin", 1},
	"cos":   {"cos", 1},
	"tan":   {"tan", 1},
	"asin":  {"asin", 1},
	"acos":  {"acos", 1},
	"atan":  {"atan", 1},
	"atan2": {"atan2", 2},
	"sinh":  {"sinh", 1},
	"cosh":  {"cosh", 1},
	"tanh":  {"tanh", 1},
	"exp":   {"exp", 1},
	"log":   {"log", 1},
	"log10": {"log10", 1},
	"sqrt":  {"sqrt", 1},
	"fabs":  {"fabs", 1},
	"pow":   {"pow", 2},
	"ceil":  {"ceil", 1},
	"floor": {"floor", 1},
	"fmod":  {"fmod", 2},
	"hypot": {"hypot", 2},
	"round": {"round", 1},
}

// MathFunctions returns the supported math function names in sorted order
func MathFunctions() []string {
	names := make([]string, 0, len(mathFuncs))
	for n := range mathFuncs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
