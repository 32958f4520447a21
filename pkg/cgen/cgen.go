// Package cgen translates a numeric Python function into a C function that
// computes in long double and unrolls every counted loop.
package cgen

import (
	"strings"

	"github.com/raymyers/ralph-jit/pkg/ctypes"
	"github.com/raymyers/ralph-jit/pkg/pyast"
)

// Header is the preamble of every translation unit
const Header = "#include <stdio.h>\n#include <math.h>\n"

// UnrollFactor is the number of body copies emitted per loop iteration
const UnrollFactor = 32

const indentUnit = "    "

// Options configures code generation
type Options struct {
	// Redeclare emits 'long double t = e;' for every assignment instead of
	// declaring each name once per C scope.
	Redeclare bool
	// MathModules are the names under which math functions may be called.
	// Defaults to "math".
	MathModules []string
}

// Generator translates syntax trees to C. A Generator holds no mutable
// state and may be used from several goroutines.
type Generator struct {
	opts        Options
	mathModules map[string]bool
}

// New creates a generator
func New(opts Options) *Generator {
	mods := opts.MathModules
	if len(mods) == 0 {
		mods = []string{"math"}
	}
	g := &Generator{opts: opts, mathModules: make(map[string]bool, len(mods))}
	for _, m := range mods {
		g.mathModules[m] = true
	}
	return g
}

// Translate renders the first function of m, preceded by Header
func Translate(m *pyast.Module) (string, error) {
	return New(Options{}).Translate(m)
}

// Translate renders the first function of m, preceded by Header
func (g *Generator) Translate(m *pyast.Module) (string, error) {
	fn, ok := FirstFunction(m)
	if !ok {
		return "", &TranslationError{Kind: "Module", Detail: "no function definition found"}
	}
	code, err := g.TranslateFunction(fn)
	if err != nil {
		return "", err
	}
	return Header + code, nil
}

// FirstFunction returns the first top-level function definition of m
func FirstFunction(m *pyast.Module) (*pyast.FunctionDef, bool) {
	if m == nil {
		return nil, false
	}
	for _, s := range m.Body {
		if fn, ok := s.(pyast.FunctionDef); ok {
			return &fn, true
		}
	}
	return nil, false
}

// TranslateFunction renders fn as a C function definition
func (g *Generator) TranslateFunction(fn *pyast.FunctionDef) (string, error) {
	if fn == nil {
		return "", &TranslationError{Kind: "FunctionDef", Detail: "nil function"}
	}
	if err := checkFunctionName(fn); err != nil {
		return "", err
	}
	sig := ctypes.Function(len(fn.Params))
	sc := newScope(sourceNames(fn))
	params := make([]string, len(fn.Params))
	seen := make(map[string]bool, len(fn.Params))
	for i, p := range fn.Params {
		if err := checkIdent(*fn, p); err != nil {
			return "", err
		}
		if seen[p] {
			return "", unsupported(*fn, "duplicate parameter %s", p)
		}
		seen[p] = true
		sc.declare(p)
		params[i] = ctypes.Declare(sig.Params[i], p)
	}
	body, err := g.block(fn.Body, sc)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(ctypes.Declare(sig.Return, fn.Name))
	sb.WriteString("(" + strings.Join(params, ", ") + ") {\n")
	sb.WriteString(indent(body))
	sb.WriteString("\n}")
	return sb.String(), nil
}

// indent prefixes every non-empty line of s with one indentation unit
func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = indentUnit + l
		}
	}
	return strings.Join(lines, "\n")
}

// braced renders 'head {', the indented body and a closing brace
func braced(head, body string) string {
	return head + " {\n" + indent(body) + "\n}"
}
