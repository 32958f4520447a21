package cgen

import "github.com/raymyers/ralph-jit/pkg/pyast"

// cReserved are identifiers a Python name may not take in the generated
// unit: C keywords and the macros and objects of the included headers.
var cReserved = map[string]bool{
	"auto": true, "break": true, "case": true, "char": true, "const": true,
	"continue": true, "default": true, "do": true, "double": true, "else": true,
	"enum": true, "extern": true, "float": true, "for": true, "goto": true,
	"if": true, "inline": true, "int": true, "long": true, "register": true,
	"restrict": true, "return": true, "short": true, "signed": true,
	"sizeof": true, "static": true, "struct": true, "switch": true,
	"typedef": true, "union": true, "unsigned": true, "void": true,
	"volatile": true, "while": true, "_Alignas": true, "_Alignof": true,
	"_Atomic": true, "_Bool": true, "_Complex": true, "_Generic": true,
	"_Imaginary": true, "_Noreturn": true, "_Static_assert": true,
	"_Thread_local": true,

	"NULL": true, "EOF": true, "stdin": true, "stdout": true, "stderr": true,
	"errno": true, "INFINITY": true, "NAN": true, "HUGE_VAL": true,
	"HUGE_VALF": true, "HUGE_VALL": true,
}

// globalNames are the functions the generated program calls and the
// parameters of its main. The translated function may not take one of them.
var globalNames = func() map[string]bool {
	m := map[string]bool{
		"main": true, "argc": true, "argv": true,
		"printf": true, "fprintf": true, "strtold": true,
	}
	for _, fn := range libmOps {
		m[fn] = true
	}
	for _, f := range mathFuncs {
		m[f.name] = true
	}
	return m
}()

// checkIdent rejects a Python identifier that cannot be used as a C name
func checkIdent(n pyast.Node, name string) error {
	if cReserved[name] {
		return unsupported(n, "%s is a reserved word in C", name)
	}
	return nil
}

// checkFunctionName rejects names that collide with the program around
// the translated function
func checkFunctionName(fn *pyast.FunctionDef) error {
	if err := checkIdent(*fn, fn.Name); err != nil {
		return err
	}
	if globalNames[fn.Name] {
		return unsupported(*fn, "function name %s is reserved", fn.Name)
	}
	return nil
}

// sourceNames collects every identifier fn mentions
func sourceNames(fn *pyast.FunctionDef) map[string]bool {
	names := map[string]bool{fn.Name: true}
	for _, p := range fn.Params {
		names[p] = true
	}
	var stmts func([]pyast.Stmt)
	var expr func(pyast.Expr)
	expr = func(e pyast.Expr) {
		switch e := e.(type) {
		case pyast.Name:
			names[e.ID] = true
		case pyast.Binary:
			expr(e.Left)
			expr(e.Right)
		case pyast.Unary:
			expr(e.X)
		case pyast.Compare:
			expr(e.Left)
			for _, c := range e.Comparators {
				expr(c)
			}
		case pyast.BoolOp:
			for _, v := range e.Values {
				expr(v)
			}
		case pyast.Call:
			expr(e.Func)
			for _, a := range e.Args {
				expr(a)
			}
		case pyast.Attribute:
			expr(e.X)
		}
	}
	stmts = func(body []pyast.Stmt) {
		for _, s := range body {
			switch s := s.(type) {
			case pyast.Return:
				if s.Value != nil {
					expr(s.Value)
				}
			case pyast.Assign:
				for _, t := range s.Targets {
					expr(t)
				}
				expr(s.Value)
			case pyast.AugAssign:
				expr(s.Target)
				expr(s.Value)
			case pyast.For:
				expr(s.Target)
				expr(s.Iter)
				stmts(s.Body)
			case pyast.While:
				expr(s.Cond)
				stmts(s.Body)
			case pyast.If:
				expr(s.Cond)
				stmts(s.Then)
				stmts(s.Else)
			case pyast.ExprStmt:
				expr(s.X)
			}
		}
	}
	stmts(fn.Body)
	return names
}
