package cgen

import (
	"strings"

	"github.com/raymyers/ralph-jit/pkg/ctypes"
	"github.com/raymyers/ralph-jit/pkg/pyast"
)

// block renders a statement list, one statement per line group
func (g *Generator) block(body []pyast.Stmt, sc *scope) (string, error) {
	parts := make([]string, 0, len(body))
	for _, s := range body {
		text, err := g.stmt(s, sc)
		if err != nil {
			return "", err
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n"), nil
}

func (g *Generator) stmt(s pyast.Stmt, sc *scope) (string, error) {
	switch s := s.(type) {
	case pyast.Return:
		return g.returnStmt(s, sc)
	case pyast.Assign:
		return g.assign(s, sc)
	case pyast.AugAssign:
		return g.augAssign(s, sc)
	case pyast.For:
		return g.forRange(s, sc)
	case pyast.While:
		cond, err := g.expr(s.Cond, sc)
		if err != nil {
			return "", err
		}
		body, err := g.block(s.Body, sc.child())
		if err != nil {
			return "", err
		}
		return braced("while("+cond.text+")", body), nil
	case pyast.If:
		return g.ifStmt(s, sc)
	case pyast.ExprStmt:
		x, err := g.expr(s.X, sc)
		if err != nil {
			return "", err
		}
		return x.text + ";", nil
	case pyast.FunctionDef:
		return "", unsupported(s, "nested function definitions are not supported")
	}
	return "", unsupported(s, "unsupported statement %s", pyast.Kind(s))
}

func (g *Generator) returnStmt(s pyast.Return, sc *scope) (string, error) {
	if s.Value == nil {
		return "", unsupported(s, "return without a value is not supported")
	}
	v, err := g.expr(s.Value, sc)
	if err != nil {
		return "", err
	}
	return "return " + v.text + ";", nil
}

// target resolves an assignment target to a plain, assignable name
func (g *Generator) target(stmt pyast.Stmt, t pyast.Expr, sc *scope) (string, error) {
	name, ok := t.(pyast.Name)
	if !ok {
		return "", unsupported(stmt, "unsupported assignment target %s", pyast.Kind(t))
	}
	if _, bound := sc.lookup(name.ID); bound {
		return "", unsupported(stmt, "cannot assign to loop variable %s", name.ID)
	}
	if err := checkIdent(stmt, name.ID); err != nil {
		return "", err
	}
	return name.ID, nil
}

func (g *Generator) assign(s pyast.Assign, sc *scope) (string, error) {
	if len(s.Targets) != 1 {
		return "", unsupported(s, "chained assignment is not supported")
	}
	name, err := g.target(s, s.Targets[0], sc)
	if err != nil {
		return "", err
	}
	v, err := g.expr(s.Value, sc)
	if err != nil {
		return "", err
	}
	if g.opts.Redeclare || !sc.isDeclared(name) {
		sc.declare(name)
		return ctypes.Declare(ctypes.Float(), name) + " = " + v.text + ";", nil
	}
	return name + " = " + v.text + ";", nil
}

var compoundOps = map[pyast.BinaryOp]string{
	pyast.OpAdd: "+=",
	pyast.OpSub: "-=",
	pyast.OpMul: "*=",
	pyast.OpDiv: "/=",
}

func (g *Generator) augAssign(s pyast.AugAssign, sc *scope) (string, error) {
	name, err := g.target(s, s.Target, sc)
	if err != nil {
		return "", err
	}
	v, err := g.expr(s.Value, sc)
	if err != nil {
		return "", err
	}
	if op, ok := compoundOps[s.Op]; ok {
		return name + " " + op + " " + v.text + ";", nil
	}
	if fn, ok := libmOps[s.Op]; ok {
		if sc.isDeclared(fn) {
			return "", unsupported(s, "%s is hidden by a variable of the same name", fn)
		}
		return name + " = " + fn + "(" + name + ", " + v.text + ");", nil
	}
	return "", unsupported(s, "unsupported augmented operator %s=", s.Op)
}

func (g *Generator) ifStmt(s pyast.If, sc *scope) (string, error) {
	cond, err := g.expr(s.Cond, sc)
	if err != nil {
		return "", err
	}
	then, err := g.block(s.Then, sc.child())
	if err != nil {
		return "", err
	}
	out := braced("if("+cond.text+")", then)
	if len(s.Else) > 0 {
		els, err := g.block(s.Else, sc.child())
		if err != nil {
			return "", err
		}
		out += " " + braced("else", els)
	}
	return out, nil
}
