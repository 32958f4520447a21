package cgen

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/raymyers/ralph-jit/pkg/ctypes"
	"github.com/raymyers/ralph-jit/pkg/pyast"
)

// C operator precedence of rendered expressions, lowest first
const (
	precAnd = iota + 1 // comparison chains joined with &&
	precCmp
	precAdd
	precMul
	precUnary
	precAtom
)

// cexpr is a rendered C expression and the precedence of its outermost
// operator. integral marks expressions C evaluates in an integer type.
type cexpr struct {
	text     string
	prec     int
	integral bool
}

// wrap parenthesizes x when it binds looser than min
func (x cexpr) wrap(min int) string {
	if x.prec < min {
		return "(" + x.text + ")"
	}
	return x.text
}

// Binary operators lowered to libm calls
var libmOps = map[pyast.BinaryOp]string{
	pyast.OpPow: "pow",
	pyast.OpMod: "fmod",
}

var infixOps = map[pyast.BinaryOp]int{
	pyast.OpAdd: precAdd,
	pyast.OpSub: precAdd,
	pyast.OpMul: precMul,
	pyast.OpDiv: precMul,
}

func (g *Generator) expr(e pyast.Expr, sc *scope) (cexpr, error) {
	switch e := e.(type) {
	case pyast.Name:
		if text, ok := sc.lookup(e.ID); ok {
			return cexpr{text: text, prec: precAtom, integral: true}, nil
		}
		if err := checkIdent(e, e.ID); err != nil {
			return cexpr{}, err
		}
		return cexpr{text: e.ID, prec: precAtom}, nil
	case pyast.Num:
		return literal(e), nil
	case pyast.Binary:
		return g.binary(e, sc)
	case pyast.Unary:
		return g.unary(e, sc)
	case pyast.Compare:
		return g.compare(e, sc)
	case pyast.Call:
		return g.call(e, sc)
	}
	return cexpr{}, unsupported(e, "unsupported expression %s", pyast.Kind(e))
}

func (g *Generator) binary(e pyast.Binary, sc *scope) (cexpr, error) {
	fn, lib := libmOps[e.Op]
	prec, infix := infixOps[e.Op]
	if !lib && !infix {
		return cexpr{}, unsupported(e, "unsupported operator %s", e.Op)
	}
	l, err := g.expr(e.Left, sc)
	if err != nil {
		return cexpr{}, err
	}
	r, err := g.expr(e.Right, sc)
	if err != nil {
		return cexpr{}, err
	}
	if lib {
		if sc.isDeclared(fn) {
			return cexpr{}, unsupported(e, "%s is hidden by a variable of the same name", fn)
		}
		return cexpr{text: fn + "(" + l.text + ", " + r.text + ")", prec: precAtom}, nil
	}
	integral := l.integral && r.integral
	left := l.wrap(prec)
	if e.Op == pyast.OpDiv && integral {
		// '/' is true division even between integers
		left = ctypes.Cast(ctypes.Float(), l.wrap(precUnary))
		integral = false
	}
	// left-associative: an equal-precedence right operand keeps its parens
	return cexpr{text: left + " " + e.Op.String() + " " + r.wrap(prec+1), prec: prec, integral: integral}, nil
}

func (g *Generator) unary(e pyast.Unary, sc *scope) (cexpr, error) {
	if e.Op != pyast.OpNeg && e.Op != pyast.OpPos {
		return cexpr{}, unsupported(e, "unsupported unary operator %s", e.Op)
	}
	x, err := g.expr(e.X, sc)
	if err != nil {
		return cexpr{}, err
	}
	operand := x.wrap(precUnary)
	// keep "- -x" from becoming the decrement operator
	if strings.HasPrefix(operand, "-") || strings.HasPrefix(operand, "+") {
		operand = "(" + operand + ")"
	}
	return cexpr{text: e.Op.String() + operand, prec: precUnary, integral: x.integral}, nil
}

func (g *Generator) compare(e pyast.Compare, sc *scope) (cexpr, error) {
	if len(e.Ops) == 0 || len(e.Ops) != len(e.Comparators) {
		return cexpr{}, unsupported(e, "malformed comparison")
	}
	left, err := g.expr(e.Left, sc)
	if err != nil {
		return cexpr{}, err
	}
	pairs := make([]string, len(e.Ops))
	for i, op := range e.Ops {
		right, err := g.expr(e.Comparators[i], sc)
		if err != nil {
			return cexpr{}, err
		}
		pairs[i] = left.wrap(precCmp+1) + " " + op.String() + " " + right.wrap(precCmp+1)
		left = right
	}
	if len(pairs) == 1 {
		return cexpr{text: pairs[0], prec: precCmp, integral: true}, nil
	}
	return cexpr{text: strings.Join(pairs, " && "), prec: precAnd, integral: true}, nil
}

func (g *Generator) call(e pyast.Call, sc *scope) (cexpr, error) {
	var name string
	switch fn := e.Func.(type) {
	case pyast.Name:
		if err := checkIdent(fn, fn.ID); err != nil {
			return cexpr{}, err
		}
		name = fn.ID
	case pyast.Attribute:
		mod, ok := fn.X.(pyast.Name)
		if !ok || !g.mathModules[mod.ID] {
			return cexpr{}, unsupported(e, "unsupported qualified call")
		}
		m, ok := mathFuncs[fn.Name]
		if !ok {
			return cexpr{}, unsupported(e, "%s.%s is not a supported math function", mod.ID, fn.Name)
		}
		if len(e.Args) != m.arity {
			return cexpr{}, unsupported(e, "%s.%s takes %d argument(s), got %d", mod.ID, fn.Name, m.arity, len(e.Args))
		}
		name = m.name
		if sc.isDeclared(name) {
			return cexpr{}, unsupported(e, "%s is hidden by a variable of the same name", name)
		}
	default:
		return cexpr{}, unsupported(e, "unsupported callee %s", pyast.Kind(e.Func))
	}
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		x, err := g.expr(a, sc)
		if err != nil {
			return cexpr{}, err
		}
		args[i] = x.text
	}
	return cexpr{text: name + "(" + strings.Join(args, ", ") + ")", prec: precAtom}, nil
}

// Decimal exponents past which a literal leaves the long double range
const (
	maxExp10 = 4932
	minExp10 = -4951
)

// literal renders a numeric literal. Integers that fit in 64 bits keep an
// integer constant; everything else becomes a floating constant, written
// in exponent form once plain digits would run long.
func literal(n pyast.Num) cexpr {
	v := n.Value
	neg := v.IsNegative()
	coef := new(big.Int).Abs(v.Coefficient())
	exp := int(v.Exponent())
	adjusted := exp + len(coef.String()) - 1

	var text string
	integral := false
	switch {
	case v.IsZero():
		text = n.Text() + ctypes.LiteralSuffix(ctypes.Float())
		integral = !n.Float
	case adjusted > maxExp10:
		text = "(1.0L / 0.0L)"
	case adjusted < minExp10:
		text = "0.0" + ctypes.LiteralSuffix(ctypes.Float())
	case !n.Float && v.IsInteger() && v.BigInt().IsInt64():
		text = v.Abs().String() + ctypes.LiteralSuffix(ctypes.Float())
		integral = true
	case exp >= -40 && exp <= 40:
		text = v.Abs().String()
		if !strings.ContainsAny(text, ".eE") {
			text += ".0"
		}
		text += ctypes.LiteralSuffix(ctypes.Float())
	default:
		text = coef.String() + "e" + strconv.Itoa(exp) + ctypes.LiteralSuffix(ctypes.Float())
	}
	if neg {
		return cexpr{text: "-" + text, prec: precUnary, integral: integral}
	}
	return cexpr{text: text, prec: precAtom, integral: integral}
}
