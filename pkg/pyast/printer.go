// Package pyast provides source printing for syntax trees
package pyast

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Printer outputs a syntax tree as Python source
type Printer struct {
	w      io.Writer
	indent int
}

// NewPrinter creates a new tree printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, indent: 0}
}

// Format renders a single node as Python source without a trailing newline
func Format(n Node) string {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	switch n := n.(type) {
	case Expr:
		fmt.Fprint(&buf, p.expr(n, 0))
	case Stmt:
		p.PrintStmt(n)
	}
	return strings.TrimRight(buf.String(), "\n")
}

// PrintModule prints every top-level statement of a module
func (p *Printer) PrintModule(m *Module) {
	for _, s := range m.Body {
		p.PrintStmt(s)
	}
}

func (p *Printer) writeIndent() {
	fmt.Fprint(p.w, strings.Repeat("    ", p.indent))
}

func (p *Printer) printBody(body []Stmt) {
	p.indent++
	for _, s := range body {
		p.PrintStmt(s)
	}
	p.indent--
}

// PrintStmt prints one statement, including nested blocks
func (p *Printer) PrintStmt(s Stmt) {
	switch s := s.(type) {
	case FunctionDef:
		p.writeIndent()
		fmt.Fprintf(p.w, "def %s(%s):\n", s.Name, strings.Join(s.Params, ", "))
		if s.Doc != "" {
			p.indent++
			p.writeIndent()
			fmt.Fprintf(p.w, "%q\n", s.Doc)
			p.indent--
		}
		p.printBody(s.Body)
	case Return:
		p.writeIndent()
		if s.Value == nil {
			fmt.Fprintln(p.w, "return")
		} else {
			fmt.Fprintf(p.w, "return %s\n", p.expr(s.Value, 0))
		}
	case Assign:
		p.writeIndent()
		for _, t := range s.Targets {
			fmt.Fprintf(p.w, "%s = ", p.expr(t, 0))
		}
		fmt.Fprintln(p.w, p.expr(s.Value, 0))
	case AugAssign:
		p.writeIndent()
		fmt.Fprintf(p.w, "%s %s= %s\n", p.expr(s.Target, 0), s.Op, p.expr(s.Value, 0))
	case For:
		p.writeIndent()
		fmt.Fprintf(p.w, "for %s in %s:\n", p.expr(s.Target, 0), p.expr(s.Iter, 0))
		p.printBody(s.Body)
	case While:
		p.writeIndent()
		fmt.Fprintf(p.w, "while %s:\n", p.expr(s.Cond, 0))
		p.printBody(s.Body)
	case If:
		p.printIf(s, "if")
	case ExprStmt:
		p.writeIndent()
		fmt.Fprintln(p.w, p.expr(s.X, 0))
	case Pass:
		p.writeIndent()
		fmt.Fprintln(p.w, "pass")
	case Break:
		p.writeIndent()
		fmt.Fprintln(p.w, "break")
	case Continue:
		p.writeIndent()
		fmt.Fprintln(p.w, "continue")
	case Import:
		p.writeIndent()
		var names []string
		for _, a := range s.Names {
			if a.AsName != "" {
				names = append(names, a.Name+" as "+a.AsName)
			} else {
				names = append(names, a.Name)
			}
		}
		if s.From != "" {
			fmt.Fprintf(p.w, "from %s import %s\n", s.From, strings.Join(names, ", "))
		} else {
			fmt.Fprintf(p.w, "import %s\n", strings.Join(names, ", "))
		}
	default:
		p.writeIndent()
		fmt.Fprintf(p.w, "# unknown statement %T\n", s)
	}
}

func (p *Printer) printIf(s If, keyword string) {
	p.writeIndent()
	fmt.Fprintf(p.w, "%s %s:\n", keyword, p.expr(s.Cond, 0))
	p.printBody(s.Then)
	if len(s.Else) == 0 {
		return
	}
	if len(s.Else) == 1 {
		if elif, ok := s.Else[0].(If); ok {
			p.printIf(elif, "elif")
			return
		}
	}
	p.writeIndent()
	fmt.Fprintln(p.w, "else:")
	p.printBody(s.Else)
}

// Python operator precedence, lowest first
const (
	precOr = iota + 1
	precAnd
	precNot
	precCompare
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precAdd
	precMul
	precUnary
	precPow
	precAtom
)

func binaryPrec(op BinaryOp) int {
	switch op {
	case OpAdd, OpSub:
		return precAdd
	case OpMul, OpDiv, OpFloorDiv, OpMod:
		return precMul
	case OpPow:
		return precPow
	case OpBitAnd:
		return precBitAnd
	case OpBitOr:
		return precBitOr
	case OpBitXor:
		return precBitXor
	case OpShl, OpShr:
		return precShift
	}
	return precAtom
}

func exprPrec(e Expr) int {
	switch e := e.(type) {
	case BoolOp:
		if e.Op == And {
			return precAnd
		}
		return precOr
	case Unary:
		if e.Op == OpNot {
			return precNot
		}
		return precUnary
	case Compare:
		return precCompare
	case Binary:
		return binaryPrec(e.Op)
	}
	return precAtom
}

// expr renders e, parenthesizing it when it binds looser than min
func (p *Printer) expr(e Expr, min int) string {
	s := p.exprText(e)
	if exprPrec(e) < min {
		return "(" + s + ")"
	}
	return s
}

func (p *Printer) exprText(e Expr) string {
	switch e := e.(type) {
	case Name:
		return e.ID
	case Num:
		return e.Text()
	case Str:
		return fmt.Sprintf("%q", e.Value)
	case Constant:
		return e.Value
	case Attribute:
		return p.expr(e.X, precAtom) + "." + e.Name
	case Call:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = p.expr(a, 0)
		}
		return p.expr(e.Func, precAtom) + "(" + strings.Join(args, ", ") + ")"
	case Unary:
		if e.Op == OpNot {
			return "not " + p.expr(e.X, precNot)
		}
		return e.Op.String() + p.expr(e.X, precUnary)
	case Binary:
		prec := binaryPrec(e.Op)
		if e.Op == OpPow {
			// right-associative
			return p.expr(e.Left, prec+1) + " ** " + p.expr(e.Right, precUnary)
		}
		return p.expr(e.Left, prec) + " " + e.Op.String() + " " + p.expr(e.Right, prec+1)
	case Compare:
		var sb strings.Builder
		sb.WriteString(p.expr(e.Left, precCompare+1))
		for i, op := range e.Ops {
			if i >= len(e.Comparators) {
				break
			}
			sb.WriteString(" " + op.String() + " ")
			sb.WriteString(p.expr(e.Comparators[i], precCompare+1))
		}
		return sb.String()
	case BoolOp:
		prec := exprPrec(e)
		parts := make([]string, len(e.Values))
		for i, v := range e.Values {
			parts[i] = p.expr(v, prec+1)
		}
		return strings.Join(parts, " "+e.Op.String()+" ")
	}
	return fmt.Sprintf("<%T>", e)
}

// Text renders the literal the way Python prints it: floats always carry
// a decimal point so the value keeps its floating type.
func (n Num) Text() string {
	s := n.Value.String()
	if n.Float && !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
