// Package pyast defines the syntax tree for the numeric Python subset accepted by ralph-jit
package pyast

import "github.com/shopspring/decimal"

// Pos is a source position. The zero value means the node was built by hand.
type Pos struct {
	Line int
	Col  int
}

// Node is the base interface for all syntax tree nodes
type Node interface {
	implPyNode()
	Position() Pos
}

// Expr is the interface for all expression nodes
type Expr interface {
	Node
	implPyExpr()
}

// Stmt is the interface for all statement nodes
type Stmt interface {
	Node
	implPyStmt()
}

// BinaryOp represents binary arithmetic and bitwise operators
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpFloorDiv // //
	OpMod
	OpPow // **
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl // <<
	OpShr // >>
)

func (op BinaryOp) String() string {
	names := []string{"+", "-", "*", "/", "//", "%", "**", "&", "|", "^", "<<", ">>"}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// UnaryOp represents unary operators
type UnaryOp int

const (
	OpNeg    UnaryOp = iota // -
	OpPos                   // +
	OpNot                   // not
	OpInvert                // ~
)

func (op UnaryOp) String() string {
	names := []string{"-", "+", "not", "~"}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// CmpOp represents comparison operators
type CmpOp int

const (
	CmpLt CmpOp = iota
	CmpLe
	CmpGt
	CmpGe
	CmpEq
	CmpNe
)

func (op CmpOp) String() string {
	names := []string{"<", "<=", ">", ">=", "==", "!="}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// BoolOpKind distinguishes 'and' from 'or'
type BoolOpKind int

const (
	And BoolOpKind = iota
	Or
)

func (k BoolOpKind) String() string {
	if k == And {
		return "and"
	}
	return "or"
}

// Module is a parsed source file
type Module struct {
	Body []Stmt
}

// FunctionDef represents a 'def' statement
type FunctionDef struct {
	Pos
	Name   string
	Params []string
	Body   []Stmt
	Doc    string // leading docstring, if any
}

// Return represents 'return expr'. Value is nil for a bare return.
type Return struct {
	Pos
	Value Expr
}

// Assign represents 't = expr'. Chained assignments carry several targets.
type Assign struct {
	Pos
	Targets []Expr
	Value   Expr
}

// AugAssign represents 't op= expr'
type AugAssign struct {
	Pos
	Target Expr
	Op     BinaryOp
	Value  Expr
}

// For represents 'for target in iter: body'
type For struct {
	Pos
	Target Expr
	Iter   Expr
	Body   []Stmt
}

// While represents 'while cond: body'
type While struct {
	Pos
	Cond Expr
	Body []Stmt
}

// If represents 'if cond: then else: else'. An elif chain nests in Else.
type If struct {
	Pos
	Cond Expr
	Then []Stmt
	Else []Stmt
}

// ExprStmt is an expression evaluated for its effect
type ExprStmt struct {
	Pos
	X Expr
}

// Pass represents 'pass'
type Pass struct{ Pos }

// Break represents 'break'
type Break struct{ Pos }

// Continue represents 'continue'
type Continue struct{ Pos }

// Import represents 'import a [as b]' and 'from a import b [as c]'
type Import struct {
	Pos
	From  string // module for from-imports, empty otherwise
	Names []Alias
}

// Alias is one imported name
type Alias struct {
	Name   string
	AsName string
}

// Binary represents 'left op right'
type Binary struct {
	Pos
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// Unary represents 'op x'
type Unary struct {
	Pos
	Op UnaryOp
	X  Expr
}

// Compare represents a comparison chain 'left op1 c1 op2 c2 ...'
type Compare struct {
	Pos
	Left        Expr
	Ops         []CmpOp
	Comparators []Expr
}

// BoolOp represents 'a and b and c' or 'a or b'
type BoolOp struct {
	Pos
	Op     BoolOpKind
	Values []Expr
}

// Call represents 'func(args...)'
type Call struct {
	Pos
	Func Expr
	Args []Expr
}

// Attribute represents 'x.name'
type Attribute struct {
	Pos
	X    Expr
	Name string
}

// Name represents an identifier
type Name struct {
	Pos
	ID string
}

// Num represents a numeric literal
type Num struct {
	Pos
	Value decimal.Decimal
	Float bool // written with a decimal point or exponent
}

// Str represents a string literal
type Str struct {
	Pos
	Value string
}

// Constant represents True, False or None
type Constant struct {
	Pos
	Value string
}

// Position returns the node's source position
func (p Pos) Position() Pos { return p }

// IsValid reports whether the position came from a parser
func (p Pos) IsValid() bool { return p.Line > 0 }

// Marker methods for interface implementation
func (FunctionDef) implPyNode() {}
func (FunctionDef) implPyStmt() {}

func (Return) implPyNode() {}
func (Return) implPyStmt() {}

func (Assign) implPyNode() {}
func (Assign) implPyStmt() {}

func (AugAssign) implPyNode() {}
func (AugAssign) implPyStmt() {}

func (For) implPyNode() {}
func (For) implPyStmt() {}

func (While) implPyNode() {}
func (While) implPyStmt() {}

func (If) implPyNode() {}
func (If) implPyStmt() {}

func (ExprStmt) implPyNode() {}
func (ExprStmt) implPyStmt() {}

func (Pass) implPyNode() {}
func (Pass) implPyStmt() {}

func (Break) implPyNode() {}
func (Break) implPyStmt() {}

func (Continue) implPyNode() {}
func (Continue) implPyStmt() {}

func (Import) implPyNode() {}
func (Import) implPyStmt() {}

func (Binary) implPyNode() {}
func (Binary) implPyExpr() {}

func (Unary) implPyNode() {}
func (Unary) implPyExpr() {}

func (Compare) implPyNode() {}
func (Compare) implPyExpr() {}

func (BoolOp) implPyNode() {}
func (BoolOp) implPyExpr() {}

func (Call) implPyNode() {}
func (Call) implPyExpr() {}

func (Attribute) implPyNode() {}
func (Attribute) implPyExpr() {}

func (Name) implPyNode() {}
func (Name) implPyExpr() {}

func (Num) implPyNode() {}
func (Num) implPyExpr() {}

func (Str) implPyNode() {}
func (Str) implPyExpr() {}

func (Constant) implPyNode() {}
func (Constant) implPyExpr() {}

// Kind returns the node kind name used in diagnostics
func Kind(n Node) string {
	switch n.(type) {
	case FunctionDef, *FunctionDef:
		return "FunctionDef"
	case Return:
		return "Return"
	case Assign:
		return "Assign"
	case AugAssign:
		return "AugAssign"
	case For:
		return "For"
	case While:
		return "While"
	case If:
		return "If"
	case ExprStmt:
		return "Expr"
	case Pass:
		return "Pass"
	case Break:
		return "Break"
	case Continue:
		return "Continue"
	case Import:
		return "Import"
	case Binary:
		return "BinOp"
	case Unary:
		return "UnaryOp"
	case Compare:
		return "Compare"
	case BoolOp:
		return "BoolOp"
	case Call:
		return "Call"
	case Attribute:
		return "Attribute"
	case Name:
		return "Name"
	case Num:
		return "Num"
	case Str:
		return "Str"
	case Constant:
		return "Constant"
	}
	return "Unknown"
}

// IntLit builds an integer literal, mostly for hand-built trees in tests
func IntLit(v int64) Num {
	return Num{Value: decimal.NewFromInt(v)}
}

// FloatLit builds a float literal from its decimal text
func FloatLit(text string) Num {
	return Num{Value: decimal.RequireFromString(text), Float: true}
}
