package parser

import (
	"fmt"

	"github.com/raymyers/ralph-jit/pkg/lexer"
	"github.com/raymyers/ralph-jit/pkg/pyast"
)

// parseExpression parses a full expression (lowest precedence: 'or')
func (p *Parser) parseExpression() pyast.Expr {
	return p.parseOr()
}

func (p *Parser) parseOr() pyast.Expr {
	return p.parseBoolOp(lexer.TokenOr, pyast.Or, p.parseAnd)
}

func (p *Parser) parseAnd() pyast.Expr {
	return p.parseBoolOp(lexer.TokenAnd, pyast.And, p.parseNot)
}

func (p *Parser) parseBoolOp(tok lexer.TokenType, kind pyast.BoolOpKind, next func() pyast.Expr) pyast.Expr {
	pos := p.pos()
	first := next()
	if first == nil || !p.curTokenIs(tok) {
		return first
	}
	values := []pyast.Expr{first}
	for p.curTokenIs(tok) {
		p.nextToken()
		v := next()
		if v == nil {
			return nil
		}
		values = append(values, v)
	}
	return pyast.BoolOp{Pos: pos, Op: kind, Values: values}
}

func (p *Parser) parseNot() pyast.Expr {
	if p.curTokenIs(lexer.TokenNot) {
		pos := p.pos()
		p.nextToken()
		x := p.parseNot()
		if x == nil {
			return nil
		}
		return pyast.Unary{Pos: pos, Op: pyast.OpNot, X: x}
	}
	return p.parseComparison()
}

var comparisonOps = map[lexer.TokenType]pyast.CmpOp{
	lexer.TokenLt: pyast.CmpLt,
	lexer.TokenLe: pyast.CmpLe,
	lexer.TokenGt: pyast.CmpGt,
	lexer.TokenGe: pyast.CmpGe,
	lexer.TokenEq: pyast.CmpEq,
	lexer.TokenNe: pyast.CmpNe,
}

func (p *Parser) parseComparison() pyast.Expr {
	pos := p.pos()
	left := p.parseBitOr()
	if left == nil {
		return nil
	}
	if _, ok := comparisonOps[p.curToken.Type]; !ok {
		if p.curTokenIs(lexer.TokenIn) || (p.curTokenIs(lexer.TokenNot) && p.peekTokenIs(lexer.TokenIn)) {
			p.addError("membership tests are not supported")
			return nil
		}
		return left
	}
	cmp := pyast.Compare{Pos: pos, Left: left}
	for {
		op, ok := comparisonOps[p.curToken.Type]
		if !ok {
			break
		}
		p.nextToken()
		right := p.parseBitOr()
		if right == nil {
			return nil
		}
		cmp.Ops = append(cmp.Ops, op)
		cmp.Comparators = append(cmp.Comparators, right)
	}
	return cmp
}

// binaryLevel parses one left-associative binary precedence level
func (p *Parser) binaryLevel(ops map[lexer.TokenType]pyast.BinaryOp, next func() pyast.Expr) pyast.Expr {
	left := next()
	if left == nil {
		return nil
	}
	for {
		op, ok := ops[p.curToken.Type]
		if !ok {
			return left
		}
		pos := p.pos()
		p.nextToken()
		right := next()
		if right == nil {
			return nil
		}
		left = pyast.Binary{Pos: pos, Op: op, Left: left, Right: right}
	}
}

var (
	bitOrOps  = map[lexer.TokenType]pyast.BinaryOp{lexer.TokenPipe: pyast.OpBitOr}
	bitXorOps = map[lexer.TokenType]pyast.BinaryOp{lexer.TokenCaret: pyast.OpBitXor}
	bitAndOps = map[lexer.TokenType]pyast.BinaryOp{lexer.TokenAmpersand: pyast.OpBitAnd}
	shiftOps  = map[lexer.TokenType]pyast.BinaryOp{lexer.TokenShl: pyast.OpShl, lexer.TokenShr: pyast.OpShr}
	arithOps  = map[lexer.TokenType]pyast.BinaryOp{lexer.TokenPlus: pyast.OpAdd, lexer.TokenMinus: pyast.OpSub}
	termOps   = map[lexer.TokenType]pyast.BinaryOp{
		lexer.TokenStar:        pyast.OpMul,
		lexer.TokenSlash:       pyast.OpDiv,
		lexer.TokenDoubleSlash: pyast.OpFloorDiv,
		lexer.TokenPercent:     pyast.OpMod,
	}
)

func (p *Parser) parseBitOr() pyast.Expr  { return p.binaryLevel(bitOrOps, p.parseBitXor) }
func (p *Parser) parseBitXor() pyast.Expr { return p.binaryLevel(bitXorOps, p.parseBitAnd) }
func (p *Parser) parseBitAnd() pyast.Expr { return p.binaryLevel(bitAndOps, p.parseShift) }
func (p *Parser) parseShift() pyast.Expr  { return p.binaryLevel(shiftOps, p.parseArith) }
func (p *Parser) parseArith() pyast.Expr  { return p.binaryLevel(arithOps, p.parseTerm) }
func (p *Parser) parseTerm() pyast.Expr   { return p.binaryLevel(termOps, p.parseFactor) }

var unaryOps = map[lexer.TokenType]pyast.UnaryOp{
	lexer.TokenMinus: pyast.OpNeg,
	lexer.TokenPlus:  pyast.OpPos,
	lexer.TokenTilde: pyast.OpInvert,
}

func (p *Parser) parseFactor() pyast.Expr {
	if op, ok := unaryOps[p.curToken.Type]; ok {
		pos := p.pos()
		p.nextToken()
		x := p.parseFactor()
		if x == nil {
			return nil
		}
		return pyast.Unary{Pos: pos, Op: op, X: x}
	}
	return p.parsePower()
}

// parsePower parses 'primary ** factor'; '**' is right-associative and
// binds tighter than a unary operator on its left.
func (p *Parser) parsePower() pyast.Expr {
	left := p.parsePrimary()
	if left == nil || !p.curTokenIs(lexer.TokenPower) {
		return left
	}
	pos := p.pos()
	p.nextToken()
	right := p.parseFactor()
	if right == nil {
		return nil
	}
	return pyast.Binary{Pos: pos, Op: pyast.OpPow, Left: left, Right: right}
}

func (p *Parser) parsePrimary() pyast.Expr {
	x := p.parseAtom()
	if x == nil {
		return nil
	}
	for {
		switch p.curToken.Type {
		case lexer.TokenLParen:
			call := pyast.Call{Pos: x.Position(), Func: x}
			p.nextToken()
			args, ok := p.parseArguments()
			if !ok {
				return nil
			}
			call.Args = args
			x = call
		case lexer.TokenDot:
			p.nextToken()
			if !p.curTokenIs(lexer.TokenIdent) {
				p.addError(fmt.Sprintf("expected attribute name, got %s", p.describe(p.curToken)))
				return nil
			}
			x = pyast.Attribute{Pos: x.Position(), X: x, Name: p.curToken.Literal}
			p.nextToken()
		case lexer.TokenLBracket:
			p.addError("subscripts are not supported")
			return nil
		default:
			return x
		}
	}
}

// parseArguments parses call arguments after '(' through the closing ')'
func (p *Parser) parseArguments() ([]pyast.Expr, bool) {
	var args []pyast.Expr
	for !p.curTokenIs(lexer.TokenRParen) {
		if p.curTokenIs(lexer.TokenStar) || p.curTokenIs(lexer.TokenPower) {
			p.addError("argument unpacking is not supported")
			return nil, false
		}
		if p.curTokenIs(lexer.TokenIdent) && p.peekTokenIs(lexer.TokenAssign) {
			p.addError(fmt.Sprintf("keyword argument %s is not supported", p.curToken.Literal))
			return nil, false
		}
		arg := p.parseExpression()
		if arg == nil {
			return nil, false
		}
		args = append(args, arg)
		if !p.curTokenIs(lexer.TokenComma) {
			break
		}
		p.nextToken()
	}
	if !p.expect(lexer.TokenRParen) {
		return nil, false
	}
	return args, true
}

func (p *Parser) parseAtom() pyast.Expr {
	pos := p.pos()
	switch p.curToken.Type {
	case lexer.TokenIdent:
		name := pyast.Name{Pos: pos, ID: p.curToken.Literal}
		p.nextToken()
		return name
	case lexer.TokenNumber:
		num, ok := p.parseNumber(p.curToken.Literal)
		if !ok {
			return nil
		}
		num.Pos = pos
		p.nextToken()
		return num
	case lexer.TokenString:
		s := pyast.Str{Pos: pos}
		for p.curTokenIs(lexer.TokenString) {
			s.Value += p.curToken.Literal
			p.nextToken()
		}
		return s
	case lexer.TokenTrue, lexer.TokenFalse, lexer.TokenNone:
		c := pyast.Constant{Pos: pos, Value: p.curToken.Literal}
		p.nextToken()
		return c
	case lexer.TokenLParen:
		p.nextToken()
		if p.curTokenIs(lexer.TokenRParen) {
			p.addError("tuples are not supported")
			return nil
		}
		x := p.parseExpression()
		if x == nil {
			return nil
		}
		if p.curTokenIs(lexer.TokenComma) {
			p.addError("tuples are not supported")
			return nil
		}
		if !p.expect(lexer.TokenRParen) {
			return nil
		}
		return x
	case lexer.TokenLBracket, lexer.TokenLBrace:
		p.addError("collection literals are not supported")
		return nil
	}
	p.addError(fmt.Sprintf("expected expression, got %s", p.describe(p.curToken)))
	return nil
}
