// Package parser implements a recursive descent parser for the numeric Python subset
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/raymyers/ralph-jit/pkg/lexer"
	"github.com/raymyers/ralph-jit/pkg/pyast"
	"github.com/shopspring/decimal"
)

// Parser parses Python source code into a pyast syntax tree
type Parser struct {
	l         *lexer.Lexer
	curToken  lexer.Token
	peekToken lexer.Token
	errors    []string
}

// New creates a new Parser for the given lexer
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	// Read two tokens to initialize curToken and peekToken
	p.nextToken()
	p.nextToken()
	return p
}

// ParseSource lexes and parses src, folding any parse errors into one error
func ParseSource(src string) (*pyast.Module, error) {
	p := New(lexer.New(src))
	m := p.ParseModule()
	if len(p.Errors()) > 0 {
		return nil, errors.New(strings.Join(p.Errors(), "\n"))
	}
	return m, nil
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

// Errors returns the list of parsing errors
func (p *Parser) Errors() []string {
	return p.errors
}

func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, fmt.Sprintf("line %d, col %d: %s",
		p.curToken.Line, p.curToken.Column, msg))
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t lexer.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expect(t lexer.TokenType) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf("expected %s, got %s", t, p.describe(p.curToken)))
	return false
}

func (p *Parser) describe(tok lexer.Token) string {
	if tok.Type == lexer.TokenIllegal && tok.Literal != "" {
		return fmt.Sprintf("ILLEGAL %q", tok.Literal)
	}
	return tok.Type.String()
}

func (p *Parser) pos() pyast.Pos {
	return pyast.Pos{Line: p.curToken.Line, Col: p.curToken.Column}
}

// ParseModule parses a whole source file
func (p *Parser) ParseModule() *pyast.Module {
	m := &pyast.Module{}
	for !p.curTokenIs(lexer.TokenEOF) {
		if p.curTokenIs(lexer.TokenNewline) {
			p.nextToken()
			continue
		}
		errCount := len(p.errors)
		stmts := p.parseStatement()
		m.Body = append(m.Body, stmts...)
		if len(p.errors) > errCount {
			break
		}
	}
	return m
}

// parseStatement parses one statement; a line of ';'-separated simple
// statements yields several.
func (p *Parser) parseStatement() []pyast.Stmt {
	switch p.curToken.Type {
	case lexer.TokenAt:
		p.skipDecorators()
		if !p.curTokenIs(lexer.TokenDef) {
			p.addError(fmt.Sprintf("expected def after decorator, got %s", p.describe(p.curToken)))
			return nil
		}
		return p.one(p.parseFunctionDef())
	case lexer.TokenDef:
		return p.one(p.parseFunctionDef())
	case lexer.TokenIf:
		return p.one(p.parseIf())
	case lexer.TokenWhile:
		return p.one(p.parseWhile())
	case lexer.TokenFor:
		return p.one(p.parseFor())
	case lexer.TokenIndent:
		p.addError("unexpected indent")
		p.nextToken()
		return nil
	default:
		return p.parseSimpleStatements()
	}
}

func (p *Parser) one(s pyast.Stmt) []pyast.Stmt {
	if s == nil {
		return nil
	}
	return []pyast.Stmt{s}
}

// skipDecorators skips '@expr NEWLINE' lines; decorators carry no
// meaning for translation.
func (p *Parser) skipDecorators() {
	for p.curTokenIs(lexer.TokenAt) {
		for !p.curTokenIs(lexer.TokenNewline) && !p.curTokenIs(lexer.TokenEOF) {
			p.nextToken()
		}
		if p.curTokenIs(lexer.TokenNewline) {
			p.nextToken()
		}
	}
}

func (p *Parser) parseFunctionDef() pyast.Stmt {
	fn := pyast.FunctionDef{Pos: p.pos()}
	p.nextToken() // consume 'def'

	if !p.curTokenIs(lexer.TokenIdent) {
		p.addError(fmt.Sprintf("expected function name, got %s", p.describe(p.curToken)))
		return nil
	}
	fn.Name = p.curToken.Literal
	p.nextToken()

	if !p.expect(lexer.TokenLParen) {
		return nil
	}
	for !p.curTokenIs(lexer.TokenRParen) {
		if !p.curTokenIs(lexer.TokenIdent) {
			p.addError(fmt.Sprintf("expected parameter name, got %s", p.describe(p.curToken)))
			return nil
		}
		fn.Params = append(fn.Params, p.curToken.Literal)
		p.nextToken()

		// Annotations are accepted and ignored: every parameter is a long double.
		if p.curTokenIs(lexer.TokenColon) {
			p.nextToken()
			p.parseExpression()
		}
		if p.curTokenIs(lexer.TokenAssign) {
			p.addError("default parameter values are not supported")
			return nil
		}
		if !p.curTokenIs(lexer.TokenComma) {
			break
		}
		p.nextToken()
	}
	if !p.expect(lexer.TokenRParen) {
		return nil
	}
	if p.curTokenIs(lexer.TokenArrow) {
		p.nextToken()
		p.parseExpression()
	}
	if !p.expect(lexer.TokenColon) {
		return nil
	}

	body, ok := p.parseSuite()
	if !ok {
		return nil
	}
	if len(body) > 0 {
		if es, isExpr := body[0].(pyast.ExprStmt); isExpr {
			if doc, isStr := es.X.(pyast.Str); isStr {
				fn.Doc = doc.Value
				body = body[1:]
			}
		}
	}
	fn.Body = body
	return fn
}

// parseSuite parses the block after a ':' - either the rest of the line or
// an indented block.
func (p *Parser) parseSuite() ([]pyast.Stmt, bool) {
	if !p.curTokenIs(lexer.TokenNewline) {
		stmts := p.parseSimpleStatements()
		return stmts, stmts != nil
	}
	p.nextToken() // consume NEWLINE
	if !p.expect(lexer.TokenIndent) {
		return nil, false
	}

	var body []pyast.Stmt
	for !p.curTokenIs(lexer.TokenDedent) && !p.curTokenIs(lexer.TokenEOF) {
		if p.curTokenIs(lexer.TokenNewline) {
			p.nextToken()
			continue
		}
		errCount := len(p.errors)
		body = append(body, p.parseStatement()...)
		if len(p.errors) > errCount {
			return nil, false
		}
	}
	p.nextToken() // consume DEDENT
	return body, true
}

func (p *Parser) parseIf() pyast.Stmt {
	s := pyast.If{Pos: p.pos()}
	p.nextToken() // consume 'if' or 'elif'

	s.Cond = p.parseExpression()
	if s.Cond == nil || !p.expect(lexer.TokenColon) {
		return nil
	}
	then, ok := p.parseSuite()
	if !ok {
		return nil
	}
	s.Then = then

	switch p.curToken.Type {
	case lexer.TokenElif:
		elif := p.parseIf()
		if elif == nil {
			return nil
		}
		s.Else = []pyast.Stmt{elif}
	case lexer.TokenElse:
		p.nextToken()
		if !p.expect(lexer.TokenColon) {
			return nil
		}
		els, ok := p.parseSuite()
		if !ok {
			return nil
		}
		s.Else = els
	}
	return s
}

func (p *Parser) parseWhile() pyast.Stmt {
	s := pyast.While{Pos: p.pos()}
	p.nextToken() // consume 'while'

	s.Cond = p.parseExpression()
	if s.Cond == nil || !p.expect(lexer.TokenColon) {
		return nil
	}
	body, ok := p.parseSuite()
	if !ok {
		return nil
	}
	s.Body = body
	if p.curTokenIs(lexer.TokenElse) {
		p.addError("while-else is not supported")
		return nil
	}
	return s
}

func (p *Parser) parseFor() pyast.Stmt {
	s := pyast.For{Pos: p.pos()}
	p.nextToken() // consume 'for'

	s.Target = p.parseBitOr()
	if s.Target == nil || !p.expect(lexer.TokenIn) {
		return nil
	}
	s.Iter = p.parseExpression()
	if s.Iter == nil || !p.expect(lexer.TokenColon) {
		return nil
	}
	body, ok := p.parseSuite()
	if !ok {
		return nil
	}
	s.Body = body
	if p.curTokenIs(lexer.TokenElse) {
		p.addError("for-else is not supported")
		return nil
	}
	return s
}

// parseSimpleStatements parses 'small (; small)* [;] NEWLINE'
func (p *Parser) parseSimpleStatements() []pyast.Stmt {
	var stmts []pyast.Stmt
	for {
		s := p.parseSmallStatement()
		if s == nil {
			return nil
		}
		stmts = append(stmts, s)
		if !p.curTokenIs(lexer.TokenSemicolon) {
			break
		}
		p.nextToken()
		if p.curTokenIs(lexer.TokenNewline) || p.curTokenIs(lexer.TokenEOF) {
			break
		}
	}
	if p.curTokenIs(lexer.TokenEOF) {
		return stmts
	}
	if !p.expect(lexer.TokenNewline) {
		return nil
	}
	return stmts
}

func (p *Parser) parseSmallStatement() pyast.Stmt {
	pos := p.pos()
	switch p.curToken.Type {
	case lexer.TokenReturn:
		p.nextToken()
		if p.atStatementEnd() {
			return pyast.Return{Pos: pos}
		}
		value := p.parseExpression()
		if value == nil {
			return nil
		}
		return pyast.Return{Pos: pos, Value: value}
	case lexer.TokenPass:
		p.nextToken()
		return pyast.Pass{Pos: pos}
	case lexer.TokenBreak:
		p.nextToken()
		return pyast.Break{Pos: pos}
	case lexer.TokenContinue:
		p.nextToken()
		return pyast.Continue{Pos: pos}
	case lexer.TokenImport, lexer.TokenFrom:
		return p.parseImport()
	}

	x := p.parseExpression()
	if x == nil {
		return nil
	}

	if p.curTokenIs(lexer.TokenAssign) {
		targets := []pyast.Expr{x}
		var value pyast.Expr
		for p.curTokenIs(lexer.TokenAssign) {
			p.nextToken()
			value = p.parseExpression()
			if value == nil {
				return nil
			}
			if p.curTokenIs(lexer.TokenAssign) {
				targets = append(targets, value)
			}
		}
		return pyast.Assign{Pos: pos, Targets: targets, Value: value}
	}

	if op, ok := augmentedOps[p.curToken.Type]; ok {
		p.nextToken()
		value := p.parseExpression()
		if value == nil {
			return nil
		}
		return pyast.AugAssign{Pos: pos, Target: x, Op: op, Value: value}
	}

	return pyast.ExprStmt{Pos: pos, X: x}
}

func (p *Parser) atStatementEnd() bool {
	switch p.curToken.Type {
	case lexer.TokenNewline, lexer.TokenSemicolon, lexer.TokenEOF:
		return true
	}
	return false
}

func (p *Parser) parseImport() pyast.Stmt {
	s := pyast.Import{Pos: p.pos()}
	if p.curTokenIs(lexer.TokenFrom) {
		p.nextToken()
		name, ok := p.parseDottedName()
		if !ok || !p.expect(lexer.TokenImport) {
			return nil
		}
		s.From = name
	} else {
		p.nextToken() // consume 'import'
	}

	for {
		name, ok := p.parseDottedName()
		if !ok {
			return nil
		}
		alias := pyast.Alias{Name: name}
		if p.curTokenIs(lexer.TokenAs) {
			p.nextToken()
			if !p.curTokenIs(lexer.TokenIdent) {
				p.addError(fmt.Sprintf("expected alias name, got %s", p.describe(p.curToken)))
				return nil
			}
			alias.AsName = p.curToken.Literal
			p.nextToken()
		}
		s.Names = append(s.Names, alias)
		if !p.curTokenIs(lexer.TokenComma) {
			return s
		}
		p.nextToken()
	}
}

func (p *Parser) parseDottedName() (string, bool) {
	if !p.curTokenIs(lexer.TokenIdent) {
		p.addError(fmt.Sprintf("expected module name, got %s", p.describe(p.curToken)))
		return "", false
	}
	parts := []string{p.curToken.Literal}
	p.nextToken()
	for p.curTokenIs(lexer.TokenDot) && p.peekTokenIs(lexer.TokenIdent) {
		p.nextToken()
		parts = append(parts, p.curToken.Literal)
		p.nextToken()
	}
	return strings.Join(parts, "."), true
}

var augmentedOps = map[lexer.TokenType]pyast.BinaryOp{
	lexer.TokenPlusAssign:        pyast.OpAdd,
	lexer.TokenMinusAssign:       pyast.OpSub,
	lexer.TokenStarAssign:        pyast.OpMul,
	lexer.TokenSlashAssign:       pyast.OpDiv,
	lexer.TokenDoubleSlashAssign: pyast.OpFloorDiv,
	lexer.TokenPercentAssign:     pyast.OpMod,
	lexer.TokenPowerAssign:       pyast.OpPow,
	lexer.TokenAndAssign:         pyast.OpBitAnd,
	lexer.TokenOrAssign:          pyast.OpBitOr,
	lexer.TokenXorAssign:         pyast.OpBitXor,
	lexer.TokenShlAssign:         pyast.OpShl,
	lexer.TokenShrAssign:         pyast.OpShr,
}

// parseNumber converts a NUMBER literal to an exact decimal value
func (p *Parser) parseNumber(lit string) (pyast.Num, bool) {
	clean := strings.ReplaceAll(lit, "_", "")
	lower := strings.ToLower(clean)
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0o") || strings.HasPrefix(lower, "0b") {
		v, err := strconv.ParseInt(clean, 0, 64)
		if err != nil {
			p.addError(fmt.Sprintf("invalid integer literal %q", lit))
			return pyast.Num{}, false
		}
		return pyast.Num{Value: decimal.NewFromInt(v)}, true
	}
	v, err := decimal.NewFromString(clean)
	if err != nil {
		p.addError(fmt.Sprintf("invalid numeric literal %q", lit))
		return pyast.Num{}, false
	}
	return pyast.Num{Value: v, Float: strings.ContainsAny(clean, ".eE")}, true
}
