package lexer

import (
	"unicode"
)

// Lexer tokenizes Python source code, synthesizing NEWLINE, INDENT and
// DEDENT tokens from the physical layout.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // next reading position
	ch      byte // current character
	line    int
	column  int

	indents       []int   // indentation stack, always starts with 0
	pending       []Token // queued layout tokens
	parenDepth    int     // inside (), [] or {} newlines are ignored
	atLineStart   bool
	lineHasTokens bool // a token was emitted since the last NEWLINE
	done          bool
}

// New creates a new Lexer for the given input
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0, indents: []int{0}, atLineStart: true}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.column++

	if l.pos > 0 && l.pos <= len(l.input) && l.input[l.pos-1] == '\n' {
		l.line++
		l.column = 1
	}
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) peekCharAt(offset int) byte {
	if l.readPos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.readPos+offset]
}

// Tokens lexes the whole input, ending with EOF
func (l *Lexer) Tokens() []Token {
	var toks []Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == TokenEOF {
			return toks
		}
	}
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() Token {
	if len(l.pending) > 0 {
		tok := l.pending[0]
		l.pending = l.pending[1:]
		return tok
	}
	if l.done {
		return Token{Type: TokenEOF, Line: l.line, Column: l.column}
	}

	if l.atLineStart && l.parenDepth == 0 {
		l.atLineStart = false
		if tok, ok := l.readIndentation(); ok {
			return tok
		}
	}

	l.skipWhitespace()

	tok := Token{Line: l.line, Column: l.column}

	switch l.ch {
	case 0:
		return l.finish()
	case '\n', '\r':
		if l.ch == '\r' && l.peekChar() == '\n' {
			l.readChar()
		}
		l.readChar()
		if l.parenDepth > 0 {
			return l.NextToken()
		}
		l.atLineStart = true
		l.lineHasTokens = false
		tok.Type = TokenNewline
		tok.Literal = "\n"
		return tok
	case '+', '-', '*', '/', '%', '&', '|', '^', '<', '>':
		tok = l.readOperator()
	case '=':
		if l.peekChar() == '=' {
			tok.Type = TokenEq
			tok.Literal = "=="
			l.readChar()
		} else {
			tok = l.newToken(TokenAssign, l.ch)
		}
	case '!':
		if l.peekChar() == '=' {
			tok.Type = TokenNe
			tok.Literal = "!="
			l.readChar()
		} else {
			tok = l.newToken(TokenIllegal, l.ch)
		}
	case '~':
		tok = l.newToken(TokenTilde, l.ch)
	case '@':
		tok = l.newToken(TokenAt, l.ch)
	case '(':
		l.parenDepth++
		tok = l.newToken(TokenLParen, l.ch)
	case ')':
		l.closeParen()
		tok = l.newToken(TokenRParen, l.ch)
	case '[':
		l.parenDepth++
		tok = l.newToken(TokenLBracket, l.ch)
	case ']':
		l.closeParen()
		tok = l.newToken(TokenRBracket, l.ch)
	case '{':
		l.parenDepth++
		tok = l.newToken(TokenLBrace, l.ch)
	case '}':
		l.closeParen()
		tok = l.newToken(TokenRBrace, l.ch)
	case ':':
		tok = l.newToken(TokenColon, l.ch)
	case ';':
		tok = l.newToken(TokenSemicolon, l.ch)
	case ',':
		tok = l.newToken(TokenComma, l.ch)
	case '.':
		if isDigit(l.peekChar()) {
			tok.Type = TokenNumber
			tok.Literal = l.readNumber()
			l.lineHasTokens = true
			return tok
		}
		tok = l.newToken(TokenDot, l.ch)
	case '"', '\'':
		tok.Type = TokenString
		tok.Literal = l.readString()
		l.lineHasTokens = true
		return tok
	default:
		if isLetter(l.ch) {
			tok.Literal = l.readIdentifier()
			tok.Type = LookupIdent(tok.Literal)
			l.lineHasTokens = true
			return tok
		} else if isDigit(l.ch) {
			tok.Type = TokenNumber
			tok.Literal = l.readNumber()
			l.lineHasTokens = true
			return tok
		} else {
			tok = l.newToken(TokenIllegal, l.ch)
		}
	}

	l.readChar()
	l.lineHasTokens = true
	return tok
}

func (l *Lexer) newToken(tokenType TokenType, ch byte) Token {
	return Token{Type: tokenType, Literal: string(ch), Line: l.line, Column: l.column}
}

func (l *Lexer) closeParen() {
	if l.parenDepth > 0 {
		l.parenDepth--
	}
}

// readOperator reads one of the arithmetic/bitwise/comparison operators,
// including its doubled and augmented-assignment forms. On return l.ch is
// the operator's last character.
func (l *Lexer) readOperator() Token {
	tok := Token{Line: l.line, Column: l.column}
	first := l.ch
	var typ TokenType
	lit := string(first)

	switch first {
	case '+':
		typ = TokenPlus
	case '-':
		if l.peekChar() == '>' {
			l.readChar()
			return Token{Type: TokenArrow, Literal: "->", Line: tok.Line, Column: tok.Column}
		}
		typ = TokenMinus
	case '*':
		typ = TokenStar
		if l.peekChar() == '*' {
			l.readChar()
			typ, lit = TokenPower, "**"
		}
	case '/':
		typ = TokenSlash
		if l.peekChar() == '/' {
			l.readChar()
			typ, lit = TokenDoubleSlash, "//"
		}
	case '%':
		typ = TokenPercent
	case '&':
		typ = TokenAmpersand
	case '|':
		typ = TokenPipe
	case '^':
		typ = TokenCaret
	case '<':
		typ = TokenLt
		switch l.peekChar() {
		case '<':
			l.readChar()
			typ, lit = TokenShl, "<<"
		case '=':
			l.readChar()
			return Token{Type: TokenLe, Literal: "<=", Line: tok.Line, Column: tok.Column}
		}
	case '>':
		typ = TokenGt
		switch l.peekChar() {
		case '>':
			l.readChar()
			typ, lit = TokenShr, ">>"
		case '=':
			l.readChar()
			return Token{Type: TokenGe, Literal: ">=", Line: tok.Line, Column: tok.Column}
		}
	}

	if aug, ok := compoundAssign[typ]; ok && l.peekChar() == '=' {
		l.readChar()
		typ, lit = aug, lit+"="
	}
	tok.Type = typ
	tok.Literal = lit
	return tok
}

// readIndentation measures the indentation of the next non-blank line and
// queues the INDENT/DEDENT tokens it implies.
func (l *Lexer) readIndentation() (Token, bool) {
	for {
		width := 0
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\f' {
			switch l.ch {
			case ' ':
				width++
			case '\t':
				width = (width/8 + 1) * 8
			case '\f':
				width = 0
			}
			l.readChar()
		}

		if l.ch == '#' {
			l.skipComment()
		}
		if l.ch == '\r' || l.ch == '\n' {
			// blank or comment-only line
			if l.ch == '\r' && l.peekChar() == '\n' {
				l.readChar()
			}
			l.readChar()
			continue
		}
		if l.ch == 0 {
			return Token{}, false
		}

		top := l.indents[len(l.indents)-1]
		switch {
		case width > top:
			l.indents = append(l.indents, width)
			return Token{Type: TokenIndent, Line: l.line, Column: 1}, true
		case width < top:
			for len(l.indents) > 1 && l.indents[len(l.indents)-1] > width {
				l.indents = l.indents[:len(l.indents)-1]
				l.pending = append(l.pending, Token{Type: TokenDedent, Line: l.line, Column: 1})
			}
			if l.indents[len(l.indents)-1] != width {
				l.pending = append(l.pending, Token{
					Type:    TokenIllegal,
					Literal: "unindent does not match any outer indentation level",
					Line:    l.line,
					Column:  1,
				})
			}
			tok := l.pending[0]
			l.pending = l.pending[1:]
			return tok, true
		}
		return Token{}, false
	}
}

// finish emits the trailing NEWLINE and DEDENT tokens at end of input
func (l *Lexer) finish() Token {
	l.done = true
	eof := Token{Type: TokenEOF, Line: l.line, Column: l.column}
	if l.lineHasTokens {
		l.lineHasTokens = false
		l.pending = append(l.pending, Token{Type: TokenNewline, Literal: "\n", Line: l.line, Column: l.column})
	}
	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		l.pending = append(l.pending, Token{Type: TokenDedent, Line: l.line, Column: l.column})
	}
	l.pending = append(l.pending, eof)
	tok := l.pending[0]
	l.pending = l.pending[1:]
	return tok
}

// skipWhitespace skips blanks, comments and backslash line continuations
// but never a newline.
func (l *Lexer) skipWhitespace() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\f':
			l.readChar()
		case l.ch == '#':
			l.skipComment()
		case l.ch == '\\' && (l.peekChar() == '\n' || (l.peekChar() == '\r' && l.peekCharAt(1) == '\n')):
			l.readChar() // consume '\'
			if l.ch == '\r' {
				l.readChar()
			}
			l.readChar() // consume newline
		default:
			return
		}
	}
}

func (l *Lexer) skipComment() {
	for l.ch != '\n' && l.ch != '\r' && l.ch != 0 {
		l.readChar()
	}
}

func (l *Lexer) readIdentifier() string {
	pos := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[pos:l.pos]
}

// readNumber reads decimal integers, floats with optional exponent, and
// 0x/0o/0b prefixed integers. Underscores are kept; the parser strips them.
func (l *Lexer) readNumber() string {
	pos := l.pos
	if l.ch == '0' && isRadixPrefix(l.peekChar()) {
		l.readChar()
		l.readChar()
		for isHexDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
		return l.input[pos:l.pos]
	}
	for isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	if l.ch == '.' {
		l.readChar()
		for isDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekCharAt(1))) {
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) || l.ch == '_' {
				l.readChar()
			}
		}
	}
	return l.input[pos:l.pos]
}

// readString reads a single-, double- or triple-quoted string and returns
// its body with escapes left as written.
func (l *Lexer) readString() string {
	quote := l.ch
	triple := l.peekChar() == quote && l.peekCharAt(1) == quote
	if triple {
		l.readChar()
		l.readChar()
	}
	l.readChar() // consume opening quote
	pos := l.pos
	for l.ch != 0 {
		if l.ch == '\\' {
			l.readChar() // skip escape char
		} else if l.ch == quote {
			if !triple {
				break
			}
			if l.peekChar() == quote && l.peekCharAt(1) == quote {
				break
			}
		} else if (l.ch == '\n' || l.ch == '\r') && !triple {
			break
		}
		l.readChar()
	}
	str := l.input[pos:l.pos]
	if l.ch == quote {
		if triple {
			l.readChar()
			l.readChar()
		}
		l.readChar() // consume closing quote
	}
	return str
}

func isLetter(ch byte) bool {
	return unicode.IsLetter(rune(ch)) || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
}

func isRadixPrefix(ch byte) bool {
	switch ch {
	case 'x', 'X', 'o', 'O', 'b', 'B':
		return true
	}
	return false
}
