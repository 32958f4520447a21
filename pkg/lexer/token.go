package lexer

// TokenType represents the type of a token
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenIllegal

	// Layout
	TokenNewline // end of a logical line
	TokenIndent
	TokenDedent

	// Literals
	TokenIdent  // total, n, math
	TokenNumber // 42, 2.5, 1e-3
	TokenString // "doc"

	// Keywords
	TokenDef      // def
	TokenReturn   // return
	TokenIf       // if
	TokenElif     // elif
	TokenElse     // else
	TokenWhile    // while
	TokenFor      // for
	TokenIn       // in
	TokenPass     // pass
	TokenBreak    // break
	TokenContinue // continue
	TokenImport   // import
	TokenFrom     // from
	TokenAs       // as
	TokenAnd      // and
	TokenOr       // or
	TokenNot      // not
	TokenTrue     // True
	TokenFalse    // False
	TokenNone     // None

	// Operators
	TokenPlus        // +
	TokenMinus       // -
	TokenStar        // *
	TokenSlash       // /
	TokenDoubleSlash // //
	TokenPercent     // %
	TokenPower       // **
	TokenAssign      // =
	TokenEq          // ==
	TokenNe          // !=
	TokenLt          // <
	TokenLe          // <=
	TokenGt          // >
	TokenGe          // >=
	TokenAmpersand   // &
	TokenPipe        // |
	TokenCaret       // ^
	TokenTilde       // ~
	TokenShl         // <<
	TokenShr         // >>
	TokenArrow       // ->
	TokenAt          // @

	// Compound assignment operators
	TokenPlusAssign        // +=
	TokenMinusAssign       // -=
	TokenStarAssign        // *=
	TokenSlashAssign       // /=
	TokenDoubleSlashAssign // //=
	TokenPercentAssign     // %=
	TokenPowerAssign       // **=
	TokenAndAssign         // &=
	TokenOrAssign          // |=
	TokenXorAssign         // ^=
	TokenShlAssign         // <<=
	TokenShrAssign         // >>=

	// Delimiters
	TokenLParen    // (
	TokenRParen    // )
	TokenLBracket  // [
	TokenRBracket  // ]
	TokenLBrace    // {
	TokenRBrace    // }
	TokenColon     // :
	TokenSemicolon // ;
	TokenComma     // ,
	TokenDot       // .
)

var tokenNames = map[TokenType]string{
	TokenEOF:               "EOF",
	TokenIllegal:           "ILLEGAL",
	TokenNewline:           "NEWLINE",
	TokenIndent:            "INDENT",
	TokenDedent:            "DEDENT",
	TokenIdent:             "IDENT",
	TokenNumber:            "NUMBER",
	TokenString:            "STRING",
	TokenDef:               "def",
	TokenReturn:            "return",
	TokenIf:                "if",
	TokenElif:              "elif",
	TokenElse:              "else",
	TokenWhile:             "while",
	TokenFor:               "for",
	TokenIn:                "in",
	TokenPass:              "pass",
	TokenBreak:             "break",
	TokenContinue:          "continue",
	TokenImport:            "import",
	TokenFrom:              "from",
	TokenAs:                "as",
	TokenAnd:               "and",
	TokenOr:                "or",
	TokenNot:               "not",
	TokenTrue:              "True",
	TokenFalse:             "False",
	TokenNone:              "None",
	TokenPlus:              "+",
	TokenMinus:             "-",
	TokenStar:              "*",
	TokenSlash:             "/",
	TokenDoubleSlash:       "//",
	TokenPercent:           "%",
	TokenPower:             "**",
	TokenAssign:            "=",
	TokenEq:                "==",
	TokenNe:                "!=",
	TokenLt:                "<",
	TokenLe:                "<=",
	TokenGt:                ">",
	TokenGe:                ">=",
	TokenAmpersand:         "&",
	TokenPipe:              "|",
	TokenCaret:             "^",
	TokenTilde:             "~",
	TokenShl:               "<<",
	TokenShr:               ">>",
	TokenArrow:             "->",
	TokenAt:                "@",
	TokenPlusAssign:        "+=",
	TokenMinusAssign:       "-=",
	TokenStarAssign:        "*=",
	TokenSlashAssign:       "/=",
	TokenDoubleSlashAssign: "//=",
	TokenPercentAssign:     "%=",
	TokenPowerAssign:       "**=",
	TokenAndAssign:         "&=",
	TokenOrAssign:          "|=",
	TokenXorAssign:         "^=",
	TokenShlAssign:         "<<=",
	TokenShrAssign:         ">>=",
	TokenLParen:            "(",
	TokenRParen:            ")",
	TokenLBracket:          "[",
	TokenRBracket:          "]",
	TokenLBrace:            "{",
	TokenRBrace:            "}",
	TokenColon:             ":",
	TokenSemicolon:         ";",
	TokenComma:             ",",
	TokenDot:               ".",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Token represents a lexical token
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

// keywords maps keyword strings to token types
var keywords = map[string]TokenType{
	"def":      TokenDef,
	"return":   TokenReturn,
	"if":       TokenIf,
	"elif":     TokenElif,
	"else":     TokenElse,
	"while":    TokenWhile,
	"for":      TokenFor,
	"in":       TokenIn,
	"pass":     TokenPass,
	"break":    TokenBreak,
	"continue": TokenContinue,
	"import":   TokenImport,
	"from":     TokenFrom,
	"as":       TokenAs,
	"and":      TokenAnd,
	"or":       TokenOr,
	"not":      TokenNot,
	"True":     TokenTrue,
	"False":    TokenFalse,
	"None":     TokenNone,
}

// LookupIdent returns the token type for an identifier (keyword or IDENT)
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TokenIdent
}

// compoundAssign maps an operator token to its augmented-assignment form
var compoundAssign = map[TokenType]TokenType{
	TokenPlus:        TokenPlusAssign,
	TokenMinus:       TokenMinusAssign,
	TokenStar:        TokenStarAssign,
	TokenSlash:       TokenSlashAssign,
	TokenDoubleSlash: TokenDoubleSlashAssign,
	TokenPercent:     TokenPercentAssign,
	TokenPower:       TokenPowerAssign,
	TokenAmpersand:   TokenAndAssign,
	TokenPipe:        TokenOrAssign,
	TokenCaret:       TokenXorAssign,
	TokenShl:         TokenShlAssign,
	TokenShr:         TokenShrAssign,
}
