// Package parser turns query text into an ast.Statement.
//
// The lexer produces a flat token slice; the parser is a recursive-descent
// parser with one token of lookahead (plus a small peek window used to tell
// patterns from parenthesised expressions). Keywords are matched
// case-insensitively against identifier tokens so that words such as
// "count" or "end" remain usable as property keys and labels.
package parser

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenType represents the type of token
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenIllegal

	// Identifiers and literals
	TokenIdent       // name, MATCH, count
	TokenQuotedIdent // `any name`
	TokenString      // 'text' or "text"
	TokenInteger     // 42, 0x2A
	TokenFloat       // 3.14, 1e3
	TokenParameter   // $name

	// Operators
	TokenPlus         // +
	TokenPlusEqual    // +=
	TokenMinus        // -
	TokenStar         // *
	TokenSlash        // /
	TokenPercent      // %
	TokenCaret        // ^
	TokenEqual        // =
	TokenNotEqual     // <>
	TokenLess         // <
	TokenLessEqual    // <=
	TokenGreater      // >
	TokenGreaterEqual // >=
	TokenRegexMatch   // =~

	// Delimiters
	TokenLeftParen    // (
	TokenRightParen   // )
	TokenLeftBracket  // [
	TokenRightBracket // ]
	TokenLeftBrace    // {
	TokenRightBrace   // }
	TokenComma        // ,
	TokenDot          // .
	TokenDotDot       // ..
	TokenColon        // :
	TokenSemicolon    // ;
	TokenPipe         // |
)

var tokenNames = map[TokenType]string{
	TokenEOF:          "end of input",
	TokenIllegal:      "illegal token",
	TokenIdent:        "identifier",
	TokenQuotedIdent:  "quoted identifier",
	TokenString:       "string",
	TokenInteger:      "integer",
	TokenFloat:        "float",
	TokenParameter:    "parameter",
	TokenPlus:         "'+'",
	TokenPlusEqual:    "'+='",
	TokenMinus:        "'-'",
	TokenStar:         "'*'",
	TokenSlash:        "'/'",
	TokenPercent:      "'%'",
	TokenCaret:        "'^'",
	TokenEqual:        "'='",
	TokenNotEqual:     "'<>'",
	TokenLess:         "'<'",
	TokenLessEqual:    "'<='",
	TokenGreater:      "'>'",
	TokenGreaterEqual: "'>='",
	TokenRegexMatch:   "'=~'",
	TokenLeftParen:    "'('",
	TokenRightParen:   "')'",
	TokenLeftBracket:  "'['",
	TokenRightBracket: "']'",
	TokenLeftBrace:    "'{'",
	TokenRightBrace:   "'}'",
	TokenComma:        "','",
	TokenDot:          "'.'",
	TokenDotDot:       "'..'",
	TokenColon:        "':'",
	TokenSemicolon:    "';'",
	TokenPipe:         "'|'",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Token represents a lexical token
type Token struct {
	Type    TokenType
	Literal string // decoded text: string contents, identifier name, number digits
	Line    int
	Column  int
}

// Lexer tokenizes query text
type Lexer struct {
	input  string
	pos    int // byte offset of the next unread rune
	line   int
	column int
}

// NewLexer creates a new lexer
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1, column: 1}
}

// Tokenize lexes the whole input. The last token is always TokenEOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) peekRune(offset int) rune {
	pos := l.pos
	for i := 0; ; i++ {
		if pos >= len(l.input) {
			return 0
		}
		r, size := utf8.DecodeRuneInString(l.input[pos:])
		if i == offset {
			return r
		}
		pos += size
	}
}

func (l *Lexer) readRune() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size
	if r == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return r
}

func (l *Lexer) errorf(line, col int, format string, args ...any) error {
	return &SyntaxError{Line: line, Column: col, Message: fmt.Sprintf(format, args...)}
}

func (l *Lexer) skipWhitespaceAndComments() error {
	for l.pos < len(l.input) {
		r := l.peekRune(0)
		switch {
		case unicode.IsSpace(r):
			l.readRune()
		case r == '/' && l.peekRune(1) == '/':
			for l.pos < len(l.input) && l.peekRune(0) != '\n' {
				l.readRune()
			}
		case r == '/' && l.peekRune(1) == '*':
			line, col := l.line, l.column
			l.readRune()
			l.readRune()
			for {
				if l.pos >= len(l.input) {
					return l.errorf(line, col, "unterminated comment")
				}
				if l.peekRune(0) == '*' && l.peekRune(1) == '/' {
					l.readRune()
					l.readRune()
					break
				}
				l.readRune()
			}
		default:
			return nil
		}
	}
	return nil
}

// NextToken returns the next token
func (l *Lexer) NextToken() (Token, error) {
	if err := l.skipWhitespaceAndComments(); err != nil {
		return Token{}, err
	}

	line, col := l.line, l.column
	tok := func(t TokenType, lit string) (Token, error) {
		return Token{Type: t, Literal: lit, Line: line, Column: col}, nil
	}

	if l.pos >= len(l.input) {
		return tok(TokenEOF, "")
	}

	r := l.peekRune(0)
	switch {
	case r == '`':
		return l.readQuotedIdent(line, col)
	case r == '\'' || r == '"':
		return l.readString(line, col)
	case r == '$':
		l.readRune()
		next := l.peekRune(0)
		if next == '`' {
			q, err := l.readQuotedIdent(line, col)
			if err != nil {
				return Token{}, err
			}
			return tok(TokenParameter, q.Literal)
		}
		if !isIdentStart(next) && !unicode.IsDigit(next) {
			return Token{}, l.errorf(line, col, "expected parameter name after '$'")
		}
		return tok(TokenParameter, l.readWord())
	case isIdentStart(r):
		return tok(TokenIdent, l.readWord())
	case unicode.IsDigit(r):
		return l.readNumber(line, col)
	case r == '.' && unicode.IsDigit(l.peekRune(1)):
		return l.readNumber(line, col)
	}

	l.readRune()
	switch r {
	case '(':
		return tok(TokenLeftParen, "(")
	case ')':
		return tok(TokenRightParen, ")")
	case '[':
		return tok(TokenLeftBracket, "[")
	case ']':
		return tok(TokenRightBracket, "]")
	case '{':
		return tok(TokenLeftBrace, "{")
	case '}':
		return tok(TokenRightBrace, "}")
	case ',':
		return tok(TokenComma, ",")
	case ':':
		return tok(TokenColon, ":")
	case ';':
		return tok(TokenSemicolon, ";")
	case '|':
		return tok(TokenPipe, "|")
	case '*':
		return tok(TokenStar, "*")
	case '/':
		return tok(TokenSlash, "/")
	case '%':
		return tok(TokenPercent, "%")
	case '^':
		return tok(TokenCaret, "^")
	case '-':
		return tok(TokenMinus, "-")
	case '.':
		if l.peekRune(0) == '.' {
			l.readRune()
			return tok(TokenDotDot, "..")
		}
		return tok(TokenDot, ".")
	case '+':
		if l.peekRune(0) == '=' {
			l.readRune()
			return tok(TokenPlusEqual, "+=")
		}
		return tok(TokenPlus, "+")
	case '=':
		if l.peekRune(0) == '~' {
			l.readRune()
			return tok(TokenRegexMatch, "=~")
		}
		return tok(TokenEqual, "=")
	case '<':
		switch l.peekRune(0) {
		case '=':
			l.readRune()
			return tok(TokenLessEqual, "<=")
		case '>':
			l.readRune()
			return tok(TokenNotEqual, "<>")
		}
		return tok(TokenLess, "<")
	case '>':
		if l.peekRune(0) == '=' {
			l.readRune()
			return tok(TokenGreaterEqual, ">=")
		}
		return tok(TokenGreater, ">")
	case '!':
		if l.peekRune(0) == '=' {
			l.readRune()
			return tok(TokenNotEqual, "!=")
		}
	}
	return Token{}, l.errorf(line, col, "unexpected character %q", r)
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (l *Lexer) readWord() string {
	start := l.pos
	for l.pos < len(l.input) && isIdentPart(l.peekRune(0)) {
		l.readRune()
	}
	return l.input[start:l.pos]
}

func (l *Lexer) readQuotedIdent(line, col int) (Token, error) {
	l.readRune() // opening backtick
	var sb strings.Builder
	for {
		if l.pos >= len(l.input) {
			return Token{}, l.errorf(line, col, "unterminated quoted identifier")
		}
		r := l.readRune()
		if r == '`' {
			// `` inside a quoted identifier is a literal backtick
			if l.peekRune(0) == '`' {
				l.readRune()
				sb.WriteRune('`')
				continue
			}
			break
		}
		sb.WriteRune(r)
	}
	return Token{Type: TokenQuotedIdent, Literal: sb.String(), Line: line, Column: col}, nil
}

func (l *Lexer) readString(line, col int) (Token, error) {
	quote := l.readRune()
	var sb strings.Builder
	for {
		if l.pos >= len(l.input) {
			return Token{}, l.errorf(line, col, "unterminated string literal")
		}
		r := l.readRune()
		if r == quote {
			break
		}
		if r != '\\' {
			sb.WriteRune(r)
			continue
		}
		esc := l.readRune()
		switch esc {
		case 'n':
			sb.WriteRune('\n')
		case 't':
			sb.WriteRune('\t')
		case 'r':
			sb.WriteRune('\r')
		case 'b':
			sb.WriteRune('\b')
		case 'f':
			sb.WriteRune('\f')
		case '\\', '\'', '"':
			sb.WriteRune(esc)
		case 'u':
			var code rune
			for i := 0; i < 4; i++ {
				d := l.readRune()
				v, ok := hexValue(d)
				if !ok {
					return Token{}, l.errorf(line, col, "invalid unicode escape in string literal")
				}
				code = code*16 + v
			}
			sb.WriteRune(code)
		default:
			return Token{}, l.errorf(l.line, l.column-2, "invalid escape sequence \\%c", esc)
		}
	}
	return Token{Type: TokenString, Literal: sb.String(), Line: line, Column: col}, nil
}

func hexValue(r rune) (rune, bool) {
	switch {
	case r >= '0' && r <= '9':
		return r - '0', true
	case r >= 'a' && r <= 'f':
		return r - 'a' + 10, true
	case r >= 'A' && r <= 'F':
		return r - 'A' + 10, true
	}
	return 0, false
}

func (l *Lexer) readNumber(line, col int) (Token, error) {
	start := l.pos
	if l.peekRune(0) == '0' && (l.peekRune(1) == 'x' || l.peekRune(1) == 'X') {
		l.readRune()
		l.readRune()
		for {
			if _, ok := hexValue(l.peekRune(0)); !ok {
				break
			}
			l.readRune()
		}
		return Token{Type: TokenInteger, Literal: l.input[start:l.pos], Line: line, Column: col}, nil
	}

	isFloat := false
	for unicode.IsDigit(l.peekRune(0)) {
		l.readRune()
	}
	// "1..3" is a range, not the float "1." followed by ".3"
	if l.peekRune(0) == '.' && unicode.IsDigit(l.peekRune(1)) {
		isFloat = true
		l.readRune()
		for unicode.IsDigit(l.peekRune(0)) {
			l.readRune()
		}
	}
	if r := l.peekRune(0); r == 'e' || r == 'E' {
		next := l.peekRune(1)
		if unicode.IsDigit(next) || ((next == '-' || next == '+') && unicode.IsDigit(l.peekRune(2))) {
			isFloat = true
			l.readRune()
			if next == '-' || next == '+' {
				l.readRune()
			}
			for unicode.IsDigit(l.peekRune(0)) {
				l.readRune()
			}
		}
	}
	if isIdentStart(l.peekRune(0)) {
		return Token{}, l.errorf(line, col, "invalid number literal %q", l.input[start:l.pos+1])
	}

	t := TokenInteger
	if isFloat {
		t = TokenFloat
	}
	return Token{Type: t, Literal: l.input[start:l.pos], Line: line, Column: col}, nil
}
