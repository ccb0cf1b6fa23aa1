package lexer

import (
	"fmt"
	"unicode/utf8"

	"github.com/sambeau/vaso/pkg/vaso/errors"
)

// TokenType represents different types of tokens
type TokenType int

const (
	// Special tokens
	ILLEGAL TokenType = iota
	EOF

	// Identifiers and literals
	IDENT  // add, foobar, x, y, ...
	INT    // 1343456, -7
	STRING // "foobar"

	// Status literals
	OFF     // off
	ON      // on
	LOADING // loading
	ERROR   // error
	UNKNOWN // unknown

	// Operators
	ASSIGN       // =
	WALRUS       // :=
	ARROW        // =>
	EQ           // ==
	NOT_EQ       // !=
	LT           // <
	GT           // >
	PLUS         // +
	MINUS        // -
	ASTERISK     // *
	SLASH        // /
	PLUS_ASSIGN  // +=
	MINUS_ASSIGN // -=
	MUL_ASSIGN   // *=
	DIV_ASSIGN   // /=

	// Delimiters
	COMMA     // ,
	SEMICOLON // ;
	COLON     // :
	DOT       // .
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LBRACKET  // [
	RBRACKET  // ]

	// Keywords
	FUNCTION // "fn"
	VAL      // "val"
	VAR      // "var"
	PRINT    // "print"
	IF       // "if"
	ELSE     // "else"
	WHILE    // "while"
	FOR      // "for"
	IN       // "in"
	MATCH    // "match"
)

var tokenNames = map[TokenType]string{
	ILLEGAL:      "ILLEGAL",
	EOF:          "EOF",
	IDENT:        "IDENT",
	INT:          "INT",
	STRING:       "STRING",
	OFF:          "OFF",
	ON:           "ON",
	LOADING:      "LOADING",
	ERROR:        "ERROR",
	UNKNOWN:      "UNKNOWN",
	ASSIGN:       "=",
	WALRUS:       ":=",
	ARROW:        "=>",
	EQ:           "==",
	NOT_EQ:       "!=",
	LT:           "<",
	GT:           ">",
	PLUS:         "+",
	MINUS:        "-",
	ASTERISK:     "*",
	SLASH:        "/",
	PLUS_ASSIGN:  "+=",
	MINUS_ASSIGN: "-=",
	MUL_ASSIGN:   "*=",
	DIV_ASSIGN:   "/=",
	COMMA:        ",",
	SEMICOLON:    ";",
	COLON:        ":",
	DOT:          ".",
	LPAREN:       "(",
	RPAREN:       ")",
	LBRACE:       "{",
	RBRACE:       "}",
	LBRACKET:     "[",
	RBRACKET:     "]",
	FUNCTION:     "FUNCTION",
	VAL:          "VAL",
	VAR:          "VAR",
	PRINT:        "PRINT",
	IF:           "IF",
	ELSE:         "ELSE",
	WHILE:        "WHILE",
	FOR:          "FOR",
	IN:           "IN",
	MATCH:        "MATCH",
}

// String returns a string representation of the token type
func (tt TokenType) String() string {
	if name, ok := tokenNames[tt]; ok {
		return name
	}
	return "UNKNOWN_TOKEN"
}

// IsStatus reports whether the token type is one of the five status literals.
func (tt TokenType) IsStatus() bool {
	return tt >= OFF && tt <= UNKNOWN
}

// IsAssign reports whether the token type is a plain assignment operator.
func (tt TokenType) IsAssign() bool {
	return tt == ASSIGN || tt == WALRUS
}

// IsCompoundAssign reports whether the token type is a compound assignment operator.
func (tt TokenType) IsCompoundAssign() bool {
	return tt >= PLUS_ASSIGN && tt <= DIV_ASSIGN
}

// Token is one lexical unit with its source span. Offset and End are byte
// offsets into the source; Line and Column are 1-based.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
	Offset  int
	End     int
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Literal: %s, Line: %d, Column: %d}",
		t.Type.String(), t.Literal, t.Line, t.Column)
}

var keywords = map[string]TokenType{
	"fn":      FUNCTION,
	"val":     VAL,
	"var":     VAR,
	"print":   PRINT,
	"if":      IF,
	"else":    ELSE,
	"while":   WHILE,
	"for":     FOR,
	"in":      IN,
	"match":   MATCH,
	"off":     OFF,
	"on":      ON,
	"loading": LOADING,
	"error":   ERROR,
	"unknown": UNKNOWN,
}

// Keywords returns the reserved words of the language, used for completion.
func Keywords() []string {
	words := make([]string, 0, len(keywords))
	for word := range keywords {
		words = append(words, word)
	}
	return words
}

// LookupIdent checks if an identifier is a keyword
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// Lexer represents the lexical analyzer
type Lexer struct {
	filename      string
	input         string
	position      int  // current position in input (points to current char)
	readPosition  int  // current reading position in input (after current char)
	ch            byte // current char under examination
	line          int
	column        int
	lastTokenType TokenType
}

// New creates a new lexer instance
func New(input string) *Lexer {
	return NewWithFilename(input, "<input>")
}

// NewWithFilename creates a new lexer instance with a specific filename
func NewWithFilename(input string, filename string) *Lexer {
	l := &Lexer{
		filename:      filename,
		input:         input,
		line:          1,
		column:        0,
		lastTokenType: ILLEGAL,
	}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		return
	}

	l.ch = l.input[l.readPosition]
	l.position = l.readPosition
	l.readPosition++

	if l.ch == '\n' {
		l.line++
		l.column = 0
	} else {
		l.column++
	}
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// NextToken scans the input and returns the next token
func (l *Lexer) NextToken() Token {
	l.skipWhitespaceAndComments()

	line, column, start := l.line, l.column, l.position
	var tok Token

	switch l.ch {
	case 0:
		tok = Token{Type: EOF, Literal: "", Line: line, Column: column, Offset: start, End: start}
		return tok
	case '=':
		switch l.peekChar() {
		case '=':
			tok = l.twoCharToken(EQ)
		case '>':
			tok = l.twoCharToken(ARROW)
		default:
			tok = newToken(ASSIGN, l.ch, line, column)
		}
	case ':':
		if l.peekChar() == '=' {
			tok = l.twoCharToken(WALRUS)
		} else {
			tok = newToken(COLON, l.ch, line, column)
		}
	case '!':
		if l.peekChar() == '=' {
			tok = l.twoCharToken(NOT_EQ)
		} else {
			tok = newToken(ILLEGAL, l.ch, line, column)
		}
	case '+':
		if l.peekChar() == '=' {
			tok = l.twoCharToken(PLUS_ASSIGN)
		} else {
			tok = newToken(PLUS, l.ch, line, column)
		}
	case '-':
		if l.peekChar() == '=' {
			tok = l.twoCharToken(MINUS_ASSIGN)
		} else if isDigit(l.peekChar()) && !l.lastTokenEndsOperand() {
			l.readChar()
			tok = Token{Type: INT, Literal: "-" + l.readNumber(), Line: line, Column: column}
			return l.finish(tok, start)
		} else {
			tok = newToken(MINUS, l.ch, line, column)
		}
	case '*':
		if l.peekChar() == '=' {
			tok = l.twoCharToken(MUL_ASSIGN)
		} else {
			tok = newToken(ASTERISK, l.ch, line, column)
		}
	case '/':
		if l.peekChar() == '=' {
			tok = l.twoCharToken(DIV_ASSIGN)
		} else {
			tok = newToken(SLASH, l.ch, line, column)
		}
	case '<':
		tok = newToken(LT, l.ch, line, column)
	case '>':
		tok = newToken(GT, l.ch, line, column)
	case ',':
		tok = newToken(COMMA, l.ch, line, column)
	case ';':
		tok = newToken(SEMICOLON, l.ch, line, column)
	case '.':
		tok = newToken(DOT, l.ch, line, column)
	case '(':
		tok = newToken(LPAREN, l.ch, line, column)
	case ')':
		tok = newToken(RPAREN, l.ch, line, column)
	case '{':
		tok = newToken(LBRACE, l.ch, line, column)
	case '}':
		tok = newToken(RBRACE, l.ch, line, column)
	case '[':
		tok = newToken(LBRACKET, l.ch, line, column)
	case ']':
		tok = newToken(RBRACKET, l.ch, line, column)
	case '"':
		str, terminated := l.readString()
		if !terminated {
			tok = Token{Type: ILLEGAL, Literal: "\"" + str, Line: line, Column: column}
			l.lastTokenType = ILLEGAL
			tok.Offset, tok.End = start, l.position
			return tok
		}
		tok = Token{Type: STRING, Literal: str, Line: line, Column: column}
	default:
		if isLetter(l.ch) {
			literal := l.readIdentifier()
			tok = Token{Type: LookupIdent(literal), Literal: literal, Line: line, Column: column}
			return l.finish(tok, start)
		}
		if isDigit(l.ch) {
			tok = Token{Type: INT, Literal: l.readNumber(), Line: line, Column: column}
			return l.finish(tok, start)
		}
		tok = l.illegalRune(line, column)
	}

	l.readChar()
	return l.finish(tok, start)
}

// illegalRune reads the whole UTF-8 sequence at the current position, leaving
// the lexer on its last byte.
func (l *Lexer) illegalRune(line, column int) Token {
	r, size := utf8.DecodeRuneInString(l.input[l.position:])
	for i := 1; i < size; i++ {
		l.readChar()
	}
	return Token{Type: ILLEGAL, Literal: string(r), Line: line, Column: column}
}

func (l *Lexer) finish(tok Token, start int) Token {
	tok.Offset = start
	tok.End = l.position
	l.lastTokenType = tok.Type
	return tok
}

// twoCharToken consumes the current character and returns a token for it and the next one.
func (l *Lexer) twoCharToken(tokenType TokenType) Token {
	line, column := l.line, l.column
	ch := l.ch
	l.readChar()
	return Token{Type: tokenType, Literal: string(ch) + string(l.ch), Line: line, Column: column}
}

// lastTokenEndsOperand reports whether a '-' directly after the previous
// token should be read as subtraction rather than a negative literal.
func (l *Lexer) lastTokenEndsOperand() bool {
	switch l.lastTokenType {
	case IDENT, INT, STRING, RPAREN, RBRACKET:
		return true
	}
	return l.lastTokenType.IsStatus()
}

func newToken(tokenType TokenType, ch byte, line, column int) Token {
	return Token{Type: tokenType, Literal: string(ch), Line: line, Column: column}
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

func (l *Lexer) readNumber() string {
	position := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readString reads a double-quoted string, processing \" \\ \n and \t.
// Strings may span lines.
func (l *Lexer) readString() (string, bool) {
	var result []byte
	l.readChar() // skip opening quote

	for l.ch != '"' && l.ch != 0 {
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				result = append(result, '\n')
			case 't':
				result = append(result, '\t')
			case '\\':
				result = append(result, '\\')
			case '"':
				result = append(result, '"')
			case 0:
				return string(result), false
			default:
				// Unknown escape, keep as-is
				result = append(result, '\\', l.ch)
			}
		} else {
			result = append(result, l.ch)
		}
		l.readChar()
	}

	return string(result), l.ch == '"'
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' || l.ch == '\f' {
			l.readChar()
		}
		if l.ch == '/' && l.peekChar() == '/' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}
		return
	}
}

func isLetter(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// Tokenize scans the whole input. The first ILLEGAL token aborts the scan
// with a LEX-0001 (invalid character) or LEX-0002 (unterminated string) error.
func Tokenize(input, filename string) ([]Token, error) {
	l := NewWithFilename(input, filename)
	var tokens []Token

	for {
		tok := l.NextToken()
		switch tok.Type {
		case EOF:
			return tokens, nil
		case ILLEGAL:
			var err *errors.VasoError
			if len(tok.Literal) > 0 && tok.Literal[0] == '"' {
				err = errors.NewWithPosition("LEX-0002", tok.Line, tok.Column, nil)
			} else {
				err = errors.NewWithPosition("LEX-0001", tok.Line, tok.Column, map[string]any{"Char": tok.Literal})
			}
			return nil, err.WithFile(filename)
		}
		tokens = append(tokens, tok)
	}
}
