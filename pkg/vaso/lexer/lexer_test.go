package lexer

import (
	"testing"

	"github.com/sambeau/vaso/pkg/vaso/errors"
)

func TestNextToken(t *testing.T) {
	input := `var x = 0;
while x < 3 { print(x); x += 1; }
fn greet(name) { print(name) }
match s { on => { print("yes") } }
items := [1, "two", off];
val y = Json.get(doc, "k");
a != b == c => d -= 1 *= 2 /= 3 - 4 * 5 / 6
// comment
loading error unknown`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{VAR, "var"}, {IDENT, "x"}, {ASSIGN, "="}, {INT, "0"}, {SEMICOLON, ";"},
		{WHILE, "while"}, {IDENT, "x"}, {LT, "<"}, {INT, "3"}, {LBRACE, "{"},
		{PRINT, "print"}, {LPAREN, "("}, {IDENT, "x"}, {RPAREN, ")"}, {SEMICOLON, ";"},
		{IDENT, "x"}, {PLUS_ASSIGN, "+="}, {INT, "1"}, {SEMICOLON, ";"}, {RBRACE, "}"},
		{FUNCTION, "fn"}, {IDENT, "greet"}, {LPAREN, "("}, {IDENT, "name"}, {RPAREN, ")"},
		{LBRACE, "{"}, {PRINT, "print"}, {LPAREN, "("}, {IDENT, "name"}, {RPAREN, ")"}, {RBRACE, "}"},
		{MATCH, "match"}, {IDENT, "s"}, {LBRACE, "{"}, {ON, "on"}, {ARROW, "=>"}, {LBRACE, "{"},
		{PRINT, "print"}, {LPAREN, "("}, {STRING, "yes"}, {RPAREN, ")"}, {RBRACE, "}"}, {RBRACE, "}"},
		{IDENT, "items"}, {WALRUS, ":="}, {LBRACKET, "["}, {INT, "1"}, {COMMA, ","},
		{STRING, "two"}, {COMMA, ","}, {OFF, "off"}, {RBRACKET, "]"}, {SEMICOLON, ";"},
		{VAL, "val"}, {IDENT, "y"}, {ASSIGN, "="}, {IDENT, "Json"}, {DOT, "."}, {IDENT, "get"},
		{LPAREN, "("}, {IDENT, "doc"}, {COMMA, ","}, {STRING, "k"}, {RPAREN, ")"}, {SEMICOLON, ";"},
		{IDENT, "a"}, {NOT_EQ, "!="}, {IDENT, "b"}, {EQ, "=="}, {IDENT, "c"}, {ARROW, "=>"},
		{IDENT, "d"}, {MINUS_ASSIGN, "-="}, {INT, "1"}, {MUL_ASSIGN, "*="}, {INT, "2"},
		{DIV_ASSIGN, "/="}, {INT, "3"}, {MINUS, "-"}, {INT, "4"}, {ASTERISK, "*"}, {INT, "5"},
		{SLASH, "/"}, {INT, "6"},
		{LOADING, "loading"}, {ERROR, "error"}, {UNKNOWN, "unknown"},
		{EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q (literal %q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNegativeNumbers(t *testing.T) {
	tests := []struct {
		input string
		types []TokenType
	}{
		{"x = -5", []TokenType{IDENT, ASSIGN, INT}},
		{"x - 5", []TokenType{IDENT, MINUS, INT}},
		{"x -5", []TokenType{IDENT, MINUS, INT}},
		{"f(-1, -2)", []TokenType{IDENT, LPAREN, INT, COMMA, INT, RPAREN}},
		{"[-1]", []TokenType{LBRACKET, INT, RBRACKET}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, err := Tokenize(tt.input, "test.vs")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(tokens) != len(tt.types) {
				t.Fatalf("got %d tokens, want %d: %v", len(tokens), len(tt.types), tokens)
			}
			for i, tok := range tokens {
				if tok.Type != tt.types[i] {
					t.Errorf("token %d = %s, want %s", i, tok.Type, tt.types[i])
				}
			}
		})
	}

	tokens, _ := Tokenize("x = -42", "test.vs")
	if tokens[2].Literal != "-42" {
		t.Errorf("literal = %q, want -42", tokens[2].Literal)
	}
}

func TestStringEscapes(t *testing.T) {
	tokens, err := Tokenize(`"a\"b\\c\nd\te"`, "test.vs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "a\"b\\c\nd\te"
	if tokens[0].Literal != want {
		t.Errorf("literal = %q, want %q", tokens[0].Literal, want)
	}
}

func TestSpans(t *testing.T) {
	input := "var x = 10\n  print(x)"
	tokens, err := Tokenize(input, "test.vs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, tok := range tokens {
		if tok.Type == STRING {
			continue
		}
		if got := input[tok.Offset:tok.End]; got != tok.Literal {
			t.Errorf("span of %s = %q, want %q", tok.Type, got, tok.Literal)
		}
	}

	printTok := tokens[4]
	if printTok.Type != PRINT || printTok.Line != 2 || printTok.Column != 3 {
		t.Errorf("print token = %v, want line 2 column 3", printTok)
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantCode string
		wantLine int
		wantMsg  string
	}{
		{"invalid character", "var x = 1\nvar y = $", "LEX-0001", 2, "invalid character '$'"},
		{"lone bang", "x = !y", "LEX-0001", 1, "invalid character '!'"},
		{"non-ascii character", "x = é", "LEX-0001", 1, "invalid character 'é'"},
		{"multibyte symbol", "print(1)\ny = 3 → 4", "LEX-0001", 2, "invalid character '→'"},
		{"unterminated string", "print(\"oops)", "LEX-0002", 1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.input, "bad.vs")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			verr, ok := err.(*errors.VasoError)
			if !ok {
				t.Fatalf("error type = %T, want *errors.VasoError", err)
			}
			if verr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", verr.Code, tt.wantCode)
			}
			if verr.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d", verr.Line, tt.wantLine)
			}
			if verr.File != "bad.vs" {
				t.Errorf("File = %q, want bad.vs", verr.File)
			}
			if tt.wantMsg != "" && verr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", verr.Message, tt.wantMsg)
			}
		})
	}
}

func TestLookupIdent(t *testing.T) {
	if LookupIdent("while") != WHILE {
		t.Error("while should be a keyword")
	}
	if LookupIdent("whilst") != IDENT {
		t.Error("whilst should be an identifier")
	}
	if !LookupIdent("loading").IsStatus() {
		t.Error("loading should be a status literal")
	}
}
