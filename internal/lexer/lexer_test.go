package lexer

import (
	"testing"
)

func TestNextToken_Basic(t *testing.T) {
	input := `var x = 10;`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{VAR, "var"},
		{IDENT, "x"},
		{ASSIGN, "="},
		{INT, "10"},
		{SEMICOLON, ";"},
		{EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestTriviaEmitsSingleSpaceWhitespace(t *testing.T) {
	input := `var x = 10;`

	expected := []TokenType{
		VAR,
		WHITESPACE,
		IDENT,
		WHITESPACE,
		ASSIGN,
		WHITESPACE,
		INT,
		SEMICOLON,
		EOF,
	}

	l := NewWithTrivia(input)

	for i, typ := range expected {
		tok := l.NextToken()
		if tok.Type != typ {
			t.Fatalf("step %d - expected token %q, got %q", i, typ, tok.Type)
		}
	}
}

func TestKeywords(t *testing.T) {
	input := `package import func var const type struct interface map chan go select range return if else for switch case default break continue defer true false nil`

	expected := []TokenType{
		PACKAGE, IMPORT, FUNC, VAR, CONST, TYPE, STRUCT, INTERFACE, MAP, CHAN,
		GO, SELECT, RANGE, RETURN, IF, ELSE, FOR, SWITCH, CASE, DEFAULT,
		BREAK, CONTINUE, DEFER, TRUE, FALSE, NIL, EOF,
	}

	l := New(input)
	for i, typ := range expected {
		tok := l.NextToken()
		if tok.Type != typ {
			t.Fatalf("step %d - expected %q, got %q (%q)", i, typ, tok.Type, tok.Literal)
		}
	}
}

func TestOperatorsAndCompoundAssign(t *testing.T) {
	input := `+ - * / % & | ^ << >> && || += -= *= /= %= &= |= ^= := == != < > <= >= ...`

	expected := []TokenType{
		PLUS, MINUS, ASTERISK, SLASH, PERCENT, AMPERSAND, PIPE, CARET, SHL, SHR,
		AND, OR, PLUS_ASSIGN, MINUS_ASSIGN, ASTERISK_ASSIGN, SLASH_ASSIGN,
		PERCENT_ASSIGN, AMPERSAND_ASSIGN, PIPE_ASSIGN, CARET_ASSIGN, DEFINE,
		EQ, NOT_EQ, LT, GT, LE, GE, ELLIPSIS, EOF,
	}

	l := New(input)
	for i, typ := range expected {
		tok := l.NextToken()
		if tok.Type != typ {
			t.Fatalf("step %d - expected %q, got %q (%q)", i, typ, tok.Type, tok.Literal)
		}
	}
}

func TestChannelArrow(t *testing.T) {
	input := `ch <- v`
	l := New(input)

	if tok := l.NextToken(); tok.Type != IDENT {
		t.Fatalf("expected IDENT, got %q", tok.Type)
	}
	if tok := l.NextToken(); tok.Type != LARROW {
		t.Fatalf("expected LARROW, got %q", tok.Type)
	}
	if tok := l.NextToken(); tok.Type != IDENT {
		t.Fatalf("expected IDENT, got %q", tok.Type)
	}
}

func TestNumberLiterals(t *testing.T) {
	tests := []struct {
		input        string
		expectedType TokenType
	}{
		{"123", INT},
		{"0x1F", INT},
		{"0b101", INT},
		{"3.14", FLOAT},
		{"1e9", FLOAT},
		{"1_000", INT},
	}
	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("input %q: expected %q, got %q", tt.input, tt.expectedType, tok.Type)
		}
	}
}

func TestStringLiteralEscapes(t *testing.T) {
	l := New(`"hi\n"`)
	tok := l.NextToken()
	if tok.Type != STRING {
		t.Fatalf("expected STRING, got %q", tok.Type)
	}
	if tok.Value != "hi\n" {
		t.Fatalf("expected decoded value %q, got %q", "hi\n", tok.Value)
	}
}

func TestLineAndBlockComments(t *testing.T) {
	input := "// a comment\nvar /* inline */ x"
	expected := []TokenType{VAR, IDENT, EOF}

	l := New(input)
	for i, typ := range expected {
		tok := l.NextToken()
		if tok.Type != typ {
			t.Fatalf("step %d - expected %q, got %q", i, typ, tok.Type)
		}
	}
}
