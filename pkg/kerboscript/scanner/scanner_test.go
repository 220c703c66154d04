package scanner

import (
	"testing"

	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/diag"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/token"
)

func TestNextToken(t *testing.T) {
	input := `set x to 10.
lock steering to heading(90, 45).
if altitude > 70000 { print "orbit". }
local f is { parameter n. return n * 2. }.
until done <> false { wait 0.1. }
print list#2.
set d to f@.
`

	tests := []struct {
		expectedKind   token.Kind
		expectedLexeme string
	}{
		{token.SET, "set"},
		{token.IDENT, "x"},
		{token.TO, "to"},
		{token.INTEGER, "10"},
		{token.PERIOD, "."},
		{token.LOCK, "lock"},
		{token.IDENT, "steering"},
		{token.TO, "to"},
		{token.IDENT, "heading"},
		{token.LPAREN, "("},
		{token.INTEGER, "90"},
		{token.COMMA, ","},
		{token.INTEGER, "45"},
		{token.RPAREN, ")"},
		{token.PERIOD, "."},
		{token.IF, "if"},
		{token.IDENT, "altitude"},
		{token.GT, ">"},
		{token.INTEGER, "70000"},
		{token.LBRACE, "{"},
		{token.PRINT, "print"},
		{token.STRING, `"orbit"`},
		{token.PERIOD, "."},
		{token.RBRACE, "}"},
		{token.LOCAL, "local"},
		{token.IDENT, "f"},
		{token.IS, "is"},
		{token.LBRACE, "{"},
		{token.PARAMETER, "parameter"},
		{token.IDENT, "n"},
		{token.PERIOD, "."},
		{token.RETURN, "return"},
		{token.IDENT, "n"},
		{token.MULT, "*"},
		{token.INTEGER, "2"},
		{token.PERIOD, "."},
		{token.RBRACE, "}"},
		{token.PERIOD, "."},
		{token.UNTIL, "until"},
		{token.IDENT, "done"},
		{token.NOTEQ, "<>"},
		{token.FALSE, "false"},
		{token.LBRACE, "{"},
		{token.WAIT, "wait"},
		{token.DOUBLE, "0.1"},
		{token.PERIOD, "."},
		{token.RBRACE, "}"},
		{token.PRINT, "print"},
		{token.IDENT, "list"},
		{token.HASH, "#"},
		{token.INTEGER, "2"},
		{token.PERIOD, "."},
		{token.SET, "set"},
		{token.IDENT, "d"},
		{token.TO, "to"},
		{token.IDENT, "f"},
		{token.ATSIGN, "@"},
		{token.PERIOD, "."},
		{token.EOF, ""},
	}

	s := New(input, "file:///test.ks")
	for i, tt := range tests {
		tok := s.NextToken()
		if tok.Kind != tt.expectedKind {
			t.Fatalf("tests[%d]: wrong kind. expected=%v, got=%v (lexeme %q)",
				i, tt.expectedKind, tok.Kind, tok.Lexeme)
		}
		if tok.Lexeme != tt.expectedLexeme {
			t.Fatalf("tests[%d]: wrong lexeme. expected=%q, got=%q",
				i, tt.expectedLexeme, tok.Lexeme)
		}
	}
}

func TestKeywordsAreCaseInsensitive(t *testing.T) {
	tests := []struct {
		input string
		kind  token.Kind
	}{
		{"SET", token.SET},
		{"Set", token.SET},
		{"DECLARE", token.DECLARE},
		{"Lock", token.LOCK},
		{"UNTIL", token.UNTIL},
		{"True", token.TRUE},
		{"runPath", token.RUNPATH},
	}
	for _, tt := range tests {
		s := New(tt.input, "")
		tok := s.NextToken()
		if tok.Kind != tt.kind {
			t.Errorf("%q: expected kind %v, got %v", tt.input, tt.kind, tok.Kind)
		}
		if tok.Lexeme != tt.input {
			t.Errorf("%q: lexeme should preserve source casing, got %q", tt.input, tok.Lexeme)
		}
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		input   string
		kind    token.Kind
		literal any
	}{
		{"42", token.INTEGER, 42},
		{"3.14", token.DOUBLE, 3.14},
		{"1e3", token.DOUBLE, 1000.0},
		{"2.5e-2", token.DOUBLE, 0.025},
		{"600000", token.INTEGER, 600000},
		{"99999999999999999999", token.DOUBLE, 1e20},
	}
	for _, tt := range tests {
		s := New(tt.input, "")
		tok := s.NextToken()
		if tok.Kind != tt.kind {
			t.Errorf("%q: expected kind %v, got %v", tt.input, tt.kind, tok.Kind)
			continue
		}
		if tok.Literal != tt.literal {
			t.Errorf("%q: expected literal %v (%T), got %v (%T)",
				tt.input, tt.literal, tt.literal, tok.Literal, tok.Literal)
		}
	}
}

func TestTrailingPeriodIsNotPartOfNumber(t *testing.T) {
	tokens := Scan("wait 5.", "")
	kinds := []token.Kind{token.WAIT, token.INTEGER, token.PERIOD, token.EOF}
	if len(tokens) != len(kinds) {
		t.Fatalf("expected %d tokens, got %d", len(kinds), len(tokens))
	}
	for i, k := range kinds {
		if tokens[i].Kind != k {
			t.Errorf("tokens[%d]: expected %v, got %v", i, k, tokens[i].Kind)
		}
	}
	if tokens[1].Literal != 5 {
		t.Errorf("expected integer literal 5, got %v", tokens[1].Literal)
	}
}

func TestStringsWithDoubledQuotes(t *testing.T) {
	s := New(`"say ""hi"" now"`, "")
	tok := s.NextToken()
	if tok.Kind != token.STRING {
		t.Fatalf("expected STRING, got %v", tok.Kind)
	}
	if tok.Literal != `say "hi" now` {
		t.Errorf("expected literal %q, got %q", `say "hi" now`, tok.Literal)
	}
}

func TestUnterminatedString(t *testing.T) {
	s := New(`"never ends`, "")
	tok := s.NextToken()
	if tok.Kind != token.ILLEGAL {
		t.Fatalf("expected ILLEGAL, got %v", tok.Kind)
	}
}

func TestCommentsAreSkipped(t *testing.T) {
	tokens := Scan("// boot script\nset x to 1. // trailing\n// done", "")
	kinds := []token.Kind{token.SET, token.IDENT, token.TO, token.INTEGER, token.PERIOD, token.EOF}
	if len(tokens) != len(kinds) {
		t.Fatalf("expected %d tokens, got %d", len(kinds), len(tokens))
	}
	for i, k := range kinds {
		if tokens[i].Kind != k {
			t.Errorf("tokens[%d]: expected %v, got %v", i, k, tokens[i].Kind)
		}
	}
}

func TestPositionsAreZeroBased(t *testing.T) {
	tokens := Scan("set x to 1.\nset y to 2.", "file:///pos.ks")

	first := tokens[0]
	if first.Start != (diag.Position{Line: 0, Character: 0}) {
		t.Errorf("first token start: got %+v", first.Start)
	}
	if first.End != (diag.Position{Line: 0, Character: 3}) {
		t.Errorf("first token end: got %+v", first.End)
	}

	// The second `set` begins line 1.
	var second token.Token
	for _, tok := range tokens[1:] {
		if tok.Kind == token.SET {
			second = tok
			break
		}
	}
	if second.Start != (diag.Position{Line: 1, Character: 0}) {
		t.Errorf("second set start: got %+v", second.Start)
	}
	if second.URI != "file:///pos.ks" {
		t.Errorf("uri not attributed: got %q", second.URI)
	}
}
