// Package scanner turns KerboScript source text into tokens.
package scanner

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/diag"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/token"
)

// Scanner produces tokens one at a time from an input string.
type Scanner struct {
	input string
	uri   string

	pos     int  // offset of ch
	readPos int  // offset after ch
	ch      rune // current character, 0 at end of input

	line   int // zero-based line of ch
	column int // zero-based character of ch
}

// New creates a scanner over input, attributing tokens to uri.
func New(input, uri string) *Scanner {
	s := &Scanner{input: input, uri: uri}
	s.readChar()
	return s
}

// Scan tokenizes the whole input, including the trailing EOF token.
func Scan(input, uri string) []token.Token {
	s := New(input, uri)
	var tokens []token.Token
	for {
		tok := s.NextToken()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			return tokens
		}
	}
}

// readChar advances to the next character.
func (s *Scanner) readChar() {
	if s.ch == '\n' {
		s.line++
		s.column = 0
	} else if s.ch != 0 {
		s.column += utf8.RuneLen(s.ch)
	}
	if s.readPos >= len(s.input) {
		s.ch = 0
		s.pos = len(s.input)
		return
	}
	r, size := utf8.DecodeRuneInString(s.input[s.readPos:])
	s.pos = s.readPos
	s.readPos += size
	s.ch = r
}

// peekChar looks at the next character without advancing.
func (s *Scanner) peekChar() rune {
	if s.readPos >= len(s.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(s.input[s.readPos:])
	return r
}

func (s *Scanner) position() diag.Position {
	return diag.Position{Line: s.line, Character: s.column}
}

// NextToken returns the next token in the input.
func (s *Scanner) NextToken() token.Token {
	s.skipWhitespaceAndComments()

	start := s.position()
	switch {
	case s.ch == 0:
		return s.emit(token.EOF, start, "")
	case isLetter(s.ch):
		return s.scanIdentifier(start)
	case isDigit(s.ch):
		return s.scanNumber(start)
	case s.ch == '"':
		return s.scanString(start)
	}

	ch := s.ch
	s.readChar()
	switch ch {
	case '+':
		return s.emit(token.PLUS, start, "+")
	case '-':
		return s.emit(token.MINUS, start, "-")
	case '*':
		return s.emit(token.MULT, start, "*")
	case '/':
		return s.emit(token.DIV, start, "/")
	case '^':
		return s.emit(token.POWER, start, "^")
	case '=':
		return s.emit(token.EQ, start, "=")
	case '<':
		switch s.ch {
		case '>':
			s.readChar()
			return s.emit(token.NOTEQ, start, "<>")
		case '=':
			s.readChar()
			return s.emit(token.LTE, start, "<=")
		}
		return s.emit(token.LT, start, "<")
	case '>':
		if s.ch == '=' {
			s.readChar()
			return s.emit(token.GTE, start, ">=")
		}
		return s.emit(token.GT, start, ">")
	case '(':
		return s.emit(token.LPAREN, start, "(")
	case ')':
		return s.emit(token.RPAREN, start, ")")
	case '{':
		return s.emit(token.LBRACE, start, "{")
	case '}':
		return s.emit(token.RBRACE, start, "}")
	case '[':
		return s.emit(token.LBRACKET, start, "[")
	case ']':
		return s.emit(token.RBRACKET, start, "]")
	case ',':
		return s.emit(token.COMMA, start, ",")
	case ':':
		return s.emit(token.COLON, start, ":")
	case '.':
		return s.emit(token.PERIOD, start, ".")
	case '@':
		return s.emit(token.ATSIGN, start, "@")
	case '#':
		return s.emit(token.HASH, start, "#")
	}
	return s.emit(token.ILLEGAL, start, string(ch))
}

// emit builds a token ending at the current scanner position.
func (s *Scanner) emit(kind token.Kind, start diag.Position, lexeme string) token.Token {
	return token.Token{
		Kind:   kind,
		Lexeme: lexeme,
		Start:  start,
		End:    s.position(),
		URI:    s.uri,
	}
}

func (s *Scanner) skipWhitespaceAndComments() {
	for {
		for unicode.IsSpace(s.ch) {
			s.readChar()
		}
		if s.ch == '/' && s.peekChar() == '/' {
			for s.ch != '\n' && s.ch != 0 {
				s.readChar()
			}
			continue
		}
		return
	}
}

func (s *Scanner) scanIdentifier(start diag.Position) token.Token {
	from := s.pos
	for isLetter(s.ch) || isDigit(s.ch) {
		s.readChar()
	}
	lexeme := s.input[from:s.pos]
	tok := s.emit(token.Lookup(lexeme), start, lexeme)
	switch tok.Kind {
	case token.TRUE:
		tok.Literal = true
	case token.FALSE:
		tok.Literal = false
	}
	return tok
}

func (s *Scanner) scanNumber(start diag.Position) token.Token {
	from := s.pos
	isDouble := false
	for isDigit(s.ch) {
		s.readChar()
	}
	// A period only belongs to the number when a digit follows; a trailing
	// period is the statement terminator.
	if s.ch == '.' && isDigit(s.peekChar()) {
		isDouble = true
		s.readChar()
		for isDigit(s.ch) {
			s.readChar()
		}
	}
	if s.ch == 'e' || s.ch == 'E' {
		next := s.peekChar()
		if isDigit(next) || next == '+' || next == '-' {
			isDouble = true
			s.readChar()
			if s.ch == '+' || s.ch == '-' {
				s.readChar()
			}
			for isDigit(s.ch) {
				s.readChar()
			}
		}
	}
	lexeme := s.input[from:s.pos]
	if isDouble {
		value, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			tok := s.emit(token.ILLEGAL, start, lexeme)
			return tok
		}
		tok := s.emit(token.DOUBLE, start, lexeme)
		tok.Literal = value
		return tok
	}
	value, err := strconv.Atoi(lexeme)
	if err != nil {
		// Out of int range; fall back to a double.
		fvalue, ferr := strconv.ParseFloat(lexeme, 64)
		if ferr != nil {
			return s.emit(token.ILLEGAL, start, lexeme)
		}
		tok := s.emit(token.DOUBLE, start, lexeme)
		tok.Literal = fvalue
		return tok
	}
	tok := s.emit(token.INTEGER, start, lexeme)
	tok.Literal = value
	return tok
}

func (s *Scanner) scanString(start diag.Position) token.Token {
	s.readChar() // opening quote
	var sb strings.Builder
	for {
		switch s.ch {
		case 0:
			return s.emit(token.ILLEGAL, start, `"`+sb.String())
		case '"':
			// Doubled quotes embed a literal quote character.
			if s.peekChar() == '"' {
				s.readChar()
				s.readChar()
				sb.WriteByte('"')
				continue
			}
			s.readChar()
			tok := s.emit(token.STRING, start, `"`+sb.String()+`"`)
			tok.Literal = sb.String()
			return tok
		default:
			sb.WriteRune(s.ch)
			s.readChar()
		}
	}
}

func isLetter(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}
