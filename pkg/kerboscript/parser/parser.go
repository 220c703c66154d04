// Package parser builds KerboScript syntax trees from token streams.
//
// The parser is a recursive-descent parser with one-token lookahead. It never
// fails past its boundary: an expected-token mismatch aborts only the current
// instruction, which is replaced by an ast.Invalid node spanning the skipped
// tokens, and parsing resumes at the next statement boundary.
package parser

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/ast"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/diag"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/token"
)

// Result is the output of one parse: the tree, the structured syntax errors,
// and the side list of load instructions (run, runpath, runoncepath) used by
// the dependency linker.
type Result struct {
	Script *ast.Script
	Errors []*diag.ParseError
	Loads  []ast.Instruction
}

// Parser consumes a token stream.
type Parser struct {
	tokens []token.Token
	pos    int
	errors []*diag.ParseError
	loads  []ast.Instruction
	logger *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for internal-fault reporting.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// New creates a parser over tokens. A trailing EOF token is appended when the
// stream lacks one, so the parser always terminates.
func New(tokens []token.Token, opts ...Option) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != token.EOF {
		var end token.Token
		if len(tokens) > 0 {
			last := tokens[len(tokens)-1]
			end = token.Token{Kind: token.EOF, Start: last.End, End: last.End, URI: last.URI}
		} else {
			end = token.Token{Kind: token.EOF}
		}
		tokens = append(tokens, end)
	}
	p := &Parser{tokens: tokens, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses a whole token stream. Convenience wrapper around New + Parse.
func Parse(tokens []token.Token) *Result {
	return New(tokens).Parse()
}

// Parse parses the token stream into a script. Malformed input produces
// Invalid nodes and structured errors; an internal inconsistency is logged
// and yields an empty script rather than a panic.
func (p *Parser) Parse() (result *Result) {
	uri := p.tokens[0].URI
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("parser invariant violated", "uri", uri, "fault", r)
			result = &Result{Script: &ast.Script{URI: uri}}
		}
	}()

	script := &ast.Script{URI: uri}
	for !p.curIs(token.EOF) {
		if inst := p.parseInstructionRecover(); inst != nil {
			script.Instructions = append(script.Instructions, inst)
		}
	}
	return &Result{Script: script, Errors: p.errors, Loads: p.loads}
}

// ParseInstruction parses a single instruction, for tooling and tests.
func ParseInstruction(tokens []token.Token) (ast.Instruction, []*diag.ParseError) {
	p := New(tokens)
	inst := p.parseInstructionRecover()
	return inst, p.errors
}

// ParseExpression parses a single expression, for tooling and tests.
func ParseExpression(tokens []token.Token) (expr ast.Expression, errs []*diag.ParseError) {
	p := New(tokens)
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(*bailout)
			if !ok {
				panic(r)
			}
			p.errors = append(p.errors, b.err)
			expr = &ast.BadExpression{Tokens: p.tokens[:p.pos]}
			errs = p.errors
		}
	}()
	expr = p.parseExpression()
	return expr, p.errors
}

// ---- error machinery -------------------------------------------------------

// bailout carries a structured parse error up to the nearest recovery point.
type bailout struct {
	err *diag.ParseError
}

func (p *Parser) parseError(construct, example, message string) *diag.ParseError {
	return &diag.ParseError{
		Range:     p.cur().Range(),
		Message:   message,
		Construct: construct,
		Example:   example,
	}
}

// fail aborts the current instruction with a structured error.
func (p *Parser) fail(construct, example, message string) {
	panic(&bailout{err: p.parseError(construct, example, message)})
}

// expect consumes and returns a token of the wanted kind, or aborts the
// current construct.
func (p *Parser) expect(kind token.Kind, construct, example string) token.Token {
	if !p.curIs(kind) {
		p.fail(construct, example,
			fmt.Sprintf("expected '%s', found '%s'", kind, p.cur().Lexeme))
	}
	return p.advance()
}

// parseInstructionRecover parses one instruction, converting a parse abort
// into an Invalid node plus a recorded error.
func (p *Parser) parseInstructionRecover() (inst ast.Instruction) {
	start := p.pos
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(*bailout)
			if !ok {
				panic(r)
			}
			p.errors = append(p.errors, b.err)
			inst = p.synchronize(start)
		}
	}()
	return p.parseInstruction()
}

// synchronize advances past the failed region. It stops after a period, or
// before a token that starts a recognized instruction, a closing brace, or
// end of input, and returns an Invalid node covering the skipped tokens.
func (p *Parser) synchronize(start int) *ast.Invalid {
	if p.pos == start && !p.curIs(token.EOF) {
		p.advance()
	}
	for !p.curIs(token.EOF) {
		if p.curIs(token.PERIOD) {
			p.advance()
			break
		}
		if p.curIs(token.RBRACE) || startsInstruction(p.cur().Kind) {
			break
		}
		p.advance()
	}
	return &ast.Invalid{Tokens: p.tokens[start:p.pos]}
}

// startsInstruction reports whether a token kind can begin an instruction,
// used as a resynchronization target.
func startsInstruction(k token.Kind) bool {
	switch k {
	case token.DECLARE, token.LOCAL, token.GLOBAL, token.PARAMETER,
		token.FUNCTION, token.LOCK, token.UNLOCK, token.SET, token.UNSET,
		token.IF, token.UNTIL, token.FROM, token.FOR, token.WHEN, token.ON,
		token.WAIT, token.RETURN, token.BREAK, token.PRESERVE, token.SWITCH,
		token.RUN, token.RUNPATH, token.RUNONCEPATH, token.COMPILE,
		token.PRINT, token.LOG, token.COPY, token.RENAME, token.DELETE,
		token.TOGGLE, token.STAGE, token.CLEARSCREEN, token.REBOOT,
		token.SHUTDOWN, token.LBRACE:
		return true
	}
	return false
}

// ---- token window ----------------------------------------------------------

func (p *Parser) cur() token.Token {
	return p.tokens[p.pos]
}

func (p *Parser) curIs(kind token.Kind) bool {
	return p.cur().Kind == kind
}

// advance returns the current token and moves on, never past EOF.
func (p *Parser) advance() token.Token {
	tok := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

// match consumes the current token when it has the given kind.
func (p *Parser) match(kind token.Kind) bool {
	if p.curIs(kind) {
		p.advance()
		return true
	}
	return false
}
