package parser

import (
	"fmt"

	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/ast"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/diag"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/token"
)

// parseInstruction dispatches on the current token kind.
func (p *Parser) parseInstruction() ast.Instruction {
	switch p.cur().Kind {
	case token.LBRACE:
		return p.parseBlock()
	case token.DECLARE:
		return p.parseDeclare()
	case token.LOCAL, token.GLOBAL:
		return p.parseScopedDeclare(p.advance())
	case token.PARAMETER:
		return p.parseParameterRest(p.advance())
	case token.FUNCTION:
		first := p.cur()
		return p.parseFunctionRest(first, ast.ScopeNone)
	case token.LOCK:
		first := p.cur()
		return p.parseLockRest(first, ast.ScopeNone)
	case token.SET:
		return p.parseSet()
	case token.UNSET:
		return p.parseUnset()
	case token.UNLOCK:
		return p.parseUnlock()
	case token.IF:
		return p.parseIf()
	case token.UNTIL:
		return p.parseUntil()
	case token.FROM:
		return p.parseFrom()
	case token.FOR:
		return p.parseFor()
	case token.WHEN:
		return p.parseWhen()
	case token.ON:
		return p.parseOn()
	case token.WAIT:
		return p.parseWait()
	case token.RETURN:
		return p.parseReturn()
	case token.BREAK:
		kw := p.advance()
		return &ast.Break{Keyword: kw, Period: p.expectPeriod("break")}
	case token.PRESERVE:
		kw := p.advance()
		return &ast.Preserve{Keyword: kw, Period: p.expectPeriod("preserve")}
	case token.SWITCH:
		return p.parseSwitch()
	case token.RUN:
		return p.parseRun()
	case token.RUNPATH, token.RUNONCEPATH:
		return p.parseRunPath()
	case token.COMPILE:
		return p.parseCompile()
	case token.PRINT:
		return p.parsePrint()
	case token.LOG:
		return p.parseLog()
	case token.COPY:
		return p.parseCopy()
	case token.RENAME:
		return p.parseRename()
	case token.DELETE:
		return p.parseDelete()
	case token.TOGGLE:
		return p.parseToggle()
	case token.STAGE, token.CLEARSCREEN, token.REBOOT, token.SHUTDOWN:
		kw := p.advance()
		return &ast.Command{Keyword: kw, Period: p.expectPeriod(kw.Lexeme)}
	default:
		return p.parseExpressionInstruction()
	}
}

func (p *Parser) expectPeriod(construct string) token.Token {
	return p.expect(token.PERIOD, construct, construct+".")
}

// parseBlock parses `{ instructions }`. Failures of instructions inside the
// block recover locally; a missing closing brace aborts the block itself,
// bundling the inner errors onto the block error.
func (p *Parser) parseBlock() *ast.Block {
	open := p.expect(token.LBRACE, "block", "{ instructions. }")
	mark := len(p.errors)
	var insts []ast.Instruction
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		if inst := p.parseInstructionRecover(); inst != nil {
			insts = append(insts, inst)
		}
	}
	if !p.curIs(token.RBRACE) {
		inner := append([]*diag.ParseError(nil), p.errors[mark:]...)
		p.errors = p.errors[:mark]
		err := p.parseError("block", "{ instructions. }", "expected '}' to close block")
		err.Inner = inner
		panic(&bailout{err: err})
	}
	return &ast.Block{Open: open, Instructions: insts, Close: p.advance()}
}

// parseDeclare handles the `declare` prefix forms: variable, parameter,
// function, and lock declarations.
func (p *Parser) parseDeclare() ast.Instruction {
	first := p.advance() // declare
	scope := ast.ScopeNone
	switch p.cur().Kind {
	case token.LOCAL:
		scope = ast.ScopeLocal
		p.advance()
	case token.GLOBAL:
		scope = ast.ScopeGlobal
		p.advance()
	}
	switch p.cur().Kind {
	case token.PARAMETER:
		p.advance()
		return p.parseParameterRest(first)
	case token.FUNCTION:
		return p.parseFunctionRest(first, scope)
	case token.LOCK:
		return p.parseLockRest(first, scope)
	case token.IDENT:
		return p.parseVariableRest(first, scope)
	}
	p.fail("declaration", "declare x to value.",
		fmt.Sprintf("expected a declaration after 'declare', found '%s'", p.cur().Lexeme))
	return nil
}

// parseScopedDeclare handles the `local`/`global` prefix forms.
func (p *Parser) parseScopedDeclare(first token.Token) ast.Instruction {
	scope := ast.ScopeLocal
	if first.Kind == token.GLOBAL {
		scope = ast.ScopeGlobal
	}
	switch p.cur().Kind {
	case token.FUNCTION:
		return p.parseFunctionRest(first, scope)
	case token.LOCK:
		return p.parseLockRest(first, scope)
	case token.IDENT:
		return p.parseVariableRest(first, scope)
	}
	p.fail("declaration", "local x is value.",
		fmt.Sprintf("expected a declaration after '%s', found '%s'", first.Lexeme, p.cur().Lexeme))
	return nil
}

func (p *Parser) parseVariableRest(first token.Token, scope ast.ScopeTag) ast.Instruction {
	name := p.expect(token.IDENT, "variable declaration", "local x is value.")
	if !p.curIs(token.TO) && !p.curIs(token.IS) {
		p.fail("variable declaration", "local x is value.",
			fmt.Sprintf("expected 'to' or 'is' after variable name, found '%s'", p.cur().Lexeme))
	}
	p.advance()
	init := p.parseExpression()
	return &ast.DeclareVariable{
		First:  first,
		Scope:  scope,
		Name:   name,
		Init:   init,
		Period: p.expectPeriod("variable declaration"),
	}
}

func (p *Parser) parseFunctionRest(first token.Token, scope ast.ScopeTag) ast.Instruction {
	p.expect(token.FUNCTION, "function declaration", "function name { instructions. }")
	name := p.expect(token.IDENT, "function declaration", "function name { instructions. }")
	body := p.parseBlock()
	p.match(token.PERIOD) // trailing period after the body is optional
	return &ast.DeclareFunction{First: first, Scope: scope, Name: name, Body: body}
}

func (p *Parser) parseParameterRest(first token.Token) ast.Instruction {
	inst := &ast.DeclareParameter{First: first}
	for {
		name := p.expect(token.IDENT, "parameter declaration", "parameter p, q is 0.")
		param := ast.Parameter{Name: name}
		if p.curIs(token.IS) || p.curIs(token.TO) {
			p.advance()
			param.Default = p.parseExpression()
		}
		inst.Parameters = append(inst.Parameters, param)
		if !p.match(token.COMMA) {
			break
		}
	}
	inst.Period = p.expectPeriod("parameter declaration")
	return inst
}

func (p *Parser) parseLockRest(first token.Token, scope ast.ScopeTag) ast.Instruction {
	p.expect(token.LOCK, "lock declaration", "lock throttle to 1.")
	name := p.expect(token.IDENT, "lock declaration", "lock throttle to 1.")
	p.expect(token.TO, "lock declaration", "lock throttle to 1.")
	value := p.parseExpression()
	return &ast.DeclareLock{
		First:  first,
		Scope:  scope,
		Name:   name,
		Value:  value,
		Period: p.expectPeriod("lock declaration"),
	}
}

func (p *Parser) parseSet() ast.Instruction {
	kw := p.advance()
	target := p.parseSuffixChain()
	p.expect(token.TO, "set instruction", "set x to value.")
	value := p.parseExpression()
	return &ast.Set{Keyword: kw, Target: target, Value: value, Period: p.expectPeriod("set instruction")}
}

func (p *Parser) parseUnset() ast.Instruction {
	kw := p.advance()
	inst := &ast.Unset{Keyword: kw}
	if p.curIs(token.ALL) {
		inst.Name = p.advance()
		inst.All = true
	} else {
		inst.Name = p.expect(token.IDENT, "unset instruction", "unset x.")
	}
	inst.Period = p.expectPeriod("unset instruction")
	return inst
}

func (p *Parser) parseUnlock() ast.Instruction {
	kw := p.advance()
	inst := &ast.Unlock{Keyword: kw}
	if p.curIs(token.ALL) {
		inst.Name = p.advance()
		inst.All = true
	} else {
		inst.Name = p.expect(token.IDENT, "unlock instruction", "unlock throttle.")
	}
	inst.Period = p.expectPeriod("unlock instruction")
	return inst
}

func (p *Parser) parseIf() ast.Instruction {
	kw := p.advance()
	cond := p.parseExpression()
	body := p.parseInstruction()
	if _, isBlock := body.(*ast.Block); isBlock {
		p.match(token.PERIOD)
	}
	inst := &ast.If{Keyword: kw, Cond: cond, Body: body}
	if p.curIs(token.ELSE) {
		elseKw := p.advance()
		elseBody := p.parseInstruction()
		if _, isBlock := elseBody.(*ast.Block); isBlock {
			p.match(token.PERIOD)
		}
		inst.Else = &ast.Else{Keyword: elseKw, Body: elseBody}
	}
	return inst
}

func (p *Parser) parseUntil() ast.Instruction {
	kw := p.advance()
	cond := p.parseExpression()
	body := p.parseInstruction()
	if _, isBlock := body.(*ast.Block); isBlock {
		p.match(token.PERIOD)
	}
	return &ast.Until{Keyword: kw, Cond: cond, Body: body}
}

func (p *Parser) parseFrom() ast.Instruction {
	kw := p.advance()
	init := p.parseBlock()
	p.expect(token.UNTIL, "from loop", "from {local i is 0.} until i > 10 step {set i to i+1.} do { }")
	cond := p.parseExpression()
	p.expect(token.STEP, "from loop", "from {local i is 0.} until i > 10 step {set i to i+1.} do { }")
	step := p.parseBlock()
	p.expect(token.DO, "from loop", "from {local i is 0.} until i > 10 step {set i to i+1.} do { }")
	body := p.parseInstruction()
	if _, isBlock := body.(*ast.Block); isBlock {
		p.match(token.PERIOD)
	}
	return &ast.From{Keyword: kw, Init: init, Cond: cond, Step: step, Body: body}
}

func (p *Parser) parseFor() ast.Instruction {
	kw := p.advance()
	ident := p.expect(token.IDENT, "for loop", "for part in ship:parts { }")
	p.expect(token.IN, "for loop", "for part in ship:parts { }")
	coll := p.parseExpression()
	body := p.parseInstruction()
	if _, isBlock := body.(*ast.Block); isBlock {
		p.match(token.PERIOD)
	}
	return &ast.For{Keyword: kw, Ident: ident, Collection: coll, Body: body}
}

func (p *Parser) parseWhen() ast.Instruction {
	kw := p.advance()
	cond := p.parseExpression()
	p.expect(token.THEN, "when trigger", "when altitude > 1000 then { }")
	body := p.parseInstruction()
	if _, isBlock := body.(*ast.Block); isBlock {
		p.match(token.PERIOD)
	}
	return &ast.When{Keyword: kw, Cond: cond, Body: body}
}

func (p *Parser) parseOn() ast.Instruction {
	kw := p.advance()
	trigger := p.parseSuffixChain()
	body := p.parseInstruction()
	if _, isBlock := body.(*ast.Block); isBlock {
		p.match(token.PERIOD)
	}
	return &ast.On{Keyword: kw, Trigger: trigger, Body: body}
}

func (p *Parser) parseWait() ast.Instruction {
	kw := p.advance()
	inst := &ast.Wait{Keyword: kw}
	inst.Until = p.match(token.UNTIL)
	inst.Expr = p.parseExpression()
	inst.Period = p.expectPeriod("wait instruction")
	return inst
}

func (p *Parser) parseReturn() ast.Instruction {
	kw := p.advance()
	inst := &ast.Return{Keyword: kw}
	if !p.curIs(token.PERIOD) {
		inst.Expr = p.parseExpression()
	}
	inst.Period = p.expectPeriod("return instruction")
	return inst
}

func (p *Parser) parseSwitch() ast.Instruction {
	kw := p.advance()
	p.expect(token.TO, "switch instruction", "switch to 0.")
	target := p.parseExpression()
	return &ast.Switch{Keyword: kw, Target: target, Period: p.expectPeriod("switch instruction")}
}

// parseRun parses `run [once] name[(args)].` and records it as a load
// instruction.
func (p *Parser) parseRun() ast.Instruction {
	kw := p.advance()
	inst := &ast.Run{Keyword: kw}
	inst.Once = p.match(token.ONCE)
	if !p.curIs(token.IDENT) && !p.curIs(token.STRING) {
		p.fail("run instruction", "run launch.",
			fmt.Sprintf("expected a script name after 'run', found '%s'", p.cur().Lexeme))
	}
	inst.Path = p.advance()
	if p.match(token.LPAREN) {
		inst.Args = p.parseArguments()
		p.expect(token.RPAREN, "run instruction", "run launch(arg).")
	}
	inst.Period = p.expectPeriod("run instruction")
	p.loads = append(p.loads, inst)
	return inst
}

// parseRunPath parses `runpath(...)` / `runoncepath(...)` and records it as a
// load instruction.
func (p *Parser) parseRunPath() ast.Instruction {
	kw := p.advance()
	inst := &ast.RunPath{Keyword: kw, Once: kw.Kind == token.RUNONCEPATH}
	p.expect(token.LPAREN, "runpath instruction", `runpath("launch.ks").`)
	inst.Expr = p.parseExpression()
	for p.match(token.COMMA) {
		inst.Args = append(inst.Args, p.parseExpression())
	}
	p.expect(token.RPAREN, "runpath instruction", `runpath("launch.ks").`)
	inst.Period = p.expectPeriod("runpath instruction")
	p.loads = append(p.loads, inst)
	return inst
}

func (p *Parser) parseCompile() ast.Instruction {
	kw := p.advance()
	inst := &ast.Compile{Keyword: kw}
	inst.Source = p.parseExpression()
	if p.match(token.TO) {
		inst.Target = p.parseExpression()
	}
	inst.Period = p.expectPeriod("compile instruction")
	return inst
}

func (p *Parser) parsePrint() ast.Instruction {
	kw := p.advance()
	inst := &ast.Print{Keyword: kw}
	inst.Expr = p.parseExpression()
	if p.match(token.AT) {
		p.expect(token.LPAREN, "print instruction", "print value at (0,0).")
		inst.AtX = p.parseExpression()
		p.expect(token.COMMA, "print instruction", "print value at (0,0).")
		inst.AtY = p.parseExpression()
		p.expect(token.RPAREN, "print instruction", "print value at (0,0).")
	}
	inst.Period = p.expectPeriod("print instruction")
	return inst
}

func (p *Parser) parseLog() ast.Instruction {
	kw := p.advance()
	expr := p.parseExpression()
	p.expect(token.TO, "log instruction", `log value to "file.txt".`)
	target := p.parseExpression()
	return &ast.Log{Keyword: kw, Expr: expr, Target: target, Period: p.expectPeriod("log instruction")}
}

func (p *Parser) parseCopy() ast.Instruction {
	kw := p.advance()
	source := p.parseExpression()
	if !p.curIs(token.FROM) && !p.curIs(token.TO) {
		p.fail("copy instruction", "copy script to 0.",
			fmt.Sprintf("expected 'from' or 'to', found '%s'", p.cur().Lexeme))
	}
	direction := p.advance()
	target := p.parseExpression()
	return &ast.Copy{
		Keyword:   kw,
		Source:    source,
		Direction: direction,
		Target:    target,
		Period:    p.expectPeriod("copy instruction"),
	}
}

func (p *Parser) parseRename() ast.Instruction {
	kw := p.advance()
	inst := &ast.Rename{Keyword: kw}
	if p.curIs(token.VOLUME) || p.curIs(token.FILE) {
		inst.What = p.advance()
	}
	inst.Source = p.parseExpression()
	p.expect(token.TO, "rename instruction", "rename file old to new.")
	inst.Target = p.parseExpression()
	inst.Period = p.expectPeriod("rename instruction")
	return inst
}

func (p *Parser) parseDelete() ast.Instruction {
	kw := p.advance()
	inst := &ast.Delete{Keyword: kw}
	inst.Target = p.parseExpression()
	if p.match(token.FROM) {
		inst.From = p.parseExpression()
	}
	inst.Period = p.expectPeriod("delete instruction")
	return inst
}

func (p *Parser) parseToggle() ast.Instruction {
	kw := p.advance()
	target := p.parseSuffixChain()
	return &ast.Toggle{Keyword: kw, Target: target, Period: p.expectPeriod("toggle instruction")}
}

func (p *Parser) parseExpressionInstruction() ast.Instruction {
	expr := p.parseExpression()
	return &ast.ExpressionInstruction{Expr: expr, Period: p.expectPeriod("instruction")}
}
