// Package ast defines the KerboScript syntax tree.
//
// The tree is a single-owner forest of instruction and expression nodes.
// Node kinds form a sealed hierarchy: the unexported marker methods keep the
// set of kinds closed so consumers can dispatch with exhaustive type
// switches. Every node reports its source range for position-based queries.
package ast

import (
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/diag"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/token"
)

// Node is any element of the syntax tree.
type Node interface {
	Range() diag.Range
}

// Instruction is a statement-level node.
type Instruction interface {
	Node
	instructionNode()
}

// Expression is a value-producing node.
type Expression interface {
	Node
	expressionNode()
}

// ScopeTag records the declared scope target of a declaration.
type ScopeTag int

const (
	ScopeNone ScopeTag = iota
	ScopeLocal
	ScopeGlobal
)

func (s ScopeTag) String() string {
	switch s {
	case ScopeLocal:
		return "local"
	case ScopeGlobal:
		return "global"
	}
	return "default"
}

// Script is the root of one document's tree.
type Script struct {
	URI          string
	Instructions []Instruction
}

func (s *Script) Range() diag.Range {
	if len(s.Instructions) == 0 {
		return diag.Range{}
	}
	return span(s.Instructions[0].Range(), s.Instructions[len(s.Instructions)-1].Range())
}

// span joins two ranges into their covering range.
func span(a, b diag.Range) diag.Range {
	return diag.Range{Start: a.Start, End: b.End}
}

// ---- Instructions ----------------------------------------------------------

// Block is a braced group of instructions.
type Block struct {
	Open         token.Token
	Instructions []Instruction
	Close        token.Token
}

// DeclareVariable is `declare|local|global x to expr.`
type DeclareVariable struct {
	First  token.Token // declare, local, or global keyword
	Scope  ScopeTag
	Name   token.Token
	Init   Expression
	Period token.Token
}

// DeclareFunction is `[declare] [local|global] function name { ... }`.
type DeclareFunction struct {
	First token.Token
	Scope ScopeTag
	Name  token.Token
	Body  *Block
}

// Parameter is one formal parameter of a DeclareParameter instruction.
type Parameter struct {
	Name    token.Token
	Default Expression // nil when the parameter has no default
}

// DeclareParameter is `[declare] parameter p, q is expr.`
type DeclareParameter struct {
	First      token.Token
	Parameters []Parameter
	Period     token.Token
}

// DeclareLock is `[declare] [local|global] lock name to expr.`
type DeclareLock struct {
	First  token.Token
	Scope  ScopeTag
	Name   token.Token
	Value  Expression
	Period token.Token
}

// Set is `set target to expr.`
type Set struct {
	Keyword token.Token
	Target  Expression
	Value   Expression
	Period  token.Token
}

// Unset is `unset name.` or `unset all.`
type Unset struct {
	Keyword token.Token
	Name    token.Token
	All     bool
	Period  token.Token
}

// Unlock is `unlock name.` or `unlock all.`
type Unlock struct {
	Keyword token.Token
	Name    token.Token
	All     bool
	Period  token.Token
}

// If is `if cond inst [else inst]`.
type If struct {
	Keyword token.Token
	Cond    Expression
	Body    Instruction
	Else    *Else // nil when absent
}

// Else is the else arm of an If.
type Else struct {
	Keyword token.Token
	Body    Instruction
}

// Until is `until cond inst`.
type Until struct {
	Keyword token.Token
	Cond    Expression
	Body    Instruction
}

// From is `from { init } until cond step { inc } do inst`.
type From struct {
	Keyword token.Token
	Init    *Block
	Cond    Expression
	Step    *Block
	Body    Instruction
}

// For is `for ident in expr inst`.
type For struct {
	Keyword    token.Token
	Ident      token.Token
	Collection Expression
	Body       Instruction
}

// When is `when cond then inst`.
type When struct {
	Keyword token.Token
	Cond    Expression
	Body    Instruction
}

// On is `on expr inst`.
type On struct {
	Keyword token.Token
	Trigger Expression
	Body    Instruction
}

// Wait is `wait expr.` or `wait until expr.`
type Wait struct {
	Keyword token.Token
	Until   bool
	Expr    Expression
	Period  token.Token
}

// Return is `return [expr].`
type Return struct {
	Keyword token.Token
	Expr    Expression // nil when the return carries no value
	Period  token.Token
}

// Break is `break.`
type Break struct {
	Keyword token.Token
	Period  token.Token
}

// Preserve is `preserve.`
type Preserve struct {
	Keyword token.Token
	Period  token.Token
}

// Switch is `switch to expr.`
type Switch struct {
	Keyword token.Token
	Target  Expression
	Period  token.Token
}

// Run is `run [once] name[(args)].`
type Run struct {
	Keyword token.Token
	Once    bool
	Path    token.Token // identifier or string token naming the target
	Args    []Expression
	Period  token.Token
}

// RunPath is `runpath(expr[,args]).` or `runoncepath(expr[,args]).`
type RunPath struct {
	Keyword token.Token
	Once    bool
	Expr    Expression
	Args    []Expression
	Period  token.Token
}

// Compile is `compile expr [to expr].`
type Compile struct {
	Keyword token.Token
	Source  Expression
	Target  Expression // nil when absent
	Period  token.Token
}

// Print is `print expr [at (x,y)].`
type Print struct {
	Keyword token.Token
	Expr    Expression
	AtX     Expression // nil when no `at` clause
	AtY     Expression
	Period  token.Token
}

// Log is `log expr to expr.`
type Log struct {
	Keyword token.Token
	Expr    Expression
	Target  Expression
	Period  token.Token
}

// Copy is `copy expr from|to expr.`
type Copy struct {
	Keyword   token.Token
	Source    Expression
	Direction token.Token // the from or to keyword
	Target    Expression
	Period    token.Token
}

// Rename is `rename [volume|file] expr to expr.`
type Rename struct {
	Keyword token.Token
	What    token.Token // volume or file keyword; zero token when absent
	Source  Expression
	Target  Expression
	Period  token.Token
}

// Delete is `delete expr [from expr].`
type Delete struct {
	Keyword token.Token
	Target  Expression
	From    Expression // nil when absent
	Period  token.Token
}

// Toggle is `toggle target.`
type Toggle struct {
	Keyword token.Token
	Target  Expression
	Period  token.Token
}

// Command is a bare keyword instruction: stage, clearscreen, reboot, shutdown.
type Command struct {
	Keyword token.Token
	Period  token.Token
}

// ExpressionInstruction is a bare expression statement, e.g. `hi().`
type ExpressionInstruction struct {
	Expr   Expression
	Period token.Token
}

// Invalid replaces a statement that failed to parse. It spans the tokens
// skipped during resynchronization so later passes can still answer
// position queries inside the failed region.
type Invalid struct {
	Tokens []token.Token
}

func (n *Block) Range() diag.Range { return span(n.Open.Range(), n.Close.Range()) }
func (n *DeclareVariable) Range() diag.Range {
	return span(n.First.Range(), n.Period.Range())
}
func (n *DeclareFunction) Range() diag.Range {
	return span(n.First.Range(), n.Body.Range())
}
func (n *DeclareParameter) Range() diag.Range {
	return span(n.First.Range(), n.Period.Range())
}
func (n *DeclareLock) Range() diag.Range { return span(n.First.Range(), n.Period.Range()) }
func (n *Set) Range() diag.Range         { return span(n.Keyword.Range(), n.Period.Range()) }
func (n *Unset) Range() diag.Range       { return span(n.Keyword.Range(), n.Period.Range()) }
func (n *Unlock) Range() diag.Range      { return span(n.Keyword.Range(), n.Period.Range()) }
func (n *If) Range() diag.Range {
	if n.Else != nil {
		return span(n.Keyword.Range(), n.Else.Body.Range())
	}
	return span(n.Keyword.Range(), n.Body.Range())
}
func (n *Else) Range() diag.Range  { return span(n.Keyword.Range(), n.Body.Range()) }
func (n *Until) Range() diag.Range { return span(n.Keyword.Range(), n.Body.Range()) }
func (n *From) Range() diag.Range  { return span(n.Keyword.Range(), n.Body.Range()) }
func (n *For) Range() diag.Range   { return span(n.Keyword.Range(), n.Body.Range()) }
func (n *When) Range() diag.Range  { return span(n.Keyword.Range(), n.Body.Range()) }
func (n *On) Range() diag.Range    { return span(n.Keyword.Range(), n.Body.Range()) }
func (n *Wait) Range() diag.Range  { return span(n.Keyword.Range(), n.Period.Range()) }
func (n *Return) Range() diag.Range {
	return span(n.Keyword.Range(), n.Period.Range())
}
func (n *Break) Range() diag.Range    { return span(n.Keyword.Range(), n.Period.Range()) }
func (n *Preserve) Range() diag.Range { return span(n.Keyword.Range(), n.Period.Range()) }
func (n *Switch) Range() diag.Range   { return span(n.Keyword.Range(), n.Period.Range()) }
func (n *Run) Range() diag.Range      { return span(n.Keyword.Range(), n.Period.Range()) }
func (n *RunPath) Range() diag.Range  { return span(n.Keyword.Range(), n.Period.Range()) }
func (n *Compile) Range() diag.Range  { return span(n.Keyword.Range(), n.Period.Range()) }
func (n *Print) Range() diag.Range    { return span(n.Keyword.Range(), n.Period.Range()) }
func (n *Log) Range() diag.Range      { return span(n.Keyword.Range(), n.Period.Range()) }
func (n *Copy) Range() diag.Range     { return span(n.Keyword.Range(), n.Period.Range()) }
func (n *Rename) Range() diag.Range   { return span(n.Keyword.Range(), n.Period.Range()) }
func (n *Delete) Range() diag.Range   { return span(n.Keyword.Range(), n.Period.Range()) }
func (n *Toggle) Range() diag.Range   { return span(n.Keyword.Range(), n.Period.Range()) }
func (n *Command) Range() diag.Range  { return span(n.Keyword.Range(), n.Period.Range()) }
func (n *ExpressionInstruction) Range() diag.Range {
	return span(n.Expr.Range(), n.Period.Range())
}
func (n *Invalid) Range() diag.Range {
	if len(n.Tokens) == 0 {
		return diag.Range{}
	}
	return span(n.Tokens[0].Range(), n.Tokens[len(n.Tokens)-1].Range())
}

func (*Block) instructionNode()                 {}
func (*DeclareVariable) instructionNode()       {}
func (*DeclareFunction) instructionNode()       {}
func (*DeclareParameter) instructionNode()      {}
func (*DeclareLock) instructionNode()           {}
func (*Set) instructionNode()                   {}
func (*Unset) instructionNode()                 {}
func (*Unlock) instructionNode()                {}
func (*If) instructionNode()                    {}
func (*Until) instructionNode()                 {}
func (*From) instructionNode()                  {}
func (*For) instructionNode()                   {}
func (*When) instructionNode()                  {}
func (*On) instructionNode()                    {}
func (*Wait) instructionNode()                  {}
func (*Return) instructionNode()                {}
func (*Break) instructionNode()                 {}
func (*Preserve) instructionNode()              {}
func (*Switch) instructionNode()                {}
func (*Run) instructionNode()                   {}
func (*RunPath) instructionNode()               {}
func (*Compile) instructionNode()               {}
func (*Print) instructionNode()                 {}
func (*Log) instructionNode()                   {}
func (*Copy) instructionNode()                  {}
func (*Rename) instructionNode()                {}
func (*Delete) instructionNode()                {}
func (*Toggle) instructionNode()                {}
func (*Command) instructionNode()               {}
func (*ExpressionInstruction) instructionNode() {}
func (*Invalid) instructionNode()               {}

// ---- Expressions -----------------------------------------------------------

// Binary is a left-associative binary operation.
type Binary struct {
	Left  Expression
	Op    token.Token
	Right Expression
}

// Unary is a prefix operation: not, defined, + or -.
type Unary struct {
	Op      token.Token
	Operand Expression
}

// Factor is the right-recursive power operation `base ^ exponent`.
type Factor struct {
	Base     Expression
	Power    token.Token
	Exponent Expression
}

// Suffix is a colon-separated member access trailer.
type Suffix struct {
	Base Expression
	Name token.Token
}

// Call applies arguments to a callee.
type Call struct {
	Callee Expression
	Open   token.Token
	Args   []Expression
	Close  token.Token
}

// ArrayIndex is the `#index` trailer.
type ArrayIndex struct {
	Base  Expression
	Index token.Token // integer or identifier token
}

// ArrayBracket is the `[expr]` trailer.
type ArrayBracket struct {
	Base  Expression
	Index Expression
	Close token.Token
}

// Delegate is the `@` trailer producing a function delegate value.
type Delegate struct {
	Expr Expression
	At   token.Token
}

// Literal is an integer, double, string, or boolean literal token.
type Literal struct {
	Token token.Token
}

// Identifier is a bare identifier expression.
type Identifier struct {
	Token token.Token
}

// Grouping is a parenthesized expression.
type Grouping struct {
	Open  token.Token
	Expr  Expression
	Close token.Token
}

// AnonymousFunction is a braced block used in expression position.
type AnonymousFunction struct {
	Open         token.Token
	Instructions []Instruction
	Close        token.Token
}

// BadExpression replaces an expression that failed to parse.
type BadExpression struct {
	Tokens []token.Token
}

func (n *Binary) Range() diag.Range { return span(n.Left.Range(), n.Right.Range()) }
func (n *Unary) Range() diag.Range  { return span(n.Op.Range(), n.Operand.Range()) }
func (n *Factor) Range() diag.Range {
	return span(n.Base.Range(), n.Exponent.Range())
}
func (n *Suffix) Range() diag.Range { return span(n.Base.Range(), n.Name.Range()) }
func (n *Call) Range() diag.Range   { return span(n.Callee.Range(), n.Close.Range()) }
func (n *ArrayIndex) Range() diag.Range {
	return span(n.Base.Range(), n.Index.Range())
}
func (n *ArrayBracket) Range() diag.Range {
	return span(n.Base.Range(), n.Close.Range())
}
func (n *Delegate) Range() diag.Range   { return span(n.Expr.Range(), n.At.Range()) }
func (n *Literal) Range() diag.Range    { return n.Token.Range() }
func (n *Identifier) Range() diag.Range { return n.Token.Range() }
func (n *Grouping) Range() diag.Range   { return span(n.Open.Range(), n.Close.Range()) }
func (n *AnonymousFunction) Range() diag.Range {
	return span(n.Open.Range(), n.Close.Range())
}
func (n *BadExpression) Range() diag.Range {
	if len(n.Tokens) == 0 {
		return diag.Range{}
	}
	return span(n.Tokens[0].Range(), n.Tokens[len(n.Tokens)-1].Range())
}

func (*Binary) expressionNode()            {}
func (*Unary) expressionNode()             {}
func (*Factor) expressionNode()            {}
func (*Suffix) expressionNode()            {}
func (*Call) expressionNode()              {}
func (*ArrayIndex) expressionNode()        {}
func (*ArrayBracket) expressionNode()      {}
func (*Delegate) expressionNode()          {}
func (*Literal) expressionNode()           {}
func (*Identifier) expressionNode()        {}
func (*Grouping) expressionNode()          {}
func (*AnonymousFunction) expressionNode() {}
func (*BadExpression) expressionNode()     {}
