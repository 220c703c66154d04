package ast

import (
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/diag"
)

// Children returns a node's direct child nodes in source order.
func Children(n Node) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, c := range nodes {
			if c != nil {
				out = append(out, c)
			}
		}
	}
	addExpr := func(exprs ...Expression) {
		for _, e := range exprs {
			if e != nil {
				out = append(out, e)
			}
		}
	}
	addInsts := func(insts []Instruction) {
		for _, i := range insts {
			out = append(out, i)
		}
	}

	switch n := n.(type) {
	case *Script:
		addInsts(n.Instructions)
	case *Block:
		addInsts(n.Instructions)
	case *DeclareVariable:
		addExpr(n.Init)
	case *DeclareFunction:
		add(n.Body)
	case *DeclareParameter:
		for _, p := range n.Parameters {
			addExpr(p.Default)
		}
	case *DeclareLock:
		addExpr(n.Value)
	case *Set:
		addExpr(n.Target, n.Value)
	case *Unset, *Unlock, *Break, *Preserve, *Command, *Invalid:
		// leaf instructions
	case *If:
		addExpr(n.Cond)
		add(n.Body)
		if n.Else != nil {
			add(n.Else.Body)
		}
	case *Until:
		addExpr(n.Cond)
		add(n.Body)
	case *From:
		add(n.Init)
		addExpr(n.Cond)
		add(n.Step, n.Body)
	case *For:
		addExpr(n.Collection)
		add(n.Body)
	case *When:
		addExpr(n.Cond)
		add(n.Body)
	case *On:
		addExpr(n.Trigger)
		add(n.Body)
	case *Wait:
		addExpr(n.Expr)
	case *Return:
		addExpr(n.Expr)
	case *Switch:
		addExpr(n.Target)
	case *Run:
		addExpr(n.Args...)
	case *RunPath:
		addExpr(n.Expr)
		addExpr(n.Args...)
	case *Compile:
		addExpr(n.Source, n.Target)
	case *Print:
		addExpr(n.Expr, n.AtX, n.AtY)
	case *Log:
		addExpr(n.Expr, n.Target)
	case *Copy:
		addExpr(n.Source, n.Target)
	case *Rename:
		addExpr(n.Source, n.Target)
	case *Delete:
		addExpr(n.Target, n.From)
	case *Toggle:
		addExpr(n.Target)
	case *ExpressionInstruction:
		addExpr(n.Expr)
	case *Binary:
		addExpr(n.Left, n.Right)
	case *Unary:
		addExpr(n.Operand)
	case *Factor:
		addExpr(n.Base, n.Exponent)
	case *Suffix:
		addExpr(n.Base)
	case *Call:
		addExpr(n.Callee)
		addExpr(n.Args...)
	case *ArrayIndex:
		addExpr(n.Base)
	case *ArrayBracket:
		addExpr(n.Base, n.Index)
	case *Delegate:
		addExpr(n.Expr)
	case *Grouping:
		addExpr(n.Expr)
	case *AnonymousFunction:
		addInsts(n.Instructions)
	case *Literal, *Identifier, *BadExpression:
		// leaf expressions
	}
	return out
}

// FindAt returns the innermost node whose range contains pos, or nil.
func FindAt(n Node, pos diag.Position) Node {
	if n == nil || !n.Range().Contains(pos) {
		return nil
	}
	for _, child := range Children(n) {
		if inner := FindAt(child, pos); inner != nil {
			return inner
		}
	}
	return n
}
