// Package resolver walks a syntax tree against a scope builder and the type
// engine. It runs two passes over one traversal skeleton: the declare pass
// records declarations and scope boundaries, and the resolve pass, after a
// rewind, resolves uses and computes expression types. Sharing the skeleton
// keeps the two passes visiting scope boundaries in the same order, which the
// builder's positional scope addressing depends on.
package resolver

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/ast"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/diag"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/scope"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/stdlib"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/token"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/types"
)

// Resolver carries the state of one document resolution.
type Resolver struct {
	builder   *scope.Builder
	catalog   *stdlib.Catalog
	logger    *slog.Logger
	diags     []diag.Diagnostic
	declaring bool
}

// Resolve runs both passes over script. An internal inconsistency is logged
// and yields an empty diagnostic set rather than a panic, so one corrupt
// document cannot take down analysis of the others.
func Resolve(script *ast.Script, builder *scope.Builder, catalog *stdlib.Catalog, logger *slog.Logger) (diags []diag.Diagnostic) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("resolver invariant violated", "uri", script.URI, "fault", r)
			diags = nil
		}
	}()

	r := &Resolver{builder: builder, catalog: catalog, logger: logger}

	r.declaring = true
	for _, inst := range script.Instructions {
		r.walkInstruction(inst)
	}

	builder.RewindScope()

	r.declaring = false
	for _, inst := range script.Instructions {
		r.walkInstruction(inst)
	}
	return r.diags
}

func (r *Resolver) report(d *diag.Diagnostic) {
	if d != nil {
		r.diags = append(r.diags, *d)
	}
}

// reportScope collects end-of-scope diagnostics, but only on the resolve
// pass: after the declare pass no uses are recorded yet, so its unused-symbol
// results are meaningless.
func (r *Resolver) reportScope(ds []diag.Diagnostic) {
	if !r.declaring {
		r.diags = append(r.diags, ds...)
	}
}

func (r *Resolver) typeError(rng diag.Range, format string, args ...any) {
	r.diags = append(r.diags, diag.NewError(rng, diag.CodeType, fmt.Sprintf(format, args...)))
}

func scopeTarget(tag ast.ScopeTag) scope.Target {
	if tag == ast.ScopeGlobal {
		return scope.TargetGlobal
	}
	return scope.TargetLocal
}

// ---- instruction traversal -------------------------------------------------

func (r *Resolver) walkInstruction(inst ast.Instruction) {
	switch n := inst.(type) {
	case *ast.Block:
		r.walkBlock(n)

	case *ast.DeclareVariable:
		if r.declaring {
			r.report(r.builder.DeclareVariable(scopeTarget(n.Scope), &n.Name))
		}
		t := r.walkExpression(n.Init)
		if !r.declaring {
			r.builder.BindType(&n.Name, t)
		}

	case *ast.DeclareFunction:
		if r.declaring {
			params, defaulted := countParameters(n.Body)
			r.report(r.builder.DeclareFunction(scopeTarget(n.Scope), &n.Name, params, defaulted))
		}
		r.walkBlock(n.Body)

	case *ast.DeclareParameter:
		for i := range n.Parameters {
			p := &n.Parameters[i]
			if r.declaring {
				r.report(r.builder.DeclareParameter(&p.Name, p.Default != nil))
			}
			if p.Default != nil {
				t := r.walkExpression(p.Default)
				if !r.declaring {
					r.builder.BindType(&p.Name, t)
				}
			}
		}

	case *ast.DeclareLock:
		if r.declaring {
			r.report(r.builder.DeclareLock(scopeTarget(n.Scope), &n.Name))
		}
		t := r.walkExpression(n.Value)
		if !r.declaring {
			r.builder.BindType(&n.Name, t)
		}

	case *ast.Set:
		if !r.declaring {
			if id, ok := n.Target.(*ast.Identifier); ok {
				r.report(r.builder.SetVariable(&id.Token))
			} else {
				r.walkExpression(n.Target)
			}
		} else {
			r.walkExpression(n.Target)
		}
		r.walkExpression(n.Value)

	case *ast.Unset:
		if !r.declaring && !n.All {
			r.report(r.builder.UseSymbol(&n.Name))
		}

	case *ast.Unlock:
		if !r.declaring && !n.All {
			r.report(r.builder.UseLock(&n.Name))
		}

	case *ast.If:
		r.condition(n.Cond)
		r.walkInstruction(n.Body)
		if n.Else != nil {
			r.walkInstruction(n.Else.Body)
		}

	case *ast.Until:
		r.condition(n.Cond)
		r.walkInstruction(n.Body)

	case *ast.From:
		// The init block's declarations stay visible to the condition, the
		// step block, and the body, so the whole loop shares one scope.
		r.builder.BeginScope(n.Range())
		for _, inner := range n.Init.Instructions {
			r.walkInstruction(inner)
		}
		r.condition(n.Cond)
		for _, inner := range n.Step.Instructions {
			r.walkInstruction(inner)
		}
		r.walkInstruction(n.Body)
		r.reportScope(r.builder.EndScope())

	case *ast.For:
		r.builder.BeginScope(n.Range())
		if r.declaring {
			r.report(r.builder.DeclareVariable(scope.TargetLocal, &n.Ident))
		}
		r.walkExpression(n.Collection)
		r.walkInstruction(n.Body)
		r.reportScope(r.builder.EndScope())

	case *ast.When:
		r.condition(n.Cond)
		r.walkInstruction(n.Body)

	case *ast.On:
		r.walkExpression(n.Trigger)
		r.walkInstruction(n.Body)

	case *ast.Wait:
		r.walkExpression(n.Expr)

	case *ast.Return:
		if n.Expr != nil {
			r.walkExpression(n.Expr)
		}

	case *ast.Switch:
		r.walkExpression(n.Target)

	case *ast.Run:
		for _, arg := range n.Args {
			r.walkExpression(arg)
		}

	case *ast.RunPath:
		r.walkExpression(n.Expr)
		for _, arg := range n.Args {
			r.walkExpression(arg)
		}

	case *ast.Compile:
		r.walkExpression(n.Source)
		if n.Target != nil {
			r.walkExpression(n.Target)
		}

	case *ast.Print:
		r.walkExpression(n.Expr)
		if n.AtX != nil {
			r.walkExpression(n.AtX)
			r.walkExpression(n.AtY)
		}

	case *ast.Log:
		r.walkExpression(n.Expr)
		r.walkExpression(n.Target)

	case *ast.Copy:
		r.walkExpression(n.Source)
		r.walkExpression(n.Target)

	case *ast.Rename:
		r.walkExpression(n.Source)
		r.walkExpression(n.Target)

	case *ast.Delete:
		r.walkExpression(n.Target)
		if n.From != nil {
			r.walkExpression(n.From)
		}

	case *ast.Toggle:
		r.walkExpression(n.Target)

	case *ast.ExpressionInstruction:
		r.walkExpression(n.Expr)

	case *ast.Break, *ast.Preserve, *ast.Command, *ast.Invalid:
		// Nothing to declare or resolve.
	}
}

func (r *Resolver) walkBlock(b *ast.Block) {
	r.builder.BeginScope(b.Range())
	for _, inner := range b.Instructions {
		r.walkInstruction(inner)
	}
	r.reportScope(r.builder.EndScope())
}

// condition resolves a boolean context expression and checks it can be used
// as one.
func (r *Resolver) condition(e ast.Expression) {
	t := r.walkExpression(e)
	if r.declaring || t == nil {
		return
	}
	if !t.CanCoerce(r.catalog.Boolean) {
		r.typeError(e.Range(), "condition of type %s cannot be used as a boolean", t.Name())
	}
}

// countParameters counts the formal parameters declared at the top level of
// a function body, and how many carry defaults.
func countParameters(body *ast.Block) (params, defaulted int) {
	for _, inst := range body.Instructions {
		if dp, ok := inst.(*ast.DeclareParameter); ok {
			for _, p := range dp.Parameters {
				params++
				if p.Default != nil {
					defaulted++
				}
			}
		}
	}
	return params, defaulted
}

// ---- expression traversal --------------------------------------------------

// walkExpression visits an expression. On the resolve pass it returns the
// inferred type, or nil when unknown; on the declare pass it only descends
// to find anonymous functions, whose bodies open scopes.
func (r *Resolver) walkExpression(e ast.Expression) *types.Type {
	switch n := e.(type) {
	case *ast.Literal:
		if r.declaring {
			return nil
		}
		return r.literalType(n.Token)

	case *ast.Identifier:
		if r.declaring {
			return nil
		}
		return r.identifierType(&n.Token)

	case *ast.Grouping:
		return r.walkExpression(n.Expr)

	case *ast.Unary:
		t := r.walkExpression(n.Operand)
		if r.declaring {
			return nil
		}
		return r.unaryType(n, t)

	case *ast.Binary:
		lt := r.walkExpression(n.Left)
		rt := r.walkExpression(n.Right)
		if r.declaring {
			return nil
		}
		return r.binaryType(n, lt, rt)

	case *ast.Factor:
		bt := r.walkExpression(n.Base)
		et := r.walkExpression(n.Exponent)
		if r.declaring {
			return nil
		}
		return r.binaryOperator(n.Range(), types.OperatorPower, bt, et, n.Power.Lexeme)

	case *ast.Suffix:
		bt := r.walkExpression(n.Base)
		if r.declaring || bt == nil {
			return nil
		}
		s := bt.Suffix(n.Name.Lexeme)
		if s == nil {
			r.typeError(n.Name.Range(), "type %s has no suffix '%s'", bt.Name(), n.Name.Lexeme)
			return nil
		}
		return s.Result

	case *ast.Call:
		return r.callType(n)

	case *ast.ArrayIndex:
		bt := r.walkExpression(n.Base)
		if r.declaring {
			return nil
		}
		return r.indexResult(bt)

	case *ast.ArrayBracket:
		bt := r.walkExpression(n.Base)
		r.walkExpression(n.Index)
		if r.declaring {
			return nil
		}
		return r.indexResult(bt)

	case *ast.Delegate:
		r.walkExpression(n.Expr)
		if r.declaring {
			return nil
		}
		return r.catalog.Delegate

	case *ast.AnonymousFunction:
		r.builder.BeginScope(n.Range())
		for _, inner := range n.Instructions {
			r.walkInstruction(inner)
		}
		r.reportScope(r.builder.EndScope())
		if r.declaring {
			return nil
		}
		return r.catalog.Delegate

	case *ast.BadExpression:
		return nil
	}
	return nil
}

func (r *Resolver) literalType(tok token.Token) *types.Type {
	switch tok.Kind {
	case token.INTEGER, token.DOUBLE:
		return r.catalog.Scalar
	case token.STRING:
		return r.catalog.String
	case token.TRUE, token.FALSE:
		return r.catalog.Boolean
	}
	return nil
}

// identifierType resolves a bare identifier use: pre-declared builtins first,
// then the scope stack and dependency tables.
func (r *Resolver) identifierType(tok *token.Token) *types.Type {
	if b := r.catalog.Builtin(tok.Lexeme); b != nil {
		return b.Type
	}
	r.report(r.builder.UseSymbol(tok))
	if tracker := r.builder.TrackerFor(tok); tracker != nil {
		return tracker.Type
	}
	return nil
}

func (r *Resolver) unaryType(n *ast.Unary, operand *types.Type) *types.Type {
	switch n.Op.Kind {
	case token.DEFINED:
		return r.catalog.Boolean
	case token.NOT:
		return r.resolveUnaryOperator(n, operand, types.OperatorNot)
	case token.MINUS:
		return r.resolveUnaryOperator(n, operand, types.OperatorNegate)
	case token.PLUS:
		return operand
	}
	return nil
}

func (r *Resolver) resolveUnaryOperator(n *ast.Unary, operand *types.Type, kind types.OperatorKind) *types.Type {
	if operand == nil {
		return nil
	}
	op := operand.Operator(kind, nil)
	if op == nil {
		r.typeError(n.Range(), "operator '%s' is not defined for %s", n.Op.Lexeme, operand.Name())
		return nil
	}
	return op.Result
}

func (r *Resolver) binaryType(n *ast.Binary, lt, rt *types.Type) *types.Type {
	kind, ok := binaryOperatorKind(n.Op.Kind)
	if !ok {
		return nil
	}
	return r.binaryOperator(n.Range(), kind, lt, rt, n.Op.Lexeme)
}

func (r *Resolver) binaryOperator(rng diag.Range, kind types.OperatorKind, lt, rt *types.Type, lexeme string) *types.Type {
	if lt == nil || rt == nil {
		return nil
	}
	if op := lt.Operator(kind, rt); op != nil {
		return op.Result
	}
	if op := rt.Operator(kind, lt); op != nil {
		return op.Result
	}
	r.typeError(rng, "operator '%s' is not defined between %s and %s", lexeme, lt.Name(), rt.Name())
	return nil
}

func binaryOperatorKind(k token.Kind) (types.OperatorKind, bool) {
	switch k {
	case token.PLUS:
		return types.OperatorPlus, true
	case token.MINUS:
		return types.OperatorMinus, true
	case token.MULT:
		return types.OperatorMultiply, true
	case token.DIV:
		return types.OperatorDivide, true
	case token.POWER:
		return types.OperatorPower, true
	case token.GT:
		return types.OperatorGreater, true
	case token.LT:
		return types.OperatorLess, true
	case token.GTE:
		return types.OperatorGreaterEqual, true
	case token.LTE:
		return types.OperatorLessEqual, true
	case token.EQ:
		return types.OperatorEqual, true
	case token.NOTEQ:
		return types.OperatorNotEqual, true
	case token.AND:
		return types.OperatorAnd, true
	case token.OR:
		return types.OperatorOr, true
	}
	return 0, false
}

// indexResult is the element type produced by an index trailer. Lists yield
// their element type and lexicons hold arbitrary structures; anything else
// stays unknown.
func (r *Resolver) indexResult(base *types.Type) *types.Type {
	if base == nil {
		return nil
	}
	if base.Template() == r.catalog.List {
		return base.Arg(0)
	}
	if base.IsSubtypeOf(r.catalog.Lexicon) {
		return r.catalog.Structure
	}
	return nil
}

// callType resolves a call trailer. Calls on bare identifiers check builtins
// and declared functions, including argument counts for known functions;
// calls on suffix trailers check the suffix is callable.
func (r *Resolver) callType(n *ast.Call) *types.Type {
	for _, arg := range n.Args {
		r.walkExpression(arg)
	}

	switch callee := n.Callee.(type) {
	case *ast.Identifier:
		if r.declaring {
			return nil
		}
		if b := r.catalog.Builtin(callee.Token.Lexeme); b != nil {
			if b.Callable {
				r.checkArity(n, callee.Token.Lexeme, len(n.Args), b.MinArgs, b.MaxArgs)
				return b.Type
			}
			r.typeError(n.Range(), "'%s' cannot be called", callee.Token.Lexeme)
			return nil
		}
		r.report(r.builder.UseSymbol(&callee.Token))
		tracker := r.builder.TrackerFor(&callee.Token)
		if tracker == nil {
			return nil
		}
		if tracker.Symbol.Kind == scope.KindFunction {
			sym := tracker.Symbol
			r.checkArity(n, callee.Token.Lexeme, len(n.Args),
				sym.ParamCount-sym.DefaultParams, sym.ParamCount)
		}
		return tracker.Type

	case *ast.Suffix:
		bt := r.walkExpression(callee.Base)
		if r.declaring || bt == nil {
			return nil
		}
		s := bt.Suffix(callee.Name.Lexeme)
		if s == nil {
			r.typeError(callee.Name.Range(), "type %s has no suffix '%s'", bt.Name(), callee.Name.Lexeme)
			return nil
		}
		if !s.Callable {
			r.typeError(n.Range(), "suffix '%s' of %s cannot be called", callee.Name.Lexeme, bt.Name())
			return s.Result
		}
		return s.Result

	default:
		t := r.walkExpression(n.Callee)
		if r.declaring {
			return nil
		}
		// Calling a delegate value yields an unknown structure.
		if t != nil && t.IsSubtypeOf(r.catalog.Delegate) {
			return r.catalog.Structure
		}
		return nil
	}
}

func (r *Resolver) checkArity(n *ast.Call, name string, got, min, max int) {
	if got < min || (max >= 0 && got > max) {
		if min == max {
			r.typeError(n.Range(), "'%s' expects %d argument(s), got %d", name, min, got)
		} else if max < 0 {
			r.typeError(n.Range(), "'%s' expects at least %d argument(s), got %d", name, min, got)
		} else {
			r.typeError(n.Range(), "'%s' expects %d to %d arguments, got %d", name, min, max, got)
		}
	}
}
