package resolver

import (
	"testing"

	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/diag"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/parser"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/scanner"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/scope"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/stdlib"
)

// resolveSource runs the full pipeline on one document and returns the
// resolution diagnostics plus the finished builder.
func resolveSource(t *testing.T, input string, deps ...*scope.Table) ([]diag.Diagnostic, *scope.Builder) {
	t.Helper()
	result := parser.Parse(scanner.Scan(input, "file:///test.ks"))
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected parse errors: %v", result.Errors)
	}
	b := scope.NewBuilder("file:///test.ks", nil)
	for _, dep := range deps {
		b.Table().AddDependency(dep)
	}
	diags := Resolve(result.Script, b, stdlib.NewCatalog(), nil)
	return diags, b
}

func codes(diags []diag.Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.Code
	}
	return out
}

func TestLocalFunctionDeclaration(t *testing.T) {
	diags, b := resolveSource(t, `local function hi { print("hi"). }`)

	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
	tracker := b.Table().GlobalLookup("hi")
	if tracker == nil {
		t.Fatal("function symbol not declared")
	}
	if tracker.Symbol.Kind != scope.KindFunction || tracker.Symbol.ParamCount != 0 {
		t.Errorf("got kind=%v params=%d", tracker.Symbol.Kind, tracker.Symbol.ParamCount)
	}
}

func TestUndeclaredUse(t *testing.T) {
	diags, _ := resolveSource(t, "print x.")

	if len(diags) != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got %v", diags)
	}
	d := diags[0]
	if d.Code != diag.CodeUnresolved || d.Severity != diag.SeverityError {
		t.Errorf("got code=%q severity=%v", d.Code, d.Severity)
	}
	if want := "symbol 'x' may not exist"; d.Message != want {
		t.Errorf("got message %q, want %q", d.Message, want)
	}
}

func TestBuiltinsResolve(t *testing.T) {
	diags, _ := resolveSource(t, `
print sqrt(4).
print ship:obt:apoapsis.
lock steering to heading(90, 45).
print round(altitude, 1).
`)
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
}

func TestBuiltinArity(t *testing.T) {
	diags, _ := resolveSource(t, "print sqrt(1, 2).")
	if len(diags) != 1 || diags[0].Code != diag.CodeType {
		t.Fatalf("expected 1 type diagnostic, got %v", diags)
	}
}

func TestUnknownSuffix(t *testing.T) {
	diags, _ := resolveSource(t, "print ship:warpfactor.")
	if len(diags) != 1 || diags[0].Code != diag.CodeType {
		t.Fatalf("expected 1 type diagnostic, got %v", diags)
	}
}

func TestUnknownOperator(t *testing.T) {
	diags, _ := resolveSource(t, "print v(1,1,1) + 2.")
	if len(diags) != 1 || diags[0].Code != diag.CodeType {
		t.Fatalf("expected 1 type diagnostic, got %v", diags)
	}
}

func TestConditionMustCoerceToBoolean(t *testing.T) {
	diags, _ := resolveSource(t, "until v(1,0,0) { print 1. }")
	if len(diags) != 1 || diags[0].Code != diag.CodeType {
		t.Fatalf("expected 1 type diagnostic, got %v", diags)
	}
}

func TestScalarConditionCoerces(t *testing.T) {
	// Scalars coerce to boolean, so numeric conditions pass.
	diags, _ := resolveSource(t, "if altitude { print 1. }")
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
}

func TestSetDeclaresLazyGlobal(t *testing.T) {
	diags, b := resolveSource(t, `
set flightphase to 1.
print flightphase.
`)
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
	tracker := b.Table().GlobalLookup("flightphase")
	if tracker == nil || tracker.Symbol.Target != scope.TargetGlobal {
		t.Fatal("set of an undeclared name should declare a global")
	}
}

func TestUnusedVariableInBlock(t *testing.T) {
	diags, _ := resolveSource(t, "if true { local leftover is 1. }")

	if len(diags) != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got %v (codes %v)", diags, codes(diags))
	}
	if diags[0].Code != diag.CodeUnusedVariable || diags[0].Severity != diag.SeverityWarning {
		t.Errorf("got code=%q severity=%v", diags[0].Code, diags[0].Severity)
	}
}

func TestUnusedParameterIsError(t *testing.T) {
	diags, _ := resolveSource(t, "local function f { parameter n. print 1. }")

	if len(diags) != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got %v", diags)
	}
	if diags[0].Code != diag.CodeUnusedParameter || diags[0].Severity != diag.SeverityError {
		t.Errorf("got code=%q severity=%v", diags[0].Code, diags[0].Severity)
	}
}

func TestDeclaredFunctionArity(t *testing.T) {
	diags, _ := resolveSource(t, `
local function burn { parameter dv, stagenum is 0. print dv + stagenum. }
burn(100).
burn().
burn(1, 2, 3).
`)
	var typeErrors int
	for _, d := range diags {
		if d.Code == diag.CodeType {
			typeErrors++
		}
	}
	if typeErrors != 2 {
		t.Fatalf("expected 2 arity diagnostics, got %d (%v)", typeErrors, diags)
	}
}

func TestShadowingWarning(t *testing.T) {
	diags, _ := resolveSource(t, `
local x is 1.
if true { local x is 2. print x. }
print x.
`)
	if len(diags) != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got %v", diags)
	}
	if diags[0].Code != diag.CodeShadowed || diags[0].Severity != diag.SeverityWarning {
		t.Errorf("got code=%q severity=%v", diags[0].Code, diags[0].Severity)
	}
	if len(diags[0].RelatedInformation) != 1 {
		t.Error("shadow warning should reference the shadowed declaration")
	}
}

func TestRedeclarationError(t *testing.T) {
	diags, _ := resolveSource(t, `
local x is 1.
local x is 2.
print x.
`)
	if len(diags) != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got %v", diags)
	}
	if diags[0].Code != diag.CodeRedeclared || diags[0].Severity != diag.SeverityError {
		t.Errorf("got code=%q severity=%v", diags[0].Code, diags[0].Severity)
	}
}

func TestForLoopIterator(t *testing.T) {
	diags, _ := resolveSource(t, "for p in list() { print p. }")
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}

	diags, _ = resolveSource(t, "for p in list() { print 1. }")
	if len(diags) != 1 || diags[0].Code != diag.CodeUnusedVariable {
		t.Fatalf("expected 1 unused-variable diagnostic, got %v", diags)
	}
}

func TestFromLoopSharesOneScope(t *testing.T) {
	diags, _ := resolveSource(t, `
from { local i is 0. } until i > 5 step { set i to i + 1. } do { print i. }
`)
	if len(diags) != 0 {
		t.Fatalf("init declarations must be visible to cond, step, and body: %v", diags)
	}
}

func TestAnonymousFunctionOpensScope(t *testing.T) {
	diags, b := resolveSource(t, `
local g is { local z is 1. print z. }.
print g.
`)
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
	// z lives in the anonymous function's scope, not the root.
	if b.Table().GlobalLookup("z") != nil {
		t.Error("anonymous function locals must not leak into the root scope")
	}
}

func TestCrossDocumentResolution(t *testing.T) {
	depResult := parser.Parse(scanner.Scan("function hi { print 1. }", "file:///lib.ks"))
	depBuilder := scope.NewBuilder("file:///lib.ks", nil)
	if diags := Resolve(depResult.Script, depBuilder, stdlib.NewCatalog(), nil); len(diags) != 0 {
		t.Fatalf("dependency resolution failed: %v", diags)
	}

	diags, _ := resolveSource(t, "hi().", depBuilder.Build())
	if len(diags) != 0 {
		t.Fatalf("expected cross-document call to resolve, got %v", diags)
	}
}

func TestDelegateValue(t *testing.T) {
	diags, _ := resolveSource(t, `
local function f { print 1. }
local d is f@.
d:call().
`)
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
}
