package scope

import (
	"testing"

	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/diag"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/token"
)

func ident(name string, line int) token.Token {
	return token.Token{
		Kind:   token.IDENT,
		Lexeme: name,
		Start:  diag.Position{Line: line, Character: 0},
		End:    diag.Position{Line: line, Character: len(name)},
		URI:    "file:///test.ks",
	}
}

func TestScopeReuseAcrossRewind(t *testing.T) {
	b := NewBuilder("file:///test.ks", nil)

	// First pass: two sibling scopes with one nested under the second.
	b.BeginScope(diag.Range{})
	first := b.current().Index()
	b.EndScope()
	b.BeginScope(diag.Range{})
	second := b.current().Index()
	b.BeginScope(diag.Range{})
	nested := b.current().Index()
	b.EndScope()
	b.EndScope()

	b.RewindScope()

	// Second pass revisits the same arena nodes in the same order.
	b.BeginScope(diag.Range{})
	if got := b.current().Index(); got != first {
		t.Errorf("first scope revisit: got index %d, want %d", got, first)
	}
	b.EndScope()
	b.BeginScope(diag.Range{})
	if got := b.current().Index(); got != second {
		t.Errorf("second scope revisit: got index %d, want %d", got, second)
	}
	b.BeginScope(diag.Range{})
	if got := b.current().Index(); got != nested {
		t.Errorf("nested scope revisit: got index %d, want %d", got, nested)
	}
	b.EndScope()
	b.EndScope()

	if b.Depth() != 1 {
		t.Errorf("expected balanced scopes, depth=%d", b.Depth())
	}
}

func TestDeclareAndLookupIsCaseInsensitive(t *testing.T) {
	b := NewBuilder("file:///test.ks", nil)
	decl := ident("Throttle", 0)
	if d := b.DeclareVariable(TargetLocal, &decl); d != nil {
		t.Fatalf("unexpected diagnostic: %v", d)
	}

	use := ident("THROTTLE", 1)
	if d := b.UseVariable(&use); d != nil {
		t.Fatalf("case-folded lookup failed: %v", d)
	}
	if b.TrackerFor(&use) != b.TrackerFor(&decl) {
		t.Error("use and declaration should share one tracker")
	}
}

func TestRedeclarationInSameScope(t *testing.T) {
	b := NewBuilder("file:///test.ks", nil)
	first := ident("x", 0)
	second := ident("x", 3)

	if d := b.DeclareVariable(TargetLocal, &first); d != nil {
		t.Fatalf("unexpected diagnostic: %v", d)
	}
	d := b.DeclareVariable(TargetLocal, &second)
	if d == nil {
		t.Fatal("expected a redeclaration diagnostic")
	}
	if d.Severity != diag.SeverityError || d.Code != diag.CodeRedeclared {
		t.Errorf("got severity=%v code=%q", d.Severity, d.Code)
	}
	if len(d.RelatedInformation) != 1 {
		t.Fatalf("expected related information pointing at the first declaration")
	}
	if d.RelatedInformation[0].Location.Range.Start.Line != 0 {
		t.Errorf("related location should be the first declaration, got line %d",
			d.RelatedInformation[0].Location.Range.Start.Line)
	}
}

func TestShadowingInnerScope(t *testing.T) {
	b := NewBuilder("file:///test.ks", nil)
	outer := ident("x", 0)
	if d := b.DeclareVariable(TargetLocal, &outer); d != nil {
		t.Fatalf("unexpected diagnostic: %v", d)
	}

	b.BeginScope(diag.Range{})
	inner := ident("x", 2)
	d := b.DeclareVariable(TargetLocal, &inner)
	if d == nil {
		t.Fatal("expected a shadowing diagnostic")
	}
	if d.Severity != diag.SeverityWarning || d.Code != diag.CodeShadowed {
		t.Errorf("got severity=%v code=%q", d.Severity, d.Code)
	}

	// Both symbols stay resolvable; the inner one wins inside the scope.
	use := ident("x", 3)
	if d := b.UseVariable(&use); d != nil {
		t.Fatalf("unexpected diagnostic: %v", d)
	}
	if b.TrackerFor(&use) != b.TrackerFor(&inner) {
		t.Error("inner use should bind to the shadowing declaration")
	}
}

func TestUnresolvedUse(t *testing.T) {
	b := NewBuilder("file:///test.ks", nil)
	use := ident("ghost", 0)
	d := b.UseSymbol(&use)
	if d == nil {
		t.Fatal("expected an unresolved diagnostic")
	}
	if d.Code != diag.CodeUnresolved || d.Severity != diag.SeverityError {
		t.Errorf("got severity=%v code=%q", d.Severity, d.Code)
	}
	if want := "symbol 'ghost' may not exist"; d.Message != want {
		t.Errorf("got message %q, want %q", d.Message, want)
	}
}

func TestUseWithWrongKind(t *testing.T) {
	b := NewBuilder("file:///test.ks", nil)
	decl := ident("f", 0)
	if d := b.DeclareFunction(TargetLocal, &decl, 0, 0); d != nil {
		t.Fatalf("unexpected diagnostic: %v", d)
	}
	use := ident("f", 1)
	if d := b.UseLock(&use); d == nil {
		t.Error("expected a kind-mismatch diagnostic")
	}
}

func TestLocalLookupIgnoresOuterScopes(t *testing.T) {
	b := NewBuilder("file:///test.ks", nil)
	outer := ident("x", 0)
	if d := b.DeclareVariable(TargetLocal, &outer); d != nil {
		t.Fatalf("unexpected diagnostic: %v", d)
	}

	b.BeginScope(diag.Range{})
	use := ident("x", 1)
	if d := b.UseLocalSymbol(&use); d == nil {
		t.Error("a local-only use must not see enclosing scopes")
	}
	inner := ident("x", 2)
	b.DeclareVariable(TargetLocal, &inner)
	use2 := ident("x", 3)
	if d := b.UseLocalSymbol(&use2); d != nil {
		t.Errorf("unexpected diagnostic: %v", d)
	}
	if b.LocalLookup("X") == nil {
		t.Error("local lookup must fold case")
	}
	b.EndScope()
}

func TestSetDeclaresLazyGlobal(t *testing.T) {
	b := NewBuilder("file:///test.ks", nil)

	b.BeginScope(diag.Range{})
	set := ident("fuel", 1)
	if d := b.SetVariable(&set); d != nil {
		t.Fatalf("set of an undeclared name must not report: %v", d)
	}
	b.EndScope()

	tracker := b.Table().GlobalLookup("fuel")
	if tracker == nil {
		t.Fatal("implicit declaration should land in the root scope")
	}
	if tracker.Symbol.Target != TargetGlobal {
		t.Errorf("expected global target, got %v", tracker.Symbol.Target)
	}
	if len(tracker.Sets) != 1 {
		t.Errorf("expected 1 recorded set, got %d", len(tracker.Sets))
	}
}

func TestUnusedDiagnosticsAtScopeClose(t *testing.T) {
	b := NewBuilder("file:///test.ks", nil)

	b.BeginScope(diag.Range{})
	param := ident("n", 0)
	unusedVar := ident("tmp", 1)
	usedVar := ident("v", 2)
	lock := ident("steer", 3)
	b.DeclareParameter(&param, false)
	b.DeclareVariable(TargetLocal, &unusedVar)
	b.DeclareVariable(TargetLocal, &usedVar)
	b.DeclareLock(TargetLocal, &lock)

	use := ident("v", 4)
	if d := b.UseVariable(&use); d != nil {
		t.Fatalf("unexpected diagnostic: %v", d)
	}

	diags := b.EndScope()
	if len(diags) != 3 {
		t.Fatalf("expected 3 unused diagnostics, got %d: %v", len(diags), diags)
	}

	// Sorted by position: parameter, variable, lock.
	if diags[0].Code != diag.CodeUnusedParameter || diags[0].Severity != diag.SeverityError {
		t.Errorf("parameter: got code=%q severity=%v", diags[0].Code, diags[0].Severity)
	}
	if diags[1].Code != diag.CodeUnusedVariable || diags[1].Severity != diag.SeverityWarning {
		t.Errorf("variable: got code=%q severity=%v", diags[1].Code, diags[1].Severity)
	}
	if diags[2].Code != diag.CodeUnusedLock || diags[2].Severity != diag.SeverityWarning {
		t.Errorf("lock: got code=%q severity=%v", diags[2].Code, diags[2].Severity)
	}
}

func TestUnusedFunctionsAreExempt(t *testing.T) {
	b := NewBuilder("file:///test.ks", nil)
	b.BeginScope(diag.Range{})
	decl := ident("helper", 0)
	b.DeclareFunction(TargetLocal, &decl, 0, 0)
	if diags := b.EndScope(); len(diags) != 0 {
		t.Errorf("functions should not report unused, got %v", diags)
	}
}

func TestGlobalDeclarationFromInnerScope(t *testing.T) {
	b := NewBuilder("file:///test.ks", nil)
	b.BeginScope(diag.Range{})
	decl := ident("mission", 0)
	if d := b.DeclareVariable(TargetGlobal, &decl); d != nil {
		t.Fatalf("unexpected diagnostic: %v", d)
	}
	b.EndScope()

	if b.Table().GlobalLookup("mission") == nil {
		t.Error("global declaration should bind into the root scope")
	}
}

func TestDependencyLookup(t *testing.T) {
	dep := NewBuilder("file:///lib.ks", nil)
	declared := ident("hi", 0)
	dep.DeclareFunction(TargetLocal, &declared, 0, 0)
	depTable := dep.Build()

	b := NewBuilder("file:///main.ks", nil)
	b.Table().AddDependency(depTable)

	use := ident("hi", 0)
	if d := b.UseFunction(&use); d != nil {
		t.Fatalf("expected cross-table resolution, got: %v", d)
	}
}

func TestDependencyEdgesStayConsistent(t *testing.T) {
	a := NewBuilder("file:///a.ks", nil).Build()
	bTab := NewBuilder("file:///b.ks", nil).Build()

	a.AddDependency(bTab)
	if !a.DependsOn(bTab) || !bTab.HasDependent(a) {
		t.Fatal("AddDependency must link both directions")
	}

	// Re-validation of b produces a replacement table.
	replacement := NewBuilder("file:///b.ks", nil).Build()
	bTab.TransferDependentsTo(replacement)
	if bTab.HasDependent(a) {
		t.Error("old table should lose its dependents")
	}
	if !a.DependsOn(replacement) || !replacement.HasDependent(a) {
		t.Error("dependents should be rewired to the replacement")
	}

	a.DetachDependencies()
	if a.DependsOn(replacement) || replacement.HasDependent(a) {
		t.Error("DetachDependencies must clear both directions")
	}
}

func TestEndScopeAtRootIsIgnored(t *testing.T) {
	b := NewBuilder("file:///test.ks", nil)
	if diags := b.EndScope(); diags != nil {
		t.Errorf("EndScope at root should report nothing, got %v", diags)
	}
	if b.Depth() != 1 {
		t.Errorf("depth should stay 1, got %d", b.Depth())
	}
}
