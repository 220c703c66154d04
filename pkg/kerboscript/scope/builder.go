package scope

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/diag"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/token"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/types"
)

// Builder assembles one document's symbol table across the resolver's two
// passes. Scope entry is positional: BeginScope reuses the child node at the
// current visit index when it already exists, so the declare pass and the
// resolve pass address identical nodes as long as they visit scope
// boundaries in the same order. RewindScope resets the path between passes.
type Builder struct {
	table  *Table
	path   []int // active scope path as arena indices; path[0] is the root
	cursor []int // per-level index of the next child to visit
	logger *slog.Logger
}

// NewBuilder starts an empty symbol table for uri.
func NewBuilder(uri string, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Builder{
		table:  newTable(uri),
		path:   []int{0},
		cursor: []int{0},
		logger: logger,
	}
}

// Table exposes the under-construction table so the coordinator can link
// dependency tables before resolution runs.
func (b *Builder) Table() *Table { return b.table }

// Depth returns the number of open scopes, the root included.
func (b *Builder) Depth() int { return len(b.path) }

func (b *Builder) current() *Node {
	return b.table.arena[b.path[len(b.path)-1]]
}

// BeginScope enters the next child scope at the current position, creating
// it on the first pass and reusing it on the second.
func (b *Builder) BeginScope(r diag.Range) {
	cur := b.current()
	visit := b.cursor[len(b.cursor)-1]

	var child *Node
	if visit < len(cur.Children) {
		child = b.table.arena[cur.Children[visit]]
	} else {
		pos := r
		child = &Node{
			Pos:     &pos,
			Symbols: make(map[string]*Tracker),
			index:   len(b.table.arena),
		}
		b.table.arena = append(b.table.arena, child)
		cur.Children = append(cur.Children, child.index)
	}

	b.cursor[len(b.cursor)-1]++
	b.path = append(b.path, child.index)
	b.cursor = append(b.cursor, 0)
}

// EndScope closes the innermost scope and reports its unused symbols.
// Closing the root scope is a programming fault: it is logged and ignored.
func (b *Builder) EndScope() []diag.Diagnostic {
	if len(b.path) <= 1 {
		b.logger.Error("scope builder: EndScope without matching BeginScope", "uri", b.table.URI)
		return nil
	}
	node := b.current()
	diags := unusedDiagnostics(node)
	b.path = b.path[:len(b.path)-1]
	b.cursor = b.cursor[:len(b.cursor)-1]
	return diags
}

// RewindScope resets the active path to the root for the second pass.
func (b *Builder) RewindScope() {
	b.path = b.path[:1]
	b.cursor = b.cursor[:1]
	b.cursor[0] = 0
}

// Build finalizes and returns the symbol table.
func (b *Builder) Build() *Table {
	if len(b.path) != 1 {
		b.logger.Error("scope builder: unbalanced scopes at build",
			"uri", b.table.URI, "depth", len(b.path))
	}
	return b.table
}

// unusedDiagnostics reports each tracker in the closing scope with zero
// recorded uses. An unused parameter is an error; unused variables and locks
// are warnings; functions are exempt because they may be called from
// dependent documents.
func unusedDiagnostics(node *Node) []diag.Diagnostic {
	var diags []diag.Diagnostic
	for _, tracker := range node.Symbols {
		if len(tracker.Uses) > 0 {
			continue
		}
		sym := tracker.Symbol
		rng := sym.Name.Range()
		switch sym.Kind {
		case KindParameter:
			diags = append(diags, diag.NewError(rng, diag.CodeUnusedParameter,
				fmt.Sprintf("parameter '%s' is never used", sym.Name.Lexeme)))
		case KindVariable:
			diags = append(diags, diag.NewWarning(rng, diag.CodeUnusedVariable,
				fmt.Sprintf("variable '%s' is never used", sym.Name.Lexeme)))
		case KindLock:
			diags = append(diags, diag.NewWarning(rng, diag.CodeUnusedLock,
				fmt.Sprintf("lock '%s' is never used", sym.Name.Lexeme)))
		}
	}
	sort.Slice(diags, func(i, j int) bool {
		return diags[i].Range.Start.Before(diags[j].Range.Start)
	})
	return diags
}

// ---- declarations ----------------------------------------------------------

// DeclareVariable declares a variable into the target scope.
func (b *Builder) DeclareVariable(target Target, name *token.Token) *diag.Diagnostic {
	return b.declare(name, &Symbol{Name: *name, Kind: KindVariable, Target: target})
}

// DeclareFunction declares a function with its parameter counts.
func (b *Builder) DeclareFunction(target Target, name *token.Token, paramCount, defaultParams int) *diag.Diagnostic {
	return b.declare(name, &Symbol{
		Name:          *name,
		Kind:          KindFunction,
		Target:        target,
		ParamCount:    paramCount,
		DefaultParams: defaultParams,
	})
}

// DeclareLock declares a lock into the target scope.
func (b *Builder) DeclareLock(target Target, name *token.Token) *diag.Diagnostic {
	return b.declare(name, &Symbol{Name: *name, Kind: KindLock, Target: target})
}

// DeclareParameter declares a formal parameter; parameters are always local.
func (b *Builder) DeclareParameter(name *token.Token, defaulted bool) *diag.Diagnostic {
	return b.declare(name, &Symbol{
		Name:      *name,
		Kind:      KindParameter,
		Target:    TargetLocal,
		Defaulted: defaulted,
	})
}

func (b *Builder) declare(nameTok *token.Token, sym *Symbol) *diag.Diagnostic {
	name := fold(sym.Name.Lexeme)
	node := b.current()
	if sym.Target == TargetGlobal {
		node = b.table.Root()
	}

	if existing := node.Symbols[name]; existing != nil {
		d := diag.NewError(sym.Name.Range(), diag.CodeRedeclared,
			fmt.Sprintf("'%s' is already declared in this scope", sym.Name.Lexeme))
		d.RelatedInformation = []diag.RelatedInformation{{
			Location: existing.Symbol.Name.Location(),
			Message:  "first declared here",
		}}
		return &d
	}

	tracker := &Tracker{Symbol: sym}
	node.Symbols[name] = tracker
	b.table.Bindings[nameTok] = tracker

	// A local declaration may shadow a symbol from an enclosing scope; that
	// resolves fine but is worth a warning pointing at the original.
	if sym.Target == TargetLocal && node != b.table.Root() {
		if outer := b.lookupOuter(name, len(b.path)-1); outer != nil {
			d := diag.NewWarning(sym.Name.Range(), diag.CodeShadowed,
				fmt.Sprintf("'%s' shadows an enclosing declaration", sym.Name.Lexeme))
			d.RelatedInformation = []diag.RelatedInformation{{
				Location: outer.Symbol.Name.Location(),
				Message:  "shadowed declaration",
			}}
			return &d
		}
	}
	return nil
}

// lookupOuter resolves a folded name against scopes enclosing the one at
// path depth below, outermost last.
func (b *Builder) lookupOuter(name string, below int) *Tracker {
	for i := below - 1; i >= 0; i-- {
		if tracker := b.table.arena[b.path[i]].Symbols[name]; tracker != nil {
			return tracker
		}
	}
	return nil
}

// ---- uses and sets ---------------------------------------------------------

// lookup resolves a name against the active scope stack, innermost first,
// then against the root scopes of the dependency tables.
func (b *Builder) lookup(name string) *Tracker {
	folded := fold(name)
	for i := len(b.path) - 1; i >= 0; i-- {
		if tracker := b.table.arena[b.path[i]].Symbols[folded]; tracker != nil {
			return tracker
		}
	}
	var found *Tracker
	b.table.dependencies.Each(func(v any) bool {
		if tracker := v.(*Table).GlobalLookup(folded); tracker != nil {
			found = tracker
			return true
		}
		return false
	})
	return found
}

// UseSymbol records a use of any symbol kind, or reports that the symbol may
// not exist.
func (b *Builder) UseSymbol(tok *token.Token) *diag.Diagnostic {
	return b.use(tok, nil)
}

// UseVariable records a use expected to resolve to a variable or parameter.
func (b *Builder) UseVariable(tok *token.Token) *diag.Diagnostic {
	return b.use(tok, []Kind{KindVariable, KindParameter})
}

// UseFunction records a use expected to resolve to a function.
func (b *Builder) UseFunction(tok *token.Token) *diag.Diagnostic {
	return b.use(tok, []Kind{KindFunction})
}

// UseLock records a use expected to resolve to a lock.
func (b *Builder) UseLock(tok *token.Token) *diag.Diagnostic {
	return b.use(tok, []Kind{KindLock})
}

// UseParameter records a use expected to resolve to a parameter.
func (b *Builder) UseParameter(tok *token.Token) *diag.Diagnostic {
	return b.use(tok, []Kind{KindParameter})
}

// LocalLookup resolves a folded name against the innermost scope only,
// ignoring enclosing scopes and dependency tables.
func (b *Builder) LocalLookup(name string) *Tracker {
	return b.current().Symbols[fold(name)]
}

// UseLocalSymbol records a use that must resolve within the innermost scope.
func (b *Builder) UseLocalSymbol(tok *token.Token) *diag.Diagnostic {
	tracker := b.LocalLookup(tok.Lexeme)
	if tracker == nil {
		d := diag.NewError(tok.Range(), diag.CodeUnresolved,
			fmt.Sprintf("symbol '%s' may not exist in this scope", tok.Lexeme))
		return &d
	}
	tracker.Uses = append(tracker.Uses, tok.Location())
	b.table.Bindings[tok] = tracker
	return nil
}

func (b *Builder) use(tok *token.Token, wantKinds []Kind) *diag.Diagnostic {
	tracker := b.lookup(tok.Lexeme)
	if tracker == nil {
		d := diag.NewError(tok.Range(), diag.CodeUnresolved,
			fmt.Sprintf("symbol '%s' may not exist", tok.Lexeme))
		return &d
	}
	if wantKinds != nil && !kindIn(tracker.Symbol.Kind, wantKinds) {
		d := diag.NewError(tok.Range(), diag.CodeUnresolved,
			fmt.Sprintf("'%s' is a %s, not a %s", tok.Lexeme, tracker.Symbol.Kind, wantKinds[0]))
		return &d
	}
	tracker.Uses = append(tracker.Uses, tok.Location())
	b.table.Bindings[tok] = tracker
	return nil
}

// SetVariable records an assignment. An assignment to an undeclared name
// implicitly declares a global, matching the language's lazy-global rule.
func (b *Builder) SetVariable(tok *token.Token) *diag.Diagnostic {
	tracker := b.lookup(tok.Lexeme)
	if tracker == nil {
		sym := &Symbol{Name: *tok, Kind: KindVariable, Target: TargetGlobal}
		tracker = &Tracker{Symbol: sym}
		b.table.Root().Symbols[fold(tok.Lexeme)] = tracker
	}
	tracker.Sets = append(tracker.Sets, tok.Location())
	b.table.Bindings[tok] = tracker
	return nil
}

// TrackerFor returns the tracker bound to a token, or nil.
func (b *Builder) TrackerFor(tok *token.Token) *Tracker {
	return b.table.Bindings[tok]
}

// BindType records the resolved type on a token's tracker.
func (b *Builder) BindType(tok *token.Token, t *types.Type) {
	if tracker := b.table.Bindings[tok]; tracker != nil {
		tracker.Type = t
	}
}

func kindIn(k Kind, kinds []Kind) bool {
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}
