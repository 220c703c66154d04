// Package scope builds per-document symbol tables: a tree of lexical scopes
// holding symbol trackers, plus the cross-document dependency links created
// by load instructions.
package scope

import (
	"strings"

	mapset "github.com/deckarep/golang-set"

	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/diag"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/token"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/types"
)

// Kind classifies a declared symbol.
type Kind int

const (
	KindVariable Kind = iota
	KindFunction
	KindLock
	KindParameter
)

func (k Kind) String() string {
	switch k {
	case KindVariable:
		return "variable"
	case KindFunction:
		return "function"
	case KindLock:
		return "lock"
	case KindParameter:
		return "parameter"
	}
	return "symbol"
}

// Target names the scope a declaration binds into.
type Target int

const (
	TargetLocal Target = iota
	TargetGlobal
)

// Symbol is one declared name with its kind-specific attributes.
type Symbol struct {
	Name   token.Token
	Kind   Kind
	Target Target

	// Function attributes.
	ParamCount    int
	DefaultParams int

	// Parameter attributes.
	Defaulted bool
}

// Tracker is the live resolution record for one declared symbol. It is
// created on declaration and mutated by every later use or set; it lives
// until the document is re-analyzed.
type Tracker struct {
	Symbol *Symbol
	Type   *types.Type
	Sets   []diag.Location
	Uses   []diag.Location
}

// fold normalizes a symbol name: KerboScript is case-insensitive.
func fold(name string) string {
	return strings.ToLower(name)
}

// Node is one lexical scope. Pos is nil for the global (file root) scope.
type Node struct {
	Pos      *diag.Range
	Symbols  map[string]*Tracker
	Children []int // arena indices, in visit order

	index int
}

// Index returns the node's stable arena index.
func (n *Node) Index() int { return n.index }

// Lookup resolves a name inside this single scope.
func (n *Node) Lookup(name string) *Tracker {
	return n.Symbols[fold(name)]
}

// Table is the finished product of one builder: the scope arena rooted at the
// document's global scope, the token-to-tracker side table, and the two
// directions of the inter-document link.
type Table struct {
	URI      string
	Bindings map[*token.Token]*Tracker

	arena        []*Node
	dependencies mapset.Set // of *Table: tables this document's loads depend on
	dependents   mapset.Set // of *Table: tables depending on this one
}

func newTable(uri string) *Table {
	t := &Table{
		URI:          uri,
		Bindings:     make(map[*token.Token]*Tracker),
		dependencies: mapset.NewThreadUnsafeSet(),
		dependents:   mapset.NewThreadUnsafeSet(),
	}
	t.arena = []*Node{{Symbols: make(map[string]*Tracker)}}
	return t
}

// Root returns the global scope node.
func (t *Table) Root() *Node { return t.arena[0] }

// Node returns the scope node at an arena index, or nil when out of range.
func (t *Table) Node(index int) *Node {
	if index < 0 || index >= len(t.arena) {
		return nil
	}
	return t.arena[index]
}

// GlobalLookup resolves a name against the root scope only.
func (t *Table) GlobalLookup(name string) *Tracker {
	return t.Root().Lookup(name)
}

// AddDependency links other as a table this one depends on, keeping both
// directions consistent.
func (t *Table) AddDependency(other *Table) {
	if other == nil || other == t {
		return
	}
	t.dependencies.Add(other)
	other.dependents.Add(t)
}

// RemoveDependency unlinks other from both directions.
func (t *Table) RemoveDependency(other *Table) {
	t.dependencies.Remove(other)
	other.dependents.Remove(t)
}

// Dependencies returns the tables this document's loads depend on.
func (t *Table) Dependencies() []*Table {
	return tableSlice(t.dependencies)
}

// Dependents returns the tables that depend on this one.
func (t *Table) Dependents() []*Table {
	return tableSlice(t.dependents)
}

// DependsOn reports whether other is in the dependency set.
func (t *Table) DependsOn(other *Table) bool {
	return t.dependencies.Contains(other)
}

// HasDependent reports whether other is in the dependent set.
func (t *Table) HasDependent(other *Table) bool {
	return t.dependents.Contains(other)
}

// DetachDependencies removes every outgoing edge, fixing up the partners'
// dependent sets.
func (t *Table) DetachDependencies() {
	for _, dep := range t.Dependencies() {
		t.RemoveDependency(dep)
	}
}

// TransferDependentsTo moves every incoming edge onto replacement, so tables
// that depended on this one now depend on its rebuilt successor.
func (t *Table) TransferDependentsTo(replacement *Table) {
	for _, dep := range t.Dependents() {
		dep.RemoveDependency(t)
		dep.AddDependency(replacement)
	}
}

func tableSlice(set mapset.Set) []*Table {
	out := make([]*Table, 0, set.Cardinality())
	set.Each(func(v any) bool {
		out = append(out, v.(*Table))
		return false
	})
	return out
}
