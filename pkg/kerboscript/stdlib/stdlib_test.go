package stdlib

import (
	"testing"

	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/types"
)

func TestCatalogHierarchy(t *testing.T) {
	c := NewCatalog()

	for _, sub := range []*types.Type{c.Scalar, c.String, c.Boolean, c.Vector, c.Direction, c.TimeSpan} {
		if !sub.IsSubtypeOf(c.Serializable) {
			t.Errorf("%s should be serializable", sub.Name())
		}
		if !sub.IsSubtypeOf(c.Structure) {
			t.Errorf("%s should be a structure", sub.Name())
		}
	}
	if c.Vessel.IsSubtypeOf(c.Serializable) {
		t.Error("vessel is not serializable")
	}
}

func TestEveryTypeHasRootSuffixes(t *testing.T) {
	c := NewCatalog()
	for _, typ := range []*types.Type{c.Scalar, c.Vessel, c.Delegate, c.Lexicon} {
		s := typ.Suffix("tostring")
		if s == nil || s.Result != c.String {
			t.Errorf("%s: tostring should resolve to string via the root", typ.Name())
		}
	}
}

func TestBuiltinLookupFoldsCase(t *testing.T) {
	c := NewCatalog()

	b := c.Builtin("SQRT")
	if b == nil || !b.Callable || b.Type != c.Scalar {
		t.Fatalf("sqrt lookup failed: %+v", b)
	}
	if b.MinArgs != 1 || b.MaxArgs != 1 {
		t.Errorf("sqrt arity: got %d..%d", b.MinArgs, b.MaxArgs)
	}

	ship := c.Builtin("Ship")
	if ship == nil || ship.Callable || ship.Type != c.Vessel {
		t.Fatalf("ship lookup failed: %+v", ship)
	}

	if c.Builtin("warpdrive") != nil {
		t.Error("unknown name should return nil")
	}
}

func TestVariadicBuiltins(t *testing.T) {
	c := NewCatalog()
	list := c.Builtin("list")
	if list == nil || list.MaxArgs != -1 {
		t.Fatalf("list should accept unbounded arguments: %+v", list)
	}
}

func TestListOfIsMemoized(t *testing.T) {
	c := NewCatalog()
	a := c.ListOf(c.Scalar)
	b := c.ListOf(c.Scalar)
	if a != b {
		t.Error("equal element types must produce the identical list type")
	}
	if a == c.ListOf(c.String) {
		t.Error("different element types must produce distinct list types")
	}
	if s := a.Suffix("add"); s == nil || len(s.Params) != 1 || s.Params[0] != c.Scalar {
		t.Error("element placeholder not substituted in list suffixes")
	}
}
