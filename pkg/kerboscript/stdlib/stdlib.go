// Package stdlib registers the built-in KerboScript type hierarchy and the
// pre-declared global functions and variables the resolver consults.
//
// These are declarative data registrations; the algorithms that consume them
// live in the types and resolver packages.
package stdlib

import (
	"strings"

	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/types"
)

// Builtin is one pre-declared global function or bound variable.
type Builtin struct {
	Name     string
	Type     *types.Type
	Callable bool
	// MinArgs and MaxArgs bound the accepted argument count for callable
	// builtins. MaxArgs of -1 means unbounded.
	MinArgs int
	MaxArgs int
}

// Catalog holds the built-in types and globals for one analysis session.
type Catalog struct {
	Structure    *types.Type
	Serializable *types.Type
	Scalar       *types.Type
	String       *types.Type
	Boolean      *types.Type
	Vector       *types.Type
	Direction    *types.Type
	TimeSpan     *types.Type
	Orbit        *types.Type
	Body         *types.Type
	Vessel       *types.Type
	Delegate     *types.Type
	List         *types.Type // generic over the element type
	Lexicon      *types.Type

	builtins map[string]*Builtin
}

// NewCatalog builds the full built-in catalog. Construction panics on a
// conflicting registration, which is a programming fault caught at startup.
func NewCatalog() *Catalog {
	c := &Catalog{builtins: make(map[string]*Builtin)}

	c.Structure = types.New("structure")
	// Result types are patched below once string exists.
	c.Structure.AddSuffix("tostring", nil)
	c.Structure.AddSuffix("typename", nil)

	c.Serializable = types.New("serializable", types.WithSuper(c.Structure))

	c.Scalar = types.New("scalar", types.WithSuper(c.Serializable))
	c.String = types.New("string", types.WithSuper(c.Serializable))
	c.Boolean = types.New("boolean", types.WithSuper(c.Serializable))

	// Patch the root suffixes now that their result types exist.
	c.Structure.Suffix("tostring").Result = c.String
	c.Structure.Suffix("typename").Result = c.String

	c.Scalar.
		AddOperator(types.OperatorPlus, c.Scalar, c.Scalar).
		AddOperator(types.OperatorMinus, c.Scalar, c.Scalar).
		AddOperator(types.OperatorMultiply, c.Scalar, c.Scalar).
		AddOperator(types.OperatorDivide, c.Scalar, c.Scalar).
		AddOperator(types.OperatorPower, c.Scalar, c.Scalar).
		AddOperator(types.OperatorGreater, c.Scalar, c.Boolean).
		AddOperator(types.OperatorLess, c.Scalar, c.Boolean).
		AddOperator(types.OperatorGreaterEqual, c.Scalar, c.Boolean).
		AddOperator(types.OperatorLessEqual, c.Scalar, c.Boolean).
		AddOperator(types.OperatorEqual, c.Scalar, c.Boolean).
		AddOperator(types.OperatorNotEqual, c.Scalar, c.Boolean).
		AddOperator(types.OperatorNegate, nil, c.Scalar).
		AddCoercion(c.String, c.Boolean)
	c.Scalar.AddSuffix("abs", c.Scalar)

	c.String.
		AddOperator(types.OperatorPlus, c.Structure, c.String).
		AddOperator(types.OperatorEqual, c.String, c.Boolean).
		AddOperator(types.OperatorNotEqual, c.String, c.Boolean).
		AddOperator(types.OperatorGreater, c.String, c.Boolean).
		AddOperator(types.OperatorLess, c.String, c.Boolean).
		AddCoercion(c.Boolean)
	c.String.
		AddSuffix("length", c.Scalar).
		AddCallableSuffix("substring", c.String, c.Scalar, c.Scalar).
		AddCallableSuffix("contains", c.Boolean, c.String).
		AddCallableSuffix("startswith", c.Boolean, c.String).
		AddCallableSuffix("endswith", c.Boolean, c.String).
		AddSuffix("tolower", c.String).
		AddSuffix("toupper", c.String).
		AddSuffix("trim", c.String)

	c.Boolean.
		AddOperator(types.OperatorAnd, c.Boolean, c.Boolean).
		AddOperator(types.OperatorOr, c.Boolean, c.Boolean).
		AddOperator(types.OperatorEqual, c.Boolean, c.Boolean).
		AddOperator(types.OperatorNotEqual, c.Boolean, c.Boolean).
		AddOperator(types.OperatorNot, nil, c.Boolean)

	c.Vector = types.New("vector", types.WithSuper(c.Serializable))
	c.Vector.
		AddOperator(types.OperatorPlus, c.Vector, c.Vector).
		AddOperator(types.OperatorMinus, c.Vector, c.Vector).
		AddOperator(types.OperatorMultiply, c.Scalar, c.Vector).
		AddOperator(types.OperatorMultiply, c.Vector, c.Scalar). // dot product
		AddOperator(types.OperatorNegate, nil, c.Vector)
	c.Vector.
		AddSettableSuffix("x", c.Scalar).
		AddSettableSuffix("y", c.Scalar).
		AddSettableSuffix("z", c.Scalar).
		AddSuffix("mag", c.Scalar).
		AddSuffix("normalized", c.Vector)

	c.Direction = types.New("direction", types.WithSuper(c.Serializable))
	c.Direction.
		AddSuffix("pitch", c.Scalar).
		AddSuffix("yaw", c.Scalar).
		AddSuffix("roll", c.Scalar).
		AddSuffix("vector", c.Vector).
		AddOperator(types.OperatorPlus, c.Direction, c.Direction).
		AddOperator(types.OperatorMultiply, c.Vector, c.Vector)

	c.TimeSpan = types.New("timespan", types.WithSuper(c.Serializable))
	c.TimeSpan.
		AddSuffix("seconds", c.Scalar).
		AddSuffix("minute", c.Scalar).
		AddSuffix("hour", c.Scalar).
		AddOperator(types.OperatorPlus, c.TimeSpan, c.TimeSpan).
		AddOperator(types.OperatorMinus, c.TimeSpan, c.TimeSpan).
		AddOperator(types.OperatorGreater, c.TimeSpan, c.Boolean).
		AddOperator(types.OperatorLess, c.TimeSpan, c.Boolean).
		AddCoercion(c.Scalar)

	c.Orbit = types.New("orbit", types.WithSuper(c.Structure))
	c.Orbit.
		AddSuffix("apoapsis", c.Scalar).
		AddSuffix("periapsis", c.Scalar).
		AddSuffix("period", c.Scalar).
		AddSuffix("inclination", c.Scalar).
		AddSuffix("eccentricity", c.Scalar)

	orbitable := types.New("orbitable", types.WithSuper(c.Structure))
	orbitable.
		AddSuffix("name", c.String).
		AddSuffix("obt", c.Orbit).
		AddSuffix("position", c.Vector).
		AddSuffix("velocity", c.Vector).
		AddSuffix("altitude", c.Scalar)

	c.Body = types.New("body", types.WithSuper(orbitable))
	c.Body.
		AddSuffix("mu", c.Scalar).
		AddSuffix("radius", c.Scalar).
		AddSuffix("atm", c.Structure)

	c.Vessel = types.New("vessel", types.WithSuper(orbitable))
	c.Vessel.
		AddSuffix("mass", c.Scalar).
		AddSuffix("maxthrust", c.Scalar).
		AddSuffix("availablethrust", c.Scalar).
		AddSuffix("apoapsis", c.Scalar).
		AddSuffix("periapsis", c.Scalar).
		AddSuffix("verticalspeed", c.Scalar).
		AddSuffix("facing", c.Direction)

	c.Delegate = types.New("delegate", types.WithSuper(c.Structure))
	c.Delegate.
		AddCallableSuffix("call", c.Structure).
		AddSuffix("bind", c.Delegate)

	c.List = types.NewGeneric("list", "T")
	elem := c.List.Param(0)
	c.List.
		AddSuffix("length", c.Scalar).
		AddCallableSuffix("contains", c.Boolean, elem).
		AddCallableSuffix("add", c.Structure, elem).
		AddCallableSuffix("remove", c.Structure, c.Scalar).
		AddCallableSuffix("indexof", c.Scalar, elem).
		AddSuffix("empty", c.Boolean)

	c.Lexicon = types.New("lexicon", types.WithSuper(c.Serializable))
	c.Lexicon.
		AddSuffix("length", c.Scalar).
		AddSuffix("keys", c.Structure).
		AddSuffix("values", c.Structure).
		AddCallableSuffix("haskey", c.Boolean, c.Structure)

	c.registerBuiltins()
	return c
}

// ListOf returns the memoized list instantiation for an element type.
func (c *Catalog) ListOf(elem *types.Type) *types.Type {
	concrete, err := c.List.Instantiate(elem)
	if err != nil {
		// Single-parameter generic instantiated with one argument cannot
		// fail; treat as a catalog construction fault.
		panic(err)
	}
	return concrete
}

func (c *Catalog) registerBuiltins() {
	fn := func(name string, result *types.Type, min, max int) {
		c.addBuiltin(&Builtin{Name: name, Type: result, Callable: true, MinArgs: min, MaxArgs: max})
	}
	bound := func(name string, t *types.Type) {
		c.addBuiltin(&Builtin{Name: name, Type: t})
	}

	fn("abs", c.Scalar, 1, 1)
	fn("ceiling", c.Scalar, 1, 2)
	fn("floor", c.Scalar, 1, 2)
	fn("round", c.Scalar, 1, 2)
	fn("sqrt", c.Scalar, 1, 1)
	fn("ln", c.Scalar, 1, 1)
	fn("log10", c.Scalar, 1, 1)
	fn("mod", c.Scalar, 2, 2)
	fn("min", c.Scalar, 2, 2)
	fn("max", c.Scalar, 2, 2)
	fn("random", c.Scalar, 0, 0)
	fn("sin", c.Scalar, 1, 1)
	fn("cos", c.Scalar, 1, 1)
	fn("tan", c.Scalar, 1, 1)
	fn("arcsin", c.Scalar, 1, 1)
	fn("arccos", c.Scalar, 1, 1)
	fn("arctan", c.Scalar, 1, 1)
	fn("arctan2", c.Scalar, 2, 2)
	fn("char", c.String, 1, 1)
	fn("unchar", c.Scalar, 1, 1)
	fn("v", c.Vector, 3, 3)
	fn("heading", c.Direction, 2, 3)
	fn("latlng", c.Structure, 2, 2)
	fn("list", c.ListOf(c.Structure), 0, -1)
	fn("lexicon", c.Lexicon, 0, -1)

	bound("ship", c.Vessel)
	bound("body", c.Body)
	bound("time", c.TimeSpan)
	bound("throttle", c.Scalar)
	bound("steering", c.Direction)
	bound("altitude", c.Scalar)
	bound("apoapsis", c.Scalar)
	bound("periapsis", c.Scalar)
	bound("velocity", c.Vector)
	bound("up", c.Direction)
	bound("prograde", c.Direction)
	bound("retrograde", c.Direction)
	bound("terminal", c.Structure)
	bound("constant", c.Structure)
	bound("solarprimevector", c.Vector)
}

func (c *Catalog) addBuiltin(b *Builtin) {
	key := strings.ToLower(b.Name)
	if _, exists := c.builtins[key]; exists {
		panic("stdlib: duplicate builtin " + b.Name)
	}
	c.builtins[key] = b
}

// Builtin resolves a pre-declared global by name, case-insensitively.
func (c *Catalog) Builtin(name string) *Builtin {
	return c.builtins[strings.ToLower(name)]
}
