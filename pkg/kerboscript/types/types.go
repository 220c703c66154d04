// Package types implements the structural type engine: single-parent
// subtyping, explicit coercions, suffix (member) lookup through the supertype
// chain, operator overload resolution, and memoized generic instantiation.
package types

import (
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set"
)

// Access describes how a suffix or type member may be used.
type Access int

const (
	AccessGet Access = iota
	AccessSet
	AccessGetSet
)

// OperatorKind identifies an operator for overload resolution.
type OperatorKind int

const (
	OperatorPlus OperatorKind = iota
	OperatorMinus
	OperatorMultiply
	OperatorDivide
	OperatorPower
	OperatorGreater
	OperatorLess
	OperatorGreaterEqual
	OperatorLessEqual
	OperatorEqual
	OperatorNotEqual
	OperatorAnd
	OperatorOr
	OperatorNegate
	OperatorNot
)

var operatorNames = map[OperatorKind]string{
	OperatorPlus:         "+",
	OperatorMinus:        "-",
	OperatorMultiply:     "*",
	OperatorDivide:       "/",
	OperatorPower:        "^",
	OperatorGreater:      ">",
	OperatorLess:         "<",
	OperatorGreaterEqual: ">=",
	OperatorLessEqual:    "<=",
	OperatorEqual:        "=",
	OperatorNotEqual:     "<>",
	OperatorAnd:          "and",
	OperatorOr:           "or",
	OperatorNegate:       "-",
	OperatorNot:          "not",
}

func (k OperatorKind) String() string {
	if name, ok := operatorNames[k]; ok {
		return name
	}
	return fmt.Sprintf("operator(%d)", int(k))
}

// Operator is one registered overload. Other is nil for unary operators.
type Operator struct {
	Kind   OperatorKind
	Other  *Type
	Result *Type
}

// Suffix is one member reachable through the colon trailer.
type Suffix struct {
	Name     string
	Result   *Type
	Callable bool
	Params   []*Type
	Access   Access
}

// Type is one structural type record. Identity is pointer identity: the
// catalog builds each named type once, and generic instantiation is memoized
// so equal arguments always return the same record.
type Type struct {
	name      string
	access    Access
	super     *Type
	suffixes  map[string]*Suffix
	operators map[OperatorKind][]*Operator
	coercions mapset.Set // of *Type

	// generic machinery
	params      []*Type          // placeholder records, one per type parameter
	memo        map[string]*Type // argument signature -> instantiated type
	template    *Type            // generic this record was instantiated from
	args        []*Type          // concrete arguments of an instantiated type
	placeholder bool
}

// New creates a named type record.
func New(name string, opts ...Option) *Type {
	t := &Type{
		name:      name,
		suffixes:  make(map[string]*Suffix),
		operators: make(map[OperatorKind][]*Operator),
		coercions: mapset.NewThreadUnsafeSet(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Option configures a type at construction.
type Option func(*Type)

// WithSuper sets the single supertype link.
func WithSuper(super *Type) Option {
	return func(t *Type) { t.super = super }
}

// WithAccess sets the access kind.
func WithAccess(a Access) Option {
	return func(t *Type) { t.access = a }
}

// NewGeneric creates a parametric type with one placeholder record per
// parameter name. A generic is never used directly in checking; it is
// instantiated first.
func NewGeneric(name string, paramNames ...string) *Type {
	t := New(name)
	t.memo = make(map[string]*Type)
	for _, pn := range paramNames {
		t.params = append(t.params, &Type{name: pn, placeholder: true})
	}
	return t
}

// Name returns the display name, including arguments for instantiated types.
func (t *Type) Name() string { return t.name }

// Access returns the access kind.
func (t *Type) Access() Access { return t.access }

// Super returns the supertype, or nil.
func (t *Type) Super() *Type { return t.super }

// IsGeneric reports whether the type has uninstantiated parameters.
func (t *Type) IsGeneric() bool { return len(t.params) > 0 }

// Param returns the placeholder record for parameter i, for use when
// declaring the generic's suffixes.
func (t *Type) Param(i int) *Type { return t.params[i] }

// Template returns the generic this type was instantiated from, or nil.
func (t *Type) Template() *Type { return t.template }

// Arg returns concrete type argument i of an instantiated type.
func (t *Type) Arg(i int) *Type { return t.args[i] }

// AddSuffix registers a readable member.
func (t *Type) AddSuffix(name string, result *Type) *Type {
	return t.addSuffix(&Suffix{Name: name, Result: result, Access: AccessGet})
}

// AddSettableSuffix registers a member that can be read and assigned.
func (t *Type) AddSettableSuffix(name string, result *Type) *Type {
	return t.addSuffix(&Suffix{Name: name, Result: result, Access: AccessGetSet})
}

// AddCallableSuffix registers a method member.
func (t *Type) AddCallableSuffix(name string, result *Type, params ...*Type) *Type {
	return t.addSuffix(&Suffix{Name: name, Result: result, Callable: true, Params: params, Access: AccessGet})
}

func (t *Type) addSuffix(s *Suffix) *Type {
	key := strings.ToLower(s.Name)
	if _, exists := t.suffixes[key]; exists {
		panic(fmt.Sprintf("types: duplicate suffix %q on %s", s.Name, t.name))
	}
	t.suffixes[key] = s
	return t
}

// AddOperator registers an overload. Exactly one operator may exist per
// (kind, other-operand) pair; a duplicate registration is a catalog
// construction fault.
func (t *Type) AddOperator(kind OperatorKind, other, result *Type) *Type {
	for _, op := range t.operators[kind] {
		if op.Other == other {
			panic(fmt.Sprintf("types: duplicate operator %s on %s", kind, t.name))
		}
	}
	t.operators[kind] = append(t.operators[kind], &Operator{Kind: kind, Other: other, Result: result})
	return t
}

// AddCoercion declares that values of t may coerce to each given type.
// Coercion does not imply subtyping.
func (t *Type) AddCoercion(others ...*Type) *Type {
	for _, o := range others {
		t.coercions.Add(o)
	}
	return t
}

// IsSubtypeOf reports whether t is other or has other on its supertype chain.
func (t *Type) IsSubtypeOf(other *Type) bool {
	for cur := t; cur != nil; cur = cur.super {
		if cur == other {
			return true
		}
	}
	return false
}

// CanCoerce reports whether t can be used where other is wanted. Subtyping
// always coerces; explicit coercible sets are consulted at each level of the
// same upward walk.
func (t *Type) CanCoerce(other *Type) bool {
	for cur := t; cur != nil; cur = cur.super {
		if cur == other || cur.coercions.Contains(other) {
			return true
		}
	}
	return false
}

// Suffix resolves a member name through the supertype chain, returning nil
// when the chain is exhausted.
func (t *Type) Suffix(name string) *Suffix {
	key := strings.ToLower(name)
	for cur := t; cur != nil; cur = cur.super {
		if s, ok := cur.suffixes[key]; ok {
			return s
		}
	}
	return nil
}

// Operator resolves an overload by kind and, for binary operators, the other
// operand's type identity. Unary operators pass other as nil.
func (t *Type) Operator(kind OperatorKind, other *Type) *Operator {
	for cur := t; cur != nil; cur = cur.super {
		for _, op := range cur.operators[kind] {
			if op.Other == other {
				return op
			}
		}
		// Second chance: an overload whose operand type the other operand
		// can coerce to.
		if other != nil {
			for _, op := range cur.operators[kind] {
				if op.Other != nil && other.CanCoerce(op.Other) {
					return op
				}
			}
		}
	}
	return nil
}

// Instantiate builds the concrete type for the given arguments. Instantiation
// is memoized per argument list: equal arguments return the same record, so
// type identity comparisons hold across expressions.
func (t *Type) Instantiate(args ...*Type) (*Type, error) {
	if !t.IsGeneric() {
		return nil, fmt.Errorf("types: %s is not a generic type", t.name)
	}
	if len(args) != len(t.params) {
		return nil, fmt.Errorf("types: %s expects %d type arguments, got %d",
			t.name, len(t.params), len(args))
	}

	names := make([]string, len(args))
	for i, a := range args {
		names[i] = a.name
	}
	key := strings.Join(names, ",")
	if concrete, ok := t.memo[key]; ok {
		return concrete, nil
	}

	subst := make(map[*Type]*Type, len(args))
	for i, p := range t.params {
		subst[p] = args[i]
	}
	resolve := func(x *Type) *Type {
		if mapped, ok := subst[x]; ok {
			return mapped
		}
		return x
	}

	concrete := New(fmt.Sprintf("%s<%s>", t.name, key), WithSuper(resolve(t.super)), WithAccess(t.access))
	concrete.template = t
	concrete.args = args
	for sk, s := range t.suffixes {
		params := make([]*Type, len(s.Params))
		for i, sp := range s.Params {
			params[i] = resolve(sp)
		}
		concrete.suffixes[sk] = &Suffix{
			Name:     s.Name,
			Result:   resolve(s.Result),
			Callable: s.Callable,
			Params:   params,
			Access:   s.Access,
		}
	}
	for kind, ops := range t.operators {
		for _, op := range ops {
			concrete.operators[kind] = append(concrete.operators[kind], &Operator{
				Kind:   kind,
				Other:  resolve(op.Other),
				Result: resolve(op.Result),
			})
		}
	}
	t.coercions.Each(func(c any) bool {
		concrete.coercions.Add(resolve(c.(*Type)))
		return false
	})

	t.memo[key] = concrete
	return concrete, nil
}
