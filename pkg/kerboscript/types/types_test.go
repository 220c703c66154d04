package types

import (
	"testing"
)

func buildChain() (structure, scalar, str *Type) {
	structure = New("structure")
	scalar = New("scalar", WithSuper(structure))
	str = New("string", WithSuper(structure))
	return structure, scalar, str
}

func TestIsSubtypeOfIsReflexiveAndTransitive(t *testing.T) {
	structure := New("structure")
	serializable := New("serializable", WithSuper(structure))
	scalar := New("scalar", WithSuper(serializable))

	if !scalar.IsSubtypeOf(scalar) {
		t.Error("subtyping must be reflexive")
	}
	if !scalar.IsSubtypeOf(serializable) {
		t.Error("direct supertype not recognized")
	}
	if !scalar.IsSubtypeOf(structure) {
		t.Error("subtyping must be transitive along the chain")
	}
	if structure.IsSubtypeOf(scalar) {
		t.Error("subtyping must not hold downward")
	}
}

func TestCanCoerceCoversSubtyping(t *testing.T) {
	structure, scalar, str := buildChain()
	scalar.AddCoercion(str)

	// Everywhere isSubtype holds, canCoerce holds.
	if !scalar.CanCoerce(structure) || !scalar.CanCoerce(scalar) {
		t.Error("coercion must include the supertype chain")
	}
	// Declared coercions extend beyond subtyping.
	if !scalar.CanCoerce(str) {
		t.Error("declared coercion not honored")
	}
	if scalar.IsSubtypeOf(str) {
		t.Error("coercion must not imply subtyping")
	}
	if str.CanCoerce(scalar) {
		t.Error("coercion is directional")
	}
}

func TestSuffixLookupWalksSupertypeChain(t *testing.T) {
	structure, scalar, str := buildChain()
	structure.AddSuffix("tostring", str)
	scalar.AddCallableSuffix("round", scalar, scalar)

	if s := scalar.Suffix("round"); s == nil || !s.Callable {
		t.Fatal("own suffix not found")
	}
	if s := scalar.Suffix("tostring"); s == nil || s.Result != str {
		t.Fatal("inherited suffix not found")
	}
	if s := scalar.Suffix("ToString"); s == nil {
		t.Error("suffix lookup must fold case")
	}
	if s := structure.Suffix("round"); s != nil {
		t.Error("suffix lookup must not search downward")
	}
}

func TestOperatorResolution(t *testing.T) {
	_, scalar, str := buildChain()
	scalar.AddOperator(OperatorPlus, scalar, scalar)
	str.AddOperator(OperatorPlus, str, str)
	scalar.AddCoercion(str)

	if op := scalar.Operator(OperatorPlus, scalar); op == nil || op.Result != scalar {
		t.Error("exact operand match failed")
	}
	if op := scalar.Operator(OperatorPlus, str); op != nil {
		t.Error("scalar + string should not resolve on scalar")
	}
	// Second chance: scalar coerces to string, so string + scalar resolves
	// through the string overload.
	if op := str.Operator(OperatorPlus, scalar); op == nil || op.Result != str {
		t.Error("coercion-based operand match failed")
	}
}

func TestUnaryOperator(t *testing.T) {
	_, scalar, _ := buildChain()
	scalar.AddOperator(OperatorNegate, nil, scalar)

	if op := scalar.Operator(OperatorNegate, nil); op == nil || op.Result != scalar {
		t.Error("unary operator not resolved")
	}
	if op := scalar.Operator(OperatorNot, nil); op != nil {
		t.Error("unregistered unary operator should not resolve")
	}
}

func TestDuplicateOperatorPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate operator registration")
		}
	}()
	_, scalar, _ := buildChain()
	scalar.AddOperator(OperatorPlus, scalar, scalar)
	scalar.AddOperator(OperatorPlus, scalar, scalar)
}

func TestDuplicateSuffixPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate suffix registration")
		}
	}()
	_, scalar, _ := buildChain()
	scalar.AddSuffix("mag", scalar)
	scalar.AddSuffix("MAG", scalar)
}

func TestInstantiateIsMemoized(t *testing.T) {
	structure, scalar, str := buildChain()
	list := NewGeneric("list", "T")
	list.super = structure
	elem := list.Param(0)
	list.AddCallableSuffix("push", structure, elem)
	list.AddSuffix("length", scalar)

	ofScalar, err := list.Instantiate(scalar)
	if err != nil {
		t.Fatal(err)
	}
	again, err := list.Instantiate(scalar)
	if err != nil {
		t.Fatal(err)
	}
	if ofScalar != again {
		t.Error("equal arguments must return the identical record")
	}

	ofString, err := list.Instantiate(str)
	if err != nil {
		t.Fatal(err)
	}
	if ofScalar == ofString {
		t.Error("different arguments must return distinct records")
	}
}

func TestInstantiateSubstitutesPlaceholders(t *testing.T) {
	structure, scalar, _ := buildChain()
	list := NewGeneric("list", "T")
	list.super = structure
	elem := list.Param(0)
	list.AddCallableSuffix("push", structure, elem)
	list.AddSuffix("first", elem)

	ofScalar, err := list.Instantiate(scalar)
	if err != nil {
		t.Fatal(err)
	}
	if ofScalar.Template() != list || ofScalar.Arg(0) != scalar {
		t.Error("instantiated type must remember its template and arguments")
	}
	if s := ofScalar.Suffix("first"); s == nil || s.Result != scalar {
		t.Error("placeholder result not substituted")
	}
	if s := ofScalar.Suffix("push"); s == nil || len(s.Params) != 1 || s.Params[0] != scalar {
		t.Error("placeholder parameter not substituted")
	}
	if !ofScalar.IsSubtypeOf(structure) {
		t.Error("instantiated type keeps the generic's supertype")
	}
}

func TestInstantiateErrors(t *testing.T) {
	_, scalar, _ := buildChain()
	if _, err := scalar.Instantiate(scalar); err == nil {
		t.Error("instantiating a non-generic must fail")
	}
	list := NewGeneric("list", "T")
	if _, err := list.Instantiate(); err == nil {
		t.Error("wrong arity must fail")
	}
}
