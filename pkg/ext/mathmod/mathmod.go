// Package mathmod is a worked-example native module (spec.md §6.3):
// `import math` resolves to the Module this package builds, exporting
// a handful of NativeFunction attributes over math/big-backed
// Int/Rational values. Standard-library module bodies are named but
// not specified by spec.md §1's Non-goals; this is the one CORE
// supplements to give the module-bootstrap contract a real caller.
package mathmod

import (
	"math"
	"math/big"

	"github.com/ember-lang/ember/internal/diag"
	"github.com/ember-lang/ember/internal/modules"
	"github.com/ember-lang/ember/internal/object"
)

// Register installs the "math" module into reg.
func Register(reg *modules.Registry) {
	reg.Register("math", build)
}

func build() (*object.Module, error) {
	m := object.NewModule("math")
	m.SetAttr("pi", object.NewRational(piRat()))
	m.SetAttr("sqrt", object.NewNativeFunction("math.sqrt", sqrtFn))
	m.SetAttr("floor", object.NewNativeFunction("math.floor", floorFn))
	m.SetAttr("ceil", object.NewNativeFunction("math.ceil", ceilFn))
	m.SetAttr("abs", object.NewNativeFunction("math.abs", absFn))
	return m, nil
}

// piRat is a fixed-precision rational approximation of pi; spec.md §1
// treats unbounded rational arithmetic as an opaque facility, so an
// irrational constant is necessarily an approximation rather than an
// exact Rational.
func piRat() *big.Rat {
	r, _ := new(big.Rat).SetString("3.14159265358979323846")
	return r
}

func asFloat(o object.Object) (float64, bool) {
	switch v := o.(type) {
	case *object.Int:
		f := new(big.Float).SetInt(v.Value)
		r, _ := f.Float64()
		return r, true
	case *object.Rational:
		f := new(big.Float).SetRat(v.Value)
		r, _ := f.Float64()
		return r, true
	}
	return 0, false
}

func sqrtFn(_ object.Object, args []object.Object) (object.Object, error) {
	if len(args) != 1 {
		return nil, &object.OpError{Kind: diag.ArityError, Message: "math.sqrt expects 1 argument"}
	}
	f, ok := asFloat(args[0])
	if !ok {
		return nil, &object.OpError{Kind: diag.TypeError, Message: "math.sqrt expects a number"}
	}
	if f < 0 {
		return nil, &object.OpError{Kind: diag.ArithError, Message: "math.sqrt of a negative number"}
	}
	r := new(big.Rat).SetFloat64(math.Sqrt(f))
	if r == nil {
		return nil, &object.OpError{Kind: diag.ArithError, Message: "math.sqrt produced a non-finite result"}
	}
	return object.NewRational(r), nil
}

func floorFn(_ object.Object, args []object.Object) (object.Object, error) {
	if len(args) != 1 {
		return nil, &object.OpError{Kind: diag.ArityError, Message: "math.floor expects 1 argument"}
	}
	switch v := args[0].(type) {
	case *object.Int:
		return object.NewInt(new(big.Int).Set(v.Value)), nil
	case *object.Rational:
		q := new(big.Int)
		q.Quo(v.Value.Num(), v.Value.Denom())
		if v.Value.Sign() < 0 && new(big.Int).Mul(q, v.Value.Denom()).Cmp(v.Value.Num()) != 0 {
			q.Sub(q, big.NewInt(1))
		}
		return object.NewInt(q), nil
	}
	return nil, &object.OpError{Kind: diag.TypeError, Message: "math.floor expects a number"}
}

func ceilFn(_ object.Object, args []object.Object) (object.Object, error) {
	if len(args) != 1 {
		return nil, &object.OpError{Kind: diag.ArityError, Message: "math.ceil expects 1 argument"}
	}
	switch v := args[0].(type) {
	case *object.Int:
		return object.NewInt(new(big.Int).Set(v.Value)), nil
	case *object.Rational:
		q := new(big.Int)
		q.Quo(v.Value.Num(), v.Value.Denom())
		if v.Value.Sign() > 0 && new(big.Int).Mul(q, v.Value.Denom()).Cmp(v.Value.Num()) != 0 {
			q.Add(q, big.NewInt(1))
		}
		return object.NewInt(q), nil
	}
	return nil, &object.OpError{Kind: diag.TypeError, Message: "math.ceil expects a number"}
}

func absFn(_ object.Object, args []object.Object) (object.Object, error) {
	if len(args) != 1 {
		return nil, &object.OpError{Kind: diag.ArityError, Message: "math.abs expects 1 argument"}
	}
	switch v := args[0].(type) {
	case *object.Int:
		return object.NewInt(new(big.Int).Abs(v.Value)), nil
	case *object.Rational:
		return object.NewRational(new(big.Rat).Abs(v.Value)), nil
	}
	return nil, &object.OpError{Kind: diag.TypeError, Message: "math.abs expects a number"}
}
