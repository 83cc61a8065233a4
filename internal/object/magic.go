package object

import (
	"math/big"

	"github.com/ember-lang/ember/internal/diag"
)

// MagicFn is a type-level operator handler. Per the CALL argument
// marshaling redesign spec.md §9 recommends, args never repeats the
// receiver — self is passed explicitly and args holds only the other
// operand(s) (one element for every binary operator here, zero for the
// `bool` truthiness override).
type MagicFn func(self Object, args []Object) (Object, error)

// MagicTable holds one type's operator handlers, shared across every
// instance of that type (spec.md §4.1: "type-level magic-method slots,
// not per-instance"). A nil field means the operation is unsupported.
type MagicTable struct {
	Add, Sub, Mul, Div, Mod, Pow MagicFn
	Eq, Lt, Gt                   MagicFn
	In                           MagicFn
	Bool                         MagicFn // truthiness override
}

var tables = map[Kind]*MagicTable{}

// TableFor returns the shared magic-method table for k, or nil if the
// type has none registered.
func TableFor(k Kind) *MagicTable { return tables[k] }

// NewTypeTable returns the process-wide magic-method table. It is
// populated exactly once, by this package's init(), not lazily on first
// use — original_source/libs/builtins/registering_magic_methods.cpp
// confirms the upstream interpreter does the same at startup.
func NewTypeTable() map[Kind]*MagicTable { return tables }

// OpError is the error shape every magic method returns. The VM attaches
// source position when it surfaces the error as a diag.Error.
type OpError struct {
	Kind    diag.Kind
	Message string
}

func (e *OpError) Error() string { return e.Message }

func unsupported(op string, a, b Kind) error {
	return &OpError{Kind: diag.TypeError, Message: "unsupported operand types for " + op + ": " + a.String() + " and " + b.String()}
}

func init() {
	registerInt()
	registerRational()
	registerString()
	registerList()
	registerDict()
	registerBoolNil()
}

// asRat converts an Int or Rational to a *big.Rat, promoting Int per
// spec.md §4.1's mixed-numeric rule.
func asRat(o Object) (*big.Rat, bool) {
	switch v := o.(type) {
	case *Int:
		return new(big.Rat).SetInt(v.Value), true
	case *Rational:
		return v.Value, true
	}
	return nil, false
}

func registerInt() {
	t := &MagicTable{}

	t.Add = func(self Object, args []Object) (Object, error) {
		a := self.(*Int)
		switch b := args[0].(type) {
		case *Int:
			return NewInt(new(big.Int).Add(a.Value, b.Value)), nil
		case *Rational:
			ar := new(big.Rat).SetInt(a.Value)
			return NewRational(new(big.Rat).Add(ar, b.Value)), nil
		}
		return nil, unsupported("+", KInt, args[0].Kind())
	}
	t.Sub = func(self Object, args []Object) (Object, error) {
		a := self.(*Int)
		switch b := args[0].(type) {
		case *Int:
			return NewInt(new(big.Int).Sub(a.Value, b.Value)), nil
		case *Rational:
			ar := new(big.Rat).SetInt(a.Value)
			return NewRational(new(big.Rat).Sub(ar, b.Value)), nil
		}
		return nil, unsupported("-", KInt, args[0].Kind())
	}
	t.Mul = func(self Object, args []Object) (Object, error) {
		a := self.(*Int)
		switch b := args[0].(type) {
		case *Int:
			return NewInt(new(big.Int).Mul(a.Value, b.Value)), nil
		case *Rational:
			ar := new(big.Rat).SetInt(a.Value)
			return NewRational(new(big.Rat).Mul(ar, b.Value)), nil
		}
		return nil, unsupported("*", KInt, args[0].Kind())
	}
	t.Div = func(self Object, args []Object) (Object, error) {
		// Int / Int -> Rational, always (spec.md §4.1 and the
		// deterministic-arithmetic testable property in §8).
		a := self.(*Int)
		br, ok := asRat(args[0])
		if !ok {
			return nil, unsupported("/", KInt, args[0].Kind())
		}
		if br.Sign() == 0 {
			return nil, &OpError{Kind: diag.ArithError, Message: "division by zero"}
		}
		ar := new(big.Rat).SetInt(a.Value)
		return NewRational(new(big.Rat).Quo(ar, br)), nil
	}
	t.Mod = func(self Object, args []Object) (Object, error) {
		a := self.(*Int)
		b, ok := args[0].(*Int)
		if !ok {
			return nil, unsupported("%", KInt, args[0].Kind())
		}
		if b.Value.Sign() == 0 {
			return nil, &OpError{Kind: diag.ArithError, Message: "modulo by zero"}
		}
		// big.Int.Rem truncates toward zero (remainder carries the
		// dividend's sign); the divisor-sign convention (int_obj.cpp's
		// mod) requires the remainder to carry b's sign instead, so a
		// nonzero result disagreeing with b's sign is corrected by
		// adding b back.
		rem := new(big.Int).Rem(a.Value, b.Value)
		if rem.Sign() != 0 && (rem.Sign() < 0) != (b.Value.Sign() < 0) {
			rem.Add(rem, b.Value)
		}
		return NewInt(rem), nil
	}
	t.Pow = func(self Object, args []Object) (Object, error) {
		a := self.(*Int)
		b, ok := args[0].(*Int)
		if !ok {
			return nil, unsupported("^", KInt, args[0].Kind())
		}
		if !b.Value.IsInt64() {
			return nil, &OpError{Kind: diag.ArithError, Message: "exponent too large"}
		}
		exp := b.Value.Int64()
		if exp < 0 {
			// Promotes to Rational: a^-n = Rational(1, a^n). Decision
			// recorded in DESIGN.md's Open Questions table.
			if a.Value.Sign() == 0 {
				return nil, &OpError{Kind: diag.ArithError, Message: "zero to a negative power"}
			}
			pos := new(big.Int).Exp(a.Value, new(big.Int).Neg(b.Value), nil)
			return NewRational(new(big.Rat).SetFrac(big.NewInt(1), pos)), nil
		}
		return NewInt(new(big.Int).Exp(a.Value, b.Value, nil)), nil
	}
	t.Eq = func(self Object, args []Object) (Object, error) {
		a := self.(*Int)
		switch b := args[0].(type) {
		case *Int:
			return BoolFor(a.Value.Cmp(b.Value) == 0), nil
		case *Rational:
			return BoolFor(new(big.Rat).SetInt(a.Value).Cmp(b.Value) == 0), nil
		}
		return False, nil
	}
	t.Lt = func(self Object, args []Object) (Object, error) {
		a := self.(*Int)
		br, ok := asRat(args[0])
		if !ok {
			return nil, unsupported("<", KInt, args[0].Kind())
		}
		return BoolFor(new(big.Rat).SetInt(a.Value).Cmp(br) < 0), nil
	}
	t.Gt = func(self Object, args []Object) (Object, error) {
		a := self.(*Int)
		br, ok := asRat(args[0])
		if !ok {
			return nil, unsupported(">", KInt, args[0].Kind())
		}
		return BoolFor(new(big.Rat).SetInt(a.Value).Cmp(br) > 0), nil
	}
	tables[KInt] = t
}

func registerRational() {
	t := &MagicTable{}
	t.Add = func(self Object, args []Object) (Object, error) {
		a := self.(*Rational)
		b, ok := asRat(args[0])
		if !ok {
			return nil, unsupported("+", KRational, args[0].Kind())
		}
		return NewRational(new(big.Rat).Add(a.Value, b)), nil
	}
	t.Sub = func(self Object, args []Object) (Object, error) {
		a := self.(*Rational)
		b, ok := asRat(args[0])
		if !ok {
			return nil, unsupported("-", KRational, args[0].Kind())
		}
		return NewRational(new(big.Rat).Sub(a.Value, b)), nil
	}
	t.Mul = func(self Object, args []Object) (Object, error) {
		a := self.(*Rational)
		b, ok := asRat(args[0])
		if !ok {
			return nil, unsupported("*", KRational, args[0].Kind())
		}
		return NewRational(new(big.Rat).Mul(a.Value, b)), nil
	}
	t.Div = func(self Object, args []Object) (Object, error) {
		a := self.(*Rational)
		b, ok := asRat(args[0])
		if !ok {
			return nil, unsupported("/", KRational, args[0].Kind())
		}
		if b.Sign() == 0 {
			return nil, &OpError{Kind: diag.ArithError, Message: "division by zero"}
		}
		return NewRational(new(big.Rat).Quo(a.Value, b)), nil
	}
	t.Eq = func(self Object, args []Object) (Object, error) {
		a := self.(*Rational)
		b, ok := asRat(args[0])
		if !ok {
			return False, nil
		}
		return BoolFor(a.Value.Cmp(b) == 0), nil
	}
	t.Lt = func(self Object, args []Object) (Object, error) {
		a := self.(*Rational)
		b, ok := asRat(args[0])
		if !ok {
			return nil, unsupported("<", KRational, args[0].Kind())
		}
		return BoolFor(a.Value.Cmp(b) < 0), nil
	}
	t.Gt = func(self Object, args []Object) (Object, error) {
		a := self.(*Rational)
		b, ok := asRat(args[0])
		if !ok {
			return nil, unsupported(">", KRational, args[0].Kind())
		}
		return BoolFor(a.Value.Cmp(b) > 0), nil
	}
	tables[KRational] = t
}

func registerString() {
	t := &MagicTable{}
	t.Add = func(self Object, args []Object) (Object, error) {
		a := self.(*String)
		b, ok := args[0].(*String)
		if !ok {
			return nil, unsupported("+", KString, args[0].Kind())
		}
		return NewString(a.Value + b.Value), nil
	}
	t.Mul = func(self Object, args []Object) (Object, error) {
		a := self.(*String)
		b, ok := args[0].(*Int)
		if !ok {
			return nil, unsupported("*", KString, args[0].Kind())
		}
		if b.Value.Sign() < 0 {
			return nil, &OpError{Kind: diag.ArithError, Message: "repeat count must be non-negative"}
		}
		n := b.Value.Int64()
		out := make([]byte, 0, len(a.Value)*int(n))
		for i := int64(0); i < n; i++ {
			out = append(out, a.Value...)
		}
		return NewString(string(out)), nil
	}
	t.In = func(self Object, args []Object) (Object, error) {
		// Stack convention for OP_IN is [a, b]; b is self (the
		// container), a is args[0] (the needle).
		b := self.(*String)
		a, ok := args[0].(*String)
		if !ok {
			return nil, unsupported("in", KString, args[0].Kind())
		}
		return BoolFor(len(a.Value) == 0 || indexOf(b.Value, a.Value) >= 0), nil
	}
	t.Eq = func(self Object, args []Object) (Object, error) {
		a := self.(*String)
		b, ok := args[0].(*String)
		if !ok {
			return False, nil
		}
		return BoolFor(a.Value == b.Value), nil
	}
	tables[KString] = t
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

func registerList() {
	t := &MagicTable{}
	t.Add = func(self Object, args []Object) (Object, error) {
		a := self.(*List)
		b, ok := args[0].(*List)
		if !ok {
			return nil, unsupported("+", KList, args[0].Kind())
		}
		out := make([]Object, 0, len(a.Elements)+len(b.Elements))
		for _, e := range a.Elements {
			out = append(out, Retain(e))
		}
		for _, e := range b.Elements {
			out = append(out, Retain(e))
		}
		return NewList(out), nil
	}
	t.Mul = func(self Object, args []Object) (Object, error) {
		a := self.(*List)
		b, ok := args[0].(*Int)
		if !ok {
			return nil, unsupported("*", KList, args[0].Kind())
		}
		if b.Value.Sign() < 0 {
			return nil, &OpError{Kind: diag.ArithError, Message: "repeat count must be non-negative"}
		}
		n := b.Value.Int64()
		out := make([]Object, 0, len(a.Elements)*int(n))
		for i := int64(0); i < n; i++ {
			for _, e := range a.Elements {
				out = append(out, Retain(e))
			}
		}
		return NewList(out), nil
	}
	t.In = func(self Object, args []Object) (Object, error) {
		b := self.(*List)
		needle := args[0]
		for _, e := range b.Elements {
			eq, err := Equals(needle, e)
			if err != nil {
				return nil, err
			}
			if eq {
				return True, nil
			}
		}
		return False, nil
	}
	t.Eq = func(self Object, args []Object) (Object, error) {
		a := self.(*List)
		b, ok := args[0].(*List)
		if !ok || len(a.Elements) != len(b.Elements) {
			return False, nil
		}
		for i := range a.Elements {
			eq, err := Equals(a.Elements[i], b.Elements[i])
			if err != nil {
				return nil, err
			}
			if !eq {
				return False, nil
			}
		}
		return True, nil
	}
	tables[KList] = t
}

func registerDict() {
	t := &MagicTable{}
	t.Add = func(self Object, args []Object) (Object, error) {
		a := self.(*Dict)
		b, ok := args[0].(*Dict)
		if !ok {
			return nil, unsupported("+", KDict, args[0].Kind())
		}
		out := NewDict()
		for k, v := range a.Entries {
			out.Set(k, v)
		}
		for k, v := range b.Entries {
			out.Set(k, v) // right wins, per spec.md §4.1
		}
		return out, nil
	}
	t.In = func(self Object, args []Object) (Object, error) {
		b := self.(*Dict)
		key, ok := args[0].(*String)
		if !ok {
			return nil, unsupported("in", KDict, args[0].Kind())
		}
		_, present := b.Entries[key.Value]
		return BoolFor(present), nil
	}
	tables[KDict] = t
}

func registerBoolNil() {
	bt := &MagicTable{}
	bt.Eq = func(self Object, args []Object) (Object, error) {
		a := self.(*Bool)
		b, ok := args[0].(*Bool)
		if !ok {
			return False, nil
		}
		return BoolFor(a.Value == b.Value), nil
	}
	tables[KBool] = bt

	nt := &MagicTable{}
	nt.Eq = func(self Object, args []Object) (Object, error) {
		_, ok := args[0].(*NilObj)
		return BoolFor(ok), nil
	}
	tables[KNil] = nt
}

// Equals implements the `==` protocol: dispatch through the left
// operand's `eq` slot, per spec.md §4.1's magic-method lookup protocol.
func Equals(a, b Object) (bool, error) {
	table := TableFor(a.Kind())
	if table == nil || table.Eq == nil {
		return false, unsupported("==", a.Kind(), b.Kind())
	}
	res, err := table.Eq(a, []Object{b})
	if err != nil {
		return false, err
	}
	return Truthy(res), nil
}
