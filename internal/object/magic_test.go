package object

import (
	"math/big"
	"math/rand"
	"testing"
)

// TestDeterministicArithmeticIdentity covers spec.md §8's "Deterministic
// arithmetic" property at the integer level: for all Int a, b with
// b != 0, the floor quotient q = (a - a%b) / b satisfies q*b + a%b == a
// exactly, regardless of a and b's signs. (a/b) itself promotes to an
// exact Rational per spec.md §4.1, so the identity is checked against
// the integer quotient implied by Mod, not against Div's exact result.
func TestDeterministicArithmeticIdentity(t *testing.T) {
	intTable := TableFor(KInt)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 200; i++ {
		a := NewIntFromInt64(rng.Int63n(2_000_000) - 1_000_000)
		bv := rng.Int63n(2_000_000) - 1_000_000
		if bv == 0 {
			bv = 1
		}
		b := NewIntFromInt64(bv)

		remObj, err := intTable.Mod(a, []Object{b})
		if err != nil {
			t.Fatalf("a=%v b=%v: mod error: %v", a.Value, b.Value, err)
		}
		rem := remObj.(*Int).Value

		quot := new(big.Int).Sub(a.Value, rem)
		quot.Quo(quot, b.Value)

		lhs := new(big.Int).Mul(quot, b.Value)
		lhs.Add(lhs, rem)

		if lhs.Cmp(a.Value) != 0 {
			t.Fatalf("identity failed for a=%v b=%v: q*b+a%%b = %v", a.Value, b.Value, lhs)
		}
	}
}

// TestModDivisorSignConvention covers int_obj.cpp's sign rule: the
// remainder's sign follows the divisor's, not the dividend's (the
// opposite of Go's native truncating big.Int.Rem).
func TestModDivisorSignConvention(t *testing.T) {
	intTable := TableFor(KInt)

	cases := []struct{ a, b, want int64 }{
		{-7, 3, 2},
		{7, -3, -2},
		{-7, -3, -1},
		{7, 3, 1},
	}
	for _, c := range cases {
		got, err := intTable.Mod(NewIntFromInt64(c.a), []Object{NewIntFromInt64(c.b)})
		if err != nil {
			t.Fatalf("mod(%d, %d): unexpected error: %v", c.a, c.b, err)
		}
		gotInt, ok := got.(*Int)
		if !ok || gotInt.Value.Int64() != c.want {
			t.Fatalf("mod(%d, %d) = %v, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestIntDivisionByZeroIsArithError(t *testing.T) {
	intTable := TableFor(KInt)
	_, err := intTable.Div(NewIntFromInt64(1), []Object{NewIntFromInt64(0)})
	if err == nil {
		t.Fatal("expected an error")
	}
	opErr, ok := err.(*OpError)
	if !ok {
		t.Fatalf("expected *OpError, got %T", err)
	}
	if opErr.Kind.String() != "ArithError" {
		t.Fatalf("expected ArithError, got %v", opErr.Kind)
	}
}

func TestListAddConcatenatesAndRetains(t *testing.T) {
	listTable := TableFor(KList)
	a := Retain(NewIntFromInt64(1))
	b := Retain(NewIntFromInt64(2))
	xs := NewList([]Object{a})
	ys := NewList([]Object{b})

	result, err := listTable.Add(xs, []Object{ys})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list, ok := result.(*List)
	if !ok || len(list.Elements) != 2 {
		t.Fatalf("expected a 2-element list, got %#v", result)
	}
}

func TestListInUsesElementEquality(t *testing.T) {
	listTable := TableFor(KList)
	xs := NewList([]Object{NewIntFromInt64(1), NewIntFromInt64(2), NewIntFromInt64(3)})

	found, err := listTable.In(xs, []Object{NewIntFromInt64(2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b, ok := found.(*Bool); !ok || !b.Value {
		t.Fatalf("expected True, got %#v", found)
	}

	notFound, err := listTable.In(xs, []Object{NewIntFromInt64(9)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b, ok := notFound.(*Bool); !ok || b.Value {
		t.Fatalf("expected False, got %#v", notFound)
	}
}
