package object

import (
	"math/big"
	"testing"
)

// TestRefcountConservation exercises spec.md §8's "refcount conservation"
// property for a container: retaining a List retains nothing extra on
// its own, but releasing it to zero must release every element it owns
// exactly once (a List built from freshly-retained elements should drop
// each element's count back to zero once the List itself is released).
func TestRefcountConservation(t *testing.T) {
	a := Retain(NewIntFromInt64(1)).(*Int)
	b := Retain(NewIntFromInt64(2)).(*Int)

	list := NewList([]Object{a, b})
	Retain(list)

	if a.RefCount() != 1 || b.RefCount() != 1 {
		t.Fatalf("expected elements at refcount 1 before list release, got a=%d b=%d", a.RefCount(), b.RefCount())
	}

	Release(list)

	if a.RefCount() != 0 || b.RefCount() != 0 {
		t.Fatalf("expected elements at refcount 0 after owning list released, got a=%d b=%d", a.RefCount(), b.RefCount())
	}
}

// TestReleaseWithoutOwnerIsNoop guards the "no double-free" half of the
// refcount-conservation property: releasing an object already at zero
// must not underflow or panic, since the VM's TruncateStack and normal
// pop/release paths can both reach the same value on an error path.
func TestReleaseWithoutOwnerIsNoop(t *testing.T) {
	i := NewIntFromInt64(42)
	if i.RefCount() != 0 {
		t.Fatalf("fresh object should start at refcount 0, got %d", i.RefCount())
	}
	Retain(i)
	Release(i)
	if i.RefCount() != 0 {
		t.Fatalf("expected refcount 0 after matched retain/release, got %d", i.RefCount())
	}
	Release(i)
	if i.RefCount() != 0 {
		t.Fatalf("expected releasing an object at refcount 0 to leave it at 0, got %d", i.RefCount())
	}
}

// TestIntCanonicalDecimalRoundTrip covers spec.md §8's "Round-trip:
// number literal" property: an Int's String() form is its canonical
// decimal representation, independent of how the big.Int was built.
func TestIntCanonicalDecimalRoundTrip(t *testing.T) {
	cases := []string{"0", "42", "-7", "123456789012345678901234567890"}
	for _, c := range cases {
		n := new(big.Int)
		if _, ok := n.SetString(c, 10); !ok {
			t.Fatalf("bad test fixture %q", c)
		}
		got := NewInt(n).String()
		if got != c {
			t.Errorf("NewInt(%q).String() = %q, want %q", c, got, c)
		}
	}
}

func TestRationalRendersReducedFraction(t *testing.T) {
	r := new(big.Rat).SetFrac(big.NewInt(2), big.NewInt(6))
	got := NewRational(r).String()
	if got != "1/3" {
		t.Fatalf("got %q, want %q", got, "1/3")
	}
}

func TestRationalRendersWholeAsInteger(t *testing.T) {
	r := new(big.Rat).SetFrac(big.NewInt(6), big.NewInt(3))
	got := NewRational(r).String()
	if got != "2" {
		t.Fatalf("got %q, want %q", got, "2")
	}
}
