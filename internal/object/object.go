// Package object implements Ember's heap object model: tagged values
// with reference-counted ownership, attribute maps, and type-level
// magic-method slots, per spec.md §3.1.
//
// Go's own garbage collector reclaims the underlying memory regardless;
// the reference counts tracked here exist to make spec.md §8's
// "refcount conservation" property observable and testable, and to give
// the VM/compiler the exact ownership discipline (retain-on-push,
// release-on-pop, release-old-before-store) the spec requires — not to
// avoid leaks, which Go's GC already guarantees.
package object

import (
	"math/big"
	"sort"
	"strings"
	"sync/atomic"
)

// Kind is the heap object's type tag. Immutable after construction.
type Kind int

const (
	KNil Kind = iota
	KBool
	KInt
	KRational
	KString
	KList
	KDict
	KCode
	KFunction
	KNativeFunction
	KModule
)

func (k Kind) String() string {
	switch k {
	case KNil:
		return "Nil"
	case KBool:
		return "Bool"
	case KInt:
		return "Int"
	case KRational:
		return "Rational"
	case KString:
		return "String"
	case KList:
		return "List"
	case KDict:
		return "Dict"
	case KCode:
		return "Code"
	case KFunction:
		return "Function"
	case KNativeFunction:
		return "NativeFunction"
	case KModule:
		return "Module"
	default:
		return "Unknown"
	}
}

// Object is any heap value. String renders the value the way `print`
// does; Inspect renders the value the way it appears nested inside a
// List/Dict (e.g. strings get quoted).
type Object interface {
	Kind() Kind
	String() string
	Inspect() string
}

// Counted is implemented by every concrete Object via an embedded
// RefCounted. Kept as a separate interface so Retain/Release can treat
// "not refcounted" (shouldn't happen, but keeps call sites defensive)
// distinctly from "refcount hit zero".
type Counted interface {
	Retain()
	release() int64
	RefCount() int64
}

// releasable is implemented by container-like objects that own
// references to other objects (List, Dict, Code, Function, Module).
// When their refcount reaches zero, Release walks these owned
// references and releases them too.
type releasable interface {
	releaseOwned()
}

// RefCounted is embedded by every concrete Object type.
type RefCounted struct {
	rc int64
}

func (r *RefCounted) Retain()            { atomic.AddInt64(&r.rc, 1) }
func (r *RefCounted) release() int64     { return atomic.AddInt64(&r.rc, -1) }
func (r *RefCounted) RefCount() int64    { return atomic.LoadInt64(&r.rc) }

// Retain increments o's refcount (an object starts at refcount 0 when
// constructed; the first owner must Retain it). Returns o for chaining.
func Retain(o Object) Object {
	if o == nil {
		return nil
	}
	if c, ok := o.(Counted); ok {
		c.Retain()
	}
	return o
}

// Release decrements o's refcount; at zero it releases every reference
// o owns (list elements, dict values, module attributes, code
// constants, function->code). Releasing an object whose count is
// already zero is a no-op.
func Release(o Object) {
	if o == nil {
		return
	}
	c, ok := o.(Counted)
	if !ok || c.RefCount() <= 0 {
		return
	}
	if c.release() == 0 {
		if r, ok := o.(releasable); ok {
			r.releaseOwned()
		}
	}
}

// ---- Nil ----

type NilObj struct{ RefCounted }

func (*NilObj) Kind() Kind       { return KNil }
func (*NilObj) String() string  { return "Nil" }
func (*NilObj) Inspect() string { return "Nil" }

// Nil is a shared, never-freed singleton (retain/release still track
// its count per spec.md §3.1, but there is exactly one instance).
var Nil = &NilObj{}

// ---- Bool ----

type Bool struct {
	RefCounted
	Value bool
}

func NewBool(v bool) *Bool { return &Bool{Value: v} }

func (b *Bool) Kind() Kind { return KBool }
func (b *Bool) String() string {
	if b.Value {
		return "True"
	}
	return "False"
}
func (b *Bool) Inspect() string { return b.String() }

// True and False are shared singletons; booleans are never mutated.
var (
	True  = NewBool(true)
	False = NewBool(false)
)

func BoolFor(v bool) *Bool {
	if v {
		return True
	}
	return False
}

// ---- Int ----

type Int struct {
	RefCounted
	Value *big.Int
}

func NewInt(v *big.Int) *Int { return &Int{Value: v} }

func NewIntFromInt64(v int64) *Int { return &Int{Value: big.NewInt(v)} }

func (i *Int) Kind() Kind       { return KInt }
func (i *Int) String() string  { return i.Value.String() }
func (i *Int) Inspect() string { return i.String() }

// ---- Rational ----

// Rational wraps math/big.Rat, which already maintains spec.md §3.1's
// invariants (always reduced, denominator strictly positive) natively.
type Rational struct {
	RefCounted
	Value *big.Rat
}

func NewRational(v *big.Rat) *Rational { return &Rational{Value: v} }

func (r *Rational) Kind() Kind { return KRational }
func (r *Rational) String() string {
	if r.Value.IsInt() {
		return r.Value.Num().String()
	}
	return r.Value.Num().String() + "/" + r.Value.Denom().String()
}
func (r *Rational) Inspect() string { return r.String() }

// ---- String ----

type String struct {
	RefCounted
	Value string
}

func NewString(s string) *String { return &String{Value: s} }

func (s *String) Kind() Kind       { return KString }
func (s *String) String() string  { return s.Value }
func (s *String) Inspect() string { return "\"" + EscapeForDisplay(s.Value) + "\"" }

// ---- List ----

type List struct {
	RefCounted
	Elements []Object
}

func NewList(elems []Object) *List { return &List{Elements: elems} }

func (l *List) Kind() Kind { return KList }
func (l *List) String() string {
	parts := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		parts[i] = e.Inspect()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (l *List) Inspect() string { return l.String() }
func (l *List) releaseOwned() {
	for _, e := range l.Elements {
		Release(e)
	}
}

// ---- Dict ----

type Dict struct {
	RefCounted
	Entries map[string]Object
}

func NewDict() *Dict { return &Dict{Entries: map[string]Object{}} }

func (d *Dict) Kind() Kind { return KDict }
func (d *Dict) String() string {
	keys := make([]string, 0, len(d.Entries))
	for k := range d.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " = " + d.Entries[k].Inspect()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
func (d *Dict) Inspect() string { return d.String() }
func (d *Dict) releaseOwned() {
	for _, v := range d.Entries {
		Release(v)
	}
}

// Set stores val under key, releasing whatever was previously bound
// (spec.md §4.5.2: "attribute and local stores release the old binding's
// reference before installing the new").
func (d *Dict) Set(key string, val Object) {
	if old, ok := d.Entries[key]; ok {
		Release(old)
	}
	d.Entries[key] = Retain(val)
}
