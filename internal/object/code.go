package object

import "strings"

// LineEntry is one row of a Code object's line-map: the instruction
// index at which source line Line begins. Per spec.md §3.3/§8, a Code
// object's LineTable is strictly increasing in PC (a run-length
// encoding — one entry per line change, not per instruction).
type LineEntry struct {
	PC   int
	Line int
}

// Code is the immutable bytecode container spec.md §3.3 describes:
// a flat instruction stream, a constant pool, a name table, and a
// line-map. Following the teacher's Chunk (funvibe-funxy/internal/vm/chunk.go),
// instructions are a flat []byte rather than a slice of Instruction
// structs, with operand indices encoded as fixed-width big-endian
// integers immediately after the opcode byte.
type Code struct {
	RefCounted
	Name      string
	Instr     []byte
	Constants []Object
	Names     []string
	LineTable []LineEntry
	ParamCount int // number of leading Names entries that are parameters
}

func NewCode(name string) *Code {
	return &Code{Name: name}
}

func (c *Code) Kind() Kind       { return KCode }
func (c *Code) String() string   { return "<code " + c.Name + ">" }
func (c *Code) Inspect() string  { return c.String() }
func (c *Code) releaseOwned() {
	for _, k := range c.Constants {
		Release(k)
	}
}

// LineFor returns the source line active at instruction index pc, by
// scanning the run-length line table.
func (c *Code) LineFor(pc int) int {
	line := 0
	for _, e := range c.LineTable {
		if e.PC > pc {
			break
		}
		line = e.Line
	}
	return line
}

// ---- Function ----

type Function struct {
	RefCounted
	Name  string
	Code  *Code
	Arity int
}

func NewFunction(name string, code *Code, arity int) *Function {
	return &Function{Name: name, Code: Retain(code).(*Code), Arity: arity}
}

func (f *Function) Kind() Kind      { return KFunction }
func (f *Function) String() string  { return "<function " + f.Name + ">" }
func (f *Function) Inspect() string { return f.String() }
func (f *Function) releaseOwned()   { Release(f.Code) }

// ---- NativeFunction ----

// NativeCallable is a host-implemented callable: (receiver, args) -> result.
// Per the CALL argument-marshaling redesign note in spec.md §9, args
// never includes the receiver — self is always passed explicitly.
type NativeCallable func(self Object, args []Object) (Object, error)

type NativeFunction struct {
	RefCounted
	Name string
	Fn   NativeCallable
}

func NewNativeFunction(name string, fn NativeCallable) *NativeFunction {
	return &NativeFunction{Name: name, Fn: fn}
}

func (n *NativeFunction) Kind() Kind      { return KNativeFunction }
func (n *NativeFunction) String() string  { return "<native " + n.Name + ">" }
func (n *NativeFunction) Inspect() string { return n.String() }

// ---- Module ----

// Module is the only variant with a real, mutable attribute map (its
// exported bindings) — see spec.md §3.1. GET_ATTR/SET_ATTR against any
// other variant is a TypeError ("value has no attributes"); against a
// Module with a missing key it is an AttrError.
type Module struct {
	RefCounted
	Name  string
	Code  *Code // nil for native modules (see internal/modules)
	Attrs map[string]Object
}

func NewModule(name string) *Module {
	return &Module{Name: name, Attrs: map[string]Object{}}
}

func (m *Module) Kind() Kind      { return KModule }
func (m *Module) String() string  { return "<module " + m.Name + ">" }
func (m *Module) Inspect() string { return m.String() }
func (m *Module) releaseOwned() {
	Release(m.Code)
	for _, v := range m.Attrs {
		Release(v)
	}
}

func (m *Module) GetAttr(name string) (Object, bool) {
	v, ok := m.Attrs[name]
	return v, ok
}

func (m *Module) SetAttr(name string, val Object) {
	if old, ok := m.Attrs[name]; ok {
		Release(old)
	}
	m.Attrs[name] = Retain(val)
}

// Attributable is implemented by the one variant with a real attribute
// map (Module). GET_ATTR/SET_ATTR type-assert against this.
type Attributable interface {
	GetAttr(name string) (Object, bool)
	SetAttr(name string, val Object)
}

// Truthy implements spec.md §4.1's truthiness rule: Nil and Bool(false)
// are falsy; everything else is truthy unless the type's `bool` magic
// method is set and returns Bool(false). A `bool` slot that errors or
// returns a non-Bool leaves the value truthy.
func Truthy(o Object) bool {
	switch v := o.(type) {
	case *NilObj:
		return false
	case *Bool:
		return v.Value
	default:
		if t := TableFor(o.Kind()); t != nil && t.Bool != nil {
			if res, err := t.Bool(o, nil); err == nil {
				if b, ok := res.(*Bool); ok {
					return b.Value
				}
			}
		}
		return true
	}
}

// EscapeForDisplay escapes newline, tab, carriage return and double
// quote for String.Inspect. The lexer keeps its own escape table.
func EscapeForDisplay(s string) string {
	r := strings.NewReplacer("\n", "\\n", "\t", "\\t", "\r", "\\r", "\"", "\\\"")
	return r.Replace(s)
}
