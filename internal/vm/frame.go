package vm

import "github.com/ember-lang/ember/internal/object"

// Frame is one call-frame record (spec.md §3.4): the executing Code,
// its program counter, the pc to resume the caller at, and a
// name-to-value locals map (locals are resolved by name, not slot
// index, mirroring the teacher's evaluator-style environment rather
// than a fixed register file).
type Frame struct {
	Name     string
	Code     *object.Code
	PC       int
	ReturnPC int
	Locals   map[string]object.Object
}

func newFrame(name string, code *object.Code) *Frame {
	return &Frame{Name: name, Code: code, Locals: map[string]object.Object{}}
}

// release drops every local the frame owns (spec.md §3.4: "on
// destruction the frame releases every local").
func (f *Frame) release() {
	for _, v := range f.Locals {
		object.Release(v)
	}
}
