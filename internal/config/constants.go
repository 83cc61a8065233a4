package config

// SourceFileExt is Ember's canonical source file extension (spec.md
// §6.4's source format is plain UTF-8 text; the extension itself is an
// ambient tooling convention, following the teacher's constants.go).
const SourceFileExt = ".ember"

// BundleFileExt is the extension `ember bundle` writes and `ember exec`
// expects.
const BundleFileExt = ".emberb"

// Built-in function names (spec.md §6.2).
const (
	PrintFuncName      = "print"
	InputFuncName      = "input"
	IsInstanceFuncName = "isinstance"
)

// Version is the interpreter's reported version string (`ember version`).
const Version = "0.1.0"
