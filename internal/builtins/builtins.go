// Package builtins implements the intrinsic callables spec.md §6.2
// names: print, input, isinstance. Map() builds the builtins-map the VM
// is constructed with (spec.md §3.5).
package builtins

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ember-lang/ember/internal/diag"
	"github.com/ember-lang/ember/internal/object"
)

// Map builds the intrinsic NativeFunction table. out/in are the
// streams print/input use; callers pass os.Stdout/os.Stdin in
// production and buffers in tests.
func Map(out io.Writer, in io.Reader) map[string]object.Object {
	reader := bufio.NewReader(in)
	m := map[string]object.Object{}
	m["print"] = object.NewNativeFunction("print", printFn(out))
	m["input"] = object.NewNativeFunction("input", inputFn(out, reader))
	m["isinstance"] = object.NewNativeFunction("isinstance", isinstanceFn)
	return m
}

func printFn(out io.Writer) object.NativeCallable {
	return func(_ object.Object, args []object.Object) (object.Object, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.String()
		}
		fmt.Fprintln(out, strings.Join(parts, ""))
		return object.Nil, nil
	}
}

func inputFn(out io.Writer, reader *bufio.Reader) object.NativeCallable {
	return func(_ object.Object, args []object.Object) (object.Object, error) {
		if len(args) > 0 {
			fmt.Fprint(out, args[0].String())
		}
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return object.NewString(""), nil
		}
		return object.NewString(strings.TrimRight(line, "\r\n")), nil
	}
}

// isinstanceFn resolves the Open Question spec.md §9 leaves TBD: the
// second argument is a String naming the runtime type tag (see
// DESIGN.md's Open Questions table).
func isinstanceFn(_ object.Object, args []object.Object) (object.Object, error) {
	if len(args) != 2 {
		return nil, &object.OpError{Kind: diag.ArityError, Message: "isinstance expects 2 arguments"}
	}
	witness, ok := args[1].(*object.String)
	if !ok {
		return nil, &object.OpError{Kind: diag.TypeError, Message: "isinstance's second argument must be a String type name"}
	}
	return object.BoolFor(args[0].Kind().String() == witness.Value), nil
}
