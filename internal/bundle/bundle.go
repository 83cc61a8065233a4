// Package bundle implements `ember bundle`/`ember exec`: serializing a
// compiled Code object to a portable binary so a host can ship and run
// a program without re-parsing source. Wire primitives only
// (google.golang.org/protobuf/encoding/protowire's AppendVarint/
// AppendBytes/Consume*) — no .proto schema or codegen, just the
// length-delimited encoding the library exposes standalone.
package bundle

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/ember-lang/ember/internal/object"
)

var magic = [4]byte{'E', 'M', 'B', 'B'}

// Bundle wraps a compiled module Code object with a build identity and
// the originating source path, for diagnostics in a host that runs
// several bundles side by side.
type Bundle struct {
	BuildID    uuid.UUID
	SourceFile string
	Code       *object.Code
}

// New stamps a fresh build id onto code.
func New(sourceFile string, code *object.Code) *Bundle {
	return &Bundle{BuildID: uuid.New(), SourceFile: sourceFile, Code: code}
}

// Serialize writes magic + build id + a length-prefixed source path +
// the encoded Code object.
func (b *Bundle) Serialize() ([]byte, error) {
	codeBytes, err := encodeCode(b.Code)
	if err != nil {
		return nil, fmt.Errorf("encode code: %w", err)
	}
	var out []byte
	out = append(out, magic[:]...)
	out = append(out, b.BuildID[:]...)
	out = protowire.AppendString(out, b.SourceFile)
	out = protowire.AppendBytes(out, codeBytes)
	return out, nil
}

// Deserialize is Serialize's inverse.
func Deserialize(data []byte) (*Bundle, error) {
	if len(data) < 4+16 || !bytes.Equal(data[:4], magic[:]) {
		return nil, errors.New("bundle: bad magic")
	}
	var id uuid.UUID
	copy(id[:], data[4:20])
	rest := data[20:]

	src, n := protowire.ConsumeString(rest)
	if n < 0 {
		return nil, fmt.Errorf("bundle: source path: %w", protowire.ParseError(n))
	}
	rest = rest[n:]

	codeBytes, n := protowire.ConsumeBytes(rest)
	if n < 0 {
		return nil, fmt.Errorf("bundle: code: %w", protowire.ParseError(n))
	}
	code, err := decodeCode(codeBytes)
	if err != nil {
		return nil, fmt.Errorf("bundle: decode code: %w", err)
	}
	return &Bundle{BuildID: id, SourceFile: src, Code: code}, nil
}

// ---- Code encoding ----

func encodeCode(c *object.Code) ([]byte, error) {
	var out []byte
	out = protowire.AppendString(out, c.Name)
	out = protowire.AppendVarint(out, uint64(c.ParamCount))
	out = protowire.AppendBytes(out, c.Instr)

	out = protowire.AppendVarint(out, uint64(len(c.Names)))
	for _, n := range c.Names {
		out = protowire.AppendString(out, n)
	}

	out = protowire.AppendVarint(out, uint64(len(c.LineTable)))
	for _, le := range c.LineTable {
		out = protowire.AppendVarint(out, uint64(le.PC))
		out = protowire.AppendVarint(out, uint64(le.Line))
	}

	out = protowire.AppendVarint(out, uint64(len(c.Constants)))
	for _, k := range c.Constants {
		kb, err := encodeConst(k)
		if err != nil {
			return nil, err
		}
		out = protowire.AppendBytes(out, kb)
	}
	return out, nil
}

func decodeCode(data []byte) (*object.Code, error) {
	rest := data

	name, n := protowire.ConsumeString(rest)
	if n < 0 {
		return nil, protowire.ParseError(n)
	}
	rest = rest[n:]

	paramCount, n := protowire.ConsumeVarint(rest)
	if n < 0 {
		return nil, protowire.ParseError(n)
	}
	rest = rest[n:]

	instr, n := protowire.ConsumeBytes(rest)
	if n < 0 {
		return nil, protowire.ParseError(n)
	}
	rest = rest[n:]
	instrCopy := append([]byte(nil), instr...)

	nameCount, n := protowire.ConsumeVarint(rest)
	if n < 0 {
		return nil, protowire.ParseError(n)
	}
	rest = rest[n:]
	names := make([]string, nameCount)
	for i := range names {
		s, n := protowire.ConsumeString(rest)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		rest = rest[n:]
		names[i] = s
	}

	lineCount, n := protowire.ConsumeVarint(rest)
	if n < 0 {
		return nil, protowire.ParseError(n)
	}
	rest = rest[n:]
	lineTable := make([]object.LineEntry, lineCount)
	for i := range lineTable {
		pc, n := protowire.ConsumeVarint(rest)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		rest = rest[n:]
		line, n := protowire.ConsumeVarint(rest)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		rest = rest[n:]
		lineTable[i] = object.LineEntry{PC: int(pc), Line: int(line)}
	}

	constCount, n := protowire.ConsumeVarint(rest)
	if n < 0 {
		return nil, protowire.ParseError(n)
	}
	rest = rest[n:]
	constants := make([]object.Object, constCount)
	for i := range constants {
		kb, n := protowire.ConsumeBytes(rest)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		rest = rest[n:]
		k, err := decodeConst(kb)
		if err != nil {
			return nil, err
		}
		constants[i] = object.Retain(k)
	}

	code := object.NewCode(name)
	code.ParamCount = int(paramCount)
	code.Instr = instrCopy
	code.Names = names
	code.LineTable = lineTable
	code.Constants = constants
	return code, nil
}

// ---- Constant encoding ----
//
// Each constant is tagged by its object.Kind so decodeConst can dispatch
// without a schema. Code/NativeFunction/Module constants never appear
// in a bundle's constant pool (Code is the recursive case reached only
// through Function; NativeFunction/Module are host bindings with no
// portable representation) and are rejected.

func encodeConst(o object.Object) ([]byte, error) {
	var out []byte
	out = protowire.AppendVarint(out, uint64(o.Kind()))
	switch v := o.(type) {
	case *object.NilObj:
	case *object.Bool:
		out = protowire.AppendVarint(out, boolVarint(v.Value))
	case *object.Int:
		out = appendBigInt(out, v.Value)
	case *object.Rational:
		out = appendBigInt(out, v.Value.Num())
		out = appendBigInt(out, v.Value.Denom())
	case *object.String:
		out = protowire.AppendString(out, v.Value)
	case *object.Function:
		out = protowire.AppendString(out, v.Name)
		out = protowire.AppendVarint(out, uint64(v.Arity))
		inner, err := encodeCode(v.Code)
		if err != nil {
			return nil, err
		}
		out = protowire.AppendBytes(out, inner)
	default:
		return nil, fmt.Errorf("bundle: constant of kind %s cannot be serialized", o.Kind())
	}
	return out, nil
}

func decodeConst(data []byte) (object.Object, error) {
	kindVal, n := protowire.ConsumeVarint(data)
	if n < 0 {
		return nil, protowire.ParseError(n)
	}
	rest := data[n:]
	switch object.Kind(kindVal) {
	case object.KNil:
		return object.Nil, nil
	case object.KBool:
		b, n := protowire.ConsumeVarint(rest)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		return object.BoolFor(b != 0), nil
	case object.KInt:
		z, _, err := consumeBigInt(rest)
		if err != nil {
			return nil, err
		}
		return object.NewInt(z), nil
	case object.KRational:
		num, n, err := consumeBigInt(rest)
		if err != nil {
			return nil, err
		}
		rest = rest[n:]
		den, _, err := consumeBigInt(rest)
		if err != nil {
			return nil, err
		}
		return object.NewRational(new(big.Rat).SetFrac(num, den)), nil
	case object.KString:
		s, n := protowire.ConsumeString(rest)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		return object.NewString(s), nil
	case object.KFunction:
		name, n := protowire.ConsumeString(rest)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		rest = rest[n:]
		arity, n := protowire.ConsumeVarint(rest)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		rest = rest[n:]
		codeBytes, n := protowire.ConsumeBytes(rest)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		code, err := decodeCode(codeBytes)
		if err != nil {
			return nil, err
		}
		return object.NewFunction(name, code, int(arity)), nil
	}
	return nil, fmt.Errorf("bundle: unknown constant kind %d", kindVal)
}

func boolVarint(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func appendBigInt(buf []byte, z *big.Int) []byte {
	buf = protowire.AppendVarint(buf, boolVarint(z.Sign() < 0))
	buf = protowire.AppendBytes(buf, new(big.Int).Abs(z).Bytes())
	return buf
}

// consumeBigInt returns the decoded value and the number of bytes
// consumed from buf.
func consumeBigInt(buf []byte) (*big.Int, int, error) {
	signBit, n1 := protowire.ConsumeVarint(buf)
	if n1 < 0 {
		return nil, 0, protowire.ParseError(n1)
	}
	rest := buf[n1:]
	mag, n2 := protowire.ConsumeBytes(rest)
	if n2 < 0 {
		return nil, 0, protowire.ParseError(n2)
	}
	z := new(big.Int).SetBytes(mag)
	if signBit != 0 {
		z.Neg(z)
	}
	return z, n1 + n2, nil
}
