// Package cvalue implements the value and type algebra the stepper treats
// as an external collaborator: integral/floating/pointer values, their
// scalar/pointer/array/function types, and the primitive evaluators
// (EvalUnaryOperation, EvalBinaryOperation, EvalCast, EvalPointerAdd) the
// stepper calls but never reimplements.
package cvalue

import "fmt"

// Type is the tagged union of scalar, pointer, array and function types.
// Every Type knows its own storage size in bytes; Size is 0 for void and
// for FunctionType, neither of which is itself stored in memory.
type Type interface {
	String() string
	Size() int
	isType()
}

// ScalarType names a primitive C type: int, char, float, double, and their
// signed/unsigned, short/long variants.
type ScalarType struct {
	Name     string
	ByteSize int
	Float    bool
	Unsigned bool
}

func (t *ScalarType) String() string { return t.Name }
func (t *ScalarType) Size() int      { return t.ByteSize }
func (t *ScalarType) isType()        {}

// PointerType wraps the type a pointer refers to.
type PointerType struct {
	Pointee Type
}

func (t *PointerType) String() string { return t.Pointee.String() + "*" }
func (t *PointerType) Size() int      { return 8 }
func (t *PointerType) isType()        {}

// ConstantArrayType is a fixed-length array of a known element type.
type ConstantArrayType struct {
	Elem  Type
	Count int
}

func (t *ConstantArrayType) String() string { return fmt.Sprintf("%s[%d]", t.Elem, t.Count) }
func (t *ConstantArrayType) Size() int      { return t.Elem.Size() * t.Count }
func (t *ConstantArrayType) isType()        {}

// FunctionType names a function's result and parameter types. It is not a
// storable scalar; Size reports 0 and is never used to allocate memory.
type FunctionType struct {
	Result Type
	Params []Type
}

func (t *FunctionType) String() string { return "func(...)" + t.Result.String() }
func (t *FunctionType) Size() int      { return 0 }
func (t *FunctionType) isType()        {}

// NewPointerType, NewConstantArrayType and NewFunctionType are the
// constructors the stepper's type steppers call directly.
func NewPointerType(pointee Type) *PointerType { return &PointerType{Pointee: pointee} }

func NewConstantArrayType(elem Type, count int) *ConstantArrayType {
	return &ConstantArrayType{Elem: elem, Count: count}
}

func NewFunctionType(result Type, params []Type) *FunctionType {
	return &FunctionType{Result: result, Params: params}
}

// ScalarTypes is the process-wide dictionary BuiltinType steppers and
// literal steppers look names up in.
var ScalarTypes = map[string]*ScalarType{
	"void":                   {Name: "void", ByteSize: 0},
	"char":                   {Name: "char", ByteSize: 1},
	"unsigned char":          {Name: "unsigned char", ByteSize: 1, Unsigned: true},
	"short":                  {Name: "short", ByteSize: 2},
	"unsigned short":         {Name: "unsigned short", ByteSize: 2, Unsigned: true},
	"int":                    {Name: "int", ByteSize: 4},
	"unsigned int":           {Name: "unsigned int", ByteSize: 4, Unsigned: true},
	"long":                   {Name: "long", ByteSize: 8},
	"unsigned long":          {Name: "unsigned long", ByteSize: 8, Unsigned: true},
	"long long":              {Name: "long long", ByteSize: 8},
	"unsigned long long":     {Name: "unsigned long long", ByteSize: 8, Unsigned: true},
	"float":                  {Name: "float", ByteSize: 4, Float: true},
	"double":                 {Name: "double", ByteSize: 8, Float: true},
}

// IsPointer, IsArray and IsScalar are small type-assertion helpers; the
// stepper uses IsArray for array decay.
func IsPointer(t Type) (*PointerType, bool) {
	p, ok := t.(*PointerType)
	return p, ok
}

func IsArray(t Type) (*ConstantArrayType, bool) {
	a, ok := t.(*ConstantArrayType)
	return a, ok
}

func IsScalar(t Type) (*ScalarType, bool) {
	s, ok := t.(*ScalarType)
	return s, ok
}
