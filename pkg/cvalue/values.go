package cvalue

// Value is the tagged union of runtime values: IntegralValue, FloatingValue
// and PointerValue. Every value carries its own type. The interface is
// intentionally left open (no sealing method) so pkg/stepper can define
// its own pseudo-values for function and builtin bindings, which flow
// through the same DeclRef/Control.Values machinery as ordinary values
// but never reach pkg/cmemory or the arithmetic evaluators.
type Value interface {
	Type() Type
	ToBool() bool
}

// IntegralValue is a scalar integer value: char, int, long, and their
// unsigned variants.
type IntegralValue struct {
	Ty  Type
	Int int64
}

func (v IntegralValue) Type() Type   { return v.Ty }
func (v IntegralValue) ToBool() bool { return v.Int != 0 }

// FloatingValue is a scalar float or double value.
type FloatingValue struct {
	Ty    Type
	Float float64
}

func (v FloatingValue) Type() Type   { return v.Ty }
func (v FloatingValue) ToBool() bool { return v.Float != 0 }

// PointerValue is an address into a Memory, typed by what it points to.
// Address 0 is the null pointer.
type PointerValue struct {
	Ty      Type // always a *PointerType
	Address uint64
}

func (v PointerValue) Type() Type   { return v.Ty }
func (v PointerValue) ToBool() bool { return v.Address != 0 }

// NewIntegral, NewFloating and NewPointer are the constructors the stepper
// calls directly when it materializes literal or computed values.
func NewIntegral(t Type, v int64) IntegralValue { return IntegralValue{Ty: t, Int: v} }

func NewFloating(t Type, v float64) FloatingValue { return FloatingValue{Ty: t, Float: v} }

func NewPointer(t *PointerType, addr uint64) PointerValue { return PointerValue{Ty: t, Address: addr} }
