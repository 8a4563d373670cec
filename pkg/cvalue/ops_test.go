package cvalue

import (
	"errors"
	"testing"
)

func TestEvalBinaryOperationArithmetic(t *testing.T) {
	intT := ScalarTypes["int"]
	cases := []struct {
		name   string
		opcode string
		lhs    Value
		rhs    Value
		want   int64
	}{
		{"add", "Add", NewIntegral(intT, 1), NewIntegral(intT, 2), 3},
		{"sub", "Sub", NewIntegral(intT, 5), NewIntegral(intT, 2), 3},
		{"mul", "Mul", NewIntegral(intT, 6), NewIntegral(intT, 7), 42},
		{"div", "Div", NewIntegral(intT, 7), NewIntegral(intT, 2), 3},
		{"rem", "Rem", NewIntegral(intT, 7), NewIntegral(intT, 2), 1},
		{"shl", "Shl", NewIntegral(intT, 1), NewIntegral(intT, 4), 16},
		{"and", "And", NewIntegral(intT, 6), NewIntegral(intT, 3), 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := EvalBinaryOperation(tc.opcode, tc.lhs, tc.rhs)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			iv, ok := got.(IntegralValue)
			if !ok {
				t.Fatalf("expected IntegralValue, got %T", got)
			}
			if iv.Int != tc.want {
				t.Fatalf("want %d, got %d", tc.want, iv.Int)
			}
		})
	}
}

func TestEvalBinaryOperationDivisionByZero(t *testing.T) {
	intT := ScalarTypes["int"]
	_, err := EvalBinaryOperation("Div", NewIntegral(intT, 1), NewIntegral(intT, 0))
	if !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected ErrDivisionByZero, got %v", err)
	}
}

func TestEvalBinaryOperationComparison(t *testing.T) {
	intT := ScalarTypes["int"]
	got, err := EvalBinaryOperation("LT", NewIntegral(intT, 1), NewIntegral(intT, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if iv := got.(IntegralValue); iv.Int != 1 {
		t.Fatalf("expected 1, got %d", iv.Int)
	}
}

func TestEvalUnaryOperation(t *testing.T) {
	intT := ScalarTypes["int"]
	got, err := EvalUnaryOperation("Minus", NewIntegral(intT, 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if iv := got.(IntegralValue); iv.Int != -5 {
		t.Fatalf("expected -5, got %d", iv.Int)
	}

	got, err = EvalUnaryOperation("LNot", NewIntegral(intT, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if iv := got.(IntegralValue); iv.Int != 1 {
		t.Fatalf("expected 1, got %d", iv.Int)
	}
}

func TestEvalPointerAdd(t *testing.T) {
	pt := NewPointerType(ScalarTypes["int"])
	ptr := NewPointer(pt, 100)
	got, err := EvalPointerAdd(ptr, NewIntegral(ScalarTypes["int"], 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Address != 112 {
		t.Fatalf("expected address 112, got %d", got.Address)
	}
}

func TestEvalPointerSubtractionYieldsDifference(t *testing.T) {
	pt := NewPointerType(ScalarTypes["int"])
	a := NewPointer(pt, 116)
	b := NewPointer(pt, 100)
	got, err := EvalBinaryOperation("Sub", a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if iv := got.(IntegralValue); iv.Int != 4 {
		t.Fatalf("expected 4, got %d", iv.Int)
	}
}

func TestEvalCastIntegralTruncation(t *testing.T) {
	got, err := EvalCast(ScalarTypes["char"], NewIntegral(ScalarTypes["int"], 257))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if iv := got.(IntegralValue); iv.Int != 1 {
		t.Fatalf("expected 1 (257 mod 256), got %d", iv.Int)
	}
}

func TestEvalCastIntToFloat(t *testing.T) {
	got, err := EvalCast(ScalarTypes["double"], NewIntegral(ScalarTypes["int"], 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fv := got.(FloatingValue); fv.Float != 3.0 {
		t.Fatalf("expected 3.0, got %v", fv.Float)
	}
}

func TestTruncateSignedWraparound(t *testing.T) {
	got := truncate(ScalarTypes["char"], 200)
	if got != -56 {
		t.Fatalf("expected -56, got %d", got)
	}
}
