package cmemory

import "github.com/persistent-c/persistent-c-go/pkg/cvalue"
import "testing"

func TestReadWriteRoundTrip(t *testing.T) {
	mem := New(64)
	intT := cvalue.ScalarTypes["int"]
	addr, err := mem.Alloc(intT.Size())
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	ptr := cvalue.NewPointer(cvalue.NewPointerType(intT), addr)
	if err := WriteValue(mem, ptr, cvalue.NewIntegral(intT, 42)); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadValue(mem, ptr)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if iv := got.(cvalue.IntegralValue); iv.Int != 42 {
		t.Fatalf("expected 42, got %d", iv.Int)
	}
}

func TestReadWritePointer(t *testing.T) {
	mem := New(64)
	intT := cvalue.ScalarTypes["int"]
	intPtrT := cvalue.NewPointerType(intT)
	addr, _ := mem.Alloc(intPtrT.Size())
	slot := cvalue.NewPointer(cvalue.NewPointerType(intPtrT), addr)
	target := cvalue.NewPointer(intPtrT, 7)
	if err := WriteValue(mem, slot, target); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadValue(mem, slot)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	pv := got.(cvalue.PointerValue)
	if pv.Address != 7 {
		t.Fatalf("expected address 7, got %d", pv.Address)
	}
}

func TestNullDereferenceFails(t *testing.T) {
	mem := New(64)
	intT := cvalue.ScalarTypes["int"]
	ptr := cvalue.NewPointer(cvalue.NewPointerType(intT), 0)
	if _, err := ReadValue(mem, ptr); err == nil {
		t.Fatalf("expected error dereferencing null pointer")
	}
}

func TestOutOfBoundsFails(t *testing.T) {
	mem := New(4)
	longT := cvalue.ScalarTypes["long"]
	ptr := cvalue.NewPointer(cvalue.NewPointerType(longT), 1)
	if _, err := ReadValue(mem, ptr); err == nil {
		t.Fatalf("expected out-of-bounds error")
	}
}
