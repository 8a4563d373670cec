// Package cmemory implements the byte-addressable memory subsystem
// spec.md treats as an external collaborator: typed reads/writes over a
// flat arena, exposed only as ReadValue/WriteValue plus the bump allocator
// the driver uses to back VarDecl and function-frame storage.
package cmemory

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/persistent-c/persistent-c-go/pkg/cvalue"
)

// Memory is a flat byte arena with a monotonic bump allocator. Addresses
// are offsets into the arena; address 0 is reserved as the null pointer,
// so the arena's first real byte sits at offset 1.
type Memory struct {
	arena []byte
	next  uint64
}

// New allocates a Memory backed by size bytes of storage.
func New(size int) *Memory {
	return &Memory{arena: make([]byte, size), next: 1}
}

// Alloc bumps the allocator by size bytes (minimum 1, so zero-sized
// allocations still get a distinct, non-null address) and returns the
// address of the new region.
func (m *Memory) Alloc(size int) (uint64, error) {
	if size < 1 {
		size = 1
	}
	addr := m.next
	end := addr + uint64(size)
	if end > uint64(len(m.arena)) {
		return 0, fmt.Errorf("cmemory: out of memory allocating %d bytes at %d", size, addr)
	}
	m.next = end
	return addr, nil
}

// ReadValue decodes the bytes at ptr according to its pointee type.
func ReadValue(m *Memory, ptr cvalue.PointerValue) (cvalue.Value, error) {
	pt, ok := ptr.Ty.(*cvalue.PointerType)
	if !ok {
		return nil, fmt.Errorf("cmemory: read through non-pointer type %s", ptr.Ty)
	}
	if err := m.bounds(ptr.Address, pt.Pointee.Size()); err != nil {
		return nil, err
	}
	switch pointee := pt.Pointee.(type) {
	case *cvalue.ScalarType:
		buf := m.arena[ptr.Address : ptr.Address+uint64(pointee.Size())]
		if pointee.Float {
			return decodeFloat(pointee, buf), nil
		}
		return decodeIntegral(pointee, buf), nil
	case *cvalue.PointerType:
		buf := m.arena[ptr.Address : ptr.Address+8]
		addr := binary.LittleEndian.Uint64(buf)
		return cvalue.NewPointer(pointee, addr), nil
	default:
		return nil, fmt.Errorf("cmemory: cannot read value of type %s", pt.Pointee)
	}
}

// WriteValue encodes v into the bytes at ptr.
func WriteValue(m *Memory, ptr cvalue.PointerValue, v cvalue.Value) error {
	pt, ok := ptr.Ty.(*cvalue.PointerType)
	if !ok {
		return fmt.Errorf("cmemory: write through non-pointer type %s", ptr.Ty)
	}
	size := pt.Pointee.Size()
	if err := m.bounds(ptr.Address, size); err != nil {
		return err
	}
	buf := m.arena[ptr.Address : ptr.Address+uint64(size)]
	switch dst := pt.Pointee.(type) {
	case *cvalue.ScalarType:
		if dst.Float {
			f, ok := v.(cvalue.FloatingValue)
			if !ok {
				iv, ok := v.(cvalue.IntegralValue)
				if !ok {
					return fmt.Errorf("cmemory: cannot store %T into %s", v, dst)
				}
				encodeFloat(dst, buf, float64(iv.Int))
				return nil
			}
			encodeFloat(dst, buf, f.Float)
			return nil
		}
		switch src := v.(type) {
		case cvalue.IntegralValue:
			encodeIntegral(dst, buf, src.Int)
		case cvalue.FloatingValue:
			encodeIntegral(dst, buf, int64(src.Float))
		case cvalue.PointerValue:
			encodeIntegral(dst, buf, int64(src.Address))
		default:
			return fmt.Errorf("cmemory: cannot store %T into %s", v, dst)
		}
	case *cvalue.PointerType:
		pv, ok := v.(cvalue.PointerValue)
		if !ok {
			return fmt.Errorf("cmemory: cannot store %T into pointer", v)
		}
		binary.LittleEndian.PutUint64(buf, pv.Address)
	default:
		return fmt.Errorf("cmemory: cannot store into type %s", pt.Pointee)
	}
	return nil
}

func (m *Memory) bounds(addr uint64, size int) error {
	if addr == 0 {
		return fmt.Errorf("cmemory: null pointer dereference")
	}
	if size < 0 || addr+uint64(size) > uint64(len(m.arena)) {
		return fmt.Errorf("cmemory: access out of bounds at %d (size %d)", addr, size)
	}
	return nil
}

func decodeIntegral(t *cvalue.ScalarType, buf []byte) cvalue.IntegralValue {
	var raw uint64
	for i := 0; i < len(buf); i++ {
		raw |= uint64(buf[i]) << (8 * i)
	}
	v := int64(raw)
	bits := uint(len(buf) * 8)
	if !t.Unsigned && bits < 64 && v&(int64(1)<<(bits-1)) != 0 {
		v -= int64(1) << bits
	}
	return cvalue.NewIntegral(t, v)
}

func encodeIntegral(t *cvalue.ScalarType, buf []byte, v int64) {
	u := uint64(v)
	for i := 0; i < len(buf); i++ {
		buf[i] = byte(u >> (8 * i))
	}
}

func decodeFloat(t *cvalue.ScalarType, buf []byte) cvalue.FloatingValue {
	if t.ByteSize == 4 {
		bits := binary.LittleEndian.Uint32(buf)
		return cvalue.NewFloating(t, float64(math.Float32frombits(bits)))
	}
	bits := binary.LittleEndian.Uint64(buf)
	return cvalue.NewFloating(t, math.Float64frombits(bits))
}

func encodeFloat(t *cvalue.ScalarType, buf []byte, v float64) {
	if t.ByteSize == 4 {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(v)))
		return
	}
	binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
}
