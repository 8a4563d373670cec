package driver

import (
	"github.com/persistent-c/persistent-c-go/pkg/cmemory"
	"github.com/persistent-c/persistent-c-go/pkg/cvalue"
)

// memoryAdapter narrows *cmemory.Memory down to the stepper.Memory
// interface: a synchronous read, with no allocation or write surface
// exposed to pkg/stepper.
type memoryAdapter struct {
	mem *cmemory.Memory
}

func (a *memoryAdapter) ReadValue(ptr cvalue.PointerValue) (cvalue.Value, error) {
	return cmemory.ReadValue(a.mem, ptr)
}
