package wasm

import (
	"fmt"
	"math"
)

// BoundsError represents bounds-related errors
type BoundsError struct {
	Type    string
	Address uint32
	Size    uint32
	Limit   uint32
	Message string
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("bounds error [%s]: %s (addr=0x%x, size=%d, limit=0x%x)",
		e.Type, e.Message, e.Address, e.Size, e.Limit)
}

// checkBounds verifies that [address, address+size) lies inside a memory of
// memorySize bytes.
func checkBounds(address, size, memorySize uint32) error {
	if address > math.MaxUint32-size {
		return &BoundsError{
			Type:    "arithmetic_overflow",
			Address: address,
			Size:    size,
			Limit:   math.MaxUint32,
			Message: "address + size exceeds 32-bit address space",
		}
	}
	if end := address + size; end > memorySize {
		return &BoundsError{
			Type:    "memory_bounds",
			Address: address,
			Size:    size,
			Limit:   memorySize,
			Message: fmt.Sprintf("access beyond WASM memory (end: 0x%x, limit: 0x%x)", end, memorySize),
		}
	}
	return nil
}

// checkLimit verifies that size does not exceed the configured union limit.
func checkLimit(address, size, limit uint32) error {
	if limit > 0 && size > limit {
		return &BoundsError{
			Type:    "size_limit",
			Address: address,
			Size:    size,
			Limit:   limit,
			Message: fmt.Sprintf("union of %d bytes exceeds limit %d", size, limit),
		}
	}
	return nil
}
