// Package wasm moves selector-tagged unions in and out of the linear memory of
// a WebAssembly guest running on wazero.
package wasm

import (
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
)

// Error codes
const (
	ErrCodeCompileFailed     = 1
	ErrCodeNoModuleLoaded    = 2
	ErrCodeInstantiateFailed = 3
	ErrCodeNoMemory          = 4
	ErrCodeOutOfBounds       = 5
	ErrCodeWriteFailed       = 6
	ErrCodeFunctionNotFound  = 9
	ErrCodeCallFailed        = 10
	ErrCodeTimeout           = 12
	ErrCodeRuntimeInit       = 14
	ErrCodeCloseFailed       = 15
	ErrCodeUnsupportedType   = 19
	ErrCodeMemoryExceeded    = 21
	ErrCodeMemoryReadError   = 22
	ErrCodeUnknownKind       = 30
	ErrCodeDecodeFailed      = 31
	ErrCodeEncodeFailed      = 32
)

// WASMError represents a WASM-specific error
type WASMError struct {
	Code    uint16
	Message string
	Context map[string]interface{}
	Stack   string
}

func (e *WASMError) Error() string {
	if err, ok := e.Context["error"].(error); ok {
		return fmt.Sprintf("WASM error %d: %s: %v", e.Code, e.Message, err)
	}
	return fmt.Sprintf("WASM error %d: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error if any
func (e *WASMError) Unwrap() error {
	if err, ok := e.Context["error"].(error); ok {
		return err
	}
	return nil
}

// NewWASMError creates a new WASM error with stack trace
func NewWASMError(code uint16, message string, context map[string]interface{}) *WASMError {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var stack string
	for {
		frame, more := frames.Next()
		stack += fmt.Sprintf("\n%s\n\t%s:%d", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}

	return &WASMError{
		Code:    code,
		Message: message,
		Context: context,
		Stack:   stack,
	}
}

// Config holds configuration options for a Host
type Config struct {
	// ModuleName is the name the guest is instantiated under
	ModuleName string
	// MemoryExport names the guest's exported memory; empty uses the first memory
	MemoryExport string
	// MemoryLimit sets the maximum memory size in pages (64KB per page)
	MemoryLimit uint32
	// MaxUnionSize caps the encoded size of a union read from or written to the guest
	MaxUnionSize uint32
	// Timeout bounds compilation and instantiation
	Timeout time.Duration
	// Logger receives lifecycle events; nil disables logging
	Logger *zap.Logger
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		ModuleName:   "guest",
		MemoryExport: "memory",
		MemoryLimit:  1000, // ~64MB
		MaxUnionSize: 1 << 20,
		Timeout:      time.Second * 30,
	}
}
