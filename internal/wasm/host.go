package wasm

import (
	"context"
	"errors"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/clockworklabs/sszunion/pkg/union"
)

// HostModuleName is the import module guests use for union host functions.
const HostModuleName = "sszunion"

// Host runs one guest module and reads and writes unions of the kinds in its
// catalog directly in the guest's linear memory. Access to the memory is
// serialized.
type Host struct {
	runtime wazero.Runtime
	guest   api.Module
	memory  api.Memory
	catalog *union.Catalog
	config  *Config
	logger  *zap.Logger

	mu     sync.Mutex
	closed bool
}

// NewHost compiles and instantiates wasmBytes. The guest may import the
// functions of HostModuleName, including from its start function.
func NewHost(ctx context.Context, wasmBytes []byte, catalog *union.Catalog, config *Config) (*Host, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if catalog == nil {
		return nil, NewWASMError(ErrCodeRuntimeInit, "host needs a union catalog", nil)
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Host{
		catalog: catalog,
		config:  config,
		logger:  logger.With(zap.String("module", config.ModuleName)),
	}

	wazeroConfig := wazero.NewRuntimeConfig().
		WithMemoryLimitPages(config.MemoryLimit).
		WithCloseOnContextDone(true)
	h.runtime = wazero.NewRuntimeWithConfig(ctx, wazeroConfig)

	timeoutCtx := ctx
	if config.Timeout > 0 {
		var cancel context.CancelFunc
		timeoutCtx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	if err := h.instantiate(timeoutCtx, wasmBytes); err != nil {
		_ = h.runtime.Close(ctx)
		if errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
			return nil, NewWASMError(ErrCodeTimeout, "guest instantiation timed out", map[string]interface{}{
				"error": err,
			})
		}
		return nil, err
	}

	h.logger.Debug("guest instantiated",
		zap.Uint32("memory_bytes", h.memory.Size()),
		zap.Strings("kinds", catalog.Names()),
	)
	return h, nil
}

func (h *Host) instantiate(ctx context.Context, wasmBytes []byte) error {
	_, err := h.runtime.NewHostModuleBuilder(HostModuleName).
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(h.unionSelector),
			[]api.ValueType{api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32},
			[]api.ValueType{api.ValueTypeI32}).
		WithParameterNames("kind_ptr", "kind_len", "ptr", "len").
		Export("union_selector").
		Instantiate(ctx)
	if err != nil {
		return NewWASMError(ErrCodeInstantiateFailed, "failed to instantiate host module", map[string]interface{}{
			"error": err,
		})
	}

	compiled, err := h.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return NewWASMError(ErrCodeCompileFailed, "failed to compile module", map[string]interface{}{
			"error": err,
		})
	}

	guest, err := h.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(h.config.ModuleName))
	if err != nil {
		return NewWASMError(ErrCodeInstantiateFailed, "failed to instantiate module", map[string]interface{}{
			"error": err,
		})
	}
	h.guest = guest

	memory := guest.Memory()
	if h.config.MemoryExport != "" {
		memory = guest.ExportedMemory(h.config.MemoryExport)
	}
	if memory == nil {
		return NewWASMError(ErrCodeNoMemory, "module does not export memory", map[string]interface{}{
			"export": h.config.MemoryExport,
		})
	}
	h.memory = memory
	return nil
}

// MemorySize returns the guest memory size in bytes.
func (h *Host) MemorySize() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0
	}
	return h.memory.Size()
}

// ReadBytes copies size bytes at ptr out of guest memory.
func (h *Host) ReadBytes(ptr, size uint32) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.read(ptr, size)
}

// WriteBytes copies data into guest memory at ptr.
func (h *Host) WriteBytes(ptr uint32, data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.write(ptr, data)
}

// ReadUnion decodes the size bytes at ptr as a union of the named kind.
func (h *Host) ReadUnion(kind string, ptr, size uint32) (union.Value, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return union.Value{}, NewWASMError(ErrCodeNoModuleLoaded, "host is closed", nil)
	}
	return h.decodeUnion(h.memory, kind, ptr, size)
}

// Call invokes the guest export name. h.mu is not held while the guest runs,
// so the guest may call back into the host functions.
func (h *Host) Call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, NewWASMError(ErrCodeNoModuleLoaded, "host is closed", nil)
	}
	fn := h.guest.ExportedFunction(name)
	h.mu.Unlock()

	if fn == nil {
		return nil, NewWASMError(ErrCodeFunctionNotFound, "function not found", map[string]interface{}{
			"name": name,
		})
	}
	results, err := fn.Call(ctx, params...)
	if err != nil {
		return nil, NewWASMError(ErrCodeCallFailed, "failed to call function", map[string]interface{}{
			"name":  name,
			"error": err,
		})
	}
	return results, nil
}

// WriteUnion encodes v at ptr and returns the number of bytes written.
func (h *Host) WriteUnion(ptr uint32, v union.Value) (uint32, error) {
	reg := v.Registry()
	if reg == nil {
		return 0, NewWASMError(ErrCodeUnsupportedType, "value holds no union", map[string]interface{}{
			"error": union.ErrUnsupportedVariantPayload,
		})
	}
	buf, err := reg.Encode(v)
	if err != nil {
		return 0, NewWASMError(ErrCodeEncodeFailed, "failed to encode union", map[string]interface{}{
			"kind":  reg.Name(),
			"error": err,
		})
	}
	if err := checkLimit(ptr, uint32(len(buf)), h.config.MaxUnionSize); err != nil {
		return 0, NewWASMError(ErrCodeMemoryExceeded, "union too large", map[string]interface{}{
			"kind":  reg.Name(),
			"error": err,
		})
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.write(ptr, buf); err != nil {
		return 0, err
	}
	return uint32(len(buf)), nil
}

// Close releases the runtime and every module in it.
func (h *Host) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	if err := h.runtime.Close(ctx); err != nil {
		return NewWASMError(ErrCodeCloseFailed, "failed to close runtime", map[string]interface{}{
			"error": err,
		})
	}
	h.logger.Debug("guest closed")
	return nil
}

// read requires h.mu.
func (h *Host) read(ptr, size uint32) ([]byte, error) {
	if h.closed {
		return nil, NewWASMError(ErrCodeNoModuleLoaded, "host is closed", nil)
	}
	return readMemory(h.memory, ptr, size)
}

// decodeUnion decodes a union of the named kind from mem. It touches only
// the catalog, which is safe for concurrent use.
func (h *Host) decodeUnion(mem api.Memory, kind string, ptr, size uint32) (union.Value, error) {
	reg, ok := h.catalog.Lookup(kind)
	if !ok {
		return union.Value{}, NewWASMError(ErrCodeUnknownKind, "unknown union kind", map[string]interface{}{
			"kind":  kind,
			"error": union.ErrUnknownKind,
		})
	}
	if err := checkLimit(ptr, size, h.config.MaxUnionSize); err != nil {
		return union.Value{}, NewWASMError(ErrCodeMemoryExceeded, "union too large", map[string]interface{}{
			"kind":  kind,
			"error": err,
		})
	}
	buf, err := readMemory(mem, ptr, size)
	if err != nil {
		return union.Value{}, err
	}
	v, err := reg.Decode(buf)
	if err != nil {
		h.logger.Debug("union decode failed", zap.String("kind", kind), zap.Uint32("ptr", ptr), zap.Error(err))
		return union.Value{}, NewWASMError(ErrCodeDecodeFailed, "failed to decode union", map[string]interface{}{
			"kind":  kind,
			"ptr":   ptr,
			"error": err,
		})
	}
	return v, nil
}

// readMemory copies size bytes at ptr out of mem.
func readMemory(mem api.Memory, ptr, size uint32) ([]byte, error) {
	if mem == nil {
		return nil, NewWASMError(ErrCodeNoMemory, "module has no memory", nil)
	}
	if err := checkBounds(ptr, size, mem.Size()); err != nil {
		return nil, NewWASMError(ErrCodeOutOfBounds, "memory access out of bounds", map[string]interface{}{
			"error": err,
		})
	}
	view, ok := mem.Read(ptr, size)
	if !ok {
		return nil, NewWASMError(ErrCodeMemoryReadError, "failed to read from memory", nil)
	}
	out := make([]byte, len(view))
	copy(out, view)
	return out, nil
}

// write requires h.mu.
func (h *Host) write(ptr uint32, data []byte) error {
	if h.closed {
		return NewWASMError(ErrCodeNoModuleLoaded, "host is closed", nil)
	}
	if err := checkBounds(ptr, uint32(len(data)), h.memory.Size()); err != nil {
		return NewWASMError(ErrCodeOutOfBounds, "memory access out of bounds", map[string]interface{}{
			"error": err,
		})
	}
	if !h.memory.Write(ptr, data) {
		return NewWASMError(ErrCodeWriteFailed, "failed to write to memory", nil)
	}
	return nil
}

// unionSelector backs sszunion.union_selector. It validates the union at
// (ptr, len) against the kind named at (kind_ptr, kind_len) in the calling
// module's memory and returns its selector, or the negated error code. It
// does not take h.mu, so it is safe to reach from Call and from a start
// function that runs before NewHost returns.
func (h *Host) unionSelector(_ context.Context, mod api.Module, stack []uint64) {
	kindPtr := api.DecodeU32(stack[0])
	kindLen := api.DecodeU32(stack[1])
	ptr := api.DecodeU32(stack[2])
	size := api.DecodeU32(stack[3])

	mem := mod.Memory()
	kind, err := readMemory(mem, kindPtr, kindLen)
	if err != nil {
		stack[0] = api.EncodeI32(-int32(errorCode(err)))
		return
	}
	v, err := h.decodeUnion(mem, string(kind), ptr, size)
	if err != nil {
		stack[0] = api.EncodeI32(-int32(errorCode(err)))
		return
	}
	stack[0] = api.EncodeI32(int32(v.Selector()))
}

func errorCode(err error) uint16 {
	var wasmErr *WASMError
	if errors.As(err, &wasmErr) {
		return wasmErr.Code
	}
	return ErrCodeDecodeFailed
}
