package handler

import (
	"errors"
	"fmt"

	"github.com/race-sub000/gamecore/internal/codec"
	"github.com/wasmerio/wasmer-go/wasmer"
)

// WasmHandler runs a handler compiled to WASM bytecode. The guest module
// must export a linear "memory", an "alloc" function taking a byte count
// and returning a guest pointer, and the two entry points "init_state" and
// "handle_event". Both entry points take (state_ptr, state_len, in_ptr,
// in_len, effect_ptr, effect_len) and return a packed (out_ptr<<32|out_len)
// i64 pointing at the updated serialized state written into guest memory.
// The Effect bytes at effect_ptr, which the guest mutates in place up to
// effect_len before returning, carry only the fields EncodeEffect writes.
type WasmHandler struct {
	engine   *wasmer.Engine
	store    *wasmer.Store
	instance *wasmer.Instance
	memory   *wasmer.Memory
	alloc    func(...interface{}) (interface{}, error)
}

func NewWasmHandler(bytecode []byte) (*WasmHandler, error) {
	engine := wasmer.NewEngine()
	store := wasmer.NewStore(engine)

	module, err := wasmer.NewModule(store, bytecode)
	if err != nil {
		return nil, fmt.Errorf("wasm: compile module: %w", err)
	}

	importObject := wasmer.NewImportObject()
	instance, err := wasmer.NewInstance(module, importObject)
	if err != nil {
		return nil, fmt.Errorf("wasm: instantiate: %w", err)
	}

	memory, err := instance.Exports.GetMemory("memory")
	if err != nil {
		return nil, errors.New("wasm: module does not export linear memory")
	}

	allocFn, err := instance.Exports.GetFunction("alloc")
	if err != nil {
		return nil, errors.New("wasm: module does not export alloc")
	}

	return &WasmHandler{engine: engine, store: store, instance: instance, memory: memory, alloc: allocFn}, nil
}

func (h *WasmHandler) writeBytes(b []byte) (int32, error) {
	ptrAny, err := h.alloc(int32(len(b)))
	if err != nil {
		return 0, fmt.Errorf("wasm: alloc %d bytes: %w", len(b), err)
	}
	ptr, ok := ptrAny.(int32)
	if !ok {
		return 0, errors.New("wasm: alloc did not return an i32 pointer")
	}
	copy(h.memory.Data()[ptr:], b)
	return ptr, nil
}

func (h *WasmHandler) readBytes(ptr, length int32) []byte {
	out := make([]byte, length)
	copy(out, h.memory.Data()[ptr:ptr+length])
	return out
}

func unpackResult(packed int64) (ptr, length int32) {
	return int32(uint64(packed) >> 32), int32(uint64(packed) & 0xffffffff)
}

func (h *WasmHandler) callEntry(name string, state, payload []byte, effect *Effect) ([]byte, error) {
	fn, err := h.instance.Exports.GetFunction(name)
	if err != nil {
		return nil, fmt.Errorf("wasm: module does not export %s: %w", name, err)
	}

	statePtr, err := h.writeBytes(state)
	if err != nil {
		return nil, err
	}
	payloadPtr, err := h.writeBytes(payload)
	if err != nil {
		return nil, err
	}
	effectBytes := EncodeEffect(effect)
	effectPtr, err := h.writeBytes(effectBytes)
	if err != nil {
		return nil, err
	}

	result, err := fn(statePtr, int32(len(state)), payloadPtr, int32(len(payload)), effectPtr, int32(len(effectBytes)))
	if err != nil {
		return nil, fmt.Errorf("wasm: call %s: %w", name, err)
	}
	packed, ok := result.(int64)
	if !ok {
		return nil, fmt.Errorf("wasm: %s did not return a packed i64 pointer", name)
	}

	updatedEffect, err := DecodeEffect(h.readBytes(effectPtr, int32(len(effectBytes))))
	if err != nil {
		return nil, fmt.Errorf("wasm: decode returned effect: %w", err)
	}
	*effect = *updatedEffect

	ptr, length := unpackResult(packed)
	return h.readBytes(ptr, length), nil
}

func (h *WasmHandler) InitState(initData []byte, effect *Effect) ([]byte, error) {
	return h.callEntry("init_state", nil, initData, effect)
}

func (h *WasmHandler) HandleEvent(state []byte, eventRaw []byte, effect *Effect) ([]byte, error) {
	return h.callEntry("handle_event", state, eventRaw, effect)
}

// EncodeEffect and DecodeEffect give the WASM boundary a concrete, stable
// wire form for Effect, built on the same positional little-endian codec
// used for every other on-wire value in this runtime. The form carries the
// timestamp, the next random/decision ids, the node count, the StartGame,
// StopGame, CancelDispatch, AllowExit and IsCheckpoint flags, Checkpoint,
// HandlerState and Error. Every other Effect field (timeouts, randomness
// and decision requests, revealed and answered values, settles,
// transfers, sub-game launches, bridge events, logs) is not encoded and
// comes back zero from a WASM call.
func EncodeEffect(e *Effect) []byte {
	w := &codec.Writer{}
	w.WriteU64(e.Timestamp)
	w.WriteU32(uint32(e.CurrRandomID))
	w.WriteU32(uint32(e.CurrDecisionID))
	w.WriteU32(uint32(e.NodesCount))
	w.WriteBool(e.StartGame)
	w.WriteBool(e.StopGame)
	w.WriteBool(e.CancelDispatch)
	w.WriteBool(e.AllowExit)
	w.WriteBool(e.IsCheckpoint)
	w.WriteBytes(e.Checkpoint)
	w.WriteBytes(e.HandlerState)
	w.WriteString(e.Error)
	return w.Bytes()
}

func DecodeEffect(b []byte) (*Effect, error) {
	r := codec.NewReader(b)
	e := &Effect{}
	var err error
	if e.Timestamp, err = r.ReadU64(); err != nil {
		return nil, err
	}
	var v uint32
	if v, err = r.ReadU32(); err != nil {
		return nil, err
	}
	e.CurrRandomID = int(v)
	if v, err = r.ReadU32(); err != nil {
		return nil, err
	}
	e.CurrDecisionID = int(v)
	if v, err = r.ReadU32(); err != nil {
		return nil, err
	}
	e.NodesCount = int(v)
	if e.StartGame, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if e.StopGame, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if e.CancelDispatch, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if e.AllowExit, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if e.IsCheckpoint, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if e.Checkpoint, err = r.ReadBytes(); err != nil {
		return nil, err
	}
	if e.HandlerState, err = r.ReadBytes(); err != nil {
		return nil, err
	}
	if e.Error, err = r.ReadString(); err != nil {
		return nil, err
	}
	return e, nil
}
