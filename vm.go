package symevm

import (
	"bytes"
	"fmt"

	"github.com/benbjohnson/immutable"
	"github.com/davecgh/go-spew/spew"
)

// eaddrComparer orders EAddr values structurally via CompareExpr
// (expr_compare.go), so a persistent map can use EAddr — symbolic or
// literal — as a key the way spec's Env.contracts does.
type eaddrComparer struct{}

func (eaddrComparer) Compare(a, b interface{}) int {
	return CompareExpr(a.(EAddr), b.(EAddr))
}

// Memory is a frame's scratch byte space: a mutable byte vector under
// Concrete execution, an immutable symbolic Buf under Symbolic.
type Memory interface {
	sealedMemory()
}

// ConcreteMemory is a mutable byte vector, owned exclusively by the
// FrameState that holds it (spec §5 Ownership: "must not be aliased
// across frames").
type ConcreteMemory struct {
	Bytes []byte
}

func (*ConcreteMemory) sealedMemory() {}

// NewConcreteMemory returns an empty concrete memory.
func NewConcreteMemory() *ConcreteMemory { return &ConcreteMemory{} }

// SymbolicMemory is a persistent, freely-shareable symbolic buffer.
type SymbolicMemory struct {
	Buf Buf
}

func (*SymbolicMemory) sealedMemory() {}

// NewSymbolicMemory returns an empty symbolic memory.
func NewSymbolicMemory() *SymbolicMemory {
	return &SymbolicMemory{Buf: ConcreteBuf(nil)}
}

// Env is the environment a VM executes against: every known contract,
// plus the handful of values that only ever grow monotonically across
// an execution (fresh address/gas-value counters).
type Env struct {
	Contracts      *immutable.SortedMap // EAddr -> *Contract
	ChainId        W256
	FreshAddresses int
	FreshGasVals   int
}

// NewEnv returns an empty Env over the given chain ID.
func NewEnv(chainId W256) Env {
	return Env{Contracts: immutable.NewSortedMap(eaddrComparer{}), ChainId: chainId}
}

// GetContract looks up addr's Contract, if known.
func (e Env) GetContract(addr EAddr) (*Contract, bool) {
	v, ok := e.Contracts.Get(addr)
	if !ok {
		return nil, false
	}
	return v.(*Contract), true
}

// WithContract returns a new Env recording ct at addr.
func (e Env) WithContract(addr EAddr, ct *Contract) Env {
	return Env{
		Contracts:      e.Contracts.Set(addr, ct),
		ChainId:        e.ChainId,
		FreshAddresses: e.FreshAddresses,
		FreshGasVals:   e.FreshGasVals,
	}
}

// NextFreshAddress returns a new Env with the fresh-address counter
// incremented, and the counter's pre-increment value (the index the
// caller should use to derive a new symbolic/concrete address).
func (e Env) NextFreshAddress() (Env, int) {
	next := e
	next.FreshAddresses = e.FreshAddresses + 1
	return next, e.FreshAddresses
}

// Block carries the per-block context every Expr context accessor
// (Coinbase, Timestamp, ...) ultimately resolves against when a frame
// is concretely evaluated.
type Block struct {
	Coinbase    Addr
	Timestamp   W256
	Number      W256
	PrevRandao  W256
	GasLimit    W64
	BaseFee     W256
	MaxCodeSize uint64
	Schedule    gasSchedule
}

// TxState is the per-transaction context: the parts that don't change
// as frames are pushed and popped within one transaction.
type TxState struct {
	GasPrice    W256
	GasLimit    W64
	PriorityFee W256
	Origin      Addr
	ToAddr      *Addr
	Value       W256
	Substate    Substate
	IsCreate    bool
	TxReversion TxReversion
}

// TxReversion is the snapshot a failed transaction rolls back to.
type TxReversion struct {
	Env Env
}

// Substate accumulates the transaction-scoped side effects that survive
// cross-frame boundaries on success and are rolled back on failure:
// selfdestructs, touched/accessed accounts and storage keys (EIP-2929),
// and the gas refund counter.
type Substate struct {
	SelfDestructs       []Addr
	TouchedAccounts      map[Addr]bool
	AccessedAddresses    map[Addr]bool
	AccessedStorageKeys  map[Addr]map[W256]bool
	Refunds              uint64
}

// NewSubstate returns an empty Substate.
func NewSubstate() Substate {
	return Substate{
		TouchedAccounts:     map[Addr]bool{},
		AccessedAddresses:   map[Addr]bool{},
		AccessedStorageKeys: map[Addr]map[W256]bool{},
	}
}

// Clone returns a deep copy of s, the snapshot taken on frame entry so
// a later revert can restore exactly this state (spec §3 Lifecycles).
func (s Substate) Clone() Substate {
	clone := Substate{
		SelfDestructs:       append([]Addr(nil), s.SelfDestructs...),
		TouchedAccounts:      make(map[Addr]bool, len(s.TouchedAccounts)),
		AccessedAddresses:    make(map[Addr]bool, len(s.AccessedAddresses)),
		AccessedStorageKeys:  make(map[Addr]map[W256]bool, len(s.AccessedStorageKeys)),
		Refunds:              s.Refunds,
	}
	for k, v := range s.TouchedAccounts {
		clone.TouchedAccounts[k] = v
	}
	for k, v := range s.AccessedAddresses {
		clone.AccessedAddresses[k] = v
	}
	for addr, keys := range s.AccessedStorageKeys {
		m := make(map[W256]bool, len(keys))
		for k, v := range keys {
			m[k] = v
		}
		clone.AccessedStorageKeys[addr] = m
	}
	return clone
}

// TouchAccount marks addr as touched (e.g. by a zero-value CALL), which
// matters for EIP-161 empty-account pruning.
func (s Substate) TouchAccount(addr Addr) { s.TouchedAccounts[addr] = true }

// AccessAddress marks addr as accessed, returning whether it was cold
// (first access this transaction), per EIP-2929.
func (s Substate) AccessAddress(addr Addr) bool {
	cold := !s.AccessedAddresses[addr]
	s.AccessedAddresses[addr] = true
	return cold
}

// AccessStorageKey marks (addr,key) as accessed, returning whether it
// was cold, per EIP-2929.
func (s Substate) AccessStorageKey(addr Addr, key W256) bool {
	keys, ok := s.AccessedStorageKeys[addr]
	if !ok {
		keys = map[W256]bool{}
		s.AccessedStorageKeys[addr] = keys
	}
	cold := !keys[key]
	keys[key] = true
	return cold
}

// RuntimeConfig is the set of knobs a VM run is configured with, passed
// in wholesale rather than read from any file (spec §1 AMBIENT STACK:
// no config-file parsing in scope).
type RuntimeConfig struct {
	AllowFFI       bool
	OverrideCaller EAddr // nil if unset
	ResetCaller    bool
	BaseState      BaseState
}

// ForkState is one entry of a multi-fork execution (e.g. a test harness
// that forks mainnet state at a specific block and later switches back).
type ForkState struct {
	Env        Env
	Block      Block
	Cache      *Cache
	UrlOrAlias string
}

// IterationInfo tracks, per code location, how many times a loop body
// has been unrolled and which symbolic values were seen on each pass
// (used to detect a fixed point or to trip MaxIterationsReached).
type IterationInfo struct {
	Count int32
	Seen  []EWord
}

// Reversion is the snapshot a failed CALL rolls back to: the substate as
// it stood before the call (storage itself rolls back through each
// touched Contract's own OrigStorage/Storage fields).
type Reversion struct {
	Substate Substate
}

// CreateReversion additionally remembers the address a failed CREATE
// allocated, so the orchestrator can drop it from Env.Contracts.
type CreateReversion struct {
	Reversion
	NewAddr Addr
}

// FrameContext is what's snapshotted on frame entry and restored (or
// discarded) on frame exit.
type FrameContext struct {
	CallReversion   *Reversion
	CreateReversion *CreateReversion
}

// FrameState is the mutable state of the frame currently executing:
// its stack, memory, PC, and the view of its own calldata/caller/gas.
type FrameState struct {
	Contract     EAddr
	CodeContract EAddr
	Code         ContractCode
	PC           int32
	Stack        []EWord
	Memory       Memory
	MemorySize   uint64
	Calldata     Buf
	CallValue    EWord
	Caller       EAddr
	Gas          GasValue
	ReturnData   Buf
	Static       bool
}

// Push pushes v onto the frame's stack. Per spec §7, exceeding 1024
// entries is a StackLimitExceededError the caller (interpreter) must
// check for itself; Push here is the raw mechanical operation.
func (fs *FrameState) Push(v EWord) { fs.Stack = append(fs.Stack, v) }

// Pop removes and returns the top of the frame's stack.
func (fs *FrameState) Pop() (EWord, error) {
	if len(fs.Stack) == 0 {
		return nil, &StackUnderrunError{}
	}
	v := fs.Stack[len(fs.Stack)-1]
	fs.Stack = fs.Stack[:len(fs.Stack)-1]
	return v, nil
}

// Peek returns the nth-from-top stack entry (0 = top) without popping.
func (fs *FrameState) Peek(n int) (EWord, error) {
	if n < 0 || n >= len(fs.Stack) {
		return nil, &StackUnderrunError{}
	}
	return fs.Stack[len(fs.Stack)-1-n], nil
}

// Frame is one entry of the call/create stack: the frame's own state,
// plus the reversion data needed to unwind it on failure.
type Frame struct {
	State   FrameState
	Context FrameContext
}

// VM is the full interpreter state, parametric (via Ops) in the
// concreteness flavor. There is no VM[F] generic type parameter per the
// design notes' runtime-dispatch option: Ops.Flavor() reports which
// realization is active, and Burned's concrete dynamic type
// (ConcreteGasValue vs SymbolicGasValue) always agrees with it.
type VM struct {
	Ops         VMOps
	Result      VMResult // nil while still running
	State       FrameState
	Frames      []*Frame
	Env         Env
	Block       Block
	Tx          TxState
	Logs        []Log
	Traces      *TraceZipper
	Cache       *Cache
	Burned      GasValue
	Iterations  map[CodeLocation]*IterationInfo
	Constraints []Prop
	Config      RuntimeConfig
	Forks       []ForkState
	CurrentFork int32
	Labels      map[Addr]string
}

// NewVM constructs a fresh VM ready to run tx against env/block, using
// ops for gas/branch dispatch.
func NewVM(ops VMOps, env Env, block Block, tx TxState, config RuntimeConfig) *VM {
	return &VM{
		Ops:         ops,
		State:       FrameState{Memory: memoryForFlavor(ops.Flavor())},
		Env:         env,
		Block:       block,
		Tx:          tx,
		Traces:      NewTraceZipper(),
		Cache:       NewCache(),
		Burned:      ops.InitialGas(tx.GasLimit),
		Iterations:  map[CodeLocation]*IterationInfo{},
		Config:      config,
		Labels:      map[Addr]string{},
	}
}

func memoryForFlavor(f Flavor) Memory {
	if f == FlavorConcrete {
		return NewConcreteMemory()
	}
	return NewSymbolicMemory()
}

// PushFrame pushes the current State as a saved Frame (with ctx as its
// reversion data) and makes next the new current State, per spec §3
// Lifecycles ("A Frame is pushed on call/create").
func (vm *VM) PushFrame(next FrameState, ctx FrameContext) {
	vm.Frames = append(vm.Frames, &Frame{State: vm.State, Context: ctx})
	vm.State = next
}

// PopFrame restores the most recently pushed Frame as the current State,
// returning the FrameContext it carried (so the caller can decide
// whether to apply or discard the reversion data), per spec §3
// Lifecycles ("popped on stop/return/revert/selfdestruct").
func (vm *VM) PopFrame() (FrameContext, bool) {
	if len(vm.Frames) == 0 {
		return FrameContext{}, false
	}
	top := vm.Frames[len(vm.Frames)-1]
	vm.Frames = vm.Frames[:len(vm.Frames)-1]
	vm.State = top.State
	return top.Context, true
}

// Dump renders vm's full state as a human-readable string, following the
// teacher's ExecutionState.Dump() convention (execution_state.go): a short
// header of scalar fields, then a section per major piece of state, with
// spew doing the recursive rendering for the pieces too deeply nested
// (the Expr-laden frame stack, call stack, and substate) to hand-format.
func (vm *VM) Dump() string {
	var buf bytes.Buffer

	fmt.Fprintln(&buf, "VM STATE")
	fmt.Fprintln(&buf, "========")
	fmt.Fprintf(&buf, "flavor=%s pc=%d frames=%d\n", vm.Ops.Flavor(), vm.State.PC, len(vm.Frames))
	fmt.Fprintln(&buf, "")

	fmt.Fprintln(&buf, "== CURRENT FRAME")
	fmt.Fprintln(&buf, spew.Sdump(vm.State))

	fmt.Fprintln(&buf, "== CALL STACK")
	fmt.Fprintln(&buf, spew.Sdump(vm.Frames))

	fmt.Fprintln(&buf, "== SUBSTATE")
	fmt.Fprintln(&buf, spew.Sdump(vm.Tx.Substate))

	fmt.Fprintln(&buf, "== CONSTRAINTS")
	for i, p := range vm.Constraints {
		fmt.Fprintf(&buf, "%d. %s\n", i, spew.Sdump(p))
	}
	return buf.String()
}
