package symevm

// CodeOp pairs a byte offset with the opcode decoded there. CodeOps is
// built once when a Contract's code is fetched; OpIxMap then lets the
// interpreter go from a raw PC to the op covering it in O(1) instead of
// rescanning the byte stream on every jump.
type CodeOp struct {
	Idx int32
	Op  GenericOp[EWord]
}

// Contract is the full runtime view of a contract: everything the
// interpreter needs while a frame is executing against it. EContractExpr
// (expr_contract.go) is the reduced view embedded in an End snapshot;
// Contract is its mutable, execution-time counterpart, grounded on the
// teacher's StackFrame bookkeeping (execution_state.go) generalized from
// a Go call frame's locals to a contract's code/storage bookkeeping.
type Contract struct {
	Code             ContractCode
	Storage          Storage
	TransientStorage Storage
	OrigStorage      Storage
	Balance          W256
	Nonce            uint64
	CodeHash         W256
	OpIxMap          []int32
	CodeOps          []CodeOp
	External         bool
}

// NewContract returns a freshly deployed Contract with empty storage.
func NewContract(code ContractCode) *Contract {
	return &Contract{
		Code:             code,
		Storage:          ConcreteStore(NewConcreteMap()),
		TransientStorage: ConcreteStore(NewConcreteMap()),
		OrigStorage:      ConcreteStore(NewConcreteMap()),
	}
}

// Clone returns a shallow copy of c. Storage/TransientStorage/OrigStorage
// are persistent Expr values (safe to alias across clones); OpIxMap and
// CodeOps are only ever read after construction, so aliasing them is
// likewise safe. Only the scalar fields (Balance, Nonce) are genuinely
// copied, since those are the fields a clone's caller will go on to
// mutate independently.
func (c *Contract) Clone() *Contract {
	clone := *c
	return &clone
}

// SnapshotOrigStorage captures c's current storage as the revert-time
// original, per spec's "origStorage is captured at tx start and reused
// on revert".
func (c *Contract) SnapshotOrigStorage() {
	c.OrigStorage = c.Storage
}

// RevertStorage restores c's storage to the tx-start snapshot.
func (c *Contract) RevertStorage() {
	c.Storage = c.OrigStorage
}

// SLoad reads key from c's persistent storage.
func (c *Contract) SLoad(key EWord) EWord {
	return SLoad(key, c.Storage)
}

// SStore writes val at key into c's persistent storage.
func (c *Contract) SStore(key, val EWord) {
	c.Storage = SStore(key, val, c.Storage)
}

// TLoad reads key from c's transient storage (EIP-1153).
func (c *Contract) TLoad(key EWord) EWord {
	return SLoad(key, c.TransientStorage)
}

// TStore writes val at key into c's transient storage (EIP-1153).
func (c *Contract) TStore(key, val EWord) {
	c.TransientStorage = SStore(key, val, c.TransientStorage)
}

// opAt returns the CodeOp covering byte offset pc, using OpIxMap for an
// O(1) lookup, or (CodeOp{}, false) if pc is out of range.
func (c *Contract) opAt(pc int) (CodeOp, bool) {
	if pc < 0 || pc >= len(c.OpIxMap) {
		return CodeOp{}, false
	}
	idx := c.OpIxMap[pc]
	if int(idx) < 0 || int(idx) >= len(c.CodeOps) {
		return CodeOp{}, false
	}
	return c.CodeOps[idx], true
}
