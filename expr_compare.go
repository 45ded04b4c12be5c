package symevm

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// typeTag assigns each concrete node type a tag unique within its sort,
// the tie-break CompareExpr falls back to once sortCode agrees (I5). Go
// offers no declaration-order reflection cheap enough to rely on, so
// the tags are listed out by hand, grouped by sort, in the same order
// the types were introduced across expr*.go/buf.go/storage.go.
type typeTag int

const (
	tagLit typeTag = iota
	tagVar
	tagWAddr
	tagWordBin
	tagWordBit
	tagNot
	tagIsZero
	tagAddMod
	tagMulMod
	tagBufLength
	tagReadWord
	tagEqByte
	tagJoinBytes
	tagSLoad
	tagOrigin
	tagCoinbase
	tagTimestamp
	tagBlockNumber
	tagPrevRandao
	tagGasLimit
	tagChainId
	tagBaseFee
	tagTxValue
	tagBlockHash
	tagBalance
	tagGas
	tagCodeSize
	tagCodeHash
	tagKeccak
	tagSHA256

	tagLitByte
	tagReadByte
	tagIndexWord

	tagConcreteBuf
	tagAbstractBuf
	tagWriteByte
	tagWriteWord
	tagCopySlice
	tagGVarBuf

	tagConcreteStore
	tagAbstractStore
	tagSStore
	tagGVarStorage

	tagLogEntry

	tagSymAddr
	tagLitAddr

	tagEContract

	tagPartial
	tagFailure
	tagSuccess
	tagITE
)

func exprTypeTag(e Expr) typeTag {
	switch e.(type) {
	case *LitExpr:
		return tagLit
	case *VarExpr:
		return tagVar
	case *WAddrExpr:
		return tagWAddr
	case *WordBinExpr:
		return tagWordBin
	case *WordBitExpr:
		return tagWordBit
	case *NotExpr:
		return tagNot
	case *IsZeroExpr:
		return tagIsZero
	case *AddModExpr:
		return tagAddMod
	case *MulModExpr:
		return tagMulMod
	case *BufLengthExpr:
		return tagBufLength
	case *ReadWordExpr:
		return tagReadWord
	case *EqByteExpr:
		return tagEqByte
	case *JoinBytesExpr:
		return tagJoinBytes
	case *SLoadExpr:
		return tagSLoad
	case *OriginExpr:
		return tagOrigin
	case *CoinbaseExpr:
		return tagCoinbase
	case *TimestampExpr:
		return tagTimestamp
	case *BlockNumberExpr:
		return tagBlockNumber
	case *PrevRandaoExpr:
		return tagPrevRandao
	case *GasLimitExpr:
		return tagGasLimit
	case *ChainIdExpr:
		return tagChainId
	case *BaseFeeExpr:
		return tagBaseFee
	case *TxValueExpr:
		return tagTxValue
	case *BlockHashExpr:
		return tagBlockHash
	case *BalanceExpr:
		return tagBalance
	case *GasExpr:
		return tagGas
	case *CodeSizeExpr:
		return tagCodeSize
	case *CodeHashExpr:
		return tagCodeHash
	case *KeccakExpr:
		return tagKeccak
	case *SHA256Expr:
		return tagSHA256
	case *LitByteExpr:
		return tagLitByte
	case *ReadByteExpr:
		return tagReadByte
	case *IndexWordExpr:
		return tagIndexWord
	case *ConcreteBufExpr:
		return tagConcreteBuf
	case *AbstractBufExpr:
		return tagAbstractBuf
	case *WriteByteExpr:
		return tagWriteByte
	case *WriteWordExpr:
		return tagWriteWord
	case *CopySliceExpr:
		return tagCopySlice
	case *GVarBufExpr:
		return tagGVarBuf
	case *ConcreteStoreExpr:
		return tagConcreteStore
	case *AbstractStoreExpr:
		return tagAbstractStore
	case *SStoreExpr:
		return tagSStore
	case *GVarStorageExpr:
		return tagGVarStorage
	case *LogEntryExpr:
		return tagLogEntry
	case *SymAddrExpr:
		return tagSymAddr
	case *LitAddrExpr:
		return tagLitAddr
	case *EContractExpr:
		return tagEContract
	case *PartialExpr:
		return tagPartial
	case *FailureExpr:
		return tagFailure
	case *SuccessExpr:
		return tagSuccess
	case *ITEExpr:
		return tagITE
	}
	internalError("exprTypeTag: unhandled node type %T", e)
	return -1
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return cmpInt(int(a[i]), int(b[i]))
		}
	}
	return cmpInt(len(a), len(b))
}

// compareConcreteMap orders two ConcreteMaps by walking their entries in
// key order (ConcreteMap.Iterator is always sorted) and comparing key then
// value pairwise, falling back to length once one map runs out of entries.
// This gives (I5) a genuine total order: two maps of equal length but
// differing content never compare equal, unlike a length-only comparison.
func compareConcreteMap(x, y *ConcreteMap) int {
	xi, yi := x.Iterator(), y.Iterator()
	for {
		xk, xv := xi.Next()
		yk, yv := yi.Next()
		if xk == nil && yk == nil {
			return 0
		}
		if xk == nil {
			return -1
		}
		if yk == nil {
			return 1
		}
		if c := xk.(W256).Cmp(yk.(W256)); c != 0 {
			return c
		}
		if c := xv.(W256).Cmp(yv.(W256)); c != 0 {
			return c
		}
	}
}

// cmpFallback orders values CompareExpr has no structural opinion about
// (Prop trees, EvmError/PartialExec payloads, TraceContext, contract
// snapshots embedded in End nodes) by their address string. It is a
// valid total order within one process — enough to keep an
// immutable.SortedMap well-formed — but not a structural comparison;
// two separately-built but value-equal instances may not compare equal.
func cmpFallback(a, b interface{}) int {
	return strings.Compare(fmt.Sprintf("%p", a), fmt.Sprintf("%p", b))
}

// CompareExpr implements (I5): a total order over every sort, Buf <
// Storage < Log < EWord < Byte < {EAddr, EContract, End} by sortCode,
// broken by a fixed per-sort type tag, broken by a structural
// comparison of each type's own fields.
func CompareExpr(a, b Expr) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	if c := cmpInt(sortCode(a.ExprSort()), sortCode(b.ExprSort())); c != 0 {
		return c
	}
	if c := cmpInt(int(exprTypeTag(a)), int(exprTypeTag(b))); c != 0 {
		return c
	}
	switch x := a.(type) {
	case *LitExpr:
		return x.Val.Cmp(b.(*LitExpr).Val)
	case *VarExpr:
		return strings.Compare(x.Name, b.(*VarExpr).Name)
	case *WAddrExpr:
		return CompareExpr(x.Addr, b.(*WAddrExpr).Addr)
	case *WordBinExpr:
		y := b.(*WordBinExpr)
		if c := cmpInt(int(x.Op), int(y.Op)); c != 0 {
			return c
		}
		if c := CompareExpr(x.L, y.L); c != 0 {
			return c
		}
		return CompareExpr(x.R, y.R)
	case *WordBitExpr:
		y := b.(*WordBitExpr)
		if c := cmpInt(int(x.Op), int(y.Op)); c != 0 {
			return c
		}
		if c := CompareExpr(x.L, y.L); c != 0 {
			return c
		}
		return CompareExpr(x.R, y.R)
	case *NotExpr:
		return CompareExpr(x.X, b.(*NotExpr).X)
	case *IsZeroExpr:
		return CompareExpr(x.X, b.(*IsZeroExpr).X)
	case *AddModExpr:
		y := b.(*AddModExpr)
		if c := CompareExpr(x.X, y.X); c != 0 {
			return c
		}
		if c := CompareExpr(x.Y, y.Y); c != 0 {
			return c
		}
		return CompareExpr(x.Z, y.Z)
	case *MulModExpr:
		y := b.(*MulModExpr)
		if c := CompareExpr(x.X, y.X); c != 0 {
			return c
		}
		if c := CompareExpr(x.Y, y.Y); c != 0 {
			return c
		}
		return CompareExpr(x.Z, y.Z)
	case *BufLengthExpr:
		return CompareExpr(x.Buf, b.(*BufLengthExpr).Buf)
	case *ReadWordExpr:
		y := b.(*ReadWordExpr)
		if c := CompareExpr(x.Offset, y.Offset); c != 0 {
			return c
		}
		return CompareExpr(x.Buf, y.Buf)
	case *EqByteExpr:
		y := b.(*EqByteExpr)
		if c := CompareExpr(x.A, y.A); c != 0 {
			return c
		}
		return CompareExpr(x.B, y.B)
	case *JoinBytesExpr:
		y := b.(*JoinBytesExpr)
		for i := range x.Bytes {
			if c := CompareExpr(x.Bytes[i], y.Bytes[i]); c != 0 {
				return c
			}
		}
		return 0
	case *SLoadExpr:
		y := b.(*SLoadExpr)
		if c := CompareExpr(x.Key, y.Key); c != 0 {
			return c
		}
		return CompareExpr(x.Store, y.Store)
	case *OriginExpr, *CoinbaseExpr, *TimestampExpr, *BlockNumberExpr,
		*PrevRandaoExpr, *GasLimitExpr, *ChainIdExpr, *BaseFeeExpr, *TxValueExpr:
		return 0
	case *BlockHashExpr:
		return CompareExpr(x.Number, b.(*BlockHashExpr).Number)
	case *BalanceExpr:
		return CompareExpr(x.Addr, b.(*BalanceExpr).Addr)
	case *GasExpr:
		return cmpInt(x.FrameIdx, b.(*GasExpr).FrameIdx)
	case *CodeSizeExpr:
		return CompareExpr(x.Addr, b.(*CodeSizeExpr).Addr)
	case *CodeHashExpr:
		return CompareExpr(x.Addr, b.(*CodeHashExpr).Addr)
	case *KeccakExpr:
		return CompareExpr(x.Buf, b.(*KeccakExpr).Buf)
	case *SHA256Expr:
		return CompareExpr(x.Buf, b.(*SHA256Expr).Buf)
	case *LitByteExpr:
		return cmpInt(int(x.Val), int(b.(*LitByteExpr).Val))
	case *ReadByteExpr:
		y := b.(*ReadByteExpr)
		if c := CompareExpr(x.Offset, y.Offset); c != 0 {
			return c
		}
		return CompareExpr(x.Buf, y.Buf)
	case *IndexWordExpr:
		y := b.(*IndexWordExpr)
		if c := CompareExpr(x.Idx, y.Idx); c != 0 {
			return c
		}
		return CompareExpr(x.W, y.W)
	case *ConcreteBufExpr:
		return cmpBytes(x.Bytes, b.(*ConcreteBufExpr).Bytes)
	case *AbstractBufExpr:
		return strings.Compare(x.Name, b.(*AbstractBufExpr).Name)
	case *WriteByteExpr:
		y := b.(*WriteByteExpr)
		if c := CompareExpr(x.Offset, y.Offset); c != 0 {
			return c
		}
		if c := CompareExpr(x.Val, y.Val); c != 0 {
			return c
		}
		return CompareExpr(x.Prev, y.Prev)
	case *WriteWordExpr:
		y := b.(*WriteWordExpr)
		if c := CompareExpr(x.Offset, y.Offset); c != 0 {
			return c
		}
		if c := CompareExpr(x.Val, y.Val); c != 0 {
			return c
		}
		return CompareExpr(x.Prev, y.Prev)
	case *CopySliceExpr:
		y := b.(*CopySliceExpr)
		if c := CompareExpr(x.SrcOffset, y.SrcOffset); c != 0 {
			return c
		}
		if c := CompareExpr(x.DstOffset, y.DstOffset); c != 0 {
			return c
		}
		if c := CompareExpr(x.Size, y.Size); c != 0 {
			return c
		}
		if c := CompareExpr(x.Src, y.Src); c != 0 {
			return c
		}
		return CompareExpr(x.Dst, y.Dst)
	case *GVarBufExpr:
		return cmpInt(x.Key, b.(*GVarBufExpr).Key)
	case *ConcreteStoreExpr:
		y := b.(*ConcreteStoreExpr)
		return compareConcreteMap(x.Entries, y.Entries)
	case *AbstractStoreExpr:
		y := b.(*AbstractStoreExpr)
		if c := CompareExpr(x.Addr, y.Addr); c != 0 {
			return c
		}
		switch {
		case x.LogicalID == nil && y.LogicalID == nil:
			return 0
		case x.LogicalID == nil:
			return -1
		case y.LogicalID == nil:
			return 1
		default:
			return cmpInt(*x.LogicalID, *y.LogicalID)
		}
	case *SStoreExpr:
		y := b.(*SStoreExpr)
		if c := CompareExpr(x.Key, y.Key); c != 0 {
			return c
		}
		if c := CompareExpr(x.Val, y.Val); c != 0 {
			return c
		}
		return CompareExpr(x.Prev, y.Prev)
	case *GVarStorageExpr:
		return cmpInt(x.Key, b.(*GVarStorageExpr).Key)
	case *LogEntryExpr:
		y := b.(*LogEntryExpr)
		if c := CompareExpr(x.Addr, y.Addr); c != 0 {
			return c
		}
		if c := CompareExpr(x.Data, y.Data); c != 0 {
			return c
		}
		if c := cmpInt(len(x.Topics), len(y.Topics)); c != 0 {
			return c
		}
		for i := range x.Topics {
			if c := CompareExpr(x.Topics[i], y.Topics[i]); c != 0 {
				return c
			}
		}
		return 0
	case *SymAddrExpr:
		return strings.Compare(x.Name, b.(*SymAddrExpr).Name)
	case *LitAddrExpr:
		y := b.(*LitAddrExpr)
		return cmpBytes(x.Addr[:], y.Addr[:])
	case *EContractExpr:
		y := b.(*EContractExpr)
		if c := CompareExpr(x.Storage, y.Storage); c != 0 {
			return c
		}
		if c := CompareExpr(x.TransientStorage, y.TransientStorage); c != 0 {
			return c
		}
		return CompareExpr(x.Balance, y.Balance)
	case *PartialExpr, *FailureExpr, *SuccessExpr:
		return cmpFallback(a, b)
	case *ITEExpr:
		y := b.(*ITEExpr)
		if c := CompareExpr(x.Cond, y.Cond); c != 0 {
			return c
		}
		if c := CompareExpr(x.Then, y.Then); c != 0 {
			return c
		}
		return CompareExpr(x.Else, y.Else)
	}
	internalError("CompareExpr: unhandled node type %T", a)
	return 0
}

// SomeExpr is a sort-erased handle over any Expr, used wherever a
// single ordered/hashable key across the whole algebra is needed (a
// CSE hash-consing table, or a cache keyed by subterm rather than by
// address).
type SomeExpr struct {
	E        Expr
	hash     uint64
	computed bool
}

// Some wraps e.
func Some(e Expr) *SomeExpr { return &SomeExpr{E: e} }

// Hash returns e's structural hash, computed once and cached.
func (s *SomeExpr) Hash() uint64 {
	if !s.computed {
		s.hash = HashExpr(s.E)
		s.computed = true
	}
	return s.hash
}

// someExprComparer orders SomeExpr values via CompareExpr, for use as
// an immutable.SortedMap comparer over mixed-sort keys.
type someExprComparer struct{}

func (someExprComparer) Compare(a, b interface{}) int {
	return CompareExpr(a.(*SomeExpr).E, b.(*SomeExpr).E)
}

// HashExpr computes a structural hash of e: a node reachable by two
// equal-shaped term trees always hashes the same, letting a
// hash-consing table (spec's CSE pass, out of scope here, but this is
// the seam it would plug into) use SomeExpr as a map key without first
// paying for a full CompareExpr.
func HashExpr(e Expr) uint64 {
	d := xxhash.New()
	writeExprHash(d, e)
	return d.Sum64()
}

func writeU64(d *xxhash.Digest, v uint64) {
	var bs [8]byte
	for i := 0; i < 8; i++ {
		bs[i] = byte(v >> (8 * i))
	}
	d.Write(bs[:])
}

func writeExprHash(d *xxhash.Digest, e Expr) {
	if e == nil {
		d.Write([]byte{0xFF})
		return
	}
	writeU64(d, uint64(sortCode(e.ExprSort())))
	writeU64(d, uint64(exprTypeTag(e)))
	switch x := e.(type) {
	case *LitExpr:
		d.Write(Word256Bytes(x.Val))
	case *VarExpr:
		d.Write([]byte(x.Name))
	case *WAddrExpr:
		writeExprHash(d, x.Addr)
	case *WordBinExpr:
		writeU64(d, uint64(x.Op))
		writeExprHash(d, x.L)
		writeExprHash(d, x.R)
	case *WordBitExpr:
		writeU64(d, uint64(x.Op))
		writeExprHash(d, x.L)
		writeExprHash(d, x.R)
	case *NotExpr:
		writeExprHash(d, x.X)
	case *IsZeroExpr:
		writeExprHash(d, x.X)
	case *AddModExpr:
		writeExprHash(d, x.X)
		writeExprHash(d, x.Y)
		writeExprHash(d, x.Z)
	case *MulModExpr:
		writeExprHash(d, x.X)
		writeExprHash(d, x.Y)
		writeExprHash(d, x.Z)
	case *BufLengthExpr:
		writeExprHash(d, x.Buf)
	case *ReadWordExpr:
		writeExprHash(d, x.Offset)
		writeExprHash(d, x.Buf)
	case *EqByteExpr:
		writeExprHash(d, x.A)
		writeExprHash(d, x.B)
	case *JoinBytesExpr:
		for _, b := range x.Bytes {
			writeExprHash(d, b)
		}
	case *SLoadExpr:
		writeExprHash(d, x.Key)
		writeExprHash(d, x.Store)
	case *BlockHashExpr:
		writeExprHash(d, x.Number)
	case *BalanceExpr:
		writeExprHash(d, x.Addr)
	case *GasExpr:
		writeU64(d, uint64(x.FrameIdx))
	case *CodeSizeExpr:
		writeExprHash(d, x.Addr)
	case *CodeHashExpr:
		writeExprHash(d, x.Addr)
	case *KeccakExpr:
		writeExprHash(d, x.Buf)
	case *SHA256Expr:
		writeExprHash(d, x.Buf)
	case *LitByteExpr:
		d.Write([]byte{x.Val})
	case *ReadByteExpr:
		writeExprHash(d, x.Offset)
		writeExprHash(d, x.Buf)
	case *IndexWordExpr:
		writeExprHash(d, x.Idx)
		writeExprHash(d, x.W)
	case *ConcreteBufExpr:
		d.Write(x.Bytes)
	case *AbstractBufExpr:
		d.Write([]byte(x.Name))
	case *WriteByteExpr:
		writeExprHash(d, x.Offset)
		writeExprHash(d, x.Val)
		writeExprHash(d, x.Prev)
	case *WriteWordExpr:
		writeExprHash(d, x.Offset)
		writeExprHash(d, x.Val)
		writeExprHash(d, x.Prev)
	case *CopySliceExpr:
		writeExprHash(d, x.SrcOffset)
		writeExprHash(d, x.DstOffset)
		writeExprHash(d, x.Size)
		writeExprHash(d, x.Src)
		writeExprHash(d, x.Dst)
	case *GVarBufExpr:
		writeU64(d, uint64(x.Key))
	case *ConcreteStoreExpr:
		itr := x.Entries.Iterator()
		for !itr.Done() {
			k, v := itr.Next()
			d.Write(Word256Bytes(k.(W256)))
			d.Write(Word256Bytes(v.(W256)))
		}
	case *AbstractStoreExpr:
		writeExprHash(d, x.Addr)
		if x.LogicalID != nil {
			writeU64(d, uint64(*x.LogicalID))
		}
	case *SStoreExpr:
		writeExprHash(d, x.Key)
		writeExprHash(d, x.Val)
		writeExprHash(d, x.Prev)
	case *GVarStorageExpr:
		writeU64(d, uint64(x.Key))
	case *LogEntryExpr:
		writeExprHash(d, x.Addr)
		writeExprHash(d, x.Data)
		for _, t := range x.Topics {
			writeExprHash(d, t)
		}
	case *SymAddrExpr:
		d.Write([]byte(x.Name))
	case *LitAddrExpr:
		d.Write(x.Addr[:])
	case *EContractExpr:
		writeExprHash(d, x.Storage)
		writeExprHash(d, x.TransientStorage)
		writeExprHash(d, x.Balance)
	case *ITEExpr:
		writeExprHash(d, x.Cond)
		writeExprHash(d, x.Then)
		writeExprHash(d, x.Else)
	default:
		// OriginExpr/.../TxValueExpr (nullary) and the End snapshot
		// terms (Partial/Failure/Success) carry no further structure
		// this hash distinguishes on; the type tag already written
		// above is enough to separate them from everything else.
	}
}

// Children returns e's immediate Expr-sorted subterms, the traversal
// primitive WalkExpr and FreeVars are built on.
func Children(e Expr) []Expr {
	switch x := e.(type) {
	case *WAddrExpr:
		return []Expr{x.Addr}
	case *WordBinExpr:
		return []Expr{x.L, x.R}
	case *WordBitExpr:
		return []Expr{x.L, x.R}
	case *NotExpr:
		return []Expr{x.X}
	case *IsZeroExpr:
		return []Expr{x.X}
	case *AddModExpr:
		return []Expr{x.X, x.Y, x.Z}
	case *MulModExpr:
		return []Expr{x.X, x.Y, x.Z}
	case *BufLengthExpr:
		return []Expr{x.Buf}
	case *ReadWordExpr:
		return []Expr{x.Offset, x.Buf}
	case *EqByteExpr:
		return []Expr{x.A, x.B}
	case *JoinBytesExpr:
		out := make([]Expr, len(x.Bytes))
		for i, b := range x.Bytes {
			out[i] = b
		}
		return out
	case *SLoadExpr:
		return []Expr{x.Key, x.Store}
	case *BlockHashExpr:
		return []Expr{x.Number}
	case *BalanceExpr:
		return []Expr{x.Addr}
	case *CodeSizeExpr:
		return []Expr{x.Addr}
	case *CodeHashExpr:
		return []Expr{x.Addr}
	case *KeccakExpr:
		return []Expr{x.Buf}
	case *SHA256Expr:
		return []Expr{x.Buf}
	case *ReadByteExpr:
		return []Expr{x.Offset, x.Buf}
	case *IndexWordExpr:
		return []Expr{x.Idx, x.W}
	case *WriteByteExpr:
		return []Expr{x.Offset, x.Val, x.Prev}
	case *WriteWordExpr:
		return []Expr{x.Offset, x.Val, x.Prev}
	case *CopySliceExpr:
		return []Expr{x.SrcOffset, x.DstOffset, x.Size, x.Src, x.Dst}
	case *AbstractStoreExpr:
		return []Expr{x.Addr}
	case *SStoreExpr:
		return []Expr{x.Key, x.Val, x.Prev}
	case *LogEntryExpr:
		out := []Expr{x.Addr, x.Data}
		for _, t := range x.Topics {
			out = append(out, t)
		}
		return out
	case *EContractExpr:
		return []Expr{x.Storage, x.TransientStorage, x.Balance}
	case *ITEExpr:
		return []Expr{x.Cond, x.Then, x.Else}
	default:
		return nil
	}
}

// WalkExpr visits e and every Expr-sorted subterm reachable from it, in
// pre-order, calling visit on each. visit returning false prunes that
// subtree.
func WalkExpr(e Expr, visit func(Expr) bool) {
	if e == nil || !visit(e) {
		return
	}
	for _, c := range Children(e) {
		WalkExpr(c, visit)
	}
}

// FreeVars collects the names of every free symbolic leaf reachable
// from e: word variables, symbolic addresses, and abstract buffers.
// Duplicate names are reported once.
func FreeVars(e Expr) []string {
	seen := map[string]bool{}
	var names []string
	WalkExpr(e, func(n Expr) bool {
		var name string
		switch v := n.(type) {
		case *VarExpr:
			name = v.Name
		case *SymAddrExpr:
			name = v.Name
		case *AbstractBufExpr:
			name = v.Name
		default:
			return true
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		return true
	})
	return names
}
