package symevm

import "github.com/benbjohnson/immutable"

// w256Comparer orders W256 keys for immutable.SortedMap, the same role
// uint64Comparer plays in the teacher's execution state heap.
type w256Comparer struct{}

func (w256Comparer) Compare(a, b interface{}) int {
	return a.(W256).Cmp(b.(W256))
}

// ConcreteMap is a persistent W256->W256 map, the backing representation
// for ConcreteStoreExpr and for ConcreteBuf-adjacent word lookups.
type ConcreteMap struct {
	m *immutable.SortedMap
}

// NewConcreteMap returns an empty ConcreteMap.
func NewConcreteMap() *ConcreteMap {
	return &ConcreteMap{m: immutable.NewSortedMap(w256Comparer{})}
}

// Get returns the value stored at k, or (0, false) if unset.
func (c *ConcreteMap) Get(k W256) (W256, bool) {
	if c == nil {
		return W256{}, false
	}
	v, ok := c.m.Get(k)
	if !ok {
		return W256{}, false
	}
	return v.(W256), true
}

// Set returns a new ConcreteMap with k bound to v, sharing structure with
// c for all other keys.
func (c *ConcreteMap) Set(k, v W256) *ConcreteMap {
	if c == nil {
		c = NewConcreteMap()
	}
	return &ConcreteMap{m: c.m.Set(k, v)}
}

// Len returns the number of bound keys.
func (c *ConcreteMap) Len() int {
	if c == nil {
		return 0
	}
	return c.m.Len()
}

// Iterator returns an iterator over (W256, W256) pairs in key order.
func (c *ConcreteMap) Iterator() *immutable.SortedMapIterator {
	if c == nil {
		c = NewConcreteMap()
	}
	return c.m.Iterator()
}

// Union returns a new ConcreteMap containing every binding from c and
// other; where both define a key, other's value wins.
func (c *ConcreteMap) Union(other *ConcreteMap) *ConcreteMap {
	result := c
	if result == nil {
		result = NewConcreteMap()
	}
	itr := other.Iterator()
	for !itr.Done() {
		k, v := itr.Next()
		result = result.Set(k.(W256), v.(W256))
	}
	return result
}

// Equal reports whether c and other bind exactly the same keys to the
// same values.
func (c *ConcreteMap) Equal(other *ConcreteMap) bool {
	if c.Len() != other.Len() {
		return false
	}
	itr := c.Iterator()
	for !itr.Done() {
		k, v := itr.Next()
		ov, ok := other.Get(k.(W256))
		if !ok || ov.Cmp(v.(W256)) != 0 {
			return false
		}
	}
	return true
}

// ConcreteStoreExpr is a fully concrete storage mapping. Per (I1), any
// SStore chain whose keys and values are all literal must reduce to this
// form rather than staying a linked SStoreExpr chain.
type ConcreteStoreExpr struct {
	Entries *ConcreteMap
}

func (*ConcreteStoreExpr) ExprSort() Sort  { return SortStorage }
func (*ConcreteStoreExpr) sealedStorage() {}

// ConcreteStore constructs a Storage term directly from a concrete map.
func ConcreteStore(m *ConcreteMap) Storage { return &ConcreteStoreExpr{Entries: m} }

// AbstractStoreExpr is a fully symbolic storage mapping for a contract.
// LogicalID distinguishes multiple abstract stores for the same address
// across forked execution paths (e.g. pre/post a symbolic call); nil
// means "the" abstract store for Addr.
type AbstractStoreExpr struct {
	Addr      EAddr
	LogicalID *int
}

func (*AbstractStoreExpr) ExprSort() Sort  { return SortStorage }
func (*AbstractStoreExpr) sealedStorage() {}

// AbstractStore constructs a fully symbolic Storage term for addr.
func AbstractStore(addr EAddr, logicalID *int) Storage {
	return &AbstractStoreExpr{Addr: addr, LogicalID: logicalID}
}

// SStoreExpr records a single write into a predecessor store. Per (I3),
// it always carries Prev explicitly; there is no implicit ambient store.
type SStoreExpr struct {
	Key  EWord
	Val  EWord
	Prev Storage
}

func (*SStoreExpr) ExprSort() Sort  { return SortStorage }
func (*SStoreExpr) sealedStorage() {}

// SStore writes val at key over prev, folding into a ConcreteStoreExpr
// when key, val, and prev are all concrete (I1), and collapsing a
// redundant overwrite of the same literal key at the head of the chain
// (mirroring the array update-chain collapse the teacher's
// Array.storeByte performs for ArrayUpdate chains).
func SStore(key, val EWord, prev Storage) Storage {
	if litKey, ok := maybeLitWord(key); ok {
		if litVal, ok := maybeLitWord(val); ok {
			if cmap, ok := maybeConcreteStore(prev); ok {
				return ConcreteStore(cmap.Set(litKey, litVal))
			}
		}
		if head, ok := prev.(*SStoreExpr); ok {
			if headKey, ok := maybeLitWord(head.Key); ok && headKey.Cmp(litKey) == 0 {
				return SStore(key, val, head.Prev)
			}
		}
	}
	return &SStoreExpr{Key: key, Val: val, Prev: prev}
}

// SLoadExpr reads a key from a store that could not be resolved to a
// literal at construction time.
type SLoadExpr struct {
	Key   EWord
	Store Storage
}

func (*SLoadExpr) ExprSort() Sort { return SortEWord }
func (*SLoadExpr) sealedEWord()   {}

// SLoad reads key from store. Per (I1): a concrete key against a
// ConcreteStoreExpr resolves immediately (unset keys read as zero, per
// the Solidity default-value convention); a concrete key against a
// matching SStoreExpr head resolves to that write's value without
// walking further; otherwise a raw SLoadExpr is built.
func SLoad(key EWord, store Storage) EWord {
	litKey, litKeyOK := maybeLitWord(key)
	if litKeyOK {
		if cmap, ok := maybeConcreteStore(store); ok {
			if v, found := cmap.Get(litKey); found {
				return Lit(v)
			}
			return Lit(W256{})
		}
		if head, ok := store.(*SStoreExpr); ok {
			if headKey, ok := maybeLitWord(head.Key); ok && headKey.Cmp(litKey) == 0 {
				return head.Val
			}
		}
	}
	return &SLoadExpr{Key: key, Store: store}
}
