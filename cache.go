package symevm

import (
	"bytes"

	"github.com/benbjohnson/immutable"
)

// CodeLocation identifies a single PC within a contract's code, the key
// branch/iteration bookkeeping is indexed by.
type CodeLocation struct {
	Addr Addr
	PC   int
}

type addrComparer struct{}

func (addrComparer) Compare(a, b interface{}) int {
	x, y := a.(Addr), b.(Addr)
	return bytes.Compare(x[:], y[:])
}

type codeLocationComparer struct{}

func (codeLocationComparer) Compare(a, b interface{}) int {
	x, y := a.(CodeLocation), b.(CodeLocation)
	if c := bytes.Compare(x.Addr[:], y.Addr[:]); c != 0 {
		return c
	}
	switch {
	case x.PC < y.PC:
		return -1
	case x.PC > y.PC:
		return 1
	default:
		return 0
	}
}

// PathKey identifies one branch decision at one code location, the key
// the path cache remembers a forced outcome under.
type PathKey struct {
	Loc    CodeLocation
	Branch uint32
}

type pathKeyComparer struct{}

func (pathKeyComparer) Compare(a, b interface{}) int {
	x, y := a.(PathKey), b.(PathKey)
	if c := (codeLocationComparer{}).Compare(x.Loc, y.Loc); c != 0 {
		return c
	}
	switch {
	case x.Branch < y.Branch:
		return -1
	case x.Branch > y.Branch:
		return 1
	default:
		return 0
	}
}

// Cache memoizes fetched contracts and previously-forced branch
// outcomes across the exploration of a symbolic execution tree. It
// forms a commutative monoid under Merge (see spec §4.7): path entries
// union (a collision implies the two explorations agreed), and fetched
// contracts merge per-address via unifyCachedContract.
type Cache struct {
	Fetched *immutable.SortedMap // Addr -> *Contract
	Path    *immutable.SortedMap // PathKey -> bool
}

// NewCache returns the empty Cache, the monoid's identity element.
func NewCache() *Cache {
	return &Cache{
		Fetched: immutable.NewSortedMap(addrComparer{}),
		Path:    immutable.NewSortedMap(pathKeyComparer{}),
	}
}

// WithFetched returns a new Cache recording that addr's code/state is ct.
func (c *Cache) WithFetched(addr Addr, ct *Contract) *Cache {
	return &Cache{Fetched: c.Fetched.Set(addr, ct), Path: c.Path}
}

// GetFetched returns the cached Contract for addr, if any.
func (c *Cache) GetFetched(addr Addr) (*Contract, bool) {
	v, ok := c.Fetched.Get(addr)
	if !ok {
		return nil, false
	}
	return v.(*Contract), true
}

// WithPath returns a new Cache recording that the branch at loc was
// forced to taken.
func (c *Cache) WithPath(loc CodeLocation, branch uint32, taken bool) *Cache {
	return &Cache{Fetched: c.Fetched, Path: c.Path.Set(PathKey{Loc: loc, Branch: branch}, taken)}
}

// GetPath returns the remembered outcome for (loc, branch), if any.
func (c *Cache) GetPath(loc CodeLocation, branch uint32) (bool, bool) {
	v, ok := c.Path.Get(PathKey{Loc: loc, Branch: branch})
	if !ok {
		return false, false
	}
	return v.(bool), true
}

// unifyCachedContract merges two cache entries discovered for the same
// address along different exploration paths: a's bookkeeping wins, but
// if both sides resolved to a concrete storage map, the merged entry
// keeps the union of both maps (per spec §4.7 — a purely additive
// union is sound because two concrete observations of the same address
// can only disagree if the cache itself was corrupted upstream).
func unifyCachedContract(a, b *Contract) *Contract {
	merged := a.Clone()
	if sa, ok := maybeConcreteStore(a.Storage); ok {
		if sb, ok := maybeConcreteStore(b.Storage); ok {
			merged.Storage = ConcreteStore(sa.Union(sb))
		}
	}
	return merged
}

// MergeCache combines a and b, the Cache monoid's binary operation.
func MergeCache(a, b *Cache) *Cache {
	result := &Cache{Fetched: a.Fetched, Path: a.Path}

	itr := b.Path.Iterator()
	for !itr.Done() {
		k, v := itr.Next()
		result.Path = result.Path.Set(k, v)
	}

	itr2 := b.Fetched.Iterator()
	for !itr2.Done() {
		k, v := itr2.Next()
		addr := k.(Addr)
		bContract := v.(*Contract)
		if existing, ok := result.Fetched.Get(addr); ok {
			result.Fetched = result.Fetched.Set(addr, unifyCachedContract(existing.(*Contract), bContract))
		} else {
			result.Fetched = result.Fetched.Set(addr, bContract)
		}
	}

	return result
}
