package symevm

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// W256 is an unsigned 256-bit integer with wrapping arithmetic, matching
// the EVM word type. It wraps uint256.Int, the representation the bsc and
// erigon EVM implementations in the retrieval pack standardize on.
type W256 struct {
	v uint256.Int
}

// NewW256 returns a W256 set to n.
func NewW256(n uint64) W256 {
	var w W256
	w.v.SetUint64(n)
	return w
}

// Word256 parses up to 32 bytes big-endian, left-padding with zeros.
// Single-byte input takes a fast path.
func Word256(bs []byte) W256 {
	if len(bs) == 1 {
		return NewW256(uint64(bs[0]))
	}
	assert(len(bs) <= 32, "word256: input too long: %d", len(bs))
	var w W256
	w.v.SetBytes(bs)
	return w
}

// Word256Bytes returns the 32-byte big-endian encoding of w.
func Word256Bytes(w W256) []byte {
	b := w.v.Bytes32()
	return b[:]
}

// IsZero reports whether w is zero.
func (w W256) IsZero() bool { return w.v.IsZero() }

// Cmp compares w to other: -1, 0, or 1.
func (w W256) Cmp(other W256) int { return w.v.Cmp(&other.v) }

// Add returns w+other with wraparound.
func (w W256) Add(other W256) W256 { var r W256; r.v.Add(&w.v, &other.v); return r }

// Sub returns w-other with wraparound.
func (w W256) Sub(other W256) W256 { var r W256; r.v.Sub(&w.v, &other.v); return r }

// Mul returns w*other with wraparound.
func (w W256) Mul(other W256) W256 { var r W256; r.v.Mul(&w.v, &other.v); return r }

// Div returns the unsigned quotient of w/other, or zero if other is zero.
func (w W256) Div(other W256) W256 { var r W256; r.v.Div(&w.v, &other.v); return r }

// Mod returns the unsigned remainder of w%other, or zero if other is zero.
func (w W256) Mod(other W256) W256 { var r W256; r.v.Mod(&w.v, &other.v); return r }

// And returns the bitwise AND of w and other.
func (w W256) And(other W256) W256 { var r W256; r.v.And(&w.v, &other.v); return r }

// Or returns the bitwise OR of w and other.
func (w W256) Or(other W256) W256 { var r W256; r.v.Or(&w.v, &other.v); return r }

// Xor returns the bitwise XOR of w and other.
func (w W256) Xor(other W256) W256 { var r W256; r.v.Xor(&w.v, &other.v); return r }

// Not returns the bitwise complement of w.
func (w W256) Not() W256 { var r W256; r.v.Not(&w.v); return r }

// Shl returns w shifted left by n bits (n taken mod nothing; shifts >= 256
// yield zero, matching EVM SHL).
func (w W256) Shl(n uint) W256 {
	if n >= 256 {
		return W256{}
	}
	var r W256
	r.v.Lsh(&w.v, n)
	return r
}

// Shr returns w shifted right (logical) by n bits.
func (w W256) Shr(n uint) W256 {
	if n >= 256 {
		return W256{}
	}
	var r W256
	r.v.Rsh(&w.v, n)
	return r
}

// signed returns the two's-complement signed interpretation of w as a
// math/big value. Used only for the signed operations (SDIV, SMOD, SAR,
// SLT, SGT) where uint256's native wrapping semantics don't apply.
func (w W256) signed() *big.Int {
	b := w.v.ToBig()
	if b.Bit(255) == 1 {
		// top bit set: negative in two's complement.
		mod := new(big.Int).Lsh(big.NewInt(1), 256)
		return new(big.Int).Sub(b, mod)
	}
	return b
}

func fromSignedBig(b *big.Int) W256 {
	mod := new(big.Int).Lsh(big.NewInt(1), 256)
	m := new(big.Int).Mod(b, mod)
	var w W256
	w.v.SetFromBig(m)
	return w
}

// SDiv returns the signed quotient of w/other (two's complement), zero if
// other is zero, matching EVM SDIV semantics (truncating division, and
// MinInt256/-1 wraps to MinInt256).
func (w W256) SDiv(other W256) W256 {
	if other.IsZero() {
		return W256{}
	}
	a, b := w.signed(), other.signed()
	q := new(big.Int).Quo(a, b)
	return fromSignedBig(q)
}

// SMod returns the signed remainder of w%other, zero if other is zero.
func (w W256) SMod(other W256) W256 {
	if other.IsZero() {
		return W256{}
	}
	a, b := w.signed(), other.signed()
	r := new(big.Int).Rem(a, b)
	return fromSignedBig(r)
}

// SAR returns w arithmetically shifted right by n bits (sign-extending).
func (w W256) SAR(n uint) W256 {
	a := w.signed()
	if n >= 256 {
		if a.Sign() < 0 {
			return W256{v: *uint256.NewInt(0).Not(uint256.NewInt(0))}
		}
		return W256{}
	}
	r := new(big.Int).Rsh(a, n)
	return fromSignedBig(r)
}

// Slt reports whether w is signed-less-than other.
func (w W256) Slt(other W256) bool { return w.signed().Cmp(other.signed()) < 0 }

// Sgt reports whether w is signed-greater-than other.
func (w W256) Sgt(other W256) bool { return w.signed().Cmp(other.signed()) > 0 }

// Min returns the smaller of w and other (unsigned).
func (w W256) Min(other W256) W256 {
	if w.Cmp(other) <= 0 {
		return w
	}
	return other
}

// Max returns the larger of w and other (unsigned).
func (w W256) Max(other W256) W256 {
	if w.Cmp(other) >= 0 {
		return w
	}
	return other
}

// Exp returns w**other mod 2**256, matching EVM EXP.
func (w W256) Exp(other W256) W256 {
	var r W256
	r.v.Exp(&w.v, &other.v)
	return r
}

// SignExtend implements EVM SIGNEXTEND(k, w): treats byte k (0-indexed
// from the least-significant byte) of w as the sign byte and extends it
// through the remaining higher-order bytes. k >= 31 returns w unchanged.
func (w W256) SignExtend(k W256) W256 {
	if !k.FitsUint64() || k.Uint64() >= 31 {
		return w
	}
	byteIdx := int(k.Uint64())
	bs := Word256Bytes(w)
	// bs is big-endian; the sign bit lives at byte (31-byteIdx).
	signByte := bs[31-byteIdx]
	negative := signByte&0x80 != 0
	for i := 0; i < 31-byteIdx; i++ {
		if negative {
			bs[i] = 0xFF
		} else {
			bs[i] = 0x00
		}
	}
	return Word256(bs)
}

// ByteAt returns the byte at big-endian index i (0 = most significant
// byte), or zero if i >= 32, matching EVM BYTE/IndexWord semantics.
func (w W256) ByteAt(i int) byte {
	if i < 0 || i >= 32 {
		return 0
	}
	return Word256Bytes(w)[i]
}

// Uint64 returns the low 64 bits of w.
func (w W256) Uint64() uint64 { return w.v.Uint64() }

// FitsUint64 reports whether w fits in 64 bits without truncation.
func (w W256) FitsUint64() bool { return w.v.IsUint64() }

// String renders w as lowercase 0x-hex with no padding, per spec.md's Show
// form for W256.
func (w W256) String() string {
	trimmed := strings.TrimLeft(hex.EncodeToString(Word256Bytes(w)), "0")
	if trimmed == "" {
		trimmed = "0"
	}
	return "0x" + trimmed
}

// MarshalJSON renders w as "0x"+64 lowercase hex nibbles, zero-padded.
func (w W256) MarshalJSON() ([]byte, error) {
	return []byte(`"0x` + hex.EncodeToString(Word256Bytes(w)) + `"`), nil
}

// UnmarshalJSON parses the W256 JSON string form. "0x" alone is zero.
func (w *W256) UnmarshalJSON(data []byte) error {
	s, err := unquoteHexString(data)
	if err != nil {
		return err
	}
	bs, err := readHex(s)
	if err != nil {
		return err
	}
	*w = Word256(bs)
	return nil
}

// W64 is an unsigned 64-bit integer, hex-printed.
type W64 uint64

// String renders w as lowercase 0x-hex, unpadded.
func (w W64) String() string { return fmt.Sprintf("0x%x", uint64(w)) }

// MarshalJSON renders w as "0x"+hex, unpadded.
func (w W64) MarshalJSON() ([]byte, error) {
	return []byte(`"` + w.String() + `"`), nil
}

// UnmarshalJSON parses the W64 JSON string form.
func (w *W64) UnmarshalJSON(data []byte) error {
	s, err := unquoteHexString(data)
	if err != nil {
		return err
	}
	bs, err := readHex(s)
	if err != nil {
		return err
	}
	var v uint64
	for _, b := range bs {
		v = v<<8 | uint64(b)
	}
	*w = W64(v)
	return nil
}

// Addr is a 160-bit Ethereum address.
type Addr [20]byte

// NewAddr returns an Addr parsed from up to 20 bytes, big-endian,
// left-padded with zeros.
func NewAddr(bs []byte) Addr {
	assert(len(bs) <= 20, "addr: input too long: %d", len(bs))
	var a Addr
	copy(a[20-len(bs):], bs)
	return a
}

// Bytes returns the 20-byte big-endian encoding of a.
func (a Addr) Bytes() []byte { return a[:] }

// Word160Bytes returns the 20-byte big-endian encoding of a.
func Word160Bytes(a Addr) []byte { return a.Bytes() }

// Hex returns the lowercase 0x-hex form, zero-padded to 40 nibbles.
func (a Addr) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

// String renders a using the EIP-55 mixed-case checksum, per spec.md's
// distinction between the JSON form (plain lowercase) and the Show form
// (checksummed).
func (a Addr) String() string {
	checksummed, err := toChecksumAddress(hex.EncodeToString(a[:]))
	if err != nil {
		internalError("addr: checksum: %v", err)
	}
	return "0x" + checksummed
}

// MarshalJSON renders a as "0x"+40 lowercase hex nibbles (not checksummed).
func (a Addr) MarshalJSON() ([]byte, error) {
	return []byte(`"0x` + hex.EncodeToString(a[:]) + `"`), nil
}

// UnmarshalJSON parses the Addr JSON string form.
func (a *Addr) UnmarshalJSON(data []byte) error {
	s, err := unquoteHexString(data)
	if err != nil {
		return err
	}
	bs, err := readHex(s)
	if err != nil {
		return err
	}
	*a = NewAddr(bs)
	return nil
}

// toChecksumAddress implements EIP-55: keccak256 the lowercase ascii hex
// digits, then upper-case each hex digit of s whose corresponding nibble
// in the hash is >= 8.
func toChecksumAddress(s string) (string, error) {
	s = strings.ToLower(strings.TrimPrefix(s, "0x"))
	if len(s) != 40 {
		return "", fmt.Errorf("symevm: toChecksumAddress: expected 40 hex chars, got %d", len(s))
	}
	hashed := Keccak256([]byte(s))
	nibbles := unpackNibbles(hashed)

	var sb strings.Builder
	for i, c := range s {
		if c >= '0' && c <= '9' {
			sb.WriteRune(c)
			continue
		}
		if nibbles[i] >= 8 {
			sb.WriteRune(c - 'a' + 'A')
		} else {
			sb.WriteRune(c)
		}
	}
	return sb.String(), nil
}

// Word512 is an unsigned 512-bit integer, used only for the full-width
// intermediates ADDMOD and MULMOD require.
type Word512 struct {
	hi, lo uint256.Int
}

// To512 zero-extends w into a Word512.
func To512(w W256) Word512 {
	return Word512{lo: w.v}
}

// From512 truncates a Word512 to its low 256 bits.
func From512(w Word512) W256 {
	return W256{v: w.lo}
}

// Add512 returns the 512-bit sum of a and b.
func Add512(a, b Word512) Word512 {
	var lo, carry uint256.Int
	lo.Add(&a.lo, &b.lo)
	if lo.Cmp(&a.lo) < 0 { // overflow
		carry.SetUint64(1)
	}
	var hi uint256.Int
	hi.Add(&a.hi, &b.hi)
	hi.Add(&hi, &carry)
	return Word512{hi: hi, lo: lo}
}

// Mul512 returns the full 512-bit product of two 256-bit words. The product
// is computed exactly with math/big and then split into halves; there is
// no limb-wise (schoolbook) multiplication over the high/low halves.
func Mul512(a, b W256) Word512 {
	ab := new(big.Int).Mul(a.v.ToBig(), b.v.ToBig())
	return word512FromBig(ab)
}

// Mod512By256 returns a % m as a W256, where a is a 512-bit intermediate
// and m is a 256-bit modulus. Returns zero if m is zero (matching ADDMOD's
// and MULMOD's EVM semantics).
func Mod512By256(a Word512, m W256) W256 {
	if m.IsZero() {
		return W256{}
	}
	ab := word512ToBig(a)
	r := new(big.Int).Mod(ab, m.v.ToBig())
	var w W256
	w.v.SetFromBig(r)
	return w
}

func word512ToBig(w Word512) *big.Int {
	hi := new(big.Int).Lsh(w.hi.ToBig(), 256)
	return new(big.Int).Add(hi, w.lo.ToBig())
}

func word512FromBig(b *big.Int) Word512 {
	mod256 := new(big.Int).Lsh(big.NewInt(1), 256)
	lo := new(big.Int).Mod(b, mod256)
	hi := new(big.Int).Rsh(b, 256)
	var w Word512
	w.lo.SetFromBig(lo)
	w.hi.SetFromBig(new(big.Int).Mod(hi, mod256))
	return w
}

// Nibble is a 4-bit value.
type Nibble = uint8

// HiNibble returns the high nibble of b.
func HiNibble(b byte) Nibble { return Nibble(b >> 4) }

// LoNibble returns the low nibble of b.
func LoNibble(b byte) Nibble { return Nibble(b & 0x0F) }

// ToByte packs a high/low nibble pair into a byte.
func ToByte(hi, lo Nibble) byte { return hi<<4 | lo&0x0F }

// FunctionSelector is a 4-byte ABI function selector.
type FunctionSelector uint32

// paddedShowHex renders n in lowercase hex, zero-padded on the left to
// width characters.
func paddedShowHex(width int, n uint64) string {
	s := fmt.Sprintf("%x", n)
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

func unquoteHexString(data []byte) (string, error) {
	var s string
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		s = string(data[1 : len(data)-1])
	} else {
		return "", fmt.Errorf("symevm: expected quoted string, got %q", data)
	}
	return s, nil
}

// readHex parses a "0x"-prefixed hex string. "0x" alone parses as zero
// bytes, per spec.md §6.
func readHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return nil, nil
	}
	if len(s)%2 != 0 {
		s = "0" + s
	}
	return hex.DecodeString(s)
}
