package symevm

import "golang.org/x/crypto/sha3"

// Keccak256 returns the 32-byte Keccak-256 digest of bs. This is the
// pre-standardization Keccak, not NIST SHA3-256 — the hash the EVM's
// KECCAK256 opcode and EIP-55 checksum both use.
func Keccak256(bs []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(bs)
	return h.Sum(nil)
}

// AbiKeccak returns the 4-byte ABI function selector for sig: the first
// four bytes of Keccak256(sig), packed big-endian into a FunctionSelector.
func AbiKeccak(sig []byte) FunctionSelector {
	h := Keccak256(sig)
	return FunctionSelector(uint32(h[0])<<24 | uint32(h[1])<<16 | uint32(h[2])<<8 | uint32(h[3]))
}
