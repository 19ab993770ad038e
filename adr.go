package hsig

import "encoding/binary"

// adrLen is the size of an ADR address in bytes (§4.1).
const adrLen = 22

// adr is a 22-byte domain-separation tag for tweakable hashes. It is
// modeled as a fixed byte array with named field writers rather than a
// struct of disjoint fields, because several fields alias the same
// storage (chain_address/tree_height share bytes 14..17,
// hash_address/tree_index share bytes 18..21) — an encoding choice, not
// a pointer cycle (§9 "Cyclic/aliased storage").
type adr [adrLen]byte

// setLayer writes the layer_address byte (offset 0).
func (a *adr) setLayer(layer byte) { a[0] = layer }

// setTree writes the 8-byte big-endian tree_address (offset 1).
func (a *adr) setTree(tree uint64) { binary.BigEndian.PutUint64(a[1:9], tree) }

// setType writes the type byte (offset 9) and zeroes bytes 10..21, per
// §4.1: "set_type(T) writes T at offset 9 and zeroes bytes 10..21."
// Every other setter below assumes set_type has already run for the
// hash being prepared.
func (a *adr) setType(t adrType) {
	a[9] = byte(t)
	for i := 10; i < adrLen; i++ {
		a[i] = 0
	}
}

// setKeyPairAddress writes the low byte of the 4-byte key_pair_address
// field (offset 10..13); only the last byte is ever nonzero.
func (a *adr) setKeyPairAddress(v uint32) {
	a[10], a[11], a[12] = 0, 0, 0
	a[13] = byte(v)
}

// setChainAddress writes the 4-byte chain_address (offset 14..17), which
// aliases tree_height.
func (a *adr) setChainAddress(v uint32) { binary.BigEndian.PutUint32(a[14:18], v) }

// setTreeHeight writes the same 4 bytes as setChainAddress, under its
// alternate name used when the ADR parameterizes a Merkle-tree hash
// rather than a WOTS+ chain step.
func (a *adr) setTreeHeight(v uint32) { binary.BigEndian.PutUint32(a[14:18], v) }

// setHashAddress writes only the lowest byte of the 4-byte hash_address
// field (offset 18..21), clearing the two bytes above it because
// setTreeIndex may have left them nonzero (§4.1).
func (a *adr) setHashAddress(v byte) {
	a[19], a[20] = 0, 0
	a[21] = v
}

// setTreeIndex writes the full 4-byte tree_index, aliasing hash_address.
func (a *adr) setTreeIndex(v uint32) { binary.BigEndian.PutUint32(a[18:22], v) }

// bytes returns the address's 22-byte encoding.
func (a *adr) bytes() []byte { return a[:] }

// putBigEndian writes the low len(dst) bytes of v into dst, big-endian.
func putBigEndian(dst []byte, v uint64) {
	for i := len(dst) - 1; i >= 0; i-- {
		dst[i] = byte(v)
		v >>= 8
	}
}

// getBigEndian interprets src as a big-endian unsigned integer.
func getBigEndian(src []byte) (v uint64) {
	for _, b := range src {
		v = (v << 8) | uint64(b)
	}
	return v
}
