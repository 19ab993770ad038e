package hsig

import (
	"crypto/sha256"
	"encoding"
	gohash "hash"
)

// sha256Snapshot captures SHA-256 internal state after one 64-byte block
// has been absorbed, so many hashes sharing that block as a prefix
// (typically the padded pk_seed) can start from it in O(1) instead of
// recompressing it every time (§4.2). Go's crypto/sha256 digest
// implements encoding.BinaryMarshaler/Unmarshaler, which exposes exactly
// the mid-state capture the teacher's hash.go gets from a hand-rolled C
// SHA-256 implementation (original_source/sha256.h's
// SHA256_init_first_block_ctx) — no example repo hand-rolls the SHA-256
// compression function itself, so that single capability is taken from
// the standard library rather than reimplemented.
type sha256Snapshot struct {
	marshaled []byte
}

// snapshotAfterBlock hashes exactly one 64-byte block and returns the
// resulting snapshot. block must be exactly 64 bytes.
func snapshotAfterBlock(block []byte) *sha256Snapshot {
	if len(block) != 64 {
		panic("hsig: snapshotAfterBlock requires a 64-byte block")
	}
	h := sha256.New()
	h.Write(block)
	marshaler := h.(encoding.BinaryMarshaler)
	enc, err := marshaler.MarshalBinary()
	if err != nil {
		panic(err) // crypto/sha256's own digest never fails to marshal
	}
	return &sha256Snapshot{marshaled: enc}
}

// new restores a hash.Hash positioned right after the snapshotted block.
func (s *sha256Snapshot) new() gohash.Hash {
	h := sha256.New()
	unmarshaler := h.(encoding.BinaryUnmarshaler)
	if err := unmarshaler.UnmarshalBinary(s.marshaled); err != nil {
		panic(err)
	}
	return h
}

// padPkSeed produces the 64-byte block used as the shared prefix of every
// tweakable hash: pk_seed (n bytes) followed by zero padding to a full
// SHA-256 block.
func padPkSeed(pkSeed []byte) []byte {
	block := make([]byte, 64)
	copy(block, pkSeed)
	return block
}

// hmacSHA256 implements HMAC-SHA-256 that accepts its key at Final
// rather than at construction (§4.3): Update accumulates the message,
// and Final performs the ipad/opad computation once the key is known.
// Key length must be <= 64 bytes (the SHA-256 block size); longer keys
// are not supported, matching the scheme's fixed 16/24/32/48-byte keys.
type hmacSHA256 struct {
	buf []byte
}

func newHMACSHA256() *hmacSHA256 { return &hmacSHA256{} }

func (h *hmacSHA256) Update(data []byte) { h.buf = append(h.buf, data...) }

func (h *hmacSHA256) Final(key []byte) [32]byte {
	if len(key) > 64 {
		panic("hsig: hmacSHA256 key too long")
	}
	var ipad, opad [64]byte
	copy(ipad[:], key)
	copy(opad[:], key)
	for i := range ipad {
		ipad[i] ^= 0x36
		opad[i] ^= 0x5c
	}
	inner := sha256.New()
	inner.Write(ipad[:])
	inner.Write(h.buf)
	innerSum := inner.Sum(nil)

	outer := sha256.New()
	outer.Write(opad[:])
	outer.Write(innerSum)
	var out [32]byte
	copy(out[:], outer.Sum(nil))
	return out
}

// hmacSHA256Once computes HMAC-SHA-256(key, data) in one call.
func hmacSHA256Once(key, data []byte) [32]byte {
	h := newHMACSHA256()
	h.Update(data)
	return h.Final(key)
}

// drbgReseedLimit is the 2^48 reseed-counter bound of §3/§4.3.
const drbgReseedLimit = uint64(1) << 48

// hmacDRBG implements the HMAC_DRBG mechanism of NIST SP 800-90A without
// the self-test machinery the standard also specifies (§4.3), seeded
// with 48 bytes (32 bytes of entropy followed by 16 bytes of nonce)
// absorbed in a single update (§9 "DRBG shared by both keygen and
// build-step").
type hmacDRBG struct {
	key            [32]byte
	v              [32]byte
	reseedCounter  uint64
}

// newHMACDRBG instantiates a DRBG from 48 bytes of seed material.
func newHMACDRBG(seedMaterial [48]byte) *hmacDRBG {
	d := &hmacDRBG{}
	for i := range d.key {
		d.key[i] = 0x00
	}
	for i := range d.v {
		d.v[i] = 0x01
	}
	d.update(seedMaterial[:])
	d.reseedCounter = 1
	return d
}

// update performs the HMAC_DRBG Update function with optional
// additional input providedData (may be nil).
func (d *hmacDRBG) update(providedData []byte) {
	h := newHMACSHA256()
	h.Update(d.v[:])
	h.Update([]byte{0x00})
	h.Update(providedData)
	d.key = h.Final(d.key[:])

	d.v = hmacSHA256Once(d.key[:], d.v[:])

	if providedData == nil {
		return
	}

	h2 := newHMACSHA256()
	h2.Update(d.v[:])
	h2.Update([]byte{0x01})
	h2.Update(providedData)
	d.key = h2.Final(d.key[:])

	d.v = hmacSHA256Once(d.key[:], d.v[:])
}

// reseed absorbs 48 fresh bytes of seed material.
func (d *hmacDRBG) reseed(seedMaterial [48]byte) {
	d.update(seedMaterial[:])
	d.reseedCounter = 1
}

// read fills out with DRBG output, returning false if the reseed limit
// has been reached (the caller must reseed before more output can be
// produced).
func (d *hmacDRBG) read(out []byte) bool {
	if d.reseedCounter > drbgReseedLimit {
		return false
	}
	filled := 0
	for filled < len(out) {
		d.v = hmacSHA256Once(d.key[:], d.v[:])
		n := copy(out[filled:], d.v[:])
		filled += n
	}
	d.update(nil)
	d.reseedCounter++
	return true
}

// randSource is the "system randomness" external interface of §6: a
// callback that fills buf and reports success.
type randSource func(buf []byte) bool
