package hsig

import "github.com/templexxx/xor"

// zero scrubs buf to all-zero bytes using a vectorized XOR-with-self,
// repurposing the teacher's templexxx/xor dependency (used there to mask
// WOTS+ chain values; this scheme's tweakable hashes have no masking
// step, so the same fast vectorized byte-buffer operation is repointed
// at secret-material scrubbing instead). xor.BytesSameLen(dst, a, b)
// requires equal-length slices; XOR-ing a buffer with itself yields all
// zero bytes using the same SIMD path the teacher relies on for masking.
func zero(buf []byte) {
	if len(buf) == 0 {
		return
	}
	xor.BytesSameLen(buf, buf, buf)
}

// zeroAll scrubs every buffer in bufs.
func zeroAll(bufs ...[]byte) {
	for _, b := range bufs {
		zero(b)
	}
}
