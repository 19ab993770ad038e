package hsig

import (
	"crypto/sha256"
	"encoding/binary"
)

// lmsIterHash is the LM-OTS chain-step hash: SHA256(I || BE32(q) ||
// BE16(chain) || j || prev)[0..n] (§4.8). Unlike the SPHINCS+ tweakable
// hashes, LMS addresses its hashes with this fixed (I,q,i,j) prefix
// rather than the 22-byte ADR, following original_source/lm_ots_sign.c.
func lmsIterHash(I []byte, q uint32, chain int, j int, prev [n]byte) [n]byte {
	h := sha256.New()
	h.Write(I)
	var beq [4]byte
	binary.BigEndian.PutUint32(beq[:], q)
	h.Write(beq[:])
	var bei [2]byte
	binary.BigEndian.PutUint16(bei[:], uint16(chain))
	h.Write(bei[:])
	h.Write([]byte{byte(j)})
	h.Write(prev[:])
	sum := h.Sum(nil)
	var out [n]byte
	copy(out[:], sum)
	return out
}

// lmsChainWalk applies lmsIterHash steps times, starting at step `from`.
func lmsChainWalk(I []byte, q uint32, chain int, start [n]byte, from, steps int) [n]byte {
	cur := start
	for j := from; j < from+steps; j++ {
		cur = lmsIterHash(I, q, chain, j, cur)
	}
	return cur
}

// lmsOTSPublicHash combines the p chain tops into the OTS public key:
// SHA256(I || BE32(q) || D_PBLC || tops)[0..n] (§4.8 step 2).
func lmsOTSPublicHash(I []byte, q uint32, tops []byte) [n]byte {
	h := sha256.New()
	h.Write(I)
	var be [4]byte
	binary.BigEndian.PutUint32(be[:], q)
	h.Write(be[:])
	h.Write([]byte{dPblc})
	h.Write(tops)
	sum := h.Sum(nil)
	var out [n]byte
	copy(out[:], sum)
	return out
}

// lmsLeafHash is the leaf-hash that enters the LMS Merkle tree:
// SHA256(I || BE32(q + 2^LMS_H) || D_LEAF || pk)[0..n] (§4.8 step 3).
func lmsLeafHash(I []byte, q uint32, pk [n]byte) [n]byte {
	h := sha256.New()
	h.Write(I)
	var be [4]byte
	binary.BigEndian.PutUint32(be[:], q+(1<<uint(lmsH)))
	h.Write(be[:])
	h.Write([]byte{dLeaf})
	h.Write(pk[:])
	sum := h.Sum(nil)
	var out [n]byte
	copy(out[:], sum)
	return out
}

// lmsCombine hashes one internal node of the LMS Merkle tree:
// SHA256(I || BE32(nodeID) || D_INTR || left || right)[0..n] (§4.9).
func lmsCombine(I []byte, nodeID uint32, left, right [n]byte) [n]byte {
	h := sha256.New()
	h.Write(I)
	var be [4]byte
	binary.BigEndian.PutUint32(be[:], nodeID)
	h.Write(be[:])
	h.Write([]byte{dIntr})
	h.Write(left[:])
	h.Write(right[:])
	sum := h.Sum(nil)
	var out [n]byte
	copy(out[:], sum)
	return out
}

// lmsMessageHash is Q = SHA256(I || BE32(q) || D_MESG || C || msg).
func lmsMessageHash(I []byte, q uint32, C [n]byte, msg []byte) [n]byte {
	h := sha256.New()
	h.Write(I)
	var be [4]byte
	binary.BigEndian.PutUint32(be[:], q)
	h.Write(be[:])
	h.Write([]byte{dMesg})
	h.Write(C[:])
	h.Write(msg)
	sum := h.Sum(nil)
	var out [n]byte
	copy(out[:], sum)
	return out
}

// lmOtsCoef extracts the i-th w-bit digit from buf (w divides 8; w is
// always 2 or 4 in this scheme), matching lm_ots_coef in
// original_source/lm_ots_common.c.
func lmOtsCoef(buf []byte, i, w int) byte {
	bitOff := i * w
	byteIdx := bitOff / 8
	shift := 8 - w - (bitOff % 8)
	return (buf[byteIdx] >> uint(shift)) & byte((1<<uint(w))-1)
}

func lmsMessageDigitCount(w int) int { return (n * 8) / w }

func lmsChecksumShift(w int) uint {
	if w == 2 {
		return 6
	}
	return 4
}

// lmsCoefBuf builds the (n+2)-byte buffer of message digest plus
// Winternitz checksum that lmOtsCoef indexes into for all p digits
// (§4.8's checksum paragraph; original_source/lm_ots_common.c's
// lm_ots_compute_checksum).
func lmsCoefBuf(Q [n]byte, w int) []byte {
	msgDigits := lmsMessageDigitCount(w)
	maxDigit := (1 << uint(w)) - 1
	sum := 0
	for i := 0; i < msgDigits; i++ {
		sum += maxDigit - int(lmOtsCoef(Q[:], i, w))
	}
	checksum := uint16(sum) << lmsChecksumShift(w)
	buf := make([]byte, n+2)
	copy(buf, Q[:])
	binary.BigEndian.PutUint16(buf[n:], checksum)
	return buf
}

// lmsOTS derives and verifies LM-OTS signatures for one LMS tree
// identified by I, keyed by a PRF over the tree's secret seed (§4.8).
type lmsOTS struct {
	I     [16]byte
	prf   *prf
	speed SpeedSetting
}

func (o *lmsOTS) chainSecret(q uint32, chain int) [n]byte {
	var state [16]byte
	binary.BigEndian.PutUint32(state[0:4], q)
	binary.BigEndian.PutUint32(state[4:8], uint32(chain))
	var sk [n]byte
	o.prf.derive(state[:], sk[:])
	return sk
}

// randomizerC derives the OTS signature's randomizer with a state mask
// distinct from any chain index, so C cannot collide with a chain seed.
func (o *lmsOTS) randomizerC(q uint32) [n]byte {
	var state [16]byte
	binary.BigEndian.PutUint32(state[0:4], q)
	state[8] = 0xc3
	var c [n]byte
	o.prf.derive(state[:], c[:])
	return c
}

// publicKey derives the OTS public key (inner leaf-hash input) for leaf
// q (§4.8 steps 1-2).
func (o *lmsOTS) publicKey(q uint32) [n]byte {
	w, p := o.speed.lmOtsW(), o.speed.lmOtsP()
	maxSteps := (1 << uint(w)) - 1
	tops := make([]byte, 0, p*n)
	for i := 0; i < p; i++ {
		sk := o.chainSecret(q, i)
		top := lmsChainWalk(o.I[:], q, i, sk, 0, maxSteps)
		tops = append(tops, top[:]...)
	}
	return lmsOTSPublicHash(o.I[:], q, tops)
}

// leaf derives the Merkle leaf value for q (public key then leaf-hash).
func (o *lmsOTS) leaf(q uint32) [n]byte {
	return lmsLeafHash(o.I[:], q, o.publicKey(q))
}

// sign produces paramID(4) || C(n) || p*n chain values (§4.8's
// "Signature bytes"; the caller prepends the 8-byte tree-level header
// and appends the tree parameter id and auth path per §4.11).
func (o *lmsOTS) sign(q uint32, msg []byte) []byte {
	w, p := o.speed.lmOtsW(), o.speed.lmOtsP()
	C := o.randomizerC(q)
	Q := lmsMessageHash(o.I[:], q, C, msg)
	coefBuf := lmsCoefBuf(Q, w)

	out := make([]byte, 0, 4+n*(1+p))
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], o.speed.lmOtsParamID())
	out = append(out, hdr[:]...)
	out = append(out, C[:]...)
	for i := 0; i < p; i++ {
		a := int(lmOtsCoef(coefBuf, i, w))
		sk := o.chainSecret(q, i)
		val := lmsChainWalk(o.I[:], q, i, sk, 0, a)
		out = append(out, val[:]...)
	}
	return out
}

// lmsOTSRecoverPublicKey reconstructs the OTS public key from a
// signature by finishing each chain from its revealed value to the top
// — the inverse of sign (§4.12).
func lmsOTSRecoverPublicKey(I []byte, q uint32, speed SpeedSetting, sig, msg []byte) ([n]byte, error) {
	w, p := speed.lmOtsW(), speed.lmOtsP()
	want := 4 + n*(1+p)
	if len(sig) != want {
		return [n]byte{}, errorf("lms ots: signature length %d, want %d", len(sig), want)
	}
	var C [n]byte
	copy(C[:], sig[4:4+n])
	Q := lmsMessageHash(I, q, C, msg)
	coefBuf := lmsCoefBuf(Q, w)
	maxSteps := (1 << uint(w)) - 1

	tops := make([]byte, 0, p*n)
	chains := sig[4+n:]
	for i := 0; i < p; i++ {
		a := int(lmOtsCoef(coefBuf, i, w))
		var val [n]byte
		copy(val[:], chains[i*n:(i+1)*n])
		top := lmsChainWalk(I, q, i, val, a, maxSteps-a)
		tops = append(tops, top[:]...)
	}
	return lmsOTSPublicHash(I, q, tops), nil
}
