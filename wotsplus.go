package hsig

// expandWotsDigits converts a 24-byte hash into the 51 base-16 digits a
// SPHINCS+ hypertree layer's WOTS+ chain signs: 48 message digits (two
// nibbles per byte, most significant nibble first) followed by 3
// checksum digits encoding sum(15-d_i) over the 48 message digits
// (§4.6/§4.10, "expand_wots_digits"). The hypertree always uses this
// fixed 51-digit/W=4 expansion regardless of the LMS SpeedSetting (§9).
func expandWotsDigits(msgHash [n]byte) (digits [sphWotsLen]byte) {
	for i := 0; i < 48; i++ {
		b := msgHash[i/2]
		if i%2 == 0 {
			digits[i] = b >> 4
		} else {
			digits[i] = b & 0x0f
		}
	}
	csum := 0
	for i := 0; i < 48; i++ {
		csum += 15 - int(digits[i])
	}
	digits[48] = byte((csum >> 8) & 0xf)
	digits[49] = byte((csum >> 4) & 0xf)
	digits[50] = byte(csum & 0xf)
	return digits
}

// wotsGenChain walks a WOTS+ chain from step `from` through `from+steps-1`
// inclusive, applying F once per step. adr's chain_address must already
// be set by the caller; wotsGenChain only touches hash_address.
func wotsGenChain(t *tweak, a *adr, start [n]byte, from, steps int) [n]byte {
	cur := start
	for s := from; s < from+steps; s++ {
		a.setHashAddress(byte(s))
		cur = t.f(a, cur[:])
	}
	return cur
}

// wotsSecret derives chain i's starting secret value. The PRF state is
// the full 22-byte ADR with chain_address set to i and hash_address
// cleared: layer, tree address and key_pair_address (the leaf index)
// are already present in a, so every (layer, tree, leaf, chain) chooses
// an independent secret with no separate leaf-index parameter needed.
func wotsSecret(p *prf, a *adr, i int) [n]byte {
	a.setChainAddress(uint32(i))
	a.setHashAddress(0)
	var sk [n]byte
	p.derive(a.bytes(), sk[:])
	return sk
}

// wotsPkGen derives the full WOTS+ public key (51 chain tops). a's
// layer, tree and key_pair_address fields must already be set by the
// caller; a's type must be adrWotsHash.
func wotsPkGen(t *tweak, p *prf, a *adr) (pk [sphWotsLen][n]byte) {
	for i := 0; i < sphWotsLen; i++ {
		sk := wotsSecret(p, a, i)
		pk[i] = wotsGenChain(t, a, sk, 0, sphChainSize-1)
	}
	return pk
}

// wotsSign derives the WOTS+ signature under the given 51-digit
// expansion: each chain is walked only as far as its digit.
func wotsSign(t *tweak, p *prf, a *adr, digits [sphWotsLen]byte) (sig [sphWotsLen][n]byte) {
	for i := 0; i < sphWotsLen; i++ {
		sk := wotsSecret(p, a, i)
		sig[i] = wotsGenChain(t, a, sk, 0, int(digits[i]))
	}
	return sig
}

// wotsPkFromSig reconstructs the public key from a signature by walking
// each chain the remaining distance to the top (the inverse of signing).
func wotsPkFromSig(t *tweak, a *adr, sig [sphWotsLen][n]byte, digits [sphWotsLen]byte) (pk [sphWotsLen][n]byte) {
	for i := 0; i < sphWotsLen; i++ {
		a.setChainAddress(uint32(i))
		pk[i] = wotsGenChain(t, a, sig[i], int(digits[i]), sphChainSize-1-int(digits[i]))
	}
	return pk
}

// wotsCompressPk T-hashes the 51 chain tops into the single leaf value
// that enters the hypertree layer's Merkle tree.
func wotsCompressPk(t *tweak, a *adr, pk [sphWotsLen][n]byte) [n]byte {
	a.setType(adrWotsKeyCompression)
	buf := make([]byte, 0, sphWotsLen*n)
	for _, v := range pk {
		buf = append(buf, v[:]...)
	}
	return t.thash(a, buf)
}
