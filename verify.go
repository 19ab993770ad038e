package hsig

import "encoding/binary"

// speedFromParamID maps an LM-OTS parameter id (read from the
// signature itself) back to the SpeedSetting that produced it, so
// verification needs no side channel beyond the signature bytes.
func speedFromParamID(id uint32) (SpeedSetting, bool) {
	switch id {
	case lmOtsParamIDW4:
		return SpeedFast, true
	case lmOtsParamIDW2:
		return SpeedSlow, true
	}
	return 0, false
}

// Verify is sh_verify (§4.12): it parses the hybrid signature at fixed
// offsets, validates every "green byte", reconstructs the LMS public
// key from the OTS signature and authentication path, then verifies
// the embedded SPHINCS+ signature of that LMS public key against pk.
func Verify(pk *PublicKey, msg, sig []byte) (bool, error) {
	off := 0
	if len(sig) < 8 {
		return false, errorf("sh_verify: signature too short")
	}
	if binary.BigEndian.Uint32(sig[0:4]) != 0 {
		return false, errorf("sh_verify: bad LMS tree-level header")
	}
	q := binary.BigEndian.Uint32(sig[4:8])
	off = 8

	if off+4 > len(sig) {
		return false, errorf("sh_verify: truncated signature")
	}
	otsParamID := binary.BigEndian.Uint32(sig[off : off+4])
	speed, ok := speedFromParamID(otsParamID)
	if !ok {
		return false, errorf("sh_verify: unknown LM-OTS parameter id %#08x", otsParamID)
	}
	p := speed.lmOtsP()
	otsLen := 4 + n*(1+p)
	if off+otsLen > len(sig) {
		return false, errorf("sh_verify: truncated OTS signature")
	}
	otsSig := sig[off : off+otsLen]
	off += otsLen

	if off+4 > len(sig) {
		return false, errorf("sh_verify: truncated signature")
	}
	if binary.BigEndian.Uint32(sig[off:off+4]) != lmsTreeParamID {
		return false, errorf("sh_verify: bad LMS tree parameter id")
	}
	off += 4

	pathLen := n * lmsH
	if off+pathLen > len(sig) {
		return false, errorf("sh_verify: truncated authentication path")
	}
	path := make([][n]byte, lmsH)
	for i := 0; i < lmsH; i++ {
		copy(path[i][:], sig[off+i*n:off+(i+1)*n])
	}
	off += pathLen

	if off+lenPubKey > len(sig) {
		return false, errorf("sh_verify: truncated LMS public key")
	}
	lmPub := sig[off : off+lenPubKey]
	off += lenPubKey

	if off+sphSigLen > len(sig) {
		return false, errorf("sh_verify: truncated SPHINCS+ signature")
	}
	sphSig := sig[off : off+sphSigLen]
	off += sphSigLen

	if binary.BigEndian.Uint32(lmPub[0:4]) != 1 {
		return false, errorf("sh_verify: bad LMS public key green byte")
	}
	if binary.BigEndian.Uint32(lmPub[4:8]) != lmsTreeParamID {
		return false, errorf("sh_verify: LMS public key tree parameter id mismatch")
	}
	if binary.BigEndian.Uint32(lmPub[8:12]) != otsParamID {
		return false, errorf("sh_verify: LMS public key OTS parameter id mismatch")
	}
	I := lmPub[12:28]
	var lmRoot [n]byte
	copy(lmRoot[:], lmPub[28:28+n])

	otsPk, err := lmsOTSRecoverPublicKey(I, q, speed, otsSig, msg)
	if err != nil {
		return false, err
	}
	cur := lmsLeafHash(I, q, otsPk)
	idx := q
	for h := 0; h < lmsH; h++ {
		sib := path[h]
		parentIdx := int(idx >> 1)
		nodeID := lmsNodeID(h, parentIdx)
		if idx&1 == 0 {
			cur = lmsCombine(I, nodeID, cur, sib)
		} else {
			cur = lmsCombine(I, nodeID, sib, cur)
		}
		idx >>= 1
	}
	if cur != lmRoot {
		return false, nil
	}

	return verifySphincsSig(pk, lmPub, sphSig)
}

// verifySphincsSig checks the SPHINCS+ signature of signedMsg (the LMS
// public key bytes) against pk: H_msg, then FORS, then the hypertree.
func verifySphincsSig(pk *PublicKey, signedMsg, sphSig []byte) (bool, error) {
	if len(sphSig) != sphSigLen {
		return false, errorf("sh_verify: sphincs signature length %d, want %d", len(sphSig), sphSigLen)
	}
	var R [n]byte
	copy(R[:], sphSig[0:n])

	d := computeDigestIndex(R[:], pk.PkSeed[:], pk.PkRoot[:], signedMsg)

	tw := newTweak(pk.PkSeed[:], nil)

	var forsRoots [sphK][n]byte
	for i := 0; i < sphK; i++ {
		off := forsSigOffset(i)
		var reveal [n]byte
		copy(reveal[:], sphSig[off:off+n])
		apOff := off + n
		authPath := make([][n]byte, sphA)
		for h := 0; h < sphA; h++ {
			copy(authPath[h][:], sphSig[apOff+h*n:apOff+(h+1)*n])
		}
		forsRoots[i] = forsVerifyTree(tw, 0, d.idxTree, d.idxLeaf, i, d.md[i], reveal, authPath)
	}
	prevRoot := forsPkCompress(tw, 0, d.idxTree, d.idxLeaf, forsRoots)

	idxTree := d.idxTree
	idxLeaf := d.idxLeaf
	base := htSigBase()
	for layer := 0; layer < sphD; layer++ {
		var a adr
		a.setLayer(byte(layer))
		a.setTree(idxTree)
		a.setType(adrWotsHash)
		a.setKeyPairAddress(idxLeaf)

		digits := expandWotsDigits(prevRoot)
		var wotsSig [sphWotsLen][n]byte
		wotsOff := base
		for i := 0; i < sphWotsLen; i++ {
			copy(wotsSig[i][:], sphSig[wotsOff+i*n:wotsOff+(i+1)*n])
		}
		base += sphWotsLen * n

		pkChains := wotsPkFromSig(tw, &a, wotsSig, digits)
		leaf := wotsCompressPk(tw, &a, pkChains)

		authPath := make([][n]byte, sphT)
		for h := 0; h < sphT; h++ {
			copy(authPath[h][:], sphSig[base+h*n:base+(h+1)*n])
		}
		base += sphT * n

		prevRoot = hypertreeLayerVerify(tw, byte(layer), idxTree, idxLeaf, leaf, authPath)
		idxLeaf = uint32(idxTree & ((1 << uint(sphT)) - 1))
		idxTree >>= uint(sphT)
	}

	return prevRoot == pk.PkRoot, nil
}

// forsVerifyTree rebuilds one FORS tree's root from its revealed leaf
// preimage and authentication path (the inverse of forsBuilder.step for
// a single target leaf). idxLeaf (key_pair_address) identifies the
// hypertree leaf this FORS tree belongs to; treeIdx is this tree's
// position within the k-group and is folded into every tree_index as
// treeIdx<<sphA, matching newForsBuilder/forsPkCompress.
func forsVerifyTree(tw *tweak, layer byte, treeAddr uint64, idxLeaf uint32, treeIdx int, localLeaf uint32, reveal [n]byte, authPath [][n]byte) [n]byte {
	offset := uint32(treeIdx) << sphA
	var a adr
	a.setLayer(layer)
	a.setTree(treeAddr)
	a.setType(adrForsTree)
	a.setKeyPairAddress(idxLeaf)
	a.setTreeHeight(0)
	a.setTreeIndex(localLeaf + offset)
	cur := tw.f(&a, reveal[:])

	idx := localLeaf
	for h := 0; h < sphA; h++ {
		sib := authPath[h]
		parentIdx := idx >> 1
		a.setTreeHeight(uint32(h + 1))
		a.setTreeIndex(parentIdx + offset)
		if idx&1 == 0 {
			cur = tw.h2(&a, cur[:], sib[:])
		} else {
			cur = tw.h2(&a, sib[:], cur[:])
		}
		idx = parentIdx
	}
	return cur
}

// hypertreeLayerVerify walks a reconstructed WOTS+ leaf up one
// hypertree layer's T levels using the signature's authentication path.
func hypertreeLayerVerify(tw *tweak, layer byte, treeAddr uint64, leafIdx uint32, leaf [n]byte, authPath [][n]byte) [n]byte {
	var a adr
	a.setLayer(layer)
	a.setTree(treeAddr)
	cur := leaf
	idx := leafIdx
	for h := 0; h < sphT; h++ {
		sib := authPath[h]
		parentIdx := idx >> 1
		a.setType(adrHashTree)
		a.setTreeHeight(uint32(h + 1))
		a.setTreeIndex(parentIdx)
		if idx&1 == 0 {
			cur = tw.h2(&a, cur[:], sib[:])
		} else {
			cur = tw.h2(&a, sib[:], cur[:])
		}
		idx = parentIdx
	}
	return cur
}
