package hsig

import "encoding/binary"

// Signer is the incremental hybrid signer state machine of §4.10/§4.11:
// an LM-OTS/LMS tree signs the caller's message, and a SPHINCS+
// signature (precomputed ahead of time, one per LMS tree) signs the LMS
// public key. Building the next LMS tree and its SPHINCS+ signature is
// spread across many step_next calls so that sh_sign always costs about
// the same, regardless of how much of the next tree remains to build.
type Signer struct {
	cfg Config

	pkSeed  [n]byte
	skSeed  [n]byte
	skPrf   [n]byte
	sphRoot [n]byte

	tw     *tweak
	ctr    *hashCounter
	sphPRF *prf // keyed on skSeed; derives every FORS/WOTS+ secret value

	drbg *hmacDRBG

	currentLMS      *lmsTree
	nextLMS         *lmsTree
	currentLMSIndex uint32
	currentLMSPub   [lenPubKey]byte
	nextLMSPub      [lenPubKey]byte

	currentSphSig []byte
	nextSphSig    []byte

	state    buildState
	fatalErr error

	nextDigest digestIndex

	forsTreeIdx int
	fors        *forsBuilder
	forsRoots   [sphK][n]byte

	htLevel         int
	htDoTree        int
	htPrevRoot      [n]byte
	htIdxTree       uint64
	htIdxLeaf       uint32
	htMerkle        *merkleBuilder
	htVerifyMerkle  *merkleBuilder
	htSigOffset     int
	htSaveSigOffset int

	loaded bool
}

// forsSigOffset and htSigBase locate the two signature regions inside
// currentSphSig/nextSphSig (§6): R (n bytes), then k FORS reveal+auth-path
// blocks, then d hypertree layer signature+auth-path blocks.
func forsSigOffset(treeIdx int) int { return n + treeIdx*n*(1+sphA) }
func htSigBase() int                { return n + sphK*n*(1+sphA) }

// State reports the build state machine's current position, mostly
// useful for tests and diagnostics.
func (s *Signer) State() buildState { return s.state }

// FatalError returns the error that latched the signer permanently
// unusable, or nil if the signer is healthy.
func (s *Signer) FatalError() error { return s.fatalErr }

func (s *Signer) fail(err error) {
	s.state = bFatal
	s.fatalErr = err
	log.Logf("hsig: signer entered fatal state: %v", err)
}

// stepNext performs one bounded quantum of build work and reports
// whether this call was the one that rotated current/next buffers
// (§4.10's b_done transition, the sole atomic swap point).
func (s *Signer) stepNext(doDummy bool) bool {
	if s.state == bFatal {
		return false
	}
	rotated := false
	for {
		switch s.state {
		case bInit:
			s.beginNextLMS()
			s.state = bDoLMS
			continue
		case bDoLMS:
			if s.nextLMS.step(s.cfg.Speed.lmsLeavesPerIter()) {
				s.state = bLMSFinished
				continue
			}
		case bLMSFinished:
			if !s.finishLMS() {
				return false
			}
			s.state = bFors
			continue
		case bFors:
			s.stepFors()
		case bCompleteFors:
			if !s.completeFors() {
				return false
			}
			s.state = bHypertree
			continue
		case bHypertree:
			s.stepHypertree()
		case bDone:
			s.rotate()
			s.state = bInit
			rotated = true
		}
		break
	}
	if doDummy {
		s.dummyLoad()
	}
	return rotated
}

// beginNextLMS draws a fresh 24-byte seed and 16-byte identifier for the
// tree being pre-built and starts its incremental construction.
func (s *Signer) beginNextLMS() {
	var seed [n]byte
	var I [16]byte
	if !s.drbg.read(seed[:]) || !s.drbg.read(I[:]) {
		s.fail(fatalErrorf("drbg: reseed limit reached while drawing next LMS tree"))
		return
	}
	s.nextLMS = newLmsTree(I, seed, s.cfg)
}

// finishLMS draws the faked upper auth-path levels, assembles the LMS
// public key, derives the SPHINCS+ randomizer and digest/index for
// *that public key* (the SPHINCS+ signature signs the LMS public key,
// not the caller's message — this is what lets it be precomputed),
// and writes R into the next signature buffer.
func (s *Signer) finishLMS() bool {
	if !s.nextLMS.finishFake(s.drbg) {
		s.fail(fatalErrorf("drbg: reseed limit reached while drawing faked LMS levels"))
		return false
	}
	s.nextLMSPub = s.nextLMS.publicKey()

	var rnd [n]byte
	if !s.drbg.read(rnd[:]) {
		s.fail(fatalErrorf("drbg: reseed limit reached while drawing randomizer"))
		return false
	}
	h := newHMACSHA256()
	h.Update(rnd[:])
	h.Update(s.nextLMSPub[:])
	full := h.Final(s.skPrf[:])
	var R [n]byte
	copy(R[:], full[:n])
	copy(s.nextSphSig[0:n], R[:])

	s.nextDigest = computeDigestIndex(R[:], s.pkSeed[:], s.sphRoot[:], s.nextLMSPub[:])

	s.forsTreeIdx = 0
	s.fors = nil
	s.forsRoots = [sphK][n]byte{}
	return true
}

// stepFors advances the FORS tree currently under construction by the
// per-step leaf quota and, when it completes, writes its revealed leaf
// and authentication path into the signature buffer (§4.10 "b_fors").
func (s *Signer) stepFors() {
	if s.fors == nil {
		s.fors = newForsBuilder(s.tw, s.sphPRF, 0, s.nextDigest.idxTree, s.nextDigest.idxLeaf, s.forsTreeIdx, s.nextDigest.md[s.forsTreeIdx])
	}
	if !s.fors.step(s.cfg.Speed.forsLeavesPerIter()) {
		return
	}
	root := s.fors.root

	if s.cfg.Fault >= FaultFatal {
		redundant := newForsBuilder(s.tw, s.sphPRF, 0, s.nextDigest.idxTree, s.nextDigest.idxLeaf, s.forsTreeIdx, s.nextDigest.md[s.forsTreeIdx])
		for !redundant.step(s.fors.totalLeaves()) {
		}
		if redundant.root != root {
			if s.cfg.Fault == FaultFatal {
				s.fail(newFaultMismatchErrorFor("b_fors", s.forsTreeIdx))
				return
			}
			s.fors = nil // FaultRecover: restart this FORS tree
			return
		}
	}

	s.forsRoots[s.forsTreeIdx] = root
	revealOff := forsSigOffset(s.forsTreeIdx)
	copy(s.nextSphSig[revealOff:revealOff+n], s.fors.revealed[:])
	apOff := revealOff + n
	for i, node := range s.fors.authPath {
		copy(s.nextSphSig[apOff+i*n:apOff+(i+1)*n], node[:])
	}

	s.forsTreeIdx++
	s.fors = nil
	if s.forsTreeIdx == sphK {
		s.state = bCompleteFors
	}
}

// completeFors compresses the k FORS roots into the value the hypertree
// signs, redundantly (unconditionally, per §4.10) to catch a fault in
// the compression step itself.
func (s *Signer) completeFors() bool {
	top1 := forsPkCompress(s.tw, 0, s.nextDigest.idxTree, s.nextDigest.idxLeaf, s.forsRoots)
	top2 := forsPkCompress(s.tw, 0, s.nextDigest.idxTree, s.nextDigest.idxLeaf, s.forsRoots)
	if top1 != top2 {
		if s.cfg.Fault == FaultRecover {
			return false // stay in b_complete_fors and recompress on the next step
		}
		s.fail(newFaultMismatchErrorFor("b_complete_fors", 0))
		return false
	}
	s.htPrevRoot = top1
	s.htLevel = 0
	s.htIdxTree = s.nextDigest.idxTree
	s.htIdxLeaf = s.nextDigest.idxLeaf
	s.htDoTree = 0
	s.htSigOffset = htSigBase()
	return true
}

// stepHypertree advances the current hypertree layer through its
// do_tree substates (§4.10 "b_hypertree").
func (s *Signer) stepHypertree() {
	switch s.htDoTree {
	case 0:
		s.htSaveSigOffset = s.htSigOffset
		var a adr
		a.setLayer(byte(s.htLevel))
		a.setTree(s.htIdxTree)
		a.setType(adrWotsHash)
		a.setKeyPairAddress(s.htIdxLeaf)
		digits := expandWotsDigits(s.htPrevRoot)
		sig := wotsSign(s.tw, s.sphPRF, &a, digits)
		for i, v := range sig {
			copy(s.nextSphSig[s.htSigOffset+i*n:s.htSigOffset+(i+1)*n], v[:])
		}
		s.htSigOffset += sphWotsLen * n

		leaf := s.htIdxLeaf
		s.htMerkle = newMerkleBuilder(s.tw, s.sphPRF, byte(s.htLevel), s.htIdxTree, sphT, &leaf)
		s.htDoTree = 1

	case 1:
		if s.htMerkle.step(s.cfg.Speed.merkleChainsPerIter()) {
			if s.cfg.Fault >= FaultFatal {
				s.htDoTree = 2
				s.htVerifyMerkle = newMerkleBuilder(s.tw, s.sphPRF, byte(s.htLevel), s.htIdxTree, sphT, nil)
			} else {
				s.acceptHypertreeLayer()
			}
		}

	case 2:
		if s.htVerifyMerkle.step(s.htVerifyMerkle.totalLeaves()) {
			if s.htVerifyMerkle.root != s.htMerkle.root {
				if s.cfg.Fault == FaultFatal {
					s.fail(newFaultMismatchErrorFor("b_hypertree", s.htLevel))
					return
				}
				// FaultRecover: restart this layer from its saved offset.
				s.htSigOffset = s.htSaveSigOffset
				s.htDoTree = 0
				s.htMerkle = nil
				s.htVerifyMerkle = nil
				return
			}
			s.acceptHypertreeLayer()
		}
	}
}

func (s *Signer) acceptHypertreeLayer() {
	for i, node := range s.htMerkle.authPath {
		copy(s.nextSphSig[s.htSigOffset+i*n:s.htSigOffset+(i+1)*n], node[:])
	}
	s.htSigOffset += sphT * n
	s.htPrevRoot = s.htMerkle.root
	s.htIdxLeaf = uint32(s.htIdxTree & ((1 << uint(sphT)) - 1))
	s.htIdxTree >>= uint(sphT)
	s.htLevel++
	s.htDoTree = 0
	s.htMerkle = nil
	s.htVerifyMerkle = nil
	if s.htLevel == sphD {
		s.state = bDone
	}
}

// rotate swaps the freshly finished next-tree/next-signature pair into
// the current slot (§4.10 "b_done"), the sole point at which a caller
// of sh_sign can observe the switch.
func (s *Signer) rotate() {
	s.currentLMS = s.nextLMS
	s.currentLMSPub = s.nextLMSPub
	s.currentSphSig, s.nextSphSig = s.nextSphSig, s.currentSphSig
	if s.nextSphSig == nil {
		s.nextSphSig = make([]byte, sphSigLen)
	}
	s.currentLMSIndex = 0
	s.nextLMS = nil
}

// dummyLoad pads a cheap step with throwaway compressions so that every
// step_next call takes about the same wall-clock time, when enabled
// (§4.10 "Dummy load").
func (s *Signer) dummyLoad() {
	if !s.cfg.Dummy {
		return
	}
	var a adr
	a.setType(adrWotsHash)
	var buf [n]byte
	_ = s.tw.f(&a, buf[:])
}

func newFaultMismatchErrorFor(substate string, tree int) *faultMismatchError {
	e := newFaultMismatchError()
	e.add(substate, tree)
	return e
}

// Sign is sh_sign (§4.11): assembles the hybrid signature for msg from
// the current (fully pre-built) LMS tree and SPHINCS+ signature, then
// refreshes the rolling bottom subtree by one leaf, advances
// current_lms_index, and runs exactly one more step_next call on the
// next tree's build.
func (s *Signer) Sign(dst []byte, msg []byte) (int, error) {
	if !s.loaded {
		return 0, errorf("sh_sign: signer not initialized")
	}
	if s.state == bFatal {
		return 0, s.fatalErr
	}
	want := SignatureSize(s.cfg)
	if len(dst) < want {
		return 0, errorf("sh_sign: destination buffer too small (%d < %d)", len(dst), want)
	}

	q := s.currentLMSIndex
	off := 0
	binary.BigEndian.PutUint32(dst[off:off+4], 0)
	off += 4
	binary.BigEndian.PutUint32(dst[off:off+4], q)
	off += 4

	otsSig := s.currentLMS.ots.sign(q, msg)
	copy(dst[off:off+len(otsSig)], otsSig)
	off += len(otsSig)

	binary.BigEndian.PutUint32(dst[off:off+4], lmsTreeParamID)
	off += 4
	for _, node := range s.currentLMS.authPath(q) {
		copy(dst[off:off+n], node[:])
		off += n
	}

	copy(dst[off:off+lenPubKey], s.currentLMSPub[:])
	off += lenPubKey
	copy(dst[off:off+sphSigLen], s.currentSphSig)
	off += sphSigLen

	s.currentLMS.refreshBottom(q)
	s.currentLMSIndex++
	s.stepNext(true)

	return off, nil
}
