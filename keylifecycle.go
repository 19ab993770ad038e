package hsig

import (
	"crypto/rand"
	"encoding/binary"
)

// sphTopParamID tags the single supported parameter set (SPHINCS+
// 192s-simple over SHA-256/192) in both PublicKey and SecretKey
// encodings (§3, §6). There is exactly one supported configuration of
// hash family and SPHINCS+ parameter set, by explicit design, so this
// is a constant rather than a registry.
const sphTopParamID = 1

// PublicKey is the verifier's view of a key pair (§3): a parameter tag,
// the shared pk_seed, and the SPHINCS+ top-level Merkle root.
type PublicKey struct {
	ParamTag uint32
	PkSeed   [n]byte
	PkRoot   [n]byte
}

// Bytes encodes the public key as BE32(param_tag) || pk_seed || pk_root.
func (pk *PublicKey) Bytes() []byte {
	out := make([]byte, lenPubKey)
	binary.BigEndian.PutUint32(out[0:4], pk.ParamTag)
	copy(out[4:4+n], pk.PkSeed[:])
	copy(out[4+n:4+2*n], pk.PkRoot[:])
	return out
}

// ParsePublicKey decodes the encoding produced by PublicKey.Bytes.
func ParsePublicKey(b []byte) (*PublicKey, error) {
	if len(b) != lenPubKey {
		return nil, errorf("public key: length %d, want %d", len(b), lenPubKey)
	}
	pk := &PublicKey{ParamTag: binary.BigEndian.Uint32(b[0:4])}
	copy(pk.PkSeed[:], b[4:4+n])
	copy(pk.PkRoot[:], b[4+n:4+2*n])
	return pk, nil
}

// SecretKey is the signer's long-term secret (§3): parameter tag plus
// the four n-byte seeds that determine every derived value.
type SecretKey struct {
	ParamTag uint32
	SkSeed   [n]byte
	SkPrf    [n]byte
	PkSeed   [n]byte
	PkRoot   [n]byte
}

// Bytes encodes the secret key as BE32(param_tag) || sk_seed || sk_prf ||
// pk_seed || pk_root.
func (sk *SecretKey) Bytes() []byte {
	out := make([]byte, lenPrivKey)
	binary.BigEndian.PutUint32(out[0:4], sk.ParamTag)
	copy(out[4:4+n], sk.SkSeed[:])
	copy(out[4+n:4+2*n], sk.SkPrf[:])
	copy(out[4+2*n:4+3*n], sk.PkSeed[:])
	copy(out[4+3*n:4+4*n], sk.PkRoot[:])
	return out
}

// ParseSecretKey decodes the encoding produced by SecretKey.Bytes.
func ParseSecretKey(b []byte) (*SecretKey, error) {
	if len(b) != lenPrivKey {
		return nil, errorf("secret key: length %d, want %d", len(b), lenPrivKey)
	}
	sk := &SecretKey{ParamTag: binary.BigEndian.Uint32(b[0:4])}
	copy(sk.SkSeed[:], b[4:4+n])
	copy(sk.SkPrf[:], b[4+n:4+2*n])
	copy(sk.PkSeed[:], b[4+2*n:4+3*n])
	copy(sk.PkRoot[:], b[4+3*n:4+4*n])
	return sk, nil
}

// Zero scrubs the secret key's seed material in place.
func (sk *SecretKey) Zero() {
	zeroAll(sk.SkSeed[:], sk.SkPrf[:])
}

// defaultRandSource reads from crypto/rand, the system randomness
// source named but left unspecified by §6 ("out of scope... consumed
// via the interfaces named in §6").
func defaultRandSource(buf []byte) bool {
	_, err := rand.Read(buf)
	return err == nil
}

// Keygen computes a fresh key pair (§2 "Key lifecycle"): random
// sk_seed/sk_prf/pk_seed, then the SPHINCS+ top-level Merkle root,
// which requires building one full XMSS tree at the top hypertree layer
// (layer SPH_D-1, tree address 0) — the one place a complete (rather
// than incrementally streamed) Merkle tree is built, since it happens
// once per key pair rather than once per signature.
func Keygen(rng randSource, opts ...Option) (*PublicKey, *SecretKey, error) {
	if rng == nil {
		rng = defaultRandSource
	}
	cfg := newConfig(opts...)

	var pkSeed, skSeed, skPrf [n]byte
	if !rng(pkSeed[:]) || !rng(skSeed[:]) || !rng(skPrf[:]) {
		return nil, nil, errorf("keygen: system randomness unavailable")
	}

	var ctr *hashCounter
	if cfg.Profile {
		ctr = &hashCounter{}
	}
	tw := newTweak(pkSeed[:], ctr)
	topPRF := newPRF(cfg.Keygen, skSeed[:], nil)

	mb := newMerkleBuilder(tw, topPRF, byte(sphD-1), 0, sphT, nil)
	for !mb.step(mb.totalLeaves()) {
	}

	pk := &PublicKey{ParamTag: sphTopParamID, PkSeed: pkSeed, PkRoot: mb.root}
	sk := &SecretKey{ParamTag: sphTopParamID, SkSeed: skSeed, SkPrf: skPrf, PkSeed: pkSeed, PkRoot: mb.root}
	return pk, sk, nil
}

// Load seeds a Signer from sk and pre-builds the first LMS tree and its
// SPHINCS+ signature by running step_next in a tight loop until the
// build state machine first reaches b_done (§2, §5 "Load time runs
// step_next in a tight loop until b_done is reached for the first
// time").
func Load(sk *SecretKey, rng randSource, opts ...Option) (*Signer, error) {
	if rng == nil {
		rng = defaultRandSource
	}
	cfg := newConfig(opts...)

	var seedMaterial [48]byte
	if !rng(seedMaterial[:]) {
		return nil, errorf("load: system randomness unavailable")
	}

	s := &Signer{cfg: cfg, pkSeed: sk.PkSeed, skSeed: sk.SkSeed, skPrf: sk.SkPrf, sphRoot: sk.PkRoot}
	if cfg.Profile {
		s.ctr = &hashCounter{}
	}
	s.tw = newTweak(s.pkSeed[:], s.ctr)
	s.sphPRF = newPRF(cfg.Keygen, s.skSeed[:], nil)
	s.drbg = newHMACDRBG(seedMaterial)
	s.currentSphSig = make([]byte, sphSigLen)
	s.nextSphSig = make([]byte, sphSigLen)
	s.state = bInit

	lockSecretPages(s.skSeed[:])
	lockSecretPages(s.skPrf[:])

	for {
		if s.stepNext(cfg.Dummy) {
			break
		}
		if s.state == bFatal {
			return nil, s.fatalErr
		}
	}

	s.loaded = true
	return s, nil
}

// PublicKey reconstructs the signer's public key from its retained
// pk_seed/pk_root.
func (s *Signer) PublicKey() *PublicKey {
	return &PublicKey{ParamTag: sphTopParamID, PkSeed: s.pkSeed, PkRoot: s.sphRoot}
}

// Config returns the configuration the signer was loaded with, so a
// caller can size its signature buffer with SignatureSize without
// having to remember which options it passed to Load.
func (s *Signer) Config() Config { return s.cfg }

// HashCompressions returns the number of F/H/T-hash compressions
// performed so far, or 0 if profiling was not enabled via
// WithProfiling (§11 "PROFILE instrumentation").
func (s *Signer) HashCompressions() uint64 {
	if s.ctr == nil {
		return 0
	}
	return s.ctr.compressions
}

// Delete scrubs every secret buffer the signer owns (§5 "Shared-resource
// policy": "on delete, the entire signer region is scrubbed... before
// release"): the seed copies, the PRF and DRBG states and both signature
// buffers. Under KeygenAES256 the expanded AES key schedules held inside
// the PRFs' cipher.Block values are not scrubbed. The signer must not be
// used after Delete returns.
func (s *Signer) Delete() {
	zeroAll(s.pkSeed[:], s.skSeed[:], s.skPrf[:], s.sphRoot[:])
	if s.sphPRF != nil {
		zeroAll(s.sphPRF.prehash[:], s.sphPRF.chain[:])
	}
	if s.drbg != nil {
		zeroAll(s.drbg.key[:], s.drbg.v[:])
	}
	for _, t := range []*lmsTree{s.currentLMS, s.nextLMS} {
		if t != nil && t.ots != nil && t.ots.prf != nil {
			zeroAll(t.ots.prf.prehash[:], t.ots.prf.chain[:])
		}
	}
	unlockSecretPages(s.skSeed[:])
	unlockSecretPages(s.skPrf[:])
	if s.currentSphSig != nil {
		zero(s.currentSphSig)
	}
	if s.nextSphSig != nil {
		zero(s.nextSphSig)
	}
	s.loaded = false
	s.state = bFatal
	s.fatalErr = errorf("signer deleted")
}
