package hsig

// Fixed scheme-wide sizes. n is the hash output size used throughout: 24
// bytes (SHA-256/192). The scheme supports no other hash family and no
// other SPHINCS+ parameter set, by explicit design.
const (
	n = 24 // hash/tag size in bytes

	lmsH = 20 // logical LMS tree height

	// SPHINCS+ 192s-simple, the only supported parameter set.
	sphK         = 14 // number of FORS trees
	sphA         = 16 // height of each FORS tree
	sphH         = 64 // total hypertree height
	sphD         = 8  // number of hypertree layers
	sphT         = sphH / sphD // height of each hypertree layer
	sphWotsLen   = 51 // WOTS+ chains per hypertree layer (always W=4, independent of SpeedSetting)
	sphWotsLogW  = 4
	sphChainSize = 1 << sphWotsLogW // 16: chain length + 1

	lmOtsParamIDW4 = 0xe0000023
	lmOtsParamIDW2 = 0xe0000022
	lmsTreeParamID = 0xe0000028

	// Domain separation bytes, the D slot of each LMS prefix.
	dPblc = 0x80
	dMesg = 0x81
	dLeaf = 0x82
	dIntr = 0x83

	lenPubKey  = 4 + n + n  // 52
	lenPrivKey = 4 + n*4    // 100
	sphSigLen  = n + sphK*n*(1+sphA) + sphD*(sphWotsLen*n+sphT*n) // 17064
)

// adrType is the ADR "type" field (§4.1); it selects which tweakable
// hash the address parameterizes and resets the positional fields below it.
type adrType byte

const (
	adrWotsHash adrType = iota
	adrWotsKeyCompression
	adrHashTree
	adrForsTree
	adrForsRootCompress
)

// SpeedSetting selects the LMS Winternitz parameter. It does not affect
// the SPHINCS+ hypertree layers, which always use 51-digit (W=4) WOTS+.
type SpeedSetting int

const (
	// SpeedFast: LMS W=4, p=51, ls=4; 2 LMS leaves and 410 FORS leaves
	// built per step_next call.
	SpeedFast SpeedSetting = iota
	// SpeedSlow: LMS W=2, p=101, ls=6; 1 LMS leaf and 220 FORS leaves
	// built per step_next call.
	SpeedSlow
)

func (s SpeedSetting) lmOtsW() int {
	if s == SpeedSlow {
		return 2
	}
	return 4
}

func (s SpeedSetting) lmOtsP() int {
	if s == SpeedSlow {
		return 101
	}
	return 51
}

func (s SpeedSetting) lmOtsLS() uint {
	if s == SpeedSlow {
		return 6
	}
	return 4
}

func (s SpeedSetting) lmOtsParamID() uint32 {
	if s == SpeedSlow {
		return lmOtsParamIDW2
	}
	return lmOtsParamIDW4
}

func (s SpeedSetting) lmsLeavesPerIter() int {
	if s == SpeedSlow {
		return 1
	}
	return 2
}

func (s SpeedSetting) forsLeavesPerIter() int {
	if s == SpeedSlow {
		return 220
	}
	return 410
}

// merkleChainsPerIter is the per-step leaf quota for build_merkle_state
// (§4.7): 2 in W=4 mode, 1 in W=2 mode, matching the LMS leaf quota so
// that one step of hypertree-layer work costs about as much as one LMS
// leaf build.
func (s SpeedSetting) merkleChainsPerIter() int {
	return s.lmsLeavesPerIter()
}

// KeygenStrategy selects the private-key generator construction (§4.4).
// Switching strategies invalidates existing secret keys but never
// affects previously emitted signatures.
type KeygenStrategy int

const (
	KeygenSHA256 KeygenStrategy = iota
	KeygenAES256
)

// FaultStrategy controls redundant recomputation of the hashes that feed
// the next WOTS+ signing operation, per §5 "Fault tolerance".
type FaultStrategy int

const (
	FaultNone     FaultStrategy = iota // no redundancy
	FaultFatal                         // mismatch latches got_fatal_error
	FaultRecover                       // mismatch restarts the offending substate
)

// lmsFake returns the number of faked top LMS levels for the given
// configuration (§4.9): LMS_FAKE = 7 - (W==2?1:0) - FAULT_STRATEGY.
func lmsFake(speed SpeedSetting, fault FaultStrategy) int {
	f := 7
	if speed == SpeedSlow {
		f--
	}
	f -= int(fault)
	if f < 0 {
		f = 0
	}
	return f
}

func lmsActual(speed SpeedSetting, fault FaultStrategy) int {
	return lmsH - lmsFake(speed, fault)
}

func lmsTopHeight(speed SpeedSetting, fault FaultStrategy) int {
	actual := lmsActual(speed, fault)
	return (actual + 1) / 2
}

func lmsBottomHeight(speed SpeedSetting, fault FaultStrategy) int {
	actual := lmsActual(speed, fault)
	return actual / 2
}

// Config collects the compile-time-equivalent options of §6, set once
// at construction via functional options.
type Config struct {
	Speed    SpeedSetting
	Keygen   KeygenStrategy
	Fault    FaultStrategy
	Dummy    bool
	Profile  bool
}

// Option configures a Config.
type Option func(*Config)

// WithSpeedSetting selects the LMS Winternitz parameter (SpeedFast by
// default).
func WithSpeedSetting(s SpeedSetting) Option { return func(c *Config) { c.Speed = s } }

// WithKeygenStrategy selects the private-key generator construction
// (KeygenSHA256 by default).
func WithKeygenStrategy(k KeygenStrategy) Option { return func(c *Config) { c.Keygen = k } }

// WithFaultStrategy selects the redundant-recomputation policy (FaultNone
// by default).
func WithFaultStrategy(f FaultStrategy) Option { return func(c *Config) { c.Fault = f } }

// WithDummyLoad enables step-latency equalization via throwaway
// compressions (off by default).
func WithDummyLoad(on bool) Option { return func(c *Config) { c.Dummy = on } }

// WithProfiling enables the optional hash-compression counter (off by
// default; see Signer.HashCompressions).
func WithProfiling(on bool) Option { return func(c *Config) { c.Profile = on } }

func defaultConfig() Config {
	return Config{Speed: SpeedFast, Keygen: KeygenSHA256, Fault: FaultNone}
}

func newConfig(opts ...Option) Config {
	c := defaultConfig()
	for _, o := range opts {
		o(&c)
	}
	return c
}

// SignatureSize returns the exact byte length of a hybrid signature
// produced under cfg, per §6 (component sizes summed rather than the
// literal 18860/20060 figures, which describe the same geometry and
// agree with S2's computed total for the default configuration).
func SignatureSize(cfg Config) int {
	p := cfg.Speed.lmOtsP()
	otsSig := 12 + n*(1+p)
	authPath := 4 + n*lmsH
	return sphSigLen + lenPubKey + otsSig + authPath
}
