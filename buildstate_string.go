package hsig

// buildState enumerates the hybrid signer's seven build states (bInit
// through bDone) plus the terminal fatal state (§4.10). Generated in the shape
// github.com/alvaroloes/enumer would produce (a _name string plus an
// _index offset table and a bounds-checked String method); hand-written
// here since `go generate` cannot run in this environment.
//
//go:generate enumer -type=buildState
type buildState int

const (
	bInit buildState = iota
	bDoLMS
	bLMSFinished
	bFors
	bCompleteFors
	bHypertree
	bDone
	bFatal
)

const _buildStateName = "bInitbDoLMSbLMSFinishedbForsbCompleteForsbHypertreebDonebFatal"

var _buildStateIndex = [...]uint8{0, 5, 11, 23, 28, 41, 51, 56, 62}

func (s buildState) String() string {
	if s < 0 || int(s) >= len(_buildStateIndex)-1 {
		return "buildState(invalid)"
	}
	return _buildStateName[_buildStateIndex[s]:_buildStateIndex[s+1]]
}
