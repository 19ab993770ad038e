package hsig

import "testing"

func TestBuildStateStringCoversEveryState(t *testing.T) {
	want := map[buildState]string{
		bInit:         "bInit",
		bDoLMS:        "bDoLMS",
		bLMSFinished:  "bLMSFinished",
		bFors:         "bFors",
		bCompleteFors: "bCompleteFors",
		bHypertree:    "bHypertree",
		bDone:         "bDone",
		bFatal:        "bFatal",
	}
	for s, name := range want {
		if got := s.String(); got != name {
			t.Fatalf("buildState(%d).String() = %q, want %q", s, got, name)
		}
	}
}

func TestBuildStateStringOutOfRange(t *testing.T) {
	if got := buildState(-1).String(); got != "buildState(invalid)" {
		t.Fatalf("String() for a negative buildState = %q", got)
	}
	if got := buildState(100).String(); got != "buildState(invalid)" {
		t.Fatalf("String() for an out-of-range buildState = %q", got)
	}
}
