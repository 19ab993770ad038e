package hsig

import "testing"

func TestLmsFakeFormula(t *testing.T) {
	cases := []struct {
		speed SpeedSetting
		fault FaultStrategy
		want  int
	}{
		{SpeedFast, FaultNone, 7},
		{SpeedSlow, FaultNone, 6},
		{SpeedFast, FaultFatal, 6},
		{SpeedFast, FaultRecover, 5},
		{SpeedSlow, FaultRecover, 4},
	}
	for _, c := range cases {
		if got := lmsFake(c.speed, c.fault); got != c.want {
			t.Fatalf("lmsFake(%v, %v) = %d, want %d", c.speed, c.fault, got, c.want)
		}
	}
}

func TestLmsActualPlusFakeIsTreeHeight(t *testing.T) {
	for _, speed := range []SpeedSetting{SpeedFast, SpeedSlow} {
		for _, fault := range []FaultStrategy{FaultNone, FaultFatal, FaultRecover} {
			actual := lmsActual(speed, fault)
			fake := lmsFake(speed, fault)
			if actual+fake != lmsH {
				t.Fatalf("actual(%d) + fake(%d) != lmsH(%d) for speed=%v fault=%v",
					actual, fake, lmsH, speed, fault)
			}
			top := lmsTopHeight(speed, fault)
			bottom := lmsBottomHeight(speed, fault)
			if top+bottom != actual {
				t.Fatalf("topHeight(%d) + bottomHeight(%d) != actual(%d)", top, bottom, actual)
			}
		}
	}
}

func TestSignatureSizeDefaultConfig(t *testing.T) {
	cfg := defaultConfig()
	got := SignatureSize(cfg)
	p := cfg.Speed.lmOtsP()
	want := sphSigLen + lenPubKey + (12 + n*(1+p)) + (4 + n*lmsH)
	if got != want {
		t.Fatalf("SignatureSize = %d, want %d", got, want)
	}
}

func TestSignatureSizeVariesWithSpeed(t *testing.T) {
	fast := SignatureSize(Config{Speed: SpeedFast})
	slow := SignatureSize(Config{Speed: SpeedSlow})
	if fast == slow {
		t.Fatalf("SignatureSize must differ between W=4 and W=2 LM-OTS parameters")
	}
	if slow <= fast {
		t.Fatalf("the W=2 (p=101) signature must be larger than the W=4 (p=51) one")
	}
}

func TestNewConfigDefaultsAndOptions(t *testing.T) {
	c := newConfig()
	if c.Speed != SpeedFast || c.Keygen != KeygenSHA256 || c.Fault != FaultNone {
		t.Fatalf("newConfig() with no options did not match defaultConfig()")
	}

	c2 := newConfig(WithSpeedSetting(SpeedSlow), WithFaultStrategy(FaultRecover), WithDummyLoad(true), WithProfiling(true))
	if c2.Speed != SpeedSlow || c2.Fault != FaultRecover || !c2.Dummy || !c2.Profile {
		t.Fatalf("newConfig() did not apply every option")
	}
}

func TestLmOtsParamIDRoundTrip(t *testing.T) {
	if speed, ok := speedFromParamID(SpeedFast.lmOtsParamID()); !ok || speed != SpeedFast {
		t.Fatalf("speedFromParamID did not recover SpeedFast")
	}
	if speed, ok := speedFromParamID(SpeedSlow.lmOtsParamID()); !ok || speed != SpeedSlow {
		t.Fatalf("speedFromParamID did not recover SpeedSlow")
	}
	if _, ok := speedFromParamID(0xdeadbeef); ok {
		t.Fatalf("speedFromParamID must reject an unknown parameter id")
	}
}
