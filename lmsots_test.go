package hsig

import "testing"

func TestLmsCombineDeterministicAndSensitive(t *testing.T) {
	I := bytes16(0x01)
	var left, right [n]byte
	for i := range left {
		left[i] = byte(i)
		right[i] = byte(i + 1)
	}

	a := lmsCombine(I[:], 7, left, right)
	b := lmsCombine(I[:], 7, left, right)
	if a != b {
		t.Fatalf("lmsCombine must be deterministic")
	}

	c := lmsCombine(I[:], 8, left, right)
	if a == c {
		t.Fatalf("lmsCombine must be sensitive to node_id")
	}

	d := lmsCombine(I[:], 7, right, left)
	if a == d {
		t.Fatalf("lmsCombine must be sensitive to left/right order")
	}
}

func bytes16(fill byte) [16]byte {
	var b [16]byte
	for i := range b {
		b[i] = fill
	}
	return b
}

func testLmsOTSSignVerifyRoundTrip(t *testing.T, speed SpeedSetting) {
	t.Helper()
	I := bytes16(0x5a)
	seed := [n]byte{}
	for i := range seed {
		seed[i] = byte(i * 3)
	}
	prf := newPRF(KeygenSHA256, seed[:], I[:])
	ots := &lmsOTS{I: I, prf: prf, speed: speed}

	const q = 42
	msg := []byte("sign this message")
	sig := ots.sign(q, msg)

	want := 4 + n*(1+speed.lmOtsP())
	if len(sig) != want {
		t.Fatalf("signature length = %d, want %d", len(sig), want)
	}

	recoveredPk, err := lmsOTSRecoverPublicKey(I[:], q, speed, sig, msg)
	if err != nil {
		t.Fatalf("lmsOTSRecoverPublicKey: %v", err)
	}
	if recoveredPk != ots.publicKey(q) {
		t.Fatalf("recovered public key does not match the real one")
	}

	recoveredTampered, err := lmsOTSRecoverPublicKey(I[:], q, speed, sig, []byte("tampered message"))
	if err != nil {
		t.Fatalf("lmsOTSRecoverPublicKey: %v", err)
	}
	if recoveredTampered == recoveredPk {
		t.Fatalf("recovering against a different message must not reproduce the same public key")
	}
}

func TestLmsOTSSignVerifyRoundTripW4(t *testing.T) { testLmsOTSSignVerifyRoundTrip(t, SpeedFast) }
func TestLmsOTSSignVerifyRoundTripW2(t *testing.T) { testLmsOTSSignVerifyRoundTrip(t, SpeedSlow) }

func TestLmsOTSRecoverPublicKeyRejectsWrongLength(t *testing.T) {
	I := bytes16(0x01)
	_, err := lmsOTSRecoverPublicKey(I[:], 0, SpeedFast, []byte{1, 2, 3}, []byte("msg"))
	if err == nil {
		t.Fatalf("expected an error for a short signature")
	}
}

func TestLmsLeafHashDependsOnLeafIndex(t *testing.T) {
	I := bytes16(0x02)
	var pk [n]byte
	for i := range pk {
		pk[i] = byte(i)
	}
	l1 := lmsLeafHash(I[:], 0, pk)
	l2 := lmsLeafHash(I[:], 1, pk)
	if l1 == l2 {
		t.Fatalf("lmsLeafHash must depend on the leaf index q")
	}
}

func TestLmOtsCoefExtraction(t *testing.T) {
	buf := []byte{0xab, 0xcd}
	if got := lmOtsCoef(buf, 0, 4); got != 0xa {
		t.Fatalf("digit 0 (w=4) = %x, want a", got)
	}
	if got := lmOtsCoef(buf, 1, 4); got != 0xb {
		t.Fatalf("digit 1 (w=4) = %x, want b", got)
	}
	if got := lmOtsCoef(buf, 0, 2); got != 0x2 {
		t.Fatalf("digit 0 (w=2) = %x, want 2", got)
	}
}
