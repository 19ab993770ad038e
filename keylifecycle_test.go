package hsig

import "testing"

func TestPublicKeyBytesRoundTrip(t *testing.T) {
	pk := &PublicKey{ParamTag: sphTopParamID}
	for i := range pk.PkSeed {
		pk.PkSeed[i] = byte(i)
	}
	for i := range pk.PkRoot {
		pk.PkRoot[i] = byte(255 - i)
	}
	enc := pk.Bytes()
	if len(enc) != lenPubKey {
		t.Fatalf("encoded public key length = %d, want %d", len(enc), lenPubKey)
	}
	got, err := ParsePublicKey(enc)
	if err != nil {
		t.Fatalf("ParsePublicKey: %v", err)
	}
	if *got != *pk {
		t.Fatalf("ParsePublicKey(Bytes()) did not round-trip")
	}
}

func TestParsePublicKeyRejectsWrongLength(t *testing.T) {
	if _, err := ParsePublicKey(make([]byte, lenPubKey-1)); err == nil {
		t.Fatalf("expected an error for a short encoding")
	}
}

func TestSecretKeyBytesRoundTrip(t *testing.T) {
	sk := &SecretKey{ParamTag: sphTopParamID}
	for i := range sk.SkSeed {
		sk.SkSeed[i] = byte(i)
	}
	for i := range sk.SkPrf {
		sk.SkPrf[i] = byte(i + 1)
	}
	for i := range sk.PkSeed {
		sk.PkSeed[i] = byte(i + 2)
	}
	for i := range sk.PkRoot {
		sk.PkRoot[i] = byte(i + 3)
	}
	enc := sk.Bytes()
	if len(enc) != lenPrivKey {
		t.Fatalf("encoded secret key length = %d, want %d", len(enc), lenPrivKey)
	}
	got, err := ParseSecretKey(enc)
	if err != nil {
		t.Fatalf("ParseSecretKey: %v", err)
	}
	if *got != *sk {
		t.Fatalf("ParseSecretKey(Bytes()) did not round-trip")
	}
}

func TestSecretKeyZeroScrubsSeeds(t *testing.T) {
	sk := &SecretKey{}
	for i := range sk.SkSeed {
		sk.SkSeed[i] = 0xff
	}
	for i := range sk.SkPrf {
		sk.SkPrf[i] = 0xff
	}
	sk.Zero()
	for _, b := range sk.SkSeed {
		if b != 0 {
			t.Fatalf("Zero() left a nonzero byte in SkSeed")
		}
	}
	for _, b := range sk.SkPrf {
		if b != 0 {
			t.Fatalf("Zero() left a nonzero byte in SkPrf")
		}
	}
}

// A deterministic sequence stands in for the system randomness source so
// Keygen/Load can be tested without depending on crypto/rand.
func sequentialRand(seed byte) randSource {
	counter := seed
	return func(buf []byte) bool {
		for i := range buf {
			buf[i] = counter
			counter++
		}
		return true
	}
}

func TestKeygenProducesConsistentPublicKey(t *testing.T) {
	if testing.Short() {
		t.Skip("Keygen builds a full SPHINCS+ top-level tree")
	}
	pk, sk, err := Keygen(sequentialRand(1))
	if err != nil {
		t.Fatalf("Keygen: %v", err)
	}
	defer sk.Zero()

	if pk.PkSeed != sk.PkSeed || pk.PkRoot != sk.PkRoot {
		t.Fatalf("PublicKey returned by Keygen does not match the embedded fields of SecretKey")
	}

	pk2, sk2, err := Keygen(sequentialRand(1))
	if err != nil {
		t.Fatalf("Keygen: %v", err)
	}
	defer sk2.Zero()
	if pk.PkRoot != pk2.PkRoot {
		t.Fatalf("Keygen with identical randomness must produce the same top-level root")
	}
}

func TestKeygenRejectsFailingRandSource(t *testing.T) {
	failing := func(buf []byte) bool { return false }
	if _, _, err := Keygen(failing); err == nil {
		t.Fatalf("Keygen must fail when the randomness source reports failure")
	}
}

func TestLoadAndSignRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Keygen/Load build full LMS, FORS and hypertree structures")
	}
	pk, sk, err := Keygen(sequentialRand(7), WithSpeedSetting(SpeedFast))
	if err != nil {
		t.Fatalf("Keygen: %v", err)
	}
	defer sk.Zero()

	signer, err := Load(sk, sequentialRand(99), WithSpeedSetting(SpeedFast))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer signer.Delete()

	if *signer.PublicKey() != *pk {
		t.Fatalf("Signer.PublicKey() does not match the key pair it was loaded from")
	}

	dst := make([]byte, SignatureSize(defaultConfig()))
	msg := []byte("a message signed by the incremental hybrid signer")
	nWritten, err := signer.Sign(dst, msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	sig := dst[:nWritten]

	ok, err := Verify(pk, msg, sig)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatalf("Verify rejected a signature produced by Load+Sign over the matching public key")
	}

	ok, err = Verify(pk, []byte("a different message"), sig)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatalf("Verify accepted a signature against a message it was not issued for")
	}
}

func TestSignAfterDeleteFails(t *testing.T) {
	if testing.Short() {
		t.Skip("Load builds full LMS, FORS and hypertree structures")
	}
	_, sk, err := Keygen(sequentialRand(3))
	if err != nil {
		t.Fatalf("Keygen: %v", err)
	}
	defer sk.Zero()
	signer, err := Load(sk, sequentialRand(4))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	signer.Delete()

	dst := make([]byte, SignatureSize(defaultConfig()))
	if _, err := signer.Sign(dst, []byte("msg")); err == nil {
		t.Fatalf("Sign must fail after Delete")
	}
}
