package hsig

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"testing"
)

func TestSha256SnapshotMatchesFullHash(t *testing.T) {
	var pkSeed [n]byte
	for i := range pkSeed {
		pkSeed[i] = byte(i)
	}
	snap := snapshotAfterBlock(padPkSeed(pkSeed[:]))

	tail := []byte("arbitrary tail bytes fed after the snapshotted block")

	got := snap.new()
	got.Write(tail)

	want := sha256.New()
	want.Write(padPkSeed(pkSeed[:]))
	want.Write(tail)

	if !bytes.Equal(got.Sum(nil), want.Sum(nil)) {
		t.Fatalf("snapshot-resumed hash disagrees with a plain SHA-256 of the same bytes")
	}
}

func TestSha256SnapshotIsReusable(t *testing.T) {
	snap := snapshotAfterBlock(padPkSeed([]byte("seed")))
	h1 := snap.new()
	h1.Write([]byte("first"))
	sum1 := h1.Sum(nil)

	h2 := snap.new()
	h2.Write([]byte("second"))
	sum2 := h2.Sum(nil)

	if bytes.Equal(sum1, sum2) {
		t.Fatalf("distinct tails must not produce the same digest")
	}

	h3 := snap.new()
	h3.Write([]byte("first"))
	if !bytes.Equal(h1.Sum(nil), h3.Sum(nil)) {
		// h1.Sum was already called above without mutating h1's state,
		// so calling it again must still agree with a fresh restore.
		t.Fatalf("snapshot restore is not idempotent")
	}
}

func TestPadPkSeedPadsToBlockSize(t *testing.T) {
	seed := []byte{1, 2, 3}
	block := padPkSeed(seed)
	if len(block) != 64 {
		t.Fatalf("padPkSeed length = %d, want 64", len(block))
	}
	if !bytes.Equal(block[:3], seed) {
		t.Fatalf("padPkSeed must place the seed at the start of the block")
	}
	for _, b := range block[3:] {
		if b != 0 {
			t.Fatalf("padPkSeed must zero-fill the remainder of the block")
		}
	}
}

func TestHmacSHA256MatchesStdlib(t *testing.T) {
	key := []byte("a 24 byte test key!!!!!!")
	msg := []byte("the quick brown fox jumps over the lazy dog")

	h := newHMACSHA256()
	h.Update(msg)
	got := h.Final(key)

	want := hmac.New(sha256.New, key)
	want.Write(msg)
	if !bytes.Equal(got[:], want.Sum(nil)) {
		t.Fatalf("hmacSHA256 disagrees with crypto/hmac")
	}
}

func TestHmacSHA256OnceMatchesIncremental(t *testing.T) {
	key := []byte("key")
	data := []byte("data fed in one shot")

	once := hmacSHA256Once(key, data)

	h := newHMACSHA256()
	h.Update(data[:5])
	h.Update(data[5:])
	incremental := h.Final(key)

	if once != incremental {
		t.Fatalf("hmacSHA256Once disagrees with an equivalent incremental computation")
	}
}

func TestHMACDRBGDeterministic(t *testing.T) {
	var seed [48]byte
	for i := range seed {
		seed[i] = byte(i * 7)
	}

	d1 := newHMACDRBG(seed)
	d2 := newHMACDRBG(seed)

	out1 := make([]byte, 100)
	out2 := make([]byte, 100)
	if !d1.read(out1) || !d2.read(out2) {
		t.Fatalf("read() reported failure on a fresh DRBG")
	}
	if !bytes.Equal(out1, out2) {
		t.Fatalf("two DRBGs seeded identically must produce identical output")
	}

	out3 := make([]byte, 100)
	d1.read(out3)
	if bytes.Equal(out1, out3) {
		t.Fatalf("successive reads from the same DRBG must not repeat")
	}
}

func TestHMACDRBGReseedChangesOutput(t *testing.T) {
	var seed [48]byte
	d := newHMACDRBG(seed)
	before := make([]byte, 32)
	d.read(before)

	var seed2 [48]byte
	for i := range seed2 {
		seed2[i] = 0xff
	}
	d.reseed(seed2)
	after := make([]byte, 32)
	d.read(after)

	if bytes.Equal(before, after) {
		t.Fatalf("output before and after reseed must differ")
	}
	if d.reseedCounter != 2 {
		t.Fatalf("reseedCounter = %d after one read post-reseed, want 2", d.reseedCounter)
	}
}

func TestHMACDRBGRefusesPastReseedLimit(t *testing.T) {
	var seed [48]byte
	d := newHMACDRBG(seed)
	d.reseedCounter = drbgReseedLimit + 1

	buf := make([]byte, 16)
	if d.read(buf) {
		t.Fatalf("read() must fail once the reseed counter exceeds the limit")
	}
}
