package hsig

import "testing"

func TestAdrFieldLayout(t *testing.T) {
	var a adr
	a.setLayer(0x42)
	a.setTree(0x0102030405060708)
	a.setType(adrWotsHash)
	a.setKeyPairAddress(7)
	a.setChainAddress(3)
	a.setHashAddress(9)

	if a[0] != 0x42 {
		t.Fatalf("layer byte = %#x, want 0x42", a[0])
	}
	if got := getBigEndian(a[1:9]); got != 0x0102030405060708 {
		t.Fatalf("tree_address = %#x, want 0x0102030405060708", got)
	}
	if a[9] != byte(adrWotsHash) {
		t.Fatalf("type byte = %d, want %d", a[9], adrWotsHash)
	}
	if a[13] != 7 {
		t.Fatalf("key_pair_address low byte = %d, want 7", a[13])
	}
	if got := getBigEndian(a[14:18]); got != 3 {
		t.Fatalf("chain_address = %d, want 3", got)
	}
	if a[21] != 9 {
		t.Fatalf("hash_address low byte = %d, want 9", a[21])
	}
}

// setType must zero every byte from offset 10 onward, since a reused adr
// may carry stale key_pair_address/chain_address/hash_address bytes from
// the previous hash it parameterized.
func TestAdrSetTypeClearsTail(t *testing.T) {
	var a adr
	a.setLayer(1)
	a.setTree(2)
	a.setType(adrWotsHash)
	a.setKeyPairAddress(0xff)
	a.setChainAddress(0xffffffff)
	a.setHashAddress(0xff)

	a.setType(adrForsTree)
	for i := 10; i < adrLen; i++ {
		if a[i] != 0 {
			t.Fatalf("byte %d = %d after setType, want 0", i, a[i])
		}
	}
	if a[0] != 1 {
		t.Fatalf("setType must not disturb layer_address")
	}
	if getBigEndian(a[1:9]) != 2 {
		t.Fatalf("setType must not disturb tree_address")
	}
}

// chain_address and tree_height alias the same four bytes, as do
// hash_address and tree_index; the two names are interchangeable views
// of identical storage.
func TestAdrAliasing(t *testing.T) {
	var a adr
	a.setType(adrHashTree)
	a.setTreeHeight(5)
	if getBigEndian(a[14:18]) != 5 {
		t.Fatalf("setTreeHeight did not write the chain_address bytes")
	}
	a.setChainAddress(9)
	if getBigEndian(a[14:18]) != 9 {
		t.Fatalf("setChainAddress did not overwrite the tree_height bytes")
	}

	a.setTreeIndex(0xabcdef)
	if getBigEndian(a[18:22]) != 0xabcdef {
		t.Fatalf("setTreeIndex did not write the hash_address bytes")
	}
	a.setHashAddress(3)
	if a[21] != 3 || a[18] != 0 || a[19] != 0 || a[20] != 0 {
		t.Fatalf("setHashAddress must clear the two bytes above its low byte, leaving only the low byte set")
	}
}

func TestBigEndianRoundTrip(t *testing.T) {
	buf := make([]byte, 4)
	putBigEndian(buf, 0x01020304)
	if got := getBigEndian(buf); got != 0x01020304 {
		t.Fatalf("round trip = %#x, want 0x01020304", got)
	}
}
