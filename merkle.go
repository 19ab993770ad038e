package hsig

// merkleBuilder streams the construction of one XMSS (Merkle) tree of
// height `height`, used for each SPHINCS+ hypertree layer (§4.7). It is
// driven by repeated calls to step(maxLeaves), each advancing by at most
// maxLeaves leaves — the caller (signer.go's b_hypertree substate)
// passes SpeedSetting.merkleChainsPerIter() so that one step costs about
// as much as one LMS leaf build.
type merkleBuilder struct {
	t      *tweak
	p      *prf
	a      adr
	height int
	target *uint32 // leaf index to collect an auth path for; nil if none wanted

	leafIdx int
	stack   []mstackEntry

	authPath [][n]byte
	root     [n]byte
	done     bool
}

type mstackEntry struct {
	node        [n]byte
	height      int
	idxAtHeight int
}

// newMerkleBuilder starts a build for the tree at the given hypertree
// layer and tree address. If target is non-nil, the builder also
// collects the authentication path from that leaf to the root.
func newMerkleBuilder(t *tweak, p *prf, layer byte, treeAddr uint64, height int, target *uint32) *merkleBuilder {
	m := &merkleBuilder{t: t, p: p, height: height, target: target, authPath: make([][n]byte, height)}
	m.a.setLayer(layer)
	m.a.setTree(treeAddr)
	return m
}

func (m *merkleBuilder) totalLeaves() int { return 1 << uint(m.height) }

// step advances the build by at most maxLeaves leaves and reports
// whether the tree is now complete.
func (m *merkleBuilder) step(maxLeaves int) bool {
	if m.done {
		return true
	}
	limit := m.leafIdx + maxLeaves
	total := m.totalLeaves()
	if limit > total {
		limit = total
	}
	for ; m.leafIdx < limit; m.leafIdx++ {
		i := m.leafIdx
		m.a.setType(adrWotsHash)
		m.a.setKeyPairAddress(uint32(i))
		pk := wotsPkGen(m.t, m.p, &m.a)
		leaf := wotsCompressPk(m.t, &m.a, pk)
		m.pushLeaf(mstackEntry{node: leaf, height: 0, idxAtHeight: i})
	}
	if m.leafIdx >= total {
		if len(m.stack) == 1 {
			m.root = m.stack[0].node
		}
		m.done = true
	}
	return m.done
}

// maybeStoreAuthPath records e if it is the sibling of the target leaf's
// ancestor at e.height.
func (m *merkleBuilder) maybeStoreAuthPath(e mstackEntry) {
	if m.target == nil {
		return
	}
	if (e.idxAtHeight ^ 1) == int(*m.target)>>uint(e.height) {
		m.authPath[e.height] = e.node
	}
}

// pushLeaf pushes e onto the height-indexed stack and repeatedly
// combines the top two entries with H whenever they share a height,
// which reproduces the correct postorder Merkle combination driven
// purely by the binary structure of the leaf counter (§4.7 step 4).
func (m *merkleBuilder) pushLeaf(e mstackEntry) {
	m.maybeStoreAuthPath(e)
	m.stack = append(m.stack, e)
	for len(m.stack) >= 2 && m.stack[len(m.stack)-1].height == m.stack[len(m.stack)-2].height {
		right := m.stack[len(m.stack)-1]
		left := m.stack[len(m.stack)-2]
		m.stack = m.stack[:len(m.stack)-2]

		h := right.height
		idx := right.idxAtHeight >> 1
		m.a.setType(adrHashTree)
		m.a.setTreeHeight(uint32(h + 1))
		m.a.setTreeIndex(uint32(idx))
		parent := mstackEntry{node: m.t.h2(&m.a, left.node[:], right.node[:]), height: h + 1, idxAtHeight: idx}

		m.maybeStoreAuthPath(parent)
		m.stack = append(m.stack, parent)
	}
}
