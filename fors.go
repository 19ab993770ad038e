package hsig

// forsBuilder streams the construction of one FORS tree (§4.6/§4.10,
// "b_fors"): height sphA, keyed by the shared SPHINCS+ secret seed PRF
// and addressed by (layer, hypertree tree index, FORS tree index within
// the k=14 group). It follows the same height-indexed stack-merge shape
// as merkleBuilder and lmsTree, the construction this scheme reuses for
// every incrementally-built binary hash tree.
type forsBuilder struct {
	t *tweak
	p *prf
	a adr

	// offset folds the k-group tree index into every tree_index this
	// builder writes, per original_source/step.c:281-283's
	// full_node_name = leaf + (tree << SPH_A): each of the k FORS trees
	// occupies its own disjoint SPH_A-wide slice of tree_index space.
	offset uint32

	target   uint32
	leafIdx  int
	stack    []mstackEntry

	authPath [][n]byte
	revealed [n]byte
	root     [n]byte
	done     bool
}

// newForsBuilder starts a build for FORS tree treeIdx (0..sphK-1) of the
// hypertree leaf idxLeaf in the hypertree tree at treeAddr, collecting
// the secret preimage and authentication path for leaf `target` (=
// md[treeIdx] from do_compute_digest_index) as it goes. key_pair_address
// is set to idxLeaf (the hypertree leaf these FORS trees belong to, not
// the k-group index) so that every hypertree leaf derives its own,
// independent set of FORS trees (original_source/step.c:268).
func newForsBuilder(t *tweak, p *prf, layer byte, treeAddr uint64, idxLeaf uint32, treeIdx int, target uint32) *forsBuilder {
	f := &forsBuilder{t: t, p: p, target: target, offset: uint32(treeIdx) << sphA, authPath: make([][n]byte, sphA)}
	f.a.setLayer(layer)
	f.a.setTree(treeAddr)
	f.a.setType(adrForsTree)
	f.a.setKeyPairAddress(idxLeaf)
	return f
}

func (f *forsBuilder) totalLeaves() int { return 1 << uint(sphA) }

// step advances the build by up to maxLeaves leaves and reports whether
// the tree is complete.
func (f *forsBuilder) step(maxLeaves int) bool {
	if f.done {
		return true
	}
	limit := f.leafIdx + maxLeaves
	total := f.totalLeaves()
	if limit > total {
		limit = total
	}
	for ; f.leafIdx < limit; f.leafIdx++ {
		i := f.leafIdx
		f.a.setTreeHeight(0)
		f.a.setTreeIndex(uint32(i) + f.offset)

		var sk [n]byte
		// The FORS leaf secret is keyed on the full ADR (layer, tree,
		// fors-tree index, leaf index) the same way WOTS+ chain secrets
		// are, so every leaf of every FORS tree across the whole
		// hypertree gets an independent value.
		f.p.derive(f.a.bytes(), sk[:])
		if uint32(i) == f.target {
			copy(f.revealed[:], sk[:])
		}
		leaf := f.t.f(&f.a, sk[:])
		f.pushLeaf(mstackEntry{node: leaf, height: 0, idxAtHeight: i})
	}
	if f.leafIdx >= total {
		if len(f.stack) == 1 {
			f.root = f.stack[0].node
		}
		f.done = true
	}
	return f.done
}

func (f *forsBuilder) maybeStoreAuthPath(e mstackEntry) {
	if (e.idxAtHeight ^ 1) == int(f.target)>>uint(e.height) {
		f.authPath[e.height] = e.node
	}
}

func (f *forsBuilder) pushLeaf(e mstackEntry) {
	f.maybeStoreAuthPath(e)
	f.stack = append(f.stack, e)
	for len(f.stack) >= 2 && f.stack[len(f.stack)-1].height == f.stack[len(f.stack)-2].height {
		right := f.stack[len(f.stack)-1]
		left := f.stack[len(f.stack)-2]
		f.stack = f.stack[:len(f.stack)-2]

		h := right.height
		idx := right.idxAtHeight >> 1
		f.a.setTreeHeight(uint32(h + 1))
		f.a.setTreeIndex(uint32(idx) + f.offset)
		parent := mstackEntry{node: f.t.h2(&f.a, left.node[:], right.node[:]), height: h + 1, idxAtHeight: idx}

		f.maybeStoreAuthPath(parent)
		f.stack = append(f.stack, parent)
	}
}

// forsPkCompress T-hashes the k FORS tree roots into the single value
// signed by the hypertree (§4.10 "b_complete_fors"). key_pair_address is
// set to idxLeaf, the hypertree leaf these k FORS trees belong to, the
// same as every other FORS-related hash for this leaf
// (original_source/step.c:268).
func forsPkCompress(t *tweak, layer byte, treeAddr uint64, idxLeaf uint32, roots [sphK][n]byte) [n]byte {
	var a adr
	a.setLayer(layer)
	a.setTree(treeAddr)
	a.setType(adrForsRootCompress)
	a.setKeyPairAddress(idxLeaf)
	buf := make([]byte, 0, sphK*n)
	for _, r := range roots {
		buf = append(buf, r[:]...)
	}
	return t.thash(&a, buf)
}
