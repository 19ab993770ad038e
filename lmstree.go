package hsig

import "encoding/binary"

// lmsSubtree is a complete-binary-tree node array (root at array index
// 0, leaves occupying the last half), addressed by (height-from-leaf,
// index-within-that-level). This is the in-memory representation of the
// LMS top and bottom subtrees of §4.9; it replaces the literal
// node_id-offset storage formula of the source material with the
// standard array-heap layout, a resolved simplification recorded in
// DESIGN.md.
type lmsSubtree struct {
	height int
	nodes  [][n]byte
}

func newLmsSubtree(height int) *lmsSubtree {
	return &lmsSubtree{height: height, nodes: make([][n]byte, (1<<uint(height+1))-1)}
}

func (s *lmsSubtree) index(height, idx int) int {
	level := s.height - height
	return (1 << uint(level)) - 1 + idx
}

func (s *lmsSubtree) set(height, idx int, v [n]byte) { s.nodes[s.index(height, idx)] = v }
func (s *lmsSubtree) get(height, idx int) [n]byte    { return s.nodes[s.index(height, idx)] }

// lmsTree is one incrementally-built LMS Merkle tree: the resumable
// actual-height build (b_do_lms), the faked-top-levels combination
// (b_lms_finished), and the per-signature authentication path assembly
// and rolling bottom-subtree refresh (§4.11).
type lmsTree struct {
	I     [16]byte
	speed SpeedSetting
	fault FaultStrategy

	actual, topH, bottomH int
	ots                   *lmsOTS

	leafIdx    int
	stack      []mstackEntry
	built      bool
	actualRoot [n]byte

	top *lmsSubtree

	fake     [][n]byte
	rootFull [n]byte

	// bottomCur is the fully-built bottom subtree serving the window
	// (bottomCurWindow) that current signing is inside. bottomNext is
	// the following window's subtree, under incremental construction one
	// leaf at a time by refreshBottom as signatures are emitted, so that
	// it completes exactly as signing reaches its window (§4.9/§4.11
	// step 4's rolling refresh).
	bottomCur       *lmsSubtree
	bottomCurWindow int

	bottomNext       *lmsSubtree
	bottomNextStack  []mstackEntry
	bottomNextWindow int
}

// newLmsTree starts a fresh LMS tree build with identifier I, keyed by a
// PRF over seed (the tree's 24-byte secret) with I as fixed prefix.
func newLmsTree(I [16]byte, seed [n]byte, cfg Config) *lmsTree {
	t := &lmsTree{
		I:               I,
		speed:           cfg.Speed,
		fault:           cfg.Fault,
		actual:          lmsActual(cfg.Speed, cfg.Fault),
		topH:            lmsTopHeight(cfg.Speed, cfg.Fault),
		bottomH:         lmsBottomHeight(cfg.Speed, cfg.Fault),
		bottomCurWindow: -1,
	}
	t.ots = &lmsOTS{I: I, prf: newPRF(cfg.Keygen, seed[:], I[:]), speed: cfg.Speed}
	t.top = newLmsSubtree(t.topH)
	return t
}

func (t *lmsTree) totalLeaves() int { return 1 << uint(t.actual) }

// step advances the actual-tree build by up to maxLeaves leaves
// (b_do_lms, §4.10), reporting whether the actual tree is complete.
func (t *lmsTree) step(maxLeaves int) bool {
	if t.built {
		return true
	}
	limit := t.leafIdx + maxLeaves
	total := t.totalLeaves()
	if limit > total {
		limit = total
	}
	for ; t.leafIdx < limit; t.leafIdx++ {
		q := uint32(t.leafIdx)
		t.pushLeaf(mstackEntry{node: t.ots.leaf(q), height: 0, idxAtHeight: int(q)})
	}
	if t.leafIdx >= total {
		if len(t.stack) == 1 {
			t.actualRoot = t.stack[0].node
		}
		t.built = true
		t.stack = nil
	}
	return t.built
}

// lmsNodeID computes the node_id domain tag for the node at height
// (0 = leaf) and index parentIdx within that height, numbered against
// the full logical height-lmsH tree rather than whatever actual/fake
// split this particular tree happens to use. Because every leaf index
// is below 2^actual, parentIdx collapses to 0 once height reaches the
// faked levels, so the same formula covers both the really-computed
// interior nodes and the faked upper levels without the caller needing
// to know where the actual/fake boundary falls — the detail that lets
// verify.go recompute these ids with no knowledge of LMS_FAKE at all
// (original_source/lms_compute.c's lms_combine_internal_nodes,
// generalized to a global rather than per-subtree numbering).
func lmsNodeID(height, parentIdx int) uint32 {
	return uint32(1<<uint(lmsH-(height+1))) + uint32(parentIdx)
}

// combine hashes a real internal node of the actual tree.
func (t *lmsTree) combine(height, leftIdx int, left, right [n]byte) [n]byte {
	parentIdx := leftIdx >> 1
	return lmsCombine(t.I[:], lmsNodeID(height, parentIdx), left, right)
}

func (t *lmsTree) pushLeaf(e mstackEntry) {
	t.persist(e)
	t.stack = append(t.stack, e)
	for len(t.stack) >= 2 && t.stack[len(t.stack)-1].height == t.stack[len(t.stack)-2].height {
		right := t.stack[len(t.stack)-1]
		left := t.stack[len(t.stack)-2]
		t.stack = t.stack[:len(t.stack)-2]

		h := right.height
		parentNode := t.combine(h, left.idxAtHeight, left.node, right.node)
		parent := mstackEntry{node: parentNode, height: h + 1, idxAtHeight: left.idxAtHeight >> 1}
		t.persist(parent)
		t.stack = append(t.stack, parent)
	}
}

// persist stores e into the bottom subtree if it belongs to the first
// window (leaves [0, 2^bottomH)) or into the top subtree if it sits at
// or above the bottom/top split. Nodes below the split that lie outside
// the first window are not written here at all; those windows are
// filled later, one leaf per signature, by refreshBottom.
func (t *lmsTree) persist(e mstackEntry) {
	if e.height < t.bottomH {
		if e.idxAtHeight < (1 << uint(t.bottomH-e.height)) {
			if t.bottomCur == nil {
				t.bottomCur = newLmsSubtree(t.bottomH)
				t.bottomCurWindow = 0
			}
			t.bottomCur.set(e.height, e.idxAtHeight, e.node)
		}
		return
	}
	t.top.set(e.height-t.bottomH, e.idxAtHeight, e.node)
}

// finishFake draws the LMS_FAKE faked upper auth-path nodes from drbg and
// combines them with the actual tree's root to produce the full LMS
// root (b_lms_finished, §4.10).
func (t *lmsTree) finishFake(drbg *hmacDRBG) bool {
	count := lmsFake(t.speed, t.fault)
	t.fake = make([][n]byte, count)
	cur := t.actualRoot
	for f := 0; f < count; f++ {
		if !drbg.read(t.fake[f][:]) {
			return false
		}
		height := t.actual + f
		cur = lmsCombine(t.I[:], lmsNodeID(height, 0), cur, t.fake[f])
	}
	t.rootFull = cur
	return true
}

// publicKey assembles the 52-byte LMS public key: BE32(1) ||
// BE32(lmsTreeParamID) || BE32(lmOtsParamID) || I || root (§4.10).
func (t *lmsTree) publicKey() [lenPubKey]byte {
	var pk [lenPubKey]byte
	binary.BigEndian.PutUint32(pk[0:4], 1)
	binary.BigEndian.PutUint32(pk[4:8], lmsTreeParamID)
	binary.BigEndian.PutUint32(pk[8:12], t.speed.lmOtsParamID())
	copy(pk[12:28], t.I[:])
	copy(pk[28:28+n], t.rootFull[:])
	return pk
}

// refreshBottom is the per-signature rolling refresh of §4.9/§4.11 step
// 4: "after emitting signature number q, the signer precomputes leaf
// q + 2^LMS_BOTTOM and walks it up". It advances the incremental build
// of the *next* bottom window by exactly the one leaf that signature q
// makes due, so the cost of keeping the bottom subtree current is spread
// evenly across every Sign call rather than paid in one lump rebuild
// when the window boundary is crossed. Because the window's own leaves
// are presented to pushBottomNext in increasing order (q runs 0..2^bottomH-1
// within its window, one per Sign call), the next window's subtree
// completes on exactly the last signature of the current window — ready
// before authPath ever needs it.
func (t *lmsTree) refreshBottom(q uint32) {
	window := int(q) >> uint(t.bottomH)
	future := q + (1 << uint(t.bottomH))
	if int(future) >= t.totalLeaves() {
		return // current window is the last; no next window to prepare
	}
	nextWindow := window + 1
	if t.bottomNext == nil || t.bottomNextWindow != nextWindow {
		t.bottomNext = newLmsSubtree(t.bottomH)
		t.bottomNextStack = nil
		t.bottomNextWindow = nextWindow
	}
	base := uint32(nextWindow) << uint(t.bottomH)
	leaf := t.ots.leaf(future)
	t.pushBottomNext(mstackEntry{node: leaf, height: 0, idxAtHeight: int(future)}, base)

	if len(t.bottomNextStack) == 1 && t.bottomNextStack[0].height == t.bottomH {
		t.bottomCur = t.bottomNext
		t.bottomCurWindow = t.bottomNextWindow
		t.bottomNext = nil
		t.bottomNextStack = nil
	}
}

// pushBottomNext walks e up the next bottom window's build-in-progress
// stack, the same height-indexed stack merge as pushLeaf but scoped to
// the bottomNext subtree (and keyed by the window's own stack, since a
// leaf of the next window must not merge with the current window's
// leaves still on the main build stack).
func (t *lmsTree) pushBottomNext(e mstackEntry, base uint32) {
	t.persistBottomNext(e, base)
	t.bottomNextStack = append(t.bottomNextStack, e)
	for len(t.bottomNextStack) >= 2 && t.bottomNextStack[len(t.bottomNextStack)-1].height == t.bottomNextStack[len(t.bottomNextStack)-2].height {
		right := t.bottomNextStack[len(t.bottomNextStack)-1]
		left := t.bottomNextStack[len(t.bottomNextStack)-2]
		t.bottomNextStack = t.bottomNextStack[:len(t.bottomNextStack)-2]

		h := right.height
		parentNode := t.combine(h, left.idxAtHeight, left.node, right.node)
		parent := mstackEntry{node: parentNode, height: h + 1, idxAtHeight: left.idxAtHeight >> 1}
		t.persistBottomNext(parent, base)
		t.bottomNextStack = append(t.bottomNextStack, parent)
	}
}

// persistBottomNext stores e into bottomNext, translating its global
// index into the window-local index lmsSubtree expects. The window's
// own root (height == bottomH) is not stored: like the first window in
// persist, it becomes a leaf of the top subtree, which the one-time
// initial build already populated for every window.
func (t *lmsTree) persistBottomNext(e mstackEntry, base uint32) {
	if e.height >= t.bottomH {
		return
	}
	local := e.idxAtHeight - int(base>>uint(e.height))
	t.bottomNext.set(e.height, local, e.node)
}

// authPath assembles the lmsH-node authentication path for leaf q:
// bottomH nodes from the window holding q (kept current by
// refreshBottom), topH nodes from the persisted top subtree, then the
// faked levels (§4.11 step 2).
func (t *lmsTree) authPath(q uint32) [][n]byte {
	path := make([][n]byte, 0, lmsH)

	localQ := int(q) & ((1 << uint(t.bottomH)) - 1)
	for h := 0; h < t.bottomH; h++ {
		path = append(path, t.bottomCur.get(h, (localQ>>uint(h))^1))
	}

	topIdx := int(q) >> uint(t.bottomH)
	for h := 0; h < t.topH; h++ {
		path = append(path, t.top.get(h, (topIdx>>uint(h))^1))
	}

	path = append(path, t.fake...)
	return path
}
