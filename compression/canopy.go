package compression

import (
	"github.com/das-tools/dascheck/common"
)

// cachedPathLength derives how many upper tree levels the canopy caches from
// its byte size. A canopy of depth c stores every node of levels 1..c, which
// is 2^(c+1)-2 nodes; any other size is a corrupt account.
func cachedPathLength(canopy []byte, maxDepth uint32) (uint32, error) {
	if len(canopy) == 0 {
		return 0, nil
	}
	if len(canopy)%NodeSize != 0 {
		return 0, errCanopy("canopy size is not a whole number of nodes", len(canopy))
	}

	nodes := uint32(len(canopy)/NodeSize) + 2
	if nodes&(nodes-1) != 0 {
		return 0, errCanopy("canopy does not hold a full set of levels", len(canopy))
	}

	depth := uint32(0)
	for n := nodes; n > 1; n >>= 1 {
		depth++
	}
	depth-- // the root itself is not cached

	if depth > maxDepth {
		return 0, errCanopy("canopy is deeper than the tree", len(canopy))
	}
	return depth, nil
}

// FillProofFromCanopy extends a proof that omits upper tree levels with the
// sibling hashes cached in the canopy, so the result spans all maxDepth
// levels. The canopy is laid out as a breadth-first traversal starting at
// node index 2 (the root is skipped).
func FillProofFromCanopy(canopy []byte, maxDepth uint32, leafIndex uint32, proof []Node) ([]Node, error) {
	pathLen, err := cachedPathLength(canopy, maxDepth)
	if err != nil {
		return nil, err
	}
	if leafIndex >= uint32(1)<<maxDepth {
		return nil, common.NewErrLeafIndexOutOfRange(leafIndex, maxDepth)
	}

	// Node index (in whole-tree numbering) where this leaf's path crosses
	// the bottom canopy level.
	nodeIdx := ((uint64(1) << maxDepth) + uint64(leafIndex)) >> (maxDepth - pathLen)

	var inferred []Node
	for nodeIdx > 1 {
		// The sibling of node n sits right next to it in the BFS layout.
		cachedIdx := (nodeIdx - 2) ^ 1
		off := int(cachedIdx) * NodeSize
		if off+NodeSize > len(canopy) {
			return nil, errCanopy("canopy node offset out of range", len(canopy))
		}
		var node Node
		copy(node[:], canopy[off:off+NodeSize])
		inferred = append(inferred, node)
		nodeIdx >>= 1
	}

	// Only append as many inferred nodes as needed to reach maxDepth.
	overlap := len(proof) + len(inferred) - int(maxDepth)
	if overlap < 0 {
		overlap = 0
	}
	return append(proof, inferred[overlap:]...), nil
}
