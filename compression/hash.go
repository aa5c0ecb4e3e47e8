package compression

import (
	"golang.org/x/crypto/sha3"
)

// Node is one tree node hash.
type Node = [NodeSize]byte

func hashPair(left, right Node) Node {
	h := sha3.NewLegacyKeccak256()
	h.Write(left[:])
	h.Write(right[:])
	var out Node
	copy(out[:], h.Sum(nil))
	return out
}

// RecomputeRoot hashes the leaf up through its proof path. Bit i of the leaf
// index selects whether the proof node at level i sits to the left or the
// right.
func RecomputeRoot(leaf Node, proof []Node, leafIndex uint32) Node {
	node := leaf
	for i, sibling := range proof {
		if leafIndex>>uint(i)&1 == 0 {
			node = hashPair(node, sibling)
		} else {
			node = hashPair(sibling, node)
		}
	}
	return node
}
