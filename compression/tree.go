package compression

import (
	"bytes"
	"encoding/binary"
	"math/bits"

	"github.com/das-tools/dascheck/common"
)

// ChangeLog is one entry of the tree's root history ring buffer: the root it
// produced, the new node values along the modified leaf's path (path[i] is
// the on-path node at level i), and the index of that leaf.
type ChangeLog struct {
	Root  Node
	Path  []Node
	Index uint32
}

// Tree is the decoded active-tree region of an account.
type Tree struct {
	SequenceNumber uint64
	ActiveIndex    uint64
	BufferSize     uint64
	ChangeLogs     []ChangeLog

	header *TreeHeader
}

// ParseTree decodes the active-tree region produced by SplitAccount.
func ParseTree(header *TreeHeader, treeBytes []byte) (*Tree, error) {
	if len(treeBytes) < header.TreeBodySize() {
		return nil, errShortBuffer("tree body", header.TreeBodySize(), len(treeBytes))
	}

	t := &Tree{
		SequenceNumber: binary.LittleEndian.Uint64(treeBytes[0:8]),
		ActiveIndex:    binary.LittleEndian.Uint64(treeBytes[8:16]),
		BufferSize:     binary.LittleEndian.Uint64(treeBytes[16:24]),
		header:         header,
	}

	if t.ActiveIndex >= uint64(header.MaxBufferSize) {
		return nil, errHeader("active index outside changelog buffer", header)
	}
	if t.BufferSize > uint64(header.MaxBufferSize) {
		return nil, errHeader("buffer size exceeds changelog capacity", header)
	}

	depth := int(header.MaxDepth)
	off := 24
	t.ChangeLogs = make([]ChangeLog, header.MaxBufferSize)
	for i := range t.ChangeLogs {
		cl := &t.ChangeLogs[i]
		copy(cl.Root[:], treeBytes[off:off+NodeSize])
		off += NodeSize
		cl.Path = make([]Node, depth)
		for j := 0; j < depth; j++ {
			copy(cl.Path[j][:], treeBytes[off:off+NodeSize])
			off += NodeSize
		}
		cl.Index = binary.LittleEndian.Uint32(treeBytes[off : off+4])
		off += 8 // index + padding
	}

	// The rightmost path follows but plays no part in proof validation.
	return t, nil
}

// CurrentRoot is the root recorded by the most recent changelog entry.
func (t *Tree) CurrentRoot() Node {
	return t.ChangeLogs[t.ActiveIndex].Root
}

// fastForward replaces stale proof nodes with the values recorded by the
// buffered changelog entries, oldest to newest. The leaf under test is never
// substituted: it is exactly the value whose membership is being checked.
func (t *Tree) fastForward(proof []Node, leafIndex uint32) error {
	maxBuf := uint64(t.header.MaxBufferSize)
	count := t.BufferSize
	if count == 0 {
		return nil
	}

	start := (t.ActiveIndex + maxBuf - count + 1) % maxBuf
	padding := 32 - t.header.MaxDepth
	for i := uint64(0); i < count; i++ {
		cl := &t.ChangeLogs[(start+i)%maxBuf]
		if cl.Index >= uint32(1)<<t.header.MaxDepth {
			return common.NewErrInvalidTreeAccount("changelog leaf index outside the tree", map[string]interface{}{
				"changelogIndex": cl.Index,
				"maxDepth":       t.header.MaxDepth,
			})
		}
		if cl.Index == leafIndex {
			continue
		}
		// The highest differing bit of the two indexes names the level at
		// which the changed path and our proof path share a node.
		commonPathLen := bits.LeadingZeros32((leafIndex ^ cl.Index) << padding)
		critbit := int(t.header.MaxDepth) - 1 - commonPathLen
		proof[critbit] = cl.Path[critbit]
	}
	return nil
}

// CheckValidProof reports whether leaf sits at leafIndex under the tree's
// current root, after fast-forwarding the proof through the changelog. The
// proof must already span all maxDepth levels.
func (t *Tree) CheckValidProof(leaf Node, proof []Node, leafIndex uint32) (bool, error) {
	if leafIndex >= uint32(1)<<t.header.MaxDepth {
		return false, common.NewErrLeafIndexOutOfRange(leafIndex, t.header.MaxDepth)
	}
	if len(proof) != int(t.header.MaxDepth) {
		return false, common.NewErrInvalidTreeAccount("proof length does not match tree depth", map[string]interface{}{
			"proofLength": len(proof),
			"maxDepth":    t.header.MaxDepth,
		})
	}

	updated := make([]Node, len(proof))
	copy(updated, proof)
	if err := t.fastForward(updated, leafIndex); err != nil {
		return false, err
	}

	root := RecomputeRoot(leaf, updated, leafIndex)
	current := t.CurrentRoot()
	return bytes.Equal(root[:], current[:]), nil
}
