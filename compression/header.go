// Package compression parses on-chain concurrent-merkle-tree accounts and
// validates inclusion proofs against them.
//
// An account holds three regions back to back: a fixed-size header, the
// active tree (sequence counters, a ring buffer of changelog entries, and
// the rightmost path), and an optional canopy of cached upper-level nodes.
// The header alone determines where each region starts and ends.
package compression

import (
	"encoding/binary"
)

const (
	// HeaderSize is the byte size of the v1 account header.
	HeaderSize = 56

	// NodeSize is the byte size of one tree node hash.
	NodeSize = 32

	accountTypeConcurrentMerkleTree = 1
)

// TreeHeader is the fixed-layout record at the start of a tree account.
type TreeHeader struct {
	AccountType   uint8
	Version       uint8
	MaxBufferSize uint32
	MaxDepth      uint32
	Authority     [32]byte
	CreationSlot  uint64
}

// ParseHeader decodes the little-endian v1 header from the start of the
// account data.
func ParseHeader(data []byte) (*TreeHeader, error) {
	if len(data) < HeaderSize {
		return nil, errShortBuffer("header", HeaderSize, len(data))
	}

	h := &TreeHeader{
		AccountType:   data[0],
		Version:       data[1],
		MaxBufferSize: binary.LittleEndian.Uint32(data[2:6]),
		MaxDepth:      binary.LittleEndian.Uint32(data[6:10]),
		CreationSlot:  binary.LittleEndian.Uint64(data[42:50]),
	}
	copy(h.Authority[:], data[10:42])

	if h.AccountType != accountTypeConcurrentMerkleTree {
		return nil, errHeader("unexpected account type", h)
	}
	if h.MaxDepth == 0 || h.MaxDepth > 30 {
		return nil, errHeader("max depth out of supported range", h)
	}
	if h.MaxBufferSize == 0 {
		return nil, errHeader("max buffer size must be positive", h)
	}

	return h, nil
}

// changeLogSize is the serialized size of one changelog entry: root, one
// node per level, leaf index and padding.
func (h *TreeHeader) changeLogSize() int {
	return NodeSize + NodeSize*int(h.MaxDepth) + 4 + 4
}

// pathSize is the serialized size of the rightmost path: one proof node per
// level, the leaf, its index and padding.
func (h *TreeHeader) pathSize() int {
	return NodeSize*int(h.MaxDepth) + NodeSize + 4 + 4
}

// TreeBodySize is the byte size of the active-tree region that follows the
// header. Everything after it belongs to the canopy.
func (h *TreeHeader) TreeBodySize() int {
	return 8 + 8 + 8 + int(h.MaxBufferSize)*h.changeLogSize() + h.pathSize()
}

// SplitAccount partitions raw account bytes into the header, the active-tree
// region and the canopy region. The regions cover the account exactly.
func SplitAccount(data []byte) (*TreeHeader, []byte, []byte, error) {
	header, err := ParseHeader(data)
	if err != nil {
		return nil, nil, nil, err
	}

	rest := data[HeaderSize:]
	treeSize := header.TreeBodySize()
	if len(rest) < treeSize {
		return nil, nil, nil, errShortBuffer("tree body", treeSize, len(rest))
	}

	return header, rest[:treeSize], rest[treeSize:], nil
}
