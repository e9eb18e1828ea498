// Package merkle builds the binary Merkle tree that binds a batch of pass target hashes to a single root.
//
// Nodes are combined with Keccak-256 over the two child hashes concatenated in ascending byte order,
// so a proof does not need to record whether a sibling sits on the left or the right.
// A level with an odd number of nodes promotes its last node unchanged to the next level.
package merkle

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/information-sharing-networks/pass-issuer/internal/crypto"
)

// ErrEmptyTree is returned when a tree is built from zero leaves.
var ErrEmptyTree = errors.New("merkle tree requires at least one leaf")

// Tree holds every level of the tree, leaves first.
type Tree struct {
	levels [][][]byte
}

// Combine returns the parent hash of two sibling nodes.
func Combine(a, b []byte) []byte {
	if bytes.Compare(a, b) > 0 {
		a, b = b, a
	}
	return crypto.Keccak256(a, b)
}

// Build constructs the tree over leaves in the order given.
func Build(leaves [][]byte) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}

	level := make([][]byte, len(leaves))
	copy(level, leaves)

	t := &Tree{levels: [][][]byte{level}}
	for len(level) > 1 {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, Combine(level[i], level[i+1]))
		}
		t.levels = append(t.levels, next)
		level = next
	}

	return t, nil
}

// Root returns the root hash. For a single leaf the root is the leaf itself.
func (t *Tree) Root() []byte {
	return t.levels[len(t.levels)-1][0]
}

// Len returns the number of leaves.
func (t *Tree) Len() int {
	return len(t.levels[0])
}

// Proof returns the sibling path from leaf i to the root.
func (t *Tree) Proof(i int) ([][]byte, error) {
	if i < 0 || i >= t.Len() {
		return nil, fmt.Errorf("leaf index %d out of range [0,%d)", i, t.Len())
	}

	var proof [][]byte
	idx := i
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := idx ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		idx /= 2
	}

	return proof, nil
}

// Verify folds proof into leaf and reports whether the result equals root.
func Verify(leaf []byte, proof [][]byte, root []byte) bool {
	node := leaf
	for _, sibling := range proof {
		node = Combine(node, sibling)
	}
	return bytes.Equal(node, root)
}
