package services

import (
	"bytes"
	"encoding/binary"
	"math/big"

	"golang.org/x/crypto/sha3"

	"tokenvault/contexts/token-distribution/allocation-service/domain/entities"
)

const HashSize = 32

// EmptyRoot is the canonical root published for a zero-leaf commitment.
// No allocation can ever verify against it.
var EmptyRoot [HashSize]byte

// Tree is a salted Merkle allocation tree. Construction is pure and
// side-effect free; a Tree may be shared across goroutines once built.
type Tree struct {
	Root            [HashSize]byte
	Leaves          []entities.AllocationLeaf
	TotalAllocation int64

	leafIndex map[string]int
	layers    [][][HashSize]byte
}

// LeafHash binds vault identity, chain, and the per-vault salt into every
// leaf. A proof valid against one vault can never verify against another,
// even for an identical (address, allocation) pair, because the hash input
// differs.
func LeafHash(
	vaultID string,
	chainID uint64,
	salt []byte,
	address string,
	allocation int64,
) [HashSize]byte {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write([]byte(vaultID))

	var chain [8]byte
	binary.BigEndian.PutUint64(chain[:], chainID)
	hasher.Write(chain[:])

	hasher.Write(salt)
	hasher.Write([]byte(CanonicalAddress(address)))

	var amount [HashSize]byte
	big.NewInt(allocation).FillBytes(amount[:])
	hasher.Write(amount[:])

	var digest [HashSize]byte
	hasher.Sum(digest[:0])
	return digest
}

// nodeHash sorts the pair before hashing, so verification needs only the
// sibling hash and no positional information.
func nodeHash(left, right [HashSize]byte) [HashSize]byte {
	if bytes.Compare(left[:], right[:]) > 0 {
		left, right = right, left
	}
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(left[:])
	hasher.Write(right[:])

	var digest [HashSize]byte
	hasher.Sum(digest[:0])
	return digest
}

// BuildTree hashes the leaves bottom-up into a commitment root. Leaves must
// already be in canonical order (see AggregateAllocations); an odd layer
// duplicates its last node to pair with itself.
func BuildTree(
	vaultID string,
	chainID uint64,
	salt []byte,
	leaves []entities.AllocationLeaf,
) Tree {
	tree := Tree{
		Leaves:          leaves,
		TotalAllocation: TotalAllocation(leaves),
		leafIndex:       make(map[string]int, len(leaves)),
	}
	if len(leaves) == 0 {
		tree.Root = EmptyRoot
		return tree
	}

	layer := make([][HashSize]byte, len(leaves))
	for i, leaf := range leaves {
		layer[i] = LeafHash(vaultID, chainID, salt, leaf.Address, leaf.Allocation)
		tree.leafIndex[CanonicalAddress(leaf.Address)] = i
	}
	tree.layers = append(tree.layers, layer)

	for len(layer) > 1 {
		if len(layer)%2 == 1 {
			layer = append(layer, layer[len(layer)-1])
		}
		next := make([][HashSize]byte, len(layer)/2)
		for i := 0; i < len(layer); i += 2 {
			next[i/2] = nodeHash(layer[i], layer[i+1])
		}
		tree.layers = append(tree.layers, next)
		layer = next
	}
	tree.Root = layer[0]
	return tree
}

// Proof returns the sibling hashes from the leaf to the root for an address.
func (t Tree) Proof(address string) ([][HashSize]byte, bool) {
	index, ok := t.leafIndex[CanonicalAddress(address)]
	if !ok {
		return nil, false
	}
	var siblings [][HashSize]byte
	for _, layer := range t.layers[:len(t.layers)-1] {
		padded := layer
		if len(padded)%2 == 1 {
			padded = append(append([][HashSize]byte(nil), padded...), padded[len(padded)-1])
		}
		siblings = append(siblings, padded[index^1])
		index /= 2
	}
	return siblings, true
}

// LeafIndex reports the canonical position of an address in the leaf layer.
func (t Tree) LeafIndex(address string) (int, bool) {
	index, ok := t.leafIndex[CanonicalAddress(address)]
	return index, ok
}

// VerifyProof recomputes the leaf hash and folds the proof upward, accepting
// iff the folded result equals root. It uses only public data and can be
// re-derived independently by any third party.
func VerifyProof(
	vaultID string,
	chainID uint64,
	salt []byte,
	address string,
	allocation int64,
	proof [][HashSize]byte,
	root [HashSize]byte,
) bool {
	if root == EmptyRoot {
		return false
	}
	digest := LeafHash(vaultID, chainID, salt, address, allocation)
	for _, sibling := range proof {
		digest = nodeHash(digest, sibling)
	}
	return digest == root
}
