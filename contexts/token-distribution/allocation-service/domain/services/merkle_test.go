package services

import (
	"bytes"
	"testing"

	"tokenvault/contexts/token-distribution/allocation-service/domain/entities"
)

var testLeaves = []entities.AllocationLeaf{
	{Address: "0xaaa", Allocation: 100},
	{Address: "0xbbb", Allocation: 200},
	{Address: "0xccc", Allocation: 300},
	{Address: "0xddd", Allocation: 400},
	{Address: "0xeee", Allocation: 500},
}

func testSalt(fill byte) []byte {
	salt := make([]byte, 32)
	for i := range salt {
		salt[i] = fill
	}
	return salt
}

func TestBuildTreeDeterministic(t *testing.T) {
	salt := testSalt(0x11)
	first := BuildTree("vault-1", 1, salt, testLeaves)
	second := BuildTree("vault-1", 1, salt, testLeaves)
	if first.Root != second.Root {
		t.Fatalf("same inputs produced different roots")
	}
	if first.Root == EmptyRoot {
		t.Fatalf("non-empty tree produced the empty root")
	}
}

func TestBuildTreeSaltChangesRoot(t *testing.T) {
	first := BuildTree("vault-1", 1, testSalt(0x11), testLeaves)
	second := BuildTree("vault-1", 1, testSalt(0x22), testLeaves)
	if first.Root == second.Root {
		t.Fatalf("different salts must produce different roots")
	}
}

func TestBuildTreeVaultIdentityChangesRoot(t *testing.T) {
	salt := testSalt(0x11)
	first := BuildTree("vault-1", 1, salt, testLeaves)
	second := BuildTree("vault-2", 1, salt, testLeaves)
	if first.Root == second.Root {
		t.Fatalf("different vaults must produce different roots")
	}
	third := BuildTree("vault-1", 2, salt, testLeaves)
	if first.Root == third.Root {
		t.Fatalf("different chains must produce different roots")
	}
}

func TestProofVerifiesForEveryLeaf(t *testing.T) {
	salt := testSalt(0x33)
	tree := BuildTree("vault-1", 1, salt, testLeaves)
	for _, leaf := range testLeaves {
		proof, ok := tree.Proof(leaf.Address)
		if !ok {
			t.Fatalf("missing proof for %s", leaf.Address)
		}
		if !VerifyProof("vault-1", 1, salt, leaf.Address, leaf.Allocation, proof, tree.Root) {
			t.Fatalf("proof for %s did not verify", leaf.Address)
		}
	}
}

func TestProofRejectsTamperedAllocation(t *testing.T) {
	salt := testSalt(0x33)
	tree := BuildTree("vault-1", 1, salt, testLeaves)
	proof, ok := tree.Proof("0xaaa")
	if !ok {
		t.Fatalf("missing proof")
	}
	if VerifyProof("vault-1", 1, salt, "0xaaa", 101, proof, tree.Root) {
		t.Fatalf("tampered allocation must not verify")
	}
	if VerifyProof("vault-1", 1, salt, "0xfff", 100, proof, tree.Root) {
		t.Fatalf("wrong address must not verify")
	}
}

func TestProofDoesNotVerifyAcrossVaults(t *testing.T) {
	salt := testSalt(0x44)
	first := BuildTree("vault-1", 1, salt, testLeaves)
	second := BuildTree("vault-2", 1, salt, testLeaves)
	proof, ok := first.Proof("0xbbb")
	if !ok {
		t.Fatalf("missing proof")
	}
	if VerifyProof("vault-2", 1, salt, "0xbbb", 200, proof, second.Root) {
		t.Fatalf("proof from one vault must not verify against another")
	}
}

func TestBuildTreeSingleLeaf(t *testing.T) {
	salt := testSalt(0x55)
	leaves := testLeaves[:1]
	tree := BuildTree("vault-1", 1, salt, leaves)
	proof, ok := tree.Proof("0xaaa")
	if !ok {
		t.Fatalf("missing proof")
	}
	if len(proof) != 0 {
		t.Fatalf("single-leaf proof must be empty, got %d siblings", len(proof))
	}
	if !VerifyProof("vault-1", 1, salt, "0xaaa", 100, proof, tree.Root) {
		t.Fatalf("single-leaf proof did not verify")
	}
}

func TestBuildTreeOddLeafCount(t *testing.T) {
	salt := testSalt(0x66)
	tree := BuildTree("vault-1", 1, salt, testLeaves[:3])
	for _, leaf := range testLeaves[:3] {
		proof, ok := tree.Proof(leaf.Address)
		if !ok {
			t.Fatalf("missing proof for %s", leaf.Address)
		}
		if !VerifyProof("vault-1", 1, salt, leaf.Address, leaf.Allocation, proof, tree.Root) {
			t.Fatalf("odd-layer proof for %s did not verify", leaf.Address)
		}
	}
}

func TestEmptyTreeRejectsEverything(t *testing.T) {
	tree := BuildTree("vault-1", 1, testSalt(0x77), nil)
	if tree.Root != EmptyRoot {
		t.Fatalf("empty tree must commit to the empty root")
	}
	if VerifyProof("vault-1", 1, testSalt(0x77), "0xaaa", 0, nil, EmptyRoot) {
		t.Fatalf("nothing may verify against the empty root")
	}
}

func TestTreeConservesTotalAllocation(t *testing.T) {
	tree := BuildTree("vault-1", 1, testSalt(0x88), testLeaves)
	if tree.TotalAllocation != 1500 {
		t.Fatalf("expected total 1500, got %d", tree.TotalAllocation)
	}
}

func TestNodeHashOrderIndependent(t *testing.T) {
	left := LeafHash("vault-1", 1, testSalt(0x01), "0xaaa", 1)
	right := LeafHash("vault-1", 1, testSalt(0x01), "0xbbb", 2)
	forward := nodeHash(left, right)
	backward := nodeHash(right, left)
	if !bytes.Equal(forward[:], backward[:]) {
		t.Fatalf("pair hash must be order independent")
	}
}
