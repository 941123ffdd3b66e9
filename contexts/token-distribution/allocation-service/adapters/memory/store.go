package memory

import (
	"context"
	"crypto/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"tokenvault/contexts/token-distribution/allocation-service/domain/entities"
	domainerrors "tokenvault/contexts/token-distribution/allocation-service/domain/errors"
	"tokenvault/contexts/token-distribution/allocation-service/ports"
)

type Store struct {
	mu sync.RWMutex

	commitments   map[string]entities.MerkleCommitment
	proofs        map[string]map[string]entities.MerkleProof
	contributions map[string][]entities.Contribution
}

func NewStore(seed []entities.Contribution) *Store {
	contributions := make(map[string][]entities.Contribution)
	for _, contribution := range seed {
		contributions[contribution.RoundID] = append(contributions[contribution.RoundID], contribution)
	}
	return &Store{
		commitments:   make(map[string]entities.MerkleCommitment),
		proofs:        make(map[string]map[string]entities.MerkleProof),
		contributions: contributions,
	}
}

func (s *Store) SeedContribution(contribution entities.Contribution) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contributions[contribution.RoundID] = append(s.contributions[contribution.RoundID], contribution)
}

func (s *Store) CreateCommitment(
	_ context.Context,
	commitment entities.MerkleCommitment,
	proofs []entities.MerkleProof,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.commitments[commitment.VaultID]; exists {
		return domainerrors.ErrCommitmentExists
	}
	for _, existing := range s.commitments {
		if existing.RoundID == commitment.RoundID {
			return domainerrors.ErrCommitmentExists
		}
	}
	s.commitments[commitment.VaultID] = commitment
	byAddress := make(map[string]entities.MerkleProof, len(proofs))
	for _, proof := range proofs {
		byAddress[proof.Address] = proof
	}
	s.proofs[commitment.VaultID] = byAddress
	return nil
}

func (s *Store) GetCommitment(_ context.Context, vaultID string) (entities.MerkleCommitment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	commitment, exists := s.commitments[strings.TrimSpace(vaultID)]
	if !exists {
		return entities.MerkleCommitment{}, domainerrors.ErrCommitmentNotFound
	}
	return commitment, nil
}

func (s *Store) GetCommitmentByRound(_ context.Context, roundID string) (entities.MerkleCommitment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, commitment := range s.commitments {
		if commitment.RoundID == strings.TrimSpace(roundID) {
			return commitment, nil
		}
	}
	return entities.MerkleCommitment{}, domainerrors.ErrCommitmentNotFound
}

func (s *Store) GetProof(_ context.Context, vaultID string, address string) (entities.MerkleProof, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byAddress, exists := s.proofs[strings.TrimSpace(vaultID)]
	if !exists {
		return entities.MerkleProof{}, domainerrors.ErrProofNotFound
	}
	proof, exists := byAddress[strings.ToLower(strings.TrimSpace(address))]
	if !exists {
		return entities.MerkleProof{}, domainerrors.ErrProofNotFound
	}
	return proof, nil
}

func (s *Store) ListProofs(_ context.Context, vaultID string) ([]entities.MerkleProof, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byAddress, exists := s.proofs[strings.TrimSpace(vaultID)]
	if !exists {
		return nil, domainerrors.ErrCommitmentNotFound
	}
	proofs := make([]entities.MerkleProof, 0, len(byAddress))
	for _, proof := range byAddress {
		proofs = append(proofs, proof)
	}
	sort.Slice(proofs, func(i, j int) bool {
		return proofs[i].LeafIndex < proofs[j].LeafIndex
	})
	return proofs, nil
}

func (s *Store) ListConfirmedContributions(_ context.Context, roundID string) ([]entities.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	confirmed := make([]entities.Contribution, 0)
	for _, contribution := range s.contributions[strings.TrimSpace(roundID)] {
		if contribution.Status == entities.ContributionStatusConfirmed {
			confirmed = append(confirmed, contribution)
		}
	}
	return confirmed, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewSalt(_ context.Context) ([]byte, error) {
	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

var _ ports.Repository = (*Store)(nil)
var _ ports.ContributionSource = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.SaltGenerator = (*Store)(nil)
