package ledgeradapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"tokenvault/contexts/token-distribution/vesting-service/ports"

	"golang.org/x/crypto/sha3"
)

var errLedgerRejected = errors.New("ledger rejected submission")

// SimulatedLedger stands in for the external settlement ledger. Submissions
// get a deterministic transaction reference derived from their content, and
// tests steer verification outcomes per reference.
type SimulatedLedger struct {
	mu       sync.RWMutex
	results  map[string]ports.VerificationStatus
	fallback ports.VerificationStatus
	reject   bool
}

func NewSimulatedLedger() *SimulatedLedger {
	return &SimulatedLedger{
		results:  make(map[string]ports.VerificationStatus),
		fallback: ports.VerificationSucceeded,
	}
}

func (l *SimulatedLedger) SubmitClaim(_ context.Context, submission ports.ClaimSubmission) (string, error) {
	l.mu.RLock()
	reject := l.reject
	l.mu.RUnlock()
	if reject {
		return "", errLedgerRejected
	}
	return txReference(
		"claim",
		submission.VaultID,
		submission.WalletAddress,
		fmt.Sprintf("%d:%d", submission.Allocation, submission.ClaimAmount),
	), nil
}

func (l *SimulatedLedger) SubmitSchedule(_ context.Context, submission ports.ScheduleSubmission) (string, error) {
	l.mu.RLock()
	reject := l.reject
	l.mu.RUnlock()
	if reject {
		return "", errLedgerRejected
	}
	return txReference(
		"schedule",
		submission.RoundID,
		submission.VaultID,
		fmt.Sprintf("%d:%d:%d", submission.TgePercentage, submission.CliffMonths, submission.VestingMonths),
	), nil
}

func (l *SimulatedLedger) Check(_ context.Context, txReference string) (ports.VerificationStatus, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if status, ok := l.results[txReference]; ok {
		return status, nil
	}
	return l.fallback, nil
}

// SetResult pins the verification outcome for one transaction reference.
func (l *SimulatedLedger) SetResult(txReference string, status ports.VerificationStatus) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results[txReference] = status
}

// SetFallback changes the outcome for references with no pinned result.
func (l *SimulatedLedger) SetFallback(status ports.VerificationStatus) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fallback = status
}

// SetRejecting makes subsequent submissions fail synchronously.
func (l *SimulatedLedger) SetRejecting(reject bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reject = reject
}

func txReference(parts ...string) string {
	hasher := sha3.NewLegacyKeccak256()
	for _, part := range parts {
		var length [8]byte
		binary.BigEndian.PutUint64(length[:], uint64(len(part)))
		hasher.Write(length[:])
		hasher.Write([]byte(part))
	}
	return "0x" + hex.EncodeToString(hasher.Sum(nil))
}

var (
	_ ports.LedgerSubmitter = (*SimulatedLedger)(nil)
	_ ports.LedgerVerifier  = (*SimulatedLedger)(nil)
)
