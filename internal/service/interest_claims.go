package service

import (
	"context"
	"sync"
	"time"
)

// InterestClaims guarantees one interest application per member per day.
// repository.InterestRunRepository is the PostgreSQL implementation.
type InterestClaims interface {
	Claim(ctx context.Context, memberID string, day time.Time) (bool, error)
	Record(ctx context.Context, memberID string, day time.Time, amount int64) error
}

// MemoryInterestClaims keeps claims in memory.
type MemoryInterestClaims struct {
	mu     sync.Mutex
	claims map[string]int64
}

// NewMemoryInterestClaims creates an empty claim set.
func NewMemoryInterestClaims() *MemoryInterestClaims {
	return &MemoryInterestClaims{claims: make(map[string]int64)}
}

func claimKey(memberID string, day time.Time) string {
	return memberID + "@" + day.Format(time.DateOnly)
}

// Claim marks memberID for day and reports whether it was unclaimed.
func (m *MemoryInterestClaims) Claim(_ context.Context, memberID string, day time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := claimKey(memberID, day)
	if _, ok := m.claims[key]; ok {
		return false, nil
	}
	m.claims[key] = 0
	return true, nil
}

// Record stores the credited amount for a claimed day.
func (m *MemoryInterestClaims) Record(_ context.Context, memberID string, day time.Time, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claims[claimKey(memberID, day)] = amount
	return nil
}
