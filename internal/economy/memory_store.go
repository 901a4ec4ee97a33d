package economy

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"gitlab.com/yelinaung/famcoin-bot/internal/models"
)

// MemoryAccountStore keeps accounts in a map. Used when no database is configured.
type MemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*models.Account
}

// NewMemoryAccountStore creates an empty in-memory account store.
func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{accounts: make(map[string]*models.Account)}
}

// Get returns a copy of the stored account.
func (s *MemoryAccountStore) Get(_ context.Context, memberID string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[memberID]
	if !ok {
		return nil, newError(KindNotFound, "no account for member %q", memberID)
	}
	return acc.Clone(), nil
}

// Save stores a copy of the account.
func (s *MemoryAccountStore) Save(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts[account.MemberID] = account.Clone()
	return nil
}

// List returns copies of all accounts ordered by member id.
func (s *MemoryAccountStore) List(_ context.Context) ([]*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		out = append(out, acc.Clone())
	}
	slices.SortFunc(out, func(a, b *models.Account) int {
		return cmp.Compare(a.MemberID, b.MemberID)
	})
	return out, nil
}

// MemoryPurchaseStore keeps purchase requests in memory. Resolved requests
// stay as tombstones so a second resolution reports AlreadyResolved.
type MemoryPurchaseStore struct {
	mu       sync.Mutex
	requests map[string]*models.PurchaseRequest
	order    []string
}

// NewMemoryPurchaseStore creates an empty in-memory purchase store.
func NewMemoryPurchaseStore() *MemoryPurchaseStore {
	return &MemoryPurchaseStore{requests: make(map[string]*models.PurchaseRequest)}
}

// Add stores a pending request.
func (s *MemoryPurchaseStore) Add(_ context.Context, req *models.PurchaseRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[req.ID]; exists {
		return newError(KindInvalidRequest, "duplicate purchase id %q", req.ID)
	}
	c := *req
	s.requests[req.ID] = &c
	s.order = append(s.order, req.ID)
	return nil
}

// Get returns a copy of the request.
func (s *MemoryPurchaseStore) Get(_ context.Context, id string) (*models.PurchaseRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, newError(KindNotFound, "no purchase request %q", id)
	}
	c := *req
	return &c, nil
}

// Resolve transitions a pending request under the store lock.
func (s *MemoryPurchaseStore) Resolve(_ context.Context, id string, res Resolution) (*models.PurchaseRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, newError(KindNotFound, "no purchase request %q", id)
	}
	if req.Status != models.PurchaseStatusPending {
		return nil, newError(KindAlreadyResolved, "purchase %q is already %s", id, req.Status)
	}
	res.Apply(req)
	c := *req
	return &c, nil
}

// Restore puts a request back to prev, or drops it when prev is nil.
func (s *MemoryPurchaseStore) Restore(_ context.Context, id string, prev *models.PurchaseRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev != nil {
		c := *prev
		if _, exists := s.requests[id]; !exists {
			s.order = append(s.order, id)
		}
		s.requests[id] = &c
		return nil
	}
	delete(s.requests, id)
	s.order = slices.DeleteFunc(s.order, func(o string) bool { return o == id })
	return nil
}

var _ PurchaseRestorer = (*MemoryPurchaseStore)(nil)

// Pending lists pending requests in insertion order.
func (s *MemoryPurchaseStore) Pending(_ context.Context, memberID string) ([]models.PurchaseRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.PurchaseRequest
	for _, id := range s.order {
		req := s.requests[id]
		if req.Status != models.PurchaseStatusPending {
			continue
		}
		if memberID != "" && req.MemberID != memberID {
			continue
		}
		out = append(out, *req)
	}
	return out, nil
}
