package pendingcode

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	kasuerrors "kasu/pkg/errors"
)

// MemoryStore is an in-process Store for tests and single-node development.
// Expired entries are dropped lazily on read and write.
type MemoryStore struct {
	mu    sync.Mutex
	codes map[string]*PendingCode
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		codes: make(map[string]*PendingCode),
		now:   time.Now,
	}
}

func (s *MemoryStore) Put(ctx context.Context, code *PendingCode) error {
	if code.Expired(s.now()) {
		return kasuerrors.ErrInvalidOrExpiredCode
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *code
	s.codes[key(code.VendorID, code.Purpose)] = &copied
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, vendorID uuid.UUID, purpose Purpose) (*PendingCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(vendorID, purpose)
	code, ok := s.codes[k]
	if !ok {
		return nil, kasuerrors.ErrCodeNotFound
	}
	if code.Expired(s.now()) {
		delete(s.codes, k)
		return nil, kasuerrors.ErrCodeNotFound
	}
	copied := *code
	return &copied, nil
}

func (s *MemoryStore) Delete(ctx context.Context, vendorID uuid.UUID, purpose Purpose) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, key(vendorID, purpose))
	return nil
}
