package store

import (
	"context"
	"sync"

	"github.com/AngelCh415/campaign-dash/internal/models"
)

// MemoryStore is an in-process sheet. It serves local development and tests
// in place of the Google Sheets source and accepts Adjust appends.
type MemoryStore struct {
	mu   sync.RWMutex
	rows []models.RawRow
}

// NewMemoryStore seeds the store with rows, header included when the
// schema expects one.
func NewMemoryStore(rows ...models.RawRow) *MemoryStore {
	s := &MemoryStore{}
	for _, r := range rows {
		s.rows = append(s.rows, clone(r))
	}
	return s
}

func (s *MemoryStore) FetchRows(ctx context.Context) ([]models.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.RawRow, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, clone(r))
	}
	return out, nil
}

func (s *MemoryStore) AppendRows(ctx context.Context, rows []models.RawRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		s.rows = append(s.rows, clone(r))
	}
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

func clone(r models.RawRow) models.RawRow { return append(models.RawRow(nil), r...) }

// Ledger remembers keys already written, so a repeated sync of the same
// day does not append duplicates.
type Ledger struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewLedger() *Ledger { return &Ledger{seen: make(map[string]struct{})} }

// MarkSeen records key and reports whether it was new.
func (l *Ledger) MarkSeen(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.seen[key]; ok {
		return false
	}
	l.seen[key] = struct{}{}
	return true
}

// Forget drops keys whose write failed so a later run retries them.
func (l *Ledger) Forget(keys ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, k := range keys {
		delete(l.seen, k)
	}
}
