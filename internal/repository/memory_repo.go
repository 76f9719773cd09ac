package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"ebook_checkout/internal/domain"
)

// MemoryRepo keeps transactions in a map keyed by reference. Contents are
// lost on restart.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	byRef  map[string]*domain.Transaction
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byRef: make(map[string]*domain.Transaction)}
}

func (r *MemoryRepo) Close() error { return nil }

func (r *MemoryRepo) Get(ctx context.Context, ref string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byRef[ref]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(t), nil
}

func (r *MemoryRepo) Upsert(ctx context.Context, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.byRef[t.Reference]; ok {
		c := clone(t)
		c.ID = cur.ID
		c.CreatedAt = cur.CreatedAt
		r.byRef[t.Reference] = c
		t.ID = c.ID
		return nil
	}
	r.nextID++
	t.ID = r.nextID
	r.byRef[t.Reference] = clone(t)
	return nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, ref string, status domain.TxStatus, at time.Time) (*domain.Transaction, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byRef[ref]
	if !ok {
		return nil, false, ErrNotFound
	}
	if err := domain.CheckTransition(t.Status, status); err != nil {
		return clone(t), false, err
	}
	if t.Status == status {
		return clone(t), false, nil
	}

	t.Status = status
	t.UpdatedAt = at
	if status.Terminal() {
		settled := at
		t.SettledAt = &settled
	}
	return clone(t), true, nil
}

func (r *MemoryRepo) List(ctx context.Context, f TxFilter, limit, offset int) ([]domain.Transaction, error) {
	r.mu.RLock()
	res := make([]domain.Transaction, 0, len(r.byRef))
	for _, t := range r.byRef {
		if f.match(t) {
			res = append(res, *clone(t))
		}
	}
	r.mu.RUnlock()

	sort.Slice(res, func(i, j int) bool { return res[i].ID > res[j].ID })

	if offset >= len(res) {
		return []domain.Transaction{}, nil
	}
	res = res[offset:]
	if limit > 0 && limit < len(res) {
		res = res[:limit]
	}
	return res, nil
}

func clone(t *domain.Transaction) *domain.Transaction {
	c := *t
	if t.SettledAt != nil {
		s := *t.SettledAt
		c.SettledAt = &s
	}
	return &c
}
