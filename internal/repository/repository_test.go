package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"ebook_checkout/internal/domain"
)

type store interface {
	Get(ctx context.Context, ref string) (*domain.Transaction, error)
	Upsert(ctx context.Context, t *domain.Transaction) error
	UpdateStatus(ctx context.Context, ref string, status domain.TxStatus, at time.Time) (*domain.Transaction, bool, error)
	List(ctx context.Context, f TxFilter, limit, offset int) ([]domain.Transaction, error)
	Close() error
}

func stores(t *testing.T) map[string]store {
	t.Helper()

	sq, err := NewSQLiteRepo(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepo failed: %v", err)
	}
	t.Cleanup(func() { sq.Close() })

	return map[string]store{
		"memory": NewMemoryRepo(),
		"sqlite": sq,
	}
}

func pendingTx(ref, phone string) *domain.Transaction {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Transaction{
		Reference: ref,
		Phone:     phone,
		Amount:    200,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestUpsertAndGet(t *testing.T) {
	t.Parallel()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			tx := pendingTx("EBOOK-1", "0712345678")
			if err := s.Upsert(ctx, tx); err != nil {
				t.Fatalf("Upsert failed: %v", err)
			}
			if tx.ID == 0 {
				t.Error("expected ID to be assigned")
			}

			got, err := s.Get(ctx, "EBOOK-1")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if got.Phone != "0712345678" || got.Amount != 200 || got.Status != domain.StatusPending {
				t.Errorf("unexpected transaction %+v", got)
			}
			if !got.CreatedAt.Equal(tx.CreatedAt) {
				t.Errorf("created time mismatch: %v vs %v", got.CreatedAt, tx.CreatedAt)
			}
			if got.SettledAt != nil {
				t.Error("pending transaction must not be settled")
			}
		})
	}
}

func TestGetMissing(t *testing.T) {
	t.Parallel()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get(context.Background(), "EBOOK-404"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestUpsert(t *testing.T) {
	t.Parallel()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			tx := pendingTx("EBOOK-2", "0712345678")
			if err := s.Upsert(ctx, tx); err != nil {
				t.Fatalf("Upsert insert failed: %v", err)
			}
			firstID := tx.ID

			again := pendingTx("EBOOK-2", "0799999999")
			if err := s.Upsert(ctx, again); err != nil {
				t.Fatalf("Upsert update failed: %v", err)
			}
			if again.ID != firstID {
				t.Errorf("expected id %d to be kept, got %d", firstID, again.ID)
			}

			got, _ := s.Get(ctx, "EBOOK-2")
			if got.Phone != "0799999999" {
				t.Errorf("expected updated phone, got %s", got.Phone)
			}
		})
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	t.Parallel()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.Upsert(ctx, pendingTx("EBOOK-3", "0712345678")); err != nil {
				t.Fatal(err)
			}

			at := time.Now()

			cur, changed, err := s.UpdateStatus(ctx, "EBOOK-3", domain.StatusPending, at)
			if err != nil || changed || cur.Status != domain.StatusPending {
				t.Fatalf("pending->pending: %+v changed=%v err=%v", cur, changed, err)
			}

			cur, changed, err = s.UpdateStatus(ctx, "EBOOK-3", domain.StatusPaid, at)
			if err != nil || !changed || cur.Status != domain.StatusPaid {
				t.Fatalf("pending->paid: %+v changed=%v err=%v", cur, changed, err)
			}
			if cur.SettledAt == nil {
				t.Error("expected settled time")
			}

			cur, changed, err = s.UpdateStatus(ctx, "EBOOK-3", domain.StatusPaid, at)
			if err != nil || changed {
				t.Fatalf("paid->paid should be a no-op: changed=%v err=%v", changed, err)
			}

			cur, changed, err = s.UpdateStatus(ctx, "EBOOK-3", domain.StatusFailed, at)
			if !errors.Is(err, domain.ErrInvalidTransition) || changed {
				t.Fatalf("paid->failed must be rejected: changed=%v err=%v", changed, err)
			}
			if cur.Status != domain.StatusPaid {
				t.Errorf("status must stay PAID, got %s", cur.Status)
			}

			_, _, err = s.UpdateStatus(ctx, "EBOOK-3", domain.StatusPending, at)
			if !errors.Is(err, domain.ErrInvalidTransition) {
				t.Errorf("paid->pending must be rejected, got %v", err)
			}

			if _, _, err := s.UpdateStatus(ctx, "EBOOK-missing", domain.StatusPaid, at); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestUpdateStatusConcurrent(t *testing.T) {
	t.Parallel()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.Upsert(ctx, pendingTx("EBOOK-4", "0712345678")); err != nil {
				t.Fatal(err)
			}

			var wg sync.WaitGroup
			var mu sync.Mutex
			winners := 0
			for i := 0; i < 20; i++ {
				status := domain.StatusPaid
				if i%2 == 1 {
					status = domain.StatusFailed
				}
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, changed, _ := s.UpdateStatus(ctx, "EBOOK-4", status, time.Now())
					if changed {
						mu.Lock()
						winners++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			if winners != 1 {
				t.Errorf("expected exactly one winning transition, got %d", winners)
			}
		})
	}
}

func TestList(t *testing.T) {
	t.Parallel()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 1; i <= 5; i++ {
				phone := "0712345678"
				if i%2 == 0 {
					phone = "0612345678"
				}
				if err := s.Upsert(ctx, pendingTx(fmt.Sprintf("EBOOK-L%d", i), phone)); err != nil {
					t.Fatal(err)
				}
			}
			if _, _, err := s.UpdateStatus(ctx, "EBOOK-L1", domain.StatusPaid, time.Now()); err != nil {
				t.Fatal(err)
			}

			all, err := s.List(ctx, TxFilter{}, 50, 0)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(all) != 5 || all[0].Reference != "EBOOK-L5" {
				t.Errorf("expected 5 newest-first, got %d starting %v", len(all), all)
			}

			byPhone, _ := s.List(ctx, TxFilter{Phone: "0612345678"}, 50, 0)
			if len(byPhone) != 2 {
				t.Errorf("expected 2 by phone, got %d", len(byPhone))
			}

			paid, _ := s.List(ctx, TxFilter{Status: domain.StatusPaid}, 50, 0)
			if len(paid) != 1 || paid[0].Reference != "EBOOK-L1" {
				t.Errorf("expected EBOOK-L1 paid, got %v", paid)
			}

			page, _ := s.List(ctx, TxFilter{}, 2, 1)
			if len(page) != 2 || page[0].Reference != "EBOOK-L4" {
				t.Errorf("unexpected page %v", page)
			}
		})
	}
}

func TestRebind(t *testing.T) {
	t.Parallel()

	pg := &SQLRepo{dialect: dialectPostgres}
	if got := pg.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Errorf("unexpected postgres rebind %q", got)
	}

	lite := &SQLRepo{dialect: dialectSQLite}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Errorf("sqlite query must be untouched, got %q", got)
	}
}
