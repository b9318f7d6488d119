//go:build !integration

package memstore_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"hotspot-pix-portal/internal/domain"
	"hotspot-pix-portal/internal/domain/model"
	"hotspot-pix-portal/internal/infra/memstore"
)

func newSession(id, chargeID string, ttl time.Duration) *model.VoucherSession {
	plan, _ := model.NewAccessPlan("1h", "1 hora", 60, 300)
	return model.NewVoucherSession(id, plan, chargeID, "payload-"+id, ttl)
}

func TestSessionStore_SaveAndLookup(t *testing.T) {
	ctx := context.Background()

	t.Run("session is reachable through both indices", func(t *testing.T) {
		// Arrange
		store := memstore.NewSessionStore()
		sess := newSession("s1", "c1", time.Minute)

		// Act
		if err := store.Save(ctx, sess); err != nil {
			t.Fatalf("Save: %v", err)
		}

		// Assert
		byID, err := store.FindByID(ctx, "s1")
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		byCharge, err := store.FindByChargeID(ctx, "c1")
		if err != nil {
			t.Fatalf("FindByChargeID: %v", err)
		}
		if byID.ID != byCharge.ID {
			t.Errorf("indices disagree: %q vs %q", byID.ID, byCharge.ID)
		}
	})

	t.Run("duplicate charge id is rejected", func(t *testing.T) {
		// Arrange
		store := memstore.NewSessionStore()
		if err := store.Save(ctx, newSession("s1", "c1", time.Minute)); err != nil {
			t.Fatalf("Save: %v", err)
		}

		// Act
		err := store.Save(ctx, newSession("s2", "c1", time.Minute))

		// Assert
		if !errors.Is(err, domain.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
		if _, err := store.FindByID(ctx, "s2"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("rejected session leaked into the store: %v", err)
		}
	})

	t.Run("stored session is isolated from caller mutation", func(t *testing.T) {
		// Arrange
		store := memstore.NewSessionStore()
		sess := newSession("s1", "c1", time.Minute)
		if err := store.Save(ctx, sess); err != nil {
			t.Fatalf("Save: %v", err)
		}

		// Act
		sess.Status = model.SessionStatusCompleted

		// Assert
		got, _ := store.FindByID(ctx, "s1")
		if got.Status != model.SessionStatusPending {
			t.Errorf("caller mutation visible in store: %q", got.Status)
		}
	})

	t.Run("missing session returns ErrNotFound", func(t *testing.T) {
		store := memstore.NewSessionStore()
		if _, err := store.FindByID(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("FindByID: expected ErrNotFound, got %v", err)
		}
		if _, err := store.FindByChargeID(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("FindByChargeID: expected ErrNotFound, got %v", err)
		}
	})
}

func TestSessionStore_ListPendingOlderThan(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := memstore.NewSessionStore()
	for i := 0; i < 5; i++ {
		sess := newSession(fmt.Sprintf("s%d", i), fmt.Sprintf("c%d", i), time.Minute)
		if i%2 == 1 {
			sess.Status = model.SessionStatusCompleted
		}
		if err := store.Save(ctx, sess); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	// Act
	pending, err := store.ListPendingOlderThan(ctx, time.Now().Add(time.Second), 0)

	// Assert: only pending rows, in insertion order.
	if err != nil {
		t.Fatalf("ListPendingOlderThan: %v", err)
	}
	want := []string{"s0", "s2", "s4"}
	if len(pending) != len(want) {
		t.Fatalf("expected %d pending, got %d", len(want), len(pending))
	}
	for i, sess := range pending {
		if sess.ID != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], sess.ID)
		}
	}

	// Limit caps the scan.
	limited, _ := store.ListPendingOlderThan(ctx, time.Now().Add(time.Second), 2)
	if len(limited) != 2 {
		t.Errorf("expected limit 2, got %d", len(limited))
	}
}

func TestSessionStore_CountByStatus(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := memstore.NewSessionStore()
	completed := newSession("s1", "c1", time.Minute)
	completed.Status = model.SessionStatusCompleted
	_ = store.Save(ctx, completed)
	_ = store.Save(ctx, newSession("s2", "c2", time.Minute))

	// Act
	counts, revenue, err := store.CountByStatus(ctx)

	// Assert
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[model.SessionStatusCompleted] != 1 || counts[model.SessionStatusPending] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
	if revenue != 300 {
		t.Errorf("expected revenue 300, got %d", revenue)
	}
}

func TestSessionStore_DeleteTerminalBefore(t *testing.T) {
	// Arrange: one old expired, one old pending, one fresh completed.
	ctx := context.Background()
	store := memstore.NewSessionStore()

	expired := newSession("old-expired", "c1", time.Minute)
	_ = store.Save(ctx, expired)
	expired.Status = model.SessionStatusExpired
	_ = store.Update(ctx, expired)

	_ = store.Save(ctx, newSession("old-pending", "c2", time.Minute))

	time.Sleep(5 * time.Millisecond)
	cutoff := time.Now()

	fresh := newSession("fresh-completed", "c3", time.Minute)
	_ = store.Save(ctx, fresh)
	fresh.Status = model.SessionStatusCompleted
	_ = store.Update(ctx, fresh)

	// Act
	removed, err := store.DeleteTerminalBefore(ctx, cutoff)

	// Assert: sweep removes only terminal rows past the cutoff.
	if err != nil {
		t.Fatalf("DeleteTerminalBefore: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}
	if _, err := store.FindByID(ctx, "old-expired"); !errors.Is(err, domain.ErrNotFound) {
		t.Error("old expired session survived the sweep")
	}
	if _, err := store.FindByChargeID(ctx, "c1"); !errors.Is(err, domain.ErrNotFound) {
		t.Error("charge index entry of swept session survived")
	}
	if _, err := store.FindByID(ctx, "old-pending"); err != nil {
		t.Errorf("sweep must never touch pending sessions: %v", err)
	}
	if _, err := store.FindByID(ctx, "fresh-completed"); err != nil {
		t.Errorf("sweep must respect the retention cutoff: %v", err)
	}
}

func TestLocker(t *testing.T) {
	ctx := context.Background()

	t.Run("second acquire blocks until release", func(t *testing.T) {
		// Arrange
		locker := memstore.NewLocker()
		token, err := locker.Acquire(ctx, "s1")
		if err != nil {
			t.Fatalf("Acquire: %v", err)
		}

		// Act: a contender with a short deadline must time out.
		shortCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		if _, err := locker.Acquire(shortCtx, "s1"); !errors.Is(err, domain.ErrLockBusy) {
			t.Fatalf("expected ErrLockBusy while held, got %v", err)
		}

		// Assert: after release the lock is free again.
		if err := locker.Release(ctx, "s1", token); err != nil {
			t.Fatalf("Release: %v", err)
		}
		if _, err := locker.Acquire(ctx, "s1"); err != nil {
			t.Errorf("Acquire after release: %v", err)
		}
	})

	t.Run("release with a stale token is rejected", func(t *testing.T) {
		// Arrange
		locker := memstore.NewLocker()
		if _, err := locker.Acquire(ctx, "s1"); err != nil {
			t.Fatalf("Acquire: %v", err)
		}

		// Act
		err := locker.Release(ctx, "s1", "not-the-token")

		// Assert
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("stale releases race cleanly with the holder", func(t *testing.T) {
		// Arrange: a rogue caller spams releases with a dead token while
		// the real holder cycles the lock. Exercised under -race.
		locker := memstore.NewLocker()
		stop := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					locker.Release(ctx, "s1", "stale-token")
				}
			}
		}()

		// Act
		for i := 0; i < 200; i++ {
			token, err := locker.Acquire(ctx, "s1")
			if err != nil {
				t.Fatalf("Acquire #%d: %v", i, err)
			}
			if err := locker.Release(ctx, "s1", token); err != nil {
				t.Fatalf("Release #%d: %v", i, err)
			}
		}
		close(stop)
		wg.Wait()

		// Assert: the lock still works.
		if _, err := locker.Acquire(ctx, "s1"); err != nil {
			t.Errorf("Acquire after churn: %v", err)
		}
	})

	t.Run("locks are per session", func(t *testing.T) {
		// Arrange
		locker := memstore.NewLocker()
		if _, err := locker.Acquire(ctx, "s1"); err != nil {
			t.Fatalf("Acquire s1: %v", err)
		}

		// Act + Assert: a different session is unaffected.
		if _, err := locker.Acquire(ctx, "s2"); err != nil {
			t.Errorf("Acquire s2: %v", err)
		}
	})
}
