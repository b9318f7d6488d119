//go:build !integration

package sched

import (
	"context"
	"io"
	"testing"
	"time"

	"hotspot-pix-portal/internal/domain/model"
	"hotspot-pix-portal/internal/domain/ports/adapter"
	"hotspot-pix-portal/internal/infra/adapters/payment"
	"hotspot-pix-portal/internal/infra/adapters/router"
	"hotspot-pix-portal/internal/infra/memstore"
	"hotspot-pix-portal/internal/usecase"

	"github.com/rs/zerolog"
)

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func TestChargeReconciler_Tick(t *testing.T) {
	ctx := context.Background()

	newFixture := func(t *testing.T) (*memstore.SessionStore, *payment.NoopPaymentGateway, *router.NoopProvisioner, *ChargeReconciler) {
		t.Helper()
		store := memstore.NewSessionStore()
		plans := memstore.NewPlanRepo()
		gateway := payment.NewNoopPaymentGateway()
		prov := router.NewNoopProvisioner()
		uc := usecase.NewSessionUseCase(store, plans, memstore.NewLocker(), gateway, prov,
			usecase.SessionManagerOptions{}, testLogger())
		t.Cleanup(uc.Close)
		// staleAfter well below the sessions' age so the scan picks them up.
		rec := NewChargeReconciler(uc, store, gateway, time.Minute, time.Nanosecond, testLogger())
		return store, gateway, prov, rec
	}

	seedPending := func(t *testing.T, store *memstore.SessionStore, gateway *payment.NoopPaymentGateway, id string) *model.VoucherSession {
		t.Helper()
		plan, _ := model.NewAccessPlan("1h", "1 hora", 60, 300)
		charge, err := gateway.IssueCharge(ctx, plan.PriceCents, plan.Label)
		if err != nil {
			t.Fatalf("IssueCharge: %v", err)
		}
		sess := model.NewVoucherSession(id, plan, charge.ID, charge.QRPayload, 5*time.Minute)
		if err := store.Save(ctx, sess); err != nil {
			t.Fatalf("Save: %v", err)
		}
		return sess
	}

	t.Run("settled charge completes a session missed by the webhook", func(t *testing.T) {
		// Arrange
		store, gateway, prov, rec := newFixture(t)
		sess := seedPending(t, store, gateway, "rec-1")
		gateway.SettleCharge(sess.ChargeID, adapter.ChargeOutcomeSuccess)
		time.Sleep(time.Millisecond)

		// Act
		rec.tick(ctx)

		// Assert
		got, err := store.FindByID(ctx, sess.ID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got.Status != model.SessionStatusCompleted {
			t.Errorf("expected completed, got %q", got.Status)
		}
		if _, ok := prov.Granted(sess.ID); !ok {
			t.Error("router access not granted")
		}
	})

	t.Run("failed charge expires the session", func(t *testing.T) {
		// Arrange
		store, gateway, prov, rec := newFixture(t)
		sess := seedPending(t, store, gateway, "rec-2")
		gateway.SettleCharge(sess.ChargeID, adapter.ChargeOutcomeFailure)
		time.Sleep(time.Millisecond)

		// Act
		rec.tick(ctx)

		// Assert
		got, _ := store.FindByID(ctx, sess.ID)
		if got.Status != model.SessionStatusExpired {
			t.Errorf("expected expired, got %q", got.Status)
		}
		if _, ok := prov.Granted(sess.ID); ok {
			t.Error("failed payment must not grant access")
		}
	})

	t.Run("unsettled charges are left alone", func(t *testing.T) {
		// Arrange
		store, gateway, prov, rec := newFixture(t)
		sess := seedPending(t, store, gateway, "rec-3")
		time.Sleep(time.Millisecond)

		// Act
		rec.tick(ctx)

		// Assert
		got, _ := store.FindByID(ctx, sess.ID)
		if got.Status != model.SessionStatusPending {
			t.Errorf("expected pending, got %q", got.Status)
		}
		if _, ok := prov.Granted(sess.ID); ok {
			t.Error("pending charge must not grant access")
		}
	})

	t.Run("a stray lookup failure does not stop the scan", func(t *testing.T) {
		// Arrange: one session whose charge the gateway forgot, one settled.
		store, gateway, prov, rec := newFixture(t)
		plan, _ := model.NewAccessPlan("1h", "1 hora", 60, 300)
		orphan := model.NewVoucherSession("rec-orphan", plan, "unknown-charge", "x", 5*time.Minute)
		if err := store.Save(ctx, orphan); err != nil {
			t.Fatalf("Save: %v", err)
		}
		sess := seedPending(t, store, gateway, "rec-4")
		gateway.SettleCharge(sess.ChargeID, adapter.ChargeOutcomeSuccess)
		time.Sleep(time.Millisecond)

		// Act
		rec.tick(ctx)

		// Assert
		got, _ := store.FindByID(ctx, sess.ID)
		if got.Status != model.SessionStatusCompleted {
			t.Errorf("settled session not reconciled, got %q", got.Status)
		}
		if _, ok := prov.Granted(sess.ID); !ok {
			t.Error("router access not granted")
		}
	})
}

func TestSweepWorker_Run(t *testing.T) {
	// Arrange: one terminal session already past retention.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := memstore.NewSessionStore()
	plan, _ := model.NewAccessPlan("1h", "1 hora", 60, 300)
	sess := model.NewVoucherSession("sweep-1", plan, "c1", "x", 5*time.Minute)
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}
	sess.Status = model.SessionStatusExpired
	if err := store.Update(ctx, sess); err != nil {
		t.Fatalf("Update: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	w := NewSweepWorker(10*time.Millisecond, time.Millisecond, store, testLogger())

	// Act
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := store.FindByID(ctx, "sweep-1"); err != nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("sweep never evicted the terminal session")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Assert: the worker honors cancellation.
	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on cancel")
	}
}
