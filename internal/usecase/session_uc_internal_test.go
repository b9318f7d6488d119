//go:build !integration

package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"hotspot-pix-portal/internal/domain/model"
	"hotspot-pix-portal/internal/infra/memstore"

	"github.com/rs/zerolog"
)

// cancellingRouter fails every grant and kills the provisioning context on
// the first one.
type cancellingRouter struct {
	mu     sync.Mutex
	calls  int
	cancel context.CancelFunc
}

func (r *cancellingRouter) Name() string { return "test" }

func (r *cancellingRouter) Grant(ctx context.Context, identifier string, duration time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.calls == 1 {
		r.cancel()
	}
	return errors.New("router unreachable")
}

func (r *cancellingRouter) Revoke(ctx context.Context, identifier string) error { return nil }

func (r *cancellingRouter) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestProvisionStopsWhenWindowCloses(t *testing.T) {
	// Arrange: a huge backoff so the loop parks in the select; if it were
	// to issue another grant on the dead context the call count would show.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	router := &cancellingRouter{cancel: cancel}
	store := memstore.NewSessionStore()
	logger := zerolog.New(io.Discard)
	u := NewSessionUseCase(store, memstore.NewPlanRepo(), memstore.NewLocker(), nil, router,
		SessionManagerOptions{GrantAttempts: 3, RetryBackoff: time.Hour}, &logger)
	t.Cleanup(u.Close)

	plan, err := model.NewAccessPlan("1h", "1 hora", 60, 300)
	if err != nil {
		t.Fatalf("NewAccessPlan: %v", err)
	}
	sess := model.NewVoucherSession("sess-1", plan, "charge-1", "pix-payload", time.Minute)
	sess.Status = model.SessionStatusProcessing
	if err := store.Save(context.Background(), sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Act
	done := make(chan error, 1)
	go func() { done <- u.provision(ctx, sess) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("provision: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("provision kept waiting on a dead context")
	}

	// Assert: one real attempt, then the session is held for an operator.
	if n := router.total(); n != 1 {
		t.Errorf("expected 1 grant attempt, got %d", n)
	}
	got, _ := store.FindByID(context.Background(), "sess-1")
	if got.Status != model.SessionStatusProcessing {
		t.Errorf("expected session held in processing, got %q", got.Status)
	}
}
