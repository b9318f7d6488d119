package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"hotspot-pix-portal/internal/domain"
	"hotspot-pix-portal/internal/domain/model"
	"hotspot-pix-portal/internal/domain/ports/adapter"
	"hotspot-pix-portal/internal/domain/ports/repository"
	"hotspot-pix-portal/internal/infra/metrics"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ SessionUseCase = (*sessionUC)(nil)

type SessionUseCase interface {
	// CreateSession issues a PIX charge for the plan and stores a pending
	// session with the plan snapshotted in. Exactly one charge per call;
	// on gateway failure no session is created.
	CreateSession(ctx context.Context, planID string) (*model.VoucherSession, error)
	// HandleNotification applies a provider verdict for a charge.
	// Duplicate or stale deliveries are no-ops.
	HandleNotification(ctx context.Context, chargeID string, outcome adapter.ChargeOutcome) error
	// HandleExpiry is invoked by the per-session timer; a no-op unless the
	// session is still pending.
	HandleExpiry(ctx context.Context, sessionID string) error
	// GetStatus returns the session status and how long the QR stays payable.
	GetStatus(ctx context.Context, sessionID string) (model.SessionStatus, time.Duration, error)
	// Resume re-arms expiry timers for pending sessions after a restart.
	Resume(ctx context.Context) error
	// Close stops all armed timers.
	Close()
}

// SessionManagerOptions bound the manager's external calls and retries.
type SessionManagerOptions struct {
	TTL           time.Duration // unpaid session lifetime
	GrantAttempts int           // provisioning retry budget
	CallTimeout   time.Duration // per gateway/router call
	RetryBackoff  time.Duration // first retry delay, doubled per attempt
}

// provisionWindow is the worst-case wall time the retry policy needs:
// every attempt at full timeout, every backoff, plus one more call's worth
// for stamping completion.
func (o SessionManagerOptions) provisionWindow() time.Duration {
	window := time.Duration(o.GrantAttempts+1) * o.CallTimeout
	for i := 2; i <= o.GrantAttempts; i++ {
		window += o.RetryBackoff << (i - 2)
	}
	return window
}

func (o SessionManagerOptions) normalize() SessionManagerOptions {
	if o.TTL <= 0 {
		o.TTL = 300 * time.Second
	}
	if o.GrantAttempts <= 0 {
		o.GrantAttempts = 3
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = 10 * time.Second
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 500 * time.Millisecond
	}
	return o
}

type sessionUC struct {
	store   repository.SessionStore
	plans   repository.AccessPlanRepository
	locks   repository.SessionLocker
	gateway adapter.PaymentGateway
	router  adapter.RouterProvisioner
	opts    SessionManagerOptions
	timers  timerRegistry
	log     *zerolog.Logger
}

func NewSessionUseCase(
	store repository.SessionStore,
	plans repository.AccessPlanRepository,
	locks repository.SessionLocker,
	gateway adapter.PaymentGateway,
	router adapter.RouterProvisioner,
	opts SessionManagerOptions,
	logger *zerolog.Logger,
) *sessionUC {
	ucLog := logger.With().Str("component", "SessionManager").Logger()
	return &sessionUC{
		store:   store,
		plans:   plans,
		locks:   locks,
		gateway: gateway,
		router:  router,
		opts:    opts.normalize(),
		timers:  timerRegistry{timers: make(map[string]*time.Timer)},
		log:     &ucLog,
	}
}

func (u *sessionUC) CreateSession(ctx context.Context, planID string) (*model.VoucherSession, error) {
	plan, err := u.plans.FindByID(ctx, planID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, u.opts.CallTimeout)
	defer cancel()
	description := fmt.Sprintf("Acesso Wi-Fi %s", plan.Label)
	charge, err := u.gateway.IssueCharge(callCtx, plan.PriceCents, description)
	if err != nil {
		metrics.IncChargeIssued("error")
		u.log.Warn().Err(err).Str("plan_id", planID).Msg("charge issuance failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	metrics.IncChargeIssued("ok")

	sess := model.NewVoucherSession(ulid.Make().String(), plan, charge.ID, charge.QRPayload, u.opts.TTL)
	if err := u.store.Save(ctx, sess); err != nil {
		// Charge already exists at the provider but no session references
		// it; the money can never arrive for it, so surface and log.
		u.log.Error().Err(err).Str("charge_id", charge.ID).Msg("session save failed after charge issuance")
		return nil, err
	}

	u.armExpiry(sess.ID, u.opts.TTL)
	metrics.IncSessionCreated(plan.ID)
	u.log.Info().
		Str("session_id", sess.ID).
		Str("plan_id", plan.ID).
		Str("charge_id", charge.ID).
		Int64("price_cents", plan.PriceCents).
		Msg("session created")
	return sess, nil
}

func (u *sessionUC) HandleNotification(ctx context.Context, chargeID string, outcome adapter.ChargeOutcome) error {
	sess, err := u.store.FindByChargeID(ctx, chargeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Duplicate of a swept session or a stray delivery; logged, not fatal.
			metrics.IncNotification("unknown_charge")
			u.log.Warn().Str("charge_id", chargeID).Msg("notification for unknown charge")
			return domain.ErrUnknownCharge
		}
		return err
	}
	if outcome == adapter.ChargeOutcomePending {
		// Not a verdict yet; distinct from duplicate deliveries on dashboards.
		metrics.IncNotification("pending")
		return nil
	}

	sessionID := sess.ID
	token, err := u.acquire(ctx, sessionID)
	if err != nil {
		return err
	}

	// Re-read under the lock; the snapshot above may have lost a race.
	sess, err = u.store.FindByID(ctx, sessionID)
	if err != nil {
		u.release(sessionID, token)
		return err
	}
	if sess.Status != model.SessionStatusPending {
		// Terminal or already processing: every further signal is a no-op.
		u.release(sess.ID, token)
		metrics.IncNotification("duplicate")
		u.log.Debug().Str("session_id", sess.ID).Str("status", string(sess.Status)).Msg("notification ignored, session not pending")
		return nil
	}

	if outcome == adapter.ChargeOutcomeFailure {
		sess.Status = model.SessionStatusExpired
		err = u.store.Update(ctx, sess)
		u.timers.cancel(sess.ID)
		u.release(sess.ID, token)
		if err != nil {
			return err
		}
		metrics.IncNotification("applied")
		metrics.IncSessionTransition(model.SessionStatusExpired)
		u.log.Info().Str("session_id", sess.ID).Msg("payment failed, session expired")
		return nil
	}

	// Payment confirmed: pending -> processing, then provision. The lock is
	// released before calling out so a slow router cannot stall the session.
	sess.Status = model.SessionStatusProcessing
	if err := u.store.Update(ctx, sess); err != nil {
		u.release(sess.ID, token)
		return err
	}
	u.timers.cancel(sess.ID)
	u.release(sess.ID, token)
	metrics.IncNotification("applied")
	metrics.IncSessionTransition(model.SessionStatusProcessing)
	u.log.Info().Str("session_id", sess.ID).Str("charge_id", chargeID).Msg("payment confirmed, provisioning access")

	// The money has arrived; provisioning must not die with the delivery
	// that reported it. Detach from the caller's cancellation and let the
	// retry policy carry its own deadline.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.opts.provisionWindow())
	defer cancel()
	return u.provision(pctx, sess)
}

// provision grants router access with bounded retries. Exhausting the
// budget leaves the session processing permanently: money was received and
// the obligation is outstanding, so it is never silently resolved.
func (u *sessionUC) provision(ctx context.Context, sess *model.VoucherSession) error {
	duration := time.Duration(sess.DurationMinutes) * time.Minute
	var lastErr error
retry:
	for attempt := 1; attempt <= u.opts.GrantAttempts; attempt++ {
		if attempt > 1 {
			backoff := u.opts.RetryBackoff << (attempt - 2)
			select {
			case <-time.After(backoff):
				metrics.IncGrantRetry()
			case <-ctx.Done():
				// Window closed; a grant on a dead context cannot succeed
				// and would only inflate the attempt count.
				lastErr = ctx.Err()
				break retry
			}
		}
		callCtx, cancel := context.WithTimeout(ctx, u.opts.CallTimeout)
		lastErr = u.router.Grant(callCtx, sess.ID, duration)
		cancel()
		if lastErr == nil {
			metrics.IncGrant("ok")
			return u.complete(ctx, sess.ID)
		}
		metrics.IncGrant("error")
		u.log.Warn().Err(lastErr).Str("session_id", sess.ID).Int("attempt", attempt).Msg("grant attempt failed")
	}

	metrics.IncProvisioningStuck()
	u.log.Error().Err(lastErr).
		Str("session_id", sess.ID).
		Str("charge_id", sess.ChargeID).
		Msg("ALERT: grant retries exhausted, paid session held in processing")
	return nil
}

// complete stamps activatedAt exactly once, under the session lock.
func (u *sessionUC) complete(ctx context.Context, sessionID string) error {
	token, err := u.acquire(ctx, sessionID)
	if err != nil {
		return err
	}
	defer u.release(sessionID, token)

	sess, err := u.store.FindByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.Status != model.SessionStatusProcessing {
		return nil
	}
	now := time.Now()
	sess.Status = model.SessionStatusCompleted
	sess.ActivatedAt = &now
	if err := u.store.Update(ctx, sess); err != nil {
		return err
	}
	metrics.IncSessionTransition(model.SessionStatusCompleted)
	metrics.AddRevenueCents(sess.PriceCents)
	u.log.Info().
		Str("session_id", sess.ID).
		Int("duration_minutes", sess.DurationMinutes).
		Msg("access activated")
	return nil
}

func (u *sessionUC) HandleExpiry(ctx context.Context, sessionID string) error {
	token, err := u.acquire(ctx, sessionID)
	if err != nil {
		return err
	}
	defer u.release(sessionID, token)

	sess, err := u.store.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if sess.Status != model.SessionStatusPending {
		// A notification won the race; the timer's work is done.
		u.log.Debug().Str("session_id", sessionID).Str("status", string(sess.Status)).Msg("expiry skipped")
		return nil
	}
	sess.Status = model.SessionStatusExpired
	if err := u.store.Update(ctx, sess); err != nil {
		return err
	}
	metrics.IncSessionTransition(model.SessionStatusExpired)
	u.log.Info().Str("session_id", sessionID).Msg("session expired unpaid")
	return nil
}

func (u *sessionUC) GetStatus(ctx context.Context, sessionID string) (model.SessionStatus, time.Duration, error) {
	sess, err := u.store.FindByID(ctx, sessionID)
	if err != nil {
		return "", 0, err
	}
	return sess.Status, sess.TimeRemaining(time.Now()), nil
}

func (u *sessionUC) Resume(ctx context.Context) error {
	pending, err := u.store.ListPendingOlderThan(ctx, time.Now().Add(u.opts.TTL), 0)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, sess := range pending {
		remaining := sess.ExpiresAt.Sub(now)
		if remaining < 0 {
			remaining = 0
		}
		u.armExpiry(sess.ID, remaining)
	}
	if len(pending) > 0 {
		u.log.Info().Int("count", len(pending)).Msg("re-armed expiry timers for pending sessions")
	}
	return nil
}

func (u *sessionUC) Close() { u.timers.stopAll() }

func (u *sessionUC) armExpiry(sessionID string, d time.Duration) {
	u.timers.arm(sessionID, d, func() {
		ctx, cancel := context.WithTimeout(context.Background(), u.opts.CallTimeout)
		defer cancel()
		if err := u.HandleExpiry(ctx, sessionID); err != nil {
			u.log.Error().Err(err).Str("session_id", sessionID).Msg("expiry handling failed")
		}
	})
}

func (u *sessionUC) acquire(ctx context.Context, sessionID string) (string, error) {
	lockCtx, cancel := context.WithTimeout(ctx, u.opts.CallTimeout)
	defer cancel()
	return u.locks.Acquire(lockCtx, sessionID)
}

func (u *sessionUC) release(sessionID, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := u.locks.Release(ctx, sessionID, token); err != nil {
		u.log.Error().Err(err).Str("session_id", sessionID).Msg("lock release failed")
	}
}

// timerRegistry owns the one-shot expiry timers, one per pending session.
type timerRegistry struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func (r *timerRegistry) arm(id string, d time.Duration, fire func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.timers[id]; ok {
		t.Stop()
	}
	r.timers[id] = time.AfterFunc(d, func() {
		r.mu.Lock()
		delete(r.timers, id)
		r.mu.Unlock()
		fire()
	})
}

// cancel is best effort: if the timer already fired, the pending-only
// transition rule in HandleExpiry absorbs it.
func (r *timerRegistry) cancel(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.timers[id]; ok {
		t.Stop()
		delete(r.timers, id)
	}
}

func (r *timerRegistry) stopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.timers {
		t.Stop()
		delete(r.timers, id)
	}
}
