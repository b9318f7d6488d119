package memstore

import (
	"context"
	"sync"
	"time"

	"hotspot-pix-portal/internal/domain"
	"hotspot-pix-portal/internal/domain/model"
	"hotspot-pix-portal/internal/domain/ports/repository"
)

var _ repository.SessionStore = (*SessionStore)(nil)

// SessionStore is the in-memory session table for single-process
// deployments. Both indices are guarded by one RWMutex, so the charge
// index entry is written in the same atomic step as the insert.
type SessionStore struct {
	mu        sync.RWMutex
	byID      map[string]*model.VoucherSession
	byCharge  map[string]string // chargeID -> sessionID, one-to-one
	insertSeq []string          // preserves creation order for scans
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		byID:     make(map[string]*model.VoucherSession),
		byCharge: make(map[string]string),
	}
}

func (s *SessionStore) Save(ctx context.Context, sess *model.VoucherSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[sess.ID]; ok {
		return domain.ErrAlreadyExists
	}
	if _, ok := s.byCharge[sess.ChargeID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *sess
	s.byID[sess.ID] = &cp
	s.byCharge[sess.ChargeID] = sess.ID
	s.insertSeq = append(s.insertSeq, sess.ID)
	return nil
}

func (s *SessionStore) Update(ctx context.Context, sess *model.VoucherSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[sess.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *sess
	cp.UpdatedAt = time.Now()
	s.byID[sess.ID] = &cp
	return nil
}

func (s *SessionStore) FindByID(ctx context.Context, id string) (*model.VoucherSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *SessionStore) FindByChargeID(ctx context.Context, chargeID string) (*model.VoucherSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byCharge[chargeID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *SessionStore) ListPendingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*model.VoucherSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.VoucherSession
	for _, id := range s.insertSeq {
		sess, ok := s.byID[id]
		if !ok || sess.Status != model.SessionStatusPending {
			continue
		}
		if !sess.CreatedAt.Before(cutoff) {
			continue
		}
		cp := *sess
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *SessionStore) CountByStatus(ctx context.Context) (map[model.SessionStatus]int, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[model.SessionStatus]int)
	var revenue int64
	for _, sess := range s.byID {
		counts[sess.Status]++
		if sess.Status == model.SessionStatusCompleted {
			revenue += sess.PriceCents
		}
	}
	return counts, revenue, nil
}

func (s *SessionStore) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	kept := s.insertSeq[:0]
	for _, id := range s.insertSeq {
		sess, ok := s.byID[id]
		if !ok {
			continue
		}
		if sess.Status.IsTerminal() && sess.UpdatedAt.Before(cutoff) {
			delete(s.byID, id)
			delete(s.byCharge, sess.ChargeID)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.insertSeq = kept
	return removed, nil
}
