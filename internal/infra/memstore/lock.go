package memstore

import (
	"context"
	"sync"

	"hotspot-pix-portal/internal/domain"
	"hotspot-pix-portal/internal/domain/ports/repository"

	"github.com/google/uuid"
)

var _ repository.SessionLocker = (*Locker)(nil)

// Locker is the in-process session lock registry. Each session gets a
// one-slot channel; Acquire parks on it until the holder releases or ctx
// is done, which keeps a hung external call from blocking forever.
type Locker struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	ch chan struct{} // capacity 1; a queued value means "free"

	mu    sync.Mutex // guards token; a stale Release may race the holder
	token string
}

func NewLocker() *Locker {
	return &Locker{slots: make(map[string]*lockSlot)}
}

func (l *Locker) slot(sessionID string) *lockSlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[sessionID]
	if !ok {
		s = &lockSlot{ch: make(chan struct{}, 1)}
		s.ch <- struct{}{}
		l.slots[sessionID] = s
	}
	return s
}

func (l *Locker) Acquire(ctx context.Context, sessionID string) (string, error) {
	s := l.slot(sessionID)
	select {
	case <-s.ch:
		token := uuid.NewString()
		s.mu.Lock()
		s.token = token
		s.mu.Unlock()
		return token, nil
	case <-ctx.Done():
		return "", domain.ErrLockBusy
	}
}

func (l *Locker) Release(ctx context.Context, sessionID, token string) error {
	l.mu.Lock()
	s, ok := l.slots[sessionID]
	l.mu.Unlock()
	if !ok {
		return domain.ErrInvalidArgument
	}
	s.mu.Lock()
	if s.token != token {
		s.mu.Unlock()
		return domain.ErrInvalidArgument
	}
	s.token = ""
	s.mu.Unlock()
	s.ch <- struct{}{}
	return nil
}
