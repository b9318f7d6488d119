package redis

import (
	"context"
	"time"

	"hotspot-pix-portal/internal/domain"
	"hotspot-pix-portal/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var _ repository.SessionLocker = (*Locker)(nil)

// Locker is the distributed per-session lock for multi-instance
// deployments. The TTL bounds how long a crashed holder can keep a
// session locked.
type Locker struct {
	cli *redis.Client
	ttl time.Duration
}

func NewLocker(c *Client, ttl time.Duration) *Locker {
	return &Locker{cli: c.cli, ttl: ttl}
}

func (l *Locker) Acquire(ctx context.Context, sessionID string) (string, error) {
	token := uuid.NewString()
	key := lockKey(sessionID)
	for i := 0; i < 50; i++ {
		ok, err := l.cli.SetNX(ctx, key, token, l.ttl).Result()
		if err == nil && ok {
			return token, nil
		}
		select {
		case <-ctx.Done():
			return "", domain.ErrLockBusy
		case <-time.After(50 * time.Millisecond):
		}
	}
	return "", domain.ErrLockBusy
}

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (l *Locker) Release(ctx context.Context, sessionID, token string) error {
	_, err := luaUnlock.Run(ctx, l.cli, []string{lockKey(sessionID)}, token).Result()
	return err
}

func lockKey(sessionID string) string { return "voucher:lock:" + sessionID }
