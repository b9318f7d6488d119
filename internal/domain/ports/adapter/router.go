package adapter

import (
	"context"
	"time"
)

// RouterProvisioner is the port for the hotspot router's management API.
type RouterProvisioner interface {
	Name() string

	// Grant provisions network access for identifier lasting duration.
	// Granting an already-granted identifier for the same duration is a
	// no-op success; the call is safe to retry.
	Grant(ctx context.Context, identifier string, duration time.Duration) error

	// Revoke removes access early. Not exercised by the purchase lifecycle
	// but available for admin-initiated termination.
	Revoke(ctx context.Context, identifier string) error
}
