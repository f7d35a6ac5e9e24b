package auth

import (
	"context"
	"time"

	"github.com/rileyhilliard/ghkey/internal/resource"
)

// Authenticator runs one authentication flow and returns the API client
// carrying the resulting credential.
type Authenticator interface {
	Authenticate(ctx context.Context) (*resource.Client, error)
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the real Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func serviceLabel(name string) string {
	if name == "" {
		return "the service"
	}
	return name
}
