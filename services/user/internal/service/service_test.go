package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mosgim/platform/pkg/db"
	"github.com/mosgim/platform/pkg/events"
	"github.com/mosgim/platform/pkg/tokens"
	"github.com/mosgim/platform/services/user/internal/repo"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.UserEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev, ok := event.(events.UserEvent); ok {
		p.events = append(p.events, ev)
	}
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func newTestService(t *testing.T) (*AuthService, *recordingPublisher) {
	t.Helper()
	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	r := repo.New(gdb)
	require.NoError(t, r.Migrate(context.Background()))

	pub := &recordingPublisher{}
	svc := New(r, tokens.NewIssuer([]byte("test-jwt-secret")), pub)
	require.NoError(t, svc.EnsureDefaultRoles(context.Background()))
	return svc, pub
}

// issuerAt returns an issuer sharing svc's secret whose clock is shifted.
func issuerAt(svc *AuthService, shift time.Duration) *tokens.Issuer {
	return &tokens.Issuer{
		Secret: svc.Tokens.Secret,
		TTL:    tokens.DefaultTTL,
		Now:    func() time.Time { return time.Now().Add(shift) },
	}
}
