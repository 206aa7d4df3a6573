package realtime

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/database"
)

func newTestRouter(t *testing.T) *UserRouter {
	t.Helper()
	mr := miniredis.RunT(t)
	cli := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cli.Close() })
	return NewUserRouter(&database.RedisManager{Cli: cli})
}

func TestUserRouterMissingRouteIsNotAnError(t *testing.T) {
	r := newTestRouter(t)

	got, err := r.Lookup(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Lookup of missing route returned error: %v", err)
	}
	if got != "" {
		t.Fatalf("Lookup of missing route returned %q, want empty", got)
	}
}

func TestUserRouterBindRefreshUnbind(t *testing.T) {
	r := newTestRouter(t)
	ctx := context.Background()

	if err := r.Bind(ctx, "u1", "connector-1"); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	got, err := r.Lookup(ctx, "u1")
	if err != nil || got != "connector-1" {
		t.Fatalf("Lookup after bind = %q, %v; want connector-1", got, err)
	}

	// rebinding replaces the old gateway
	if err := r.Bind(ctx, "u1", "connector-2"); err != nil {
		t.Fatalf("rebind failed: %v", err)
	}
	if got, _ = r.Lookup(ctx, "u1"); got != "connector-2" {
		t.Fatalf("Lookup after rebind = %q, want connector-2", got)
	}

	if err := r.Unbind(ctx, "u1"); err != nil {
		t.Fatalf("Unbind failed: %v", err)
	}
	if got, _ = r.Lookup(ctx, "u1"); got != "" {
		t.Fatalf("Lookup after unbind = %q, want empty", got)
	}
}
