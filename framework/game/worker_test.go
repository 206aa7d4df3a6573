package game

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/database"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/core/infrastructure/realtime"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/framework/stream"
)

func newTestWorkerWithRouter(t *testing.T) (*Worker, *realtime.UserRouter) {
	t.Helper()
	mr := miniredis.RunT(t)
	cli := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cli.Close() })
	router := realtime.NewUserRouter(&database.RedisManager{Cli: cli})
	w := NewWorker("game-test", testGameConf(), Deps{Router: router})
	return w, router
}

func TestLeaveTableUnbindsUserRoute(t *testing.T) {
	w, router := newTestWorkerWithRouter(t)
	sink := &stubSink{}
	tbl := newTestTable(sink, testGameConf())
	defer tbl.Close()
	if err := w.TableManager.AddTable(tbl); err != nil {
		t.Fatalf("AddTable failed: %v", err)
	}
	w.TableManager.BindPlayer("u1", tbl.ID)

	ctx := context.Background()
	if err := router.Bind(ctx, "u1", "connector-1"); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	w.handleLeaveTable(&stream.Message{UserID: "u1"})
	tbl.sync()

	got, err := router.Lookup(ctx, "u1")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got != "" {
		t.Fatalf("route still bound to %q after leaving the table", got)
	}
	if _, ok := w.TableManager.GetPlayerTable("u1"); ok {
		t.Fatalf("player still bound to a table after leaving")
	}
}

func TestReconnectRefreshesGatewayRoute(t *testing.T) {
	w, router := newTestWorkerWithRouter(t)
	sink := &stubSink{}
	tbl := newTestTable(sink, testGameConf())
	defer tbl.Close()
	if err := w.TableManager.AddTable(tbl); err != nil {
		t.Fatalf("AddTable failed: %v", err)
	}
	w.TableManager.BindPlayer("u1", tbl.ID)

	ctx := context.Background()
	if err := router.Bind(ctx, "u1", "connector-old"); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	// coming back through a different gateway must move the route
	w.handleReconnect(&stream.Message{UserID: "u1", Source: "connector-new"})
	tbl.sync()

	got, err := router.Lookup(ctx, "u1")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got != "connector-new" {
		t.Fatalf("route not refreshed, still %q", got)
	}
}
