package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/config"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/db"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/engine"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/events"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/migrate"
)

type delivery struct {
	event     string
	signature string
	body      []byte
}

type receiver struct {
	mu   sync.Mutex
	got  []delivery
	fail bool
}

func (rc *receiver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.fail {
		http.Error(w, "down", http.StatusServiceUnavailable)
		return
	}
	rc.got = append(rc.got, delivery{event: r.Header.Get("X-OUA-Event"), signature: r.Header.Get("X-OUA-Signature"), body: body})
	w.WriteHeader(http.StatusNoContent)
}

func (rc *receiver) deliveries() []delivery {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return append([]delivery(nil), rc.got...)
}

func TestWebhookDispatchSignsAndFilters(t *testing.T) {
	rc := &receiver{}
	hookSrv := httptest.NewServer(rc)
	defer hookSrv.Close()

	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, migrate.Migrate(conn))
	cfg := config.Default()
	cfg.Webhooks = []config.WebhookConfig{{
		URL:    hookSrv.URL,
		Events: []string{events.ActivityCreated},
		Secret: "hook-secret",
	}}
	e := engine.New(conn, cfg)
	e.Logger = nil
	ctx := context.Background()

	_, err = e.CreateUser(ctx, engine.CreateUserInput{Key: "mario"})
	require.NoError(t, err)

	d := newWebhookDispatcher(e, nil)
	// the first pass only pins the cursor to the newest event
	d.dispatchAll(ctx)
	require.Empty(t, rc.deliveries())

	a, err := e.CreateActivity(ctx, engine.CreateActivityInput{
		UserKey: "mario", Date: "2025-01-10", StartTime: "09:00", EndTime: "13:00", ActivityType: "lavoro",
	})
	require.NoError(t, err)
	_, err = e.CreateUser(ctx, engine.CreateUserInput{Key: "luigi"})
	require.NoError(t, err)
	d.dispatchAll(ctx)

	got := rc.deliveries()
	require.Len(t, got, 1)
	require.Equal(t, events.ActivityCreated, got[0].event)
	require.Equal(t, "sha256="+signPayload("hook-secret", got[0].body), got[0].signature)
	var evt webhookEvent
	require.NoError(t, json.Unmarshal(got[0].body, &evt))
	require.Equal(t, a.ID, evt.EntityID)
	require.Equal(t, "mario", evt.UserKey)

	// nothing new, nothing sent
	d.dispatchAll(ctx)
	require.Len(t, rc.deliveries(), 1)
}

func TestWebhookRetriesAfterFailure(t *testing.T) {
	rc := &receiver{fail: true}
	hookSrv := httptest.NewServer(rc)
	defer hookSrv.Close()

	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, migrate.Migrate(conn))
	cfg := config.Default()
	cfg.Webhooks = []config.WebhookConfig{{URL: hookSrv.URL}}
	e := engine.New(conn, cfg)
	e.Logger = nil
	ctx := context.Background()

	d := newWebhookDispatcher(e, nil)
	d.dispatchAll(ctx)
	_, err = e.CreateUser(ctx, engine.CreateUserInput{Key: "mario"})
	require.NoError(t, err)
	d.dispatchAll(ctx)
	require.Empty(t, rc.deliveries())

	rc.mu.Lock()
	rc.fail = false
	rc.mu.Unlock()
	d.dispatchAll(ctx)
	got := rc.deliveries()
	require.Len(t, got, 1)
	require.Equal(t, events.UserCreated, got[0].event)
	require.Empty(t, got[0].signature)
}

func TestEventFilter(t *testing.T) {
	require.True(t, newEventFilter(nil).match("anything"))
	require.True(t, newEventFilter([]string{" ", ""}).match("anything"))
	f := newEventFilter([]string{"activity.created", " activity.deleted "})
	require.True(t, f.match("activity.deleted"))
	require.False(t, f.match("user.created"))
}
