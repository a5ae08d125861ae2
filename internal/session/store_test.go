package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/learninverse/server/internal/rbac"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client, time.Hour, zap.NewNop()), mr
}

func TestStorePutGet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	id := &Identity{
		UserID:  "u-1",
		Email:   "alice@school.edu",
		Name:    "Alice",
		Role:    rbac.RoleTeacher,
		LoginAt: time.Now().Truncate(time.Second),
	}
	require.NoError(t, store.Put(ctx, id))

	got, err := store.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "alice@school.edu", got.Email)
	assert.Equal(t, rbac.RoleTeacher, got.Role)
	assert.True(t, got.HasRole(rbac.RoleStudent))
	assert.False(t, got.HasRole(rbac.RoleAdmin))
}

func TestIdentityRolePredicates(t *testing.T) {
	assert.True(t, (&Identity{Role: rbac.RoleStudent}).IsStudent())
	assert.True(t, (&Identity{Role: rbac.RoleTeacher}).IsTeacher())
	assert.False(t, (&Identity{Role: rbac.RoleTeacher}).IsAdmin())
	assert.True(t, (&Identity{Role: rbac.RoleAdmin}).IsAdmin())
	assert.True(t, (&Identity{Role: rbac.RoleSuperAdmin}).IsAdmin())
}

func TestStoreGetMissing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStoreExists(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	ok, err := store.Exists(ctx, "u-2")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, &Identity{UserID: "u-2", Role: rbac.RoleStudent}))
	ok, err = store.Exists(ctx, "u-2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStoreRemove(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &Identity{UserID: "u-3", Role: rbac.RoleStudent}))
	require.NoError(t, store.Remove(ctx, "u-3"))

	_, err := store.Get(ctx, "u-3")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStoreTouch(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &Identity{UserID: "u-4", Role: rbac.RoleStudent}))

	mr.FastForward(30 * time.Minute)
	require.NoError(t, store.Touch(ctx, "u-4"))

	mr.FastForward(45 * time.Minute)
	_, err := store.Get(ctx, "u-4")
	assert.NoError(t, err, "touch should have reset the TTL")

	assert.ErrorIs(t, store.Touch(ctx, "missing"), ErrNoSession)
}

func TestStoreSessionExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &Identity{UserID: "u-5", Role: rbac.RoleStudent}))
	mr.FastForward(2 * time.Hour)

	_, err := store.Get(ctx, "u-5")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStoreEvents(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan Event, 4)
	store.OnEvent(func(ev Event) { events <- ev })
	require.NoError(t, store.Start(ctx))
	defer store.Stop()

	require.NoError(t, store.Put(ctx, &Identity{UserID: "u-6", Role: rbac.RoleAdmin}))
	require.NoError(t, store.Remove(ctx, "u-6"))

	var got []Event
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case ev := <-events:
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("timed out waiting for identity events, got %d", len(got))
		}
	}
	assert.Equal(t, "login", got[0].Kind)
	assert.Equal(t, rbac.RoleAdmin, got[0].Role)
	assert.Equal(t, "logout", got[1].Kind)
	assert.Equal(t, "u-6", got[1].UserID)
}
