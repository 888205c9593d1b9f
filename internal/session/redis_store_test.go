package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	m := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return m, NewRedisStore(rdb, "session", ttl)
}

func TestRedisStoreSaveLoadClear(t *testing.T) {
	m, store := newRedisStore(t, 30*time.Minute)
	ctx := context.Background()
	s := store.Session("abc")

	if tok, user, err := s.Load(ctx); err != nil || tok != "" || user != nil {
		t.Fatalf("empty session loaded %q %q %v", tok, user, err)
	}

	if err := s.Save(ctx, "t.o.k", []byte(`{"id":"u1"}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	for _, key := range []string{"session:abc:token", "session:abc:user"} {
		if ttl := m.TTL(key); ttl != 30*time.Minute {
			t.Fatalf("%s ttl = %v", key, ttl)
		}
	}
	tok, user, err := s.Load(ctx)
	if err != nil || tok != "t.o.k" || string(user) != `{"id":"u1"}` {
		t.Fatalf("Load = %q %q %v", tok, user, err)
	}
	if tok, _, _ := store.Session("other").Load(ctx); tok != "" {
		t.Fatal("sessions share keys")
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if m.Exists("session:abc:token") || m.Exists("session:abc:user") {
		t.Fatal("Clear left keys behind")
	}
}

func TestRedisStoreExpiresIdleSessions(t *testing.T) {
	m, store := newRedisStore(t, time.Minute)
	ctx := context.Background()
	s := store.Session("abc")
	if err := s.Save(ctx, "t.o.k", []byte(`{}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	m.FastForward(2 * time.Minute)
	if tok, user, err := s.Load(ctx); err != nil || tok != "" || user != nil {
		t.Fatalf("expired session loaded %q %q %v", tok, user, err)
	}
}

func TestGuardOverRedisStore(t *testing.T) {
	_, store := newRedisStore(t, time.Hour)
	ctx := context.Background()
	token := issue(t, jwt.MapClaims{"exp": testNow.Add(time.Hour).Unix()})

	if ok, err := newGuard(store.Session("s1")).Login(ctx, token, admin); err != nil || !ok {
		t.Fatalf("Login = %v, %v", ok, err)
	}
	g := newGuard(store.Session("s1"))
	if err := g.CheckAuthState(ctx); err != nil {
		t.Fatalf("CheckAuthState: %v", err)
	}
	if st := g.State(); !st.Authenticated || st.User == nil || st.User.ID != admin.ID {
		t.Fatalf("unexpected state %+v", st)
	}

	if err := g.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if tok, _, _ := store.Session("s1").Load(ctx); tok != "" {
		t.Fatal("logout left the token in redis")
	}
}
