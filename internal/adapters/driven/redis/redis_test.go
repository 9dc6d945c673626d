package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tkgathr2/bulk/internal/adapters/driven/secrets"
	"github.com/tkgathr2/bulk/internal/core/domain"
	"github.com/tkgathr2/bulk/internal/core/ports/driven"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func testEncryptor(t *testing.T) *secrets.Encryptor {
	t.Helper()
	enc, err := secrets.NewEncryptor([]byte("01234567890123456789012345678901"))
	if err != nil {
		t.Fatalf("NewEncryptor: %v", err)
	}
	return enc
}

func TestLock_AcquireRelease(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()

	a := NewLock(client)
	b := NewLock(client)
	if a.OwnerID() == b.OwnerID() {
		t.Fatal("expected distinct owner IDs")
	}

	ok, err := a.Acquire(ctx, "refresh:s1:gmail", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	ok, err = b.Acquire(ctx, "refresh:s1:gmail", time.Minute)
	if err != nil || ok {
		t.Fatalf("second acquire should fail: ok=%v err=%v", ok, err)
	}

	// Releasing someone else's lock is a no-op
	if err := b.Release(ctx, "refresh:s1:gmail"); err != nil {
		t.Fatalf("release by non-owner: %v", err)
	}
	if ok, _ := b.Acquire(ctx, "refresh:s1:gmail", time.Minute); ok {
		t.Fatal("lock should still be held by a")
	}

	if err := a.Release(ctx, "refresh:s1:gmail"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := b.Acquire(ctx, "refresh:s1:gmail", time.Minute); !ok {
		t.Fatal("expected b to acquire after release")
	}
}

func TestLock_Expires(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()
	lock := NewLock(client)

	if ok, _ := lock.Acquire(ctx, "x", time.Second); !ok {
		t.Fatal("expected acquire")
	}
	mr.FastForward(2 * time.Second)
	if ok, _ := NewLock(client).Acquire(ctx, "x", time.Second); !ok {
		t.Fatal("expected acquire after TTL")
	}
}

func TestTokenStore_RoundTrip(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()
	store := NewTokenStore(client, testEncryptor(t), 0)

	got, err := store.Get(ctx, "s1", domain.ServiceGmail)
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil for missing token: %v %v", got, err)
	}

	expires := int64(1736676000000)
	token := &domain.TokenData{AccessToken: "ya29.a", RefreshToken: "1//r", ExpiresAt: &expires, TokenType: "Bearer"}
	if err := store.Set(ctx, "s1", domain.ServiceGmail, token); err != nil {
		t.Fatalf("Set: %v", err)
	}

	raw := mr.HGet(tokenKey("s1"), "gmail")
	if raw == "" {
		t.Fatal("expected a hash field for gmail")
	}
	if strings.Contains(raw, "ya29.a") {
		t.Error("token stored in plaintext")
	}
	if ttl := mr.TTL(tokenKey("s1")); ttl != DefaultSessionTTL {
		t.Errorf("expected TTL %v, got %v", DefaultSessionTTL, ttl)
	}

	got, err = store.Get(ctx, "s1", domain.ServiceGmail)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.AccessToken != "ya29.a" || got.RefreshToken != "1//r" || *got.ExpiresAt != expires {
		t.Errorf("unexpected token %+v", got)
	}

	// Sessions are isolated
	if other, _ := store.Get(ctx, "s2", domain.ServiceGmail); other != nil {
		t.Error("token leaked into another session")
	}
}

func TestTokenStore_Remove(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()
	store := NewTokenStore(client, testEncryptor(t), time.Hour)

	for _, svc := range domain.AllServices() {
		if err := store.Set(ctx, "s1", svc, &domain.TokenData{AccessToken: "t-" + string(svc), TokenType: "Bearer"}); err != nil {
			t.Fatalf("Set %s: %v", svc, err)
		}
	}

	if err := store.Remove(ctx, "s1", domain.ServiceSlack); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := store.Remove(ctx, "s1", domain.ServiceSlack); err != nil {
		t.Fatalf("Remove of a missing token should succeed: %v", err)
	}
	if got, _ := store.Get(ctx, "s1", domain.ServiceSlack); got != nil {
		t.Error("expected slack token removed")
	}
	if got, _ := store.Get(ctx, "s1", domain.ServiceDrive); got == nil {
		t.Error("expected drive token kept")
	}

	if err := store.RemoveAll(ctx, "s1"); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	if got, _ := store.Get(ctx, "s1", domain.ServiceDrive); got != nil {
		t.Error("expected every token removed")
	}
}

func TestTokenStore_WrongKey(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()

	writer := NewTokenStore(client, testEncryptor(t), 0)
	if err := writer.Set(ctx, "s1", domain.ServiceDropbox, &domain.TokenData{AccessToken: "sl.a"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	otherKey, _ := secrets.NewEncryptor([]byte("abcdefghijabcdefghijabcdefghij12"))
	reader := NewTokenStore(client, otherKey, 0)
	if _, err := reader.Get(ctx, "s1", domain.ServiceDropbox); !errors.Is(err, secrets.ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestHistoryStore_CapsAtMax(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()
	store := NewHistoryStore(client, 0)

	for i := 0; i < domain.MaxHistoryEntries+5; i++ {
		entry := &domain.SearchHistoryEntry{ID: fmt.Sprintf("h%d", i), Query: fmt.Sprintf("q%d", i), Filters: domain.DefaultFilters()}
		if err := store.Add(ctx, "s1", entry); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	entries, err := store.List(ctx, "s1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != domain.MaxHistoryEntries {
		t.Fatalf("expected %d entries, got %d", domain.MaxHistoryEntries, len(entries))
	}
	if entries[0].Query != "q34" || entries[len(entries)-1].Query != "q5" {
		t.Errorf("unexpected order: first %s last %s", entries[0].Query, entries[len(entries)-1].Query)
	}
	if n, _ := client.LLen(ctx, historyKey("s1")).Result(); n != domain.MaxHistoryEntries {
		t.Errorf("list not trimmed: %d", n)
	}
}

func TestHistoryStore_DeleteAndClear(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()
	store := NewHistoryStore(client, time.Hour)

	for _, id := range []string{"a", "b", "c"} {
		_ = store.Add(ctx, "s1", &domain.SearchHistoryEntry{ID: id, Query: id})
	}

	if err := store.Delete(ctx, "s1", "b"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, "s1", "b"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	entries, _ := store.List(ctx, "s1")
	if len(entries) != 2 || entries[0].ID != "c" || entries[1].ID != "a" {
		t.Errorf("unexpected entries after delete: %+v", entries)
	}

	if err := store.Clear(ctx, "s1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	entries, _ = store.List(ctx, "s1")
	if len(entries) != 0 {
		t.Errorf("expected empty history, got %d", len(entries))
	}
}

func TestSessionStore_User(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()
	store := NewSessionStore(client, time.Hour)

	if user, err := store.GetUser(ctx, "s1"); err != nil || user != nil {
		t.Fatalf("expected nil, nil: %v %v", user, err)
	}

	if err := store.SaveUser(ctx, "s1", &domain.SessionUser{Email: "u@example.com", Name: "U"}); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	user, err := store.GetUser(ctx, "s1")
	if err != nil || user.Email != "u@example.com" {
		t.Fatalf("GetUser: %+v %v", user, err)
	}

	mr.FastForward(2 * time.Hour)
	if user, _ := store.GetUser(ctx, "s1"); user != nil {
		t.Error("expected user to expire")
	}

	_ = store.SaveUser(ctx, "s1", &domain.SessionUser{Email: "u@example.com"})
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if user, _ := store.GetUser(ctx, "s1"); user != nil {
		t.Error("expected user deleted")
	}
}

func TestOAuthStateStore_SingleUse(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()
	store := NewOAuthStateStore(client)

	state := &driven.OAuthState{
		State:     "abc",
		SessionID: "s1",
		Target:    domain.TargetDrive,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}
	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.GetAndDelete(ctx, "abc")
	if err != nil || got == nil {
		t.Fatalf("GetAndDelete: %v %v", got, err)
	}
	if got.SessionID != "s1" || got.Target != domain.TargetDrive {
		t.Errorf("unexpected state %+v", got)
	}

	again, err := store.GetAndDelete(ctx, "abc")
	if err != nil || again != nil {
		t.Errorf("state should be single-use: %v %v", again, err)
	}
}

func TestOAuthStateStore_Expired(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()
	store := NewOAuthStateStore(client)

	_ = store.Save(ctx, &driven.OAuthState{State: "old", ExpiresAt: time.Now().Add(time.Minute)})
	mr.FastForward(2 * time.Minute)

	if got, _ := store.GetAndDelete(ctx, "old"); got != nil {
		t.Error("expected expired state to be gone")
	}
	if got, _ := store.GetAndDelete(ctx, "missing"); got != nil {
		t.Error("expected nil for unknown state")
	}
}
