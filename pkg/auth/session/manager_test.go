package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) GetDel(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	delete(m.data, key)
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return "sess:" + accessID
}

func newTestManager() (*Manager, *mockStore) {
	store := newMockStore()
	return &Manager{store: store, keyer: store, ttl: time.Hour}, store
}

func TestManagerGenerateAndRotate(t *testing.T) {
	manager, store := newTestManager()
	ctx := context.Background()
	userID := uuid.New()

	token, err := manager.Generate(ctx, "access-1", userID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if ok, _ := manager.HasSession(ctx, "access-1"); !ok {
		t.Fatal("expected session after generate")
	}

	newAccess, newToken, err := manager.Rotate(ctx, "access-1", userID, token)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if newAccess == "access-1" || newToken == token {
		t.Fatal("rotate must issue fresh identifiers")
	}
	if _, ok := store.data["sess:access-1"]; ok {
		t.Fatal("old session should be removed")
	}
	if ok, _ := manager.HasSession(ctx, newAccess); !ok {
		t.Fatal("expected new session")
	}

	if _, _, err := manager.Rotate(ctx, "access-1", userID, token); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected replay to fail, got %v", err)
	}
}

func TestManagerRotateRejectsMismatch(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()
	userID := uuid.New()

	token, err := manager.Generate(ctx, "access-2", userID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, _, err := manager.Rotate(ctx, "access-2", uuid.New(), token); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected wrong user to fail, got %v", err)
	}
	if ok, _ := manager.HasSession(ctx, "access-2"); ok {
		t.Fatal("failed rotation should burn the session")
	}

	token, _ = manager.Generate(ctx, "access-3", userID)
	if _, _, err := manager.Rotate(ctx, "access-3", userID, token+"x"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected wrong token to fail, got %v", err)
	}
	if _, _, err := manager.Rotate(ctx, "", userID, token); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected empty access id to fail, got %v", err)
	}
}

func TestManagerRevoke(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()

	if _, err := manager.Generate(ctx, "access-4", uuid.New()); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := manager.Revoke(ctx, "access-4"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ok, err := manager.HasSession(ctx, "access-4"); err != nil || ok {
		t.Fatalf("expected no session after revoke, ok=%v err=%v", ok, err)
	}
	if err := manager.Revoke(ctx, " "); err == nil {
		t.Fatal("expected error for blank access id")
	}
}

func TestDecodeValue(t *testing.T) {
	id := uuid.New()
	gotID, token, ok := decodeValue(encodeValue(id, "tok"))
	if !ok || gotID != id || token != "tok" {
		t.Fatalf("round trip failed: %v %s %v", gotID, token, ok)
	}
	if _, _, ok := decodeValue("legacy-token"); ok {
		t.Fatal("expected value without separator to be rejected")
	}
}
