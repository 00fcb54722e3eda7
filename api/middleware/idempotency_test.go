package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/pharmacy-backend/internal/access"
	pkgerrors "github.com/angelmondragon/pharmacy-backend/pkg/errors"
	"github.com/angelmondragon/pharmacy-backend/pkg/enums"
)

type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.data[key], _ = value.(string)
	return nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key], _ = value.(string)
	return true, nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

// ctxStore fails writes on a cancelled context the way a real redis client does.
type ctxStore struct {
	*fakeStore
}

func (c ctxStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.fakeStore.Set(ctx, key, value, ttl)
}

func (c ctxStore) Del(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.fakeStore.Del(ctx, keys...)
}

func orderRequest(userID uuid.UUID, key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	return req.WithContext(WithIdentity(req.Context(), access.Identity{UserID: userID, Role: enums.RoleCustomer}))
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"order_number":"ORD-20250301120000-AB12"}}`))
	}))
	user := uuid.New()

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, orderRequest(user, "abc", `{"payment_method":"cash_on_delivery"}`))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, orderRequest(user, "abc", `{"payment_method":"cash_on_delivery"}`))

	if calls != 1 {
		t.Fatalf("expected handler once, got %d", calls)
	}
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201, got %d", second.Code)
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("replayed body mismatch: %s vs %s", second.Body.String(), first.Body.String())
	}
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("expected replay header")
	}
}

func TestIdempotencyRejectsDifferentBody(t *testing.T) {
	store := newFakeStore()
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	user := uuid.New()

	handler.ServeHTTP(httptest.NewRecorder(), orderRequest(user, "abc", `{"a":1}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, orderRequest(user, "abc", `{"a":2}`))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	assertErrorCode(t, rec, pkgerrors.CodeIdempotency)
}

func TestIdempotencyScopesKeysPerUser(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), orderRequest(uuid.New(), "same", `{}`))
	handler.ServeHTTP(httptest.NewRecorder(), orderRequest(uuid.New(), "same", `{}`))
	if calls != 2 {
		t.Fatalf("expected independent keys per user, got %d calls", calls)
	}
}

func TestIdempotencyInFlightConflict(t *testing.T) {
	store := newFakeStore()
	user := uuid.New()
	var inner *httptest.ResponseRecorder
	var handler http.Handler
	handler = Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if inner == nil {
			inner = httptest.NewRecorder()
			handler.ServeHTTP(inner, orderRequest(user, "abc", `{}`))
		}
		w.WriteHeader(http.StatusCreated)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), orderRequest(user, "abc", `{}`))
	if inner.Code != http.StatusConflict {
		t.Fatalf("expected 409 for concurrent duplicate, got %d", inner.Code)
	}
}

func TestIdempotencyDoesNotStoreServerErrors(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	user := uuid.New()

	handler.ServeHTTP(httptest.NewRecorder(), orderRequest(user, "abc", `{}`))
	handler.ServeHTTP(httptest.NewRecorder(), orderRequest(user, "abc", `{}`))
	if calls != 2 {
		t.Fatalf("expected retry after 5xx, got %d calls", calls)
	}
	if len(store.data) != 0 {
		t.Fatalf("expected key released, have %v", store.data)
	}
}

func TestIdempotencyReleasesKeyAfterPanic(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Recoverer(nil)(Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			panic("checkout exploded")
		}
		w.WriteHeader(http.StatusCreated)
	})))
	user := uuid.New()

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, orderRequest(user, "abc", `{}`))
	if first.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 from recovered panic, got %d", first.Code)
	}

	retry := httptest.NewRecorder()
	handler.ServeHTTP(retry, orderRequest(user, "abc", `{}`))
	if retry.Code != http.StatusCreated {
		t.Fatalf("expected retry to run the handler, got %d: %s", retry.Code, retry.Body.String())
	}
	if calls != 2 {
		t.Fatalf("expected 2 handler calls, got %d", calls)
	}
}

func TestIdempotencyStoresOutcomeAfterClientDisconnect(t *testing.T) {
	store := ctxStore{newFakeStore()}
	calls := 0
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"order_number":"ORD-20250301120000-ZX90"}}`))
	}))
	user := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	req := orderRequest(user, "abc", `{}`)
	req = req.WithContext(WithIdentity(ctx, access.Identity{UserID: user, Role: enums.RoleCustomer}))
	cancel()
	handler.ServeHTTP(httptest.NewRecorder(), req)

	retry := httptest.NewRecorder()
	handler.ServeHTTP(retry, orderRequest(user, "abc", `{}`))
	if retry.Code != http.StatusCreated {
		t.Fatalf("expected stored 201 replay, got %d: %s", retry.Code, retry.Body.String())
	}
	if retry.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("expected replay header")
	}
	if calls != 1 {
		t.Fatalf("expected handler once, got %d", calls)
	}
}

func TestIdempotencyReleasesKeyOnServerErrorAfterDisconnect(t *testing.T) {
	store := ctxStore{newFakeStore()}
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	user := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	req := orderRequest(user, "abc", `{}`)
	req = req.WithContext(WithIdentity(ctx, access.Identity{UserID: user, Role: enums.RoleCustomer}))
	cancel()
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if len(store.data) != 0 {
		t.Fatalf("expected key released, have %v", store.data)
	}
}

func TestIdempotencyWithoutHeaderPassesThrough(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))
	user := uuid.New()

	handler.ServeHTTP(httptest.NewRecorder(), orderRequest(user, "", `{}`))
	handler.ServeHTTP(httptest.NewRecorder(), orderRequest(user, "", `{}`))
	if calls != 2 || len(store.data) != 0 {
		t.Fatalf("expected pass-through, calls=%d stored=%d", calls, len(store.data))
	}
}

func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, code pkgerrors.Code) {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if payload.Error.Code != string(code) {
		t.Fatalf("unexpected code: %s", payload.Error.Code)
	}
}
