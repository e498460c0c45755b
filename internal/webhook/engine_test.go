package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/zakaryaxali/stablecoin-pay/internal/domain"
)

// fakeStore is an in-memory eventStore for exercising the delivery and
// retry state machine without a live Postgres instance.
type fakeStore struct {
	mu      sync.Mutex
	events  map[uuid.UUID]*domain.WebhookEvent
	wallets map[string]*domain.Wallet
	seen    map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:  make(map[uuid.UUID]*domain.WebhookEvent),
		wallets: make(map[string]*domain.Wallet),
		seen:    make(map[string]bool),
	}
}

func (f *fakeStore) CreateWebhookEvent(ctx context.Context, walletAddress string, txSignature *string, eventType string, payload []byte) (*domain.WebhookEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev := &domain.WebhookEvent{
		ID:                   uuid.New(),
		WalletAddress:        walletAddress,
		TransactionSignature: txSignature,
		EventType:            eventType,
		Payload:              payload,
		Status:               domain.WebhookPending,
	}
	f.events[ev.ID] = ev
	if txSignature != nil {
		f.seen[*txSignature] = true
	}
	return ev, nil
}

func (f *fakeStore) EventExistsForSignature(ctx context.Context, signature string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[signature], nil
}

func (f *fakeStore) FindPendingEvents(ctx context.Context, limit int) ([]*domain.WebhookEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.WebhookEvent
	for _, ev := range f.events {
		if ev.Status == domain.WebhookPending {
			// Return a copy, as rows scanned from Postgres would be, so the
			// engine's own bookkeeping does not alias the stored event.
			cp := *ev
			out = append(out, &cp)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) FindWallet(ctx context.Context, address string) (*domain.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wallets[address], nil
}

func (f *fakeStore) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev := f.events[id]
	ev.Status = domain.WebhookDelivered
	ev.Attempts++
	return nil
}

func (f *fakeStore) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev := f.events[id]
	ev.Status = domain.WebhookFailed
	ev.Attempts++
	ev.LastError = &lastError
	return nil
}

func (f *fakeStore) IncrementAttempt(ctx context.Context, id uuid.UUID, lastError string) (*domain.WebhookEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev := f.events[id]
	ev.Attempts++
	ev.LastError = &lastError
	return ev, nil
}

func (f *fakeStore) CountByStatus(ctx context.Context, status domain.WebhookStatus) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, ev := range f.events {
		if ev.Status == status {
			count++
		}
	}
	return count, nil
}

func newTestEngine(st *fakeStore) *Engine {
	return &Engine{
		store:  st,
		http:   resty.New(),
		secret: "test-secret",
	}
}

func TestSendTestWebhookMarksDeliveredOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	url := srv.URL
	wallet := &domain.Wallet{Address: "wallet1", WebhookURL: &url}
	st := newFakeStore()
	e := newTestEngine(st)

	if err := e.SendTestWebhook(context.Background(), wallet); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(st.events) != 1 {
		t.Fatalf("expected exactly one event recorded, got %d", len(st.events))
	}
	for _, ev := range st.events {
		if ev.Status != domain.WebhookDelivered {
			t.Fatalf("expected delivered status, got %s", ev.Status)
		}
	}
}

func TestSendTestWebhookMarksFailedAndReturnsErrorOnSingleFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	url := srv.URL
	wallet := &domain.Wallet{Address: "wallet1", WebhookURL: &url}
	st := newFakeStore()
	e := newTestEngine(st)

	err := e.SendTestWebhook(context.Background(), wallet)
	if err == nil {
		t.Fatal("expected an error when the single test-webhook attempt fails")
	}

	if len(st.events) != 1 {
		t.Fatalf("expected exactly one event recorded, got %d", len(st.events))
	}
	for _, ev := range st.events {
		if ev.Status != domain.WebhookFailed {
			t.Fatalf("expected failed status on a fresh event after one failed attempt, got %s (attempts=%d)", ev.Status, ev.Attempts)
		}
	}
}

func TestRetryPendingMarksFailedWhenAttemptsExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not attempt delivery once MaxAttempts is already reached")
	}))
	defer srv.Close()

	url := srv.URL
	st := newFakeStore()
	st.wallets["wallet1"] = &domain.Wallet{Address: "wallet1", WebhookURL: &url}
	ev := &domain.WebhookEvent{ID: uuid.New(), WalletAddress: "wallet1", Status: domain.WebhookPending, Attempts: MaxAttempts}
	st.events[ev.ID] = ev

	e := newTestEngine(st)
	if err := e.RetryPending(context.Background(), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ev.Status != domain.WebhookFailed {
		t.Fatalf("expected event exhausted at MaxAttempts to be marked failed, got %s", ev.Status)
	}
}

func TestRetryPendingMarksFailedWhenWalletHasNoWebhook(t *testing.T) {
	st := newFakeStore()
	st.wallets["wallet1"] = &domain.Wallet{Address: "wallet1", WebhookURL: nil}
	ev := &domain.WebhookEvent{ID: uuid.New(), WalletAddress: "wallet1", Status: domain.WebhookPending, Attempts: 0}
	st.events[ev.ID] = ev

	e := newTestEngine(st)
	if err := e.RetryPending(context.Background(), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ev.Status != domain.WebhookFailed {
		t.Fatalf("expected event to be marked failed when wallet no longer has a webhook url, got %s", ev.Status)
	}
}

func TestRetryPendingIncrementsAttemptOnFailureBelowMax(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	url := srv.URL
	st := newFakeStore()
	st.wallets["wallet1"] = &domain.Wallet{Address: "wallet1", WebhookURL: &url}
	ev := &domain.WebhookEvent{ID: uuid.New(), WalletAddress: "wallet1", Status: domain.WebhookPending, Attempts: 0}
	st.events[ev.ID] = ev

	e := newTestEngine(st)
	if err := e.RetryPending(context.Background(), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ev.Status != domain.WebhookPending {
		t.Fatalf("expected event to stay pending below MaxAttempts, got %s", ev.Status)
	}
	if ev.Attempts != 1 {
		t.Fatalf("expected attempts incremented to 1, got %d", ev.Attempts)
	}
}

func TestRetryPendingMarksDeliveredOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	url := srv.URL
	st := newFakeStore()
	st.wallets["wallet1"] = &domain.Wallet{Address: "wallet1", WebhookURL: &url}
	ev := &domain.WebhookEvent{ID: uuid.New(), WalletAddress: "wallet1", Status: domain.WebhookPending, Attempts: 1}
	st.events[ev.ID] = ev

	e := newTestEngine(st)
	if err := e.RetryPending(context.Background(), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ev.Status != domain.WebhookDelivered {
		t.Fatalf("expected event to be marked delivered, got %s", ev.Status)
	}
}

func TestNotifyPaymentReceivedSkipsWalletWithoutWebhook(t *testing.T) {
	st := newFakeStore()
	e := newTestEngine(st)
	wallet := &domain.Wallet{Address: "wallet1"}
	tx := &domain.Transaction{Signature: "sig1", WalletAddress: "wallet1"}

	if err := e.NotifyPaymentReceived(context.Background(), tx, wallet); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(st.events) != 0 {
		t.Fatalf("expected no event created for a wallet with no webhook url, got %d", len(st.events))
	}
}

func TestNotifyPaymentReceivedIsIdempotentOnSignature(t *testing.T) {
	url := "https://example.com/hook"
	wallet := &domain.Wallet{Address: "wallet1", WebhookURL: &url}
	tx := &domain.Transaction{Signature: "sig1", WalletAddress: "wallet1"}

	st := newFakeStore()
	st.seen["sig1"] = true
	e := newTestEngine(st)

	if err := e.NotifyPaymentReceived(context.Background(), tx, wallet); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(st.events) != 0 {
		t.Fatalf("expected no new event for a signature that already has one, got %d", len(st.events))
	}
}
