package deposit

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"saldobot/internal/gateway"
	"saldobot/internal/models"
	"saldobot/internal/repository"
)

type fakeStore struct {
	intents     map[string]*models.DepositIntent
	lastCreated map[int64]time.Time
	takenOnce   map[int64]bool // amounts whose first insert must fail
	createErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		intents:     make(map[string]*models.DepositIntent),
		lastCreated: make(map[int64]time.Time),
		takenOnce:   make(map[int64]bool),
	}
}

func (f *fakeStore) Create(intent *models.DepositIntent) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.takenOnce[intent.SettlementAmount] {
		delete(f.takenOnce, intent.SettlementAmount)
		return repository.ErrAmountTaken
	}
	for _, existing := range f.intents {
		if existing.Status == models.DepositPending && existing.SettlementAmount == intent.SettlementAmount {
			return repository.ErrAmountTaken
		}
	}
	f.intents[intent.ID] = intent
	f.lastCreated[intent.UserID] = intent.CreatedAt
	return nil
}

func (f *fakeStore) PendingAmountExists(amount int64) (bool, error) {
	for _, intent := range f.intents {
		if intent.Status == models.DepositPending && intent.SettlementAmount == amount {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CountPendingByUser(userID int64) (int64, error) {
	var n int64
	for _, intent := range f.intents {
		if intent.UserID == userID && intent.Status == models.DepositPending {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) LastCreatedAt(userID int64) (time.Time, error) {
	return f.lastCreated[userID], nil
}

func (f *fakeStore) SetArtifactRef(id, ref string) error {
	if intent, ok := f.intents[id]; ok {
		intent.ArtifactRef = ref
	}
	return nil
}

func (f *fakeStore) Delete(id string) error {
	delete(f.intents, id)
	return nil
}

type fakeUsers struct {
	ensured map[int64]string
}

func (f *fakeUsers) Ensure(id int64, username string) error {
	if f.ensured == nil {
		f.ensured = make(map[int64]string)
	}
	f.ensured[id] = username
	return nil
}

type fakeGateway struct {
	err   error
	calls int
}

func (f *fakeGateway) Name() string { return "fake" }

func (f *fakeGateway) CreatePayment(_ context.Context, amount int64, orderID string) (*gateway.PaymentArtifact, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.PaymentArtifact{OrderID: orderID, QRImageURL: "https://qr.example/img.png"}, nil
}

func newTestService(store *fakeStore, gw *fakeGateway, cfg Config) *Service {
	return NewService(store, &fakeUsers{}, gw, cfg, zap.NewNop())
}

func TestCreateAllocatesDisambiguatedIntent(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{}
	svc := newTestService(store, gw, Config{TTL: 5 * time.Minute, OffsetMin: 1, OffsetMax: 300})

	intent, artifact, err := svc.Create(context.Background(), 42, "budi", 10000)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if intent.SettlementAmount < 10001 || intent.SettlementAmount > 10300 {
		t.Fatalf("settlement %d outside offset window", intent.SettlementAmount)
	}
	if intent.Status != models.DepositPending {
		t.Fatalf("status = %q, want pending", intent.Status)
	}
	if intent.PendingAmount == nil || *intent.PendingAmount != intent.SettlementAmount {
		t.Fatal("pending amount must mirror the settlement amount while pending")
	}
	wantExpiry := intent.CreatedAt.Add(5 * time.Minute)
	if !intent.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expires_at = %v, want %v", intent.ExpiresAt, wantExpiry)
	}
	if artifact == nil || artifact.QRImageURL == "" {
		t.Fatalf("artifact = %+v, want a QR image", artifact)
	}
	if gw.calls != 1 {
		t.Fatalf("gateway calls = %d, want 1", gw.calls)
	}
}

func TestCreateRejectsInvalidAmount(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeGateway{}, Config{})
	for _, amount := range []int64{0, -500} {
		if _, _, err := svc.Create(context.Background(), 42, "budi", amount); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %d: err = %v, want ErrInvalidAmount", amount, err)
		}
	}
}

func TestCreateDebouncesRapidRequests(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeGateway{}, Config{Debounce: time.Minute, MaxPending: 5})

	if _, _, err := svc.Create(context.Background(), 42, "budi", 10000); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if _, _, err := svc.Create(context.Background(), 42, "budi", 20000); !errors.Is(err, ErrRequestTooFrequent) {
		t.Fatalf("second request: err = %v, want ErrRequestTooFrequent", err)
	}

	// Another user is unaffected by the first user's debounce window.
	if _, _, err := svc.Create(context.Background(), 43, "siti", 10000); err != nil {
		t.Fatalf("other user: %v", err)
	}
}

func TestCreateCapsOutstandingIntents(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeGateway{}, Config{MaxPending: 1})

	if _, _, err := svc.Create(context.Background(), 42, "budi", 10000); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if _, _, err := svc.Create(context.Background(), 42, "budi", 20000); !errors.Is(err, ErrTooManyOutstanding) {
		t.Fatalf("second request: err = %v, want ErrTooManyOutstanding", err)
	}
}

func TestCreateRetriesWhenInsertLosesAmountRace(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeGateway{}, Config{OffsetMin: 1, OffsetMax: 1, MaxAttempts: 3})

	// First insert of 10001 fails as if a concurrent create won it, then
	// completes, freeing the amount for the retry.
	store.takenOnce[10001] = true

	intent, _, err := svc.Create(context.Background(), 42, "budi", 10000)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if intent.SettlementAmount != 10001 {
		t.Fatalf("settlement = %d, want 10001 on retry", intent.SettlementAmount)
	}
}

func TestCreateUnwindsIntentOnGatewayFailure(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{err: errors.New("gateway unavailable")}
	svc := newTestService(store, gw, Config{})

	if _, _, err := svc.Create(context.Background(), 42, "budi", 10000); err == nil {
		t.Fatal("expected error when the gateway fails")
	}
	if len(store.intents) != 0 {
		t.Fatalf("%d intents left behind, want 0: amount must free up", len(store.intents))
	}
}

func TestCreateExhaustsWhenWindowSaturated(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeGateway{}, Config{OffsetMin: 1, OffsetMax: 1, MaxPending: 10, MaxAttempts: 3})

	if _, _, err := svc.Create(context.Background(), 42, "budi", 10000); err != nil {
		t.Fatalf("first request: %v", err)
	}
	// Same nominal from another user; the only offset is already held.
	if _, _, err := svc.Create(context.Background(), 43, "siti", 10000); !errors.Is(err, ErrAmbiguityExhausted) {
		t.Fatalf("err = %v, want ErrAmbiguityExhausted", err)
	}
}

func TestAttachArtifact(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeGateway{}, Config{})

	intent, _, err := svc.Create(context.Background(), 42, "budi", 10000)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.AttachArtifact(intent.ID, "9:123"); err != nil {
		t.Fatalf("AttachArtifact: %v", err)
	}
	if store.intents[intent.ID].ArtifactRef != "9:123" {
		t.Fatalf("artifact ref = %q, want 9:123", store.intents[intent.ID].ArtifactRef)
	}
}
