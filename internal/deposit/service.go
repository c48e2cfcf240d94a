package deposit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"saldobot/internal/gateway"
	"saldobot/internal/models"
	"saldobot/internal/pkg/utils"
	"saldobot/internal/repository"
)

var (
	// ErrTooManyOutstanding rejects a user who already has the maximum
	// number of pending intents.
	ErrTooManyOutstanding = errors.New("too many outstanding deposit requests")

	// ErrRequestTooFrequent rejects a request inside the debounce window.
	ErrRequestTooFrequent = errors.New("deposit requested too frequently")

	// ErrInvalidAmount rejects non-positive nominal amounts.
	ErrInvalidAmount = errors.New("deposit amount must be positive")
)

// Store is the persistence surface the deposit flow needs.
type Store interface {
	Create(intent *models.DepositIntent) error
	PendingAmountExists(amount int64) (bool, error)
	CountPendingByUser(userID int64) (int64, error)
	LastCreatedAt(userID int64) (time.Time, error)
	SetArtifactRef(id, ref string) error
	Delete(id string) error
}

// Users upserts wallet rows so every intent has a wallet to credit.
type Users interface {
	Ensure(id int64, username string) error
}

// Config carries the deposit flow's tunables.
type Config struct {
	TTL         time.Duration
	Debounce    time.Duration
	MaxPending  int64
	OffsetMin   int64
	OffsetMax   int64
	MaxAttempts int
}

// Service turns a top-up request into a pending deposit intent plus a
// payment artifact from the external gateway. The settlement amount it
// hands out is what the reconciliation engine later matches on.
type Service struct {
	store   Store
	users   Users
	gateway gateway.Client
	disamb  *Disambiguator
	cfg     Config
	logger  *zap.Logger
}

func NewService(store Store, users Users, gw gateway.Client, cfg Config, logger *zap.Logger) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &Service{
		store:   store,
		users:   users,
		gateway: gw,
		disamb:  NewDisambiguator(cfg.OffsetMin, cfg.OffsetMax, cfg.MaxAttempts, store.PendingAmountExists),
		cfg:     cfg,
		logger:  logger,
	}
}

// Create allocates a disambiguated settlement amount, persists the pending
// intent, and fetches the payment artifact. The DB's uniqueness index backs
// up the disambiguator: a concurrent create that picks the same amount
// loses the insert and retries with a fresh offset.
func (s *Service) Create(ctx context.Context, userID int64, username string, amount int64) (*models.DepositIntent, *gateway.PaymentArtifact, error) {
	if amount <= 0 {
		return nil, nil, ErrInvalidAmount
	}

	if s.cfg.Debounce > 0 {
		last, err := s.store.LastCreatedAt(userID)
		if err != nil {
			return nil, nil, fmt.Errorf("debounce lookup: %w", err)
		}
		if !last.IsZero() && time.Since(last) < s.cfg.Debounce {
			return nil, nil, ErrRequestTooFrequent
		}
	}

	outstanding, err := s.store.CountPendingByUser(userID)
	if err != nil {
		return nil, nil, fmt.Errorf("outstanding lookup: %w", err)
	}
	if outstanding >= s.cfg.MaxPending {
		return nil, nil, ErrTooManyOutstanding
	}

	if err := s.users.Ensure(userID, username); err != nil {
		return nil, nil, fmt.Errorf("ensure user: %w", err)
	}

	intent, err := s.reserve(userID, amount)
	if err != nil {
		return nil, nil, err
	}

	artifact, err := s.gateway.CreatePayment(ctx, intent.SettlementAmount, intent.ID)
	if err != nil {
		// The user never saw this intent; unwind it so the amount frees up.
		if delErr := s.store.Delete(intent.ID); delErr != nil {
			s.logger.Error("failed to unwind intent after gateway error",
				zap.String("intent_id", intent.ID), zap.Error(delErr))
		}
		return nil, nil, fmt.Errorf("create payment artifact: %w", err)
	}

	s.logger.Info("deposit intent created",
		zap.String("intent_id", intent.ID),
		zap.Int64("user_id", userID),
		zap.Int64("requested", amount),
		zap.Int64("settlement", intent.SettlementAmount),
		zap.Time("expires_at", intent.ExpiresAt))

	return intent, artifact, nil
}

// reserve claims a unique settlement amount, retrying the insert when a
// concurrent create wins the same amount (optimistic, no global lock).
func (s *Service) reserve(userID, amount int64) (*models.DepositIntent, error) {
	for i := 0; i < s.cfg.MaxAttempts; i++ {
		settlement, err := s.disamb.Disambiguate(amount)
		if err != nil {
			return nil, err
		}

		now := time.Now()
		pending := settlement
		intent := &models.DepositIntent{
			ID:               utils.NewIntentID(userID),
			UserID:           userID,
			RequestedAmount:  amount,
			SettlementAmount: settlement,
			PendingAmount:    &pending,
			Status:           models.DepositPending,
			CreatedAt:        now,
			ExpiresAt:        now.Add(s.cfg.TTL),
		}

		err = s.store.Create(intent)
		if errors.Is(err, repository.ErrAmountTaken) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("persist intent: %w", err)
		}
		return intent, nil
	}
	return nil, ErrAmbiguityExhausted
}

// AttachArtifact records the UI message reference for later cleanup, once
// the conversational flow has delivered the QR to the user.
func (s *Service) AttachArtifact(intentID, ref string) error {
	return s.store.SetArtifactRef(intentID, ref)
}
