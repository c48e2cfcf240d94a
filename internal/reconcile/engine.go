package reconcile

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"saldobot/internal/metrics"
	"saldobot/internal/models"
	"saldobot/internal/notify"
	"saldobot/internal/pkg/utils"
	"saldobot/internal/repository"
)

// Outcome classifies what TryMatch did with a settlement record.
type Outcome string

const (
	OutcomeCredited  Outcome = "credited"
	OutcomeOrphan    Outcome = "orphan"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeFailed    Outcome = "failed"
)

// DepositStore is the pending-intent lookup the engine needs.
type DepositStore interface {
	FindPendingBySettlementAmount(amount int64) (*models.DepositIntent, error)
}

// Ledger is the transactional crediting surface the engine drives.
type Ledger interface {
	ReferenceExists(referenceID string) (bool, error)
	Credit(intentID, referenceID string) (*repository.CreditResult, error)
}

// Engine matches settlement evidence to pending deposit intents and credits
// wallets exactly once per real-world payment. Both evidence channels feed
// the same entrypoint, so crediting logic exists in exactly one place.
type Engine struct {
	deposits DepositStore
	ledger   Ledger
	sink     notify.Sink
	logger   *zap.Logger
}

func NewEngine(deposits DepositStore, ledger Ledger, sink notify.Sink, logger *zap.Logger) *Engine {
	return &Engine{
		deposits: deposits,
		ledger:   ledger,
		sink:     sink,
		logger:   logger,
	}
}

// TryMatch consumes one settlement record. Orphans and duplicates are
// no-ops, not errors; only infrastructure failures return a non-nil error,
// and those leave the settlement retryable by a later poll tick.
func (e *Engine) TryMatch(rec SettlementRecord) (Outcome, error) {
	metrics.SettlementsObserved.WithLabelValues(string(rec.Channel)).Inc()

	// Redelivered webhooks are recognized by their order ID before any
	// matching happens.
	if rec.ExternalReference != "" {
		seen, err := e.ledger.ReferenceExists(rec.ExternalReference)
		if err != nil {
			return OutcomeFailed, fmt.Errorf("reference lookup: %w", err)
		}
		if seen {
			e.logger.Info("duplicate settlement discarded",
				zap.String("reference", rec.ExternalReference),
				zap.String("channel", string(rec.Channel)))
			metrics.Duplicates.WithLabelValues(string(rec.Channel)).Inc()
			return OutcomeDuplicate, nil
		}
	}

	intent, err := e.deposits.FindPendingBySettlementAmount(rec.Amount)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("pending lookup: %w", err)
	}
	if intent == nil {
		e.logger.Info("orphan settlement",
			zap.Int64("amount", rec.Amount),
			zap.String("channel", string(rec.Channel)),
			zap.String("brand", rec.Brand))
		metrics.Orphans.WithLabelValues(string(rec.Channel)).Inc()
		return OutcomeOrphan, nil
	}

	// The feed carries no reference of its own, so the intent ID stands in.
	// One intent yields at most one ledger entry either way.
	referenceID := rec.ExternalReference
	if referenceID == "" {
		referenceID = intent.ID
	}

	result, err := e.credit(intent.ID, referenceID)
	switch {
	case errors.Is(err, repository.ErrIntentNotPending):
		// Lost the race against the other channel or the reaper. Whoever
		// won owns the intent now; this delivery is a no-op.
		e.logger.Info("intent reached terminal state before credit",
			zap.String("intent_id", intent.ID),
			zap.String("channel", string(rec.Channel)))
		metrics.Orphans.WithLabelValues(string(rec.Channel)).Inc()
		return OutcomeOrphan, nil
	case errors.Is(err, repository.ErrDuplicateReference):
		e.logger.Info("duplicate settlement discarded at commit",
			zap.String("reference", referenceID),
			zap.String("channel", string(rec.Channel)))
		metrics.Duplicates.WithLabelValues(string(rec.Channel)).Inc()
		return OutcomeDuplicate, nil
	case err != nil:
		e.logger.Error("credit transaction failed, flagged for manual reconciliation",
			zap.String("intent_id", intent.ID),
			zap.String("reference", referenceID),
			zap.Error(err))
		metrics.ManualReviewFlags.Inc()
		return OutcomeFailed, err
	}

	metrics.CreditsApplied.WithLabelValues(string(rec.Channel)).Inc()
	e.logger.Info("deposit credited",
		zap.String("intent_id", intent.ID),
		zap.Int64("user_id", result.Intent.UserID),
		zap.Int64("amount", result.Intent.RequestedAmount),
		zap.Int64("balance", result.NewBalance),
		zap.String("channel", string(rec.Channel)))

	e.notifySuccess(result)
	return OutcomeCredited, nil
}

// credit runs the transactional credit, retrying once on infrastructure
// failure before giving up.
func (e *Engine) credit(intentID, referenceID string) (*repository.CreditResult, error) {
	result, err := e.ledger.Credit(intentID, referenceID)
	if err == nil ||
		errors.Is(err, repository.ErrIntentNotPending) ||
		errors.Is(err, repository.ErrDuplicateReference) {
		return result, err
	}
	e.logger.Warn("credit transaction conflict, retrying once",
		zap.String("intent_id", intentID), zap.Error(err))
	return e.ledger.Credit(intentID, referenceID)
}

func (e *Engine) notifySuccess(result *repository.CreditResult) {
	intent := result.Intent

	if intent.ArtifactRef != "" {
		e.sink.DeleteArtifact(intent.ArtifactRef)
	}

	userText := fmt.Sprintf(
		"✅ *Pembayaran Berhasil!*\n\n"+
			"💰 Jumlah Deposit: Rp %s\n"+
			"💰 Biaya Admin: Rp %s\n"+
			"💰 Total Pembayaran: Rp %s\n"+
			"💳 Saldo Sekarang: Rp %s",
		utils.FormatRupiah(intent.RequestedAmount),
		utils.FormatRupiah(intent.Fee()),
		utils.FormatRupiah(intent.SettlementAmount),
		utils.FormatRupiah(result.NewBalance),
	)
	e.sink.NotifyUser(intent.UserID, userText)

	adminText := fmt.Sprintf(
		"<blockquote>\n✅ <b>Top Up Berhasil</b>\n"+
			"👤 User: %d\n"+
			"💰 Nominal: <b>Rp %s</b>\n"+
			"🏦 Saldo Sekarang: <b>Rp %s</b>\n"+
			"🕒 Waktu: %s\n</blockquote>",
		intent.UserID,
		utils.FormatRupiah(intent.RequestedAmount),
		utils.FormatRupiah(result.NewBalance),
		time.Now().Format("02/01/2006 15:04:05"),
	)
	e.sink.NotifyAdmin(adminText)
}
