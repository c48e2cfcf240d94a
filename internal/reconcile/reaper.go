package reconcile

import (
	"time"

	"go.uber.org/zap"

	"saldobot/internal/metrics"
	"saldobot/internal/models"
	"saldobot/internal/notify"
)

const expiredText = "❌ *Pembayaran Expired*\n\n" +
	"Waktu pembayaran telah habis. Silakan klik Top Up lagi untuk mendapatkan QR baru."

// ReaperStore is the expiry surface of the pending deposit store.
type ReaperStore interface {
	ListExpirable(now time.Time) ([]models.DepositIntent, error)
	MarkExpired(id string) (bool, error)
}

// Reaper sweeps pending intents whose payment window lapsed. MarkExpired
// only fires on rows still pending, so when it races the credit
// transaction whichever side commits first wins and the other is a no-op.
type Reaper struct {
	deposits ReaperStore
	sink     notify.Sink
	logger   *zap.Logger
}

func NewReaper(deposits ReaperStore, sink notify.Sink, logger *zap.Logger) *Reaper {
	return &Reaper{deposits: deposits, sink: sink, logger: logger}
}

// Run performs one sweep. Per-intent failures are logged and the sweep
// continues; nothing here may take the process down.
func (r *Reaper) Run(now time.Time) {
	intents, err := r.deposits.ListExpirable(now)
	if err != nil {
		r.logger.Error("failed to list expirable intents", zap.Error(err))
		return
	}

	for _, intent := range intents {
		expired, err := r.deposits.MarkExpired(intent.ID)
		if err != nil {
			r.logger.Error("failed to expire intent",
				zap.String("intent_id", intent.ID), zap.Error(err))
			continue
		}
		if !expired {
			// A settlement credited it between the list and the update.
			continue
		}

		metrics.IntentsExpired.Inc()
		r.logger.Info("deposit intent expired",
			zap.String("intent_id", intent.ID),
			zap.Int64("user_id", intent.UserID),
			zap.Int64("settlement_amount", intent.SettlementAmount))

		if intent.ArtifactRef != "" {
			r.sink.DeleteArtifact(intent.ArtifactRef)
		}
		r.sink.NotifyUser(intent.UserID, expiredText)
	}
}
