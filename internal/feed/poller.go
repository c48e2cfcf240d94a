package feed

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"saldobot/internal/metrics"
	"saldobot/internal/pkg/httpclient"
	"saldobot/internal/reconcile"
)

// Matcher consumes settlement records. Implemented by reconcile.Engine.
type Matcher interface {
	TryMatch(rec reconcile.SettlementRecord) (reconcile.Outcome, error)
}

// PayloadFunc builds the aggregator auth payload. It is called fresh on
// every tick because the upstream signature embeds a timestamp; how the
// payload is built belongs to the gateway account owner, not to this poller.
type PayloadFunc func() map[string]string

// Poller fetches the settlement feed on a fixed schedule and feeds every
// parsed amount to the reconciliation engine. Ticks are single-flight: if a
// fetch outlives the interval the next tick is skipped, not stacked.
type Poller struct {
	url     string
	payload PayloadFunc
	client  *httpclient.Client
	matcher Matcher
	logger  *zap.Logger
	running atomic.Bool
}

func NewPoller(url string, timeout time.Duration, payload PayloadFunc, matcher Matcher, logger *zap.Logger) *Poller {
	return &Poller{
		url:     url,
		payload: payload,
		client:  httpclient.New().WithTimeout(timeout),
		matcher: matcher,
		logger:  logger,
	}
}

// Tick runs one poll cycle. Fetch or parse trouble skips the tick and is
// never fatal; the next tick retries from scratch.
func (p *Poller) Tick() {
	if !p.running.CompareAndSwap(false, true) {
		p.logger.Debug("feed tick still running, skipping")
		return
	}
	defer p.running.Store(false)

	body, err := p.client.Post(p.url, p.payload())
	if err != nil {
		p.logger.Warn("settlement feed fetch failed", zap.Error(err))
		metrics.FeedTickErrors.Inc()
		return
	}

	txs := Parse(string(body))
	p.logger.Debug("settlement feed parsed", zap.Int("transactions", len(txs)))

	observed := time.Now()
	for _, tx := range txs {
		rec := reconcile.SettlementRecord{
			Amount:     tx.Amount,
			ObservedAt: observed,
			Channel:    reconcile.ChannelPoll,
			Brand:      tx.Brand,
		}
		if _, err := p.matcher.TryMatch(rec); err != nil {
			p.logger.Warn("settlement match failed, will retry next tick",
				zap.Int64("amount", tx.Amount), zap.Error(err))
		}
	}
}
