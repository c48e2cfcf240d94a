package reconcile

import "time"

// Channel identifies which evidence stream delivered a settlement record.
type Channel string

const (
	ChannelPoll    Channel = "poll"
	ChannelWebhook Channel = "webhook"
)

// SettlementRecord is one piece of evidence that funds moved. Both ingestion
// channels are normalized into this shape before matching; a record is
// consumed at most once per delivery and never stored.
type SettlementRecord struct {
	Amount     int64
	ObservedAt time.Time
	Channel    Channel

	// ExternalReference is the upstream gateway's order ID. Only webhook
	// deliveries carry one; the feed correlates by amount alone.
	ExternalReference string

	// Brand is the issuing brand from the feed, kept for logging.
	Brand string
}
