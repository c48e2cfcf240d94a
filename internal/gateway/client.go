package gateway

import "context"

// PaymentArtifact is the opaque payment handle returned to the UI flow.
// For QRIS it is a hosted QR image the user scans to pay the exact
// settlement amount.
type PaymentArtifact struct {
	OrderID    string `json:"order_id"`
	QRImageURL string `json:"qr_image_url,omitempty"`
	PaymentURL string `json:"payment_url,omitempty"`
}

// Client defines the interface for payment artifact providers.
type Client interface {
	// Name returns the gateway identifier.
	Name() string

	// CreatePayment requests a payment artifact for the exact settlement
	// amount. The amount is what correlates the eventual settlement back
	// to the deposit intent, so it must be passed through unchanged.
	CreatePayment(ctx context.Context, amount int64, orderID string) (*PaymentArtifact, error)
}
