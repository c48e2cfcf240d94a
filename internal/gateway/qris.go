package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"saldobot/internal/pkg/httpclient"
)

// QRISGateway creates dynamic QRIS codes through the aggregator's
// createpayment endpoint, keyed on the settlement amount and the merchant's
// static QR string.
type QRISGateway struct {
	baseURL  string
	apiKey   string
	qrString string
	client   *httpclient.Client
}

func NewQRISGateway(baseURL, apiKey, qrString string) *QRISGateway {
	return &QRISGateway{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		qrString: qrString,
		client:   httpclient.New().WithTimeout(30 * time.Second),
	}
}

func (g *QRISGateway) Name() string {
	return "qris"
}

func (g *QRISGateway) CreatePayment(ctx context.Context, amount int64, orderID string) (*PaymentArtifact, error) {
	endpoint := fmt.Sprintf("%s/orderkuota/createpayment?apikey=%s&amount=%d&codeqr=%s",
		g.baseURL, url.QueryEscape(g.apiKey), amount, url.QueryEscape(g.qrString))

	resp, err := g.client.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("qris create payment failed: %w", err)
	}

	var result struct {
		Status string `json:"status"`
		Result struct {
			ImageQRIS struct {
				URL string `json:"url"`
			} `json:"imageqris"`
		} `json:"result"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("qris parse error: %w", err)
	}

	if result.Status != "success" {
		return nil, fmt.Errorf("qris create payment rejected: status %q", result.Status)
	}

	imageURL := result.Result.ImageQRIS.URL
	if imageURL == "" || strings.Contains(imageURL, "undefined") {
		return nil, fmt.Errorf("qris returned invalid image url: %q", imageURL)
	}

	return &PaymentArtifact{
		OrderID:    orderID,
		QRImageURL: imageURL,
	}, nil
}
