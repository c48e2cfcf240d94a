package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"saldobot/internal/reconcile"
)

// fakeMatcher signals every record over a channel so tests can wait for the
// handler's async matching without sleeping.
type fakeMatcher struct {
	recs chan reconcile.SettlementRecord
}

func newFakeMatcher() *fakeMatcher {
	return &fakeMatcher{recs: make(chan reconcile.SettlementRecord, 8)}
}

func (m *fakeMatcher) TryMatch(rec reconcile.SettlementRecord) (reconcile.Outcome, error) {
	m.recs <- rec
	return reconcile.OutcomeCredited, nil
}

func (m *fakeMatcher) waitRecord(t *testing.T) reconcile.SettlementRecord {
	t.Helper()
	select {
	case rec := <-m.recs:
		return rec
	case <-time.After(2 * time.Second):
		t.Fatal("matcher never received a record")
		return reconcile.SettlementRecord{}
	}
}

func (m *fakeMatcher) assertNoRecord(t *testing.T) {
	t.Helper()
	select {
	case rec := <-m.recs:
		t.Fatalf("unexpected record reached the matcher: %+v", rec)
	case <-time.After(50 * time.Millisecond):
	}
}

func postWebhook(h *WebhookHandler, body string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/payment/webhook", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	_ = h.Receive(e.NewContext(req, rec))
	return rec
}

func TestReceiveAcceptsValidWebhook(t *testing.T) {
	matcher := newFakeMatcher()
	h := NewWebhookHandler(matcher, zap.NewNop())

	rec := postWebhook(h, `{"order_id":"PKS-7-1700000000000","amount":10042,"status":"completed","project":"toko"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"received":true`) {
		t.Fatalf("body = %s, want received ack", rec.Body.String())
	}

	got := matcher.waitRecord(t)
	if got.Amount != 10042 {
		t.Fatalf("amount = %d, want 10042", got.Amount)
	}
	if got.Channel != reconcile.ChannelWebhook {
		t.Fatalf("channel = %q, want webhook", got.Channel)
	}
	if got.ExternalReference != "PKS-7-1700000000000" {
		t.Fatalf("reference = %q, want the order id", got.ExternalReference)
	}
}

func TestReceiveRejectsMalformedPayloads(t *testing.T) {
	matcher := newFakeMatcher()
	h := NewWebhookHandler(matcher, zap.NewNop())

	cases := map[string]string{
		"notJSON":          `{"order_id":`,
		"missingOrderID":   `{"amount":10042,"status":"completed"}`,
		"zeroAmount":       `{"order_id":"X","amount":0,"status":"completed"}`,
		"negativeAmount":   `{"order_id":"X","amount":-500,"status":"completed"}`,
		"fractionalAmount": `{"order_id":"X","amount":100.5,"status":"completed"}`,
	}
	for name, body := range cases {
		rec := postWebhook(h, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, rec.Code)
		}
	}
	matcher.assertNoRecord(t)
}

func TestReceiveIgnoresNonCompletedStatus(t *testing.T) {
	matcher := newFakeMatcher()
	h := NewWebhookHandler(matcher, zap.NewNop())

	rec := postWebhook(h, `{"order_id":"X","amount":10042,"status":"pending"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: non-success deliveries are acked, not matched", rec.Code)
	}
	matcher.assertNoRecord(t)
}
