package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// OrderDeduper tracks processed webhook order IDs. This is a fast-path
// guard against gateway redelivery; the ledger's reference uniqueness is
// the authoritative double-credit barrier behind it.
type OrderDeduper interface {
	Seen(ctx context.Context, orderID string) (bool, error)
}

type redisOrderDeduper struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func (d *redisOrderDeduper) Seen(ctx context.Context, orderID string) (bool, error) {
	key := d.prefix + ":" + orderID
	ok, err := d.client.SetNX(ctx, key, "1", d.ttl).Result()
	if err != nil {
		return false, err
	}
	// false => already exists => duplicate
	return !ok, nil
}

type memoryOrderDeduper struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	ttl    time.Duration
	nextGC time.Time
}

func newMemoryOrderDeduper(ttl time.Duration) *memoryOrderDeduper {
	now := time.Now()
	return &memoryOrderDeduper{
		seen:   make(map[string]time.Time),
		ttl:    ttl,
		nextGC: now.Add(ttl),
	}
}

func (d *memoryOrderDeduper) Seen(_ context.Context, orderID string) (bool, error) {
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if exp, ok := d.seen[orderID]; ok && exp.After(now) {
		return true, nil
	}

	d.seen[orderID] = now.Add(d.ttl)
	if now.After(d.nextGC) {
		for id, exp := range d.seen {
			if exp.Before(now) {
				delete(d.seen, id)
			}
		}
		d.nextGC = now.Add(d.ttl)
	}

	return false, nil
}

// NewOrderDeduper builds a Redis deduper and falls back to in-memory on failure.
func NewOrderDeduper(addr, pass string, db int, ttl time.Duration) (OrderDeduper, error) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if addr == "" {
		return newMemoryOrderDeduper(ttl), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return newMemoryOrderDeduper(ttl), err
	}

	return &redisOrderDeduper{
		client: client,
		prefix: "pay:order",
		ttl:    ttl,
	}, nil
}

// WebhookOrderDedup drops duplicate payment webhook deliveries by order_id.
// Duplicates are acknowledged with the same body as a fresh delivery; the
// gateway only needs a 2xx to stop retrying, and the engine would discard
// the redelivery anyway.
func WebhookOrderDedup(deduper OrderDeduper) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if deduper == nil {
				return next(c)
			}

			req := c.Request()
			if req.Body == nil {
				return next(c)
			}

			rawBody, err := io.ReadAll(req.Body)
			if err != nil {
				return next(c)
			}
			req.Body = io.NopCloser(bytes.NewBuffer(rawBody))
			if len(rawBody) == 0 {
				return next(c)
			}

			var payload struct {
				OrderID string `json:"order_id"`
				Status  string `json:"status"`
			}
			if err := json.Unmarshal(rawBody, &payload); err != nil || payload.OrderID == "" {
				return next(c)
			}
			// Gateways redeliver status progressions under one order_id
			// (pending, then completed). Only the completed delivery may
			// claim the id, or the progression's final state gets swallowed.
			if payload.Status != "completed" {
				return next(c)
			}

			isDuplicate, err := deduper.Seen(req.Context(), payload.OrderID)
			if err != nil {
				return next(c)
			}
			if isDuplicate {
				return c.JSON(http.StatusOK, map[string]bool{"received": true})
			}

			return next(c)
		}
	}
}
