package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	// order:{order_id} -> JSON order snapshot
	KeyOrder = "order:%s"

	DefaultOrderTTL = 5 * time.Minute
)

type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient connects and pings; the caller owns Close.
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("rediscache: ping %s: %w", opts.Addr, err)
	}
	return rdb, nil
}

// OrderCache stores order snapshots for GetOrder.
type OrderCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewOrderCache(rdb redis.Cmdable, ttl time.Duration) *OrderCache {
	if ttl <= 0 {
		ttl = DefaultOrderTTL
	}
	return &OrderCache{rdb: rdb, ttl: ttl}
}

type lineRecord struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type orderRecord struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customer_id"`
	Lines      []lineRecord    `json:"lines"`
	Status     domorder.Status `json:"status"`
	Total      decimal.Decimal `json:"total"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func encodeOrder(o *domorder.Order) ([]byte, error) {
	rec := orderRecord{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		Lines:      make([]lineRecord, 0, len(o.Lines)),
		Status:     o.Status,
		Total:      o.Total,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
	for _, l := range o.Lines {
		rec.Lines = append(rec.Lines, lineRecord{ID: l.ID, ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return json.Marshal(rec)
}

func decodeOrder(b []byte) (*domorder.Order, error) {
	var rec orderRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, err
	}
	o := &domorder.Order{
		ID:         rec.ID,
		CustomerID: rec.CustomerID,
		Lines:      make([]domorder.Line, 0, len(rec.Lines)),
		Status:     rec.Status,
		Total:      rec.Total,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}
	for _, l := range rec.Lines {
		o.Lines = append(o.Lines, domorder.Line{ID: l.ID, ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return o, nil
}

func (c *OrderCache) Get(ctx context.Context, id string) (*domorder.Order, bool, error) {
	b, err := c.rdb.Get(ctx, fmt.Sprintf(KeyOrder, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("rediscache: get order: %w", err)
	}
	o, err := decodeOrder(b)
	if err != nil {
		return nil, false, fmt.Errorf("rediscache: decode order: %w", err)
	}
	return o, true, nil
}

func (c *OrderCache) Set(ctx context.Context, o *domorder.Order) error {
	b, err := encodeOrder(o)
	if err != nil {
		return fmt.Errorf("rediscache: encode order: %w", err)
	}
	if err := c.rdb.Set(ctx, fmt.Sprintf(KeyOrder, o.ID), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("rediscache: set order: %w", err)
	}
	return nil
}

func (c *OrderCache) Invalidate(ctx context.Context, id string) error {
	if err := c.rdb.Del(ctx, fmt.Sprintf(KeyOrder, id)).Err(); err != nil {
		return fmt.Errorf("rediscache: delete order: %w", err)
	}
	return nil
}
