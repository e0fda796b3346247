package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/interview-reminder/internal/core"
	"github.com/target/interview-reminder/internal/domain/model"
)

// DefaultLedgerKeyPrefix namespaces delivery keys.
const DefaultLedgerKeyPrefix = "interview-reminder:delivered"

// RedisDeliveryLedger records deliveries as expiring keys so restarts and
// sibling replicas skip reminders that were already acknowledged.
type RedisDeliveryLedger struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ core.DeliveryLedger = (*RedisDeliveryLedger)(nil)

// RedisLedgerOptions configures a RedisDeliveryLedger.
type RedisLedgerOptions struct {
	Client redis.UniversalClient
	Prefix string
	TTL    time.Duration
}

// NewRedisDeliveryLedger creates a Redis-backed ledger.
func NewRedisDeliveryLedger(opts RedisLedgerOptions) *RedisDeliveryLedger {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultLedgerKeyPrefix
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RedisDeliveryLedger{client: opts.Client, prefix: prefix, ttl: ttl}
}

func (l *RedisDeliveryLedger) key(k model.DeliveryKey) string {
	return l.prefix + ":" + k.String()
}

// Delivered checks whether the delivery key exists.
func (l *RedisDeliveryLedger) Delivered(ctx context.Context, key model.DeliveryKey) (bool, error) {
	if !validKey(string(key.InterviewID), key.StartTime.Unix()) {
		return false, ErrKeyRequired
	}
	n, err := l.client.Exists(ctx, l.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

type ledgerValue struct {
	ConversationID string    `json:"conversation_id"`
	MessageID      string    `json:"message_id"`
	Recipients     int       `json:"recipients"`
	DeliveredAt    time.Time `json:"delivered_at"`
}

// Record stores rec with SET NX so the first acknowledgement wins.
func (l *RedisDeliveryLedger) Record(ctx context.Context, rec model.DeliveryRecord) error {
	if !validKey(string(rec.Key.InterviewID), rec.Key.StartTime.Unix()) {
		return ErrKeyRequired
	}
	payload, err := json.Marshal(ledgerValue{
		ConversationID: string(rec.ConversationID),
		MessageID:      rec.MessageID,
		Recipients:     rec.Recipients,
		DeliveredAt:    rec.DeliveredAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode delivery record: %w", err)
	}

	err = l.client.SetArgs(ctx, l.key(rec.Key), payload, redis.SetArgs{Mode: "NX", TTL: l.ttl}).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis SET NX: %w", err)
	}
	return nil
}

// Lookup returns the stored record for key, or ok=false when absent.
func (l *RedisDeliveryLedger) Lookup(ctx context.Context, key model.DeliveryKey) (model.DeliveryRecord, bool, error) {
	raw, err := l.client.Get(ctx, l.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.DeliveryRecord{}, false, nil
		}
		return model.DeliveryRecord{}, false, fmt.Errorf("redis get: %w", err)
	}
	var v ledgerValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return model.DeliveryRecord{}, false, fmt.Errorf("decode delivery record: %w", err)
	}
	return model.DeliveryRecord{
		Key:            key,
		ConversationID: model.ConversationID(v.ConversationID),
		MessageID:      v.MessageID,
		Recipients:     v.Recipients,
		DeliveredAt:    v.DeliveredAt,
	}, true, nil
}
