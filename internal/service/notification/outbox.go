package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"rahmah-exchange/internal/domain"
)

// Envelope is one queued email.
type Envelope struct {
	ID         uuid.UUID               `json:"id"`
	TenantID   uuid.UUID               `json:"tenantId"`
	Type       domain.NotificationType `json:"type"`
	Email      domain.EmailMessage     `json:"email"`
	Attempts   int                     `json:"attempts"`
	EnqueuedAt time.Time               `json:"enqueuedAt"`
	// NotBefore holds a retry back until the given time.
	NotBefore  time.Time               `json:"notBefore"`
}

// Delivery is an envelope read from the outbox together with its stream ID.
// Err is set when the entry could not be decoded.
type Delivery struct {
	StreamID string
	Envelope Envelope
	Err      error
}

type Outbox interface {
	Enqueue(ctx context.Context, env Envelope) error
	EnsureGroup(ctx context.Context) error
	Read(ctx context.Context, count int64) ([]Delivery, error)
	// Reclaim takes over entries that were read but never acknowledged and
	// have been idle for at least minIdle.
	Reclaim(ctx context.Context, minIdle time.Duration, count int64) ([]Delivery, error)
	Ack(ctx context.Context, streamIDs ...string) error
}

const streamMaxLen = 100000

type redisOutbox struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
	block    time.Duration
}

func NewRedisOutbox(client *redis.Client, stream, group, consumer string) Outbox {
	return &redisOutbox{
		client:   client,
		stream:   stream,
		group:    group,
		consumer: consumer,
		block:    5 * time.Second,
	}
}

func (o *redisOutbox) Enqueue(ctx context.Context, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}

	return o.client.XAdd(ctx, &redis.XAddArgs{
		Stream: o.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data":      string(payload),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
}

// EnsureGroup creates the consumer group, and the stream with it. An existing
// group is not an error.
func (o *redisOutbox) EnsureGroup(ctx context.Context) error {
	err := o.client.XGroupCreateMkStream(ctx, o.stream, o.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (o *redisOutbox) Read(ctx context.Context, count int64) ([]Delivery, error) {
	streams, err := o.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    o.group,
		Consumer: o.consumer,
		Streams:  []string{o.stream, ">"},
		Count:    count,
		Block:    o.block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var deliveries []Delivery
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			deliveries = append(deliveries, decodeDelivery(msg))
		}
	}
	return deliveries, nil
}

func (o *redisOutbox) Reclaim(ctx context.Context, minIdle time.Duration, count int64) ([]Delivery, error) {
	var deliveries []Delivery
	start := "0-0"
	for {
		msgs, next, err := o.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   o.stream,
			Group:    o.group,
			Consumer: o.consumer,
			MinIdle:  minIdle,
			Start:    start,
			Count:    count,
		}).Result()
		if err != nil {
			return deliveries, err
		}
		for _, msg := range msgs {
			deliveries = append(deliveries, decodeDelivery(msg))
		}
		if next == "0-0" || next == "" {
			return deliveries, nil
		}
		start = next
	}
}

func decodeDelivery(msg redis.XMessage) Delivery {
	d := Delivery{StreamID: msg.ID}
	raw, ok := msg.Values["data"].(string)
	if !ok {
		d.Err = fmt.Errorf("stream entry %s has no data field", msg.ID)
		return d
	}
	if err := json.Unmarshal([]byte(raw), &d.Envelope); err != nil {
		d.Err = fmt.Errorf("decode stream entry %s: %w", msg.ID, err)
	}
	return d
}

func (o *redisOutbox) Ack(ctx context.Context, streamIDs ...string) error {
	if len(streamIDs) == 0 {
		return nil
	}
	return o.client.XAck(ctx, o.stream, o.group, streamIDs...).Err()
}
