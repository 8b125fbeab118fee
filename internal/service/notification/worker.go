package notification

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"rahmah-exchange/internal/service/email"
)

const (
	readBatch      = 10
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second

	retryBase  = 30 * time.Second
	retryMax   = 15 * time.Minute
	deferPoll  = 2 * time.Second
	staleAfter = 2 * time.Minute
	reclaimGap = time.Minute
)

// Worker drains the outbox and hands each email to the delivery transport.
type Worker struct {
	outbox      Outbox
	sender      email.Sender
	logger      *zap.Logger
	maxAttempts int
	sleep       func(ctx context.Context, d time.Duration)
	now         func() time.Time
}

func NewWorker(outbox Outbox, sender email.Sender, maxAttempts int, logger *zap.Logger) *Worker {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Worker{
		outbox:      outbox,
		sender:      sender,
		logger:      logger.Named("outbox"),
		maxAttempts: maxAttempts,
		sleep:       sleepCtx,
		now:         time.Now,
	}
}

// Run blocks until ctx is cancelled. Read errors back off exponentially so a
// Redis outage does not spin the loop. Entries left unacknowledged by a crashed
// or interrupted worker are reclaimed once they have been idle for staleAfter.
func (w *Worker) Run(ctx context.Context) error {
	backoff := initialBackoff
	for {
		err := w.outbox.EnsureGroup(ctx)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return nil
		}
		w.logger.Warn("create consumer group failed", zap.Error(err), zap.Duration("retry_in", backoff))
		w.sleep(ctx, backoff)
		backoff = nextBackoff(backoff)
	}

	w.logger.Info("outbox worker started")
	backoff = initialBackoff
	var lastReclaim time.Time
	for {
		if ctx.Err() != nil {
			w.logger.Info("outbox worker stopped")
			return nil
		}

		if w.now().Sub(lastReclaim) >= reclaimGap {
			lastReclaim = w.now()
			w.drain(ctx, w.reclaim(ctx))
		}

		deliveries, err := w.outbox.Read(ctx, readBatch)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				continue
			}
			w.logger.Warn("outbox read failed", zap.Error(err), zap.Duration("retry_in", backoff))
			w.sleep(ctx, backoff)
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = initialBackoff

		w.drain(ctx, deliveries)
	}
}

func (w *Worker) reclaim(ctx context.Context) []Delivery {
	deliveries, err := w.outbox.Reclaim(ctx, staleAfter, readBatch)
	if err != nil && ctx.Err() == nil {
		w.logger.Warn("outbox reclaim failed", zap.Error(err))
	}
	if len(deliveries) > 0 {
		w.logger.Info("reclaimed stale outbox entries", zap.Int("count", len(deliveries)))
	}
	return deliveries
}

// drain processes a batch and, when an entry is not yet due, pauses so a
// deferred retry does not cycle through the stream in a tight loop.
func (w *Worker) drain(ctx context.Context, deliveries []Delivery) {
	var wait time.Duration
	for _, d := range deliveries {
		if due := w.Process(ctx, d); due > 0 && (wait == 0 || due < wait) {
			wait = due
		}
	}
	if wait > 0 {
		w.sleep(ctx, min(wait, deferPoll))
	}
}

// Process delivers one entry and acknowledges it. A failed send is queued
// again with one more attempt and a growing delay until maxAttempts is
// reached. An entry whose retry is not yet due is queued again untouched and
// the remaining wait is returned.
//
// The ack and any requeue run detached from ctx so that shutdown during a send
// cannot strand the entry. When the requeue fails the entry is left pending
// for Reclaim.
func (w *Worker) Process(ctx context.Context, d Delivery) time.Duration {
	durable := context.WithoutCancel(ctx)
	wait, settled := w.deliver(ctx, durable, d)
	if settled {
		if err := w.outbox.Ack(durable, d.StreamID); err != nil {
			w.logger.Warn("outbox ack failed", zap.String("stream_id", d.StreamID), zap.Error(err))
		}
	}
	return wait
}

func (w *Worker) deliver(ctx, durable context.Context, d Delivery) (time.Duration, bool) {
	if d.Err != nil {
		w.logger.Error("dropping undecodable outbox entry", zap.String("stream_id", d.StreamID), zap.Error(d.Err))
		return 0, true
	}

	env := d.Envelope
	fields := []zap.Field{
		zap.String("notification_id", env.ID.String()),
		zap.String("tenant_id", env.TenantID.String()),
		zap.Strings("recipient", env.Email.To),
	}

	if wait := env.NotBefore.Sub(w.now()); wait > 0 {
		return wait, w.requeue(durable, env, fields)
	}

	providerID, err := w.sender.Send(ctx, env.Email)
	if err == nil {
		w.logger.Info("email sent",
			zap.String("notification_id", env.ID.String()),
			zap.String("type", string(env.Type)),
			zap.Strings("recipient", env.Email.To),
			zap.String("provider_id", providerID),
		)
		return 0, true
	}

	// Interrupted by shutdown: not an attempt.
	if ctx.Err() != nil {
		w.logger.Info("email send interrupted, requeueing", append(fields, zap.Error(err))...)
		return 0, w.requeue(durable, env, fields)
	}

	env.Attempts++
	fields = append(fields, zap.Int("attempts", env.Attempts), zap.Error(err))

	if env.Attempts >= w.maxAttempts {
		w.logger.Error("email delivery abandoned", fields...)
		return 0, true
	}

	delay := retryDelay(env.Attempts)
	env.NotBefore = w.now().Add(delay)
	w.logger.Warn("email delivery failed, requeueing", append(fields, zap.Duration("retry_in", delay))...)
	return 0, w.requeue(durable, env, fields)
}

func (w *Worker) requeue(ctx context.Context, env Envelope, fields []zap.Field) bool {
	if err := w.outbox.Enqueue(ctx, env); err != nil {
		w.logger.Error("requeue failed, leaving entry pending", append(fields, zap.NamedError("requeue_error", err))...)
		return false
	}
	return true
}

// retryDelay doubles from retryBase for each failed attempt, capped at retryMax.
func retryDelay(attempts int) time.Duration {
	d := retryBase
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= retryMax {
			return retryMax
		}
	}
	return d
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
