package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-backend/pkg/config"
	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
	"github.com/angelmondragon/wholesale-backend/pkg/metrics"
	"github.com/angelmondragon/wholesale-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize    = 50
	defaultPollInterval = 500 * time.Millisecond
	defaultMaxAttempts  = 10
	publishTimeout      = 15 * time.Second
	maxIdleBackoff      = 10 * time.Second
)

type txRunner interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type topicClient interface {
	Ping(context.Context) error
	Publisher(topic string) *gcppubsub.Publisher
}

type outboxStore interface {
	ClaimBatch(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublished(tx *gorm.DB, id uuid.UUID) error
	RecordFailure(tx *gorm.DB, id uuid.UUID, cause error) error
	Park(tx *gorm.DB, id uuid.UUID, cause error, terminalAttempts int) error
}

type eventResolver interface {
	Resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error)
}

// topicPublisher and publishAck are the slice of *pubsub.Publisher and
// *pubsub.PublishResult the relay uses.
type topicPublisher interface {
	Publish(context.Context, *gcppubsub.Message) publishAck
}

type publishAck interface {
	Get(context.Context) (string, error)
}

type RelayParams struct {
	Config   config.OutboxConfig
	Logger   *logger.Logger
	DB       txRunner
	Topics   topicClient
	Store    outboxStore
	Resolver eventResolver
	Metrics  *metrics.OutboxMetrics

	// PublisherFor overrides how a topic name becomes a publisher.
	PublisherFor func(topic string) topicPublisher
}

// Relay moves committed outbox rows to Pub/Sub. A batch is claimed and
// settled in one transaction, so replicas running side by side never send
// the same row twice.
type Relay struct {
	logg         *logger.Logger
	db           txRunner
	topics       topicClient
	store        outboxStore
	resolver     eventResolver
	metrics      *metrics.OutboxMetrics
	publisherFor func(topic string) topicPublisher

	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

func NewRelay(p RelayParams) (*Relay, error) {
	var missing []error
	for name, absent := range map[string]bool{
		"logger":         p.Logger == nil,
		"database":       p.DB == nil,
		"pubsub client":  p.Topics == nil,
		"outbox store":   p.Store == nil,
		"event resolver": p.Resolver == nil,
	} {
		if absent {
			missing = append(missing, fmt.Errorf("%s is required", name))
		}
	}
	if err := errors.Join(missing...); err != nil {
		return nil, err
	}

	r := &Relay{
		logg:         p.Logger,
		db:           p.DB,
		topics:       p.Topics,
		store:        p.Store,
		resolver:     p.Resolver,
		metrics:      p.Metrics,
		publisherFor: p.PublisherFor,
		batchSize:    orDefault(p.Config.BatchSize, defaultBatchSize),
		maxAttempts:  orDefault(p.Config.MaxAttempts, defaultMaxAttempts),
		pollInterval: time.Duration(orDefault(p.Config.PollIntervalMS, int(defaultPollInterval/time.Millisecond))) * time.Millisecond,
	}
	if r.publisherFor == nil {
		r.publisherFor = func(topic string) topicPublisher {
			if pub := p.Topics.Publisher(topic); pub != nil {
				return gcpPublisher{pub}
			}
			return nil
		}
	}
	return r, nil
}

func orDefault(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// Run drains the outbox until ctx ends. Progress (a row published or parked)
// starts the next batch at once. Errors and retry-only batches back off
// exponentially. An empty table is polled every pollInterval.
func (r *Relay) Run(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	if err := r.topics.Ping(ctx); err != nil {
		return fmt.Errorf("pubsub ping: %w", err)
	}

	wait := newBackoff(r.pollInterval, maxIdleBackoff)
	for ctx.Err() == nil {
		tally, err := r.drainOnce(ctx)
		var pause time.Duration
		switch {
		case err != nil:
			r.logg.Error(ctx, "outbox batch failed", err)
			pause = wait.next()
		case tally.progressed():
			wait.reset()
		case tally.retried > 0:
			pause = wait.next()
		default:
			wait.reset()
			pause = withJitter(r.pollInterval)
		}
		if err := sleep(ctx, pause); err != nil {
			break
		}
	}
	r.logg.Info(ctx, "outbox relay stopping")
	return ctx.Err()
}

type outcome = string

type tally struct {
	claimed, published, retried, parked int
}

func (t tally) progressed() bool { return t.published+t.parked > 0 }

func (t *tally) count(o outcome) {
	switch o {
	case metrics.OutboxPublished:
		t.published++
	case metrics.OutboxRetried:
		t.retried++
	case metrics.OutboxParked:
		t.parked++
	}
}

// drainOnce claims one batch and settles every row in it. A publish failure
// is recorded on its row and the batch continues. Only a failed write to the
// outbox table aborts, which rolls back the whole batch.
func (r *Relay) drainOnce(ctx context.Context) (tally, error) {
	var t tally
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := r.store.ClaimBatch(tx, r.batchSize, r.maxAttempts)
		if err != nil {
			return fmt.Errorf("claim batch: %w", err)
		}
		t = tally{claimed: len(rows)}
		if len(rows) == 0 {
			return nil
		}
		r.metrics.ObserveBatch(len(rows))
		for _, row := range rows {
			o, err := r.settle(ctx, tx, row)
			if err != nil {
				return err
			}
			t.count(o)
			r.metrics.IncEvent(string(row.EventType), o)
		}
		return nil
	})
	if err == nil && t.claimed > 0 {
		r.logg.Info(r.logg.WithFields(ctx, map[string]any{
			"claimed":   t.claimed,
			"published": t.published,
			"retried":   t.retried,
			"parked":    t.parked,
		}), "outbox batch settled")
	}
	return t, err
}

func (r *Relay) settle(ctx context.Context, tx *gorm.DB, row models.OutboxEvent) (outcome, error) {
	ctx = r.logg.WithFields(ctx, rowFields(row))

	resolved, err := r.resolver.Resolve(row)
	if err != nil {
		return r.park(ctx, tx, row, "unresolvable", err)
	}
	ctx = r.logg.WithFields(ctx, map[string]any{"event_id": resolved.Envelope.EventID, "topic": resolved.Route.Topic})

	sendErr := r.send(ctx, row, resolved)
	var permanent registry.NonRetryableError
	switch {
	case sendErr == nil:
		if err := r.store.MarkPublished(tx, row.ID); err != nil {
			return "", fmt.Errorf("mark %s published: %w", row.ID, err)
		}
		r.logg.Debug(ctx, "outbox event published")
		return metrics.OutboxPublished, nil
	case errors.As(sendErr, &permanent):
		return r.park(ctx, tx, row, "rejected", sendErr)
	case row.AttemptCount+1 >= r.maxAttempts:
		return r.park(ctx, tx, row, "max_attempts", fmt.Errorf("gave up after %d attempts: %w", row.AttemptCount+1, sendErr))
	}

	r.logg.Warn(r.logg.WithField(ctx, "error", sendErr.Error()), "outbox publish failed, will retry")
	if err := r.store.RecordFailure(tx, row.ID, sendErr); err != nil {
		return "", fmt.Errorf("record %s failure: %w", row.ID, err)
	}
	return metrics.OutboxRetried, nil
}

// park takes the row out of rotation. It stays in the table for inspection
// until the retention job removes it.
func (r *Relay) park(ctx context.Context, tx *gorm.DB, row models.OutboxEvent, reason string, cause error) (outcome, error) {
	r.logg.Warn(r.logg.WithFields(ctx, map[string]any{"park_reason": reason, "error": cause.Error()}), "outbox event parked")
	if err := r.store.Park(tx, row.ID, cause, r.maxAttempts); err != nil {
		return "", fmt.Errorf("park %s: %w", row.ID, err)
	}
	return metrics.OutboxParked, nil
}

func (r *Relay) send(ctx context.Context, row models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	topic := resolved.Route.Topic
	pub := r.publisherFor(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("no publisher for topic %q", topic))
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	ack := pub.Publish(ctx, buildMessage(row, resolved))
	if ack == nil {
		return registry.NewNonRetryableError(fmt.Errorf("topic %q returned no publish result", topic))
	}
	_, err := ack.Get(ctx)
	return err
}

// buildMessage sends the stored envelope untouched. Attributes duplicate the
// routing facts so subscriptions can filter without decoding the body.
func buildMessage(row models.OutboxEvent, resolved *registry.ResolvedEvent) *gcppubsub.Message {
	return &gcppubsub.Message{
		Data: row.Payload,
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(row.EventType),
			"aggregate_type": string(row.AggregateType),
			"aggregate_id":   row.AggregateID.String(),
			"created_at":     row.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}
}

func rowFields(row models.OutboxEvent) map[string]any {
	f := map[string]any{
		"outbox_id":     row.ID.String(),
		"event_type":    string(row.EventType),
		"aggregate_id":  row.AggregateID.String(),
		"attempt_count": row.AttemptCount,
	}
	if row.LastError != nil {
		f["last_error"] = *row.LastError
	}
	return f
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishAck {
	return p.Publisher.Publish(ctx, msg)
}
