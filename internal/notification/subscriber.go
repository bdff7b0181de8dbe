package notification

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/abgdnv/fridgekeeper/pkg/config"
	"github.com/abgdnv/fridgekeeper/pkg/messaging/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/sync/errgroup"
)

// ackableMsg is the part of jetstream.Msg the handler needs.
type ackableMsg interface {
	Data() []byte
	Subject() string
	Ack() error
	Nak() error
}

// Start creates the durable consumer and runs cfg.Workers workers delivering events to notifier
// until ctx is cancelled.
func Start(ctx context.Context, js jetstream.JetStream, cfg config.SubscriberConfig, notifier Notifier, logger *slog.Logger) error {
	logger = logger.With("component", "subscriber")
	consumer, err := js.CreateOrUpdateConsumer(ctx, cfg.Stream, jetstream.ConsumerConfig{
		FilterSubject: cfg.Subject,
		Durable:       cfg.Consumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return err
	}
	g, gCtx := errgroup.WithContext(ctx)
	for range cfg.Workers {
		g.Go(func() error {
			return runWorker(gCtx, consumer, cfg, notifier, logger)
		})
	}
	return g.Wait()
}

// runWorker fetches batches from the consumer and handles them one by one.
func runWorker(ctx context.Context, consumer jetstream.Consumer, cfg config.SubscriberConfig, notifier Notifier, logger *slog.Logger) error {
	batchSize := max(cfg.Batch, 1)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		batch, err := consumer.Fetch(batchSize, jetstream.FetchMaxWait(cfg.Timeout))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.ErrorContext(ctx, "failed to fetch messages", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.Interval):
			}
			continue
		}
		for msg := range batch.Messages() {
			handleMessage(ctx, msg, notifier, logger)
		}
		if err := batch.Error(); err != nil && !errors.Is(err, nats.ErrTimeout) {
			logger.WarnContext(ctx, "batch finished with error", "error", err)
		}
	}
}

// handleMessage decodes one event and delivers it. Undecodable or undelivered messages are nak'ed.
func handleMessage(ctx context.Context, msg ackableMsg, notifier Notifier, logger *slog.Logger) {
	if msg == nil {
		logger.ErrorContext(ctx, "received nil message")
		return
	}
	var event events.ProductExpiringEvent
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		logger.ErrorContext(ctx, "failed to unmarshal message", "error", err, "subject", msg.Subject())
		nak(ctx, msg, logger)
		return
	}
	message, err := fromEvent(event)
	if err != nil {
		logger.ErrorContext(ctx, "invalid expiring event", "error", err, "event_id", event.EventID.String())
		nak(ctx, msg, logger)
		return
	}
	if err := notifier.Notify(ctx, message); err != nil {
		logger.ErrorContext(ctx, "failed to deliver notification", "error", err, "event_id", event.EventID.String())
		nak(ctx, msg, logger)
		return
	}
	if err := msg.Ack(); err != nil {
		logger.ErrorContext(ctx, "failed to ack message", "error", err)
	}
}

func nak(ctx context.Context, msg ackableMsg, logger *slog.Logger) {
	if err := msg.Nak(); err != nil {
		logger.ErrorContext(ctx, "failed to nack message", "error", err)
	}
}
