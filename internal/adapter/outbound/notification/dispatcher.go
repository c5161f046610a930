package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/alxtravel/server/internal/model"
	"github.com/alxtravel/server/internal/port/outbound"
	"github.com/alxtravel/server/internal/shared/metrics"
	"go.uber.org/zap"
)

const (
	// DefaultTopic is the queue topic carrying payment confirmations.
	DefaultTopic = "payment.notifications"

	confirmationSubject = "Payment Confirmation"
)

var _ outbound.NotificationPort = (*Dispatcher)(nil)

// Config contains dispatcher configuration.
type Config struct {
	Topic   string
	Workers int
}

// Dispatcher queues payment confirmations and delivers them from a pool of workers.
type Dispatcher struct {
	queue   outbound.MessagePort
	sender  outbound.EmailSenderPort
	metrics *metrics.Metrics
	config  Config
	logger  *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewDispatcher creates a new notification dispatcher.
func NewDispatcher(queue outbound.MessagePort, sender outbound.EmailSenderPort, m *metrics.Metrics, config Config, logger *zap.Logger) *Dispatcher {
	if config.Topic == "" {
		config.Topic = DefaultTopic
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		queue:   queue,
		sender:  sender,
		metrics: m,
		config:  config,
		logger:  logger.Named("notification-dispatcher"),
	}
}

// Enqueue publishes the notification to the queue and returns without waiting for delivery.
func (d *Dispatcher) Enqueue(ctx context.Context, notification *model.PaymentNotification) error {
	data, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := d.queue.Publish(ctx, d.config.Topic, data); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Start launches the worker goroutines. Calling Start twice is a no-op.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running = true

	d.logger.Info("starting notification workers",
		zap.String("topic", d.config.Topic),
		zap.Int("workers", d.config.Workers))

	for i := 0; i < d.config.Workers; i++ {
		d.wg.Add(1)
		go func(worker int) {
			defer d.wg.Done()
			log := d.logger.With(zap.Int("worker", worker))
			if err := d.queue.Subscribe(ctx, d.config.Topic, func(data []byte) error {
				return d.handle(ctx, log, data)
			}); err != nil {
				log.Error("notification worker stopped", zap.Error(err))
			}
		}(i)
	}
}

// Stop cancels the workers and waits for in-flight deliveries to return.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	cancel := d.cancel
	d.mu.Unlock()

	cancel()
	d.wg.Wait()
	d.logger.Info("notification workers stopped")
}

func (d *Dispatcher) handle(ctx context.Context, log *zap.Logger, data []byte) error {
	var notification model.PaymentNotification
	if err := json.Unmarshal(data, &notification); err != nil {
		d.record("malformed")
		log.Warn("dropping malformed notification", zap.Error(err))
		return nil
	}
	if notification.RecipientEmail == "" {
		d.record("malformed")
		log.Warn("dropping notification without recipient",
			zap.String("transaction_id", notification.TransactionID))
		return nil
	}

	email := ComposeConfirmation(&notification)
	if err := d.sender.Send(ctx, email); err != nil {
		d.record("send_error")
		log.Error("failed to send payment confirmation",
			zap.String("transaction_id", notification.TransactionID),
			zap.String("to", notification.RecipientEmail),
			zap.Error(err))
		return nil
	}

	d.record("sent")
	log.Info("payment confirmation sent",
		zap.String("transaction_id", notification.TransactionID),
		zap.String("to", notification.RecipientEmail))
	return nil
}

func (d *Dispatcher) record(result string) {
	if d.metrics != nil {
		d.metrics.RecordNotification(result)
	}
}

// ComposeConfirmation builds the confirmation email for a completed payment.
func ComposeConfirmation(n *model.PaymentNotification) *model.Email {
	return &model.Email{
		To:      n.RecipientEmail,
		Subject: confirmationSubject,
		Body: fmt.Sprintf("Your payment for the listing '%s' has been successfully processed.\nTransaction ID: %s",
			n.ListingTitle, n.TransactionID),
	}
}
