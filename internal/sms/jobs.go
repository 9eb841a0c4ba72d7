package sms

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"rollworks.io/erp/internal/domain"
	apperrors "rollworks.io/erp/internal/pkg/errors"
	"rollworks.io/erp/internal/pkg/logger"
)

// DefaultRetention keeps delivered and failed messages for 90 days.
const DefaultRetention = 90 * 24 * time.Hour

// SendArgs carries only the message id; the worker loads the row.
type SendArgs struct {
	MessageID int64 `json:"message_id"`
}

// Kind returns the job kind identifier for SMS delivery.
func (SendArgs) Kind() string { return "sms_send" }

// InsertOpts retries delivery a few times before the message is marked failed.
func (SendArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       river.QueueDefault,
		MaxAttempts: 5,
	}
}

// MessageStore is the part of repository.SMSRepo the send worker needs.
type MessageStore interface {
	Get(ctx context.Context, id any) (*domain.SMSMessage, error)
	MarkSent(ctx context.Context, id int64, providerMessageID string, at time.Time) (*domain.SMSMessage, error)
	MarkFailed(ctx context.Context, id int64, reason string) (*domain.SMSMessage, error)
}

// SendWorker delivers one pending message.
type SendWorker struct {
	river.WorkerDefaults[SendArgs]
	store    MessageStore
	gateway  Gateway
	senderID string
	events   *domain.EventDispatcher
}

// NewSendWorker creates a send worker. events is optional.
func NewSendWorker(store MessageStore, gateway Gateway, senderID string, events *domain.EventDispatcher) *SendWorker {
	return &SendWorker{store: store, gateway: gateway, senderID: senderID, events: events}
}

// Work sends the message unless it is gone or no longer pending. A gateway
// error is retried; on the last attempt the message is marked failed.
func (w *SendWorker) Work(ctx context.Context, job *river.Job[SendArgs]) error {
	if w == nil || w.store == nil || w.gateway == nil {
		return fmt.Errorf("sms send worker is not initialized")
	}
	id := job.Args.MessageID
	log := logger.With(zap.Int64("message_id", id))

	msg, err := w.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load sms message %d: %w", id, err)
	}
	if msg == nil {
		// Removed with its order before delivery.
		log.Debug("SMS message gone, skipping")
		return nil
	}
	if msg.Status != domain.SMSStatusPending {
		return nil
	}

	providerID, sendErr := w.gateway.Send(ctx, w.senderID, msg.Recipient, msg.Message)
	if sendErr != nil {
		if job.JobRow != nil && job.Attempt < job.MaxAttempts {
			return apperrors.Wrap(sendErr, apperrors.CodeSMSSendFailed,
				fmt.Sprintf("send sms %d (attempt %d)", id, job.Attempt), http.StatusBadGateway)
		}
		if _, err := w.store.MarkFailed(ctx, id, sendErr.Error()); err != nil {
			return fmt.Errorf("mark sms %d failed: %w", id, err)
		}
		log.Warn("SMS delivery failed", zap.Error(sendErr))
		w.events.Publish(ctx, domain.EventSMSFailed, domain.TableSMSMessages, strconv.FormatInt(id, 10),
			domain.SMSPayload{MessageID: id, Error: sendErr.Error()})
		return nil
	}

	if _, err := w.store.MarkSent(ctx, id, providerID, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark sms %d sent: %w", id, err)
	}
	log.Debug("SMS sent", zap.String("provider_message_id", providerID))
	w.events.Publish(ctx, domain.EventSMSSent, domain.TableSMSMessages, strconv.FormatInt(id, 10),
		domain.SMSPayload{MessageID: id, ProviderMessageID: providerID})
	return nil
}

// RetentionArgs is a periodic maintenance job that removes expired messages.
type RetentionArgs struct{}

// Kind returns the job kind identifier for periodic SMS cleanup.
func (RetentionArgs) Kind() string { return "sms_retention" }

// InsertOpts ensures at most one cleanup job is enqueued within the same day.
func (RetentionArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       river.QueueDefault,
		MaxAttempts: 1,
		UniqueOpts: river.UniqueOpts{
			ByPeriod: 24 * time.Hour,
			ByQueue:  true,
			ByArgs:   true,
		},
	}
}

// Expirer deletes finished, unlinked messages created before cutoff.
type Expirer interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionWorker deletes messages older than the configured retention.
type RetentionWorker struct {
	river.WorkerDefaults[RetentionArgs]
	store     Expirer
	retention time.Duration
}

// NewRetentionWorker creates a cleanup worker. Non-positive retention
// falls back to the 90-day default.
func NewRetentionWorker(store Expirer, retention time.Duration) *RetentionWorker {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &RetentionWorker{store: store, retention: retention}
}

// Work removes expired rows.
func (w *RetentionWorker) Work(ctx context.Context, _ *river.Job[RetentionArgs]) error {
	if w == nil || w.store == nil {
		return fmt.Errorf("sms retention worker is not initialized")
	}

	cutoff := time.Now().UTC().Add(-w.retention)
	deleted, err := w.store.DeleteExpired(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("delete sms messages before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	logger.Info("SMS retention completed",
		zap.Int64("deleted_rows", deleted),
		zap.String("cutoff", cutoff.Format(time.RFC3339)),
		zap.Duration("retention", w.retention),
	)
	return nil
}

// Register adds the SMS workers to workers.
func Register(workers *river.Workers, send *SendWorker, retention *RetentionWorker) {
	river.AddWorker(workers, send)
	river.AddWorker(workers, retention)
}

// PeriodicJobs schedules the daily retention run.
func PeriodicJobs() []*river.PeriodicJob {
	return []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(24*time.Hour),
			func() (river.JobArgs, *river.InsertOpts) { return RetentionArgs{}, nil },
			&river.PeriodicJobOpts{RunOnStart: true},
		),
	}
}
