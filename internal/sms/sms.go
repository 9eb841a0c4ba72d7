// Package sms queues outgoing SMS messages and delivers them through River.
//
// A message row and its sms_send job are inserted in the same transaction,
// so a committed message is always eventually attempted. The HTTP client of
// the SMS provider lives outside this module behind Gateway.
package sms

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nyaruka/phonenumbers"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"go.uber.org/zap"

	"rollworks.io/erp/internal/domain"
	apperrors "rollworks.io/erp/internal/pkg/errors"
	"rollworks.io/erp/internal/pkg/logger"
	"rollworks.io/erp/internal/repository"
)

// MaxMessageLength is the longest body accepted, ten concatenated segments.
const MaxMessageLength = 1530

// Params are the caller-supplied fields of a new message.
type Params struct {
	OrderID     *int64
	JobOrderID  *int64
	Recipient   string
	Message     string
	MessageType string
	Priority    string
	SentBy      *int64
}

// Gateway hands a message to the SMS provider and returns the provider id.
type Gateway interface {
	Send(ctx context.Context, from, to, body string) (string, error)
}

// LogGateway logs instead of sending. Used when sms.dry_run is set.
type LogGateway struct{}

func (LogGateway) Send(_ context.Context, from, to, body string) (string, error) {
	id := "dry-run-" + uuid.NewString()
	logger.Info("SMS dry run",
		zap.String("from", from),
		zap.String("to", to),
		zap.Int("length", utf8.RuneCountInString(body)),
		zap.String("provider_message_id", id),
	)
	return id, nil
}

// JobInserter is satisfied by *river.Client[pgx.Tx].
type JobInserter interface {
	InsertTx(ctx context.Context, tx pgx.Tx, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// Service queues messages.
type Service struct {
	db     repository.DBTX
	jobs   JobInserter
	region string
}

// NewService creates a Service over the shared pool and River client.
// region is the ISO 3166 country assumed for recipients written without
// a leading +country code.
func NewService(db repository.DBTX, jobs JobInserter, region string) *Service {
	return &Service{db: db, jobs: jobs, region: region}
}

// Queue stores a pending message and enqueues its delivery in one transaction.
// The recipient is stored in E.164 form.
func (s *Service) Queue(ctx context.Context, p Params) (*domain.SMSMessage, error) {
	recipient, err := normalizeRecipient(p.Recipient, s.region)
	if err != nil {
		return nil, err
	}
	p.Recipient = recipient
	if err := validate(p); err != nil {
		return nil, err
	}

	var msg *domain.SMSMessage
	err = pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		var err error
		msg, err = repository.New(tx).SMS.Create(ctx, fields(p))
		if err != nil {
			return fmt.Errorf("insert sms message: %w", err)
		}
		if _, err := s.jobs.InsertTx(ctx, tx, SendArgs{MessageID: msg.ID}, nil); err != nil {
			return fmt.Errorf("enqueue sms_send for message %d: %w", msg.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("SMS queued",
		zap.Int64("message_id", msg.ID),
		zap.String("message_type", p.MessageType),
	)
	return msg, nil
}

func fields(p Params) domain.Fields {
	f := domain.Fields{
		"recipient": p.Recipient,
		"message":   p.Message,
		"status":    string(domain.SMSStatusPending),
	}
	if p.OrderID != nil {
		f[domain.ColOrderID] = *p.OrderID
	}
	if p.JobOrderID != nil {
		f[domain.ColJobOrderID] = *p.JobOrderID
	}
	if p.MessageType != "" {
		f["message_type"] = p.MessageType
	}
	if p.Priority != "" {
		f["priority"] = p.Priority
	}
	if p.SentBy != nil {
		f["sent_by"] = *p.SentBy
	}
	return f
}

// normalizeRecipient parses r as a phone number of region unless it carries
// its own country code, and returns it formatted as E.164.
func normalizeRecipient(r, region string) (string, error) {
	num, err := phonenumbers.Parse(strings.TrimSpace(r), region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", apperrors.BadRequest(apperrors.CodeSMSInvalid, "recipient must be a valid phone number")
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

func validate(p Params) error {
	switch {
	case strings.TrimSpace(p.Message) == "":
		return apperrors.BadRequest(apperrors.CodeSMSInvalid, "message is required")
	case utf8.RuneCountInString(p.Message) > MaxMessageLength:
		return apperrors.BadRequest(apperrors.CodeSMSInvalid,
			fmt.Sprintf("message exceeds %d characters", MaxMessageLength))
	}
	switch p.Priority {
	case "", "low", "normal", "high":
	default:
		return apperrors.BadRequest(apperrors.CodeSMSInvalid, "priority must be low, normal or high")
	}
	return nil
}
