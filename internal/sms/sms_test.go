package sms

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollworks.io/erp/internal/domain"
	apperrors "rollworks.io/erp/internal/pkg/errors"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{"valid", Params{Recipient: "+966501234567", Message: "Order ready"}, false},
		{"valid priority", Params{Recipient: "+966501234567", Message: "hi", Priority: "high"}, false},
		{"blank message", Params{Recipient: "+966501234567", Message: "  "}, true},
		{"too long", Params{Recipient: "+966501234567", Message: strings.Repeat("x", MaxMessageLength+1)}, true},
		{"bad priority", Params{Recipient: "+966501234567", Message: "hi", Priority: "urgent"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate(tt.params)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeSMSInvalid))
		})
	}
}

func TestNormalizeRecipient(t *testing.T) {
	tests := []struct {
		name      string
		recipient string
		region    string
		want      string
		wantErr   bool
	}{
		{"international with punctuation", " +966 (50) 123-4567 ", "SA", "+966501234567", false},
		{"national uses default region", "050 123 4567", "SA", "+966501234567", false},
		{"foreign number keeps its country", "+1 650-253-0000", "SA", "+16502530000", false},
		{"all zeros", "000000", "SA", "", true},
		{"too short", "123", "SA", "", true},
		{"not a number", "call me", "SA", "", true},
		{"national without region", "0501234567", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeRecipient(tt.recipient, tt.region)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.HasCode(err, apperrors.CodeSMSInvalid))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueue_RejectsInvalidRecipientBeforeWriting(t *testing.T) {
	// A nil pool and inserter would panic if Queue reached the database.
	svc := NewService(nil, nil, "SA")

	_, err := svc.Queue(context.Background(), Params{Recipient: "000000", Message: "x"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeSMSInvalid))
}

func TestFields(t *testing.T) {
	orderID := int64(7)
	f := fields(Params{OrderID: &orderID, Recipient: "+1555000", Message: "hi", MessageType: "order_status"})
	assert.Equal(t, domain.Fields{
		"order_id":     int64(7),
		"recipient":    "+1555000",
		"message":      "hi",
		"status":       "pending",
		"message_type": "order_status",
	}, f)
}

func TestSendArgs(t *testing.T) {
	assert.Equal(t, "sms_send", SendArgs{}.Kind())
	opts := SendArgs{}.InsertOpts()
	assert.Equal(t, river.QueueDefault, opts.Queue)
	assert.Equal(t, 5, opts.MaxAttempts)
}

func TestRetentionArgs(t *testing.T) {
	assert.Equal(t, "sms_retention", RetentionArgs{}.Kind())
	opts := RetentionArgs{}.InsertOpts()
	assert.Equal(t, 1, opts.MaxAttempts)
	assert.Equal(t, 24*time.Hour, opts.UniqueOpts.ByPeriod)
	assert.True(t, opts.UniqueOpts.ByArgs)
	assert.Len(t, PeriodicJobs(), 1)
}

type fakeStore struct {
	msgs   map[int64]*domain.SMSMessage
	getErr error
	sent   []int64
	failed map[int64]string
}

func newFakeStore(msgs ...*domain.SMSMessage) *fakeStore {
	s := &fakeStore{msgs: map[int64]*domain.SMSMessage{}, failed: map[int64]string{}}
	for _, m := range msgs {
		s.msgs[m.ID] = m
	}
	return s
}

func (s *fakeStore) Get(_ context.Context, id any) (*domain.SMSMessage, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.msgs[id.(int64)], nil
}

func (s *fakeStore) MarkSent(_ context.Context, id int64, providerID string, at time.Time) (*domain.SMSMessage, error) {
	s.sent = append(s.sent, id)
	m := s.msgs[id]
	m.Status = domain.SMSStatusSent
	m.ProviderMessageID = &providerID
	m.SentAt = &at
	return m, nil
}

func (s *fakeStore) MarkFailed(_ context.Context, id int64, reason string) (*domain.SMSMessage, error) {
	s.failed[id] = reason
	m := s.msgs[id]
	m.Status = domain.SMSStatusFailed
	return m, nil
}

type fakeGateway struct {
	calls int
	err   error
}

func (g *fakeGateway) Send(context.Context, string, string, string) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return "prov-1", nil
}

func job(id int64, attempt, maxAttempts int) *river.Job[SendArgs] {
	return &river.Job[SendArgs]{
		JobRow: &rivertype.JobRow{Attempt: attempt, MaxAttempts: maxAttempts},
		Args:   SendArgs{MessageID: id},
	}
}

func pending(id int64) *domain.SMSMessage {
	return &domain.SMSMessage{ID: id, Recipient: "+1555000", Message: "hi", Status: domain.SMSStatusPending}
}

func TestSendWorker_Sends(t *testing.T) {
	store := newFakeStore(pending(1))
	gw := &fakeGateway{}
	events := domain.NewEventDispatcher()
	var got []domain.EventType
	events.Register(domain.EventSMSSent, func(_ context.Context, e *domain.DomainEvent) error {
		got = append(got, e.EventType)
		return nil
	})

	w := NewSendWorker(store, gw, "ROLLWORKS", events)
	require.NoError(t, w.Work(context.Background(), job(1, 1, 5)))

	assert.Equal(t, []int64{1}, store.sent)
	assert.Equal(t, domain.SMSStatusSent, store.msgs[1].Status)
	assert.Equal(t, []domain.EventType{domain.EventSMSSent}, got)

	// already sent: no second delivery
	require.NoError(t, w.Work(context.Background(), job(1, 2, 5)))
	assert.Equal(t, 1, gw.calls)
}

func TestSendWorker_MissingMessageIsSkipped(t *testing.T) {
	gw := &fakeGateway{}
	w := NewSendWorker(newFakeStore(), gw, "", nil)
	require.NoError(t, w.Work(context.Background(), job(42, 1, 5)))
	assert.Zero(t, gw.calls)
}

func TestSendWorker_RetriesThenMarksFailed(t *testing.T) {
	store := newFakeStore(pending(3))
	gw := &fakeGateway{err: errors.New("gateway 503")}
	w := NewSendWorker(store, gw, "", nil)

	err := w.Work(context.Background(), job(3, 1, 2))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeSMSSendFailed))
	assert.Empty(t, store.failed)
	assert.Equal(t, domain.SMSStatusPending, store.msgs[3].Status)

	require.NoError(t, w.Work(context.Background(), job(3, 2, 2)))
	assert.Equal(t, "gateway 503", store.failed[3])
	assert.Equal(t, domain.SMSStatusFailed, store.msgs[3].Status)
}

func TestSendWorker_LoadErrorIsRetried(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("conn reset")
	w := NewSendWorker(store, &fakeGateway{}, "", nil)
	require.ErrorIs(t, w.Work(context.Background(), job(1, 1, 5)), store.getErr)
}

func TestSendWorker_Uninitialized(t *testing.T) {
	var w *SendWorker
	err := w.Work(context.Background(), job(1, 1, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not initialized")
}

type fakeExpirer struct {
	cutoff time.Time
	n      int64
}

func (f *fakeExpirer) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.n, nil
}

func TestRetentionWorker(t *testing.T) {
	t.Run("defaults to ninety days when non-positive", func(t *testing.T) {
		assert.Equal(t, DefaultRetention, NewRetentionWorker(nil, 0).retention)
	})

	t.Run("deletes before cutoff", func(t *testing.T) {
		exp := &fakeExpirer{n: 4}
		w := NewRetentionWorker(exp, 48*time.Hour)
		require.NoError(t, w.Work(context.Background(), nil))
		assert.WithinDuration(t, time.Now().UTC().Add(-48*time.Hour), exp.cutoff, time.Minute)
	})

	t.Run("nil store", func(t *testing.T) {
		w := &RetentionWorker{}
		err := w.Work(context.Background(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not initialized")
	})
}

func TestLogGateway(t *testing.T) {
	id, err := LogGateway{}.Send(context.Background(), "ROLLWORKS", "+1555000", "hi")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "dry-run-"))
}
