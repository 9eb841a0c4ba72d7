package domain

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func fullRow() QualityCheckRow {
	checked := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	return QualityCheckRow{
		ID:               50,
		CheckTypeID:      ptr(int64(3)),
		CheckedBy:        ptr(int64(12)),
		JobOrderID:       ptr(int64(1)),
		RollID:           ptr("R-A"),
		Status:           "failed",
		Notes:            ptr("edge curl"),
		CheckedAt:        &checked,
		ChecklistResults: []string{"thickness:ok", "print:fail"},
		ParameterValues:  []string{"thickness=42", "width=610"},
		IssueSeverity:    ptr("major"),
		ImageURLs:        []string{"https://cdn.example/qc/50-1.jpg"},
		CreatedAt:        time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestQualityCheck_RoundTrip(t *testing.T) {
	row := fullRow()

	got := QualityCheckFromRow(row).ToRow()
	if diff := cmp.Diff(row, got); diff != "" {
		t.Fatalf("row -> app -> row mismatch (-want +got):\n%s", diff)
	}
}

func TestQualityCheck_PatchEmitsEveryMappedColumn(t *testing.T) {
	row := fullRow()

	fields := QualityCheckFromRow(row).Patch().ToRowFields()
	want := Fields{
		"check_type_id":     int64(3),
		"checked_by":        int64(12),
		"job_order_id":      int64(1),
		"roll_id":           "R-A",
		"status":            "failed",
		"notes":             "edge curl",
		"checked_at":        *row.CheckedAt,
		"checklist_results": row.ChecklistResults,
		"parameter_values":  row.ParameterValues,
		"issue_severity":    "major",
		"image_urls":        row.ImageURLs,
	}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Fatalf("ToRowFields() mismatch (-want +got):\n%s", diff)
	}
}

func TestQualityCheckFromRow_NullArraysAndTimestampFallback(t *testing.T) {
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	row := QualityCheckRow{ID: 51, JobOrderID: ptr(int64(1)), Status: "pending", CreatedAt: created}

	qc := QualityCheckFromRow(row)
	require.NotNil(t, qc.ChecklistResults)
	require.NotNil(t, qc.ParameterValues)
	require.NotNil(t, qc.ImageURLs)
	require.Empty(t, qc.ChecklistResults)
	require.Empty(t, qc.ImageURLs)
	require.Equal(t, created, qc.Timestamp)

	data, err := json.Marshal(qc)
	require.NoError(t, err)
	require.Contains(t, string(data), `"imageUrls":[]`)
	require.Contains(t, string(data), `"performedBy":null`)
}

func TestQualityCheckPatch_SparseFields(t *testing.T) {
	tests := []struct {
		name  string
		patch QualityCheckPatch
		want  Fields
	}{
		{"empty", QualityCheckPatch{}, Fields{}},
		{"status only", QualityCheckPatch{Status: ptr("passed")}, Fields{"status": "passed"}},
		{
			"performer and images",
			QualityCheckPatch{PerformedBy: ptr(int64(4)), ImageURLs: []string{}},
			Fields{"checked_by": int64(4), "image_urls": []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.patch.ToRowFields())
		})
	}
}

func TestQualityCheckPatch_DecodeCamelCase(t *testing.T) {
	var p QualityCheckPatch
	require.NoError(t, json.Unmarshal([]byte(`{"performedBy":7,"issueSeverity":"minor"}`), &p))
	require.Equal(t, Fields{"checked_by": int64(7), "issue_severity": "minor"}, p.ToRowFields())
}

func TestFields_Clone(t *testing.T) {
	f := Fields{"status": "open"}
	c := f.Clone()
	c["status"] = "closed"
	require.Equal(t, "open", f["status"])
}

func TestEventDispatcher(t *testing.T) {
	d := NewEventDispatcher()

	var got []CascadePayload
	d.Register(EventOrderDeleted, func(_ context.Context, e *DomainEvent) error {
		var p CascadePayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return err
		}
		got = append(got, p)
		return nil
	})
	d.Register(EventOrderDeleted, func(context.Context, *DomainEvent) error {
		return errors.New("audit sink down")
	})

	ev, err := NewEvent(EventOrderDeleted, TableOrders, "1001", CascadePayload{
		RootTable: TableOrders,
		RootID:    "1001",
		Rows:      map[string]int64{TableOrders: 1, TableJobOrders: 2},
	})
	require.NoError(t, err)
	require.NotEmpty(t, ev.EventID)

	err = d.Dispatch(context.Background(), ev)
	require.Error(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(2), got[0].Rows[TableJobOrders])

	// Publish never surfaces handler errors.
	d.Publish(context.Background(), EventOrderDeleted, TableOrders, "1002", CascadePayload{RootID: "1002"})
	require.Len(t, got, 2)

	var nilDispatcher *EventDispatcher
	nilDispatcher.Publish(context.Background(), EventSMSSent, TableSMSMessages, "1", SMSPayload{MessageID: 1})
}

func TestEventDispatcher_Detached(t *testing.T) {
	d := NewEventDispatcher()

	var delivered []string
	d.Register(EventMixItemChanged, func(_ context.Context, e *DomainEvent) error {
		delivered = append(delivered, e.AggregateID)
		return nil
	})

	var queued []func(context.Context)
	d.UseDetached(func(task func(context.Context)) error {
		queued = append(queued, task)
		return nil
	})

	d.Publish(context.Background(), EventMixItemChanged, TableMixItems, "7", MixItemPayload{MixItemID: 7})
	require.Empty(t, delivered, "handlers run only when the submitted task runs")
	require.Len(t, queued, 1)

	queued[0](context.Background())
	require.Equal(t, []string{"7"}, delivered)

	// A rejected submission falls back to inline dispatch.
	d.UseDetached(func(func(context.Context)) error { return errors.New("pool closed") })
	d.Publish(context.Background(), EventMixItemChanged, TableMixItems, "8", MixItemPayload{MixItemID: 8})
	require.Equal(t, []string{"7", "8"}, delivered)
}
