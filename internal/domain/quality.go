package domain

import "time"

// QualityCheckType is a template of checklist items and measured parameters.
type QualityCheckType struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Description    *string   `db:"description" json:"description"`
	ChecklistItems []string  `db:"checklist_items" json:"checklistItems"`
	Parameters     []string  `db:"parameters" json:"parameters"`
	TargetStage    *string   `db:"target_stage" json:"targetStage"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// CorrectiveAction is a remediation record of one QualityCheck.
type CorrectiveAction struct {
	ID             int64      `db:"id" json:"id"`
	QualityCheckID int64      `db:"quality_check_id" json:"qualityCheckId"`
	Action         string     `db:"action" json:"action"`
	AssignedTo     *int64     `db:"assigned_to" json:"assignedTo"`
	Status         string     `db:"status" json:"status"`
	CompletedAt    *time.Time `db:"completed_at" json:"completedAt"`
	Notes          *string    `db:"notes" json:"notes"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
}

// QualityCheckRow is the persisted shape of quality_checks.
// A check is attached to a Roll or directly to a JobOrder.
type QualityCheckRow struct {
	ID               int64      `db:"id"`
	CheckTypeID      *int64     `db:"check_type_id"`
	CheckedBy        *int64     `db:"checked_by"`
	JobOrderID       *int64     `db:"job_order_id"`
	RollID           *string    `db:"roll_id"`
	Status           string     `db:"status"`
	Notes            *string    `db:"notes"`
	CheckedAt        *time.Time `db:"checked_at"`
	ChecklistResults []string   `db:"checklist_results"`
	ParameterValues  []string   `db:"parameter_values"`
	IssueSeverity    *string    `db:"issue_severity"`
	ImageURLs        []string   `db:"image_urls"`
	CreatedAt        time.Time  `db:"created_at"`
}

// QualityCheck is the application-facing shape of a quality check.
type QualityCheck struct {
	ID               int64     `json:"id"`
	CheckTypeID      *int64    `json:"checkTypeId"`
	PerformedBy      *int64    `json:"performedBy"`
	JobOrderID       *int64    `json:"jobOrderId"`
	RollID           *string   `json:"rollId"`
	Status           string    `json:"status"`
	Notes            *string   `json:"notes"`
	Timestamp        time.Time `json:"timestamp"`
	ChecklistResults []string  `json:"checklistResults"`
	ParameterValues  []string  `json:"parameterValues"`
	IssueSeverity    *string   `json:"issueSeverity"`
	ImageURLs        []string  `json:"imageUrls"`
	CreatedAt        time.Time `json:"createdAt"`
}

// QualityCheckPatch is a sparse application-shape update. Nil fields are absent.
type QualityCheckPatch struct {
	CheckTypeID      *int64     `json:"checkTypeId,omitempty"`
	PerformedBy      *int64     `json:"performedBy,omitempty"`
	JobOrderID       *int64     `json:"jobOrderId,omitempty"`
	RollID           *string    `json:"rollId,omitempty"`
	Status           *string    `json:"status,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
	Timestamp        *time.Time `json:"timestamp,omitempty"`
	ChecklistResults []string   `json:"checklistResults,omitempty"`
	ParameterValues  []string   `json:"parameterValues,omitempty"`
	IssueSeverity    *string    `json:"issueSeverity,omitempty"`
	ImageURLs        []string   `json:"imageUrls,omitempty"`
}

// QualityCheckFromRow converts a persisted row to the application shape.
// Absent arrays become empty; Timestamp is checked_at, else created_at.
func QualityCheckFromRow(row QualityCheckRow) QualityCheck {
	ts := row.CreatedAt
	if row.CheckedAt != nil {
		ts = *row.CheckedAt
	}
	return QualityCheck{
		ID:               row.ID,
		CheckTypeID:      row.CheckTypeID,
		PerformedBy:      row.CheckedBy,
		JobOrderID:       row.JobOrderID,
		RollID:           row.RollID,
		Status:           row.Status,
		Notes:            row.Notes,
		Timestamp:        ts,
		ChecklistResults: orEmpty(row.ChecklistResults),
		ParameterValues:  orEmpty(row.ParameterValues),
		IssueSeverity:    row.IssueSeverity,
		ImageURLs:        orEmpty(row.ImageURLs),
		CreatedAt:        row.CreatedAt,
	}
}

// ToRow converts the application shape back to a full row.
func (q QualityCheck) ToRow() QualityCheckRow {
	ts := q.Timestamp
	return QualityCheckRow{
		ID:               q.ID,
		CheckTypeID:      q.CheckTypeID,
		CheckedBy:        q.PerformedBy,
		JobOrderID:       q.JobOrderID,
		RollID:           q.RollID,
		Status:           q.Status,
		Notes:            q.Notes,
		CheckedAt:        &ts,
		ChecklistResults: q.ChecklistResults,
		ParameterValues:  q.ParameterValues,
		IssueSeverity:    q.IssueSeverity,
		ImageURLs:        q.ImageURLs,
		CreatedAt:        q.CreatedAt,
	}
}

// Patch returns a patch with every mutable field of q defined.
func (q QualityCheck) Patch() QualityCheckPatch {
	ts := q.Timestamp
	status := q.Status
	return QualityCheckPatch{
		CheckTypeID:      q.CheckTypeID,
		PerformedBy:      q.PerformedBy,
		JobOrderID:       q.JobOrderID,
		RollID:           q.RollID,
		Status:           &status,
		Notes:            q.Notes,
		Timestamp:        &ts,
		ChecklistResults: orEmpty(q.ChecklistResults),
		ParameterValues:  orEmpty(q.ParameterValues),
		IssueSeverity:    q.IssueSeverity,
		ImageURLs:        orEmpty(q.ImageURLs),
	}
}

// ToRowFields emits only the defined fields, keyed by column name.
func (p QualityCheckPatch) ToRowFields() Fields {
	f := Fields{}
	if p.CheckTypeID != nil {
		f["check_type_id"] = *p.CheckTypeID
	}
	if p.PerformedBy != nil {
		f["checked_by"] = *p.PerformedBy
	}
	if p.JobOrderID != nil {
		f[ColJobOrderID] = *p.JobOrderID
	}
	if p.RollID != nil {
		f[ColRollID] = *p.RollID
	}
	if p.Status != nil {
		f["status"] = *p.Status
	}
	if p.Notes != nil {
		f["notes"] = *p.Notes
	}
	if p.Timestamp != nil {
		f["checked_at"] = *p.Timestamp
	}
	if p.ChecklistResults != nil {
		f["checklist_results"] = p.ChecklistResults
	}
	if p.ParameterValues != nil {
		f["parameter_values"] = p.ParameterValues
	}
	if p.IssueSeverity != nil {
		f["issue_severity"] = *p.IssueSeverity
	}
	if p.ImageURLs != nil {
		f["image_urls"] = p.ImageURLs
	}
	return f
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
