package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollworks.io/erp/internal/domain"
	apperrors "rollworks.io/erp/internal/pkg/errors"
)

func TestColumnsOf(t *testing.T) {
	assert.Equal(t,
		[]string{"id", "mix_id", "raw_material_id", "quantity", "percentage", "created_at"},
		columnsOf[domain.MixItem]())

	for _, c := range columnsOf[domain.QualityCheckRow]() {
		assert.NotEmpty(t, c)
	}
	assert.Contains(t, columnsOf[domain.User](), "password_hash")
}

func TestCheckFields(t *testing.T) {
	tests := []struct {
		name    string
		table   func(f domain.Fields, insert bool) error
		fields  domain.Fields
		insert  bool
		wantErr bool
	}{
		{"known column", ordersTable.checkFields, domain.Fields{"status": "done"}, false, false},
		{"unknown column", ordersTable.checkFields, domain.Fields{"colour": "red"}, false, true},
		{"id on update", ordersTable.checkFields, domain.Fields{"id": 5}, false, true},
		{"serial id on insert", ordersTable.checkFields, domain.Fields{"id": 5}, true, true},
		{"created_at on insert", ordersTable.checkFields, domain.Fields{"created_at": 1}, true, true},
		{"client key on insert", rollsTable.checkFields, domain.Fields{"id": "R-1"}, true, false},
		{"client key on update", rollsTable.checkFields, domain.Fields{"id": "R-2"}, false, true},
		{"empty", customersTable.checkFields, domain.Fields{}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table(tt.fields, tt.insert)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidUpdateField))
			assert.ErrorIs(t, err, apperrors.ErrBadRequest)
		})
	}
}

func TestQualityCheckPatchColumnsAreWritable(t *testing.T) {
	sev := "minor"
	status := "failed"
	p := domain.QualityCheckPatch{
		Status:           &status,
		IssueSeverity:    &sev,
		ChecklistResults: []string{"ok"},
		ImageURLs:        []string{},
	}
	require.NoError(t, qualityChecksTable.checkFields(p.ToRowFields(), false))

	full := domain.QualityCheck{Status: "passed"}.Patch().ToRowFields()
	require.NoError(t, qualityChecksTable.checkFields(full, true))
}

func TestAllTablesHaveDescriptors(t *testing.T) {
	described := map[string]bool{}
	for _, name := range []string{
		rolesTable.name, permissionsTable.name, usersTable.name,
		customersTable.name, customerProductsTable.name, machinesTable.name,
		ordersTable.name, jobOrdersTable.name, rollsTable.name, finalProductsTable.name,
		qualityCheckTypesTable.name, qualityChecksTable.name, correctiveActionsTable.name,
		rawMaterialsTable.name, mixMaterialsTable.name, mixItemsTable.name, mixMachinesTable.name,
		timeAttendanceTable.name, leaveRequestsTable.name,
		maintenanceRequestsTable.name, maintenanceActionsTable.name,
		smsMessagesTable.name, iotSensorsTable.name, sensorReadingsTable.name, iotAlertsTable.name,
	} {
		described[name] = true
	}
	assert.Len(t, AllTables, len(described))
	for _, name := range AllTables {
		assert.True(t, described[name], name)
	}
}
