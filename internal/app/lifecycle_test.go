package app

import (
	"context"
	"errors"
	"testing"

	"github.com/riverqueue/river"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollworks.io/erp/internal/app/modules"
	"rollworks.io/erp/internal/diagnostics"
)

type downDB struct{}

func (downDB) Ping(context.Context) error { return errors.New("connection refused") }

type stubModule struct {
	name    string
	err     error
	stopped bool
}

func (m *stubModule) Name() string                       { return m.name }
func (m *stubModule) RegisterWorkers(*river.Workers)     {}
func (m *stubModule) PeriodicJobs() []*river.PeriodicJob { return nil }
func (m *stubModule) Shutdown(context.Context) error {
	m.stopped = true
	return m.err
}

func TestStart_FailsWhenDatabaseDown(t *testing.T) {
	app := &Application{Diagnostics: diagnostics.New(downDB{}, nil, nil, nil)}

	err := app.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database not ready")
}

func TestShutdown_StopsEveryModule(t *testing.T) {
	production := &stubModule{name: "production"}
	smsModule := &stubModule{name: "sms", err: errors.New("flush failed")}
	app := &Application{Modules: []modules.Module{production, nil, smsModule}}

	require.NoError(t, app.Start(context.Background()))
	assert.Equal(t, []string{"production", "sms"}, app.moduleNames())

	app.Shutdown()
	assert.True(t, production.stopped)
	assert.True(t, smsModule.stopped)
}
