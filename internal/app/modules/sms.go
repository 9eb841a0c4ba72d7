package modules

import (
	"context"
	"fmt"

	"github.com/riverqueue/river"

	"rollworks.io/erp/internal/sms"
)

// SMSModule owns message queueing and the delivery and retention workers.
type SMSModule struct {
	infra     *Infrastructure
	send      *sms.SendWorker
	retention *sms.RetentionWorker

	// Service is set by BindQueue once the River client exists.
	Service *sms.Service
}

// NewSMSModule builds the workers. gateway may be nil only in dry-run mode.
func NewSMSModule(infra *Infrastructure, gateway sms.Gateway) (*SMSModule, error) {
	cfg := infra.Config.SMS
	if gateway == nil {
		if !cfg.DryRun {
			return nil, fmt.Errorf("sms: no gateway configured and sms.dry_run is false")
		}
		gateway = sms.LogGateway{}
	}
	return &SMSModule{
		infra:     infra,
		send:      sms.NewSendWorker(infra.Store.SMS, gateway, cfg.SenderID, infra.Events),
		retention: sms.NewRetentionWorker(infra.Store.SMS, cfg.Retention),
	}, nil
}

// BindQueue creates the queueing service on top of the River client.
func (m *SMSModule) BindQueue(jobs sms.JobInserter) {
	m.Service = sms.NewService(m.infra.DB.Pool, jobs, m.infra.Config.SMS.DefaultRegion)
}

func (m *SMSModule) Name() string { return "sms" }

func (m *SMSModule) RegisterWorkers(workers *river.Workers) {
	sms.Register(workers, m.send, m.retention)
}

func (m *SMSModule) PeriodicJobs() []*river.PeriodicJob { return sms.PeriodicJobs() }

func (m *SMSModule) Shutdown(context.Context) error { return nil }
