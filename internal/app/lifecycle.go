package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"rollworks.io/erp/internal/pkg/logger"
)

const defaultShutdownTimeout = 30 * time.Second

// Start checks that the database answers, then starts River so queued
// sms_send and sms_retention jobs are consumed.
func (a *Application) Start(ctx context.Context) error {
	if a.Diagnostics != nil {
		if err := a.Diagnostics.Ready(ctx); err != nil {
			return fmt.Errorf("database not ready: %w", err)
		}
	}

	if a.DB != nil && a.DB.RiverClient != nil {
		if err := a.DB.RiverClient.Start(ctx); err != nil {
			return fmt.Errorf("start river client: %w", err)
		}
		logger.Info("River client started, jobs will now be consumed")
	}

	cascadeMode := ""
	if a.Cascade != nil {
		cascadeMode = a.Cascade.Mode()
	}
	logger.Info("Application started",
		zap.Strings("modules", a.moduleNames()),
		zap.String("cascade_mode", cascadeMode),
		zap.Bool("sms_queue", a.SMS != nil),
	)
	return nil
}

// Shutdown stops River before anything it depends on, then the modules,
// then drains the worker pools so pending event handlers finish before the
// database pool closes.
func (a *Application) Shutdown() {
	timeout := defaultShutdownTimeout
	if a.Config != nil && a.Config.Server.ShutdownTimeout > 0 {
		timeout = a.Config.Server.ShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if a.DB != nil && a.DB.RiverClient != nil {
		if err := a.DB.RiverClient.Stop(ctx); err != nil {
			logger.Error("failed to stop river client", zap.Error(err))
		}
		logger.Info("River client stopped")
	}

	for _, mod := range a.Modules {
		if mod == nil {
			continue
		}
		if err := mod.Shutdown(ctx); err != nil {
			logger.Warn("module shutdown returned error",
				zap.String("module", mod.Name()),
				zap.Error(err),
			)
			continue
		}
		logger.Debug("Module stopped", zap.String("module", mod.Name()))
	}

	if a.Pools != nil {
		a.Pools.Shutdown()
	}
	if a.DB != nil {
		a.DB.Close()
	}
	logger.Info("Application stopped", zap.Strings("modules", a.moduleNames()))
}

func (a *Application) moduleNames() []string {
	names := make([]string, 0, len(a.Modules))
	for _, mod := range a.Modules {
		if mod != nil {
			names = append(names, mod.Name())
		}
	}
	return names
}
