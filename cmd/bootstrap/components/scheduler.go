package components

import (
	"context"
	"log/slog"

	"parkgate/internal/pkg/config"
	"parkgate/internal/usecase/monitor"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
)

var SchedulerModule = fx.Module("scheduler",
	fx.Invoke(RegisterScheduledJobs),
)

// RegisterScheduledJobs runs the long-stay scan and the expiry sweep on cron
// specs from configuration. SkipIfStillRunning keeps a slow scan from piling
// up behind itself.
func RegisterScheduledJobs(
	lc fx.Lifecycle,
	cfg config.Config,
	longStay *monitor.LongStayMonitor,
	sweeper *monitor.ExpirySweeper,
) error {
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))

	if _, err := c.AddFunc(cfg.Monitor.ScanSpec, func() {
		if err := longStay.RunScheduled(context.Background()); err != nil {
			slog.Error("long-stay scan failed", "error", err.Error())
		}
	}); err != nil {
		return err
	}

	if _, err := c.AddFunc(cfg.Booking.ExpirySweepSpec, func() {
		if err := sweeper.RunScheduled(context.Background()); err != nil {
			slog.Error("expiry sweep failed", "error", err.Error())
		}
	}); err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			c.Start()
			slog.Info("scheduler started",
				"scan_spec", cfg.Monitor.ScanSpec,
				"expiry_spec", cfg.Booking.ExpirySweepSpec)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopCtx := c.Stop()
			select {
			case <-stopCtx.Done():
			case <-ctx.Done():
			}
			return nil
		},
	})

	return nil
}
