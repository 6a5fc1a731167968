package bootstrap

import (
	"context"

	"parkgate/internal/infra/notify"
	"parkgate/internal/pkg/config"
	"parkgate/internal/usecase/shared"

	"go.uber.org/fx"
)

var NotifyModule = fx.Module("notify",
	fx.Provide(
		NewNotifier,
	),
)

// NewNotifier assembles the composite notifier from whichever channels are
// configured. Unconfigured constructors return nil concrete pointers, which
// must stay out of the interface fields or the nil checks inside the
// composite would pass a typed nil.
func NewNotifier(lc fx.Lifecycle, cfg config.Config) shared.Notifier {
	var email notify.EmailSender
	if s := notify.NewSendGridSender(cfg.Notify); s != nil {
		email = s
	}

	var sms notify.SMSSender
	if s := notify.NewTwilioSender(cfg.Notify); s != nil {
		sms = s
	}

	var broadcast notify.StaffBroadcaster
	kafka, cleanup := notify.NewKafkaBroadcaster(cfg.Kafka)
	if kafka != nil {
		broadcast = kafka
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			cleanup()
			return nil
		},
	})

	return notify.NewCompositeNotifier(email, sms, broadcast)
}
