package bootstrap

import (
	"parkgate/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	DBModule,
	RedisModule,
	JWTModule,
	MetricsModule,
	NotifyModule,
	components.PersistenceModule,
	components.UseCaseModule,
	components.SchedulerModule,
	components.HandlerModule,
)
