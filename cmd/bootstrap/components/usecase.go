package components

import (
	"parkgate/internal/domain/geofence"
	"parkgate/internal/domain/pricing"
	"parkgate/internal/pkg/clock"
	"parkgate/internal/pkg/config"
	"parkgate/internal/pkg/secretcode"
	"parkgate/internal/usecase/commands"
	"parkgate/internal/usecase/monitor"
	"parkgate/internal/usecase/queries"
	"parkgate/internal/usecase/shared"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseCommandsModule,
	usecaseQueriesModule,
	usecaseMonitorModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	pricing.NewEngine,
	NewGeofenceValidator,
	fx.Annotate(
		secretcode.NewGenerator,
		fx.As(new(shared.CodeGenerator)),
	),
	func(cfg config.Config) config.BookingConfig { return cfg.Booking },
	func(cfg config.Config) config.MonitorConfig { return cfg.Monitor },
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewReservationCommands,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewReservationQueries,
	),
)

var usecaseMonitorModule = fx.Module("usecase/monitor",
	fx.Provide(
		monitor.NewLongStayMonitor,
		monitor.NewExpirySweeper,
	),
)

func NewGeofenceValidator(cfg config.Config) *geofence.Validator {
	facilities := make([]geofence.Facility, len(cfg.Geofence.Facilities))
	for i, f := range cfg.Geofence.Facilities {
		facilities[i] = geofence.Facility{
			Name:         f.Name,
			Lat:          f.Lat,
			Lon:          f.Lon,
			RadiusMeters: f.RadiusM,
		}
	}
	return geofence.NewValidator(facilities)
}
