package components

import (
	"parkgate/internal/infra/readstore"
	"parkgate/internal/infra/repository"
	"parkgate/internal/infra/uow"
	"parkgate/internal/pkg/secretcode"
	"parkgate/internal/usecase/monitor"
	"parkgate/internal/usecase/queries"
	"parkgate/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewDBTX,
		uow.NewPostgresUoW,
		NewMonitorAuditAppender,
		// The read store serves the query side, the long-stay scanner, the
		// expiry sweeper and secret code uniqueness checks from one set of
		// pool-backed queries.
		fx.Annotate(
			readstore.NewReservationReadStore,
			fx.As(new(queries.ReservationReadStore)),
			fx.As(new(monitor.OccupancyReader)),
			fx.As(new(monitor.ExpiredLister)),
			fx.As(new(secretcode.UniquenessChecker)),
		),
		fx.Annotate(
			repository.NewRateRepository,
			fx.As(new(queries.RateReader)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) repository.DBTX {
	return pool
}

// NewMonitorAuditAppender hands the monitor the pool-backed audit writer.
// Monitor entries are informational and must not ride on any transaction.
func NewMonitorAuditAppender(u shared.UnitOfWork) shared.AuditAppender {
	return u.Audit()
}
