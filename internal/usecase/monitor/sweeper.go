package monitor

import (
	"context"
	"log/slog"

	"parkgate/internal/domain/audit"
	"parkgate/internal/infra"
	"parkgate/internal/pkg/clock"
	"parkgate/internal/usecase/shared"

	"github.com/google/uuid"
)

// ExpirySweeper expires confirmed reservations left past their end time so
// the slot's overlap window opens up again. Each reservation is swept in its
// own transaction; one failure does not block the rest.
type ExpirySweeper struct {
	uow     shared.UnitOfWork
	lister  ExpiredLister
	metrics shared.MetricsRecorder
	clock   clock.Clock
}

// ExpiredLister lists ids of confirmed reservations past their end time.
type ExpiredLister interface {
	ListExpiredConfirmedIDs(ctx context.Context) ([]uuid.UUID, error)
}

func NewExpirySweeper(uow shared.UnitOfWork, lister ExpiredLister, metrics shared.MetricsRecorder, clk clock.Clock) *ExpirySweeper {
	return &ExpirySweeper{uow: uow, lister: lister, metrics: metrics, clock: clk}
}

func (s *ExpirySweeper) RunScheduled(ctx context.Context) error {
	ids, err := s.lister.ListExpiredConfirmedIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.expireOne(ctx, id); err != nil {
			slog.Error("failed to expire reservation",
				"reservation_id", id.String(), "error", err.Error())
		}
	}
	return nil
}

func (s *ExpirySweeper) expireOne(ctx context.Context, id uuid.UUID) error {
	err := s.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		res, err := tx.Reservations().FindByIDForUpdate(ctx, id)
		if err != nil {
			// Raced with a customer action; nothing to sweep.
			if infra.IsKind(err, infra.KindNotFound) {
				return nil
			}
			return err
		}
		if err := res.Expire(s.clock.Now()); err != nil {
			// Status moved between listing and locking; skip.
			return nil
		}
		if err := tx.Reservations().Update(ctx, res); err != nil {
			return err
		}
		return tx.Audit().Append(ctx, audit.New(uuid.Nil, &id, audit.ActionExpire, true, map[string]any{
			"booked_end": res.TimeSlot().End(),
		}, s.clock.Now()))
	})
	if err == nil {
		s.metrics.RecordTransition("expire", "success")
	}
	return err
}
