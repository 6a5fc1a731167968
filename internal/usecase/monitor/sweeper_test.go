//go:build unit

package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkgate/internal/domain/audit"
	"parkgate/internal/domain/reservation"
	"parkgate/internal/infra"
	"parkgate/internal/pkg/clock"
	"parkgate/internal/usecase/shared"
)

type fakeLister struct {
	ids []uuid.UUID
	err error
}

func (f *fakeLister) ListExpiredConfirmedIDs(_ context.Context) ([]uuid.UUID, error) {
	return f.ids, f.err
}

type sweepRepo struct {
	byID    map[uuid.UUID]*reservation.Reservation
	updated []uuid.UUID
}

func (r *sweepRepo) Create(_ context.Context, _ *reservation.Reservation) error { return nil }

func (r *sweepRepo) Update(_ context.Context, res *reservation.Reservation) error {
	r.updated = append(r.updated, res.ID())
	return nil
}

func (r *sweepRepo) FindByIDForUpdate(_ context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	res, ok := r.byID[id]
	if !ok {
		return nil, infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
	}
	return res, nil
}

func (r *sweepRepo) FindConfirmedByPlate(_ context.Context, _ string, _, _ time.Time) (*reservation.Reservation, error) {
	return nil, infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
}

func (r *sweepRepo) CountOverlapping(_ context.Context, _ uuid.UUID, _, _ time.Time, _ uuid.UUID) (int, error) {
	return 0, nil
}

func (r *sweepRepo) ActiveOccupant(_ context.Context, _ uuid.UUID) (*uuid.UUID, error) {
	return nil, nil
}

type sweepTx struct {
	repo  *sweepRepo
	audit *fakeAppender
}

func (t *sweepTx) Reservations() shared.ReservationRepository { return t.repo }
func (t *sweepTx) Slots() shared.SlotRepository               { return nil }
func (t *sweepTx) Rates() shared.RateRepository               { return nil }
func (t *sweepTx) Audit() shared.AuditAppender                { return t.audit }

type sweepUoW struct {
	tx *sweepTx
}

func (u *sweepUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return fn(ctx, u.tx)
}

func (u *sweepUoW) Audit() shared.AuditAppender { return u.tx.audit }

func confirmedReservation(t *testing.T, start, end time.Time) *reservation.Reservation {
	t.Helper()
	interval, err := reservation.NewTimeSlot(start, end)
	require.NoError(t, err)
	return reservation.Reconstruct(reservation.ReconstructParams{
		ID:     uuid.New(),
		SlotID: uuid.New(),
		UserID: uuid.New(),
		Slot:   interval,
		Status: reservation.StatusConfirmed,
		Active: true,
	})
}

func newTestSweeper(lister *fakeLister, repo *sweepRepo) (*ExpirySweeper, *fakeAppender, *countingMetrics) {
	appender := &fakeAppender{}
	metrics := newCountingMetrics()
	uow := &sweepUoW{tx: &sweepTx{repo: repo, audit: appender}}
	s := NewExpirySweeper(uow, lister, metrics, clock.NewMockClock(scanNow))
	return s, appender, metrics
}

func TestExpirySweeper(t *testing.T) {
	ctx := context.Background()

	t.Run("expires confirmed reservations past their end", func(t *testing.T) {
		stale := confirmedReservation(t, scanNow.Add(-4*time.Hour), scanNow.Add(-time.Hour))
		repo := &sweepRepo{byID: map[uuid.UUID]*reservation.Reservation{stale.ID(): stale}}
		sweeper, appender, metrics := newTestSweeper(&fakeLister{ids: []uuid.UUID{stale.ID()}}, repo)

		require.NoError(t, sweeper.RunScheduled(ctx))

		assert.Equal(t, reservation.StatusExpired, stale.Status())
		assert.False(t, stale.IsActive())
		assert.Equal(t, []uuid.UUID{stale.ID()}, repo.updated)

		require.Len(t, appender.entries, 1)
		entry := appender.entries[0]
		assert.Equal(t, audit.ActionExpire, entry.Action)
		assert.Equal(t, uuid.Nil, entry.ActorID, "system actor")
		assert.True(t, entry.Success)
		assert.Equal(t, stale.TimeSlot().End(), entry.Detail["booked_end"])

		assert.Equal(t, 1, metrics.transitions["expire/success"])
	})

	t.Run("row gone between listing and locking is skipped", func(t *testing.T) {
		repo := &sweepRepo{byID: map[uuid.UUID]*reservation.Reservation{}}
		sweeper, appender, _ := newTestSweeper(&fakeLister{ids: []uuid.UUID{uuid.New()}}, repo)

		require.NoError(t, sweeper.RunScheduled(ctx))
		assert.Empty(t, repo.updated)
		assert.Empty(t, appender.entries)
	})

	t.Run("status moved between listing and locking is skipped", func(t *testing.T) {
		moved := confirmedReservation(t, scanNow.Add(-4*time.Hour), scanNow.Add(-time.Hour))
		require.NoError(t, moved.Cancel(scanNow.Add(-2*time.Hour)))
		repo := &sweepRepo{byID: map[uuid.UUID]*reservation.Reservation{moved.ID(): moved}}
		sweeper, appender, metrics := newTestSweeper(&fakeLister{ids: []uuid.UUID{moved.ID()}}, repo)

		require.NoError(t, sweeper.RunScheduled(ctx))

		assert.Equal(t, reservation.StatusCancelled, moved.Status())
		assert.Empty(t, repo.updated)
		assert.Empty(t, appender.entries)
		// The transaction committed cleanly even though nothing was swept.
		assert.Equal(t, 1, metrics.transitions["expire/success"])
	})

	t.Run("one failure does not block the rest", func(t *testing.T) {
		first := confirmedReservation(t, scanNow.Add(-4*time.Hour), scanNow.Add(-time.Hour))
		second := confirmedReservation(t, scanNow.Add(-4*time.Hour), scanNow.Add(-time.Hour))
		repo := &sweepRepo{byID: map[uuid.UUID]*reservation.Reservation{
			first.ID():  first,
			second.ID(): second,
		}}
		// An unknown id in the middle exercises the per-id isolation.
		sweeper, _, _ := newTestSweeper(&fakeLister{ids: []uuid.UUID{first.ID(), uuid.New(), second.ID()}}, repo)

		require.NoError(t, sweeper.RunScheduled(ctx))
		assert.Equal(t, reservation.StatusExpired, first.Status())
		assert.Equal(t, reservation.StatusExpired, second.Status())
	})

	t.Run("lister failure propagates", func(t *testing.T) {
		sweeper, _, _ := newTestSweeper(&fakeLister{err: assert.AnError}, &sweepRepo{})
		assert.Error(t, sweeper.RunScheduled(ctx))
	})
}
