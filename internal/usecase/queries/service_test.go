//go:build unit

package queries

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkgate/internal/domain/actor"
	"parkgate/internal/domain/pricing"
	"parkgate/internal/infra"
	"parkgate/internal/pkg/clock"
	"parkgate/internal/pkg/config"
	"parkgate/internal/pkg/errs"
	"parkgate/internal/usecase/monitor"
)

var queryNow = time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC)

type fakeReadStore struct {
	views      map[uuid.UUID]*ReservationView
	byUser     []ReservationView
	lastFilter ListFilter
}

func (f *fakeReadStore) FindByID(_ context.Context, id uuid.UUID) (*ReservationView, error) {
	view, ok := f.views[id]
	if !ok {
		return nil, infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
	}
	return view, nil
}

func (f *fakeReadStore) ListByUser(_ context.Context, userID uuid.UUID, filter ListFilter) ([]ReservationView, error) {
	f.lastFilter = filter
	var out []ReservationView
	for _, v := range f.byUser {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeRateReader struct {
	rates []pricing.Rate
	err   error
}

func (f *fakeRateReader) FindApplicable(_ context.Context, _, _ string, _ time.Time) ([]pricing.Rate, error) {
	return f.rates, f.err
}

type fakeOccupancies struct {
	rows []monitor.OccupancyRow
	err  error
}

func (f *fakeOccupancies) ListOccupying(_ context.Context) ([]monitor.OccupancyRow, error) {
	return f.rows, f.err
}

func newTestQueries(reads *fakeReadStore, rates *fakeRateReader, rows []monitor.OccupancyRow) ReservationQueries {
	clk := clock.NewMockClock(queryNow)
	scanner := monitor.NewLongStayMonitor(&fakeOccupancies{rows: rows}, nil, nil, nil, nil, clk,
		config.MonitorConfig{WarningAfter: 20 * time.Hour, CriticalAfter: 24 * time.Hour})
	return NewReservationQueries(reads, rates, pricing.NewEngine(), scanner, clk)
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	owner := actor.New(uuid.New(), actor.RoleCustomer)
	view := &ReservationView{ID: uuid.New(), UserID: owner.ID, Status: "confirmed"}
	reads := &fakeReadStore{views: map[uuid.UUID]*ReservationView{view.ID: view}}
	svc := newTestQueries(reads, &fakeRateReader{}, nil)

	t.Run("owner reads own reservation", func(t *testing.T) {
		got, err := svc.Get(ctx, owner, view.ID)
		require.NoError(t, err)
		assert.Equal(t, view.ID, got.ID)
	})

	t.Run("staff reads anyone's", func(t *testing.T) {
		staff := actor.New(uuid.New(), actor.RoleSecurity)
		_, err := svc.Get(ctx, staff, view.ID)
		assert.NoError(t, err)
	})

	t.Run("strangers are refused", func(t *testing.T) {
		stranger := actor.New(uuid.New(), actor.RoleCustomer)
		_, err := svc.Get(ctx, stranger, view.ID)
		assert.ErrorIs(t, err, errs.ErrForbidden)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.Get(ctx, owner, uuid.New())
		assert.True(t, infra.IsKind(err, infra.KindNotFound))
	})
}

func TestListOwn(t *testing.T) {
	ctx := context.Background()
	owner := actor.New(uuid.New(), actor.RoleCustomer)
	other := actor.New(uuid.New(), actor.RoleCustomer)
	reads := &fakeReadStore{byUser: []ReservationView{
		{ID: uuid.New(), UserID: owner.ID},
		{ID: uuid.New(), UserID: other.ID},
		{ID: uuid.New(), UserID: owner.ID},
	}}
	svc := newTestQueries(reads, &fakeRateReader{}, nil)

	t.Run("returns only the caller's rows", func(t *testing.T) {
		got, err := svc.ListOwn(ctx, owner, ListFilter{Limit: 10})
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Equal(t, 10, reads.lastFilter.Limit)
	})

	limits := []struct {
		name  string
		given int
		want  int
	}{
		{name: "zero defaults to 50", given: 0, want: 50},
		{name: "negative defaults to 50", given: -5, want: 50},
		{name: "over the cap defaults to 50", given: 500, want: 50},
		{name: "in range passes through", given: 100, want: 100},
	}
	for _, tt := range limits {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ListOwn(ctx, owner, ListFilter{Limit: tt.given})
			require.NoError(t, err)
			assert.Equal(t, tt.want, reads.lastFilter.Limit)
		})
	}
}

func TestQuoteFee(t *testing.T) {
	ctx := context.Background()
	zone := "A"
	rate := pricing.Rate{
		ID:                  uuid.New(),
		VehicleType:         "car",
		Zone:                &zone,
		HourlyPaise:         1500,
		SpecialStartMin:     -1,
		SpecialEndMin:       -1,
		ExtensionMultiplier: 1.0,
	}

	t.Run("quotes with the resolved rate", func(t *testing.T) {
		svc := newTestQueries(&fakeReadStore{}, &fakeRateReader{rates: []pricing.Rate{rate}}, nil)
		quote, err := svc.QuoteFee(ctx, QuoteParams{
			VehicleType: "car",
			Zone:        "A",
			StartTime:   queryNow,
			EndTime:     queryNow.Add(2 * time.Hour),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3000), quote.TotalPaise)
		assert.Equal(t, "30.00", quote.Total)
		assert.Equal(t, int64(1500), quote.HourlyPaise)
		require.NotNil(t, quote.RateID)
		assert.Equal(t, rate.ID, *quote.RateID)
		assert.False(t, quote.Fallback)
	})

	t.Run("no rate falls back and says so", func(t *testing.T) {
		svc := newTestQueries(&fakeReadStore{}, &fakeRateReader{}, nil)
		quote, err := svc.QuoteFee(ctx, QuoteParams{
			VehicleType: "car",
			Zone:        "Z",
			StartTime:   queryNow,
			EndTime:     queryNow.Add(time.Hour),
		})
		require.NoError(t, err)
		assert.True(t, quote.Fallback)
		assert.Nil(t, quote.RateID)
		assert.Equal(t, int64(1000), quote.TotalPaise)
	})

	t.Run("inverted interval", func(t *testing.T) {
		svc := newTestQueries(&fakeReadStore{}, &fakeRateReader{}, nil)
		_, err := svc.QuoteFee(ctx, QuoteParams{
			VehicleType: "car",
			Zone:        "A",
			StartTime:   queryNow,
			EndTime:     queryNow.Add(-time.Hour),
		})
		assert.ErrorIs(t, err, errs.ErrInvalidInterval)
	})

	t.Run("rate lookup failure propagates", func(t *testing.T) {
		svc := newTestQueries(&fakeReadStore{}, &fakeRateReader{err: assert.AnError}, nil)
		_, err := svc.QuoteFee(ctx, QuoteParams{
			VehicleType: "car",
			Zone:        "A",
			StartTime:   queryNow,
			EndTime:     queryNow.Add(time.Hour),
		})
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestListLongStays(t *testing.T) {
	ctx := context.Background()
	rows := []monitor.OccupancyRow{
		{
			ReservationID: uuid.New(),
			SlotCode:      "A-101",
			VehiclePlate:  "KA01AB1234",
			Status:        "checked_in",
			CheckedInAt:   queryNow.Add(-21 * time.Hour),
		},
		{
			ReservationID: uuid.New(),
			SlotCode:      "A-102",
			Status:        "checked_in",
			CheckedInAt:   queryNow.Add(-2 * time.Hour),
		},
	}
	svc := newTestQueries(&fakeReadStore{}, &fakeRateReader{}, rows)

	t.Run("staff see classified long stays only", func(t *testing.T) {
		staff := actor.New(uuid.New(), actor.RoleSecurity)
		got, err := svc.ListLongStays(ctx, staff)
		require.NoError(t, err)
		require.Len(t, got, 1)

		want := LongStayView{
			ReservationID: rows[0].ReservationID,
			SlotCode:      "A-101",
			VehiclePlate:  "KA01AB1234",
			Status:        "checked_in",
			CheckedInAt:   rows[0].CheckedInAt,
			BookedEnd:     rows[0].BookedEnd,
			StayedHours:   21.0,
			Severity:      "warning",
		}
		if diff := cmp.Diff(want, got[0]); diff != "" {
			t.Errorf("long-stay view mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("customers are refused", func(t *testing.T) {
		customer := actor.New(uuid.New(), actor.RoleCustomer)
		_, err := svc.ListLongStays(ctx, customer)
		assert.ErrorIs(t, err, errs.ErrForbidden)
	})
}
