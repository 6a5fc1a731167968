package queries

import (
	"context"
	"time"

	"parkgate/internal/domain/actor"
	"parkgate/internal/domain/pricing"
	"parkgate/internal/domain/reservation"
	"parkgate/internal/pkg/clock"
	"parkgate/internal/pkg/errs"
	"parkgate/internal/usecase/monitor"

	"github.com/google/uuid"
)

// ReservationView is the flattened read model served to clients. The secret
// code is never exposed; only its presence is.
type ReservationView struct {
	ID              uuid.UUID
	SlotID          uuid.UUID
	SlotCode        string
	UserID          uuid.UUID
	VehiclePlate    string
	VehicleType     string
	Zone            string
	Status          string
	StartTime       time.Time
	EndTime         time.Time
	InitialEnd      time.Time
	TotalPricePaise int64
	ExtensionCount  int
	HasSecretCode   bool
	CheckedInAt     *time.Time
	CheckedOutAt    *time.Time
	ActualMinutes   int
	OvertimeMinutes int
	OvertimeCharge  int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type ListFilter struct {
	Status *string
	Limit  int
	Offset int
}

// ReservationReadStore reads reservation projections outside any transaction.
type ReservationReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ReservationView, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]ReservationView, error)
}

// RateReader reads candidate rates outside any transaction.
type RateReader interface {
	FindApplicable(ctx context.Context, vehicleType, zone string, at time.Time) ([]pricing.Rate, error)
}

type QuoteParams struct {
	VehicleType string
	Zone        string
	StartTime   time.Time
	EndTime     time.Time
}

type FeeQuote struct {
	VehicleType string
	Zone        string
	StartTime   time.Time
	EndTime     time.Time
	TotalPaise  int64
	Total       string
	HourlyPaise int64
	RateID      *uuid.UUID
	Fallback    bool
}

type LongStayView struct {
	ReservationID uuid.UUID
	SlotID        uuid.UUID
	SlotCode      string
	VehiclePlate  string
	Zone          string
	Status        string
	CheckedInAt   time.Time
	BookedEnd     time.Time
	StayedHours   float64
	Severity      string
}

type ReservationQueries interface {
	Get(ctx context.Context, act actor.Actor, id uuid.UUID) (*ReservationView, error)
	ListOwn(ctx context.Context, act actor.Actor, filter ListFilter) ([]ReservationView, error)
	QuoteFee(ctx context.Context, p QuoteParams) (*FeeQuote, error)
	ListLongStays(ctx context.Context, act actor.Actor) ([]LongStayView, error)
}

type reservationQueriesImpl struct {
	reads   ReservationReadStore
	rates   RateReader
	engine  *pricing.Engine
	scanner *monitor.LongStayMonitor
	clock   clock.Clock
}

func NewReservationQueries(
	reads ReservationReadStore,
	rates RateReader,
	engine *pricing.Engine,
	scanner *monitor.LongStayMonitor,
	clk clock.Clock,
) ReservationQueries {
	return &reservationQueriesImpl{
		reads:   reads,
		rates:   rates,
		engine:  engine,
		scanner: scanner,
		clock:   clk,
	}
}

func (q *reservationQueriesImpl) Get(ctx context.Context, act actor.Actor, id uuid.UUID) (*ReservationView, error) {
	view, err := q.reads.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanViewReservation(act, view.UserID) {
		return nil, errs.ErrForbidden
	}
	return view, nil
}

func (q *reservationQueriesImpl) ListOwn(ctx context.Context, act actor.Actor, filter ListFilter) ([]ReservationView, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	return q.reads.ListByUser(ctx, act.ID, filter)
}

// QuoteFee prices an interval without touching any reservation. It runs the
// same rate resolution and rounding as creation, so a quote matches the price
// a booking of the same interval would get.
func (q *reservationQueriesImpl) QuoteFee(ctx context.Context, p QuoteParams) (*FeeQuote, error) {
	interval, err := reservation.NewTimeSlot(p.StartTime, p.EndTime)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrInvalidInterval)
	}

	candidates, err := q.rates.FindApplicable(ctx, p.VehicleType, p.Zone, interval.Start())
	if err != nil {
		return nil, err
	}
	rate := q.engine.Resolve(candidates, interval.Start(), p.VehicleType, p.Zone)
	total := q.engine.Price(rate, interval.Start(), interval.End())

	quote := &FeeQuote{
		VehicleType: p.VehicleType,
		Zone:        p.Zone,
		StartTime:   interval.Start(),
		EndTime:     interval.End(),
		TotalPaise:  total.Paise(),
		Total:       total.String(),
		HourlyPaise: rate.HourlyPaise,
		Fallback:    rate.ID == uuid.Nil,
	}
	if rate.ID != uuid.Nil {
		id := rate.ID
		quote.RateID = &id
	}
	return quote, nil
}

func (q *reservationQueriesImpl) ListLongStays(ctx context.Context, act actor.Actor) ([]LongStayView, error) {
	if !actor.CanViewLongStays(act) {
		return nil, errs.ErrForbidden
	}
	findings, err := q.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]LongStayView, 0, len(findings))
	for _, f := range findings {
		views = append(views, LongStayView{
			ReservationID: f.Row.ReservationID,
			SlotID:        f.Row.SlotID,
			SlotCode:      f.Row.SlotCode,
			VehiclePlate:  f.Row.VehiclePlate,
			Zone:          f.Row.Zone,
			Status:        f.Row.Status,
			CheckedInAt:   f.Row.CheckedInAt,
			BookedEnd:     f.Row.BookedEnd,
			StayedHours:   f.Stayed.Hours(),
			Severity:      string(f.Severity),
		})
	}
	return views, nil
}
