package commands

import (
	"context"
	"log/slog"
	"time"

	"parkgate/internal/domain/actor"
	"parkgate/internal/domain/audit"
	"parkgate/internal/domain/geofence"
	"parkgate/internal/domain/pricing"
	"parkgate/internal/domain/reservation"
	"parkgate/internal/pkg/clock"
	"parkgate/internal/pkg/config"
	"parkgate/internal/usecase/shared"

	"github.com/google/uuid"
)

const (
	outcomeSuccess  = "success"
	outcomeConflict = "conflict"
	outcomeFailure  = "failure"
)

type CreateParams struct {
	SlotID       uuid.UUID
	VehiclePlate string
	VehicleType  string
	ContactEmail string
	ContactPhone string
	StartTime    time.Time
	EndTime      time.Time
}

type GateVerifyParams struct {
	ReservationID *uuid.UUID
	VehiclePlate  string
	Notes         string
}

type CheckInParams struct {
	ReservationID uuid.UUID
	SourceIP      string
}

type GateCheckoutVerifyParams struct {
	ReservationID uuid.UUID
	SecretCode    string
	Notes         string
}

type CheckoutParams struct {
	ReservationID uuid.UUID
	SourceIP      string
}

type DirectCheckInParams struct {
	ReservationID uuid.UUID
	SourceIP      string
	Lat           float64
	Lon           float64
}

type DirectCheckOutParams struct {
	ReservationID uuid.UUID
	SourceIP      string
	Lat           float64
	Lon           float64
}

type ExtendParams struct {
	ReservationID uuid.UUID
	NewEndTime    time.Time
}

type EarlyCheckInParams struct {
	ReservationID uuid.UUID
	NewStartTime  time.Time
}

type CheckoutRequestResult struct {
	Reservation      *reservation.Reservation
	AlreadyRequested bool
}

type CancelResult struct {
	Reservation    *reservation.Reservation
	RefundEstimate reservation.Money
}

type DirectCheckOutResult struct {
	Reservation     *reservation.Reservation
	OvertimeMinutes int
	OvertimeCharge  reservation.Money
}

type ReservationCommands interface {
	Create(ctx context.Context, act actor.Actor, p CreateParams) (*reservation.Reservation, error)
	GateVerify(ctx context.Context, act actor.Actor, p GateVerifyParams) (*reservation.Reservation, error)
	CheckIn(ctx context.Context, act actor.Actor, p CheckInParams) (*reservation.Reservation, error)
	RequestCheckout(ctx context.Context, act actor.Actor, reservationID uuid.UUID) (*CheckoutRequestResult, error)
	GateCheckoutVerify(ctx context.Context, act actor.Actor, p GateCheckoutVerifyParams) (*reservation.Reservation, error)
	FinalCheckout(ctx context.Context, act actor.Actor, p CheckoutParams) (*reservation.Reservation, error)
	DirectCheckIn(ctx context.Context, act actor.Actor, p DirectCheckInParams) (*reservation.Reservation, error)
	DirectCheckOut(ctx context.Context, act actor.Actor, p DirectCheckOutParams) (*DirectCheckOutResult, error)
	Cancel(ctx context.Context, act actor.Actor, reservationID uuid.UUID) (*CancelResult, error)
	Extend(ctx context.Context, act actor.Actor, p ExtendParams) (*reservation.Reservation, error)
	EarlyCheckIn(ctx context.Context, act actor.Actor, p EarlyCheckInParams) (*reservation.Reservation, error)
}

type reservationCommandsImpl struct {
	uow      shared.UnitOfWork
	engine   *pricing.Engine
	codes    shared.CodeGenerator
	fence    *geofence.Validator
	notifier shared.Notifier
	metrics  shared.MetricsRecorder
	clock    clock.Clock
	cfg      config.BookingConfig
}

func NewReservationCommands(
	uow shared.UnitOfWork,
	engine *pricing.Engine,
	codes shared.CodeGenerator,
	fence *geofence.Validator,
	notifier shared.Notifier,
	metrics shared.MetricsRecorder,
	clk clock.Clock,
	cfg config.BookingConfig,
) ReservationCommands {
	return &reservationCommandsImpl{
		uow:      uow,
		engine:   engine,
		codes:    codes,
		fence:    fence,
		notifier: notifier,
		metrics:  metrics,
		clock:    clk,
		cfg:      cfg,
	}
}

// resolveRate loads the candidate rates inside the current transaction and
// resolves the most specific one for the anchor instant.
func (s *reservationCommandsImpl) resolveRate(ctx context.Context, tx shared.Tx, vehicleType, zone string, anchor time.Time) (pricing.Rate, error) {
	rates, err := tx.Rates().FindApplicable(ctx, vehicleType, zone, anchor)
	if err != nil {
		return pricing.Rate{}, err
	}
	return s.engine.Resolve(rates, anchor, vehicleType, zone), nil
}

func (s *reservationCommandsImpl) auditSuccess(ctx context.Context, tx shared.Tx, actorID uuid.UUID, reservationID uuid.UUID, action audit.Action, detail map[string]any) error {
	return tx.Audit().Append(ctx, audit.New(actorID, &reservationID, action, true, detail, s.clock.Now()))
}

// auditFailure records a failure-flagged entry outside the rolled-back
// transaction so it survives the rollback.
func (s *reservationCommandsImpl) auditFailure(ctx context.Context, actorID uuid.UUID, reservationID *uuid.UUID, action audit.Action, reason string) {
	entry := audit.New(actorID, reservationID, action, false, map[string]any{"reason": reason}, s.clock.Now())
	if err := s.uow.Audit().Append(ctx, entry); err != nil {
		slog.Error("failed to append failure audit entry",
			"action", string(action), "error", err.Error())
	}
}

func (s *reservationCommandsImpl) notify(ctx context.Context, res *reservation.Reservation, kind, title, message string, extra map[string]any) {
	data := map[string]any{
		"reservation_id": res.ID().String(),
		"slot_id":        res.SlotID().String(),
		"status":         res.Status().String(),
		"email":          res.ContactEmail(),
		"phone":          res.ContactPhone(),
	}
	for k, v := range extra {
		data[k] = v
	}
	if err := s.notifier.Notify(ctx, res.UserID(), kind, title, message, data); err != nil {
		slog.Warn("notification delivery failed",
			"reservation_id", res.ID().String(), "kind", kind, "error", err.Error())
	}
}

// fail records the failure metric and, when the reservation is known, a
// failure-flagged audit entry.
func (s *reservationCommandsImpl) fail(ctx context.Context, op string, act actor.Actor, reservationID *uuid.UUID, action audit.Action, err error) error {
	s.metrics.RecordTransition(op, outcomeFailure)
	if reservationID != nil {
		s.auditFailure(ctx, act.ID, reservationID, action, err.Error())
	}
	return err
}
