package shared

import (
	"context"
	"time"

	"parkgate/internal/domain/audit"
	"parkgate/internal/domain/pricing"
	"parkgate/internal/domain/reservation"
	"parkgate/internal/domain/slot"

	"github.com/google/uuid"
)

// UnitOfWork runs each lifecycle transition as a run-to-completion unit:
// reservation fields, slot flag and audit entry commit together or not at
// all. Within retries serialization failures with backoff.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Audit appends outside any transaction; used for failure entries that
	// must survive a rolled-back transition.
	Audit() AuditAppender
}

// Tx exposes repositories bound to one transaction.
type Tx interface {
	Reservations() ReservationRepository
	Slots() SlotRepository
	Rates() RateRepository
	Audit() AuditAppender
}

type ReservationRepository interface {
	Create(ctx context.Context, res *reservation.Reservation) error
	Update(ctx context.Context, res *reservation.Reservation) error
	// FindByIDForUpdate takes a row lock so the overlap-check-then-write
	// sequence is serialized per reservation.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error)
	// FindConfirmedByPlate matches a confirmed reservation by plate whose
	// start falls inside [from, to]; used by gate pre-verification.
	FindConfirmedByPlate(ctx context.Context, plate string, from, to time.Time) (*reservation.Reservation, error)
	// CountOverlapping implements the canonical overlap test over active
	// reservations on the slot, excluding excludeID.
	CountOverlapping(ctx context.Context, slotID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (int, error)
	// ActiveOccupant returns the id of the reservation currently occupying
	// the slot, if any.
	ActiveOccupant(ctx context.Context, slotID uuid.UUID) (*uuid.UUID, error)
}

type SlotRepository interface {
	// FindByIDForUpdate locks the slot row; concurrent create/extend/check-in
	// on the same slot serialize here.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*slot.Slot, error)
	SetOccupied(ctx context.Context, id uuid.UUID, occupied bool) error
}

type RateRepository interface {
	// FindApplicable returns candidate rates for the vehicle type and zone
	// (including any-zone and default-scope rates) effective at the instant.
	FindApplicable(ctx context.Context, vehicleType, zone string, at time.Time) ([]pricing.Rate, error)
}

type AuditAppender interface {
	Append(ctx context.Context, entry audit.Entry) error
}

// Notifier is the delivery-agnostic notification sink.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, title, message string, data map[string]any) error
	BroadcastStaff(ctx context.Context, kind, title, message string, data map[string]any) error
}

// CodeGenerator produces unique secret codes for check-in.
type CodeGenerator interface {
	Generate(ctx context.Context) (string, error)
}

// Interval is a candidate alternative returned alongside slot conflicts.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
