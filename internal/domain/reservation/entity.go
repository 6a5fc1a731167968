package reservation

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidTimeSlot      = errors.New("invalid time slot")
	ErrNegativePrice        = errors.New("price cannot be negative")
	ErrAlreadyCheckedIn     = errors.New("reservation is already checked in")
	ErrNoSecretCode         = errors.New("no secret code assigned")
	ErrSecretCodeMismatch   = errors.New("secret code mismatch")
	ErrExtensionNotBeyond   = errors.New("extension must move the end time forward")
	ErrEarlyStartNotBefore  = errors.New("early check-in must move the start time backward")
	ErrCancelAfterCheckIn   = errors.New("checked-in reservations cannot be cancelled")
	ErrNotCheckedIn         = errors.New("reservation is not checked in")
	ErrOutsideVerifyWindow  = errors.New("outside gate verification window")
)

// StateError reports an operation attempted in the wrong lifecycle status.
type StateError struct {
	Current  Status
	Expected []Status
}

func (e *StateError) Error() string {
	return fmt.Sprintf("illegal transition: status is %q, expected one of %v", e.Current, e.Expected)
}

func newStateError(current Status, expected ...Status) *StateError {
	return &StateError{Current: current, Expected: expected}
}

// Reservation is a vehicle's time-bound claim on a slot, governed by the
// lifecycle graph in types.go. All mutation goes through transition methods
// so that an invalid call never leaves partial state behind.
type Reservation struct {
	id           uuid.UUID
	slotID       uuid.UUID
	userID       uuid.UUID
	vehiclePlate string
	vehicleType  string
	zone         string
	contactEmail string
	contactPhone string

	timeSlot   TimeSlot
	initialEnd time.Time
	status     Status
	totalPrice Money
	extensions []Extension

	secretCode        string
	entryVerification *Verification
	exitVerification  *Verification
	checkIn           *CheckEvent
	checkOut          *CheckEvent

	actualMinutes   int
	overtimeMinutes int
	overtimeCharge  Money

	active    bool
	createdAt time.Time
	updatedAt time.Time
}

type NewReservationParams struct {
	SlotID       uuid.UUID
	UserID       uuid.UUID
	VehiclePlate string
	VehicleType  string
	Zone         string
	ContactEmail string
	ContactPhone string
	Slot         TimeSlot
	Price        Money
	Now          time.Time
}

func NewReservation(p NewReservationParams) (*Reservation, error) {
	if p.Slot.Duration() <= 0 {
		return nil, ErrInvalidTimeSlot
	}
	if p.Price.IsNegative() {
		return nil, ErrNegativePrice
	}

	return &Reservation{
		id:           uuid.New(),
		slotID:       p.SlotID,
		userID:       p.UserID,
		vehiclePlate: p.VehiclePlate,
		vehicleType:  p.VehicleType,
		zone:         p.Zone,
		contactEmail: p.ContactEmail,
		contactPhone: p.ContactPhone,
		timeSlot:     p.Slot,
		initialEnd:   p.Slot.End(),
		status:       StatusConfirmed,
		totalPrice:   p.Price,
		active:       true,
		createdAt:    p.Now,
		updatedAt:    p.Now,
	}, nil
}

// ReconstructParams mirrors the persisted row; used only by the repository.
type ReconstructParams struct {
	ID                uuid.UUID
	SlotID            uuid.UUID
	UserID            uuid.UUID
	VehiclePlate      string
	VehicleType       string
	Zone              string
	ContactEmail      string
	ContactPhone      string
	Slot              TimeSlot
	InitialEnd        time.Time
	Status            Status
	TotalPrice        Money
	Extensions        []Extension
	SecretCode        string
	EntryVerification *Verification
	ExitVerification  *Verification
	CheckIn           *CheckEvent
	CheckOut          *CheckEvent
	ActualMinutes     int
	OvertimeMinutes   int
	OvertimeCharge    Money
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func Reconstruct(p ReconstructParams) *Reservation {
	return &Reservation{
		id:                p.ID,
		slotID:            p.SlotID,
		userID:            p.UserID,
		vehiclePlate:      p.VehiclePlate,
		vehicleType:       p.VehicleType,
		zone:              p.Zone,
		contactEmail:      p.ContactEmail,
		contactPhone:      p.ContactPhone,
		timeSlot:          p.Slot,
		initialEnd:        p.InitialEnd,
		status:            p.Status,
		totalPrice:        p.TotalPrice,
		extensions:        p.Extensions,
		secretCode:        p.SecretCode,
		entryVerification: p.EntryVerification,
		exitVerification:  p.ExitVerification,
		checkIn:           p.CheckIn,
		checkOut:          p.CheckOut,
		actualMinutes:     p.ActualMinutes,
		overtimeMinutes:   p.OvertimeMinutes,
		overtimeCharge:    p.OvertimeCharge,
		active:            p.Active,
		createdAt:         p.CreatedAt,
		updatedAt:         p.UpdatedAt,
	}
}

func (r *Reservation) transition(next Status, now time.Time) error {
	if !r.status.CanTransitionTo(next) {
		return newStateError(r.status, next)
	}
	r.status = next
	r.updatedAt = now
	return nil
}

// GateVerify is the staff pre-authorization step. It is only accepted inside
// the bounded window before the booked start and never touches occupancy.
func (r *Reservation) GateVerify(now time.Time, verifierID uuid.UUID, notes string, window time.Duration) error {
	if r.status != StatusConfirmed {
		return newStateError(r.status, StatusConfirmed)
	}
	if now.Before(r.timeSlot.Start().Add(-window)) || now.After(r.timeSlot.End()) {
		return ErrOutsideVerifyWindow
	}
	r.entryVerification = &Verification{VerifierID: verifierID, At: now, Notes: notes}
	return r.transition(StatusVerified, now)
}

// CheckIn moves a gate-verified reservation into occupancy and binds the
// secret code that will be demanded at checkout.
func (r *Reservation) CheckIn(now time.Time, actorID uuid.UUID, sourceIP, code string) error {
	if r.status != StatusVerified {
		return newStateError(r.status, StatusVerified)
	}
	return r.occupy(now, actorID, sourceIP, code)
}

// DirectCheckIn is the self-service path: it skips gate verification, so it
// is legal from confirmed as well. The caller must have passed the geofence
// gate before invoking this.
func (r *Reservation) DirectCheckIn(now time.Time, actorID uuid.UUID, sourceIP, code string) error {
	if r.status != StatusConfirmed && r.status != StatusVerified {
		return newStateError(r.status, StatusConfirmed, StatusVerified)
	}
	return r.occupy(now, actorID, sourceIP, code)
}

func (r *Reservation) occupy(now time.Time, actorID uuid.UUID, sourceIP, code string) error {
	if err := r.transition(StatusCheckedIn, now); err != nil {
		return err
	}
	r.secretCode = code
	r.checkIn = &CheckEvent{At: now, ActorID: actorID, SourceIP: sourceIP}
	return nil
}

// RequestCheckout is idempotent: repeated calls at or beyond
// checkout_requested report alreadyRequested instead of failing.
func (r *Reservation) RequestCheckout(now time.Time) (alreadyRequested bool, err error) {
	switch r.status {
	case StatusCheckoutRequested, StatusCheckoutVerified, StatusCheckedOut:
		return true, nil
	case StatusCheckedIn:
		return false, r.transition(StatusCheckoutRequested, now)
	default:
		return false, newStateError(r.status, StatusCheckedIn)
	}
}

// ValidateCode fails closed with a distinct error per reason.
func (r *Reservation) ValidateCode(code string) error {
	if r.secretCode == "" {
		return ErrNoSecretCode
	}
	if r.secretCode != code {
		return ErrSecretCodeMismatch
	}
	return nil
}

// VerifyCheckout is the staff gate step at exit. Code must match; a mismatch
// leaves the reservation untouched.
func (r *Reservation) VerifyCheckout(now time.Time, verifierID uuid.UUID, notes, code string) error {
	if r.status != StatusCheckoutRequested && r.status != StatusCheckedIn {
		return newStateError(r.status, StatusCheckoutRequested, StatusCheckedIn)
	}
	if err := r.ValidateCode(code); err != nil {
		return err
	}
	r.exitVerification = &Verification{VerifierID: verifierID, At: now, Notes: notes}
	return r.transition(StatusCheckoutVerified, now)
}

// Checkout completes a gate-verified exit.
func (r *Reservation) Checkout(now time.Time, actorID uuid.UUID, sourceIP string) error {
	if r.status != StatusCheckoutVerified {
		return newStateError(r.status, StatusCheckoutVerified)
	}
	return r.release(now, actorID, sourceIP)
}

// DirectCheckOut is the self-service exit. Overtime past the booked end is
// recorded here; the charge is merged into the total only via Extend.
func (r *Reservation) DirectCheckOut(now time.Time, actorID uuid.UUID, sourceIP string, overtimeCharge Money) error {
	if !r.status.IsOccupying() {
		return newStateError(r.status, StatusCheckedIn, StatusCheckoutRequested, StatusCheckoutVerified)
	}
	if now.After(r.timeSlot.End()) {
		r.overtimeMinutes = int(now.Sub(r.timeSlot.End()).Minutes())
		r.overtimeCharge = overtimeCharge
	}
	return r.release(now, actorID, sourceIP)
}

func (r *Reservation) release(now time.Time, actorID uuid.UUID, sourceIP string) error {
	if r.checkIn == nil {
		return ErrNotCheckedIn
	}
	if err := r.transition(StatusCheckedOut, now); err != nil {
		return err
	}
	r.checkOut = &CheckEvent{At: now, ActorID: actorID, SourceIP: sourceIP}
	r.actualMinutes = int(now.Sub(r.checkIn.At).Minutes())
	r.active = false
	return nil
}

// Cancel is only legal before check-in.
func (r *Reservation) Cancel(now time.Time) error {
	if r.status.IsOccupying() || r.status == StatusCheckoutVerified {
		return ErrCancelAfterCheckIn
	}
	if r.status != StatusConfirmed {
		return newStateError(r.status, StatusConfirmed)
	}
	if err := r.transition(StatusCancelled, now); err != nil {
		return err
	}
	r.active = false
	return nil
}

// Expire closes a confirmed reservation whose end passed without check-in.
func (r *Reservation) Expire(now time.Time) error {
	if r.status != StatusConfirmed {
		return newStateError(r.status, StatusConfirmed)
	}
	if err := r.transition(StatusExpired, now); err != nil {
		return err
	}
	r.active = false
	return nil
}

// RefundEstimate: full before start, linear proration of the unused interval
// after start, nothing past the booked end.
func (r *Reservation) RefundEstimate(now time.Time) Money {
	if now.Before(r.timeSlot.Start()) {
		return r.totalPrice
	}
	if !now.Before(r.timeSlot.End()) {
		return NewMoney(0)
	}
	remaining := r.timeSlot.End().Sub(now).Minutes()
	total := r.timeSlot.Duration().Minutes()
	return r.totalPrice.MulRounded(remaining / total)
}

// Extend appends an extension record and pushes the end time forward.
// The invariant end > start is preserved by construction.
func (r *Reservation) Extend(now time.Time, newEnd time.Time, additionalCost Money) error {
	if r.status.IsTerminal() {
		return newStateError(r.status, StatusConfirmed, StatusVerified, StatusCheckedIn, StatusCheckoutRequested)
	}
	if !newEnd.After(r.timeSlot.End()) {
		return ErrExtensionNotBeyond
	}
	slot, err := NewTimeSlot(r.timeSlot.Start(), newEnd)
	if err != nil {
		return ErrInvalidTimeSlot
	}
	r.timeSlot = slot
	r.totalPrice = r.totalPrice.Add(additionalCost)
	r.extensions = append(r.extensions, Extension{
		At:             now,
		NewEnd:         newEnd,
		AdditionalCost: additionalCost,
	})
	r.updatedAt = now
	return nil
}

// PullStartEarlier moves the start backward before check-in. The total is
// replaced with the price recomputed over the whole longer interval; see
// the pricing engine for the formula.
func (r *Reservation) PullStartEarlier(now time.Time, newStart time.Time, newTotal Money) error {
	if r.status != StatusConfirmed && r.status != StatusVerified {
		return newStateError(r.status, StatusConfirmed, StatusVerified)
	}
	if !newStart.Before(r.timeSlot.Start()) {
		return ErrEarlyStartNotBefore
	}
	if newTotal.IsNegative() {
		return ErrNegativePrice
	}
	slot, err := NewTimeSlot(newStart, r.timeSlot.End())
	if err != nil {
		return ErrInvalidTimeSlot
	}
	r.timeSlot = slot
	r.totalPrice = newTotal
	r.updatedAt = now
	return nil
}

func (r *Reservation) IsActive() bool    { return r.active }
func (r *Reservation) IsOccupying() bool { return r.status.IsOccupying() }

func (r *Reservation) ID() uuid.UUID                     { return r.id }
func (r *Reservation) SlotID() uuid.UUID                 { return r.slotID }
func (r *Reservation) UserID() uuid.UUID                 { return r.userID }
func (r *Reservation) VehiclePlate() string              { return r.vehiclePlate }
func (r *Reservation) VehicleType() string               { return r.vehicleType }
func (r *Reservation) Zone() string                      { return r.zone }
func (r *Reservation) ContactEmail() string              { return r.contactEmail }
func (r *Reservation) ContactPhone() string              { return r.contactPhone }
func (r *Reservation) TimeSlot() TimeSlot                { return r.timeSlot }
func (r *Reservation) InitialEnd() time.Time             { return r.initialEnd }
func (r *Reservation) Status() Status                    { return r.status }
func (r *Reservation) TotalPrice() Money                 { return r.totalPrice }
func (r *Reservation) Extensions() []Extension           { return r.extensions }
func (r *Reservation) ExtensionCount() int               { return len(r.extensions) }
func (r *Reservation) SecretCode() string                { return r.secretCode }
func (r *Reservation) EntryVerification() *Verification  { return r.entryVerification }
func (r *Reservation) ExitVerification() *Verification   { return r.exitVerification }
func (r *Reservation) CheckInEvent() *CheckEvent         { return r.checkIn }
func (r *Reservation) CheckOutEvent() *CheckEvent        { return r.checkOut }
func (r *Reservation) ActualMinutes() int                { return r.actualMinutes }
func (r *Reservation) OvertimeMinutes() int              { return r.overtimeMinutes }
func (r *Reservation) OvertimeCharge() Money             { return r.overtimeCharge }
func (r *Reservation) CreatedAt() time.Time              { return r.createdAt }
func (r *Reservation) UpdatedAt() time.Time              { return r.updatedAt }
