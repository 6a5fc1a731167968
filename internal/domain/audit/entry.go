package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action names every auditable lifecycle event.
type Action string

const (
	ActionCreate             Action = "reservation.create"
	ActionGateVerify         Action = "reservation.gate_verify"
	ActionCheckIn            Action = "reservation.check_in"
	ActionCheckoutRequest    Action = "reservation.checkout_request"
	ActionGateCheckoutVerify Action = "reservation.gate_checkout_verify"
	ActionCheckout           Action = "reservation.checkout"
	ActionDirectCheckIn      Action = "reservation.direct_check_in"
	ActionDirectCheckOut     Action = "reservation.direct_check_out"
	ActionCancel             Action = "reservation.cancel"
	ActionExtend             Action = "reservation.extend"
	ActionEarlyCheckIn       Action = "reservation.early_check_in"
	ActionExpire             Action = "reservation.expire"
	ActionLongStayWarning    Action = "monitor.long_stay_warning"
	ActionLongStayCritical   Action = "monitor.long_stay_critical"
	ActionCodeSpaceExhausted Action = "secretcode.space_exhausted"
)

// Entry is an immutable, append-only audit record. Every mutating transition
// writes exactly one, success or failure.
type Entry struct {
	ID            uuid.UUID
	ActorID       uuid.UUID
	ReservationID *uuid.UUID
	Action        Action
	Success       bool
	Detail        map[string]any
	At            time.Time
}

func New(actorID uuid.UUID, reservationID *uuid.UUID, action Action, success bool, detail map[string]any, at time.Time) Entry {
	return Entry{
		ID:            uuid.New(),
		ActorID:       actorID,
		ReservationID: reservationID,
		Action:        action,
		Success:       success,
		Detail:        detail,
		At:            at,
	}
}
