package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"parkgate/internal/domain/actor"
	"parkgate/internal/domain/audit"
	"parkgate/internal/domain/reservation"
	"parkgate/internal/domain/slot"
	"parkgate/internal/pkg/errs"
	"parkgate/internal/usecase/shared"

	"github.com/google/uuid"
)

func (s *reservationCommandsImpl) CheckIn(ctx context.Context, act actor.Actor, p CheckInParams) (*reservation.Reservation, error) {
	var res *reservation.Reservation
	err := s.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		res, err = s.findForUpdate(ctx, tx, p.ReservationID)
		if err != nil {
			return err
		}
		if !actor.CanCustomerCheckIn(act, res.UserID()) {
			return errs.ErrNotOwner
		}
		return s.occupySlot(ctx, tx, act, res, p.SourceIP, false, nil)
	})
	if err != nil {
		return nil, s.fail(ctx, "check_in", act, &p.ReservationID, audit.ActionCheckIn, err)
	}

	s.metrics.RecordTransition("check_in", outcomeSuccess)
	s.notify(ctx, res, "checked_in", "Checked in",
		"You are checked in. Keep your checkout code handy for the exit gate.",
		map[string]any{"secret_code": res.SecretCode()})
	return res, nil
}

func (s *reservationCommandsImpl) RequestCheckout(ctx context.Context, act actor.Actor, reservationID uuid.UUID) (*CheckoutRequestResult, error) {
	var res *reservation.Reservation
	var already bool
	err := s.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		res, err = s.findForUpdate(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if !actor.CanRequestCheckout(act, res.UserID()) {
			return errs.ErrNotOwner
		}

		already, err = res.RequestCheckout(s.clock.Now())
		if err != nil {
			return errs.Mark(err, errs.ErrIllegalTransition)
		}
		if already {
			return nil
		}
		if err := tx.Reservations().Update(ctx, res); err != nil {
			return err
		}
		return s.auditSuccess(ctx, tx, act.ID, res.ID(), audit.ActionCheckoutRequest, nil)
	})
	if err != nil {
		return nil, s.fail(ctx, "checkout_request", act, &reservationID, audit.ActionCheckoutRequest, err)
	}

	s.metrics.RecordTransition("checkout_request", outcomeSuccess)
	if !already {
		s.notify(ctx, res, "checkout_requested", "Checkout requested",
			"Proceed to the exit gate and present your checkout code.", nil)
	}
	return &CheckoutRequestResult{Reservation: res, AlreadyRequested: already}, nil
}

func (s *reservationCommandsImpl) FinalCheckout(ctx context.Context, act actor.Actor, p CheckoutParams) (*reservation.Reservation, error) {
	var res *reservation.Reservation
	err := s.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		res, err = s.findForUpdate(ctx, tx, p.ReservationID)
		if err != nil {
			return err
		}
		if !actor.CanFinalCheckout(act, res.UserID()) {
			return errs.ErrNotOwner
		}

		if err := res.Checkout(s.clock.Now(), act.ID, p.SourceIP); err != nil {
			return errs.Mark(err, errs.ErrIllegalTransition)
		}
		return s.persistRelease(ctx, tx, act, res, audit.ActionCheckout, nil)
	})
	if err != nil {
		return nil, s.fail(ctx, "checkout", act, &p.ReservationID, audit.ActionCheckout, err)
	}

	s.metrics.RecordTransition("checkout", outcomeSuccess)
	s.notify(ctx, res, "checked_out", "Checked out",
		fmt.Sprintf("Thanks for parking with us. Total stay: %d minutes.", res.ActualMinutes()), nil)
	return res, nil
}

func (s *reservationCommandsImpl) DirectCheckIn(ctx context.Context, act actor.Actor, p DirectCheckInParams) (*reservation.Reservation, error) {
	fenceDetail, err := s.requireInsideFacility(p.Lat, p.Lon)
	if err != nil {
		return nil, s.fail(ctx, "direct_check_in", act, &p.ReservationID, audit.ActionDirectCheckIn, err)
	}

	var res *reservation.Reservation
	err = s.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		res, err = s.findForUpdate(ctx, tx, p.ReservationID)
		if err != nil {
			return err
		}
		if !actor.CanCustomerCheckIn(act, res.UserID()) {
			return errs.ErrNotOwner
		}
		return s.occupySlot(ctx, tx, act, res, p.SourceIP, true, fenceDetail)
	})
	if err != nil {
		return nil, s.fail(ctx, "direct_check_in", act, &p.ReservationID, audit.ActionDirectCheckIn, err)
	}

	s.metrics.RecordTransition("direct_check_in", outcomeSuccess)
	s.notify(ctx, res, "checked_in", "Checked in",
		"You are checked in. Keep your checkout code handy for the exit gate.",
		map[string]any{"secret_code": res.SecretCode()})
	return res, nil
}

func (s *reservationCommandsImpl) DirectCheckOut(ctx context.Context, act actor.Actor, p DirectCheckOutParams) (*DirectCheckOutResult, error) {
	fenceDetail, err := s.requireInsideFacility(p.Lat, p.Lon)
	if err != nil {
		return nil, s.fail(ctx, "direct_check_out", act, &p.ReservationID, audit.ActionDirectCheckOut, err)
	}

	var res *reservation.Reservation
	err = s.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		res, err = s.findForUpdate(ctx, tx, p.ReservationID)
		if err != nil {
			return err
		}
		if !actor.CanFinalCheckout(act, res.UserID()) {
			return errs.ErrNotOwner
		}

		now := s.clock.Now()
		var overtimeCharge reservation.Money
		if now.After(res.TimeSlot().End()) {
			rate, err := s.resolveRate(ctx, tx, res.VehicleType(), res.Zone(), res.TimeSlot().End())
			if err != nil {
				return err
			}
			overtimeCharge = s.engine.OvertimePrice(rate, res.TimeSlot().End(), now)
		}
		if err := res.DirectCheckOut(now, act.ID, p.SourceIP, overtimeCharge); err != nil {
			return errs.Mark(err, errs.ErrIllegalTransition)
		}
		detail := fenceDetail
		if res.OvertimeMinutes() > 0 {
			detail["overtime_minutes"] = res.OvertimeMinutes()
			detail["overtime_charge"] = res.OvertimeCharge().String()
		}
		return s.persistRelease(ctx, tx, act, res, audit.ActionDirectCheckOut, detail)
	})
	if err != nil {
		return nil, s.fail(ctx, "direct_check_out", act, &p.ReservationID, audit.ActionDirectCheckOut, err)
	}

	s.metrics.RecordTransition("direct_check_out", outcomeSuccess)
	message := fmt.Sprintf("Thanks for parking with us. Total stay: %d minutes.", res.ActualMinutes())
	if res.OvertimeMinutes() > 0 {
		message = fmt.Sprintf("%s Overtime: %d minutes (%s).",
			message, res.OvertimeMinutes(), res.OvertimeCharge().String())
	}
	s.notify(ctx, res, "checked_out", "Checked out", message, nil)
	return &DirectCheckOutResult{
		Reservation:     res,
		OvertimeMinutes: res.OvertimeMinutes(),
		OvertimeCharge:  res.OvertimeCharge(),
	}, nil
}

// occupySlot performs the shared entry sequence: lock the slot, reject a
// foreign occupant, issue a secret code and flip the occupied flag together
// with the status change.
func (s *reservationCommandsImpl) occupySlot(
	ctx context.Context,
	tx shared.Tx,
	act actor.Actor,
	res *reservation.Reservation,
	sourceIP string,
	direct bool,
	extraDetail map[string]any,
) error {
	sl, err := tx.Slots().FindByIDForUpdate(ctx, res.SlotID())
	if err != nil {
		return err
	}
	if err := s.rejectForeignOccupant(ctx, tx, sl, res.ID()); err != nil {
		return err
	}

	code, err := s.codes.Generate(ctx)
	if err != nil {
		if errors.Is(err, errs.ErrCodeSpaceExhausted) {
			s.alertCodeSpaceExhausted(ctx, act, res)
		}
		return err
	}

	now := s.clock.Now()
	if direct {
		err = res.DirectCheckIn(now, act.ID, sourceIP, code)
	} else {
		err = res.CheckIn(now, act.ID, sourceIP, code)
	}
	if err != nil {
		return errs.Mark(err, errs.ErrIllegalTransition)
	}

	if err := tx.Slots().SetOccupied(ctx, sl.ID(), true); err != nil {
		return err
	}
	if err := tx.Reservations().Update(ctx, res); err != nil {
		return err
	}

	action := audit.ActionCheckIn
	if direct {
		action = audit.ActionDirectCheckIn
	}
	detail := map[string]any{"source_ip": sourceIP}
	for k, v := range extraDetail {
		detail[k] = v
	}
	return s.auditSuccess(ctx, tx, act.ID, res.ID(), action, detail)
}

// alertCodeSpaceExhausted records the fatal generator state and pages staff.
// The pool-backed appender keeps the entry across the check-in rollback.
func (s *reservationCommandsImpl) alertCodeSpaceExhausted(ctx context.Context, act actor.Actor, res *reservation.Reservation) {
	id := res.ID()
	entry := audit.New(act.ID, &id, audit.ActionCodeSpaceExhausted, false, map[string]any{
		"slot_id": res.SlotID().String(),
	}, s.clock.Now())
	if err := s.uow.Audit().Append(ctx, entry); err != nil {
		slog.Error("failed to append code exhaustion audit entry", "error", err.Error())
	}
	if err := s.notifier.BroadcastStaff(ctx, "secret_code_exhausted", "Secret code space exhausted",
		"Secret code generation ran out of unique codes; check-ins are failing until old codes are purged.",
		map[string]any{"reservation_id": id.String()}); err != nil {
		slog.Warn("staff broadcast failed", "error", err.Error())
	}
}

// rejectForeignOccupant fails when another active reservation already holds
// the slot, clearing a stale occupied flag on the way.
func (s *reservationCommandsImpl) rejectForeignOccupant(ctx context.Context, tx shared.Tx, sl *slot.Slot, selfID uuid.UUID) error {
	if !sl.Occupied() {
		return nil
	}
	occupant, err := tx.Reservations().ActiveOccupant(ctx, sl.ID())
	if err != nil {
		return err
	}
	switch {
	case occupant == nil:
		sl.MarkFree()
		return tx.Slots().SetOccupied(ctx, sl.ID(), false)
	case *occupant != selfID:
		return errs.Mark(errs.New("slot is held by another vehicle"), errs.ErrSlotConflict)
	}
	return nil
}

// persistRelease writes the released reservation, frees the slot and records
// the success entry.
func (s *reservationCommandsImpl) persistRelease(
	ctx context.Context,
	tx shared.Tx,
	act actor.Actor,
	res *reservation.Reservation,
	action audit.Action,
	detail map[string]any,
) error {
	if err := tx.Slots().SetOccupied(ctx, res.SlotID(), false); err != nil {
		return err
	}
	if err := tx.Reservations().Update(ctx, res); err != nil {
		return err
	}
	if detail == nil {
		detail = map[string]any{}
	}
	detail["actual_minutes"] = res.ActualMinutes()
	return s.auditSuccess(ctx, tx, act.ID, res.ID(), action, detail)
}
