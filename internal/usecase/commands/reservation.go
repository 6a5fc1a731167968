package commands

import (
	"context"
	"errors"
	"fmt"

	"parkgate/internal/domain/actor"
	"parkgate/internal/domain/audit"
	"parkgate/internal/domain/reservation"
	"parkgate/internal/infra"
	"parkgate/internal/pkg/errs"
	"parkgate/internal/usecase/shared"

	"github.com/google/uuid"
)

func (s *reservationCommandsImpl) Create(ctx context.Context, act actor.Actor, p CreateParams) (*reservation.Reservation, error) {
	interval, err := reservation.NewTimeSlot(p.StartTime, p.EndTime)
	if err != nil {
		s.metrics.RecordTransition("create", outcomeFailure)
		return nil, errs.Mark(err, errs.ErrInvalidInterval)
	}

	var res *reservation.Reservation
	err = s.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		sl, err := tx.Slots().FindByIDForUpdate(ctx, p.SlotID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return errs.ErrSlotNotFound
			}
			return err
		}
		if err := sl.ValidateVehicle(p.VehicleType); err != nil {
			return errs.Mark(err, errs.ErrSlotIncompatible)
		}
		if err := s.checkSlotAvailability(ctx, tx, sl, interval, uuid.Nil); err != nil {
			return err
		}

		rate, err := s.resolveRate(ctx, tx, p.VehicleType, sl.Zone(), interval.Start())
		if err != nil {
			return err
		}
		price := s.engine.Price(rate, interval.Start(), interval.End())

		res, err = reservation.NewReservation(reservation.NewReservationParams{
			SlotID:       sl.ID(),
			UserID:       act.ID,
			VehiclePlate: p.VehiclePlate,
			VehicleType:  p.VehicleType,
			Zone:         sl.Zone(),
			ContactEmail: p.ContactEmail,
			ContactPhone: p.ContactPhone,
			Slot:         interval,
			Price:        price,
			Now:          s.clock.Now(),
		})
		if err != nil {
			return errs.Mark(err, errs.ErrDomainValidation)
		}
		if err := tx.Reservations().Create(ctx, res); err != nil {
			return err
		}
		return s.auditSuccess(ctx, tx, act.ID, res.ID(), audit.ActionCreate, map[string]any{
			"slot_id": sl.ID().String(),
			"start":   interval.Start(),
			"end":     interval.End(),
			"price":   price.String(),
		})
	})
	if err != nil {
		if errors.Is(err, errs.ErrSlotConflict) {
			s.metrics.RecordTransition("create", outcomeConflict)
		} else {
			s.metrics.RecordTransition("create", outcomeFailure)
		}
		return nil, err
	}

	s.metrics.RecordTransition("create", outcomeSuccess)
	s.notify(ctx, res, "reservation_confirmed", "Reservation confirmed",
		fmt.Sprintf("Your reservation is confirmed from %s to %s.",
			res.TimeSlot().Start().Format("02 Jan 2006 15:04 MST"),
			res.TimeSlot().End().Format("02 Jan 2006 15:04 MST")),
		map[string]any{"price": res.TotalPrice().String()})
	return res, nil
}

func (s *reservationCommandsImpl) Cancel(ctx context.Context, act actor.Actor, reservationID uuid.UUID) (*CancelResult, error) {
	var res *reservation.Reservation
	var refund reservation.Money

	err := s.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		res, err = s.findForUpdate(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if !actor.CanCancel(act, res.UserID()) {
			return errs.ErrNotOwner
		}

		now := s.clock.Now()
		refund = res.RefundEstimate(now)
		if err := res.Cancel(now); err != nil {
			return errs.Mark(err, errs.ErrIllegalTransition)
		}
		if err := tx.Reservations().Update(ctx, res); err != nil {
			return err
		}
		return s.auditSuccess(ctx, tx, act.ID, res.ID(), audit.ActionCancel, map[string]any{
			"refund_estimate": refund.String(),
		})
	})
	if err != nil {
		return nil, s.fail(ctx, "cancel", act, &reservationID, audit.ActionCancel, err)
	}

	s.metrics.RecordTransition("cancel", outcomeSuccess)
	s.notify(ctx, res, "reservation_cancelled", "Reservation cancelled",
		fmt.Sprintf("Your reservation was cancelled. Estimated refund: %s.", refund.String()),
		map[string]any{"refund_estimate": refund.String()})
	return &CancelResult{Reservation: res, RefundEstimate: refund}, nil
}

func (s *reservationCommandsImpl) Extend(ctx context.Context, act actor.Actor, p ExtendParams) (*reservation.Reservation, error) {
	var res *reservation.Reservation
	var cost reservation.Money

	err := s.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		res, err = s.findForUpdate(ctx, tx, p.ReservationID)
		if err != nil {
			return err
		}
		if !actor.CanExtend(act, res.UserID()) {
			return errs.ErrNotOwner
		}

		currentEnd := res.TimeSlot().End()
		if !p.NewEndTime.After(currentEnd) {
			return errs.Mark(reservation.ErrExtensionNotBeyond, errs.ErrInvalidInterval)
		}
		delta, err := reservation.NewTimeSlot(currentEnd, p.NewEndTime)
		if err != nil {
			return errs.Mark(err, errs.ErrInvalidInterval)
		}

		sl, err := tx.Slots().FindByIDForUpdate(ctx, res.SlotID())
		if err != nil {
			return err
		}
		if err := s.checkSlotAvailability(ctx, tx, sl, delta, res.ID()); err != nil {
			return err
		}

		rate, err := s.resolveRate(ctx, tx, res.VehicleType(), res.Zone(), currentEnd)
		if err != nil {
			return err
		}
		cost = s.engine.ExtensionPrice(rate, currentEnd, p.NewEndTime)

		if err := res.Extend(s.clock.Now(), p.NewEndTime, cost); err != nil {
			return errs.Mark(err, errs.ErrIllegalTransition)
		}
		if err := tx.Reservations().Update(ctx, res); err != nil {
			return err
		}
		return s.auditSuccess(ctx, tx, act.ID, res.ID(), audit.ActionExtend, map[string]any{
			"new_end":         p.NewEndTime,
			"additional_cost": cost.String(),
		})
	})
	if err != nil {
		if errors.Is(err, errs.ErrSlotConflict) {
			s.metrics.RecordTransition("extend", outcomeConflict)
			s.auditFailure(ctx, act.ID, &p.ReservationID, audit.ActionExtend, err.Error())
			return nil, err
		}
		return nil, s.fail(ctx, "extend", act, &p.ReservationID, audit.ActionExtend, err)
	}

	s.metrics.RecordTransition("extend", outcomeSuccess)
	s.notify(ctx, res, "reservation_extended", "Reservation extended",
		fmt.Sprintf("Your reservation now ends at %s. Additional cost: %s.",
			res.TimeSlot().End().Format("02 Jan 2006 15:04 MST"), cost.String()),
		map[string]any{"additional_cost": cost.String()})
	return res, nil
}

// EarlyCheckIn pulls the start time earlier and reprices the entire longer
// interval; the incremental-only model of Extend deliberately does not apply
// here.
func (s *reservationCommandsImpl) EarlyCheckIn(ctx context.Context, act actor.Actor, p EarlyCheckInParams) (*reservation.Reservation, error) {
	var res *reservation.Reservation

	err := s.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		res, err = s.findForUpdate(ctx, tx, p.ReservationID)
		if err != nil {
			return err
		}
		if !actor.CanExtend(act, res.UserID()) {
			return errs.ErrNotOwner
		}

		currentStart := res.TimeSlot().Start()
		if !p.NewStartTime.Before(currentStart) {
			return errs.Mark(reservation.ErrEarlyStartNotBefore, errs.ErrInvalidInterval)
		}
		earlierSegment, err := reservation.NewTimeSlot(p.NewStartTime, currentStart)
		if err != nil {
			return errs.Mark(err, errs.ErrInvalidInterval)
		}

		sl, err := tx.Slots().FindByIDForUpdate(ctx, res.SlotID())
		if err != nil {
			return err
		}
		if err := s.checkSlotAvailability(ctx, tx, sl, earlierSegment, res.ID()); err != nil {
			return err
		}

		rate, err := s.resolveRate(ctx, tx, res.VehicleType(), res.Zone(), p.NewStartTime)
		if err != nil {
			return err
		}
		newTotal := s.engine.Price(rate, p.NewStartTime, res.TimeSlot().End())

		if err := res.PullStartEarlier(s.clock.Now(), p.NewStartTime, newTotal); err != nil {
			return errs.Mark(err, errs.ErrIllegalTransition)
		}
		if err := tx.Reservations().Update(ctx, res); err != nil {
			return err
		}
		return s.auditSuccess(ctx, tx, act.ID, res.ID(), audit.ActionEarlyCheckIn, map[string]any{
			"new_start": p.NewStartTime,
			"new_total": newTotal.String(),
		})
	})
	if err != nil {
		if errors.Is(err, errs.ErrSlotConflict) {
			s.metrics.RecordTransition("early_check_in", outcomeConflict)
			s.auditFailure(ctx, act.ID, &p.ReservationID, audit.ActionEarlyCheckIn, err.Error())
			return nil, err
		}
		return nil, s.fail(ctx, "early_check_in", act, &p.ReservationID, audit.ActionEarlyCheckIn, err)
	}

	s.metrics.RecordTransition("early_check_in", outcomeSuccess)
	s.notify(ctx, res, "reservation_early_check_in", "Start time moved earlier",
		fmt.Sprintf("Your reservation now starts at %s. Updated total: %s.",
			res.TimeSlot().Start().Format("02 Jan 2006 15:04 MST"), res.TotalPrice().String()),
		nil)
	return res, nil
}

func (s *reservationCommandsImpl) findForUpdate(ctx context.Context, tx shared.Tx, id uuid.UUID) (*reservation.Reservation, error) {
	res, err := tx.Reservations().FindByIDForUpdate(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrReservationNotFound
		}
		return nil, err
	}
	return res, nil
}
