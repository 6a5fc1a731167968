package commands

import (
	"context"
	"errors"
	"fmt"

	"parkgate/internal/domain/actor"
	"parkgate/internal/domain/audit"
	"parkgate/internal/domain/geofence"
	"parkgate/internal/domain/reservation"
	"parkgate/internal/infra"
	"parkgate/internal/pkg/errs"
	"parkgate/internal/usecase/shared"
)

// GateVerify confirms a vehicle's arrival at the barrier. Staff may identify
// the reservation by id or by plate; plate lookup only matches confirmed
// reservations starting inside the pre-arrival window.
func (s *reservationCommandsImpl) GateVerify(ctx context.Context, act actor.Actor, p GateVerifyParams) (*reservation.Reservation, error) {
	if !actor.CanGateVerify(act) {
		return nil, s.fail(ctx, "gate_verify", act, p.ReservationID, audit.ActionGateVerify, errs.ErrForbidden)
	}

	var res *reservation.Reservation
	err := s.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		now := s.clock.Now()
		if p.ReservationID != nil {
			res, err = s.findForUpdate(ctx, tx, *p.ReservationID)
		} else {
			res, err = tx.Reservations().FindConfirmedByPlate(ctx, p.VehiclePlate, now, now.Add(s.cfg.GateVerifyWindow))
			if err != nil && infra.IsKind(err, infra.KindNotFound) {
				err = errs.ErrReservationNotFound
			}
		}
		if err != nil {
			return err
		}

		if err := res.GateVerify(now, act.ID, p.Notes, s.cfg.GateVerifyWindow); err != nil {
			if errors.Is(err, reservation.ErrOutsideVerifyWindow) {
				return errs.Mark(err, errs.ErrOutsideVerifyWindow)
			}
			return errs.Mark(err, errs.ErrIllegalTransition)
		}
		if err := tx.Reservations().Update(ctx, res); err != nil {
			return err
		}
		return s.auditSuccess(ctx, tx, act.ID, res.ID(), audit.ActionGateVerify, map[string]any{
			"vehicle_plate": res.VehiclePlate(),
			"notes":         p.Notes,
		})
	})
	if err != nil {
		var id = p.ReservationID
		if res != nil {
			rid := res.ID()
			id = &rid
		}
		return nil, s.fail(ctx, "gate_verify", act, id, audit.ActionGateVerify, err)
	}

	s.metrics.RecordTransition("gate_verify", outcomeSuccess)
	s.notify(ctx, res, "reservation_verified", "Arrival verified",
		"Your vehicle was verified at the gate. You can now check in.", nil)
	return res, nil
}

// GateCheckoutVerify validates the customer's secret code before releasing
// the vehicle. A mismatch leaves the reservation untouched but is recorded.
func (s *reservationCommandsImpl) GateCheckoutVerify(ctx context.Context, act actor.Actor, p GateCheckoutVerifyParams) (*reservation.Reservation, error) {
	if !actor.CanGateCheckoutVerify(act) {
		return nil, s.fail(ctx, "gate_checkout_verify", act, &p.ReservationID, audit.ActionGateCheckoutVerify, errs.ErrForbidden)
	}

	var res *reservation.Reservation
	err := s.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		res, err = s.findForUpdate(ctx, tx, p.ReservationID)
		if err != nil {
			return err
		}

		if err := res.VerifyCheckout(s.clock.Now(), act.ID, p.Notes, p.SecretCode); err != nil {
			switch {
			case errors.Is(err, reservation.ErrNoSecretCode):
				return errs.Mark(err, errs.ErrCodeNotAssigned)
			case errors.Is(err, reservation.ErrSecretCodeMismatch):
				return errs.Mark(err, errs.ErrCodeMismatch)
			default:
				return errs.Mark(err, errs.ErrIllegalTransition)
			}
		}
		if err := tx.Reservations().Update(ctx, res); err != nil {
			return err
		}
		return s.auditSuccess(ctx, tx, act.ID, res.ID(), audit.ActionGateCheckoutVerify, map[string]any{
			"notes": p.Notes,
		})
	})
	if err != nil {
		return nil, s.fail(ctx, "gate_checkout_verify", act, &p.ReservationID, audit.ActionGateCheckoutVerify, err)
	}

	s.metrics.RecordTransition("gate_checkout_verify", outcomeSuccess)
	s.notify(ctx, res, "checkout_verified", "Checkout verified",
		"Your checkout was verified at the gate.", nil)
	return res, nil
}

// requireInsideFacility runs coordinate validation and the geofence test for
// the self-service operations.
func (s *reservationCommandsImpl) requireInsideFacility(lat, lon float64) (map[string]any, error) {
	if err := geofence.ValidateCoordinates(lat, lon); err != nil {
		return nil, errs.Mark(err, errs.ErrInvalidCoordinates)
	}
	result, err := s.fence.IsWithinAnyFacility(lat, lon)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrInvalidCoordinates)
	}
	detail := map[string]any{
		"facility":       result.FacilityName,
		"distance_m":     fmt.Sprintf("%.1f", result.Distance),
		"allowed_radius": result.AllowedRadius,
	}
	if !result.WithinBounds {
		return detail, errs.Mark(
			errs.Newf("outside facility %q: %.1fm away, %.0fm allowed",
				result.FacilityName, result.Distance, result.AllowedRadius),
			errs.ErrOutsideGeofence)
	}
	return detail, nil
}
