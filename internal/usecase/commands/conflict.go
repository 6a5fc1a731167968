package commands

import (
	"context"
	"time"

	"parkgate/internal/domain/reservation"
	"parkgate/internal/domain/slot"
	"parkgate/internal/pkg/errs"
	"parkgate/internal/usecase/shared"

	"github.com/google/uuid"
)

// scan depth per direction when hunting for alternative intervals
const alternativeScanDepth = 3

// ConflictError is returned when a requested interval collides with an
// existing occupancy. Alternatives are advisory; the caller must resubmit
// explicitly.
type ConflictError struct {
	SlotID       uuid.UUID
	Alternatives []shared.Interval
}

func (e *ConflictError) Error() string {
	return "slot conflict: requested interval overlaps an existing reservation"
}

func (e *ConflictError) Is(target error) bool {
	return target == errs.ErrSlotConflict
}

// checkSlotAvailability runs the overlap test and the occupied-flag test for
// a candidate interval, self-healing a stale flag when no active occupant
// exists. It must be called with the slot row locked.
func (s *reservationCommandsImpl) checkSlotAvailability(
	ctx context.Context,
	tx shared.Tx,
	sl *slot.Slot,
	interval reservation.TimeSlot,
	excludeID uuid.UUID,
) error {
	occupantConflict := false
	if sl.Occupied() {
		occupant, err := tx.Reservations().ActiveOccupant(ctx, sl.ID())
		if err != nil {
			return err
		}
		switch {
		case occupant == nil:
			// Stale cached flag: no active occupant backs it, clear it.
			sl.MarkFree()
			if err := tx.Slots().SetOccupied(ctx, sl.ID(), false); err != nil {
				return err
			}
		case *occupant != excludeID:
			occupantConflict = true
		}
	}

	overlaps, err := tx.Reservations().CountOverlapping(ctx, sl.ID(), interval.Start(), interval.End(), excludeID)
	if err != nil {
		return err
	}

	if !occupantConflict && overlaps == 0 {
		return nil
	}

	alternatives, err := s.findAlternatives(ctx, tx, sl.ID(), interval, excludeID)
	if err != nil {
		return err
	}
	s.metrics.RecordConflict()
	return &ConflictError{SlotID: sl.ID(), Alternatives: alternatives}
}

// findAlternatives scans forward and backward from the requested interval by
// a fixed step, re-checking each candidate with the same overlap test, and
// returns a small capped set of passing intervals.
func (s *reservationCommandsImpl) findAlternatives(
	ctx context.Context,
	tx shared.Tx,
	slotID uuid.UUID,
	requested reservation.TimeSlot,
	excludeID uuid.UUID,
) ([]shared.Interval, error) {
	step := s.cfg.AlternativeStep
	duration := requested.Duration()
	now := s.clock.Now()

	var candidates []reservation.TimeSlot
	for i := 1; i <= alternativeScanDepth; i++ {
		offset := time.Duration(i) * step
		if fwd, err := reservation.NewTimeSlot(requested.Start().Add(offset), requested.Start().Add(offset).Add(duration)); err == nil {
			candidates = append(candidates, fwd)
		}
		backStart := requested.Start().Add(-offset)
		if !backStart.Before(now) {
			if back, err := reservation.NewTimeSlot(backStart, backStart.Add(duration)); err == nil {
				candidates = append(candidates, back)
			}
		}
	}

	alternatives := make([]shared.Interval, 0, s.cfg.MaxAlternatives)
	for _, cand := range candidates {
		if len(alternatives) >= s.cfg.MaxAlternatives {
			break
		}
		overlaps, err := tx.Reservations().CountOverlapping(ctx, slotID, cand.Start(), cand.End(), excludeID)
		if err != nil {
			return nil, err
		}
		if overlaps == 0 {
			alternatives = append(alternatives, shared.Interval{Start: cand.Start(), End: cand.End()})
		}
	}
	return alternatives, nil
}
