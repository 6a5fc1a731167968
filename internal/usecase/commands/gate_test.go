//go:build unit

package commands

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkgate/internal/domain/actor"
	"parkgate/internal/domain/audit"
	"parkgate/internal/domain/reservation"
	"parkgate/internal/pkg/errs"
)

func TestGateVerify(t *testing.T) {
	ctx := context.Background()
	owner := actor.New(uuid.New(), actor.RoleCustomer)
	staff := actor.New(uuid.New(), actor.RoleSecurity)

	t.Run("staff verifies by id inside the window", func(t *testing.T) {
		env := newTestEnv(testStart.Add(-30 * time.Minute))
		sl := env.addSlot("A")
		res := env.addReservation(t, owner.ID, sl.ID(), testStart, testStart.Add(2*time.Hour))

		id := res.ID()
		got, err := env.svc.GateVerify(ctx, staff, GateVerifyParams{ReservationID: &id, Notes: "gate A"})
		require.NoError(t, err)
		assert.Equal(t, reservation.StatusVerified, got.Status())
		require.NotNil(t, got.EntryVerification())
		assert.Equal(t, staff.ID, got.EntryVerification().VerifierID)
		assert.Equal(t, "gate A", got.EntryVerification().Notes)
		assert.Equal(t, audit.ActionGateVerify, env.txAudit.lastAction())
		require.Len(t, env.notifier.sent, 1)
		assert.Equal(t, "reservation_verified", env.notifier.sent[0].kind)
	})

	t.Run("customers may not verify", func(t *testing.T) {
		env := newTestEnv(testStart)
		sl := env.addSlot("A")
		res := env.addReservation(t, owner.ID, sl.ID(), testStart, testStart.Add(2*time.Hour))

		id := res.ID()
		_, err := env.svc.GateVerify(ctx, owner, GateVerifyParams{ReservationID: &id})
		assert.ErrorIs(t, err, errs.ErrForbidden)
		assert.Equal(t, reservation.StatusConfirmed, res.Status())
		assert.Equal(t, 1, env.metrics.transitions["gate_verify/failure"])
	})

	t.Run("too early is outside the window", func(t *testing.T) {
		env := newTestEnv(testStart.Add(-2 * time.Hour))
		sl := env.addSlot("A")
		res := env.addReservation(t, owner.ID, sl.ID(), testStart, testStart.Add(2*time.Hour))

		id := res.ID()
		_, err := env.svc.GateVerify(ctx, staff, GateVerifyParams{ReservationID: &id})
		assert.ErrorIs(t, err, errs.ErrOutsideVerifyWindow)
		require.NotEmpty(t, env.failAudit.entries)
	})

	t.Run("lookup by plate", func(t *testing.T) {
		env := newTestEnv(testStart.Add(-30 * time.Minute))
		sl := env.addSlot("A")
		env.addReservation(t, owner.ID, sl.ID(), testStart, testStart.Add(2*time.Hour))

		got, err := env.svc.GateVerify(ctx, staff, GateVerifyParams{VehiclePlate: "KA01AB1234"})
		require.NoError(t, err)
		assert.Equal(t, reservation.StatusVerified, got.Status())
	})

	t.Run("unknown plate", func(t *testing.T) {
		env := newTestEnv(testStart)
		env.addSlot("A")
		_, err := env.svc.GateVerify(ctx, staff, GateVerifyParams{VehiclePlate: "MH12XY9999"})
		assert.ErrorIs(t, err, errs.ErrReservationNotFound)
	})

	t.Run("already verified is an illegal transition", func(t *testing.T) {
		env := newTestEnv(testStart.Add(-30 * time.Minute))
		sl := env.addSlot("A")
		res := env.addReservation(t, owner.ID, sl.ID(), testStart, testStart.Add(2*time.Hour))
		id := res.ID()
		_, err := env.svc.GateVerify(ctx, staff, GateVerifyParams{ReservationID: &id})
		require.NoError(t, err)

		_, err = env.svc.GateVerify(ctx, staff, GateVerifyParams{ReservationID: &id})
		assert.ErrorIs(t, err, errs.ErrIllegalTransition)
	})
}

func TestGateCheckoutVerify(t *testing.T) {
	ctx := context.Background()
	owner := actor.New(uuid.New(), actor.RoleCustomer)
	staff := actor.New(uuid.New(), actor.RoleSecurity)

	checkedIn := func(t *testing.T, env *testEnv, slotID uuid.UUID) *reservation.Reservation {
		t.Helper()
		res := env.addReservation(t, owner.ID, slotID, testStart, testStart.Add(2*time.Hour))
		require.NoError(t, res.DirectCheckIn(testStart, owner.ID, "", "482913"))
		return res
	}

	t.Run("matching code verifies the exit", func(t *testing.T) {
		env := newTestEnv(testStart.Add(time.Hour))
		sl := env.addSlot("A")
		res := checkedIn(t, env, sl.ID())

		got, err := env.svc.GateCheckoutVerify(ctx, staff, GateCheckoutVerifyParams{
			ReservationID: res.ID(),
			SecretCode:    "482913",
			Notes:         "exit gate",
		})
		require.NoError(t, err)
		assert.Equal(t, reservation.StatusCheckoutVerified, got.Status())
		assert.Equal(t, audit.ActionGateCheckoutVerify, env.txAudit.lastAction())
	})

	t.Run("mismatch is rejected and audited, state untouched", func(t *testing.T) {
		env := newTestEnv(testStart.Add(time.Hour))
		sl := env.addSlot("A")
		res := checkedIn(t, env, sl.ID())

		_, err := env.svc.GateCheckoutVerify(ctx, staff, GateCheckoutVerifyParams{
			ReservationID: res.ID(),
			SecretCode:    "000000",
		})
		assert.ErrorIs(t, err, errs.ErrCodeMismatch)
		assert.Equal(t, reservation.StatusCheckedIn, res.Status())
		require.Len(t, env.failAudit.entries, 1)
		assert.False(t, env.failAudit.entries[0].Success)
		assert.Equal(t, 1, env.metrics.transitions["gate_checkout_verify/failure"])
	})

	t.Run("no code on record", func(t *testing.T) {
		env := newTestEnv(testStart.Add(time.Hour))
		sl := env.addSlot("A")
		// A checked-in row without a code can only come from legacy data;
		// rebuild one directly.
		interval, err := reservation.NewTimeSlot(testStart, testStart.Add(2*time.Hour))
		require.NoError(t, err)
		res := reservation.Reconstruct(reservation.ReconstructParams{
			ID:      uuid.New(),
			SlotID:  sl.ID(),
			UserID:  owner.ID,
			Slot:    interval,
			Status:  reservation.StatusCheckedIn,
			Active:  true,
			CheckIn: &reservation.CheckEvent{At: testStart, ActorID: owner.ID},
		})
		env.resRepo.byID[res.ID()] = res

		_, err = env.svc.GateCheckoutVerify(ctx, staff, GateCheckoutVerifyParams{
			ReservationID: res.ID(),
			SecretCode:    "482913",
		})
		assert.ErrorIs(t, err, errs.ErrCodeNotAssigned)
	})

	t.Run("customers may not verify checkout", func(t *testing.T) {
		env := newTestEnv(testStart.Add(time.Hour))
		sl := env.addSlot("A")
		res := checkedIn(t, env, sl.ID())

		_, err := env.svc.GateCheckoutVerify(ctx, owner, GateCheckoutVerifyParams{
			ReservationID: res.ID(),
			SecretCode:    "482913",
		})
		assert.ErrorIs(t, err, errs.ErrForbidden)
	})

	t.Run("not verifiable before check-in", func(t *testing.T) {
		env := newTestEnv(testStart)
		sl := env.addSlot("A")
		res := env.addReservation(t, owner.ID, sl.ID(), testStart, testStart.Add(2*time.Hour))

		_, err := env.svc.GateCheckoutVerify(ctx, staff, GateCheckoutVerifyParams{
			ReservationID: res.ID(),
			SecretCode:    "482913",
		})
		assert.ErrorIs(t, err, errs.ErrIllegalTransition)
	})
}
