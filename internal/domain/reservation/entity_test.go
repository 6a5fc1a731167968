//go:build unit

package reservation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBase = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC) // Monday

func newConfirmed(t *testing.T, start, end time.Time) *Reservation {
	t.Helper()
	slot, err := NewTimeSlot(start, end)
	require.NoError(t, err)
	r, err := NewReservation(NewReservationParams{
		SlotID:       uuid.New(),
		UserID:       uuid.New(),
		VehiclePlate: "KA01AB1234",
		VehicleType:  "car",
		Zone:         "A",
		ContactEmail: "driver@example.com",
		Slot:         slot,
		Price:        NewMoney(2000),
		Now:          start.Add(-time.Hour),
	})
	require.NoError(t, err)
	return r
}

func TestNewReservation(t *testing.T) {
	t.Run("rejects zero-duration slot", func(t *testing.T) {
		_, err := NewTimeSlot(testBase, testBase)
		assert.Error(t, err)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		slot, err := NewTimeSlot(testBase, testBase.Add(time.Hour))
		require.NoError(t, err)
		_, err = NewReservation(NewReservationParams{Slot: slot, Price: NewMoney(-1), Now: testBase})
		assert.ErrorIs(t, err, ErrNegativePrice)
	})

	t.Run("starts confirmed and active", func(t *testing.T) {
		r := newConfirmed(t, testBase, testBase.Add(2*time.Hour))
		assert.Equal(t, StatusConfirmed, r.Status())
		assert.True(t, r.IsActive())
		assert.Equal(t, testBase.Add(2*time.Hour), r.InitialEnd())
	})
}

func TestGateVerify(t *testing.T) {
	start := testBase
	end := testBase.Add(2 * time.Hour)
	window := time.Hour
	verifier := uuid.New()

	tests := []struct {
		name    string
		now     time.Time
		wantErr error
	}{
		{name: "inside window before start", now: start.Add(-30 * time.Minute)},
		{name: "exactly at window open", now: start.Add(-window)},
		{name: "after start but before end", now: start.Add(10 * time.Minute)},
		{name: "too early", now: start.Add(-window - time.Minute), wantErr: ErrOutsideVerifyWindow},
		{name: "after end", now: end.Add(time.Minute), wantErr: ErrOutsideVerifyWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newConfirmed(t, start, end)
			err := r.GateVerify(tt.now, verifier, "gate A", window)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, StatusConfirmed, r.Status())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StatusVerified, r.Status())
			require.NotNil(t, r.EntryVerification())
			assert.Equal(t, verifier, r.EntryVerification().VerifierID)
		})
	}

	t.Run("rejected once checked in", func(t *testing.T) {
		r := newConfirmed(t, start, end)
		require.NoError(t, r.DirectCheckIn(start, r.UserID(), "10.0.0.1", "482913"))
		var stateErr *StateError
		err := r.GateVerify(start, verifier, "", window)
		require.ErrorAs(t, err, &stateErr)
		assert.Equal(t, StatusCheckedIn, stateErr.Current)
	})
}

func TestCheckInPaths(t *testing.T) {
	start := testBase
	end := testBase.Add(2 * time.Hour)

	t.Run("check-in requires prior gate verification", func(t *testing.T) {
		r := newConfirmed(t, start, end)
		var stateErr *StateError
		assert.ErrorAs(t, r.CheckIn(start, r.UserID(), "10.0.0.1", "482913"), &stateErr)
	})

	t.Run("verified then check-in binds the code", func(t *testing.T) {
		r := newConfirmed(t, start, end)
		require.NoError(t, r.GateVerify(start.Add(-10*time.Minute), uuid.New(), "", time.Hour))
		require.NoError(t, r.CheckIn(start, r.UserID(), "10.0.0.1", "482913"))
		assert.Equal(t, StatusCheckedIn, r.Status())
		assert.Equal(t, "482913", r.SecretCode())
		require.NotNil(t, r.CheckInEvent())
		assert.Equal(t, "10.0.0.1", r.CheckInEvent().SourceIP)
	})

	t.Run("direct check-in skips verification", func(t *testing.T) {
		r := newConfirmed(t, start, end)
		require.NoError(t, r.DirectCheckIn(start, r.UserID(), "10.0.0.2", "913842"))
		assert.Equal(t, StatusCheckedIn, r.Status())
	})
}

func TestRequestCheckoutIdempotence(t *testing.T) {
	start := testBase
	r := newConfirmed(t, start, start.Add(2*time.Hour))
	require.NoError(t, r.DirectCheckIn(start, r.UserID(), "", "482913"))

	already, err := r.RequestCheckout(start.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, already)
	assert.Equal(t, StatusCheckoutRequested, r.Status())

	already, err = r.RequestCheckout(start.Add(time.Hour + time.Minute))
	require.NoError(t, err)
	assert.True(t, already)
	assert.Equal(t, StatusCheckoutRequested, r.Status())

	t.Run("rejected before check-in", func(t *testing.T) {
		fresh := newConfirmed(t, start, start.Add(time.Hour))
		_, err := fresh.RequestCheckout(start)
		var stateErr *StateError
		assert.ErrorAs(t, err, &stateErr)
	})
}

func TestVerifyCheckout(t *testing.T) {
	start := testBase
	checkedIn := func(t *testing.T) *Reservation {
		r := newConfirmed(t, start, start.Add(2*time.Hour))
		require.NoError(t, r.DirectCheckIn(start, r.UserID(), "", "482913"))
		return r
	}

	t.Run("matching code verifies", func(t *testing.T) {
		r := checkedIn(t)
		require.NoError(t, r.VerifyCheckout(start.Add(time.Hour), uuid.New(), "exit gate", "482913"))
		assert.Equal(t, StatusCheckoutVerified, r.Status())
		assert.NotNil(t, r.ExitVerification())
	})

	t.Run("mismatch leaves state untouched", func(t *testing.T) {
		r := checkedIn(t)
		err := r.VerifyCheckout(start.Add(time.Hour), uuid.New(), "", "000000")
		assert.ErrorIs(t, err, ErrSecretCodeMismatch)
		assert.Equal(t, StatusCheckedIn, r.Status())
		assert.Nil(t, r.ExitVerification())
	})

	t.Run("no code assigned", func(t *testing.T) {
		r := newConfirmed(t, start, start.Add(time.Hour))
		assert.ErrorIs(t, r.ValidateCode("123456"), ErrNoSecretCode)
	})

	t.Run("empty submitted code mismatches", func(t *testing.T) {
		r := checkedIn(t)
		assert.ErrorIs(t, r.ValidateCode(""), ErrSecretCodeMismatch)
	})
}

func TestCheckoutAndRelease(t *testing.T) {
	start := testBase
	end := start.Add(2 * time.Hour)

	t.Run("full gated exit", func(t *testing.T) {
		r := newConfirmed(t, start, end)
		require.NoError(t, r.DirectCheckIn(start, r.UserID(), "", "482913"))
		_, err := r.RequestCheckout(start.Add(90 * time.Minute))
		require.NoError(t, err)
		require.NoError(t, r.VerifyCheckout(start.Add(95*time.Minute), uuid.New(), "", "482913"))
		require.NoError(t, r.Checkout(start.Add(100*time.Minute), r.UserID(), "10.0.0.1"))

		assert.Equal(t, StatusCheckedOut, r.Status())
		assert.False(t, r.IsActive())
		assert.Equal(t, 100, r.ActualMinutes())
	})

	t.Run("checkout requires verified exit", func(t *testing.T) {
		r := newConfirmed(t, start, end)
		require.NoError(t, r.DirectCheckIn(start, r.UserID(), "", "482913"))
		var stateErr *StateError
		assert.ErrorAs(t, r.Checkout(start.Add(time.Hour), r.UserID(), ""), &stateErr)
	})

	t.Run("direct checkout within booked time records no overtime", func(t *testing.T) {
		r := newConfirmed(t, start, end)
		require.NoError(t, r.DirectCheckIn(start, r.UserID(), "", "482913"))
		require.NoError(t, r.DirectCheckOut(start.Add(time.Hour), r.UserID(), "", NewMoney(0)))
		assert.Equal(t, 0, r.OvertimeMinutes())
		assert.True(t, r.OvertimeCharge().IsZero())
	})

	t.Run("direct checkout past end records overtime", func(t *testing.T) {
		r := newConfirmed(t, start, end)
		require.NoError(t, r.DirectCheckIn(start, r.UserID(), "", "482913"))
		require.NoError(t, r.DirectCheckOut(end.Add(45*time.Minute), r.UserID(), "", NewMoney(750)))
		assert.Equal(t, 45, r.OvertimeMinutes())
		assert.Equal(t, int64(750), r.OvertimeCharge().Paise())
	})
}

func TestCancel(t *testing.T) {
	start := testBase
	end := start.Add(2 * time.Hour)

	t.Run("confirmed cancels", func(t *testing.T) {
		r := newConfirmed(t, start, end)
		require.NoError(t, r.Cancel(start.Add(-time.Hour)))
		assert.Equal(t, StatusCancelled, r.Status())
		assert.False(t, r.IsActive())
	})

	t.Run("checked-in cannot cancel", func(t *testing.T) {
		r := newConfirmed(t, start, end)
		require.NoError(t, r.DirectCheckIn(start, r.UserID(), "", "482913"))
		assert.ErrorIs(t, r.Cancel(start.Add(time.Minute)), ErrCancelAfterCheckIn)
	})
}

func TestExpire(t *testing.T) {
	start := testBase
	r := newConfirmed(t, start, start.Add(time.Hour))
	require.NoError(t, r.Expire(start.Add(2*time.Hour)))
	assert.Equal(t, StatusExpired, r.Status())
	assert.False(t, r.IsActive())

	var stateErr *StateError
	assert.ErrorAs(t, r.Expire(start.Add(3*time.Hour)), &stateErr)
}

func TestRefundEstimate(t *testing.T) {
	start := testBase
	end := start.Add(2 * time.Hour)

	tests := []struct {
		name      string
		now       time.Time
		wantPaise int64
	}{
		{name: "before start refunds in full", now: start.Add(-time.Minute), wantPaise: 2000},
		{name: "halfway refunds half", now: start.Add(time.Hour), wantPaise: 1000},
		{name: "quarter remaining", now: start.Add(90 * time.Minute), wantPaise: 500},
		{name: "at end refunds nothing", now: end, wantPaise: 0},
		{name: "past end refunds nothing", now: end.Add(time.Hour), wantPaise: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newConfirmed(t, start, end)
			assert.Equal(t, tt.wantPaise, r.RefundEstimate(tt.now).Paise())
		})
	}
}

func TestExtend(t *testing.T) {
	start := testBase
	end := start.Add(2 * time.Hour)

	t.Run("pushes end forward and accumulates price", func(t *testing.T) {
		r := newConfirmed(t, start, end)
		newEnd := end.Add(time.Hour)
		require.NoError(t, r.Extend(start.Add(time.Hour), newEnd, NewMoney(1500)))

		assert.Equal(t, newEnd, r.TimeSlot().End())
		assert.Equal(t, end, r.InitialEnd())
		assert.Equal(t, int64(3500), r.TotalPrice().Paise())
		require.Len(t, r.Extensions(), 1)
		assert.Equal(t, int64(1500), r.Extensions()[0].AdditionalCost.Paise())
	})

	t.Run("rejects non-forward end", func(t *testing.T) {
		r := newConfirmed(t, start, end)
		assert.ErrorIs(t, r.Extend(start, end, NewMoney(0)), ErrExtensionNotBeyond)
	})

	t.Run("rejects terminal status", func(t *testing.T) {
		r := newConfirmed(t, start, end)
		require.NoError(t, r.Cancel(start.Add(-time.Minute)))
		var stateErr *StateError
		assert.ErrorAs(t, r.Extend(start, end.Add(time.Hour), NewMoney(0)), &stateErr)
	})

	t.Run("allowed while checked in", func(t *testing.T) {
		r := newConfirmed(t, start, end)
		require.NoError(t, r.DirectCheckIn(start, r.UserID(), "", "482913"))
		require.NoError(t, r.Extend(end, end.Add(30*time.Minute), NewMoney(750)))
		require.Len(t, r.Extensions(), 1)
	})
}

func TestPullStartEarlier(t *testing.T) {
	start := testBase
	end := start.Add(2 * time.Hour)

	t.Run("moves start back and replaces total", func(t *testing.T) {
		r := newConfirmed(t, start, end)
		newStart := start.Add(-time.Hour)
		require.NoError(t, r.PullStartEarlier(newStart, newStart, NewMoney(3000)))
		assert.Equal(t, newStart, r.TimeSlot().Start())
		assert.Equal(t, int64(3000), r.TotalPrice().Paise())
	})

	t.Run("rejects non-backward start", func(t *testing.T) {
		r := newConfirmed(t, start, end)
		assert.ErrorIs(t, r.PullStartEarlier(start, start.Add(time.Minute), NewMoney(0)), ErrEarlyStartNotBefore)
	})

	t.Run("rejected after check-in", func(t *testing.T) {
		r := newConfirmed(t, start, end)
		require.NoError(t, r.DirectCheckIn(start, r.UserID(), "", "482913"))
		var stateErr *StateError
		assert.ErrorAs(t, r.PullStartEarlier(start, start.Add(-time.Hour), NewMoney(0)), &stateErr)
	})
}

func TestStatusGraph(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusConfirmed, StatusVerified, true},
		{StatusConfirmed, StatusCheckedIn, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusExpired, true},
		{StatusConfirmed, StatusCheckedOut, false},
		{StatusVerified, StatusCheckedIn, true},
		{StatusVerified, StatusCancelled, false},
		{StatusCheckedIn, StatusCheckoutRequested, true},
		{StatusCheckedIn, StatusCheckoutVerified, true},
		{StatusCheckedIn, StatusCheckedOut, true},
		{StatusCheckoutRequested, StatusCheckoutVerified, true},
		{StatusCheckoutRequested, StatusCheckedOut, true},
		{StatusCheckoutVerified, StatusCheckedOut, true},
		{StatusCheckedOut, StatusConfirmed, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusExpired, StatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to))
		})
	}

	t.Run("occupying statuses", func(t *testing.T) {
		assert.True(t, StatusCheckedIn.IsOccupying())
		assert.True(t, StatusCheckoutRequested.IsOccupying())
		assert.True(t, StatusCheckoutVerified.IsOccupying())
		assert.False(t, StatusConfirmed.IsOccupying())
		assert.False(t, StatusCheckedOut.IsOccupying())
	})
}
