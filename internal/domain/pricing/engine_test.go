//go:build unit

package pricing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"parkgate/internal/pkg/ptr"
)

// Monday 10:00 UTC; weekend cases shift to Saturday explicitly.
var weekday = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
var saturday = time.Date(2025, 6, 7, 10, 0, 0, 0, time.UTC)

func carRate() Rate {
	return Rate{
		ID:                  uuid.New(),
		VehicleType:         "car",
		HourlyPaise:         1000,
		SpecialStartMin:     -1,
		SpecialEndMin:       -1,
		ExtensionMultiplier: 1.5,
	}
}

func TestResolveSpecificity(t *testing.T) {
	exact := carRate()
	exact.Zone = ptr.To("A")
	exact.HourlyPaise = 1200

	anyZone := carRate()
	anyZone.HourlyPaise = 1100

	def := Rate{ID: uuid.New(), IsDefault: true, HourlyPaise: 900, SpecialStartMin: -1, SpecialEndMin: -1}

	engine := NewEngine()

	tests := []struct {
		name       string
		rates      []Rate
		wantHourly int64
	}{
		{name: "exact vehicle and zone wins", rates: []Rate{def, anyZone, exact}, wantHourly: 1200},
		{name: "vehicle any-zone beats default", rates: []Rate{def, anyZone}, wantHourly: 1100},
		{name: "default when nothing more specific", rates: []Rate{def}, wantHourly: 900},
		{name: "fallback when no rate matches", rates: nil, wantHourly: FallbackHourlyPaise},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Resolve(tt.rates, weekday, "car", "A")
			assert.Equal(t, tt.wantHourly, got.HourlyPaise)
		})
	}

	t.Run("expired rate is skipped", func(t *testing.T) {
		expired := carRate()
		expired.EffectiveTo = ptr.To(weekday.Add(-time.Hour))
		got := engine.Resolve([]Rate{expired}, weekday, "car", "A")
		assert.Equal(t, int64(FallbackHourlyPaise), got.HourlyPaise)
	})

	t.Run("not yet effective rate is skipped", func(t *testing.T) {
		future := carRate()
		future.EffectiveFrom = ptr.To(weekday.Add(time.Hour))
		got := engine.Resolve([]Rate{future}, weekday, "car", "A")
		assert.Equal(t, int64(FallbackHourlyPaise), got.HourlyPaise)
	})

	t.Run("zone-scoped default does not apply elsewhere", func(t *testing.T) {
		scoped := Rate{IsDefault: true, Zone: ptr.To("B"), HourlyPaise: 800, SpecialStartMin: -1, SpecialEndMin: -1}
		got := engine.Resolve([]Rate{scoped}, weekday, "car", "A")
		assert.Equal(t, int64(FallbackHourlyPaise), got.HourlyPaise)
	})
}

func TestPrice(t *testing.T) {
	engine := NewEngine()

	t.Run("two hours at base rate", func(t *testing.T) {
		got := engine.Price(carRate(), weekday, weekday.Add(2*time.Hour))
		assert.Equal(t, int64(2000), got.Paise())
	})

	t.Run("fractional hours round to paise", func(t *testing.T) {
		got := engine.Price(carRate(), weekday, weekday.Add(90*time.Minute))
		assert.Equal(t, int64(1500), got.Paise())
	})

	t.Run("zero or inverted interval is free", func(t *testing.T) {
		assert.True(t, engine.Price(carRate(), weekday, weekday).IsZero())
		assert.True(t, engine.Price(carRate(), weekday, weekday.Add(-time.Hour)).IsZero())
	})

	t.Run("weekend hourly applies on saturday", func(t *testing.T) {
		rate := carRate()
		rate.WeekendHourlyPaise = 1500
		got := engine.Price(rate, saturday, saturday.Add(2*time.Hour))
		assert.Equal(t, int64(3000), got.Paise())
	})

	t.Run("weekend rate ignored on weekday", func(t *testing.T) {
		rate := carRate()
		rate.WeekendHourlyPaise = 1500
		got := engine.Price(rate, weekday, weekday.Add(2*time.Hour))
		assert.Equal(t, int64(2000), got.Paise())
	})

	t.Run("special window overrides weekend", func(t *testing.T) {
		rate := carRate()
		rate.WeekendHourlyPaise = 1500
		rate.SpecialStartMin = 9 * 60
		rate.SpecialEndMin = 12 * 60
		rate.SpecialHourlyPaise = 2500
		got := engine.Price(rate, saturday, saturday.Add(time.Hour))
		assert.Equal(t, int64(2500), got.Paise())
	})

	t.Run("wrapped special window spans midnight", func(t *testing.T) {
		rate := carRate()
		rate.SpecialStartMin = 22 * 60
		rate.SpecialEndMin = 6 * 60
		rate.SpecialHourlyPaise = 500

		lateNight := time.Date(2025, 6, 2, 23, 0, 0, 0, time.UTC)
		earlyMorning := time.Date(2025, 6, 3, 5, 0, 0, 0, time.UTC)
		midday := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

		assert.Equal(t, int64(500), engine.Price(rate, lateNight, lateNight.Add(time.Hour)).Paise())
		assert.Equal(t, int64(500), engine.Price(rate, earlyMorning, earlyMorning.Add(time.Hour)).Paise())
		assert.Equal(t, int64(1000), engine.Price(rate, midday, midday.Add(time.Hour)).Paise())
	})

	t.Run("daily component past threshold", func(t *testing.T) {
		rate := carRate()
		rate.DailyPaise = 15000
		rate.DailyAfterHours = 8

		// 10 hours: under 24h counts as one day plus nothing extra.
		got := engine.Price(rate, weekday, weekday.Add(10*time.Hour))
		assert.Equal(t, int64(15000), got.Paise())

		// 30 hours: one full day plus 6 hourly.
		got = engine.Price(rate, weekday, weekday.Add(30*time.Hour))
		assert.Equal(t, int64(15000+6*1000), got.Paise())

		// Below the threshold stays hourly.
		got = engine.Price(rate, weekday, weekday.Add(6*time.Hour))
		assert.Equal(t, int64(6000), got.Paise())
	})
}

func TestExtensionPrice(t *testing.T) {
	engine := NewEngine()
	currentEnd := weekday.Add(2 * time.Hour)

	t.Run("delta priced at multiplier", func(t *testing.T) {
		got := engine.ExtensionPrice(carRate(), currentEnd, currentEnd.Add(time.Hour))
		assert.Equal(t, int64(1500), got.Paise())
	})

	t.Run("zero multiplier treated as one", func(t *testing.T) {
		rate := carRate()
		rate.ExtensionMultiplier = 0
		got := engine.ExtensionPrice(rate, currentEnd, currentEnd.Add(time.Hour))
		assert.Equal(t, int64(1000), got.Paise())
	})

	t.Run("non-forward end is free", func(t *testing.T) {
		assert.True(t, engine.ExtensionPrice(carRate(), currentEnd, currentEnd).IsZero())
	})

	t.Run("anchored at current end, not original start", func(t *testing.T) {
		rate := carRate()
		rate.SpecialStartMin = 12 * 60
		rate.SpecialEndMin = 14 * 60
		rate.SpecialHourlyPaise = 2000

		// Start at 10:00 is outside the window; the 12:00 anchor is inside.
		got := engine.ExtensionPrice(rate, weekday.Add(2*time.Hour), weekday.Add(3*time.Hour))
		assert.Equal(t, int64(3000), got.Paise()) // 2000 x 1.5
	})
}

func TestOvertimePrice(t *testing.T) {
	engine := NewEngine()
	bookedEnd := weekday.Add(2 * time.Hour)

	t.Run("charged per hour past booked end", func(t *testing.T) {
		got := engine.OvertimePrice(carRate(), bookedEnd, bookedEnd.Add(90*time.Minute))
		assert.Equal(t, int64(1500), got.Paise())
	})

	t.Run("no overtime when out on time", func(t *testing.T) {
		assert.True(t, engine.OvertimePrice(carRate(), bookedEnd, bookedEnd).IsZero())
		assert.True(t, engine.OvertimePrice(carRate(), bookedEnd, bookedEnd.Add(-time.Minute)).IsZero())
	})
}
