package pricing

import (
	"math"
	"time"

	"parkgate/internal/domain/reservation"
)

// FallbackHourlyPaise is the hard-coded last resort when no rate row matches.
const FallbackHourlyPaise = 1000 // 10.00 per hour

// Engine resolves the most specific applicable rate and prices a duration
// under it. It is pure: candidate rates are supplied by the caller.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Resolve picks the applicable rate in specificity order:
// (vehicleType+zone exact) > (vehicleType, any zone) > (all-types default)
// > hard-coded fallback. Only rates whose effective window contains start
// are considered.
func (e *Engine) Resolve(rates []Rate, start time.Time, vehicleType, zone string) Rate {
	var vehicleAnyZone *Rate
	var allTypesDefault *Rate

	for i := range rates {
		r := rates[i]
		if !r.EffectiveAt(start) {
			continue
		}
		switch {
		case r.VehicleType == vehicleType && r.Zone != nil && *r.Zone == zone:
			return r
		case r.VehicleType == vehicleType && r.Zone == nil && vehicleAnyZone == nil:
			vehicleAnyZone = &rates[i]
		case r.IsDefault && r.appliesToVehicle(vehicleType) && r.appliesToZone(zone) && allTypesDefault == nil:
			allTypesDefault = &rates[i]
		}
	}

	if vehicleAnyZone != nil {
		return *vehicleAnyZone
	}
	if allTypesDefault != nil {
		return *allTypesDefault
	}
	return FallbackRate()
}

func FallbackRate() Rate {
	return Rate{
		HourlyPaise:         FallbackHourlyPaise,
		SpecialStartMin:     -1,
		SpecialEndMin:       -1,
		ExtensionMultiplier: 1.0,
		IsDefault:           true,
	}
}

// hourlyAt selects the hourly price applicable at the anchor instant:
// special window first, then weekend, then base.
func (e *Engine) hourlyAt(rate Rate, anchor time.Time) int64 {
	if rate.InSpecialWindow(anchor) {
		return rate.SpecialHourlyPaise
	}
	if isWeekend(anchor) && rate.WeekendHourlyPaise > 0 {
		return rate.WeekendHourlyPaise
	}
	return rate.HourlyPaise
}

// Price computes the charge for [start, end) under the rate, anchored at
// start. Daily components apply once the duration passes the configured
// threshold; otherwise price is hoursElapsed x applicable hourly rate,
// rounded to two decimals.
func (e *Engine) Price(rate Rate, start, end time.Time) reservation.Money {
	if !end.After(start) {
		return reservation.NewMoney(0)
	}

	hours := end.Sub(start).Hours()
	hourly := e.hourlyAt(rate, start)

	if rate.DailyPaise > 0 && rate.DailyAfterHours > 0 && hours >= rate.DailyAfterHours {
		days := math.Floor(hours / 24)
		if days < 1 {
			days = 1
		}
		remainder := hours - days*24
		if remainder < 0 {
			remainder = 0
		}
		total := days*float64(rate.DailyPaise) + remainder*float64(hourly)
		return reservation.NewMoney(int64(math.Round(total)))
	}

	return reservation.NewMoney(int64(math.Round(hours * float64(hourly))))
}

// ExtensionPrice prices the delta beyond the current end, anchored at the
// current end time and multiplied by the rate's extension multiplier.
// Zero when newEnd does not move the end forward.
func (e *Engine) ExtensionPrice(rate Rate, currentEnd, newEnd time.Time) reservation.Money {
	if !newEnd.After(currentEnd) {
		return reservation.NewMoney(0)
	}
	base := e.Price(rate, currentEnd, newEnd)
	multiplier := rate.ExtensionMultiplier
	if multiplier <= 0 {
		multiplier = 1.0
	}
	return base.MulRounded(multiplier)
}

// OvertimePrice charges occupancy past the booked end at the hourly price
// applicable at the booked end instant.
func (e *Engine) OvertimePrice(rate Rate, bookedEnd, actualEnd time.Time) reservation.Money {
	if !actualEnd.After(bookedEnd) {
		return reservation.NewMoney(0)
	}
	hours := actualEnd.Sub(bookedEnd).Hours()
	hourly := e.hourlyAt(rate, bookedEnd)
	return reservation.NewMoney(int64(math.Round(hours * float64(hourly))))
}

func isWeekend(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}
