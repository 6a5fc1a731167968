package pricing

import (
	"time"

	"github.com/google/uuid"
)

// Rate is one pricing rule scoped by vehicle type, optional zone and an
// optional time-of-day window. Prices are paise per unit.
type Rate struct {
	ID          uuid.UUID
	VehicleType string  // empty = applies to all vehicle types (default scope)
	Zone        *string // nil = any zone

	HourlyPaise        int64
	DailyPaise         int64
	WeekendHourlyPaise int64
	SpecialHourlyPaise int64

	// Special window in minutes of day; StartMin > EndMin wraps past midnight.
	// Both -1 when the rate has no special window.
	SpecialStartMin int
	SpecialEndMin   int

	// Hours after which daily pricing kicks in. Zero means never.
	DailyAfterHours float64

	ExtensionMultiplier float64

	EffectiveFrom *time.Time
	EffectiveTo   *time.Time

	IsDefault bool
}

// EffectiveAt reports whether the rate's effective window contains t.
func (r Rate) EffectiveAt(t time.Time) bool {
	if r.EffectiveFrom != nil && t.Before(*r.EffectiveFrom) {
		return false
	}
	if r.EffectiveTo != nil && t.After(*r.EffectiveTo) {
		return false
	}
	return true
}

// HasSpecialWindow reports whether a time-of-day override is configured.
func (r Rate) HasSpecialWindow() bool {
	return r.SpecialStartMin >= 0 && r.SpecialEndMin >= 0 && r.SpecialHourlyPaise > 0
}

// InSpecialWindow tests minutes-of-day membership, wrapping past midnight
// when StartMin > EndMin.
func (r Rate) InSpecialWindow(t time.Time) bool {
	if !r.HasSpecialWindow() {
		return false
	}
	m := t.Hour()*60 + t.Minute()
	if r.SpecialStartMin > r.SpecialEndMin {
		return m >= r.SpecialStartMin || m < r.SpecialEndMin
	}
	return m >= r.SpecialStartMin && m < r.SpecialEndMin
}

func (r Rate) appliesToVehicle(vehicleType string) bool {
	return r.VehicleType == "" || r.VehicleType == vehicleType
}

func (r Rate) appliesToZone(zone string) bool {
	return r.Zone == nil || *r.Zone == zone
}
