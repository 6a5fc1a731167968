package repository

import (
	"context"
	"time"

	"parkgate/internal/domain/pricing"
	"parkgate/internal/infra"
)

type RateRepository struct {
	db DBTX
}

func NewRateRepository(db DBTX) *RateRepository {
	return &RateRepository{db: db}
}

// FindApplicable returns candidate rates for the vehicle type and zone,
// including any-zone and default-scope rows. Specificity ordering happens in
// the pricing engine, not here.
func (r *RateRepository) FindApplicable(ctx context.Context, vehicleType, zone string, at time.Time) ([]pricing.Rate, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, vehicle_type, zone, hourly_paise, daily_paise,
		       weekend_hourly_paise, special_hourly_paise,
		       special_start_min, special_end_min, daily_after_hours,
		       extension_multiplier, effective_from, effective_to, is_default
		FROM rates
		WHERE (vehicle_type = $1 OR vehicle_type = '' OR is_default)
		  AND (zone IS NULL OR zone = $2)
		  AND (effective_from IS NULL OR effective_from <= $3)
		  AND (effective_to IS NULL OR effective_to > $3)
		ORDER BY effective_from DESC NULLS LAST`,
		vehicleType, zone, at)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query applicable rates", err)
	}
	defer rows.Close()

	var rates []pricing.Rate
	for rows.Next() {
		var rate pricing.Rate
		err := rows.Scan(
			&rate.ID, &rate.VehicleType, &rate.Zone, &rate.HourlyPaise, &rate.DailyPaise,
			&rate.WeekendHourlyPaise, &rate.SpecialHourlyPaise,
			&rate.SpecialStartMin, &rate.SpecialEndMin, &rate.DailyAfterHours,
			&rate.ExtensionMultiplier, &rate.EffectiveFrom, &rate.EffectiveTo, &rate.IsDefault,
		)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan rate row", err)
		}
		rates = append(rates, rate)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate rate rows", err)
	}
	return rates, nil
}
