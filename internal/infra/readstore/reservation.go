package readstore

import (
	"context"
	"fmt"

	"parkgate/internal/infra"
	"parkgate/internal/infra/repository"
	"parkgate/internal/usecase/monitor"
	"parkgate/internal/usecase/queries"

	"github.com/google/uuid"
)

// ReservationReadStore serves the flattened projections: client views, the
// monitor's occupancy rows, the expiry sweeper's candidates and secret-code
// uniqueness checks. It reads on the pool, outside any transaction.
type ReservationReadStore struct {
	db repository.DBTX
}

func NewReservationReadStore(db repository.DBTX) *ReservationReadStore {
	return &ReservationReadStore{db: db}
}

const viewColumns = `
	r.id, r.slot_id, s.code, r.user_id, r.vehicle_plate, r.vehicle_type,
	r.zone, r.status, r.start_time, r.end_time, r.initial_end,
	r.total_price_paise, COALESCE(jsonb_array_length(r.extensions), 0),
	r.secret_code IS NOT NULL,
	r.checked_in_at, r.checked_out_at, r.actual_minutes,
	r.overtime_minutes, r.overtime_charge_paise,
	r.created_at, r.updated_at`

func (r *ReservationReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.ReservationView, error) {
	row := r.db.QueryRow(ctx, `
		SELECT`+viewColumns+`
		FROM reservations r
		JOIN slots s ON s.id = r.slot_id
		WHERE r.id = $1`, id)
	view, err := scanView(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation view", err)
	}
	return view, nil
}

func (r *ReservationReadStore) ListByUser(ctx context.Context, userID uuid.UUID, filter queries.ListFilter) ([]queries.ReservationView, error) {
	sql := `
		SELECT` + viewColumns + `
		FROM reservations r
		JOIN slots s ON s.id = r.slot_id
		WHERE r.user_id = $1`
	args := []any{userID}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		sql += fmt.Sprintf(` AND r.status = $%d`, len(args))
	}
	args = append(args, filter.Limit, filter.Offset)
	sql += fmt.Sprintf(` ORDER BY r.created_at DESC, r.id DESC LIMIT $%d OFFSET $%d`,
		len(args)-1, len(args))

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list reservations by user", err)
	}
	defer rows.Close()

	var views []queries.ReservationView
	for rows.Next() {
		view, err := scanView(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan reservation view", err)
		}
		views = append(views, *view)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate reservation views", err)
	}
	return views, nil
}

// ListOccupying projects every reservation currently holding a slot, for the
// long-stay monitor.
func (r *ReservationReadStore) ListOccupying(ctx context.Context) ([]monitor.OccupancyRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT r.id, r.slot_id, s.code, r.user_id, r.vehicle_plate, r.zone,
		       r.status, r.contact_email, r.contact_phone,
		       r.checked_in_at, r.end_time
		FROM reservations r
		JOIN slots s ON s.id = r.slot_id
		WHERE r.active
		  AND r.status IN ('checked_in', 'checkout_requested', 'checkout_verified')
		  AND r.checked_in_at IS NOT NULL
		ORDER BY r.checked_in_at`)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list occupying reservations", err)
	}
	defer rows.Close()

	var result []monitor.OccupancyRow
	for rows.Next() {
		var row monitor.OccupancyRow
		err := rows.Scan(
			&row.ReservationID, &row.SlotID, &row.SlotCode, &row.UserID, &row.VehiclePlate,
			&row.Zone, &row.Status, &row.ContactEmail, &row.ContactPhone,
			&row.CheckedInAt, &row.BookedEnd,
		)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan occupancy row", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate occupancy rows", err)
	}
	return result, nil
}

// ListExpiredConfirmedIDs lists confirmed reservations whose booked window
// has fully elapsed without a check-in.
func (r *ReservationReadStore) ListExpiredConfirmedIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id
		FROM reservations
		WHERE active
		  AND status = 'confirmed'
		  AND end_time < now()`)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list expired reservations", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, infra.WrapRepoErr("failed to scan expired reservation id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate expired reservation ids", err)
	}
	return ids, nil
}

// CodeInUse reports whether any active reservation holds the code. Backed by
// the partial unique index on (secret_code) WHERE active.
func (r *ReservationReadStore) CodeInUse(ctx context.Context, code string) (bool, error) {
	var inUse bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM reservations WHERE secret_code = $1 AND active)`,
		code,
	).Scan(&inUse)
	if err != nil {
		return false, infra.WrapRepoErr("failed to check secret code uniqueness", err)
	}
	return inUse, nil
}

type viewScanner interface {
	Scan(dest ...any) error
}

func scanView(row viewScanner) (*queries.ReservationView, error) {
	var v queries.ReservationView
	err := row.Scan(
		&v.ID, &v.SlotID, &v.SlotCode, &v.UserID, &v.VehiclePlate, &v.VehicleType,
		&v.Zone, &v.Status, &v.StartTime, &v.EndTime, &v.InitialEnd,
		&v.TotalPricePaise, &v.ExtensionCount,
		&v.HasSecretCode,
		&v.CheckedInAt, &v.CheckedOutAt, &v.ActualMinutes,
		&v.OvertimeMinutes, &v.OvertimeCharge,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

