package repository

import (
	"context"
	"encoding/json"
	"time"

	"parkgate/internal/domain/reservation"
	"parkgate/internal/infra"
	"parkgate/internal/pkg/ptr"

	"github.com/google/uuid"
)

type ReservationRepository struct {
	db DBTX
}

func NewReservationRepository(db DBTX) *ReservationRepository {
	return &ReservationRepository{db: db}
}

const reservationColumns = `
	id, slot_id, user_id, vehicle_plate, vehicle_type, zone,
	contact_email, contact_phone, start_time, end_time, initial_end,
	status, total_price_paise, extensions, secret_code,
	entry_verifier_id, entry_verified_at, entry_notes,
	exit_verifier_id, exit_verified_at, exit_notes,
	checked_in_at, check_in_actor_id, check_in_ip,
	checked_out_at, check_out_actor_id, check_out_ip,
	actual_minutes, overtime_minutes, overtime_charge_paise,
	active, created_at, updated_at`

func (r *ReservationRepository) Create(ctx context.Context, res *reservation.Reservation) error {
	extensions, err := marshalExtensions(res.Extensions())
	if err != nil {
		return infra.WrapRepoErr("failed to encode extensions", err, infra.KindDBFailure)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO reservations (
			id, slot_id, user_id, vehicle_plate, vehicle_type, zone,
			contact_email, contact_phone, start_time, end_time, initial_end,
			status, total_price_paise, extensions, secret_code,
			actual_minutes, overtime_minutes, overtime_charge_paise,
			active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19, $20, $21
		)`,
		res.ID(), res.SlotID(), res.UserID(), res.VehiclePlate(), res.VehicleType(), res.Zone(),
		res.ContactEmail(), res.ContactPhone(), res.TimeSlot().Start(), res.TimeSlot().End(), res.InitialEnd(),
		res.Status().String(), res.TotalPrice().Paise(), extensions, nullableString(res.SecretCode()),
		res.ActualMinutes(), res.OvertimeMinutes(), res.OvertimeCharge().Paise(),
		res.IsActive(), res.CreatedAt(), res.UpdatedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create reservation", err)
	}
	return nil
}

func (r *ReservationRepository) Update(ctx context.Context, res *reservation.Reservation) error {
	extensions, err := marshalExtensions(res.Extensions())
	if err != nil {
		return infra.WrapRepoErr("failed to encode extensions", err, infra.KindDBFailure)
	}

	var (
		entryVerifierID, exitVerifierID   *uuid.UUID
		entryVerifiedAt, exitVerifiedAt   *time.Time
		entryNotes, exitNotes             *string
		checkedInAt, checkedOutAt         *time.Time
		checkInActorID, checkOutActorID   *uuid.UUID
		checkInIP, checkOutIP             *string
	)
	if v := res.EntryVerification(); v != nil {
		entryVerifierID, entryVerifiedAt, entryNotes = &v.VerifierID, &v.At, &v.Notes
	}
	if v := res.ExitVerification(); v != nil {
		exitVerifierID, exitVerifiedAt, exitNotes = &v.VerifierID, &v.At, &v.Notes
	}
	if e := res.CheckInEvent(); e != nil {
		checkedInAt, checkInActorID, checkInIP = &e.At, &e.ActorID, &e.SourceIP
	}
	if e := res.CheckOutEvent(); e != nil {
		checkedOutAt, checkOutActorID, checkOutIP = &e.At, &e.ActorID, &e.SourceIP
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE reservations SET
			start_time = $2, end_time = $3, status = $4, total_price_paise = $5,
			extensions = $6, secret_code = $7,
			entry_verifier_id = $8, entry_verified_at = $9, entry_notes = $10,
			exit_verifier_id = $11, exit_verified_at = $12, exit_notes = $13,
			checked_in_at = $14, check_in_actor_id = $15, check_in_ip = $16,
			checked_out_at = $17, check_out_actor_id = $18, check_out_ip = $19,
			actual_minutes = $20, overtime_minutes = $21, overtime_charge_paise = $22,
			active = $23, updated_at = $24
		WHERE id = $1`,
		res.ID(),
		res.TimeSlot().Start(), res.TimeSlot().End(), res.Status().String(), res.TotalPrice().Paise(),
		extensions, nullableString(res.SecretCode()),
		entryVerifierID, entryVerifiedAt, entryNotes,
		exitVerifierID, exitVerifiedAt, exitNotes,
		checkedInAt, checkInActorID, checkInIP,
		checkedOutAt, checkOutActorID, checkOutIP,
		res.ActualMinutes(), res.OvertimeMinutes(), res.OvertimeCharge().Paise(),
		res.IsActive(), res.UpdatedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update reservation", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *ReservationRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	row := r.db.QueryRow(ctx,
		`SELECT`+reservationColumns+` FROM reservations WHERE id = $1 FOR UPDATE`, id)
	res, err := scanReservation(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation for update", err)
	}
	return res, nil
}

func (r *ReservationRepository) FindConfirmedByPlate(ctx context.Context, plate string, from, to time.Time) (*reservation.Reservation, error) {
	row := r.db.QueryRow(ctx,
		`SELECT`+reservationColumns+`
		 FROM reservations
		 WHERE vehicle_plate = $1
		   AND status = 'confirmed'
		   AND active
		   AND start_time <= $3
		   AND end_time >= $2
		 ORDER BY start_time
		 LIMIT 1
		 FOR UPDATE`, plate, from, to)
	res, err := scanReservation(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, infra.WrapRepoErr("no confirmed reservation for plate", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation by plate", err)
	}
	return res, nil
}

func (r *ReservationRepository) CountOverlapping(ctx context.Context, slotID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM reservations
		WHERE slot_id = $1
		  AND active
		  AND id <> $4
		  AND start_time < $3
		  AND end_time > $2`,
		slotID, start, end, excludeID,
	).Scan(&count)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to count overlapping reservations", err)
	}
	return count, nil
}

func (r *ReservationRepository) ActiveOccupant(ctx context.Context, slotID uuid.UUID) (*uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.QueryRow(ctx, `
		SELECT id
		FROM reservations
		WHERE slot_id = $1
		  AND active
		  AND status IN ('checked_in', 'checkout_requested', 'checkout_verified')
		LIMIT 1`,
		slotID,
	).Scan(&id)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, nil
		}
		return nil, infra.WrapRepoErr("failed to find active occupant", err)
	}
	return &id, nil
}

// extensionRecord is the jsonb shape of one extension entry.
type extensionRecord struct {
	At                  time.Time `json:"at"`
	NewEnd              time.Time `json:"new_end"`
	AdditionalCostPaise int64     `json:"additional_cost_paise"`
}

func marshalExtensions(exts []reservation.Extension) ([]byte, error) {
	records := make([]extensionRecord, len(exts))
	for i, e := range exts {
		records[i] = extensionRecord{
			At:                  e.At,
			NewEnd:              e.NewEnd,
			AdditionalCostPaise: e.AdditionalCost.Paise(),
		}
	}
	return json.Marshal(records)
}

func unmarshalExtensions(data []byte) ([]reservation.Extension, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var records []extensionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	exts := make([]reservation.Extension, len(records))
	for i, rec := range records {
		exts[i] = reservation.Extension{
			At:             rec.At,
			NewEnd:         rec.NewEnd,
			AdditionalCost: reservation.NewMoney(rec.AdditionalCostPaise),
		}
	}
	return exts, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*reservation.Reservation, error) {
	var (
		id, slotID, userID                             uuid.UUID
		vehiclePlate, vehicleType, zone                string
		contactEmail, contactPhone                     string
		startTime, endTime, initialEnd                 time.Time
		status                                         string
		totalPricePaise, overtimeChargePaise           int64
		extensionsRaw                                  []byte
		secretCode                                     *string
		entryVerifierID, exitVerifierID                *uuid.UUID
		entryVerifiedAt, exitVerifiedAt                *time.Time
		entryNotes, exitNotes                          *string
		checkedInAt, checkedOutAt                      *time.Time
		checkInActorID, checkOutActorID                *uuid.UUID
		checkInIP, checkOutIP                          *string
		actualMinutes, overtimeMinutes                 int
		active                                         bool
		createdAt, updatedAt                           time.Time
	)

	err := row.Scan(
		&id, &slotID, &userID, &vehiclePlate, &vehicleType, &zone,
		&contactEmail, &contactPhone, &startTime, &endTime, &initialEnd,
		&status, &totalPricePaise, &extensionsRaw, &secretCode,
		&entryVerifierID, &entryVerifiedAt, &entryNotes,
		&exitVerifierID, &exitVerifiedAt, &exitNotes,
		&checkedInAt, &checkInActorID, &checkInIP,
		&checkedOutAt, &checkOutActorID, &checkOutIP,
		&actualMinutes, &overtimeMinutes, &overtimeChargePaise,
		&active, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	slot, err := reservation.NewTimeSlot(startTime, endTime)
	if err != nil {
		return nil, err
	}
	extensions, err := unmarshalExtensions(extensionsRaw)
	if err != nil {
		return nil, err
	}

	params := reservation.ReconstructParams{
		ID:              id,
		SlotID:          slotID,
		UserID:          userID,
		VehiclePlate:    vehiclePlate,
		VehicleType:     vehicleType,
		Zone:            zone,
		ContactEmail:    contactEmail,
		ContactPhone:    contactPhone,
		Slot:            slot,
		InitialEnd:      initialEnd,
		Status:          reservation.Status(status),
		TotalPrice:      reservation.NewMoney(totalPricePaise),
		Extensions:      extensions,
		ActualMinutes:   actualMinutes,
		OvertimeMinutes: overtimeMinutes,
		OvertimeCharge:  reservation.NewMoney(overtimeChargePaise),
		Active:          active,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}
	if secretCode != nil {
		params.SecretCode = *secretCode
	}
	if entryVerifierID != nil && entryVerifiedAt != nil {
		params.EntryVerification = &reservation.Verification{
			VerifierID: *entryVerifierID,
			At:         *entryVerifiedAt,
			Notes:      ptr.ValueOr(entryNotes, ""),
		}
	}
	if exitVerifierID != nil && exitVerifiedAt != nil {
		params.ExitVerification = &reservation.Verification{
			VerifierID: *exitVerifierID,
			At:         *exitVerifiedAt,
			Notes:      ptr.ValueOr(exitNotes, ""),
		}
	}
	if checkedInAt != nil && checkInActorID != nil {
		params.CheckIn = &reservation.CheckEvent{
			At:       *checkedInAt,
			ActorID:  *checkInActorID,
			SourceIP: ptr.ValueOr(checkInIP, ""),
		}
	}
	if checkedOutAt != nil && checkOutActorID != nil {
		params.CheckOut = &reservation.CheckEvent{
			At:       *checkedOutAt,
			ActorID:  *checkOutActorID,
			SourceIP: ptr.ValueOr(checkOutIP, ""),
		}
	}
	return reservation.Reconstruct(params), nil
}
