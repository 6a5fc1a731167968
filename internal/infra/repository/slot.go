package repository

import (
	"context"
	"time"

	"parkgate/internal/domain/slot"
	"parkgate/internal/infra"

	"github.com/google/uuid"
)

type SlotRepository struct {
	db DBTX
}

func NewSlotRepository(db DBTX) *SlotRepository {
	return &SlotRepository{db: db}
}

func (r *SlotRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*slot.Slot, error) {
	var (
		code, zone, floor, section string
		vehicleTypes               []string
		occupied                   bool
		createdAt, updatedAt       time.Time
	)
	err := r.db.QueryRow(ctx, `
		SELECT code, zone, floor, section, vehicle_types, occupied, created_at, updated_at
		FROM slots
		WHERE id = $1
		FOR UPDATE`,
		id,
	).Scan(&code, &zone, &floor, &section, &vehicleTypes, &occupied, &createdAt, &updatedAt)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, infra.WrapRepoErr("slot not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find slot for update", err)
	}
	return slot.Reconstruct(id, code, zone, floor, section, vehicleTypes, occupied, createdAt, updatedAt), nil
}

func (r *SlotRepository) SetOccupied(ctx context.Context, id uuid.UUID, occupied bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE slots SET occupied = $2, updated_at = now() WHERE id = $1`, id, occupied)
	if err != nil {
		return infra.WrapRepoErr("failed to set slot occupied flag", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("slot not found", nil, infra.KindNotFound)
	}
	return nil
}
