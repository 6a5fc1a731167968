package repository

import (
	"context"
	"encoding/json"

	"parkgate/internal/domain/audit"
	"parkgate/internal/infra"
)

type AuditRepository struct {
	db DBTX
}

func NewAuditRepository(db DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, entry audit.Entry) error {
	detail, err := json.Marshal(entry.Detail)
	if err != nil {
		return infra.WrapRepoErr("failed to encode audit detail", err, infra.KindDBFailure)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO audit_entries (id, actor_id, reservation_id, action, success, detail, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.ActorID, entry.ReservationID, string(entry.Action), entry.Success, detail, entry.At,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to append audit entry", err)
	}
	return nil
}
