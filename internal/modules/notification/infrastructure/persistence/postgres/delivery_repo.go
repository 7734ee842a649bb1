package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dkarpov/fleetwire/internal/modules/notification/domain"
)

type PgDeliveryRepository struct {
	db *sqlx.DB
}

func NewPgDeliveryRepository(db *sqlx.DB) *PgDeliveryRepository {
	return &PgDeliveryRepository{db: db}
}

func (r *PgDeliveryRepository) Record(ctx context.Context, d *domain.Delivery) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO notification_deliveries (id, notification_id, channel, status, created_at)
		VALUES (:id, :notification_id, :channel, :status, :created_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, d)
	return err
}
