package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dkarpov/fleetwire/internal/modules/notification/domain"
)

type PgPreferenceRepository struct {
	db *sqlx.DB
}

func NewPgPreferenceRepository(db *sqlx.DB) *PgPreferenceRepository {
	return &PgPreferenceRepository{db: db}
}

func (r *PgPreferenceRepository) GetByTriple(ctx context.Context, userID, carrierID uuid.UUID, t domain.NotificationType) (*domain.Preference, error) {
	pref := &domain.Preference{}
	query := `SELECT * FROM notification_preferences WHERE user_id = $1 AND carrier_id = $2 AND type = $3`
	err := r.db.GetContext(ctx, pref, query, userID, carrierID, t)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPreferenceNotFound
	}
	if err != nil {
		return nil, err
	}
	return pref, nil
}

func (r *PgPreferenceRepository) ListByUser(ctx context.Context, userID, carrierID uuid.UUID) ([]domain.Preference, error) {
	prefs := []domain.Preference{}
	query := `SELECT * FROM notification_preferences WHERE user_id = $1 AND carrier_id = $2 ORDER BY type`
	if err := r.db.SelectContext(ctx, &prefs, query, userID, carrierID); err != nil {
		return nil, err
	}
	return prefs, nil
}

func (r *PgPreferenceRepository) BulkCreate(ctx context.Context, prefs []domain.Preference) error {
	if len(prefs) == 0 {
		return nil
	}
	query := `
		INSERT INTO notification_preferences (id, user_id, carrier_id, type, enabled, email_enabled, sms_enabled, push_enabled, created_at, updated_at)
		VALUES (:id, :user_id, :carrier_id, :type, :enabled, :email_enabled, :sms_enabled, :push_enabled, :created_at, :updated_at)
		ON CONFLICT (user_id, carrier_id, type) DO NOTHING
	`
	_, err := r.db.NamedExecContext(ctx, query, prefs)
	return err
}

func (r *PgPreferenceRepository) Upsert(ctx context.Context, p *domain.Preference) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = time.Now()
	query := `
		INSERT INTO notification_preferences (id, user_id, carrier_id, type, enabled, email_enabled, sms_enabled, push_enabled, created_at, updated_at)
		VALUES (:id, :user_id, :carrier_id, :type, :enabled, :email_enabled, :sms_enabled, :push_enabled, :created_at, :updated_at)
		ON CONFLICT (user_id, carrier_id, type) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			email_enabled = EXCLUDED.email_enabled,
			sms_enabled = EXCLUDED.sms_enabled,
			push_enabled = EXCLUDED.push_enabled,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.NamedExecContext(ctx, query, p)
	return err
}

func (r *PgPreferenceRepository) EnabledMap(ctx context.Context, userID, carrierID uuid.UUID) (map[domain.NotificationType]bool, error) {
	rows := []struct {
		Type    domain.NotificationType `db:"type"`
		Enabled bool                    `db:"enabled"`
	}{}
	query := `SELECT type, enabled FROM notification_preferences WHERE user_id = $1 AND carrier_id = $2`
	if err := r.db.SelectContext(ctx, &rows, query, userID, carrierID); err != nil {
		return nil, err
	}
	out := make(map[domain.NotificationType]bool, len(rows))
	for _, row := range rows {
		out[row.Type] = row.Enabled
	}
	return out, nil
}

func (r *PgPreferenceRepository) DisabledFraction(ctx context.Context) (float64, error) {
	var fraction float64
	query := `SELECT COALESCE(AVG(CASE WHEN enabled THEN 0.0 ELSE 1.0 END), 0) FROM notification_preferences`
	err := r.db.GetContext(ctx, &fraction, query)
	return fraction, err
}
