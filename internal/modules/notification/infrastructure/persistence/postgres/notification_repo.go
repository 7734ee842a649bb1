package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/dkarpov/fleetwire/internal/modules/notification/domain"
)

// priorityRank is the ORDER BY tie-breaker: URGENT > HIGH > MEDIUM > LOW at
// equal created_at.
const priorityRank = `CASE priority WHEN 'URGENT' THEN 4 WHEN 'HIGH' THEN 3 WHEN 'MEDIUM' THEN 2 ELSE 1 END`

// notForDriver excludes driver-facing copies from company feeds.
const notForDriver = `NOT COALESCE((data->>'forDriver')::boolean, FALSE)`

type PgNotificationRepository struct {
	db *sqlx.DB
}

func NewPgNotificationRepository(db *sqlx.DB) *PgNotificationRepository {
	return &PgNotificationRepository{db: db}
}

func (r *PgNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = n.CreatedAt
	}
	query := `
		INSERT INTO notifications (
			id, carrier_id, user_id, driver_id, type, priority, title, message, data,
			is_read, read_at, expires_at, load_id, assignment_id, route_leg_id, invoice_id,
			created_at, updated_at
		) VALUES (
			:id, :carrier_id, :user_id, :driver_id, :type, :priority, :title, :message, :data,
			:is_read, :read_at, :expires_at, :load_id, :assignment_id, :route_leg_id, :invoice_id,
			:created_at, :updated_at
		)
	`
	_, err := r.db.NamedExecContext(ctx, query, n)
	return err
}

// listClauses builds the shared WHERE for List. The company-feed semantics
// are deliberate: a user sees rows addressed to them plus broadcast rows
// (user_id IS NULL), never driver copies, never expired rows.
func listClauses(f domain.ListFilter, now time.Time) (string, []interface{}) {
	clauses := []string{"(expires_at IS NULL OR expires_at > $1)"}
	args := []interface{}{now}

	if f.CarrierID != uuid.Nil {
		args = append(args, f.CarrierID)
		clauses = append(clauses, fmt.Sprintf("carrier_id = $%d", len(args)))
	}
	if f.UserID != nil {
		args = append(args, *f.UserID)
		clauses = append(clauses, fmt.Sprintf("(user_id = $%d OR user_id IS NULL)", len(args)))
		clauses = append(clauses, notForDriver)
	}
	if f.UnreadOnly {
		clauses = append(clauses, "is_read = FALSE")
	}
	if len(f.Types) > 0 {
		types := make([]string, len(f.Types))
		for i, t := range f.Types {
			types[i] = string(t)
		}
		args = append(args, pq.Array(types))
		clauses = append(clauses, fmt.Sprintf("type = ANY($%d)", len(args)))
	}
	if f.Since != nil {
		args = append(args, *f.Since)
		clauses = append(clauses, fmt.Sprintf("created_at > $%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func (r *PgNotificationRepository) List(ctx context.Context, f domain.ListFilter) ([]domain.Notification, int, error) {
	where, args := listClauses(f, time.Now())

	var total int
	countQuery := "SELECT COUNT(*) FROM notifications WHERE " + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit)
	limitPos := len(args)
	args = append(args, f.Offset)
	offsetPos := len(args)

	query := fmt.Sprintf(`
		SELECT * FROM notifications
		WHERE %s
		ORDER BY created_at DESC, %s DESC
		LIMIT $%d OFFSET $%d
	`, where, priorityRank, limitPos, offsetPos)

	notifications := []domain.Notification{}
	if err := r.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

func (r *PgNotificationRepository) MarkRead(ctx context.Context, ids []uuid.UUID, userID, carrierID uuid.UUID) (int64, error) {
	query := `
		UPDATE notifications
		SET is_read = TRUE, read_at = $1, updated_at = $1
		WHERE id = ANY($2)
		  AND carrier_id = $3
		  AND (user_id = $4 OR user_id IS NULL)
		  AND is_read = FALSE
	`
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}
	res, err := r.db.ExecContext(ctx, query, time.Now(), pq.Array(strIDs), carrierID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PgNotificationRepository) MarkAllRead(ctx context.Context, userID, carrierID uuid.UUID) (int64, error) {
	query := `
		UPDATE notifications
		SET is_read = TRUE, read_at = $1, updated_at = $1
		WHERE carrier_id = $2
		  AND (user_id = $3 OR user_id IS NULL)
		  AND ` + notForDriver + `
		  AND is_read = FALSE
	`
	res, err := r.db.ExecContext(ctx, query, time.Now(), carrierID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PgNotificationRepository) CountUnreadByType(ctx context.Context, userID, carrierID uuid.UUID) (map[domain.NotificationType]int, error) {
	query := `
		SELECT type, COUNT(*) AS count FROM notifications
		WHERE carrier_id = $1
		  AND (user_id = $2 OR user_id IS NULL)
		  AND ` + notForDriver + `
		  AND is_read = FALSE
		  AND (expires_at IS NULL OR expires_at > $3)
		GROUP BY type
	`
	rows := []struct {
		Type  domain.NotificationType `db:"type"`
		Count int                     `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, carrierID, userID, time.Now()); err != nil {
		return nil, err
	}
	out := make(map[domain.NotificationType]int, len(rows))
	for _, row := range rows {
		out[row.Type] = row.Count
	}
	return out, nil
}

func (r *PgNotificationRepository) RecentByKey(ctx context.Context, t domain.NotificationType, assignmentID *uuid.UUID, userID uuid.UUID, limit int) ([]domain.Notification, error) {
	clauses := []string{"type = $1", "user_id = $2"}
	args := []interface{}{t, userID}
	if assignmentID != nil {
		args = append(args, *assignmentID)
		clauses = append(clauses, fmt.Sprintf("assignment_id = $%d", len(args)))
	} else {
		clauses = append(clauses, "assignment_id IS NULL")
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT * FROM notifications
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d
	`, strings.Join(clauses, " AND "), len(args))

	notifications := []domain.Notification{}
	if err := r.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *PgNotificationRepository) PollSince(ctx context.Context, carrierID, userID uuid.UUID, since time.Time, limit int) ([]domain.Notification, error) {
	query := `
		SELECT * FROM notifications
		WHERE carrier_id = $1
		  AND (user_id = $2 OR user_id IS NULL)
		  AND ` + notForDriver + `
		  AND is_read = FALSE
		  AND created_at > $3
		  AND (expires_at IS NULL OR expires_at > $4)
		ORDER BY created_at DESC, ` + priorityRank + ` DESC
		LIMIT $5
	`
	notifications := []domain.Notification{}
	if err := r.db.SelectContext(ctx, &notifications, query, carrierID, userID, since, time.Now(), limit); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *PgNotificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE expires_at IS NOT NULL AND expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PgNotificationRepository) Count(ctx context.Context, since *time.Time) (int64, error) {
	var count int64
	if since != nil {
		err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM notifications WHERE created_at >= $1`, *since)
		return count, err
	}
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM notifications`)
	return count, err
}
