package audit

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Repository persists audit events
type Repository interface {
	Insert(ctx context.Context, e *Event) error
	List(ctx context.Context, f Filter) ([]Event, error)
	Count(ctx context.Context, f Filter) (int, error)
}

// PostgresRepository handles audit event database operations
type PostgresRepository struct {
	db *sqlx.DB
}

// NewRepository creates a new audit repository
func NewRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, e *Event) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, actor_id, action, entity_type, entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.ActorID, e.Action, e.EntityType, e.EntityID, e.Details, e.CreatedAt)
	return err
}

func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]Event, error) {
	where, args := buildFilter(f)

	query := `
		SELECT id, actor_id, action, entity_type, entity_id, details, created_at
		FROM audit_events
	` + where + `
		ORDER BY created_at DESC
		LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, f.Limit, f.Offset)

	var events []Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *PostgresRepository) Count(ctx context.Context, f Filter) (int, error) {
	where, args := buildFilter(f)
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM audit_events`+where, args...)
	return count, err
}

func buildFilter(f Filter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if f.Action != "" {
		args = append(args, f.Action)
		conds = append(conds, "action = $"+strconv.Itoa(len(args)))
	}
	if f.EntityType != "" {
		args = append(args, f.EntityType)
		conds = append(conds, "entity_type = $"+strconv.Itoa(len(args)))
	}
	if f.EntityID != nil {
		args = append(args, *f.EntityID)
		conds = append(conds, "entity_id = $"+strconv.Itoa(len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
