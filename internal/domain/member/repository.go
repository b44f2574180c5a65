package member

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository persists members
type Repository interface {
	Create(ctx context.Context, m *Member) error
	GetByID(ctx context.Context, id uuid.UUID) (*Member, error)
	GetByPhone(ctx context.Context, phone string) (*Member, error)
	Update(ctx context.Context, m *Member) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, search string, limit, offset int) ([]Member, error)
	Count(ctx context.Context, search string) (int, error)
}

// PostgresRepository handles member database operations
type PostgresRepository struct {
	db *sqlx.DB
}

// NewRepository creates a new member repository
func NewRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, m *Member) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO members (id, full_name, phone, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, m.ID, m.FullName, m.Phone, m.Email, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicatePhone
		}
		return err
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Member, error) {
	var m Member
	err := r.db.GetContext(ctx, &m, `
		SELECT id, full_name, phone, email, created_at, updated_at
		FROM members
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PostgresRepository) GetByPhone(ctx context.Context, phone string) (*Member, error) {
	var m Member
	err := r.db.GetContext(ctx, &m, `
		SELECT id, full_name, phone, email, created_at, updated_at
		FROM members
		WHERE phone = $1
	`, phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PostgresRepository) Update(ctx context.Context, m *Member) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE members
		SET full_name = $1, phone = $2, email = $3, updated_at = $4
		WHERE id = $5
	`, m.FullName, m.Phone, m.Email, m.UpdatedAt, m.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicatePhone
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrHasCards
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, search string, limit, offset int) ([]Member, error) {
	var members []Member
	var err error
	if search != "" {
		err = r.db.SelectContext(ctx, &members, `
			SELECT id, full_name, phone, email, created_at, updated_at
			FROM members
			WHERE full_name ILIKE '%' || $1 || '%' OR phone LIKE '%' || $1 || '%'
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3
		`, search, limit, offset)
	} else {
		err = r.db.SelectContext(ctx, &members, `
			SELECT id, full_name, phone, email, created_at, updated_at
			FROM members
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2
		`, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *PostgresRepository) Count(ctx context.Context, search string) (int, error) {
	var count int
	var err error
	if search != "" {
		err = r.db.GetContext(ctx, &count, `
			SELECT COUNT(*) FROM members
			WHERE full_name ILIKE '%' || $1 || '%' OR phone LIKE '%' || $1 || '%'
		`, search)
	} else {
		err = r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM members`)
	}
	return count, err
}
