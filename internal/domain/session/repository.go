package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gamevault/loyalty-api/internal/domain/card"
)

// Repository defines session persistence. CompleteAndCredit performs the
// one-and-only state transition together with the accrual credit in a single
// transaction, so a session can never be credited twice or credited without
// being completed.
type Repository interface {
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)

	// CompleteAndCredit transitions the session to completed and, when
	// earned > 0, credits the card inside the same transaction. If the
	// session was already completed it returns the stored session with
	// won = false and applies nothing.
	CompleteAndCredit(ctx context.Context, sessionID uuid.UUID, endTime time.Time, earned int64, entry card.Entry) (s *Session, won bool, err error)

	ListActiveByCard(ctx context.Context, cardID uuid.UUID) ([]Session, error)
	ListActive(ctx context.Context, limit, offset int) ([]Session, error)
}

// Ledger is the card-engine hook used to credit accrual atomically with the
// session transition.
type Ledger interface {
	ApplyDeltaTx(ctx context.Context, tx *sqlx.Tx, cardID uuid.UUID, delta int64, entry card.Entry) (*card.Card, error)
}

// PostgresRepository handles session database operations
type PostgresRepository struct {
	db     *sqlx.DB
	ledger Ledger
}

// NewRepository creates a new session repository
func NewRepository(db *sqlx.DB, ledger Ledger) *PostgresRepository {
	return &PostgresRepository{db: db, ledger: ledger}
}

func (r *PostgresRepository) Create(ctx context.Context, s *Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, card_id, computer_info, start_time, planned_minutes, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, s.ID, s.CardID, s.ComputerInfo, s.StartTime, s.PlannedMinutes, s.Status, s.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return card.ErrCardNotFound
		}
		return err
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	var s Session
	err := r.db.GetContext(ctx, &s, `
		SELECT id, card_id, computer_info, start_time, end_time, planned_minutes, earned_points, status, created_at
		FROM sessions
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresRepository) CompleteAndCredit(ctx context.Context, sessionID uuid.UUID, endTime time.Time, earned int64, entry card.Entry) (*Session, bool, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	var s Session
	err = tx.GetContext(ctx, &s, `
		SELECT id, card_id, computer_info, start_time, end_time, planned_minutes, earned_points, status, created_at
		FROM sessions
		WHERE id = $1
		FOR UPDATE
	`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, ErrSessionNotFound
	}
	if err != nil {
		return nil, false, err
	}

	// Second close is a no-op returning the committed result.
	if s.IsCompleted() {
		return &s, false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE sessions
		SET status = $1, end_time = $2, earned_points = $3
		WHERE id = $4
	`, StatusCompleted, endTime, earned, sessionID); err != nil {
		return nil, false, err
	}

	if earned > 0 {
		if _, err := r.ledger.ApplyDeltaTx(ctx, tx, s.CardID, earned, entry); err != nil {
			return nil, false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}

	s.Status = StatusCompleted
	s.EndTime = &endTime
	s.EarnedPoints = &earned
	return &s, true, nil
}

func (r *PostgresRepository) ListActiveByCard(ctx context.Context, cardID uuid.UUID) ([]Session, error) {
	var sessions []Session
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT id, card_id, computer_info, start_time, end_time, planned_minutes, earned_points, status, created_at
		FROM sessions
		WHERE card_id = $1 AND status = $2
		ORDER BY start_time DESC
	`, cardID, StatusActive)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *PostgresRepository) ListActive(ctx context.Context, limit, offset int) ([]Session, error) {
	var sessions []Session
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT id, card_id, computer_info, start_time, end_time, planned_minutes, earned_points, status, created_at
		FROM sessions
		WHERE status = $1
		ORDER BY start_time DESC
		LIMIT $2 OFFSET $3
	`, StatusActive, limit, offset)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}
