package card

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gamevault/loyalty-api/internal/domain/tier"
)

// PostgresRepository handles card and ledger database operations
type PostgresRepository struct {
	db    *sqlx.DB
	tiers *tier.Table
}

// NewRepository creates a new card repository
func NewRepository(db *sqlx.DB, tiers *tier.Table) *PostgresRepository {
	return &PostgresRepository{db: db, tiers: tiers}
}

func (r *PostgresRepository) Create(ctx context.Context, c *Card) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cards (id, number, member_id, points, tier_level, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, c.ID, c.Number, c.MemberID, c.Points, c.TierLevel, c.Status, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505":
				return ErrDuplicateNumber
			case "23503":
				return ErrMemberNotFound
			}
		}
		return err
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Card, error) {
	var c Card
	err := r.db.GetContext(ctx, &c, `
		SELECT id, number, member_id, points, tier_level, status, created_at, updated_at
		FROM cards
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresRepository) GetByNumber(ctx context.Context, number string) (*Card, error) {
	var c Card
	err := r.db.GetContext(ctx, &c, `
		SELECT id, number, member_id, points, tier_level, status, created_at, updated_at
		FROM cards
		WHERE number = $1
	`, number)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ApplyDelta applies a signed point delta inside its own transaction.
func (r *PostgresRepository) ApplyDelta(ctx context.Context, cardID uuid.UUID, delta int64, entry Entry) (*Card, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	c, err := r.ApplyDeltaTx(ctx, tx, cardID, delta, entry)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return c, nil
}

// ApplyDeltaTx applies a signed point delta within an external transaction
// (FOR UPDATE row lock). Used when the mutation must be atomic with another
// operation, e.g. a session completion or a promo-code redemption.
func (r *PostgresRepository) ApplyDeltaTx(ctx context.Context, tx *sqlx.Tx, cardID uuid.UUID, delta int64, entry Entry) (*Card, error) {
	var c Card
	err := tx.GetContext(ctx, &c, `
		SELECT id, number, member_id, points, tier_level, status, created_at, updated_at
		FROM cards
		WHERE id = $1
		FOR UPDATE
	`, cardID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, err
	}

	nextPoints := c.Points + delta
	if nextPoints < 0 {
		return nil, ErrInsufficientBalance
	}

	nextTier, err := r.tiers.TierForPoints(nextPoints)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx, `
		UPDATE cards
		SET points = $1, tier_level = $2, updated_at = $3
		WHERE id = $4
	`, nextPoints, nextTier.Level, now, cardID); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO card_transactions (id, card_id, type, points_delta, description, session_id, promo_code_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.New(), cardID, entry.Type, delta, entry.Description, entry.SessionID, entry.PromoCodeID, now); err != nil {
		return nil, err
	}

	c.Points = nextPoints
	c.TierLevel = nextTier.Level
	c.UpdatedAt = now
	return &c, nil
}

func (r *PostgresRepository) SetTierLevel(ctx context.Context, cardID uuid.UUID, level int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cards SET tier_level = $1, updated_at = now() WHERE id = $2
	`, level, cardID)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *PostgresRepository) SetStatus(ctx context.Context, cardID uuid.UUID, status Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cards SET status = $1, updated_at = now() WHERE id = $2
	`, status, cardID)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *PostgresRepository) ListTransactions(ctx context.Context, cardID uuid.UUID, limit, offset int) ([]Transaction, error) {
	var txs []Transaction
	err := r.db.SelectContext(ctx, &txs, `
		SELECT id, card_id, type, points_delta, description, session_id, promo_code_id, created_at
		FROM card_transactions
		WHERE card_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, cardID, limit, offset)
	if err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *PostgresRepository) CountTransactions(ctx context.Context, cardID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM card_transactions WHERE card_id = $1
	`, cardID)
	return count, err
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCardNotFound
	}
	return nil
}
