package promocode

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

// Repository defines the persistence operations of the redemption engine.
// Redeem must commit the redemption row, the uses counter and the optional
// bonus credit as one atomic step.
type Repository interface {
	Redeem(ctx context.Context, code string, cardID uuid.UUID, now time.Time) (*RedemptionResult, error)
	GetCodeByValue(ctx context.Context, code string) (*PromoCode, error)
	CreateCode(ctx context.Context, p *PromoCode) error
	DeactivateCode(ctx context.Context, id uuid.UUID) error
	ListCodes(ctx context.Context, limit, offset int) ([]PromoCode, error)
	CreatePromotion(ctx context.Context, p *Promotion) error
	GetPromotion(ctx context.Context, id uuid.UUID) (*Promotion, error)
	ListPromotions(ctx context.Context, limit, offset int) ([]Promotion, error)
}

// Ledger is the card-side credit hook, satisfied by the card repository.
// The bonus credit joins the redemption's transaction so both commit or
// neither does.
type Ledger interface {
	ApplyDeltaTx(ctx context.Context, tx *sqlx.Tx, cardID uuid.UUID, delta int64, entry card.Entry) (*card.Card, error)
}

// PostgresRepository handles promotion and promo-code database operations
type PostgresRepository struct {
	db     *sqlx.DB
	ledger Ledger
}

// NewRepository creates a new promocode repository
func NewRepository(db *sqlx.DB, ledger Ledger) *PostgresRepository {
	return &PostgresRepository{db: db, ledger: ledger}
}

const codeColumns = `id, code, promotion_id, bonus_points, discount_percent, expires_at, uses_limit, uses_count, active, created_at`

// Redeem performs the full redemption inside one transaction: lock the code
// row, walk the validation ladder, insert the redemption, bump the counter
// and credit the optional bonus. Any failure rolls the whole thing back.
func (r *PostgresRepository) Redeem(ctx context.Context, code string, cardID uuid.UUID, now time.Time) (*RedemptionResult, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var pc PromoCode
	err = tx.GetContext(ctx, &pc, `
		SELECT `+codeColumns+`
		FROM promo_codes
		WHERE code = $1
		FOR UPDATE
	`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCodeNotFound
	}
	if err != nil {
		return nil, err
	}

	var redeemed bool
	if err := tx.GetContext(ctx, &redeemed, `
		SELECT EXISTS (
			SELECT 1 FROM promo_code_redemptions
			WHERE code_id = $1 AND card_id = $2
		)
	`, pc.ID, cardID); err != nil {
		return nil, err
	}

	if err := pc.ValidateRedemption(now, redeemed); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO promo_code_redemptions (id, code_id, card_id, redeemed_at)
		VALUES ($1, $2, $3, $4)
	`, uuid.New(), pc.ID, cardID, now); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505":
				return nil, ErrAlreadyRedeemed
			case "23503":
				return nil, card.ErrCardNotFound
			}
		}
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE promo_codes SET uses_count = uses_count + 1 WHERE id = $1
	`, pc.ID); err != nil {
		return nil, err
	}

	result := &RedemptionResult{
		CodeID:      pc.ID,
		Code:        pc.Code,
		CardID:      cardID,
		PromotionID: pc.PromotionID,
		RedeemedAt:  now,
	}
	if pc.DiscountPercent != nil {
		result.DiscountPercent = *pc.DiscountPercent
	}

	if pc.BonusPoints != nil && *pc.BonusPoints > 0 {
		codeID := pc.ID
		c, err := r.ledger.ApplyDeltaTx(ctx, tx, cardID, *pc.BonusPoints, card.Entry{
			Type:        card.TxTypeBonus,
			Description: "promo code " + pc.Code,
			PromoCodeID: &codeID,
		})
		if err != nil {
			return nil, err
		}
		result.BonusPoints = *pc.BonusPoints
		result.CardBalance = c.Points
	} else {
		var balance int64
		err := tx.GetContext(ctx, &balance, `SELECT points FROM cards WHERE id = $1`, cardID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, card.ErrCardNotFound
		}
		if err != nil {
			return nil, err
		}
		result.CardBalance = balance
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) GetCodeByValue(ctx context.Context, code string) (*PromoCode, error) {
	var pc PromoCode
	err := r.db.GetContext(ctx, &pc, `
		SELECT `+codeColumns+` FROM promo_codes WHERE code = $1
	`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCodeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pc, nil
}

func (r *PostgresRepository) CreateCode(ctx context.Context, p *PromoCode) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO promo_codes (id, code, promotion_id, bonus_points, discount_percent, expires_at, uses_limit, uses_count, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, p.ID, p.Code, p.PromotionID, p.BonusPoints, p.DiscountPercent, p.ExpiresAt, p.UsesLimit, p.UsesCount, p.Active, p.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505":
				return ErrDuplicateCode
			case "23503":
				return ErrPromotionNotFound
			}
		}
		return err
	}
	return nil
}

func (r *PostgresRepository) DeactivateCode(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE promo_codes SET active = false WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCodeNotFound
	}
	return nil
}

func (r *PostgresRepository) ListCodes(ctx context.Context, limit, offset int) ([]PromoCode, error) {
	var codes []PromoCode
	err := r.db.SelectContext(ctx, &codes, `
		SELECT `+codeColumns+`
		FROM promo_codes
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *PostgresRepository) CreatePromotion(ctx context.Context, p *Promotion) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO promotions (id, title, description, starts_at, ends_at, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.Title, p.Description, p.StartsAt, p.EndsAt, p.Active, p.CreatedAt)
	return err
}

func (r *PostgresRepository) GetPromotion(ctx context.Context, id uuid.UUID) (*Promotion, error) {
	var p Promotion
	err := r.db.GetContext(ctx, &p, `
		SELECT id, title, description, starts_at, ends_at, active, created_at
		FROM promotions
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPromotionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresRepository) ListPromotions(ctx context.Context, limit, offset int) ([]Promotion, error) {
	var promos []Promotion
	err := r.db.SelectContext(ctx, &promos, `
		SELECT id, title, description, starts_at, ends_at, active, created_at
		FROM promotions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return promos, nil
}
