package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gamevault/loyalty-api/internal/domain/card"
	"github.com/gamevault/loyalty-api/internal/pkg/lock"
)

// CardDirectory is the card lookup the session engine needs before opening.
type CardDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*card.Card, error)
}

// Auditor records structured audit events. A nil Auditor disables auditing.
type Auditor interface {
	Record(ctx context.Context, action string, actorID *uuid.UUID, entityType string, entityID uuid.UUID, details map[string]interface{})
}

// Broadcaster pushes session lifecycle events to staff dashboards.
// A nil Broadcaster disables the feed.
type Broadcaster interface {
	BroadcastSession(event EventType, s *Session)
}

// Service is the session engine: the active -> completed state machine and
// the conversion of elapsed time into exactly-once point accrual.
type Service struct {
	repo          Repository
	cards         CardDirectory
	locker        lock.Locker
	auditor       Auditor
	hub           Broadcaster
	pointsPerHour int64

	now func() time.Time // swapped in tests
}

// NewService creates a new session service. auditor and hub may be nil.
func NewService(repo Repository, cards CardDirectory, locker lock.Locker, auditor Auditor, hub Broadcaster, pointsPerHour int64) *Service {
	return &Service{
		repo:          repo,
		cards:         cards,
		locker:        locker,
		auditor:       auditor,
		hub:           hub,
		pointsPerHour: pointsPerHour,
		now:           time.Now,
	}
}

// Open starts a timed session for a card. A card may hold several active
// sessions at once; exclusivity is a business-policy decision left to staff.
func (s *Service) Open(ctx context.Context, cardID uuid.UUID, plannedMinutes int, computerInfo string) (*Session, error) {
	if plannedMinutes <= 0 {
		return nil, ErrInvalidMinutes
	}

	c, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if c.IsBlocked() {
		return nil, card.ErrCardBlocked
	}

	now := s.now()
	sess := &Session{
		ID:             uuid.New(),
		CardID:         cardID,
		ComputerInfo:   computerInfo,
		StartTime:      now,
		PlannedMinutes: plannedMinutes,
		Status:         StatusActive,
		CreatedAt:      now,
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, err
	}

	s.audit(ctx, "session.opened", sess.ID, map[string]interface{}{
		"card_id":         cardID,
		"planned_minutes": plannedMinutes,
		"computer_info":   computerInfo,
	})
	if s.hub != nil {
		s.hub.BroadcastSession(EventSessionOpened, sess)
	}
	log.Info().
		Str("session_id", sess.ID.String()).
		Str("card_id", cardID.String()).
		Int("planned_minutes", plannedMinutes).
		Msg("session opened")
	return sess, nil
}

// Close completes a session and credits the accrued points exactly once.
// Closing an already-completed session returns the stored result unchanged,
// which makes client retries safe.
func (s *Service) Close(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.IsCompleted() {
		return sess, nil
	}

	release, err := s.locker.Acquire(ctx, sess.CardID.String())
	if err != nil {
		return nil, err
	}
	defer release()

	now := s.now()
	earned := AccruedPoints(sess.StartTime, now, sess.PlannedMinutes, s.pointsPerHour)

	sid := sessionID
	closed, won, err := s.repo.CompleteAndCredit(ctx, sessionID, now, earned, card.Entry{
		Type:        card.TxTypeDeposit,
		Description: "session accrual",
		SessionID:   &sid,
	})
	if err != nil {
		return nil, err
	}
	if !won {
		// Lost the close race; the other caller's result stands.
		return closed, nil
	}

	s.audit(ctx, "session.closed", closed.ID, map[string]interface{}{
		"card_id":       closed.CardID,
		"earned_points": earned,
	})
	if s.hub != nil {
		s.hub.BroadcastSession(EventSessionClosed, closed)
	}
	log.Info().
		Str("session_id", closed.ID.String()).
		Str("card_id", closed.CardID.String()).
		Int64("earned_points", earned).
		Msg("session closed")
	return closed, nil
}

// GetSession returns a session by id
func (s *Service) GetSession(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	return s.repo.GetByID(ctx, sessionID)
}

// ListActiveForCard returns the card's currently active sessions
func (s *Service) ListActiveForCard(ctx context.Context, cardID uuid.UUID) ([]Session, error) {
	if _, err := s.cards.GetByID(ctx, cardID); err != nil {
		return nil, err
	}
	return s.repo.ListActiveByCard(ctx, cardID)
}

// ListActive returns all currently active sessions, newest first
func (s *Service) ListActive(ctx context.Context, limit, offset int) ([]Session, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListActive(ctx, limit, offset)
}

func (s *Service) audit(ctx context.Context, action string, entityID uuid.UUID, details map[string]interface{}) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, action, nil, "session", entityID, details)
}
