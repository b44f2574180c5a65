package member

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Auditor records structured audit events. A nil Auditor disables auditing.
type Auditor interface {
	Record(ctx context.Context, action string, actorID *uuid.UUID, entityType string, entityID uuid.UUID, details map[string]interface{})
}

// Service manages venue members.
type Service struct {
	repo    Repository
	auditor Auditor
}

// NewService creates a new member service. auditor may be nil.
func NewService(repo Repository, auditor Auditor) *Service {
	return &Service{repo: repo, auditor: auditor}
}

// Register creates a member.
func (s *Service) Register(ctx context.Context, fullName, phone, email string) (*Member, error) {
	now := time.Now()
	m := &Member{
		ID:        uuid.New(),
		FullName:  strings.TrimSpace(fullName),
		Phone:     strings.TrimSpace(phone),
		Email:     strings.TrimSpace(email),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	s.audit(ctx, "member.registered", m.ID, map[string]interface{}{"phone": m.Phone})
	log.Info().Str("member_id", m.ID.String()).Msg("member registered")
	return m, nil
}

// Get returns a member by id
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Member, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByPhone returns a member by phone number
func (s *Service) GetByPhone(ctx context.Context, phone string) (*Member, error) {
	return s.repo.GetByPhone(ctx, strings.TrimSpace(phone))
}

// Update applies a partial edit and returns the updated member.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateMemberRequest) (*Member, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		m.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Phone != nil {
		m.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Email != nil {
		m.Email = strings.TrimSpace(*req.Email)
	}
	m.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}

	s.audit(ctx, "member.updated", m.ID, nil)
	return m, nil
}

// Delete removes a member. Members still owning cards are refused; cards
// carry the ledger and are never cascaded away.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit(ctx, "member.deleted", id, nil)
	log.Info().Str("member_id", id.String()).Msg("member deleted")
	return nil
}

// List returns members matching an optional name/phone search.
func (s *Service) List(ctx context.Context, search string, limit, offset int) ([]Member, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	members, err := s.repo.List(ctx, search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, search)
	if err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

func (s *Service) audit(ctx context.Context, action string, entityID uuid.UUID, details map[string]interface{}) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, action, nil, "member", entityID, details)
}
