package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gamevault/loyalty-api/internal/domain/card"
	"github.com/gamevault/loyalty-api/internal/pkg/lock"
)

// fakeCards is an in-memory card store shared between the card directory
// and the repo's credit path.
type fakeCards struct {
	mu    sync.Mutex
	cards map[uuid.UUID]*card.Card
	txs   []card.Transaction
}

func (f *fakeCards) GetByID(_ context.Context, id uuid.UUID) (*card.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cards[id]
	if !ok {
		return nil, card.ErrCardNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCards) credit(cardID uuid.UUID, delta int64, entry card.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cards[cardID]
	if !ok {
		return card.ErrCardNotFound
	}
	c.Points += delta
	f.txs = append(f.txs, card.Transaction{
		ID:          uuid.New(),
		CardID:      cardID,
		Type:        entry.Type,
		PointsDelta: delta,
		Description: entry.Description,
		SessionID:   entry.SessionID,
	})
	return nil
}

func (f *fakeCards) txCount(cardID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, tx := range f.txs {
		if tx.CardID == cardID {
			n++
		}
	}
	return n
}

// fakeRepo is an in-memory Repository preserving CompleteAndCredit's
// exactly-once contract.
type fakeRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	cards    *fakeCards
}

func newFakeRepo(cards *fakeCards) *fakeRepo {
	return &fakeRepo{sessions: make(map[uuid.UUID]*Session), cards: cards}
}

func (f *fakeRepo) Create(_ context.Context, s *Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeRepo) CompleteAndCredit(_ context.Context, sessionID uuid.UUID, endTime time.Time, earned int64, entry card.Entry) (*Session, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, false, ErrSessionNotFound
	}
	if s.IsCompleted() {
		cp := *s
		return &cp, false, nil
	}
	s.Status = StatusCompleted
	et := endTime
	ep := earned
	s.EndTime = &et
	s.EarnedPoints = &ep
	if earned > 0 {
		if err := f.cards.credit(s.CardID, earned, entry); err != nil {
			return nil, false, err
		}
	}
	cp := *s
	return &cp, true, nil
}

func (f *fakeRepo) ListActiveByCard(_ context.Context, cardID uuid.UUID) ([]Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Session
	for _, s := range f.sessions {
		if s.CardID == cardID && s.Status == StatusActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListActive(_ context.Context, limit, offset int) ([]Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Session
	for _, s := range f.sessions {
		if s.Status == StatusActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func newTestService(t *testing.T, pointsPerHour int64) (*Service, *fakeCards, *uuid.UUID) {
	t.Helper()
	cardID := uuid.New()
	cards := &fakeCards{cards: map[uuid.UUID]*card.Card{
		cardID: {ID: cardID, Number: "1000-0001", Status: card.StatusActive},
	}}
	repo := newFakeRepo(cards)
	svc := NewService(repo, cards, lock.NewKeyedMutex(5*time.Second), nil, nil, pointsPerHour)
	return svc, cards, &cardID
}

func TestOpenValidation(t *testing.T) {
	svc, _, cardID := newTestService(t, 10)

	if _, err := svc.Open(context.Background(), *cardID, 0, "pc-1"); !errors.Is(err, ErrInvalidMinutes) {
		t.Fatalf("expected ErrInvalidMinutes, got %v", err)
	}
	if _, err := svc.Open(context.Background(), *cardID, -30, "pc-1"); !errors.Is(err, ErrInvalidMinutes) {
		t.Fatalf("expected ErrInvalidMinutes, got %v", err)
	}
	if _, err := svc.Open(context.Background(), uuid.New(), 60, "pc-1"); !errors.Is(err, card.ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound, got %v", err)
	}
}

func TestOpenBlockedCard(t *testing.T) {
	svc, cards, cardID := newTestService(t, 10)
	cards.cards[*cardID].Status = card.StatusBlocked

	if _, err := svc.Open(context.Background(), *cardID, 60, "pc-1"); !errors.Is(err, card.ErrCardBlocked) {
		t.Fatalf("expected ErrCardBlocked, got %v", err)
	}
}

func TestAccrualHalfOfPlanned(t *testing.T) {
	svc, cards, cardID := newTestService(t, 10)

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	sess, err := svc.Open(context.Background(), *cardID, 60, "pc-1")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	// Closed after 30 real minutes of a 60-minute plan at 10 points/hour.
	svc.now = func() time.Time { return start.Add(30 * time.Minute) }
	closed, err := svc.Close(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}

	if closed.EarnedPoints == nil || *closed.EarnedPoints != 5 {
		t.Fatalf("expected 5 earned points, got %v", closed.EarnedPoints)
	}
	c, _ := cards.GetByID(context.Background(), *cardID)
	if c.Points != 5 {
		t.Fatalf("expected card balance 5, got %d", c.Points)
	}
}

func TestAccrualCappedAtPlanned(t *testing.T) {
	svc, cards, cardID := newTestService(t, 10)

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	sess, err := svc.Open(context.Background(), *cardID, 60, "pc-1")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	// Closed 90 real minutes in; accrual caps at the planned 60.
	svc.now = func() time.Time { return start.Add(90 * time.Minute) }
	closed, err := svc.Close(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}

	if closed.EarnedPoints == nil || *closed.EarnedPoints != 10 {
		t.Fatalf("expected 10 earned points, got %v", closed.EarnedPoints)
	}
	c, _ := cards.GetByID(context.Background(), *cardID)
	if c.Points != 10 {
		t.Fatalf("expected card balance 10, got %d", c.Points)
	}
}

func TestZeroElapsedWritesNoTransaction(t *testing.T) {
	svc, cards, cardID := newTestService(t, 10)

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	sess, err := svc.Open(context.Background(), *cardID, 60, "pc-1")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	closed, err := svc.Close(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("close with zero elapsed must succeed: %v", err)
	}
	if closed.EarnedPoints == nil || *closed.EarnedPoints != 0 {
		t.Fatalf("expected 0 earned points, got %v", closed.EarnedPoints)
	}
	if !closed.IsCompleted() {
		t.Fatal("expected completed status")
	}
	if n := cards.txCount(*cardID); n != 0 {
		t.Fatalf("expected no ledger transaction, got %d", n)
	}
}

func TestDoubleCloseDoesNotDoubleCredit(t *testing.T) {
	svc, cards, cardID := newTestService(t, 10)

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	sess, err := svc.Open(context.Background(), *cardID, 60, "pc-1")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	svc.now = func() time.Time { return start.Add(60 * time.Minute) }
	first, err := svc.Close(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("first close failed: %v", err)
	}

	// A later second close must return the committed result untouched.
	svc.now = func() time.Time { return start.Add(3 * time.Hour) }
	second, err := svc.Close(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("second close failed: %v", err)
	}

	if *second.EarnedPoints != *first.EarnedPoints {
		t.Fatalf("earned points changed on second close: %d vs %d", *second.EarnedPoints, *first.EarnedPoints)
	}
	if !second.EndTime.Equal(*first.EndTime) {
		t.Fatalf("end time changed on second close: %v vs %v", second.EndTime, first.EndTime)
	}
	if n := cards.txCount(*cardID); n != 1 {
		t.Fatalf("expected exactly 1 ledger transaction, got %d", n)
	}
	c, _ := cards.GetByID(context.Background(), *cardID)
	if c.Points != 10 {
		t.Fatalf("expected balance 10 after double close, got %d", c.Points)
	}
}

func TestConcurrentCloseCreditsOnce(t *testing.T) {
	svc, cards, cardID := newTestService(t, 10)

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	sess, err := svc.Open(context.Background(), *cardID, 60, "pc-1")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	svc.now = func() time.Time { return start.Add(45 * time.Minute) }

	const closers = 20
	var wg sync.WaitGroup
	for i := 0; i < closers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Close(context.Background(), sess.ID); err != nil {
				t.Errorf("close failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := cards.txCount(*cardID); n != 1 {
		t.Fatalf("expected exactly 1 ledger transaction after %d concurrent closes, got %d", closers, n)
	}
	c, _ := cards.GetByID(context.Background(), *cardID)
	if c.Points != 7 { // floor(45 * 10 / 60)
		t.Fatalf("expected balance 7, got %d", c.Points)
	}
}

func TestCloseUnknownSession(t *testing.T) {
	svc, _, _ := newTestService(t, 10)
	if _, err := svc.Close(context.Background(), uuid.New()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestMultipleActiveSessionsPerCard(t *testing.T) {
	svc, _, cardID := newTestService(t, 10)

	if _, err := svc.Open(context.Background(), *cardID, 60, "pc-1"); err != nil {
		t.Fatalf("first open failed: %v", err)
	}
	if _, err := svc.Open(context.Background(), *cardID, 30, "pc-2"); err != nil {
		t.Fatalf("second open failed: %v", err)
	}

	active, err := svc.ListActiveForCard(context.Background(), *cardID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active sessions, got %d", len(active))
	}
}

func TestAccruedPointsFlooring(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		elapsed time.Duration
		planned int
		pph     int64
		want    int64
	}{
		{0, 60, 10, 0},
		{59 * time.Second, 60, 10, 0},
		{5 * time.Minute, 60, 10, 0},   // floor(5*10/60)
		{6 * time.Minute, 60, 10, 1},   // exactly one point
		{30 * time.Minute, 60, 10, 5},  // spec scenario
		{90 * time.Minute, 60, 10, 10}, // capped at planned
		{-5 * time.Minute, 60, 10, 0},  // clock skew clamps to zero
		{45 * time.Minute, 60, 7, 5},   // floor(45*7/60)
	}

	for _, c := range cases {
		got := AccruedPoints(start, start.Add(c.elapsed), c.planned, c.pph)
		if got != c.want {
			t.Errorf("AccruedPoints(elapsed=%v planned=%d pph=%d) = %d, want %d",
				c.elapsed, c.planned, c.pph, got, c.want)
		}
	}
}
