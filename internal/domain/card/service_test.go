package card

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gamevault/loyalty-api/internal/domain/tier"
	"github.com/gamevault/loyalty-api/internal/pkg/lock"
)

// memRepo is an in-memory Repository with the same atomicity guarantees as
// the Postgres implementation.
type memRepo struct {
	mu    sync.Mutex
	tiers *tier.Table
	cards map[uuid.UUID]*Card
	txs   []Transaction
}

func newMemRepo(t *testing.T, tiers []tier.Tier) *memRepo {
	t.Helper()
	table, err := tier.NewTable(tiers)
	if err != nil {
		t.Fatalf("tier table build failed: %v", err)
	}
	return &memRepo{tiers: table, cards: make(map[uuid.UUID]*Card)}
}

func (m *memRepo) Create(_ context.Context, c *Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.cards {
		if existing.Number == c.Number {
			return ErrDuplicateNumber
		}
	}
	cp := *c
	m.cards[c.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[id]
	if !ok {
		return nil, ErrCardNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memRepo) GetByNumber(_ context.Context, number string) (*Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cards {
		if c.Number == number {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrCardNotFound
}

func (m *memRepo) ApplyDelta(_ context.Context, cardID uuid.UUID, delta int64, entry Entry) (*Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[cardID]
	if !ok {
		return nil, ErrCardNotFound
	}
	next := c.Points + delta
	if next < 0 {
		return nil, ErrInsufficientBalance
	}
	t, err := m.tiers.TierForPoints(next)
	if err != nil {
		return nil, err
	}
	c.Points = next
	c.TierLevel = t.Level
	c.UpdatedAt = time.Now()
	m.txs = append(m.txs, Transaction{
		ID:          uuid.New(),
		CardID:      cardID,
		Type:        entry.Type,
		PointsDelta: delta,
		Description: entry.Description,
		SessionID:   entry.SessionID,
		PromoCodeID: entry.PromoCodeID,
		CreatedAt:   c.UpdatedAt,
	})
	cp := *c
	return &cp, nil
}

func (m *memRepo) SetTierLevel(_ context.Context, cardID uuid.UUID, level int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[cardID]
	if !ok {
		return ErrCardNotFound
	}
	c.TierLevel = level
	return nil
}

func (m *memRepo) SetStatus(_ context.Context, cardID uuid.UUID, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[cardID]
	if !ok {
		return ErrCardNotFound
	}
	c.Status = status
	return nil
}

func (m *memRepo) ListTransactions(_ context.Context, cardID uuid.UUID, limit, offset int) ([]Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Transaction
	for i := len(m.txs) - 1; i >= 0; i-- {
		if m.txs[i].CardID == cardID {
			out = append(out, m.txs[i])
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) CountTransactions(_ context.Context, cardID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, tx := range m.txs {
		if tx.CardID == cardID {
			count++
		}
	}
	return count, nil
}

// deltaSum returns the sum of committed ledger deltas for a card.
func (m *memRepo) deltaSum(cardID uuid.UUID) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, tx := range m.txs {
		if tx.CardID == cardID {
			sum += tx.PointsDelta
		}
	}
	return sum
}

var testTiers = []tier.Tier{
	{Level: 1, Name: "Bronze", MinPoints: 0},
	{Level: 2, Name: "Silver", MinPoints: 500},
	{Level: 3, Name: "Gold", MinPoints: 2000},
}

func newTestService(t *testing.T) (*Service, *memRepo) {
	t.Helper()
	repo := newMemRepo(t, testTiers)
	table, _ := tier.NewTable(testTiers)
	svc := NewService(repo, table, lock.NewKeyedMutex(5*time.Second), nil)
	return svc, repo
}

func issueTestCard(t *testing.T, svc *Service) *Card {
	t.Helper()
	c, err := svc.IssueCard(context.Background(), uuid.New(), "1000-0001")
	if err != nil {
		t.Fatalf("issue card failed: %v", err)
	}
	return c
}

func TestIssueCardStartsAtLowestTier(t *testing.T) {
	svc, _ := newTestService(t)
	c := issueTestCard(t, svc)

	if c.Points != 0 {
		t.Fatalf("expected 0 points, got %d", c.Points)
	}
	if c.TierLevel != 1 {
		t.Fatalf("expected tier level 1, got %d", c.TierLevel)
	}
	if c.Status != StatusActive {
		t.Fatalf("expected active status, got %s", c.Status)
	}
}

func TestAddPointsInvalidAmount(t *testing.T) {
	svc, _ := newTestService(t)
	c := issueTestCard(t, svc)

	for _, amount := range []int64{0, -1, -100} {
		if _, err := svc.AddPoints(context.Background(), c.ID, amount, "x"); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("AddPoints(%d): expected ErrInvalidAmount, got %v", amount, err)
		}
		if _, err := svc.DeductPoints(context.Background(), c.ID, amount, "x"); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("DeductPoints(%d): expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestAddPointsUnknownCard(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.AddPoints(context.Background(), uuid.New(), 10, "x"); !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound, got %v", err)
	}
}

func TestTierFollowsBalance(t *testing.T) {
	svc, _ := newTestService(t)
	c := issueTestCard(t, svc)

	c2, err := svc.AddPoints(context.Background(), c.ID, 600, "seed")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if c2.Points != 600 || c2.TierLevel != 2 {
		t.Fatalf("expected 600 points / Silver, got %d points / level %d", c2.Points, c2.TierLevel)
	}

	c3, err := svc.DeductPoints(context.Background(), c.ID, 200, "purchase")
	if err != nil {
		t.Fatalf("deduct failed: %v", err)
	}
	if c3.Points != 400 || c3.TierLevel != 1 {
		t.Fatalf("expected 400 points / Bronze, got %d points / level %d", c3.Points, c3.TierLevel)
	}
}

func TestDeductBoundary(t *testing.T) {
	svc, repo := newTestService(t)
	c := issueTestCard(t, svc)

	if _, err := svc.AddPoints(context.Background(), c.ID, 50, "seed"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	// Deducting balance+1 fails and leaves the balance unchanged.
	if _, err := svc.DeductPoints(context.Background(), c.ID, 51, "too much"); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	mid, err := svc.GetCard(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if mid.Points != 50 {
		t.Fatalf("failed deduction changed balance: %d", mid.Points)
	}

	// Deducting exactly the balance succeeds and lands on zero.
	after, err := svc.DeductPoints(context.Background(), c.ID, 50, "exact")
	if err != nil {
		t.Fatalf("exact deduct failed: %v", err)
	}
	if after.Points != 0 {
		t.Fatalf("expected balance 0, got %d", after.Points)
	}

	if sum := repo.deltaSum(c.ID); sum != 0 {
		t.Fatalf("ledger sum %d does not match balance 0", sum)
	}
}

func TestLedgerMatchesBalance(t *testing.T) {
	svc, repo := newTestService(t)
	c := issueTestCard(t, svc)

	steps := []struct {
		add    bool
		amount int64
	}{
		{true, 100}, {true, 250}, {false, 40}, {true, 5}, {false, 300}, {true, 1000},
	}

	for i, step := range steps {
		var err error
		var got *Card
		if step.add {
			got, err = svc.AddPoints(context.Background(), c.ID, step.amount, fmt.Sprintf("step %d", i))
		} else {
			got, err = svc.DeductPoints(context.Background(), c.ID, step.amount, fmt.Sprintf("step %d", i))
		}
		if err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
		if got.Points < 0 {
			t.Fatalf("step %d produced negative balance %d", i, got.Points)
		}
		if sum := repo.deltaSum(c.ID); sum != got.Points {
			t.Fatalf("step %d: ledger sum %d != balance %d", i, sum, got.Points)
		}
	}
}

func TestConcurrentDeductNoLostUpdates(t *testing.T) {
	svc, repo := newTestService(t)
	c := issueTestCard(t, svc)

	if _, err := svc.AddPoints(context.Background(), c.ID, 50, "seed"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	const goroutines = 100
	var wg sync.WaitGroup
	var mu sync.Mutex
	success := 0
	insufficient := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.DeductPoints(context.Background(), c.ID, 1, fmt.Sprintf("concurrent %d", i))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case errors.Is(err, ErrInsufficientBalance):
				insufficient++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if success != 50 || insufficient != 50 {
		t.Fatalf("expected 50 successes and 50 insufficient, got %d/%d", success, insufficient)
	}

	final, err := svc.GetCard(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if final.Points != 0 {
		t.Fatalf("expected final balance 0, got %d", final.Points)
	}
	if sum := repo.deltaSum(c.ID); sum != 0 {
		t.Fatalf("ledger sum %d != 0", sum)
	}
}

func TestRecomputeTierIdempotent(t *testing.T) {
	svc, repo := newTestService(t)
	c := issueTestCard(t, svc)

	if _, err := svc.AddPoints(context.Background(), c.ID, 2500, "seed"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	// Corrupt the stored tier, then repair it.
	if err := repo.SetTierLevel(context.Background(), c.ID, 1); err != nil {
		t.Fatalf("corrupt failed: %v", err)
	}

	fixed, err := svc.RecomputeTier(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("recompute failed: %v", err)
	}
	if fixed.TierLevel != 3 {
		t.Fatalf("expected tier 3 after repair, got %d", fixed.TierLevel)
	}

	again, err := svc.RecomputeTier(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("second recompute failed: %v", err)
	}
	if again.TierLevel != 3 || again.Points != fixed.Points {
		t.Fatalf("recompute is not idempotent: %+v vs %+v", again, fixed)
	}
}

func TestRecomputeTierNeverChangesPoints(t *testing.T) {
	svc, _ := newTestService(t)
	c := issueTestCard(t, svc)

	if _, err := svc.AddPoints(context.Background(), c.ID, 777, "seed"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	got, err := svc.RecomputeTier(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("recompute failed: %v", err)
	}
	if got.Points != 777 {
		t.Fatalf("recompute changed points: %d", got.Points)
	}
}

func TestBlockUnblock(t *testing.T) {
	svc, _ := newTestService(t)
	c := issueTestCard(t, svc)

	if err := svc.Block(context.Background(), c.ID); err != nil {
		t.Fatalf("block failed: %v", err)
	}
	got, _ := svc.GetCard(context.Background(), c.ID)
	if !got.IsBlocked() {
		t.Fatal("expected card to be blocked")
	}

	if err := svc.Unblock(context.Background(), c.ID); err != nil {
		t.Fatalf("unblock failed: %v", err)
	}
	got, _ = svc.GetCard(context.Background(), c.ID)
	if got.IsBlocked() {
		t.Fatal("expected card to be active")
	}
}

func TestDuplicateCardNumber(t *testing.T) {
	svc, _ := newTestService(t)
	issueTestCard(t, svc)

	if _, err := svc.IssueCard(context.Background(), uuid.New(), "1000-0001"); !errors.Is(err, ErrDuplicateNumber) {
		t.Fatalf("expected ErrDuplicateNumber, got %v", err)
	}
}
