package tier

import (
	"errors"
	"testing"
)

func threeLevelTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable([]Tier{
		{Level: 1, Name: "Bronze", MinPoints: 0},
		{Level: 2, Name: "Silver", MinPoints: 500},
		{Level: 3, Name: "Gold", MinPoints: 2000},
	})
	if err != nil {
		t.Fatalf("table build failed: %v", err)
	}
	return table
}

func TestTierForPoints(t *testing.T) {
	table := threeLevelTable(t)

	cases := []struct {
		points int64
		want   string
	}{
		{0, "Bronze"},
		{1, "Bronze"},
		{499, "Bronze"},
		{500, "Silver"},
		{600, "Silver"},
		{1999, "Silver"},
		{2000, "Gold"},
		{1000000, "Gold"},
	}

	for _, c := range cases {
		got, err := table.TierForPoints(c.points)
		if err != nil {
			t.Fatalf("TierForPoints(%d) failed: %v", c.points, err)
		}
		if got.Name != c.want {
			t.Errorf("TierForPoints(%d) = %s, want %s", c.points, got.Name, c.want)
		}
	}
}

func TestTierForPointsNegative(t *testing.T) {
	table := threeLevelTable(t)
	if _, err := table.TierForPoints(-1); !errors.Is(err, ErrNegativePoints) {
		t.Fatalf("expected ErrNegativePoints, got %v", err)
	}
}

func TestNewTableEmpty(t *testing.T) {
	if _, err := NewTable(nil); !errors.Is(err, ErrEmptyTable) {
		t.Fatalf("expected ErrEmptyTable, got %v", err)
	}
}

func TestNewTableMissingBaseTier(t *testing.T) {
	_, err := NewTable([]Tier{
		{Level: 1, Name: "Silver", MinPoints: 500},
		{Level: 2, Name: "Gold", MinPoints: 2000},
	})
	if !errors.Is(err, ErrNoBaseTier) {
		t.Fatalf("expected ErrNoBaseTier, got %v", err)
	}
}

func TestNewTableDuplicateThreshold(t *testing.T) {
	_, err := NewTable([]Tier{
		{Level: 1, Name: "Bronze", MinPoints: 0},
		{Level: 2, Name: "Silver", MinPoints: 500},
		{Level: 3, Name: "Gold", MinPoints: 500},
	})
	if !errors.Is(err, ErrUnordered) {
		t.Fatalf("expected ErrUnordered, got %v", err)
	}
}

func TestNewTableNonIncreasingLevels(t *testing.T) {
	_, err := NewTable([]Tier{
		{Level: 2, Name: "Bronze", MinPoints: 0},
		{Level: 1, Name: "Silver", MinPoints: 500},
	})
	if !errors.Is(err, ErrUnordered) {
		t.Fatalf("expected ErrUnordered, got %v", err)
	}
}

func TestLowest(t *testing.T) {
	table := threeLevelTable(t)
	if table.Lowest().Name != "Bronze" {
		t.Fatalf("expected Bronze as lowest tier, got %s", table.Lowest().Name)
	}
}

func TestDefaultTiersAreValid(t *testing.T) {
	if _, err := NewTable(DefaultTiers()); err != nil {
		t.Fatalf("default tiers must build a valid table: %v", err)
	}
}
