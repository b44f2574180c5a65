package tier

import "sort"

// Table is the immutable, ordered tier list. Built once at startup;
// administrative edits go through the database and require a restart.
type Table struct {
	tiers []Tier // ascending by MinPoints
}

// NewTable validates and builds a tier table. The tiers must form a total
// order by min_points covering [0, inf): exactly one tier starts at 0 and
// both levels and thresholds increase strictly.
func NewTable(tiers []Tier) (*Table, error) {
	if len(tiers) == 0 {
		return nil, ErrEmptyTable
	}

	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinPoints < sorted[j].MinPoints })

	if sorted[0].MinPoints != 0 {
		return nil, ErrNoBaseTier
	}
	for i := 1; i < len(sorted); i++ {
		if sorted[i].MinPoints <= sorted[i-1].MinPoints || sorted[i].Level <= sorted[i-1].Level {
			return nil, ErrUnordered
		}
	}

	return &Table{tiers: sorted}, nil
}

// TierForPoints returns the highest tier whose min_points <= points.
func (t *Table) TierForPoints(points int64) (Tier, error) {
	if points < 0 {
		return Tier{}, ErrNegativePoints
	}

	// First tier with MinPoints > points; the one before it qualifies.
	idx := sort.Search(len(t.tiers), func(i int) bool { return t.tiers[i].MinPoints > points })
	return t.tiers[idx-1], nil
}

// Lowest returns the tier assigned to a zero-point card.
func (t *Table) Lowest() Tier {
	return t.tiers[0]
}

// Tiers returns a copy of the ordered tier list.
func (t *Table) Tiers() []Tier {
	out := make([]Tier, len(t.tiers))
	copy(out, t.tiers)
	return out
}
