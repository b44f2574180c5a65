package tier

// Tier is a loyalty level selected by a point-threshold lookup.
type Tier struct {
	Level           int     `db:"level" json:"level"`
	Name            string  `db:"name" json:"name"`
	MinPoints       int64   `db:"min_points" json:"min_points"`
	BonusMultiplier float64 `db:"bonus_multiplier" json:"bonus_multiplier"`
}

// DefaultTiers is the built-in seed used when the tiers relation is empty.
func DefaultTiers() []Tier {
	return []Tier{
		{Level: 1, Name: "Bronze", MinPoints: 0, BonusMultiplier: 1.0},
		{Level: 2, Name: "Silver", MinPoints: 500, BonusMultiplier: 1.1},
		{Level: 3, Name: "Gold", MinPoints: 2000, BonusMultiplier: 1.25},
		{Level: 4, Name: "Platinum", MinPoints: 5000, BonusMultiplier: 1.5},
	}
}
