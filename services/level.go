package services

import (
	"fmt"
	"math"
	"sort"

	"wildlife-progress/models"
)

// LevelCalculator maps a total score to a tier. It holds no state beyond the
// validated catalog and is safe for concurrent use.
type LevelCalculator struct {
	tiers []models.LevelTier // ascending by MinScore
}

// NewLevelCalculator validates tiers: sorted by MinScore they must be
// contiguous (tier[i].NextLevelScore == tier[i+1].MinScore) with exactly one
// top tier, the last, having no NextLevelScore.
func NewLevelCalculator(tiers []models.LevelTier) (*LevelCalculator, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("%w: no level tiers", ErrInvalidCatalog)
	}
	sorted := make([]models.LevelTier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinScore < sorted[j].MinScore })

	last := len(sorted) - 1
	for i, t := range sorted {
		if t.Name == "" {
			return nil, fmt.Errorf("%w: tier %d has no name", ErrInvalidCatalog, i)
		}
		if i == last {
			if t.NextLevelScore != nil {
				return nil, fmt.Errorf("%w: top tier %q must not have a next level", ErrInvalidCatalog, t.Name)
			}
			break
		}
		if t.NextLevelScore == nil {
			return nil, fmt.Errorf("%w: only the top tier may omit next level, got %q", ErrInvalidCatalog, t.Name)
		}
		if *t.NextLevelScore != sorted[i+1].MinScore {
			return nil, fmt.Errorf("%w: %q ends at %d but %q starts at %d",
				ErrInvalidCatalog, t.Name, *t.NextLevelScore, sorted[i+1].Name, sorted[i+1].MinScore)
		}
		if *t.NextLevelScore <= t.MinScore {
			return nil, fmt.Errorf("%w: tier %q is empty", ErrInvalidCatalog, t.Name)
		}
	}
	return &LevelCalculator{tiers: sorted}, nil
}

// MustLevelCalculator panics on an invalid catalog. For package-level defaults.
func MustLevelCalculator(tiers []models.LevelTier) *LevelCalculator {
	c, err := NewLevelCalculator(tiers)
	if err != nil {
		panic(err)
	}
	return c
}

// Tiers returns a copy of the catalog in ascending order.
func (c *LevelCalculator) Tiers() []models.LevelTier {
	out := make([]models.LevelTier, len(c.tiers))
	copy(out, c.tiers)
	return out
}

// Calculate returns the tier containing totalScore and the rounded percentage
// of the way to the next tier. Boundaries belong to the upper tier. Scores
// below the lowest tier (including negatives) report the lowest tier at 0%.
func (c *LevelCalculator) Calculate(totalScore int64) models.LevelInfo {
	idx := 0
	for i := len(c.tiers) - 1; i >= 0; i-- {
		if c.tiers[i].MinScore <= totalScore {
			idx = i
			break
		}
	}
	cur := c.tiers[idx]

	if idx == len(c.tiers)-1 {
		return models.LevelInfo{CurrentLevel: cur.Name, LevelProgress: 100}
	}

	nextName := c.tiers[idx+1].Name
	info := models.LevelInfo{CurrentLevel: cur.Name, NextLevelName: &nextName}

	switch {
	case totalScore < cur.MinScore:
		info.LevelProgress = 0
	case totalScore >= *cur.NextLevelScore:
		info.LevelProgress = 100
	default:
		span := float64(*cur.NextLevelScore - cur.MinScore)
		pct := math.Round(100 * float64(totalScore-cur.MinScore) / span)
		info.LevelProgress = int(min(max(pct, 0), 100))
	}
	return info
}
