package services

import (
	"context"
	"fmt"

	"wildlife-progress/models"
)

// AchievementCatalog is the static id → display text lookup.
type AchievementCatalog struct {
	order []string
	byID  map[string]models.AchievementDefinition
}

// NewAchievementCatalog rejects empty and duplicate ids.
func NewAchievementCatalog(defs []models.AchievementDefinition) (*AchievementCatalog, error) {
	c := &AchievementCatalog{byID: make(map[string]models.AchievementDefinition, len(defs))}
	for _, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("%w: achievement with empty id", ErrInvalidCatalog)
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate achievement id %q", ErrInvalidCatalog, d.ID)
		}
		c.byID[d.ID] = d
		c.order = append(c.order, d.ID)
	}
	return c, nil
}

func MustAchievementCatalog(defs []models.AchievementDefinition) *AchievementCatalog {
	c, err := NewAchievementCatalog(defs)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *AchievementCatalog) Lookup(id string) (models.AchievementDefinition, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// All returns the definitions in catalog order.
func (c *AchievementCatalog) All() []models.AchievementDefinition {
	out := make([]models.AchievementDefinition, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// GrantAchievement records achievement id on the profile. It is idempotent:
// granted is false when the profile already holds it. Unknown ids are a
// logged no-op unless StrictAchievements is set.
func (s *ProgressionService) GrantAchievement(ctx context.Context, userID, id string) (granted bool, err error) {
	store := s.Store(userID)
	unlock := s.locks.Lock(store.Key())
	defer unlock()

	prof, err := store.Load(ctx)
	if err != nil {
		return false, err
	}
	if prof.Stats.HasAchievement(id) {
		return false, nil
	}

	def, ok := s.Catalog.Lookup(id)
	if !ok {
		s.log.Warn("unknown achievement id", "profile_key", store.Key(), "achievement_id", id)
		if s.opts.StrictAchievements {
			return false, fmt.Errorf("%w: %q", ErrUnknownAchievement, id)
		}
		return false, nil
	}

	kept := prof.Stats.Achievements[:0]
	for _, a := range prof.Stats.Achievements {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	prof.Stats.Achievements = append(kept, models.Achievement{
		ID:          def.ID,
		Name:        def.Name,
		Description: def.Description,
		Achieved:    true,
	})

	if err := store.Save(ctx, prof); err != nil {
		return false, err
	}

	s.log.Info("achievement granted", "profile_key", store.Key(), "achievement_id", id)
	return true, nil
}
