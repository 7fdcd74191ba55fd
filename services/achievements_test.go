package services

import (
	"context"
	"testing"

	"wildlife-progress/models"
	"wildlife-progress/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrantAchievement_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, storage.NewMemoryStore(), ProgressionOptions{})

	granted, err := svc.GrantAchievement(ctx, "", "quiz_master_1")
	require.NoError(t, err)
	assert.True(t, granted)

	granted, err = svc.GrantAchievement(ctx, "", "quiz_master_1")
	require.NoError(t, err)
	assert.False(t, granted)

	prof, err := svc.LoadProfile(ctx, "")
	require.NoError(t, err)
	require.Len(t, prof.Stats.Achievements, 1)
	assert.Equal(t, models.Achievement{
		ID:          "quiz_master_1",
		Name:        "Quiz Master",
		Description: "Completed the animal quiz",
		Achieved:    true,
	}, prof.Stats.Achievements[0])
}

func TestGrantAchievement_UnknownIDIsNoop(t *testing.T) {
	ctx := context.Background()
	docs := newFlakyStore()
	svc := newTestService(t, docs, ProgressionOptions{})

	_, err := svc.GrantAchievement(ctx, "", "first_game")
	require.NoError(t, err)
	puts := docs.puts

	granted, err := svc.GrantAchievement(ctx, "", "nonexistent_id")
	require.NoError(t, err)
	assert.False(t, granted)
	assert.Equal(t, puts, docs.puts, "unknown id must not write")

	prof, err := svc.LoadProfile(ctx, "")
	require.NoError(t, err)
	require.Len(t, prof.Stats.Achievements, 1)
	assert.Equal(t, "first_game", prof.Stats.Achievements[0].ID)
}

func TestGrantAchievement_StrictUnknownID(t *testing.T) {
	svc := newTestService(t, storage.NewMemoryStore(), ProgressionOptions{StrictAchievements: true})

	_, err := svc.GrantAchievement(context.Background(), "", "typo_id")
	assert.ErrorIs(t, err, ErrUnknownAchievement)
}

func TestGrantAchievement_ReplacesUnachievedRecord(t *testing.T) {
	ctx := context.Background()
	docs := storage.NewMemoryStore()
	svc := newTestService(t, docs, ProgressionOptions{})
	require.NoError(t, docs.Put(ctx, svc.ProfileKey("u"), []byte(`{
		"username":"u","avatarSeed":"s",
		"stats":{"totalScore":3,"gamesPlayed":1,"achievements":[
			{"id":"habitat_matcher_1","name":"stale","achieved":false},
			{"id":"first_game","name":"First Steps","description":"Finished your first game","achieved":true}
		]}}`)))

	granted, err := svc.GrantAchievement(ctx, "u", "habitat_matcher_1")
	require.NoError(t, err)
	assert.True(t, granted)

	prof, err := svc.LoadProfile(ctx, "u")
	require.NoError(t, err)
	require.Len(t, prof.Stats.Achievements, 2)
	assert.Equal(t, "first_game", prof.Stats.Achievements[0].ID)
	assert.Equal(t, "Habitat Matcher", prof.Stats.Achievements[1].Name)
	assert.True(t, prof.Stats.Achievements[1].Achieved)
	assert.Equal(t, int64(3), prof.Stats.TotalScore)
}

func TestGrantAchievement_PersistenceFailure(t *testing.T) {
	ctx := context.Background()
	docs := newFlakyStore()
	svc := newTestService(t, docs, ProgressionOptions{})
	_, err := svc.LoadProfile(ctx, "")
	require.NoError(t, err)

	docs.failPut = true
	_, err = svc.GrantAchievement(ctx, "", "quiz_master_1")
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)
}

func TestAchievementCatalog(t *testing.T) {
	c := MustAchievementCatalog(models.DefaultAchievements)
	assert.Len(t, c.All(), len(models.DefaultAchievements))
	assert.Equal(t, models.DefaultAchievements[0].ID, c.All()[0].ID)

	d, ok := c.Lookup("sound_safari_1")
	assert.True(t, ok)
	assert.Equal(t, "Sound Safari", d.Name)

	_, ok = c.Lookup("missing")
	assert.False(t, ok)

	_, err := NewAchievementCatalog([]models.AchievementDefinition{{ID: "a"}, {ID: "a"}})
	assert.ErrorIs(t, err, ErrInvalidCatalog)
	_, err = NewAchievementCatalog([]models.AchievementDefinition{{Name: "no id"}})
	assert.ErrorIs(t, err, ErrInvalidCatalog)
}
