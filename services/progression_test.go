package services

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"testing"

	"wildlife-progress/models"
	"wildlife-progress/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, docs storage.DocumentStore, opts ProgressionOptions) *ProgressionService {
	t.Helper()
	return NewProgressionService(
		docs,
		MustLevelCalculator(models.DefaultLevelTiers),
		MustAchievementCatalog(models.DefaultAchievements),
		opts,
		nil,
	)
}

func TestUpdateStats_FreshProfile(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, storage.NewMemoryStore(), ProgressionOptions{})

	_, err := svc.UpdateStats(ctx, "", 30, true)
	require.NoError(t, err)

	prof, err := svc.LoadProfile(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(30), prof.Stats.TotalScore)
	assert.Equal(t, int64(1), prof.Stats.GamesPlayed)
}

func TestUpdateStats_ClampsAtZero(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, storage.NewMemoryStore(), ProgressionOptions{})

	_, err := svc.UpdateStats(ctx, "u1", 30, false)
	require.NoError(t, err)
	prof, err := svc.UpdateStats(ctx, "u1", -50, false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), prof.Stats.TotalScore)
	assert.Equal(t, int64(0), prof.Stats.GamesPlayed)
}

func TestUpdateStats_NonNegativeAndGamesPlayedCount(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, storage.NewMemoryStore(), ProgressionOptions{})
	rng := rand.New(rand.NewSource(1))

	played := int64(0)
	for i := 0; i < 200; i++ {
		delta := rng.Int63n(401) - 200
		inc := rng.Intn(2) == 0
		if inc {
			played++
		}
		prof, err := svc.UpdateStats(ctx, "u", delta, inc)
		require.NoError(t, err)
		require.GreaterOrEqual(t, prof.Stats.TotalScore, int64(0))
		require.Equal(t, played, prof.Stats.GamesPlayed)
	}
}

func TestUpdateStats_NoCeiling(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, storage.NewMemoryStore(), ProgressionOptions{})

	prof, err := svc.UpdateStats(ctx, "u", math.MaxInt64-1, false)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64-1), prof.Stats.TotalScore)

	prof, err = svc.UpdateStats(ctx, "u", 10, false)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), prof.Stats.TotalScore)
}

func TestUpdateStats_ProfilesAreIsolated(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, storage.NewMemoryStore(), ProgressionOptions{})

	_, err := svc.UpdateStats(ctx, "alice", 10, true)
	require.NoError(t, err)
	bob, err := svc.UpdateStats(ctx, "bob", 5, false)
	require.NoError(t, err)

	assert.Equal(t, int64(5), bob.Stats.TotalScore)
	assert.Equal(t, "wildlife-user-profile:alice", svc.ProfileKey("alice"))
	assert.Equal(t, "wildlife-user-profile", svc.ProfileKey(""))
}

func TestUpdateStats_ConcurrentCallsDoNotLoseUpdates(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, storage.NewMemoryStore(), ProgressionOptions{})

	const workers = 20
	const perWorker = 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := svc.UpdateStats(ctx, "shared", 1, true)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	prof, err := svc.LoadProfile(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, int64(workers*perWorker), prof.Stats.TotalScore)
	assert.Equal(t, int64(workers*perWorker), prof.Stats.GamesPlayed)
	assert.Empty(t, svc.locks.locks, "keyed locks should be released")
}

func TestUpdateStats_PersistenceFailure(t *testing.T) {
	ctx := context.Background()
	docs := newFlakyStore()
	svc := newTestService(t, docs, ProgressionOptions{})

	_, err := svc.UpdateStats(ctx, "u", 10, true)
	require.NoError(t, err)

	docs.failPut = true
	_, err = svc.UpdateStats(ctx, "u", 10, true)
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)

	docs.failPut = false
	prof, err := svc.LoadProfile(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, int64(10), prof.Stats.TotalScore, "failed save must not be visible")
}

func TestRenameProfile(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, storage.NewMemoryStore(), ProgressionOptions{})

	before, err := svc.LoadProfile(ctx, "u")
	require.NoError(t, err)

	prof, err := svc.RenameProfile(ctx, "u", "  Snow Leopard Fan  ")
	require.NoError(t, err)
	assert.Equal(t, "Snow Leopard Fan", prof.Username)
	assert.Equal(t, before.AvatarSeed, prof.AvatarSeed)
	assert.Equal(t, "snow-leopard-fan", ProfileHandle(prof.Username))

	_, err = svc.RenameProfile(ctx, "u", "   ")
	assert.ErrorIs(t, err, ErrInvalidUsername)

	long := make([]rune, MaxUsernameLength+1)
	for i := range long {
		long[i] = 'é'
	}
	_, err = svc.RenameProfile(ctx, "u", string(long))
	assert.ErrorIs(t, err, ErrInvalidUsername)
}

func TestAddClamped(t *testing.T) {
	assert.Equal(t, int64(0), addClamped(10, -11))
	assert.Equal(t, int64(0), addClamped(0, math.MinInt64))
	assert.Equal(t, int64(15), addClamped(10, 5))
	assert.Equal(t, int64(math.MaxInt64), addClamped(math.MaxInt64, 1))
}

func TestUpdateStats_PreservesStoredProgressThroughRepair(t *testing.T) {
	ctx := context.Background()
	docs := storage.NewMemoryStore()
	svc := newTestService(t, docs, ProgressionOptions{})
	stored := `{"username":"Brave Otter","avatarSeed":"seed","stats":{"totalScore":300.0,"gamesPlayed":3,"achievements":[` +
		`{"id":"quiz_master_1","name":"Quiz Master","achieved":true},` +
		`{"id":"first_game","achieved":"true"}]}}`
	require.NoError(t, docs.Put(ctx, svc.ProfileKey("u1"), []byte(stored)))

	prof, err := svc.UpdateStats(ctx, "u1", 10, true)
	require.NoError(t, err)
	assert.Equal(t, int64(310), prof.Stats.TotalScore)
	assert.Equal(t, int64(4), prof.Stats.GamesPlayed)
	assert.True(t, prof.Stats.HasAchievement("quiz_master_1"))

	reloaded, err := svc.LoadProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Brave Otter", reloaded.Username)
	assert.Equal(t, int64(310), reloaded.Stats.TotalScore)
	assert.True(t, reloaded.Stats.HasAchievement("quiz_master_1"))
}
