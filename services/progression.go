package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"unicode/utf8"

	"wildlife-progress/logger"
	"wildlife-progress/models"
	"wildlife-progress/storage"

	"github.com/gosimple/slug"
)

const MaxUsernameLength = 32

// ProgressionOptions toggles the stricter policies.
type ProgressionOptions struct {
	KeyPrefix          string
	StrictAchievements bool
	StrictDecode       bool
}

// ProgressionService owns every mutation of stored profiles. Each
// load-mutate-save cycle holds a mutex keyed by the profile's storage key, so
// concurrent calls for one profile never lose updates.
type ProgressionService struct {
	Docs    storage.DocumentStore
	Levels  *LevelCalculator
	Catalog *AchievementCatalog

	opts  ProgressionOptions
	log   *logger.Logger
	locks *keyedMutex
}

func NewProgressionService(docs storage.DocumentStore, levels *LevelCalculator, catalog *AchievementCatalog, opts ProgressionOptions, log *logger.Logger) *ProgressionService {
	if log == nil {
		log = logger.Nop()
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "wildlife-user-profile"
	}
	return &ProgressionService{
		Docs:    docs,
		Levels:  levels,
		Catalog: catalog,
		opts:    opts,
		log:     log,
		locks:   newKeyedMutex(),
	}
}

// ProfileKey returns the storage key for userID. An empty userID maps to the
// bare prefix, the single local profile.
func (s *ProgressionService) ProfileKey(userID string) string {
	if userID == "" {
		return s.opts.KeyPrefix
	}
	return s.opts.KeyPrefix + ":" + userID
}

// KeyPrefix is the prefix shared by every profile key.
func (s *ProgressionService) KeyPrefix() string { return s.opts.KeyPrefix }

// Store returns the ProfileStore for userID.
func (s *ProgressionService) Store(userID string) *ProfileStore {
	return NewProfileStore(s.Docs, s.ProfileKey(userID), s.log).Strict(s.opts.StrictDecode)
}

// LoadProfile loads (and default-initialises) the profile for userID.
func (s *ProgressionService) LoadProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	store := s.Store(userID)
	unlock := s.locks.Lock(store.Key())
	defer unlock()
	return store.Load(ctx)
}

// UpdateStats applies one session result: adds scoreChange (may be negative),
// optionally counts one game played, floors the total at zero and saves.
func (s *ProgressionService) UpdateStats(ctx context.Context, userID string, scoreChange int64, incrementGamesPlayed bool) (*models.UserProfile, error) {
	store := s.Store(userID)
	unlock := s.locks.Lock(store.Key())
	defer unlock()

	prof, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}

	prof.Stats.TotalScore = addClamped(prof.Stats.TotalScore, scoreChange)
	if incrementGamesPlayed {
		prof.Stats.GamesPlayed++
	}

	if err := store.Save(ctx, prof); err != nil {
		return nil, err
	}

	s.log.Info("stats updated",
		"profile_key", store.Key(),
		"score_change", scoreChange,
		"total_score", prof.Stats.TotalScore,
		"games_played", prof.Stats.GamesPlayed,
	)
	return prof, nil
}

// RenameProfile sets a new display name. Leading/trailing space is trimmed;
// the result must be 1..MaxUsernameLength characters.
func (s *ProgressionService) RenameProfile(ctx context.Context, userID, username string) (*models.UserProfile, error) {
	username = strings.TrimSpace(username)
	if n := utf8.RuneCountInString(username); n == 0 || n > MaxUsernameLength {
		return nil, fmt.Errorf("%w: must be 1-%d characters", ErrInvalidUsername, MaxUsernameLength)
	}

	store := s.Store(userID)
	unlock := s.locks.Lock(store.Key())
	defer unlock()

	prof, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	prof.Username = username
	if err := store.Save(ctx, prof); err != nil {
		return nil, err
	}
	return prof, nil
}

// LevelInfo is a convenience over Levels.Calculate.
func (s *ProgressionService) LevelInfo(totalScore int64) models.LevelInfo {
	return s.Levels.Calculate(totalScore)
}

// ProfileHandle is the URL-safe handle derived from a display name.
func ProfileHandle(username string) string {
	return slug.Make(username)
}

// addClamped returns total+delta floored at zero. There is no ceiling; on
// overflow the result saturates.
func addClamped(total, delta int64) int64 {
	sum := total + delta
	if delta > 0 && sum < total {
		return math.MaxInt64
	}
	if sum < 0 {
		return 0
	}
	return sum
}

type refLock struct {
	sync.Mutex
	refs int
}

// keyedMutex hands out one mutex per key and forgets it once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refLock)}
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
