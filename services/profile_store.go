package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"wildlife-progress/logger"
	"wildlife-progress/models"
	"wildlife-progress/storage"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DecodeStatus tells the caller which recovery path, if any, a decode took.
type DecodeStatus int

const (
	DecodeOK DecodeStatus = iota
	// DecodeBackfilled: parseable, but stats (or part of it) had to be defaulted.
	DecodeBackfilled
	// DecodeMalformed: unusable; the profile return value is nil.
	DecodeMalformed
)

func (d DecodeStatus) String() string {
	switch d {
	case DecodeOK:
		return "ok"
	case DecodeBackfilled:
		return "backfilled"
	default:
		return "malformed"
	}
}

// DecodeProfile parses a stored document. Missing or mistyped stats fields are
// backfilled with zero values; a document that is not a JSON object, or whose
// identity fields have the wrong type, is malformed.
func DecodeProfile(data []byte) (*models.UserProfile, DecodeStatus, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, DecodeMalformed, err
	}
	if fields == nil {
		return nil, DecodeMalformed, errors.New("document is null")
	}

	prof := &models.UserProfile{}
	if raw, ok := fields["username"]; ok {
		if err := json.Unmarshal(raw, &prof.Username); err != nil {
			return nil, DecodeMalformed, fmt.Errorf("username: %w", err)
		}
	}
	if raw, ok := fields["avatarSeed"]; ok {
		if err := json.Unmarshal(raw, &prof.AvatarSeed); err != nil {
			return nil, DecodeMalformed, fmt.Errorf("avatarSeed: %w", err)
		}
	}

	status := DecodeOK
	var stats map[string]json.RawMessage
	if err := json.Unmarshal(fields["stats"], &stats); err != nil || stats == nil {
		prof.Stats = emptyStats()
		return prof, DecodeBackfilled, nil
	}

	var exact bool
	if prof.Stats.TotalScore, exact = decodeCount(stats["totalScore"]); !exact {
		status = DecodeBackfilled
	}
	if prof.Stats.GamesPlayed, exact = decodeCount(stats["gamesPlayed"]); !exact {
		status = DecodeBackfilled
	}

	var items []json.RawMessage
	if err := json.Unmarshal(stats["achievements"], &items); err != nil || items == nil {
		prof.Stats.Achievements = []models.Achievement{}
		return prof, DecodeBackfilled, nil
	}
	achievements := make([]models.Achievement, 0, len(items))
	for _, item := range items {
		var a models.Achievement
		if err := json.Unmarshal(item, &a); err != nil {
			status = DecodeBackfilled
			continue
		}
		achievements = append(achievements, a)
	}
	prof.Stats.Achievements = dedupeAchievements(achievements)
	if len(prof.Stats.Achievements) != len(items) {
		status = DecodeBackfilled
	}
	return prof, status, nil
}

// decodeCount reads a non-negative counter. Whole-valued floats such as 300.0
// or 3e2 are accepted as is; fractions are truncated, values beyond int64
// saturate, and negative or non-numeric values become 0. exact is false
// whenever the stored value had to be changed.
func decodeCount(raw json.RawMessage) (n int64, exact bool) {
	if raw == nil {
		return 0, false
	}
	if err := json.Unmarshal(raw, &n); err == nil {
		if n < 0 {
			return 0, false
		}
		return n, true
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil || math.IsNaN(f) {
		return 0, false
	}
	switch {
	case f <= 0:
		return 0, f == 0
	case f >= math.MaxInt64:
		return math.MaxInt64, false
	}
	whole := math.Trunc(f)
	return int64(whole), whole == f
}

// dedupeAchievements keeps one record per id, preferring an achieved one.
func dedupeAchievements(in []models.Achievement) []models.Achievement {
	out := make([]models.Achievement, 0, len(in))
	pos := make(map[string]int, len(in))
	for _, a := range in {
		if a.ID == "" {
			continue
		}
		if i, seen := pos[a.ID]; seen {
			if a.Achieved && !out[i].Achieved {
				out[i] = a
			}
			continue
		}
		pos[a.ID] = len(out)
		out = append(out, a)
	}
	return out
}

func emptyStats() models.UserStats {
	return models.UserStats{Achievements: []models.Achievement{}}
}

// ProfileStore is the single source of truth for one stored profile.
type ProfileStore struct {
	docs   storage.DocumentStore
	key    string
	log    *logger.Logger
	strict bool
}

// NewProfileStore binds a store to key. A nil logger discards output.
func NewProfileStore(docs storage.DocumentStore, key string, log *logger.Logger) *ProfileStore {
	if log == nil {
		log = logger.Nop()
	}
	return &ProfileStore{docs: docs, key: key, log: log.With("profile_key", key)}
}

// Strict makes Load return ErrMalformedProfile instead of repairing.
func (s *ProfileStore) Strict(strict bool) *ProfileStore {
	s.strict = strict
	return s
}

func (s *ProfileStore) Key() string { return s.key }

// Load returns the stored profile, creating and persisting a default one when
// nothing is stored or the stored document is malformed. Backfilled stats are
// not written back here; the next Save persists them.
func (s *ProfileStore) Load(ctx context.Context) (*models.UserProfile, error) {
	data, err := s.docs.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return s.initDefault(ctx)
	}
	if err != nil {
		return nil, persistenceErr("load", s.key, err)
	}

	prof, status, decodeErr := DecodeProfile(data)
	switch status {
	case DecodeMalformed:
		if s.strict {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedProfile, s.key, decodeErr)
		}
		return s.recoverMalformed(ctx, decodeErr)
	case DecodeBackfilled:
		s.log.Debug("backfilled profile stats on load")
	}
	return prof, nil
}

// Save normalises and persists the whole document.
func (s *ProfileStore) Save(ctx context.Context, prof *models.UserProfile) error {
	if prof.Stats.Achievements == nil {
		prof.Stats.Achievements = []models.Achievement{}
	}
	body, err := json.Marshal(prof)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	if err := s.docs.Put(ctx, s.key, body); err != nil {
		return persistenceErr("save", s.key, err)
	}
	return nil
}

// recoverMalformed discards an unreadable document and starts over.
func (s *ProfileStore) recoverMalformed(ctx context.Context, cause error) (*models.UserProfile, error) {
	s.log.Warn("discarding malformed profile document", "error", cause)
	return s.initDefault(ctx)
}

func (s *ProfileStore) initDefault(ctx context.Context) (*models.UserProfile, error) {
	prof := NewDefaultProfile()
	if err := s.Save(ctx, prof); err != nil {
		return nil, err
	}
	s.log.Info("created default profile", "username", prof.Username)
	return prof, nil
}

var (
	nameAdjectives = []string{"curious", "brave", "swift", "quiet", "clever", "wild", "gentle", "bold"}
	nameAnimals    = []string{"otter", "lynx", "heron", "panda", "gecko", "orca", "falcon", "tapir"}
)

// NewDefaultProfile returns a fresh profile with a generated display name, a
// new avatar seed and zeroed stats.
func NewDefaultProfile() *models.UserProfile {
	name := nameAdjectives[rand.Intn(len(nameAdjectives))] + " " + nameAnimals[rand.Intn(len(nameAnimals))]
	return &models.UserProfile{
		Username:   cases.Title(language.English).String(name), // Caser is not goroutine-safe
		AvatarSeed: uuid.NewString(),
		Stats:      emptyStats(),
	}
}
