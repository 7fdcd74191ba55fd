package models

import (
	"time"
)

// UserProfile is the persisted root document: identity plus progression stats.
// It is always read and written as a whole.
type UserProfile struct {
	Username   string    `json:"username"`
	AvatarSeed string    `json:"avatarSeed"` // set once at creation
	Stats      UserStats `json:"stats"`
}

// UserStats is embedded in UserProfile.
type UserStats struct {
	TotalScore   int64         `json:"totalScore"`  // never below 0
	GamesPlayed  int64         `json:"gamesPlayed"` // +1 per completed session
	Achievements []Achievement `json:"achievements"`
}

// Achievement records an earned milestone. Absence from UserStats.Achievements
// means not achieved.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Achieved    bool   `json:"achieved"`
}

// HasAchievement reports whether id is present and marked achieved.
func (s *UserStats) HasAchievement(id string) bool {
	for _, a := range s.Achievements {
		if a.ID == id && a.Achieved {
			return true
		}
	}
	return false
}

// ProfileDocument is the SQL row backing one stored profile document.
type ProfileDocument struct {
	Key  string `gorm:"column:doc_key;primaryKey;type:varchar(191)" json:"key"`
	Body []byte `gorm:"not null" json:"-"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
