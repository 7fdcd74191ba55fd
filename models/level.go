package models

// LevelTier is a named score band. NextLevelScore is nil for the top tier.
type LevelTier struct {
	Name           string `json:"name"`
	MinScore       int64  `json:"minScore"`
	NextLevelScore *int64 `json:"nextLevelScore"`
}

// LevelInfo is the display view of a total score.
type LevelInfo struct {
	CurrentLevel  string  `json:"currentLevel"`
	LevelProgress int     `json:"levelProgress"` // 0–100
	NextLevelName *string `json:"nextLevelName"`
}

// DefaultLevelTiers: Beginner → Explorer → Expert → Master.
var DefaultLevelTiers = []LevelTier{
	{Name: "Beginner", MinScore: 0, NextLevelScore: scorePtr(100)},
	{Name: "Explorer", MinScore: 100, NextLevelScore: scorePtr(250)},
	{Name: "Expert", MinScore: 250, NextLevelScore: scorePtr(500)},
	{Name: "Master", MinScore: 500},
}

func scorePtr(v int64) *int64 { return &v }
