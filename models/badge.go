package models

// AchievementDefinition is a static catalog entry (id → display text).
type AchievementDefinition struct {
	ID          string `json:"id"`          // e.g. "quiz_master_1"
	Name        string `json:"name"`        // "Quiz Master"
	Description string `json:"description"` // copied onto the profile at grant time
}

// DefaultAchievements is the catalog shipped with the encyclopedia games.
var DefaultAchievements = []AchievementDefinition{
	{
		ID:          "first_game",
		Name:        "First Steps",
		Description: "Finished your first game",
	},
	{
		ID:          "quiz_master_1",
		Name:        "Quiz Master",
		Description: "Completed the animal quiz",
	},
	{
		ID:          "habitat_matcher_1",
		Name:        "Habitat Matcher",
		Description: "Matched every animal to its habitat",
	},
	{
		ID:          "conservation_hero_1",
		Name:        "Conservation Hero",
		Description: "Finished the conservation zone challenge",
	},
	{
		ID:          "sound_safari_1",
		Name:        "Sound Safari",
		Description: "Identified animals by their calls",
	},
	{
		ID:          "explorer_rank",
		Name:        "Seasoned Explorer",
		Description: "Reached the Explorer level",
	},
}
