package llm

import "github.com/gitgud-app/gitgud/internal/github"

// Intensity controls how sharp a roast gets.
type Intensity string

const (
	IntensityMild   Intensity = "mild"
	IntensityMedium Intensity = "medium"
	IntensitySpicy  Intensity = "spicy"
)

// Valid reports whether the intensity is one of the known levels.
func (i Intensity) Valid() bool {
	switch i {
	case IntensityMild, IntensityMedium, IntensitySpicy:
		return true
	}
	return false
}

// PersonalityProfile is the LLM's read on a developer's habits, derived from
// code patterns only.
type PersonalityProfile struct {
	Archetype  string   `json:"archetype"`
	Strengths  []string `json:"strengths"`
	BlindSpots []string `json:"blind_spots"`
}

// RoastResult is the structured output of a roast generation.
type RoastResult struct {
	Roast   string             `json:"roast"`
	Advice  []string           `json:"advice"`
	Profile PersonalityProfile `json:"profile"`
}

// Verdict is the head-to-head judgement between two users.
type Verdict struct {
	Winner     string  `json:"winner"` // "user1", "user2" or "tie"
	Reasoning  string  `json:"reasoning"`
	ScoreUser1 float64 `json:"score_user1"`
	ScoreUser2 float64 `json:"score_user2"`
}

// UserSummary bundles everything known about one side of a comparison.
type UserSummary struct {
	Username string          `json:"username"`
	Signals  *github.Signals `json:"signals"`
	Roast    *RoastResult    `json:"roast"`
}
