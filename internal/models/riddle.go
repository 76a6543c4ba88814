package models

// RiddleDifficulty selects how hard a generated riddle should be.
type RiddleDifficulty string

const (
	RiddleEasy   RiddleDifficulty = "easy"
	RiddleMedium RiddleDifficulty = "medium"
	RiddleHard   RiddleDifficulty = "hard"
)

// Riddle is the strict shape extracted from a generative-text completion.
// All three fields must be present; anything less is a malformed upstream
// response.
type Riddle struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Hint     string `json:"hint"`
}

// GenerateRiddleRequest asks for a riddle of the given difficulty.
type GenerateRiddleRequest struct {
	Difficulty RiddleDifficulty `json:"difficulty" validate:"required,oneof=easy medium hard"`
}

// SuggestionType selects which catalog the suggestions are for.
type SuggestionType string

const (
	SuggestionTask   SuggestionType = "task"
	SuggestionRule   SuggestionType = "rule"
	SuggestionReward SuggestionType = "reward"
)

// GenerateSuggestionsRequest asks for a suggestion list.
type GenerateSuggestionsRequest struct {
	Type SuggestionType `json:"type" validate:"required,oneof=task rule reward"`
}

// SolveRiddleRequest credits points for a solved riddle.
type SolveRiddleRequest struct {
	Difficulty RiddleDifficulty `json:"difficulty" validate:"required,oneof=easy medium hard"`
}

// ChildAnalysis is the cached AI behaviour summary per (parent, child).
type ChildAnalysis struct {
	Summary     string   `json:"summary"`
	Strengths   []string `json:"strengths"`
	Suggestions []string `json:"suggestions"`
}
