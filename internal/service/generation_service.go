package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/famquest-app/famquest-api/internal/models"
	appErrors "github.com/famquest-app/famquest-api/pkg/errors"
	"github.com/famquest-app/famquest-api/pkg/genai"
)

// Points credited for solving a riddle, by difficulty.
var riddlePoints = map[models.RiddleDifficulty]int{
	models.RiddleEasy:   5,
	models.RiddleMedium: 10,
	models.RiddleHard:   20,
}

type textCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type generationCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type pointsCreditor interface {
	Credit(ctx context.Context, entry models.LedgerEntry) error
}

type analysisLedgerReader interface {
	List(ctx context.Context, childID string, filter models.LedgerFilter) ([]models.LedgerEntry, error)
}

type analysisMoodReader interface {
	ListSince(ctx context.Context, childID string, since time.Time) ([]models.Mood, error)
}

// GenerationConfig tunes caching for generated content.
type GenerationConfig struct {
	RiddleCacheTTL time.Duration
	AnalysisTTL    time.Duration
}

// GenerationService produces riddles, catalog suggestions and behaviour
// analysis from a generative-text endpoint. Upstream output is untrusted:
// structured responses are extracted from free text and validated before
// anything reaches a client, and a malformed response surfaces as an
// upstream error, never as partial content.
type GenerationService struct {
	completer textCompleter
	cache     generationCache
	points    pointsCreditor
	ledger    analysisLedgerReader
	moods     analysisMoodReader
	config    GenerationConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGenerationService constructs the service. cache may be nil, which
// disables riddle prewarming and analysis caching.
func NewGenerationService(completer textCompleter, cache generationCache, points pointsCreditor, ledger analysisLedgerReader, moods analysisMoodReader, config GenerationConfig, validate *validator.Validate, logger *zap.Logger) *GenerationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.RiddleCacheTTL <= 0 {
		config.RiddleCacheTTL = 24 * time.Hour
	}
	if config.AnalysisTTL <= 0 {
		config.AnalysisTTL = 24 * time.Hour
	}
	return &GenerationService{
		completer: completer,
		cache:     cache,
		points:    points,
		ledger:    ledger,
		moods:     moods,
		config:    config,
		validator: validate,
		logger:    logger,
	}
}

// GenerateRiddle returns a riddle of the requested difficulty. A prewarmed
// riddle is served from cache once and then discarded so repeats stay rare.
func (s *GenerationService) GenerateRiddle(ctx context.Context, req models.GenerateRiddleRequest) (*models.Riddle, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid riddle request")
	}

	cacheKey := riddleCacheKey(req.Difficulty)
	if s.cache != nil {
		var cached models.Riddle
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			if err := s.cache.DeleteByPattern(ctx, cacheKey); err != nil {
				s.logger.Warn("failed to evict served riddle", zap.Error(err))
			}
			return &cached, nil
		}
	}

	riddle, err := s.completeRiddle(ctx, req.Difficulty)
	if err != nil {
		return nil, err
	}
	return riddle, nil
}

// PrewarmRiddles generates and caches one riddle per difficulty. Run by the
// nightly cron so the first request of the day is served instantly.
func (s *GenerationService) PrewarmRiddles(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	difficulties := []models.RiddleDifficulty{models.RiddleEasy, models.RiddleMedium, models.RiddleHard}
	for _, difficulty := range difficulties {
		riddle, err := s.completeRiddle(ctx, difficulty)
		if err != nil {
			return fmt.Errorf("prewarm %s riddle: %w", difficulty, err)
		}
		if err := s.cache.Set(ctx, riddleCacheKey(difficulty), riddle, s.config.RiddleCacheTTL); err != nil {
			return fmt.Errorf("cache %s riddle: %w", difficulty, err)
		}
	}
	s.logger.Info("riddle cache prewarmed", zap.Int("count", len(difficulties)))
	return nil
}

// SolveRiddle credits the difficulty's point value for a solved riddle.
func (s *GenerationService) SolveRiddle(ctx context.Context, childID string, req models.SolveRiddleRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid solve payload")
	}

	points := riddlePoints[req.Difficulty]
	entry := models.LedgerEntry{
		ID:        uuid.NewString(),
		ChildID:   childID,
		Delta:     points,
		EntryType: models.LedgerEntryRiddle,
		Reason:    fmt.Sprintf("Riddle solved (%s)", req.Difficulty),
	}
	if err := s.points.Credit(ctx, entry); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to credit riddle points")
	}
	return points, nil
}

// GenerateSuggestions returns label ideas for the requested catalog.
func (s *GenerationService) GenerateSuggestions(ctx context.Context, req models.GenerateSuggestionsRequest) ([]string, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid suggestions request")
	}

	raw, err := s.completer.Complete(ctx, suggestionPrompt(req.Type))
	if err != nil {
		return nil, err
	}
	items := genai.ParseList(raw)
	if len(items) == 0 {
		return nil, appErrors.Clone(appErrors.ErrUpstreamMalformed, "no suggestions in response")
	}
	if len(items) > 10 {
		items = items[:10]
	}
	return items, nil
}

// Analyze summarises a child's recent activity. Results are cached per
// (parent, child) for the configured TTL, so repeated dashboard loads do not
// hit the upstream.
func (s *GenerationService) Analyze(ctx context.Context, parentID, childID string) (*models.ChildAnalysis, error) {
	cacheKey := fmt.Sprintf("ai:analysis:%s:%s", parentID, childID)
	if s.cache != nil {
		var cached models.ChildAnalysis
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	entries, err := s.ledger.List(ctx, childID, models.LedgerFilter{Limit: 50})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read points history")
	}
	moods, err := s.moods.ListSince(ctx, childID, time.Now().UTC().AddDate(0, 0, -14))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read moods")
	}

	raw, err := s.completer.Complete(ctx, analysisPrompt(entries, moods))
	if err != nil {
		return nil, err
	}

	var analysis models.ChildAnalysis
	if err := genai.ExtractJSONObject(raw, &analysis); err != nil {
		return nil, err
	}
	if strings.TrimSpace(analysis.Summary) == "" {
		return nil, appErrors.Clone(appErrors.ErrUpstreamMalformed, "analysis response missing summary")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, &analysis, s.config.AnalysisTTL); err != nil {
			s.logger.Warn("failed to cache analysis", zap.Error(err))
		}
	}
	return &analysis, nil
}

func (s *GenerationService) completeRiddle(ctx context.Context, difficulty models.RiddleDifficulty) (*models.Riddle, error) {
	raw, err := s.completer.Complete(ctx, riddlePrompt(difficulty))
	if err != nil {
		return nil, err
	}

	var riddle models.Riddle
	if err := genai.ExtractJSONObject(raw, &riddle); err != nil {
		return nil, err
	}
	if strings.TrimSpace(riddle.Question) == "" ||
		strings.TrimSpace(riddle.Answer) == "" ||
		strings.TrimSpace(riddle.Hint) == "" {
		return nil, appErrors.Clone(appErrors.ErrUpstreamMalformed, "riddle response missing fields")
	}
	return &riddle, nil
}

func riddleCacheKey(difficulty models.RiddleDifficulty) string {
	return fmt.Sprintf("ai:riddle:%s", difficulty)
}

func riddlePrompt(difficulty models.RiddleDifficulty) string {
	return fmt.Sprintf(
		"Generate a %s riddle suitable for a child. Answer with a single JSON object "+
			`with exactly these keys: "question", "answer", "hint". No other text.`,
		difficulty,
	)
}

func suggestionPrompt(kind models.SuggestionType) string {
	var subject string
	switch kind {
	case models.SuggestionTask:
		subject = "age-appropriate household tasks a child can do daily"
	case models.SuggestionRule:
		subject = "simple family rules for children"
	default:
		subject = "small rewards parents can offer children for earned points"
	}
	return fmt.Sprintf("Suggest 8 short labels for %s. Answer with one suggestion per line, no numbering commentary.", subject)
}

func analysisPrompt(entries []models.LedgerEntry, moods []models.Mood) string {
	var b strings.Builder
	b.WriteString("You are helping a parent understand their child's recent activity in a family task app.\n")
	b.WriteString("Recent point movements (newest first):\n")
	for _, entry := range entries {
		fmt.Fprintf(&b, "- %s: %+d (%s)\n", entry.CreatedAt.Format("2006-01-02"), entry.Delta, entry.Reason)
	}
	if len(moods) > 0 {
		b.WriteString("Recent moods:\n")
		for _, mood := range moods {
			fmt.Fprintf(&b, "- %s: %s\n", mood.RecordedOn.Format("2006-01-02"), mood.Mood)
		}
	}
	b.WriteString(`Answer with a single JSON object with keys "summary" (string), "strengths" (array of strings), "suggestions" (array of strings). No other text.`)
	return b.String()
}
