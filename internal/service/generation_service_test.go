package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/famquest-app/famquest-api/internal/models"
	appErrors "github.com/famquest-app/famquest-api/pkg/errors"
)

type mockCompleter struct {
	response string
	err      error
	calls    int
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

type mockGenCache struct {
	entries map[string][]byte
}

func (m *mockGenCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockGenCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	m.entries[key] = raw
	return nil
}

func (m *mockGenCache) DeleteByPattern(ctx context.Context, pattern string) error {
	delete(m.entries, pattern)
	return nil
}

type mockCreditor struct {
	credited []models.LedgerEntry
}

func (m *mockCreditor) Credit(ctx context.Context, entry models.LedgerEntry) error {
	m.credited = append(m.credited, entry)
	return nil
}

type mockLedgerReader struct {
	entries []models.LedgerEntry
}

func (m *mockLedgerReader) List(ctx context.Context, childID string, filter models.LedgerFilter) ([]models.LedgerEntry, error) {
	return m.entries, nil
}

type mockMoodReader struct {
	moods []models.Mood
}

func (m *mockMoodReader) ListSince(ctx context.Context, childID string, since time.Time) ([]models.Mood, error) {
	return m.moods, nil
}

func newGenerationFixture(completer *mockCompleter, cache *mockGenCache) (*GenerationService, *mockCreditor) {
	if cache == nil {
		cache = &mockGenCache{}
	}
	creditor := &mockCreditor{}
	svc := NewGenerationService(
		completer,
		cache,
		creditor,
		&mockLedgerReader{},
		&mockMoodReader{},
		GenerationConfig{},
		nil,
		nil,
	)
	return svc, creditor
}

func TestGenerateRiddleExtractsWrappedJSON(t *testing.T) {
	completer := &mockCompleter{response: "Here is your riddle:\n```json\n" +
		`{"question": "What has keys but no locks?", "answer": "A piano", "hint": "It makes music"}` +
		"\n```"}
	svc, _ := newGenerationFixture(completer, nil)

	riddle, err := svc.GenerateRiddle(context.Background(), models.GenerateRiddleRequest{Difficulty: models.RiddleEasy})
	require.NoError(t, err)
	assert.Equal(t, "What has keys but no locks?", riddle.Question)
	assert.Equal(t, "A piano", riddle.Answer)
	assert.Equal(t, "It makes music", riddle.Hint)
}

func TestGenerateRiddleMissingFieldIsMalformed(t *testing.T) {
	completer := &mockCompleter{response: `{"question": "Incomplete?", "answer": ""}`}
	svc, _ := newGenerationFixture(completer, nil)

	_, err := svc.GenerateRiddle(context.Background(), models.GenerateRiddleRequest{Difficulty: models.RiddleEasy})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstreamMalformed.Code, appErrors.FromError(err).Code)
}

func TestGenerateRiddleServedFromPrewarmCacheOnce(t *testing.T) {
	cache := &mockGenCache{}
	completer := &mockCompleter{response: `{"question": "Fresh?", "answer": "Yes", "hint": "New"}`}
	svc, _ := newGenerationFixture(completer, cache)

	cached := models.Riddle{Question: "Cached?", Answer: "Yes", Hint: "Old"}
	require.NoError(t, cache.Set(context.Background(), "ai:riddle:easy", cached, time.Hour))

	first, err := svc.GenerateRiddle(context.Background(), models.GenerateRiddleRequest{Difficulty: models.RiddleEasy})
	require.NoError(t, err)
	assert.Equal(t, "Cached?", first.Question)
	assert.Zero(t, completer.calls)

	// The cached riddle is evicted after serving; the next request generates.
	second, err := svc.GenerateRiddle(context.Background(), models.GenerateRiddleRequest{Difficulty: models.RiddleEasy})
	require.NoError(t, err)
	assert.Equal(t, "Fresh?", second.Question)
	assert.Equal(t, 1, completer.calls)
}

func TestPrewarmRiddlesFillsAllDifficulties(t *testing.T) {
	cache := &mockGenCache{}
	completer := &mockCompleter{response: `{"question": "Q", "answer": "A", "hint": "H"}`}
	svc, _ := newGenerationFixture(completer, cache)

	require.NoError(t, svc.PrewarmRiddles(context.Background()))
	assert.Equal(t, 3, completer.calls)
	assert.Contains(t, cache.entries, "ai:riddle:easy")
	assert.Contains(t, cache.entries, "ai:riddle:medium")
	assert.Contains(t, cache.entries, "ai:riddle:hard")
}

func TestSolveRiddleCreditsByDifficulty(t *testing.T) {
	svc, creditor := newGenerationFixture(&mockCompleter{}, nil)

	points, err := svc.SolveRiddle(context.Background(), "child-1", models.SolveRiddleRequest{Difficulty: models.RiddleHard})
	require.NoError(t, err)
	assert.Equal(t, 20, points)
	require.Len(t, creditor.credited, 1)
	assert.Equal(t, 20, creditor.credited[0].Delta)
	assert.Equal(t, models.LedgerEntryRiddle, creditor.credited[0].EntryType)
}

func TestGenerateSuggestionsParsesNumberedList(t *testing.T) {
	completer := &mockCompleter{response: "1. Faire le lit\n2. Ranger\n\n3. Arroser les plantes"}
	svc, _ := newGenerationFixture(completer, nil)

	items, err := svc.GenerateSuggestions(context.Background(), models.GenerateSuggestionsRequest{Type: models.SuggestionTask})
	require.NoError(t, err)
	assert.Equal(t, []string{"Faire le lit", "Ranger", "Arroser les plantes"}, items)
}

func TestGenerateSuggestionsEmptyIsMalformed(t *testing.T) {
	completer := &mockCompleter{response: "   \n\n"}
	svc, _ := newGenerationFixture(completer, nil)

	_, err := svc.GenerateSuggestions(context.Background(), models.GenerateSuggestionsRequest{Type: models.SuggestionReward})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstreamMalformed.Code, appErrors.FromError(err).Code)
}

func TestAnalyzeCachesResult(t *testing.T) {
	cache := &mockGenCache{}
	completer := &mockCompleter{response: `{"summary": "Great week", "strengths": ["consistent"], "suggestions": ["more reading"]}`}
	svc, _ := newGenerationFixture(completer, cache)

	first, err := svc.Analyze(context.Background(), "par-1", "child-1")
	require.NoError(t, err)
	assert.Equal(t, "Great week", first.Summary)
	assert.Equal(t, 1, completer.calls)

	// Second call is served from cache without touching the upstream.
	second, err := svc.Analyze(context.Background(), "par-1", "child-1")
	require.NoError(t, err)
	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, 1, completer.calls)
}

func TestAnalyzeMissingSummaryIsMalformed(t *testing.T) {
	completer := &mockCompleter{response: `{"summary": "", "strengths": []}`}
	svc, _ := newGenerationFixture(completer, nil)

	_, err := svc.Analyze(context.Background(), "par-1", "child-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstreamMalformed.Code, appErrors.FromError(err).Code)
}
