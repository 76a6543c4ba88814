package genai

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/famquest-app/famquest-api/pkg/errors"
)

func TestExtractJSONObjectFromProse(t *testing.T) {
	text := "Here is your riddle:\n```json\n{\"question\": \"What has keys?\", \"answer\": \"a piano\", \"hint\": \"music\"}\n```\nEnjoy!"

	var dest struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
		Hint     string `json:"hint"`
	}
	require.NoError(t, ExtractJSONObject(text, &dest))
	assert.Equal(t, "What has keys?", dest.Question)
	assert.Equal(t, "a piano", dest.Answer)
	assert.Equal(t, "music", dest.Hint)
}

func TestExtractJSONObjectNestedBraces(t *testing.T) {
	text := `prefix {"outer": {"inner": "value"}, "label": "a { b } c"} suffix`

	var dest map[string]interface{}
	require.NoError(t, ExtractJSONObject(text, &dest))
	assert.Equal(t, "a { b } c", dest["label"])
}

func TestExtractJSONObjectMissing(t *testing.T) {
	var dest map[string]interface{}
	err := ExtractJSONObject("no json here at all", &dest)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUpstreamMalformed.Code, appErr.Code)
}

func TestExtractJSONObjectUnterminated(t *testing.T) {
	var dest map[string]interface{}
	err := ExtractJSONObject(`{"question": "incomplete`, &dest)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUpstreamMalformed.Code, appErr.Code)
}

func TestParseListNumberedMarkers(t *testing.T) {
	items := ParseList("1. Faire le lit\n2. Ranger\n")
	assert.Equal(t, []string{"Faire le lit", "Ranger"}, items)
}

func TestParseListMixedMarkers(t *testing.T) {
	items := ParseList("- Premier\n* Deuxième\n• Troisième\n\n4) Quatrième\nSans marqueur")
	assert.Equal(t, []string{"Premier", "Deuxième", "Troisième", "Quatrième", "Sans marqueur"}, items)
}

func TestParseListEmpty(t *testing.T) {
	assert.Empty(t, ParseList("\n   \n"))
}
