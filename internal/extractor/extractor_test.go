package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExtraction(t *testing.T) {
	t.Run("plain JSON", func(t *testing.T) {
		result, err := ParseExtraction([]byte(`{"present":["location"],"missing":["incident_time"],"confidence":0.82}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"location"}, result.PresentFields)
		assert.Equal(t, []string{"incident_time"}, result.MissingFields)
		assert.Equal(t, 0.82, result.Confidence)
	})

	t.Run("markdown fenced JSON", func(t *testing.T) {
		raw := "```json\n{\"present\":[],\"missing\":[\"location\"],\"confidence\":0.5}\n```"
		result, err := ParseExtraction([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, []string{"location"}, result.MissingFields)
	})

	t.Run("malformed payload errors", func(t *testing.T) {
		_, err := ParseExtraction([]byte("the narrative looks fine to me"))
		assert.Error(t, err)
	})

	t.Run("payload without field lists errors", func(t *testing.T) {
		_, err := ParseExtraction([]byte(`{"confidence":0.9}`))
		assert.Error(t, err)
	})

	t.Run("confidence clamped to [0,1]", func(t *testing.T) {
		result, err := ParseExtraction([]byte(`{"present":["a"],"missing":[],"confidence":3.5}`))
		require.NoError(t, err)
		assert.Equal(t, 1.0, result.Confidence)

		result, err = ParseExtraction([]byte(`{"present":["a"],"missing":[],"confidence":-2}`))
		require.NoError(t, err)
		assert.Equal(t, 0.0, result.Confidence)
	})
}
