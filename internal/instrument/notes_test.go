package instrument

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCompactNotes(t *testing.T) {
	t.Run("pipe delimited pairs", func(t *testing.T) {
		got := ParseCompactNotes("location: Building 12 · Room 204 | maintainer: Kim")
		assert.Equal(t, map[string]any{
			"location":   "Building 12 · Room 204",
			"maintainer": "Kim",
		}, got)
	})

	t.Run("bracketed values become lists", func(t *testing.T) {
		got := ParseCompactNotes("tags: [confocal, 'live-cell', \"booked\"] | owner: core")
		assert.Equal(t, map[string]any{
			"tags":  []string{"confocal", "live-cell", "booked"},
			"owner": "core",
		}, got)
	})

	t.Run("quoted scalars are unquoted", func(t *testing.T) {
		got := ParseCompactNotes("maintainer: 'Kim O.' | phone: \"+358 40\"")
		assert.Equal(t, map[string]any{
			"maintainer": "Kim O.",
			"phone":      "+358 40",
		}, got)
	})

	t.Run("free text passes through verbatim", func(t *testing.T) {
		got := ParseCompactNotes("handle with care, stage is loose")
		assert.Equal(t, map[string]any{"raw": "handle with care, stage is loose"}, got)
	})

	t.Run("blank input", func(t *testing.T) {
		assert.Nil(t, ParseCompactNotes(""))
		assert.Nil(t, ParseCompactNotes("   "))
	})

	t.Run("empty bracket list", func(t *testing.T) {
		got := ParseCompactNotes("tags: []")
		assert.Equal(t, map[string]any{"tags": []string(nil)}, got)
	})
}
