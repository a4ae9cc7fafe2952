package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURLTracker_DeduplicatesByCanonicalURL(t *testing.T) {
	tracker := NewURLTracker()

	assert.True(t, tracker.Add("https://x/rooms/1?check_in=2026-09-01"))
	assert.False(t, tracker.Add("https://x/rooms/1?check_in=2026-09-08"))
	assert.False(t, tracker.Add("https://x/rooms/1"))
	assert.False(t, tracker.Add("https://x/rooms/1/"))
	assert.True(t, tracker.Add("https://x/rooms/2"))
	assert.Equal(t, 2, tracker.Count())
}
