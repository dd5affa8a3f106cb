package services

import (
	"testing"

	"github.com/guildacademy/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestDecideCompletion(t *testing.T) {
	tests := []struct {
		name                string
		kind                models.MediaKind
		position            float64
		previouslyCompleted bool
		threshold           float64
		expected            bool
	}{
		{
			name:      "video at threshold completes",
			kind:      models.MediaKindVideo,
			position:  0.9,
			threshold: 0.9,
			expected:  true,
		},
		{
			name:      "video below threshold stays incomplete",
			kind:      models.MediaKindVideo,
			position:  0.89,
			threshold: 0.9,
			expected:  false,
		},
		{
			name:      "audio above threshold completes",
			kind:      models.MediaKindAudio,
			position:  0.95,
			threshold: 0.9,
			expected:  true,
		},
		{
			name:      "text scroll at threshold completes",
			kind:      models.MediaKindText,
			position:  0.9,
			threshold: 0.9,
			expected:  true,
		},
		{
			name:                "completed lesson stays complete on low position",
			kind:                models.MediaKindVideo,
			position:            0.1,
			previouslyCompleted: true,
			threshold:           0.9,
			expected:            true,
		},
		{
			name:                "completed lesson stays complete at zero",
			kind:                models.MediaKindText,
			position:            0,
			previouslyCompleted: true,
			threshold:           0.9,
			expected:            true,
		},
		{
			name:      "unknown media kind never auto-completes",
			kind:      models.MediaKind("hologram"),
			position:  1.0,
			threshold: 0.9,
			expected:  false,
		},
		{
			name:      "zero threshold falls back to default",
			kind:      models.MediaKindVideo,
			position:  0.89,
			threshold: 0,
			expected:  false,
		},
		{
			name:      "threshold above one falls back to default",
			kind:      models.MediaKindVideo,
			position:  0.9,
			threshold: 1.5,
			expected:  true,
		},
		{
			name:      "full playback completes",
			kind:      models.MediaKindAudio,
			position:  1.0,
			threshold: 0.9,
			expected:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DecideCompletion(tt.kind, tt.position, tt.previouslyCompleted, tt.threshold)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// Re-watching any prefix of an already-completed lesson must never flip it
// back to incomplete.
func TestDecideCompletion_Monotone(t *testing.T) {
	positions := []float64{0, 0.1, 0.25, 0.5, 0.89, 0.9, 1.0}

	for _, pos := range positions {
		result := DecideCompletion(models.MediaKindVideo, pos, true, 0.9)
		assert.True(t, result, "position %v must not un-complete", pos)
	}
}
