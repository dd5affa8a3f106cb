package services

import "github.com/guildacademy/backend/internal/models"

// DefaultCompletionThreshold is the consumed fraction at which a lesson
// auto-completes. This is a product constant, not derived.
const DefaultCompletionThreshold = 0.9

// DecideCompletion reports whether a lesson should be marked complete after
// a position update.
//
// For video and audio, position is the normalized playback position; for
// text it is the scroll extent reported by the caller when the bottom of the
// content is approached. Completion is monotone: a lesson already complete
// stays complete no matter what position arrives later, so the prior state
// is always OR'd in. The function is pure; the caller persists the result.
func DecideCompletion(kind models.MediaKind, position float64, previouslyCompleted bool, threshold float64) bool {
	if previouslyCompleted {
		return true
	}

	if threshold <= 0 || threshold > 1 {
		threshold = DefaultCompletionThreshold
	}

	switch kind {
	case models.MediaKindVideo, models.MediaKindAudio, models.MediaKindText:
		return position >= threshold
	}

	// Unknown media kinds never auto-complete
	return false
}
