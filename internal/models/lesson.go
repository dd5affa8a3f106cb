package models

// MediaKind represents the primary content type of a lesson
type MediaKind string

const (
	MediaKindText  MediaKind = "text"
	MediaKindVideo MediaKind = "video"
	MediaKindAudio MediaKind = "audio"
)

// Valid checks if the media kind is one of the known values
func (k MediaKind) Valid() bool {
	switch k {
	case MediaKindText, MediaKindVideo, MediaKindAudio:
		return true
	}
	return false
}

// Lesson represents a lesson inside a module
type Lesson struct {
	ID        int       `json:"id,omitempty"`
	ModuleID  int       `json:"moduleId,omitempty"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	MediaKind MediaKind `json:"mediaKind"`
	Position  int       `json:"position"`
}
