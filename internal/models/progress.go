package models

import "time"

// ProgressRecord is the atomic unit of learning progress: at most one record
// per (user, lesson), upserted on the natural key. LastPosition is the
// normalized playback or scroll position in [0,1].
type ProgressRecord struct {
	UserID       int       `json:"-"`
	LessonID     int       `json:"-"`
	Completed    bool      `json:"completed"`
	LastPosition float64   `json:"lastPosition"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ContinuePointer is the most-recently-touched lesson of a user, resolved
// back to its owning course and module. It is derived from the ProgressRecord
// with the maximum updated_at, never stored on its own.
type ContinuePointer struct {
	CourseSlug  string    `json:"courseSlug"`
	CourseTitle string    `json:"courseTitle"`
	ModuleSlug  string    `json:"moduleSlug"`
	LessonSlug  string    `json:"lessonSlug"`
	LessonTitle string    `json:"lessonTitle"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
