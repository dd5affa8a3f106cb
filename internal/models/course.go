package models

// Course represents a course in the catalog
type Course struct {
	ID       int    `json:"id,omitempty"`
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Summary  string `json:"summary,omitempty"`
	Position int    `json:"position"`
}

// CourseWithRoles carries a course together with the Discord role IDs mapped
// to it. A course with an empty role set is visible to admins only.
type CourseWithRoles struct {
	Course
	RoleIDs []string `json:"roleIds"`
}

// CourseProgress represents a course in dashboard responses together with
// the caller's completion percentage
type CourseProgress struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Percent int    `json:"percent"`
}

// Module represents a module inside a course
type Module struct {
	ID       int    `json:"id,omitempty"`
	CourseID int    `json:"courseId,omitempty"`
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}

// ModuleProgress represents a module in course detail responses together
// with the caller's completion percentage
type ModuleProgress struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Percent int    `json:"percent"`
}
