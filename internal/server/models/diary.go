package models

import "time"

// Visibility controls who can see a diary: PRIVATE diaries are visible to
// the owner only, ANONYMOUS diaries appear in the public feed without
// author attribution.
type Visibility string

const (
	VisibilityPrivate   Visibility = "PRIVATE"
	VisibilityAnonymous Visibility = "ANONYMOUS"
)

func (v Visibility) Valid() bool {
	return v == VisibilityPrivate || v == VisibilityAnonymous
}

// Diary is the shared mutable document edited over realtime sessions.
// Version increases by exactly 1 on every persisted content mutation and is
// the token compared by the version-checked edit policy.
type Diary struct {
	ID          int64
	UserID      int64
	Title       string
	Content     string
	Visibility  Visibility
	Version     int64
	PublishedAt *time.Time
	Deleted     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PublishIfAnonymous stamps PublishedAt once for ANONYMOUS diaries.
// Publishing an already-published diary is a no-op.
func (d *Diary) PublishIfAnonymous(now time.Time) {
	if d.Visibility == VisibilityAnonymous && d.PublishedAt == nil {
		d.PublishedAt = &now
	}
}
