package domain

import "time"

// Target is the display column an article is routed to.
type Target string

const (
	TargetNews       Target = "news"
	TargetCommentary Target = "commentary"
	TargetCurrents   Target = "currents"
)

// Status is the article lifecycle state visible to readers.
type Status string

const (
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
	StatusDropped Status = "dropped"
)

// Article is the canonical, deduplicated entity. Identity is URLHash:
// at most one article exists per distinct hash, and the hash never
// changes after the first sighting.
type Article struct {
	ID            string
	SourceID      string
	Title         string
	CanonicalURL  string
	URLHash       string
	URLDomain     *string
	Description   *string
	Author        *string
	ImageURL      *string
	PublishedAt   time.Time
	TargetColumn  Target
	Categories    []string
	Regions       []string
	Status        Status
	DroppedReason *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
