package domain

import "time"

// Source is one external feed endpoint from the roster. The pipeline
// only reads it and writes back LastSeenAt after a successful fetch.
type Source struct {
	ID            string
	Name          string
	FeedURL       string
	SiteURL       string
	DefaultTarget Target
	Tags          []string
	IsActive      bool
	LastSeenAt    *time.Time
}
