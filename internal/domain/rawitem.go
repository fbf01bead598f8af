package domain

import (
	"encoding/json"
	"time"
)

// FeedItem is the normalized form of one feed entry, independent of
// whether it came from an RSS channel or an Atom feed. Text fields are
// kept verbatim (HTML and all); cleaning happens at promotion time.
type FeedItem struct {
	Title        string   `json:"title"`
	Link         string   `json:"link"`
	Description  string   `json:"description,omitempty"`
	PubDate      string   `json:"pub_date,omitempty"`
	GUID         string   `json:"guid,omitempty"`
	Author       string   `json:"author,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
	Categories   []string `json:"categories,omitempty"`
	HasEnclosure bool     `json:"has_enclosure,omitempty"`
}

// RawItem is an append-only capture of one feed entry. It is written
// before any classification runs so promotion can be re-run over
// already-captured data.
type RawItem struct {
	ID        int64
	SourceID  string
	FetchedAt time.Time
	Payload   json.RawMessage
}

// StagedItem joins a raw item with the source fields promotion needs.
type StagedItem struct {
	RawItem
	SourceName    string
	DefaultTarget Target
	SourceTags    []string
}
