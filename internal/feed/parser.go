package feed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"feed_ingestor/internal/domain"
)

// ErrUnrecognized is returned when the document parses as XML but is
// neither an RSS channel nor an Atom feed.
var ErrUnrecognized = errors.New("unrecognized feed document")

// Parse converts raw feed bytes into normalized items, auto-detecting
// RSS 2.0 (rss.channel.item) and Atom (feed.entry) shapes. Items with
// no resolvable title and link are skipped silently; malformed XML
// fails the whole document. An empty item slice with a nil error means
// the document was well-formed but yielded nothing.
func Parse(data []byte) ([]domain.FeedItem, error) {
	root, err := rootElement(data)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	switch root {
	case "rss", "RDF":
		return parseRSS(data)
	case "feed":
		return parseAtom(data)
	default:
		return nil, fmt.Errorf("%w: <%s>", ErrUnrecognized, root)
	}
}

func rootElement(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local, nil
		}
	}
}

type rssDocument struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string        `xml:"title"`
	Link        string        `xml:"link"`
	Description string        `xml:"description"`
	PubDate     string        `xml:"pubDate"`
	GUID        string        `xml:"guid"`
	Creator     string        `xml:"creator"` // dc:creator
	Author      string        `xml:"author"`
	Categories  []string      `xml:"category"`
	Enclosure   *rssEnclosure `xml:"enclosure"`
	Media       []mediaRef    `xml:"content"` // media:content
	Thumbnail   *mediaRef     `xml:"thumbnail"`
}

type rssEnclosure struct {
	URL  string `xml:"url,attr"`
	Type string `xml:"type,attr"`
}

type mediaRef struct {
	URL    string `xml:"url,attr"`
	Medium string `xml:"medium,attr"`
}

func parseRSS(data []byte) ([]domain.FeedItem, error) {
	var doc rssDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rss: %w", err)
	}

	items := make([]domain.FeedItem, 0, len(doc.Channel.Items))
	for _, it := range doc.Channel.Items {
		item, ok := it.normalize()
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (it rssItem) normalize() (domain.FeedItem, bool) {
	title := strings.TrimSpace(it.Title)
	link := strings.TrimSpace(it.Link)
	guid := strings.TrimSpace(it.GUID)

	// A permalink GUID can stand in for a missing link element.
	if link == "" && isHTTPURL(guid) {
		link = guid
	}
	if title == "" || link == "" {
		return domain.FeedItem{}, false
	}

	author := strings.TrimSpace(it.Creator)
	if author == "" {
		author = strings.TrimSpace(it.Author)
	}

	item := domain.FeedItem{
		Title:       title,
		Link:        link,
		Description: strings.TrimSpace(it.Description),
		PubDate:     strings.TrimSpace(it.PubDate),
		GUID:        guid,
		Author:      author,
		Categories:  trimAll(it.Categories),
	}

	if it.Enclosure != nil {
		item.HasEnclosure = true
		if strings.HasPrefix(it.Enclosure.Type, "image/") {
			item.ImageURL = it.Enclosure.URL
		}
	}
	if item.ImageURL == "" {
		for _, m := range it.Media {
			if m.URL != "" && (m.Medium == "" || m.Medium == "image") {
				item.ImageURL = m.URL
				break
			}
		}
	}
	if item.ImageURL == "" && it.Thumbnail != nil {
		item.ImageURL = it.Thumbnail.URL
	}

	return item, true
}

type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title      string         `xml:"title"`
	Links      []atomLink     `xml:"link"`
	Summary    string         `xml:"summary"`
	Content    string         `xml:"content"`
	Published  string         `xml:"published"`
	Updated    string         `xml:"updated"`
	ID         string         `xml:"id"`
	Author     atomAuthor     `xml:"author"`
	Categories []atomCategory `xml:"category"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

func parseAtom(data []byte) ([]domain.FeedItem, error) {
	var doc atomFeed
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse atom: %w", err)
	}

	items := make([]domain.FeedItem, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		item, ok := e.normalize()
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (e atomEntry) normalize() (domain.FeedItem, bool) {
	title := strings.TrimSpace(e.Title)
	link := pickAtomLink(e.Links)

	if link == "" && isHTTPURL(strings.TrimSpace(e.ID)) {
		link = strings.TrimSpace(e.ID)
	}
	if title == "" || link == "" {
		return domain.FeedItem{}, false
	}

	description := strings.TrimSpace(e.Summary)
	if description == "" {
		description = strings.TrimSpace(e.Content)
	}

	pubDate := strings.TrimSpace(e.Published)
	if pubDate == "" {
		pubDate = strings.TrimSpace(e.Updated)
	}

	categories := make([]string, 0, len(e.Categories))
	for _, c := range e.Categories {
		if term := strings.TrimSpace(c.Term); term != "" {
			categories = append(categories, term)
		}
	}
	if len(categories) == 0 {
		categories = nil
	}

	return domain.FeedItem{
		Title:        title,
		Link:         link,
		Description:  description,
		PubDate:      pubDate,
		GUID:         strings.TrimSpace(e.ID),
		Author:       strings.TrimSpace(e.Author.Name),
		Categories:   categories,
		HasEnclosure: hasAtomEnclosure(e.Links),
	}, true
}

// pickAtomLink resolves the entry link from attribute-bearing nodes:
// rel=alternate with type=text/html wins, then any alternate (or
// rel-less) link, then the first link with an href at all.
func pickAtomLink(links []atomLink) string {
	for _, l := range links {
		if l.Rel == "alternate" && l.Type == "text/html" && l.Href != "" {
			return l.Href
		}
	}
	for _, l := range links {
		if (l.Rel == "alternate" || l.Rel == "") && l.Href != "" {
			return l.Href
		}
	}
	for _, l := range links {
		if l.Href != "" {
			return l.Href
		}
	}
	return ""
}

func hasAtomEnclosure(links []atomLink) bool {
	for _, l := range links {
		if l.Rel == "enclosure" {
			return true
		}
	}
	return false
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
