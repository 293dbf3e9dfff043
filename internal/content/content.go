// Package content serves the static site content: events, news, board
// members, and the informational pages. The data is compiled into the
// binary; editing it is a deploy, which is exactly how often it changes.
package content

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
)

//go:embed data/*.json
var dataFS embed.FS

// Event is one entry in the community calendar.
type Event struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// NewsItem is one announcement on the news page.
type NewsItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	PublishedAt string `json:"publishedAt"`
	Summary     string `json:"summary"`
}

// Member is one board member on the about page.
type Member struct {
	Name string `json:"name"`
	Role string `json:"role"`
	Bio  string `json:"bio"`
}

// Page is one informational page (history, culture, mission).
type Page struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Store holds the decoded site content.
type Store struct {
	events  []Event
	news    []NewsItem
	members []Member
	pages   map[string]Page
}

// NewStore decodes the embedded content. An error here is a build defect,
// not a runtime condition; callers treat it as fatal.
func NewStore() (*Store, error) {
	s := &Store{pages: make(map[string]Page)}

	if err := loadJSON("data/events.json", &s.events); err != nil {
		return nil, err
	}
	if err := loadJSON("data/news.json", &s.news); err != nil {
		return nil, err
	}
	if err := loadJSON("data/members.json", &s.members); err != nil {
		return nil, err
	}

	var pages []Page
	if err := loadJSON("data/pages.json", &pages); err != nil {
		return nil, err
	}
	for _, p := range pages {
		s.pages[p.Slug] = p
	}

	// Upcoming first for events, newest first for news.
	sort.Slice(s.events, func(i, j int) bool { return s.events[i].Date < s.events[j].Date })
	sort.Slice(s.news, func(i, j int) bool { return s.news[i].PublishedAt > s.news[j].PublishedAt })

	return s, nil
}

// Events returns the community calendar, soonest first.
func (s *Store) Events() []Event { return s.events }

// News returns the announcements, newest first.
func (s *Store) News() []NewsItem { return s.news }

// Members returns the board roster.
func (s *Store) Members() []Member { return s.members }

// Page returns one informational page by slug.
func (s *Store) Page(slug string) (Page, bool) {
	p, ok := s.pages[slug]
	return p, ok
}

func loadJSON(name string, dst any) error {
	raw, err := dataFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("reading embedded %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decoding embedded %s: %w", name, err)
	}
	return nil
}
