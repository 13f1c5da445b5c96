// internal/models/documents.go
package models

import (
	"strings"
	"time"
)

// Document is the common view over normalized provider results used for
// keyword scanning.
type Document interface {
	Text() string
	SourceName() string
	Timestamp() time.Time
	Link() string
}

type Salary struct {
	Min      float64 `json:"min,omitempty"`
	Max      float64 `json:"max,omitempty"`
	Currency string  `json:"currency,omitempty"`
}

func (s *Salary) Present() bool {
	return s != nil && (s.Min > 0 || s.Max > 0)
}

type NormalizedListing struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Company     string    `json:"company,omitempty"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Remote      bool      `json:"remote"`
	Salary      *Salary   `json:"salary,omitempty"`
	Skills      []string  `json:"skills,omitempty"`
	ApplyURL    string    `json:"applyUrl,omitempty"`
	Source      string    `json:"source"`
	PostedAt    time.Time `json:"postedAt"`
}

func (l NormalizedListing) Text() string {
	return joinText(l.Title, l.Description, strings.Join(l.Skills, " "))
}
func (l NormalizedListing) SourceName() string   { return l.Source }
func (l NormalizedListing) Timestamp() time.Time { return l.PostedAt }
func (l NormalizedListing) Link() string         { return l.ApplyURL }

type ForumPost struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Body        string    `json:"body,omitempty"`
	URL         string    `json:"url,omitempty"`
	Community   string    `json:"community,omitempty"`
	Score       int       `json:"score"`
	ReplyCount  int       `json:"replyCount"`
	Tags        []string  `json:"tags,omitempty"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"publishedAt"`
}

func (p ForumPost) Text() string         { return joinText(p.Title, p.Body) }
func (p ForumPost) SourceName() string   { return p.Source }
func (p ForumPost) Timestamp() time.Time { return p.PublishedAt }
func (p ForumPost) Link() string         { return p.URL }

type TrendArticle struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	URL         string    `json:"url,omitempty"`
	Publisher   string    `json:"publisher,omitempty"`
	Author      string    `json:"author,omitempty"`
	Points      int       `json:"points,omitempty"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"publishedAt"`
}

func (a TrendArticle) Text() string         { return joinText(a.Title, a.Summary) }
func (a TrendArticle) SourceName() string   { return a.Source }
func (a TrendArticle) Timestamp() time.Time { return a.PublishedAt }
func (a TrendArticle) Link() string         { return a.URL }

func joinText(parts ...string) string {
	nonEmpty := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "\n")
}
