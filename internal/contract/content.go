package contract

import (
	"time"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/domain"
)

type Announcement struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Body        string          `json:"body"`
	Audience    domain.Audience `json:"audience"`
	PublishedAt time.Time       `json:"published_at"`
}

func FromAnnouncement(a *domain.Announcement) Announcement {
	return Announcement{ID: a.ID, Title: a.Title, Body: a.Body, Audience: a.Audience, PublishedAt: a.PublishedAt}
}

func FromAnnouncements(as []*domain.Announcement) []Announcement {
	out := make([]Announcement, 0, len(as))
	for _, a := range as {
		out = append(out, FromAnnouncement(a))
	}
	return out
}

type Decision struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	MeetingKind string `json:"meeting_kind"`
	DecidedOn   string `json:"decided_on"`
}

func FromDecision(d *domain.Decision) Decision {
	return Decision{ID: d.ID, Title: d.Title, Body: d.Body, MeetingKind: d.MeetingKind, DecidedOn: d.DecidedOn.Format("2006-01-02")}
}

func FromDecisions(ds []*domain.Decision) []Decision {
	out := make([]Decision, 0, len(ds))
	for _, d := range ds {
		out = append(out, FromDecision(d))
	}
	return out
}

type Document struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Category    string `json:"category"`
	MembersOnly bool   `json:"members_only"`
}

func FromDocument(d *domain.Document) Document {
	return Document{ID: d.ID, Title: d.Title, URL: d.URL, Category: d.Category, MembersOnly: d.MembersOnly}
}

func FromDocuments(ds []*domain.Document) []Document {
	out := make([]Document, 0, len(ds))
	for _, d := range ds {
		out = append(out, FromDocument(d))
	}
	return out
}
