package domain

import (
	"fmt"
	"strings"
	"time"
)

type Announcement struct {
	ID          string
	Title       string
	Body        string
	Audience    Audience
	AuthorID    string
	PublishedAt time.Time
}

type Decision struct {
	ID          string
	Title       string
	Body        string
	MeetingKind string
	DecidedOn   time.Time
	CreatedAt   time.Time
}

type Document struct {
	ID          string
	Title       string
	URL         string
	Category    string
	MembersOnly bool
	CreatedAt   time.Time
}

func (a *Announcement) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("announcement title is required")
	}
	if a.Audience != AudienceAll && a.Audience != AudienceMembers {
		return fmt.Errorf("unknown audience %q", a.Audience)
	}
	return nil
}

func (d *Decision) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("decision title is required")
	}
	if d.DecidedOn.IsZero() {
		return fmt.Errorf("decision date is required")
	}
	return nil
}

func (d *Document) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("document title is required")
	}
	if strings.TrimSpace(d.URL) == "" {
		return fmt.Errorf("document url is required")
	}
	return nil
}
