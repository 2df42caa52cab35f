package domain

import (
	"fmt"
	"strings"
	"time"
)

type Appeal struct {
	ID        string
	UserID    string
	PlotID    *string
	Topic     string
	Body      string
	Status    AppealStatus
	Response  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

var appealTransitions = map[AppealStatus][]AppealStatus{
	AppealNew:        {AppealInProgress, AppealResolved, AppealRejected},
	AppealInProgress: {AppealResolved, AppealRejected},
}

// CanTransition reports whether the appeal may move to next.
// Resolved and rejected appeals are terminal.
func (a *Appeal) CanTransition(next AppealStatus) bool {
	for _, s := range appealTransitions[a.Status] {
		if s == next {
			return true
		}
	}
	return false
}

func (a *Appeal) Validate() error {
	if strings.TrimSpace(a.Topic) == "" {
		return fmt.Errorf("appeal topic is required")
	}
	if strings.TrimSpace(a.Body) == "" {
		return fmt.Errorf("appeal body is required")
	}
	return nil
}

func ParseAppealStatus(s string) (AppealStatus, error) {
	switch st := AppealStatus(s); st {
	case AppealNew, AppealInProgress, AppealResolved, AppealRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown appeal status %q", s)
}
