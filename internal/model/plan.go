package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/studycoach/internal/plan"
)

var (
	ErrTitleRequired = errors.New("model: plan title is required")
	ErrGoalRequired  = errors.New("model: plan goal is required")
	ErrBodyRequired  = errors.New("model: plan text is required")
	ErrInvalidDays   = errors.New("model: plan days must not be negative")
)

// DefaultDays is the plan length requested when none is given.
const DefaultDays = 30

// Plan is a stored study plan: its raw text, the explicit progress map and
// metadata the viewer never mutates.
type Plan struct {
	ID        string
	Title     string
	Goal      string
	Tags      []string
	Body      string
	Progress  plan.Progress
	Feedback  string
	Days      int
	StartDate *time.Time
	CreatedAt time.Time
}

func NewPlanID() string {
	return uuid.NewString()
}

func (p Plan) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("model: plan id is required")
	}
	if strings.TrimSpace(p.Title) == "" {
		return ErrTitleRequired
	}
	if strings.TrimSpace(p.Goal) == "" {
		return ErrGoalRequired
	}
	if strings.TrimSpace(p.Body) == "" {
		return ErrBodyRequired
	}
	if p.Days < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDays, p.Days)
	}
	if p.CreatedAt.IsZero() {
		return errors.New("model: plan created_at is required")
	}
	return nil
}

// ParseTags splits a comma separated tag string, dropping empty entries.
func ParseTags(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// Matches is the dashboard search: case-insensitive substring over title,
// goal and plan text.
func (p Plan) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Title+p.Goal+p.Body), q)
}

// MarkdownCard renders the plan summary used for sharing a single plan.
func (p Plan) MarkdownCard() string {
	tags := make([]string, 0, len(p.Tags))
	for _, tag := range p.Tags {
		tags = append(tags, "#"+tag)
	}
	return fmt.Sprintf("# %s\n\n**🎯 Goal:** %s\n\n**🗓️ Created:** %s\n\n%s\n\n---\n\n%s",
		p.Title, p.Goal, p.CreatedAt.Format("2006-01-02"), strings.Join(tags, " "), p.Body)
}

// StartDateLabel formats the start date like "Mon Jan 2 2006", or "N/A".
func (p Plan) StartDateLabel() string {
	if p.StartDate == nil || p.StartDate.IsZero() {
		return "N/A"
	}
	return p.StartDate.Format("Mon Jan 2 2006")
}
