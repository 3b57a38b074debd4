package storage

import (
	"strings"
	"time"

	"github.com/sandeepkv93/studycoach/internal/model"
	"github.com/sandeepkv93/studycoach/internal/plan"
)

type Plan struct {
	ID        string
	Title     string
	Goal      string
	Tags      string
	Body      string
	Progress  plan.Progress
	Feedback  string
	Days      int
	StartDate *time.Time
	CreatedAt time.Time
}

type PlanListFilter struct {
	Query  string
	Tag    string
	Limit  int
	Offset int
}

func PlanFromModel(in model.Plan) Plan {
	return Plan{
		ID:        in.ID,
		Title:     in.Title,
		Goal:      in.Goal,
		Tags:      joinTags(in.Tags),
		Body:      in.Body,
		Progress:  in.Progress.Clone(),
		Feedback:  in.Feedback,
		Days:      in.Days,
		StartDate: in.StartDate,
		CreatedAt: in.CreatedAt,
	}
}

func (p Plan) ToModel() model.Plan {
	return model.Plan{
		ID:        p.ID,
		Title:     p.Title,
		Goal:      p.Goal,
		Tags:      model.ParseTags(p.Tags),
		Body:      p.Body,
		Progress:  p.Progress.Clone(),
		Feedback:  p.Feedback,
		Days:      p.Days,
		StartDate: p.StartDate,
		CreatedAt: p.CreatedAt,
	}
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}
