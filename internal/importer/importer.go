// Package importer turns plan files into new plan records.
package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sandeepkv93/studycoach/internal/model"
	"github.com/sandeepkv93/studycoach/internal/plan"
)

var (
	ErrUnsupportedFormat = errors.New("importer: unsupported file format")
	ErrMissingFields     = errors.New("importer: title, goal and plan text are required")
)

// MissingFieldsNotice is shown to the user for ErrMissingFields.
const MissingFieldsNotice = "Please fill all fields."

// Extensions lists the accepted plan file types.
var Extensions = []string{".txt", ".md", ".json"}

type jsonPlan struct {
	Plan string `json:"plan"`
}

// ReadFile returns the plan text held in path.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read plan file: %w", err)
	}
	return Decode(filepath.Base(path), data)
}

// Decode extracts plan text from file contents. JSON files contribute their
// "plan" field; text and markdown files are used as-is.
func Decode(name string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md":
		return string(data), nil
	case ".json":
		var doc jsonPlan
		if err := json.Unmarshal(data, &doc); err != nil {
			return "", fmt.Errorf("decode %s: %w", name, err)
		}
		return doc.Plan, nil
	default:
		return "", fmt.Errorf("%w: %s (accepted: %s)", ErrUnsupportedFormat, name, strings.Join(Extensions, ", "))
	}
}

type Request struct {
	Title string
	Goal  string
	Tags  string
	Text  string
}

// Build validates r and creates a plan starting at now with no progress.
func Build(r Request, now time.Time) (model.Plan, error) {
	if r.Text == "" || strings.TrimSpace(r.Title) == "" || strings.TrimSpace(r.Goal) == "" {
		return model.Plan{}, ErrMissingFields
	}
	start := now.UTC()
	p := model.Plan{
		ID:        model.NewPlanID(),
		Title:     strings.TrimSpace(r.Title),
		Goal:      strings.TrimSpace(r.Goal),
		Tags:      model.ParseTags(r.Tags),
		Body:      r.Text,
		Progress:  plan.Progress{},
		StartDate: &start,
		CreatedAt: start,
	}
	if err := p.Validate(); err != nil {
		return model.Plan{}, err
	}
	return p, nil
}
