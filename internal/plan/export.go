package plan

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type exportTask struct {
	Text string `yaml:"text"`
	Done bool   `yaml:"done"`
}

type exportDay struct {
	Day      int          `yaml:"day"`
	Header   string       `yaml:"header,omitempty"`
	Title    string       `yaml:"title,omitempty"`
	Complete bool         `yaml:"complete"`
	Tasks    []exportTask `yaml:"tasks"`
}

type exportDoc struct {
	Title     string      `yaml:"title,omitempty"`
	Total     int         `yaml:"total_tasks"`
	Completed int         `yaml:"completed_tasks"`
	Days      []exportDay `yaml:"days"`
}

// ExportYAML renders the parsed blocks with their checked state.
func ExportYAML(title string, blocks []DayBlock, progress Progress) ([]byte, error) {
	stats := GetProgress(blocks, progress)
	doc := exportDoc{
		Title:     title,
		Total:     stats.Total,
		Completed: stats.Completed,
		Days:      make([]exportDay, 0, len(blocks)),
	}
	for dayIdx, block := range blocks {
		day := exportDay{
			Day:      dayIdx + 1,
			Header:   block.DisplayHeader(),
			Title:    block.Title,
			Complete: DayComplete(block, dayIdx, progress),
			Tasks:    make([]exportTask, 0, len(block.Tasks)),
		}
		for tIdx, task := range block.Tasks {
			day.Tasks = append(day.Tasks, exportTask{
				Text: TaskLabel(task),
				Done: TaskChecked(progress, dayIdx, tIdx, task),
			})
		}
		doc.Days = append(doc.Days, day)
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal plan yaml: %w", err)
	}
	return out, nil
}

// ExportMarkdown returns the raw plan text unchanged.
func ExportMarkdown(raw string) []byte {
	return []byte(raw)
}
