package study

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sandeepkv93/studycoach/internal/plan"
)

const (
	ExportMarkdown = "md"
	ExportYAML     = "yaml"
)

// Export renders the plan as markdown (the raw text) or as structured YAML
// with the checked state of every task.
func (s *Session) Export(format string) ([]byte, error) {
	switch format {
	case ExportMarkdown:
		return plan.ExportMarkdown(s.doc.Body), nil
	case ExportYAML:
		return plan.ExportYAML(s.doc.Title, s.blocks, s.doc.Progress)
	default:
		return nil, fmt.Errorf("study: unsupported export format %q", format)
	}
}

// ExportFile writes Export(format) to path, creating parent directories.
func (s *Session) ExportFile(format, path string) error {
	data, err := s.Export(format)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // exported plans are meant to be shared
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
