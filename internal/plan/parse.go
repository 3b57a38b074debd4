// Package plan turns the delimiter-based study plan text into day blocks and
// answers completion questions about them.
package plan

import "strings"

const (
	// HeaderPrefix marks the optional day header line of a block.
	HeaderPrefix = "📆 Day"
	// separatorMinLen is the shortest run of hyphens that opens a block.
	separatorMinLen = 5
)

// DayBlock is one "-----" delimited section of a plan.
type DayBlock struct {
	DayHeader string
	Title     string
	Tasks     []string
}

// Parse splits raw plan text into day blocks. It never fails: text without a
// separator line yields an empty (non-nil) slice, which callers treat as an
// unsupported format.
func Parse(raw string) []DayBlock {
	lines := splitLines(raw)
	blocks := make([]DayBlock, 0)

	i := 0
	for i < len(lines) {
		if !isSeparator(lines[i]) {
			i++
			continue
		}
		block := DayBlock{Tasks: make([]string, 0)}
		i++

		i = skipBlank(lines, i)
		if i < len(lines) && strings.HasPrefix(lines[i], HeaderPrefix) {
			block.DayHeader = lines[i]
			i++
		}

		i = skipBlank(lines, i)
		if i < len(lines) {
			if title, ok := emphasized(lines[i]); ok {
				block.Title = title
				i++
			}
		}

		for i < len(lines) && !isSeparator(lines[i]) {
			if !isBlank(lines[i]) {
				block.Tasks = append(block.Tasks, lines[i])
			}
			i++
		}
		blocks = append(blocks, block)
	}
	return blocks
}

// splitLines expands literal "\n" escapes (plans generated over JSON often
// arrive double-escaped) and splits on LF or CRLF.
func splitLines(raw string) []string {
	normalized := strings.ReplaceAll(raw, `\n`, "\n")
	lines := strings.Split(normalized, "\n")
	for i := 0; i < len(lines)-1; i++ {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}
	return lines
}

// isSeparator matches the whole line only; surrounding whitespace disqualifies it.
func isSeparator(line string) bool {
	if len(line) < separatorMinLen {
		return false
	}
	for i := 0; i < len(line); i++ {
		if line[i] != '-' {
			return false
		}
	}
	return true
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

func skipBlank(lines []string, i int) int {
	for i < len(lines) && isBlank(lines[i]) {
		i++
	}
	return i
}

func emphasized(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 4 || !strings.HasPrefix(trimmed, "**") || !strings.HasSuffix(trimmed, "**") {
		return "", false
	}
	return strings.ReplaceAll(trimmed, "**", ""), true
}
