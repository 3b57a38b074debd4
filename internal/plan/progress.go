package plan

import (
	"fmt"
	"strconv"
	"strings"
)

// Progress holds explicit completion overrides keyed by TaskKey.
type Progress map[string]bool

// Clone returns an independent copy; a nil receiver yields an empty map.
func (p Progress) Clone() Progress {
	out := make(Progress, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// TaskKey builds the "<day>-<task>" key used by Progress.
func TaskKey(dayIdx, taskIdx int) string {
	return fmt.Sprintf("%d-%d", dayIdx, taskIdx)
}

// ParseTaskKey is the inverse of TaskKey.
func ParseTaskKey(key string) (int, int, bool) {
	dayPart, taskPart, ok := strings.Cut(key, "-")
	if !ok {
		return 0, 0, false
	}
	day, err := strconv.Atoi(dayPart)
	if err != nil || day < 0 {
		return 0, 0, false
	}
	task, err := strconv.Atoi(taskPart)
	if err != nil || task < 0 {
		return 0, 0, false
	}
	return day, task, true
}

// HasInlineDone reports whether the raw task text carries an "[x]" marker.
func HasInlineDone(task string) bool {
	return strings.Contains(strings.ToLower(task), "[x]")
}

// TaskChecked applies the OR rule: explicit progress or an inline marker.
func TaskChecked(progress Progress, dayIdx, taskIdx int, task string) bool {
	return progress[TaskKey(dayIdx, taskIdx)] || HasInlineDone(task)
}

// DayComplete requires at least one task and every task checked.
func DayComplete(block DayBlock, dayIdx int, progress Progress) bool {
	if len(block.Tasks) == 0 {
		return false
	}
	for tIdx, task := range block.Tasks {
		if !TaskChecked(progress, dayIdx, tIdx, task) {
			return false
		}
	}
	return true
}

// CompleteDays evaluates DayComplete for every block, indexed like blocks.
func CompleteDays(blocks []DayBlock, progress Progress) []bool {
	out := make([]bool, len(blocks))
	for idx, block := range blocks {
		out[idx] = DayComplete(block, idx, progress)
	}
	return out
}

// Stats is the aggregate task count across all days.
type Stats struct {
	Total     int
	Completed int
}

// Ratio is Completed/Total, or zero for an empty plan.
func (s Stats) Ratio() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Total)
}

// Percent rounds Ratio to a whole percentage.
func (s Stats) Percent() int {
	return int(s.Ratio()*100 + 0.5)
}

func GetProgress(blocks []DayBlock, progress Progress) Stats {
	var s Stats
	for dayIdx, block := range blocks {
		for tIdx, task := range block.Tasks {
			s.Total++
			if TaskChecked(progress, dayIdx, tIdx, task) {
				s.Completed++
			}
		}
	}
	return s
}

// Label is the notification/display label: the raw header, or "Day N".
func (b DayBlock) Label(dayIdx int) string {
	if b.DayHeader != "" {
		return b.DayHeader
	}
	return fmt.Sprintf("Day %d", dayIdx+1)
}

// DisplayHeader strips the calendar glyph for rendering.
func (b DayBlock) DisplayHeader() string {
	return strings.Replace(b.DayHeader, "📆 ", "", 1)
}

func TaskLabel(task string) string {
	return strings.TrimSpace(task)
}
