package commands

import (
	"fmt"
	"strconv"
	"strings"
)

type Type string

const (
	TypeToggle Type = "toggle"
	TypeExport Type = "export"
	TypeAdapt  Type = "adapt"
	TypeAccept Type = "accept"
	TypeReject Type = "reject"
	TypeDay    Type = "day"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ToggleArgs addresses a task by zero-based indexes. Users type them one-based
// as "<day>.<task>".
type ToggleArgs struct {
	Day  int
	Task int
}

type ExportFormat string

const (
	FormatMarkdown ExportFormat = "md"
	FormatYAML     ExportFormat = "yaml"
)

type ExportArgs struct {
	Format ExportFormat
	Path   string
}

type AdaptArgs struct {
	Feedback string
}

type DayArgs struct {
	Day int
}

type Command struct {
	Type   Type
	Raw    string
	Toggle *ToggleArgs
	Export *ExportArgs
	Adapt  *AdaptArgs
	Day    *DayArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeToggle:
		return parseToggle(input, args)
	case TypeExport:
		return parseExport(input, args)
	case TypeAdapt:
		return parseAdapt(input, args)
	case TypeAccept, TypeReject:
		return Command{Type: Type(head), Raw: input}, nil
	case TypeDay:
		return parseDay(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

// ParseTaskRef reads a one-based "<day>.<task>" reference.
func ParseTaskRef(ref string) (ToggleArgs, error) {
	dayRaw, taskRaw, ok := strings.Cut(strings.TrimSpace(ref), ".")
	if !ok {
		return ToggleArgs{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("task reference %q must look like 2.3", ref)}
	}
	day, dayErr := strconv.Atoi(dayRaw)
	task, taskErr := strconv.Atoi(taskRaw)
	if dayErr != nil || taskErr != nil || day < 1 || task < 1 {
		return ToggleArgs{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("task reference %q must use positive numbers", ref)}
	}
	return ToggleArgs{Day: day - 1, Task: task - 1}, nil
}

func parseToggle(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "toggle requires one <day>.<task> reference"}
	}
	ref, err := ParseTaskRef(args[0])
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeToggle, Raw: raw, Toggle: &ref}, nil
}

func parseExport(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "export requires a format (md or yaml)"}
	}
	format, err := ParseFormat(args[0])
	if err != nil {
		return Command{}, err
	}
	path := ""
	if len(args) > 1 {
		path = strings.Join(args[1:], " ")
	}
	return Command{Type: TypeExport, Raw: raw, Export: &ExportArgs{Format: format, Path: path}}, nil
}

// ParseFormat accepts md, markdown, yaml and yml.
func ParseFormat(v string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "md", "markdown":
		return FormatMarkdown, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unsupported export format: %s", v)}
	}
}

// DefaultFileName matches the names the web client downloaded.
func (f ExportFormat) DefaultFileName() string {
	if f == FormatYAML {
		return "study-plan.yaml"
	}
	return "study-plan.md"
}

func parseAdapt(raw string, args []string) (Command, error) {
	return Command{Type: TypeAdapt, Raw: raw, Adapt: &AdaptArgs{Feedback: strings.TrimSpace(strings.Join(args, " "))}}, nil
}

func parseDay(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "day requires a day number"}
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid day number: %s", args[0])}
	}
	return Command{Type: TypeDay, Raw: raw, Day: &DayArgs{Day: n - 1}}, nil
}
