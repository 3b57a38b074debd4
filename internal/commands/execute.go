package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Toggle func(ToggleArgs) (Result, error)
	Export func(ExportArgs) (Result, error)
	Adapt  func(AdaptArgs) (Result, error)
	Accept func() (Result, error)
	Reject func() (Result, error)
	Day    func(DayArgs) (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeToggle:
		if handlers.Toggle == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Toggle(*cmd.Toggle)
	case TypeExport:
		if handlers.Export == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Export(*cmd.Export)
	case TypeAdapt:
		if handlers.Adapt == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Adapt(*cmd.Adapt)
	case TypeAccept:
		if handlers.Accept == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Accept()
	case TypeReject:
		if handlers.Reject == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Reject()
	case TypeDay:
		if handlers.Day == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Day(*cmd.Day)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

func missing(t Type) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", t)}
}
