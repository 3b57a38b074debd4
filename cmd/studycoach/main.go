package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/sandeepkv93/studycoach/internal/config"
	"github.com/sandeepkv93/studycoach/internal/storage"
)

type opts struct {
	Config  string `long:"config" description:"path to config file"`
	DB      string `long:"db" description:"path to the sqlite database"`
	Debug   bool   `short:"d" long:"debug" description:"enable debug logging"`
	NoColor bool   `long:"no-color" description:"disable color output"`

	View     viewCmd     `command:"view" description:"open a plan in the interactive viewer"`
	List     listCmd     `command:"list" description:"list stored plans"`
	Import   importCmd   `command:"import" description:"import a plan from a .txt, .md or .json file"`
	Generate generateCmd `command:"generate" description:"generate a plan through the coach API"`
	Toggle   toggleCmd   `command:"toggle" description:"check or uncheck a task"`
	Stats    statsCmd    `command:"stats" description:"show plan progress"`
	Export   exportCmd   `command:"export" description:"export a plan as markdown or yaml"`
	Delete   deleteCmd   `command:"delete" description:"delete a plan"`
}

type planArg struct {
	PlanID string `positional-arg-name:"plan-id" required:"yes"`
}

type viewCmd struct {
	Args planArg `positional-args:"yes"`
}

type listCmd struct {
	Query  string `short:"q" long:"query" description:"search title, goal and plan text"`
	Tag    string `short:"t" long:"tag" description:"only plans with this tag"`
	Limit  int    `long:"limit" description:"max plans to show"`
	Offset int    `long:"offset" description:"plans to skip"`
}

type importCmd struct {
	Title string `long:"title" required:"yes" description:"plan title"`
	Goal  string `long:"goal" required:"yes" description:"learning goal"`
	Tags  string `long:"tags" description:"comma-separated tags"`
	Args  struct {
		File string `positional-arg-name:"file" required:"yes"`
	} `positional-args:"yes"`
}

type generateCmd struct {
	Goal  string `long:"goal" required:"yes" description:"learning goal"`
	Days  int    `long:"days" default:"30" description:"plan duration in days"`
	Start string `long:"start" default:"today" description:"start date passed to the coach"`
	Title string `long:"title" description:"plan title, defaults to the goal"`
	Tags  string `long:"tags" description:"comma-separated tags"`
}

type toggleCmd struct {
	Args struct {
		PlanID string `positional-arg-name:"plan-id" required:"yes"`
		Task   string `positional-arg-name:"day.task" required:"yes"`
	} `positional-args:"yes"`
}

type statsCmd struct {
	Args planArg `positional-args:"yes"`
}

type exportCmd struct {
	Format string  `short:"f" long:"format" default:"md" choice:"md" choice:"yaml" description:"export format"`
	Output string  `short:"o" long:"output" description:"output file, defaults to study-plan.<ext> in export_dir"`
	Args   planArg `positional-args:"yes"`
}

type deleteCmd struct {
	Args planArg `positional-args:"yes"`
}

func main() {
	var o opts
	parser := flags.NewParser(&o, flags.Default)
	parser.LongDescription = "Study Coach tracks progress through day-by-day study plans."
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, o, parser.Active.Name); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		cancel()
		os.Exit(1) //nolint:gocritic // cancel called above
	}
}

func run(ctx context.Context, o opts, command string) error {
	cfg, err := config.Load(o.Config)
	if err != nil {
		return err
	}
	if o.DB != "" {
		cfg.DBPath = o.DB
	}
	if o.NoColor || cfg.NoColor {
		color.NoColor = true
	}

	logger, closeLog, err := setupLogger(cfg.LogFile, o.Debug)
	if err != nil {
		return err
	}
	defer closeLog()

	repo, err := storage.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	a := newApp(cfg, repo, logger, os.Stdout)
	defer a.close()
	logger.Logf("[DEBUG] running %s with db %s", command, cfg.DBPath)

	switch command {
	case "view":
		return a.view(ctx, o.View.Args.PlanID)
	case "list":
		return a.list(ctx, storage.PlanListFilter{Query: o.List.Query, Tag: o.List.Tag, Limit: o.List.Limit, Offset: o.List.Offset})
	case "import":
		return a.importFile(ctx, o.Import.Args.File, o.Import.Title, o.Import.Goal, o.Import.Tags)
	case "generate":
		return a.generate(ctx, o.Generate.Goal, o.Generate.Days, o.Generate.Start, o.Generate.Title, o.Generate.Tags)
	case "toggle":
		return a.toggle(ctx, o.Toggle.Args.PlanID, o.Toggle.Args.Task)
	case "stats":
		return a.stats(ctx, o.Stats.Args.PlanID)
	case "export":
		return a.export(ctx, o.Export.Args.PlanID, o.Export.Format, o.Export.Output)
	case "delete":
		return a.deletePlan(ctx, o.Delete.Args.PlanID)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// setupLogger sends logs to path since the viewer owns the terminal. An empty
// path disables logging.
func setupLogger(path string, debug bool) (lgr.L, func(), error) {
	if path == "" {
		return lgr.NoOp, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // path comes from config
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	options := []lgr.Option{lgr.Out(f), lgr.Err(f), lgr.Msec}
	if debug {
		options = append(options, lgr.Debug, lgr.CallerFunc)
	}
	return lgr.New(options...), func() { _ = f.Close() }, nil
}
