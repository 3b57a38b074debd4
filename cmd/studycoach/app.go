package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"

	"github.com/sandeepkv93/studycoach/internal/coach"
	"github.com/sandeepkv93/studycoach/internal/commands"
	"github.com/sandeepkv93/studycoach/internal/config"
	"github.com/sandeepkv93/studycoach/internal/importer"
	"github.com/sandeepkv93/studycoach/internal/model"
	"github.com/sandeepkv93/studycoach/internal/notifier"
	"github.com/sandeepkv93/studycoach/internal/plan"
	"github.com/sandeepkv93/studycoach/internal/scheduler"
	"github.com/sandeepkv93/studycoach/internal/storage"
	"github.com/sandeepkv93/studycoach/internal/study"
	"github.com/sandeepkv93/studycoach/internal/tracker"
	"github.com/sandeepkv93/studycoach/internal/update"
)

// planStore is everything the commands need from persistence.
type planStore interface {
	storage.Repository
	storage.KeyValueStore
}

type palette struct {
	title *color.Color
	ok    *color.Color
	warn  *color.Color
	dim   *color.Color
}

func newPalette() palette {
	return palette{
		title: color.New(color.FgCyan, color.Bold),
		ok:    color.New(color.FgGreen),
		warn:  color.New(color.FgYellow),
		dim:   color.New(color.Faint),
	}
}

type app struct {
	cfg      config.RuntimeConfig
	store    planStore
	log      lgr.L
	out      io.Writer
	now      func() time.Time
	coach    *coach.Client
	notifier *notifier.Dispatcher
	colors   palette
}

func newApp(cfg config.RuntimeConfig, store planStore, logger lgr.L, out io.Writer) *app {
	return &app{
		cfg:      cfg,
		store:    store,
		log:      logger,
		out:      out,
		now:      time.Now,
		coach:    coach.NewClient(cfg.APIURL, cfg.APITimeout),
		notifier: notifier.Async(notifier.Build(cfg.DesktopNotifications, cfg.WebhookURLs, cfg.WebhookTimeout, logger)),
		colors:   newPalette(),
	}
}

// close waits for pending day-completion notifications. Each target gets
// one webhook_timeout, with a one second floor.
func (a *app) close() {
	wait := a.cfg.WebhookTimeout
	if wait < time.Second {
		wait = time.Second
	}
	targets := len(a.cfg.WebhookURLs)
	if a.cfg.DesktopNotifications {
		targets++
	}
	ctx, cancel := context.WithTimeout(context.Background(), wait*time.Duration(max(targets, 1)))
	defer cancel()
	if err := a.notifier.Close(ctx); err != nil {
		a.log.Logf("[WARN] %v", err)
	}
}

// openSession loads a plan and runs the tracker's load-time checks.
func (a *app) openSession(ctx context.Context, id string) (*study.Session, error) {
	row, err := a.store.GetPlan(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("plan %s not found", id)
		}
		return nil, err
	}
	trackerOpts := []tracker.Option{
		tracker.WithClock(a.now),
		tracker.WithLocation(a.cfg.Location()),
		tracker.WithLogger(a.log),
	}
	if a.notifier != nil {
		trackerOpts = append(trackerOpts, tracker.WithNotifier(a.notifier))
	}
	tr := tracker.New(a.store, id, trackerOpts...)
	s := study.New(row.ToModel(), tr, a.store, a.log)
	s.Open(ctx)
	return s, nil
}

func (a *app) view(ctx context.Context, id string) error {
	s, err := a.openSession(ctx, id)
	if err != nil {
		return err
	}

	engine := scheduler.NewEngine(a.cfg.SchedulerBuffer, scheduler.WithClock(a.now))
	engine.Start()
	defer engine.Stop()

	m := update.NewModel(update.Deps{
		Session:          s,
		Scheduler:        engine,
		Adapter:          a.coach,
		Feedback:         a.store,
		RolloverInterval: a.cfg.RolloverInterval,
		ToastTTL:         a.cfg.ToastTTL,
		ExportDir:        a.cfg.ExportDir,
		Logger:           a.log,
		Now:              a.now,
	})
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("viewer: %w", err)
	}
	return nil
}

func (a *app) list(ctx context.Context, filter storage.PlanListFilter) error {
	rows, err := a.store.ListPlans(ctx, filter)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(a.out, a.colors.dim.Sprint("no plans"))
		return nil
	}
	now := a.now()
	for _, row := range rows {
		p := row.ToModel()
		stats := plan.GetProgress(plan.Parse(p.Body), p.Progress)
		fmt.Fprintf(a.out, "%s  %s  %d%%  %s\n",
			a.colors.dim.Sprint(p.ID),
			a.colors.title.Sprint(p.Title),
			stats.Percent(),
			a.colors.dim.Sprint("created "+humanize.RelTime(p.CreatedAt, now, "ago", "from now")),
		)
		if len(p.Tags) > 0 {
			fmt.Fprintf(a.out, "    tags: %s\n", strings.Join(p.Tags, ", "))
		}
	}
	return nil
}

func (a *app) importFile(ctx context.Context, path, title, goal, tags string) error {
	text, err := importer.ReadFile(path)
	if err != nil {
		return err
	}
	return a.create(ctx, importer.Request{Title: title, Goal: goal, Tags: tags, Text: text}, 0)
}

func (a *app) generate(ctx context.Context, goal string, days int, start, title, tags string) error {
	if days <= 0 {
		days = model.DefaultDays
	}
	text, err := a.coach.GeneratePlan(ctx, coach.GenerateRequest{Goal: goal, Duration: days, StartDate: start})
	if err != nil {
		return err
	}
	if strings.TrimSpace(title) == "" {
		title = goal
	}
	return a.create(ctx, importer.Request{Title: title, Goal: goal, Tags: tags, Text: text}, days)
}

func (a *app) create(ctx context.Context, req importer.Request, days int) error {
	p, err := importer.Build(req, a.now())
	if err != nil {
		if errors.Is(err, importer.ErrMissingFields) {
			return errors.New(importer.MissingFieldsNotice)
		}
		return err
	}
	if days > 0 {
		p.Days = days
	}
	if err := a.store.CreatePlan(ctx, storage.PlanFromModel(p)); err != nil {
		return err
	}
	a.log.Logf("[INFO] created plan %s (%q)", p.ID, p.Title)

	blocks := plan.Parse(p.Body)
	fmt.Fprintf(a.out, "%s %s\n", a.colors.ok.Sprint("created"), p.ID)
	if len(blocks) == 0 {
		fmt.Fprintln(a.out, a.colors.warn.Sprint("warning: no day blocks recognized, the plan will be shown as raw text"))
		return nil
	}
	fmt.Fprintf(a.out, "%d days, %d tasks\n", len(blocks), plan.GetProgress(blocks, p.Progress).Total)
	return nil
}

func (a *app) toggle(ctx context.Context, id, ref string) error {
	args, err := commands.ParseTaskRef(ref)
	if err != nil {
		return err
	}
	s, err := a.openSession(ctx, id)
	if err != nil {
		return err
	}
	res, completions, err := s.Toggle(ctx, plan.TaskKey(args.Day, args.Task))
	if err != nil {
		return fmt.Errorf("toggle %s: %w", ref, err)
	}
	if res.Outcome == study.RolledBack {
		a.log.Logf("[WARN] progress save for %s failed: %v", id, res.Reason)
		return errors.New(study.RollbackNotice)
	}

	state := "unchecked"
	if s.Checked(args.Day, args.Task) {
		state = "checked"
	}
	task := s.Blocks()[args.Day].Tasks[args.Task]
	fmt.Fprintf(a.out, "%s %s\n", a.colors.ok.Sprint(state), plan.TaskLabel(task))
	for _, c := range completions {
		fmt.Fprintln(a.out, a.colors.ok.Sprint(c.Message))
	}
	fmt.Fprintf(a.out, "Progress: %d / %d tasks\n", res.Stats.Completed, res.Stats.Total)
	return nil
}

func (a *app) stats(ctx context.Context, id string) error {
	s, err := a.openSession(ctx, id)
	if err != nil {
		return err
	}
	p := s.Plan()
	fmt.Fprintln(a.out, a.colors.title.Sprint(p.Title))
	fmt.Fprintf(a.out, "Goal: %s\n", p.Goal)
	fmt.Fprintf(a.out, "Start Date: %s", p.StartDateLabel())
	if p.StartDate != nil {
		fmt.Fprintf(a.out, " (%s)", humanize.RelTime(*p.StartDate, a.now(), "ago", "from now"))
	}
	fmt.Fprintln(a.out)

	if !s.Parsed() {
		fmt.Fprintln(a.out, a.colors.warn.Sprint("Plan format not supported."))
		return nil
	}
	stats := s.Stats()
	fmt.Fprintf(a.out, "Progress: %d / %d tasks (%d%%)\n", stats.Completed, stats.Total, stats.Percent())

	tr := s.Tracker()
	for i, block := range s.Blocks() {
		done := 0
		for j := range block.Tasks {
			if s.Checked(i, j) {
				done++
			}
		}
		line := fmt.Sprintf("%s: %d/%d", block.Label(i), done, len(block.Tasks))
		switch {
		case s.DayComplete(i) && tr.IsCompletedToday(i):
			fmt.Fprintln(a.out, a.colors.ok.Sprint(line+"  Day Complete! (today)"))
		case s.DayComplete(i):
			fmt.Fprintln(a.out, a.colors.ok.Sprint(line+"  Day Complete!"))
		case tr.IsPermanentlyCompleted(i):
			fmt.Fprintln(a.out, a.colors.dim.Sprint(line+"  completed before"))
		default:
			fmt.Fprintln(a.out, line)
		}
	}
	return nil
}

func (a *app) export(ctx context.Context, id, format, output string) error {
	f, err := commands.ParseFormat(format)
	if err != nil {
		return err
	}
	row, err := a.store.GetPlan(ctx, id)
	if err != nil {
		return err
	}
	if output == "" {
		output = filepath.Join(a.cfg.ExportDir, f.DefaultFileName())
	}
	// export reads state only, so the tracker is never loaded
	s := study.New(row.ToModel(), tracker.New(a.store, id, tracker.WithLogger(a.log)), a.store, a.log)
	if err := s.ExportFile(string(f), output); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s\n", a.colors.ok.Sprint("exported"), output)
	return nil
}

func (a *app) deletePlan(ctx context.Context, id string) error {
	if err := a.store.DeletePlan(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("plan %s not found", id)
		}
		return err
	}
	if err := a.store.Delete(ctx, tracker.PermanentDaysKeyPrefix+id); err != nil {
		a.log.Logf("[WARN] can't clear completion history for %s: %v", id, err)
	}
	fmt.Fprintf(a.out, "%s %s\n", a.colors.ok.Sprint("deleted"), id)
	return nil
}
