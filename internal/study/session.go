// Package study holds an opened plan in memory and applies task toggles to it
// optimistically, reconciling with the plan store once the save resolves.
package study

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-pkgz/lgr"

	"github.com/sandeepkv93/studycoach/internal/model"
	"github.com/sandeepkv93/studycoach/internal/plan"
	"github.com/sandeepkv93/studycoach/internal/tracker"
)

var (
	ErrUnknownTask = errors.New("study: unknown task")
	ErrEmptyBody   = errors.New("study: plan text is empty")
)

// RollbackNotice is shown when a progress save is rejected.
const RollbackNotice = "Failed to save progress. Your changes have been reverted."

// Store persists the parts of a plan the viewer can change.
type Store interface {
	UpdateProgress(ctx context.Context, id string, progress plan.Progress) error
	UpdatePlanBody(ctx context.Context, id, body string) error
}

type Outcome int

const (
	Applied Outcome = iota
	RolledBack
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case RolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ToggleResult reports how a toggle ended. Reason is set only for RolledBack.
type ToggleResult struct {
	Outcome Outcome
	Key     string
	Reason  error
	Stats   plan.Stats
}

// Pending is a toggle that has been applied locally but not yet confirmed.
type Pending struct {
	Key         string
	Revised     plan.Progress
	Completions []tracker.DayCompletion

	planID   string
	previous plan.Progress
}

type Session struct {
	doc     model.Plan
	blocks  []plan.DayBlock
	tracker *tracker.Tracker
	store   Store
	log     lgr.L

	inFlight int
}

func New(doc model.Plan, tr *tracker.Tracker, store Store, logger lgr.L) *Session {
	if logger == nil {
		logger = lgr.NoOp
	}
	if doc.Progress == nil {
		doc.Progress = make(plan.Progress)
	}
	return &Session{
		doc:     doc,
		blocks:  plan.Parse(doc.Body),
		tracker: tr,
		store:   store,
		log:     logger,
	}
}

// Open runs the load-time checks: a pending day rollover first, otherwise a
// plain initialization of the completion sets.
func (s *Session) Open(ctx context.Context) {
	if s.tracker.CheckRollover(ctx, s.blocks, s.doc.Progress) {
		return
	}
	s.tracker.Load(ctx, s.blocks, s.doc.Progress)
}

func (s *Session) Plan() model.Plan {
	out := s.doc
	out.Progress = s.doc.Progress.Clone()
	return out
}

func (s *Session) Blocks() []plan.DayBlock { return s.blocks }

func (s *Session) Tracker() *tracker.Tracker { return s.tracker }

// Parsed is false when the plan text has no recognizable day blocks.
func (s *Session) Parsed() bool { return len(s.blocks) > 0 }

func (s *Session) Saving() bool { return s.inFlight > 0 }

func (s *Session) Stats() plan.Stats {
	return plan.GetProgress(s.blocks, s.doc.Progress)
}

func (s *Session) Checked(dayIdx, taskIdx int) bool {
	if dayIdx < 0 || dayIdx >= len(s.blocks) {
		return false
	}
	tasks := s.blocks[dayIdx].Tasks
	if taskIdx < 0 || taskIdx >= len(tasks) {
		return false
	}
	return plan.TaskChecked(s.doc.Progress, dayIdx, taskIdx, tasks[taskIdx])
}

func (s *Session) DayComplete(dayIdx int) bool {
	if dayIdx < 0 || dayIdx >= len(s.blocks) {
		return false
	}
	return plan.DayComplete(s.blocks[dayIdx], dayIdx, s.doc.Progress)
}

// Stage flips the explicit value for key in memory and lets the tracker see
// the new state. The returned Pending must be passed to Resolve once the save
// finishes.
func (s *Session) Stage(ctx context.Context, key string) (Pending, error) {
	dayIdx, taskIdx, ok := plan.ParseTaskKey(key)
	if !ok || dayIdx >= len(s.blocks) || taskIdx >= len(s.blocks[dayIdx].Tasks) {
		return Pending{}, fmt.Errorf("%w: %q", ErrUnknownTask, key)
	}

	previous := s.doc.Progress.Clone()
	revised := s.doc.Progress.Clone()
	revised[key] = !revised[key]
	s.doc.Progress = revised
	s.inFlight++

	completions := s.tracker.Observe(ctx, s.blocks, s.doc.Progress)
	return Pending{
		Key:         key,
		Revised:     revised.Clone(),
		Completions: completions,
		planID:      s.doc.ID,
		previous:    previous,
	}, nil
}

// Resolve finishes a staged toggle. A non-nil saveErr restores the progress
// captured when that toggle was staged.
func (s *Session) Resolve(ctx context.Context, p Pending, saveErr error) ToggleResult {
	if s.inFlight > 0 {
		s.inFlight--
	}
	if saveErr == nil {
		return ToggleResult{Outcome: Applied, Key: p.Key, Stats: s.Stats()}
	}

	s.log.Logf("[WARN] save progress for plan %s failed, reverting %s: %v", s.doc.ID, p.Key, saveErr)
	s.doc.Progress = p.previous.Clone()
	s.tracker.Observe(ctx, s.blocks, s.doc.Progress)
	return ToggleResult{Outcome: RolledBack, Key: p.Key, Reason: saveErr, Stats: s.Stats()}
}

// Toggle stages key, saves the revised progress and resolves in one call.
func (s *Session) Toggle(ctx context.Context, key string) (ToggleResult, []tracker.DayCompletion, error) {
	pending, err := s.Stage(ctx, key)
	if err != nil {
		return ToggleResult{}, nil, err
	}
	saveErr := s.Save(ctx, pending)
	return s.Resolve(ctx, pending, saveErr), pending.Completions, nil
}

// Save sends the revised progress of p to the store. It does not touch
// session state and may run off the event loop.
func (s *Session) Save(ctx context.Context, p Pending) error {
	return s.store.UpdateProgress(ctx, p.planID, p.Revised)
}

// ReplaceBody stores new plan text, for example an accepted adaptation, and
// re-initializes tracking silently against the re-parsed blocks.
func (s *Session) ReplaceBody(ctx context.Context, body string) error {
	if strings.TrimSpace(body) == "" {
		return ErrEmptyBody
	}
	if err := s.store.UpdatePlanBody(ctx, s.doc.ID, body); err != nil {
		return fmt.Errorf("update plan body: %w", err)
	}
	s.doc.Body = body
	s.blocks = plan.Parse(body)
	s.tracker.Load(ctx, s.blocks, s.doc.Progress)
	s.log.Logf("[INFO] plan %s text replaced, %d day blocks", s.doc.ID, len(s.blocks))
	return nil
}

// CheckRollover forwards the periodic date check to the tracker.
func (s *Session) CheckRollover(ctx context.Context) bool {
	return s.tracker.CheckRollover(ctx, s.blocks, s.doc.Progress)
}
