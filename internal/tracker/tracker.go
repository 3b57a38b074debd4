// Package tracker reconciles per-day completion of a parsed plan against the
// two persisted completion sets ("completed today" and "permanently
// completed") and emits one event each time a day becomes fully complete.
package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/sandeepkv93/studycoach/internal/plan"
)

// Storage keys. They match the keys the web client wrote to localStorage so
// an exported browser store can be imported as-is.
const (
	CompletedDaysKeyPrefix = "completedDays_"
	PermanentDaysKeyPrefix = "permanentlyCompletedDays_"
	LastCheckedDateKey     = "lastCheckedDate_PlanViewer"

	DateLayout = "2006-01-02"
)

// KVStore is the durable key-value medium for the completion sets.
type KVStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// DayCompletion is emitted the moment a day flips to complete.
type DayCompletion struct {
	PlanID   string
	DayIndex int
	Label    string
	Message  string
	Date     string
	At       time.Time
}

type Notifier interface {
	DayCompleted(ctx context.Context, ev DayCompletion)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev DayCompletion)

func (f NotifierFunc) DayCompleted(ctx context.Context, ev DayCompletion) { f(ctx, ev) }

type Option func(*Tracker)

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithLocation sets the zone in which calendar dates are observed.
func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) {
		if loc != nil {
			t.loc = loc
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(t *Tracker) { t.notifier = n }
}

func WithLogger(l lgr.L) Option {
	return func(t *Tracker) {
		if l != nil {
			t.log = l
		}
	}
}

// Tracker is not safe for concurrent use; it is driven from a single event loop.
type Tracker struct {
	store    KVStore
	planID   string
	now      func() time.Time
	loc      *time.Location
	notifier Notifier
	log      lgr.L

	initialized    bool
	prevComplete   map[int]bool
	completedToday *orderedSet
	permanent      *orderedSet
}

func New(store KVStore, planID string, opts ...Option) *Tracker {
	t := &Tracker{
		store:          store,
		planID:         planID,
		now:            time.Now,
		loc:            time.UTC,
		log:            lgr.NoOp,
		prevComplete:   make(map[int]bool),
		completedToday: newOrderedSet(),
		permanent:      newOrderedSet(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) PlanID() string { return t.planID }

func (t *Tracker) Initialized() bool { return t.initialized }

// Today is the calendar date currently observed through the clock.
func (t *Tracker) Today() string {
	return t.now().In(t.loc).Format(DateLayout)
}

// Load runs the initialization protocol: the previous-complete flags are
// rebuilt from the current state so days already complete do not notify, and
// both sets are seeded from storage plus every currently complete day.
// Load is a no-op for a plan with no blocks.
func (t *Tracker) Load(ctx context.Context, blocks []plan.DayBlock, progress plan.Progress) {
	if len(blocks) == 0 {
		return
	}
	today := t.Today()
	completedToday := t.readSet(ctx, completedDaysKey(today))
	permanent := t.readSet(ctx, t.permanentKey())

	prev := make(map[int]bool, len(blocks))
	for idx, complete := range plan.CompleteDays(blocks, progress) {
		prev[idx] = complete
		if complete {
			completedToday.Add(todayEntry(idx, today))
			permanent.Add(strconv.Itoa(idx))
		}
	}

	t.prevComplete = prev
	t.completedToday = completedToday
	t.permanent = permanent
	t.writeSet(ctx, completedDaysKey(today), completedToday)
	t.writeSet(ctx, t.permanentKey(), permanent)
	t.initialized = true
	t.log.Logf("[DEBUG] tracker loaded plan=%s days=%d completed_today=%d permanent=%d",
		t.planID, len(blocks), completedToday.Len(), permanent.Len())
}

// Observe evaluates the current state and returns one DayCompletion per day
// that transitioned to complete since the previous evaluation. The first
// call on an uninitialized tracker only initializes.
func (t *Tracker) Observe(ctx context.Context, blocks []plan.DayBlock, progress plan.Progress) []DayCompletion {
	if len(blocks) == 0 {
		return nil
	}
	if !t.initialized {
		t.Load(ctx, blocks, progress)
		return nil
	}

	now := t.now()
	today := now.In(t.loc).Format(DateLayout)
	var events []DayCompletion
	for idx, block := range blocks {
		complete := plan.DayComplete(block, idx, progress)
		if complete && !t.prevComplete[idx] {
			label := block.Label(idx)
			ev := DayCompletion{
				PlanID:   t.planID,
				DayIndex: idx,
				Label:    label,
				Message:  CompletionMessage(label),
				Date:     today,
				At:       now,
			}
			events = append(events, ev)
			if t.notifier != nil {
				t.notifier.DayCompleted(ctx, ev)
			}
			if t.permanent.Add(strconv.Itoa(idx)) {
				t.writeSet(ctx, t.permanentKey(), t.permanent)
			}
			if t.completedToday.Add(todayEntry(idx, today)) {
				t.writeSet(ctx, completedDaysKey(today), t.completedToday)
			}
		}
		t.prevComplete[idx] = complete
	}
	return events
}

// CheckRollover compares the persisted last-seen date with today. On a
// change it empties the completed-today set, drops the stored entry for the
// previous date, records today and silently re-initializes. It reports
// whether a rollover happened.
func (t *Tracker) CheckRollover(ctx context.Context, blocks []plan.DayBlock, progress plan.Progress) bool {
	today := t.Today()
	last, found, err := t.store.Get(ctx, LastCheckedDateKey)
	if err != nil {
		t.log.Logf("[WARN] read %s: %v", LastCheckedDateKey, err)
		found = false
	}
	if found && last == today {
		return false
	}

	t.completedToday = newOrderedSet()
	t.initialized = false
	if err := t.store.Set(ctx, LastCheckedDateKey, today); err != nil {
		t.log.Logf("[WARN] write %s: %v", LastCheckedDateKey, err)
	}
	if found && last != "" {
		if err := t.store.Delete(ctx, completedDaysKey(last)); err != nil {
			t.log.Logf("[WARN] drop completed days for %s: %v", last, err)
		}
	}
	t.log.Logf("[INFO] day rollover %q -> %q for plan %s", last, today, t.planID)
	t.Load(ctx, blocks, progress)
	return true
}

// CompletedToday lists "<day>_<date>" entries in insertion order.
func (t *Tracker) CompletedToday() []string { return t.completedToday.Values() }

// PermanentlyCompleted lists day indexes (as strings) in insertion order.
func (t *Tracker) PermanentlyCompleted() []string { return t.permanent.Values() }

func (t *Tracker) IsCompletedToday(dayIdx int) bool {
	return t.completedToday.Has(todayEntry(dayIdx, t.Today()))
}

func (t *Tracker) IsPermanentlyCompleted(dayIdx int) bool {
	return t.permanent.Has(strconv.Itoa(dayIdx))
}

// CompletionMessage is the congratulation text shown for a completed day.
func CompletionMessage(label string) string {
	return fmt.Sprintf("🎉 Congratulations! You completed %s!", label)
}

func (t *Tracker) permanentKey() string {
	return PermanentDaysKeyPrefix + t.planID
}

func completedDaysKey(date string) string {
	return CompletedDaysKeyPrefix + date
}

func todayEntry(dayIdx int, date string) string {
	return fmt.Sprintf("%d_%s", dayIdx, date)
}

// readSet treats missing, unreadable and corrupt entries as empty.
func (t *Tracker) readSet(ctx context.Context, key string) *orderedSet {
	out := newOrderedSet()
	raw, found, err := t.store.Get(ctx, key)
	if err != nil {
		t.log.Logf("[WARN] read %s: %v", key, err)
		return out
	}
	if !found || raw == "" {
		return out
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		t.log.Logf("[WARN] ignore corrupt %s: %v", key, err)
		return out
	}
	for _, v := range values {
		out.Add(v)
	}
	return out
}

func (t *Tracker) writeSet(ctx context.Context, key string, set *orderedSet) {
	payload, err := json.Marshal(set.Values())
	if err != nil {
		t.log.Logf("[WARN] encode %s: %v", key, err)
		return
	}
	if err := t.store.Set(ctx, key, string(payload)); err != nil {
		t.log.Logf("[WARN] write %s: %v", key, err)
	}
}
