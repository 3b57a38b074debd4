package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/go-pkgz/lgr"

	"github.com/sandeepkv93/studycoach/internal/coach"
	"github.com/sandeepkv93/studycoach/internal/scheduler"
	"github.com/sandeepkv93/studycoach/internal/study"
)

const (
	defaultRolloverInterval = time.Minute
	defaultToastTTL         = 4 * time.Second
	maxToasts               = 5
	visibleDays             = 3
)

// AdaptedNotice is shown once an adapted plan has been stored.
const AdaptedNotice = "Your plan has been adapted and saved!"

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Toggle string
	Help   string
	Quit   string
}

type ToastLevel string

const (
	ToastSuccess ToastLevel = "success"
	ToastError   ToastLevel = "error"
	ToastInfo    ToastLevel = "info"
)

type Toast struct {
	ID    string
	Text  string
	Level ToastLevel
	At    time.Time
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

// AdaptState tracks a pending request to the coach service and the preview of
// its answer until the user accepts or rejects it.
type AdaptState struct {
	Loading  bool
	Feedback string
	Preview  string
}

func (a AdaptState) Active() bool { return a.Preview != "" }

// Adapter rewrites a plan from progress and feedback.
type Adapter interface {
	AdaptPlan(ctx context.Context, req coach.AdaptRequest) (string, error)
}

// FeedbackStore records the feedback sent with an adaptation.
type FeedbackStore interface {
	UpdateFeedback(ctx context.Context, id, feedback string) error
}

type Deps struct {
	Session          *study.Session
	Scheduler        *scheduler.Engine
	Adapter          Adapter
	Feedback         FeedbackStore
	RolloverInterval time.Duration
	ToastTTL         time.Duration
	ExportDir        string
	Logger           lgr.L
	Now              func() time.Time
}

type Model struct {
	Session     *study.Session
	Scheduler   *scheduler.Engine
	CursorDay   int
	CursorTask  int
	Toasts      []Toast
	Palette     CommandPaletteState
	Adapt       AdaptState
	HelpVisible bool
	Status      StatusBar
	Keys        GlobalKeyMap
	Quitting    bool
	LastError   error

	adapter          Adapter
	feedback         FeedbackStore
	rolloverInterval time.Duration
	toastTTL         time.Duration
	exportDir        string
	log              lgr.L
	now              func() time.Time
	toastSeq         int
	width            int

	commandInput  textinput.Model
	progressBar   progress.Model
	savingSpinner spinner.Model
	helpModel     help.Model
	preview       viewport.Model
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// ProgressSavedMsg carries the outcome of the store call for a staged toggle.
type ProgressSavedMsg struct {
	Pending study.Pending
	Err     error
}

type SchedulerEventMsg struct {
	Event scheduler.Event
}

type AdaptedPlanMsg struct {
	Text string
	Err  error
}

func NewModel(deps Deps) Model {
	m := Model{
		Session:          deps.Session,
		Scheduler:        deps.Scheduler,
		adapter:          deps.Adapter,
		feedback:         deps.Feedback,
		rolloverInterval: deps.RolloverInterval,
		toastTTL:         deps.ToastTTL,
		exportDir:        deps.ExportDir,
		log:              deps.Logger,
		now:              deps.Now,
		Keys: GlobalKeyMap{
			Toggle: " ",
			Help:   "?",
			Quit:   "q",
		},
	}
	if m.rolloverInterval <= 0 {
		m.rolloverInterval = defaultRolloverInterval
	}
	if m.toastTTL <= 0 {
		m.toastTTL = defaultToastTTL
	}
	if m.exportDir == "" {
		m.exportDir = "."
	}
	if m.log == nil {
		m.log = lgr.NoOp
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.initBubbleComponents()
	return m
}

func (m *Model) initBubbleComponents() {
	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.progressBar = progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))

	m.savingSpinner = spinner.New()
	m.savingSpinner.Spinner = spinner.Dot

	m.helpModel = help.New()
	m.preview = viewport.New(54, 16)
}
