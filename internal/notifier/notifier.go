// Package notifier delivers day-completion events outside the terminal.
package notifier

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/notify"

	"github.com/sandeepkv93/studycoach/internal/tracker"
)

const appTitle = "Study Coach"

// Runner executes an external command. Tests replace it.
type Runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// Desktop shows completions with notify-send on linux and osascript on darwin.
type Desktop struct {
	GOOS string
	Run  Runner
	Log  lgr.L
}

func NewDesktop(logger lgr.L) *Desktop {
	if logger == nil {
		logger = lgr.NoOp
	}
	return &Desktop{GOOS: runtime.GOOS, Run: execRunner, Log: logger}
}

func (d *Desktop) DayCompleted(ctx context.Context, ev tracker.DayCompletion) {
	if err := d.send(ctx, appTitle, ev.Message); err != nil {
		d.Log.Logf("[WARN] desktop notification for %s failed: %v", ev.Label, err)
	}
}

func (d *Desktop) send(ctx context.Context, title, body string) error {
	switch d.GOOS {
	case "linux":
		return d.Run(ctx, "notify-send", title, body)
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(body), escapeAppleScript(title))
		return d.Run(ctx, "osascript", "-e", script)
	default:
		return nil
	}
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// sender is the part of notify.Webhook used here.
type sender interface {
	Send(ctx context.Context, destination, text string) error
}

// Webhook posts the completion message to every configured URL.
type Webhook struct {
	urls   []string
	client sender
	log    lgr.L
}

func NewWebhook(urls []string, timeout time.Duration, logger lgr.L) *Webhook {
	if logger == nil {
		logger = lgr.NoOp
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	clean := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			clean = append(clean, u)
		}
	}
	return &Webhook{
		urls: clean,
		client: notify.NewWebhook(notify.WebhookParams{
			Timeout: timeout,
			Headers: []string{"Content-Type:text/plain; charset=utf-8"},
		}),
		log: logger,
	}
}

func (w *Webhook) DayCompleted(ctx context.Context, ev tracker.DayCompletion) {
	text := fmt.Sprintf("%s (plan %s, %s)", ev.Message, ev.PlanID, ev.Date)
	for _, u := range w.urls {
		if err := w.client.Send(ctx, u, text); err != nil {
			w.log.Logf("[WARN] webhook %s failed: %v", u, err)
			continue
		}
		w.log.Logf("[DEBUG] webhook %s notified for %s", u, ev.Label)
	}
}

// Multi fans an event out to every notifier in order.
type Multi []tracker.Notifier

func (m Multi) DayCompleted(ctx context.Context, ev tracker.DayCompletion) {
	for _, n := range m {
		if n != nil {
			n.DayCompleted(ctx, ev)
		}
	}
}

// Build assembles the notifiers enabled by configuration. It returns nil
// when nothing is enabled.
func Build(desktop bool, webhookURLs []string, webhookTimeout time.Duration, logger lgr.L) tracker.Notifier {
	var out Multi
	if desktop {
		out = append(out, NewDesktop(logger))
	}
	if len(webhookURLs) > 0 {
		out = append(out, NewWebhook(webhookURLs, webhookTimeout, logger))
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Dispatcher delivers events on background goroutines so slow targets never
// stall the caller. Close waits for deliveries still in flight. A nil
// Dispatcher drops every event.
type Dispatcher struct {
	next tracker.Notifier
	wg   sync.WaitGroup
}

// Async wraps n in a Dispatcher. It returns nil when n is nil.
func Async(n tracker.Notifier) *Dispatcher {
	if n == nil {
		return nil
	}
	return &Dispatcher{next: n}
}

// DayCompleted hands ev to the wrapped notifier. Cancellation of the
// caller's context is not propagated.
func (d *Dispatcher) DayCompleted(ctx context.Context, ev tracker.DayCompletion) {
	if d == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.next.DayCompleted(context.WithoutCancel(ctx), ev)
	}()
}

// Close blocks until in-flight deliveries finish or ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	if d == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notifier: deliveries still pending: %w", ctx.Err())
	}
}
