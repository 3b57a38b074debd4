package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/studycoach/internal/coach"
	"github.com/sandeepkv93/studycoach/internal/config"
	"github.com/sandeepkv93/studycoach/internal/plan"
	"github.com/sandeepkv93/studycoach/internal/storage"
	"github.com/sandeepkv93/studycoach/internal/tracker"
)

const twoDayPlan = "Intro\n-----\n📆 Day 1\n**Basics**\nRead ch1\nQuiz\n-----\n📆 Day 2\n**More**\nRead ch2\n"

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type harness struct {
	app  *app
	repo *storage.SQLiteRepository
	out  *bytes.Buffer
	dir  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	repo, err := storage.OpenSQLite(filepath.Join(dir, "studycoach.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	cfg := config.Default()
	cfg.ExportDir = dir
	out := &bytes.Buffer{}
	a := newApp(cfg, repo, lgr.NoOp, out)
	a.now = func() time.Time { return time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC) }
	return &harness{app: a, repo: repo, out: out, dir: dir}
}

// importPlan stores text as a new plan and returns its id.
func (h *harness) importPlan(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(h.dir, "plan.txt")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))
	require.NoError(t, h.app.importFile(context.Background(), path, "Go basics", "Learn Go", "go, lang"))
	rows, err := h.repo.ListPlans(context.Background(), storage.PlanListFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	h.out.Reset()
	return rows[0].ID
}

func TestImportAndList(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	path := filepath.Join(h.dir, "plan.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"plan":"-----\n📆 Day 1\nRead ch1\n"}`), 0o600))

	require.NoError(t, h.app.importFile(ctx, path, "Go basics", "Learn Go", "go, lang"))
	assert.Contains(t, h.out.String(), "created ")
	assert.Contains(t, h.out.String(), "1 days, 1 tasks")

	h.out.Reset()
	require.NoError(t, h.app.list(ctx, storage.PlanListFilter{}))
	assert.Contains(t, h.out.String(), "Go basics  0%  created now")
	assert.Contains(t, h.out.String(), "tags: go, lang")

	h.out.Reset()
	require.NoError(t, h.app.list(ctx, storage.PlanListFilter{Tag: "rust"}))
	assert.Equal(t, "no plans\n", h.out.String())
}

func TestImportRequiresAllFields(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.dir, "plan.txt")
	require.NoError(t, os.WriteFile(path, []byte(twoDayPlan), 0o600))

	err := h.app.importFile(context.Background(), path, "", "Learn Go", "")
	require.EqualError(t, err, "Please fill all fields.")
}

func TestImportWarnsOnUnparsedText(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.dir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("just some notes"), 0o600))

	require.NoError(t, h.app.importFile(context.Background(), path, "Notes", "Learn", ""))
	assert.Contains(t, h.out.String(), "no day blocks recognized")
}

func TestToggleCompletesDay(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.importPlan(t, twoDayPlan)

	require.NoError(t, h.app.toggle(ctx, id, "1.1"))
	assert.Contains(t, h.out.String(), "checked Read ch1")
	assert.NotContains(t, h.out.String(), "Congratulations")

	h.out.Reset()
	require.NoError(t, h.app.toggle(ctx, id, "1.2"))
	assert.Contains(t, h.out.String(), "🎉 Congratulations! You completed 📆 Day 1!")
	assert.Contains(t, h.out.String(), "Progress: 2 / 3 tasks")

	row, err := h.repo.GetPlan(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, plan.Progress{"0-0": true, "0-1": true}, row.Progress)

	raw, ok, err := h.repo.Get(ctx, tracker.PermanentDaysKeyPrefix+id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `["0"]`, raw)

	h.out.Reset()
	require.NoError(t, h.app.toggle(ctx, id, "1.2"))
	assert.Contains(t, h.out.String(), "unchecked Quiz")
}

func TestToggleRejectsBadReferences(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.importPlan(t, twoDayPlan)

	require.Error(t, h.app.toggle(ctx, id, "first"))
	require.Error(t, h.app.toggle(ctx, id, "3.1"))
	err := h.app.toggle(ctx, "missing", "1.1")
	require.EqualError(t, err, "plan missing not found")
}

func TestStats(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.importPlan(t, twoDayPlan)
	require.NoError(t, h.app.toggle(ctx, id, "2.1"))
	h.out.Reset()

	require.NoError(t, h.app.stats(ctx, id))
	out := h.out.String()
	assert.Contains(t, out, "Go basics")
	assert.Contains(t, out, "Goal: Learn Go")
	assert.Contains(t, out, "Start Date: Mon Feb 9 2026 (now)")
	assert.Contains(t, out, "Progress: 1 / 3 tasks (33%)")
	assert.Contains(t, out, "📆 Day 1: 0/2\n")
	assert.Contains(t, out, "📆 Day 2: 1/1  Day Complete! (today)")
}

func TestExport(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.importPlan(t, twoDayPlan)

	require.NoError(t, h.app.export(ctx, id, "md", ""))
	data, err := os.ReadFile(filepath.Join(h.dir, "study-plan.md"))
	require.NoError(t, err)
	assert.Equal(t, twoDayPlan, string(data))

	target := filepath.Join(h.dir, "out", "plan.yaml")
	require.NoError(t, h.app.export(ctx, id, "yml", target))
	data, err = os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "total_tasks: 3")
	assert.Contains(t, h.out.String(), "exported "+target)

	require.Error(t, h.app.export(ctx, id, "pdf", ""))
}

func TestDeleteClearsHistory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.importPlan(t, twoDayPlan)
	require.NoError(t, h.app.toggle(ctx, id, "2.1"))

	require.NoError(t, h.app.deletePlan(ctx, id))
	_, err := h.repo.GetPlan(ctx, id)
	require.ErrorIs(t, err, storage.ErrNotFound)
	_, ok, err := h.repo.Get(ctx, tracker.PermanentDaysKeyPrefix+id)
	require.NoError(t, err)
	assert.False(t, ok)

	require.EqualError(t, h.app.deletePlan(ctx, id), "plan "+id+" not found")
}

func TestGenerate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate-plan", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"plan":"-----\n📆 Day 1\nRead ch1\n"}`))
	}))
	defer srv.Close()

	h := newHarness(t)
	h.app.coach = coach.NewClient(srv.URL, time.Second)
	ctx := context.Background()

	require.NoError(t, h.app.generate(ctx, "Learn Go", 0, "today", "", "go"))
	assert.Equal(t, "Learn Go", got["goal"])
	assert.EqualValues(t, 30, got["duration"])

	rows, err := h.repo.ListPlans(ctx, storage.PlanListFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	p := rows[0].ToModel()
	assert.Equal(t, "Learn Go", p.Title)
	assert.Equal(t, 30, p.Days)
	assert.Equal(t, []string{"go"}, p.Tags)
}

func TestRunListWithFlags(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("STUDYCOACH_LOG_FILE", filepath.Join(dir, "studycoach.log"))

	o := opts{DB: filepath.Join(dir, "cli.db"), NoColor: true, Debug: true}
	require.NoError(t, run(context.Background(), o, "list"))
	assert.FileExists(t, filepath.Join(dir, "cli.db"))

	logData, err := os.ReadFile(filepath.Join(dir, "studycoach.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logData), "running list")

	require.Error(t, run(context.Background(), o, "bogus"))
}

func TestSetupLoggerWithoutFile(t *testing.T) {
	logger, closeLog, err := setupLogger("", false)
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Logf("[INFO] dropped")
	closeLog()

	_, _, err = setupLogger(filepath.Join(t.TempDir(), "missing", "app.log"), false)
	require.Error(t, err)
}

func slowWebhook(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(50 * time.Millisecond)
		atomic.AddInt32(hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCloseWaitsForCompletionWebhook(t *testing.T) {
	var hits int32
	srv := slowWebhook(t, &hits)

	h := newHarness(t)
	cfg := h.app.cfg
	cfg.WebhookURLs = []string{srv.URL}
	now := h.app.now
	h.app = newApp(cfg, h.repo, lgr.NoOp, h.out)
	h.app.now = now
	ctx := context.Background()
	id := h.importPlan(t, twoDayPlan)

	require.NoError(t, h.app.toggle(ctx, id, "2.1"))
	assert.Contains(t, h.out.String(), "You completed 📆 Day 2!")

	h.app.close()
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestRunToggleDeliversWebhookBeforeReturning(t *testing.T) {
	var hits int32
	srv := slowWebhook(t, &hits)

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("STUDYCOACH_LOG_FILE", filepath.Join(dir, "studycoach.log"))
	t.Setenv("STUDYCOACH_WEBHOOK_URLS", srv.URL)
	planFile := filepath.Join(dir, "plan.txt")
	require.NoError(t, os.WriteFile(planFile, []byte(twoDayPlan), 0o600))

	o := opts{DB: filepath.Join(dir, "cli.db"), NoColor: true}
	o.Import.Title, o.Import.Goal = "Go basics", "Learn Go"
	o.Import.Args.File = planFile
	require.NoError(t, run(context.Background(), o, "import"))

	repo, err := storage.OpenSQLite(o.DB)
	require.NoError(t, err)
	rows, err := repo.ListPlans(context.Background(), storage.PlanListFilter{})
	require.NoError(t, err)
	require.NoError(t, repo.Close())
	require.Len(t, rows, 1)

	o.Toggle.Args.PlanID = rows[0].ID
	o.Toggle.Args.Task = "2.1"
	require.NoError(t, run(context.Background(), o, "toggle"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
