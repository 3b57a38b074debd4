package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandeepkv93/studycoach/internal/plan"
)

func setupRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "studycoach-test.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := MigrateUp(db); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	repo, err := NewSQLiteRepository(db)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	return repo
}

func parseRFC3339(t *testing.T, value string) time.Time {
	t.Helper()
	out, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return out
}

func samplePlan(id, title string, created time.Time) Plan {
	return Plan{
		ID:        id,
		Title:     title,
		Goal:      "Learn " + title,
		Tags:      "go,backend",
		Body:      "intro\n-----\n📆 Day 1\n**Basics**\nRead chapter 1\n",
		Progress:  plan.Progress{},
		Days:      30,
		CreatedAt: created,
	}
}

func TestPlanCRUD(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	created := parseRFC3339(t, "2026-02-09T12:00:00Z")
	start := parseRFC3339(t, "2026-02-10T00:00:00Z")

	in := samplePlan("plan-1", "Go", created)
	in.StartDate = &start
	if err := repo.CreatePlan(ctx, in); err != nil {
		t.Fatalf("create plan: %v", err)
	}

	got, err := repo.GetPlan(ctx, in.ID)
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if got.Title != "Go" || got.Goal != "Learn Go" || got.Tags != "go,backend" || got.Days != 30 {
		t.Fatalf("unexpected plan: %+v", got)
	}
	if got.StartDate == nil || !got.StartDate.Equal(start) {
		t.Fatalf("unexpected start date: %v", got.StartDate)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected created at: %v", got.CreatedAt)
	}
	if len(got.Progress) != 0 {
		t.Fatalf("expected empty progress, got %v", got.Progress)
	}

	if err := repo.UpdatePlanBody(ctx, in.ID, "new body"); err != nil {
		t.Fatalf("update body: %v", err)
	}
	if err := repo.UpdateFeedback(ctx, in.ID, "too fast"); err != nil {
		t.Fatalf("update feedback: %v", err)
	}
	got, err = repo.GetPlan(ctx, in.ID)
	if err != nil {
		t.Fatalf("get plan after update: %v", err)
	}
	if got.Body != "new body" || got.Feedback != "too fast" {
		t.Fatalf("updates not persisted: %+v", got)
	}

	if err := repo.DeletePlan(ctx, in.ID); err != nil {
		t.Fatalf("delete plan: %v", err)
	}
	if _, err := repo.GetPlan(ctx, in.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestUpdateProgressReplacesMap(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	in := samplePlan("plan-1", "Go", parseRFC3339(t, "2026-02-09T12:00:00Z"))
	if err := repo.CreatePlan(ctx, in); err != nil {
		t.Fatalf("create plan: %v", err)
	}

	if err := repo.UpdateProgress(ctx, in.ID, plan.Progress{"0-0": true, "0-1": false}); err != nil {
		t.Fatalf("update progress: %v", err)
	}
	if err := repo.UpdateProgress(ctx, in.ID, plan.Progress{"1-0": true}); err != nil {
		t.Fatalf("update progress again: %v", err)
	}

	got, err := repo.GetPlan(ctx, in.ID)
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if len(got.Progress) != 1 || !got.Progress["1-0"] {
		t.Fatalf("expected progress to be replaced, got %v", got.Progress)
	}
}

func TestUpdateMissingPlanReturnsNotFound(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	if err := repo.UpdateProgress(ctx, "missing", plan.Progress{"0-0": true}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from progress update, got %v", err)
	}
	if err := repo.UpdatePlanBody(ctx, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from body update, got %v", err)
	}
	if err := repo.DeletePlan(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from delete, got %v", err)
	}
}

func TestListPlansOrderSearchAndTag(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	older := samplePlan("plan-old", "Rust", parseRFC3339(t, "2026-01-01T08:00:00Z"))
	older.Tags = "systems"
	newer := samplePlan("plan-new", "Go", parseRFC3339(t, "2026-02-01T08:00:00Z"))
	newer.Body = "Goroutines and CHANNELS"
	for _, p := range []Plan{older, newer} {
		if err := repo.CreatePlan(ctx, p); err != nil {
			t.Fatalf("create %s: %v", p.ID, err)
		}
	}

	all, err := repo.ListPlans(ctx, PlanListFilter{})
	if err != nil {
		t.Fatalf("list plans: %v", err)
	}
	if len(all) != 2 || all[0].ID != "plan-new" || all[1].ID != "plan-old" {
		t.Fatalf("expected newest first, got %+v", all)
	}

	found, err := repo.ListPlans(ctx, PlanListFilter{Query: "channels"})
	if err != nil {
		t.Fatalf("search plans: %v", err)
	}
	if len(found) != 1 || found[0].ID != "plan-new" {
		t.Fatalf("unexpected search result: %+v", found)
	}

	tagged, err := repo.ListPlans(ctx, PlanListFilter{Tag: "Systems"})
	if err != nil {
		t.Fatalf("tag filter: %v", err)
	}
	if len(tagged) != 1 || tagged[0].ID != "plan-old" {
		t.Fatalf("unexpected tag result: %+v", tagged)
	}

	page, err := repo.ListPlans(ctx, PlanListFilter{Offset: 1})
	if err != nil {
		t.Fatalf("paged list: %v", err)
	}
	if len(page) != 1 || page[0].ID != "plan-old" {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestListPlansSearchStaysWithinOneField(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	in := samplePlan("plan-1", "ab", parseRFC3339(t, "2026-02-09T12:00:00Z"))
	in.Goal = "cd"
	in.Body = "ef"
	if err := repo.CreatePlan(ctx, in); err != nil {
		t.Fatalf("create plan: %v", err)
	}

	cases := map[string]int{"AB": 1, "cd": 1, "ef": 1, "bc": 0, "de": 0, "abcd": 0}
	for q, want := range cases {
		got, err := repo.ListPlans(ctx, PlanListFilter{Query: q})
		if err != nil {
			t.Fatalf("search %q: %v", q, err)
		}
		if len(got) != want {
			t.Fatalf("search %q returned %d plans, want %d", q, len(got), want)
		}
	}
}

func TestLegacyEmptyProgressDecodes(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	in := samplePlan("plan-1", "Go", parseRFC3339(t, "2026-02-09T12:00:00Z"))
	if err := repo.CreatePlan(ctx, in); err != nil {
		t.Fatalf("create plan: %v", err)
	}
	if _, err := repo.db.ExecContext(ctx, `UPDATE plans SET progress = '[]' WHERE id = ?`, in.ID); err != nil {
		t.Fatalf("seed legacy progress: %v", err)
	}

	got, err := repo.GetPlan(ctx, in.ID)
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if got.Progress == nil || len(got.Progress) != 0 {
		t.Fatalf("expected empty progress map, got %v", got.Progress)
	}
}

func TestKeyValueStore(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	if _, ok, err := repo.Get(ctx, "lastCheckedDate_PlanViewer"); err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}

	if err := repo.Set(ctx, "lastCheckedDate_PlanViewer", "2026-02-09"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := repo.Set(ctx, "lastCheckedDate_PlanViewer", "2026-02-10"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, ok, err := repo.Get(ctx, "lastCheckedDate_PlanViewer")
	if err != nil || !ok || value != "2026-02-10" {
		t.Fatalf("unexpected get result: %q ok=%v err=%v", value, ok, err)
	}

	if err := repo.Delete(ctx, "lastCheckedDate_PlanViewer"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, "lastCheckedDate_PlanViewer"); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
	if _, ok, _ := repo.Get(ctx, "lastCheckedDate_PlanViewer"); ok {
		t.Fatal("expected key to be gone")
	}
}
