package importer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDecodeByExtension(t *testing.T) {
	cases := []struct {
		name string
		data string
		want string
	}{
		{"plan.txt", "-----\n📆 Day 1\n", "-----\n📆 Day 1\n"},
		{"PLAN.MD", "# notes", "# notes"},
		{"plan.json", `{"plan":"-----\\n📆 Day 1","title":"ignored"}`, "-----\\n📆 Day 1"},
		{"empty.json", `{"title":"no plan"}`, ""},
	}
	for _, tc := range cases {
		got, err := Decode(tc.name, []byte(tc.data))
		if err != nil {
			t.Fatalf("decode %s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("decode %s = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestDecodeRejectsUnknownFormats(t *testing.T) {
	if _, err := Decode("plan.pdf", []byte("x")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := Decode("plan.json", []byte("{broken")); err == nil {
		t.Fatal("expected json error")
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.md")
	if err := os.WriteFile(path, []byte("body"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != "body" {
		t.Fatalf("unexpected text %q", got)
	}
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestBuildRequiresAllFields(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	for _, r := range []Request{
		{Goal: "g", Text: "t"},
		{Title: "x", Text: "t"},
		{Title: "x", Goal: "g"},
	} {
		if _, err := Build(r, now); !errors.Is(err, ErrMissingFields) {
			t.Fatalf("expected ErrMissingFields for %+v, got %v", r, err)
		}
	}
}

func TestBuildCreatesFreshPlan(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	p, err := Build(Request{Title: " Go ", Goal: "Learn Go", Tags: "go, backend,,", Text: "-----\n📆 Day 1\n"}, now)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if p.ID == "" || p.Title != "Go" {
		t.Fatalf("unexpected plan: %+v", p)
	}
	if len(p.Tags) != 2 || p.Tags[0] != "go" || p.Tags[1] != "backend" {
		t.Fatalf("unexpected tags: %v", p.Tags)
	}
	if p.StartDate == nil || !p.StartDate.Equal(now) || !p.CreatedAt.Equal(now) {
		t.Fatalf("unexpected dates: start=%v created=%v", p.StartDate, p.CreatedAt)
	}
	if p.Progress == nil || len(p.Progress) != 0 {
		t.Fatalf("expected empty progress, got %v", p.Progress)
	}
}
