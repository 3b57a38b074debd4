package plan

import (
	"reflect"
	"testing"
)

const introPlan = "-----\n📆 Day 1\n**Intro**\n- [x] Watch video\n- Take notes\n-----\n"

func TestParseIntroScenario(t *testing.T) {
	blocks := Parse(introPlan)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks (trailing separator opens an empty one), got %d: %#v", len(blocks), blocks)
	}
	got := blocks[0]
	if got.DayHeader != "📆 Day 1" || got.Title != "Intro" {
		t.Fatalf("unexpected header/title: %#v", got)
	}
	want := []string{"- [x] Watch video", "- Take notes"}
	if !reflect.DeepEqual(got.Tasks, want) {
		t.Fatalf("tasks = %#v, want %#v", got.Tasks, want)
	}
	if len(blocks[1].Tasks) != 0 || blocks[1].DayHeader != "" || blocks[1].Title != "" {
		t.Fatalf("expected empty trailing block, got %#v", blocks[1])
	}
}

func TestParseIsDeterministic(t *testing.T) {
	text := "preamble\n------\n📆 Day 1: mon\n\n**A**\nread\n\nwrite\n-----\n**B**\npractice\n"
	first := Parse(text)
	second := Parse(text)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("parse not deterministic:\n%#v\n%#v", first, second)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(first))
	}
	if first[1].DayHeader != "" || first[1].Title != "B" {
		t.Fatalf("unexpected second block: %#v", first[1])
	}
	if !reflect.DeepEqual(first[0].Tasks, []string{"read", "write"}) {
		t.Fatalf("blank lines between tasks must be dropped: %#v", first[0].Tasks)
	}
}

func TestParseWithoutSeparatorIsEmpty(t *testing.T) {
	cases := []string{
		"",
		"📆 Day 1\n**Intro**\n- task",
		"----\nfour hyphens is not enough",
		" -----\nleading space breaks the separator",
		"-----  \ntrailing space breaks the separator",
	}
	for _, in := range cases {
		got := Parse(in)
		if got == nil || len(got) != 0 {
			t.Fatalf("Parse(%q) = %#v, want empty slice", in, got)
		}
	}
}

func TestParseNormalizesEscapesAndCRLF(t *testing.T) {
	escaped := `-----\n📆 Day 1\n**Intro**\n- one`
	blocks := Parse(escaped)
	if len(blocks) != 1 || blocks[0].Title != "Intro" || len(blocks[0].Tasks) != 1 {
		t.Fatalf("escaped newlines not normalized: %#v", blocks)
	}

	crlf := "-----\r\n📆 Day 2\r\n**Deep Dive**\r\n- two\r\n- three\r\n"
	blocks = Parse(crlf)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %#v", blocks)
	}
	if blocks[0].DayHeader != "📆 Day 2" || blocks[0].Title != "Deep Dive" {
		t.Fatalf("CRLF leaked into fields: %#v", blocks[0])
	}
	if !reflect.DeepEqual(blocks[0].Tasks, []string{"- two", "- three"}) {
		t.Fatalf("unexpected tasks: %#v", blocks[0].Tasks)
	}
}

func TestParseTitleMustWrapWholeLine(t *testing.T) {
	blocks := Parse("-----\n**Bold** start but not whole line\n- task")
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Title != "" {
		t.Fatalf("partial emphasis must not become a title: %#v", blocks[0])
	}
	if len(blocks[0].Tasks) != 2 {
		t.Fatalf("partial emphasis line should be a task: %#v", blocks[0].Tasks)
	}
}

func TestParseKeepsTaskLinesVerbatim(t *testing.T) {
	blocks := Parse("-----\n   indented task  \n")
	if len(blocks) != 1 || len(blocks[0].Tasks) != 1 || blocks[0].Tasks[0] != "   indented task  " {
		t.Fatalf("task text must be stored verbatim: %#v", blocks)
	}
}

func TestParseHeaderOnlyAfterSeparator(t *testing.T) {
	blocks := Parse("-----\nintro line\n📆 Day 1\n")
	if blocks[0].DayHeader != "" {
		t.Fatalf("header must directly follow the separator: %#v", blocks[0])
	}
	if len(blocks[0].Tasks) != 2 {
		t.Fatalf("late header line counts as a task: %#v", blocks[0].Tasks)
	}
}
