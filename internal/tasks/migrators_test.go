package tasks

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/desertthunder/cardx/internal/models"
	tu "github.com/desertthunder/cardx/internal/testing"
)

func TestCommentMigrator(t *testing.T) {
	t.Run("FormatComment", func(t *testing.T) {
		tests := []struct {
			name     string
			template string
			comment  models.Comment
			want     string
		}{
			{
				name:    "default template",
				comment: models.Comment{Text: "hi", Author: &models.Author{FullName: "Ann"}, Created: "2024-05-01"},
				want:    "**Comment from Ann** (2024-05-01)\nhi",
			},
			{
				name:    "missing author",
				comment: models.Comment{Text: "hi", Created: "2024-05-01"},
				want:    "**Comment from Unknown** (2024-05-01)\nhi",
			},
			{
				name:     "custom template",
				template: "{author}: {text}",
				comment:  models.Comment{Text: "ok", Author: &models.Author{FullName: "Ann"}},
				want:     "Ann: ok",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				m := NewCommentMigrator(nil, nil, tt.template, false)
				if got := m.FormatComment(tt.comment); got != tt.want {
					t.Errorf("expected %q, got %q", tt.want, got)
				}
			})
		}
	})

	t.Run("keeps listing order by default", func(t *testing.T) {
		src := newFakeSource()
		dst := newFakeTarget()
		src.comments[1] = []models.Comment{
			{ID: 1, Text: "late", Created: "2024-03-01T00:00:00Z"},
			{ID: 2, Text: "early", Created: "2024-01-01T00:00:00Z"},
		}

		NewCommentMigrator(src, dst, "{text}", false).Migrate(context.Background(), 1, 50, &tu.LogRecorder{})
		if got := dst.comments[50]; len(got) != 2 || got[0] != "late" || got[1] != "early" {
			t.Errorf("expected listing order, got %v", got)
		}
	})

	t.Run("sorts by created when enabled", func(t *testing.T) {
		src := newFakeSource()
		dst := newFakeTarget()
		src.comments[1] = []models.Comment{
			{ID: 1, Text: "late", Created: "2024-03-01T00:00:00Z"},
			{ID: 2, Text: "undated", Created: "yesterday"},
			{ID: 3, Text: "early", Created: "2024-01-01T00:00:00Z"},
		}

		NewCommentMigrator(src, dst, "{text}", true).Migrate(context.Background(), 1, 50, &tu.LogRecorder{})
		want := []string{"early", "late", "undated"}
		got := dst.comments[50]
		for i := range want {
			if i >= len(got) || got[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, got)
			}
		}
	})

	t.Run("no comments is skipped", func(t *testing.T) {
		step := NewCommentMigrator(newFakeSource(), newFakeTarget(), "", false).Migrate(context.Background(), 1, 2, &tu.LogRecorder{})
		if step.Status != models.StatusSkipped {
			t.Errorf("expected skipped, got %s", step.Status)
		}
	})
}

func TestTagMigrator(t *testing.T) {
	src := newFakeSource()
	dst := newFakeTarget()
	dst.tagFail["bad"] = true
	src.tags[1] = []models.Tag{{ID: 1, Name: "ok", Color: 3}, {ID: 2, Name: "bad"}, {ID: 3, Name: "ok", Color: 3}}

	step := NewTagMigrator(src, dst).Migrate(context.Background(), 1, 9, &tu.LogRecorder{})
	if step.Status != models.StatusFailed || step.Failed() != 1 {
		t.Errorf("expected one failed item, got %+v", step)
	}
	if len(dst.tags[9]) != 2 {
		t.Errorf("expected duplicate names to be created again, got %v", dst.tags[9])
	}
	if dst.tags[9][0].Color != 3 {
		t.Errorf("expected color to pass through, got %v", dst.tags[9][0].Color)
	}
}

func TestChecklistMigrator(t *testing.T) {
	t.Run("items follow sort order", func(t *testing.T) {
		src := newFakeSource()
		dst := newFakeTarget()
		src.details[1] = &models.Card{ID: 1, Checklists: []models.Checklist{{
			ID:   4,
			Name: "Steps",
			Items: []models.ChecklistItem{
				{Text: "second", SortOrder: 2},
				{Text: "first", SortOrder: 1, Checked: true},
				{Text: "third", SortOrder: 2.5},
			},
		}}}

		step := NewChecklistMigrator(src, dst).Migrate(context.Background(), 1, 7, &tu.LogRecorder{})
		if step.Status != models.StatusDone {
			t.Fatalf("expected done, got %+v", step)
		}
		items := dst.checklists[7][0].items
		if len(items) != 3 || items[0].Text != "first" || !items[0].Checked || items[2].Text != "third" {
			t.Errorf("unexpected items %+v", items)
		}
		if src.details[1].Checklists[0].Items[0].Text != "second" {
			t.Error("source checklist must not be reordered in place")
		}
	})

	t.Run("failed item fails the checklist but not its siblings", func(t *testing.T) {
		src := newFakeSource()
		dst := newFakeTarget()
		dst.itemFail["broken"] = true
		src.details[1] = &models.Card{ID: 1, Checklists: []models.Checklist{
			{ID: 1, Name: "A", Items: []models.ChecklistItem{{Text: "broken"}, {Text: "fine"}}},
			{ID: 2, Name: "B", Items: []models.ChecklistItem{{Text: "fine"}}},
		}}

		step := NewChecklistMigrator(src, dst).Migrate(context.Background(), 1, 7, &tu.LogRecorder{})
		if step.Failed() != 1 || step.Items[1].Error != "" {
			t.Errorf("expected only checklist A to fail, got %+v", step.Items)
		}
		if len(dst.checklists[7][0].items) != 1 || len(dst.checklists[7][1].items) != 1 {
			t.Error("expected remaining items to be attempted")
		}
	})

	t.Run("checklist without an id gets no items", func(t *testing.T) {
		src := newFakeSource()
		dst := newFakeTarget()
		dst.checklistNoID = true
		src.details[1] = &models.Card{ID: 1, Checklists: []models.Checklist{
			{ID: 1, Name: "A", Items: []models.ChecklistItem{{Text: "one"}, {Text: "two"}}},
		}}

		step := NewChecklistMigrator(src, dst).Migrate(context.Background(), 1, 7, &tu.LogRecorder{})
		if step.Status != models.StatusFailed || step.Failed() != 1 {
			t.Fatalf("expected the checklist to fail, got %+v", step)
		}
		if !strings.Contains(step.Items[0].Error, "no checklist id") {
			t.Errorf("unexpected error %q", step.Items[0].Error)
		}
		if n := dst.subCalls[7]; n != 1 {
			t.Errorf("expected only the create call, got %d writes", n)
		}
	})
}

func TestFileMigrator(t *testing.T) {
	t.Run("local copies are removed on success and failure", func(t *testing.T) {
		dir := t.TempDir()
		src := newFakeSource()
		dst := newFakeTarget()
		dst.uploadFail["b.bin"] = true
		src.files[1] = []models.File{
			{ID: 1, Name: "a.txt", URL: "u/a"},
			{ID: 2, Name: "b.bin", URL: "u/b"},
			{ID: 3, Name: "c.txt", URL: "u/missing"},
			{ID: 4, Name: "d.txt", URL: "u/d"},
		}
		src.blobs["u/a"] = "A"
		src.blobs["u/b"] = "B"
		src.blobs["u/d"] = "D"
		log := &tu.LogRecorder{}

		step := NewFileMigrator(src, dst, dir).Migrate(context.Background(), 1, 8, log)
		if step.Status != models.StatusFailed || step.Failed() != 2 || len(step.Items) != 4 {
			t.Errorf("expected 2 of 4 files to fail, got %+v", step)
		}
		if len(dst.files[8]) != 2 || dst.files[8][1] != (uploaded{name: "d.txt", content: "D"}) {
			t.Errorf("expected later files to be attempted, got %+v", dst.files[8])
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("expected scratch directory to be empty, found %d entries", len(entries))
		}
		if log.Count("error") != 2 {
			t.Errorf("expected 2 logged errors, got %d", log.Count("error"))
		}
	})

	t.Run("path components in names stay inside the scratch directory", func(t *testing.T) {
		dir := t.TempDir()
		src := newFakeSource()
		dst := newFakeTarget()
		src.files[1] = []models.File{{ID: 1, Name: "../../etc/passwd", URL: "u"}}
		src.blobs["u"] = "x"

		step := NewFileMigrator(src, dst, dir).Migrate(context.Background(), 1, 8, &tu.LogRecorder{})
		if step.Status != models.StatusDone {
			t.Fatalf("expected done, got %+v", step)
		}
		if dst.files[8][0].name != "../../etc/passwd" {
			t.Error("expected the original name to be used for the upload")
		}
	})
}
