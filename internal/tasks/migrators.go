package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/cardx/internal/models"
	"github.com/desertthunder/cardx/internal/shared"
)

// DefaultCommentTemplate prefixes a copied comment with its original author and timestamp.
const DefaultCommentTemplate = "**Comment from {author}** ({created})\n{text}"

// SubResourceMigrator copies one category of sub-resources from a source card to a target card.
//
// Migrate never returns an error: item failures are logged and recorded in the [models.StepResult].
type SubResourceMigrator interface {
	Category() models.Category
	Migrate(ctx context.Context, sourceID, targetID int, log shared.LogSink) models.StepResult
}

// TagMigrator recreates tags by name and color. Existing target tags are not deduplicated.
type TagMigrator struct {
	source SourceAPI
	target TargetAPI
}

func NewTagMigrator(source SourceAPI, target TargetAPI) *TagMigrator {
	return &TagMigrator{source: source, target: target}
}

func (m *TagMigrator) Category() models.Category { return models.CategoryTags }

func (m *TagMigrator) Migrate(ctx context.Context, sourceID, targetID int, log shared.LogSink) models.StepResult {
	tags, err := m.source.CardTags(ctx, sourceID)
	if err != nil {
		log.Error("failed to list tags", "error", err)
		return models.NewStepResult(nil, err)
	}

	items := make([]models.ItemResult, 0, len(tags))
	for _, tag := range tags {
		err := m.target.AddTag(ctx, targetID, tag.Name, tag.Color)
		if err != nil {
			log.Error("failed to migrate tag", "tag", tag.Name, "error", err)
		}
		items = append(items, models.NewItemResult(strconv.Itoa(tag.ID), tag.Name, err))
	}
	return models.NewStepResult(items, nil)
}

// CommentMigrator re-posts comments with an attribution prefix.
type CommentMigrator struct {
	source   SourceAPI
	target   TargetAPI
	template string
	sortByTS bool
}

// NewCommentMigrator creates a comment migrator. An empty template uses [DefaultCommentTemplate].
//
// Comments keep the source listing order unless sortByCreated is set.
func NewCommentMigrator(source SourceAPI, target TargetAPI, template string, sortByCreated bool) *CommentMigrator {
	if template == "" {
		template = DefaultCommentTemplate
	}
	return &CommentMigrator{source: source, target: target, template: template, sortByTS: sortByCreated}
}

func (m *CommentMigrator) Category() models.Category { return models.CategoryComments }

// FormatComment renders the attributed body of a copied comment.
func (m *CommentMigrator) FormatComment(c models.Comment) string {
	return strings.NewReplacer(
		"{author}", c.Author.DisplayName(),
		"{created}", c.Created,
		"{text}", c.Text,
	).Replace(m.template)
}

func (m *CommentMigrator) Migrate(ctx context.Context, sourceID, targetID int, log shared.LogSink) models.StepResult {
	comments, err := m.source.Comments(ctx, sourceID)
	if err != nil {
		log.Error("failed to list comments", "error", err)
		return models.NewStepResult(nil, err)
	}
	if m.sortByTS {
		sortCommentsByCreated(comments)
	}

	items := make([]models.ItemResult, 0, len(comments))
	for _, c := range comments {
		err := m.target.AddComment(ctx, targetID, m.FormatComment(c))
		if err != nil {
			log.Error("failed to migrate comment", "comment", c.ID, "error", err)
		}
		items = append(items, models.NewItemResult(strconv.Itoa(c.ID), c.Author.DisplayName(), err))
	}
	return models.NewStepResult(items, nil)
}

// sortCommentsByCreated orders comments by their RFC 3339 timestamps. Unparseable timestamps sort last.
func sortCommentsByCreated(comments []models.Comment) {
	parse := func(s string) (time.Time, bool) {
		t, err := time.Parse(time.RFC3339, s)
		return t, err == nil
	}
	sort.SliceStable(comments, func(i, j int) bool {
		ti, okI := parse(comments[i].Created)
		tj, okJ := parse(comments[j].Created)
		if okI && okJ {
			return ti.Before(tj)
		}
		return okI && !okJ
	})
}

// ChecklistMigrator recreates checklists and their items in original order.
//
// Checklists are read from the full source card record.
type ChecklistMigrator struct {
	source SourceAPI
	target TargetAPI
}

func NewChecklistMigrator(source SourceAPI, target TargetAPI) *ChecklistMigrator {
	return &ChecklistMigrator{source: source, target: target}
}

func (m *ChecklistMigrator) Category() models.Category { return models.CategoryChecklists }

func (m *ChecklistMigrator) Migrate(ctx context.Context, sourceID, targetID int, log shared.LogSink) models.StepResult {
	card, err := m.source.Card(ctx, sourceID)
	if err != nil {
		log.Error("failed to read checklists", "error", err)
		return models.NewStepResult(nil, err)
	}

	items := make([]models.ItemResult, 0, len(card.Checklists))
	for _, cl := range card.Checklists {
		items = append(items, m.migrateChecklist(ctx, targetID, cl, log))
	}
	return models.NewStepResult(items, nil)
}

// migrateChecklist creates one checklist and copies its items. The first failing item fails the checklist,
// but the remaining items are still attempted.
func (m *ChecklistMigrator) migrateChecklist(ctx context.Context, targetID int, cl models.Checklist, log shared.LogSink) models.ItemResult {
	created, err := m.target.CreateChecklist(ctx, targetID, cl.Name)
	if err == nil && (created == nil || created.ID == 0) {
		err = errors.New("target returned no checklist id")
	}
	if err != nil {
		log.Error("failed to create checklist", "checklist", cl.Name, "error", err)
		return models.NewItemResult(strconv.Itoa(cl.ID), cl.Name, err)
	}

	entries := make([]models.ChecklistItem, len(cl.Items))
	copy(entries, cl.Items)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].SortOrder < entries[j].SortOrder })

	var failed int
	var firstErr error
	for _, it := range entries {
		if err := m.target.AddChecklistItem(ctx, targetID, created.ID, it.Text, it.Checked); err != nil {
			log.Error("failed to migrate checklist item", "checklist", cl.Name, "item", it.Text, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			failed++
		}
	}
	if firstErr != nil {
		firstErr = fmt.Errorf("%d of %d items failed: %w", failed, len(entries), firstErr)
	}
	return models.NewItemResult(strconv.Itoa(cl.ID), cl.Name, firstErr)
}

// FileMigrator copies attachments through a local scratch directory.
//
// Each file is downloaded, uploaded under its original name and deleted locally whatever the outcome.
type FileMigrator struct {
	source SourceAPI
	target TargetAPI
	dir    string
}

// NewFileMigrator creates a file migrator that stages downloads in dir.
func NewFileMigrator(source SourceAPI, target TargetAPI, dir string) *FileMigrator {
	return &FileMigrator{source: source, target: target, dir: dir}
}

func (m *FileMigrator) Category() models.Category { return models.CategoryFiles }

func (m *FileMigrator) Migrate(ctx context.Context, sourceID, targetID int, log shared.LogSink) models.StepResult {
	files, err := m.source.Files(ctx, sourceID)
	if err != nil {
		log.Error("failed to list files", "error", err)
		return models.NewStepResult(nil, err)
	}

	items := make([]models.ItemResult, 0, len(files))
	for _, f := range files {
		err := m.copyFile(ctx, targetID, f)
		if err != nil {
			log.Error("failed to migrate file", "file", f.Name, "error", err)
		}
		items = append(items, models.NewItemResult(strconv.Itoa(f.ID), f.Name, err))
	}
	return models.NewStepResult(items, nil)
}

func (m *FileMigrator) copyFile(ctx context.Context, targetID int, f models.File) error {
	local := filepath.Join(m.dir, fmt.Sprintf("%d-%s", f.ID, filepath.Base(f.Name)))
	defer os.Remove(local)

	out, err := os.Create(local)
	if err != nil {
		return fmt.Errorf("failed to create local copy: %w", err)
	}
	if err := m.source.DownloadFile(ctx, f.URL, out); err != nil {
		out.Close()
		return fmt.Errorf("download: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to write local copy: %w", err)
	}

	in, err := os.Open(local)
	if err != nil {
		return fmt.Errorf("failed to reopen local copy: %w", err)
	}
	defer in.Close()

	if err := m.target.UploadFile(ctx, targetID, f.Name, in); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	return nil
}
