package tasks

import (
	"context"
	"io"

	"github.com/desertthunder/cardx/internal/models"
	"github.com/desertthunder/cardx/internal/services"
)

// CardPager fetches one page of cards.
type CardPager interface {
	Cards(ctx context.Context, filter services.CardFilter, limit, offset int) ([]models.Card, error)
}

// FieldSource lists a board's custom-field definitions.
type FieldSource interface {
	CustomFields(ctx context.Context, boardID int) ([]models.CustomField, error)
}

// SourceAPI is the read side of a migration.
type SourceAPI interface {
	CardPager
	FieldSource
	Card(ctx context.Context, cardID int) (*models.Card, error)
	CardTags(ctx context.Context, cardID int) ([]models.Tag, error)
	Comments(ctx context.Context, cardID int) ([]models.Comment, error)
	Files(ctx context.Context, cardID int) ([]models.File, error)
	DownloadFile(ctx context.Context, fileURL string, w io.Writer) error
}

// TargetAPI is the write side of a migration.
type TargetAPI interface {
	FieldSource
	CreateCard(ctx context.Context, req services.CreateCardRequest) (*models.Card, error)
	AddTag(ctx context.Context, cardID int, name string, color any) error
	AddComment(ctx context.Context, cardID int, text string) error
	UploadFile(ctx context.Context, cardID int, filename string, content io.Reader) error
	CreateChecklist(ctx context.Context, cardID int, name string) (*models.Checklist, error)
	AddChecklistItem(ctx context.Context, cardID, checklistID int, text string, checked bool) error
}

var (
	_ SourceAPI = (*services.KaitenService)(nil)
	_ TargetAPI = (*services.KaitenService)(nil)
)
