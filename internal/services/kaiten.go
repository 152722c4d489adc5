// Kaiten REST API endpoints used by the migration engine.
package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/cardx/internal/models"
	"github.com/desertthunder/cardx/internal/shared"
)

// markdownTextFormat is the comment text_format_type_id for markdown.
const markdownTextFormat = 1

// CardFilter narrows a card listing. Zero values are omitted from the query.
type CardFilter struct {
	SpaceID  int
	BoardID  int
	ColumnID int
}

// Values encodes the filter with the given page window.
func (f CardFilter) Values(limit, offset int) url.Values {
	q := url.Values{}
	if f.SpaceID != 0 {
		q.Set("space_id", strconv.Itoa(f.SpaceID))
	}
	if f.BoardID != 0 {
		q.Set("board_id", strconv.Itoa(f.BoardID))
	}
	if f.ColumnID != 0 {
		q.Set("column_id", strconv.Itoa(f.ColumnID))
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return q
}

// CreateCardRequest is the payload for creating a card. Nil fields are not sent.
type CreateCardRequest struct {
	Title        string         `json:"title"`
	Description  *string        `json:"description,omitempty"`
	BoardID      int            `json:"board_id"`
	ColumnID     int            `json:"column_id"`
	LaneID       int            `json:"lane_id,omitempty"`
	TypeID       *int           `json:"type_id,omitempty"`
	SizeText     *string        `json:"size_text,omitempty"`
	DueDate      *string        `json:"due_date,omitempty"`
	ASAP         bool           `json:"asap"`
	ExpiresLater bool           `json:"expires_later"`
	Properties   map[string]any `json:"properties,omitempty"`
}

// KaitenService wraps a [Transport] with typed card, board and sub-resource endpoints.
type KaitenService struct {
	t Transport
}

// NewKaitenService creates a service over t.
func NewKaitenService(t Transport) *KaitenService {
	return &KaitenService{t: t}
}

// Name returns the instance domain.
func (s *KaitenService) Name() string {
	return s.t.Domain()
}

func (s *KaitenService) get(ctx context.Context, path string, query url.Values, result any) error {
	return s.t.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, result)
}

func (s *KaitenService) post(ctx context.Context, path string, body, result any) error {
	return s.t.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, result)
}

// Boards lists the boards of a space with their columns and lanes.
func (s *KaitenService) Boards(ctx context.Context, spaceID int) ([]models.Board, error) {
	var boards []models.Board
	if err := s.get(ctx, fmt.Sprintf("spaces/%d/boards", spaceID), nil, &boards); err != nil {
		return nil, err
	}
	return boards, nil
}

// Board finds one board of a space by id.
func (s *KaitenService) Board(ctx context.Context, spaceID, boardID int) (*models.Board, error) {
	boards, err := s.Boards(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	for i := range boards {
		if boards[i].ID == boardID {
			return &boards[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %d in space %d", shared.ErrBoardNotFound, boardID, spaceID)
}

// Cards fetches one page of cards.
func (s *KaitenService) Cards(ctx context.Context, filter CardFilter, limit, offset int) ([]models.Card, error) {
	var cards []models.Card
	if err := s.get(ctx, "cards", filter.Values(limit, offset), &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// Card fetches the full card record, including its checklists.
func (s *KaitenService) Card(ctx context.Context, cardID int) (*models.Card, error) {
	var card models.Card
	if err := s.get(ctx, fmt.Sprintf("cards/%d", cardID), nil, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// CreateCard creates a card and returns it with its new id.
func (s *KaitenService) CreateCard(ctx context.Context, req CreateCardRequest) (*models.Card, error) {
	var card models.Card
	if err := s.post(ctx, "cards", req, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// CustomFields lists the custom-field definitions available on a board.
func (s *KaitenService) CustomFields(ctx context.Context, boardID int) ([]models.CustomField, error) {
	var fields []models.CustomField
	if err := s.get(ctx, fmt.Sprintf("boards/%d/custom-properties", boardID), nil, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// CardTags lists a card's tags.
func (s *KaitenService) CardTags(ctx context.Context, cardID int) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.get(ctx, fmt.Sprintf("cards/%d/tags", cardID), nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// AddTag attaches a new tag with the given name and color.
func (s *KaitenService) AddTag(ctx context.Context, cardID int, name string, color any) error {
	body := map[string]any{"name": name, "color": color}
	return s.post(ctx, fmt.Sprintf("cards/%d/tags", cardID), body, nil)
}

// Comments lists a card's comments in API order.
func (s *KaitenService) Comments(ctx context.Context, cardID int) ([]models.Comment, error) {
	var comments []models.Comment
	if err := s.get(ctx, fmt.Sprintf("cards/%d/comments", cardID), nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// AddComment posts a markdown comment.
func (s *KaitenService) AddComment(ctx context.Context, cardID int, text string) error {
	body := map[string]any{"text": text, "text_format_type_id": markdownTextFormat}
	return s.post(ctx, fmt.Sprintf("cards/%d/comments", cardID), body, nil)
}

// Files lists a card's attachments.
func (s *KaitenService) Files(ctx context.Context, cardID int) ([]models.File, error) {
	var files []models.File
	if err := s.get(ctx, fmt.Sprintf("cards/%d/files", cardID), nil, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// DownloadFile streams an attachment's content into w.
func (s *KaitenService) DownloadFile(ctx context.Context, fileURL string, w io.Writer) error {
	return s.t.Download(ctx, fileURL, w)
}

// UploadFile attaches content to a card under filename.
func (s *KaitenService) UploadFile(ctx context.Context, cardID int, filename string, content io.Reader) error {
	req := Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("cards/%d/files", cardID),
		Files:  []FilePart{{Field: "file", Filename: filename, Content: content}},
	}
	return s.t.Do(ctx, req, nil)
}

// CreateChecklist creates an empty checklist and returns it with its new id.
func (s *KaitenService) CreateChecklist(ctx context.Context, cardID int, name string) (*models.Checklist, error) {
	var cl models.Checklist
	if err := s.post(ctx, fmt.Sprintf("cards/%d/checklists", cardID), map[string]any{"name": name}, &cl); err != nil {
		return nil, err
	}
	return &cl, nil
}

// AddChecklistItem appends an item to a checklist.
func (s *KaitenService) AddChecklistItem(ctx context.Context, cardID, checklistID int, text string, checked bool) error {
	body := map[string]any{"text": text, "checked": checked}
	return s.post(ctx, fmt.Sprintf("cards/%d/checklists/%d/items", cardID, checklistID), body, nil)
}
