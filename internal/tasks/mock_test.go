package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/desertthunder/cardx/internal/models"
	"github.com/desertthunder/cardx/internal/services"
)

var errBoom = errors.New("boom")

// fakeSource is an in-memory source instance.
type fakeSource struct {
	pages    [][]models.Card
	pageErr  error
	requests []string

	fields    []models.CustomField
	fieldsErr error

	details  map[int]*models.Card
	tags     map[int][]models.Tag
	comments map[int][]models.Comment
	files    map[int][]models.File
	blobs    map[string]string

	commentsErr error
	calls       map[string]int
	seq         []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		details:  map[int]*models.Card{},
		tags:     map[int][]models.Tag{},
		comments: map[int][]models.Comment{},
		files:    map[int][]models.File{},
		blobs:    map[string]string{},
		calls:    map[string]int{},
	}
}

func (f *fakeSource) Cards(ctx context.Context, filter services.CardFilter, limit, offset int) ([]models.Card, error) {
	f.requests = append(f.requests, filter.Values(limit, offset).Encode())
	if f.pageErr != nil {
		return nil, f.pageErr
	}
	page := offset / limit
	if page >= len(f.pages) {
		return []models.Card{}, nil
	}
	return f.pages[page], nil
}

func (f *fakeSource) CustomFields(ctx context.Context, boardID int) ([]models.CustomField, error) {
	return f.fields, f.fieldsErr
}

// read counts a sub-resource read and fails it when ctx is done, as a real transport would.
func (f *fakeSource) read(ctx context.Context, name string) error {
	f.calls[name]++
	f.seq = append(f.seq, name)
	return ctx.Err()
}

func (f *fakeSource) Card(ctx context.Context, cardID int) (*models.Card, error) {
	if err := f.read(ctx, "card"); err != nil {
		return nil, err
	}
	if c, ok := f.details[cardID]; ok {
		return c, nil
	}
	return &models.Card{ID: cardID}, nil
}

func (f *fakeSource) CardTags(ctx context.Context, cardID int) ([]models.Tag, error) {
	if err := f.read(ctx, "tags"); err != nil {
		return nil, err
	}
	return f.tags[cardID], nil
}

func (f *fakeSource) Comments(ctx context.Context, cardID int) ([]models.Comment, error) {
	if err := f.read(ctx, "comments"); err != nil {
		return nil, err
	}
	if f.commentsErr != nil {
		return nil, f.commentsErr
	}
	return f.comments[cardID], nil
}

func (f *fakeSource) Files(ctx context.Context, cardID int) ([]models.File, error) {
	if err := f.read(ctx, "files"); err != nil {
		return nil, err
	}
	return f.files[cardID], nil
}

func (f *fakeSource) DownloadFile(ctx context.Context, fileURL string, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, ok := f.blobs[fileURL]
	if !ok {
		return fmt.Errorf("%s: %w", fileURL, errBoom)
	}
	_, err := io.WriteString(w, body)
	return err
}

type createdChecklist struct {
	name  string
	items []models.ChecklistItem
}

type uploaded struct {
	name    string
	content string
}

// fakeTarget is an in-memory target instance that records every write.
type fakeTarget struct {
	mu sync.Mutex

	fields    []models.CustomField
	fieldsErr error

	nextID     int
	created    []services.CreateCardRequest
	createFail map[string]bool

	tags       map[int][]models.Tag
	comments   map[int][]string
	files      map[int][]uploaded
	checklists map[int][]*createdChecklist

	commentFail map[string]bool
	tagFail     map[string]bool
	uploadFail  map[string]bool
	itemFail    map[string]bool

	checklistNoID bool
	subCalls      map[int]int
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{
		nextID:      1000,
		createFail:  map[string]bool{},
		tags:        map[int][]models.Tag{},
		comments:    map[int][]string{},
		files:       map[int][]uploaded{},
		checklists:  map[int][]*createdChecklist{},
		commentFail: map[string]bool{},
		tagFail:     map[string]bool{},
		uploadFail:  map[string]bool{},
		itemFail:    map[string]bool{},
		subCalls:    map[int]int{},
	}
}

func (f *fakeTarget) CustomFields(ctx context.Context, boardID int) ([]models.CustomField, error) {
	return f.fields, f.fieldsErr
}

func (f *fakeTarget) CreateCard(ctx context.Context, req services.CreateCardRequest) (*models.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.createFail[req.Title] {
		return nil, errBoom
	}
	f.nextID++
	f.created = append(f.created, req)
	return &models.Card{ID: f.nextID, Title: req.Title}, nil
}

// write counts a sub-resource write and fails it when ctx is done.
func (f *fakeTarget) write(ctx context.Context, cardID int) error {
	f.subCalls[cardID]++
	return ctx.Err()
}

func (f *fakeTarget) AddTag(ctx context.Context, cardID int, name string, color any) error {
	if err := f.write(ctx, cardID); err != nil {
		return err
	}
	if f.tagFail[name] {
		return errBoom
	}
	f.tags[cardID] = append(f.tags[cardID], models.Tag{Name: name, Color: color})
	return nil
}

func (f *fakeTarget) AddComment(ctx context.Context, cardID int, text string) error {
	if err := f.write(ctx, cardID); err != nil {
		return err
	}
	for marker := range f.commentFail {
		if strings.Contains(text, marker) {
			f.comments[cardID] = append(f.comments[cardID], "FAILED:"+text)
			return errBoom
		}
	}
	f.comments[cardID] = append(f.comments[cardID], text)
	return nil
}

func (f *fakeTarget) UploadFile(ctx context.Context, cardID int, filename string, content io.Reader) error {
	if err := f.write(ctx, cardID); err != nil {
		return err
	}
	if f.uploadFail[filename] {
		return errBoom
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	f.files[cardID] = append(f.files[cardID], uploaded{name: filename, content: string(data)})
	return nil
}

func (f *fakeTarget) CreateChecklist(ctx context.Context, cardID int, name string) (*models.Checklist, error) {
	if err := f.write(ctx, cardID); err != nil {
		return nil, err
	}
	f.checklists[cardID] = append(f.checklists[cardID], &createdChecklist{name: name})
	if f.checklistNoID {
		return &models.Checklist{Name: name}, nil
	}
	return &models.Checklist{ID: len(f.checklists[cardID]), Name: name}, nil
}

func (f *fakeTarget) AddChecklistItem(ctx context.Context, cardID, checklistID int, text string, checked bool) error {
	if err := f.write(ctx, cardID); err != nil {
		return err
	}
	if f.itemFail[text] {
		return errBoom
	}
	cl := f.checklists[cardID][checklistID-1]
	cl.items = append(cl.items, models.ChecklistItem{Text: text, Checked: checked})
	return nil
}

// fakeRecorder captures run history calls.
type fakeRecorder struct {
	startErr error
	started  int
	records  []models.CardOutcome
	finished *MigrationResult
	runErr   error
}

func (r *fakeRecorder) StartRun(req MigrateRequest, total int) (string, error) {
	if r.startErr != nil {
		return "", r.startErr
	}
	r.started = total
	return "run-1", nil
}

func (r *fakeRecorder) RecordCard(runID string, position int, outcome models.CardOutcome) error {
	r.records = append(r.records, outcome)
	return nil
}

func (r *fakeRecorder) FinishRun(runID string, result *MigrationResult, runErr error) error {
	r.finished = result
	r.runErr = runErr
	return nil
}

// cancelOnCreate cancels a context once a given number of cards were created.
type cancelOnCreate struct {
	*fakeTarget
	after  int
	cancel context.CancelFunc
}

func (c *cancelOnCreate) CreateCard(ctx context.Context, req services.CreateCardRequest) (*models.Card, error) {
	card, err := c.fakeTarget.CreateCard(ctx, req)
	if len(c.created) == c.after {
		c.cancel()
	}
	return card, err
}

// cancelOnTags cancels a context while the first card's tags are being copied.
type cancelOnTags struct {
	*fakeSource
	cancel context.CancelFunc
}

func (c *cancelOnTags) CardTags(ctx context.Context, cardID int) ([]models.Tag, error) {
	c.cancel()
	return c.fakeSource.CardTags(ctx, cardID)
}

// cappedPager serves a fixed card list and silently caps limit, like a server with a maximum page size.
type cappedPager struct {
	cards    []models.Card
	max      int
	requests int
}

func (p *cappedPager) Cards(ctx context.Context, filter services.CardFilter, limit, offset int) ([]models.Card, error) {
	p.requests++
	limit = min(limit, p.max)
	if offset >= len(p.cards) {
		return []models.Card{}, nil
	}
	return p.cards[offset:min(offset+limit, len(p.cards))], nil
}

func cardsN(n int) []models.Card {
	cards := make([]models.Card, n)
	for i := range cards {
		cards[i] = models.Card{ID: i + 1, Title: fmt.Sprintf("Card %d", i+1)}
	}
	return cards
}
