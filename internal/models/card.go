package models

// Card is a kanban work item as returned by the cards endpoints.
//
// Optional scalars are pointers so that an absent value stays absent when the card is re-posted.
type Card struct {
	ID           int            `json:"id" yaml:"id"`
	Title        string         `json:"title" yaml:"title"`
	Description  *string        `json:"description,omitempty" yaml:"description,omitempty"`
	BoardID      int            `json:"board_id" yaml:"board_id"`
	ColumnID     int            `json:"column_id" yaml:"column_id"`
	LaneID       int            `json:"lane_id" yaml:"lane_id"`
	TypeID       *int           `json:"type_id,omitempty" yaml:"type_id,omitempty"`
	SizeText     *string        `json:"size_text,omitempty" yaml:"size_text,omitempty"`
	DueDate      *string        `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	ASAP         bool           `json:"asap" yaml:"asap"`
	ExpiresLater bool           `json:"expires_later" yaml:"expires_later"`
	Properties   map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
	Tags         []Tag          `json:"tags,omitempty" yaml:"tags,omitempty"`
	Checklists   []Checklist    `json:"checklists,omitempty" yaml:"checklists,omitempty"`
}

// Tag is a coloured label on a card. Color is opaque and passed through unchanged.
type Tag struct {
	ID    int    `json:"id,omitempty" yaml:"id,omitempty"`
	Name  string `json:"name" yaml:"name"`
	Color any    `json:"color,omitempty" yaml:"color,omitempty"`
}

// Author is the user who wrote a comment.
type Author struct {
	ID       int    `json:"id" yaml:"id"`
	FullName string `json:"full_name" yaml:"full_name"`
}

// DisplayName returns the author's full name, or "Unknown" when the API omitted it.
func (a *Author) DisplayName() string {
	if a == nil || a.FullName == "" {
		return "Unknown"
	}
	return a.FullName
}

// Comment is a card comment.
type Comment struct {
	ID      int     `json:"id" yaml:"id"`
	Text    string  `json:"text" yaml:"text"`
	Author  *Author `json:"author,omitempty" yaml:"author,omitempty"`
	Created string  `json:"created" yaml:"created"`
}

// Checklist is a named group of checklist items.
type Checklist struct {
	ID    int             `json:"id" yaml:"id"`
	Name  string          `json:"name" yaml:"name"`
	Items []ChecklistItem `json:"items,omitempty" yaml:"items,omitempty"`
}

// ChecklistItem is a single checkbox line.
type ChecklistItem struct {
	ID        int     `json:"id" yaml:"id"`
	Text      string  `json:"text" yaml:"text"`
	Checked   bool    `json:"checked" yaml:"checked"`
	SortOrder float64 `json:"sort_order" yaml:"sort_order"`
}

// File is an attachment; URL is an absolute download link on the owning instance.
type File struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
	Size int64  `json:"size" yaml:"size"`
}

// CustomField is a board's custom-field definition.
//
// IDs are local to one instance; two instances' fields correspond only by exact Name.
type CustomField struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Board is a card container with its columns and lanes.
type Board struct {
	ID      int      `json:"id" yaml:"id"`
	Title   string   `json:"title" yaml:"title"`
	Columns []Column `json:"columns,omitempty" yaml:"columns,omitempty"`
	Lanes   []Lane   `json:"lanes,omitempty" yaml:"lanes,omitempty"`
}

// Column is a vertical stage of a board.
type Column struct {
	ID    int    `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
}

// Lane is a horizontal swimlane of a board.
type Lane struct {
	ID    int    `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
}

// Location addresses where a new card is placed.
type Location struct {
	BoardID  int `json:"board_id" yaml:"board_id"`
	ColumnID int `json:"column_id" yaml:"column_id"`
	LaneID   int `json:"lane_id" yaml:"lane_id"`
}

// FindColumn returns the column with the given id or title.
func (b *Board) FindColumn(id int, title string) (*Column, bool) {
	for i := range b.Columns {
		if (id != 0 && b.Columns[i].ID == id) || (title != "" && b.Columns[i].Title == title) {
			return &b.Columns[i], true
		}
	}
	return nil, false
}

// FindLane returns the lane with the given id, or the first lane when id is zero.
func (b *Board) FindLane(id int) (*Lane, bool) {
	if len(b.Lanes) == 0 {
		return nil, false
	}
	if id == 0 {
		return &b.Lanes[0], true
	}
	for i := range b.Lanes {
		if b.Lanes[i].ID == id {
			return &b.Lanes[i], true
		}
	}
	return nil, false
}
