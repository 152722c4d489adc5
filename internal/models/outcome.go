package models

// Category names one kind of card sub-resource.
type Category string

const (
	CategoryTags       Category = "tags"
	CategoryComments   Category = "comments"
	CategoryFiles      Category = "files"
	CategoryChecklists Category = "checklists"
)

// Categories lists sub-resource categories in the order the engine migrates them.
var Categories = []Category{CategoryTags, CategoryComments, CategoryFiles, CategoryChecklists}

// StepStatus is the terminal state of one sub-resource category for one card.
type StepStatus string

const (
	StatusDone    StepStatus = "done"
	StatusFailed  StepStatus = "failed"
	StatusSkipped StepStatus = "skipped"
)

// ItemResult is the outcome of copying one sub-resource item (one tag, one comment, ...).
type ItemResult struct {
	ItemID string `json:"item_id" yaml:"item_id"`
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Err    error  `json:"-" yaml:"-"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewItemResult builds an ItemResult, copying err's message into the serialisable Error field.
func NewItemResult(id, name string, err error) ItemResult {
	r := ItemResult{ItemID: id, Name: name, Err: err}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// OK reports whether the item was copied.
func (r ItemResult) OK() bool { return r.Err == nil && r.Error == "" }

// StepResult aggregates the item results of one category.
//
// Status is skipped when there was nothing to copy, failed when listing failed or any item failed, done otherwise.
type StepResult struct {
	Status StepStatus   `json:"status" yaml:"status"`
	Items  []ItemResult `json:"items,omitempty" yaml:"items,omitempty"`
	Err    error        `json:"-" yaml:"-"`
	Error  string       `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewStepResult derives the step status from its items, or marks it failed when listErr is set.
func NewStepResult(items []ItemResult, listErr error) StepResult {
	if listErr != nil {
		return StepResult{Status: StatusFailed, Items: items, Err: listErr, Error: listErr.Error()}
	}
	if len(items) == 0 {
		return StepResult{Status: StatusSkipped}
	}
	for _, it := range items {
		if !it.OK() {
			return StepResult{Status: StatusFailed, Items: items}
		}
	}
	return StepResult{Status: StatusDone, Items: items}
}

// Failed counts the failed items of the step.
func (s StepResult) Failed() int {
	n := 0
	for _, it := range s.Items {
		if !it.OK() {
			n++
		}
	}
	return n
}

// CardOutcome is the per-card result of a migration run.
type CardOutcome struct {
	SourceID int                     `json:"source_id" yaml:"source_id"`
	Title    string                  `json:"title" yaml:"title"`
	Created  bool                    `json:"created" yaml:"created"`
	TargetID int                     `json:"target_id,omitempty" yaml:"target_id,omitempty"`
	Steps    map[Category]StepResult `json:"steps,omitempty" yaml:"steps,omitempty"`
	Err      error                   `json:"-" yaml:"-"`
	Error    string                  `json:"error,omitempty" yaml:"error,omitempty"`
}

// StepStatus returns the status of category c, skipped when it never ran.
func (o CardOutcome) StepStatus(c Category) StepStatus {
	if s, ok := o.Steps[c]; ok {
		return s.Status
	}
	return StatusSkipped
}

// HasFailures reports whether any sub-resource category of a created card failed.
func (o CardOutcome) HasFailures() bool {
	for _, s := range o.Steps {
		if s.Status == StatusFailed {
			return true
		}
	}
	return false
}
