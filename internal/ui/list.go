package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/cardx/internal/models"
)

var _ list.Item = outcomeItem{}

// outcomeItem wraps [models.CardOutcome] to implement [list.Item].
type outcomeItem struct {
	outcome models.CardOutcome
}

func (i outcomeItem) FilterValue() string { return i.outcome.Title }
func (i outcomeItem) Title() string {
	if !i.outcome.Created {
		return fmt.Sprintf("✗ #%d %s", i.outcome.SourceID, i.outcome.Title)
	}
	return fmt.Sprintf("✓ #%d → #%d %s", i.outcome.SourceID, i.outcome.TargetID, i.outcome.Title)
}
func (i outcomeItem) Description() string {
	if !i.outcome.Created {
		return "not created: " + i.outcome.Error
	}
	parts := make([]string, 0, len(models.Categories))
	for _, c := range models.Categories {
		parts = append(parts, fmt.Sprintf("%s %s", c, i.outcome.StepStatus(c)))
	}
	return strings.Join(parts, " • ")
}

func outcomeItems(outcomes []models.CardOutcome) []list.Item {
	items := make([]list.Item, len(outcomes))
	for i, o := range outcomes {
		items[i] = outcomeItem{outcome: o}
	}
	return items
}
