package tasks

import (
	"fmt"

	"github.com/desertthunder/cardx/internal/models"
)

// ProgressUpdate represents a progress event during a migration run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase    Phase   // Operation phase
	Step     int     // Cards completed so far
	Total    int     // Cards in the run
	Fraction float64 // Step/Total; never decreases within a run
	Message  string  // Human-readable message for display
	Data     any     // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchFields Phase = iota
	FetchCards
	CreateCard
	MigrateSubResources
	CardFinished
	RunFinished
)

func (p Phase) String() string {
	switch p {
	case FetchFields:
		return "fetch_fields"
	case FetchCards:
		return "fetch_cards"
	case CreateCard:
		return "create_card"
	case MigrateSubResources:
		return "migrate_sub_resources"
	case CardFinished:
		return "card_finished"
	case RunFinished:
		return "run_finished"
	default:
		return ""
	}
}

func fraction(step, total int) float64 {
	if total <= 0 {
		return 1
	}
	return float64(step) / float64(total)
}

func fetchFieldsUpdate(sourceBoard, targetBoard int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchFields,
		Message: fmt.Sprintf("Fetching custom fields (board %d → board %d)...", sourceBoard, targetBoard),
	}
}

func fetchCardsUpdate(count int) ProgressUpdate {
	if count < 0 {
		return ProgressUpdate{Phase: FetchCards, Message: "Fetching source cards..."}
	}
	return ProgressUpdate{
		Phase:   FetchCards,
		Total:   count,
		Message: fmt.Sprintf("Found %d cards to migrate", count),
	}
}

func createCardUpdate(done, total int, card models.Card) ProgressUpdate {
	return ProgressUpdate{
		Phase:    CreateCard,
		Step:     done,
		Total:    total,
		Fraction: fraction(done, total),
		Message:  fmt.Sprintf("[%d/%d] Creating: %s", done+1, total, card.Title),
	}
}

func subResourceUpdate(done, total int, card models.Card, c models.Category) ProgressUpdate {
	return ProgressUpdate{
		Phase:    MigrateSubResources,
		Step:     done,
		Total:    total,
		Fraction: fraction(done, total),
		Message:  fmt.Sprintf("[%d/%d] %s: migrating %s", done+1, total, card.Title, c),
		Data:     c,
	}
}

func cardFinishedUpdate(done, total int, outcome models.CardOutcome) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s → #%d", done, total, outcome.Title, outcome.TargetID)
	if !outcome.Created {
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %s", done, total, outcome.Title, outcome.Error)
	}
	return ProgressUpdate{
		Phase:    CardFinished,
		Step:     done,
		Total:    total,
		Fraction: fraction(done, total),
		Message:  msg,
		Data:     outcome,
	}
}

func runFinishedUpdate(result *MigrationResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:    RunFinished,
		Step:     result.Completed(),
		Total:    result.TotalCount,
		Fraction: fraction(result.Completed(), result.TotalCount),
		Message:  fmt.Sprintf("Migration finished: %d of %d cards created", result.SuccessCount, result.TotalCount),
		Data:     result,
	}
}
