package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/desertthunder/cardx/internal/formatter"
	"github.com/desertthunder/cardx/internal/models"
	"github.com/desertthunder/cardx/internal/services"
	"github.com/desertthunder/cardx/internal/shared"
	"github.com/desertthunder/cardx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// fetchSourceCards lists every card matching the board and column flags.
func (r *Runner) fetchSourceCards(ctx context.Context, boardID, columnID int) ([]models.Card, error) {
	svc, err := r.service(ctx, SourceSide)
	if err != nil {
		return nil, err
	}

	filter := services.CardFilter{SpaceID: r.config.Source.SpaceID, BoardID: boardID, ColumnID: columnID}
	r.logger.Info("fetching source cards", "board", boardID, "column", columnID)

	cards, err := tasks.FetchAll(ctx, svc, filter, r.config.Migration.PageSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrSourceFetch, err)
	}
	r.logger.Debug("fetched source cards", "count", len(cards))
	return cards, nil
}

// CardsList prints the cards of a source board, optionally narrowed to one column.
func (r *Runner) CardsList(ctx context.Context, cmd *cli.Command) error {
	cards, err := r.fetchSourceCards(ctx, cmd.Int("board"), cmd.Int("column"))
	if err != nil {
		return err
	}

	if limit := cmd.Int("limit"); limit > 0 && len(cards) > limit {
		cards = cards[:limit]
	}

	if cmd.Bool("json") {
		return r.writeJSON(cards, false)
	}

	if len(cards) == 0 {
		r.writePlain("No cards found\n")
		return nil
	}

	for _, c := range cards {
		r.writePlain("#%-8d col %-8d lane %-8d %s\n", c.ID, c.ColumnID, c.LaneID, c.Title)
	}
	r.writePlainln("Total: %d cards", len(cards))
	return nil
}

// CardsExport dumps full card records (properties, tags, checklists) so they can be reviewed before a run.
func (r *Runner) CardsExport(ctx context.Context, cmd *cli.Command) error {
	var format formatter.Format
	if f := cmd.String("format"); f != "" {
		parsed, err := formatter.ParseFormat(f)
		if err != nil {
			return err
		}
		format = parsed
	}

	cards, err := r.fetchSourceCards(ctx, cmd.Int("board"), cmd.Int("column"))
	if err != nil {
		return err
	}

	if ids := cmd.IntSlice("card"); len(ids) > 0 {
		cards = slices.DeleteFunc(cards, func(c models.Card) bool {
			return !slices.Contains(ids, c.ID)
		})
	}
	if len(cards) == 0 {
		return fmt.Errorf("%w: no cards match the filter", shared.ErrNothingToMigrate)
	}

	output := cmd.String("output")
	if output == "-" {
		data, err := formatter.ExportCards(cards, format)
		if err != nil {
			return err
		}
		return r.writeBytes(data)
	}

	path, err := formatter.WriteCardExport(cards, output, format)
	if err != nil {
		return err
	}

	r.logger.Info("cards exported", "path", path, "count", len(cards))
	r.writePlain("✓ Exported %d cards to %s\n", len(cards), path)
	return nil
}
