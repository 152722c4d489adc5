package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/cardx/internal/shared"
	"github.com/urfave/cli/v3"
)

// BoardsList prints the boards of a space with the column and lane ids needed by `migrate run`.
func (r *Runner) BoardsList(ctx context.Context, cmd *cli.Command) error {
	side, err := parseSide(cmd.String("side"))
	if err != nil {
		return err
	}

	spaceID := cmd.Int("space")
	if spaceID == 0 {
		spaceID = r.instance(side).SpaceID
	}
	if spaceID == 0 {
		return fmt.Errorf("%w: --space or %s.space_id is required", shared.ErrMissingArgument, side)
	}

	svc, err := r.service(ctx, side)
	if err != nil {
		return err
	}

	r.logger.Info("fetching boards", "side", side, "space", spaceID)
	boards, err := svc.Boards(ctx, spaceID)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(boards, false)
	}

	r.writePlainHeader(fmt.Sprintf("%s space %d", r.domain(side), spaceID))
	if len(boards) == 0 {
		r.writePlain("No boards found\n")
		return nil
	}

	for _, b := range boards {
		r.writePlainln("#%d %s", b.ID, b.Title)
		for _, c := range b.Columns {
			r.writePlain("  column #%-8d %s\n", c.ID, c.Title)
		}
		for _, l := range b.Lanes {
			r.writePlain("  lane   #%-8d %s\n", l.ID, l.Title)
		}
		if len(b.Lanes) == 0 {
			r.writePlain("  (no lanes, cannot receive cards)\n")
		}
	}
	return nil
}
