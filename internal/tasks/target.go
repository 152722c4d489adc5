package tasks

import (
	"fmt"

	"github.com/desertthunder/cardx/internal/models"
	"github.com/desertthunder/cardx/internal/shared"
)

// ResolveTarget validates a target placement on board.
//
// A zero laneID selects the board's first lane. A board without lanes cannot receive cards.
func ResolveTarget(board *models.Board, columnID, laneID int) (models.Location, error) {
	if board == nil {
		return models.Location{}, shared.ErrBoardNotFound
	}
	if _, ok := board.FindColumn(columnID, ""); !ok {
		return models.Location{}, fmt.Errorf("%w: %d on board %q", shared.ErrColumnNotFound, columnID, board.Title)
	}
	if len(board.Lanes) == 0 {
		return models.Location{}, fmt.Errorf("%w: %q", shared.ErrNoLanes, board.Title)
	}
	lane, ok := board.FindLane(laneID)
	if !ok {
		return models.Location{}, fmt.Errorf("%w: lane %d not on board %q", shared.ErrInvalidArgument, laneID, board.Title)
	}
	return models.Location{BoardID: board.ID, ColumnID: columnID, LaneID: lane.ID}, nil
}
