package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/cardx/internal/services"
	"github.com/desertthunder/cardx/internal/shared"
	"github.com/urfave/cli/v3"
)

// callAPI sends one request through the side's authenticated, rate-limited client.
func (r *Runner) callAPI(ctx context.Context, cmd *cli.Command, req services.Request) (json.RawMessage, error) {
	if req.Path == "" {
		return nil, fmt.Errorf("%w: API path, e.g. spaces/1/boards", shared.ErrMissingArgument)
	}

	side, err := parseSide(cmd.String("side"))
	if err != nil {
		return nil, err
	}
	t, err := r.transport(ctx, side)
	if err != nil {
		return nil, err
	}

	r.logger.Info(req.Method+" request", "side", side, "path", req.Path)

	var resp json.RawMessage
	if err := t.Do(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	return resp, nil
}

// APIGet makes a direct GET request to an instance
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	resp, err := r.callAPI(ctx, cmd, services.Request{Method: http.MethodGet, Path: cmd.StringArg("path")})
	if err != nil {
		return err
	}
	return r.writeRawJSON(resp, cmd.Bool("pretty"))
}

// APIPost makes a direct POST request to an instance
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	data := cmd.String("data")
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}
	if !json.Valid([]byte(data)) {
		return fmt.Errorf("%w: data is not valid JSON", shared.ErrInvalidInput)
	}

	resp, err := r.callAPI(ctx, cmd, services.Request{
		Method: http.MethodPost,
		Path:   cmd.StringArg("path"),
		Body:   json.RawMessage(data),
	})
	if err != nil {
		return err
	}
	return r.writeRawJSON(resp, true)
}
