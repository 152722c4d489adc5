package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/cardx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example config to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = "config.toml"
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set [source] and [target] domains and space IDs\n")
	r.writePlain("2. Add API tokens, or export %s and %s\n", shared.SourceTokenEnv, shared.TargetTokenEnv)
	r.writePlain("3. Run 'cardx setup check' to reach both instances\n")
	return nil
}

// SetupDatabase initializes the database and runs migrations.
//
// A missing config file is created from the template first.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if r.configPath != "" {
		if _, err := os.Stat(r.configPath); err != nil {
			r.logger.Info("config file not found, creating from template", "path", r.configPath)
			if err := shared.CreateConfigFile(r.configPath); err != nil {
				r.logger.Warn("failed to create config file, using defaults", "error", err)
			} else if config, err := shared.LoadConfig(r.configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
			} else {
				r.config = config
			}
		}
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return nil
}

// SetupCheck validates the config and lists the configured space on both instances.
func (r *Runner) SetupCheck(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	r.writePlainHeader("Instance check")
	failed := 0
	for _, side := range []Side{SourceSide, TargetSide} {
		svc, err := r.service(ctx, side)
		if err != nil {
			return err
		}

		boards, err := svc.Boards(ctx, r.instance(side).SpaceID)
		if err != nil {
			failed++
			r.logger.Error("instance unreachable", "side", side, "domain", r.domain(side), "error", err)
			r.writePlain("✗ %-6s %s: %v\n", side, r.domain(side), err)
			continue
		}
		r.writePlain("✓ %-6s %s: %d boards in space %d\n", side, r.domain(side), len(boards), r.instance(side).SpaceID)
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of 2 instances failed", shared.ErrServiceUnavailable, failed)
	}
	return nil
}
