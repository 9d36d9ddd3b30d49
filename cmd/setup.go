package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/desertthunder/plx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the default configuration file to --config.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)

	r.writePlain("✓ Config written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Generate a session key with 'plx setup key'\n")
	r.writePlain("2. Export it as %s (or set session.key)\n", shared.SessionKeyEnv)
	r.writePlain("3. Run 'plx auth login'\n")
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config := r.config
	if config == nil {
		config = shared.DefaultConfig()
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.OpenMigrated(ctx, config.Database)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return r.writePlain("✓ Database ready at %s\n", config.Database.Path)
}

// SetupKey prints a new random session key.
func (r *Runner) SetupKey(ctx context.Context, cmd *cli.Command) error {
	key, err := newSessionKey()
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", key)
}

func newSessionKey() (string, error) {
	buf := make([]byte, shared.MinSessionKeyLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
