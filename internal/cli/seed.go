package cli

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/entrypoint"
)

// SeedCommand fills an empty database with the demo accounts and catalog.
type SeedCommand struct {
	DatabasePath string

	cfg    *config.Config
	logger *zap.Logger
}

func NewSeedCommand(cfg *config.Config, logger *zap.Logger) *SeedCommand {
	return &SeedCommand{cfg: cfg, logger: logger}
}

func (cmd *SeedCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", cmd.cfg.Database.Path, "Path to the library database")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create the demo users and books when the database has no users.\n")
		fmt.Fprintf(os.Stderr, "The accounts get SEED_PASSWORD, or a generated password that is logged once.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *SeedCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath, cmd.logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return entrypoint.Seed(db, cmd.cfg, cmd.logger)
}
