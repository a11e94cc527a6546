package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/seatgenie/library/internal/config"
	"github.com/seatgenie/library/internal/demo"
)

// SeedCommand fills an empty database with a demo catalogue and loan history.
type SeedCommand struct {
	databaseFlags
	Out io.Writer
	now func() time.Time
}

func NewSeedCommand(cfg *config.Config) *SeedCommand {
	return &SeedCommand{
		databaseFlags: databaseFlags{cfg: cfg},
		Out:           os.Stdout,
		now:           time.Now,
	}
}

func (cmd *SeedCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	cmd.register(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Load demo authors, members, books and loans into an empty database.\n")
		fmt.Fprintf(os.Stderr, "Loans are dated relative to today, so some of them are overdue.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *SeedCommand) Run() error {
	db, err := cmd.open()
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := demo.Seed(context.Background(), db.DB, cmd.now().UTC())
	if errors.Is(err, demo.ErrNotEmpty) {
		return fmt.Errorf("refusing to seed: %w", err)
	}
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	fmt.Fprintf(cmd.Out, "Seeded %d authors, %d members, %d books and %d loans\n",
		result.Authors, result.Members, result.Books, result.Loans)
	return nil
}
