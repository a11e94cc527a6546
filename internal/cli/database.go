package cli

import (
	"flag"

	"github.com/seatgenie/library/internal/config"
	"github.com/seatgenie/library/internal/database"
	"github.com/seatgenie/library/internal/entrypoint"
)

// databaseFlags are shared by every command that touches the database.
// Defaults come from the environment so the CLI and the server agree.
type databaseFlags struct {
	cfg *config.Config
}

func (d *databaseFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&d.cfg.Database.Driver, "driver", d.cfg.Database.Driver, "Database driver: sqlite or postgres")
	fs.StringVar(&d.cfg.Database.Path, "db", d.cfg.Database.Path, "Path to the SQLite database file")
	fs.StringVar(&d.cfg.Database.DSN, "dsn", d.cfg.Database.DSN, "PostgreSQL connection string")
}

func (d *databaseFlags) open() (*database.Database, error) {
	return entrypoint.OpenDatabase(d.cfg)
}
