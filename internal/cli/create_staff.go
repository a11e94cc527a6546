package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/seatgenie/library/internal/auth"
	"github.com/seatgenie/library/internal/config"
	"github.com/seatgenie/library/internal/database/staff"
)

// PasswordEnv lets scripts pass the password without it showing up in the
// process list.
const PasswordEnv = "STAFF_PASSWORD"

// CreateStaffCommand adds a staff account for basic authentication.
type CreateStaffCommand struct {
	databaseFlags
	Username string
	Password string
	Out      io.Writer
}

func NewCreateStaffCommand(cfg *config.Config) *CreateStaffCommand {
	return &CreateStaffCommand{databaseFlags: databaseFlags{cfg: cfg}, Out: os.Stdout}
}

func (cmd *CreateStaffCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-staff", flag.ContinueOnError)
	cmd.register(fs)
	fs.StringVar(&cmd.Username, "username", "", "Staff username (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password, at least 12 characters (default: $"+PasswordEnv+")")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-staff -username <name> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a staff account allowed to modify the catalogue when AUTH_MODE=basic.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s=... %s create-staff -username librarian\n", PasswordEnv, os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" {
		return fmt.Errorf("required flag -username not provided")
	}
	if cmd.Password == "" {
		cmd.Password = os.Getenv(PasswordEnv)
	}
	if cmd.Password == "" {
		return fmt.Errorf("password not provided: use -password or set %s", PasswordEnv)
	}
	return nil
}

func (cmd *CreateStaffCommand) Run() error {
	db, err := cmd.open()
	if err != nil {
		return err
	}
	defer db.Close()

	service := auth.NewService(staff.NewRepository(db.DB), cmd.cfg.Auth.BcryptCost)
	account, err := service.CreateStaff(context.Background(), cmd.Username, cmd.Password)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.Out, "Created staff account %q (id %d)\n", account.Username, account.ID)
	return nil
}
