package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/lending"
)

// OverdueCommand prints the loans that are past their due date.
type OverdueCommand struct {
	DatabasePath string

	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
}

func NewOverdueCommand(cfg *config.Config, logger *zap.Logger) *OverdueCommand {
	return &OverdueCommand{cfg: cfg, logger: logger, out: os.Stdout}
}

func (cmd *OverdueCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("overdue", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", cmd.cfg.Database.Path, "Path to the library database")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s overdue [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Print every active loan whose due date has passed, one per line.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *OverdueCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath, cmd.logger)
	if err != nil {
		return err
	}
	defer db.Close()

	loans, err := lending.NewService(db.DB, cmd.cfg.Lending, cmd.logger).OverdueLoans(context.Background())
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, loan := range loans {
		fmt.Fprintln(cmd.out, formatOverdue(loan, now))
	}
	if len(loans) == 0 {
		fmt.Fprintln(cmd.out, "No overdue loans")
	}
	return nil
}

func formatOverdue(loan lending.LoanView, now time.Time) string {
	title, reader := fmt.Sprintf("book %d", loan.BookID), fmt.Sprintf("user %d", loan.UserID)
	if loan.Book != nil {
		title = fmt.Sprintf("%q by %s", loan.Book.Title, loan.Book.Author)
	}
	if loan.User != nil {
		reader = fmt.Sprintf("%s <%s>", loan.User.FullName, loan.User.Email)
	}
	days := int(now.Sub(loan.DueAt).Hours() / 24)
	return fmt.Sprintf("loan %d: %s held by %s, due %s (%d days overdue)",
		loan.ID, title, reader, loan.DueAt.Format("2006-01-02"), days)
}
