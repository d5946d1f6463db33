package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/wnghdcjfe/card/internal/config"
	"github.com/wnghdcjfe/card/internal/database"
	"github.com/wnghdcjfe/card/internal/database/cards"
	"github.com/wnghdcjfe/card/internal/database/logs"
)

// StatsCommand prints the catalog aggregate and the recent collection runs.
type StatsCommand struct {
	DatabasePath string
	Runs         int
}

// NewStatsCommand creates a new StatsCommand
func NewStatsCommand() *StatsCommand {
	return &StatsCommand{}
}

// ParseFlags parses command line flags
func (cmd *StatsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.IntVar(&cmd.Runs, "runs", 10, "Number of recent collection runs to show")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s stats [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Show catalog statistics and recent collection runs.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

// Run executes the stats command
func (cmd *StatsCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	stats, err := cards.NewRepository(db.DB).GetStats()
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	fmt.Println("📊 Card Catalog")
	fmt.Println("===============")
	fmt.Printf("Cards:      %d\n", stats.TotalCards)
	fmt.Printf("Avg score:  %.2f\n", stats.AvgScore)
	fmt.Printf("Max score:  %.2f\n", stats.MaxScore)
	fmt.Printf("Min score:  %.2f\n", stats.MinScore)
	if stats.LastUpdate != nil {
		fmt.Printf("Updated:    %s\n", stats.LastUpdate.Format("2006-01-02 15:04:05"))
	}

	recent, err := logs.NewRepository(db.DB).Recent(cmd.Runs)
	if err != nil {
		return fmt.Errorf("failed to read collection runs: %w", err)
	}

	if len(recent) == 0 {
		fmt.Println("\nNo collection runs recorded yet.")
		return nil
	}

	fmt.Printf("\nRecent runs:\n")
	for _, run := range recent {
		fmt.Printf("  %s  %-8s total=%-4d ok=%-4d err=%-3d (%s)\n",
			run.CollectionDate, run.Term, run.TotalCards, run.SuccessCount, run.ErrorCount, run.RunID[:8])
	}
	return nil
}
