package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/wnghdcjfe/card/internal/cardgorilla"
	"github.com/wnghdcjfe/card/internal/collector"
	"github.com/wnghdcjfe/card/internal/config"
	"github.com/wnghdcjfe/card/internal/database"
	"github.com/wnghdcjfe/card/internal/database/cards"
	"github.com/wnghdcjfe/card/internal/database/logs"
)

// CollectCommand runs one collection against the catalog API.
type CollectCommand struct {
	Mode         string
	Term         string
	CardGb       string
	Limit        int
	Chart        string
	CardIdx      int
	DatabasePath string
}

// NewCollectCommand creates a new CollectCommand
func NewCollectCommand() *CollectCommand {
	return &CollectCommand{}
}

// ParseFlags parses command line flags
func (cmd *CollectCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("collect", flag.ExitOnError)

	fs.StringVar(&cmd.Mode, "mode", "ranking", "Collection mode: ranking, list or detail")
	fs.StringVar(&cmd.Term, "term", "weekly", "Ranking term: daily, weekly or monthly")
	fs.StringVar(&cmd.CardGb, "card-gb", "CRD", "Card kind: CRD (credit) or CHK (check)")
	fs.IntVar(&cmd.Limit, "limit", 100, "Maximum cards per ranking run")
	fs.StringVar(&cmd.Chart, "chart", "top100", "Ranking chart identifier")
	fs.IntVar(&cmd.CardIdx, "card", 0, "Card idx for detail mode")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s collect [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Collect cards from the catalog API into the local database.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s collect\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s collect -mode list\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s collect -mode detail -card 2450\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s collect -term monthly -limit 500\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Mode == "detail" && cmd.CardIdx <= 0 {
		return fmt.Errorf("detail mode requires -card with a positive idx")
	}
	return nil
}

// Run executes the collect command
func (cmd *CollectCommand) Run() error {
	cfg := config.NewConfig()

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	client := cardgorilla.NewClient(
		cardgorilla.WithBaseURL(cfg.CardGorilla.BaseURL),
		cardgorilla.WithTimeout(cfg.CardGorilla.RequestTimeout),
		cardgorilla.WithRetry(cfg.CardGorilla.RetryAttempts, cfg.CardGorilla.RetryDelay),
	)

	coll := collector.New(client, cards.NewRepository(db.DB), logs.NewRepository(db.DB), collector.Pacing{
		ItemDelay:     cfg.Collector.ItemDelay,
		ListItemDelay: cfg.Collector.ListItemDelay,
		PageDelay:     cfg.Collector.PageDelay,
	})

	fmt.Printf("🦍 Collecting (mode=%s)\n", cmd.Mode)
	fmt.Printf("📁 Database: %s\n", cmd.DatabasePath)

	ctx := context.Background()
	switch cmd.Mode {
	case "ranking":
		entry, err := coll.CollectRanking(ctx, cardgorilla.RankingOptions{
			Term:   cmd.Term,
			CardGb: cmd.CardGb,
			Limit:  cmd.Limit,
			Chart:  cmd.Chart,
		})
		if err != nil {
			return err
		}
		printRunSummary(entry.TotalCards, entry.SuccessCount, entry.ErrorCount)
	case "list":
		entry, err := coll.CollectList(ctx, cardgorilla.ListOptions{
			CardGb: cmd.CardGb,
			Limit:  cmd.Limit,
		})
		if err != nil {
			return err
		}
		printRunSummary(entry.TotalCards, entry.SuccessCount, entry.ErrorCount)
	case "detail":
		ok, err := coll.CollectDetail(ctx, cmd.CardIdx)
		if err != nil {
			return err
		}
		if ok {
			fmt.Printf("\n✅ Card %d collected\n", cmd.CardIdx)
		}
	default:
		return fmt.Errorf("unknown mode %q: use ranking, list or detail", cmd.Mode)
	}

	return nil
}

func printRunSummary(total, success, errors int) {
	fmt.Printf("\n✅ Run complete: %d total, %d saved, %d failed\n", total, success, errors)
}
