package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/wnghdcjfe/card/internal/collector"
	"github.com/wnghdcjfe/card/internal/config"
	"github.com/wnghdcjfe/card/internal/database"
	"github.com/wnghdcjfe/card/internal/database/cards"
	"github.com/wnghdcjfe/card/internal/database/logs"
	"github.com/wnghdcjfe/card/internal/scraper"
)

// Target is one page the scrape command should visit: either a full URL or
// a catalog idx resolved against the detail URL template.
type Target struct {
	URL string
	Idx int
}

// ScrapeCommand extracts card detail pages through a headless browser.
type ScrapeCommand struct {
	Targets      []Target
	Save         bool
	OutputDir    string
	DatabasePath string
	Visible      bool
	Delay        time.Duration
}

// NewScrapeCommand creates a new ScrapeCommand
func NewScrapeCommand() *ScrapeCommand {
	return &ScrapeCommand{}
}

// ParseFlags parses command line flags and the positional targets.
func (cmd *ScrapeCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("scrape", flag.ExitOnError)

	fs.BoolVar(&cmd.Save, "save", false, "Persist scraped cards to the database")
	fs.StringVar(&cmd.OutputDir, "output", config.DefaultOutputDir, "Directory for card-<id>.json artifacts")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file (with -save)")
	fs.BoolVar(&cmd.Visible, "visible", false, "Run the browser with a visible window")
	fs.DurationVar(&cmd.Delay, "delay", 2*time.Second, "Pause between pages when scraping a range")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s scrape [options] <target>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Scrape card detail pages and write one JSON artifact per card.\n\n")
		fmt.Fprintf(os.Stderr, "Targets:\n")
		fmt.Fprintf(os.Stderr, "  2450            a single card idx\n")
		fmt.Fprintf(os.Stderr, "  2450~2460       an idx range (also 2450-2460, or two arguments)\n")
		fmt.Fprintf(os.Stderr, "  https://...     a full detail page URL\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s scrape 2450\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s scrape -save 2450~2460\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s scrape https://www.card-gorilla.com/card/detail/2450\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	targets, err := ParseTargets(fs.Args())
	if err != nil {
		return err
	}
	cmd.Targets = targets
	return nil
}

// ParseTargets resolves the positional arguments into scrape targets.
// Accepted forms: one idx, an idx range ("2450~2460" or "2450-2460"), two
// idx arguments forming a range, or a detail page URL.
func ParseTargets(args []string) ([]Target, error) {
	switch len(args) {
	case 0:
		return nil, fmt.Errorf("a target is required (card idx, range or URL)")
	case 1:
		arg := args[0]
		if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
			return []Target{{URL: arg, Idx: scraper.ExtractIDFromURL(arg)}}, nil
		}
		if idx, err := strconv.Atoi(arg); err == nil {
			if idx <= 0 {
				return nil, fmt.Errorf("card idx must be positive, got %d", idx)
			}
			return []Target{{Idx: idx}}, nil
		}
		for _, sep := range []string{"~", "-"} {
			if strings.Contains(arg, sep) {
				parts := strings.SplitN(arg, sep, 2)
				return rangeTargets(parts[0], parts[1])
			}
		}
		return nil, fmt.Errorf("cannot interpret target %q", arg)
	case 2:
		return rangeTargets(args[0], args[1])
	default:
		return nil, fmt.Errorf("too many arguments: expected one target or a range")
	}
}

func rangeTargets(startArg, endArg string) ([]Target, error) {
	start, err := strconv.Atoi(strings.TrimSpace(startArg))
	if err != nil {
		return nil, fmt.Errorf("range start %q is not a number", startArg)
	}
	end, err := strconv.Atoi(strings.TrimSpace(endArg))
	if err != nil {
		return nil, fmt.Errorf("range end %q is not a number", endArg)
	}
	if start <= 0 || end <= 0 {
		return nil, fmt.Errorf("range bounds must be positive")
	}
	if end < start {
		return nil, fmt.Errorf("range end %d is before start %d", end, start)
	}

	targets := make([]Target, 0, end-start+1)
	for idx := start; idx <= end; idx++ {
		targets = append(targets, Target{Idx: idx})
	}
	return targets, nil
}

// Run executes the scrape command.
func (cmd *ScrapeCommand) Run() error {
	cfg := config.NewConfig()

	if err := os.MkdirAll(cmd.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ex := scraper.New(scraper.Config{
		Headless:          !cmd.Visible,
		UserAgent:         cfg.Scraper.UserAgent,
		NavTimeout:        cfg.Scraper.NavTimeout,
		ToggleWait:        cfg.Scraper.ToggleWait,
		DetailURLTemplate: cfg.Scraper.DetailURL,
		MaxScrolls:        cfg.Scraper.MaxScrolls,
		ScrollStep:        cfg.Scraper.ScrollStep,
	})

	// One database handle for the whole range.
	var coll *collector.Collector
	var db *database.Database
	if cmd.Save {
		var err error
		db, err = database.NewDatabase(cmd.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()
		coll = collector.New(nil, cards.NewRepository(db.DB), logs.NewRepository(db.DB), collector.Pacing{})
		fmt.Printf("📁 Database: %s\n", cmd.DatabasePath)
	}

	fmt.Printf("🔎 Scraping %d target(s), artifacts in %s\n", len(cmd.Targets), cmd.OutputDir)

	ctx := context.Background()
	succeeded, failed := 0, 0
	for i, target := range cmd.Targets {
		if i > 0 {
			time.Sleep(cmd.Delay)
		}
		if err := cmd.scrapeOne(ctx, ex, coll, target); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "❌ %s: %v\n", describeTarget(target), err)
			continue
		}
		succeeded++
	}

	fmt.Printf("\n✅ Done: %d scraped, %d failed\n", succeeded, failed)
	if failed > 0 && succeeded == 0 {
		return fmt.Errorf("all %d targets failed", failed)
	}
	return nil
}

func (cmd *ScrapeCommand) scrapeOne(ctx context.Context, ex *scraper.Extractor, coll *collector.Collector, target Target) error {
	url := target.URL
	if url == "" {
		url = strconv.Itoa(target.Idx)
	}

	raw, err := ex.Scrape(ctx, url, target.Idx)
	if err != nil {
		return err
	}

	idx := target.Idx
	if idx == 0 {
		if n, ok := raw["card_idx"].(int); ok {
			idx = n
		}
	}

	artifact, err := cmd.writeArtifact(idx, raw)
	if err != nil {
		return err
	}
	fmt.Printf("📄 %s\n", artifact)

	if coll != nil {
		card, err := coll.IngestScraped(ctx, rawPage{raw}, url, idx)
		if err != nil {
			return fmt.Errorf("failed to persist card: %w", err)
		}
		fmt.Printf("💾 Saved card %d (%s)\n", card.CardIdx, card.Name)
	}
	return nil
}

func (cmd *ScrapeCommand) writeArtifact(idx int, raw map[string]any) (string, error) {
	name := fmt.Sprintf("card-%d.json", idx)
	if idx == 0 {
		name = fmt.Sprintf("card-%d.json", time.Now().Unix())
	}
	path := filepath.Join(cmd.OutputDir, name)

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	return path, nil
}

// rawPage feeds an already-scraped record into the collector's ingest path,
// so the browser is not driven twice per target.
type rawPage struct {
	raw map[string]any
}

func (p rawPage) Scrape(context.Context, string, int) (map[string]any, error) {
	return p.raw, nil
}

func describeTarget(t Target) string {
	if t.URL != "" {
		return t.URL
	}
	return fmt.Sprintf("card %d", t.Idx)
}
