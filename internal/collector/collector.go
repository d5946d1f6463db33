// Package collector orchestrates the collection runs: fetch (API or rendered
// page) → validate → normalize → upsert → tally, with per-item failure
// isolation and inter-request pacing. Items are processed strictly
// sequentially; the pacing delays exist to respect upstream rate limits and
// paginated mode is inherently ordered.
package collector

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/wnghdcjfe/card/internal/cardgorilla"
	"github.com/wnghdcjfe/card/internal/entities"
	"github.com/wnghdcjfe/card/internal/normalize"
)

// Source is the upstream catalog API surface the collector consumes.
type Source interface {
	Ranking(ctx context.Context, opts cardgorilla.RankingOptions) ([]map[string]any, error)
	CardDetail(ctx context.Context, cardIdx int) (map[string]any, error)
	Cards(ctx context.Context, opts cardgorilla.ListOptions) ([]map[string]any, error)
}

// PageSource produces a raw record from a rendered detail page.
type PageSource interface {
	Scrape(ctx context.Context, target string, idHint int) (map[string]any, error)
}

// CardStore persists canonical cards.
type CardStore interface {
	Upsert(card *entities.Card) error
}

// LogStore persists collection-run audit records.
type LogStore interface {
	Append(entry *entities.CollectionLog) error
}

// Pacing sets the artificial delays between requests. They manage upstream
// load, not correctness.
type Pacing struct {
	ItemDelay     time.Duration // between items in ranked mode
	ListItemDelay time.Duration // between items in paginated mode
	PageDelay     time.Duration // between page fetches, larger than item delay
}

// DefaultPacing mirrors what the upstream tolerates.
func DefaultPacing() Pacing {
	return Pacing{
		ItemDelay:     100 * time.Millisecond,
		ListItemDelay: 50 * time.Millisecond,
		PageDelay:     500 * time.Millisecond,
	}
}

// Collector composes a Source, the stores and the pacing policy into the
// three run modes.
type Collector struct {
	source Source
	cards  CardStore
	logs   LogStore
	pacing Pacing
}

// New creates a collector.
func New(source Source, cards CardStore, logs LogStore, pacing Pacing) *Collector {
	return &Collector{
		source: source,
		cards:  cards,
		logs:   logs,
		pacing: pacing,
	}
}

// CollectRanking runs the ranked-snapshot mode: one bounded ranking call,
// one pass over the returned items. Exactly one CollectionLog is written at
// the end, whatever the per-item outcomes; only an unreachable API aborts
// the run without a log.
func (c *Collector) CollectRanking(ctx context.Context, opts cardgorilla.RankingOptions) (*entities.CollectionLog, error) {
	if opts.Term == "" {
		opts.Term = "weekly"
	}
	if opts.CardGb == "" {
		opts.CardGb = "CRD"
	}
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	if opts.Chart == "" {
		opts.Chart = "top100"
	}

	entry := c.newLog(opts.Term, opts.CardGb, opts.Limit, opts.Chart)

	log.Printf("Collector: ranking run started (term=%s limit=%d)", opts.Term, opts.Limit)

	items, err := c.source.Ranking(ctx, opts)
	if err != nil {
		var transient *cardgorilla.TransientError
		if errors.As(err, &transient) {
			// The API was unreachable at startup: fatal to the run.
			return nil, err
		}
		// Malformed payload ends the batch before it starts; the run still
		// terminates with its log.
		c.appendLog(entry)
		return entry, err
	}

	entry.TotalCards = len(items)

	for i, raw := range items {
		if err := c.processItem(raw, true); err != nil {
			entry.ErrorCount++
			log.Printf("Collector: item %d/%d failed: %v", i+1, len(items), err)
			continue
		}
		entry.SuccessCount++
		if err := pause(ctx, c.pacing.ItemDelay); err != nil {
			break
		}
	}

	c.appendLog(entry)
	log.Printf("Collector: ranking run finished (total=%d success=%d errors=%d)",
		entry.TotalCards, entry.SuccessCount, entry.ErrorCount)

	return entry, nil
}

// CollectList runs the paginated full-catalog mode: pages from 1 until a
// page comes back empty, malformed or failing. Counts accumulate across
// pages and one CollectionLog summarizes the whole run.
func (c *Collector) CollectList(ctx context.Context, opts cardgorilla.ListOptions) (*entities.CollectionLog, error) {
	if opts.Page <= 0 {
		opts.Page = 1
	}
	if opts.CardGb == "" {
		opts.CardGb = "CRD"
	}

	entry := c.newLog("paged", opts.CardGb, opts.Limit, "catalog")
	firstPage := opts.Page

	log.Printf("Collector: paginated run started (page=%d)", opts.Page)

	for {
		items, err := c.source.Cards(ctx, opts)
		if err != nil {
			var transient *cardgorilla.TransientError
			if errors.As(err, &transient) && opts.Page == firstPage {
				// Unreachable before anything was collected: fatal.
				return nil, err
			}
			// A malformed or failing page ends the run like an empty page,
			// counted as one error.
			entry.ErrorCount++
			log.Printf("Collector: page %d failed, stopping: %v", opts.Page, err)
			break
		}
		if len(items) == 0 {
			break
		}

		entry.TotalCards += len(items)
		for _, raw := range items {
			if err := c.processItem(raw, true); err != nil {
				entry.ErrorCount++
				log.Printf("Collector: item on page %d failed: %v", opts.Page, err)
				continue
			}
			entry.SuccessCount++
			if err := pause(ctx, c.pacing.ListItemDelay); err != nil {
				c.appendLog(entry)
				return entry, err
			}
		}

		opts.Page++
		if err := pause(ctx, c.pacing.PageDelay); err != nil {
			break
		}
	}

	c.appendLog(entry)
	log.Printf("Collector: paginated run finished (total=%d success=%d errors=%d)",
		entry.TotalCards, entry.SuccessCount, entry.ErrorCount)

	return entry, nil
}

// CollectDetail runs the single-detail mode against the API: one detail
// call, normalize, upsert. An unreachable API aborts without a log or a
// document; any later failure is tallied into the run's log.
func (c *Collector) CollectDetail(ctx context.Context, cardIdx int) (bool, error) {
	entry := c.newLog("detail", "CRD", 1, "detail")
	entry.TotalCards = 1

	raw, err := c.source.CardDetail(ctx, cardIdx)
	if err != nil {
		var transient *cardgorilla.TransientError
		if errors.As(err, &transient) {
			return false, err
		}
		entry.ErrorCount = 1
		c.appendLog(entry)
		return false, err
	}

	if err := c.processItem(raw, false); err != nil {
		entry.ErrorCount = 1
		c.appendLog(entry)
		return false, err
	}

	entry.SuccessCount = 1
	c.appendLog(entry)
	return true, nil
}

// IngestScraped runs one scraped page through the shared normalize and
// upsert path. Validation is best-effort here: a scraped record missing
// ranking or score is tolerated and defaulted.
func (c *Collector) IngestScraped(ctx context.Context, pages PageSource, target string, idHint int) (*entities.Card, error) {
	raw, err := pages.Scrape(ctx, target, idHint)
	if err != nil {
		return nil, err
	}

	card := normalize.Card(raw)
	if card.CardIdx == 0 && idHint > 0 {
		card.CardIdx = idHint
	}

	if err := c.cards.Upsert(&card); err != nil {
		return nil, err
	}
	return &card, nil
}

// processItem is the shared per-item step: validate (strict paths only),
// normalize, upsert.
func (c *Collector) processItem(raw map[string]any, strict bool) error {
	if strict {
		if err := normalize.Validate(raw); err != nil {
			return err
		}
	}
	card := normalize.Card(raw)
	return c.cards.Upsert(&card)
}

func (c *Collector) newLog(term, cardGb string, limit int, chart string) *entities.CollectionLog {
	return &entities.CollectionLog{
		RunID:          uuid.New().String(),
		CollectionDate: time.Now().Format("2006-01-02"),
		Term:           term,
		CardGb:         cardGb,
		LimitCount:     limit,
		ChartType:      chart,
	}
}

// appendLog persists the run summary. A log-write failure is reported but
// cannot retroactively fail the collection itself.
func (c *Collector) appendLog(entry *entities.CollectionLog) {
	if err := c.logs.Append(entry); err != nil {
		log.Printf("Collector: failed to save collection log: %v", err)
	}
}

// pause waits for the pacing delay or the context, whichever ends first.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
