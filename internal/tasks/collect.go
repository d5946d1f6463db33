package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/wnghdcjfe/card/internal/cardgorilla"
	"github.com/wnghdcjfe/card/internal/collector"
)

// CollectTask runs one collection in the background. Mode selects between a
// ranked snapshot, a full paginated walk or a single detail fetch.
type CollectTask struct {
	Mode    string `json:"mode"` // "ranking", "list" or "detail"
	Term    string `json:"term,omitempty"`
	CardGb  string `json:"card_gb,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Chart   string `json:"chart,omitempty"`
	CardIdx int    `json:"card_idx,omitempty"`
}

// Config returns the queue configuration for collection tasks.
func (t CollectTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "collect_cards",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CollectProcessor creates the processor function for CollectTask.
func CollectProcessor(c *collector.Collector) backlite.QueueProcessor[CollectTask] {
	return func(ctx context.Context, task CollectTask) error {
		switch task.Mode {
		case "", "ranking":
			entry, err := c.CollectRanking(ctx, cardgorilla.RankingOptions{
				Term:   task.Term,
				CardGb: task.CardGb,
				Limit:  task.Limit,
				Chart:  task.Chart,
			})
			if err != nil {
				return fmt.Errorf("ranking collection: %w", err)
			}
			log.Printf("[TASK] Ranking collection done (success=%d errors=%d)",
				entry.SuccessCount, entry.ErrorCount)
			return nil
		case "list":
			entry, err := c.CollectList(ctx, cardgorilla.ListOptions{
				CardGb: task.CardGb,
				Limit:  task.Limit,
			})
			if err != nil {
				return fmt.Errorf("paginated collection: %w", err)
			}
			log.Printf("[TASK] Paginated collection done (success=%d errors=%d)",
				entry.SuccessCount, entry.ErrorCount)
			return nil
		case "detail":
			if task.CardIdx <= 0 {
				return fmt.Errorf("detail collection requires a card idx")
			}
			if _, err := c.CollectDetail(ctx, task.CardIdx); err != nil {
				return fmt.Errorf("detail collection for card %d: %w", task.CardIdx, err)
			}
			return nil
		default:
			return fmt.Errorf("unknown collection mode %q", task.Mode)
		}
	}
}

// NewCollectQueue creates the backlite queue for collection tasks.
func NewCollectQueue(c *collector.Collector) backlite.Queue {
	return backlite.NewQueue(CollectProcessor(c))
}
