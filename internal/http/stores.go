package http

import (
	"github.com/wnghdcjfe/card/internal/database/cards"
	"github.com/wnghdcjfe/card/internal/entities"
)

// Each controller declares the narrow store surface it needs; the gorm
// repositories satisfy all of them.

// CardReader provides read access to stored cards.
type CardReader interface {
	List(opts cards.ListOptions) (*cards.ListResult, error)
	GetByIdx(cardIdx int) (*entities.Card, error)
	Search(query string, page, limit int) (*cards.ListResult, error)
	GetBrands(cardIdx int) ([]entities.CardBrand, error)
	GetBenefits(cardIdx int) ([]entities.CardBenefit, error)
}

// StatsReader provides the aggregate view.
type StatsReader interface {
	GetStats() (*cards.Stats, error)
}

// LogReader provides read access to the collection audit log.
type LogReader interface {
	Recent(limit int) ([]entities.CollectionLog, error)
}

// TaskEnqueuer enqueues background collection runs.
type TaskEnqueuer interface {
	EnqueueCollect(mode, term, cardGb string, limit int, chart string, cardIdx int) error
}
