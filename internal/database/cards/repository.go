// Package cards provides the card store: identity-keyed idempotent upserts,
// fan-out of nested brand/benefit/corp data into auxiliary tables, and the
// query surface consumed by the HTTP controllers.
package cards

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wnghdcjfe/card/internal/entities"
)

// Repository handles all card table operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new cards repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// upsertColumns is the update set applied on card_idx conflict. created_at is
// deliberately absent so the first write's timestamp survives every update;
// updated_at is refreshed from the insert values.
var upsertColumns = []string{
	"name", "brand", "top_benefit", "annual_fee_basic", "score", "card_img",
	"event_title", "ranking", "compared", "is_visible", "pr_view_mode",
	"corp", "detail_sections", "updated_at",
}

// Upsert writes the card keyed by card_idx: insert-if-absent, else replace,
// as a single conflict-clause statement backed by the unique index, never a
// read followed by a conditional write. The nested brand/benefit/corp rows
// are deleted and reinserted in the same transaction so stale rows from a
// previous version cannot survive, and the fan-out cannot be observed
// half-done.
func (r *Repository) Upsert(card *entities.Card) error {
	if card.CardIdx == 0 {
		return fmt.Errorf("card has no card_idx")
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "card_idx"}},
			DoUpdates: clause.AssignmentColumns(upsertColumns),
		}).Create(card).Error
		if err != nil {
			return fmt.Errorf("upsert card %d: %w", card.CardIdx, err)
		}

		if err := r.replaceFanOut(tx, card); err != nil {
			return fmt.Errorf("fan out card %d: %w", card.CardIdx, err)
		}
		return nil
	})
}

// replaceFanOut clears and rebuilds the auxiliary rows for one card.
func (r *Repository) replaceFanOut(tx *gorm.DB, card *entities.Card) error {
	if err := tx.Where("card_idx = ?", card.CardIdx).Delete(&entities.CardBrand{}).Error; err != nil {
		return err
	}
	if err := tx.Where("card_idx = ?", card.CardIdx).Delete(&entities.CardBenefit{}).Error; err != nil {
		return err
	}
	if err := tx.Where("card_idx = ?", card.CardIdx).Delete(&entities.CardCorp{}).Error; err != nil {
		return err
	}

	for _, brand := range card.Brand {
		row := entities.CardBrand{
			CardIdx:      card.CardIdx,
			BrandNo:      brand.No,
			BrandIdx:     brand.Idx,
			BrandCode:    brand.Code,
			BrandName:    brand.Name,
			BrandLogoURL: brand.LogoImg.URL,
			IsVisible:    brand.IsVisible,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}

	for _, benefit := range card.TopBenefit {
		row := entities.CardBenefit{
			CardIdx:        card.CardIdx,
			BenefitIdx:     benefit.Idx,
			BenefitTitle:   benefit.Title,
			BenefitTags:    benefit.Tags,
			BenefitLogoURL: benefit.LogoImg.URL,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}

	if card.Corp.Name != "" || card.Corp.Idx != 0 {
		row := entities.CardCorp{
			CardIdx:     card.CardIdx,
			CorpIdx:     card.Corp.Idx,
			CorpName:    card.Corp.Name,
			CorpNameEng: card.Corp.NameEng,
			CorpLogoURL: card.Corp.LogoImg.URL,
			CorpColor:   card.Corp.Color,
			IsEvent:     card.Corp.IsEvent,
			PrDetail:    card.Corp.PrDetail,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}

	return nil
}

// GetByIdx retrieves a card by its upstream identity.
func (r *Repository) GetByIdx(cardIdx int) (*entities.Card, error) {
	var card entities.Card
	err := r.db.Where("card_idx = ?", cardIdx).First(&card).Error
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// ListOptions scopes a paged card listing.
type ListOptions struct {
	Page    int
	Limit   int
	Sort    string // ranking, score, updated_at
	Order   string // asc, desc
	MinRank int
	MaxRank int
}

// ListResult is one page of cards plus paging bookkeeping.
type ListResult struct {
	Cards      []entities.Card `json:"cards"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
}

var sortableColumns = map[string]string{
	"ranking":    "ranking",
	"score":      "score",
	"updated_at": "updated_at",
	"card_idx":   "card_idx",
}

// List returns one page of cards with optional ranking-range filter.
func (r *Repository) List(opts ListOptions) (*ListResult, error) {
	if opts.Page <= 0 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}

	column, ok := sortableColumns[opts.Sort]
	if !ok {
		column = "ranking"
	}
	order := "ASC"
	if strings.EqualFold(opts.Order, "desc") {
		order = "DESC"
	}

	query := r.db.Model(&entities.Card{})
	if opts.MinRank > 0 {
		query = query.Where("ranking >= ?", opts.MinRank)
	}
	if opts.MaxRank > 0 {
		query = query.Where("ranking <= ?", opts.MaxRank)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var cards []entities.Card
	err := query.Order(column + " " + order).
		Limit(opts.Limit).
		Offset((opts.Page - 1) * opts.Limit).
		Find(&cards).Error
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(opts.Limit) - 1) / int64(opts.Limit))
	return &ListResult{
		Cards:      cards,
		Total:      total,
		Page:       opts.Page,
		Limit:      opts.Limit,
		TotalPages: totalPages,
	}, nil
}

// Search finds cards whose name or event title matches the query
// (case-insensitive partial match), best score first.
func (r *Repository) Search(query string, page, limit int) (*ListResult, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	pattern := "%" + query + "%"
	base := r.db.Model(&entities.Card{}).
		Where("LOWER(name) LIKE LOWER(?) OR LOWER(event_title) LIKE LOWER(?)", pattern, pattern)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	var cards []entities.Card
	err := base.Order("score DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&cards).Error
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ListResult{
		Cards:      cards,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// Stats is the card-table aggregate.
type Stats struct {
	TotalCards int64      `json:"total_cards"`
	AvgScore   float64    `json:"avg_score"`
	MaxScore   float64    `json:"max_score"`
	MinScore   float64    `json:"min_score"`
	LastUpdate *time.Time `json:"last_update"`
}

// GetStats computes the aggregate over all stored cards.
func (r *Repository) GetStats() (*Stats, error) {
	var stats Stats
	err := r.db.Model(&entities.Card{}).
		Select("COUNT(*) AS total_cards, COALESCE(AVG(score), 0) AS avg_score, COALESCE(MAX(score), 0) AS max_score, COALESCE(MIN(score), 0) AS min_score, MAX(updated_at) AS last_update").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetBrands returns the fan-out brand rows for one card.
func (r *Repository) GetBrands(cardIdx int) ([]entities.CardBrand, error) {
	var rows []entities.CardBrand
	err := r.db.Where("card_idx = ?", cardIdx).Order("brand_no ASC").Find(&rows).Error
	return rows, err
}

// GetBenefits returns the fan-out benefit rows for one card.
func (r *Repository) GetBenefits(cardIdx int) ([]entities.CardBenefit, error) {
	var rows []entities.CardBenefit
	err := r.db.Where("card_idx = ?", cardIdx).Order("benefit_idx ASC").Find(&rows).Error
	return rows, err
}
