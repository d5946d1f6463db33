package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/wnghdcjfe/card/internal/database/cards"
)

type CardsController struct {
	store CardReader
}

func NewCardsController(store CardReader) *CardsController {
	return &CardsController{store: store}
}

// ListCards returns a page of the catalog. Supports page, limit, sort,
// order and a ranking range.
func (controller *CardsController) ListCards(c *gin.Context) {
	opts := cards.ListOptions{
		Page:    queryInt(c, "page", 1),
		Limit:   queryInt(c, "limit", 20),
		Sort:    c.DefaultQuery("sort", "ranking"),
		Order:   c.DefaultQuery("order", "asc"),
		MinRank: queryInt(c, "min_ranking", 0),
		MaxRank: queryInt(c, "max_ranking", 0),
	}

	result, err := controller.store.List(opts)
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, result)
}

// GetCard returns one card by its catalog idx, with its brand and benefit
// rows attached.
func (controller *CardsController) GetCard(c *gin.Context) {
	cardIdx, err := strconv.Atoi(c.Param("idx"))
	if err != nil || cardIdx <= 0 {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "card idx must be a positive integer"})
		return
	}

	card, err := controller.store.GetByIdx(cardIdx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.IndentedJSON(http.StatusNotFound, gin.H{"error": "card not found"})
			return
		}
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	brands, err := controller.store.GetBrands(cardIdx)
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	benefits, err := controller.store.GetBenefits(cardIdx)
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{
		"card":     card,
		"brands":   brands,
		"benefits": benefits,
	})
}

// SearchCards matches cards by name or event title.
func (controller *CardsController) SearchCards(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "q query parameter is required"})
		return
	}

	result, err := controller.store.Search(query, queryInt(c, "page", 1), queryInt(c, "limit", 20))
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, result)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
