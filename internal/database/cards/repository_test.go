package cards

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/wnghdcjfe/card/internal/database"
	"github.com/wnghdcjfe/card/internal/entities"
)

// setupTestRepo creates a fresh test database and repository
func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.DB)
}

func testCard(cardIdx int, name string) *entities.Card {
	return &entities.Card{
		CardIdx:   cardIdx,
		Name:      name,
		Ranking:   cardIdx,
		Score:     3.5,
		IsVisible: 1,
		Brand: []entities.BrandRef{
			{Idx: 1, Name: "Visa", IsVisible: true},
		},
		TopBenefit: []entities.BenefitRef{
			{Idx: 1, Title: "Cashback", Tags: []string{"shopping"}},
		},
	}
}

func TestUpsert(t *testing.T) {
	repo := setupTestRepo(t)

	t.Run("creates a new card with fan-out rows", func(t *testing.T) {
		require.NoError(t, repo.Upsert(testCard(100, "Card A")))

		card, err := repo.GetByIdx(100)
		require.NoError(t, err)
		assert.Equal(t, "Card A", card.Name)
		assert.False(t, card.CreatedAt.IsZero())

		brands, err := repo.GetBrands(100)
		require.NoError(t, err)
		require.Len(t, brands, 1)
		assert.Equal(t, "Visa", brands[0].BrandName)

		benefits, err := repo.GetBenefits(100)
		require.NoError(t, err)
		require.Len(t, benefits, 1)
	})

	t.Run("second upsert updates in place", func(t *testing.T) {
		first := testCard(200, "Original Name")
		require.NoError(t, repo.Upsert(first))

		created, err := repo.GetByIdx(200)
		require.NoError(t, err)
		createdAt := created.CreatedAt

		time.Sleep(10 * time.Millisecond)

		updated := testCard(200, "Updated Name")
		updated.Score = 4.8
		updated.Brand = []entities.BrandRef{
			{Idx: 1, Name: "Visa", IsVisible: true},
			{Idx: 2, Name: "Master", IsVisible: true},
		}
		require.NoError(t, repo.Upsert(updated))

		var count int64
		repo.db.Model(&entities.Card{}).Where("card_idx = ?", 200).Count(&count)
		assert.EqualValues(t, 1, count, "upsert must not create a second row")

		card, err := repo.GetByIdx(200)
		require.NoError(t, err)
		assert.Equal(t, "Updated Name", card.Name)
		assert.InDelta(t, 4.8, card.Score, 0.001)
		assert.Equal(t, createdAt.Unix(), card.CreatedAt.Unix(), "created_at survives updates")

		brands, err := repo.GetBrands(200)
		require.NoError(t, err)
		assert.Len(t, brands, 2, "fan-out rows are replaced, not appended")
	})

	t.Run("shrinking fan-out leaves no stale rows", func(t *testing.T) {
		card := testCard(300, "Card C")
		card.TopBenefit = []entities.BenefitRef{
			{Idx: 1, Title: "First"},
			{Idx: 2, Title: "Second"},
		}
		require.NoError(t, repo.Upsert(card))

		again := testCard(300, "Card C")
		again.TopBenefit = []entities.BenefitRef{{Idx: 1, Title: "Only"}}
		require.NoError(t, repo.Upsert(again))

		benefits, err := repo.GetBenefits(300)
		require.NoError(t, err)
		require.Len(t, benefits, 1)
		assert.Equal(t, "Only", benefits[0].BenefitTitle)
	})

	t.Run("rejects a card without idx", func(t *testing.T) {
		err := repo.Upsert(&entities.Card{Name: "No Idx"})
		assert.Error(t, err)
	})
}

func TestGetByIdx(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.GetByIdx(12345)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestList(t *testing.T) {
	repo := setupTestRepo(t)

	for i := 1; i <= 5; i++ {
		card := testCard(i, "Card")
		card.Score = float64(i)
		require.NoError(t, repo.Upsert(card))
	}

	t.Run("pages and counts", func(t *testing.T) {
		result, err := repo.List(ListOptions{Page: 1, Limit: 2})
		require.NoError(t, err)
		assert.EqualValues(t, 5, result.Total)
		assert.Equal(t, 3, result.TotalPages)
		require.Len(t, result.Cards, 2)
		assert.Equal(t, 1, result.Cards[0].Ranking)
	})

	t.Run("sorts by score descending", func(t *testing.T) {
		result, err := repo.List(ListOptions{Sort: "score", Order: "desc"})
		require.NoError(t, err)
		require.NotEmpty(t, result.Cards)
		assert.InDelta(t, 5.0, result.Cards[0].Score, 0.001)
	})

	t.Run("filters by ranking range", func(t *testing.T) {
		result, err := repo.List(ListOptions{MinRank: 2, MaxRank: 4})
		require.NoError(t, err)
		assert.EqualValues(t, 3, result.Total)
	})

	t.Run("unknown sort falls back to ranking", func(t *testing.T) {
		result, err := repo.List(ListOptions{Sort: "name; DROP TABLE cards"})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Cards[0].Ranking)
	})
}

func TestSearch(t *testing.T) {
	repo := setupTestRepo(t)

	shopping := testCard(1, "Shopping Plus")
	require.NoError(t, repo.Upsert(shopping))

	travel := testCard(2, "Travel Card")
	travel.EventTitle = "Airport lounge event"
	require.NoError(t, repo.Upsert(travel))

	t.Run("matches name case-insensitively", func(t *testing.T) {
		result, err := repo.Search("shopping", 1, 20)
		require.NoError(t, err)
		require.Len(t, result.Cards, 1)
		assert.Equal(t, "Shopping Plus", result.Cards[0].Name)
	})

	t.Run("matches event title", func(t *testing.T) {
		result, err := repo.Search("lounge", 1, 20)
		require.NoError(t, err)
		require.Len(t, result.Cards, 1)
		assert.Equal(t, 2, result.Cards[0].CardIdx)
	})

	t.Run("no matches", func(t *testing.T) {
		result, err := repo.Search("nonexistent", 1, 20)
		require.NoError(t, err)
		assert.Empty(t, result.Cards)
		assert.EqualValues(t, 0, result.Total)
	})
}

func TestGetStats(t *testing.T) {
	repo := setupTestRepo(t)

	t.Run("empty catalog", func(t *testing.T) {
		stats, err := repo.GetStats()
		require.NoError(t, err)
		assert.EqualValues(t, 0, stats.TotalCards)
		assert.Zero(t, stats.AvgScore)
	})

	t.Run("aggregates scores", func(t *testing.T) {
		low := testCard(1, "Low")
		low.Score = 2.0
		high := testCard(2, "High")
		high.Score = 4.0
		require.NoError(t, repo.Upsert(low))
		require.NoError(t, repo.Upsert(high))

		stats, err := repo.GetStats()
		require.NoError(t, err)
		assert.EqualValues(t, 2, stats.TotalCards)
		assert.InDelta(t, 3.0, stats.AvgScore, 0.001)
		assert.InDelta(t, 4.0, stats.MaxScore, 0.001)
		assert.InDelta(t, 2.0, stats.MinScore, 0.001)
		require.NotNil(t, stats.LastUpdate)
	})
}
