package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Run("accepts a complete record", func(t *testing.T) {
		raw := map[string]any{"card_idx": 1, "name": "Card", "ranking": 3}
		assert.NoError(t, Validate(raw))
	})

	t.Run("accepts legacy idx key", func(t *testing.T) {
		raw := map[string]any{"idx": 1, "name": "Card", "ranking": 3}
		assert.NoError(t, Validate(raw))
	})

	t.Run("reports the missing field", func(t *testing.T) {
		raw := map[string]any{"card_idx": 1, "name": "Card"}
		err := Validate(raw)
		require.Error(t, err)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "ranking", verr.Field)
	})

	t.Run("nil value counts as missing", func(t *testing.T) {
		raw := map[string]any{"card_idx": 1, "name": nil, "ranking": 3}
		err := Validate(raw)
		require.Error(t, err)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "name", verr.Field)
	})
}

func TestParseField(t *testing.T) {
	t.Run("decodes JSON array strings", func(t *testing.T) {
		v := ParseField(`[{"name":"Visa"}]`)
		arr, ok := v.([]any)
		require.True(t, ok)
		require.Len(t, arr, 1)
	})

	t.Run("decodes JSON object strings", func(t *testing.T) {
		v := ParseField(`{"name":"Shinhan"}`)
		_, ok := v.(map[string]any)
		assert.True(t, ok)
	})

	t.Run("keeps plain text unchanged", func(t *testing.T) {
		assert.Equal(t, "not json at all", ParseField("not json at all"))
	})

	t.Run("keeps bare numbers as strings", func(t *testing.T) {
		assert.Equal(t, "42", ParseField("42"))
	})

	t.Run("passes non-strings through", func(t *testing.T) {
		assert.Equal(t, 7, ParseField(7))
	})
}

func TestToStringSlice(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want []string
	}{
		{"nil becomes empty", nil, []string{}},
		{"plain string becomes singleton", "img.png", []string{"img.png"}},
		{"JSON array string decodes", `["a.png","b.png"]`, []string{"a.png", "b.png"}},
		{"any slice stringifies", []any{"a", 2.0, true}, []string{"a", "2", "true"}},
		{"string slice copies", []string{"x", "y"}, []string{"x", "y"}},
		{"scalar becomes singleton", 3.5, []string{"3.5"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ToStringSlice(tc.in))
		})
	}

	t.Run("idempotent", func(t *testing.T) {
		first := ToStringSlice(`["a.png","b.png"]`)
		second := ToStringSlice(first)
		assert.Equal(t, first, second)
	})
}

func TestCard(t *testing.T) {
	t.Run("full record", func(t *testing.T) {
		raw := map[string]any{
			"card_idx":         2450.0,
			"name":             "Shopping Plus",
			"brand":            `[{"name":"Visa","idx":1},{"name":"Master","idx":2}]`,
			"top_benefit":      []any{map[string]any{"title": "Cashback", "tags": []any{"shopping"}}},
			"annual_fee_basic": "국내전용 1만원",
			"score":            "4.5",
			"ranking":          3.0,
			"is_visible":       1.0,
			"corp": map[string]any{
				"name":          "Shinhan Card",
				"pr_detail_img": `["a.png","b.png"]`,
			},
		}

		card := Card(raw)
		assert.Equal(t, 2450, card.CardIdx)
		assert.Equal(t, "Shopping Plus", card.Name)
		require.Len(t, card.Brand, 2)
		assert.Equal(t, "Visa", card.Brand[0].Name)
		require.Len(t, card.TopBenefit, 1)
		assert.Equal(t, "Cashback", card.TopBenefit[0].Title)
		assert.Equal(t, []string{"shopping"}, card.TopBenefit[0].Tags)
		assert.InDelta(t, 4.5, card.Score, 0.001)
		assert.Equal(t, 3, card.Ranking)
		assert.Equal(t, "Shinhan Card", card.Corp.Name)
		assert.Equal(t, []string{"a.png", "b.png"}, card.Corp.PrDetailImg)
		assert.Equal(t, []string{}, card.Corp.PrDetailImgChk)
	})

	t.Run("sparse record gets defaults", func(t *testing.T) {
		card := Card(map[string]any{"idx": 99, "name": "Sparse"})
		assert.Equal(t, 99, card.CardIdx)
		assert.Zero(t, card.Score)
		assert.Zero(t, card.Ranking)
		assert.NotNil(t, card.Brand)
		assert.Empty(t, card.Brand)
		assert.NotNil(t, card.Corp.PrDetailImg)
	})

	t.Run("undecodable brand keeps its text", func(t *testing.T) {
		card := Card(map[string]any{"card_idx": 1, "name": "X", "brand": "비자/마스터"})
		require.Len(t, card.Brand, 1)
		assert.Equal(t, "비자/마스터", card.Brand[0].Name)
	})

	t.Run("normalizing its own output is stable", func(t *testing.T) {
		raw := map[string]any{
			"card_idx":    7.0,
			"name":        "Round Trip",
			"brand":       `[{"name":"Visa"}]`,
			"top_benefit": `[{"title":"Points","tags":["travel"]}]`,
			"ranking":     1.0,
			"score":       3.2,
		}
		first := Card(raw)

		again := map[string]any{
			"card_idx":    first.CardIdx,
			"name":        first.Name,
			"brand":       first.Brand,
			"top_benefit": first.TopBenefit,
			"ranking":     first.Ranking,
			"score":       first.Score,
		}
		second := Card(again)
		assert.Equal(t, first, second)
	})
}
