package scraper

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFixture(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

const detailPage = `<html>
<head>
  <meta property="og:title" content="Fallback Title"/>
  <meta property="og:image" content="https://cdn.example.com/og.png"/>
</head>
<body>
  <div class="wrap_title"><h2>신한카드 Deep Dream</h2></div>
  <div class="card_img"><img src="https://cdn.example.com/card.png"/></div>
  <p class="event_title">최대 12만원 캐시백 이벤트</p>
  <div class="rating"><span>평점</span><em>4.7점</em></div>
  <div class="rank"><span>랭킹</span><em>3위</em></div>
  <div class="wrap_brand">
    <img alt="VISA" src="visa.png"/>
    <span>마스터카드</span>
  </div>
  <div class="benefit_list">
    <ul>
      <li>전월실적 없이 0.7% 적립</li>
      <li>해외 이용 1.5% 적립</li>
    </ul>
  </div>
  <span class="tag">쇼핑</span>
  <span class="chip">적립</span>
</body>
</html>`

func TestFromHTML(t *testing.T) {
	doc := parseFixture(t, detailPage)
	raw := FromHTML(doc, 2450)

	assert.Equal(t, 2450, raw["card_idx"])
	assert.Equal(t, 1, raw["is_visible"])
	assert.Equal(t, "신한카드 Deep Dream", raw["name"])
	assert.Equal(t, "https://cdn.example.com/card.png", raw["card_img"])
	assert.Equal(t, "최대 12만원 캐시백 이벤트", raw["event_title"])
	assert.Equal(t, 4.7, raw["score"])
	assert.Equal(t, 3, raw["ranking"])
}

func TestFromHTMLFallsBackToMeta(t *testing.T) {
	doc := parseFixture(t, `<html><head>
		<meta property="og:title" content="Meta Card"/>
		<meta property="og:image" content="https://cdn.example.com/og.png"/>
	</head><body><p>nothing else</p></body></html>`)

	raw := FromHTML(doc, 0)
	assert.Equal(t, "Meta Card", raw["name"])
	assert.Equal(t, "https://cdn.example.com/og.png", raw["card_img"])
	_, hasIdx := raw["card_idx"]
	assert.False(t, hasIdx, "no idx hint means no card_idx key")
}

func TestFromHTMLOmitsMissingFields(t *testing.T) {
	doc := parseFixture(t, `<html><body><div>bare page</div></body></html>`)
	raw := FromHTML(doc, 7)

	for _, key := range []string{"name", "score", "ranking", "brand", "top_benefit", "detail_sections"} {
		_, ok := raw[key]
		assert.Falsef(t, ok, "field %s should be omitted on a miss", key)
	}
	assert.Equal(t, 7, raw["card_idx"])
}

func TestCollectBrands(t *testing.T) {
	t.Run("dedupes logo alt and text hits", func(t *testing.T) {
		doc := parseFixture(t, `<div class="brand_list">
			<img alt="VISA" src="v.png"/>
			<span>VISA</span>
			<span>마스터</span>
			<span>포인트 적립 안내</span>
		</div>`)

		brands := collectBrands(doc)
		require.Len(t, brands, 2)
		assert.Equal(t, "VISA", brands[0].Name)
		assert.Equal(t, 1, brands[0].Idx)
		assert.True(t, brands[0].IsVisible)
		assert.Equal(t, "마스터", brands[1].Name)
		assert.Equal(t, 2, brands[1].Idx)
	})

	t.Run("no brand container", func(t *testing.T) {
		doc := parseFixture(t, `<div><span>VISA</span></div>`)
		assert.Empty(t, collectBrands(doc))
	})
}

func TestCollectBenefits(t *testing.T) {
	doc := parseFixture(t, `<body>
		<span class="tag">쇼핑</span>
		<div class="benefit"><ul>
			<li>첫 번째 혜택</li>
			<li>두 번째 혜택</li>
			<li></li>
		</ul></div>
	</body>`)

	benefits := collectBenefits(doc)
	require.Len(t, benefits, 2)
	assert.Equal(t, 1, benefits[0].Idx)
	assert.Equal(t, "첫 번째 혜택", benefits[0].Title)
	assert.Equal(t, []string{"쇼핑"}, benefits[0].Tags)
}

func TestCollectBenefitsOverlappingContainers(t *testing.T) {
	// The same list matches both the class selector and the descendant ul
	// selector; its items must still be collected once.
	doc := parseFixture(t, `<body>
		<div class="benefit_list"><ul>
			<li>첫 번째 혜택</li>
			<li>두 번째 혜택</li>
		</ul></div>
	</body>`)

	benefits := collectBenefits(doc)
	require.Len(t, benefits, 2)
	assert.Equal(t, "첫 번째 혜택", benefits[0].Title)
	assert.Equal(t, "두 번째 혜택", benefits[1].Title)
}

func TestByLabel(t *testing.T) {
	t.Run("prefers the sibling text", func(t *testing.T) {
		doc := parseFixture(t, `<body><div><span>평점</span><em>4.2</em></div></body>`)
		assert.Equal(t, "4.2", byLabel("평점")(doc))
	})

	t.Run("no label match", func(t *testing.T) {
		doc := parseFixture(t, `<body><div>nothing relevant</div></body>`)
		assert.Empty(t, byLabel("평점")(doc))
	})
}

func TestFirstNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"4.7점", 4.7, true},
		{"점수 3", 3, true},
		{"없음", 0, false},
	}
	for _, tc := range cases {
		got, ok := firstNumber(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestExtractIDFromURL(t *testing.T) {
	assert.Equal(t, 2450, ExtractIDFromURL("https://www.card-gorilla.com/card/detail/2450"))
	assert.Equal(t, 2450, ExtractIDFromURL("https://www.card-gorilla.com/card/detail/2450/"))
	assert.Equal(t, 0, ExtractIDFromURL("https://www.card-gorilla.com/card/detail/abc"))
	assert.Equal(t, 0, ExtractIDFromURL("not a url"))
}

func TestBuildDetailURL(t *testing.T) {
	ex := New(Config{})

	assert.Equal(t, "https://www.card-gorilla.com/card/detail/42", ex.BuildDetailURL("42"))
	assert.Equal(t, "https://example.com/x", ex.BuildDetailURL("https://example.com/x"))
}
