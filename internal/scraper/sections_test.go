package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectSections(t *testing.T) {
	t.Run("three toggles yield three sections", func(t *testing.T) {
		doc := parseFixture(t, `<dl>
			<dt>연회비</dt>
			<dd><p>국내전용 1만원</p><p>해외겸용 1만 3천원</p></dd>
			<dt>이용 조건</dt>
			<dd><ul><li>전월실적 30만원</li><li>신규 발급 가능</li></ul></dd>
			<dt>유의사항</dt>
			<dd>자세한 내용은 상품설명서 참조</dd>
		</dl>`)

		sections := CollectSections(doc)
		require.Len(t, sections, 3)

		assert.Equal(t, "연회비", sections[0].Title)
		assert.NotEmpty(t, sections[0].HTML)
		assert.Equal(t, "국내전용 1만원 해외겸용 1만 3천원", sections[0].Text)
		assert.Equal(t, []string{"국내전용 1만원", "해외겸용 1만 3천원"}, sections[0].Items)

		assert.Equal(t, "이용 조건", sections[1].Title)
		assert.Equal(t, "전월실적 30만원 신규 발급 가능", sections[1].Text)
		assert.Equal(t, []string{"전월실적 30만원", "신규 발급 가능"}, sections[1].Items)

		assert.Equal(t, "유의사항", sections[2].Title)
		assert.Equal(t, "자세한 내용은 상품설명서 참조", sections[2].Text)
		assert.Empty(t, sections[2].Items)
	})

	t.Run("one toggle with several dd siblings", func(t *testing.T) {
		doc := parseFixture(t, `<dl>
			<dt>혜택</dt>
			<dd>첫 번째</dd>
			<dd>두 번째</dd>
			<dt>다음 토글</dt>
			<dd>다른 내용</dd>
		</dl>`)

		sections := CollectSections(doc)
		require.Len(t, sections, 3)
		assert.Equal(t, "혜택", sections[0].Title)
		assert.Equal(t, "혜택", sections[1].Title)
		assert.Equal(t, "두 번째", sections[1].Text)
		assert.Equal(t, "다음 토글", sections[2].Title)
	})

	t.Run("non-dd siblings are skipped", func(t *testing.T) {
		doc := parseFixture(t, `<div>
			<dt>제목</dt>
			<span>장식 요소</span>
			<dd>내용</dd>
		</div>`)

		sections := CollectSections(doc)
		require.Len(t, sections, 1)
		assert.Equal(t, "내용", sections[0].Text)
	})

	t.Run("page without toggles", func(t *testing.T) {
		doc := parseFixture(t, `<div><p>no disclosure markup</p></div>`)
		assert.Empty(t, CollectSections(doc))
	})
}
