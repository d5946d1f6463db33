// Package scraper extracts card records from rendered detail pages.
//
// The browser driver (browser.go) takes a page through load, autoscroll and
// toggle expansion, then hands the rendered markup to the pure extraction
// layer in this file. Field extraction runs an ordered list of independent
// strategies per field and takes the first non-empty result, so every
// strategy is testable against a markup fixture without a browser.
package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wnghdcjfe/card/internal/entities"
)

// Strategy produces a candidate value for one field from the rendered
// document. An empty string means the strategy found nothing.
type Strategy func(doc *goquery.Document) string

// firstNonEmpty runs the strategies in order and returns the first hit.
func firstNonEmpty(doc *goquery.Document, strategies ...Strategy) string {
	for _, strategy := range strategies {
		if v := strategy(doc); v != "" {
			return v
		}
	}
	return ""
}

// bySelectors returns the text of the first selector that matches an element
// with non-empty text.
func bySelectors(selectors ...string) Strategy {
	return func(doc *goquery.Document) string {
		for _, sel := range selectors {
			if text := normalizeSpace(doc.Find(sel).First().Text()); text != "" {
				return text
			}
		}
		return ""
	}
}

// byAttr returns the named attribute of the first selector that matches.
func byAttr(attr string, selectors ...string) Strategy {
	return func(doc *goquery.Document) string {
		for _, sel := range selectors {
			if v, ok := doc.Find(sel).First().Attr(attr); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
		return ""
	}
}

// byMeta reads a page metadata tag (og:title and friends).
func byMeta(property string) Strategy {
	return func(doc *goquery.Document) string {
		content, _ := doc.Find(`meta[property="` + property + `"]`).Attr("content")
		return strings.TrimSpace(content)
	}
}

// byLabel walks every text-bearing element looking for a known label keyword
// and returns the nearest sibling text, falling back to the parent text.
// Containers whose children also carry the label are skipped, so the walk
// settles on the innermost labeled element and its sibling holds the value.
func byLabel(labels ...string) Strategy {
	containsLabel := func(text string, labels []string) bool {
		for _, label := range labels {
			if strings.Contains(text, label) {
				return true
			}
		}
		return false
	}

	return func(doc *goquery.Document) string {
		var found string
		doc.Find("body *").EachWithBreak(func(_ int, el *goquery.Selection) bool {
			text := normalizeSpace(el.Text())
			if text == "" || !containsLabel(text, labels) {
				return true
			}

			childMatch := false
			el.Children().Each(func(_ int, child *goquery.Selection) {
				if containsLabel(normalizeSpace(child.Text()), labels) {
					childMatch = true
				}
			})
			if childMatch {
				return true
			}
			sibling := normalizeSpace(el.Next().Text())
			if sibling == "" {
				sibling = normalizeSpace(el.Parent().Text())
			}
			if sibling != "" {
				found = sibling
			} else {
				found = text
			}
			return false
		})
		return found
	}
}

var (
	numberRe  = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)
	rankingRe = regexp.MustCompile(`[0-9]{1,4}`)
	brandRe   = regexp.MustCompile(`(?i)비자|마스터|아멕스|JCB|유니온페이|Visa|Master|Amex|UnionPay`)
)

// firstNumber derives a numeric field from whatever free text a strategy
// extracted, taking the first numeric token.
func firstNumber(s string) (float64, bool) {
	m := numberRe.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	return f, err == nil
}

// firstRankToken is firstNumber for ranking-style fields (small integers).
func firstRankToken(s string) (int, bool) {
	m := rankingRe.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	return n, err == nil
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var nameSelectors = []string{
	"h1",
	"h2",
	".card-title",
	".wrap_title h2",
	".wrap_title .tit_h2",
	".detail-title",
}

var eventSelectors = []string{
	".event_title",
	".badge-event",
	".event .title",
}

var benefitListSelectors = []string{
	".benefit",
	".benefits",
	".benefit_list",
	".list_benefit",
	".wrap_benefit",
	`[class*="benefit"] ul`,
}

const tagChipSelector = `.tag, .chip, .badge, [class*="tag"], [class*="chip"]`

// FromHTML extracts a raw card record from the rendered markup. Every field
// is best-effort: a miss leaves the field out so normalization applies its
// default, it never aborts the record.
func FromHTML(doc *goquery.Document, cardIdx int) map[string]any {
	raw := map[string]any{
		"is_visible": 1,
	}
	if cardIdx > 0 {
		raw["card_idx"] = cardIdx
	}

	if name := firstNonEmpty(doc, bySelectors(nameSelectors...), byMeta("og:title")); name != "" {
		raw["name"] = name
	}
	if img := firstNonEmpty(doc, byAttr("src", ".card_img img", ".detail img"), byMeta("og:image")); img != "" {
		raw["card_img"] = img
	}
	if event := firstNonEmpty(doc, bySelectors(eventSelectors...), byMeta("og:description")); event != "" {
		raw["event_title"] = event
	}

	if scoreText := byLabel("점수", "평점", "Score")(doc); scoreText != "" {
		if score, ok := firstNumber(scoreText); ok {
			raw["score"] = score
		}
	}
	if rankText := byLabel("랭킹", "순위", "Ranking")(doc); rankText != "" {
		if rank, ok := firstRankToken(rankText); ok {
			raw["ranking"] = rank
		}
	}

	if brands := collectBrands(doc); len(brands) > 0 {
		raw["brand"] = brands
	}
	if benefits := collectBenefits(doc); len(benefits) > 0 {
		raw["top_benefit"] = benefits
	}
	if sections := CollectSections(doc); len(sections) > 0 {
		raw["detail_sections"] = sections
	}

	return raw
}

// collectBrands gathers payment-network names from brand containers: logo alt
// text plus any text node that looks like a known network name.
func collectBrands(doc *goquery.Document) []entities.BrandRef {
	seen := make(map[string]struct{})
	var names []string

	add := func(name string) {
		name = normalizeSpace(name)
		if name == "" {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	doc.Find(`[class*="brand"], .wrap_brand, .brand_list`).Each(func(_ int, container *goquery.Selection) {
		container.Find("img[alt]").Each(func(_ int, img *goquery.Selection) {
			alt, _ := img.Attr("alt")
			add(alt)
		})
		container.Find("li, span, a, div").Each(func(_ int, el *goquery.Selection) {
			if text := normalizeSpace(el.Text()); brandRe.MatchString(text) {
				add(text)
			}
		})
	})

	refs := make([]entities.BrandRef, 0, len(names))
	for i, name := range names {
		refs = append(refs, entities.BrandRef{
			No:        i + 1,
			Idx:       i + 1,
			Name:      name,
			IsVisible: true,
		})
	}
	return refs
}

const (
	maxBenefitItems = 20
	maxBenefitTags  = 10
)

// collectBenefits gathers benefit list items from the known benefit
// containers, tagged with whatever chip/badge keywords the page shows.
func collectBenefits(doc *goquery.Document) []entities.BenefitRef {
	var tags []string
	doc.Find(tagChipSelector).Each(func(_ int, el *goquery.Selection) {
		if len(tags) >= maxBenefitTags {
			return
		}
		if text := normalizeSpace(el.Text()); text != "" {
			tags = append(tags, text)
		}
	})
	if tags == nil {
		tags = []string{}
	}

	// The selectors overlap on real pages, so only the first one that yields
	// items is used.
	var titles []string
	for _, sel := range benefitListSelectors {
		doc.Find(sel).Each(func(_ int, list *goquery.Selection) {
			list.Find("li").Each(func(_ int, li *goquery.Selection) {
				if len(titles) >= maxBenefitItems {
					return
				}
				if text := normalizeSpace(li.Text()); text != "" {
					titles = append(titles, text)
				}
			})
		})
		if len(titles) > 0 {
			break
		}
	}

	refs := make([]entities.BenefitRef, 0, len(titles))
	for i, title := range titles {
		refs = append(refs, entities.BenefitRef{
			Idx:   i + 1,
			Title: title,
			Tags:  tags,
		})
	}
	return refs
}
