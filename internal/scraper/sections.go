package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wnghdcjfe/card/internal/entities"
)

// CollectSections gathers the expanded disclosure sections: for each toggle
// (dt) it collects every dd up to, but not including, the next toggle. One
// section is emitted per dd, carrying the originating toggle's title, so
// sibling order on the page is preserved.
func CollectSections(doc *goquery.Document) []entities.DetailSection {
	var sections []entities.DetailSection

	doc.Find("dt").Each(func(_ int, dt *goquery.Selection) {
		title := normalizeSpace(dt.Text())

		for sib := dt.Next(); sib.Length() > 0; sib = sib.Next() {
			tag := goquery.NodeName(sib)
			if tag == "dt" {
				break
			}
			if tag != "dd" {
				continue
			}

			html, err := sib.Html()
			if err != nil {
				html = ""
			}

			var items []string
			sib.Find("li, p").Each(func(_ int, el *goquery.Selection) {
				if text := normalizeSpace(el.Text()); text != "" {
					items = append(items, text)
				}
			})

			sections = append(sections, entities.DetailSection{
				Title: title,
				HTML:  strings.TrimSpace(html),
				Text:  blockText(sib),
				Items: items,
			})
		}
	})

	return sections
}

// blockText renders an element's plain text with child boundaries collapsed
// to single spaces. Selection.Text() concatenates child text nodes directly,
// which glues adjacent paragraphs or list items together.
func blockText(sel *goquery.Selection) string {
	var parts []string
	sel.Contents().Each(func(_ int, node *goquery.Selection) {
		var text string
		if goquery.NodeName(node) == "#text" {
			text = normalizeSpace(node.Text())
		} else {
			text = blockText(node)
		}
		if text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}
