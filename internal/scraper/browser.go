package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/PuerkitoBio/goquery"
)

// State names the extraction phases of one target page. Done and Failed are
// terminal.
type State string

const (
	StateLoading   State = "loading"
	StateScrolled  State = "scrolled"
	StateExpanded  State = "expanded"
	StateExtracted State = "extracted"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

// Config bounds every browser-side wait. All DOM waits share one policy:
// a fixed budget with graceful degradation. Budget exhaustion yields a
// partial record, only a navigation/readiness failure is fatal.
type Config struct {
	Headless          bool
	UserAgent         string
	NavTimeout        time.Duration // whole-page budget: navigate + readiness
	ScrollStep        int
	ScrollInterval    time.Duration
	MaxScrolls        int
	BottomTolerance   int
	ToggleWait        time.Duration // per-toggle expansion budget
	DetailURLTemplate string
}

// DefaultConfig mirrors the pacing the upstream site tolerates.
func DefaultConfig() Config {
	return Config{
		Headless:          true,
		UserAgent:         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
		NavTimeout:        60 * time.Second,
		ScrollStep:        600,
		ScrollInterval:    150 * time.Millisecond,
		MaxScrolls:        60,
		BottomTolerance:   50,
		ToggleWait:        5 * time.Second,
		DetailURLTemplate: "https://www.card-gorilla.com/card/detail/%d",
	}
}

// Extractor drives a headless browser through the fixed extraction sequence:
// load, autoscroll, expand collapsed sections, extract fields.
type Extractor struct {
	cfg Config
}

// New creates a page extractor.
func New(cfg Config) *Extractor {
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = DefaultConfig().NavTimeout
	}
	if cfg.ScrollStep <= 0 {
		cfg.ScrollStep = DefaultConfig().ScrollStep
	}
	if cfg.ScrollInterval <= 0 {
		cfg.ScrollInterval = DefaultConfig().ScrollInterval
	}
	if cfg.MaxScrolls <= 0 {
		cfg.MaxScrolls = DefaultConfig().MaxScrolls
	}
	if cfg.BottomTolerance <= 0 {
		cfg.BottomTolerance = DefaultConfig().BottomTolerance
	}
	if cfg.ToggleWait <= 0 {
		cfg.ToggleWait = DefaultConfig().ToggleWait
	}
	if cfg.DetailURLTemplate == "" {
		cfg.DetailURLTemplate = DefaultConfig().DetailURLTemplate
	}
	return &Extractor{cfg: cfg}
}

var schemeRe = regexp.MustCompile(`(?i)^https?://`)

// BuildDetailURL resolves a target to a detail-page URL: full URLs pass
// through, anything else is treated as a numeric identifier.
func (e *Extractor) BuildDetailURL(target string) string {
	if schemeRe.MatchString(target) {
		return target
	}
	id, err := strconv.Atoi(strings.TrimSpace(target))
	if err != nil {
		return target
	}
	return fmt.Sprintf(e.cfg.DetailURLTemplate, id)
}

// ExtractIDFromURL pulls the trailing numeric path segment out of a detail
// URL, or 0 when there is none.
func ExtractIDFromURL(rawURL string) int {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) == 0 {
		return 0
	}
	id, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 0
	}
	return id
}

// Scrape runs the full extraction sequence against one target page and
// returns a raw record for the normalizer. idHint, when non-zero, wins over
// an identity derived from the URL.
func (e *Extractor) Scrape(ctx context.Context, target string, idHint int) (map[string]any, error) {
	pageURL := e.BuildDetailURL(target)

	cardIdx := idHint
	if cardIdx == 0 {
		cardIdx = ExtractIDFromURL(pageURL)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", e.cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(e.cfg.UserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	runCtx, cancelRun := context.WithTimeout(browserCtx, e.cfg.NavTimeout)
	defer cancelRun()

	state := StateLoading
	log.Printf("Scraper: %s %s", state, pageURL)

	if err := chromedp.Run(runCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		log.Printf("Scraper: %s %s: %v", StateFailed, pageURL, err)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &ExtractionTimeoutError{Stage: "load", Budget: e.cfg.NavTimeout}
		}
		return nil, &NavigationError{URL: pageURL, Err: err}
	}

	// Lazy-loaded content appears as the viewport descends; the scroll loop
	// is bounded and stops once document growth stalls near the bottom.
	if err := e.autoScroll(runCtx); err != nil {
		log.Printf("Scraper: autoscroll degraded for %s: %v", pageURL, err)
	}
	state = StateScrolled
	log.Printf("Scraper: %s %s", state, pageURL)

	expanded, err := e.expandToggles(runCtx)
	if err != nil {
		log.Printf("Scraper: toggle expansion degraded for %s: %v", pageURL, err)
	} else if expanded > 0 {
		log.Printf("Scraper: expanded %d collapsed sections on %s", expanded, pageURL)
	}
	state = StateExpanded
	log.Printf("Scraper: %s %s", state, pageURL)

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		log.Printf("Scraper: %s %s: %v", StateFailed, pageURL, err)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &ExtractionTimeoutError{Stage: "extract", Budget: e.cfg.NavTimeout}
		}
		return nil, &NavigationError{URL: pageURL, Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		log.Printf("Scraper: %s %s: %v", StateFailed, pageURL, err)
		return nil, fmt.Errorf("parse rendered markup: %w", err)
	}
	state = StateExtracted
	log.Printf("Scraper: %s %s", state, pageURL)

	raw := FromHTML(doc, cardIdx)
	state = StateDone
	log.Printf("Scraper: %s %s (%d fields)", state, pageURL, len(raw))

	return raw, nil
}

// autoScroll scrolls by a fixed step, re-measuring document height, until
// growth stalls within the bottom tolerance or the iteration bound is hit.
func (e *Extractor) autoScroll(ctx context.Context) error {
	script := fmt.Sprintf(`(async () => {
		const step = %d;
		const interval = %d;
		const maxIterations = %d;
		const tolerance = %d;
		const sleep = (ms) => new Promise((resolve) => setTimeout(resolve, ms));
		let total = 0;
		for (let i = 0; i < maxIterations; i++) {
			window.scrollBy(0, step);
			total += step;
			await sleep(interval);
			if (total >= document.body.scrollHeight - window.innerHeight - tolerance) {
				break;
			}
		}
		return total;
	})()`, e.cfg.ScrollStep, e.cfg.ScrollInterval.Milliseconds(), e.cfg.MaxScrolls, e.cfg.BottomTolerance)

	var scrolled int
	return chromedp.Run(ctx, chromedp.Evaluate(script, &scrolled, awaitPromise))
}

// expandToggles clicks every collapsed dt toggle and waits, bounded, for at
// least one following dd (before the next dt) to become visible. Toggles that
// already show a visible dd are never re-triggered, so the pass is
// independent of toggle order and of the page's initial state.
func (e *Extractor) expandToggles(ctx context.Context) (int, error) {
	script := fmt.Sprintf(`(async () => {
		const waitBudget = %d;
		const pollInterval = 100;
		const sleep = (ms) => new Promise((resolve) => setTimeout(resolve, ms));
		const hasVisibleContent = (dt) => {
			let sib = dt.nextElementSibling;
			while (sib && sib.tagName) {
				const tag = sib.tagName.toLowerCase();
				if (tag === 'dt') break;
				if (tag === 'dd') {
					const style = window.getComputedStyle(sib);
					if (style.display !== 'none' && style.visibility !== 'hidden' && sib.clientHeight > 0) {
						return true;
					}
				}
				sib = sib.nextElementSibling;
			}
			return false;
		};
		let expanded = 0;
		for (const dt of Array.from(document.querySelectorAll('dt'))) {
			if (hasVisibleContent(dt)) continue;
			dt.scrollIntoView({ block: 'center' });
			dt.click();
			const deadline = Date.now() + waitBudget;
			while (Date.now() < deadline && !hasVisibleContent(dt)) {
				await sleep(pollInterval);
			}
			if (hasVisibleContent(dt)) expanded++;
		}
		return expanded;
	})()`, e.cfg.ToggleWait.Milliseconds())

	var expanded int
	err := chromedp.Run(ctx, chromedp.Evaluate(script, &expanded, awaitPromise))
	return expanded, err
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}
