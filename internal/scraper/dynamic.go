package scraper

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"

	"mspro-labs/scoop-scout/internal/config"
	"mspro-labs/scoop-scout/internal/models"
	"mspro-labs/scoop-scout/internal/scrapeerr"
)

const (
	DefaultWaitTimeout = 30 * time.Second
	consentTimeout     = 5 * time.Second
)

// DynamicAdapter renders client-side pages in a headless browser before
// selecting the announcement block.
type DynamicAdapter struct {
	renderer    Renderer
	selectors   config.Selectors
	waitTimeout time.Duration
}

func NewDynamicAdapter(r Renderer, sel config.Selectors) *DynamicAdapter {
	return &DynamicAdapter{renderer: r, selectors: sel, waitTimeout: DefaultWaitTimeout}
}

func (a *DynamicAdapter) Fetch(ctx context.Context, loc models.Location) (string, error) {
	url := loc.URL
	var text string
	err := a.renderer.WithPage(ctx, url, func(page *rod.Page) error {
		dismiss(page, a.selectors.Consent)

		if _, err := page.Timeout(a.waitTimeout).Element(a.selectors.Wait); err != nil {
			return scrapeerr.FromContext("wait for "+a.selectors.Wait, url, err)
		}

		html, err := page.HTML()
		if err != nil {
			return scrapeerr.FromContext("read html", url, err)
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return &scrapeerr.RenderError{Op: "parse html", URL: url, Err: err}
		}
		text = blockText(doc, a.selectors)
		return nil
	})
	return text, err
}

// dismiss clicks a consent or login dialog when one shows up. Its absence is
// not an error.
func dismiss(page *rod.Page, selector string) {
	if selector == "" {
		return
	}
	_ = rod.Try(func() {
		page.Timeout(consentTimeout).MustElement(selector).MustClick()
		page.MustWaitStable()
	})
}
