package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"

	"mspro-labs/scoop-scout/internal/config"
	"mspro-labs/scoop-scout/internal/models"
)

// Adapter fetches the raw announcement text for one location. A call is one
// complete attempt and keeps no state between calls, so it is safe to retry.
// Failures are *scrapeerr.NetworkError, *scrapeerr.TimeoutError or
// *scrapeerr.RenderError. An empty string with a nil error means the page had
// no announcement block.
type Adapter interface {
	Fetch(ctx context.Context, loc models.Location) (string, error)
}

// Renderer hands out a navigated browser page. *browser.Pool implements it.
type Renderer interface {
	WithPage(ctx context.Context, url string, fn func(page *rod.Page) error) error
}

// blockText selects the announcement block out of a rendered document. With
// field selectors configured the result is labeled lines; with an item
// selector it is one labeled entry per item, separated by blank lines. A
// configured page date comes first as a "Date:" line.
func blockText(doc *goquery.Document, sel config.Selectors) string {
	block := doc.Find(sel.Content).First()
	if block.Length() == 0 {
		return ""
	}

	var entries []string
	switch {
	case sel.Item != "":
		block.Find(sel.Item).Each(func(_ int, item *goquery.Selection) {
			name := item
			if sel.Flavor != "" {
				name = item.Find(sel.Flavor).First()
			}
			desc := item.NextUntil(sel.Item).Filter(itemDescription(sel)).First()
			if entry := labeledEntry(name, desc); entry != "" {
				entries = append(entries, entry)
			}
		})
	case sel.Flavor != "":
		var desc *goquery.Selection
		if sel.Description != "" {
			desc = block.Find(sel.Description).First()
		}
		if entry := labeledEntry(block.Find(sel.Flavor).First(), desc); entry != "" {
			entries = append(entries, entry)
		}
	default:
		if text := selectionText(block); text != "" {
			entries = append(entries, text)
		}
	}
	if len(entries) == 0 {
		return ""
	}

	if sel.Date != "" {
		if date := oneLine(selectionText(block.Find(sel.Date).First())); date != "" {
			entries = append([]string{"Date: " + date}, entries...)
		}
	}
	return strings.Join(entries, "\n\n")
}

func itemDescription(sel config.Selectors) string {
	if sel.Description != "" {
		return sel.Description
	}
	return "p"
}

func labeledEntry(name, desc *goquery.Selection) string {
	flavor := oneLine(selectionText(name))
	if flavor == "" {
		return ""
	}
	entry := fmt.Sprintf("Flavor: %s", flavor)
	if desc != nil {
		if d := oneLine(selectionText(desc)); d != "" {
			entry += fmt.Sprintf("\nDescription: %s", d)
		}
	}
	return entry
}

func selectionText(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	return nodeText(s.Nodes[0])
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
