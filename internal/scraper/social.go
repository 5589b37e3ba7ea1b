package scraper

import (
	"context"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"mspro-labs/scoop-scout/internal/config"
	"mspro-labs/scoop-scout/internal/extract"
	"mspro-labs/scoop-scout/internal/models"
	"mspro-labs/scoop-scout/internal/scrapeerr"
)

const (
	feedScroll   = 1500
	settleWindow = 2 * time.Second
)

// SocialAdapter reads the recent posts of a location's feed page.
type SocialAdapter struct {
	renderer    Renderer
	brand       config.Brand
	waitTimeout time.Duration
	logger      *zap.Logger
}

func NewSocialAdapter(r Renderer, brand config.Brand, logger *zap.Logger) *SocialAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SocialAdapter{
		renderer:    r,
		brand:       brand,
		waitTimeout: DefaultWaitTimeout,
		logger:      logger.Named("social").With(zap.String("brand", brand.Key)),
	}
}

func (a *SocialAdapter) Fetch(ctx context.Context, loc models.Location) (string, error) {
	url := loc.Facebook
	sel := a.brand.Selectors

	var text string
	err := a.renderer.WithPage(ctx, url, func(page *rod.Page) error {
		dismiss(page, sel.Consent)

		if _, err := page.Timeout(a.waitTimeout).Element(sel.Post); err != nil {
			return scrapeerr.FromContext("wait for posts", url, err)
		}

		// one scroll loads the next batch of posts
		if err := page.Mouse.Scroll(0, feedScroll, 1); err != nil {
			return scrapeerr.FromContext("scroll", url, err)
		}
		_ = page.Timeout(settleWindow * 3).WaitStable(settleWindow)

		els, err := page.Elements(sel.Post)
		if err != nil {
			return scrapeerr.FromContext("list posts", url, err)
		}

		posts := make([]feedPost, 0, len(els))
		for _, el := range els {
			// comments are articles nested inside a post
			parents, err := el.Parents(sel.Post)
			if err == nil && len(parents) > 0 {
				continue
			}
			posts = append(posts, &rodPost{el: el, expand: sel.Expand})
		}

		text, err = a.scan(ctx, posts, loc)
		return err
	})
	return text, err
}

type feedPost interface {
	Expand(ctx context.Context) error
	Text() (string, error)
}

// scan reads posts newest first until one carries a flavor or MaxPosts have
// been looked at. Texts of every post read are returned so the pipeline sees
// the same input the scan did.
func (a *SocialAdapter) scan(ctx context.Context, posts []feedPost, loc models.Location) (string, error) {
	log := a.logger.With(zap.String("location", loc.ID))

	var scanned []string
	for i, post := range posts {
		if i >= a.brand.MaxPosts {
			break
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		if err := post.Expand(ctx); err != nil {
			log.Debug("could not expand post", zap.Int("post", i), zap.Error(err))
		}
		text, err := post.Text()
		if err != nil {
			log.Debug("could not read post", zap.Int("post", i), zap.Error(err))
			continue
		}
		if a.brand.TodayOnly && !extract.PostedToday(text) {
			log.Debug("skipping older post", zap.Int("post", i))
			continue
		}

		scanned = append(scanned, text)
		if extract.Matches(text, a.brand.Patterns) {
			log.Debug("flavor post found", zap.Int("post", i))
			break
		}
	}
	return strings.Join(scanned, "\n\n"), nil
}

type rodPost struct {
	el     *rod.Element
	expand string
}

// Expand clicks the post's "See more" button when the text is truncated.
func (p *rodPost) Expand(ctx context.Context) error {
	if p.expand == "" {
		return nil
	}
	buttons, err := p.el.Context(ctx).Elements(`div[role="button"]`)
	if err != nil {
		return err
	}
	for _, b := range buttons {
		label, err := b.Text()
		if err != nil || !strings.EqualFold(strings.TrimSpace(label), p.expand) {
			continue
		}
		if err := b.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return err
		}
		return p.el.Context(ctx).WaitStable(300 * time.Millisecond)
	}
	return nil
}

func (p *rodPost) Text() (string, error) {
	return p.el.Text()
}
