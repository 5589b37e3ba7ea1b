// Package browser owns headless Chrome lifetimes for the rendered strategies.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"mspro-labs/scoop-scout/internal/scrapeerr"
)

const (
	DefaultNavigateTimeout = 60 * time.Second

	viewportWidth  = 1920
	viewportHeight = 1080
)

// UserAgent is a current desktop Chrome on Windows.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Pool caps how many browser processes are alive at once. Every WithPage call
// gets its own process so a crashed page never poisons another location.
type Pool struct {
	sem        *semaphore.Weighted
	logger     *zap.Logger
	navTimeout time.Duration
}

func NewPool(size int, logger *zap.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		sem:        semaphore.NewWeighted(int64(size)),
		logger:     logger.Named("browser"),
		navTimeout: DefaultNavigateTimeout,
	}
}

// WithPage launches a browser, opens a stealth page on url and runs fn. The
// page is bound to ctx; the browser and launcher are torn down on every exit
// path, panics included.
func (p *Pool) WithPage(ctx context.Context, url string, fn func(page *rod.Page) error) (err error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("panic while rendering", zap.String("url", url), zap.Any("panic", r))
			err = &scrapeerr.RenderError{Op: "render", URL: url, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	l := launcher.New().Headless(true).NoSandbox(true)
	controlURL, err := l.Launch()
	if err != nil {
		return &scrapeerr.RenderError{Op: "launch", URL: url, Err: err}
	}
	defer func() {
		l.Kill()
		l.Cleanup()
	}()

	// The control connection must outlive a cancelled run so Close still works.
	b := rod.New().ControlURL(controlURL).Context(context.Background())
	if err := b.Connect(); err != nil {
		return &scrapeerr.RenderError{Op: "connect", URL: url, Err: err}
	}
	defer func() {
		if cerr := b.Close(); cerr != nil {
			p.logger.Debug("browser close failed", zap.Error(cerr))
		}
	}()

	page, err := stealth.Page(b)
	if err != nil {
		return &scrapeerr.RenderError{Op: "open page", URL: url, Err: err}
	}
	page = page.Context(ctx)

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: UserAgent}); err != nil {
		return scrapeerr.FromContext("set user agent", url, err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return scrapeerr.FromContext("set viewport", url, err)
	}

	p.logger.Debug("navigating", zap.String("url", url))
	nav := page.Timeout(p.navTimeout)
	if err := nav.Navigate(url); err != nil {
		return scrapeerr.FromContext("navigate", url, err)
	}
	if err := nav.WaitLoad(); err != nil {
		return scrapeerr.FromContext("load", url, err)
	}

	return fn(page)
}
