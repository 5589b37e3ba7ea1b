package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"mspro-labs/scoop-scout/internal/browser"
	"mspro-labs/scoop-scout/internal/config"
	"mspro-labs/scoop-scout/internal/models"
	"mspro-labs/scoop-scout/internal/scrapeerr"
)

const DefaultFetchTimeout = 30 * time.Second

var browserHeaders = map[string]string{
	"User-Agent":                browser.UserAgent,
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9",
	"DNT":                       "1",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
}

// StaticAdapter fetches server-rendered pages with a single GET.
type StaticAdapter struct {
	http      *resty.Client
	selectors config.Selectors
}

type staticSettings struct {
	transport http.RoundTripper
	timeout   time.Duration
}

type StaticOption func(*staticSettings)

// WithTransport swaps the round tripper, e.g. for an httptest server.
func WithTransport(rt http.RoundTripper) StaticOption {
	return func(s *staticSettings) { s.transport = rt }
}

// WithFetchTimeout bounds each request.
func WithFetchTimeout(d time.Duration) StaticOption {
	return func(s *staticSettings) { s.timeout = d }
}

func NewStaticAdapter(sel config.Selectors, opts ...StaticOption) *StaticAdapter {
	settings := staticSettings{timeout: DefaultFetchTimeout}
	for _, opt := range opts {
		opt(&settings)
	}

	client := resty.New()
	if settings.transport != nil {
		client.SetTransport(settings.transport)
	} else {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	client.SetHeaders(browserHeaders)
	client.SetTimeout(settings.timeout)

	// a brand's locations usually share one host
	limiter := rate.NewLimiter(2, 2)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return limiter.Wait(req.Context())
	})

	return &StaticAdapter{http: client, selectors: sel}
}

func (a *StaticAdapter) Fetch(ctx context.Context, loc models.Location) (string, error) {
	url := loc.URL
	resp, err := a.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", classifyTransportError(url, err)
	}

	status := resp.StatusCode()
	if !resp.IsSuccess() {
		return "", &scrapeerr.NetworkError{URL: url, Status: status, Permanent: permanentStatus(status)}
	}

	if ct := resp.Header().Get("Content-Type"); ct != "" && !strings.Contains(strings.ToLower(ct), "html") {
		return "", &scrapeerr.NetworkError{
			URL:       url,
			Status:    status,
			Permanent: true,
			Err:       fmt.Errorf("unexpected content type %q", ct),
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return "", &scrapeerr.NetworkError{URL: url, Status: status, Permanent: true, Err: err}
	}
	return blockText(doc, a.selectors), nil
}

// 4xx means the request itself is wrong, except the throttling and bot-wall
// codes which often clear on a later attempt.
func permanentStatus(status int) bool {
	if status < 400 || status >= 500 {
		return false
	}
	switch status {
	case http.StatusForbidden, http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return true
}

func classifyTransportError(url string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &scrapeerr.TimeoutError{Op: "fetch", URL: url, Err: err}
	}
	return &scrapeerr.NetworkError{URL: url, Err: err}
}
