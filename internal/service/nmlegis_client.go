package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jjenkins/billtracker/internal/bill"
	"github.com/jjenkins/billtracker/internal/cache"
	"github.com/jjenkins/billtracker/internal/config"
)

// NMLegisClient fetches bill pages from nmlegis.gov
type NMLegisClient struct {
	client       *http.Client
	cache        cache.Cache
	baseURL      string
	userAgent    string
	maxRetries   int
	backoff      time.Duration
	requestDelay time.Duration
	cacheTTL     time.Duration
}

// NewNMLegisClient creates a client from config. A nil cache disables caching.
func NewNMLegisClient(cfg config.NMLegisConfig, pageCache cache.Cache) *NMLegisClient {
	retries := cfg.MaxRetries
	if retries < 1 {
		retries = 1
	}
	return &NMLegisClient{
		client: &http.Client{
			Timeout: cfg.Timeout(),
		},
		cache:        pageCache,
		baseURL:      cfg.BaseURL,
		userAgent:    cfg.UserAgent,
		maxRetries:   retries,
		backoff:      cfg.Backoff(),
		requestDelay: cfg.RequestDelay(),
		cacheTTL:     cfg.CacheTTL(),
	}
}

// BillURL returns the page for a bill in the given year code
func (c *NMLegisClient) BillURL(d bill.Designation, yearcode string) string {
	return fmt.Sprintf("%s/Legislation/Legislation?chamber=%s&legtype=%s&legno=%s&year=%s",
		c.baseURL, d.Chamber, d.Type, strconv.Itoa(d.Number), url.QueryEscape(yearcode))
}

func cacheKey(d bill.Designation, yearcode string) string {
	return yearcode + "-" + d.String()
}

// FetchBillPage returns the HTML for a bill, from the cache when fresh
func (c *NMLegisClient) FetchBillPage(ctx context.Context, d bill.Designation, yearcode string) ([]byte, error) {
	key := cacheKey(d, yearcode)

	if c.cache != nil {
		body, err := c.cache.Get(ctx, key)
		if err == nil {
			return body, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			return nil, fmt.Errorf("failed to read cache for %s: %w", d, err)
		}
	}

	body, err := c.fetchWithRetry(ctx, c.BillURL(d, yearcode))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s (%s): %w", d, yearcode, err)
	}

	if c.cache != nil {
		if err := c.cache.Put(ctx, key, body, c.cacheTTL); err != nil {
			return nil, fmt.Errorf("failed to cache %s: %w", d, err)
		}
	}

	return body, nil
}

// billListTTL is how long a session listing stays cached
const billListTTL = time.Hour

// BillListURL returns the listing of every bill in a regular session
func (c *NMLegisClient) BillListURL(yearcode string) (string, error) {
	session, err := bill.SessionNumber(yearcode)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/Legislation/Legislation_List?Session=%d", c.baseURL, session), nil
}

// FetchBillList returns the HTML listing every bill in a regular session
func (c *NMLegisClient) FetchBillList(ctx context.Context, yearcode string) ([]byte, error) {
	listURL, err := c.BillListURL(yearcode)
	if err != nil {
		return nil, err
	}
	key := "list-" + yearcode

	if c.cache != nil {
		body, err := c.cache.Get(ctx, key)
		if err == nil {
			return body, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			return nil, fmt.Errorf("failed to read cache for bill list %s: %w", yearcode, err)
		}
	}

	body, err := c.fetchWithRetry(ctx, listURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bill list for %s: %w", yearcode, err)
	}

	if c.cache != nil {
		if err := c.cache.Put(ctx, key, body, billListTTL); err != nil {
			return nil, fmt.Errorf("failed to cache bill list %s: %w", yearcode, err)
		}
	}

	return body, nil
}

// AnalysisURLs returns where the fiscal impact report and the LESC
// analysis for a bill would be published. Only regular sessions have them.
func (c *NMLegisClient) AnalysisURLs(d bill.Designation, yearcode string) (fir, lesc string) {
	if !bill.IsRegularSession(yearcode) {
		return "", ""
	}
	file := fmt.Sprintf("%s%s%04d.PDF", d.Chamber, d.Type, d.Number)
	fir = fmt.Sprintf("%s/Sessions/%s%%20Regular/firs/%s", c.baseURL, yearcode, file)
	lesc = fmt.Sprintf("%s/Sessions/%s%%20Regular/LESCAnalysis/%s", c.baseURL, yearcode, file)
	return fir, lesc
}

// AnalysisLinks returns the analysis reports published so far for a bill.
// The bill page loads them with javascript, so the only way to know is to
// ask for each one.
func (c *NMLegisClient) AnalysisLinks(ctx context.Context, d bill.Designation, yearcode string) (fir, lesc string, err error) {
	firURL, lescURL := c.AnalysisURLs(d, yearcode)
	if firURL == "" {
		return "", "", nil
	}

	for _, link := range []struct {
		url string
		out *string
	}{{firURL, &fir}, {lescURL, &lesc}} {
		ok, err := c.exists(ctx, link.url)
		if err != nil {
			return "", "", fmt.Errorf("failed to check analysis for %s: %w", d, err)
		}
		if ok {
			*link.out = link.url
		}
	}
	return fir, lesc, nil
}

// exists reports whether url serves a document
func (c *NMLegisClient) exists(ctx context.Context, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, err
	}
	resp.Body.Close()

	return resp.StatusCode == http.StatusOK, nil
}

// Forget drops a cached page, e.g. after the site served an error page
func (c *NMLegisClient) Forget(ctx context.Context, d bill.Designation, yearcode string) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Delete(ctx, cacheKey(d, yearcode))
}

// fetchWithRetry performs an HTTP GET with exponential backoff retry
func (c *NMLegisClient) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	backoff := c.backoff

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()

		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (HTTP 429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
			continue
		}

		return body, nil
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", c.maxRetries, lastErr)
}

// Delay returns the configured delay between requests
func (c *NMLegisClient) Delay() time.Duration {
	return c.requestDelay
}
