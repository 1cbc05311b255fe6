// Package sults talks to the SULTS expansion API: the paginated lead list
// and the per-lead timeline endpoint.
package sults

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/behonest/leadscore-cli/internal/model"
)

// Options configures the SULTS client.
type Options struct {
	Token      string
	BaseURL    string
	FunnelID   int64
	PageSize   int
	MaxPages   int
	MaxRetries int
	Timeout    time.Duration
}

// Client is an authenticated SULTS API client with retry and rate limiting.
type Client struct {
	client  *http.Client
	opts    Options
	limiter *rate.Limiter
}

// New creates a Client with the given options.
func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.PageSize <= 0 || opts.PageSize > 100 {
		opts.PageSize = 100
	}
	if opts.MaxPages == 0 {
		opts.MaxPages = 51
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts:    opts,
		limiter: rate.NewLimiter(10, 10),
	}
}

type listResponse struct {
	Data      []model.RawLead `json:"data"`
	TotalPage int             `json:"totalPage"`
}

type timelineResponse struct {
	Data []model.TimelineItem `json:"data"`
}

func (c *Client) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < c.opts.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "sults: rate limiter wait")
		}

		cloned := req.Clone(ctx)
		resp, err := c.client.Do(cloned)
		if err != nil {
			lastErr = err
			zap.L().Warn("sults: request failed, retrying",
				zap.String("url", req.URL.String()),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			c.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("sults: http 429 from %s", req.URL.String())
			zap.L().Warn("sults: rate limited (429), backing off",
				zap.String("url", req.URL.String()),
				zap.Int("attempt", attempt+1),
			)
			c.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("sults: http %d from %s", resp.StatusCode, req.URL.String())
			zap.L().Warn("sults: server error, retrying",
				zap.String("url", req.URL.String()),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			c.backoff(ctx, attempt)
			continue
		}

		// 4xx other than 429 will not improve on retry.
		return resp, nil
	}

	return nil, eris.Wrap(lastErr, "sults: all retries exhausted")
}

func (c *Client) backoff(ctx context.Context, attempt int) {
	base := time.Second
	maxBackoff := 30 * time.Second
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d > maxBackoff {
		d = maxBackoff
	}
	jitter := time.Duration(rand.Int63n(int64(d) / 2))
	d = d + jitter

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.opts.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return eris.Wrap(err, "sults: create request")
	}
	req.Header.Set("Authorization", c.opts.Token)
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")

	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("sults: unexpected status %d from %s", resp.StatusCode, u)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return eris.Wrapf(err, "sults: decode response from %s", u)
	}
	return nil
}

// FetchLeads pages through /negocio and returns every lead in the
// configured funnel. Pagination stops on an empty page, when the reported
// total page count is reached, or at the hard page cap that guards against
// a misreported total. A transport failure mid-way is non-fatal: leads
// accumulated from earlier pages are returned.
func (c *Client) FetchLeads(ctx context.Context, onProgress func(string)) []model.RawLead {
	progress := func(msg string) {
		if onProgress != nil {
			onProgress(msg)
		}
	}

	var all []model.RawLead
	for page := 0; page < c.opts.MaxPages; page++ {
		progress(fmt.Sprintf("fetching lead page %d", page))

		query := url.Values{}
		query.Set("start", fmt.Sprintf("%d", page))
		query.Set("limit", fmt.Sprintf("%d", c.opts.PageSize))

		var resp listResponse
		if err := c.getJSON(ctx, "/negocio", query, &resp); err != nil {
			zap.L().Warn("sults: page fetch failed, keeping partial results",
				zap.Int("page", page),
				zap.Int("accumulated", len(all)),
				zap.Error(err),
			)
			progress(fmt.Sprintf("page %d failed, continuing with %d leads", page, len(all)))
			return all
		}

		if len(resp.Data) == 0 {
			break
		}

		for _, lead := range resp.Data {
			if lead.Stage.Funnel.ID == c.opts.FunnelID {
				all = append(all, lead)
			}
		}

		if page+1 >= resp.TotalPage {
			break
		}
	}

	zap.L().Info("sults: lead extraction complete", zap.Int("leads", len(all)))
	return all
}

// FetchTimeline returns the timeline items of a single lead.
func (c *Client) FetchTimeline(ctx context.Context, leadID int64) ([]model.TimelineItem, error) {
	var resp timelineResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/negocio/%d/timeline", leadID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
