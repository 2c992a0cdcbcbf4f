// Package backend calls the recycler backend's read endpoints.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mohammed-shakir/recycler-discovery/internal/core/model"
	"github.com/mohammed-shakir/recycler-discovery/internal/core/observability"
)

// ErrStatus is returned for non-2xx backend responses.
var ErrStatus = errors.New("backend: unexpected status")

type ParamStyle int

const (
	// Comma sends types=1,2
	Comma ParamStyle = iota
	// Repeated sends types=1&types=2
	Repeated
)

func ParseParamStyle(s string) ParamStyle {
	if strings.EqualFold(strings.TrimSpace(s), "repeated") {
		return Repeated
	}
	return Comma
}

type Client struct {
	logger   *slog.Logger
	client   *http.Client
	base     *url.URL
	style    ParamStyle
	now      func() time.Time
}

func New(logger *slog.Logger, client *http.Client, baseURL string, style ParamStyle) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", baseURL)
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		logger:   logger,
		client:   client,
		base:     u,
		style:    style,
		now:      time.Now,
	}, nil
}

// Types fetches GET /types in server order.
func (c *Client) Types(ctx context.Context) ([]model.MaterialType, error) {
	var out []model.MaterialType
	if err := c.getJSON(ctx, "types", "/types", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Recyclers fetches GET /recyclers filtered by the given type ids.
// An empty selection sends no types parameter at all.
func (c *Client) Recyclers(ctx context.Context, sel model.Selection) ([]model.CollectionPoint, error) {
	var out []model.CollectionPoint
	if err := c.getJSON(ctx, "recyclers", "/recyclers", RecyclerParams(sel, c.style), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Recycler fetches GET /recyclers/:id.
func (c *Client) Recycler(ctx context.Context, id int) (model.RecyclerDetail, error) {
	var out model.RecyclerDetail
	if err := c.getJSON(ctx, "recycler", "/recyclers/"+strconv.Itoa(id), nil, &out); err != nil {
		return model.RecyclerDetail{}, err
	}
	return out, nil
}

func RecyclerParams(sel model.Selection, style ParamStyle) url.Values {
	params := url.Values{}
	if sel.Empty() {
		return params
	}
	ids := sel.IDs()
	if style == Repeated {
		for _, id := range ids {
			params.Add("types", strconv.Itoa(id))
		}
		return params
	}
	params.Set("types", sel.String())
	return params
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, params url.Values, dst any) (err error) {
	u := *c.base
	u.Path = c.base.Path + path
	u.RawPath = ""
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := c.now()
	defer func() {
		observability.ObserveBackend(endpoint, err, c.now().Sub(start).Seconds())
	}()

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.DebugContext(ctx, "backend response",
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"duration", c.now().Sub(start).String())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return fmt.Errorf("%w %d on %s: %s", ErrStatus, resp.StatusCode, path, strings.TrimSpace(string(b)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
