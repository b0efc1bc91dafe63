package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/forest-guardian/distwise-lulc/internal/model"
)

// Searcher performs a single STAC item search.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) (*ItemCollection, error)
}

// Client talks to a STAC API root such as
// https://planetarycomputer.microsoft.com/api/stac/v1
type Client struct {
	http    *http.Client
	baseURL string
}

func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

func (c *Client) Search(ctx context.Context, sr SearchRequest) (*ItemCollection, error) {
	body, err := json.Marshal(sr)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError("stac search", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus("stac search", resp); err != nil {
		return nil, err
	}

	var items ItemCollection
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode stac search response: %w", err)
	}
	return &items, nil
}

// transportError marks network failures as transient unless the caller gave up.
func transportError(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %v: %w", op, err, model.ErrTransientIO)
}

// checkStatus maps non-2xx responses: 408, 429 and 5xx are transient, the
// rest are permanent.
func checkStatus(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	msg := strings.TrimSpace(string(b))
	switch {
	case resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= 500:
		return fmt.Errorf("%s: upstream status %d: %s: %w", op, resp.StatusCode, msg, model.ErrTransientIO)
	default:
		return fmt.Errorf("%s: upstream status %d: %s", op, resp.StatusCode, msg)
	}
}
