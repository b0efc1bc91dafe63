package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/forest-guardian/distwise-lulc/internal/model"
)

// Signer turns a catalog asset into one the raster loader is allowed to read.
type Signer interface {
	Sign(ctx context.Context, desc model.AssetDescriptor) (model.AssetDescriptor, error)
}

// NopSigner is for catalogs whose assets are public.
type NopSigner struct{}

func (NopSigner) Sign(_ context.Context, desc model.AssetDescriptor) (model.AssetDescriptor, error) {
	desc.Signed = true
	return desc, nil
}

// PlanetaryComputerSigner appends a collection scoped SAS token obtained from
// the Planetary Computer SAS API to the asset href.
type PlanetaryComputerSigner struct {
	http            *http.Client
	sasURL          string
	subscriptionKey string
}

type sasToken struct {
	Token  string `json:"token"`
	Expiry string `json:"msft:expiry"`
}

func NewPlanetaryComputerSigner(httpClient *http.Client, sasURL, subscriptionKey string) *PlanetaryComputerSigner {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &PlanetaryComputerSigner{
		http:            httpClient,
		sasURL:          strings.TrimRight(sasURL, "/"),
		subscriptionKey: subscriptionKey,
	}
}

func (s *PlanetaryComputerSigner) Sign(ctx context.Context, desc model.AssetDescriptor) (model.AssetDescriptor, error) {
	if desc.Collection == "" {
		return desc, fmt.Errorf("sign asset %s: missing collection: %w", desc.ItemID, model.ErrInvalidInput)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.sasURL+"/token/"+url.PathEscape(desc.Collection), nil)
	if err != nil {
		return desc, fmt.Errorf("build sas request: %w", err)
	}
	if s.subscriptionKey != "" {
		req.Header.Set("Ocp-Apim-Subscription-Key", s.subscriptionKey)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return desc, transportError("sas token", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus("sas token", resp); err != nil {
		return desc, err
	}

	var tok sasToken
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return desc, fmt.Errorf("decode sas token: %w", err)
	}
	if tok.Token == "" {
		return desc, fmt.Errorf("sas token for %s is empty", desc.Collection)
	}

	desc.Href = appendQuery(desc.Href, tok.Token)
	desc.Signed = true
	return desc, nil
}

func appendQuery(href, query string) string {
	query = strings.TrimPrefix(query, "?")
	if strings.Contains(href, "?") {
		return href + "&" + query
	}
	return href + "?" + query
}
