package catalog

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/forest-guardian/distwise-lulc/internal/logger"
	"github.com/forest-guardian/distwise-lulc/internal/model"
	"github.com/forest-guardian/distwise-lulc/internal/retry"
)

type ResolverConfig struct {
	Collection string
	AssetKey   string
	MinYear    int
	MaxYear    int
	Retry      retry.Policy
}

// Resolver finds the single raster asset covering a bbox for a year and
// signs it.
type Resolver struct {
	searcher Searcher
	signer   Signer
	cfg      ResolverConfig
	log      *zerolog.Logger
}

func NewResolver(searcher Searcher, signer Signer, cfg ResolverConfig, log *zerolog.Logger) *Resolver {
	if signer == nil {
		signer = NopSigner{}
	}
	if cfg.AssetKey == "" {
		cfg.AssetKey = "data"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{searcher: searcher, signer: signer, cfg: cfg, log: log}
}

func (r *Resolver) Resolve(ctx context.Context, year int, bbox model.BBox) (model.AssetDescriptor, error) {
	var desc model.AssetDescriptor

	if year < r.cfg.MinYear || year > r.cfg.MaxYear {
		return desc, fmt.Errorf("year %d outside catalog range %d-%d: %w", year, r.cfg.MinYear, r.cfg.MaxYear, model.ErrNotFound)
	}
	if !bbox.Valid() {
		return desc, fmt.Errorf("bbox %s: %w", bbox, model.ErrInvalidInput)
	}

	req := SearchRequest{
		Collections: []string{r.cfg.Collection},
		BBox:        bbox.Slice(),
		Datetime:    yearRange(year),
		Limit:       1,
	}

	var items *ItemCollection
	err := r.cfg.Retry.Do(ctx, func(ctx context.Context) error {
		var err error
		items, err = r.searcher.Search(ctx, req)
		if err != nil {
			logger.FromContext(ctx, r.log).Warn().Err(err).Msg("catalog search attempt failed")
		}
		return err
	})
	if err != nil {
		return desc, err
	}
	if items == nil || len(items.Features) == 0 {
		return desc, fmt.Errorf("no %s item for %d within %s: %w", r.cfg.Collection, year, bbox, model.ErrNotFound)
	}

	item := items.Features[0]
	asset, ok := item.Assets[r.cfg.AssetKey]
	if !ok || asset.Href == "" {
		return desc, fmt.Errorf("item %s has no %q asset: %w", item.ID, r.cfg.AssetKey, model.ErrNotFound)
	}

	desc = model.AssetDescriptor{
		ItemID:     item.ID,
		Collection: item.Collection,
		Href:       asset.Href,
		MediaType:  asset.Type,
	}
	if desc.Collection == "" {
		desc.Collection = r.cfg.Collection
	}
	desc.Start, desc.End = item.Properties.temporalExtent()
	if len(item.BBox) >= 4 {
		desc.BBox = model.BBox{MinX: item.BBox[0], MinY: item.BBox[1], MaxX: item.BBox[2], MaxY: item.BBox[3]}
	}

	var signed model.AssetDescriptor
	err = r.cfg.Retry.Do(ctx, func(ctx context.Context) error {
		var err error
		signed, err = r.signer.Sign(ctx, desc)
		return err
	})
	if err != nil {
		return desc, fmt.Errorf("sign %s: %w", desc.ItemID, err)
	}

	logger.FromContext(ctx, r.log).Debug().
		Str("item", signed.ItemID).
		Str("collection", signed.Collection).
		Msg("catalog resolved")
	return signed, nil
}
