// Package svjfit is the public entry point for building the background
// model of a datacard: it fits every candidate shape family to the
// observed invariant-mass histogram, refines the fits, and selects the
// minimal-complexity model per family with a Fisher test.
package svjfit

import (
	"context"
	"fmt"
	"sync"

	"svjfit/internal/catalog"
	"svjfit/internal/fisher"
	"svjfit/internal/fit"
	"svjfit/internal/fitcache"
	"svjfit/internal/hist"
	"svjfit/internal/model"
)

const defaultDBPath = "fitcache.db"

// Options configure a Client.
type Options struct {
	// StoreKind selects the fit cache backend: memory or sqlite.
	StoreKind string
	// DBPath is the sqlite file for the persistent fit cache.
	DBPath string
	// Lock serializes cache access across processes sharing the backing
	// store. Nil for single-process use.
	Lock sync.Locker
}

// Client runs the fitting pipeline against a shared fit cache.
type Client struct {
	store fitcache.Store
	cache *fitcache.Cache
}

// BuildRequest describes one model-building run.
type BuildRequest struct {
	// Families to fit; defaults to the known set (main, alt, ua2).
	Families []string
	// GoFType selects chi2 or rss for the Fisher test; defaults to rss.
	GoFType string
	// Significance is the F-test threshold; defaults to 0.07.
	Significance float64
	// Brute forces the brute-force fallback even when the two-phase
	// strategy converges.
	Brute bool
	// Winners overrides the Fisher-test winner index per family.
	Winners map[string]int
}

// FamilyResult is the per-family outcome: every fitted model in
// complexity order, the refined fit results, the Fisher report, and the
// chosen model.
type FamilyResult struct {
	Family  string
	Models  []*catalog.Model
	Results []model.FitResult
	Report  fisher.Report
	// Winner indexes Models; it reflects a manual override when one was
	// requested.
	Winner int
}

// WinnerModel is the selected model instance.
func (r *FamilyResult) WinnerModel() *catalog.Model {
	return r.Models[r.Winner]
}

// New builds a Client with an initialized fit cache store.
func New(ctx context.Context, opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = fitcache.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	store, err := fitcache.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}

	return &Client{
		store: store,
		cache: fitcache.New(store, opts.Lock),
	}, nil
}

func (c *Client) Close() error {
	return fitcache.CloseIfSupported(c.store)
}

// BuildModels fits every requested family to the background histogram,
// runs the Fisher test against the observed dataset, and returns the
// per-family results. A family whose robust fit fails to converge aborts
// the run; no placeholder result enters the Fisher test.
func (c *Client) BuildModels(ctx context.Context, bkg, data *hist.Histogram, req BuildRequest) ([]FamilyResult, error) {
	if data == nil {
		data = bkg
	}
	familyNames := req.Families
	if len(familyNames) == 0 {
		familyNames = catalog.KnownFamilies()
	}

	out := make([]FamilyResult, 0, len(familyNames))
	for _, name := range familyNames {
		fr, err := c.buildFamily(ctx, name, bkg, data, req)
		if err != nil {
			return nil, fmt.Errorf("family %s: %w", name, err)
		}
		out = append(out, fr)
	}
	return out, nil
}

func (c *Client) buildFamily(ctx context.Context, name string, bkg, data *hist.Histogram, req BuildRequest) (FamilyResult, error) {
	models, err := catalog.NewModels(name, bkg, fmt.Sprintf("bsvj_bkgfit%s", name))
	if err != nil {
		return FamilyResult{}, err
	}

	results := make([]model.FitResult, len(models))
	for i, m := range models {
		robust, err := fit.Robust(ctx, m.Expr, m.NPars, bkg, c.cache, req.Brute)
		if err != nil {
			return FamilyResult{}, err
		}
		refined, err := fit.Refine(ctx, m, robust.X)
		if err != nil {
			return FamilyResult{}, err
		}
		results[i] = refined
	}

	report, err := fisher.Run(models, results, data, fisher.GoFType(req.GoFType), req.Significance)
	if err != nil {
		return FamilyResult{}, err
	}

	winner := report.Winner
	if override, ok := req.Winners[name]; ok {
		if override < 0 || override >= len(models) {
			return FamilyResult{}, fmt.Errorf("winner override %d out of range [0, %d)", override, len(models))
		}
		winner = override
	}
	if err := models[winner].SetToResult(results[winner].X); err != nil {
		return FamilyResult{}, err
	}

	return FamilyResult{
		Family:  name,
		Models:  models,
		Results: results,
		Report:  report,
		Winner:  winner,
	}, nil
}
