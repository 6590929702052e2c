package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"svjfit/internal/catalog"
	"svjfit/internal/fit"
	"svjfit/internal/fitcache"
	"svjfit/internal/hist"
	svjapi "svjfit/pkg/svjfit"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "select":
		return runSelect(ctx, args[1:])
	case "fit":
		return runFit(ctx, args[1:])
	case "families":
		return runFamilies(args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: svjfitctl <select|fit|families> [flags]", msg)
}

func runSelect(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("select", flag.ContinueOnError)
	bkgFile := fs.String("bkg", "", "background input json")
	dataFile := fs.String("data", "", "observed data input json (defaults to background)")
	configFile := fs.String("config", "", "optional build request json")
	storeKind := fs.String("store", fitcache.DefaultStoreKind(), "fit cache backend: memory|sqlite")
	dbPath := fs.String("db", "", "fit cache sqlite path")
	gofType := fs.String("gof", "rss", "goodness-of-fit statistic: rss|chi2")
	significance := fs.Float64("significance", 0, "F-test significance threshold")
	brute := fs.Bool("brute", false, "force the brute-force fallback")
	mtMin := fs.Float64("mt-min", 180, "lower histogram range cut")
	mtMax := fs.Float64("mt-max", 650, "upper histogram range cut")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *bkgFile == "" {
		return usageError("select: -bkg is required")
	}

	req := svjapi.BuildRequest{
		GoFType:      *gofType,
		Significance: *significance,
		Brute:        *brute,
	}
	if *configFile != "" {
		loaded, err := loadBuildRequestFromConfig(*configFile)
		if err != nil {
			return err
		}
		req = loaded
	}

	bkg, err := loadHistogram(*bkgFile, "bkg", *mtMin, *mtMax)
	if err != nil {
		return err
	}
	data := bkg
	if *dataFile != "" {
		data, err = loadHistogram(*dataFile, "data", *mtMin, *mtMax)
		if err != nil {
			return err
		}
	}

	client, err := svjapi.New(ctx, svjapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer client.Close()

	results, err := client.BuildModels(ctx, bkg, data, req)
	if err != nil {
		return err
	}

	type winnerLine struct {
		Family string      `json:"family"`
		Winner int         `json:"winner"`
		NPars  int         `json:"n_pars"`
		GoF    float64     `json:"gof"`
		Matrix [][]float64 `json:"confidence"`
	}
	out := make([]winnerLine, len(results))
	for i, fr := range results {
		out[i] = winnerLine{
			Family: fr.Family,
			Winner: fr.Winner,
			NPars:  fr.WinnerModel().NPars,
			GoF:    fr.Report.GoFs[fr.Winner].Value,
			Matrix: fr.Report.Confidence,
		}
	}
	return printJSON(out)
}

func runFit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fit", flag.ContinueOnError)
	bkgFile := fs.String("bkg", "", "background input json")
	family := fs.String("family", "main", "model family")
	nPars := fs.Int("npars", 2, "parameter count")
	storeKind := fs.String("store", fitcache.DefaultStoreKind(), "fit cache backend: memory|sqlite")
	dbPath := fs.String("db", "", "fit cache sqlite path")
	brute := fs.Bool("brute", false, "force the brute-force fallback")
	mtMin := fs.Float64("mt-min", 180, "lower histogram range cut")
	mtMax := fs.Float64("mt-max", 650, "upper histogram range cut")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *bkgFile == "" {
		return usageError("fit: -bkg is required")
	}

	bkg, err := loadHistogram(*bkgFile, "bkg", *mtMin, *mtMax)
	if err != nil {
		return err
	}
	m, err := catalog.NewModel(*family, *nPars, bkg, "")
	if err != nil {
		return err
	}

	store, err := fitcache.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		return err
	}
	defer fitcache.CloseIfSupported(store)
	cache := fitcache.New(store, nil)

	robust, err := fit.Robust(ctx, m.Expr, m.NPars, bkg, cache, *brute)
	if err != nil {
		return err
	}
	refined, err := fit.Refine(ctx, m, robust.X)
	if err != nil {
		return err
	}
	return printJSON(refined)
}

func runFamilies(args []string) error {
	fs := flag.NewFlagSet("families", flag.ContinueOnError)
	all := fs.Bool("all", false, "list the full catalog instead of the active set")
	if err := fs.Parse(args); err != nil {
		return err
	}
	names := catalog.KnownFamilies()
	if *all {
		names = catalog.AllFamilies()
	}
	type familyLine struct {
		Name string `json:"name"`
		NMin int    `json:"n_min"`
		NMax int    `json:"n_max"`
	}
	out := make([]familyLine, 0, len(names))
	for _, name := range names {
		f, err := catalog.Get(name)
		if err != nil {
			return err
		}
		out = append(out, familyLine{Name: f.Name(), NMin: f.NMin(), NMax: f.NMax()})
	}
	return printJSON(out)
}

func loadHistogram(path, key string, mtMin, mtMax float64) (*hist.Histogram, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tree, err := hist.DecodeTree(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := tree.CutAll(mtMin, mtMax); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	h, err := tree.Histogram(key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return h, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
