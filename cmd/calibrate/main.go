package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/grounding-valve/internal/anchorcache"
	"github.com/danielpatrickdp/grounding-valve/internal/config"
	"github.com/danielpatrickdp/grounding-valve/internal/embedding"
	"github.com/danielpatrickdp/grounding-valve/internal/manifest"
	"github.com/danielpatrickdp/grounding-valve/internal/observability"
	"github.com/danielpatrickdp/grounding-valve/internal/probe"
)

// #region main
func main() {
	cfgPath := flag.String("config", "", "path to valve.toml (optional)")
	force := flag.Bool("force", false, "recalibrate even when the cache is warm")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := observability.InitLogger("calibrate", cfg.LogLevel)

	m, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("manifest load failed")
	}

	cache, err := anchorcache.NewStore(cfg.CacheDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("open anchor cache failed")
	}
	defer cache.Close()

	hash := m.Hash()
	model := cfg.EmbedModel()

	if !*force {
		if _, ok, err := cache.Load(hash, model); err != nil {
			logger.Fatal().Err(err).Msg("cache read failed")
		} else if ok {
			fmt.Println("Cache is warm for this manifest and model; use -force to recalibrate.")
			return
		}
	}

	emb, err := embedding.New(embedding.Config{
		Provider:       cfg.Provider.Kind,
		OllamaEndpoint: cfg.Provider.OllamaEndpoint,
		OllamaModel:    cfg.Provider.OllamaModel,
		GenAIAPIKey:    cfg.Provider.GenAIAPIKey,
		GenAIModel:     cfg.Provider.GenAIModel,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("embedding provider init failed")
	}

	set, err := probe.Calibrate(context.Background(), m, emb, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("calibration failed")
	}

	runID, err := cache.Save(hash, model, set)
	if err != nil {
		logger.Fatal().Err(err).Msg("cache write failed")
	}

	fmt.Printf("Calibration %s stored.\n", runID)
	for _, key := range set.Axes() {
		fmt.Printf("  probe %s (%s) calibrated\n", key, set.Name(key))
	}
	if skipped := len(manifest.AxisOrder) - set.Len(); skipped > 0 {
		fmt.Printf("  %d axis definition(s) missing, key length is %d\n", skipped, set.Len())
	}
}

// #endregion main
