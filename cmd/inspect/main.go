package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/grounding-valve/internal/anchorcache"
	"github.com/danielpatrickdp/grounding-valve/internal/config"
	"github.com/danielpatrickdp/grounding-valve/internal/embedding"
	"github.com/danielpatrickdp/grounding-valve/internal/manifest"
	"github.com/danielpatrickdp/grounding-valve/internal/observability"
	"github.com/danielpatrickdp/grounding-valve/internal/probe"
	"github.com/danielpatrickdp/grounding-valve/internal/topology"
)

// #region output

type inspection struct {
	Text     string              `json:"text"`
	Key      string              `json:"key"`
	Status   string              `json:"status"`
	State    string              `json:"state"`
	Audit    string              `json:"audit"`
	Physics  string              `json:"physics"`
	Readings []probe.AxisReading `json:"readings"`
}

// #endregion output

// #region main
func main() {
	cfgPath := flag.String("config", "", "path to valve.toml (optional)")
	text := flag.String("text", "", "text to measure")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *text == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --text \"...\" [--config valve.toml] [--json]")
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := observability.InitLogger("inspect", cfg.LogLevel)

	m, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("manifest load failed")
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

	ctx := context.Background()

	cache, err := anchorcache.NewStore(cfg.CacheDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("open anchor cache failed")
	}
	defer cache.Close()

	set, ok, err := cache.Load(m.Hash(), cfg.EmbedModel())
	if err != nil {
		logger.Fatal().Err(err).Msg("cache read failed")
	}
	if !ok {
		set, err = probe.Calibrate(ctx, m, emb, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("calibration failed")
		}
	}

	table := topology.NewTable(m, set.Len(), logger)

	result, err := probe.Measure(ctx, *text, set, emb)
	if err != nil {
		logger.Fatal().Err(err).Msg("measurement failed")
	}
	state := table.Resolve(result.Key)

	if *jsonOut {
		out := inspection{
			Text:     *text,
			Key:      result.Key,
			Status:   string(state.Status),
			State:    state.Name,
			Audit:    state.Audit,
			Physics:  state.Physics,
			Readings: result.Readings,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			logger.Fatal().Err(err).Msg("encode failed")
		}
		return
	}

	fmt.Printf("Input: %q\n", *text)
	for _, r := range result.Readings {
		fmt.Printf("  %-4s %-12s diff=%+.4f bit=%d\n", r.Key, r.Name, r.Diff, r.Bit)
	}
	fmt.Printf("Key: %s\n", result.Key)
	fmt.Printf("State: %s %s (%s) [%s]\n", state.Glyph, state.Name, state.Audit, state.Status)
	fmt.Printf("Physics: %s\n", state.Physics)
}

// #endregion main
