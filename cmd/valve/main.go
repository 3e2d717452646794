package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/danielpatrickdp/grounding-valve/internal/anchorcache"
	"github.com/danielpatrickdp/grounding-valve/internal/config"
	"github.com/danielpatrickdp/grounding-valve/internal/embedding"
	"github.com/danielpatrickdp/grounding-valve/internal/generation"
	"github.com/danielpatrickdp/grounding-valve/internal/manifest"
	"github.com/danielpatrickdp/grounding-valve/internal/observability"
	"github.com/danielpatrickdp/grounding-valve/internal/probe"
	"github.com/danielpatrickdp/grounding-valve/internal/topology"
	"github.com/danielpatrickdp/grounding-valve/internal/valve"
)

// #region main
func main() {
	cfgPath := flag.String("config", "", "path to valve.toml (optional)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := observability.InitLogger("valve", cfg.LogLevel)

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

	anchors, err := loadAnchors(cfg, m, emb, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("calibration failed")
	}

	table := topology.NewTable(m, anchors.Len(), logger)
	v, err := valve.New(anchors, table, emb, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("valve init failed")
	}

	next := buildDownstream(cfg, logger)

	fmt.Println("Grounding valve ready.")
	fmt.Printf("  Manifest: %s | Axes: %d | States: %d | Provider: %s\n",
		cfg.ManifestPath, anchors.Len(), table.Len(), cfg.Provider.Kind)
	fmt.Println("Type a prompt (or 'quit' to exit):")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		prompt := strings.TrimSpace(scanner.Text())
		if prompt == "" {
			continue
		}
		if prompt == "quit" || prompt == "exit" {
			break
		}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		out, err := v.Guard(ctx, prompt, next)
		cancel()
		if err != nil {
			logger.Error().Err(err).Msg("guard failed")
			continue
		}
		fmt.Printf("\n%s\n\n", out)
	}
}

// #endregion main

// #region anchors

// loadAnchors serves anchors from the cache when the manifest and model are
// unchanged, calibrating and re-filling the cache otherwise.
func loadAnchors(cfg config.Config, m *manifest.Manifest, emb embedding.Embedder, logger zerolog.Logger) (*probe.AnchorSet, error) {
	cache, err := anchorcache.NewStore(cfg.CacheDB)
	if err != nil {
		return nil, fmt.Errorf("open anchor cache: %w", err)
	}
	defer cache.Close()

	hash := m.Hash()
	model := cfg.EmbedModel()

	if set, ok, err := cache.Load(hash, model); err != nil {
		return nil, err
	} else if ok {
		logger.Info().Int("axes", set.Len()).Msg("anchors loaded from cache")
		return set, nil
	}

	logger.Info().Msg("calibrating differential probes")
	set, err := probe.Calibrate(context.Background(), m, emb, logger)
	if err != nil {
		return nil, err
	}
	if _, err := cache.Save(hash, model, set); err != nil {
		logger.Warn().Err(err).Msg("anchor cache write failed")
	}
	return set, nil
}

// #endregion anchors

// #region downstream

// buildDownstream returns the wrapped generation call: the Gemini API when a
// key is configured, otherwise a local echo that prints the grounded payload.
func buildDownstream(cfg config.Config, logger zerolog.Logger) valve.Downstream {
	if cfg.Provider.GenAIAPIKey != "" {
		gen, err := generation.NewGenAIGenerator(cfg.Provider.GenAIAPIKey, cfg.Provider.GenerationModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("generation client init failed")
		}
		return gen.Downstream()
	}
	logger.Info().Msg("no generation key configured, echoing grounded payloads")
	return func(ctx context.Context, prompt string) (string, error) {
		return prompt, nil
	}
}

// #endregion downstream
