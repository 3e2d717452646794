// Package probe implements differential semantic measurement: per-axis
// positive/negative anchor calibration and the collapse of an input text
// into a discrete bit key.
package probe

// #region imports
import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/danielpatrickdp/grounding-valve/internal/embedding"
	"github.com/danielpatrickdp/grounding-valve/internal/manifest"
)

// #endregion imports

// #region calibrate

// Calibrate builds the anchor table from the manifest axis definitions. One
// embedding call per axis per polarity; run once per process, before any
// measurement. Axes without usable definition text are skipped with a
// warning and excluded from the active set. A zero-norm embedding aborts
// calibration: it means the provider is returning garbage.
func Calibrate(ctx context.Context, m *manifest.Manifest, emb embedding.Embedder, logger zerolog.Logger) (*AnchorSet, error) {
	set := &AnchorSet{
		names:   make(map[string]string),
		anchors: make(map[string]Anchor),
	}

	for _, key := range manifest.AxisOrder {
		dim, ok := m.Dimensions[key]
		if !ok {
			logger.Warn().Str("axis", key).Msg("axis not declared, skipping")
			continue
		}
		posText := dim.PositiveText()
		if posText == "" {
			logger.Warn().Str("axis", key).Msg("axis has no positive definition, skipping")
			continue
		}

		negText, ok := negativeAnchors[key]
		if !ok {
			negText = "Lack of " + posText
		}

		pos, err := embedAnchor(ctx, emb, posText)
		if err != nil {
			return nil, fmt.Errorf("calibrate axis %s positive: %w", key, err)
		}
		neg, err := embedAnchor(ctx, emb, negText)
		if err != nil {
			return nil, fmt.Errorf("calibrate axis %s negative: %w", key, err)
		}

		set.axes = append(set.axes, key)
		set.names[key] = dim.Name
		set.anchors[key] = Anchor{Positive: pos, Negative: neg}
		logger.Debug().Str("axis", key).Str("name", dim.Name).Msg("probe calibrated")
	}

	if set.Len() == 0 {
		return nil, fmt.Errorf("no axes could be calibrated")
	}
	return set, nil
}

func embedAnchor(ctx context.Context, emb embedding.Embedder, text string) ([]float32, error) {
	vec, err := emb.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	return embedding.Normalize(vec)
}

// #endregion calibrate

// #region restore

// Restore rebuilds an AnchorSet from previously calibrated data, e.g. the
// anchor cache. Axis order must match the original enumeration order.
func Restore(axes []string, names map[string]string, anchors map[string]Anchor) (*AnchorSet, error) {
	if len(axes) == 0 {
		return nil, fmt.Errorf("no axes")
	}
	set := &AnchorSet{
		axes:    append([]string(nil), axes...),
		names:   make(map[string]string, len(axes)),
		anchors: make(map[string]Anchor, len(axes)),
	}
	for _, key := range axes {
		a, ok := anchors[key]
		if !ok {
			return nil, fmt.Errorf("axis %s has no anchor pair", key)
		}
		if len(a.Positive) == 0 || len(a.Negative) == 0 {
			return nil, fmt.Errorf("axis %s has an empty anchor vector", key)
		}
		set.anchors[key] = a
		set.names[key] = names[key]
	}
	return set, nil
}

// #endregion restore
