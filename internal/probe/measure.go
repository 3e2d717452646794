package probe

// #region imports
import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/danielpatrickdp/grounding-valve/internal/embedding"
)

// #endregion imports

// #region measure

// Measure collapses an input text into a discrete bit key against the
// calibrated anchors. For a fixed provider and anchor set this is a pure
// function of text: identical input yields identical bits and key.
func Measure(ctx context.Context, text string, set *AnchorSet, emb embedding.Embedder) (MeasurementResult, error) {
	raw, err := emb.Embed(ctx, text)
	if err != nil {
		return MeasurementResult{}, fmt.Errorf("embed input: %w", err)
	}
	vec, err := embedding.Normalize(raw)
	if err != nil {
		return MeasurementResult{}, fmt.Errorf("normalize input: %w", err)
	}

	bits := make([]int, 0, set.Len())
	readings := make([]AxisReading, 0, set.Len())

	for _, key := range set.Axes() {
		anchor, _ := set.Anchor(key)
		simPos := embedding.Cosine(vec, anchor.Positive)
		simNeg := embedding.Cosine(vec, anchor.Negative)
		diff := simPos - simNeg

		bit := 0
		if diff > Hysteresis {
			bit = 1
		}
		bits = append(bits, bit)
		readings = append(readings, AxisReading{
			Key:  key,
			Name: set.Name(key),
			Diff: diff,
			Bit:  bit,
		})
	}

	return MeasurementResult{
		Bits:     bits,
		Key:      ComposeKey(bits),
		Readings: readings,
	}, nil
}

// #endregion measure

// #region compose-key

// ComposeKey concatenates bits in reverse enumeration order: the
// most-significant position of the key is the last-enumerated axis. The
// state table is keyed under this convention, so it must not change.
func ComposeKey(bits []int) string {
	var b strings.Builder
	b.Grow(len(bits))
	for i := len(bits) - 1; i >= 0; i-- {
		b.WriteString(strconv.Itoa(bits[i]))
	}
	return b.String()
}

// #endregion compose-key
