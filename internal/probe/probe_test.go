package probe

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/danielpatrickdp/grounding-valve/internal/manifest"
)

// stubEmbedder returns canned vectors by exact text, a default otherwise.
type stubEmbedder struct {
	vecs map[string][]float32
	def  []float32
	fail map[string]error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if err, ok := s.fail[text]; ok {
		return nil, err
	}
	if v, ok := s.vecs[text]; ok {
		return v, nil
	}
	return s.def, nil
}

func unit(dim, axis int) []float32 {
	v := make([]float32, dim)
	v[axis] = 1
	return v
}

func testManifest() *manifest.Manifest {
	dims := make(map[string]manifest.AxisDefinition)
	for i, key := range manifest.AxisOrder {
		dims[key] = manifest.AxisDefinition{
			Name:   fmt.Sprintf("axis-%d", i),
			PosDef: fmt.Sprintf("positive definition %d", i),
		}
	}
	return &manifest.Manifest{
		Dimensions: dims,
		States: map[string]manifest.StateEntry{
			"000000": {U: "x", Name: "Null", Vector: "none", Audit: "OK"},
		},
	}
}

func TestCalibrateAllAxes(t *testing.T) {
	emb := &stubEmbedder{def: unit(8, 0)}
	set, err := Calibrate(context.Background(), testManifest(), emb, zerolog.Nop())
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	if set.Len() != 6 {
		t.Fatalf("expected 6 axes, got %d", set.Len())
	}
	for i, key := range set.Axes() {
		if key != manifest.AxisOrder[i] {
			t.Fatalf("axis %d: expected %s, got %s", i, manifest.AxisOrder[i], key)
		}
	}
	if set.Name("q2") != "axis-2" {
		t.Fatalf("expected display name axis-2, got %s", set.Name("q2"))
	}
}

func TestCalibrateSkipsAxisWithoutDefinition(t *testing.T) {
	m := testManifest()
	m.Dimensions["q3"] = manifest.AxisDefinition{Name: "empty"}

	emb := &stubEmbedder{def: unit(8, 0)}
	set, err := Calibrate(context.Background(), m, emb, zerolog.Nop())
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	if set.Len() != 5 {
		t.Fatalf("expected 5 active axes, got %d", set.Len())
	}
	for _, key := range set.Axes() {
		if key == "q3" {
			t.Fatal("q3 should have been skipped")
		}
	}
}

func TestCalibrateUsesVectorDefFallback(t *testing.T) {
	m := testManifest()
	m.Dimensions["q1"] = manifest.AxisDefinition{Name: "fallback", VectorDef: "secondary text"}

	emb := &stubEmbedder{
		def:  unit(8, 0),
		vecs: map[string][]float32{"secondary text": unit(8, 1)},
	}
	set, err := Calibrate(context.Background(), m, emb, zerolog.Nop())
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	a, ok := set.Anchor("q1")
	if !ok {
		t.Fatal("q1 should be calibrated")
	}
	if a.Positive[1] != 1 {
		t.Fatal("q1 positive anchor should come from vector_def text")
	}
}

func TestCalibrateZeroNormIsError(t *testing.T) {
	m := testManifest()
	emb := &stubEmbedder{
		def:  unit(8, 0),
		vecs: map[string][]float32{"positive definition 2": make([]float32, 8)},
	}
	_, err := Calibrate(context.Background(), m, emb, zerolog.Nop())
	if err == nil {
		t.Fatal("expected zero-norm calibration error")
	}
}

func TestCalibratePropagatesProviderFailure(t *testing.T) {
	provErr := errors.New("provider unavailable")
	emb := &stubEmbedder{
		def:  unit(8, 0),
		fail: map[string]error{"positive definition 4": provErr},
	}
	_, err := Calibrate(context.Background(), testManifest(), emb, zerolog.Nop())
	if !errors.Is(err, provErr) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

// boundarySet builds a single-axis anchor set where the measured diff equals
// exactly the positive anchor's first component.
func boundarySet(t *testing.T, diff float32) *AnchorSet {
	t.Helper()
	pos := []float32{diff, 1, 0, 0}
	neg := []float32{0, 0, 1, 0}
	set, err := Restore(
		[]string{"q0"},
		map[string]string{"q0": "boundary"},
		map[string]Anchor{"q0": {Positive: pos, Negative: neg}},
	)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	return set
}

func TestBitZeroAtExactThreshold(t *testing.T) {
	set := boundarySet(t, 0.02)
	emb := &stubEmbedder{def: unit(4, 0)}

	result, err := Measure(context.Background(), "boundary text", set, emb)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if result.Bits[0] != 0 {
		t.Fatalf("diff exactly 0.02 must give bit 0, got %d", result.Bits[0])
	}
}

func TestBitOneJustAboveThreshold(t *testing.T) {
	set := boundarySet(t, 0.0200001)
	emb := &stubEmbedder{def: unit(4, 0)}

	result, err := Measure(context.Background(), "boundary text", set, emb)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if result.Bits[0] != 1 {
		t.Fatalf("diff above 0.02 must give bit 1, got %d", result.Bits[0])
	}
}

func TestComposeKeyReversesBitOrder(t *testing.T) {
	key := ComposeKey([]int{1, 0, 1, 1, 0, 0})
	if key != "001101" {
		t.Fatalf("expected 001101, got %s", key)
	}
}

func TestMeasureKeyUsesReverseOrder(t *testing.T) {
	// q0 aligned with its positive anchor, q1 aligned with its negative.
	dim := 4
	anchors := map[string]Anchor{
		"q0": {Positive: unit(dim, 0), Negative: unit(dim, 1)},
		"q1": {Positive: unit(dim, 1), Negative: unit(dim, 0)},
	}
	set, err := Restore([]string{"q0", "q1"}, map[string]string{}, anchors)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	emb := &stubEmbedder{def: unit(dim, 0)}

	result, err := Measure(context.Background(), "aligned with q0", set, emb)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if result.Bits[0] != 1 || result.Bits[1] != 0 {
		t.Fatalf("expected bits [1 0], got %v", result.Bits)
	}
	// b1 b0, not b0 b1
	if result.Key != "01" {
		t.Fatalf("expected key 01, got %s", result.Key)
	}
}

func TestMeasureDeterministic(t *testing.T) {
	set := boundarySet(t, 0.5)
	emb := &stubEmbedder{def: []float32{0.3, 0.4, 0.1, 0.2}}

	a, err := Measure(context.Background(), "same text", set, emb)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	b, err := Measure(context.Background(), "same text", set, emb)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if a.Key != b.Key {
		t.Fatalf("keys differ: %s vs %s", a.Key, b.Key)
	}
	for i := range a.Bits {
		if a.Bits[i] != b.Bits[i] {
			t.Fatalf("bit %d differs", i)
		}
	}
}

func TestMeasureNormalizesInput(t *testing.T) {
	set := boundarySet(t, 0.5)
	// Same direction, wildly different magnitude: must collapse identically.
	small := &stubEmbedder{def: []float32{0.001, 0, 0, 0}}
	large := &stubEmbedder{def: []float32{1000, 0, 0, 0}}

	a, err := Measure(context.Background(), "text", set, small)
	if err != nil {
		t.Fatalf("Measure small: %v", err)
	}
	b, err := Measure(context.Background(), "text", set, large)
	if err != nil {
		t.Fatalf("Measure large: %v", err)
	}
	if a.Key != b.Key {
		t.Fatalf("magnitude changed the key: %s vs %s", a.Key, b.Key)
	}
}

func TestMeasurePropagatesProviderFailure(t *testing.T) {
	set := boundarySet(t, 0.5)
	provErr := errors.New("provider down")
	emb := &stubEmbedder{def: unit(4, 0), fail: map[string]error{"doomed": provErr}}

	_, err := Measure(context.Background(), "doomed", set, emb)
	if !errors.Is(err, provErr) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestMeasureRecordsReadings(t *testing.T) {
	set := boundarySet(t, 0.5)
	emb := &stubEmbedder{def: unit(4, 0)}

	result, err := Measure(context.Background(), "text", set, emb)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if len(result.Readings) != 1 {
		t.Fatalf("expected 1 reading, got %d", len(result.Readings))
	}
	r := result.Readings[0]
	if r.Key != "q0" || r.Name != "boundary" || r.Bit != 1 {
		t.Fatalf("unexpected reading: %+v", r)
	}
	if r.Diff <= Hysteresis {
		t.Fatalf("expected diff above threshold, got %f", r.Diff)
	}
}

func TestEndToEndSeparation(t *testing.T) {
	dim := 8
	anchors := map[string]Anchor{
		"q1": {Positive: unit(dim, 1), Negative: unit(dim, 2)},
	}
	set, err := Restore([]string{"q1"}, map[string]string{"q1": "resources"}, anchors)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}

	emb := &stubEmbedder{
		def: unit(dim, 7), // neutral: orthogonal to both poles
		vecs: map[string][]float32{
			"we are well funded": {0, 0.9, 0.1, 0, 0, 0, 0, 0},
		},
	}

	aligned, err := Measure(context.Background(), "we are well funded", set, emb)
	if err != nil {
		t.Fatalf("Measure aligned: %v", err)
	}
	if aligned.Bits[0] != 1 {
		t.Fatal("text aligned with the positive pole should set the bit")
	}

	neutral, err := Measure(context.Background(), "the sky is blue", set, emb)
	if err != nil {
		t.Fatalf("Measure neutral: %v", err)
	}
	if neutral.Bits[0] != 0 {
		t.Fatal("neutral text should leave the bit unset")
	}
}
