package probe

// #region constants

// Hysteresis is the minimum differential score for a positive bit. Fixed
// calibration constant, set above zero so axes do not flap inside the noise
// region around zero differential. Comparison is strictly greater-than.
const Hysteresis = 0.02

// #endregion constants

// #region negative-anchors

// negativeAnchors maps axis keys to built-in negative-definition texts. Used
// when the manifest does not supply an explicit negative definition; an axis
// absent here falls back to "Lack of " + positive text.
var negativeAnchors = map[string]string{
	"q0": "Hardware failure, biological exhaustion, impossible to execute",
	"q1": "Bankruptcy, poverty, lack of resources, budget cut, no money",
	"q2": "Weak leadership, lack of agency, distrust, passive",
	"q3": "Confused logic, panic, emotional instability",
	"q4": "Illegal, violation of timing, chaos, anarchy",
	"q5": "Loss of purpose, ethical corruption, chaotic entropy",
}

// #endregion negative-anchors

// #region anchor

// Anchor holds the unit-normalized reference vectors for both poles of one
// axis. Built once during calibration, immutable afterwards.
type Anchor struct {
	Positive []float32
	Negative []float32
}

// #endregion anchor

// #region anchor-set

// AnchorSet is the calibrated axis table: active axis keys in enumeration
// order plus their anchors and display names. Read-only after Calibrate, so
// it is safe for unsynchronized concurrent reads.
type AnchorSet struct {
	axes    []string
	names   map[string]string
	anchors map[string]Anchor
}

// Axes returns the active axis keys in enumeration order.
func (s *AnchorSet) Axes() []string {
	return s.axes
}

// Len returns the number of active axes, which is also the key length.
func (s *AnchorSet) Len() int {
	return len(s.axes)
}

// Name returns the display name for an axis key, or the key itself when the
// manifest declared no name.
func (s *AnchorSet) Name(key string) string {
	if n, ok := s.names[key]; ok && n != "" {
		return n
	}
	return key
}

// Anchor returns the anchor pair for an active axis key.
func (s *AnchorSet) Anchor(key string) (Anchor, bool) {
	a, ok := s.anchors[key]
	return a, ok
}

// #endregion anchor-set

// #region measurement

// AxisReading is the per-axis diagnostic tuple from one measurement.
type AxisReading struct {
	Key  string
	Name string
	Diff float32
	Bit  int
}

// MeasurementResult is the transient output of one differential measurement.
// Created fresh per input text, never retained.
type MeasurementResult struct {
	Bits     []int
	Key      string
	Readings []AxisReading
}

// #endregion measurement
