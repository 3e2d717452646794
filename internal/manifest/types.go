package manifest

// #region axis-order

// AxisOrder is the fixed enumeration order for axis keys. Bit position,
// calibration order, and key composition all derive from this list.
var AxisOrder = []string{"q0", "q1", "q2", "q3", "q4", "q5"}

// #endregion axis-order

// #region axis-definition

// AxisDefinition declares one bipolar semantic axis.
type AxisDefinition struct {
	Name      string `json:"name"`
	PosDef    string `json:"pos_def"`
	VectorDef string `json:"vector_def"`
}

// PositiveText returns the positive-definition text, preferring PosDef and
// falling back to VectorDef. Empty string means the axis is unusable.
func (d AxisDefinition) PositiveText() string {
	if d.PosDef != "" {
		return d.PosDef
	}
	return d.VectorDef
}

// #endregion axis-definition

// #region state-entry

// StateEntry is one named logic topology, keyed by its bit-string in the
// manifest's state table.
type StateEntry struct {
	U      string `json:"u"`      // display glyph
	Name   string `json:"name"`   // display name
	Vector string `json:"vector"` // physics description
	Audit  string `json:"audit"`  // audit label
}

// #endregion state-entry

// #region manifest

// Manifest is the typed form of the protocol manifest document. Loaded once
// at startup and treated as read-only afterwards.
type Manifest struct {
	Dimensions map[string]AxisDefinition `json:"dimensions"`
	States     map[string]StateEntry     `json:"states"`
}

// #endregion manifest
