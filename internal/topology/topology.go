// Package topology resolves a measured bit key against the manifest's named
// logic-topology table.
package topology

// #region imports
import (
	"github.com/rs/zerolog"

	"github.com/danielpatrickdp/grounding-valve/internal/manifest"
)

// #endregion imports

// #region status

// Status marks whether a resolution hit the state table or fell back.
type Status string

const (
	StatusGrounded Status = "GROUNDED"
	StatusFallback Status = "FALLBACK"
)

// #endregion status

// #region grounded-state

// GroundedState is the transient result of resolving one key. Consumed
// immediately by the valve, never retained.
type GroundedState struct {
	Status  Status
	Key     string
	Glyph   string
	Name    string
	Physics string
	Audit   string
}

// #endregion grounded-state

// #region fallback

// Fallback values returned for any key the manifest does not declare. A
// miss is designed behavior, not an error: manifests need not be exhaustive
// over the full key space.
const (
	FallbackGlyph   = "unknown"
	FallbackName    = "Unknown Chaos"
	FallbackPhysics = "Logic coherence failed."
	FallbackAudit   = "System_Error"
)

// #endregion fallback

// #region table

// Table is the immutable state lookup table, loaded once from the manifest.
type Table struct {
	states map[string]manifest.StateEntry
}

// NewTable builds the lookup table. activeAxes is the calibrated axis count;
// state keys of a different length can never match a measured key and are
// reported once here instead of failing silently per lookup.
func NewTable(m *manifest.Manifest, activeAxes int, logger zerolog.Logger) *Table {
	states := make(map[string]manifest.StateEntry, len(m.States))
	for key, entry := range m.States {
		if len(key) != activeAxes {
			logger.Warn().
				Str("state", key).
				Int("active_axes", activeAxes).
				Msg("state key length does not match active axis count, entry unreachable")
		}
		states[key] = entry
	}
	return &Table{states: states}
}

// Len returns the number of declared states.
func (t *Table) Len() int {
	return len(t.states)
}

// #endregion table

// #region resolve

// Resolve looks up a bit key. On a hit it returns StatusGrounded with the
// entry's fields; on a miss it returns the fixed fallback. Never errors.
func (t *Table) Resolve(key string) GroundedState {
	entry, ok := t.states[key]
	if !ok {
		return GroundedState{
			Status:  StatusFallback,
			Key:     key,
			Glyph:   FallbackGlyph,
			Name:    FallbackName,
			Physics: FallbackPhysics,
			Audit:   FallbackAudit,
		}
	}
	return GroundedState{
		Status:  StatusGrounded,
		Key:     key,
		Glyph:   entry.U,
		Name:    entry.Name,
		Physics: entry.Vector,
		Audit:   entry.Audit,
	}
}

// #endregion resolve
