package manifest

// #region imports
import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
)

// #endregion imports

// #region load

// Load reads and validates a manifest document. Any read or decode failure
// is fatal to the caller: the process must not serve grounding requests
// without axes and a state table.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a manifest from raw bytes.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("validate manifest: %w", err)
	}
	return &m, nil
}

// #endregion load

// #region validate

// Validate rejects structurally broken manifests at load time. Axes lacking
// definition text stay loadable; calibration skips them per-axis instead.
func (m *Manifest) Validate() error {
	if len(m.Dimensions) == 0 {
		return fmt.Errorf("no dimensions declared")
	}
	if len(m.States) == 0 {
		return fmt.Errorf("no states declared")
	}
	for key := range m.Dimensions {
		if !knownAxis(key) {
			return fmt.Errorf("dimension %q is not a known axis key", key)
		}
	}
	for key, st := range m.States {
		if !bitKey(key) {
			return fmt.Errorf("state key %q is not a bit string", key)
		}
		if st.Name == "" {
			return fmt.Errorf("state %q has no name", key)
		}
		if st.Audit == "" {
			return fmt.Errorf("state %q has no audit label", key)
		}
	}
	return nil
}

func knownAxis(key string) bool {
	for _, k := range AxisOrder {
		if k == key {
			return true
		}
	}
	return false
}

func bitKey(key string) bool {
	if key == "" {
		return false
	}
	for _, c := range key {
		if c != '0' && c != '1' {
			return false
		}
	}
	return true
}

// #endregion validate

// #region hash

// Hash returns the SHA-256 of the canonical JSON encoding. Used as the
// anchor-cache key so a manifest edit invalidates cached calibrations.
func (m *Manifest) Hash() string {
	data, _ := json.Marshal(m)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// #endregion hash
