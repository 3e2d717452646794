// Package anchorcache persists calibrated anchor sets in SQLite so a
// restart with an unchanged manifest and model can skip the embedding calls.
// Only calibration output is stored; measurements are never persisted.
package anchorcache

// #region imports
import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/grounding-valve/internal/probe"
)

// #endregion imports

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS calibrations (
	run_id        TEXT PRIMARY KEY,
	manifest_hash TEXT NOT NULL,
	model         TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	UNIQUE (manifest_hash, model)
);

CREATE TABLE IF NOT EXISTS anchors (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id    TEXT NOT NULL,
	axis_key  TEXT NOT NULL,
	axis_name TEXT NOT NULL,
	position  INTEGER NOT NULL,
	positive  BLOB NOT NULL,
	negative  BLOB NOT NULL,
	FOREIGN KEY (run_id) REFERENCES calibrations(run_id) ON DELETE CASCADE
);
`

// #endregion schema

// #region store-struct

// Store manages cached calibrations in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion store-struct

// #region save

// Save stores a calibrated anchor set under (manifestHash, model), replacing
// any previous calibration for that pair. Returns the new run id.
func (s *Store) Save(manifestHash, model string, set *probe.AnchorSet) (string, error) {
	runID := uuid.New().String()
	now := time.Now().UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Replace an existing calibration for this manifest/model pair.
	_, err = tx.Exec(
		`DELETE FROM calibrations WHERE manifest_hash = ? AND model = ?`,
		manifestHash, model,
	)
	if err != nil {
		return "", fmt.Errorf("drop stale calibration: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO calibrations (run_id, manifest_hash, model, created_at) VALUES (?, ?, ?, ?)`,
		runID, manifestHash, model, now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert calibration: %w", err)
	}

	for pos, key := range set.Axes() {
		anchor, ok := set.Anchor(key)
		if !ok {
			return "", fmt.Errorf("axis %s missing from anchor set", key)
		}
		_, err = tx.Exec(
			`INSERT INTO anchors (run_id, axis_key, axis_name, position, positive, negative)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			runID, key, set.Name(key), pos, encodeVector(anchor.Positive), encodeVector(anchor.Negative),
		)
		if err != nil {
			return "", fmt.Errorf("insert anchor %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

// #endregion save

// #region load

// Load retrieves the cached anchor set for (manifestHash, model). The second
// return value is false on a cache miss.
func (s *Store) Load(manifestHash, model string) (*probe.AnchorSet, bool, error) {
	var runID string
	err := s.db.QueryRow(
		`SELECT run_id FROM calibrations WHERE manifest_hash = ? AND model = ?`,
		manifestHash, model,
	).Scan(&runID)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup calibration: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT axis_key, axis_name, positive, negative FROM anchors
		 WHERE run_id = ? ORDER BY position ASC`, runID,
	)
	if err != nil {
		return nil, false, fmt.Errorf("load anchors: %w", err)
	}
	defer rows.Close()

	var axes []string
	names := make(map[string]string)
	anchors := make(map[string]probe.Anchor)

	for rows.Next() {
		var key, name string
		var posBlob, negBlob []byte
		if err := rows.Scan(&key, &name, &posBlob, &negBlob); err != nil {
			return nil, false, fmt.Errorf("scan anchor: %w", err)
		}
		axes = append(axes, key)
		names[key] = name
		anchors[key] = probe.Anchor{
			Positive: decodeVector(posBlob),
			Negative: decodeVector(negBlob),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate anchors: %w", err)
	}
	if len(axes) == 0 {
		return nil, false, nil
	}

	set, err := probe.Restore(axes, names, anchors)
	if err != nil {
		return nil, false, fmt.Errorf("restore anchor set: %w", err)
	}
	return set, true, nil
}

// #endregion load

// #region vector-encoding
func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

// #endregion vector-encoding
