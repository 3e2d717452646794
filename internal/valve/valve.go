// Package valve implements the grounding gate: middleware that measures a
// prompt, resolves its logic topology, and rewrites the prompt into a
// constraint-annotated payload before delegating downstream.
package valve

// #region imports
import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/danielpatrickdp/grounding-valve/internal/embedding"
	"github.com/danielpatrickdp/grounding-valve/internal/probe"
	"github.com/danielpatrickdp/grounding-valve/internal/topology"
)

// #endregion imports

// #region downstream

// Downstream is the wrapped generation call. Arguments beyond the prompt
// belong to the callee; capture them in a closure before wrapping.
type Downstream func(ctx context.Context, prompt string) (string, error)

// #endregion downstream

// #region valve-struct

// Valve wires calibrated anchors, the state table, and the embedding
// provider into a guard. All dependencies are injected explicitly; the
// anchors must be fully calibrated before construction, which is what makes
// concurrent Guard calls safe without locking.
type Valve struct {
	anchors  *probe.AnchorSet
	table    *topology.Table
	embedder embedding.Embedder
	logger   zerolog.Logger
}

// New creates a Valve. All arguments are required.
func New(anchors *probe.AnchorSet, table *topology.Table, emb embedding.Embedder, logger zerolog.Logger) (*Valve, error) {
	if anchors == nil || anchors.Len() == 0 {
		return nil, fmt.Errorf("valve requires a calibrated anchor set")
	}
	if table == nil {
		return nil, fmt.Errorf("valve requires a state table")
	}
	if emb == nil {
		return nil, fmt.Errorf("valve requires an embedder")
	}
	return &Valve{anchors: anchors, table: table, embedder: emb, logger: logger}, nil
}

// #endregion valve-struct

// #region ground

// Ground measures the text and resolves its state. The measurement is
// returned alongside the state for audit consumption.
func (v *Valve) Ground(ctx context.Context, text string) (topology.GroundedState, probe.MeasurementResult, error) {
	result, err := probe.Measure(ctx, text, v.anchors, v.embedder)
	if err != nil {
		return topology.GroundedState{}, probe.MeasurementResult{}, fmt.Errorf("measure: %w", err)
	}
	return v.table.Resolve(result.Key), result, nil
}

// #endregion ground

// #region guard

// Guard grounds the text, composes the augmented payload, and delegates to
// next with the payload in place of the original text. The downstream result
// is returned untouched. One grounding evaluation per invocation; no
// caching, no retry.
func (v *Valve) Guard(ctx context.Context, text string, next Downstream) (string, error) {
	state, result, err := v.Ground(ctx, text)
	if err != nil {
		return "", err
	}

	turnID := uuid.New().String()
	ev := v.logger.Debug().
		Str("turn", turnID).
		Str("key", state.Key).
		Str("status", string(state.Status)).
		Str("state", state.Name).
		Str("audit", state.Audit)
	for _, r := range result.Readings {
		ev = ev.Str(r.Key, fmt.Sprintf("%s:%+.2f[%d]", r.Name, r.Diff, r.Bit))
	}
	ev.Msg("valve engaged")

	return next(ctx, ComposePayload(state, text))
}

// Wrap returns next wrapped with Guard, for decorator-style chaining.
func (v *Valve) Wrap(next Downstream) Downstream {
	return func(ctx context.Context, text string) (string, error) {
		return v.Guard(ctx, text, next)
	}
}

// #endregion guard

// #region payload

// ComposePayload renders the fixed constraint template around the original
// text. The guidance branches in the mandate are textual policy for the
// downstream model, not control flow.
func ComposePayload(state topology.GroundedState, text string) string {
	return fmt.Sprintf(
		"[SYSTEM_PROTOCOL_OVERRIDE]\n"+
			"Logic Topology: %s (%s)\n"+
			"Physics Constraint: %s\n"+
			"User Query: %s\n"+
			"Mandate: Respond to the query while STRICTLY adhering to the Physics Constraint. "+
			"If resources are low, advise conservation. If risks are high, advise caution.\n",
		state.Name, state.Audit, state.Physics, text,
	)
}

// #endregion payload
