// Package private maintains the group of handlers for node operators.
package private

import (
	"context"
	"net/http"

	"github.com/dalyulbam/Class101LLL/business/sys/metrics"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/state"
	"github.com/dalyulbam/Class101LLL/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node operator endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	st := h.State.Status()

	metrics.SetChain(st.ChainLength, st.Pending)

	resp := status{
		ChainLength: st.ChainLength,
		LatestHash:  st.LatestHash,
		Pending:     st.Pending,
		UTXOs:       st.UTXOs,
		Supply:      st.Supply,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// UTXOs returns every unspent output held by the ledger.
func (h Handlers) UTXOs(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.UTXOs(), http.StatusOK)
}

// Snapshot writes the chain and the utxo set to storage so the next start
// does not need to replay the chain.
func (h Handlers) Snapshot(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := h.State.Save(); err != nil {
		return err
	}

	st := h.State.Status()
	h.Log.Infow("snapshot", "traceid", web.GetTraceID(ctx), "blocks", st.ChainLength, "utxos", st.UTXOs)

	resp := struct {
		Status string `json:"status"`
		Height int    `json:"height"`
	}{
		Status: "snapshot saved",
		Height: st.ChainLength,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Reset drops every mined block and pending transaction, leaving only the
// genesis block.
func (h Handlers) Reset(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := h.State.Reset(); err != nil {
		return err
	}

	h.Log.Infow("reset", "traceid", web.GetTraceID(ctx))

	return web.Respond(ctx, w, nil, http.StatusNoContent)
}

// =============================================================================

type status struct {
	ChainLength int     `json:"chain_length"`
	LatestHash  string  `json:"latest_hash"`
	Pending     int     `json:"pending"`
	UTXOs       int     `json:"utxos"`
	Supply      float64 `json:"supply"`
}
