// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dalyulbam/Class101LLL/business/sys/metrics"
	"github.com/dalyulbam/Class101LLL/business/sys/validate"
	"github.com/dalyulbam/Class101LLL/business/web/errs"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/database"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/signature"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/state"
	"github.com/dalyulbam/Class101LLL/foundation/events"
	"github.com/dalyulbam/Class101LLL/foundation/nameservice"
	"github.com/dalyulbam/Class101LLL/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Wallet generates a new identity. The private key is handed back to the
// caller and is not kept by the node.
func (h Handlers) Wallet(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id, err := signature.GenerateIdentity()
	if err != nil {
		return fmt.Errorf("generating identity: %w", err)
	}

	resp := wallet{
		PrivateKey: id.PrivateKeyHex(),
		PublicKey:  id.PublicKeyHex(),
		Address:    id.Address,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Genesis(), http.StatusOK)
}

// Balance returns the balance and the unspent outputs owned by an address.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address := web.Param(r, "address")
	if err := signature.ValidateAddress(address); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	owned := h.State.UTXOsFor(address)

	utxos := make([]utxo, len(owned))
	var total float64
	for i, u := range owned {
		utxos[i] = utxo{
			TxID:        u.TxID,
			OutputIndex: u.OutputIndex,
			Amount:      u.Amount,
		}
		total += u.Amount
	}

	resp := balance{
		Address:     address,
		Name:        lookup(h.NS, address),
		Balance:     total,
		LatestBlock: h.State.LatestBlock().Hash(),
		Uncommitted: h.State.PendingCount(),
		UTXOs:       utxos,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Blocks returns the full chain, genesis block first.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	dbBlocks := h.State.Blocks()

	blocks := make([]block, len(dbBlocks))
	for i, blk := range dbBlocks {
		b, err := toBlock(blk, h.NS)
		if err != nil {
			return err
		}
		blocks[i] = b
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// Block returns the block at the 1-based index.
func (h Handlers) Block(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := strconv.ParseUint(web.Param(r, "index"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid block index: %w", err), http.StatusBadRequest)
	}

	blk, err := h.State.ChainBlock(index)
	if err != nil {
		return err
	}

	b, err := toBlock(blk, h.NS)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, b, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions in arrival order.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pending := h.State.PendingTransactions()

	trans := make([]tx, len(pending))
	for i, trn := range pending {
		trans[i] = toTx(trn, h.NS)
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// SendTransaction builds and signs a transaction with the provided key and
// admits it to the mempool.
func (h Handlers) SendTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req sendTx
	if err := web.Decode(r, &req); err != nil {
		if validate.IsFieldErrors(err) {
			return err
		}
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	id, err := signature.IdentityFromHex(req.FromKey)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("send tran", "traceid", web.GetTraceID(ctx), "from", id.Address, "to", req.To, "amount", req.Amount)

	trn, err := h.State.CreateTransaction(id.Address, req.To, req.Amount, id.PrivateKey)
	if err != nil {
		return err
	}

	return h.admit(ctx, w, trn)
}

// SubmitTransaction admits a transaction signed by the caller.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var trn database.Tx
	if err := web.Decode(r, &trn); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("submit tran", "traceid", web.GetTraceID(ctx), "tx", trn.ID, "inputs", len(trn.Inputs), "outputs", len(trn.Outputs))

	return h.admit(ctx, w, trn)
}

// Mine settles the pending transactions into a new block paying the reward
// to the address. Closing the request stops the proof of work.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address := web.Param(r, "address")
	if err := signature.ValidateAddress(address); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	blk, err := h.State.MineNewBlock(ctx, address)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return errs.NewTrusted(errors.New("mining cancelled"), http.StatusServiceUnavailable)
		}
		return err
	}

	metrics.SetChain(h.State.ChainLength(), h.State.PendingCount())

	b, err := toBlock(blk, h.NS)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, b, http.StatusCreated)
}

// =============================================================================

func (h Handlers) admit(ctx context.Context, w http.ResponseWriter, trn database.Tx) error {
	fee, err := h.State.Fee(trn)
	if err == nil {
		err = h.State.AdmitErr(trn)
	}

	if err != nil {
		metrics.AddTxRejected(rejectReason(err))
		return errs.Ledger(err)
	}

	metrics.AddTxAdmitted()

	resp := admitted{
		Status:  "transaction added to mempool",
		TxID:    trn.ID,
		Fee:     fee,
		Pending: h.State.PendingCount(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// rejectReason keeps the label set of the rejection metric small.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, state.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, state.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, state.ErrRejectedTransaction):
		return "rejected"
	default:
		return "other"
	}
}
