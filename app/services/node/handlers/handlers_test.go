package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/dalyulbam/Class101LLL/app/services/node/handlers"
	"github.com/dalyulbam/Class101LLL/business/web/errs"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/genesis"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/signature"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/state"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/storage/memory"
	"github.com/dalyulbam/Class101LLL/foundation/events"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	kennedyKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	pavelKey   = "9f332e3700d8fc2446eaf6d15034cf96e0c2745e40353deef032a5dbf1dfed93"
)

// =============================================================================

type ledgerTests struct {
	public  http.Handler
	private http.Handler
	debug   http.Handler
	kennedy signature.Identity
	pavel   signature.Identity
}

func Test_Ledger(t *testing.T) {
	gen := genesis.Default()
	gen.Difficulty = 2

	st, err := state.New(state.Config{
		Genesis:   gen,
		Storage:   memory.New(),
		EvHandler: func(v string, args ...any) { t.Logf(v, args...) },
	})
	if err != nil {
		t.Fatalf("Should be able to construct the ledger: %s", err)
	}
	defer st.Shutdown()

	kennedy, err := signature.IdentityFromHex(kennedyKey)
	if err != nil {
		t.Fatalf("Should be able to load the kennedy key: %s", err)
	}

	pavel, err := signature.IdentityFromHex(pavelKey)
	if err != nil {
		t.Fatalf("Should be able to load the pavel key: %s", err)
	}

	log := zap.NewNop().Sugar()
	shutdown := make(chan os.Signal, 1)

	cfg := handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
		Evts:     events.New(),
	}

	tests := ledgerTests{
		public:  handlers.PublicMux(cfg),
		private: handlers.PrivateMux(cfg),
		debug:   handlers.DebugMux("test", log, st),
		kennedy: kennedy,
		pavel:   pavel,
	}

	t.Run("wallet", tests.wallet)
	t.Run("mine", tests.mine)
	t.Run("send", tests.send)
	t.Run("submit", tests.submit)
	t.Run("errors", tests.errors)
	t.Run("node", tests.node)
}

func (lt ledgerTests) wallet(t *testing.T) {
	t.Log("Given the need to generate a wallet through the api.")
	{
		var resp struct {
			PrivateKey string `json:"private_key"`
			PublicKey  string `json:"public_key"`
			Address    string `json:"address"`
		}
		call(t, lt.public, http.MethodPost, "/v1/wallet", nil, http.StatusCreated, &resp)

		id, err := signature.IdentityFromHex(resp.PrivateKey)
		if err != nil {
			t.Fatalf("\t%s\tShould get back a usable private key: %s", failed, err)
		}

		if id.Address != resp.Address || id.PublicKeyHex() != resp.PublicKey {
			t.Fatalf("\t%s\tShould get back a matching key set.", failed)
		}
		t.Logf("\t%s\tShould get back a matching key set.", success)
	}
}

func (lt ledgerTests) mine(t *testing.T) {
	t.Log("Given the need to mine a block through the api.")
	{
		var blk struct {
			Index        uint64 `json:"index"`
			Transactions []struct {
				Coinbase bool `json:"coinbase"`
			} `json:"transactions"`
		}
		call(t, lt.public, http.MethodPost, "/v1/mining/mine/"+lt.kennedy.Address, nil, http.StatusCreated, &blk)

		if blk.Index != 2 || len(blk.Transactions) != 1 || !blk.Transactions[0].Coinbase {
			t.Fatalf("\t%s\tShould get back block 2 holding only the coinbase: %+v", failed, blk)
		}
		t.Logf("\t%s\tShould get back block 2 holding only the coinbase.", success)

		if bal := balance(t, lt.public, lt.kennedy.Address); bal != 10 {
			t.Fatalf("\t%s\tShould have the reward as the balance, got %v.", failed, bal)
		}
		t.Logf("\t%s\tShould have the reward as the balance.", success)
	}
}

func (lt ledgerTests) send(t *testing.T) {
	t.Log("Given the need to send value through the api.")
	{
		req := map[string]any{
			"from_key": kennedyKey,
			"to":       lt.pavel.Address,
			"amount":   4,
		}

		var resp struct {
			TxID    string  `json:"tx_id"`
			Fee     float64 `json:"fee"`
			Pending int     `json:"pending"`
		}
		call(t, lt.public, http.MethodPost, "/v1/tx/send", req, http.StatusOK, &resp)

		if resp.TxID == "" || resp.Fee != 0 || resp.Pending != 1 {
			t.Fatalf("\t%s\tShould admit the transaction: %+v", failed, resp)
		}
		t.Logf("\t%s\tShould admit the transaction.", success)

		var pending []struct {
			ID string `json:"tx_id"`
		}
		call(t, lt.public, http.MethodGet, "/v1/tx/uncommitted/list", nil, http.StatusOK, &pending)

		if len(pending) != 1 || pending[0].ID != resp.TxID {
			t.Fatalf("\t%s\tShould see the transaction pending: %+v", failed, pending)
		}
		t.Logf("\t%s\tShould see the transaction pending.", success)

		call(t, lt.public, http.MethodPost, "/v1/mining/mine/"+lt.kennedy.Address, nil, http.StatusCreated, nil)

		if bal := balance(t, lt.public, lt.pavel.Address); bal != 4 {
			t.Fatalf("\t%s\tShould have 4 for pavel, got %v.", failed, bal)
		}
		if bal := balance(t, lt.public, lt.kennedy.Address); bal != 16 {
			t.Fatalf("\t%s\tShould have 16 for kennedy, got %v.", failed, bal)
		}
		t.Logf("\t%s\tShould settle the balances after mining.", success)
	}
}

func (lt ledgerTests) submit(t *testing.T) {
	t.Log("Given the need to submit a transaction signed by the caller.")
	{
		var utxos struct {
			UTXOs []struct {
				TxID        string  `json:"tx_id"`
				OutputIndex int     `json:"output_index"`
				Amount      float64 `json:"amount"`
			} `json:"utxos"`
		}
		call(t, lt.public, http.MethodGet, "/v1/balances/"+lt.pavel.Address, nil, http.StatusOK, &utxos)

		if len(utxos.UTXOs) != 1 {
			t.Fatalf("\t%s\tShould find one utxo for pavel, got %d.", failed, len(utxos.UTXOs))
		}
		u := utxos.UTXOs[0]

		tx := map[string]any{
			"tx_id": "",
			"inputs": []map[string]any{
				{"output_index": u.OutputIndex, "prev_tx_id": u.TxID, "public_key": lt.pavel.PublicKeyHex(), "signature": ""},
			},
			"outputs": []map[string]any{
				{"address": lt.kennedy.Address, "amount": 3},
			},
		}

		var resp errs.Response
		call(t, lt.public, http.MethodPost, "/v1/tx/submit", tx, http.StatusUnprocessableEntity, &resp)

		if resp.Error == "" {
			t.Fatalf("\t%s\tShould get back the rejection reason.", failed)
		}
		t.Logf("\t%s\tShould reject an unsigned transaction: %s", success, resp.Error)
	}
}

func (lt ledgerTests) errors(t *testing.T) {
	t.Log("Given the need to report client errors.")
	{
		call(t, lt.public, http.MethodGet, "/v1/blocks/99", nil, http.StatusNotFound, nil)
		t.Logf("\t%s\tShould get a 404 for a missing block.", success)

		call(t, lt.public, http.MethodGet, "/v1/blocks/abc", nil, http.StatusBadRequest, nil)
		t.Logf("\t%s\tShould get a 400 for a bad block index.", success)

		call(t, lt.public, http.MethodGet, "/v1/balances/nope", nil, http.StatusBadRequest, nil)
		t.Logf("\t%s\tShould get a 400 for a bad address.", success)

		req := map[string]any{
			"from_key": pavelKey,
			"to":       lt.kennedy.Address,
			"amount":   1000,
		}
		call(t, lt.public, http.MethodPost, "/v1/tx/send", req, http.StatusUnprocessableEntity, nil)
		t.Logf("\t%s\tShould get a 422 for insufficient funds.", success)

		var resp errs.Response
		call(t, lt.public, http.MethodPost, "/v1/tx/send", map[string]any{"amount": -1}, http.StatusBadRequest, &resp)

		for _, field := range []string{"from_key", "to", "amount"} {
			if _, exists := resp.Fields[field]; !exists {
				t.Fatalf("\t%s\tShould get a field error for %s: %v", failed, field, resp.Fields)
			}
		}
		t.Logf("\t%s\tShould get field errors for a bad request.", success)
	}
}

func (lt ledgerTests) node(t *testing.T) {
	t.Log("Given the need to operate the node.")
	{
		var status struct {
			ChainLength int     `json:"chain_length"`
			Pending     int     `json:"pending"`
			Supply      float64 `json:"supply"`
		}
		call(t, lt.private, http.MethodGet, "/v1/node/status", nil, http.StatusOK, &status)

		if status.ChainLength != 3 || status.Pending != 0 || status.Supply != 20 {
			t.Fatalf("\t%s\tShould get the node status: %+v", failed, status)
		}
		t.Logf("\t%s\tShould get the node status.", success)

		call(t, lt.private, http.MethodPost, "/v1/node/snapshot", nil, http.StatusOK, nil)
		t.Logf("\t%s\tShould save a snapshot.", success)

		r := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		w := httptest.NewRecorder()
		lt.debug.ServeHTTP(w, r)

		if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte("ledger_chain_length 3")) {
			t.Fatalf("\t%s\tShould expose the chain length metric: %d", failed, w.Code)
		}
		t.Logf("\t%s\tShould expose the chain length metric.", success)

		call(t, lt.private, http.MethodPost, "/v1/node/reset", nil, http.StatusNoContent, nil)

		var blocks []json.RawMessage
		call(t, lt.public, http.MethodGet, "/v1/blocks/list", nil, http.StatusOK, &blocks)

		if len(blocks) != 1 {
			t.Fatalf("\t%s\tShould be back to the genesis block, got %d blocks.", failed, len(blocks))
		}
		t.Logf("\t%s\tShould be back to the genesis block.", success)
	}
}

// =============================================================================

func call(t *testing.T, h http.Handler, method string, path string, body any, status int, resp any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("\t%s\tShould be able to encode the request: %s", failed, err)
		}
	}

	r := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != status {
		t.Fatalf("\t%s\t%s %s: Should receive a status code of %d, got %d: %s", failed, method, path, status, w.Code, w.Body.String())
	}

	if resp != nil {
		if err := json.NewDecoder(w.Body).Decode(resp); err != nil {
			t.Fatalf("\t%s\t%s %s: Should be able to decode the response: %s", failed, method, path, err)
		}
	}
}

func balance(t *testing.T, h http.Handler, address string) float64 {
	t.Helper()

	var resp struct {
		Balance float64 `json:"balance"`
	}
	call(t, h, http.MethodGet, "/v1/balances/"+address, nil, http.StatusOK, &resp)

	return resp.Balance
}
