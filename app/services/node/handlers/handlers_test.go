package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/okilalu/Blockchain/app/services/node/handlers"
	"github.com/okilalu/Blockchain/foundation/blockchain/database"
	"github.com/okilalu/Blockchain/foundation/blockchain/database/storage/memory"
	"github.com/okilalu/Blockchain/foundation/blockchain/genesis"
	"github.com/okilalu/Blockchain/foundation/blockchain/state"
	"github.com/okilalu/Blockchain/foundation/events"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	MINER1_ECDSA = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	MINER2_ECDSA = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"
)

type node struct {
	state   *state.State
	public  http.Handler
	private http.Handler
}

func newNode(t *testing.T, host string, key string) node {
	t.Helper()

	privateKey, err := crypto.HexToECDSA(key)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}

	gen := genesis.Default()
	gen.Difficulty = 1

	st, err := state.New(state.Config{
		Signer:  privateKey,
		Host:    host,
		Genesis: gen,
		Storage: memory.New(),
	})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %s", err)
	}
	t.Cleanup(func() { st.Shutdown() })

	cfg := handlers.MuxConfig{
		Log:   zap.NewNop().Sugar(),
		State: st,
		Evts:  events.New(),
	}

	return node{
		state:   st,
		public:  handlers.PublicMux(cfg),
		private: handlers.PrivateMux(cfg),
	}
}

func call(t *testing.T, h http.Handler, method string, path string, body string, resp any) int {
	t.Helper()

	var r *http.Request
	switch body {
	case "":
		r = httptest.NewRequest(method, path, nil)
	default:
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()

	h.ServeHTTP(w, r)

	if resp != nil && w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), resp); err != nil {
			t.Fatalf("Should be able to unmarshal the response %q: %s", w.Body.String(), err)
		}
	}

	return w.Code
}

// =============================================================================

func Test_Records(t *testing.T) {
	n := newNode(t, "node1:9080", MINER1_ECDSA)

	type table struct {
		name   string
		path   string
		body   string
		status int
	}

	tt := []table{
		{"record", "/v1/records", `{"number":"CERT-001","owner":"alice"}`, http.StatusCreated},
		{"duplicate", "/v1/records", `{"owner":"bob","number":"CERT-001"}`, http.StatusConflict},
		{"badjson", "/v1/records", `{"number":`, http.StatusBadRequest},
		{"empty", "/v1/records", `{}`, http.StatusBadRequest},
		{"transaction", "/v1/transactions", `{"sender":"alice","recipient":"bob","amount":5}`, http.StatusCreated},
		{"missing", "/v1/transactions", `{"sender":"alice","amount":5}`, http.StatusBadRequest},
	}

	t.Log("Given the need to submit records over http.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling a %s request.", testID, tst.name)
				{
					var resp map[string]any
					status := call(t, n.public, http.MethodPost, tst.path, tst.body, &resp)
					if status != tst.status {
						t.Fatalf("\t%s\tTest %d:\tShould receive a %d status : got %d : %v", failed, testID, tst.status, status, resp)
					}
					t.Logf("\t%s\tTest %d:\tShould receive a %d status.", success, testID, tst.status)

					if tst.status == http.StatusCreated {
						if resp["index"] != float64(1) {
							t.Fatalf("\t%s\tTest %d:\tShould be told the record lands in block 1 : got %v", failed, testID, resp["index"])
						}
						t.Logf("\t%s\tTest %d:\tShould be told the record lands in block 1.", success, testID)
					}
				}
			}

			t.Run(tst.name, f)
		}

		var pend struct {
			Count int `json:"count"`
		}
		call(t, n.public, http.MethodGet, "/v1/records/pending", "", &pend)
		if pend.Count != 2 {
			t.Fatalf("\t%s\tShould have 2 pending records : got %d", failed, pend.Count)
		}
		t.Logf("\t%s\tShould have 2 pending records.", success)
	}
}

func Test_Mine(t *testing.T) {
	n := newNode(t, "node1:9080", MINER1_ECDSA)

	t.Log("Given the need to mine a block over http.")
	{
		if status := call(t, n.public, http.MethodGet, "/v1/mine", "", nil); status != http.StatusBadRequest {
			t.Fatalf("\t%s\tShould refuse to mine an empty pool : got %d", failed, status)
		}
		t.Logf("\t%s\tShould refuse to mine an empty pool.", success)

		call(t, n.public, http.MethodPost, "/v1/records", `{"number":"CERT-001","owner":"alice"}`, nil)

		var resp struct {
			Message string `json:"message"`
			Block   struct {
				Index   uint64            `json:"index"`
				Hash    string            `json:"hash"`
				Signer  string            `json:"signer"`
				Records []database.Record `json:"records"`
			} `json:"block"`
		}
		if status := call(t, n.public, http.MethodGet, "/v1/mine", "", &resp); status != http.StatusOK {
			t.Fatalf("\t%s\tShould be able to mine the pending record : got %d", failed, status)
		}
		t.Logf("\t%s\tShould be able to mine the pending record.", success)

		if resp.Block.Index != 1 || len(resp.Block.Records) != 1 || !strings.HasPrefix(resp.Block.Hash, "0") {
			t.Fatalf("\t%s\tShould get back block 1 holding the record : %+v", failed, resp.Block)
		}
		t.Logf("\t%s\tShould get back block 1 holding the record.", success)

		if resp.Block.Signer != n.state.RetrieveSigner() {
			t.Fatalf("\t%s\tShould see the node as signer : got %s", failed, resp.Block.Signer)
		}
		t.Logf("\t%s\tShould see the node as signer.", success)

		var chain struct {
			Length int `json:"length"`
		}
		call(t, n.public, http.MethodGet, "/v1/blockchain", "", &chain)
		if chain.Length != 2 {
			t.Fatalf("\t%s\tShould have a chain of length 2 : got %d", failed, chain.Length)
		}
		t.Logf("\t%s\tShould have a chain of length 2.", success)

		var ks struct {
			OnChain bool `json:"on_chain"`
			Pending bool `json:"pending"`
		}
		call(t, n.public, http.MethodGet, "/v1/keys/used/CERT-001", "", &ks)
		if !ks.OnChain || ks.Pending {
			t.Fatalf("\t%s\tShould report the key as used on chain : %+v", failed, ks)
		}
		t.Logf("\t%s\tShould report the key as used on chain.", success)

		if status := call(t, n.public, http.MethodPost, "/v1/records", `{"number":"CERT-001","owner":"eve"}`, nil); status != http.StatusConflict {
			t.Fatalf("\t%s\tShould refuse a key that is on chain : got %d", failed, status)
		}
		t.Logf("\t%s\tShould refuse a key that is on chain.", success)
	}
}

func Test_Peers(t *testing.T) {
	n := newNode(t, "node1:9080", MINER1_ECDSA)

	t.Log("Given the need to register peers over http.")
	{
		var resp struct {
			Nodes []string `json:"nodes"`
		}
		body := `{"nodes":["http://node2:9080","node3:9080","http://node1:9080"]}`
		if status := call(t, n.public, http.MethodPost, "/v1/peers", body, &resp); status != http.StatusCreated {
			t.Fatalf("\t%s\tShould be able to add peers : got %d", failed, status)
		}
		t.Logf("\t%s\tShould be able to add peers.", success)

		if len(resp.Nodes) != 2 || resp.Nodes[0] != "node2:9080" || resp.Nodes[1] != "node3:9080" {
			t.Fatalf("\t%s\tShould keep the hosts without the node itself : got %v", failed, resp.Nodes)
		}
		t.Logf("\t%s\tShould keep the hosts without the node itself.", success)

		var er struct {
			Fields map[string]string `json:"fields"`
		}
		if status := call(t, n.public, http.MethodPost, "/v1/peers", `{"nodes":[]}`, &er); status != http.StatusBadRequest {
			t.Fatalf("\t%s\tShould refuse an empty list : got %d", failed, status)
		}
		if _, exists := er.Fields["nodes"]; !exists {
			t.Fatalf("\t%s\tShould name the nodes field : got %v", failed, er.Fields)
		}
		t.Logf("\t%s\tShould refuse an empty list.", success)
	}
}

func Test_Sync(t *testing.T) {
	local := newNode(t, "node1:9080", MINER1_ECDSA)
	remote := newNode(t, "node2:9080", MINER2_ECDSA)

	srv := httptest.NewServer(remote.private)
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("Should be able to parse the server url: %s", err)
	}

	t.Log("Given the need to adopt a longer chain from a peer.")
	{
		for _, number := range []string{"CERT-001", "CERT-002"} {
			body := `{"number":"` + number + `"}`
			call(t, remote.public, http.MethodPost, "/v1/records", body, nil)
			if status := call(t, remote.public, http.MethodGet, "/v1/mine", "", nil); status != http.StatusOK {
				t.Fatalf("\t%s\tShould be able to mine on the remote node : got %d", failed, status)
			}
		}

		var status struct {
			Length int `json:"length"`
		}
		call(t, remote.private, http.MethodGet, "/v1/node/status", "", &status)
		if status.Length != 3 {
			t.Fatalf("\t%s\tShould report a remote length of 3 : got %d", failed, status.Length)
		}
		t.Logf("\t%s\tShould report a remote length of 3.", success)

		call(t, local.public, http.MethodPost, "/v1/peers", `{"nodes":["`+srv.URL+`"]}`, nil)

		var resp struct {
			Adopted bool   `json:"adopted"`
			Peer    string `json:"peer"`
			Length  int    `json:"length"`
		}
		if status := call(t, local.public, http.MethodGet, "/v1/sync", "", &resp); status != http.StatusOK {
			t.Fatalf("\t%s\tShould be able to sync : got %d", failed, status)
		}
		t.Logf("\t%s\tShould be able to sync.", success)

		if !resp.Adopted || resp.Peer != u.Host || resp.Length != 3 {
			t.Fatalf("\t%s\tShould adopt the remote chain : %+v", failed, resp)
		}
		t.Logf("\t%s\tShould adopt the remote chain.", success)

		if status := call(t, local.public, http.MethodGet, "/v1/sync", "", &resp); status != http.StatusOK || resp.Adopted {
			t.Fatalf("\t%s\tShould keep the chain on a second sync : %d %+v", failed, status, resp)
		}
		t.Logf("\t%s\tShould keep the chain on a second sync.", success)
	}
}

func Test_PrivateChain(t *testing.T) {
	n := newNode(t, "node1:9080", MINER1_ECDSA)

	t.Log("Given the need to hand the chain to a peer.")
	{
		call(t, n.public, http.MethodPost, "/v1/records", `{"number":7,"owner":"alice"}`, nil)
		call(t, n.public, http.MethodGet, "/v1/mine", "", nil)

		r := httptest.NewRequest(http.MethodGet, "/v1/node/chain", nil)
		w := httptest.NewRecorder()
		n.private.ServeHTTP(w, r)

		chain, err := database.Deserialize(w.Body.Bytes())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to deserialize the chain : %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to deserialize the chain.", success)

		if err := chain.Validate(); err != nil {
			t.Fatalf("\t%s\tShould receive a valid chain : %s", failed, err)
		}
		t.Logf("\t%s\tShould receive a valid chain.", success)

		want, err := database.Serialize(n.state.QueryChain())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to serialize the local chain : %s", failed, err)
		}
		if !bytes.Equal(w.Body.Bytes(), want) {
			t.Fatalf("\t%s\tShould receive the exact wire bytes", failed)
		}
		t.Logf("\t%s\tShould receive the exact wire bytes.", success)
	}
}
