package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okilalu/Blockchain/foundation/blockchain/database"
	"github.com/okilalu/Blockchain/foundation/blockchain/peer"
)

const baseURL = "http://%s/v1/node"

// maxResponse is the largest response body read from a peer.
const maxResponse = 64 << 20

// PeerFetcher represents the behavior required to retrieve the chain held
// by a peer.
type PeerFetcher interface {
	FetchChain(ctx context.Context, pr peer.Peer) (database.Chain, error)
}

// =============================================================================

// HTTPFetcher retrieves peer chains over the private node API.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher constructs a fetcher using a default http client.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{},
	}
}

// FetchChain asks the peer for its full chain.
func (f *HTTPFetcher) FetchChain(ctx context.Context, pr peer.Peer) (database.Chain, error) {
	url := fmt.Sprintf("%s/chain", fmt.Sprintf(baseURL, pr.Host))

	data, err := send(ctx, f.client, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	return database.Deserialize(data)
}

// FetchStatus asks the peer for its status.
func (f *HTTPFetcher) FetchStatus(ctx context.Context, pr peer.Peer) (peer.PeerStatus, error) {
	url := fmt.Sprintf("%s/status", fmt.Sprintf(baseURL, pr.Host))

	data, err := send(ctx, f.client, http.MethodGet, url, nil)
	if err != nil {
		return peer.PeerStatus{}, err
	}

	var ps peer.PeerStatus
	if err := json.Unmarshal(data, &ps); err != nil {
		return peer.PeerStatus{}, err
	}

	return ps, nil
}

// =============================================================================

// send is a helper function to send an HTTP request to a node. Failing to
// reach the node is reported as ErrPeerUnreachable.
func send(ctx context.Context, client *http.Client, method string, url string, dataSend any) ([]byte, error) {
	var body io.Reader

	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPeerUnreachable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPeerUnreachable, err)
	}

	if len(data) > maxResponse {
		return nil, fmt.Errorf("response from %s is larger than %d bytes", req.URL.Host, maxResponse)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(string(data))
	}

	return data, nil
}
