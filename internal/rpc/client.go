package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Client talks JSON-RPC over HTTP to a bitcoin-family full node.
type Client struct {
	url      string
	user     string
	password string
	client   *http.Client
	logger   *slog.Logger
	reqID    atomic.Int64
}

func NewClient(url, user, password string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		url:      url,
		user:     user,
		password: password,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *nodeError      `json:"error"`
	ID     int64           `json:"id"`
}

type nodeError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *nodeError) Error() string {
	return fmt.Sprintf("node error %d: %s", e.Code, e.Message)
}

func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(request{
		JSONRPC: "1.0",
		ID:      c.reqID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return &Error{Kind: KindMalformed, Method: method, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return &Error{Kind: KindUnknown, Method: method, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.user != "" || c.password != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return classify(method, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		io.Copy(io.Discard, resp.Body)
		return &Error{Kind: KindAuthFailed, Method: method,
			Err: fmt.Errorf("credentials rejected (status %d)", resp.StatusCode)}
	case http.StatusServiceUnavailable:
		io.Copy(io.Discard, resp.Body)
		return &Error{Kind: KindUnavailable, Method: method,
			Err: fmt.Errorf("node not ready (status %d)", resp.StatusCode)}
	}

	var rpcResp response
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return &Error{Kind: KindMalformed, Method: method, Err: fmt.Errorf("decode response: %w", err)}
	}
	if rpcResp.Error != nil {
		return &Error{Kind: KindRPC, Method: method, Err: rpcResp.Error}
	}
	if out != nil {
		if rpcResp.Result == nil {
			return &Error{Kind: KindMalformed, Method: method, Err: fmt.Errorf("missing result")}
		}
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return &Error{Kind: KindMalformed, Method: method, Err: fmt.Errorf("decode result: %w", err)}
		}
	}
	return nil
}

// Ping is the liveness probe: a getblockcount round-trip.
func (c *Client) Ping(ctx context.Context) error {
	var height int64
	return c.call(ctx, "getblockcount", nil, &height)
}

func (c *Client) GetBlockchainInfo(ctx context.Context) (BlockchainInfo, error) {
	var info BlockchainInfo
	err := c.call(ctx, "getblockchaininfo", nil, &info)
	return info, err
}

func (c *Client) GetNetworkInfo(ctx context.Context) (NetworkInfo, error) {
	var info NetworkInfo
	err := c.call(ctx, "getnetworkinfo", nil, &info)
	return info, err
}

func (c *Client) GetMempoolInfo(ctx context.Context) (MempoolInfo, error) {
	var info MempoolInfo
	err := c.call(ctx, "getmempoolinfo", nil, &info)
	return info, err
}

func (c *Client) GetPeerInfo(ctx context.Context) ([]Peer, error) {
	var peers []Peer
	err := c.call(ctx, "getpeerinfo", nil, &peers)
	return peers, err
}

// GetChainTips may be unsupported by older nodes; callers treat failure as
// "no tips data", not fatal.
func (c *Client) GetChainTips(ctx context.Context) ([]ChainTip, error) {
	var tips []ChainTip
	err := c.call(ctx, "getchaintips", nil, &tips)
	return tips, err
}

func (c *Client) GetBlockHash(ctx context.Context, height int64) (string, error) {
	var hash string
	err := c.call(ctx, "getblockhash", []any{height}, &hash)
	return hash, err
}

func (c *Client) GetBlockHeader(ctx context.Context, hash string) (BlockHeader, error) {
	var header BlockHeader
	err := c.call(ctx, "getblockheader", []any{hash}, &header)
	return header, err
}

// GetNetworkHashPS asks the node for its own hash-rate estimate over the last
// nblocks blocks. Optional; the engine can derive hash rate from difficulty.
func (c *Client) GetNetworkHashPS(ctx context.Context, nblocks int) (float64, error) {
	var hps float64
	err := c.call(ctx, "getnetworkhashps", []any{nblocks}, &hps)
	return hps, err
}
