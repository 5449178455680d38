package watchdog

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/web3-frozen/chain-watchdog/internal/rpc"
)

// NodeClient is the consumed capability of the node data source. The RPC
// client implements it; tests substitute fakes.
type NodeClient interface {
	Ping(ctx context.Context) error
	GetBlockchainInfo(ctx context.Context) (rpc.BlockchainInfo, error)
	GetNetworkInfo(ctx context.Context) (rpc.NetworkInfo, error)
	GetMempoolInfo(ctx context.Context) (rpc.MempoolInfo, error)
	GetPeerInfo(ctx context.Context) ([]rpc.Peer, error)
	GetChainTips(ctx context.Context) ([]rpc.ChainTip, error)
	GetBlockHash(ctx context.Context, height int64) (string, error)
	GetBlockHeader(ctx context.Context, hash string) (rpc.BlockHeader, error)
	GetNetworkHashPS(ctx context.Context, nblocks int) (float64, error)
}

// Snapshot is one coherent point-in-time read of node state. It lives for a
// single tick; only derived scalars outlive it in the ring buffers.
type Snapshot struct {
	BlockHeight  int64          `json:"block_height"`
	HeaderHeight int64          `json:"header_height"`
	Difficulty   float64        `json:"difficulty"`
	ChainTips    []rpc.ChainTip `json:"chain_tips,omitempty"`
	MempoolSize  int64          `json:"mempool_size"`
	MempoolBytes int64          `json:"mempool_bytes"`
	PeerCount    int            `json:"peer_count"`
	Peers        []rpc.Peer     `json:"peers,omitempty"`
	HashRate     float64        `json:"hash_rate"`
	InitialSync  bool           `json:"initial_sync"`
	CapturedAt   time.Time      `json:"captured_at"`
}

// hashRateFromDifficulty estimates network hash rate from the current
// difficulty: hashrate ≈ difficulty * 2^32 / target block interval.
func hashRateFromDifficulty(difficulty float64, target time.Duration) float64 {
	secs := target.Seconds()
	if secs <= 0 {
		return 0
	}
	return difficulty * 4294967296.0 / secs
}

// fetchSnapshot issues the chain/network/mempool/peer sub-queries
// concurrently and fails the whole batch if any of them fails. Chain tips and
// the node's own hash-rate estimate are best-effort extras.
func fetchSnapshot(ctx context.Context, node NodeClient, target time.Duration) (*Snapshot, error) {
	var (
		chain   rpc.BlockchainInfo
		network rpc.NetworkInfo
		mempool rpc.MempoolInfo
		peers   []rpc.Peer
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		chain, err = node.GetBlockchainInfo(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		network, err = node.GetNetworkInfo(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		mempool, err = node.GetMempoolInfo(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		peers, err = node.GetPeerInfo(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}

	snap := &Snapshot{
		BlockHeight:  chain.Blocks,
		HeaderHeight: chain.Headers,
		Difficulty:   chain.Difficulty,
		MempoolSize:  mempool.Size,
		MempoolBytes: mempool.Bytes,
		PeerCount:    network.Connections,
		Peers:        peers,
		InitialSync:  chain.InitialBlockDownload,
		CapturedAt:   time.Now().UTC(),
	}
	if snap.PeerCount == 0 {
		snap.PeerCount = len(peers)
	}

	// Older nodes lack getchaintips; treat failure as "no tips data".
	if tips, err := node.GetChainTips(ctx); err == nil {
		snap.ChainTips = tips
	}

	snap.HashRate = hashRateFromDifficulty(chain.Difficulty, target)
	if hps, err := node.GetNetworkHashPS(ctx, 120); err == nil && hps > 0 {
		snap.HashRate = hps
	}

	return snap, nil
}
