package watchdog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/web3-frozen/chain-watchdog/internal/rpc"
)

// fakeNode is an in-memory NodeClient with injectable failures.
type fakeNode struct {
	mu sync.Mutex

	chain      rpc.BlockchainInfo
	network    rpc.NetworkInfo
	mempool    rpc.MempoolInfo
	peers      []rpc.Peer
	tips       []rpc.ChainTip
	blockTimes map[int64]int64 // height -> unix time
	hashPS     float64

	failKind  rpc.Kind // when set, every call fails with this kind
	pingFails int      // number of initial Ping calls that fail
	pingCalls int

	gate chan struct{} // when set, GetBlockchainInfo blocks until closed
	held chan struct{} // receives once per call blocked on the gate
}

func newFakeNode() *fakeNode {
	times := make(map[int64]int64)
	// Blocks 60 seconds apart up to height 1000.
	for h := int64(0); h <= 1000; h++ {
		times[h] = 1700000000 + h*60
	}
	return &fakeNode{
		chain:      rpc.BlockchainInfo{Chain: "main", Blocks: 1000, Headers: 1000, Difficulty: 250000},
		network:    rpc.NetworkInfo{Connections: 100},
		mempool:    rpc.MempoolInfo{Size: 50, Bytes: 25000},
		blockTimes: times,
	}
}

func (f *fakeNode) fail(method string) error {
	if f.failKind == rpc.KindUnknown {
		return nil
	}
	return &rpc.Error{Kind: f.failKind, Method: method, Err: errors.New("injected failure")}
}

func (f *fakeNode) setFailKind(k rpc.Kind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failKind = k
}

func (f *fakeNode) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pingCalls++
	if f.pingCalls <= f.pingFails {
		return &rpc.Error{Kind: rpc.KindUnavailable, Method: "getblockcount", Err: errors.New("not ready")}
	}
	return f.fail("getblockcount")
}

// holdChainInfo makes every following GetBlockchainInfo call block until the
// returned release function runs. Each blocked call signals held first.
func (f *fakeNode) holdChainInfo() (held <-chan struct{}, release func()) {
	gate := make(chan struct{})
	h := make(chan struct{}, 8)
	f.mu.Lock()
	f.gate = gate
	f.held = h
	f.mu.Unlock()
	return h, func() {
		f.mu.Lock()
		f.gate = nil
		f.held = nil
		f.mu.Unlock()
		close(gate)
	}
}

func (f *fakeNode) pings() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pingCalls
}

func (f *fakeNode) GetBlockchainInfo(context.Context) (rpc.BlockchainInfo, error) {
	f.mu.Lock()
	gate, held := f.gate, f.held
	f.mu.Unlock()
	if gate != nil {
		if held != nil {
			select {
			case held <- struct{}{}:
			default:
			}
		}
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chain, f.fail("getblockchaininfo")
}

func (f *fakeNode) GetNetworkInfo(context.Context) (rpc.NetworkInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.network, f.fail("getnetworkinfo")
}

func (f *fakeNode) GetMempoolInfo(context.Context) (rpc.MempoolInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mempool, f.fail("getmempoolinfo")
}

func (f *fakeNode) GetPeerInfo(context.Context) ([]rpc.Peer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.peers, f.fail("getpeerinfo")
}

func (f *fakeNode) GetChainTips(context.Context) ([]rpc.ChainTip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tips, f.fail("getchaintips")
}

func (f *fakeNode) GetBlockHash(_ context.Context, height int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("getblockhash"); err != nil {
		return "", err
	}
	if _, ok := f.blockTimes[height]; !ok {
		return "", &rpc.Error{Kind: rpc.KindRPC, Method: "getblockhash", Err: errors.New("block height out of range")}
	}
	return fmt.Sprintf("hash-%d", height), nil
}

func (f *fakeNode) GetBlockHeader(_ context.Context, hash string) (rpc.BlockHeader, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("getblockheader"); err != nil {
		return rpc.BlockHeader{}, err
	}
	var height int64
	if _, err := fmt.Sscanf(hash, "hash-%d", &height); err != nil {
		return rpc.BlockHeader{}, &rpc.Error{Kind: rpc.KindRPC, Method: "getblockheader", Err: errors.New("block not found")}
	}
	return rpc.BlockHeader{Hash: hash, Height: height, Time: f.blockTimes[height]}, nil
}

func (f *fakeNode) GetNetworkHashPS(context.Context, int) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("getnetworkhashps"); err != nil {
		return 0, err
	}
	if f.hashPS == 0 {
		return 0, &rpc.Error{Kind: rpc.KindRPC, Method: "getnetworkhashps", Err: errors.New("unsupported")}
	}
	return f.hashPS, nil
}

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu      sync.Mutex
	updates []Update
	alerts  []Alert
}

func (p *recordingPublisher) PublishUpdate(u Update) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, u)
}

func (p *recordingPublisher) PublishAlert(a Alert) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, a)
}

func (p *recordingPublisher) snapshot() ([]Update, []Alert) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Update(nil), p.updates...), append([]Alert(nil), p.alerts...)
}
