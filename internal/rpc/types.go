package rpc

// BlockchainInfo is the subset of getblockchaininfo the watchdog consumes.
type BlockchainInfo struct {
	Chain                string  `json:"chain"`
	Blocks               int64   `json:"blocks"`
	Headers              int64   `json:"headers"`
	BestBlockHash        string  `json:"bestblockhash"`
	Difficulty           float64 `json:"difficulty"`
	VerificationProgress float64 `json:"verificationprogress"`
	InitialBlockDownload bool    `json:"initialblockdownload"`
}

type NetworkInfo struct {
	Version     int64  `json:"version"`
	Subversion  string `json:"subversion"`
	Connections int    `json:"connections"`
}

type MempoolInfo struct {
	Size  int64 `json:"size"`
	Bytes int64 `json:"bytes"`
}

type Peer struct {
	ID       int64  `json:"id"`
	Addr     string `json:"addr"`
	Subver   string `json:"subver"`
	Inbound  bool   `json:"inbound"`
	PingTime float64 `json:"pingtime"`
}

// ChainTip is one entry from getchaintips. Status "active" is the main chain;
// "valid-fork" marks a competing branch with BranchLen blocks since divergence.
type ChainTip struct {
	Height    int64  `json:"height"`
	Hash      string `json:"hash"`
	BranchLen int    `json:"branchlen"`
	Status    string `json:"status"`
}

type BlockHeader struct {
	Hash              string  `json:"hash"`
	Height            int64   `json:"height"`
	Time              int64   `json:"time"`
	Difficulty        float64 `json:"difficulty"`
	PreviousBlockHash string  `json:"previousblockhash"`
}
