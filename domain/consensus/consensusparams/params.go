// Package consensusparams carries the network-wide constants the connect
// engine checks every block against (C1): the monetary ceiling, the sigop
// budget, coinbase maturity, BIP16 activation time, the subsidy halving
// schedule, and the checkpoint table. Named preset constructors return
// value types; there is no global, no CLI flag, and no config file, since
// this is a library-level core.
package consensusparams

import (
	"github.com/btcprune/utxovalidator/domain/consensus/model/externalapi"
)

// Checkpoint identifies a known-good block at a given height. Any block
// proposed for that height whose hash disagrees with the checkpoint is
// rejected regardless of its other content.
type Checkpoint struct {
	Height uint32
	Hash   *externalapi.Hash
}

// Params is the full set of consensus constants the engine consults.
type Params struct {
	Name string

	// MaxMoney is the maximum amount of the smallest monetary unit any
	// single output, or the sum of a transaction's outputs, may hold.
	MaxMoney externalapi.Amount

	// MaxBlockSigOps is the maximum accumulated legacy+P2SH sigop count
	// allowed in a single block.
	MaxBlockSigOps int

	// SpendableCoinbaseDepth is the number of confirmations a coinbase
	// output must accumulate before it may be spent.
	SpendableCoinbaseDepth uint32

	// BIP16EnforceTime is the block time, in seconds since the Unix
	// epoch, at and after which Pay-to-Script-Hash sigop accounting is
	// enforced.
	BIP16EnforceTime int64

	// SubsidyHalvingInterval is the number of blocks between successive
	// halvings of the block subsidy.
	SubsidyHalvingInterval uint32

	// InitialSubsidy is the coinbase subsidy paid at height 0, before any
	// halving has occurred.
	InitialSubsidy externalapi.Amount

	// Checkpoints is the ordered table of known-good (height, hash)
	// pairs, ascending by height.
	Checkpoints []Checkpoint
}

// checkpointByHeight returns the checkpoint at height, if any.
func (p *Params) checkpointByHeight(height uint32) *Checkpoint {
	for i := range p.Checkpoints {
		if p.Checkpoints[i].Height == height {
			return &p.Checkpoints[i]
		}
	}
	return nil
}

// Passes reports whether hash is acceptable at height: true if there is no
// checkpoint at that height, or if the checkpoint's hash matches.
func (p *Params) Passes(height uint32, hash *externalapi.Hash) bool {
	checkpoint := p.checkpointByHeight(height)
	if checkpoint == nil {
		return true
	}
	return *checkpoint.Hash == *hash
}

// IsCheckpoint reports whether height names an entry in the checkpoint
// table. BIP30's duplicate-coinbase check and the reorg-replay engine's
// pruned-delta BIP30 guard are both grandfathered at checkpoint heights.
func (p *Params) IsCheckpoint(height uint32) bool {
	return p.checkpointByHeight(height) != nil
}

const (
	satoshiPerBitcoin       = 1e8
	defaultMaxMoney         = 21_000_000 * satoshiPerBitcoin
	defaultSubsidyHalving   = 210_000
	defaultInitialSubsidy   = 50 * satoshiPerBitcoin
	defaultMaxBlockSigOps   = 20_000
	defaultCoinbaseMaturity = 100
)

// MainNetParams returns the consensus parameters for the main production
// network.
func MainNetParams() *Params {
	return &Params{
		Name:                   "mainnet",
		MaxMoney:               defaultMaxMoney,
		MaxBlockSigOps:         defaultMaxBlockSigOps,
		SpendableCoinbaseDepth: defaultCoinbaseMaturity,
		BIP16EnforceTime:       1333238400, // 2012-04-01 00:00:00 UTC
		SubsidyHalvingInterval: defaultSubsidyHalving,
		InitialSubsidy:         defaultInitialSubsidy,
		Checkpoints:            mainNetCheckpoints(),
	}
}

// TestNetParams returns consensus parameters for a permissive test
// network: BIP16 is enforced from genesis and there are no checkpoints, so
// tests can exercise every height without needing real chain data.
func TestNetParams() *Params {
	return &Params{
		Name:                   "testnet",
		MaxMoney:               defaultMaxMoney,
		MaxBlockSigOps:         defaultMaxBlockSigOps,
		SpendableCoinbaseDepth: defaultCoinbaseMaturity,
		BIP16EnforceTime:       0,
		SubsidyHalvingInterval: defaultSubsidyHalving,
		InitialSubsidy:         defaultInitialSubsidy,
		Checkpoints:            nil,
	}
}

// RegTestParams returns consensus parameters tuned for local, single-node
// regression testing: a short coinbase maturity and no checkpoints, so
// short test chains can mature and spend coinbase outputs.
func RegTestParams() *Params {
	return &Params{
		Name:                   "regtest",
		MaxMoney:               defaultMaxMoney,
		MaxBlockSigOps:         defaultMaxBlockSigOps,
		SpendableCoinbaseDepth: 1,
		BIP16EnforceTime:       0,
		SubsidyHalvingInterval: 150,
		InitialSubsidy:         defaultInitialSubsidy,
		Checkpoints:            nil,
	}
}

func mainNetCheckpoints() []Checkpoint {
	return []Checkpoint{
		{Height: 11111, Hash: mustHash("0000000069e244f73d78e8fd29ba2fd2ed618bd6fa2ee92559f542fdb26e7c1d")},
		{Height: 33333, Hash: mustHash("000000002dd5588a74784eaa7ab0507a18ad16a236e7b1ce69f00d7ddfb5d0a6")},
	}
}

func mustHash(s string) *externalapi.Hash {
	h, err := externalapi.NewHashFromStr(s)
	if err != nil {
		panic(err)
	}
	return h
}
