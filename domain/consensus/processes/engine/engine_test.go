package engine

import (
	"testing"

	"github.com/btcprune/utxovalidator/domain/consensus/consensusparams"
	"github.com/btcprune/utxovalidator/domain/consensus/datastructures/utxostore"
	"github.com/btcprune/utxovalidator/domain/consensus/model/externalapi"
	"github.com/btcprune/utxovalidator/domain/consensus/ruleerrors"
	"github.com/btcprune/utxovalidator/domain/consensus/utils/consensushashing"
	"github.com/btcprune/utxovalidator/infrastructure/db/leveldb"
	"github.com/pkg/errors"
)

func newTestEngine(t *testing.T) (*Engine, *utxostore.Store) {
	t.Helper()
	db, err := leveldb.Open(t.TempDir(), "utxo")
	if err != nil {
		t.Fatalf("Open: %s", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close: %s", err)
		}
	})
	store := utxostore.New(db)
	return New(store, consensusparams.TestNetParams()), store
}

func coinbase(nonce byte, value externalapi.Amount) *externalapi.Transaction {
	return &externalapi.Transaction{
		Version: 1,
		Inputs: []*externalapi.TransactionInput{{
			PreviousOutpoint: externalapi.OutPoint{TxID: externalapi.Hash{}, Index: 0xffffffff},
			SignatureScript:  []byte{nonce},
			Sequence:         0xffffffff,
		}},
		Outputs:  []*externalapi.TransactionOutput{{Value: value, ScriptPubKey: []byte{0x51}}},
		LockTime: 0,
	}
}

func spend(op externalapi.OutPoint, value externalapi.Amount) *externalapi.Transaction {
	return &externalapi.Transaction{
		Version: 1,
		Inputs: []*externalapi.TransactionInput{{
			PreviousOutpoint: op,
			SignatureScript:  []byte{},
			Sequence:         0xffffffff,
		}},
		Outputs:  []*externalapi.TransactionOutput{{Value: value, ScriptPubKey: []byte{0x51}}},
		LockTime: 0,
	}
}

func block(prev externalapi.Hash, timestamp int64, txs ...*externalapi.Transaction) *externalapi.Block {
	return &externalapi.Block{
		Header: &externalapi.BlockHeader{
			Version:    1,
			PrevBlock:  prev,
			MerkleRoot: externalapi.Hash{},
			Timestamp:  timestamp,
			Bits:       0x1d00ffff,
			Nonce:      0,
		},
		Transactions: txs,
	}
}

// inspect opens a read-only batch, hands it to fn, then aborts it.
func inspect(t *testing.T, store *utxostore.Store, fn func(model batchLike)) {
	t.Helper()
	b, err := store.BeginBatch()
	if err != nil {
		t.Fatalf("BeginBatch: %s", err)
	}
	defer b.Abort()
	fn(b)
}

// batchLike is the subset of model.UTXOStoreBatch the test helpers use.
type batchLike interface {
	GetOutput(txid externalapi.Hash, index uint32) (*externalapi.StoredOutput, bool, error)
}

func TestGenesisPlusOne(t *testing.T) {
	e, store := newTestEngine(t)
	params := consensusparams.TestNetParams()

	genesis := block(externalapi.Hash{}, 1000, coinbase(0, params.InitialSubsidy))
	genesisHash := consensushashing.BlockHash(genesis.Header)
	if _, err := e.Connect(0, genesis); err != nil {
		t.Fatalf("Connect(genesis): %s", err)
	}
	if err := e.PreSetChainHead(); err != nil {
		t.Fatalf("PreSetChainHead: %s", err)
	}

	next := block(genesisHash, 1010, coinbase(1, params.InitialSubsidy))
	if _, err := e.Connect(1, next); err != nil {
		t.Fatalf("Connect(height 1): %s", err)
	}
	if err := e.PreSetChainHead(); err != nil {
		t.Fatalf("PreSetChainHead: %s", err)
	}

	genesisCoinbaseID := consensushashing.TransactionID(genesis.Transactions[0])
	nextCoinbaseID := consensushashing.TransactionID(next.Transactions[0])
	inspect(t, store, func(b batchLike) {
		if _, found, err := b.GetOutput(genesisCoinbaseID, 0); err != nil || !found {
			t.Fatalf("expected genesis coinbase output to be unspent, found=%v err=%v", found, err)
		}
		if _, found, err := b.GetOutput(nextCoinbaseID, 0); err != nil || !found {
			t.Fatalf("expected height-1 coinbase output to be unspent, found=%v err=%v", found, err)
		}
	})
}

func TestSpendCoinbaseImmature(t *testing.T) {
	e, store := newTestEngine(t)
	params := consensusparams.TestNetParams()

	genesis := block(externalapi.Hash{}, 1000, coinbase(0, params.InitialSubsidy))
	genesisHash := consensushashing.BlockHash(genesis.Header)
	if _, err := e.Connect(0, genesis); err != nil {
		t.Fatalf("Connect(genesis): %s", err)
	}
	if err := e.PreSetChainHead(); err != nil {
		t.Fatalf("PreSetChainHead: %s", err)
	}

	genesisCoinbaseID := consensushashing.TransactionID(genesis.Transactions[0])
	spendTx := spend(externalapi.OutPoint{TxID: genesisCoinbaseID, Index: 0}, params.InitialSubsidy)
	badBlock := block(genesisHash, 1010, coinbase(1, params.InitialSubsidy), spendTx)

	_, err := e.Connect(50, badBlock)
	if err == nil {
		t.Fatalf("expected spending an immature coinbase at depth 50 to fail")
	}
	if !errors.Is(err, ruleerrors.ErrImmatureCoinbase) {
		t.Fatalf("expected ErrImmatureCoinbase, got %s", err)
	}
	if err := e.NotSettingChainHead(); err != nil {
		t.Fatalf("NotSettingChainHead: %s", err)
	}

	inspect(t, store, func(b batchLike) {
		if _, found, err := b.GetOutput(genesisCoinbaseID, 0); err != nil || !found {
			t.Fatalf("expected the failed connect to leave the genesis output untouched, found=%v err=%v", found, err)
		}
	})
}

func TestSpendCoinbaseMature(t *testing.T) {
	e, store := newTestEngine(t)
	params := consensusparams.TestNetParams()

	genesis := block(externalapi.Hash{}, 1000, coinbase(0, params.InitialSubsidy))
	genesisHash := consensushashing.BlockHash(genesis.Header)
	if _, err := e.Connect(0, genesis); err != nil {
		t.Fatalf("Connect(genesis): %s", err)
	}
	if err := e.PreSetChainHead(); err != nil {
		t.Fatalf("PreSetChainHead: %s", err)
	}

	genesisCoinbaseID := consensushashing.TransactionID(genesis.Transactions[0])
	spendTx := spend(externalapi.OutPoint{TxID: genesisCoinbaseID, Index: 0}, params.InitialSubsidy)
	spendBlock := block(genesisHash, 2000, coinbase(1, params.InitialSubsidy), spendTx)

	if _, err := e.Connect(params.SpendableCoinbaseDepth, spendBlock); err != nil {
		t.Fatalf("Connect at exactly the maturity depth should succeed: %s", err)
	}
	if err := e.PreSetChainHead(); err != nil {
		t.Fatalf("PreSetChainHead: %s", err)
	}

	spendTxID := consensushashing.TransactionID(spendTx)
	inspect(t, store, func(b batchLike) {
		if _, found, err := b.GetOutput(genesisCoinbaseID, 0); err != nil || found {
			t.Fatalf("expected the genesis coinbase output to be spent, found=%v err=%v", found, err)
		}
		if _, found, err := b.GetOutput(spendTxID, 0); err != nil || !found {
			t.Fatalf("expected the spend transaction's output to be unspent, found=%v err=%v", found, err)
		}
	})
}

func TestBIP30Duplicate(t *testing.T) {
	e, _ := newTestEngine(t)
	params := consensusparams.TestNetParams()

	genesis := block(externalapi.Hash{}, 1000, coinbase(0, params.InitialSubsidy))
	genesisHash := consensushashing.BlockHash(genesis.Header)
	if _, err := e.Connect(0, genesis); err != nil {
		t.Fatalf("Connect(genesis): %s", err)
	}
	if err := e.PreSetChainHead(); err != nil {
		t.Fatalf("PreSetChainHead: %s", err)
	}

	// Reuses the exact same coinbase bytes, so it hashes to the same txid
	// as an output that is still unspent.
	duplicate := block(genesisHash, 1010, coinbase(0, params.InitialSubsidy))
	_, err := e.Connect(1, duplicate)
	if err == nil {
		t.Fatalf("expected a duplicate coinbase txid to be rejected")
	}
	if !errors.Is(err, ruleerrors.ErrBIP30Duplicate) {
		t.Fatalf("expected ErrBIP30Duplicate, got %s", err)
	}
	if err := e.NotSettingChainHead(); err != nil {
		t.Fatalf("NotSettingChainHead: %s", err)
	}
}

func TestOverClaimCoinbase(t *testing.T) {
	e, _ := newTestEngine(t)
	params := consensusparams.TestNetParams()

	genesis := block(externalapi.Hash{}, 1000, coinbase(0, params.InitialSubsidy+1))
	_, err := e.Connect(0, genesis)
	if err == nil {
		t.Fatalf("expected a coinbase claiming more than subsidy+fees to be rejected")
	}
	if !errors.Is(err, ruleerrors.ErrFeesOutOfRange) {
		t.Fatalf("expected ErrFeesOutOfRange, got %s", err)
	}
	if err := e.NotSettingChainHead(); err != nil {
		t.Fatalf("NotSettingChainHead: %s", err)
	}
}

func TestReorgAcrossTwoBlocks(t *testing.T) {
	e, store := newTestEngine(t)
	params := consensusparams.TestNetParams()

	a0 := block(externalapi.Hash{}, 1000, coinbase(0xA0, params.InitialSubsidy))
	a0Hash := consensushashing.BlockHash(a0.Header)
	a0CoinbaseID := consensushashing.TransactionID(a0.Transactions[0])

	if _, err := e.Connect(0, a0); err != nil {
		t.Fatalf("Connect(a0): %s", err)
	}
	if err := e.PreSetChainHead(); err != nil {
		t.Fatalf("PreSetChainHead: %s", err)
	}

	a1 := block(a0Hash, 1010, coinbase(0xA1, params.InitialSubsidy))
	a1Hash := consensushashing.BlockHash(a1.Header)
	a1CoinbaseID := consensushashing.TransactionID(a1.Transactions[0])

	if _, err := e.Connect(1, a1); err != nil {
		t.Fatalf("Connect(a1): %s", err)
	}
	if err := e.PreSetChainHead(); err != nil {
		t.Fatalf("PreSetChainHead: %s", err)
	}

	// Disconnect a1 then a0, restoring the empty pre-genesis state.
	if err := e.Disconnect(&externalapi.StoredBlock{Hash: a1Hash, Height: 1, Header: a1.Header}); err != nil {
		t.Fatalf("Disconnect(a1): %s", err)
	}
	if err := e.PreSetChainHead(); err != nil {
		t.Fatalf("PreSetChainHead: %s", err)
	}
	if err := e.Disconnect(&externalapi.StoredBlock{Hash: a0Hash, Height: 0, Header: a0.Header}); err != nil {
		t.Fatalf("Disconnect(a0): %s", err)
	}
	if err := e.PreSetChainHead(); err != nil {
		t.Fatalf("PreSetChainHead: %s", err)
	}

	inspect(t, store, func(b batchLike) {
		if _, found, err := b.GetOutput(a0CoinbaseID, 0); err != nil || found {
			t.Fatalf("expected a0's coinbase output to be gone after full disconnect, found=%v err=%v", found, err)
		}
		if _, found, err := b.GetOutput(a1CoinbaseID, 0); err != nil || found {
			t.Fatalf("expected a1's coinbase output to be gone after full disconnect, found=%v err=%v", found, err)
		}
	})

	// A side branch B0, competing with a0, is archived without being applied.
	b0 := block(externalapi.Hash{}, 1001, coinbase(0xB0, params.InitialSubsidy))
	b0StoredBlock, err := e.AddToStoreFull(nil, b0)
	if err != nil {
		t.Fatalf("AddToStoreFull(b0): %s", err)
	}
	if err := e.PreSetChainHead(); err != nil {
		t.Fatalf("PreSetChainHead: %s", err)
	}
	b0CoinbaseID := consensushashing.TransactionID(b0.Transactions[0])

	// The reorg now favors B: replay the archived side block against the
	// now-empty UTXO set left by disconnecting a0/a1.
	if _, err := e.ReplaySideBlock(b0StoredBlock); err != nil {
		t.Fatalf("ReplaySideBlock(b0): %s", err)
	}
	if err := e.PreSetChainHead(); err != nil {
		t.Fatalf("PreSetChainHead: %s", err)
	}

	inspect(t, store, func(b batchLike) {
		if _, found, err := b.GetOutput(b0CoinbaseID, 0); err != nil || !found {
			t.Fatalf("expected b0's coinbase output to be unspent after replay, found=%v err=%v", found, err)
		}
	})
}

func TestPrunedReorgReplaysFromDelta(t *testing.T) {
	e, store := newTestEngine(t)
	params := consensusparams.TestNetParams()

	c0 := block(externalapi.Hash{}, 1000, coinbase(0xC0, params.InitialSubsidy))
	c0Hash := consensushashing.BlockHash(c0.Header)
	c0CoinbaseID := consensushashing.TransactionID(c0.Transactions[0])

	// c0 is briefly the chain head, so its undo record carries a computed
	// Changes delta alongside its full transaction list.
	if _, err := e.Connect(0, c0); err != nil {
		t.Fatalf("Connect(c0): %s", err)
	}
	if err := e.PreSetChainHead(); err != nil {
		t.Fatalf("PreSetChainHead: %s", err)
	}
	if err := e.Disconnect(&externalapi.StoredBlock{Hash: c0Hash, Height: 0, Header: c0.Header}); err != nil {
		t.Fatalf("Disconnect(c0): %s", err)
	}
	if err := e.PreSetChainHead(); err != nil {
		t.Fatalf("PreSetChainHead: %s", err)
	}

	// The store reclaims space by dropping c0's archived transaction list,
	// keeping only its delta.
	if err := store.PruneTransactions(c0Hash); err != nil {
		t.Fatalf("PruneTransactions(c0): %s", err)
	}

	c0StoredBlock := &externalapi.StoredBlock{Hash: c0Hash, Height: 0, Header: c0.Header}
	if _, err := e.ReplaySideBlock(c0StoredBlock); err != nil {
		t.Fatalf("ReplaySideBlock(c0) from a pruned delta: %s", err)
	}
	if err := e.PreSetChainHead(); err != nil {
		t.Fatalf("PreSetChainHead: %s", err)
	}

	inspect(t, store, func(b batchLike) {
		if _, found, err := b.GetOutput(c0CoinbaseID, 0); err != nil || !found {
			t.Fatalf("expected c0's coinbase output to be restored via the trusted delta, found=%v err=%v", found, err)
		}
	})
}

func TestPrunedReorgFullyPrunedRaisesPrunedError(t *testing.T) {
	e, _ := newTestEngine(t)
	params := consensusparams.TestNetParams()

	neverStored := block(externalapi.Hash{}, 1000, coinbase(0xD0, params.InitialSubsidy))
	neverStoredHash := consensushashing.BlockHash(neverStored.Header)

	_, err := e.ReplaySideBlock(&externalapi.StoredBlock{Hash: neverStoredHash, Height: 0, Header: neverStored.Header})
	if err == nil {
		t.Fatalf("expected ReplaySideBlock to fail for a block with no undo record at all")
	}
	if _, ok := err.(*ruleerrors.PrunedError); !ok {
		t.Fatalf("expected a *ruleerrors.PrunedError, got %T: %s", err, err)
	}
	if err := e.NotSettingChainHead(); err != nil {
		t.Fatalf("NotSettingChainHead: %s", err)
	}
}

func TestCheckpointMismatchRejected(t *testing.T) {
	e, _ := newTestEngine(t)
	e.params = consensusparams.MainNetParams()
	checkpoint := e.params.Checkpoints[0]

	wrongBlock := block(externalapi.Hash{}, 1000, coinbase(0, e.params.InitialSubsidy))
	// wrongBlock's hash will not equal the checkpoint's hash.
	_, err := e.Connect(checkpoint.Height, wrongBlock)
	if err == nil {
		t.Fatalf("expected a block disagreeing with a checkpoint to be rejected")
	}
	if !errors.Is(err, ruleerrors.ErrCheckpointMismatch) {
		t.Fatalf("expected ErrCheckpointMismatch, got %s", err)
	}
}
