package model

import "github.com/btcprune/utxovalidator/domain/consensus/model/externalapi"

// UTXOStore is the persistent mapping from (txid, output-index) to stored
// output, plus the undo-block archive keyed by block hash. It is
// transactional at block granularity: every mutation
// happens inside a Batch opened by BeginBatch, mirroring the
// begin_batch/commit_batch/abort_batch discipline of DBManager/DBTransaction
// in database.go, specialized to the UTXO domain's own key shapes instead
// of raw bucket/key/value triples.
type UTXOStore interface {
	// BeginBatch opens a new batch. All mutations outside an open batch
	// are disallowed; the engine always brackets its work in one.
	BeginBatch() (UTXOStoreBatch, error)
}

// UTXOStoreBatch is a single logical operation's view of the store: reads
// reflect writes already made within the same batch, and nothing is
// visible to other batches until Commit succeeds.
type UTXOStoreBatch interface {
	// GetOutput looks up an output from the current UTXO set. found is
	// false if no such output is unspent.
	GetOutput(txid externalapi.Hash, index uint32) (output *externalapi.StoredOutput, found bool, err error)

	// AddUnspentOutput inserts output into the unspent set. A duplicate
	// key is a store error: it should never occur if the engine is
	// correct and BIP30 holds.
	AddUnspentOutput(output *externalapi.StoredOutput) error

	// RemoveUnspentOutput deletes output by its outpoint key.
	RemoveUnspentOutput(output *externalapi.StoredOutput) error

	// HasUnspentOutputs reports whether at least one output of txid is
	// currently unspent. expectedCount lets the store short-circuit once
	// it has confirmed that many entries exist. Used only for BIP30
	// checks.
	HasUnspentOutputs(txid externalapi.Hash, expectedCount int) (bool, error)

	// PutUndo records blockHash's undo information alongside its header
	// metadata.
	PutUndo(blockHash externalapi.Hash, storedBlock *externalapi.StoredBlock,
		undo *externalapi.StoredUndoableBlock) error

	// GetUndo fetches blockHash's undo record. found is false if the
	// undo data has been pruned.
	GetUndo(blockHash externalapi.Hash) (undo *externalapi.StoredUndoableBlock, found bool, err error)

	// Commit makes every mutation made within this batch visible to
	// subsequent batches.
	Commit() error

	// Abort discards every mutation made within this batch.
	Abort() error
}
