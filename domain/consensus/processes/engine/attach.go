package engine

import (
	"github.com/btcprune/utxovalidator/domain/consensus/model/externalapi"
	"github.com/btcprune/utxovalidator/domain/consensus/utils/consensushashing"
)

// AddToStoreWithUndo persists header + a pre-computed delta as the
// undoable record: the side-branch fast path. It performs no UTXO
// mutation; the delta becomes real only once ReplaySideBlock or a future
// Connect brings this block onto the active chain.
func (e *Engine) AddToStoreWithUndo(prev *externalapi.StoredBlock, header *externalapi.BlockHeader,
	delta externalapi.TxOutputChanges) (*externalapi.StoredBlock, error) {

	height := uint32(0)
	if prev != nil {
		height = prev.Height + 1
	}
	blockHash := consensushashing.BlockHash(header)
	storedBlock := &externalapi.StoredBlock{Hash: blockHash, Height: height, Header: header}

	batch, err := e.store.BeginBatch()
	if err != nil {
		return nil, err
	}
	undo := &externalapi.StoredUndoableBlock{Changes: delta}
	if err := batch.PutUndo(blockHash, storedBlock, undo); err != nil {
		abortOnError(batch, "add_to_store_with_undo")
		return nil, err
	}

	e.openBatch = batch
	return storedBlock, nil
}

// AddToStoreFull persists header + the full stored-transaction list as the
// undoable record, without mutating the UTXO set yet.
func (e *Engine) AddToStoreFull(prev *externalapi.StoredBlock, block *externalapi.Block) (*externalapi.StoredBlock, error) {
	height := uint32(0)
	if prev != nil {
		height = prev.Height + 1
	}
	blockHash := consensushashing.BlockHash(block.Header)
	storedBlock := &externalapi.StoredBlock{Hash: blockHash, Height: height, Header: block.Header}

	batch, err := e.store.BeginBatch()
	if err != nil {
		return nil, err
	}
	undo := &externalapi.StoredUndoableBlock{
		Transactions: storedTransactionsFromBlock(block, height),
	}
	if err := batch.PutUndo(blockHash, storedBlock, undo); err != nil {
		abortOnError(batch, "add_to_store_full")
		return nil, err
	}

	e.openBatch = batch
	return storedBlock, nil
}
