package engine

import (
	"github.com/btcprune/utxovalidator/domain/consensus/model/externalapi"
	"github.com/btcprune/utxovalidator/domain/consensus/ruleerrors"
	"github.com/btcprune/utxovalidator/domain/consensus/utils/consensushashing"
)

// Connect applies block's transactions forward at height, performing every
// consensus check, and leaves a freshly-opened batch on the engine for the
// chain-selector to resolve via PreSetChainHead/NotSettingChainHead.
func (e *Engine) Connect(height uint32, block *externalapi.Block) (externalapi.TxOutputChanges, error) {
	if len(block.Transactions) == 0 {
		return externalapi.TxOutputChanges{}, ruleerrors.Verification(ruleerrors.ErrMissingTransactions,
			"block has no transactions")
	}

	blockHash := consensushashing.BlockHash(block.Header)
	if !e.params.Passes(height, &blockHash) {
		return externalapi.TxOutputChanges{}, ruleerrors.Verification(ruleerrors.ErrCheckpointMismatch,
			"block %s at height %d disagrees with checkpoint", blockHash, height)
	}

	batch, err := e.store.BeginBatch()
	if err != nil {
		return externalapi.TxOutputChanges{}, err
	}

	changes, err := verifyTransactions(batch, newTxViewsFromBlock(block), height, block.Header.Timestamp, e.params)
	if err != nil {
		abortOnError(batch, "connect")
		return externalapi.TxOutputChanges{}, err
	}

	storedBlock := &externalapi.StoredBlock{Hash: blockHash, Height: height, Header: block.Header}
	undo := &externalapi.StoredUndoableBlock{
		Transactions: storedTransactionsFromBlock(block, height),
		Changes:      changes,
	}
	if err := batch.PutUndo(blockHash, storedBlock, undo); err != nil {
		abortOnError(batch, "connect")
		return externalapi.TxOutputChanges{}, err
	}

	log.Debugf("connected block %s at height %d", blockHash, height)
	e.openBatch = batch
	return changes, nil
}

func abortOnError(batch interface{ Abort() error }, op string) {
	if err := batch.Abort(); err != nil {
		log.Warnf("failed to abort batch after %s error: %s", op, err)
	}
}

func storedTransactionsFromBlock(block *externalapi.Block, height uint32) []*externalapi.StoredTransaction {
	stored := make([]*externalapi.StoredTransaction, len(block.Transactions))
	for i, tx := range block.Transactions {
		id := consensushashing.TransactionID(tx)
		isCoinBase := tx.IsCoinBase()
		outputs := make([]*externalapi.StoredOutput, len(tx.Outputs))
		for j, out := range tx.Outputs {
			outputs[j] = &externalapi.StoredOutput{
				TxID:       id,
				Index:      uint32(j),
				Value:      out.Value,
				Script:     out.ScriptPubKey,
				Height:     height,
				IsCoinbase: isCoinBase,
			}
		}
		stored[i] = &externalapi.StoredTransaction{
			ID:       id,
			Version:  tx.Version,
			Inputs:   tx.Inputs,
			Outputs:  outputs,
			LockTime: tx.LockTime,
		}
	}
	return stored
}
