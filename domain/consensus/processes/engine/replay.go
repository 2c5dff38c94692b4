package engine

import (
	"github.com/btcprune/utxovalidator/domain/consensus/consensusparams"
	"github.com/btcprune/utxovalidator/domain/consensus/model"
	"github.com/btcprune/utxovalidator/domain/consensus/model/externalapi"
	"github.com/btcprune/utxovalidator/domain/consensus/ruleerrors"
)

// ReplaySideBlock applies a previously-archived block that was not on the
// active chain when first received. If the archived record still holds
// the full transaction list, it is re-verified from scratch against the
// now-longer chain prefix and the resulting delta is written back into
// the block's undo record; if only the delta survives, the delta is
// trusted as-is.
func (e *Engine) ReplaySideBlock(storedBlock *externalapi.StoredBlock) (externalapi.TxOutputChanges, error) {
	if !e.params.Passes(storedBlock.Height, &storedBlock.Hash) {
		return externalapi.TxOutputChanges{}, ruleerrors.Verification(ruleerrors.ErrCheckpointMismatch,
			"block %s at height %d disagrees with checkpoint", storedBlock.Hash, storedBlock.Height)
	}

	batch, err := e.store.BeginBatch()
	if err != nil {
		return externalapi.TxOutputChanges{}, err
	}

	undo, found, err := batch.GetUndo(storedBlock.Hash)
	if err != nil {
		abortOnError(batch, "replay")
		return externalapi.TxOutputChanges{}, err
	}
	if !found {
		abortOnError(batch, "replay")
		return externalapi.TxOutputChanges{}, ruleerrors.NewPrunedError(storedBlock.Hash)
	}

	var changes externalapi.TxOutputChanges
	if !undo.IsPruned() {
		changes, err = verifyTransactions(batch, newTxViewsFromStored(undo.Transactions),
			storedBlock.Height, storedBlock.Header.Timestamp, e.params)
		if err != nil {
			abortOnError(batch, "replay")
			return externalapi.TxOutputChanges{}, err
		}
		recorded := &externalapi.StoredUndoableBlock{Transactions: undo.Transactions, Changes: changes}
		if err := batch.PutUndo(storedBlock.Hash, storedBlock, recorded); err != nil {
			abortOnError(batch, "replay")
			return externalapi.TxOutputChanges{}, err
		}
	} else {
		changes, err = applyTrustedDelta(batch, undo.Changes, storedBlock.Height, e.params)
		if err != nil {
			abortOnError(batch, "replay")
			return externalapi.TxOutputChanges{}, err
		}
	}

	log.Debugf("replayed side block %s at height %d", storedBlock.Hash, storedBlock.Height)
	e.openBatch = batch
	return changes, nil
}

// applyTrustedDelta applies a pruned block's stored delta without
// re-running consensus checks: those checks already ran when this block
// was first connected to its side branch. Only a BIP30 guard is repeated,
// since the store's contents (and thus BIP30 eligibility) may have changed
// since then.
func applyTrustedDelta(batch model.UTXOStoreBatch, changes externalapi.TxOutputChanges, height uint32,
	params *consensusparams.Params) (externalapi.TxOutputChanges, error) {

	if !params.IsCheckpoint(height) {
		for _, out := range changes.Created {
			_, found, err := batch.GetOutput(out.TxID, out.Index)
			if err != nil {
				return externalapi.TxOutputChanges{}, err
			}
			if found {
				return externalapi.TxOutputChanges{}, errBIP30(out.TxID)
			}
		}
	}

	for _, out := range changes.Created {
		if err := batch.AddUnspentOutput(out); err != nil {
			return externalapi.TxOutputChanges{}, err
		}
	}
	for _, out := range changes.Spent {
		if err := batch.RemoveUnspentOutput(out); err != nil {
			return externalapi.TxOutputChanges{}, err
		}
	}
	return changes, nil
}

func errBIP30(txid externalapi.Hash) error {
	return ruleerrors.Verification(ruleerrors.ErrBIP30Duplicate, "duplicate transaction id %s", txid)
}
