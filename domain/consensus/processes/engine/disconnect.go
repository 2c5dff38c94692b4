package engine

import (
	"github.com/btcprune/utxovalidator/domain/consensus/model/externalapi"
	"github.com/btcprune/utxovalidator/domain/consensus/ruleerrors"
)

// Disconnect reverses oldBlock's effect on the UTXO set using its undo
// record. Disconnect relies only on the delta, not on any BIP30-era
// ambiguity, and is therefore incorrect for a historical block that
// legitimately created a duplicate coinbase and was itself reversed; every
// such block must lie in the checkpoint table so it can never be
// reorganized past.
func (e *Engine) Disconnect(oldBlock *externalapi.StoredBlock) error {
	batch, err := e.store.BeginBatch()
	if err != nil {
		return err
	}

	undo, found, err := batch.GetUndo(oldBlock.Hash)
	if err != nil {
		abortOnError(batch, "disconnect")
		return err
	}
	if !found {
		abortOnError(batch, "disconnect")
		return ruleerrors.NewPrunedError(oldBlock.Hash)
	}

	for _, out := range undo.Changes.Spent {
		if err := batch.AddUnspentOutput(out); err != nil {
			abortOnError(batch, "disconnect")
			return err
		}
	}
	for _, out := range undo.Changes.Created {
		if err := batch.RemoveUnspentOutput(out); err != nil {
			abortOnError(batch, "disconnect")
			return err
		}
	}

	log.Debugf("disconnected block %s at height %d", oldBlock.Hash, oldBlock.Height)
	e.openBatch = batch
	return nil
}
