package externalapi

import "math/big"

// StoredBlock is the header-chain's record of a block: enough to identify
// it and locate it in the tree. Cumulative work and height are maintained
// by the header chain; the connect engine only ever reads them back
// through this type.
type StoredBlock struct {
	Hash           Hash
	Height         uint32
	Header         *BlockHeader
	CumulativeWork *big.Int
}

// TxOutputChanges is an undo delta: the outputs a block created and the
// outputs it spent. Replaying Created as adds and Spent as removes on the
// pre-block UTXO set yields the post-block set; the inverse reverses it.
type TxOutputChanges struct {
	Created []*StoredOutput
	Spent   []*StoredOutput
}

// StoredUndoableBlock is the undo-archive record for one block, keyed by
// block hash in the store. Transactions is non-nil for a block whose full
// transaction list has not yet been pruned, allowing the reorg engine to
// re-verify it from scratch. Changes is populated once the block has been
// applied by Connect or ReplaySideBlock (and from the start for a record
// written by AddToStoreWithUndo), so the disconnect engine never needs to
// distinguish the two forms; a record written by AddToStoreFull carries an
// empty Changes until it is replayed.
type StoredUndoableBlock struct {
	Transactions []*StoredTransaction
	Changes      TxOutputChanges
}

// IsPruned reports whether only the delta form of this record survives.
func (b *StoredUndoableBlock) IsPruned() bool {
	return b.Transactions == nil
}
