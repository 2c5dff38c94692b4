package model

import "github.com/btcprune/utxovalidator/domain/consensus/model/externalapi"

// ChainEngine is the capability interface the generic chain-selector
// consumes. Modeling it as an interface rather than a concrete type lets a
// chain-selector be written against this module without depending on its
// internals.
type ChainEngine interface {
	// AddToStoreWithUndo persists header + a pre-computed delta as the
	// undoable record: the side-branch fast path.
	AddToStoreWithUndo(prev *externalapi.StoredBlock, header *externalapi.BlockHeader,
		delta externalapi.TxOutputChanges) (*externalapi.StoredBlock, error)

	// AddToStoreFull persists header + the full stored-transaction list
	// as the undoable record, without mutating the UTXO set yet.
	AddToStoreFull(prev *externalapi.StoredBlock, block *externalapi.Block) (*externalapi.StoredBlock, error)

	// ShouldVerifyTransactions is always true for this engine.
	ShouldVerifyTransactions() bool

	// Connect applies a newly received block's transactions forward.
	Connect(height uint32, block *externalapi.Block) (externalapi.TxOutputChanges, error)

	// ReplaySideBlock applies a previously archived side-branch block.
	ReplaySideBlock(storedBlock *externalapi.StoredBlock) (externalapi.TxOutputChanges, error)

	// Disconnect reverses a block using its undo record.
	Disconnect(oldBlock *externalapi.StoredBlock) error

	// PreSetChainHead commits the batch opened by the operation that is
	// about to become the new chain head.
	PreSetChainHead() error

	// NotSettingChainHead aborts the open batch: the candidate did not
	// extend the best chain after all.
	NotSettingChainHead() error
}
