// Package engine implements the block-connect, reorg-replay and
// block-disconnect engine, exposed through the model.ChainEngine
// capability interface. Its struct holds a collaborating UTXOStore
// injected at construction, in the manner of a
// consensusStateManager-style state machine.
package engine

import (
	"github.com/btcprune/utxovalidator/domain/consensus/consensusparams"
	"github.com/btcprune/utxovalidator/domain/consensus/model"
	"github.com/btcprune/utxovalidator/infrastructure/logger"
)

var log = logger.NewBackend().Logger("ENGN")

// Engine implements model.ChainEngine.
type Engine struct {
	store  model.UTXOStore
	params *consensusparams.Params

	// openBatch is the batch opened by the most recent Connect, Disconnect,
	// ReplaySideBlock, AddToStoreWithUndo or AddToStoreFull call, left open
	// on success for the chain-selector
	// to resolve via PreSetChainHead or NotSettingChainHead.
	openBatch model.UTXOStoreBatch
}

// New constructs an Engine over store, checking blocks against params.
func New(store model.UTXOStore, params *consensusparams.Params) *Engine {
	return &Engine{store: store, params: params}
}

// ShouldVerifyTransactions is always true for this engine.
func (e *Engine) ShouldVerifyTransactions() bool {
	return true
}

// PreSetChainHead commits the batch opened by the operation that is about
// to become the new chain head.
func (e *Engine) PreSetChainHead() error {
	if e.openBatch == nil {
		return nil
	}
	batch := e.openBatch
	e.openBatch = nil
	return batch.Commit()
}

// NotSettingChainHead aborts the open batch: the candidate did not extend
// the best chain after all.
func (e *Engine) NotSettingChainHead() error {
	if e.openBatch == nil {
		return nil
	}
	batch := e.openBatch
	e.openBatch = nil
	return batch.Abort()
}
