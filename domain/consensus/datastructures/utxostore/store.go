// Package utxostore is the concrete, goleveldb-backed implementation of
// model.UTXOStore: the persistent mapping from (txid, output-index) to
// StoredOutput, plus the undo-block archive keyed by block hash. It uses
// the snapshot+batch transaction shape, extended with an in-memory overlay
// so reads within an open batch see that batch's own writes, since a
// leveldb snapshot alone is fixed at the moment the transaction begins.
package utxostore

import (
	"github.com/btcprune/utxovalidator/domain/consensus/model"
	"github.com/btcprune/utxovalidator/domain/consensus/model/externalapi"
	"github.com/btcprune/utxovalidator/domain/consensus/ruleerrors"
	"github.com/btcprune/utxovalidator/infrastructure/db/dbkeys"
	"github.com/btcprune/utxovalidator/infrastructure/logger"
)

var log = logger.NewBackend().Logger("UTXO")

var (
	outputBucket = dbkeys.MakeBucket([]byte("utxo-output"))
	undoBucket   = dbkeys.MakeBucket([]byte("utxo-undo"))
)

// Store is a model.UTXOStore backed by a single model.DBManager.
type Store struct {
	db model.DBManager
}

// New wraps db as a UTXOStore.
func New(db model.DBManager) *Store {
	return &Store{db: db}
}

// BeginBatch opens a new batch: a database transaction plus an in-memory
// overlay of the writes made so far within it.
func (s *Store) BeginBatch() (model.UTXOStoreBatch, error) {
	dbTx, err := s.db.Begin()
	if err != nil {
		return nil, ruleerrors.NewStoreError(err)
	}
	return &batch{
		dbTx:          dbTx,
		pendingOutput: make(map[externalapi.OutPoint]*externalapi.StoredOutput),
		pendingUndo:   make(map[externalapi.Hash]*undoEntry),
	}, nil
}

type undoEntry struct {
	block *externalapi.StoredBlock
	undo  *externalapi.StoredUndoableBlock
}

// batch implements model.UTXOStoreBatch. pendingOutput's value is nil for
// an outpoint explicitly removed within this batch, distinguishing "delete
// pending" from "not yet touched, fall through to the transaction".
type batch struct {
	dbTx          model.DBTransaction
	pendingOutput map[externalapi.OutPoint]*externalapi.StoredOutput
	pendingUndo   map[externalapi.Hash]*undoEntry
	closed        bool
}

func outputKey(op externalapi.OutPoint) model.DBKey {
	suffix := make([]byte, 32+4)
	copy(suffix, op.TxID[:])
	suffix[32] = byte(op.Index >> 24)
	suffix[33] = byte(op.Index >> 16)
	suffix[34] = byte(op.Index >> 8)
	suffix[35] = byte(op.Index)
	return outputBucket.Key(suffix)
}

func undoKey(blockHash externalapi.Hash) model.DBKey {
	return undoBucket.Key(blockHash[:])
}

func (b *batch) GetOutput(txid externalapi.Hash, index uint32) (*externalapi.StoredOutput, bool, error) {
	op := externalapi.OutPoint{TxID: txid, Index: index}
	if pending, ok := b.pendingOutput[op]; ok {
		return pending, pending != nil, nil
	}

	data, err := b.dbTx.Get(outputKey(op))
	if isNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, ruleerrors.NewStoreError(err)
	}
	out, err := decodeOutput(txid, index, data)
	if err != nil {
		return nil, false, ruleerrors.NewStoreError(err)
	}
	return out, true, nil
}

func (b *batch) AddUnspentOutput(output *externalapi.StoredOutput) error {
	op := output.OutPoint()
	if existing, found, err := b.GetOutput(op.TxID, op.Index); err != nil {
		return err
	} else if found {
		return ruleerrors.NewStoreError(duplicateOutputError(existing))
	}

	encoded, err := encodeOutput(output)
	if err != nil {
		return ruleerrors.NewStoreError(err)
	}
	if err := b.dbTx.Put(outputKey(op), encoded); err != nil {
		return ruleerrors.NewStoreError(err)
	}
	b.pendingOutput[op] = output
	return nil
}

func (b *batch) RemoveUnspentOutput(output *externalapi.StoredOutput) error {
	op := output.OutPoint()
	if err := b.dbTx.Delete(outputKey(op)); err != nil {
		return ruleerrors.NewStoreError(err)
	}
	b.pendingOutput[op] = nil
	return nil
}

func (b *batch) HasUnspentOutputs(txid externalapi.Hash, expectedCount int) (bool, error) {
	for op, pending := range b.pendingOutput {
		if op.TxID == txid && pending != nil {
			return true, nil
		}
	}

	cursor, err := b.dbTx.Cursor(outputBucket)
	if err != nil {
		return false, ruleerrors.NewStoreError(err)
	}
	defer cursor.Close()

	found := 0
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return false, ruleerrors.NewStoreError(err)
		}
		suffix := key.Suffix()
		if len(suffix) < 32 || string(suffix[:32]) != string(txid[:]) {
			continue
		}
		index := uint32(suffix[32])<<24 | uint32(suffix[33])<<16 | uint32(suffix[34])<<8 | uint32(suffix[35])
		if removed, isPending := b.pendingOutput[externalapi.OutPoint{TxID: txid, Index: index}]; isPending && removed == nil {
			continue
		}
		found++
		if expectedCount > 0 && found >= expectedCount {
			return true, nil
		}
	}
	return found > 0, nil
}

func (b *batch) PutUndo(blockHash externalapi.Hash, storedBlock *externalapi.StoredBlock,
	undo *externalapi.StoredUndoableBlock) error {

	encoded, err := encodeUndo(storedBlock, undo)
	if err != nil {
		return ruleerrors.NewStoreError(err)
	}
	if err := b.dbTx.Put(undoKey(blockHash), encoded); err != nil {
		return ruleerrors.NewStoreError(err)
	}
	b.pendingUndo[blockHash] = &undoEntry{block: storedBlock, undo: undo}
	return nil
}

func (b *batch) GetUndo(blockHash externalapi.Hash) (*externalapi.StoredUndoableBlock, bool, error) {
	if pending, ok := b.pendingUndo[blockHash]; ok {
		return pending.undo, true, nil
	}

	data, err := b.dbTx.Get(undoKey(blockHash))
	if isNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, ruleerrors.NewStoreError(err)
	}
	_, undo, err := decodeUndo(blockHash, data)
	if err != nil {
		return nil, false, ruleerrors.NewStoreError(err)
	}
	return undo, true, nil
}

// PruneTransactions discards the full transaction list archived for
// blockHash, keeping only its already-computed Changes delta. It operates
// directly against the database rather than through a batch: this is the
// store's own space-reclamation policy, not a consensus-engine mutation, and
// it never touches the UTXO set. Calling it on a block whose Changes were
// never computed (an archive written by AddToStoreFull that has not yet
// gone through Connect or ReplaySideBlock) leaves nothing an eventual
// ReplaySideBlock could trust.
func (s *Store) PruneTransactions(blockHash externalapi.Hash) error {
	data, err := s.db.Get(undoKey(blockHash))
	if err != nil {
		return ruleerrors.NewStoreError(err)
	}
	storedBlock, undo, err := decodeUndo(blockHash, data)
	if err != nil {
		return ruleerrors.NewStoreError(err)
	}
	undo.Transactions = nil
	encoded, err := encodeUndo(storedBlock, undo)
	if err != nil {
		return ruleerrors.NewStoreError(err)
	}
	if err := s.db.Put(undoKey(blockHash), encoded); err != nil {
		return ruleerrors.NewStoreError(err)
	}
	return nil
}

func (b *batch) Commit() error {
	if b.closed {
		return ruleerrors.NewStoreError(errAlreadyClosed)
	}
	b.closed = true
	if err := b.dbTx.Commit(); err != nil {
		return ruleerrors.NewStoreError(err)
	}
	return nil
}

func (b *batch) Abort() error {
	if b.closed {
		return nil
	}
	b.closed = true
	if err := b.dbTx.Rollback(); err != nil {
		log.Warnf("failed to roll back aborted batch: %s", err)
		return ruleerrors.NewStoreError(err)
	}
	return nil
}
