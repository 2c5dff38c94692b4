// Package leveldb implements model.DBManager on top of
// github.com/syndtr/goleveldb. A transaction pairs a snapshot (for
// consistent reads) with a batch (for buffered writes).
package leveldb

import (
	"path/filepath"

	"github.com/btcprune/utxovalidator/domain/consensus/model"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDB is a goleveldb-backed implementation of model.DBManager.
type LevelDB struct {
	ldb *leveldb.DB
}

// Open opens (creating if necessary) a LevelDB database at
// filepath.Join(path, storeName), recovering from corruption if needed.
func Open(path, storeName string) (*LevelDB, error) {
	dbPath := filepath.Join(path, storeName)

	ldb, err := leveldb.OpenFile(dbPath, nil)
	if _, corrupted := err.(*ldberrors.ErrCorrupted); corrupted {
		ldb, err = leveldb.RecoverFile(dbPath, nil)
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &LevelDB{ldb: ldb}, nil
}

// Close releases the underlying database handle.
func (db *LevelDB) Close() error {
	return errors.WithStack(db.ldb.Close())
}

// Get implements model.DBReader against the live database (outside any
// transaction).
func (db *LevelDB) Get(key model.DBKey) ([]byte, error) {
	value, err := db.ldb.Get(key.Bytes(), nil)
	if err == leveldb.ErrNotFound {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return value, nil
}

// Has implements model.DBReader.
func (db *LevelDB) Has(key model.DBKey) (bool, error) {
	has, err := db.ldb.Has(key.Bytes(), nil)
	return has, errors.WithStack(err)
}

// Put implements model.DBWriter.
func (db *LevelDB) Put(key model.DBKey, value []byte) error {
	return errors.WithStack(db.ldb.Put(key.Bytes(), value, nil))
}

// Delete implements model.DBWriter.
func (db *LevelDB) Delete(key model.DBKey) error {
	return errors.WithStack(db.ldb.Delete(key.Bytes(), nil))
}

// Cursor implements model.DBReader over the given bucket's key range.
func (db *LevelDB) Cursor(bucket model.DBBucket) (model.DBCursor, error) {
	iterRange := util.BytesPrefix(bucket.Path())
	return &cursor{iter: db.ldb.NewIterator(iterRange, nil), prefixLen: len(bucket.Path()) + 1}, nil
}

// Begin opens a new transaction: a snapshot for reads paired with a batch
// for writes.
func (db *LevelDB) Begin() (model.DBTransaction, error) {
	snapshot, err := db.ldb.GetSnapshot()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &transaction{
		ldb:      db.ldb,
		snapshot: snapshot,
		batch:    new(leveldb.Batch),
	}, nil
}

type transaction struct {
	ldb      *leveldb.DB
	snapshot *leveldb.Snapshot
	batch    *leveldb.Batch
	isClosed bool
}

func (tx *transaction) Get(key model.DBKey) ([]byte, error) {
	if tx.isClosed {
		return nil, errors.New("cannot get from a closed transaction")
	}
	value, err := tx.snapshot.Get(key.Bytes(), nil)
	if err == leveldb.ErrNotFound {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return value, nil
}

func (tx *transaction) Has(key model.DBKey) (bool, error) {
	if tx.isClosed {
		return false, errors.New("cannot query a closed transaction")
	}
	has, err := tx.snapshot.Has(key.Bytes(), nil)
	return has, errors.WithStack(err)
}

func (tx *transaction) Cursor(bucket model.DBBucket) (model.DBCursor, error) {
	if tx.isClosed {
		return nil, errors.New("cannot open a cursor on a closed transaction")
	}
	iterRange := util.BytesPrefix(bucket.Path())
	return &cursor{iter: tx.snapshot.NewIterator(iterRange, nil), prefixLen: len(bucket.Path()) + 1}, nil
}

func (tx *transaction) Put(key model.DBKey, value []byte) error {
	if tx.isClosed {
		return errors.New("cannot put into a closed transaction")
	}
	tx.batch.Put(key.Bytes(), value)
	return nil
}

func (tx *transaction) Delete(key model.DBKey) error {
	if tx.isClosed {
		return errors.New("cannot delete from a closed transaction")
	}
	tx.batch.Delete(key.Bytes())
	return nil
}

func (tx *transaction) Commit() error {
	if tx.isClosed {
		return errors.New("cannot commit a closed transaction")
	}
	tx.isClosed = true
	tx.snapshot.Release()
	return errors.WithStack(tx.ldb.Write(tx.batch, nil))
}

func (tx *transaction) Rollback() error {
	if tx.isClosed {
		return errors.New("cannot rollback a closed transaction")
	}
	tx.isClosed = true
	tx.snapshot.Release()
	tx.batch.Reset()
	return nil
}

func (tx *transaction) RollbackUnlessClosed() error {
	if tx.isClosed {
		return nil
	}
	return tx.Rollback()
}

type cursor struct {
	iter iterator
	// prefixLen is the number of leading bytes of every key under this
	// cursor's bucket that belong to the bucket path plus its separator,
	// not the caller's suffix.
	prefixLen int
	isClosed  bool
}

// iterator is the subset of leveldb.Iterator this cursor needs; both
// *leveldb.Iterator (live DB) and the snapshot's iterator satisfy it.
type iterator interface {
	Next() bool
	First() bool
	Seek(key []byte) bool
	Key() []byte
	Value() []byte
	Release()
}

func (c *cursor) Next() bool {
	return c.iter.Next()
}

func (c *cursor) First() bool {
	return c.iter.First()
}

func (c *cursor) Seek(key model.DBKey) error {
	if !c.iter.Seek(key.Bytes()) {
		return model.ErrNotFound
	}
	return nil
}

func (c *cursor) Key() (model.DBKey, error) {
	key := c.iter.Key()
	if key == nil {
		return nil, model.ErrNotFound
	}
	full := append([]byte{}, key...)
	suffix := full
	if c.prefixLen <= len(full) {
		suffix = full[c.prefixLen:]
	}
	return &rawKey{full: full, suffix: suffix}, nil
}

func (c *cursor) Value() ([]byte, error) {
	value := c.iter.Value()
	if value == nil {
		return nil, model.ErrNotFound
	}
	return value, nil
}

func (c *cursor) Close() error {
	if c.isClosed {
		return errors.New("cursor already closed")
	}
	c.isClosed = true
	c.iter.Release()
	return nil
}

// rawKey adapts a flat byte key read back off an iterator to model.DBKey.
// full is the entire on-disk key (bucket path, separator, and suffix);
// suffix has the bucket's path and separator already stripped off, so
// callers scanning a bucket's keys see the same suffix shape a DBKey built
// through Bucket.Key would have.
type rawKey struct {
	full   []byte
	suffix []byte
}

func (k *rawKey) Bytes() []byte          { return k.full }
func (k *rawKey) Bucket() model.DBBucket { return nil }
func (k *rawKey) Suffix() []byte         { return k.suffix }
