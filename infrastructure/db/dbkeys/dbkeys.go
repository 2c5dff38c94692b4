// Package dbkeys builds the flat byte keys the leveldb-backed store uses,
// implementing model.DBBucket/model.DBKey over a "/"-joined path that
// qualifies every key with its bucket.
package dbkeys

import (
	"bytes"

	"github.com/btcprune/utxovalidator/domain/consensus/model"
)

var separator = []byte("/")

// Bucket is a named namespace within the store's flat keyspace.
type Bucket struct {
	path []byte
}

// MakeBucket returns the root bucket for the given path segment.
func MakeBucket(bucketBytes []byte) *Bucket {
	return &Bucket{path: append([]byte{}, bucketBytes...)}
}

// Bucket returns a child bucket nested under b.
func (b *Bucket) Bucket(bucketBytes []byte) model.DBBucket {
	return &Bucket{path: buildKey(b.path, bucketBytes)}
}

// Key returns the key for suffix within b.
func (b *Bucket) Key(suffix []byte) model.DBKey {
	return &Key{bucket: b, suffix: append([]byte{}, suffix...)}
}

// Path returns b's full path, "/"-joined.
func (b *Bucket) Path() []byte {
	return append([]byte{}, b.path...)
}

// Key identifies a single value within a bucket.
type Key struct {
	bucket *Bucket
	suffix []byte
}

// Bytes returns the flat, "/"-joined byte representation of the key.
func (k *Key) Bytes() []byte {
	return buildKey(k.bucket.path, k.suffix)
}

// Bucket returns the bucket this key belongs to.
func (k *Key) Bucket() model.DBBucket {
	return k.bucket
}

// Suffix returns the key's suffix within its bucket.
func (k *Key) Suffix() []byte {
	return append([]byte{}, k.suffix...)
}

func buildKey(parts ...[]byte) []byte {
	var buf bytes.Buffer
	for i, part := range parts {
		if i > 0 {
			buf.Write(separator)
		}
		buf.Write(part)
	}
	return buf.Bytes()
}
