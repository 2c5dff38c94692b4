// Package consensushashing computes the identifying hashes the connect
// engine and the UTXO store key their records by: transaction ids and block
// hashes. It is the one place in the module allowed to know the wire
// encoding of a Transaction, keeping serialization out of every caller.
package consensushashing

import (
	"bytes"
	"encoding/binary"

	"github.com/btcprune/utxovalidator/domain/consensus/model/externalapi"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// TransactionID returns the double-SHA256 hash of tx's canonical
// serialization. Signature scripts are included, matching legacy
// (pre-segwit) txid computation; there is no witness data to exclude.
func TransactionID(tx *externalapi.Transaction) externalapi.Hash {
	var buf bytes.Buffer
	writeTransaction(&buf, tx)
	return chainhash.DoubleHashH(buf.Bytes())
}

// BlockHash returns the double-SHA256 hash of a block header.
func BlockHash(header *externalapi.BlockHeader) externalapi.Hash {
	var buf bytes.Buffer
	writeHeader(&buf, header)
	return chainhash.DoubleHashH(buf.Bytes())
}

func writeTransaction(buf *bytes.Buffer, tx *externalapi.Transaction) {
	putUint32(buf, uint32(tx.Version))
	putVarInt(buf, uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		buf.Write(in.PreviousOutpoint.TxID[:])
		putUint32(buf, in.PreviousOutpoint.Index)
		putVarInt(buf, uint64(len(in.SignatureScript)))
		buf.Write(in.SignatureScript)
		putUint32(buf, in.Sequence)
	}
	putVarInt(buf, uint64(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		putUint64(buf, uint64(out.Value))
		putVarInt(buf, uint64(len(out.ScriptPubKey)))
		buf.Write(out.ScriptPubKey)
	}
	putUint32(buf, tx.LockTime)
}

func writeHeader(buf *bytes.Buffer, header *externalapi.BlockHeader) {
	putUint32(buf, uint32(header.Version))
	buf.Write(header.PrevBlock[:])
	buf.Write(header.MerkleRoot[:])
	putUint64(buf, uint64(header.Timestamp))
	putUint32(buf, header.Bits)
	putUint32(buf, header.Nonce)
}

func putUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func putUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

// putVarInt writes a Bitcoin-style compact size integer.
func putVarInt(buf *bytes.Buffer, v uint64) {
	switch {
	case v < 0xfd:
		buf.WriteByte(byte(v))
	case v <= 0xffff:
		buf.WriteByte(0xfd)
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(v))
		buf.Write(b[:])
	case v <= 0xffffffff:
		buf.WriteByte(0xfe)
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v))
		buf.Write(b[:])
	default:
		buf.WriteByte(0xff)
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], v)
		buf.Write(b[:])
	}
}
