package utxostore

import (
	"bytes"
	"io"

	"github.com/btcprune/utxovalidator/domain/consensus/model/externalapi"
	"github.com/btcprune/utxovalidator/util/binaryserializer"
	"github.com/pkg/errors"
)

// encodeOutput serializes everything a StoredOutput needs to round-trip
// bit-for-bit: value, height, coinbase flag, and the locking script. The
// outpoint itself is not encoded; it is the record's key.
func encodeOutput(out *externalapi.StoredOutput) ([]byte, error) {
	var buf bytes.Buffer
	if err := binaryserializer.PutUint64(&buf, uint64(out.Value)); err != nil {
		return nil, err
	}
	if err := binaryserializer.PutUint32(&buf, out.Height); err != nil {
		return nil, err
	}
	coinbase := uint8(0)
	if out.IsCoinbase {
		coinbase = 1
	}
	if err := binaryserializer.PutUint8(&buf, coinbase); err != nil {
		return nil, err
	}
	if err := binaryserializer.PutUint32(&buf, uint32(len(out.Script))); err != nil {
		return nil, err
	}
	buf.Write(out.Script)
	return buf.Bytes(), nil
}

func decodeOutput(txid externalapi.Hash, index uint32, data []byte) (*externalapi.StoredOutput, error) {
	r := bytes.NewReader(data)
	value, err := binaryserializer.Uint64(r)
	if err != nil {
		return nil, err
	}
	height, err := binaryserializer.Uint32(r)
	if err != nil {
		return nil, err
	}
	coinbase, err := binaryserializer.Uint8(r)
	if err != nil {
		return nil, err
	}
	scriptLen, err := binaryserializer.Uint32(r)
	if err != nil {
		return nil, err
	}
	script := make([]byte, scriptLen)
	if _, err := io.ReadFull(r, script); err != nil {
		return nil, errors.WithStack(err)
	}
	return &externalapi.StoredOutput{
		TxID:       txid,
		Index:      index,
		Value:      externalapi.Amount(value),
		Script:     script,
		Height:     height,
		IsCoinbase: coinbase != 0,
	}, nil
}

// encodeUndo serializes a StoredUndoableBlock together with the StoredBlock
// metadata it is filed under: header, height, and either the full
// transaction list or nil (pruned) plus the always-present Changes delta.
func encodeUndo(block *externalapi.StoredBlock, undo *externalapi.StoredUndoableBlock) ([]byte, error) {
	var buf bytes.Buffer

	if err := writeHeader(&buf, block.Header); err != nil {
		return nil, err
	}
	if err := binaryserializer.PutUint32(&buf, block.Height); err != nil {
		return nil, err
	}

	if err := writeOutputs(&buf, undo.Changes.Created); err != nil {
		return nil, err
	}
	if err := writeOutputs(&buf, undo.Changes.Spent); err != nil {
		return nil, err
	}

	if undo.Transactions == nil {
		if err := binaryserializer.PutUint8(&buf, 0); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	if err := binaryserializer.PutUint8(&buf, 1); err != nil {
		return nil, err
	}
	if err := binaryserializer.PutUint32(&buf, uint32(len(undo.Transactions))); err != nil {
		return nil, err
	}
	for _, tx := range undo.Transactions {
		if err := writeStoredTransaction(&buf, tx); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func decodeUndo(blockHash externalapi.Hash, data []byte) (*externalapi.StoredBlock, *externalapi.StoredUndoableBlock, error) {
	r := bytes.NewReader(data)

	header, err := readHeader(r)
	if err != nil {
		return nil, nil, err
	}
	height, err := binaryserializer.Uint32(r)
	if err != nil {
		return nil, nil, err
	}

	created, err := readOutputs(r)
	if err != nil {
		return nil, nil, err
	}
	spent, err := readOutputs(r)
	if err != nil {
		return nil, nil, err
	}

	hasFull, err := binaryserializer.Uint8(r)
	if err != nil {
		return nil, nil, err
	}

	undo := &externalapi.StoredUndoableBlock{
		Changes: externalapi.TxOutputChanges{Created: created, Spent: spent},
	}

	if hasFull != 0 {
		count, err := binaryserializer.Uint32(r)
		if err != nil {
			return nil, nil, err
		}
		txs := make([]*externalapi.StoredTransaction, count)
		for i := range txs {
			tx, err := readStoredTransaction(r)
			if err != nil {
				return nil, nil, err
			}
			txs[i] = tx
		}
		undo.Transactions = txs
	}

	storedBlock := &externalapi.StoredBlock{
		Hash:   blockHash,
		Height: height,
		Header: header,
	}
	return storedBlock, undo, nil
}

func writeOutputs(buf *bytes.Buffer, outputs []*externalapi.StoredOutput) error {
	if err := binaryserializer.PutUint32(buf, uint32(len(outputs))); err != nil {
		return err
	}
	for _, out := range outputs {
		buf.Write(out.TxID[:])
		if err := binaryserializer.PutUint32(buf, out.Index); err != nil {
			return err
		}
		encoded, err := encodeOutput(out)
		if err != nil {
			return err
		}
		buf.Write(encoded)
	}
	return nil
}

func readOutputs(r *bytes.Reader) ([]*externalapi.StoredOutput, error) {
	count, err := binaryserializer.Uint32(r)
	if err != nil {
		return nil, err
	}
	outputs := make([]*externalapi.StoredOutput, count)
	for i := range outputs {
		var txid externalapi.Hash
		if _, err := io.ReadFull(r, txid[:]); err != nil {
			return nil, errors.WithStack(err)
		}
		index, err := binaryserializer.Uint32(r)
		if err != nil {
			return nil, err
		}
		out, err := readOutputBody(txid, index, r)
		if err != nil {
			return nil, err
		}
		outputs[i] = out
	}
	return outputs, nil
}

func readOutputBody(txid externalapi.Hash, index uint32, r *bytes.Reader) (*externalapi.StoredOutput, error) {
	value, err := binaryserializer.Uint64(r)
	if err != nil {
		return nil, err
	}
	height, err := binaryserializer.Uint32(r)
	if err != nil {
		return nil, err
	}
	coinbase, err := binaryserializer.Uint8(r)
	if err != nil {
		return nil, err
	}
	scriptLen, err := binaryserializer.Uint32(r)
	if err != nil {
		return nil, err
	}
	script := make([]byte, scriptLen)
	if _, err := io.ReadFull(r, script); err != nil {
		return nil, errors.WithStack(err)
	}
	return &externalapi.StoredOutput{
		TxID:       txid,
		Index:      index,
		Value:      externalapi.Amount(value),
		Script:     script,
		Height:     height,
		IsCoinbase: coinbase != 0,
	}, nil
}

func writeHeader(buf *bytes.Buffer, header *externalapi.BlockHeader) error {
	if err := binaryserializer.PutUint32(buf, uint32(header.Version)); err != nil {
		return err
	}
	buf.Write(header.PrevBlock[:])
	buf.Write(header.MerkleRoot[:])
	if err := binaryserializer.PutUint64(buf, uint64(header.Timestamp)); err != nil {
		return err
	}
	if err := binaryserializer.PutUint32(buf, header.Bits); err != nil {
		return err
	}
	return binaryserializer.PutUint32(buf, header.Nonce)
}

func readHeader(r *bytes.Reader) (*externalapi.BlockHeader, error) {
	version, err := binaryserializer.Uint32(r)
	if err != nil {
		return nil, err
	}
	header := &externalapi.BlockHeader{Version: int32(version)}
	if _, err := io.ReadFull(r, header.PrevBlock[:]); err != nil {
		return nil, errors.WithStack(err)
	}
	if _, err := io.ReadFull(r, header.MerkleRoot[:]); err != nil {
		return nil, errors.WithStack(err)
	}
	timestamp, err := binaryserializer.Uint64(r)
	if err != nil {
		return nil, err
	}
	header.Timestamp = int64(timestamp)
	if header.Bits, err = binaryserializer.Uint32(r); err != nil {
		return nil, err
	}
	if header.Nonce, err = binaryserializer.Uint32(r); err != nil {
		return nil, err
	}
	return header, nil
}

func writeStoredTransaction(buf *bytes.Buffer, tx *externalapi.StoredTransaction) error {
	buf.Write(tx.ID[:])
	if err := binaryserializer.PutUint32(buf, uint32(tx.Version)); err != nil {
		return err
	}
	if err := binaryserializer.PutUint32(buf, uint32(len(tx.Inputs))); err != nil {
		return err
	}
	for _, in := range tx.Inputs {
		buf.Write(in.PreviousOutpoint.TxID[:])
		if err := binaryserializer.PutUint32(buf, in.PreviousOutpoint.Index); err != nil {
			return err
		}
		if err := binaryserializer.PutUint32(buf, uint32(len(in.SignatureScript))); err != nil {
			return err
		}
		buf.Write(in.SignatureScript)
		if err := binaryserializer.PutUint32(buf, in.Sequence); err != nil {
			return err
		}
	}
	if err := binaryserializer.PutUint32(buf, uint32(len(tx.Outputs))); err != nil {
		return err
	}
	for _, out := range tx.Outputs {
		if err := binaryserializer.PutUint32(buf, out.Index); err != nil {
			return err
		}
		encoded, err := encodeOutput(out)
		if err != nil {
			return err
		}
		buf.Write(encoded)
	}
	return binaryserializer.PutUint32(buf, tx.LockTime)
}

func readStoredTransaction(r *bytes.Reader) (*externalapi.StoredTransaction, error) {
	tx := &externalapi.StoredTransaction{}
	if _, err := io.ReadFull(r, tx.ID[:]); err != nil {
		return nil, errors.WithStack(err)
	}
	version, err := binaryserializer.Uint32(r)
	if err != nil {
		return nil, err
	}
	tx.Version = int32(version)

	inputCount, err := binaryserializer.Uint32(r)
	if err != nil {
		return nil, err
	}
	tx.Inputs = make([]*externalapi.TransactionInput, inputCount)
	for i := range tx.Inputs {
		in := &externalapi.TransactionInput{}
		if _, err := io.ReadFull(r, in.PreviousOutpoint.TxID[:]); err != nil {
			return nil, errors.WithStack(err)
		}
		if in.PreviousOutpoint.Index, err = binaryserializer.Uint32(r); err != nil {
			return nil, err
		}
		sigLen, err := binaryserializer.Uint32(r)
		if err != nil {
			return nil, err
		}
		in.SignatureScript = make([]byte, sigLen)
		if _, err := io.ReadFull(r, in.SignatureScript); err != nil {
			return nil, errors.WithStack(err)
		}
		if in.Sequence, err = binaryserializer.Uint32(r); err != nil {
			return nil, err
		}
		tx.Inputs[i] = in
	}

	outputCount, err := binaryserializer.Uint32(r)
	if err != nil {
		return nil, err
	}
	tx.Outputs = make([]*externalapi.StoredOutput, outputCount)
	for i := range tx.Outputs {
		index, err := binaryserializer.Uint32(r)
		if err != nil {
			return nil, err
		}
		out, err := readOutputBody(tx.ID, index, r)
		if err != nil {
			return nil, err
		}
		tx.Outputs[i] = out
	}

	if tx.LockTime, err = binaryserializer.Uint32(r); err != nil {
		return nil, err
	}
	return tx, nil
}
