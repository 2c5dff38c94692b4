package externalapi

// StoredOutput is the persistent form of a transaction output: everything
// the UTXO store keeps once the connect engine has accepted it into the
// unspent set, and everything the disconnect engine needs to restore it
// bit-for-bit on reorg.
type StoredOutput struct {
	TxID       Hash
	Index      uint32
	Value      Amount
	Script     []byte
	Height     uint32
	IsCoinbase bool
}

// OutPoint returns the key StoredOutput is addressed by in the UTXO store.
func (o *StoredOutput) OutPoint() OutPoint {
	return OutPoint{TxID: o.TxID, Index: o.Index}
}

// Equal reports whether two stored outputs are bit-for-bit identical,
// including the fields (height, is-coinbase) that only the store needs.
func (o *StoredOutput) Equal(other *StoredOutput) bool {
	if o == nil || other == nil {
		return o == other
	}
	if o.TxID != other.TxID || o.Index != other.Index || o.Value != other.Value ||
		o.Height != other.Height || o.IsCoinbase != other.IsCoinbase {
		return false
	}
	return bytesEqual(o.Script, other.Script)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// StoredTransaction is a transaction as archived in an undoable block's
// full-replay form: the same inputs and outputs a freshly-received
// Transaction would carry, except each output also carries the creating
// block's height. The re-verify path in the reorg engine takes the height
// from the StoredBlock it replays, not from these outputs.
type StoredTransaction struct {
	ID       Hash
	Version  int32
	Inputs   []*TransactionInput
	Outputs  []*StoredOutput
	LockTime uint32
}

// IsCoinBase reports whether the stored transaction is a coinbase,
// following the same convention as Transaction.IsCoinBase.
func (tx *StoredTransaction) IsCoinBase() bool {
	if len(tx.Inputs) != 1 {
		return false
	}
	prevOut := &tx.Inputs[0].PreviousOutpoint
	return prevOut.Index == coinbaseIndex && prevOut.TxID == (Hash{})
}
