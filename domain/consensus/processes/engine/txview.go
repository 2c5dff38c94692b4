package engine

import (
	"github.com/btcprune/utxovalidator/domain/consensus/model/externalapi"
	"github.com/btcprune/utxovalidator/domain/consensus/utils/consensushashing"
)

// txView is the normalized shape verifyTransactions walks, so the same
// routine can verify either a freshly-received Transaction or an archived
// StoredTransaction without caring which one it was handed.
type txView struct {
	id         externalapi.Hash
	isCoinBase bool
	inputs     []inputView
	outputs    []outputView
}

type inputView struct {
	previousOutpoint externalapi.OutPoint
	signatureScript  []byte
}

type outputView struct {
	index  uint32
	value  externalapi.Amount
	script []byte
}

func newTxViewsFromBlock(block *externalapi.Block) []txView {
	views := make([]txView, len(block.Transactions))
	for i, tx := range block.Transactions {
		views[i] = newTxViewFromTransaction(tx)
	}
	return views
}

func newTxViewFromTransaction(tx *externalapi.Transaction) txView {
	view := txView{
		id:         consensushashing.TransactionID(tx),
		isCoinBase: tx.IsCoinBase(),
		inputs:     make([]inputView, len(tx.Inputs)),
		outputs:    make([]outputView, len(tx.Outputs)),
	}
	for i, in := range tx.Inputs {
		view.inputs[i] = inputView{previousOutpoint: in.PreviousOutpoint, signatureScript: in.SignatureScript}
	}
	for i, out := range tx.Outputs {
		view.outputs[i] = outputView{index: uint32(i), value: out.Value, script: out.ScriptPubKey}
	}
	return view
}

func newTxViewsFromStored(txs []*externalapi.StoredTransaction) []txView {
	views := make([]txView, len(txs))
	for i, tx := range txs {
		views[i] = newTxViewFromStored(tx)
	}
	return views
}

func newTxViewFromStored(tx *externalapi.StoredTransaction) txView {
	view := txView{
		id:         tx.ID,
		isCoinBase: tx.IsCoinBase(),
		inputs:     make([]inputView, len(tx.Inputs)),
		outputs:    make([]outputView, len(tx.Outputs)),
	}
	for i, in := range tx.Inputs {
		view.inputs[i] = inputView{previousOutpoint: in.PreviousOutpoint, signatureScript: in.SignatureScript}
	}
	for i, out := range tx.Outputs {
		view.outputs[i] = outputView{index: out.Index, value: out.Value, script: out.Script}
	}
	return view
}
