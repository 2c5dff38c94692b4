package engine

import (
	"github.com/btcprune/utxovalidator/domain/consensus/consensusparams"
	"github.com/btcprune/utxovalidator/domain/consensus/model"
	"github.com/btcprune/utxovalidator/domain/consensus/model/externalapi"
	"github.com/btcprune/utxovalidator/domain/consensus/ruleerrors"
	"github.com/btcprune/utxovalidator/domain/consensus/utils/script"
	"github.com/btcprune/utxovalidator/domain/consensus/utils/subsidy"
)

// verifyTransactions is the one routine both the block-connect engine and
// the reorg-replay engine's re-verify path call, factored out to avoid
// duplicating the forward-verify logic. It applies txs to batch, performing
// every consensus check in block order, and returns the resulting undo
// delta.
func verifyTransactions(batch model.UTXOStoreBatch, txs []txView, height uint32, blockTime int64,
	params *consensusparams.Params) (externalapi.TxOutputChanges, error) {

	changes := externalapi.TxOutputChanges{}

	if len(txs) == 0 {
		return changes, ruleerrors.Verification(ruleerrors.ErrMissingTransactions, "block has no transactions")
	}

	enforceP2SH := blockTime >= params.BIP16EnforceTime
	sigOps := 0
	totalFees := externalapi.Amount(0)
	var coinbaseValue externalapi.Amount
	haveCoinbaseValue := false

	grandfathered := params.IsCheckpoint(height)
	if !grandfathered {
		for _, tx := range txs {
			has, err := batch.HasUnspentOutputs(tx.id, len(tx.outputs))
			if err != nil {
				return changes, err
			}
			if has {
				return changes, ruleerrors.Verification(ruleerrors.ErrBIP30Duplicate, "duplicate transaction id %s", tx.id)
			}
		}
	}

	for _, tx := range txs {
		if enforceP2SH && !tx.isCoinBase {
			sigOps += intrinsicSigOpCount(tx)
			if sigOps > params.MaxBlockSigOps {
				return changes, ruleerrors.Verification(ruleerrors.ErrTooManySigOps,
					"block exceeds max sigops of %d", params.MaxBlockSigOps)
			}
		}

		valueIn := externalapi.Amount(0)
		if !tx.isCoinBase {
			for i, in := range tx.inputs {
				prev, found, err := batch.GetOutput(in.previousOutpoint.TxID, in.previousOutpoint.Index)
				if err != nil {
					return changes, err
				}
				if !found {
					return changes, ruleerrors.Verification(ruleerrors.ErrMissingOutput,
						"missing or double-spent output %s", in.previousOutpoint)
				}

				if prev.IsCoinbase && height-prev.Height < params.SpendableCoinbaseDepth {
					return changes, ruleerrors.Verification(ruleerrors.ErrImmatureCoinbase,
						"tried to spend coinbase output %s at depth %d, need %d",
						in.previousOutpoint, height-prev.Height, params.SpendableCoinbaseDepth)
				}

				valueIn += prev.Value

				if enforceP2SH && script.IsPayToScriptHash(prev.Script) {
					if !script.Verify(in.signatureScript, prev.Script, tx.id, i) {
						return changes, ruleerrors.Verification(ruleerrors.ErrScript,
							"script verification failed for input spending %s", in.previousOutpoint)
					}
					sigOps += script.PreciseP2SHSigOpCount(in.signatureScript, prev.Script)
					if sigOps > params.MaxBlockSigOps {
						return changes, ruleerrors.Verification(ruleerrors.ErrTooManySigOps,
							"block exceeds max sigops of %d", params.MaxBlockSigOps)
					}
				}

				if err := batch.RemoveUnspentOutput(prev); err != nil {
					return changes, err
				}
				changes.Spent = append(changes.Spent, prev)
			}
		}

		valueOut := externalapi.Amount(0)
		for _, out := range tx.outputs {
			valueOut += out.value
			stored := &externalapi.StoredOutput{
				TxID:       tx.id,
				Index:      out.index,
				Value:      out.value,
				Script:     out.script,
				Height:     height,
				IsCoinbase: tx.isCoinBase,
			}
			if err := batch.AddUnspentOutput(stored); err != nil {
				return changes, err
			}
			changes.Created = append(changes.Created, stored)
		}

		if valueOut < 0 || valueOut > params.MaxMoney {
			return changes, ruleerrors.Verification(ruleerrors.ErrValueOutOfRange,
				"transaction %s output total %d out of range", tx.id, valueOut)
		}

		if tx.isCoinBase {
			coinbaseValue = valueOut
			haveCoinbaseValue = true
		} else {
			if valueIn < valueOut || valueIn > params.MaxMoney {
				return changes, ruleerrors.Verification(ruleerrors.ErrValueOutOfRange,
					"transaction %s value in %d out of range for value out %d", tx.id, valueIn, valueOut)
			}
			totalFees += valueIn - valueOut
		}
	}

	if totalFees > params.MaxMoney {
		return changes, ruleerrors.Verification(ruleerrors.ErrFeesOutOfRange, "total fees %d exceed max money", totalFees)
	}
	if haveCoinbaseValue {
		expectedSubsidy := subsidy.Calculate(height, params)
		if expectedSubsidy+totalFees < coinbaseValue {
			return changes, ruleerrors.Verification(ruleerrors.ErrFeesOutOfRange,
				"coinbase claims %d, only %d available (subsidy %d + fees %d)",
				coinbaseValue, expectedSubsidy+totalFees, expectedSubsidy, totalFees)
		}
	}

	return changes, nil
}

// intrinsicSigOpCount is a transaction's own accumulated sigop count from
// its inputs' signature scripts and outputs' locking scripts, matching
// btcd's CountSigOps before any P2SH-specific accounting is layered on.
func intrinsicSigOpCount(tx txView) int {
	count := 0
	for _, in := range tx.inputs {
		count += script.SigOpCount(in.signatureScript)
	}
	for _, out := range tx.outputs {
		count += script.SigOpCount(out.script)
	}
	return count
}
