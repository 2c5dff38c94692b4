// Package subsidy computes the block reward schedule: an integer
// right-shift of the initial subsidy by the number of halvings a height has
// passed through.
package subsidy

import (
	"github.com/btcprune/utxovalidator/domain/consensus/consensusparams"
	"github.com/btcprune/utxovalidator/domain/consensus/model/externalapi"
)

// Calculate returns the coinbase subsidy payable at height, per
// params.InitialSubsidy >> (height / params.SubsidyHalvingInterval).
//
// bitcoinj's getBlockInflation shifts an arbitrary-precision integer, which
// never underflows; a fixed-width Amount does not shift portably past 63
// bits, so once the halving count reaches the width of Amount the subsidy
// saturates to zero rather than wrapping.
func Calculate(height uint32, params *consensusparams.Params) externalapi.Amount {
	halvings := height / params.SubsidyHalvingInterval
	if halvings >= 64 {
		return 0
	}
	return params.InitialSubsidy >> halvings
}
