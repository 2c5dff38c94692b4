package externalapi

import "github.com/btcsuite/btcd/btcutil"

// Amount is a count of satoshis, the same fixed-point representation
// btcutil and the rest of the ecosystem use for monetary values.
type Amount = btcutil.Amount
