package externalapi

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Hash is the 32-byte double-SHA256 identifier used throughout this module
// for transaction ids and block hashes. It is the same type the rest of the
// ecosystem (btcd, lnd) uses, so hashes read out of this package can be
// handed straight to a chainhash-aware component without conversion.
type Hash = chainhash.Hash

// NewHashFromStr parses a big-endian hex string into a Hash.
func NewHashFromStr(s string) (*Hash, error) {
	return chainhash.NewHashFromStr(s)
}
