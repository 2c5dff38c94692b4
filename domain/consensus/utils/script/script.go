// Package script wraps the parts of github.com/btcsuite/btcd/txscript the
// connect engine needs: Pay-to-Script-Hash template detection and sigop
// counting for BIP16 accounting. Script interpretation itself (running the
// unlocking script against the locking script) is out of scope and is left
// as the opaque Verify hook below.
package script

import (
	"github.com/btcsuite/btcd/txscript"
)

// IsPayToScriptHash reports whether pkScript follows the standard P2SH
// template.
func IsPayToScriptHash(pkScript []byte) bool {
	return txscript.IsPayToScriptHash(pkScript)
}

// SigOpCount returns pkScript's accumulated intrinsic sigop count. Called
// unconditionally on every non-coinbase transaction's outputs once BIP16
// enforcement has activated, matching btcd's CountSigOps.
func SigOpCount(pkScript []byte) int {
	return txscript.GetSigOpCount(pkScript)
}

// PreciseP2SHSigOpCount returns the sigop count contributed by a P2SH
// input: sigScript must be a signature-push-only script whose final push is
// the redeem script; the redeem script's own sigops are counted precisely
// against the actual pushed data, matching btcd's CountP2SHSigOps.
func PreciseP2SHSigOpCount(sigScript, pkScript []byte) int {
	return txscript.GetPreciseSigOpCount(sigScript, pkScript, true)
}

// Verify is the opaque, pure script-verification collaborator: a real
// interpreter would check that sigScript correctly satisfies pkScript for
// the given transaction and input index. This hook always reports success;
// substituting a real verifier here requires no change to the engine.
func Verify(sigScript, pkScript []byte, tx interface{}, inputIndex int) bool {
	return true
}
