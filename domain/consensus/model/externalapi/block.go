package externalapi

// BlockHeader carries the fields needed to identify a block and link it to
// its parent. Difficulty/timestamp validation and header-chain selection
// are an external collaborator's job; this module only needs enough of the
// header to hash it and to read its height's position in the chain from
// the caller.
type BlockHeader struct {
	Version    int32
	PrevBlock  Hash
	MerkleRoot Hash
	Timestamp  int64
	Bits       uint32
	Nonce      uint32
}

// Block is a full block: a header plus its ordered transaction list, the
// first of which must be a coinbase transaction.
type Block struct {
	Header       *BlockHeader
	Transactions []*Transaction
}
