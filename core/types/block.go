package types

import (
	"crypto/sha256"
	"encoding/json"
)

// BlockNumber is the runtime's unsigned 32-bit block height (spec §3).
type BlockNumber uint32

// BlockHeader carries the metadata and state commitments for a block.
// BlockNumber is a uint32 per the runtime's numbering scheme (spec §3).
type BlockHeader struct {
	Number    BlockNumber `json:"number"`
	Timestamp int64       `json:"timestamp"`
	ParentHash []byte     `json:"parentHash"`
	StateRoot []byte      `json:"stateRoot"`
	ExtrinsicsRoot []byte `json:"extrinsicsRoot"`
	Author    AccountID   `json:"author"`
}

// Block is a header paired with its ordered extrinsics.
type Block struct {
	Header     *BlockHeader
	Extrinsics []*Transaction
}

// NewBlock constructs a block from a header and its extrinsics.
func NewBlock(header *BlockHeader, extrinsics []*Transaction) *Block {
	return &Block{Header: header, Extrinsics: extrinsics}
}

// Hash returns the deterministic digest identifying the header.
func (h *BlockHeader) Hash() ([]byte, error) {
	b, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	hash := sha256.Sum256(b)
	return hash[:], nil
}
