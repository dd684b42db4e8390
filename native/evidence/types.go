// Package evidence implements the append-only evidence ledger and its
// paired private-content sub-ledger (spec §4.7).
package evidence

import (
	"stardust/core/types"
)

// Record is a single append-only evidence entry. ContentCID references an
// off-chain IPFS JSON bundle enumerating the constituent media CIDs; the
// flat per-media CID lists supplied at commit time are validated but not
// stored (resolved against the prior-language implementation, which never
// shipped its own planned multi-CID on-chain packing).
type Record struct {
	ID         uint64            `json:"id"`
	Namespace  string            `json:"namespace"`
	TargetID   uint64            `json:"targetId"`
	ContentCID string            `json:"contentCid"`
	Memo       string            `json:"memo,omitempty"`
	Creator    types.AccountID   `json:"creator"`
	CreatedAt  types.BlockNumber `json:"createdAt"`
	LinkedTo   []uint64          `json:"linkedTo,omitempty"`
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.LinkedTo = append([]uint64(nil), r.LinkedTo...)
	return &out
}

// CommitHashRecord is the commitment-only entry stored under (ns, subjectID)
// by commit_hash: the preimage is never revealed on chain.
type CommitHashRecord struct {
	Namespace string            `json:"namespace"`
	SubjectID uint64            `json:"subjectId"`
	Commit    [32]byte          `json:"commit"`
	Memo      string            `json:"memo,omitempty"`
	Creator   types.AccountID   `json:"creator"`
	CreatedAt types.BlockNumber `json:"createdAt"`
}

// AccessPolicyKind tags the variant of AccessPolicy in force for a private
// content record.
type AccessPolicyKind uint8

const (
	AccessOwnerOnly AccessPolicyKind = iota
	AccessSharedWith
	AccessFamilyMembers
	AccessTimeboxed
	AccessGovernanceControlled
	AccessRoleBased
)

// AccessPolicy gates CanAccess for a PrivateContent record. Only the fields
// relevant to Kind are consulted.
type AccessPolicy struct {
	Kind              AccessPolicyKind  `json:"kind"`
	SharedWith        []types.AccountID `json:"sharedWith,omitempty"`
	FamilyDeceasedID  uint64            `json:"familyDeceasedId,omitempty"`
	TimeboxedUsers    []types.AccountID `json:"timeboxedUsers,omitempty"`
	TimeboxedExpireAt types.BlockNumber `json:"timeboxedExpireAt,omitempty"`
	Role              string            `json:"role,omitempty"`
}

// EncryptedKeyEntry is one recipient's wrapped content key.
type EncryptedKeyEntry struct {
	Account types.AccountID `json:"account"`
	Bundle  []byte          `json:"bundle"`
}

// PrivateContent is an encrypted-content record keyed by ContentID.
type PrivateContent struct {
	ContentID        uint64              `json:"contentId"`
	Namespace        string              `json:"namespace"`
	SubjectID        uint64              `json:"subjectId"`
	CID              string              `json:"cid"`
	ContentHash      [32]byte            `json:"contentHash"`
	EncryptionMethod string              `json:"encryptionMethod"`
	Creator          types.AccountID     `json:"creator"`
	AccessPolicy     AccessPolicy        `json:"accessPolicy"`
	EncryptedKeys    []EncryptedKeyEntry `json:"encryptedKeys"`
	CreatedAt        types.BlockNumber   `json:"createdAt"`
	UpdatedAt        types.BlockNumber   `json:"updatedAt"`
}

// Clone returns a deep copy of the private content record.
func (p *PrivateContent) Clone() *PrivateContent {
	if p == nil {
		return nil
	}
	out := *p
	out.AccessPolicy.SharedWith = append([]types.AccountID(nil), p.AccessPolicy.SharedWith...)
	out.AccessPolicy.TimeboxedUsers = append([]types.AccountID(nil), p.AccessPolicy.TimeboxedUsers...)
	out.EncryptedKeys = append([]EncryptedKeyEntry(nil), p.EncryptedKeys...)
	return &out
}

// KeyRotationRecord is one entry in a content's rotation history.
type KeyRotationRecord struct {
	Round       uint32            `json:"round"`
	ContentHash [32]byte          `json:"contentHash"`
	RotatedAt   types.BlockNumber `json:"rotatedAt"`
}

// windowState is the per-account sliding-window rate-limit counter.
type windowState struct {
	WindowStart types.BlockNumber `json:"windowStart"`
	Count       uint32            `json:"count"`
}

// Params bounds the ledger's rate limiting and input validation.
type Params struct {
	WindowBlocks types.BlockNumber
	MaxPerWindow uint32
	MaxCIDLen    int
	MaxPerTarget uint32
}

// DefaultParams mirrors the teacher's conservative bounded-window idiom
// used elsewhere for per-account quotas (native/common.Quota).
func DefaultParams() Params {
	return Params{
		WindowBlocks: 600,
		MaxPerWindow: 20,
		MaxCIDLen:    256,
		MaxPerTarget: 1000,
	}
}
