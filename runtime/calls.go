// Package runtime composes every native engine into the single Dispatcher
// the executive needs, and decodes each Call's RLP-encoded Args into the
// typed parameter struct its target method expects (spec §6). Grounded on
// the teacher's own absence of a central registry: the teacher wires
// modules together in its node-construction code rather than through a
// generic reflection-based router, so this dispatcher follows suit with an
// explicit switch over (module, method) instead of a reflective call table.
package runtime

import (
	"math/big"

	"stardust/core/types"
	"stardust/native/affiliate"
	"stardust/native/arbitration"
	"stardust/native/evidence"
	"stardust/native/pricing"
	"stardust/native/social"
	"stardust/native/storagecoord"
)

// Escrow call args.
type escrowLockArgs struct {
	EscrowID []byte
	Amount   *big.Int
}
type escrowReleaseArgs struct {
	EscrowID    []byte
	Beneficiary types.AccountID
}
type escrowRefundArgs struct {
	EscrowID []byte
}

// Credit call args.
type creditAccountArgs struct {
	Account types.AccountID
}
type creditSwapCompletedArgs struct {
	Account             types.AccountID
	ResponseTimeSeconds int64
}

// Pricing call args.
type pricingSubmitProofArgs struct {
	Proof pricing.Proof
}
type pricingAuthorizeSignerArgs struct {
	Signer types.AccountID
}

// Maker call args.
type makerLockDepositArgs struct {
	Amount       *big.Int
	InfoDeadline types.BlockNumber
}
type makerSubmitInfoArgs struct {
	ID                uint64
	PublicCID         string
	PrivateCID        string
	FeeBps            uint32
	MinAmount         *big.Int
	Gateway           string
	PID               string
	Key               string
	FirstPurchasePool *big.Int
	ReviewDeadline    types.BlockNumber
}
type makerUpdateInfoArgs struct {
	ID         uint64
	PublicCID  string
	PrivateCID string
	FeeBps     uint32
	MinAmount  *big.Int
}
type makerIDArgs struct {
	ID uint64
}
type makerRejectArgs struct {
	ID       uint64
	SlashBps uint32
}

// OTC order call args.
type otcCreateOrderArgs struct {
	MakerID    uint64
	DustAmount *big.Int
	USDTAmount *big.Int
	ExpireAt   types.BlockNumber
}
type otcCreateFirstPurchaseArgs struct {
	ExpireAt types.BlockNumber
}
type otcIDArgs struct {
	ID uint64
}

// Bridge call args.
type bridgeSwapArgs struct {
	DustAmount  *big.Int
	TronAddress string
}
type bridgeIDArgs struct {
	ID uint64
}
type bridgeMakerSwapArgs struct {
	MakerID     uint64
	DustAmount  *big.Int
	USDTAddress string
}
type bridgeMarkCompleteArgs struct {
	ID          uint64
	Trc20TxHash string
}

// Arbitration call args.
type arbitrationOpenCaseArgs struct {
	Defendant    types.AccountID
	Tag          arbitration.ModuleTag
	LinkedID     uint64
	EvidenceCIDs []string
	FeeAmount    *big.Int
}
type arbitrationResolveArgs struct {
	CaseID     uint64
	Outcome    arbitration.DecisionOutcome
	PartialBps uint32
}

// Evidence call args.
type evidenceCommitArgs struct {
	Namespace string
	TargetID  uint64
	CIDs      []string
	Memo      string
}
type evidenceCommitHashArgs struct {
	Namespace string
	SubjectID uint64
	Commit    [32]byte
	Memo      string
}
type evidenceLinkArgs struct {
	Namespace  string
	TargetID   uint64
	EvidenceID uint64
}
type evidenceStoreContentArgs struct {
	Namespace        string
	SubjectID        uint64
	CID              string
	EncryptionMethod string
	AccessPolicy     evidence.AccessPolicy
	EncryptedKeys    []evidence.EncryptedKeyEntry
}
type evidenceSetPubKeyArgs struct {
	PubKey []byte
}
type evidenceRotateKeysArgs struct {
	ContentID        uint64
	NewCID           string
	NewEncryptedKeys []evidence.EncryptedKeyEntry
}

// Storage-coordinator call args.
type storageRequestPinArgs struct {
	CIDHash  [32]byte
	Size     uint64
	Replicas uint32
	Price    *big.Int
}
type storageRequestPinForDeceasedArgs struct {
	SubjectID uint64
	CIDHash   [32]byte
	Size      uint64
	Replicas  uint32
	Price     *big.Int
	Period    types.BlockNumber
}
type storageCIDHashArgs struct {
	CIDHash [32]byte
}
type storageMarkPinFailedArgs struct {
	CIDHash [32]byte
	Code    string
}
type storageJoinOperatorArgs struct {
	PeerID       string
	CapacityGiB  uint64
	EndpointHash [32]byte
	Cert         []byte
	Bond         *big.Int
}
type storageSetOperatorStatusArgs struct {
	Operator types.AccountID
	Status   storagecoord.OperatorStatus
}
type storageSlashOperatorArgs struct {
	Operator types.AccountID
	Amount   *big.Int
}
type storageSetParamsArgs struct {
	Params storagecoord.Params
}

// Affiliate call args.
type affiliateBindSponsorArgs struct {
	Sponsor types.AccountID
}
type affiliatePurchaseArgs struct {
	Level affiliate.MembershipLevel
}
type affiliateSettleWeeklyArgs struct {
	Now types.BlockNumber
}
type affiliateSetParamsArgs struct {
	Params affiliate.Params
}

// Social call args.
type socialTargetArgs struct {
	Target social.Target
}
type socialBatchArgs struct {
	Targets []social.Target
}
type socialAdminRemoveArgs struct {
	Target   social.Target
	Follower types.AccountID
}
type socialNotifArgs struct {
	Target  social.Target
	Enabled bool
}
