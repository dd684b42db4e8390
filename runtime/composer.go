package runtime

import (
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/time/rate"

	"stardust/core/events"
	"stardust/core/executive"
	"stardust/core/state"
	"stardust/core/types"
	"stardust/native/affiliate"
	"stardust/native/arbitration"
	"stardust/native/bridge"
	"stardust/native/credit"
	"stardust/native/escrow"
	"stardust/native/evidence"
	"stardust/native/govorigin"
	"stardust/native/maker"
	"stardust/native/otcorder"
	"stardust/native/pricing"
	"stardust/native/registry"
	"stardust/native/social"
	"stardust/native/storagecoord"
)

// Composer owns every native engine and implements executive.Dispatcher by
// routing a decoded Call to the engine/method it names. It is the
// counterpart of the teacher's node-construction wiring code: no module
// here imports another directly, so this is the one place cross-module
// ports (escrowPort, pricingPort, DecisionApplier, ...) get connected.
type Composer struct {
	mgr *state.Manager

	Escrow       *escrow.Engine
	Credit       *credit.Engine
	Pricing      *pricing.Engine
	Maker        *maker.Engine
	OTCOrder     *otcorder.Engine
	Bridge       *bridge.Engine
	Arbitration  *arbitration.Engine
	Evidence     *evidence.Engine
	StorageCoord *storagecoord.Engine
	Affiliate    *affiliate.Engine
	Social       *social.Engine
	Registry     *registry.Engine
	Pause        *govorigin.PauseStore

	treasury types.AccountID
	pool     types.AccountID
	height   types.BlockNumber
	log      *slog.Logger
}

// New builds every native engine over mgr and wires their cross-module
// ports together. treasury and pool are the protocol-owned accounts that
// collect storage-coordinator billing revenue and affiliate distribution
// residue respectively.
func New(mgr *state.Manager, treasury, pool types.AccountID, emitter events.Emitter, log *slog.Logger) *Composer {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	if log == nil {
		log = slog.Default()
	}
	c := &Composer{
		mgr:          mgr,
		log:          log,
		Escrow:       escrow.NewEngine(),
		Credit:       credit.NewEngine(),
		Pricing:      pricing.NewEngine(),
		Maker:        maker.NewEngine(),
		OTCOrder:     otcorder.NewEngine(),
		Bridge:       bridge.NewEngine(),
		Arbitration:  arbitration.NewEngine(),
		Evidence:     evidence.NewEngine(),
		StorageCoord: storagecoord.NewEngine(),
		Affiliate:    affiliate.NewEngine(),
		Social:       social.NewEngine(),
		Registry:     registry.NewEngine(),
		treasury:     treasury,
		pool:         pool,
	}
	c.Pause = govorigin.NewPauseStore(mgr)

	for _, setState := range []func(){
		func() { c.Escrow.SetState(mgr) },
		func() { c.Credit.SetState(mgr) },
		func() { c.Pricing.SetState(mgr) },
		func() { c.Maker.SetState(mgr) },
		func() { c.OTCOrder.SetState(mgr) },
		func() { c.Bridge.SetState(mgr) },
		func() { c.Arbitration.SetState(mgr) },
		func() { c.Evidence.SetState(mgr) },
		func() { c.StorageCoord.SetState(mgr) },
		func() { c.Affiliate.SetState(mgr) },
		func() { c.Social.SetState(mgr) },
		func() { c.Registry.SetState(mgr) },
	} {
		setState()
	}

	c.Escrow.SetEmitter(emitter)
	c.Credit.SetEmitter(emitter)
	c.Pricing.SetEmitter(emitter)
	c.Maker.SetEmitter(emitter)
	c.OTCOrder.SetEmitter(emitter)
	c.Bridge.SetEmitter(emitter)
	c.Arbitration.SetEmitter(emitter)
	c.Evidence.SetEmitter(emitter)
	c.StorageCoord.SetEmitter(emitter)
	c.Affiliate.SetEmitter(emitter)
	c.Social.SetEmitter(emitter)
	c.Registry.SetEmitter(emitter)

	// Cross-module ports: escrow/maker/pricing/credit feed otcorder and
	// bridge (spec §4.3-§4.4).
	c.OTCOrder.SetEscrow(c.Escrow)
	c.OTCOrder.SetMaker(c.Maker)
	c.OTCOrder.SetPricing(c.Pricing)
	c.OTCOrder.SetCredit(c.Credit)

	c.Bridge.SetEscrow(c.Escrow)
	c.Bridge.SetMaker(c.Maker)
	c.Bridge.SetPricing(c.Pricing)
	c.Bridge.SetCredit(c.Credit)

	c.Arbitration.SetEscrow(c.Escrow)
	c.Arbitration.SetFeeRecipient(treasury)
	c.Arbitration.RegisterApplier(arbitration.ModuleTagOTCOrder, func(linkedID uint64, d arbitration.Decision) error {
		return c.OTCOrder.ApplyArbitrationDecision(linkedID, otcorder.Decision{Outcome: otcorder.DecisionOutcome(d.Outcome), PartialBps: d.PartialBps})
	})
	c.Arbitration.RegisterApplier(arbitration.ModuleTagBridge, func(linkedID uint64, d arbitration.Decision) error {
		return c.Bridge.ApplyArbitrationDecision(linkedID, bridge.Decision{Outcome: bridge.DecisionOutcome(d.Outcome), PartialBps: d.PartialBps})
	})

	c.Affiliate.SetPricing(c.Pricing)
	c.Affiliate.SetPool(pool)

	c.Evidence.SetRolePort(rolePortAdapter{c.Registry})
	c.Evidence.SetFamilyPort(familyPortAdapter{c.Registry})

	c.StorageCoord.SetTreasury(treasury)
	c.StorageCoord.SetSubjectOwner(subjectOwnerAdapter{c.Registry})
	c.StorageCoord.SetCIDResolver(cidResolverAdapter{c.Registry})
	c.StorageCoord.SetCluster(newLocalPinCluster())
	c.StorageCoord.SetPauseView(c.Pause)
	c.StorageCoord.SetPinPostLimiter(rate.NewLimiter(rate.Limit(50), 100))

	c.Social.SetTargetValidator(targetValidatorAdapter{c.Registry})

	return c
}

// Dispatch implements executive.Dispatcher.
func (c *Composer) Dispatch(origin types.AccountID, call types.Call) error {
	switch call.Module {
	case types.ModuleEscrow:
		return c.dispatchEscrow(origin, call)
	case types.ModuleCredit:
		return c.dispatchCredit(call)
	case types.ModulePricing:
		return c.dispatchPricing(call)
	case types.ModuleMaker:
		return c.dispatchMaker(origin, call)
	case types.ModuleOTCOrder:
		return c.dispatchOTCOrder(origin, call)
	case types.ModuleBridge:
		return c.dispatchBridge(origin, call)
	case types.ModuleArbitration:
		return c.dispatchArbitration(origin, call)
	case types.ModuleEvidence:
		return c.dispatchEvidence(origin, call)
	case types.ModuleStorageCoord:
		return c.dispatchStorageCoord(origin, call)
	case types.ModuleAffiliate:
		return c.dispatchAffiliate(origin, call)
	case types.ModuleSocial:
		return c.dispatchSocial(origin, call)
	case types.ModuleCouncil, types.ModuleTechnicalCommittee:
		return c.dispatchGovernance(origin, call)
	default:
		return fmt.Errorf("runtime: unknown call module %d", call.Module)
	}
}

func decode(args []byte, out interface{}) error {
	if len(args) == 0 {
		return nil
	}
	return rlp.DecodeBytes(args, out)
}

func (c *Composer) dispatchEscrow(origin types.AccountID, call types.Call) error {
	switch call.Method {
	case "LockFrom":
		var a escrowLockArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		return c.Escrow.LockFrom(origin, a.EscrowID, a.Amount)
	case "ReleaseAll":
		var a escrowReleaseArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		return c.Escrow.ReleaseAll(a.EscrowID, a.Beneficiary)
	case "RefundAll":
		var a escrowRefundArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		return c.Escrow.RefundAll(a.EscrowID, origin)
	default:
		return fmt.Errorf("runtime: escrow: unknown method %q", call.Method)
	}
}

func (c *Composer) dispatchCredit(call types.Call) error {
	switch call.Method {
	case "ReportOrderCompleted":
		var a creditAccountArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		return c.Credit.ReportOrderCompleted(a.Account)
	case "ReportBuyerNeglect":
		var a creditAccountArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		return c.Credit.ReportBuyerNeglect(a.Account)
	case "ReportDisputeLost":
		var a creditAccountArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		return c.Credit.ReportDisputeLost(a.Account)
	case "ReportSwapTimeout":
		var a creditAccountArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		return c.Credit.ReportSwapTimeout(a.Account)
	case "ReportSwapCompleted":
		var a creditSwapCompletedArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		return c.Credit.ReportSwapCompleted(a.Account, a.ResponseTimeSeconds)
	default:
		return fmt.Errorf("runtime: credit: unknown method %q", call.Method)
	}
}

func (c *Composer) dispatchPricing(call types.Call) error {
	switch call.Method {
	case "SubmitPriceProof":
		var a pricingSubmitProofArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		return c.Pricing.SubmitPriceProof(&a.Proof)
	case "AuthorizeSigner":
		var a pricingAuthorizeSignerArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		c.Pricing.AuthorizeSigner(a.Signer)
		return nil
	default:
		return fmt.Errorf("runtime: pricing: unknown method %q", call.Method)
	}
}

func (c *Composer) dispatchMaker(origin types.AccountID, call types.Call) error {
	switch call.Method {
	case "LockDeposit":
		var a makerLockDepositArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		_, err := c.Maker.LockDeposit(origin, a.Amount, a.InfoDeadline)
		return err
	case "SubmitInfo":
		var a makerSubmitInfoArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		_, err := c.Maker.SubmitInfo(origin, a.ID, a.PublicCID, a.PrivateCID, a.FeeBps, a.MinAmount, a.Gateway, a.PID, a.Key, a.FirstPurchasePool, a.ReviewDeadline)
		return err
	case "UpdateInfo":
		var a makerUpdateInfoArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		_, err := c.Maker.UpdateInfo(origin, a.ID, a.PublicCID, a.PrivateCID, a.FeeBps, a.MinAmount)
		return err
	case "Cancel":
		var a makerIDArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		return c.Maker.Cancel(origin, a.ID)
	case "Approve":
		var a makerIDArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		_, err := c.Maker.Approve(a.ID)
		return err
	case "Reject":
		var a makerRejectArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		return c.Maker.Reject(a.ID, a.SlashBps)
	default:
		return fmt.Errorf("runtime: maker: unknown method %q", call.Method)
	}
}

func (c *Composer) dispatchOTCOrder(origin types.AccountID, call types.Call) error {
	switch call.Method {
	case "CreateOrder":
		var a otcCreateOrderArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		_, err := c.OTCOrder.CreateOrder(origin, a.MakerID, a.DustAmount, a.USDTAmount, a.ExpireAt)
		return err
	case "CreateFirstPurchaseOrder":
		var a otcCreateFirstPurchaseArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		_, err := c.OTCOrder.CreateFirstPurchaseOrder(origin, a.ExpireAt)
		return err
	case "Pay":
		var a otcIDArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		_, err := c.OTCOrder.Pay(origin, a.ID)
		return err
	case "Release":
		var a otcIDArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		_, err := c.OTCOrder.Release(a.ID)
		return err
	case "CancelByBuyer":
		var a otcIDArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		_, err := c.OTCOrder.CancelByBuyer(origin, a.ID)
		return err
	case "Dispute":
		var a otcIDArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		_, err := c.OTCOrder.Dispute(a.ID)
		return err
	default:
		return fmt.Errorf("runtime: otcorder: unknown method %q", call.Method)
	}
}

func (c *Composer) dispatchBridge(origin types.AccountID, call types.Call) error {
	switch call.Method {
	case "Swap":
		var a bridgeSwapArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		_, err := c.Bridge.Swap(origin, a.DustAmount, a.TronAddress)
		return err
	case "CompleteSwap":
		var a bridgeIDArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		_, err := c.Bridge.CompleteSwap(a.ID)
		return err
	case "MakerSwap":
		var a bridgeMakerSwapArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		_, err := c.Bridge.MakerSwap(origin, a.MakerID, a.DustAmount, a.USDTAddress)
		return err
	case "MarkSwapComplete":
		var a bridgeMarkCompleteArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		_, err := c.Bridge.MarkSwapComplete(origin, a.ID, a.Trc20TxHash)
		return err
	case "ReportSwap":
		var a bridgeIDArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		_, err := c.Bridge.ReportSwap(origin, a.ID)
		return err
	default:
		return fmt.Errorf("runtime: bridge: unknown method %q", call.Method)
	}
}

func (c *Composer) dispatchArbitration(origin types.AccountID, call types.Call) error {
	switch call.Method {
	case "OpenCase":
		var a arbitrationOpenCaseArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		_, err := c.Arbitration.OpenCase(origin, a.Defendant, a.Tag, a.LinkedID, a.EvidenceCIDs, a.FeeAmount)
		return err
	case "Resolve":
		var a arbitrationResolveArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		decision := arbitration.Decision{Outcome: a.Outcome, PartialBps: a.PartialBps}
		_, err := c.Arbitration.Resolve(a.CaseID, decision)
		return err
	default:
		return fmt.Errorf("runtime: arbitration: unknown method %q", call.Method)
	}
}

func (c *Composer) dispatchEvidence(origin types.AccountID, call types.Call) error {
	switch call.Method {
	case "Commit":
		var a evidenceCommitArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		_, err := c.Evidence.Commit(origin, a.Namespace, a.TargetID, a.CIDs, a.Memo)
		return err
	case "CommitHash":
		var a evidenceCommitHashArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		_, err := c.Evidence.CommitHash(origin, a.Namespace, a.SubjectID, a.Commit, a.Memo)
		return err
	case "Link":
		var a evidenceLinkArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		return c.Evidence.Link(origin, a.Namespace, a.TargetID, a.EvidenceID)
	case "Unlink":
		var a evidenceLinkArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		return c.Evidence.Unlink(origin, a.Namespace, a.TargetID, a.EvidenceID)
	case "StoreContent":
		var a evidenceStoreContentArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		_, err := c.Evidence.StoreContent(origin, a.Namespace, a.SubjectID, a.CID, a.EncryptionMethod, a.AccessPolicy, a.EncryptedKeys)
		return err
	case "SetUserPublicKey":
		var a evidenceSetPubKeyArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		return c.Evidence.SetUserPublicKey(origin, a.PubKey)
	case "RotateContentKeys":
		var a evidenceRotateKeysArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		_, err := c.Evidence.RotateContentKeys(origin, a.ContentID, a.NewCID, a.NewEncryptedKeys)
		return err
	default:
		return fmt.Errorf("runtime: evidence: unknown method %q", call.Method)
	}
}

func (c *Composer) dispatchStorageCoord(origin types.AccountID, call types.Call) error {
	switch call.Method {
	case "RequestPin":
		var a storageRequestPinArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		_, err := c.StorageCoord.RequestPin(origin, a.CIDHash, a.Size, a.Replicas, a.Price)
		return err
	case "RequestPinForDeceased":
		var a storageRequestPinForDeceasedArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		_, err := c.StorageCoord.RequestPinForDeceased(origin, a.SubjectID, a.CIDHash, a.Size, a.Replicas, a.Price, a.Period)
		return err
	case "MarkPinned":
		var a storageCIDHashArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		_, err := c.StorageCoord.MarkPinned(origin, a.CIDHash)
		return err
	case "MarkPinFailed":
		var a storageMarkPinFailedArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		return c.StorageCoord.MarkPinFailed(origin, a.CIDHash, a.Code)
	case "JoinOperator":
		var a storageJoinOperatorArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		_, err := c.StorageCoord.JoinOperator(origin, a.PeerID, a.CapacityGiB, a.EndpointHash, a.Cert, a.Bond)
		return err
	case "LeaveOperator":
		return c.StorageCoord.LeaveOperator(origin)
	case "SetOperatorStatus":
		var a storageSetOperatorStatusArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		return c.StorageCoord.SetOperatorStatus(a.Operator, a.Status)
	case "SlashOperator":
		var a storageSlashOperatorArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		return c.StorageCoord.SlashOperator(a.Operator, a.Amount)
	case "SetParams":
		var a storageSetParamsArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		return c.StorageCoord.SetParams(a.Params)
	default:
		return fmt.Errorf("runtime: storagecoord: unknown method %q", call.Method)
	}
}

func (c *Composer) dispatchAffiliate(origin types.AccountID, call types.Call) error {
	switch call.Method {
	case "BindSponsor":
		var a affiliateBindSponsorArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		return c.Affiliate.BindSponsor(origin, a.Sponsor)
	case "PurchaseMembership":
		var a affiliatePurchaseArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		_, err := c.Affiliate.PurchaseMembership(origin, a.Level)
		return err
	case "UpgradeToY10":
		_, err := c.Affiliate.UpgradeToY10(origin)
		return err
	case "SettleWeekly":
		var a affiliateSettleWeeklyArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		return c.Affiliate.SettleWeekly(origin, a.Now)
	case "SetParams":
		var a affiliateSetParamsArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		return c.Affiliate.SetParams(a.Params)
	default:
		return fmt.Errorf("runtime: affiliate: unknown method %q", call.Method)
	}
}

func (c *Composer) dispatchSocial(origin types.AccountID, call types.Call) error {
	switch call.Method {
	case "Follow":
		var a socialTargetArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		return c.Social.Follow(origin, a.Target)
	case "Unfollow":
		var a socialTargetArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		return c.Social.Unfollow(origin, a.Target)
	case "BatchFollow":
		var a socialBatchArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		return c.Social.BatchFollow(origin, a.Targets)
	case "BatchUnfollow":
		var a socialBatchArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		return c.Social.BatchUnfollow(origin, a.Targets)
	case "RemoveFollower":
		var a socialAdminRemoveArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		return c.Social.RemoveFollower(origin, a.Target, a.Follower)
	case "UpdateNotificationSetting":
		var a socialNotifArgs
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		return c.Social.UpdateNotificationSetting(origin, a.Target, a.Enabled)
	default:
		return fmt.Errorf("runtime: social: unknown method %q", call.Method)
	}
}

// dispatchGovernance handles Council/TechnicalCommittee-origin calls that
// don't belong to any single business module: pausing billing and
// granting the registry roles evidence's access policies consult. Which
// origin kind a submitted transaction carries is established upstream of
// dispatch (the governance module's signed-extrinsic threshold checking,
// not modeled by this runtime's simplified extrinsic envelope); by the
// time Dispatch sees the call, call.Module already tells us it cleared
// that bar.
func (c *Composer) dispatchGovernance(origin types.AccountID, call types.Call) error {
	switch call.Method {
	case "SetPause":
		var a struct {
			Module string
			Paused bool
		}
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		return c.Pause.SetPaused(a.Module, a.Paused)
	case "GrantRole":
		var a struct {
			Account types.AccountID
			Role    string
		}
		if err := decode(call.Args, &a); err != nil {
			return err
		}
		return c.Registry.GrantRole(a.Account, a.Role)
	default:
		return fmt.Errorf("runtime: governance: unknown method %q", call.Method)
	}
}
