package runtime

import (
	"sync"

	"stardust/core/types"
	"stardust/native/registry"
	"stardust/native/social"
)

// subjectOwnerAdapter narrows registry.Engine to storagecoord's
// subjectOwnerPort, fixing the subject type to Deceased since that is the
// only subject kind storage-coordinator bills pin-storage against.
type subjectOwnerAdapter struct{ reg *registry.Engine }

func (a subjectOwnerAdapter) OwnerOf(subjectID uint64) (types.AccountID, error) {
	return a.reg.OwnerOf(registry.SubjectDeceased, subjectID)
}

// cidResolverAdapter narrows registry.Engine to storagecoord's
// cidResolverPort.
type cidResolverAdapter struct{ reg *registry.Engine }

func (a cidResolverAdapter) Resolve(cidHash [32]byte) (string, bool) {
	return a.reg.ResolveCIDAlias(cidHash)
}

// rolePortAdapter narrows registry.Engine to evidence's rolePort.
type rolePortAdapter struct{ reg *registry.Engine }

func (a rolePortAdapter) HasRole(account types.AccountID, role string) bool {
	has, err := a.reg.HasRole(account, role)
	return err == nil && has
}

// familyPortAdapter narrows registry.Engine to evidence's familyPort.
type familyPortAdapter struct{ reg *registry.Engine }

func (a familyPortAdapter) IsFamilyMember(account types.AccountID, deceasedID uint64) bool {
	ok, err := a.reg.IsFamilyMember(registry.SubjectDeceased, deceasedID, account)
	return err == nil && ok
}

// targetValidatorAdapter narrows registry.Engine to social's
// targetValidatorPort, mapping social.TargetType onto registry.SubjectType.
type targetValidatorAdapter struct{ reg *registry.Engine }

func toSubjectType(t social.TargetType) registry.SubjectType {
	switch t {
	case social.TargetDeceased:
		return registry.SubjectDeceased
	case social.TargetUser:
		return registry.SubjectUser
	case social.TargetGrave:
		return registry.SubjectGrave
	case social.TargetPet:
		return registry.SubjectPet
	default:
		return registry.SubjectMemorial
	}
}

func (a targetValidatorAdapter) TargetExists(target social.Target) (bool, error) {
	return a.reg.Exists(toSubjectType(target.Type), target.ID)
}

func (a targetValidatorAdapter) IsTargetAdmin(caller types.AccountID, target social.Target) (bool, error) {
	return a.reg.IsAdmin(toSubjectType(target.Type), target.ID, caller)
}

func (a targetValidatorAdapter) IsSelfTarget(caller types.AccountID, target social.Target) (bool, error) {
	if target.Type != social.TargetUser {
		return false, nil
	}
	id, ok, err := a.reg.SelfUserID(caller)
	if err != nil || !ok {
		return false, err
	}
	return id == target.ID, nil
}

// localPinCluster is an in-process stand-in for the external pin-cluster
// HTTP API (out of scope per spec §1): it immediately reports every
// requested CID as present on every operator handed to RequestPin, so the
// reconciliation loop has something deterministic to observe.
type localPinCluster struct {
	mu      sync.Mutex
	present map[string]map[string]bool
}

func newLocalPinCluster() *localPinCluster {
	return &localPinCluster{present: make(map[string]map[string]bool)}
}

func (c *localPinCluster) RequestPin(cid string, operatorPeerIDs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	set, ok := c.present[cid]
	if !ok {
		set = make(map[string]bool)
		c.present[cid] = set
	}
	for _, p := range operatorPeerIDs {
		set[p] = true
	}
	return nil
}

func (c *localPinCluster) PinStatus(cid string) (map[string]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]bool, len(c.present[cid]))
	for k, v := range c.present[cid] {
		out[k] = v
	}
	return out, nil
}
