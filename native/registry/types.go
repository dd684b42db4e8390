// Package registry implements the subject-identity bookkeeping shared by
// every module that needs to ask "who owns this", "who administers this",
// or "is this caller family" without owning that bookkeeping itself:
// storage-coordinator billing ownership, evidence access roles and family
// membership, and the social graph's target-existence/self-target checks.
// Grounded on the teacher's native/loyalty registry.go multi-entity
// registry idiom, generalized from loyalty programs to arbitrary subjects.
package registry

import "stardust/core/types"

// SubjectType distinguishes the kind of record an ID refers to. Kept
// independent of native/social.TargetType so this package stays free of a
// dependency on any of its consumers.
type SubjectType uint8

const (
	SubjectDeceased SubjectType = iota
	SubjectUser
	SubjectGrave
	SubjectPet
	SubjectMemorial
)

// Subject is the persisted ownership/admin record for one (type, id) pair.
type Subject struct {
	Type  SubjectType
	ID    uint64
	Owner types.AccountID
	Admin types.AccountID
}

