package storagecoord

import stderrors "errors"

var (
	ErrNotFound              = stderrors.New("storagecoord: pin not found")
	ErrZeroReplicas          = stderrors.New("storagecoord: replicas must be at least 1")
	ErrZeroPrice             = stderrors.New("storagecoord: price must be positive")
	ErrNotSubjectOwner       = stderrors.New("storagecoord: caller is not the subject owner")
	ErrAssignmentExists      = stderrors.New("storagecoord: pin already assigned")
	ErrAssignmentNotFound    = stderrors.New("storagecoord: pin has no assignment")
	ErrNoActiveOperators     = stderrors.New("storagecoord: no active operators available")
	ErrOperatorNotAssigned   = stderrors.New("storagecoord: caller is not assigned to this pin")
	ErrOperatorNotActive     = stderrors.New("storagecoord: operator is not active")
	ErrOperatorNotFound      = stderrors.New("storagecoord: operator not found")
	ErrOperatorExists        = stderrors.New("storagecoord: operator already registered")
	ErrCapacityTooLow        = stderrors.New("storagecoord: capacity below minimum")
	ErrBondTooLow            = stderrors.New("storagecoord: bond below minimum")
	ErrOperatorStillAssigned = stderrors.New("storagecoord: operator still referenced by an assignment")
	ErrBillingPaused         = stderrors.New("storagecoord: billing is paused")
	ErrInvalidBillingParams  = stderrors.New("storagecoord: price, period, grace, and max-per-block must be positive")
	ErrNotDueYet             = stderrors.New("storagecoord: pin not yet due")
)
