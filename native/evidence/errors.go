package evidence

import stderrors "errors"

var (
	ErrNotFound           = stderrors.New("evidence: record not found")
	ErrEmptyCID           = stderrors.New("evidence: cid must not be empty")
	ErrCIDNotPrintable    = stderrors.New("evidence: cid must be printable ASCII")
	ErrCIDTooLong         = stderrors.New("evidence: cid exceeds maximum length")
	ErrDuplicateCID       = stderrors.New("evidence: duplicate cid within commit input")
	ErrGlobalCIDInUse     = stderrors.New("evidence: cid already committed elsewhere")
	ErrRateLimited        = stderrors.New("evidence: account exceeded commit rate limit")
	ErrPerTargetCapReached = stderrors.New("evidence: target has reached its evidence cap")
	ErrCommitExists       = stderrors.New("evidence: commitment already recorded")
	ErrNamespaceMismatch  = stderrors.New("evidence: caller namespace does not match record")
	ErrUnauthorized       = stderrors.New("evidence: caller not authorized for namespace")
	ErrContentNotFound    = stderrors.New("evidence: private content not found")
	ErrAccessDenied       = stderrors.New("evidence: access policy denies caller")
	ErrNotCreator         = stderrors.New("evidence: caller is not the content creator")
)
