package maker

import stderrors "errors"

var (
	ErrNotFound              = stderrors.New("maker: application not found")
	ErrAlreadyRegistered     = stderrors.New("maker: owner already has an application")
	ErrDepositTooLow         = stderrors.New("maker: deposit below minimum")
	ErrWrongStatus           = stderrors.New("maker: operation invalid in current status")
	ErrUnauthorized          = stderrors.New("maker: caller is not the application owner")
	ErrDeadlinePassed        = stderrors.New("maker: deadline has passed")
	ErrDeadlineNotReached    = stderrors.New("maker: deadline has not been reached")
	ErrMissingEpayConfig     = stderrors.New("maker: epay configuration incomplete")
	ErrFirstPurchasePoolLow  = stderrors.New("maker: first purchase pool below minimum")
	ErrSlashBpsTooHigh       = stderrors.New("maker: slash bps exceeds maximum")
	ErrNoAvailableMaker      = stderrors.New("maker: no active maker has sufficient first-purchase pool")
	ErrFirstPurchaseDepleted = stderrors.New("maker: first purchase pool exhausted")
)
