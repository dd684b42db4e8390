package bridge

import stderrors "errors"

var (
	ErrNotFound              = stderrors.New("bridge: swap not found")
	ErrWrongStatus           = stderrors.New("bridge: operation invalid in current status")
	ErrWrongKind             = stderrors.New("bridge: operation invalid for this swap kind")
	ErrUnauthorized          = stderrors.New("bridge: caller is not a party to the swap")
	ErrMakerNotActive        = stderrors.New("bridge: maker is not active")
	ErrBelowMinUSDTAmount    = stderrors.New("bridge: computed usdt amount below minimum")
	ErrPriceUnavailable      = stderrors.New("bridge: dust/usdt price unavailable")
	ErrTronTxHashAlreadyUsed = stderrors.New("bridge: trc20 tx hash already used")
	ErrNotTimedOut           = stderrors.New("bridge: swap has not reached its timeout block")
)
