package otcorder

import stderrors "errors"

var (
	ErrNotFound              = stderrors.New("otcorder: order not found")
	ErrWrongStatus           = stderrors.New("otcorder: operation invalid in current status")
	ErrBelowMinOrderSize     = stderrors.New("otcorder: dust amount below minimum order size")
	ErrUnauthorized          = stderrors.New("otcorder: caller is not a party to the order")
	ErrAlreadyUsedFirstPurchase = stderrors.New("otcorder: buyer already used first purchase for this maker")
	ErrTooManyConcurrentFirstPurchase = stderrors.New("otcorder: maker has too many concurrent first-purchase orders")
	ErrNotExpired            = stderrors.New("otcorder: order has not reached its expiry block")
)
