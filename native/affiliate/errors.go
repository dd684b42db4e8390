package affiliate

import stderrors "errors"

var (
	ErrSponsorAlreadyBound = stderrors.New("affiliate: sponsor already bound")
	ErrSelfSponsor         = stderrors.New("affiliate: cannot sponsor self")
	ErrInvalidPercents     = stderrors.New("affiliate: percent vector fails governance invariants")
	ErrInvalidLevel        = stderrors.New("affiliate: unknown membership level")
	ErrMembershipNotFound  = stderrors.New("affiliate: membership not found")
	ErrHoldingBelowThreshold = stderrors.New("affiliate: holding value below minimum threshold")
	ErrPriceUnavailable    = stderrors.New("affiliate: no dust/usd rate available")
	ErrNotDueYet           = stderrors.New("affiliate: weekly settlement not due yet")
	ErrNotY10              = stderrors.New("affiliate: upgrade target must be Y10")
	ErrAlreadyY10          = stderrors.New("affiliate: membership already at Y10")
)
