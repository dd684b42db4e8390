package escrow

import stderrors "errors"

var (
	ErrExists               = stderrors.New("escrow: id already in use")
	ErrNotFound             = stderrors.New("escrow: entry not found")
	ErrZeroAmount           = stderrors.New("escrow: amount must be non-zero")
	ErrBeneficiaryMismatch  = stderrors.New("escrow: refund beneficiary must equal original payer")
	ErrInsufficientBalance  = stderrors.New("escrow: payer balance insufficient after existential deposit")
)
