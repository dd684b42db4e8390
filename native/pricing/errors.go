package pricing

import stderrors "errors"

var (
	ErrPriceUnavailable  = stderrors.New("pricing: rate unavailable")
	ErrInvalidRate       = stderrors.New("pricing: rate must be positive")
	ErrSignatureInvalid  = stderrors.New("pricing: proof signature invalid")
	ErrSignerUnauthorized = stderrors.New("pricing: signer not an authorized oracle")
)
