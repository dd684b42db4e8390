package arbitration

import stderrors "errors"

var (
	ErrNotFound          = stderrors.New("arbitration: case not found")
	ErrWrongStatus       = stderrors.New("arbitration: operation invalid in current status")
	ErrFeeTooLow         = stderrors.New("arbitration: fee below minimum")
	ErrUnknownModuleTag  = stderrors.New("arbitration: no decision applier registered for module tag")
	ErrInvalidPartialBps = stderrors.New("arbitration: partial basis points must be <= 10000")
)
