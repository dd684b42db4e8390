package registry

import stderrors "errors"

var (
	ErrSubjectNotFound = stderrors.New("registry: subject does not exist")
	ErrAlreadyExists   = stderrors.New("registry: subject already registered")
)
