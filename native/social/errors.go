package social

import stderrors "errors"

var (
	ErrInvalidTargetType   = stderrors.New("social: unknown target type")
	ErrCannotFollowSelf    = stderrors.New("social: cannot follow self")
	ErrTargetNotFound      = stderrors.New("social: target does not exist")
	ErrAlreadyFollowing    = stderrors.New("social: already following target")
	ErrNotFollowing        = stderrors.New("social: not following target")
	ErrFollowingCapReached = stderrors.New("social: following cap reached")
	ErrFollowersCapReached = stderrors.New("social: followers cap reached")
	ErrNotTargetAdmin      = stderrors.New("social: caller is not the target's admin")
)
