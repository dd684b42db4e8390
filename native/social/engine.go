package social

import (
	"stardust/core/events"
	"stardust/core/types"
)

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	KVAppend(key []byte, value []byte) error
	KVRemoveFromList(key []byte, value []byte) error
	KVGetList(key []byte, out interface{}) error
}

// targetValidatorPort is the runtime-injected trait deciding whether a
// target exists, who administers it, and whether it resolves to the
// calling account's own profile, narrowed to what social needs.
type targetValidatorPort interface {
	TargetExists(target Target) (bool, error)
	IsTargetAdmin(caller types.AccountID, target Target) (bool, error)
	IsSelfTarget(caller types.AccountID, target Target) (bool, error)
}

func edgeKey(follower types.AccountID, target Target) []byte {
	key := append([]byte("social/edge/"), follower.Bytes()...)
	return append(key, target.bytes()...)
}

func followingListKey(follower types.AccountID) []byte {
	return append([]byte("social/following/"), follower.Bytes()...)
}

func followersListKey(target Target) []byte {
	return append([]byte("social/followers/"), target.bytes()...)
}

func followingCountKey(follower types.AccountID) []byte {
	return append([]byte("social/following_count/"), follower.Bytes()...)
}

func followersCountKey(target Target) []byte {
	return append([]byte("social/followers_count/"), target.bytes()...)
}

func notifKey(follower types.AccountID, target Target) []byte {
	key := append([]byte("social/notif/"), follower.Bytes()...)
	return append(key, target.bytes()...)
}

// Engine implements the follow graph's mutations, keeping the forward
// (following) and reverse (followers) indices and their cached counts
// consistent on every call.
type Engine struct {
	state     engineState
	emitter   events.Emitter
	params    Params
	validator targetValidatorPort
}

// NewEngine builds an Engine with DefaultParams and a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		params:  DefaultParams(),
	}
}

func (e *Engine) SetState(state engineState)              { e.state = state }
func (e *Engine) SetParams(p Params)                      { e.params = p }
func (e *Engine) SetTargetValidator(v targetValidatorPort) { e.validator = v }

func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) targetExists(target Target) (bool, error) {
	if !target.Type.valid() {
		return false, ErrInvalidTargetType
	}
	if e.validator == nil {
		return true, nil
	}
	return e.validator.TargetExists(target)
}

func (e *Engine) isFollowing(follower types.AccountID, target Target) (bool, error) {
	var exists bool
	ok, err := e.state.KVGet(edgeKey(follower, target), &exists)
	if err != nil {
		return false, err
	}
	return ok && exists, nil
}

func (e *Engine) getCount(key []byte) (uint32, error) {
	var count uint32
	_, err := e.state.KVGet(key, &count)
	return count, err
}

// Follow adds follower → target if not already present, enforcing the
// self-follow ban and both fan-out caps.
func (e *Engine) Follow(follower types.AccountID, target Target) error {
	if err := e.addFollow(follower, target); err != nil {
		return err
	}
	e.emit(NewFollowedEvent(follower, target))
	return nil
}

func (e *Engine) addFollow(follower types.AccountID, target Target) error {
	if e.validator != nil {
		self, err := e.validator.IsSelfTarget(follower, target)
		if err != nil {
			return err
		}
		if self {
			return ErrCannotFollowSelf
		}
	}
	exists, err := e.targetExists(target)
	if err != nil {
		return err
	}
	if !exists {
		return ErrTargetNotFound
	}
	already, err := e.isFollowing(follower, target)
	if err != nil {
		return err
	}
	if already {
		return ErrAlreadyFollowing
	}

	followingCount, err := e.getCount(followingCountKey(follower))
	if err != nil {
		return err
	}
	if e.params.MaxFollowingPerUser > 0 && followingCount >= e.params.MaxFollowingPerUser {
		return ErrFollowingCapReached
	}
	followersCount, err := e.getCount(followersCountKey(target))
	if err != nil {
		return err
	}
	if e.params.MaxFollowersPerTarget > 0 && followersCount >= e.params.MaxFollowersPerTarget {
		return ErrFollowersCapReached
	}

	if err := e.state.KVPut(edgeKey(follower, target), true); err != nil {
		return err
	}
	if err := e.state.KVAppend(followingListKey(follower), target.bytes()); err != nil {
		return err
	}
	if err := e.state.KVAppend(followersListKey(target), follower.Bytes()); err != nil {
		return err
	}
	if err := e.state.KVPut(followingCountKey(follower), followingCount+1); err != nil {
		return err
	}
	return e.state.KVPut(followersCountKey(target), followersCount+1)
}

// Unfollow removes follower → target.
func (e *Engine) Unfollow(follower types.AccountID, target Target) error {
	if err := e.removeFollow(follower, target); err != nil {
		return err
	}
	e.emit(NewUnfollowedEvent(follower, target))
	return nil
}

func (e *Engine) removeFollow(follower types.AccountID, target Target) error {
	already, err := e.isFollowing(follower, target)
	if err != nil {
		return err
	}
	if !already {
		return ErrNotFollowing
	}
	if err := e.state.KVDelete(edgeKey(follower, target)); err != nil {
		return err
	}
	if err := e.state.KVRemoveFromList(followingListKey(follower), target.bytes()); err != nil {
		return err
	}
	if err := e.state.KVRemoveFromList(followersListKey(target), follower.Bytes()); err != nil {
		return err
	}
	followingCount, err := e.getCount(followingCountKey(follower))
	if err != nil {
		return err
	}
	if followingCount > 0 {
		followingCount--
	}
	if err := e.state.KVPut(followingCountKey(follower), followingCount); err != nil {
		return err
	}
	followersCount, err := e.getCount(followersCountKey(target))
	if err != nil {
		return err
	}
	if followersCount > 0 {
		followersCount--
	}
	return e.state.KVPut(followersCountKey(target), followersCount)
}

// RemoveFollower lets a target's admin forcibly drop one of its followers.
func (e *Engine) RemoveFollower(admin types.AccountID, target Target, follower types.AccountID) error {
	if e.validator == nil {
		return ErrNotTargetAdmin
	}
	isAdmin, err := e.validator.IsTargetAdmin(admin, target)
	if err != nil {
		return err
	}
	if !isAdmin {
		return ErrNotTargetAdmin
	}
	if err := e.removeFollow(follower, target); err != nil {
		return err
	}
	e.emit(NewFollowerRemovedEvent(follower, target))
	return nil
}

// BatchFollow applies Follow to every target, stopping at and returning the
// first error (the caller's transaction aborts atomically with the rest of
// the runtime's dispatch semantics).
func (e *Engine) BatchFollow(follower types.AccountID, targets []Target) error {
	for _, target := range targets {
		if err := e.Follow(follower, target); err != nil {
			return err
		}
	}
	return nil
}

// BatchUnfollow applies Unfollow to every target, stopping at the first
// error.
func (e *Engine) BatchUnfollow(follower types.AccountID, targets []Target) error {
	for _, target := range targets {
		if err := e.Unfollow(follower, target); err != nil {
			return err
		}
	}
	return nil
}

// UpdateNotificationSetting sets follower's delivery preference for target;
// the edge need not already exist (a preference may be recorded ahead of a
// follow, matching the teacher's optimistic-write idiom elsewhere).
func (e *Engine) UpdateNotificationSetting(follower types.AccountID, target Target, enabled bool) error {
	setting := NotificationSetting{Follower: follower, Target: target, Enabled: enabled}
	if err := e.state.KVPut(notifKey(follower, target), setting); err != nil {
		return err
	}
	e.emit(NewNotificationSettingUpdatedEvent(follower, target, enabled))
	return nil
}

// NotificationSettingOf returns follower's recorded preference for target,
// defaulting to enabled when none has been set.
func (e *Engine) NotificationSettingOf(follower types.AccountID, target Target) (bool, error) {
	var setting NotificationSetting
	ok, err := e.state.KVGet(notifKey(follower, target), &setting)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return setting.Enabled, nil
}

// FollowingCount returns follower's cached following count.
func (e *Engine) FollowingCount(follower types.AccountID) (uint32, error) {
	return e.getCount(followingCountKey(follower))
}

// FollowersCount returns target's cached followers count.
func (e *Engine) FollowersCount(target Target) (uint32, error) {
	return e.getCount(followersCountKey(target))
}

// Following lists the targets follower currently follows.
func (e *Engine) Following(follower types.AccountID) ([]Target, error) {
	var raw [][]byte
	if err := e.state.KVGetList(followingListKey(follower), &raw); err != nil {
		return nil, err
	}
	out := make([]Target, 0, len(raw))
	for _, b := range raw {
		out = append(out, targetFromBytes(b))
	}
	return out, nil
}

// Followers lists target's current followers.
func (e *Engine) Followers(target Target) ([]types.AccountID, error) {
	var raw [][]byte
	if err := e.state.KVGetList(followersListKey(target), &raw); err != nil {
		return nil, err
	}
	out := make([]types.AccountID, 0, len(raw))
	for _, b := range raw {
		id, err := types.AccountIDFromBytes(b)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
