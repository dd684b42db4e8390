package social

import (
	"strconv"

	"stardust/core/types"
)

const (
	EventTypeFollowed                   = "social.followed"
	EventTypeUnfollowed                 = "social.unfollowed"
	EventTypeFollowerRemoved            = "social.follower_removed"
	EventTypeNotificationSettingUpdated = "social.notification_setting_updated"
)

func newFollowEvent(eventType string, follower types.AccountID, target Target) *types.Event {
	return &types.Event{Type: eventType, Attributes: map[string]string{
		"follower":   follower.String(),
		"targetType": strconv.Itoa(int(target.Type)),
		"targetId":   strconv.FormatUint(target.ID, 10),
	}}
}

func NewFollowedEvent(follower types.AccountID, target Target) *types.Event {
	return newFollowEvent(EventTypeFollowed, follower, target)
}

func NewUnfollowedEvent(follower types.AccountID, target Target) *types.Event {
	return newFollowEvent(EventTypeUnfollowed, follower, target)
}

func NewFollowerRemovedEvent(follower types.AccountID, target Target) *types.Event {
	return newFollowEvent(EventTypeFollowerRemoved, follower, target)
}

func NewNotificationSettingUpdatedEvent(follower types.AccountID, target Target, enabled bool) *types.Event {
	evt := newFollowEvent(EventTypeNotificationSettingUpdated, follower, target)
	evt.Attributes["enabled"] = strconv.FormatBool(enabled)
	return evt
}
