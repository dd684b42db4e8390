package evidence

import (
	"strconv"

	"stardust/core/types"
)

const (
	EventTypeCommitted           = "evidence.committed"
	EventTypeCommitHashRecorded  = "evidence.commit_hash_recorded"
	EventTypeLinked              = "evidence.linked"
	EventTypeUnlinked            = "evidence.unlinked"
	EventTypePrivateContentStored = "evidence.private_content_stored"
	EventTypeKeysRotated         = "evidence.keys_rotated"
)

func newEvidenceEvent(eventType string, id uint64, extra map[string]string) *types.Event {
	attrs := map[string]string{"id": strconv.FormatUint(id, 10)}
	for k, v := range extra {
		attrs[k] = v
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}

func NewCommittedEvent(id uint64, ns string) *types.Event {
	return newEvidenceEvent(EventTypeCommitted, id, map[string]string{"ns": ns})
}

func NewCommitHashRecordedEvent(ns string, subjectID uint64) *types.Event {
	return newEvidenceEvent(EventTypeCommitHashRecorded, subjectID, map[string]string{"ns": ns})
}

func NewLinkedEvent(targetID, evidenceID uint64) *types.Event {
	return newEvidenceEvent(EventTypeLinked, targetID, map[string]string{"evidenceId": strconv.FormatUint(evidenceID, 10)})
}

func NewUnlinkedEvent(targetID, evidenceID uint64) *types.Event {
	return newEvidenceEvent(EventTypeUnlinked, targetID, map[string]string{"evidenceId": strconv.FormatUint(evidenceID, 10)})
}

func NewPrivateContentStoredEvent(contentID uint64) *types.Event {
	return newEvidenceEvent(EventTypePrivateContentStored, contentID, nil)
}

func NewKeysRotatedEvent(contentID uint64, round uint32) *types.Event {
	return newEvidenceEvent(EventTypeKeysRotated, contentID, map[string]string{"round": strconv.FormatUint(uint64(round), 10)})
}
