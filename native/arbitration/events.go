package arbitration

import (
	"strconv"

	"stardust/core/types"
)

const (
	EventTypeCaseOpened   = "arbitration.case_opened"
	EventTypeCaseResolved = "arbitration.case_resolved"
	EventTypeCaseClosed   = "arbitration.case_closed"
)

func newCaseEvent(eventType string, id uint64) *types.Event {
	return &types.Event{Type: eventType, Attributes: map[string]string{"caseId": strconv.FormatUint(id, 10)}}
}

func NewCaseOpenedEvent(id uint64) *types.Event   { return newCaseEvent(EventTypeCaseOpened, id) }
func NewCaseResolvedEvent(id uint64) *types.Event { return newCaseEvent(EventTypeCaseResolved, id) }
func NewCaseClosedEvent(id uint64) *types.Event    { return newCaseEvent(EventTypeCaseClosed, id) }
