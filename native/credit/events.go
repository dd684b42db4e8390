package credit

import (
	"strconv"

	"stardust/core/types"
)

const EventTypeScoreAdjusted = "credit.score_adjusted"

func NewScoreAdjustedEvent(id types.AccountID, delta int64, newValue int64) *types.Event {
	return &types.Event{
		Type: EventTypeScoreAdjusted,
		Attributes: map[string]string{
			"account": id.String(),
			"delta":   strconv.FormatInt(delta, 10),
			"value":   strconv.FormatInt(newValue, 10),
		},
	}
}
