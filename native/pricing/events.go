package pricing

import (
	"math/big"
	"strconv"

	"stardust/core/types"
)

const EventTypeRateAccepted = "pricing.rate_accepted"

func NewRateAcceptedEvent(rate *big.Int, timestamp int64) *types.Event {
	return &types.Event{
		Type: EventTypeRateAccepted,
		Attributes: map[string]string{
			"rate":      rate.String(),
			"timestamp": strconv.FormatInt(timestamp, 10),
		},
	}
}
