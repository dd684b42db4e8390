package pricing_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"stardust/core/state"
	"stardust/core/types"
	"stardust/native/pricing"
	"stardust/storage"
)

func TestGetRateUnavailableBeforeAnyProof(t *testing.T) {
	mgr, err := state.New(storage.NewMemDB(), nil)
	require.NoError(t, err)

	eng := pricing.NewEngine()
	eng.SetState(mgr)

	_, err = eng.GetDustToUsdRate()
	require.ErrorIs(t, err, pricing.ErrPriceUnavailable)
}

func TestSubmitPriceProofRejectsUnauthorizedSigner(t *testing.T) {
	mgr, err := state.New(storage.NewMemDB(), nil)
	require.NoError(t, err)

	eng := pricing.NewEngine()
	eng.SetState(mgr)

	proof := &pricing.Proof{
		Rate:      big.NewInt(100),
		Submitter: types.AccountID{1},
		Timestamp: 0,
		Signature: make([]byte, 65),
	}
	err = eng.SubmitPriceProof(proof)
	require.ErrorIs(t, err, pricing.ErrSignerUnauthorized)
}
