package credit_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"stardust/core/state"
	"stardust/core/types"
	"stardust/native/credit"
	"stardust/storage"
)

func TestScoreAdjustmentsClampAndAccumulate(t *testing.T) {
	mgr, err := state.New(storage.NewMemDB(), nil)
	require.NoError(t, err)

	eng := credit.NewEngine()
	eng.SetState(mgr)

	id := types.AccountID{7}
	require.NoError(t, eng.ReportOrderCompleted(id))
	require.NoError(t, eng.ReportBuyerNeglect(id))

	score, err := eng.Get(id)
	require.NoError(t, err)
	require.Equal(t, credit.DeltaOrderCompleted+credit.DeltaBuyerNeglect, score.Value)
	require.Equal(t, uint64(1), score.Completed)
	require.Equal(t, uint64(1), score.Neglected)

	for i := 0; i < 300; i++ {
		require.NoError(t, eng.ReportDisputeLost(id))
	}
	score, err = eng.Get(id)
	require.NoError(t, err)
	require.Equal(t, credit.MinScore, score.Value)
}
