package executive

import (
	"testing"

	"github.com/stretchr/testify/require"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	"stardust/core/types"
	stardustcrypto "stardust/crypto"
)

func signedTx(t *testing.T, priv *stardustcrypto.PrivateKey, sender types.AccountID) *types.Transaction {
	t.Helper()
	tx := &types.Transaction{
		SpecVersion: types.SpecVersion,
		TxVersion:   types.TxVersion,
		Genesis:     types.GenesisHash(),
		Nonce:       0,
		Sender:      sender,
	}
	require.NoError(t, tx.Sign(priv.PrivateKey))
	return tx
}

func TestCheckSignatureAcceptsMatchingSender(t *testing.T) {
	priv, err := stardustcrypto.GeneratePrivateKey()
	require.NoError(t, err)
	sender, err := types.AccountIDFromPublicKey(gethcrypto.FromECDSAPub(priv.PubKey().PublicKey))
	require.NoError(t, err)

	tx := signedTx(t, priv, sender)
	require.NoError(t, checkSignature(tx))
}

func TestCheckSignatureRejectsMismatchedSender(t *testing.T) {
	priv, err := stardustcrypto.GeneratePrivateKey()
	require.NoError(t, err)
	other := types.AccountID{0xff}

	tx := signedTx(t, priv, other)
	require.Error(t, checkSignature(tx))
}

func TestCheckSignatureRejectsMissingSignature(t *testing.T) {
	tx := &types.Transaction{Sender: types.AccountID{0x01}}
	require.Error(t, checkSignature(tx))
}

func TestCheckEraRejectsOutsideWindow(t *testing.T) {
	tx := &types.Transaction{Era: types.Era{Birth: 10, Death: 20}}
	require.NoError(t, checkEra(tx, 15))
	require.Error(t, checkEra(tx, 5))
	require.Error(t, checkEra(tx, 20))
}

func TestCheckNonceRejectsMismatch(t *testing.T) {
	tx := &types.Transaction{Nonce: 3}
	require.NoError(t, checkNonce(tx, 3))
	require.Error(t, checkNonce(tx, 4))
}
