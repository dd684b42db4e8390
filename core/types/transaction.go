package types

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
)

// specVersion/txVersion identify the runtime build and the extrinsic
// envelope layout respectively; both are checked by the extension pipeline
// before a call is dispatched (spec §6).
const (
	SpecVersion uint32 = 1
	TxVersion   uint32 = 1
)

var genesisHash = crypto.Keccak256([]byte("stardust-genesis"))

// GenesisHash returns the fixed genesis digest checked by CheckGenesis.
func GenesisHash() []byte {
	out := make([]byte, len(genesisHash))
	copy(out, genesisHash)
	return out
}

// CallModule identifies which native module a dispatchable call targets.
type CallModule uint8

const (
	ModuleEscrow CallModule = iota + 1
	ModuleCredit
	ModulePricing
	ModuleMaker
	ModuleOTCOrder
	ModuleBridge
	ModuleArbitration
	ModuleEvidence
	ModuleStorageCoord
	ModuleAffiliate
	ModuleSocial
	ModuleCouncil
	ModuleTechnicalCommittee
)

// Call is the module/method-tagged dispatchable payload carried by a
// Transaction. Args is the RLP-encoded parameter tuple for the named
// method; each native module decodes it against its own typed call struct.
type Call struct {
	Module CallModule `json:"module"`
	Method string     `json:"method"`
	Args   []byte     `json:"args"`
}

// Era bounds how long a signed transaction remains valid, expressed as a
// half-open block-number window (spec §6 CheckEra).
type Era struct {
	Birth BlockNumber `json:"birth"`
	Death BlockNumber `json:"death"`
}

// Immortal reports whether the era never expires.
func (e Era) Immortal() bool {
	return e.Death == 0
}

// Transaction is a signed extrinsic: a dispatchable Call plus the envelope
// fields validated by the CheckXxx extension pipeline (spec §6):
// CheckNonZeroSender, CheckSpecVersion, CheckTxVersion, CheckGenesis,
// CheckEra, CheckNonce, CheckWeight, ChargeTransactionPayment.
type Transaction struct {
	SpecVersion uint32    `json:"specVersion"`
	TxVersion   uint32    `json:"txVersion"`
	Genesis     []byte    `json:"genesis"`
	Era         Era       `json:"era"`
	Nonce       uint64    `json:"nonce"`
	Tip         *big.Int  `json:"tip"`
	Call        Call      `json:"call"`

	Sender AccountID `json:"sender"`

	R *big.Int `json:"r"`
	S *big.Int `json:"s"`
	V *big.Int `json:"v"`

	from []byte
}

// Hash returns the digest signed over by the transaction's originator.
func (tx *Transaction) Hash() ([]byte, error) {
	signed := struct {
		SpecVersion uint32
		TxVersion   uint32
		Genesis     []byte
		Era         Era
		Nonce       uint64
		Tip         *big.Int
		Call        Call
		Sender      AccountID
	}{
		SpecVersion: tx.SpecVersion,
		TxVersion:   tx.TxVersion,
		Genesis:     tx.Genesis,
		Era:         tx.Era,
		Nonce:       tx.Nonce,
		Tip:         tx.Tip,
		Call:        tx.Call,
		Sender:      tx.Sender,
	}
	b, err := json.Marshal(signed)
	if err != nil {
		return nil, err
	}
	hash := sha256.Sum256(b)
	return hash[:], nil
}

// Sign signs the transaction hash with privKey and records the recoverable
// signature fields.
func (tx *Transaction) Sign(privKey *ecdsa.PrivateKey) error {
	hash, err := tx.Hash()
	if err != nil {
		return err
	}
	sig, err := crypto.Sign(hash, privKey)
	if err != nil {
		return err
	}
	tx.R = new(big.Int).SetBytes(sig[:32])
	tx.S = new(big.Int).SetBytes(sig[32:64])
	tx.V = new(big.Int).SetBytes([]byte{sig[64] + 27})
	tx.from = nil
	return nil
}

// From recovers the public key that produced the transaction's signature. It
// does not assert that the recovered key matches Sender; CheckSignature in
// the extension pipeline is responsible for that.
func (tx *Transaction) From() ([]byte, error) {
	if tx.from != nil {
		return tx.from, nil
	}
	if tx.R == nil || tx.S == nil || tx.V == nil {
		return nil, fmt.Errorf("types: transaction missing signature")
	}
	hash, err := tx.Hash()
	if err != nil {
		return nil, err
	}
	sig := make([]byte, 65)
	copy(sig[32-len(tx.R.Bytes()):32], tx.R.Bytes())
	copy(sig[64-len(tx.S.Bytes()):64], tx.S.Bytes())
	sig[64] = byte(tx.V.Uint64() - 27)
	pubKey, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return nil, err
	}
	tx.from = crypto.FromECDSAPub(pubKey)
	return tx.from, nil
}
