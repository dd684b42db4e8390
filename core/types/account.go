package types

import (
	"fmt"
	"math/big"

	"github.com/btcsuite/btcutil/bech32"

	"stardust/crypto"
)

// AccountIDLen is the fixed width of an on-chain account identifier.
const AccountIDLen = 32

// AccountIDHRP is the bech32 human-readable prefix for encoded account
// identifiers.
const AccountIDHRP = "du"

// UNIT is the smallest indivisible amount of the base asset represented by
// an integer balance of 1 (10^12, matching the runtime's fixed-point
// precision).
var UNIT = new(big.Int).Exp(big.NewInt(10), big.NewInt(12), nil)

// ExistentialDeposit is the minimum balance an account must hold to remain
// alive in storage; balances that drop below it are reaped.
var ExistentialDeposit = new(big.Int).Exp(big.NewInt(10), big.NewInt(9), nil)

// AccountID is an opaque 32-byte account identifier. It is intentionally
// unrelated to the 20-byte host key Address in package crypto: the chain's
// account namespace is wider than, and independent from, the key material
// used to sign on its behalf.
type AccountID [AccountIDLen]byte

// ZeroAccountID is the reserved identifier used for burns and unset fields.
var ZeroAccountID = AccountID{}

// IsZero reports whether the identifier is the zero value.
func (a AccountID) IsZero() bool {
	return a == ZeroAccountID
}

// Bytes returns a defensive copy of the identifier's bytes.
func (a AccountID) Bytes() []byte {
	out := make([]byte, AccountIDLen)
	copy(out, a[:])
	return out
}

// String bech32-encodes the identifier using AccountIDHRP.
func (a AccountID) String() string {
	conv, err := bech32.ConvertBits(a[:], 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(AccountIDHRP, conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

// AccountIDFromBytes builds an AccountID from a byte slice, requiring an
// exact length match.
func AccountIDFromBytes(b []byte) (AccountID, error) {
	var id AccountID
	if len(b) != AccountIDLen {
		return id, fmt.Errorf("types: account id must be %d bytes, got %d", AccountIDLen, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// ParseAccountID decodes a bech32-encoded account identifier previously
// produced by AccountID.String.
func ParseAccountID(s string) (AccountID, error) {
	hrp, decoded, err := bech32.Decode(s)
	if err != nil {
		return AccountID{}, fmt.Errorf("types: invalid bech32 account id: %w", err)
	}
	if hrp != AccountIDHRP {
		return AccountID{}, fmt.Errorf("types: unexpected account id prefix %q", hrp)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return AccountID{}, fmt.Errorf("types: error converting bits: %w", err)
	}
	return AccountIDFromBytes(conv)
}

// AccountIDFromPublicKey derives the 32-byte on-chain account identifier for
// a recovered ECDSA public key (uncompressed point encoding), delegating to
// the host keystore's PublicKey.AccountID32. Signature verification is the
// only path that maps key material to an AccountID; everywhere else an
// AccountID is opaque bytes.
func AccountIDFromPublicKey(pubBytes []byte) (AccountID, error) {
	pub, err := crypto.PublicKeyFromBytes(pubBytes)
	if err != nil {
		return AccountID{}, err
	}
	return AccountID(pub.AccountID32()), nil
}

// Account is the on-chain record tracked per AccountID: a monotonically
// increasing replay-protection nonce and a free balance. Reserved balances
// (escrow custody, pending bridge locks) are tracked by the owning module
// under its own keyspace, not on the account record itself.
type Account struct {
	Nonce   uint64   `json:"nonce"`
	Balance *big.Int `json:"balance"`
}

// EnsureDefaults normalizes a freshly decoded Account so nil big.Int fields
// never leak into arithmetic.
func (a *Account) EnsureDefaults() {
	if a.Balance == nil {
		a.Balance = new(big.Int)
	}
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	out := &Account{Nonce: a.Nonce}
	if a.Balance != nil {
		out.Balance = new(big.Int).Set(a.Balance)
	} else {
		out.Balance = new(big.Int)
	}
	return out
}
